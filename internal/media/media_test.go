package media

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matheus3301/chatwave/internal/model"
)

// PNG signature, enough for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestEncodeFileByExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.png")
	if err := os.WriteFile(path, pngHeader, 0600); err != nil {
		t.Fatal(err)
	}

	ref, err := EncodeFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(ref, "data:image/png;base64,") {
		t.Errorf("ref = %q", ref)
	}

	mimeType, data, err := Decode(ref)
	if err != nil {
		t.Fatal(err)
	}
	if mimeType != "image/png" || string(data) != string(pngHeader) {
		t.Errorf("Decode = %q, %q", mimeType, data)
	}
}

func TestEncodeFileSniffsContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob")
	if err := os.WriteFile(path, pngHeader, 0600); err != nil {
		t.Fatal(err)
	}
	ref, err := EncodeFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(ref, "data:image/png;base64,") {
		t.Errorf("ref = %q, want sniffed image/png", ref)
	}
}

func TestEncodeFileTooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Truncate(MaxSize + 1); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	if _, err := EncodeFile(path); !errors.Is(err, ErrTooLarge) {
		t.Errorf("error = %v, want ErrTooLarge", err)
	}
}

func TestDecodeRejects(t *testing.T) {
	for _, ref := range []string{"https://x/y.png", "data:image/png,raw", "data:image/png;base64"} {
		if _, _, err := Decode(ref); !errors.Is(err, ErrNotDataRef) {
			t.Errorf("Decode(%q) error = %v, want ErrNotDataRef", ref, err)
		}
	}
}

func TestKindOf(t *testing.T) {
	if KindOf("audio/webm") != model.KindVoice {
		t.Error("audio should map to voice")
	}
	if KindOf("image/jpeg") != model.KindImage {
		t.Error("image should map to image")
	}
}
