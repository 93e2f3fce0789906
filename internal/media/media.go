// Package media turns image and voice files into inline data references
// that travel inside a message's media reference field.
package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/matheus3301/chatwave/internal/model"
)

// MaxSize bounds an encoded payload's source file.
const MaxSize = 4 << 20

var ErrTooLarge = errors.New("media file too large")

// ErrNotDataRef is returned by Decode for references that are not inline
// base64 data.
var ErrNotDataRef = errors.New("not a base64 data reference")

// EncodeFile reads path and returns a data:<mime>;base64,... reference.
func EncodeFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() > MaxSize {
		return "", fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, path, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return Encode(data, typeOf(path, data)), nil
}

// Encode builds a data reference for raw bytes.
func Encode(data []byte, mimeType string) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Decode splits a data reference into its MIME type and payload.
func Decode(ref string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(ref, "data:")
	if !ok {
		return "", nil, ErrNotDataRef
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrNotDataRef
	}
	mimeType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, ErrNotDataRef
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode media: %w", err)
	}
	return mimeType, data, nil
}

// KindOf picks the message kind for a MIME type. Audio is voice, anything
// else is sent as an image.
func KindOf(mimeType string) model.Kind {
	if strings.HasPrefix(mimeType, "audio/") {
		return model.KindVoice
	}
	return model.KindImage
}

func typeOf(path string, data []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); t != "" {
		t, _, _ = strings.Cut(t, ";")
		return t
	}
	t := http.DetectContentType(data)
	t, _, _ = strings.Cut(t, ";")
	return t
}
