package keys

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestViewBindingShadowsGlobal(t *testing.T) {
	r := NewRegistry()
	var got string
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: 'q', Handler: func() { got = "quit" }})
	r.AddView("thread", &Action{Key: tcell.KeyRune, Rune: 'q', Handler: func() { got = "back" }})

	ev := tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)
	if !r.HandleEvent("thread", ev) || got != "back" {
		t.Errorf("thread page: got %q, want back", got)
	}
	if !r.HandleEvent("conversations", ev) || got != "quit" {
		t.Errorf("conversations page: got %q, want quit", got)
	}
	if r.HandleEvent("conversations", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)) {
		t.Error("unbound key reported as handled")
	}
}

func TestHintsOrder(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: '?', Description: "Help", Visible: true})
	r.AddView("conversations", &Action{Key: tcell.KeyEnter, Description: "Open", Visible: true})
	r.AddView("conversations", &Action{Key: tcell.KeyRune, Rune: 'n', Description: "New", Visible: true})
	r.AddView("conversations", &Action{Key: tcell.KeyRune, Rune: 'x', Description: "Hidden"})

	hints := r.Hints("conversations")
	want := []string{"Enter", "n", "?"}
	if len(hints) != len(want) {
		t.Fatalf("got %d hints, want %d: %+v", len(hints), len(want), hints)
	}
	for i, h := range hints {
		if h.Key != want[i] {
			t.Errorf("hints[%d].Key = %q, want %q", i, h.Key, want[i])
		}
	}
}
