package ui

import (
	"reflect"
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestPromptSubmitAndHistory(t *testing.T) {
	p := NewPrompt(DefaultTheme())
	var got []string
	p.SetOnSubmit(func(mode PromptMode, text string) {
		if mode != PromptCommand {
			t.Errorf("mode = %v, want command", mode)
		}
		got = append(got, text)
	})

	for _, line := range []string{"reload", " reload ", "chat bob"} {
		p.Activate(PromptCommand, line)
		p.done(tcell.KeyEnter)
	}
	if want := []string{"reload", "reload", "chat bob"}; !reflect.DeepEqual(got, want) {
		t.Errorf("submitted %v, want %v", got, want)
	}
	if want := []string{"reload", "chat bob"}; !reflect.DeepEqual(p.History(), want) {
		t.Errorf("history %v, want %v", p.History(), want)
	}

	p.Activate(PromptCommand, "")
	p.browse(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone))
	if p.GetText() != "chat bob" {
		t.Errorf("Up recalled %q, want chat bob", p.GetText())
	}
	p.browse(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone))
	p.browse(tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone))
	p.browse(tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone))
	if p.GetText() != "" {
		t.Errorf("Down past the end left %q", p.GetText())
	}
}

func TestPromptFilterSkipsHistory(t *testing.T) {
	p := NewPrompt(DefaultTheme())
	cancelled := false
	p.SetOnCancel(func() { cancelled = true })

	p.Activate(PromptFilter, "ali")
	p.done(tcell.KeyEnter)
	if len(p.History()) != 0 {
		t.Errorf("filter text entered history: %v", p.History())
	}

	p.Activate(PromptFilter, "   ")
	p.done(tcell.KeyEnter)
	if !cancelled {
		t.Error("blank submit should cancel")
	}
}

func TestPromptComplete(t *testing.T) {
	p := NewPrompt(DefaultTheme())
	p.SetCommands([]string{"chat", "help", "image", "invite", "reload"})
	p.Activate(PromptCommand, "")

	if got, want := p.complete("i"), []string{"image", "invite"}; !reflect.DeepEqual(got, want) {
		t.Errorf("complete(i) = %v, want %v", got, want)
	}
	if got := p.complete("chat bo"); got != nil {
		t.Errorf("completion offered for arguments: %v", got)
	}
	p.Activate(PromptFilter, "")
	if got := p.complete("i"); got != nil {
		t.Errorf("completion offered in filter mode: %v", got)
	}
}
