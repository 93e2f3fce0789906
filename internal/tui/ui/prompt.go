package ui

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// PromptMode selects what a submitted prompt line means.
type PromptMode int

const (
	PromptCommand PromptMode = iota
	PromptFilter
)

const promptHistorySize = 50

// Prompt is the input bar for ':' commands and '/' filters. Command mode
// keeps a history (Up/Down) and completes command names.
type Prompt struct {
	*tview.InputField
	theme    *Theme
	mode     PromptMode
	commands []string
	history  []string
	cursor   int // index into history while browsing, len(history) otherwise
	onSubmit func(mode PromptMode, text string)
	onCancel func()
}

// NewPrompt creates a hidden prompt bar.
func NewPrompt(theme *Theme) *Prompt {
	input := tview.NewInputField()
	input.SetBorder(true)
	input.SetBorderColor(theme.PromptBorderColor)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	p := &Prompt{InputField: input, theme: theme}
	input.SetAutocompleteFunc(p.complete)
	input.SetInputCapture(p.browse)
	input.SetDoneFunc(p.done)
	return p
}

// SetCommands sets the command names offered for completion.
func (p *Prompt) SetCommands(names []string) {
	p.commands = names
}

// SetOnSubmit sets the callback for a non-empty line submitted with Enter.
func (p *Prompt) SetOnSubmit(fn func(mode PromptMode, text string)) {
	p.onSubmit = fn
}

// SetOnCancel sets the callback for Esc.
func (p *Prompt) SetOnCancel(fn func()) {
	p.onCancel = fn
}

// Activate prepares the prompt for mode, prefilled with text.
func (p *Prompt) Activate(mode PromptMode, text string) {
	p.mode = mode
	p.cursor = len(p.history)
	p.SetText(text)
	if mode == PromptFilter {
		p.SetLabel("/")
		p.SetTitle(" Filter conversations ")
		return
	}
	p.SetLabel(":")
	p.SetTitle(" Command ")
}

// Mode returns the active mode.
func (p *Prompt) Mode() PromptMode {
	return p.mode
}

// History returns the submitted commands, oldest first.
func (p *Prompt) History() []string {
	return append([]string(nil), p.history...)
}

func (p *Prompt) done(key tcell.Key) {
	text := strings.TrimSpace(p.GetText())
	p.SetText("")
	switch key {
	case tcell.KeyEnter:
		if text == "" {
			if p.onCancel != nil {
				p.onCancel()
			}
			return
		}
		if p.mode == PromptCommand {
			p.remember(text)
		}
		if p.onSubmit != nil {
			p.onSubmit(p.mode, text)
		}
	case tcell.KeyEscape:
		if p.onCancel != nil {
			p.onCancel()
		}
	}
}

func (p *Prompt) remember(text string) {
	if n := len(p.history); n > 0 && p.history[n-1] == text {
		return
	}
	p.history = append(p.history, text)
	if len(p.history) > promptHistorySize {
		p.history = p.history[len(p.history)-promptHistorySize:]
	}
}

// browse walks the command history with Up and Down.
func (p *Prompt) browse(ev *tcell.EventKey) *tcell.EventKey {
	if p.mode != PromptCommand || len(p.history) == 0 {
		return ev
	}
	// Typed text belongs to the completion list.
	if p.cursor == len(p.history) && p.GetText() != "" {
		return ev
	}
	switch ev.Key() {
	case tcell.KeyUp:
		if p.cursor > 0 {
			p.cursor--
		}
	case tcell.KeyDown:
		if p.cursor < len(p.history) {
			p.cursor++
		}
	default:
		return ev
	}
	if p.cursor == len(p.history) {
		p.SetText("")
	} else {
		p.SetText(p.history[p.cursor])
	}
	return nil
}

// complete offers command names for the first word in command mode.
func (p *Prompt) complete(text string) []string {
	if p.mode != PromptCommand || text == "" || strings.Contains(text, " ") {
		return nil
	}
	var out []string
	for _, c := range p.commands {
		if strings.HasPrefix(c, strings.ToLower(text)) && c != text {
			out = append(out, c)
		}
	}
	return out
}
