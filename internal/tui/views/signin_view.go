package views

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/chatwave/internal/tui/ui"
	"github.com/rivo/tview"
)

// SignInView asks for the username to sign in or register with.
type SignInView struct {
	*tview.Flex
	theme    *ui.Theme
	text     *tview.TextView
	input    *tview.InputField
	onSignIn func(username string)
	onCreate func(username string)
}

// NewSignInView creates a new sign-in view.
func NewSignInView(theme *ui.Theme) *SignInView {
	text := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	text.SetBackgroundColor(theme.BgColor)
	text.SetTextColor(theme.FgColor)

	input := tview.NewInputField().
		SetLabel(" Username: ").
		SetFieldWidth(32)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	form := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(text, 0, 1, false).
		AddItem(input, 1, 0, true)
	form.SetBorder(true)
	form.SetBorderColor(theme.BorderColor)
	form.SetBackgroundColor(theme.BgColor)
	form.SetTitle(" Sign in ")
	form.SetTitleColor(theme.TitleColor)

	sv := &SignInView{
		Flex:  form,
		theme: theme,
		text:  text,
		input: input,
	}

	input.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		username := strings.TrimSpace(input.GetText())
		switch ev.Key() {
		case tcell.KeyEnter:
			if username != "" && sv.onSignIn != nil {
				sv.onSignIn(username)
			}
			return nil
		case tcell.KeyCtrlN:
			if username != "" && sv.onCreate != nil {
				sv.onCreate(username)
			}
			return nil
		}
		return ev
	})

	sv.ShowMessage("")
	return sv
}

// Name implements Component.
func (sv *SignInView) Name() string { return "Sign in" }

// Hints implements Component.
func (sv *SignInView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Sign in"},
		{Key: "Ctrl-N", Description: "Register"},
		{Key: "Ctrl-C", Description: "Quit"},
	}
}

// SetOnSignIn sets the callback for Enter.
func (sv *SignInView) SetOnSignIn(fn func(username string)) {
	sv.onSignIn = fn
}

// SetOnRegister sets the callback for Ctrl-N.
func (sv *SignInView) SetOnRegister(fn func(username string)) {
	sv.onCreate = fn
}

// SetUsername prefills the input.
func (sv *SignInView) SetUsername(username string) {
	sv.input.SetText(username)
}

// ShowMessage displays a status line above the input.
func (sv *SignInView) ShowMessage(msg string) {
	sv.text.Clear()
	_, _ = fmt.Fprintf(sv.text, "\n\n[::b]Welcome to chatwave[-:-:-]\n\n"+
		"Type your username and press [%s]Enter[-] to sign in,\n"+
		"or [%s]Ctrl-N[-] to register it as a new profile.\n\n%s",
		colorTag(sv.theme.MenuKeyColor), colorTag(sv.theme.MenuKeyColor), msg)
}

// Input returns the username field.
func (sv *SignInView) Input() *tview.InputField {
	return sv.input
}

func colorTag(c tcell.Color) string {
	return fmt.Sprintf("#%06x", c.Hex())
}
