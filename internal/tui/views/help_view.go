package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/chatwave/internal/tui/ui"
	"github.com/rivo/tview"
)

// HelpView displays key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	hv.render()
	return hv
}

// Name implements Component.
func (hv *HelpView) Name() string { return "Help" }

// Hints implements Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return nil
}

var helpSections = []struct {
	title string
	rows  [][2]string
}{
	{"Global", [][2]string{
		{":", "Command mode"},
		{"Esc", "Cancel / Go back"},
		{"?", "Help"},
		{"n", "Find a user and start a conversation"},
		{"p", "Your profile and invite code"},
		{"r", "Reload conversations"},
		{"q", "Quit / Back"},
		{"Ctrl-C", "Quit immediately"},
	}},
	{"Conversation List", [][2]string{
		{"Enter", "Open conversation"},
		{"/", "Filter by name or message"},
		{"0", "Clear filter"},
		{"1-9", "Jump to Nth conversation"},
		{"d", "Conversation details"},
	}},
	{"Message Thread", [][2]string{
		{"i", "Focus composer"},
		{"Enter", "Send message (in composer)"},
		{"Esc", "Leave composer"},
		{"d", "Conversation details"},
	}},
	{"Profile", [][2]string{
		{"←/→ h/l", "Change avatar"},
	}},
	{"Commands", [][2]string{
		{":chat <user>", "Open or start a conversation by username"},
		{":invite <link>", "Start a conversation from an invite link"},
		{":search <query>", "Find users"},
		{":image <file>", "Send an image to the open conversation"},
		{":voice <file>", "Send a voice recording"},
		{":avatar <n>", "Change avatar"},
		{":reload", "Reload conversations and messages"},
		{":logout", "Sign out"},
		{":help / :h", "Show this help"},
		{":quit / :q", "Quit application"},
	}},
}

func (hv *HelpView) render() {
	kc := colorTag(hv.theme.MenuKeyColor)

	var b strings.Builder
	for _, s := range helpSections {
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", s.title)
		for _, r := range s.rows {
			pad := strings.Repeat(" ", max(1, 18-len([]rune(r[0]))))
			fmt.Fprintf(&b, "  [%s]%s[-:-:-]%s%s\n", kc, tview.Escape(r[0]), pad, r[1])
		}
	}
	_, _ = fmt.Fprint(hv, b.String())
}
