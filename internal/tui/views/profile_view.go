package views

import (
	"fmt"

	"github.com/matheus3301/chatwave/internal/invite"
	"github.com/matheus3301/chatwave/internal/model"
	"github.com/matheus3301/chatwave/internal/tui/ui"
	"github.com/rivo/tview"
)

// ProfileView shows the signed-in profile, its avatar and an invite QR
// code others can scan to start a conversation.
type ProfileView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewProfileView creates a new profile view.
func NewProfileView(theme *ui.Theme) *ProfileView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Profile ")
	tv.SetTitleColor(theme.TitleColor)

	return &ProfileView{
		TextView: tv,
		theme:    theme,
	}
}

// Name implements Component.
func (pv *ProfileView) Name() string { return "Profile" }

// Hints implements Component.
func (pv *ProfileView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "←/→", Description: "Avatar"},
	}
}

// Update renders p with its invite code.
func (pv *ProfileView) Update(p *model.Profile) {
	pv.Clear()
	if p == nil {
		return
	}

	var palette string
	for i := range model.AvatarCount() {
		if i == p.AvatarIndex {
			palette += fmt.Sprintf("[::r]%s[::-]", ui.Avatar(i))
		} else {
			palette += ui.Avatar(i)
		}
		palette += " "
	}

	uri := invite.URI(p)
	qr, err := invite.Render(uri, "")
	if err != nil {
		qr = "(QR generation failed: " + err.Error() + ")\n"
	}

	_, _ = fmt.Fprintf(pv, "\n%s  [::b]%s[-:-:-]\n[::d]%s[-:-:-]\n\n%s\n\n%s\nScan to start a conversation:\n[::d]%s[-:-:-]\n",
		ui.Avatar(p.AvatarIndex), clean(p.Username), p.ID,
		palette, qr, tview.Escape(uri))
	pv.ScrollToBeginning()
}
