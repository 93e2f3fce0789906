package ui

import (
	"fmt"

	"github.com/matheus3301/chatwave/internal/model"
	"github.com/matheus3301/chatwave/internal/status"
	"github.com/rivo/tview"
)

// SessionData holds the header fields.
type SessionData struct {
	Instance      string
	Self          *model.Profile // nil when signed out
	Status        status.State
	Conversations int
	Open          string // username of the open conversation's peer
}

// SessionInfo displays instance, user and feed state in the header.
type SessionInfo struct {
	*tview.TextView
	theme *Theme
}

// NewSessionInfo creates a new session info panel.
func NewSessionInfo(theme *Theme) *SessionInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)

	return &SessionInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders the session info.
func (si *SessionInfo) Update(data *SessionData) {
	si.Clear()
	if data == nil {
		return
	}

	fg := colorName(si.theme.FgColor)
	counter := colorName(si.theme.CounterColor)

	user := "-"
	if data.Self != nil {
		user = Avatar(data.Self.AvatarIndex) + " " + tview.Escape(data.Self.Username)
	}
	open := data.Open
	if open == "" {
		open = "-"
	}

	_, _ = fmt.Fprintf(si,
		"[%s::b]Instance:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]User:[-:-:-]     %s\n"+
			"[%s::b]Feed:[-:-:-]     %s\n"+
			"[%s::b]Chats:[-:-:-]    [%s]%d[-]\n"+
			"[%s::b]Open:[-:-:-]     [%s]%s[-]",
		fg, counter, tview.Escape(data.Instance),
		fg, user,
		fg, si.feed(data.Status),
		fg, counter, data.Conversations,
		fg, counter, tview.Escape(open),
	)
}

func (si *SessionInfo) feed(s status.State) string {
	switch s {
	case status.Live:
		return Tag(si.theme.OnlineColor) + "● live[-]"
	case status.Stale:
		return Tag(si.theme.StaleColor) + "● stale[-]"
	case status.Error:
		return Tag(si.theme.FlashErrColor) + "● error[-]"
	case status.SigningIn:
		return Tag(si.theme.FlashWarnColor) + "● signing in[-]"
	}
	return Tag(si.theme.OfflineColor) + "○ signed out[-]"
}
