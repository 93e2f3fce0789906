package views

import (
	"fmt"
	"time"

	"github.com/matheus3301/chatwave/internal/model"
	"github.com/matheus3301/chatwave/internal/tui/ui"
	"github.com/rivo/tview"
)

// ConversationInfo displays detailed information about a conversation.
type ConversationInfo struct {
	*tview.TextView
	theme *ui.Theme
	now   func() time.Time
}

// NewConversationInfo creates a new conversation info view.
func NewConversationInfo(theme *ui.Theme) *ConversationInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Conversation Details ")
	tv.SetTitleColor(theme.TitleColor)

	return &ConversationInfo{
		TextView: tv,
		theme:    theme,
		now:      time.Now,
	}
}

// Name implements Component.
func (ci *ConversationInfo) Name() string { return "Details" }

// Hints implements Component.
func (ci *ConversationInfo) Hints() []ui.MenuHint {
	return nil
}

// Update renders details for s. messages is the number of loaded
// messages, or -1 if the conversation is not open.
func (ci *ConversationInfo) Update(s *model.Summary, messages int) {
	ci.Clear()
	if s == nil {
		return
	}

	fg := colorTag(ci.theme.FgColor)
	ct := colorTag(ci.theme.CounterColor)
	now := ci.now()

	name, avatar, presence := displayName(s.Other), "", "-"
	if s.Other != nil {
		avatar = ui.Avatar(s.Other.AvatarIndex)
		presence = ci.theme.Presence(s.Other.Online) + " last seen " + formatLastSeen(s.Other.LastSeen, now)
		if s.Other.Online {
			presence = ci.theme.Presence(true) + " online"
		}
	}
	count := "-"
	if messages >= 0 {
		count = fmt.Sprint(messages)
	}

	_, _ = fmt.Fprintf(ci,
		"\n [%s::b]With:[-:-:-]         %s [%s]%s[-]\n"+
			" [%s::b]Presence:[-:-:-]     %s\n"+
			" [%s::b]Conversation:[-:-:-] [%s]%s[-]\n"+
			" [%s::b]Started:[-:-:-]      [%s]%s[-]\n"+
			" [%s::b]Last Active:[-:-:-]  [%s]%s[-]\n"+
			" [%s::b]Messages:[-:-:-]     [%s]%s[-]\n"+
			" [%s::b]Last Message:[-:-:-] [%s]%s[-]",
		fg, avatar, ct, clean(name),
		fg, presence,
		fg, ct, s.Conversation.ID,
		fg, ct, s.Conversation.CreatedAt.Local().Format("2006-01-02 15:04"),
		fg, ct, formatTimestamp(s.Conversation.UpdatedAt, now),
		fg, ct, count,
		fg, ct, clean(s.Preview()),
	)
	ci.SetTitle(fmt.Sprintf(" %s Details ", tview.Escape(name)))
}
