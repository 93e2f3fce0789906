package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/chatwave/internal/media"
	"github.com/matheus3301/chatwave/internal/model"
	"github.com/matheus3301/chatwave/internal/tui/ui"
	"github.com/rivo/tview"
)

// MessageThread displays messages and a composer for a single conversation.
type MessageThread struct {
	*tview.Flex
	theme          *ui.Theme
	messages       *tview.TextView
	composer       *tview.InputField
	peer           *model.Profile
	conversationID string
	onSend         func(text string)
	now            func() time.Time
}

// NewMessageThread creates a new message thread view.
func NewMessageThread(theme *ui.Theme) *MessageThread {
	messages := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	messages.SetBorder(true)
	messages.SetBorderColor(theme.BorderColor)
	messages.SetBackgroundColor(theme.BgColor)
	messages.SetTextColor(theme.FgColor)
	messages.SetTitle(" Messages ")
	messages.SetTitleColor(theme.TitleColor)

	composer := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	composer.SetBorder(true)
	composer.SetBorderColor(theme.BorderColor)
	composer.SetBackgroundColor(theme.BgColor)
	composer.SetFieldBackgroundColor(theme.BgColor)
	composer.SetFieldTextColor(theme.FgColor)
	composer.SetLabelColor(theme.MenuKeyColor)
	composer.SetTitle(" Message (i to focus, :image / :voice to attach) ")
	composer.SetTitleColor(theme.TitleColor)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(messages, 0, 1, true).
		AddItem(composer, 3, 0, false)

	mt := &MessageThread{
		Flex:     flex,
		theme:    theme,
		messages: messages,
		composer: composer,
		now:      time.Now,
	}

	composer.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && mt.onSend != nil {
			text := strings.TrimSpace(composer.GetText())
			if text != "" {
				mt.onSend(text)
				composer.SetText("")
			}
		}
	})

	return mt
}

// Name implements Component.
func (mt *MessageThread) Name() string {
	if mt.peer != nil {
		return mt.peer.Username
	}
	return "Messages"
}

// Hints implements Component.
func (mt *MessageThread) Hints() []ui.MenuHint {
	return nil
}

// Bind switches the view to a conversation and clears the old history.
func (mt *MessageThread) Bind(conversationID string, peer *model.Profile) {
	mt.conversationID = conversationID
	mt.messages.Clear()
	mt.SetPeer(peer)
}

// SetPeer updates the title with the other participant and presence.
func (mt *MessageThread) SetPeer(peer *model.Profile) {
	mt.peer = peer
	if peer == nil {
		mt.messages.SetTitle(" Messages ")
		return
	}
	presence := "last seen " + formatLastSeen(peer.LastSeen, mt.now())
	if peer.Online {
		presence = "online"
	}
	mt.messages.SetTitle(fmt.Sprintf(" %s %s [::d](%s)[-:-:-] ",
		ui.Avatar(peer.AvatarIndex), clean(peer.Username), presence))
}

// ConversationID returns the bound conversation.
func (mt *MessageThread) ConversationID() string {
	return mt.conversationID
}

// SetOnSend sets the callback when a message is sent.
func (mt *MessageThread) SetOnSend(fn func(text string)) {
	mt.onSend = fn
}

// Update renders the messages oldest first. selfID marks the user's own
// messages.
func (mt *MessageThread) Update(msgs []model.Message, selfID string) {
	mt.messages.Clear()
	now := mt.now()

	for i := range msgs {
		m := &msgs[i]
		sender := "?"
		color := mt.theme.PeerMessageColor
		switch {
		case m.SenderID == selfID:
			sender = "You"
			color = mt.theme.OwnMessageColor
		case mt.peer != nil && m.SenderID == mt.peer.ID:
			sender = mt.peer.Username
		}

		line := fmt.Sprintf("%s[::b]%s[-:-:-] [::d]%s[-:-:-]\n%s\n\n",
			ui.Tag(color), clean(sender), formatTimestamp(m.CreatedAt, now),
			body(m))
		_, _ = fmt.Fprint(mt.messages, line)
	}

	mt.messages.ScrollToEnd()
}

// body renders a message payload. Media is shown as a placeholder with its
// type and size; the terminal cannot display it.
func body(m *model.Message) string {
	if m.Kind == model.KindText {
		return clean(m.Text())
	}
	s := model.Summary{Last: m}
	label := s.Preview()
	if m.MediaRef == nil {
		return label
	}
	mimeType, data, err := media.Decode(*m.MediaRef)
	if err != nil {
		return label + " [::d](unreadable)[-:-:-]"
	}
	return fmt.Sprintf("%s [::d](%s, %s)[-:-:-]", label, mimeType, formatSize(len(data)))
}

func formatSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

// Messages returns the messages text view (for focus management).
func (mt *MessageThread) Messages() *tview.TextView {
	return mt.messages
}

// Composer returns the composer input field (for focus management).
func (mt *MessageThread) Composer() *tview.InputField {
	return mt.composer
}
