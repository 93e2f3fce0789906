package views

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/chatwave/internal/model"
	"github.com/matheus3301/chatwave/internal/tui/ui"
	"github.com/rivo/tview"
)

// ConversationList is the main conversation table.
type ConversationList struct {
	*tview.Table
	theme     *ui.Theme
	summaries []model.Summary
	visible   []string // conversation ids in row order
	filter    string
	now       func() time.Time
}

// NewConversationList creates a new conversation list table.
func NewConversationList(theme *ui.Theme) *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(" Conversations ")
	table.SetTitleColor(theme.TitleColor)

	return &ConversationList{
		Table: table,
		theme: theme,
		now:   time.Now,
	}
}

// Name implements Component.
func (cl *ConversationList) Name() string { return "Conversations" }

// Hints implements Component.
func (cl *ConversationList) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "1-9", Description: "Jump", Numeric: true},
	}
}

// Update replaces the list with a new directory snapshot, keeping the
// cursor on the same conversation when it is still present.
func (cl *ConversationList) Update(summaries []model.Summary) {
	selected := cl.SelectedConversation()
	cl.summaries = summaries
	cl.render()
	cl.SelectConversation(selected)
}

// SelectConversation moves the cursor to a conversation, if visible.
func (cl *ConversationList) SelectConversation(conversationID string) {
	for i, id := range cl.visible {
		if id == conversationID {
			cl.Table.Select(i+1, 0)
			return
		}
	}
}

// SetFilter sets the active filter text and re-renders.
func (cl *ConversationList) SetFilter(filter string) {
	cl.filter = filter
	cl.render()
}

// ClearFilter clears the active filter.
func (cl *ConversationList) ClearFilter() {
	cl.filter = ""
	cl.render()
}

// Filter returns the active filter.
func (cl *ConversationList) Filter() string {
	return cl.filter
}

func (cl *ConversationList) matches(s *model.Summary) bool {
	if cl.filter == "" {
		return true
	}
	return containsFold(displayName(s.Other), cl.filter) || containsFold(s.Preview(), cl.filter)
}

func (cl *ConversationList) render() {
	cl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{"   NAME", 1},
		{" LAST MESSAGE", 2},
		{" TIME", 0},
	}
	for col, h := range headers {
		cell := tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetBackgroundColor(cl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp)
		cl.SetCell(0, col, cell)
	}

	now := cl.now()
	cl.visible = cl.visible[:0]
	row := 1
	for i := range cl.summaries {
		s := &cl.summaries[i]
		if !cl.matches(s) {
			continue
		}

		avatar := "  "
		online := false
		if s.Other != nil {
			avatar = ui.Avatar(s.Other.AvatarIndex)
			online = s.Other.Online
		}
		name := fmt.Sprintf(" %s %s %s", cl.theme.Presence(online), avatar, clean(displayName(s.Other)))

		cl.SetCell(row, 0, tview.NewTableCell(name).SetExpansion(1).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 1, tview.NewTableCell(" "+clean(s.Preview())).SetExpansion(2).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 2, tview.NewTableCell(formatTimestamp(s.Conversation.UpdatedAt, now)+" ").SetExpansion(0).SetTextColor(cl.theme.FgColor).SetAlign(tview.AlignRight))
		cl.visible = append(cl.visible, s.Conversation.ID)
		row++
	}

	if cl.filter != "" {
		cl.SetTitle(fmt.Sprintf(" Conversations (%d/%d) filter: %s ", len(cl.visible), len(cl.summaries), tview.Escape(cl.filter)))
	} else {
		cl.SetTitle(fmt.Sprintf(" Conversations (%d) ", len(cl.summaries)))
	}
}

// SelectedConversation returns the id of the conversation under the cursor.
func (cl *ConversationList) SelectedConversation() string {
	row, _ := cl.GetSelection()
	return cl.ConversationByIndex(row)
}

// ConversationByIndex returns the id of the Nth visible conversation (1-based).
func (cl *ConversationList) ConversationByIndex(n int) string {
	if n < 1 || n > len(cl.visible) {
		return ""
	}
	return cl.visible[n-1]
}

func displayName(p *model.Profile) string {
	if p == nil {
		return "(unknown user)"
	}
	return p.Username
}
