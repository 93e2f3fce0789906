package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/chatwave/internal/model"
	"github.com/matheus3301/chatwave/internal/tui/ui"
	"github.com/rivo/tview"
)

// SearchView finds users to start a conversation with. Results follow the
// input as it is typed.
type SearchView struct {
	*tview.Flex
	theme    *ui.Theme
	input    *tview.InputField
	results  *tview.Table
	onQuery  func(query string)
	onSubmit func()
	data     []model.Profile
}

// NewSearchView creates a new search view.
func NewSearchView(theme *ui.Theme) *SearchView {
	input := tview.NewInputField().
		SetLabel(" Find user: ").
		SetFieldWidth(0)
	input.SetBorderColor(theme.BorderColor)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	results := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	results.SetBorder(true)
	results.SetBorderColor(theme.BorderColor)
	results.SetBackgroundColor(theme.BgColor)
	results.SetTitle(" Users ")
	results.SetTitleColor(theme.TitleColor)
	results.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(input, 1, 0, true).
		AddItem(results, 0, 1, false)

	sv := &SearchView{
		Flex:    flex,
		theme:   theme,
		input:   input,
		results: results,
	}

	input.SetChangedFunc(func(text string) {
		if sv.onQuery != nil {
			sv.onQuery(text)
		}
	})
	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && sv.onSubmit != nil {
			sv.onSubmit()
		}
	})

	return sv
}

// Name implements Component.
func (sv *SearchView) Name() string { return "Find user" }

// Hints implements Component.
func (sv *SearchView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Results / Start chat"},
	}
}

// SetOnQuery sets the callback for every edit of the query.
func (sv *SearchView) SetOnQuery(fn func(query string)) {
	sv.onQuery = fn
}

// SetOnSubmit sets the callback for Enter in the input.
func (sv *SearchView) SetOnSubmit(fn func()) {
	sv.onSubmit = fn
}

// Reset clears the query and results.
func (sv *SearchView) Reset(query string) {
	sv.input.SetText(query)
	sv.Update(query, nil)
}

// Query returns the current input text.
func (sv *SearchView) Query() string {
	return sv.input.GetText()
}

// Update shows the results for query. Results for a query that no longer
// matches the input are ignored.
func (sv *SearchView) Update(query string, results []model.Profile) {
	if query != sv.input.GetText() {
		return
	}
	sv.data = results
	sv.results.Clear()

	headers := []string{"   USER", " STATUS"}
	for col, h := range headers {
		sv.results.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(sv.theme.TableHeaderFg).
			SetBackgroundColor(sv.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold))
	}

	for i := range results {
		p := &results[i]
		state := "offline"
		if p.Online {
			state = "online"
		}
		name := fmt.Sprintf(" %s %s %s", sv.theme.Presence(p.Online), ui.Avatar(p.AvatarIndex), clean(p.Username))
		sv.results.SetCell(i+1, 0, tview.NewTableCell(name).SetExpansion(1).SetTextColor(sv.theme.FgColor))
		sv.results.SetCell(i+1, 1, tview.NewTableCell(" "+state).SetTextColor(sv.theme.FgColor))
	}
	sv.results.SetTitle(fmt.Sprintf(" Users (%d) ", len(results)))
}

// SelectedProfile returns the profile under the cursor, or nil.
func (sv *SearchView) SelectedProfile() *model.Profile {
	row, _ := sv.results.GetSelection()
	idx := row - 1
	if idx >= 0 && idx < len(sv.data) {
		p := sv.data[idx]
		return &p
	}
	return nil
}

// Len returns the number of results shown.
func (sv *SearchView) Len() int {
	return len(sv.data)
}

// Input returns the search input field.
func (sv *SearchView) Input() *tview.InputField {
	return sv.input
}

// Results returns the results table.
func (sv *SearchView) Results() *tview.Table {
	return sv.results
}
