package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

// menuRows is the header height; extra hints wrap into another column.
const menuRows = 5

// Menu displays keyboard shortcut hints in columns of menuRows lines.
type Menu struct {
	*tview.TextView
	theme *Theme
}

// NewMenu creates a new menu hint bar.
func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 2, 0)

	return &Menu{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders menu hints column-major.
func (m *Menu) Update(hints []MenuHint) {
	m.Clear()

	keyColor := colorName(m.theme.MenuKeyColor)
	numColor := colorName(m.theme.NumericKeyColor)

	cells := make([]string, len(hints))
	for i, h := range hints {
		kc := keyColor
		if h.Numeric {
			kc = numColor
		}
		label := fmt.Sprintf("<%s> %s", h.Key, h.Description)
		cells[i] = fmt.Sprintf("[%s::b]<%s>[-:-:-] %s%s", kc, h.Key, h.Description, strings.Repeat(" ", max(0, 22-len([]rune(label)))))
	}

	lines := make([]string, min(menuRows, len(cells)))
	for i, c := range cells {
		lines[i%menuRows] += c
	}
	_, _ = fmt.Fprint(m, strings.Join(lines, "\n"))
}
