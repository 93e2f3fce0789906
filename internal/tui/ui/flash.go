package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/rivo/tview"
)

// FlashLevel is the severity of a flash message.
type FlashLevel int

const (
	FlashInfo FlashLevel = iota
	FlashWarn
	FlashErr
)

var flashDurations = map[FlashLevel]time.Duration{
	FlashInfo: 4 * time.Second,
	FlashWarn: 8 * time.Second,
	FlashErr:  12 * time.Second,
}

// FlashMessage is one notification. Repeats counts how many times the same
// text was flashed while it was still showing.
type FlashMessage struct {
	Text    string
	Level   FlashLevel
	Repeats int
	Expires time.Time
}

// FlashModel holds the current notification. It is written from worker
// goroutines and read from the UI goroutine.
type FlashModel struct {
	mu      sync.Mutex
	current FlashMessage
	now     func() time.Time
	changes chan struct{}
}

// NewFlashModel creates an empty flash model.
func NewFlashModel() *FlashModel {
	return &FlashModel{
		now:     time.Now,
		changes: make(chan struct{}, 1),
	}
}

// Info flashes an informational message.
func (f *FlashModel) Info(msg string) { f.set(msg, FlashInfo) }

// Warn flashes a warning.
func (f *FlashModel) Warn(msg string) { f.set(msg, FlashWarn) }

// Err flashes an error.
func (f *FlashModel) Err(err error) { f.set(err.Error(), FlashErr) }

func (f *FlashModel) set(text string, level FlashLevel) {
	now := f.now()
	f.mu.Lock()
	if f.current.Text == text && f.current.Level == level && now.Before(f.current.Expires) {
		f.current.Repeats++
	} else {
		f.current = FlashMessage{Text: text, Level: level, Repeats: 1}
	}
	f.current.Expires = now.Add(flashDurations[level])
	f.mu.Unlock()

	select {
	case f.changes <- struct{}{}:
	default:
	}
}

// Clear drops the current message.
func (f *FlashModel) Clear() {
	f.mu.Lock()
	f.current = FlashMessage{}
	f.mu.Unlock()
}

// Current returns the showing message, or nil once it has expired.
func (f *FlashModel) Current() *FlashMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current.Text == "" || !f.now().Before(f.current.Expires) {
		return nil
	}
	m := f.current
	return &m
}

// Changes signals every new message. Signals coalesce.
func (f *FlashModel) Changes() <-chan struct{} {
	return f.changes
}

// FlashBar is the bottom line showing the current flash message.
type FlashBar struct {
	*tview.TextView
	theme *Theme
}

// NewFlashBar creates an empty flash bar.
func NewFlashBar(theme *Theme) *FlashBar {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	return &FlashBar{TextView: tv, theme: theme}
}

// Update renders msg, or clears the bar for nil.
func (fb *FlashBar) Update(msg *FlashMessage) {
	fb.Clear()
	if msg == nil {
		return
	}
	color := fb.theme.FlashInfoColor
	switch msg.Level {
	case FlashWarn:
		color = fb.theme.FlashWarnColor
	case FlashErr:
		color = fb.theme.FlashErrColor
	}
	text := tview.Escape(msg.Text)
	if msg.Repeats > 1 {
		text = fmt.Sprintf("%s (x%d)", text, msg.Repeats)
	}
	_, _ = fmt.Fprintf(fb, " %s%s[-]", Tag(color), text)
}
