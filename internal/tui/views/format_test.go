package views

import (
	"testing"
	"time"
)

func TestFormatTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"zero", time.Time{}, ""},
		{"today", time.Date(2026, 3, 14, 9, 5, 0, 0, time.UTC), "09:05"},
		{"yesterday", time.Date(2026, 3, 13, 23, 59, 0, 0, time.UTC), "03/13"},
		{"last year same day", time.Date(2025, 3, 14, 9, 5, 0, 0, time.UTC), "03/14"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatTimestamp(tt.t, now); got != tt.want {
				t.Errorf("formatTimestamp() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatLastSeen(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3*time.Hour + 20*time.Minute, "3h ago"},
		{72 * time.Hour, "03/11"},
	}
	for _, tt := range tests {
		if got := formatLastSeen(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("formatLastSeen(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
	if got := formatLastSeen(time.Time{}, now); got != "never" {
		t.Errorf("formatLastSeen(zero) = %q, want never", got)
	}
}

func TestCleanEscapesTags(t *testing.T) {
	got := clean("[red]hi\x1b[2J")
	if got != "[red[]hi[2J" {
		t.Errorf("clean() = %q", got)
	}
}
