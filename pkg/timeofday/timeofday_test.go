package timeofday

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Clock
		wantErr bool
	}{
		{name: "midnight", input: "00:00", want: 0},
		{name: "morning", input: "09:00", want: 540},
		{name: "last minute", input: "23:59", want: 1439},
		{name: "hour 24", input: "24:00", wantErr: true},
		{name: "single digit hour", input: "9:00", wantErr: true},
		{name: "seconds", input: "09:00:00", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "minute 60", input: "10:60", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClock(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseClock(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseClock(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseClock(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestClockRoundTrip(t *testing.T) {
	for _, s := range []string{"00:00", "08:05", "12:30", "17:00", "23:59"} {
		c, err := ParseClock(s)
		if err != nil {
			t.Fatalf("ParseClock(%q): %v", s, err)
		}
		if c.String() != s {
			t.Errorf("round trip %q -> %q", s, c.String())
		}
	}
}

func TestCombineRoundTrip(t *testing.T) {
	ts, err := Combine("2025-03-14", "10:45", time.UTC)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if got := FormatDate(ts); got != "2025-03-14" {
		t.Errorf("FormatDate = %q", got)
	}
	if got := ClockOf(ts).String(); got != "10:45" {
		t.Errorf("ClockOf = %q", got)
	}
}

func TestCombineRejectsBadDate(t *testing.T) {
	if _, err := Combine("2025-02-30", "10:00", time.UTC); err == nil {
		t.Error("expected error for impossible date")
	}
	if _, err := Combine("14/03/2025", "10:00", time.UTC); err == nil {
		t.Error("expected error for wrong layout")
	}
}

func TestNewWindow(t *testing.T) {
	w, err := NewWindow("09:00", "17:00")
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}
	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	open, close := w.Bounds(day, time.UTC)
	if !open.Equal(time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("open = %v", open)
	}
	if !close.Equal(time.Date(2025, 3, 14, 17, 0, 0, 0, time.UTC)) {
		t.Errorf("close = %v", close)
	}

	if _, err := NewWindow("17:00", "09:00"); err == nil {
		t.Error("expected error for inverted window")
	}
	if _, err := NewWindow("09:00", "09:00"); err == nil {
		t.Error("expected error for empty window")
	}
}

func TestTruncate(t *testing.T) {
	ts := time.Date(2025, 3, 14, 10, 45, 31, 999, time.UTC)
	if got := Truncate(ts); !got.Equal(time.Date(2025, 3, 14, 10, 45, 0, 0, time.UTC)) {
		t.Errorf("Truncate = %v", got)
	}
}
