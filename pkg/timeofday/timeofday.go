// Package timeofday converts between absolute timestamps and the textual
// "YYYY-MM-DD" / "HH:MM" forms used by the reservation API.
//
// All conversions work at minute granularity: seconds and below are
// truncated, so a value survives a format/parse round trip unchanged.
package timeofday

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"

	MinutesPerDay = 24 * 60
)

var clockRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Clock is a time of day expressed as minutes after midnight.
type Clock int

// ParseClock parses a strict "HH:MM" string (00:00-23:59).
func ParseClock(s string) (Clock, error) {
	if !clockRegex.MatchString(s) {
		return 0, fmt.Errorf("invalid time of day %q: must be HH:MM (00:00-23:59)", s)
	}
	h, _ := strconv.Atoi(s[:2])
	m, _ := strconv.Atoi(s[3:])
	return Clock(h*60 + m), nil
}

// MustParseClock is ParseClock for constants; it panics on bad input.
func MustParseClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ClockOf returns the time of day of t in t's location.
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// On places the clock on the calendar day of date, in loc.
func (c Clock) On(date time.Time, loc *time.Location) time.Time {
	y, mo, d := date.Date()
	return time.Date(y, mo, d, c.Hour(), c.Minute(), 0, 0, loc)
}

// ParseDate parses a strict "YYYY-MM-DD" string as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: must be YYYY-MM-DD", s)
	}
	return d, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Combine parses a date and a time of day into one absolute timestamp.
func Combine(date, clock string, loc *time.Location) (time.Time, error) {
	d, err := ParseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	c, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return c.On(d, loc), nil
}

// Truncate drops everything below minute precision.
func Truncate(t time.Time) time.Time {
	return t.Truncate(time.Minute)
}

// Window is a daily operating window, [Open, Close).
type Window struct {
	Open  Clock
	Close Clock
}

func NewWindow(open, close string) (Window, error) {
	o, err := ParseClock(open)
	if err != nil {
		return Window{}, err
	}
	c, err := ParseClock(close)
	if err != nil {
		return Window{}, err
	}
	if c <= o {
		return Window{}, fmt.Errorf("operating window close %s must be after open %s", c, o)
	}
	return Window{Open: o, Close: c}, nil
}

// Bounds returns the absolute [open, close) pair for the given day.
func (w Window) Bounds(date time.Time, loc *time.Location) (time.Time, time.Time) {
	return w.Open.On(date, loc), w.Close.On(date, loc)
}

func (w Window) String() string {
	return w.Open.String() + "-" + w.Close.String()
}
