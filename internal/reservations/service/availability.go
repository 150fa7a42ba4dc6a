package service

import (
	"time"

	"campusbook/pkg/model"
	"campusbook/pkg/timeofday"
)

// Partition splits the window [open, close) into busy and free intervals.
// Reservations are clipped to the window; busy intervals that overlap or
// touch are merged, so the two lists together cover the window exactly.
func Partition(reservations []*model.Reservation, open, close time.Time) (busy, free []model.Interval) {
	busy = []model.Interval{}
	free = []model.Interval{}

	cursor := open
	for _, r := range sortedActive(reservations) {
		start := later(r.StartTime, open)
		end := earlier(r.EndTime, close)
		if !start.Before(end) {
			continue
		}

		if cursor.Before(start) {
			free = append(free, model.Interval{Start: cursor, End: start})
		}

		if n := len(busy); n > 0 && !start.After(busy[n-1].End) {
			busy[n-1].End = later(busy[n-1].End, end)
		} else {
			busy = append(busy, model.Interval{Start: start, End: end})
		}

		cursor = later(cursor, end)
	}

	if cursor.Before(close) {
		free = append(free, model.Interval{Start: cursor, End: close})
	}
	return busy, free
}

// toTimeRanges renders intervals as clocks of their day in loc.
func toTimeRanges(intervals []model.Interval, loc *time.Location) []model.TimeRange {
	out := make([]model.TimeRange, 0, len(intervals))
	for _, iv := range intervals {
		out = append(out, model.TimeRange{
			Start: timeofday.ClockOf(iv.Start.In(loc)).String(),
			End:   timeofday.ClockOf(iv.End.In(loc)).String(),
		})
	}
	return out
}

func later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlier(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
