package model

import "time"

// ConflictSummary is the part of a conflicting reservation a caller may see.
type ConflictSummary struct {
	ID          string            `json:"id"`
	RequesterID string            `json:"requester_id"`
	StartTime   time.Time         `json:"start_time"`
	EndTime     time.Time         `json:"end_time"`
	Status      ReservationStatus `json:"status"`
}

func SummarizeConflict(r *Reservation) ConflictSummary {
	return ConflictSummary{
		ID:          r.ID,
		RequesterID: r.RequesterID,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Status:      r.Status,
	}
}

type Verdict struct {
	Available bool              `json:"available"`
	Reason    string            `json:"reason,omitempty"`
	Conflicts []ConflictSummary `json:"conflicts"`
}

// Interval is an absolute half-open [Start, End) range.
type Interval struct {
	Start time.Time
	End   time.Time
}

// TimeRange is an interval rendered as two "HH:MM" clocks of one day.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type AvailabilityWindow struct {
	ResourceID     string         `json:"resource_id"`
	Date           string         `json:"date"`
	Open           string         `json:"open"`
	Close          string         `json:"close"`
	ResourceStatus ResourceStatus `json:"resource_status"`
	Busy           []TimeRange    `json:"busy"`
	Free           []TimeRange    `json:"free"`
}
