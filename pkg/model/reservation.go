package model

import "time"

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusApproved  ReservationStatus = "approved"
	ReservationStatusRejected  ReservationStatus = "rejected"
	ReservationStatusCompleted ReservationStatus = "completed"
)

// ActiveReservationStatuses hold their interval against other requests.
var ActiveReservationStatuses = []ReservationStatus{
	ReservationStatusPending,
	ReservationStatusApproved,
}

func AllReservationStatuses() []ReservationStatus {
	return []ReservationStatus{
		ReservationStatusPending,
		ReservationStatusApproved,
		ReservationStatusRejected,
		ReservationStatusCompleted,
	}
}

func (s ReservationStatus) Active() bool {
	return s == ReservationStatusPending || s == ReservationStatusApproved
}

func (s ReservationStatus) Valid() bool {
	for _, v := range AllReservationStatuses() {
		if s == v {
			return true
		}
	}
	return false
}

type Reservation struct {
	ID              string            `json:"id,omitempty" bson:"_id,omitempty"`
	ResourceID      string            `json:"resource_id" bson:"resource_id" validate:"required,mongodb"`
	RequesterID     string            `json:"requester_id" bson:"requester_id" validate:"required,max=100"`
	Purpose         string            `json:"purpose" bson:"purpose" validate:"required,min=1,max=500"`
	Status          ReservationStatus `json:"status" bson:"status" validate:"required,oneof=pending approved rejected completed"`
	StartTime       time.Time         `json:"start_time" bson:"start_time" validate:"required"`
	EndTime         time.Time         `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	Attendees       int               `json:"attendees,omitempty" bson:"attendees,omitempty" validate:"omitempty,min=1"`
	RejectionReason string            `json:"rejection_reason,omitempty" bson:"rejection_reason,omitempty"`
	DecidedBy       string            `json:"decided_by,omitempty" bson:"decided_by,omitempty"`
	CreatedAt       time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt       *time.Time        `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

// Overlaps applies the half-open interval test. Intervals that only touch
// at an endpoint do not overlap.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.StartTime.Before(end) && start.Before(r.EndTime)
}

// NewReservation is the input of a create request after the transport has
// resolved date and clock strings into absolute times.
type NewReservation struct {
	ResourceID string    `validate:"required,mongodb"`
	StartTime  time.Time `validate:"required"`
	EndTime    time.Time `validate:"required"`
	Purpose    string    `validate:"required,min=1,max=500"`
	Attendees  int       `validate:"omitempty,min=1"`
}

// ReservationUpdate is the allow-list of fields an update may change. A
// time bound left nil keeps its stored value.
type ReservationUpdate struct {
	StartTime *time.Time
	EndTime   *time.Time
	Purpose   *string `validate:"omitempty,min=1,max=500"`
	Attendees *int    `validate:"omitempty,min=1"`
}

func (u *ReservationUpdate) ChangesTime() bool {
	return u.StartTime != nil || u.EndTime != nil
}

const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

type Decision struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type ReservationFilter struct {
	ResourceID  string
	RequesterID string
	Status      ReservationStatus
	From        *time.Time
	To          *time.Time
}

// ReservationRequest is the wire form of a create request. The resource id
// comes from the URL path.
type ReservationRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
	Purpose   string `json:"purpose" validate:"required,max=500"`
	Attendees int    `json:"attendees,omitempty" validate:"omitempty,min=1"`
}

// ReservationUpdateRequest is the wire form of a PATCH. start_time and
// end_time may be given alone, each with the date it falls on.
type ReservationUpdateRequest struct {
	Date      string  `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	StartTime string  `json:"start_time,omitempty" validate:"omitempty,datetime=15:04"`
	EndTime   string  `json:"end_time,omitempty" validate:"omitempty,datetime=15:04"`
	Purpose   *string `json:"purpose,omitempty" validate:"omitempty,max=500"`
	Attendees *int    `json:"attendees,omitempty" validate:"omitempty,min=1"`
}

// HasClock reports whether a start or end clock time is given. Either one
// is read on Date.
func (r *ReservationUpdateRequest) HasClock() bool {
	return r.StartTime != "" || r.EndTime != ""
}
