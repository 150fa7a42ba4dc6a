package model

import "time"

const (
	ResourceKindEquipment = "equipment"
	ResourceKindRoom      = "room"
)

// ResourceStatus is the operational state of a bookable resource. Only
// maintenance blocks new reservations; booked is informational.
type ResourceStatus string

const (
	ResourceStatusAvailable   ResourceStatus = "available"
	ResourceStatusBooked      ResourceStatus = "booked"
	ResourceStatusMaintenance ResourceStatus = "maintenance"
)

func (s ResourceStatus) Valid() bool {
	switch s {
	case ResourceStatusAvailable, ResourceStatusBooked, ResourceStatusMaintenance:
		return true
	}
	return false
}

type Resource struct {
	ID          string         `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Kind        string         `json:"kind" bson:"kind" validate:"required,oneof=equipment room"`
	Name        string         `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Description string         `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=1000"`
	Location    string         `json:"location,omitempty" bson:"location,omitempty" validate:"omitempty,max=200"`
	Category    string         `json:"category,omitempty" bson:"category,omitempty" validate:"omitempty,max=100"`
	Capacity    int            `json:"capacity,omitempty" bson:"capacity,omitempty" validate:"omitempty,min=1,max=2000"`
	Facilities  []string       `json:"facilities,omitempty" bson:"facilities,omitempty" validate:"omitempty,max=30,dive,required,max=60"`
	Status      ResourceStatus `json:"status" bson:"status" validate:"required,oneof=available booked maintenance"`
	CreatedAt   time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt   *time.Time     `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

// ResourceUpdate lists the fields a PATCH may touch. Kind and status are
// not here: kind is fixed at creation and status has its own endpoint.
type ResourceUpdate struct {
	Name        string    `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=1000"`
	Location    *string   `json:"location,omitempty" validate:"omitempty,max=200"`
	Category    *string   `json:"category,omitempty" validate:"omitempty,max=100"`
	Capacity    *int      `json:"capacity,omitempty" validate:"omitempty,min=1,max=2000"`
	Facilities  *[]string `json:"facilities,omitempty" validate:"omitempty,max=30,dive,required,max=60"`
}

type ResourceStatusUpdate struct {
	Status ResourceStatus `json:"status" validate:"required,oneof=available booked maintenance"`
}

type ResourceFilter struct {
	Kind   string
	Status ResourceStatus
}
