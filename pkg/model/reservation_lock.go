package model

import "time"

// ReservationLock is the advisory document that serialises check-and-write
// for one resource. Owner lets a holder release only its own lock.
type ReservationLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
