package model

import (
	"time"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Statuses lists every booking status. No transition table is enforced: any
// status may be overwritten with any other, matching the owner dashboard
// semantics.
var Statuses = []string{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled}

// Booking reserves an office for a date and time window. BookingDate is a
// calendar date (YYYY-MM-DD); StartTime/EndTime are clock times (HH:MM).
type Booking struct {
	ID          string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	OfficeID    string     `json:"office_id" bson:"office_id" validate:"required,mongodb"`
	UserID      string     `json:"user_id" bson:"user_id" validate:"required,mongodb"`
	BookingDate string     `json:"booking_date" bson:"booking_date" validate:"required,datetime=2006-01-02"`
	StartTime   string     `json:"start_time" bson:"start_time" validate:"required,datetime=15:04"`
	EndTime     string     `json:"end_time" bson:"end_time" validate:"required,datetime=15:04"`
	Status      string     `json:"status" bson:"status" validate:"required,oneof=pending confirmed completed cancelled"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty" validate:"omitempty"`

	// Embedded rows resolved by the relational lookups; never written back.
	Office *Office  `json:"office,omitempty" bson:"office,omitempty" validate:"-"`
	User   *Account `json:"user,omitempty" bson:"user,omitempty" validate:"-"`
}

func (b Booking) EntityID() string { return b.ID }

// BookingRequest is what a seeker submits; user id and status are assigned
// server-side.
type BookingRequest struct {
	OfficeID    string `json:"office_id" validate:"required,mongodb"`
	BookingDate string `json:"booking_date" validate:"required,datetime=2006-01-02"`
	StartTime   string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime     string `json:"end_time" validate:"required,datetime=15:04"`
}
