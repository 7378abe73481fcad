package model

import (
	"time"
)

// Office is a listed workspace. BookingCount only ever grows; it is bumped as
// a side effect of booking creation and never decremented.
type Office struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	OwnerID      string    `json:"owner_id" bson:"owner_id" validate:"required,mongodb"`
	Title        string    `json:"title" bson:"title" validate:"required,min=2,max=100"`
	Description  string    `json:"description" bson:"description" validate:"required,min=2,max=2000"`
	Location     string    `json:"location" bson:"location" validate:"required,min=2,max=200"`
	PricePerHour float64   `json:"price_per_hour" bson:"price_per_hour" validate:"required,gt=0"`
	PricePerDay  float64   `json:"price_per_day" bson:"price_per_day" validate:"required,gt=0"`
	Amenities    []string  `json:"amenities" bson:"amenities" validate:"omitempty,dive,min=1,max=50"`
	Images       []string  `json:"images" bson:"images" validate:"omitempty,dive,url"`
	IsAvailable  bool      `json:"is_available" bson:"is_available"`
	BookingCount int64     `json:"booking_count" bson:"booking_count" validate:"omitempty,min=0"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

func (o Office) EntityID() string { return o.ID }
