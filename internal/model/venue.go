package model

import (
	"time"

	"gorm.io/gorm"
)

// VenueStatus tells whether a venue accepts new bookings.
type VenueStatus string

const (
	VenueAvailable   VenueStatus = "available"
	VenueUnavailable VenueStatus = "unavailable"
)

// Venue is a bookable room identified by its unique name.
type Venue struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Name     string `json:"name" gorm:"uniqueIndex;size:191;not null"`
	Capacity int    `json:"capacity" gorm:"not null;default:0"`
	// CapacityRange is the display bucket derived from Capacity.
	CapacityRange string      `json:"capacityRange" gorm:"-"`
	HasProjector  bool        `json:"hasProjector"`
	HasSpeaker    bool        `json:"hasSpeaker"`
	Status        VenueStatus `json:"status" gorm:"type:varchar(20);not null;default:'available';index"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// IsAvailable reports whether the venue accepts bookings.
func (v *Venue) IsAvailable() bool {
	return v.Status != VenueUnavailable
}

// AfterFind fills the derived capacity bucket.
func (v *Venue) AfterFind(tx *gorm.DB) error {
	v.CapacityRange = CapacityBucket(v.Capacity)
	return nil
}

// AfterSave fills the derived capacity bucket.
func (v *Venue) AfterSave(tx *gorm.DB) error {
	v.CapacityRange = CapacityBucket(v.Capacity)
	return nil
}

// CapacityBucket maps a seat count to its display range.
func CapacityBucket(capacity int) string {
	switch {
	case capacity < 50:
		return "0-50"
	case capacity < 100:
		return "50-100"
	case capacity < 150:
		return "100-150"
	case capacity < 200:
		return "150-200"
	default:
		return "200+"
	}
}
