package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// DateLayout is the wire and storage layout of booking dates.
const DateLayout = "2006-01-02"

// DefaultDurationMinutes is assumed when a booking does not state its length.
const DefaultDurationMinutes = 60

// Booking reserves one hour slot of a venue. Venue and Username reference
// Venue.Name and User.Username.
type Booking struct {
	ID    uint      `json:"id" gorm:"primaryKey"`
	Venue string    `json:"venue" gorm:"size:191;not null;uniqueIndex:idx_booking_slot,priority:1"`
	Title string    `json:"title" gorm:"size:255;not null"`
	Date  time.Time `json:"date" gorm:"type:date;not null;uniqueIndex:idx_booking_slot,priority:2;index"`
	// Time is stored as HH:MM.
	Time string `json:"time" gorm:"type:varchar(5);not null"`
	// HourSlot is the conflict bucket, always derived from Time.
	HourSlot          int       `json:"-" gorm:"not null;uniqueIndex:idx_booking_slot,priority:3"`
	Username          string    `json:"username" gorm:"size:191;not null;index"`
	Department        *string   `json:"department" gorm:"size:100"`
	ProjectorRequired bool      `json:"projectorRequired"`
	SpeakerRequired   bool      `json:"speakerRequired"`
	Attendees         int       `json:"attendees" gorm:"not null;default:0"`
	DurationMinutes   int       `json:"durationMinutes" gorm:"not null;default:60"`
	CreatedAt         time.Time `json:"created_at"`
}

// BeforeSave keeps HourSlot in sync with Time and fills the default
// "<venue> (<time>)" title.
func (b *Booking) BeforeSave(tx *gorm.DB) error {
	hour, err := HourOf(b.Time)
	if err != nil {
		return err
	}
	b.HourSlot = hour
	if strings.TrimSpace(b.Title) == "" {
		b.Title = fmt.Sprintf("%s (%s)", b.Venue, b.Time)
	}
	if b.DurationMinutes <= 0 {
		b.DurationMinutes = DefaultDurationMinutes
	}
	return nil
}

// DateString returns the booking date as YYYY-MM-DD.
func (b *Booking) DateString() string {
	return b.Date.Format(DateLayout)
}

// DepartmentName returns the department or an empty string.
func (b *Booking) DepartmentName() string {
	if b.Department == nil {
		return ""
	}
	return *b.Department
}

// HourOf extracts the hour component of an HH:MM or HH:MM:SS clock string.
func HourOf(clock string) (int, error) {
	head, _, _ := strings.Cut(clock, ":")
	hour, err := strconv.Atoi(head)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid booking time %q", clock)
	}
	return hour, nil
}
