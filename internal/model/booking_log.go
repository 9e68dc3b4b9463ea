package model

import "time"

// BookingOutcome is the result of a booking attempt or cancellation.
type BookingOutcome string

const (
	OutcomeAccepted  BookingOutcome = "accepted"
	OutcomeRejected  BookingOutcome = "rejected"
	OutcomeCancelled BookingOutcome = "cancelled"
)

// BookingLog represents a usage log entry for a booking attempt.
// All attempts are logged regardless of success or failure, as are cancellations.
type BookingLog struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	BookingID *uint          `json:"bookingId,omitempty" gorm:"index"`
	Venue     string         `json:"venue" gorm:"size:191;index"`
	Date      string         `json:"date" gorm:"type:varchar(10)"`
	Time      string         `json:"time" gorm:"type:varchar(8)"`
	Username  string         `json:"username" gorm:"size:191;index"`
	Outcome   BookingOutcome `json:"outcome" gorm:"type:varchar(20);not null;index"`
	Reason    string         `json:"reason,omitempty" gorm:"type:text"`
	CreatedAt time.Time      `json:"created_at" gorm:"index"`
}
