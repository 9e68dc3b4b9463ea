package model

import "time"

// RequestStatus tracks an improvement request through triage.
type RequestStatus string

const (
	RequestOpen     RequestStatus = "open"
	RequestResolved RequestStatus = "resolved"
)

// ImprovementRequest is user feedback about a venue or the booking process.
type ImprovementRequest struct {
	ID         uint          `json:"id" gorm:"primaryKey"`
	Username   string        `json:"username" gorm:"size:191;not null;index"`
	Venue      *string       `json:"venue,omitempty" gorm:"size:191;index"`
	Message    string        `json:"message" gorm:"type:text;not null"`
	Status     RequestStatus `json:"status" gorm:"type:varchar(20);not null;default:'open';index"`
	CreatedAt  time.Time     `json:"created_at"`
	ResolvedAt *time.Time    `json:"resolved_at,omitempty"`
}
