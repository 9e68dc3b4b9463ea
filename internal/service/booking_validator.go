package service

import (
	"time"

	"venuebook/internal/errors"
	"venuebook/internal/model"
)

// Bookable hours, inclusive on both ends.
const (
	FirstBookableHour = 6
	LastBookableHour  = 20
)

var clockLayouts = []string{"15:04", "15:04:05"}

// BookingSlot is a validated booking date and hour.
type BookingSlot struct {
	Date time.Time
	// Clock is the normalized HH:MM time.
	Clock string
	Hour  int
}

// BookingValidator checks the business rules every booking must satisfy.
type BookingValidator struct {
	now func() time.Time
	loc *time.Location
}

// NewBookingValidator creates a validator using the server local time.
func NewBookingValidator() *BookingValidator {
	return &BookingValidator{now: time.Now, loc: time.Local}
}

// ParseSlot validates the date and clock strings without touching storage.
// It rejects malformed values, hours outside 6 AM to 8 PM and dates before today.
func (v *BookingValidator) ParseSlot(date, clock string) (BookingSlot, error) {
	day, err := time.ParseInLocation(model.DateLayout, date, v.loc)
	if err != nil {
		return BookingSlot{}, errors.ErrInvalidDate
	}

	var at time.Time
	parsed := false
	for _, layout := range clockLayouts {
		if at, err = time.Parse(layout, clock); err == nil {
			parsed = true
			break
		}
	}
	if !parsed {
		return BookingSlot{}, errors.ErrInvalidTime
	}

	hour := at.Hour()
	if hour < FirstBookableHour || hour > LastBookableHour {
		return BookingSlot{}, errors.ErrOutOfHours
	}

	if day.Before(v.today()) {
		return BookingSlot{}, errors.ErrPastDate
	}

	return BookingSlot{Date: day, Clock: at.Format("15:04"), Hour: hour}, nil
}

// CheckVenue rejects unknown and unavailable venues.
func (v *BookingValidator) CheckVenue(venue *model.Venue) error {
	if venue == nil {
		return errors.ErrUnknownVenue
	}
	if !venue.IsAvailable() {
		return errors.ErrVenueUnavailable
	}
	return nil
}

// Validate runs every check except the slot conflict, which needs the
// booking transaction.
func (v *BookingValidator) Validate(date, clock string, venue *model.Venue) (BookingSlot, error) {
	slot, err := v.ParseSlot(date, clock)
	if err != nil {
		return BookingSlot{}, err
	}
	if err := v.CheckVenue(venue); err != nil {
		return BookingSlot{}, err
	}
	return slot, nil
}

func (v *BookingValidator) today() time.Time {
	now := v.now().In(v.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, v.loc)
}
