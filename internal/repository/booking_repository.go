package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "venuebook/internal/errors"
	"venuebook/internal/model"
)

// VenueCheck inspects the venue row read inside the booking transaction.
// A nil venue means no venue with that name exists.
type VenueCheck func(venue *model.Venue) error

// BookingFilter narrows a booking listing. Zero fields are ignored.
type BookingFilter struct {
	Username string
	Date     *time.Time
}

// BookingRepository defines booking persistence operations.
type BookingRepository interface {
	// CreateNoConflict inserts the booking unless its (venue, date, hour) slot
	// is taken, returning ErrDoubleBooked in that case. check runs against the
	// venue row before the insert; its error aborts it. booking.Venue is
	// rewritten to the stored venue name.
	CreateNoConflict(ctx context.Context, booking *model.Booking, check VenueCheck) error
	FindByID(ctx context.Context, id uint) (*model.Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]model.Booking, error)
	Delete(ctx context.Context, id uint) error
}

type bookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) CreateNoConflict(ctx context.Context, booking *model.Booking, check VenueCheck) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var venue model.Venue
		err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Where("name = ?", booking.Venue).Take(&venue).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if check != nil {
				if cerr := check(nil); cerr != nil {
					return cerr
				}
			}
			return apperrors.ErrUnknownVenue
		case err != nil:
			return err
		}
		if check != nil {
			if err := check(&venue); err != nil {
				return err
			}
		}
		booking.Venue = venue.Name

		hour, err := model.HourOf(booking.Time)
		if err != nil {
			return apperrors.ErrInvalidTime
		}

		// A plain read: FOR UPDATE on a missing row takes a gap lock that
		// deadlocks concurrent inserts of neighbouring hours. Racing inserts
		// of the same slot are stopped by idx_booking_slot instead.
		var taken int64
		if err := tx.Model(&model.Booking{}).
			Where("venue = ? AND date = ? AND hour_slot = ?", booking.Venue, booking.DateString(), hour).
			Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return apperrors.ErrDoubleBooked
		}

		return tx.Create(booking).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.ErrDoubleBooked
	}
	return err
}

func (r *bookingRepository) FindByID(ctx context.Context, id uint) (*model.Booking, error) {
	var booking model.Booking
	if err := r.db.WithContext(ctx).First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) List(ctx context.Context, filter BookingFilter) ([]model.Booking, error) {
	q := r.db.WithContext(ctx).Model(&model.Booking{})
	if filter.Username != "" {
		q = q.Where("username = ?", filter.Username)
	}
	if filter.Date != nil {
		q = q.Where("date = ?", filter.Date.Format(model.DateLayout)).Order("date, time")
	} else {
		q = q.Order("id")
	}

	var bookings []model.Booking
	if err := q.Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Booking{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
