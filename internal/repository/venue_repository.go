package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "venuebook/internal/errors"
	"venuebook/internal/model"
)

// VenueRepository defines venue persistence operations.
type VenueRepository interface {
	Create(ctx context.Context, venue *model.Venue) error
	FindByName(ctx context.Context, name string) (*model.Venue, error)
	List(ctx context.Context) ([]model.Venue, error)
	// Update overwrites the venue stored under name. A rename is carried over
	// to existing bookings in the same transaction.
	Update(ctx context.Context, name string, venue *model.Venue) error
	// Delete refuses with ErrVenueHasBookings while any booking references the venue.
	Delete(ctx context.Context, name string) error
	UpdateStatus(ctx context.Context, name string, status model.VenueStatus) error
}

type venueRepository struct {
	db *gorm.DB
}

// NewVenueRepository creates a new venue repository.
func NewVenueRepository(db *gorm.DB) VenueRepository {
	return &venueRepository{db: db}
}

func (r *venueRepository) Create(ctx context.Context, venue *model.Venue) error {
	return r.db.WithContext(ctx).Create(venue).Error
}

func (r *venueRepository) FindByName(ctx context.Context, name string) (*model.Venue, error) {
	var venue model.Venue
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&venue).Error; err != nil {
		return nil, err
	}
	return &venue, nil
}

func (r *venueRepository) List(ctx context.Context) ([]model.Venue, error) {
	var venues []model.Venue
	if err := r.db.WithContext(ctx).Order("name").Find(&venues).Error; err != nil {
		return nil, err
	}
	return venues, nil
}

func (r *venueRepository) Update(ctx context.Context, name string, venue *model.Venue) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.Venue
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("name = ?", name).First(&current).Error; err != nil {
			return err
		}

		venue.ID = current.ID
		venue.CreatedAt = current.CreatedAt
		if err := tx.Save(venue).Error; err != nil {
			return err
		}

		if venue.Name != current.Name {
			return tx.Model(&model.Booking{}).
				Where("venue = ?", current.Name).
				Update("venue", venue.Name).Error
		}
		return nil
	})
}

func (r *venueRepository) Delete(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.Venue
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("name = ?", name).First(&current).Error; err != nil {
			return err
		}

		var refs int64
		if err := tx.Model(&model.Booking{}).Where("venue = ?", current.Name).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return apperrors.ErrVenueHasBookings
		}
		return tx.Delete(&current).Error
	})
}

func (r *venueRepository) UpdateStatus(ctx context.Context, name string, status model.VenueStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Venue{}).
		Where("name = ?", name).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
