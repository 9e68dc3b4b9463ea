package repository

import (
	"context"

	"gorm.io/gorm"

	"venuebook/internal/model"
)

// BookingLogRepository defines usage log persistence operations.
type BookingLogRepository interface {
	Create(ctx context.Context, log *model.BookingLog) error
	CreateBatch(ctx context.Context, logs []model.BookingLog) error
	Recent(ctx context.Context, limit int) ([]model.BookingLog, error)
}

type bookingLogRepository struct {
	db *gorm.DB
}

// NewBookingLogRepository creates a new booking log repository.
func NewBookingLogRepository(db *gorm.DB) BookingLogRepository {
	return &bookingLogRepository{db: db}
}

// Create creates a new usage log entry.
func (r *bookingLogRepository) Create(ctx context.Context, log *model.BookingLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// CreateBatch creates multiple usage log entries in batches of 100.
func (r *bookingLogRepository) CreateBatch(ctx context.Context, logs []model.BookingLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(logs, 100).Error
}

// Recent returns the newest entries first.
func (r *bookingLogRepository) Recent(ctx context.Context, limit int) ([]model.BookingLog, error) {
	var logs []model.BookingLog
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
