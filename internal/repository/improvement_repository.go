package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"venuebook/internal/model"
)

// ImprovementRepository stores user improvement requests.
type ImprovementRepository interface {
	Create(ctx context.Context, req *model.ImprovementRequest) error
	// List returns requests newest first, optionally restricted to one status.
	List(ctx context.Context, status model.RequestStatus) ([]model.ImprovementRequest, error)
	Resolve(ctx context.Context, id uint, at time.Time) (*model.ImprovementRequest, error)
}

type improvementRepository struct {
	db *gorm.DB
}

// NewImprovementRepository creates a new improvement request repository.
func NewImprovementRepository(db *gorm.DB) ImprovementRepository {
	return &improvementRepository{db: db}
}

func (r *improvementRepository) Create(ctx context.Context, req *model.ImprovementRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *improvementRepository) List(ctx context.Context, status model.RequestStatus) ([]model.ImprovementRequest, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var reqs []model.ImprovementRequest
	if err := q.Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *improvementRepository) Resolve(ctx context.Context, id uint, at time.Time) (*model.ImprovementRequest, error) {
	var req model.ImprovementRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&req, id).Error; err != nil {
			return err
		}
		if req.Status == model.RequestResolved {
			return nil
		}
		req.Status = model.RequestResolved
		req.ResolvedAt = &at
		return tx.Save(&req).Error
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}
