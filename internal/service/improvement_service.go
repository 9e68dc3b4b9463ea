package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"venuebook/internal/errors"
	"venuebook/internal/model"
	"venuebook/internal/repository"
)

// ImprovementService collects and triages user feedback.
type ImprovementService interface {
	Submit(ctx context.Context, username string, venue *string, message string) (*model.ImprovementRequest, error)
	List(ctx context.Context, status string) ([]model.ImprovementRequest, error)
	Resolve(ctx context.Context, id uint) (*model.ImprovementRequest, error)
}

type improvementService struct {
	repo repository.ImprovementRepository
	now  func() time.Time
}

// NewImprovementService creates a new improvement request service.
func NewImprovementService(repo repository.ImprovementRepository) ImprovementService {
	return &improvementService{repo: repo, now: time.Now}
}

func (s *improvementService) Submit(ctx context.Context, username string, venue *string, message string) (*model.ImprovementRequest, error) {
	message = strings.TrimSpace(message)
	if message == "" || username == "" {
		return nil, errors.ErrMissingMessage
	}
	req := &model.ImprovementRequest{
		Username: username,
		Venue:    trimmedOrNil(venue),
		Message:  message,
		Status:   model.RequestOpen,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create improvement request: %w", err)
	}
	return req, nil
}

// List returns requests, all of them when status is empty.
func (s *improvementService) List(ctx context.Context, status string) ([]model.ImprovementRequest, error) {
	reqs, err := s.repo.List(ctx, model.RequestStatus(strings.ToLower(status)))
	if err != nil {
		return nil, fmt.Errorf("list improvement requests: %w", err)
	}
	return reqs, nil
}

// Resolve marks a request resolved. Resolving twice keeps the first timestamp.
func (s *improvementService) Resolve(ctx context.Context, id uint) (*model.ImprovementRequest, error) {
	req, err := s.repo.Resolve(ctx, id, s.now())
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrRequestNotFound
		}
		return nil, fmt.Errorf("resolve improvement request: %w", err)
	}
	return req, nil
}
