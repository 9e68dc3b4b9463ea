package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"venuebook/internal/cache"
	"venuebook/internal/errors"
	"venuebook/internal/model"
	"venuebook/internal/repository"
)

const (
	venueListCacheKey = "venues:all"
	venueCacheTTL     = 5 * time.Minute
)

// VenueInput carries the editable venue fields.
type VenueInput struct {
	Name         string
	Capacity     int
	HasProjector bool
	HasSpeaker   bool
	// Status defaults to available when empty.
	Status string
}

// VenueService handles venue administration.
type VenueService interface {
	AddVenue(ctx context.Context, in VenueInput) (*model.Venue, error)
	ListVenues(ctx context.Context) ([]model.Venue, error)
	GetVenue(ctx context.Context, name string) (*model.Venue, error)
	UpdateVenue(ctx context.Context, name string, in VenueInput) (*model.Venue, error)
	DeleteVenue(ctx context.Context, name string) error
	ToggleVenueStatus(ctx context.Context, name string) (*model.Venue, error)
}

type venueService struct {
	repo  repository.VenueRepository
	cache *cache.Client
}

// NewVenueService creates a new venue service.
func NewVenueService(repo repository.VenueRepository, cache *cache.Client) VenueService {
	return &venueService{
		repo:  repo,
		cache: cache,
	}
}

func (s *venueService) invalidate(ctx context.Context) {
	_ = s.cache.Delete(ctx, venueListCacheKey)
}

func (in VenueInput) toModel() (*model.Venue, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.Capacity < 0 {
		return nil, errors.ErrInvalidVenue
	}
	status := model.VenueStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	switch status {
	case "":
		status = model.VenueAvailable
	case model.VenueAvailable, model.VenueUnavailable:
	default:
		return nil, errors.ErrInvalidVenue
	}
	return &model.Venue{
		Name:          name,
		Capacity:      in.Capacity,
		CapacityRange: model.CapacityBucket(in.Capacity),
		HasProjector:  in.HasProjector,
		HasSpeaker:    in.HasSpeaker,
		Status:        status,
	}, nil
}

// AddVenue creates a venue with a unique name.
func (s *venueService) AddVenue(ctx context.Context, in VenueInput) (*model.Venue, error) {
	venue, err := in.toModel()
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByName(ctx, venue.Name); err == nil {
		return nil, errors.ErrVenueExists
	} else if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check venue existence: %w", err)
	}

	if err := s.repo.Create(ctx, venue); err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.ErrVenueExists
		}
		return nil, fmt.Errorf("create venue: %w", err)
	}
	s.invalidate(ctx)
	return venue, nil
}

// ListVenues returns every venue ordered by name, served from cache when possible.
func (s *venueService) ListVenues(ctx context.Context) ([]model.Venue, error) {
	var cached []model.Venue
	if s.cache.GetJSON(ctx, venueListCacheKey, &cached) {
		return cached, nil
	}

	venues, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	_ = s.cache.SetJSON(ctx, venueListCacheKey, venues, venueCacheTTL)
	return venues, nil
}

// GetVenue returns one venue by name.
func (s *venueService) GetVenue(ctx context.Context, name string) (*model.Venue, error) {
	venue, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrVenueNotFound
		}
		return nil, fmt.Errorf("find venue: %w", err)
	}
	return venue, nil
}

// UpdateVenue replaces a venue's fields. Renames carry over to bookings.
func (s *venueService) UpdateVenue(ctx context.Context, name string, in VenueInput) (*model.Venue, error) {
	venue, err := in.toModel()
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, name, venue); err != nil {
		switch {
		case stderrors.Is(err, gorm.ErrRecordNotFound):
			return nil, errors.ErrVenueNotFound
		case stderrors.Is(err, gorm.ErrDuplicatedKey):
			return nil, errors.ErrVenueExists
		}
		return nil, fmt.Errorf("update venue: %w", err)
	}
	s.invalidate(ctx)
	return venue, nil
}

// DeleteVenue removes a venue that no booking references.
func (s *venueService) DeleteVenue(ctx context.Context, name string) error {
	if err := s.repo.Delete(ctx, name); err != nil {
		switch {
		case stderrors.Is(err, gorm.ErrRecordNotFound):
			return errors.ErrVenueNotFound
		case stderrors.Is(err, errors.ErrVenueHasBookings):
			return err
		}
		return fmt.Errorf("delete venue: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

// ToggleVenueStatus flips a venue between available and unavailable.
func (s *venueService) ToggleVenueStatus(ctx context.Context, name string) (*model.Venue, error) {
	venue, err := s.GetVenue(ctx, name)
	if err != nil {
		return nil, err
	}

	next := model.VenueUnavailable
	if !venue.IsAvailable() {
		next = model.VenueAvailable
	}
	if err := s.repo.UpdateStatus(ctx, name, next); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrVenueNotFound
		}
		return nil, fmt.Errorf("toggle venue status: %w", err)
	}
	venue.Status = next
	s.invalidate(ctx)
	return venue, nil
}
