package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"venuebook/internal/errors"
	"venuebook/internal/model"
	"venuebook/internal/repository"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateStatus(ctx context.Context, username string, status model.UserStatus) error {
	args := m.Called(ctx, username, status)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, username string, role model.Role) error {
	args := m.Called(ctx, username, role)
	return args.Error(0)
}

func (m *MockUserRepository) DeleteWithBookings(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

// MockTokenStore is a mock implementation of TokenStoreInterface.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) StoreRefreshToken(ctx context.Context, tokenID, username string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, username, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) GetRefreshToken(ctx context.Context, tokenID string) (string, error) {
	args := m.Called(ctx, tokenID)
	return args.String(0), args.Error(1)
}

func (m *MockTokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *MockTokenStore) BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

// MockVenueRepository is a mock implementation of VenueRepository.
type MockVenueRepository struct {
	mock.Mock
}

func (m *MockVenueRepository) Create(ctx context.Context, venue *model.Venue) error {
	args := m.Called(ctx, venue)
	return args.Error(0)
}

func (m *MockVenueRepository) FindByName(ctx context.Context, name string) (*model.Venue, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Venue), args.Error(1)
}

func (m *MockVenueRepository) List(ctx context.Context) ([]model.Venue, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Venue), args.Error(1)
}

func (m *MockVenueRepository) Update(ctx context.Context, name string, venue *model.Venue) error {
	args := m.Called(ctx, name, venue)
	return args.Error(0)
}

func (m *MockVenueRepository) Delete(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockVenueRepository) UpdateStatus(ctx context.Context, name string, status model.VenueStatus) error {
	args := m.Called(ctx, name, status)
	return args.Error(0)
}

// MockImprovementRepository is a mock implementation of ImprovementRepository.
type MockImprovementRepository struct {
	mock.Mock
}

func (m *MockImprovementRepository) Create(ctx context.Context, req *model.ImprovementRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockImprovementRepository) List(ctx context.Context, status model.RequestStatus) ([]model.ImprovementRequest, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ImprovementRequest), args.Error(1)
}

func (m *MockImprovementRepository) Resolve(ctx context.Context, id uint, at time.Time) (*model.ImprovementRequest, error) {
	args := m.Called(ctx, id, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ImprovementRequest), args.Error(1)
}

// memBookingRepo keeps bookings in memory with the same slot rule as the
// database: one booking per venue, date and hour. Venue names match
// case-insensitively and are stored as the venue spells them.
type memBookingRepo struct {
	mu       sync.Mutex
	venues   map[string]*model.Venue
	bookings map[uint]model.Booking
	nextID   uint
}

var _ repository.BookingRepository = (*memBookingRepo)(nil)

func newMemBookingRepo(venues ...model.Venue) *memBookingRepo {
	r := &memBookingRepo{venues: map[string]*model.Venue{}, bookings: map[uint]model.Booking{}}
	for i := range venues {
		v := venues[i]
		r.venues[strings.ToLower(v.Name)] = &v
	}
	return r
}

func (r *memBookingRepo) CreateNoConflict(_ context.Context, booking *model.Booking, check repository.VenueCheck) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	venue := r.venues[strings.ToLower(booking.Venue)]
	if err := check(venue); err != nil {
		return err
	}
	booking.Venue = venue.Name
	if err := booking.BeforeSave(nil); err != nil {
		return err
	}
	for _, b := range r.bookings {
		if b.Venue == booking.Venue && b.DateString() == booking.DateString() && b.HourSlot == booking.HourSlot {
			return errors.ErrDoubleBooked
		}
	}
	r.nextID++
	booking.ID = r.nextID
	booking.CreatedAt = time.Now()
	r.bookings[booking.ID] = *booking
	return nil
}

func (r *memBookingRepo) FindByID(_ context.Context, id uint) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &b, nil
}

func (r *memBookingRepo) List(_ context.Context, filter repository.BookingFilter) ([]model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Booking
	for id := uint(1); id <= r.nextID; id++ {
		b, ok := r.bookings[id]
		if !ok {
			continue
		}
		if filter.Username != "" && b.Username != filter.Username {
			continue
		}
		if filter.Date != nil && b.DateString() != filter.Date.Format(model.DateLayout) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *memBookingRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.bookings, id)
	return nil
}

// recordingAttempts collects usage log entries synchronously.
type recordingAttempts struct {
	mu      sync.Mutex
	entries []model.BookingLog
}

func (r *recordingAttempts) Record(_ context.Context, entry model.BookingLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *recordingAttempts) outcomes() []model.BookingOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.BookingOutcome, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Outcome)
	}
	return out
}

// recordingPublisher captures published routing keys.
type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (p *recordingPublisher) PublishJSON(_ context.Context, key string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }
