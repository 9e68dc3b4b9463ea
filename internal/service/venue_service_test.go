package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"venuebook/internal/cache"
	"venuebook/internal/errors"
	"venuebook/internal/model"
)

func newVenueFixture(t *testing.T) (VenueService, *MockVenueRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := cache.New(cache.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	repo := new(MockVenueRepository)
	return NewVenueService(repo, c), repo, mr
}

func TestVenueService_ListVenuesIsCached(t *testing.T) {
	svc, repo, mr := newVenueFixture(t)
	repo.On("List", mock.Anything).Return([]model.Venue{{Name: "Room A", Capacity: 60, Status: model.VenueAvailable}}, nil).Once()

	first, err := svc.ListVenues(context.Background())
	require.NoError(t, err)
	second, err := svc.ListVenues(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Room A", second[0].Name)
	assert.Equal(t, first[0].Capacity, second[0].Capacity)
	assert.True(t, mr.Exists(venueListCacheKey))
	repo.AssertNumberOfCalls(t, "List", 1)
}

func TestVenueService_AddVenueInvalidatesCache(t *testing.T) {
	svc, repo, mr := newVenueFixture(t)
	require.NoError(t, mr.Set(venueListCacheKey, "[]"))
	repo.On("FindByName", mock.Anything, "Hall").Return(nil, gorm.ErrRecordNotFound)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*model.Venue")).Return(nil)

	v, err := svc.AddVenue(context.Background(), VenueInput{Name: " Hall ", Capacity: 120, HasProjector: true})
	require.NoError(t, err)
	assert.Equal(t, "Hall", v.Name)
	assert.Equal(t, "100-150", v.CapacityRange)
	assert.Equal(t, model.VenueAvailable, v.Status)
	assert.False(t, mr.Exists(venueListCacheKey))
}

func TestVenueService_AddVenueRejects(t *testing.T) {
	svc, repo, _ := newVenueFixture(t)
	repo.On("FindByName", mock.Anything, "Room A").Return(&model.Venue{Name: "Room A"}, nil)

	_, err := svc.AddVenue(context.Background(), VenueInput{Name: "Room A", Capacity: 10})
	assert.Equal(t, errors.ErrVenueExists, err)

	_, err = svc.AddVenue(context.Background(), VenueInput{Name: "", Capacity: 10})
	assert.Equal(t, errors.ErrInvalidVenue, err)

	_, err = svc.AddVenue(context.Background(), VenueInput{Name: "X", Capacity: 10, Status: "closed"})
	assert.Equal(t, errors.ErrInvalidVenue, err)
}

func TestVenueService_DeleteVenue(t *testing.T) {
	svc, repo, _ := newVenueFixture(t)
	repo.On("Delete", mock.Anything, "Busy").Return(errors.ErrVenueHasBookings)
	repo.On("Delete", mock.Anything, "Ghost").Return(gorm.ErrRecordNotFound)
	repo.On("Delete", mock.Anything, "Empty").Return(nil)

	assert.ErrorIs(t, svc.DeleteVenue(context.Background(), "Busy"), errors.ErrVenueHasBookings)
	assert.Equal(t, errors.ErrVenueNotFound, svc.DeleteVenue(context.Background(), "Ghost"))
	assert.NoError(t, svc.DeleteVenue(context.Background(), "Empty"))
}

func TestVenueService_ToggleVenueStatus(t *testing.T) {
	svc, repo, _ := newVenueFixture(t)
	repo.On("FindByName", mock.Anything, "Room A").Return(&model.Venue{Name: "Room A", Status: model.VenueAvailable}, nil)
	repo.On("UpdateStatus", mock.Anything, "Room A", model.VenueUnavailable).Return(nil)

	v, err := svc.ToggleVenueStatus(context.Background(), "Room A")
	require.NoError(t, err)
	assert.Equal(t, model.VenueUnavailable, v.Status)
}

func TestVenueService_WorksWithoutCache(t *testing.T) {
	repo := new(MockVenueRepository)
	repo.On("List", mock.Anything).Return([]model.Venue{}, nil)
	svc := NewVenueService(repo, nil)

	venues, err := svc.ListVenues(context.Background())
	require.NoError(t, err)
	assert.Empty(t, venues)
}
