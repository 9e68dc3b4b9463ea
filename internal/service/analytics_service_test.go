package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuebook/internal/errors"
	"venuebook/internal/metrics"
	"venuebook/internal/model"
	"venuebook/internal/repository"
)

// fakeAnalyticsRepo aggregates an in-memory booking list the way the SQL
// queries do.
type fakeAnalyticsRepo struct {
	venues   []model.Venue
	bookings []model.Booking
}

func (f *fakeAnalyticsRepo) in(scope repository.BookingScope) []model.Booking {
	var out []model.Booking
	for _, b := range f.bookings {
		if b.Date.Before(scope.Start) || b.Date.After(scope.End) {
			continue
		}
		if scope.Venue != "" && b.Venue != scope.Venue {
			continue
		}
		out = append(out, b)
	}
	return out
}

func (f *fakeAnalyticsRepo) CountBookings(_ context.Context, scope repository.BookingScope) (int64, error) {
	return int64(len(f.in(scope))), nil
}

func (f *fakeAnalyticsRepo) CountAvailableVenues(_ context.Context, venue string) (int64, error) {
	var n int64
	for _, v := range f.venues {
		if v.IsAvailable() && (venue == "" || v.Name == venue) {
			n++
		}
	}
	return n, nil
}

func (f *fakeAnalyticsRepo) CountByVenue(_ context.Context, scope repository.BookingScope) ([]repository.VenueCount, error) {
	counts := map[string]int64{}
	for _, b := range f.in(scope) {
		counts[b.Venue]++
	}
	out := make([]repository.VenueCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, repository.VenueCount{Venue: v, Count: n})
	}
	return out, nil
}

func (f *fakeAnalyticsRepo) CountByDepartment(_ context.Context, scope repository.BookingScope) ([]repository.DepartmentCount, error) {
	counts := map[string]int64{}
	for _, b := range f.in(scope) {
		counts[departmentLabel(b.DepartmentName())]++
	}
	out := make([]repository.DepartmentCount, 0, len(counts))
	for d, n := range counts {
		out = append(out, repository.DepartmentCount{Department: d, Count: n})
	}
	return out, nil
}

func (f *fakeAnalyticsRepo) CountByHour(_ context.Context, scope repository.BookingScope) ([]repository.HourCount, error) {
	counts := map[int]int64{}
	for _, b := range f.in(scope) {
		h, _ := model.HourOf(b.Time)
		counts[h]++
	}
	out := make([]repository.HourCount, 0, len(counts))
	for h, n := range counts {
		out = append(out, repository.HourCount{Hour: h, Count: n})
	}
	return out, nil
}

func (f *fakeAnalyticsRepo) CountByDay(_ context.Context, scope repository.BookingScope) ([]repository.DayCount, error) {
	counts := map[string]int64{}
	for _, b := range f.in(scope) {
		counts[b.DateString()]++
	}
	out := make([]repository.DayCount, 0, len(counts))
	for d, n := range counts {
		out = append(out, repository.DayCount{Day: d, Count: n})
	}
	return out, nil
}

func (f *fakeAnalyticsRepo) EquipmentTotals(_ context.Context, scope repository.BookingScope) (repository.EquipmentTotals, error) {
	var t repository.EquipmentTotals
	for _, b := range f.in(scope) {
		if b.ProjectorRequired {
			t.Projector++
		}
		if b.SpeakerRequired {
			t.Speaker++
		}
	}
	return t, nil
}

func (f *fakeAnalyticsRepo) VenueUsage(_ context.Context, scope repository.BookingScope) ([]repository.VenueUsage, error) {
	out := make([]repository.VenueUsage, 0, len(f.venues))
	for _, v := range f.venues {
		if scope.Venue != "" && v.Name != scope.Venue {
			continue
		}
		u := repository.VenueUsage{Venue: v.Name, Capacity: v.Capacity}
		var attendees, withAttendees int
		for _, b := range f.in(scope) {
			if b.Venue != v.Name {
				continue
			}
			u.Bookings++
			u.BookedMinutes += int64(b.DurationMinutes)
			if b.Attendees > 0 {
				attendees += b.Attendees
				withAttendees++
			}
		}
		if withAttendees > 0 {
			u.AvgAttendees = float64(attendees) / float64(withAttendees)
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Venue < out[j].Venue })
	return out, nil
}

func (f *fakeAnalyticsRepo) DepartmentSlots(_ context.Context, scope repository.BookingScope) ([]repository.DepartmentSlot, error) {
	var out []repository.DepartmentSlot
	for _, b := range f.in(scope) {
		h, _ := model.HourOf(b.Time)
		out = append(out, repository.DepartmentSlot{
			Department: departmentLabel(b.DepartmentName()),
			Venue:      b.Venue,
			Hour:       h,
			Count:      1,
			Minutes:    int64(b.DurationMinutes),
		})
	}
	return out, nil
}

func (f *fakeAnalyticsRepo) RecentBookings(_ context.Context, scope repository.BookingScope, limit int) ([]model.Booking, error) {
	rows := f.in(scope)
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func day(s string) time.Time {
	d, err := time.ParseInLocation(model.DateLayout, s, time.Local)
	if err != nil {
		panic(err)
	}
	return d
}

func booking(venue, date, clock string) model.Booking {
	return model.Booking{Venue: venue, Title: venue, Date: day(date), Time: clock, DurationMinutes: model.DefaultDurationMinutes}
}

func newAnalyticsFixture(bookings ...model.Booking) *analyticsService {
	repo := &fakeAnalyticsRepo{
		venues: []model.Venue{
			{Name: "Room A", Capacity: 60, Status: model.VenueAvailable},
			{Name: "Room B", Capacity: 20, Status: model.VenueAvailable},
		},
		bookings: bookings,
	}
	svc := NewAnalyticsService(repo, metrics.New()).(*analyticsService)
	svc.now = func() time.Time { return time.Date(2024, 6, 30, 12, 0, 0, 0, time.Local) }
	return svc
}

func TestAnalyticsService_HeadlineMetrics(t *testing.T) {
	svc := newAnalyticsFixture(
		booking("Room A", "2024-06-10", "10:00"),
		booking("Room A", "2024-06-10", "11:00"),
		booking("Room A", "2024-06-11", "10:00"),
		booking("Room B", "2024-06-12", "15:00"),
	)

	r, err := svc.ComputeAnalytics(context.Background(), AnalyticsQuery{StartDate: "2024-06-01", EndDate: "2024-06-30"})
	require.NoError(t, err)

	assert.Equal(t, 30, r.Period.Days)
	assert.Equal(t, "all", r.Period.Venue)
	assert.Equal(t, int64(4), r.Metrics.TotalBookings)
	assert.Equal(t, "Room A", r.Metrics.MostUsedVenue)
	assert.Equal(t, int64(3), r.Metrics.MostUsedVenueBookings)
	assert.Equal(t, 10, r.Metrics.PeakHour)
	assert.Equal(t, "10:00 AM", r.Metrics.PeakBookingTime)
	assert.Equal(t, 50.0, r.Metrics.PeakTimePercentage)
	// 4 bookings over 2 venues x 30 days
	assert.Equal(t, 6.7, r.Metrics.UtilizationRate)
	assert.Equal(t, 0.0, r.Metrics.BookingsTrend)
	assert.Equal(t, 6.7, r.Metrics.UtilizationTrend)
}

func TestAnalyticsService_BookingsTrendAgainstPreviousPeriod(t *testing.T) {
	svc := newAnalyticsFixture(
		booking("Room A", "2024-06-05", "10:00"),
		booking("Room A", "2024-06-15", "10:00"),
		booking("Room A", "2024-06-16", "10:00"),
		booking("Room A", "2024-06-17", "10:00"),
	)

	r, err := svc.ComputeAnalytics(context.Background(), AnalyticsQuery{StartDate: "2024-06-11", EndDate: "2024-06-20"})
	require.NoError(t, err)

	assert.Equal(t, int64(3), r.Metrics.TotalBookings)
	assert.Equal(t, 200.0, r.Metrics.BookingsTrend)
}

func TestAnalyticsService_EmptyPeriod(t *testing.T) {
	svc := newAnalyticsFixture()

	r, err := svc.ComputeAnalytics(context.Background(), AnalyticsQuery{})
	require.NoError(t, err)

	assert.Equal(t, "2024-05-31", r.Period.StartDate)
	assert.Equal(t, "2024-06-30", r.Period.EndDate)
	assert.Equal(t, "N/A", r.Metrics.MostUsedVenue)
	assert.Equal(t, -1, r.Metrics.PeakHour)
	assert.Equal(t, "N/A", r.Metrics.PeakBookingTime)
	assert.Empty(t, r.DepartmentBookings.Departments)
	assert.Empty(t, r.BookingHistory)
	assert.Len(t, r.CapacityAnalysis, 2)
	assert.Len(t, r.TimeDistribution.Hours, LastBookableHour-FirstBookableHour+1)
}

func TestAnalyticsService_TrendBucketing(t *testing.T) {
	svc := newAnalyticsFixture(booking("Room A", "2024-06-04", "10:00"))

	daily, err := svc.ComputeAnalytics(context.Background(), AnalyticsQuery{StartDate: "2024-06-01", EndDate: "2024-06-10"})
	require.NoError(t, err)
	assert.Len(t, daily.BookingsTrend.Labels, 10)
	assert.Equal(t, "Jun 1", daily.BookingsTrend.Labels[0])
	assert.Equal(t, int64(1), daily.BookingsTrend.Values[3])

	// 2024-06-01 is a Saturday, so weeks start on 2024-05-27.
	weekly, err := svc.ComputeAnalytics(context.Background(), AnalyticsQuery{StartDate: "2024-06-01", EndDate: "2024-06-20"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Week of May 27", "Week of Jun 3", "Week of Jun 10", "Week of Jun 17"}, weekly.BookingsTrend.Labels)
	assert.Equal(t, []int64{0, 1, 0, 0}, weekly.BookingsTrend.Values)
}

func TestAnalyticsService_VenueFilter(t *testing.T) {
	svc := newAnalyticsFixture(
		booking("Room A", "2024-06-10", "10:00"),
		booking("Room B", "2024-06-10", "10:00"),
	)

	r, err := svc.ComputeAnalytics(context.Background(), AnalyticsQuery{StartDate: "2024-06-01", EndDate: "2024-06-30", Venue: "Room B"})
	require.NoError(t, err)
	assert.Equal(t, "Room B", r.Period.Venue)
	assert.Equal(t, int64(1), r.Metrics.TotalBookings)
	assert.Equal(t, []string{"Room B"}, r.VenueUtilization.Venues)
}

func TestAnalyticsService_DepartmentsAndHistory(t *testing.T) {
	eng := "Engineering"
	b1 := booking("Room A", "2024-06-10", "14:00")
	b1.Department = &eng
	b1.ProjectorRequired = true
	b2 := booking("Room B", "2024-06-11", "14:30")
	b2.Department = &eng
	b2.DurationMinutes = 90
	b3 := booking("Room A", "2024-06-12", "09:00")
	b3.SpeakerRequired = true
	svc := newAnalyticsFixture(b1, b2, b3)

	r, err := svc.ComputeAnalytics(context.Background(), AnalyticsQuery{StartDate: "2024-06-01", EndDate: "2024-06-30"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Engineering", "Unspecified"}, r.DepartmentBookings.Departments)
	assert.Equal(t, []int64{2, 1}, r.DepartmentBookings.Bookings)
	assert.Equal(t, []int64{1, 1}, r.EquipmentUsage.UsageCount)

	require.Len(t, r.DepartmentAnalysis, 2)
	engRow := r.DepartmentAnalysis[0]
	assert.Equal(t, "Engineering", engRow.Department)
	assert.Equal(t, 75.0, engRow.AvgDuration)
	assert.Equal(t, "Room A", engRow.MostUsedVenue)
	assert.Equal(t, "2:00 PM", engRow.PeakTime)

	require.Len(t, r.BookingHistory, 3)
	assert.Equal(t, "2024-06-10T14:00", r.BookingHistory[0].DateTime)
	assert.Equal(t, "Unspecified", r.BookingHistory[2].Department)
}

func TestAnalyticsService_InvalidRange(t *testing.T) {
	svc := newAnalyticsFixture()

	_, err := svc.ComputeAnalytics(context.Background(), AnalyticsQuery{StartDate: "2024-06-10", EndDate: "2024-06-01"})
	assert.Equal(t, errors.ErrInvalidDateRange, err)

	_, err = svc.ComputeAnalytics(context.Background(), AnalyticsQuery{StartDate: "10/06/2024"})
	assert.Equal(t, errors.ErrInvalidDate, err)
}

func TestRecommendation(t *testing.T) {
	assert.Equal(t, "Consider downsizing or repurposing", recommendation(39.9))
	assert.Equal(t, "Room is underutilized", recommendation(40))
	assert.Equal(t, "Good utilization", recommendation(79.9))
	assert.Equal(t, "Consider expansion or additional rooms", recommendation(80))
}

func TestCapacityAnalysisEfficiency(t *testing.T) {
	rows := capacityAnalysis([]repository.VenueUsage{
		{Venue: "Busy", Capacity: 10, Bookings: 15, BookedMinutes: 900, AvgAttendees: 10},
		{Venue: "Idle", Capacity: 100, Bookings: 0},
	}, 1)

	assert.Equal(t, 100.0, rows[0].Efficiency)
	assert.Equal(t, "Consider expansion or additional rooms", rows[0].Recommendation)
	assert.Equal(t, 0.0, rows[1].Efficiency)
	assert.Equal(t, "100-150", rows[1].CapacityRange)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "8 AM", hourLabel(8))
	assert.Equal(t, "1 PM", hourLabel(13))
	assert.Equal(t, "10:00 AM", clockLabel(10))
	assert.Equal(t, 30, daysInclusive(day("2024-06-01"), day("2024-06-30")))
	assert.Equal(t, 1, daysInclusive(day("2024-06-01"), day("2024-06-01")))
	// Longer than a time.Duration can hold.
	assert.Equal(t, 191388, daysInclusive(day("1500-01-01"), day("2024-01-01")))
	assert.Equal(t, day("2024-05-27"), weekStart(day("2024-06-01")))
}
