package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"venuebook/internal/errors"
	"venuebook/internal/metrics"
	"venuebook/internal/model"
	"venuebook/internal/repository"
)

const (
	defaultAnalyticsDays = 30
	// Ranges longer than this are bucketed by week.
	dailyTrendMaxDays = 14
	historyLimit      = 50
	// Bookable minutes per venue per day, 6 AM to 9 PM.
	bookableMinutesPerDay = (LastBookableHour + 1 - FirstBookableHour) * 60
	notAvailable          = "N/A"
)

// AnalyticsQuery selects the reporting window. Empty dates default to the
// last 30 days; an empty or "all" venue means every venue.
type AnalyticsQuery struct {
	StartDate string
	EndDate   string
	Venue     string
}

// ReportPeriod echoes the resolved window.
type ReportPeriod struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Venue     string `json:"venue"`
	Days      int    `json:"days"`
}

// ReportMetrics are the headline figures of the dashboard.
type ReportMetrics struct {
	TotalBookings         int64   `json:"totalBookings"`
	UtilizationRate       float64 `json:"utilizationRate"`
	MostUsedVenue         string  `json:"mostUsedVenue"`
	MostUsedVenueBookings int64   `json:"mostUsedVenueBookings"`
	// PeakHour is -1 when there are no bookings.
	PeakHour           int     `json:"peakHour"`
	PeakBookingTime    string  `json:"peakBookingTime"`
	PeakTimePercentage float64 `json:"peakTimePercentage"`
	BookingsTrend      float64 `json:"bookingsTrend"`
	UtilizationTrend   float64 `json:"utilizationTrend"`
}

type VenueUtilization struct {
	Venues []string  `json:"venues"`
	Rates  []float64 `json:"rates"`
}

type DepartmentBookings struct {
	Departments []string `json:"departments"`
	Bookings    []int64  `json:"bookings"`
}

type TrendSeries struct {
	Labels []string `json:"labels"`
	Values []int64  `json:"values"`
}

type EquipmentUsage struct {
	Equipment  []string `json:"equipment"`
	UsageCount []int64  `json:"usageCount"`
}

type TimeDistribution struct {
	Hours  []string `json:"hours"`
	Counts []int64  `json:"counts"`
}

// CapacityRow scores how well a venue's size and schedule are used.
type CapacityRow struct {
	Venue          string  `json:"venue"`
	Capacity       int     `json:"capacity"`
	CapacityRange  string  `json:"capacityRange"`
	Bookings       int64   `json:"bookings"`
	AvgAttendees   float64 `json:"avgAttendees"`
	Efficiency     float64 `json:"efficiency"`
	Recommendation string  `json:"recommendation"`
}

type DepartmentRow struct {
	Department    string  `json:"department"`
	TotalBookings int64   `json:"totalBookings"`
	MostUsedVenue string  `json:"mostUsedVenue"`
	AvgDuration   float64 `json:"avgDuration"`
	PeakTime      string  `json:"peakTime"`
}

type HistoryRow struct {
	ID                uint   `json:"id"`
	Date              string `json:"date"`
	Time              string `json:"time"`
	DateTime          string `json:"dateTime"`
	Title             string `json:"title"`
	Venue             string `json:"venue"`
	Department        string `json:"department"`
	Username          string `json:"username"`
	Attendees         int    `json:"attendees"`
	ProjectorRequired bool   `json:"projectorRequired"`
	SpeakerRequired   bool   `json:"speakerRequired"`
}

// AnalyticsReport is the single dashboard payload.
type AnalyticsReport struct {
	Period             ReportPeriod       `json:"period"`
	Metrics            ReportMetrics      `json:"metrics"`
	VenueUtilization   VenueUtilization   `json:"venueUtilization"`
	DepartmentBookings DepartmentBookings `json:"departmentBookings"`
	BookingsTrend      TrendSeries        `json:"bookingsTrend"`
	EquipmentUsage     EquipmentUsage     `json:"equipmentUsage"`
	TimeDistribution   TimeDistribution   `json:"timeDistribution"`
	CapacityAnalysis   []CapacityRow      `json:"capacityAnalysis"`
	DepartmentAnalysis []DepartmentRow    `json:"departmentAnalysis"`
	BookingHistory     []HistoryRow       `json:"bookingHistory"`
}

// AnalyticsService aggregates bookings into the dashboard report.
type AnalyticsService interface {
	ComputeAnalytics(ctx context.Context, q AnalyticsQuery) (*AnalyticsReport, error)
}

type analyticsService struct {
	repo    repository.AnalyticsRepository
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(repo repository.AnalyticsRepository, m *metrics.Metrics) AnalyticsService {
	return &analyticsService{repo: repo, metrics: m, now: time.Now}
}

func (s *analyticsService) resolveScope(q AnalyticsQuery) (repository.BookingScope, int, error) {
	now := s.now().In(time.Local)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)

	end := today
	if q.EndDate != "" {
		d, err := time.ParseInLocation(model.DateLayout, q.EndDate, time.Local)
		if err != nil {
			return repository.BookingScope{}, 0, errors.ErrInvalidDate
		}
		end = d
	}
	start := today.AddDate(0, 0, -defaultAnalyticsDays)
	if q.StartDate != "" {
		d, err := time.ParseInLocation(model.DateLayout, q.StartDate, time.Local)
		if err != nil {
			return repository.BookingScope{}, 0, errors.ErrInvalidDate
		}
		start = d
	}
	if start.After(end) {
		return repository.BookingScope{}, 0, errors.ErrInvalidDateRange
	}

	venue := strings.TrimSpace(q.Venue)
	if strings.EqualFold(venue, "all") {
		venue = ""
	}
	return repository.BookingScope{Start: start, End: end, Venue: venue}, daysInclusive(start, end), nil
}

// ComputeAnalytics builds the report for the requested window.
func (s *analyticsService) ComputeAnalytics(ctx context.Context, q AnalyticsQuery) (*AnalyticsReport, error) {
	began := time.Now()
	defer func() { s.metrics.ObserveAnalytics(time.Since(began)) }()

	scope, days, err := s.resolveScope(q)
	if err != nil {
		return nil, err
	}
	prevScope := repository.BookingScope{
		Start: scope.Start.AddDate(0, 0, -days),
		End:   scope.Start.AddDate(0, 0, -1),
		Venue: scope.Venue,
	}

	total, err := s.repo.CountBookings(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}
	previous, err := s.repo.CountBookings(ctx, prevScope)
	if err != nil {
		return nil, fmt.Errorf("count previous bookings: %w", err)
	}
	available, err := s.repo.CountAvailableVenues(ctx, scope.Venue)
	if err != nil {
		return nil, fmt.Errorf("count venues: %w", err)
	}
	byVenue, err := s.repo.CountByVenue(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("count by venue: %w", err)
	}
	byHour, err := s.repo.CountByHour(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("count by hour: %w", err)
	}
	byDepartment, err := s.repo.CountByDepartment(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("count by department: %w", err)
	}
	byDay, err := s.repo.CountByDay(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("count by day: %w", err)
	}
	equipment, err := s.repo.EquipmentTotals(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("equipment totals: %w", err)
	}
	usage, err := s.repo.VenueUsage(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("venue usage: %w", err)
	}
	slots, err := s.repo.DepartmentSlots(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("department slots: %w", err)
	}
	recent, err := s.repo.RecentBookings(ctx, scope, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("recent bookings: %w", err)
	}

	venueLabel := scope.Venue
	if venueLabel == "" {
		venueLabel = "all"
	}
	report := &AnalyticsReport{
		Period: ReportPeriod{
			StartDate: scope.Start.Format(model.DateLayout),
			EndDate:   scope.End.Format(model.DateLayout),
			Venue:     venueLabel,
			Days:      days,
		},
		Metrics:            headlineMetrics(total, previous, available, days, byVenue, byHour),
		VenueUtilization:   venueUtilization(usage, days),
		DepartmentBookings: departmentBookings(byDepartment),
		BookingsTrend:      trendSeries(scope.Start, scope.End, days, byDay),
		EquipmentUsage: EquipmentUsage{
			Equipment:  []string{"Projector", "Speaker System"},
			UsageCount: []int64{equipment.Projector, equipment.Speaker},
		},
		TimeDistribution:   timeDistribution(byHour),
		CapacityAnalysis:   capacityAnalysis(usage, days),
		DepartmentAnalysis: departmentAnalysis(slots),
		BookingHistory:     bookingHistory(recent),
	}
	return report, nil
}

func headlineMetrics(total, previous, available int64, days int, byVenue []repository.VenueCount, byHour []repository.HourCount) ReportMetrics {
	m := ReportMetrics{
		TotalBookings:   total,
		MostUsedVenue:   notAvailable,
		PeakHour:        -1,
		PeakBookingTime: notAvailable,
	}

	if previous > 0 {
		m.BookingsTrend = round1(float64(total-previous) / float64(previous) * 100)
	}
	if available > 0 {
		slots := float64(available) * float64(days)
		current := round1(float64(total) / slots * 100)
		prior := round1(float64(previous) / slots * 100)
		m.UtilizationRate = current
		m.UtilizationTrend = round1(current - prior)
	}

	// Rows arrive ordered by count desc then name, but do not rely on it.
	for _, v := range byVenue {
		if v.Count > m.MostUsedVenueBookings ||
			(v.Count == m.MostUsedVenueBookings && v.Count > 0 && v.Venue < m.MostUsedVenue) {
			m.MostUsedVenue = v.Venue
			m.MostUsedVenueBookings = v.Count
		}
	}

	if hour, count := peakHour(byHour); hour >= 0 {
		m.PeakHour = hour
		m.PeakBookingTime = clockLabel(hour)
		if total > 0 {
			m.PeakTimePercentage = round1(float64(count) / float64(total) * 100)
		}
	}
	return m
}

// peakHour returns the busiest hour, the earliest one on ties, or -1.
func peakHour(rows []repository.HourCount) (int, int64) {
	hour, best := -1, int64(0)
	for _, r := range rows {
		if r.Count > best || (r.Count == best && best > 0 && r.Hour < hour) {
			hour, best = r.Hour, r.Count
		}
	}
	return hour, best
}

func venueUtilization(usage []repository.VenueUsage, days int) VenueUtilization {
	out := VenueUtilization{Venues: []string{}, Rates: []float64{}}
	for _, u := range usage {
		out.Venues = append(out.Venues, u.Venue)
		out.Rates = append(out.Rates, round1(float64(u.Bookings)/float64(days)*100))
	}
	return out
}

func departmentBookings(rows []repository.DepartmentCount) DepartmentBookings {
	sorted := append([]repository.DepartmentCount(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].Department < sorted[j].Department
	})
	out := DepartmentBookings{Departments: []string{}, Bookings: []int64{}}
	for _, r := range sorted {
		out.Departments = append(out.Departments, departmentLabel(r.Department))
		out.Bookings = append(out.Bookings, r.Count)
	}
	return out
}

// trendSeries buckets daily counts by day, or by Monday-start week for
// ranges longer than two weeks. Empty buckets are kept.
func trendSeries(start, end time.Time, days int, byDay []repository.DayCount) TrendSeries {
	counts := make(map[string]int64, len(byDay))
	for _, d := range byDay {
		counts[d.Day] += d.Count
	}

	out := TrendSeries{Labels: []string{}, Values: []int64{}}
	if days <= dailyTrendMaxDays {
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			out.Labels = append(out.Labels, d.Format("Jan 2"))
			out.Values = append(out.Values, counts[d.Format(model.DateLayout)])
		}
		return out
	}

	for week := weekStart(start); !week.After(end); week = week.AddDate(0, 0, 7) {
		var sum int64
		for d := week; d.Before(week.AddDate(0, 0, 7)); d = d.AddDate(0, 0, 1) {
			if d.Before(start) || d.After(end) {
				continue
			}
			sum += counts[d.Format(model.DateLayout)]
		}
		out.Labels = append(out.Labels, "Week of "+week.Format("Jan 2"))
		out.Values = append(out.Values, sum)
	}
	return out
}

// timeDistribution always covers the bookable hours and adds any other
// hour that has bookings.
func timeDistribution(byHour []repository.HourCount) TimeDistribution {
	counts := make(map[int]int64)
	for h := FirstBookableHour; h <= LastBookableHour; h++ {
		counts[h] = 0
	}
	for _, r := range byHour {
		counts[r.Hour] += r.Count
	}
	hours := make([]int, 0, len(counts))
	for h := range counts {
		hours = append(hours, h)
	}
	sort.Ints(hours)

	out := TimeDistribution{Hours: make([]string, 0, len(hours)), Counts: make([]int64, 0, len(hours))}
	for _, h := range hours {
		out.Hours = append(out.Hours, hourLabel(h))
		out.Counts = append(out.Counts, counts[h])
	}
	return out
}

func capacityAnalysis(usage []repository.VenueUsage, days int) []CapacityRow {
	rows := make([]CapacityRow, 0, len(usage))
	for _, u := range usage {
		timeUtil := min(float64(u.BookedMinutes)/float64(days*bookableMinutesPerDay), 1)
		efficiency := 100 * timeUtil
		if u.AvgAttendees > 0 && u.Capacity > 0 {
			spaceUtil := min(u.AvgAttendees/float64(u.Capacity), 1)
			efficiency = 100 * (0.5*timeUtil + 0.5*spaceUtil)
		}
		efficiency = round1(efficiency)
		rows = append(rows, CapacityRow{
			Venue:          u.Venue,
			Capacity:       u.Capacity,
			CapacityRange:  model.CapacityBucket(u.Capacity),
			Bookings:       u.Bookings,
			AvgAttendees:   round1(u.AvgAttendees),
			Efficiency:     efficiency,
			Recommendation: recommendation(efficiency),
		})
	}
	return rows
}

func recommendation(efficiency float64) string {
	switch {
	case efficiency < 40:
		return "Consider downsizing or repurposing"
	case efficiency < 60:
		return "Room is underutilized"
	case efficiency < 80:
		return "Good utilization"
	default:
		return "Consider expansion or additional rooms"
	}
}

func departmentAnalysis(slots []repository.DepartmentSlot) []DepartmentRow {
	type agg struct {
		total   int64
		minutes int64
		venues  map[string]int64
		hours   map[int]int64
	}
	byDept := make(map[string]*agg)
	for _, s := range slots {
		name := departmentLabel(s.Department)
		a, ok := byDept[name]
		if !ok {
			a = &agg{venues: map[string]int64{}, hours: map[int]int64{}}
			byDept[name] = a
		}
		a.total += s.Count
		a.minutes += s.Minutes
		a.venues[s.Venue] += s.Count
		a.hours[s.Hour] += s.Count
	}

	rows := make([]DepartmentRow, 0, len(byDept))
	for name, a := range byDept {
		row := DepartmentRow{
			Department:    name,
			TotalBookings: a.total,
			MostUsedVenue: notAvailable,
			PeakTime:      notAvailable,
		}
		if a.total > 0 {
			row.AvgDuration = round1(float64(a.minutes) / float64(a.total))
		}
		var best int64
		for venue, n := range a.venues {
			if n > best || (n == best && venue < row.MostUsedVenue) {
				row.MostUsedVenue, best = venue, n
			}
		}
		hourRows := make([]repository.HourCount, 0, len(a.hours))
		for h, n := range a.hours {
			hourRows = append(hourRows, repository.HourCount{Hour: h, Count: n})
		}
		if h, _ := peakHour(hourRows); h >= 0 {
			row.PeakTime = clockLabel(h)
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalBookings != rows[j].TotalBookings {
			return rows[i].TotalBookings > rows[j].TotalBookings
		}
		return rows[i].Department < rows[j].Department
	})
	return rows
}

func bookingHistory(bookings []model.Booking) []HistoryRow {
	rows := make([]HistoryRow, 0, len(bookings))
	for _, b := range bookings {
		date := b.DateString()
		rows = append(rows, HistoryRow{
			ID:                b.ID,
			Date:              date,
			Time:              b.Time,
			DateTime:          date + "T" + b.Time,
			Title:             b.Title,
			Venue:             b.Venue,
			Department:        departmentLabel(b.DepartmentName()),
			Username:          b.Username,
			Attendees:         b.Attendees,
			ProjectorRequired: b.ProjectorRequired,
			SpeakerRequired:   b.SpeakerRequired,
		})
	}
	return rows
}

func departmentLabel(dep string) string {
	if strings.TrimSpace(dep) == "" {
		return "Unspecified"
	}
	return dep
}

// hourLabel renders 8 as "8 AM" and 13 as "1 PM".
func hourLabel(hour int) string {
	return time.Date(2000, 1, 1, hour, 0, 0, 0, time.UTC).Format("3 PM")
}

// clockLabel renders 10 as "10:00 AM".
func clockLabel(hour int) string {
	return time.Date(2000, 1, 1, hour, 0, 0, 0, time.UTC).Format("3:04 PM")
}

// weekStart returns the Monday on or before d.
func weekStart(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// daysInclusive counts calendar days from start to end, both included.
func daysInclusive(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	// Unix seconds, not Sub: a Duration saturates after about 292 years.
	return int((e.Unix()-s.Unix())/86400) + 1
}

func round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}
