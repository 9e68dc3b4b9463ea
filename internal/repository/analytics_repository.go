package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"

	"venuebook/internal/model"
)

// BookingScope selects the bookings an analytics query aggregates over:
// dates in [Start, End] inclusive, optionally one venue.
type BookingScope struct {
	Start time.Time
	End   time.Time
	Venue string
}

// VenueCount is a per-venue booking count.
type VenueCount struct {
	Venue string
	Count int64
}

// DepartmentCount is a per-department booking count. Missing departments
// are reported as Unspecified.
type DepartmentCount struct {
	Department string
	Count      int64
}

// HourCount is a per-hour booking count.
type HourCount struct {
	Hour  int
	Count int64
}

// DayCount is a per-day booking count keyed by YYYY-MM-DD.
type DayCount struct {
	Day   string
	Count int64
}

// EquipmentTotals counts bookings that requested each piece of equipment.
type EquipmentTotals struct {
	Projector int64
	Speaker   int64
}

// VenueUsage aggregates bookings per venue for capacity analysis.
type VenueUsage struct {
	Venue         string
	Capacity      int
	Bookings      int64
	BookedMinutes int64
	AvgAttendees  float64
}

// DepartmentSlot counts bookings per (department, venue, hour) with their
// recorded minutes.
type DepartmentSlot struct {
	Department string
	Venue      string
	Hour       int
	Count      int64
	Minutes    int64
}

// AnalyticsRepository runs the aggregate queries behind the dashboard.
type AnalyticsRepository interface {
	CountBookings(ctx context.Context, scope BookingScope) (int64, error)
	CountAvailableVenues(ctx context.Context, venue string) (int64, error)
	CountByVenue(ctx context.Context, scope BookingScope) ([]VenueCount, error)
	CountByDepartment(ctx context.Context, scope BookingScope) ([]DepartmentCount, error)
	CountByHour(ctx context.Context, scope BookingScope) ([]HourCount, error)
	CountByDay(ctx context.Context, scope BookingScope) ([]DayCount, error)
	EquipmentTotals(ctx context.Context, scope BookingScope) (EquipmentTotals, error)
	VenueUsage(ctx context.Context, scope BookingScope) ([]VenueUsage, error)
	DepartmentSlots(ctx context.Context, scope BookingScope) ([]DepartmentSlot, error)
	RecentBookings(ctx context.Context, scope BookingScope, limit int) ([]model.Booking, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new analytics repository.
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

const departmentExpr = "COALESCE(NULLIF(department, ''), 'Unspecified')"

func scopeWhere(scope BookingScope, prefix string) sq.And {
	where := sq.And{sq.Expr(prefix+"date BETWEEN ? AND ?",
		scope.Start.Format(model.DateLayout), scope.End.Format(model.DateLayout))}
	if scope.Venue != "" {
		where = append(where, sq.Eq{prefix + "venue": scope.Venue})
	}
	return where
}

func bookingsIn(scope BookingScope, columns ...string) sq.SelectBuilder {
	return sq.Select(columns...).From("bookings").Where(scopeWhere(scope, ""))
}

func countBookingsQuery(scope BookingScope) sq.SelectBuilder {
	return bookingsIn(scope, "COUNT(*) AS count")
}

func countAvailableVenuesQuery(venue string) sq.SelectBuilder {
	q := sq.Select("COUNT(*) AS count").From("venues").
		Where(sq.Eq{"status": string(model.VenueAvailable)})
	if venue != "" {
		q = q.Where(sq.Eq{"name": venue})
	}
	return q
}

func countByVenueQuery(scope BookingScope) sq.SelectBuilder {
	return bookingsIn(scope, "venue", "COUNT(*) AS count").
		GroupBy("venue").
		OrderBy("count DESC", "venue")
}

func countByDepartmentQuery(scope BookingScope) sq.SelectBuilder {
	return bookingsIn(scope, departmentExpr+" AS department", "COUNT(*) AS count").
		GroupBy(departmentExpr).
		OrderBy("count DESC", "department")
}

func countByHourQuery(scope BookingScope) sq.SelectBuilder {
	return bookingsIn(scope, "hour_slot AS hour", "COUNT(*) AS count").
		GroupBy("hour_slot").
		OrderBy("hour_slot")
}

func countByDayQuery(scope BookingScope) sq.SelectBuilder {
	return bookingsIn(scope, "DATE_FORMAT(date, '%Y-%m-%d') AS day", "COUNT(*) AS count").
		GroupBy("date").
		OrderBy("date")
}

func equipmentTotalsQuery(scope BookingScope) sq.SelectBuilder {
	return bookingsIn(scope,
		"COALESCE(SUM(CASE WHEN projector_required THEN 1 ELSE 0 END), 0) AS projector",
		"COALESCE(SUM(CASE WHEN speaker_required THEN 1 ELSE 0 END), 0) AS speaker",
	)
}

func venueUsageQuery(scope BookingScope) sq.SelectBuilder {
	q := sq.Select(
		"v.name AS venue",
		"v.capacity AS capacity",
		"COUNT(b.id) AS bookings",
		"COALESCE(SUM(b.duration_minutes), 0) AS booked_minutes",
		"COALESCE(AVG(NULLIF(b.attendees, 0)), 0) AS avg_attendees",
	).From("venues v").
		LeftJoin("bookings b ON b.venue = v.name AND b.date BETWEEN ? AND ?",
			scope.Start.Format(model.DateLayout), scope.End.Format(model.DateLayout)).
		GroupBy("v.name", "v.capacity").
		OrderBy("v.name")
	if scope.Venue != "" {
		q = q.Where(sq.Eq{"v.name": scope.Venue})
	}
	return q
}

func departmentSlotsQuery(scope BookingScope) sq.SelectBuilder {
	return bookingsIn(scope,
		departmentExpr+" AS department",
		"venue",
		"hour_slot AS hour",
		"COUNT(*) AS count",
		"COALESCE(SUM(duration_minutes), 0) AS minutes",
	).GroupBy(departmentExpr, "venue", "hour_slot")
}

func recentBookingsQuery(scope BookingScope, limit int) sq.SelectBuilder {
	return bookingsIn(scope, "*").
		OrderBy("date DESC", "time DESC", "id DESC").
		Limit(uint64(limit))
}

// scan builds q and scans the rows into dst.
func (r *analyticsRepository) scan(ctx context.Context, q sq.Sqlizer, dst any) error {
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("building analytics query: %w", err)
	}
	return r.db.WithContext(ctx).Raw(query, args...).Scan(dst).Error
}

func (r *analyticsRepository) CountBookings(ctx context.Context, scope BookingScope) (int64, error) {
	var count int64
	err := r.scan(ctx, countBookingsQuery(scope), &count)
	return count, err
}

func (r *analyticsRepository) CountAvailableVenues(ctx context.Context, venue string) (int64, error) {
	var count int64
	err := r.scan(ctx, countAvailableVenuesQuery(venue), &count)
	return count, err
}

func (r *analyticsRepository) CountByVenue(ctx context.Context, scope BookingScope) ([]VenueCount, error) {
	var rows []VenueCount
	err := r.scan(ctx, countByVenueQuery(scope), &rows)
	return rows, err
}

func (r *analyticsRepository) CountByDepartment(ctx context.Context, scope BookingScope) ([]DepartmentCount, error) {
	var rows []DepartmentCount
	err := r.scan(ctx, countByDepartmentQuery(scope), &rows)
	return rows, err
}

func (r *analyticsRepository) CountByHour(ctx context.Context, scope BookingScope) ([]HourCount, error) {
	var rows []HourCount
	err := r.scan(ctx, countByHourQuery(scope), &rows)
	return rows, err
}

func (r *analyticsRepository) CountByDay(ctx context.Context, scope BookingScope) ([]DayCount, error) {
	var rows []DayCount
	err := r.scan(ctx, countByDayQuery(scope), &rows)
	return rows, err
}

func (r *analyticsRepository) EquipmentTotals(ctx context.Context, scope BookingScope) (EquipmentTotals, error) {
	var totals EquipmentTotals
	err := r.scan(ctx, equipmentTotalsQuery(scope), &totals)
	return totals, err
}

func (r *analyticsRepository) VenueUsage(ctx context.Context, scope BookingScope) ([]VenueUsage, error) {
	var rows []VenueUsage
	err := r.scan(ctx, venueUsageQuery(scope), &rows)
	return rows, err
}

func (r *analyticsRepository) DepartmentSlots(ctx context.Context, scope BookingScope) ([]DepartmentSlot, error) {
	var rows []DepartmentSlot
	err := r.scan(ctx, departmentSlotsQuery(scope), &rows)
	return rows, err
}

func (r *analyticsRepository) RecentBookings(ctx context.Context, scope BookingScope, limit int) ([]model.Booking, error) {
	var rows []model.Booking
	err := r.scan(ctx, recentBookingsQuery(scope, limit), &rows)
	return rows, err
}
