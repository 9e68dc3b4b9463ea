package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"venuebook/internal/errors"
	"venuebook/internal/logger"
	"venuebook/internal/metrics"
	"venuebook/internal/model"
	"venuebook/internal/mq"
	"venuebook/internal/repository"
)

const (
	defaultAttemptLimit = 100
	maxAttemptLimit     = 500

	slotLockStripes = 256
)

// CreateBookingInput carries a booking request after identity resolution.
type CreateBookingInput struct {
	Title             string
	Venue             string
	Date              string
	Time              string
	Username          string
	Department        *string
	ProjectorRequired bool
	SpeakerRequired   bool
	Attendees         int
	DurationMinutes   int
}

// ListBookingsFilter narrows a booking listing. Date is YYYY-MM-DD.
type ListBookingsFilter struct {
	Username string
	Date     string
}

// BookingView is the listing projection of a booking.
type BookingView struct {
	ID                uint    `json:"id"`
	Title             string  `json:"title"`
	Venue             string  `json:"venue"`
	Department        *string `json:"department"`
	Start             string  `json:"start"`
	Date              string  `json:"date"`
	Time              string  `json:"time"`
	Username          string  `json:"username"`
	ProjectorRequired bool    `json:"projectorRequired"`
	SpeakerRequired   bool    `json:"speakerRequired"`
	Attendees         int     `json:"attendees"`
	DurationMinutes   int     `json:"durationMinutes"`
}

// NewBookingView projects a stored booking.
func NewBookingView(b model.Booking) BookingView {
	date := b.DateString()
	return BookingView{
		ID:                b.ID,
		Title:             b.Title,
		Venue:             b.Venue,
		Department:        b.Department,
		Start:             date + "T" + b.Time,
		Date:              date,
		Time:              b.Time,
		Username:          b.Username,
		ProjectorRequired: b.ProjectorRequired,
		SpeakerRequired:   b.SpeakerRequired,
		Attendees:         b.Attendees,
		DurationMinutes:   b.DurationMinutes,
	}
}

// BookingService handles booking operations.
type BookingService interface {
	CreateBooking(ctx context.Context, in CreateBookingInput) (*model.Booking, error)
	ListBookings(ctx context.Context, filter ListBookingsFilter) ([]BookingView, error)
	DeleteBooking(ctx context.Context, id uint, requester string, isAdmin bool) error
	RecentAttempts(ctx context.Context, limit int) ([]model.BookingLog, error)
}

type bookingService struct {
	bookings  repository.BookingRepository
	logs      repository.BookingLogRepository
	attempts  AttemptRecorder
	validator *BookingValidator
	events    mq.Publisher
	metrics   *metrics.Metrics
	log       logger.Logger
	// Striped locks serializing creates of one (venue, date, hour) within
	// this process. Unrelated slots may share a stripe.
	slotLocks [slotLockStripes]sync.Mutex
}

// BookingDeps groups the collaborators of the booking service.
type BookingDeps struct {
	Bookings  repository.BookingRepository
	Logs      repository.BookingLogRepository
	Attempts  AttemptRecorder
	Validator *BookingValidator
	Events    mq.Publisher
	Metrics   *metrics.Metrics
	Logger    logger.Logger
}

// NewBookingService creates a new booking service.
func NewBookingService(deps BookingDeps) BookingService {
	s := &bookingService{
		bookings:  deps.Bookings,
		logs:      deps.Logs,
		attempts:  deps.Attempts,
		validator: deps.Validator,
		events:    deps.Events,
		metrics:   deps.Metrics,
		log:       deps.Logger,
	}
	if s.validator == nil {
		s.validator = NewBookingValidator()
	}
	if s.events == nil {
		s.events = mq.NopPublisher{}
	}
	if s.log == nil {
		s.log = logger.FromContext(context.Background())
	}
	return s
}

// slotKey identifies a venue hour slot. Venue names compare the way the
// venues table collation does.
func slotKey(venue string, slot BookingSlot) string {
	return fmt.Sprintf("%s|%s|%02d", strings.ToLower(venue), slot.Date.Format(model.DateLayout), slot.Hour)
}

// slotStripe maps a slot key onto one of the lock stripes.
func slotStripe(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % slotLockStripes)
}

// getMutex returns the mutex guarding one venue hour slot.
func (s *bookingService) getMutex(venue string, slot BookingSlot) *sync.Mutex {
	return &s.slotLocks[slotStripe(slotKey(venue, slot))]
}

// CreateBooking validates and stores a booking.
func (s *bookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*model.Booking, error) {
	in.Venue = strings.TrimSpace(in.Venue)
	in.Date = strings.TrimSpace(in.Date)
	in.Time = strings.TrimSpace(in.Time)
	in.Username = strings.TrimSpace(in.Username)

	if in.Venue == "" || in.Date == "" || in.Time == "" || in.Username == "" {
		return nil, s.reject(ctx, in, errors.ErrMissingFields)
	}

	slot, err := s.validator.ParseSlot(in.Date, in.Time)
	if err != nil {
		return nil, s.reject(ctx, in, err)
	}

	booking := &model.Booking{
		Venue:             in.Venue,
		Title:             strings.TrimSpace(in.Title),
		Date:              slot.Date,
		Time:              slot.Clock,
		Username:          in.Username,
		Department:        trimmedOrNil(in.Department),
		ProjectorRequired: in.ProjectorRequired,
		SpeakerRequired:   in.SpeakerRequired,
		Attendees:         max(in.Attendees, 0),
		DurationMinutes:   in.DurationMinutes,
	}
	if booking.DurationMinutes <= 0 {
		booking.DurationMinutes = model.DefaultDurationMinutes
	}

	mutex := s.getMutex(booking.Venue, slot)
	mutex.Lock()
	err = s.bookings.CreateNoConflict(ctx, booking, s.validator.CheckVenue)
	mutex.Unlock()
	if err != nil {
		if errors.IsRejection(err) {
			return nil, s.reject(ctx, in, err)
		}
		s.log.Error("create booking", "venue", booking.Venue, "date", in.Date, "error", err)
		return nil, fmt.Errorf("create booking: %w", err)
	}

	id := booking.ID
	s.attempts.Record(ctx, model.BookingLog{
		BookingID: &id,
		Venue:     booking.Venue,
		Date:      booking.DateString(),
		Time:      booking.Time,
		Username:  booking.Username,
		Outcome:   model.OutcomeAccepted,
	})
	s.metrics.BookingAttempt(string(model.OutcomeAccepted), "")
	s.publish(ctx, mq.KeyBookingCreated, booking, booking.Username)

	s.log.Info("booking created", "id", booking.ID, "venue", booking.Venue, "date", booking.DateString(), "time", booking.Time)
	return booking, nil
}

// reject records a refused attempt and returns err unchanged.
func (s *bookingService) reject(ctx context.Context, in CreateBookingInput, err error) error {
	reason := errors.MapErrorToHTTP(err).Code
	s.attempts.Record(ctx, model.BookingLog{
		Venue:    in.Venue,
		Date:     in.Date,
		Time:     in.Time,
		Username: in.Username,
		Outcome:  model.OutcomeRejected,
		Reason:   err.Error(),
	})
	s.metrics.BookingAttempt(string(model.OutcomeRejected), reason)
	s.log.Debug("booking rejected", "venue", in.Venue, "date", in.Date, "time", in.Time, "reason", reason)
	return err
}

// ListBookings returns bookings ordered by date and time when a date
// filter is given, by id otherwise.
func (s *bookingService) ListBookings(ctx context.Context, filter ListBookingsFilter) ([]BookingView, error) {
	repoFilter := repository.BookingFilter{Username: strings.TrimSpace(filter.Username)}
	if d := strings.TrimSpace(filter.Date); d != "" {
		day, err := time.ParseInLocation(model.DateLayout, d, time.Local)
		if err != nil {
			return nil, errors.ErrInvalidDate
		}
		repoFilter.Date = &day
	}

	bookings, err := s.bookings.List(ctx, repoFilter)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	views := make([]BookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, NewBookingView(b))
	}
	return views, nil
}

// DeleteBooking removes a booking. Non-admins may only delete their own.
func (s *bookingService) DeleteBooking(ctx context.Context, id uint, requester string, isAdmin bool) error {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrBookingNotFound
		}
		return fmt.Errorf("find booking: %w", err)
	}
	if !isAdmin && booking.Username != requester {
		return errors.ErrForbidden
	}

	if err := s.bookings.Delete(ctx, id); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrBookingNotFound
		}
		return fmt.Errorf("delete booking: %w", err)
	}

	s.attempts.Record(ctx, model.BookingLog{
		BookingID: &id,
		Venue:     booking.Venue,
		Date:      booking.DateString(),
		Time:      booking.Time,
		Username:  booking.Username,
		Outcome:   model.OutcomeCancelled,
		Reason:    "cancelled by " + requester,
	})
	s.metrics.BookingCancelled()
	s.publish(ctx, mq.KeyBookingCancelled, booking, requester)
	return nil
}

// RecentAttempts returns the newest usage log entries.
func (s *bookingService) RecentAttempts(ctx context.Context, limit int) ([]model.BookingLog, error) {
	if limit <= 0 {
		limit = defaultAttemptLimit
	}
	limit = min(limit, maxAttemptLimit)
	logs, err := s.logs.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list booking logs: %w", err)
	}
	return logs, nil
}

// publish emits a booking event. Broker failures never fail the request.
func (s *bookingService) publish(ctx context.Context, key string, b *model.Booking, actedBy string) {
	ev := mq.BookingEvent{
		BookingID:  b.ID,
		Venue:      b.Venue,
		Date:       b.DateString(),
		Time:       b.Time,
		Username:   b.Username,
		Department: b.DepartmentName(),
		ActedBy:    actedBy,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.PublishJSON(ctx, key, ev); err != nil {
		s.log.Warn("publish booking event", "key", key, "booking", b.ID, "error", err)
	}
}

func trimmedOrNil(dep *string) *string {
	if dep == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*dep)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
