package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"venuebook/internal/errors"
	"venuebook/internal/middleware"
	"venuebook/internal/model"
	"venuebook/internal/service"
)

// BookingHandler handles booking endpoints.
type BookingHandler struct {
	bookingService service.BookingService
}

// NewBookingHandler creates a new booking handler.
func NewBookingHandler(bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// CreateBookingRequest represents a booking request. Username defaults to
// the authenticated user; only admins may book on behalf of someone else.
type CreateBookingRequest struct {
	Title             string  `json:"title" validate:"max=255"`
	Venue             string  `json:"venue" validate:"max=191"`
	Date              string  `json:"date"`
	Time              string  `json:"time"`
	Username          string  `json:"username"`
	Department        *string `json:"department" validate:"omitempty,max=100"`
	ProjectorRequired bool    `json:"projectorRequired"`
	SpeakerRequired   bool    `json:"speakerRequired"`
	Attendees         int     `json:"attendees" validate:"gte=0"`
	DurationMinutes   int     `json:"durationMinutes" validate:"gte=0,lte=900"`
}

// CreateBookingResponse represents a created booking.
type CreateBookingResponse struct {
	Message string              `json:"message"`
	Booking service.BookingView `json:"booking"`
}

// CreateBooking godoc
// @Summary Book a venue
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateBookingRequest true "Booking data"
// @Success 200 {object} CreateBookingResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /bookings [post]
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var req CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return errInvalidBody
	}
	if err := c.Validate(&req); err != nil {
		return validationError(err)
	}

	claims := middleware.ClaimsFromContext(c)
	username := strings.TrimSpace(req.Username)
	switch {
	case username == "":
		username = claims.Username
	case username != claims.Username && !claims.IsAdmin():
		return errors.ErrForbidden
	}

	booking, err := h.bookingService.CreateBooking(c.Request().Context(), service.CreateBookingInput{
		Title:             req.Title,
		Venue:             req.Venue,
		Date:              req.Date,
		Time:              req.Time,
		Username:          username,
		Department:        req.Department,
		ProjectorRequired: req.ProjectorRequired,
		SpeakerRequired:   req.SpeakerRequired,
		Attendees:         req.Attendees,
		DurationMinutes:   req.DurationMinutes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, CreateBookingResponse{
		Message: "Booking successful!",
		Booking: service.NewBookingView(*booking),
	})
}

// ListBookings godoc
// @Summary List bookings
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param username query string false "Only bookings made by this user"
// @Param date query string false "Only bookings on this date (YYYY-MM-DD)"
// @Success 200 {array} service.BookingView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /bookings [get]
func (h *BookingHandler) ListBookings(c echo.Context) error {
	views, err := h.bookingService.ListBookings(c.Request().Context(), service.ListBookingsFilter{
		Username: c.QueryParam("username"),
		Date:     c.QueryParam("date"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

// DeleteBooking godoc
// @Summary Cancel a booking
// @Description Owners may cancel their own bookings, admins any booking.
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Booking ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /bookings/{id} [delete]
func (h *BookingHandler) DeleteBooking(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return errInvalidID
	}

	claims := middleware.ClaimsFromContext(c)
	if err := h.bookingService.DeleteBooking(c.Request().Context(), uint(id), claims.Username, claims.IsAdmin()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Booking deleted successfully."})
}

// ListBookingLogs godoc
// @Summary Recent booking attempts
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum entries (default 100, max 500)"
// @Success 200 {array} model.BookingLog
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /bookings/logs [get]
func (h *BookingHandler) ListBookingLogs(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	logs, err := h.bookingService.RecentAttempts(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	if logs == nil {
		logs = []model.BookingLog{}
	}
	return c.JSON(http.StatusOK, logs)
}
