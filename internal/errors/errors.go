package errors

import (
	"errors"
	"net/http"
)

// Validation errors (400).
var (
	// ErrMissingFields is returned when a booking request lacks venue, date, time or username.
	ErrMissingFields = errors.New("venue, date, time and username are required")
	// ErrMissingCredentials is returned when username or password is empty.
	ErrMissingCredentials = errors.New("username and password are required")
	// ErrInvalidDate is returned when a date is not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("date must be in YYYY-MM-DD format")
	// ErrInvalidTime is returned when a time is not in HH:MM form.
	ErrInvalidTime = errors.New("time must be in HH:MM format")
	// ErrInvalidDateRange is returned when an analytics range ends before it starts.
	ErrInvalidDateRange = errors.New("startDate must not be after endDate")
	// ErrOutOfHours is returned when the booking hour is outside 6 AM to 8 PM.
	ErrOutOfHours = errors.New("bookings allowed only between 6 AM and 8 PM")
	// ErrPastDate is returned when the booking date is before today.
	ErrPastDate = errors.New("bookings can only be made from today onwards")
	// ErrUnknownVenue is returned when a booking names a venue that does not exist.
	ErrUnknownVenue = errors.New("selected venue does not exist")
	// ErrVenueUnavailable is returned when the venue is marked unavailable.
	ErrVenueUnavailable = errors.New("venue is currently unavailable for booking")
	// ErrMissingMessage is returned when an improvement request has no text.
	ErrMissingMessage = errors.New("message is required")
	// ErrInvalidVenue is returned when venue fields are malformed.
	ErrInvalidVenue = errors.New("venue name is required and capacity must not be negative")
)

// Conflict errors (400).
var (
	// ErrDoubleBooked is returned when the venue already has a booking in the same hour.
	ErrDoubleBooked = errors.New("venue is already booked at this time, please choose another slot")
	// ErrUsernameTaken is returned on signup with an existing username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrVenueExists is returned when a venue name is already in use.
	ErrVenueExists = errors.New("a venue with this name already exists")
	// ErrVenueHasBookings is returned when deleting a venue that still has bookings.
	ErrVenueHasBookings = errors.New("venue has existing bookings and cannot be deleted")
)

// Authentication errors (401).
var (
	// ErrInvalidCredentials is returned when username or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrAccountInactive is returned when the account has been deactivated.
	ErrAccountInactive = errors.New("account is inactive")
	// ErrInvalidRefreshToken is returned when a refresh token is invalid or expired.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)

// Permission errors (403).
var (
	// ErrForbidden is returned when the caller neither owns the resource nor is an admin.
	ErrForbidden = errors.New("you don't have permission to perform this action")
	// ErrProtectedAccount is returned when modifying the designated admin account.
	ErrProtectedAccount = errors.New("the designated admin account cannot be modified")
)

// Not found errors (404).
var (
	// ErrBookingNotFound is returned when no booking matches the id.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrVenueNotFound is returned when no venue matches the name.
	ErrVenueNotFound = errors.New("venue not found")
	// ErrUserNotFound is returned when no user matches the username.
	ErrUserNotFound = errors.New("user not found")
	// ErrRequestNotFound is returned when no improvement request matches the id.
	ErrRequestNotFound = errors.New("improvement request not found")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Error   string `json:"error,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Message: e.Message,
		Code:    e.Code,
	}
}

type mapping struct {
	err    error
	status int
	code   string
}

var mappings = []mapping{
	{ErrMissingFields, http.StatusBadRequest, "MISSING_FIELDS"},
	{ErrMissingCredentials, http.StatusBadRequest, "MISSING_FIELDS"},
	{ErrInvalidDate, http.StatusBadRequest, "INVALID_DATE"},
	{ErrInvalidTime, http.StatusBadRequest, "INVALID_TIME"},
	{ErrInvalidDateRange, http.StatusBadRequest, "INVALID_DATE_RANGE"},
	{ErrOutOfHours, http.StatusBadRequest, "OUT_OF_HOURS"},
	{ErrPastDate, http.StatusBadRequest, "PAST_DATE"},
	{ErrUnknownVenue, http.StatusBadRequest, "VENUE_NOT_FOUND"},
	{ErrVenueUnavailable, http.StatusBadRequest, "VENUE_UNAVAILABLE"},
	{ErrMissingMessage, http.StatusBadRequest, "MISSING_FIELDS"},
	{ErrInvalidVenue, http.StatusBadRequest, "INVALID_VENUE"},
	{ErrDoubleBooked, http.StatusBadRequest, "DOUBLE_BOOKED"},
	{ErrUsernameTaken, http.StatusBadRequest, "USERNAME_TAKEN"},
	{ErrVenueExists, http.StatusBadRequest, "VENUE_EXISTS"},
	{ErrVenueHasBookings, http.StatusBadRequest, "VENUE_HAS_BOOKINGS"},
	{ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{ErrAccountInactive, http.StatusUnauthorized, "ACCOUNT_INACTIVE"},
	{ErrInvalidRefreshToken, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN"},
	{ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{ErrProtectedAccount, http.StatusForbidden, "PROTECTED_ACCOUNT"},
	{ErrBookingNotFound, http.StatusNotFound, "BOOKING_NOT_FOUND"},
	{ErrVenueNotFound, http.StatusNotFound, "VENUE_NOT_FOUND"},
	{ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{ErrRequestNotFound, http.StatusNotFound, "REQUEST_NOT_FOUND"},
}

// MapErrorToHTTP maps domain errors to HTTP errors. Anything unrecognised is
// reported as a storage failure without leaking the underlying message.
func MapErrorToHTTP(err error) *HTTPError {
	var he *HTTPError
	if errors.As(err, &he) {
		return he
	}
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			return NewHTTPError(m.status, m.err.Error(), m.code)
		}
	}
	return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
}

// IsRejection reports whether err is a booking business-rule rejection
// rather than a storage failure.
func IsRejection(err error) bool {
	return MapErrorToHTTP(err).StatusCode == http.StatusBadRequest
}
