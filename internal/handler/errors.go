package handler

import (
	stderrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"venuebook/internal/errors"
	"venuebook/internal/logger"
)

// MessageResponse is the body of simple acknowledgements.
type MessageResponse struct {
	Message string `json:"message"`
}

var (
	errInvalidBody = errors.NewHTTPError(http.StatusBadRequest, "invalid request body", "INVALID_REQUEST")
	errInvalidID   = errors.NewHTTPError(http.StatusBadRequest, "invalid id", "INVALID_ID")
)

func validationError(err error) error {
	return errors.NewHTTPError(http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
}

// NewErrorHandler renders every error returned by a handler or middleware
// as an errors.ErrorResponse. Raw error text is only included for 500s when
// debug is set; it is always logged.
func NewErrorHandler(debug bool, log logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := renderError(err)
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"error", err,
			)
			if debug {
				body.Error = err.Error()
			}
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Error("write error response", "error", err)
		}
	}
}

func renderError(err error) (int, errors.ErrorResponse) {
	var he *echo.HTTPError
	if stderrors.As(err, &he) {
		body := errors.ErrorResponse{Code: codeForStatus(he.Code)}
		switch m := he.Message.(type) {
		case string:
			body.Message = m
		case errors.ErrorResponse:
			body = m
		default:
			body.Message = http.StatusText(he.Code)
		}
		return he.Code, body
	}
	mapped := errors.MapErrorToHTTP(err)
	return mapped.StatusCode, mapped.ToErrorResponse()
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		return "INTERNAL_ERROR"
	}
}
