package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_BookingCounters(t *testing.T) {
	m := New()
	m.BookingAttempt("accepted", "")
	m.BookingAttempt("rejected", "DOUBLE_BOOKED")
	m.BookingAttempt("rejected", "DOUBLE_BOOKED")
	m.BookingCancelled()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookingAttempts.WithLabelValues("rejected", "DOUBLE_BOOKED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookingAttempts.WithLabelValues("accepted", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cancellations))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.BookingAttempt("accepted", "")
		m.BookingCancelled()
		m.ObserveAnalytics(0)
	})
}

func TestMetrics_MiddlewareAndHandler(t *testing.T) {
	m := New()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/venues/:name", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/venues/Room%20A", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/venues/:name", "204")))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "venuebook_http_requests_total"))
}
