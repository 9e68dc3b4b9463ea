package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"venuebook/internal/report"
	"venuebook/internal/service"
)

// AnalyticsHandler serves the dashboard report.
type AnalyticsHandler struct {
	analyticsService service.AnalyticsService
	now              func() time.Time
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(analyticsService service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService, now: time.Now}
}

func analyticsQuery(c echo.Context) service.AnalyticsQuery {
	return service.AnalyticsQuery{
		StartDate: c.QueryParam("startDate"),
		EndDate:   c.QueryParam("endDate"),
		Venue:     c.QueryParam("venue"),
	}
}

// GetAnalytics godoc
// @Summary Booking analytics
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Param startDate query string false "Start date (YYYY-MM-DD), defaults to 30 days ago"
// @Param endDate query string false "End date (YYYY-MM-DD), defaults to today"
// @Param venue query string false "Venue name or all"
// @Success 200 {object} service.AnalyticsReport
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /analytics [get]
func (h *AnalyticsHandler) GetAnalytics(c echo.Context) error {
	r, err := h.analyticsService.ComputeAnalytics(c.Request().Context(), analyticsQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

// ExportAnalytics godoc
// @Summary Download the analytics report as PDF
// @Tags analytics
// @Produce application/pdf
// @Security BearerAuth
// @Param startDate query string false "Start date (YYYY-MM-DD)"
// @Param endDate query string false "End date (YYYY-MM-DD)"
// @Param venue query string false "Venue name or all"
// @Success 200 {file} file
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /analytics/export [get]
func (h *AnalyticsHandler) ExportAnalytics(c echo.Context) error {
	r, err := h.analyticsService.ComputeAnalytics(c.Request().Context(), analyticsQuery(c))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := report.WritePDF(&buf, r, h.now()); err != nil {
		return err
	}
	filename := fmt.Sprintf("venue-analytics-%s-to-%s.pdf", r.Period.StartDate, r.Period.EndDate)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, "application/pdf", buf.Bytes())
}
