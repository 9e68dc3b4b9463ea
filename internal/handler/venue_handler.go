package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"venuebook/internal/service"
)

// VenueHandler handles venue endpoints.
type VenueHandler struct {
	venueService service.VenueService
}

// NewVenueHandler creates a new venue handler.
func NewVenueHandler(venueService service.VenueService) *VenueHandler {
	return &VenueHandler{venueService: venueService}
}

// VenueRequest represents the editable venue fields.
type VenueRequest struct {
	Name         string `json:"name" validate:"max=191"`
	Capacity     int    `json:"capacity" validate:"gte=0"`
	HasProjector bool   `json:"hasProjector"`
	HasSpeaker   bool   `json:"hasSpeaker"`
	Status       string `json:"status" validate:"omitempty,oneof=available unavailable"`
}

func (r VenueRequest) input() service.VenueInput {
	return service.VenueInput{
		Name:         r.Name,
		Capacity:     r.Capacity,
		HasProjector: r.HasProjector,
		HasSpeaker:   r.HasSpeaker,
		Status:       r.Status,
	}
}

func (h *VenueHandler) bind(c echo.Context) (service.VenueInput, error) {
	var req VenueRequest
	if err := c.Bind(&req); err != nil {
		return service.VenueInput{}, errInvalidBody
	}
	if err := c.Validate(&req); err != nil {
		return service.VenueInput{}, validationError(err)
	}
	return req.input(), nil
}

// ListVenues godoc
// @Summary List venues
// @Tags venues
// @Produce json
// @Success 200 {array} model.Venue
// @Failure 500 {object} errors.ErrorResponse
// @Router /venues [get]
func (h *VenueHandler) ListVenues(c echo.Context) error {
	venues, err := h.venueService.ListVenues(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, venues)
}

// AddVenue godoc
// @Summary Add a venue
// @Tags venues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body VenueRequest true "Venue data"
// @Success 201 {object} model.Venue
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /venues [post]
func (h *VenueHandler) AddVenue(c echo.Context) error {
	in, err := h.bind(c)
	if err != nil {
		return err
	}
	venue, err := h.venueService.AddVenue(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, venue)
}

// GetVenue godoc
// @Summary Get a venue
// @Tags venues
// @Produce json
// @Security BearerAuth
// @Param name path string true "Venue name"
// @Success 200 {object} model.Venue
// @Failure 404 {object} errors.ErrorResponse
// @Router /venues/{name} [get]
func (h *VenueHandler) GetVenue(c echo.Context) error {
	venue, err := h.venueService.GetVenue(c.Request().Context(), c.Param("name"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, venue)
}

// UpdateVenue godoc
// @Summary Update a venue
// @Description Renaming a venue also renames it on its bookings.
// @Tags venues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param name path string true "Venue name"
// @Param request body VenueRequest true "Venue data"
// @Success 200 {object} model.Venue
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /venues/{name} [put]
func (h *VenueHandler) UpdateVenue(c echo.Context) error {
	in, err := h.bind(c)
	if err != nil {
		return err
	}
	venue, err := h.venueService.UpdateVenue(c.Request().Context(), c.Param("name"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, venue)
}

// DeleteVenue godoc
// @Summary Delete a venue
// @Description Venues that still have bookings cannot be deleted.
// @Tags venues
// @Produce json
// @Security BearerAuth
// @Param name path string true "Venue name"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /venues/{name} [delete]
func (h *VenueHandler) DeleteVenue(c echo.Context) error {
	if err := h.venueService.DeleteVenue(c.Request().Context(), c.Param("name")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Venue deleted successfully."})
}

// ToggleVenueStatus godoc
// @Summary Mark a venue available or unavailable
// @Tags venues
// @Produce json
// @Security BearerAuth
// @Param name path string true "Venue name"
// @Success 200 {object} model.Venue
// @Failure 404 {object} errors.ErrorResponse
// @Router /venues/{name}/toggle-status [put]
func (h *VenueHandler) ToggleVenueStatus(c echo.Context) error {
	venue, err := h.venueService.ToggleVenueStatus(c.Request().Context(), c.Param("name"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, venue)
}
