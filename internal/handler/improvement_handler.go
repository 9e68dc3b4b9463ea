package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"venuebook/internal/middleware"
	"venuebook/internal/model"
	"venuebook/internal/service"
)

// ImprovementHandler handles venue improvement requests.
type ImprovementHandler struct {
	svc service.ImprovementService
}

// NewImprovementHandler creates a new improvement request handler.
func NewImprovementHandler(svc service.ImprovementService) *ImprovementHandler {
	return &ImprovementHandler{svc: svc}
}

// ImprovementRequestBody is a user feedback submission.
type ImprovementRequestBody struct {
	Venue   *string `json:"venue" validate:"omitempty,max=191"`
	Message string  `json:"message" validate:"max=2000"`
}

// Submit godoc
// @Summary Suggest a venue improvement
// @Tags improvements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ImprovementRequestBody true "Suggestion"
// @Success 201 {object} model.ImprovementRequest
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /improvement-requests [post]
func (h *ImprovementHandler) Submit(c echo.Context) error {
	var req ImprovementRequestBody
	if err := c.Bind(&req); err != nil {
		return errInvalidBody
	}
	if err := c.Validate(&req); err != nil {
		return validationError(err)
	}

	created, err := h.svc.Submit(c.Request().Context(), middleware.ClaimsFromContext(c).Username, req.Venue, req.Message)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

// List godoc
// @Summary List improvement requests
// @Tags improvements
// @Produce json
// @Security BearerAuth
// @Param status query string false "open or resolved"
// @Success 200 {array} model.ImprovementRequest
// @Failure 403 {object} errors.ErrorResponse
// @Router /improvement-requests [get]
func (h *ImprovementHandler) List(c echo.Context) error {
	reqs, err := h.svc.List(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return err
	}
	if reqs == nil {
		reqs = []model.ImprovementRequest{}
	}
	return c.JSON(http.StatusOK, reqs)
}

// Resolve godoc
// @Summary Mark an improvement request resolved
// @Tags improvements
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Success 200 {object} model.ImprovementRequest
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /improvement-requests/{id}/resolve [put]
func (h *ImprovementHandler) Resolve(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return errInvalidID
	}
	resolved, err := h.svc.Resolve(c.Request().Context(), uint(id))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resolved)
}
