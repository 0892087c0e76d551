package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/motbook/motbook-api/internal/service"
	appErrors "github.com/motbook/motbook-api/pkg/errors"
	"github.com/motbook/motbook-api/pkg/response"
)

const dateLayout = "2006-01-02"

// AvailabilityHandler exposes slot availability lookups.
type AvailabilityHandler struct {
	service *service.AvailabilityService
}

// NewAvailabilityHandler constructs an availability handler.
func NewAvailabilityHandler(svc *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// Day godoc
// @Summary Available slots for one date
// @Tags Availability
// @Produce json
// @Param id path string true "Garage ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /garages/{id}/availability [get]
func (h *AvailabilityHandler) Day(c *gin.Context) {
	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.ErrValidation.WithError(fmt.Errorf("invalid date: %w", err)))
		return
	}
	day, err := h.service.GetDayAvailability(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, day, nil)
}

// Range godoc
// @Summary Available slots for a date range
// @Tags Availability
// @Produce json
// @Param id path string true "Garage ID"
// @Param from query string true "Start date (YYYY-MM-DD)"
// @Param to query string true "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /garages/{id}/availability/range [get]
func (h *AvailabilityHandler) Range(c *gin.Context) {
	from, err := time.Parse(dateLayout, c.Query("from"))
	if err != nil {
		response.Error(c, appErrors.ErrValidation.WithError(fmt.Errorf("invalid from date: %w", err)))
		return
	}
	to, err := time.Parse(dateLayout, c.Query("to"))
	if err != nil {
		response.Error(c, appErrors.ErrValidation.WithError(fmt.Errorf("invalid to date: %w", err)))
		return
	}
	days, err := h.service.GetRangeAvailability(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, days, nil)
}
