package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/motbook/motbook-api/internal/models"
	"github.com/motbook/motbook-api/internal/service"
	appErrors "github.com/motbook/motbook-api/pkg/errors"
	"github.com/motbook/motbook-api/pkg/response"
)

// ScheduleHandler handles garage-owner schedule management endpoints.
type ScheduleHandler struct {
	service *service.ScheduleService
}

// NewScheduleHandler constructs a schedule handler.
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// GetWeekly godoc
// @Summary Weekly opening hours
// @Tags Schedules
// @Produce json
// @Param id path string true "Garage ID"
// @Success 200 {object} response.Envelope
// @Router /garages/{id}/schedule [get]
func (h *ScheduleHandler) GetWeekly(c *gin.Context) {
	schedules, err := h.service.GetWeeklySchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, nil)
}

// SetWeekly godoc
// @Summary Set one weekday's opening hours
// @Tags Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Garage ID"
// @Param payload body models.SetWeeklyScheduleRequest true "Weekday hours"
// @Success 200 {object} response.Envelope
// @Router /garages/{id}/schedule [put]
func (h *ScheduleHandler) SetWeekly(c *gin.Context) {
	var req models.SetWeeklyScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.ErrValidation.WithError(err))
		return
	}
	schedule, err := h.service.SetWeeklySchedule(c.Request.Context(), c.Param("id"), actorFromContext(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// ListExceptions godoc
// @Summary Date overrides in a window
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param id path string true "Garage ID"
// @Param from query string true "Start date (YYYY-MM-DD)"
// @Param to query string true "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /garages/{id}/schedule/exceptions [get]
func (h *ScheduleHandler) ListExceptions(c *gin.Context) {
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
	exceptions, err := h.service.ListExceptions(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exceptions, nil)
}

// SetException godoc
// @Summary Close or re-open one date
// @Tags Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Garage ID"
// @Param payload body models.SetExceptionRequest true "Exception payload"
// @Success 200 {object} response.Envelope
// @Router /garages/{id}/schedule/exceptions [put]
func (h *ScheduleHandler) SetException(c *gin.Context) {
	var req models.SetExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.ErrValidation.WithError(err))
		return
	}
	exc, err := h.service.SetException(c.Request.Context(), c.Param("id"), actorFromContext(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exc, nil)
}

// DeleteException godoc
// @Summary Remove a date override
// @Tags Schedules
// @Security BearerAuth
// @Param id path string true "Garage ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 204
// @Router /garages/{id}/schedule/exceptions [delete]
func (h *ScheduleHandler) DeleteException(c *gin.Context) {
	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.ErrValidation.WithError(fmt.Errorf("invalid date: %w", err)))
		return
	}
	if err := h.service.DeleteException(c.Request.Context(), c.Param("id"), actorFromContext(c), date); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// BlockSlot godoc
// @Summary Block a single slot
// @Tags Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Garage ID"
// @Param payload body models.BlockSlotRequest true "Slot to block"
// @Success 201 {object} response.Envelope
// @Router /garages/{id}/schedule/blocks [post]
func (h *ScheduleHandler) BlockSlot(c *gin.Context) {
	var req models.BlockSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.ErrValidation.WithError(err))
		return
	}
	block, err := h.service.BlockSlot(c.Request.Context(), c.Param("id"), actorFromContext(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, block)
}

// UnblockSlot godoc
// @Summary Remove a slot block
// @Tags Schedules
// @Security BearerAuth
// @Param id path string true "Garage ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param time_slot query string true "Slot (HH:MM)"
// @Success 204
// @Router /garages/{id}/schedule/blocks [delete]
func (h *ScheduleHandler) UnblockSlot(c *gin.Context) {
	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.ErrValidation.WithError(fmt.Errorf("invalid date: %w", err)))
		return
	}
	timeSlot := c.Query("time_slot")
	if timeSlot == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "time_slot is required"))
		return
	}
	if err := h.service.UnblockSlot(c.Request.Context(), c.Param("id"), actorFromContext(c), date, timeSlot); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SetHolidayOverride godoc
// @Summary Opt in or out of working a public holiday
// @Tags Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Garage ID"
// @Param payload body models.SetHolidayOverrideRequest true "Override payload"
// @Success 200 {object} response.Envelope
// @Router /garages/{id}/schedule/holiday-overrides [put]
func (h *ScheduleHandler) SetHolidayOverride(c *gin.Context) {
	var req models.SetHolidayOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.ErrValidation.WithError(err))
		return
	}
	override, err := h.service.SetHolidayOverride(c.Request.Context(), c.Param("id"), actorFromContext(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, override, nil)
}
