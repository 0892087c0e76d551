package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/motbook/motbook-api/internal/models"
	"github.com/motbook/motbook-api/internal/service"
	appErrors "github.com/motbook/motbook-api/pkg/errors"
	"github.com/motbook/motbook-api/pkg/response"
)

// AdminHandler groups admin-only operational endpoints: booking exports,
// the email audit trail, holiday seeding and a manual dispatch trigger.
type AdminHandler struct {
	exports  *service.ExportService
	holidays *service.HolidayService
	dispatch *service.DispatchService
}

// NewAdminHandler constructs an admin handler.
func NewAdminHandler(exports *service.ExportService, holidays *service.HolidayService, dispatch *service.DispatchService) *AdminHandler {
	return &AdminHandler{exports: exports, holidays: holidays, dispatch: dispatch}
}

func bookingExportFilter(c *gin.Context) (models.BookingFilter, error) {
	var filter models.BookingFilter
	filter.GarageID = c.Query("garage_id")
	if raw := c.Query("status"); raw != "" {
		status := models.BookingStatus(raw)
		if !status.Valid() {
			return filter, fmt.Errorf("unknown status %q", raw)
		}
		filter.Status = &status
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(dateLayout, raw)
		if err != nil {
			return filter, fmt.Errorf("invalid from date: %w", err)
		}
		filter.DateFrom = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(dateLayout, raw)
		if err != nil {
			return filter, fmt.Errorf("invalid to date: %w", err)
		}
		filter.DateTo = &to
	}
	return filter, nil
}

// ExportBookingsCSV godoc
// @Summary Export bookings as CSV
// @Tags Admin
// @Produce text/csv
// @Security BearerAuth
// @Param garage_id query string false "Filter by garage"
// @Param status query string false "Filter by status"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {string} string "CSV payload"
// @Router /admin/exports/bookings.csv [get]
func (h *AdminHandler) ExportBookingsCSV(c *gin.Context) {
	filter, err := bookingExportFilter(c)
	if err != nil {
		response.Error(c, appErrors.ErrValidation.WithError(err))
		return
	}
	payload, err := h.exports.ExportBookingsCSV(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="bookings.csv"`)
	c.Data(http.StatusOK, "text/csv", payload)
}

// ExportBookingsPDF godoc
// @Summary Export bookings as PDF
// @Tags Admin
// @Produce application/pdf
// @Security BearerAuth
// @Param garage_id query string false "Filter by garage"
// @Param status query string false "Filter by status"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {string} string "PDF payload"
// @Router /admin/exports/bookings.pdf [get]
func (h *AdminHandler) ExportBookingsPDF(c *gin.Context) {
	filter, err := bookingExportFilter(c)
	if err != nil {
		response.Error(c, appErrors.ErrValidation.WithError(err))
		return
	}
	payload, err := h.exports.ExportBookingsPDF(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="bookings.pdf"`)
	c.Data(http.StatusOK, "application/pdf", payload)
}

// EmailLog godoc
// @Summary Delivery audit trail
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param recipient query string false "Filter by recipient"
// @Param booking_id query string false "Filter by booking"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/email-log [get]
func (h *AdminHandler) EmailLog(c *gin.Context) {
	var filter models.EmailLogFilter
	filter.Recipient = c.Query("recipient")
	filter.BookingID = c.Query("booking_id")
	if raw := c.Query("kind"); raw != "" {
		kind := models.NotificationKind(raw)
		filter.Kind = &kind
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = limit
	}

	entries, total, err := h.exports.ListEmailLog(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// SeedHoliday godoc
// @Summary Add a public holiday to the calendar
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.SeedHolidayRequest true "Holiday payload"
// @Success 201 {object} response.Envelope
// @Router /admin/holidays [post]
func (h *AdminHandler) SeedHoliday(c *gin.Context) {
	var req models.SeedHolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.ErrValidation.WithError(err))
		return
	}
	holiday, err := h.holidays.Seed(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, holiday)
}

// TriggerDispatch godoc
// @Summary Run one reminder dispatch pass now
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/dispatch [post]
func (h *AdminHandler) TriggerDispatch(c *gin.Context) {
	sent, err := h.dispatch.DispatchDue(c.Request.Context())
	if err != nil {
		response.Error(c, appErrors.ErrInternal.WithError(err))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"sent": sent}, nil)
}
