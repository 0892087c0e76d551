package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/motbook/motbook-api/internal/models"
	"github.com/motbook/motbook-api/internal/service"
	appErrors "github.com/motbook/motbook-api/pkg/errors"
	"github.com/motbook/motbook-api/pkg/response"
)

// GarageHandler handles garage profile endpoints.
type GarageHandler struct {
	service *service.GarageService
}

// NewGarageHandler constructs a garage handler.
func NewGarageHandler(svc *service.GarageService) *GarageHandler {
	return &GarageHandler{service: svc}
}

// List godoc
// @Summary List garages
// @Tags Garages
// @Produce json
// @Param city query string false "Filter by city"
// @Param postcode query string false "Filter by postcode"
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /garages [get]
func (h *GarageHandler) List(c *gin.Context) {
	var filter models.GarageFilter
	filter.City = c.Query("city")
	filter.Postcode = c.Query("postcode")
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.OwnerID = c.Query("owner_id")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}

	garages, total, err := h.service.ListGarages(c.Request.Context(), filter, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, garages, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Get godoc
// @Summary Get garage by id
// @Tags Garages
// @Produce json
// @Param id path string true "Garage ID"
// @Success 200 {object} response.Envelope
// @Router /garages/{id} [get]
func (h *GarageHandler) Get(c *gin.Context) {
	garage, err := h.service.GetGarage(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, garage, nil)
}

// Create godoc
// @Summary Create a garage
// @Tags Garages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateGarageRequest true "Garage payload"
// @Success 201 {object} response.Envelope
// @Router /garages [post]
func (h *GarageHandler) Create(c *gin.Context) {
	var req models.CreateGarageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.ErrValidation.WithError(err))
		return
	}
	garage, err := h.service.CreateGarage(c.Request.Context(), actorFromContext(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, garage)
}

// Update godoc
// @Summary Update a garage
// @Tags Garages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Garage ID"
// @Param payload body models.UpdateGarageRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /garages/{id} [patch]
func (h *GarageHandler) Update(c *gin.Context) {
	var req models.UpdateGarageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.ErrValidation.WithError(err))
		return
	}
	garage, err := h.service.UpdateGarage(c.Request.Context(), c.Param("id"), actorFromContext(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, garage, nil)
}
