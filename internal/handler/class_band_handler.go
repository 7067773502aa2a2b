package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ishimweeli/timetable-api/internal/models"
	"github.com/ishimweeli/timetable-api/internal/service"
	appErrors "github.com/ishimweeli/timetable-api/pkg/errors"
	"github.com/ishimweeli/timetable-api/pkg/response"
)

// ClassBandHandler handles class band endpoints.
type ClassBandHandler struct {
	service *service.ClassBandService
}

// NewClassBandHandler constructs a class band handler.
func NewClassBandHandler(svc *service.ClassBandService) *ClassBandHandler {
	return &ClassBandHandler{service: svc}
}

// List godoc
// @Summary List class bands
// @Tags ClassBands
// @Produce json
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /class-bands [get]
func (h *ClassBandHandler) List(c *gin.Context) {
	var filter models.ClassBandFilter
	filter.Search = searchParam(c)
	filter.Page, filter.PageSize = pageParams(c)

	bands, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bands, pagination)
}

// Get godoc
// @Summary Get class band with participating classes
// @Tags ClassBands
// @Produce json
// @Param id path string true "Class band id"
// @Success 200 {object} response.Envelope
// @Router /class-bands/{id} [get]
func (h *ClassBandHandler) Get(c *gin.Context) {
	band, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, band, nil)
}

// Create godoc
// @Summary Create class band
// @Tags ClassBands
// @Accept json
// @Produce json
// @Param payload body service.ClassBandRequest true "Class band payload"
// @Success 201 {object} response.Envelope
// @Router /class-bands [post]
func (h *ClassBandHandler) Create(c *gin.Context) {
	var req service.ClassBandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class band payload"))
		return
	}
	band, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, band)
}

// Update godoc
// @Summary Update class band and its membership
// @Tags ClassBands
// @Accept json
// @Produce json
// @Param id path string true "Class band id"
// @Param payload body service.ClassBandRequest true "Class band payload"
// @Success 200 {object} response.Envelope
// @Router /class-bands/{id} [put]
func (h *ClassBandHandler) Update(c *gin.Context) {
	var req service.ClassBandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class band payload"))
		return
	}
	band, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, band, nil)
}

// UpdateClasses godoc
// @Summary Replace the participating classes of a band
// @Tags ClassBands
// @Accept json
// @Produce json
// @Param id path string true "Class band id"
// @Param payload body service.ClassBandMembershipRequest true "Membership payload"
// @Success 200 {object} response.Envelope
// @Router /class-bands/{id}/classes [put]
func (h *ClassBandHandler) UpdateClasses(c *gin.Context) {
	var req service.ClassBandMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid membership payload"))
		return
	}
	band, err := h.service.ReplaceClasses(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, band, nil)
}

// Delete godoc
// @Summary Delete class band
// @Tags ClassBands
// @Produce json
// @Param id path string true "Class band id"
// @Success 204
// @Router /class-bands/{id} [delete]
func (h *ClassBandHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
