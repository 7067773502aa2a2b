package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ishimweeli/timetable-api/internal/models"
	"github.com/ishimweeli/timetable-api/internal/service"
	appErrors "github.com/ishimweeli/timetable-api/pkg/errors"
	"github.com/ishimweeli/timetable-api/pkg/response"
)

// BindingHandler handles teacher/subject/room binding endpoints.
type BindingHandler struct {
	service *service.BindingService
}

// NewBindingHandler constructs a binding handler.
func NewBindingHandler(svc *service.BindingService) *BindingHandler {
	return &BindingHandler{service: svc}
}

// List godoc
// @Summary List bindings
// @Tags Bindings
// @Produce json
// @Param teacherId query string false "Teacher id"
// @Param subjectId query string false "Subject id"
// @Param classId query string false "Class id"
// @Param classBandId query string false "Class band id"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /bindings [get]
func (h *BindingHandler) List(c *gin.Context) {
	var filter models.BindingFilter
	filter.TeacherID = c.Query("teacherId")
	filter.SubjectID = c.Query("subjectId")
	filter.ClassID = c.Query("classId")
	filter.ClassBandID = c.Query("classBandId")
	filter.Page, filter.PageSize = pageParams(c)

	bindings, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bindings, pagination)
}

// Get godoc
// @Summary Get binding by id
// @Tags Bindings
// @Produce json
// @Param id path string true "Binding id"
// @Success 200 {object} response.Envelope
// @Router /bindings/{id} [get]
func (h *BindingHandler) Get(c *gin.Context) {
	binding, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, binding, nil)
}

// Create godoc
// @Summary Create binding
// @Tags Bindings
// @Accept json
// @Produce json
// @Param payload body service.BindingRequest true "Binding payload"
// @Success 201 {object} response.Envelope
// @Router /bindings [post]
func (h *BindingHandler) Create(c *gin.Context) {
	var req service.BindingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid binding payload"))
		return
	}
	binding, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, binding)
}

// Update godoc
// @Summary Update binding
// @Tags Bindings
// @Accept json
// @Produce json
// @Param id path string true "Binding id"
// @Param payload body service.BindingRequest true "Binding payload"
// @Success 200 {object} response.Envelope
// @Router /bindings/{id} [put]
func (h *BindingHandler) Update(c *gin.Context) {
	var req service.BindingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid binding payload"))
		return
	}
	binding, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, binding, nil)
}

// Delete godoc
// @Summary Delete binding
// @Tags Bindings
// @Produce json
// @Param id path string true "Binding id"
// @Success 204
// @Router /bindings/{id} [delete]
func (h *BindingHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
