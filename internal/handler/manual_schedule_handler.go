package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ishimweeli/timetable-api/internal/dto"
	"github.com/ishimweeli/timetable-api/internal/models"
	appErrors "github.com/ishimweeli/timetable-api/pkg/errors"
	"github.com/ishimweeli/timetable-api/pkg/response"
)

type manualScheduleService interface {
	LoadEntries(ctx context.Context, timetableID string, scope models.ScheduleScope) (*dto.ManualScheduleState, error)
	AddPending(ctx context.Context, timetableID string, req dto.AddPendingRequest) (*dto.AddPendingResult, error)
	RemoveEntry(ctx context.Context, timetableID string, scope models.ScheduleScope, entryID string) error
	SaveAll(ctx context.Context, timetableID string, scope models.ScheduleScope) (*dto.SaveResult, error)
	DiscardPending(timetableID string, scope models.ScheduleScope)
}

// ManualScheduleHandler exposes the manual scheduling endpoints.
type ManualScheduleHandler struct {
	service manualScheduleService
}

// NewManualScheduleHandler constructs a manual scheduling handler.
func NewManualScheduleHandler(svc manualScheduleService) *ManualScheduleHandler {
	return &ManualScheduleHandler{service: svc}
}

func scopeFromQuery(c *gin.Context) (models.ScheduleScope, bool) {
	query := dto.ScopeQuery{
		ClassID:     c.Query("classId"),
		ClassBandID: c.Query("classBandId"),
	}
	return query.Resolve()
}

// GetEntries godoc
// @Summary Load the working set for one timetable scope
// @Tags ManualScheduling
// @Produce json
// @Param timetableId path string true "Timetable id"
// @Param classId query string false "Class id"
// @Param classBandId query string false "Class band id"
// @Success 200 {object} response.Envelope
// @Router /manual-scheduling/entries/{timetableId} [get]
func (h *ManualScheduleHandler) GetEntries(c *gin.Context) {
	scope, ok := scopeFromQuery(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "exactly one of classId or classBandId is required"))
		return
	}

	state, err := h.service.LoadEntries(c.Request.Context(), c.Param("timetableId"), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// AddPending godoc
// @Summary Stage a pending schedule entry
// @Tags ManualScheduling
// @Accept json
// @Produce json
// @Param timetableId path string true "Timetable id"
// @Param payload body dto.AddPendingRequest true "Pending entry payload"
// @Success 200 {object} response.Envelope
// @Router /manual-scheduling/entries/{timetableId}/pending [post]
func (h *ManualScheduleHandler) AddPending(c *gin.Context) {
	var req dto.AddPendingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pending entry payload"))
		return
	}

	result, err := h.service.AddPending(c.Request.Context(), c.Param("timetableId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusOK
	if result.Success {
		status = http.StatusCreated
	}
	response.JSON(c, status, result, nil)
}

// SaveAll godoc
// @Summary Persist every pending entry of the session
// @Tags ManualScheduling
// @Produce json
// @Param timetableId path string true "Timetable id"
// @Param classId query string false "Class id"
// @Param classBandId query string false "Class band id"
// @Success 200 {object} response.Envelope
// @Router /manual-scheduling/entries/{timetableId}/save [post]
func (h *ManualScheduleHandler) SaveAll(c *gin.Context) {
	scope, ok := scopeFromQuery(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "exactly one of classId or classBandId is required"))
		return
	}

	result, err := h.service.SaveAll(c.Request.Context(), c.Param("timetableId"), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// RemoveEntry godoc
// @Summary Remove a pending or committed entry
// @Tags ManualScheduling
// @Produce json
// @Param id path string true "Entry id"
// @Param timetableId query string true "Timetable id"
// @Param classId query string false "Class id"
// @Param classBandId query string false "Class band id"
// @Success 204
// @Router /manual-scheduling/entry/{id} [delete]
func (h *ManualScheduleHandler) RemoveEntry(c *gin.Context) {
	scope, ok := scopeFromQuery(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "exactly one of classId or classBandId is required"))
		return
	}

	err := h.service.RemoveEntry(c.Request.Context(), c.Query("timetableId"), scope, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DiscardPending godoc
// @Summary Discard all pending entries for a scope
// @Tags ManualScheduling
// @Produce json
// @Param timetableId path string true "Timetable id"
// @Param classId query string false "Class id"
// @Param classBandId query string false "Class band id"
// @Success 204
// @Router /manual-scheduling/entries/{timetableId}/pending [delete]
func (h *ManualScheduleHandler) DiscardPending(c *gin.Context) {
	scope, ok := scopeFromQuery(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "exactly one of classId or classBandId is required"))
		return
	}

	h.service.DiscardPending(c.Param("timetableId"), scope)
	response.NoContent(c)
}
