package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ishimweeli/timetable-api/internal/repository"
	appErrors "github.com/ishimweeli/timetable-api/pkg/errors"
	"github.com/ishimweeli/timetable-api/pkg/response"
)

// AuditHandler exposes the audit trail for a single resource.
type AuditHandler struct {
	repo *repository.AuditRepository
}

// NewAuditHandler constructs an audit handler.
func NewAuditHandler(repo *repository.AuditRepository) *AuditHandler {
	return &AuditHandler{repo: repo}
}

// List godoc
// @Summary List audit records for a resource
// @Tags Audit
// @Produce json
// @Param resource query string true "Resource name"
// @Param resourceId query string true "Resource id"
// @Param limit query int false "Max records"
// @Success 200 {object} response.Envelope
// @Router /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	resource := c.Query("resource")
	resourceID := c.Query("resourceId")
	if resource == "" || resourceID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "resource and resourceId are required"))
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	logs, err := h.repo.ListByResource(c.Request.Context(), resource, resourceID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
