package dto

import "github.com/ishimweeli/timetable-api/internal/models"

// ScopeQuery carries the raw class/class-band selector of a request. Exactly
// one of the two fields must be set; Resolve turns it into a tagged scope.
type ScopeQuery struct {
	ClassID     string `form:"classId" json:"class_id"`
	ClassBandID string `form:"classBandId" json:"class_band_id"`
}

// Resolve normalizes the query into a ScheduleScope. ok is false when the
// selector is empty or ambiguous.
func (q ScopeQuery) Resolve() (models.ScheduleScope, bool) {
	switch {
	case q.ClassID != "" && q.ClassBandID != "":
		return models.ScheduleScope{}, false
	case q.ClassID != "":
		return models.ClassScope(q.ClassID), true
	case q.ClassBandID != "":
		return models.ClassBandScope(q.ClassBandID), true
	default:
		return models.ScheduleScope{}, false
	}
}

// AddPendingRequest is the payload for placing a pending entry.
type AddPendingRequest struct {
	ScopeQuery
	BindingID string `json:"binding_id" validate:"required"`
	DayOfWeek int    `json:"day_of_week" validate:"required,min=1,max=7"`
	PeriodID  int    `json:"period_id" validate:"required,min=1"`
	ForceAdd  bool   `json:"force_add"`
}

// AddPendingResult reports the outcome of a pending placement. On conflicts
// without force the entry is nil and Conflicts explains each violated rule.
type AddPendingResult struct {
	Success   bool                   `json:"success"`
	Entry     *models.ScheduleEntry  `json:"entry,omitempty"`
	Conflicts []models.EntryConflict `json:"conflicts,omitempty"`
}

// ManualScheduleState is the full working set returned to the UI.
type ManualScheduleState struct {
	Entries        []models.ScheduleEntry `json:"entries"`
	PendingEntries []models.ScheduleEntry `json:"pending_entries"`
	Conflicts      []models.EntryConflict `json:"conflicts"`
	DataSource     string                 `json:"data_source"`
}

// Data source markers for ManualScheduleState.
const (
	DataSourceDatabase = "database"
	DataSourceCache    = "cache"
	DataSourceError    = "error"
)

// SaveResult summarizes a save batch. Failed entries stay pending on the
// session with their SaveError populated.
type SaveResult struct {
	Success      bool                   `json:"success"`
	SuccessCount int                    `json:"success_count"`
	FailureCount int                    `json:"failure_count"`
	Total        int                    `json:"total"`
	Failed       []models.ScheduleEntry `json:"failed,omitempty"`
}
