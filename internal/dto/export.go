package dto

import "github.com/ishimweeli/timetable-api/internal/models"

// ExportRequest is the payload for enqueueing a timetable PDF export.
type ExportRequest struct {
	ScopeQuery
	Title string `json:"title" validate:"omitempty,max=200"`
}

// ExportJobResponse is the public view of an export job.
type ExportJobResponse struct {
	ID          string               `json:"id"`
	TimetableID string               `json:"timetable_id"`
	Scope       models.ScheduleScope `json:"scope"`
	Status      models.ExportStatus  `json:"status"`
	DownloadURL string               `json:"download_url,omitempty"`
	Error       string               `json:"error,omitempty"`
}
