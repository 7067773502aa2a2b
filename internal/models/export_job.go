package models

import "time"

// ExportStatus tracks the lifecycle of an asynchronous timetable export.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusCompleted  ExportStatus = "COMPLETED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportJob is an asynchronous PDF export of one timetable scope.
type ExportJob struct {
	ID            string        `json:"id"`
	TimetableID   string        `json:"timetable_id"`
	Scope         ScheduleScope `json:"scope"`
	Status        ExportStatus  `json:"status"`
	FileName      string        `json:"file_name,omitempty"`
	DownloadToken string        `json:"download_token,omitempty"`
	Error         string        `json:"error,omitempty"`
	RequestedAt   time.Time     `json:"requested_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
}
