package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ishimweeli/timetable-api/internal/dto"
	"github.com/ishimweeli/timetable-api/internal/models"
	"github.com/ishimweeli/timetable-api/pkg/export"
	appErrors "github.com/ishimweeli/timetable-api/pkg/errors"
	"github.com/ishimweeli/timetable-api/pkg/jobs"
	"github.com/ishimweeli/timetable-api/pkg/storage"
)

const exportJobType = "timetable_export"

// Fallback grid shape when a timetable has no entries yet.
var (
	defaultExportDays    = []int{1, 2, 3, 4, 5}
	defaultExportPeriods = []int{1, 2, 3, 4, 5, 6, 7, 8}
)

type exportPayload struct {
	jobID       string
	timetableID string
	scope       models.ScheduleScope
	title       string
}

// ExportOptions tunes the export pipeline.
type ExportOptions struct {
	Workers         int
	Retries         int
	CleanupInterval time.Duration
	FileTTL         time.Duration
}

// ExportService renders timetable PDFs asynchronously. Jobs run on an
// in-memory worker queue; finished files live on local storage and are served
// through signed download tokens.
type ExportService struct {
	entries  scheduleEntryRepository
	bands    classBandResolver
	exporter *export.PDFExporter
	store    *storage.LocalStorage
	signer   *storage.SignedURLSigner
	metrics  *MetricsService
	logger   *zap.Logger

	queue *jobs.Queue

	mu      sync.RWMutex
	byID    map[string]*models.ExportJob
	cancel  context.CancelFunc
	fileTTL time.Duration
	cleanup time.Duration
}

// NewExportService constructs an ExportService with its own worker queue.
func NewExportService(entries scheduleEntryRepository, bands classBandResolver, store *storage.LocalStorage, signer *storage.SignedURLSigner, metrics *MetricsService, logger *zap.Logger, opts ExportOptions) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = time.Hour
	}
	if opts.FileTTL <= 0 {
		opts.FileTTL = 24 * time.Hour
	}

	s := &ExportService{
		entries:  entries,
		bands:    bands,
		exporter: export.NewPDFExporter(),
		store:    store,
		signer:   signer,
		metrics:  metrics,
		logger:   logger,
		byID:     make(map[string]*models.ExportJob),
		fileTTL:  opts.FileTTL,
		cleanup:  opts.CleanupInterval,
	}
	s.queue = jobs.NewQueue(exportJobType, s.process, jobs.QueueConfig{
		Workers:    opts.Workers,
		MaxRetries: opts.Retries,
		Logger:     logger,
	})
	return s
}

// Start launches the worker queue and the periodic file cleanup.
func (s *ExportService) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.queue.Start(ctx)
	go s.cleanupLoop(ctx)
}

// Stop drains the queue and halts cleanup.
func (s *ExportService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.queue.Stop()
}

// Enqueue registers a new export job for one timetable scope.
func (s *ExportService) Enqueue(ctx context.Context, timetableID string, req dto.ExportRequest) (*dto.ExportJobResponse, error) {
	scope, ok := req.Resolve()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exactly one of classId or classBandId is required")
	}
	if timetableID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "timetable id is required")
	}

	job := &models.ExportJob{
		ID:          uuid.NewString(),
		TimetableID: timetableID,
		Scope:       scope,
		Status:      models.ExportStatusQueued,
		RequestedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.byID[job.ID] = job
	s.mu.Unlock()

	err := s.queue.Enqueue(jobs.Job{
		ID:   job.ID,
		Type: exportJobType,
		Payload: exportPayload{
			jobID:       job.ID,
			timetableID: timetableID,
			scope:       scope,
			title:       req.Title,
		},
	})
	if err != nil {
		s.fail(job.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export")
	}
	return s.Status(job.ID)
}

// Status returns the public view of one export job.
func (s *ExportService) Status(jobID string) (*dto.ExportJobResponse, error) {
	s.mu.RLock()
	job, ok := s.byID[jobID]
	if !ok {
		s.mu.RUnlock()
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	resp := &dto.ExportJobResponse{
		ID:          job.ID,
		TimetableID: job.TimetableID,
		Scope:       job.Scope,
		Status:      job.Status,
		Error:       job.Error,
	}
	token := job.DownloadToken
	s.mu.RUnlock()

	if token != "" {
		resp.DownloadURL = "/api/v1/exports/download?token=" + token
	}
	return resp, nil
}

// Resolve validates a download token and returns the stored file path.
func (s *ExportService) Resolve(token string) (string, error) {
	if s.signer == nil {
		return "", appErrors.Clone(appErrors.ErrNotFound, "exports are disabled")
	}
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
	}
	path := file.Name()
	file.Close()
	return path, nil
}

func (s *ExportService) process(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(exportPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}

	s.transition(payload.jobID, models.ExportStatusProcessing)

	entries, err := s.entries.ListByScope(ctx, payload.timetableID, payload.scope)
	if err != nil {
		s.fail(payload.jobID, err)
		return err
	}

	grid := buildGrid(payload, entries)
	pdf, err := s.exporter.Render(grid)
	if err != nil {
		s.fail(payload.jobID, err)
		return err
	}

	fileName := fmt.Sprintf("timetable-%s-%s.pdf", payload.timetableID, payload.jobID)
	if _, err := s.store.Save(fileName, pdf); err != nil {
		s.fail(payload.jobID, err)
		return err
	}

	token, _, err := s.signer.Generate(payload.jobID, fileName)
	if err != nil {
		s.fail(payload.jobID, err)
		return err
	}

	now := time.Now().UTC()
	s.mu.Lock()
	if job, ok := s.byID[payload.jobID]; ok {
		job.Status = models.ExportStatusCompleted
		job.FileName = fileName
		job.DownloadToken = token
		job.CompletedAt = &now
	}
	s.mu.Unlock()

	s.metrics.RecordExportJob(string(models.ExportStatusCompleted))
	s.logger.Info("timetable export completed",
		zap.String("job_id", payload.jobID),
		zap.String("timetable_id", payload.timetableID),
		zap.String("file", fileName))
	return nil
}

func (s *ExportService) transition(jobID string, status models.ExportStatus) {
	s.mu.Lock()
	if job, ok := s.byID[jobID]; ok {
		job.Status = status
	}
	s.mu.Unlock()
}

func (s *ExportService) fail(jobID string, err error) {
	now := time.Now().UTC()
	s.mu.Lock()
	if job, ok := s.byID[jobID]; ok {
		job.Status = models.ExportStatusFailed
		job.Error = err.Error()
		job.CompletedAt = &now
	}
	s.mu.Unlock()
	s.metrics.RecordExportJob(string(models.ExportStatusFailed))
}

func (s *ExportService) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cleanup)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.store.CleanupOlderThan(s.fileTTL)
			if err != nil {
				s.logger.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				s.logger.Info("expired export files removed", zap.Int("count", len(removed)))
			}
		}
	}
}

func buildGrid(payload exportPayload, entries []models.ScheduleEntry) export.TimetableGrid {
	title := payload.title
	if title == "" {
		title = fmt.Sprintf("Timetable %s", payload.timetableID)
	}

	grid := export.TimetableGrid{
		Title: title,
		Cells: make(map[export.GridKey]export.GridCell, len(entries)),
	}

	daySet := make(map[int]struct{})
	periodSet := make(map[int]struct{})
	for _, entry := range entries {
		daySet[entry.DayOfWeek] = struct{}{}
		periodSet[entry.PeriodID] = struct{}{}
		grid.Cells[export.GridKey{DayOfWeek: entry.DayOfWeek, PeriodID: entry.PeriodID}] = export.GridCell{
			Subject: entry.SubjectName,
			Teacher: entry.TeacherName,
			Room:    entry.RoomName,
		}
	}

	if len(daySet) == 0 {
		grid.Days = append(grid.Days, defaultExportDays...)
		grid.Periods = append(grid.Periods, defaultExportPeriods...)
		return grid
	}
	for day := range daySet {
		grid.Days = append(grid.Days, day)
	}
	for period := range periodSet {
		grid.Periods = append(grid.Periods, period)
	}
	return grid
}
