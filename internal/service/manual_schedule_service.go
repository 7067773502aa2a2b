package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ishimweeli/timetable-api/internal/dto"
	"github.com/ishimweeli/timetable-api/internal/models"
	"github.com/ishimweeli/timetable-api/internal/timetable"
	appErrors "github.com/ishimweeli/timetable-api/pkg/errors"
)

type scheduleEntryRepository interface {
	ListByTimetable(ctx context.Context, timetableID string) ([]models.ScheduleEntry, error)
	ListByScope(ctx context.Context, timetableID string, scope models.ScheduleScope) ([]models.ScheduleEntry, error)
	Create(ctx context.Context, entry *models.ScheduleEntry) error
	Delete(ctx context.Context, id string) (bool, error)
}

type schedulingBindingRepository interface {
	FindByID(ctx context.Context, id string) (*models.BindingDetail, error)
	ListAll(ctx context.Context) ([]models.Binding, error)
}

type classBandResolver interface {
	FindByID(ctx context.Context, id string) (*models.ClassBandDetail, error)
}

type sessionKey struct {
	timetableID string
	scope       models.ScheduleScope
}

// scheduleSession is the working set for one timetable scope: the committed
// entries last loaded plus the user's pending placements. busy serializes the
// mutating operations of a session.
type scheduleSession struct {
	committed []models.ScheduleEntry
	pending   []models.ScheduleEntry
	busy      bool
	expiresAt time.Time
}

// ManualScheduleService implements the manual scheduling workflow: loading a
// timetable's working set, staging pending entries against the conflict
// detector, removing entries and reconciling pending state on save.
type ManualScheduleService struct {
	entries  scheduleEntryRepository
	bindings schedulingBindingRepository
	bands    classBandResolver
	cache    *CacheService
	metrics  *MetricsService
	validate *validator.Validate
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[sessionKey]*scheduleSession

	sessionTTL         time.Duration
	checkGlobalTeacher bool
	maxDailyLoad       int
	now                func() time.Time
}

// ManualScheduleOptions tunes the scheduling workflow.
type ManualScheduleOptions struct {
	SessionTTL          time.Duration
	CheckGlobalTeacher  bool
	MaxDailyTeacherLoad int
}

// NewManualScheduleService constructs a ManualScheduleService.
func NewManualScheduleService(entries scheduleEntryRepository, bindings schedulingBindingRepository, bands classBandResolver, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, opts ManualScheduleOptions) *ManualScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	if opts.MaxDailyTeacherLoad <= 0 {
		opts.MaxDailyTeacherLoad = timetable.MaxDailyTeacherLoad
	}
	return &ManualScheduleService{
		entries:            entries,
		bindings:           bindings,
		bands:              bands,
		cache:              cache,
		metrics:            metrics,
		validate:           validate,
		logger:             logger,
		sessions:           make(map[sessionKey]*scheduleSession),
		sessionTTL:         opts.SessionTTL,
		checkGlobalTeacher: opts.CheckGlobalTeacher,
		maxDailyLoad:       opts.MaxDailyTeacherLoad,
		now:                time.Now,
	}
}

// acquire locks a session for one mutating operation. A session already in
// the middle of an operation is rejected rather than queued.
func (s *ManualScheduleService) acquire(key sessionKey) (*scheduleSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneExpiredLocked()

	session, ok := s.sessions[key]
	if !ok {
		session = &scheduleSession{}
		s.sessions[key] = session
	}
	if session.busy {
		return nil, appErrors.Clone(appErrors.ErrOperationInProgress, "another scheduling operation is in progress for this timetable")
	}
	session.busy = true
	session.expiresAt = s.now().Add(s.sessionTTL)
	return session, nil
}

func (s *ManualScheduleService) release(session *scheduleSession) {
	s.mu.Lock()
	session.busy = false
	s.mu.Unlock()
	s.publishPendingGauge()
}

func (s *ManualScheduleService) pruneExpiredLocked() {
	now := s.now()
	for key, session := range s.sessions {
		if !session.busy && !session.expiresAt.IsZero() && now.After(session.expiresAt) {
			delete(s.sessions, key)
		}
	}
}

func (s *ManualScheduleService) publishPendingGauge() {
	if s.metrics == nil {
		return
	}
	s.mu.Lock()
	total := 0
	for _, session := range s.sessions {
		total += len(session.pending)
	}
	s.mu.Unlock()
	s.metrics.SetPendingEntries(total)
}

// LoadEntries refreshes and returns the working set for one timetable scope.
// A repository failure is not fatal: the state degrades to an empty committed
// list marked with the error data source so the UI can warn the user.
func (s *ManualScheduleService) LoadEntries(ctx context.Context, timetableID string, scope models.ScheduleScope) (*dto.ManualScheduleState, error) {
	if timetableID == "" || scope.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "timetable id and class or class band are required")
	}

	key := sessionKey{timetableID: timetableID, scope: scope}
	session, err := s.acquire(key)
	if err != nil {
		return nil, err
	}
	defer s.release(session)

	committed, source := s.loadCommitted(ctx, timetableID, scope)
	session.committed = committed

	state := &dto.ManualScheduleState{
		Entries:        committed,
		PendingEntries: append([]models.ScheduleEntry(nil), session.pending...),
		DataSource:     source,
	}
	state.Conflicts = s.detect(ctx, session)
	return state, nil
}

func (s *ManualScheduleService) loadCommitted(ctx context.Context, timetableID string, scope models.ScheduleScope) ([]models.ScheduleEntry, string) {
	cacheKey := EntriesCacheKey(timetableID, scope)

	var cached []models.ScheduleEntry
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, dto.DataSourceCache
	}

	committed, err := s.entries.ListByScope(ctx, timetableID, scope)
	if err != nil {
		s.logger.Error("failed to load committed entries",
			zap.String("timetable_id", timetableID),
			zap.String("scope_id", scope.ID),
			zap.Error(err))
		return []models.ScheduleEntry{}, dto.DataSourceError
	}
	if committed == nil {
		committed = []models.ScheduleEntry{}
	}

	if err := s.cache.Set(ctx, cacheKey, committed, 0); err != nil {
		s.logger.Warn("failed to cache committed entries", zap.String("key", cacheKey), zap.Error(err))
	}
	return committed, dto.DataSourceDatabase
}

// detect recomputes the conflict set over committed plus pending entries.
func (s *ManualScheduleService) detect(ctx context.Context, session *scheduleSession) []models.EntryConflict {
	bindings, err := s.bindings.ListAll(ctx)
	if err != nil {
		s.logger.Warn("failed to load bindings for conflict detection", zap.Error(err))
		return nil
	}
	all := make([]models.ScheduleEntry, 0, len(session.committed)+len(session.pending))
	all = append(all, session.committed...)
	all = append(all, session.pending...)

	conflicts := timetable.CollectConflicts(all, bindings, s.checkGlobalTeacher, s.maxDailyLoad)
	for _, conflict := range conflicts {
		s.metrics.RecordConflict(string(conflict.Type))
	}
	return conflicts
}

// AddPending stages a new placement. Conflicts are returned without mutating
// the session unless the caller forces the placement.
func (s *ManualScheduleService) AddPending(ctx context.Context, timetableID string, req dto.AddPendingRequest) (*dto.AddPendingResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pending entry payload")
	}
	scope, ok := req.Resolve()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exactly one of classId or classBandId is required")
	}
	if timetableID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "timetable id is required")
	}

	binding, err := s.bindings.FindByID(ctx, req.BindingID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("binding %s not found", req.BindingID))
	}

	key := sessionKey{timetableID: timetableID, scope: scope}
	session, err := s.acquire(key)
	if err != nil {
		return nil, err
	}
	defer s.release(session)

	if len(session.committed) == 0 {
		committed, source := s.loadCommitted(ctx, timetableID, scope)
		if source != dto.DataSourceError {
			session.committed = committed
		}
	}

	candidate := s.buildCandidate(timetableID, scope, binding, req.DayOfWeek, req.PeriodID)

	bindings, err := s.bindings.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bindings")
	}
	existing := make([]models.ScheduleEntry, 0, len(session.committed)+len(session.pending))
	existing = append(existing, session.committed...)
	existing = append(existing, session.pending...)

	conflicts := timetable.DetectConflictsWithLimit(existing, candidate, bindings, s.checkGlobalTeacher, s.maxDailyLoad)
	for _, conflict := range conflicts {
		s.metrics.RecordConflict(string(conflict.Type))
	}
	if len(conflicts) > 0 && !req.ForceAdd {
		return &dto.AddPendingResult{Success: false, Conflicts: conflicts}, nil
	}

	session.pending = append(session.pending, candidate)
	s.logger.Info("pending entry staged",
		zap.String("timetable_id", timetableID),
		zap.String("entry_id", candidate.ID),
		zap.Bool("forced", len(conflicts) > 0))

	return &dto.AddPendingResult{Success: true, Entry: &candidate, Conflicts: conflicts}, nil
}

func (s *ManualScheduleService) buildCandidate(timetableID string, scope models.ScheduleScope, binding *models.BindingDetail, day, period int) models.ScheduleEntry {
	entry := models.ScheduleEntry{
		ID:          models.PendingIDPrefix + uuid.NewString(),
		TimetableID: timetableID,
		BindingID:   binding.ID,
		DayOfWeek:   day,
		PeriodID:    period,
		SubjectID:   binding.SubjectID,
		SubjectName: binding.SubjectName,
		TeacherID:   binding.TeacherID,
		TeacherName: binding.TeacherName,
		RoomID:      binding.RoomID,
		RoomName:    binding.RoomName,
		Status:      models.EntryStatusPending,
		CreatedAt:   s.now().UTC(),
	}
	if binding.ClassName != nil {
		entry.ClassName = *binding.ClassName
	}
	entry.SetScope(scope)
	return entry
}

// RemoveEntry removes one entry from the working set. Pending entries are
// dropped locally; committed entries are removed optimistically and restored
// if the repository delete fails.
func (s *ManualScheduleService) RemoveEntry(ctx context.Context, timetableID string, scope models.ScheduleScope, entryID string) error {
	if timetableID == "" || scope.IsZero() || entryID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "timetable id, scope and entry id are required")
	}

	key := sessionKey{timetableID: timetableID, scope: scope}
	session, err := s.acquire(key)
	if err != nil {
		return err
	}
	defer s.release(session)

	if idx := indexByID(session.pending, entryID); idx >= 0 {
		session.pending = append(session.pending[:idx], session.pending[idx+1:]...)
		return nil
	}

	if len(session.committed) == 0 {
		committed, source := s.loadCommitted(ctx, timetableID, scope)
		if source != dto.DataSourceError {
			session.committed = committed
		}
	}

	idx := indexByID(session.committed, entryID)
	if idx < 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
	}

	removed := session.committed[idx]
	session.committed = append(session.committed[:idx], session.committed[idx+1:]...)

	deleted, err := s.entries.Delete(ctx, entryID)
	if err != nil || !deleted {
		// restore at the original position
		session.committed = append(session.committed[:idx], append([]models.ScheduleEntry{removed}, session.committed[idx:]...)...)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule entry")
		}
		return appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
	}

	if err := s.cache.Invalidate(ctx, TimetableCachePattern(timetableID)); err != nil {
		s.logger.Warn("failed to invalidate timetable cache", zap.String("timetable_id", timetableID), zap.Error(err))
	}
	return nil
}

// SaveAll persists every pending entry of the session. Before any write each
// pending entry must resolve to a binding; otherwise the whole batch aborts.
// Persistence then proceeds one entry at a time and per-entry failures are
// collected: failed entries stay pending with SaveError set, successful ones
// move into the committed set.
func (s *ManualScheduleService) SaveAll(ctx context.Context, timetableID string, scope models.ScheduleScope) (*dto.SaveResult, error) {
	if timetableID == "" || scope.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "timetable id and class or class band are required")
	}

	key := sessionKey{timetableID: timetableID, scope: scope}
	session, err := s.acquire(key)
	if err != nil {
		return nil, err
	}
	defer s.release(session)

	if len(session.pending) == 0 {
		return &dto.SaveResult{Success: true}, nil
	}

	bindings, err := s.bindings.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bindings")
	}
	byID := make(map[string]models.Binding, len(bindings))
	for _, binding := range bindings {
		byID[binding.ID] = binding
	}
	for _, pending := range session.pending {
		if _, ok := byID[pending.BindingID]; !ok {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("pending entry %s references unknown binding %s", pending.ID, pending.BindingID))
		}
	}

	var memberClasses []models.Class
	if scope.Kind == models.ScopeClassBand {
		band, err := s.bands.FindByID(ctx, scope.ID)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("class band %s not found", scope.ID))
		}
		memberClasses = band.ParticipatingClasses
		if len(memberClasses) == 0 {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("class band %s has no participating classes", scope.ID))
		}
	}

	result := &dto.SaveResult{}
	var stillPending []models.ScheduleEntry

	for _, pending := range session.pending {
		rows := expandEntry(pending, scope, memberClasses)
		result.Total += len(rows)

		failed := false
		var lastErr error
		for _, row := range rows {
			persisted := row
			if err := s.entries.Create(ctx, &persisted); err != nil {
				failed = true
				lastErr = err
				result.FailureCount++
				s.logger.Error("failed to persist schedule entry",
					zap.String("timetable_id", timetableID),
					zap.String("entry_id", row.ID),
					zap.Error(err))
				continue
			}
			result.SuccessCount++
			session.committed = append(session.committed, persisted)
		}

		if failed {
			pending.SaveError = lastErr.Error()
			stillPending = append(stillPending, pending)
			result.Failed = append(result.Failed, pending)
		}
	}

	session.pending = stillPending
	result.Success = result.FailureCount == 0
	s.metrics.RecordSaveOutcome(result.SuccessCount, result.FailureCount)

	if err := s.cache.Invalidate(ctx, TimetableCachePattern(timetableID)); err != nil {
		s.logger.Warn("failed to invalidate timetable cache", zap.String("timetable_id", timetableID), zap.Error(err))
	}

	s.logger.Info("save batch finished",
		zap.String("timetable_id", timetableID),
		zap.Int("succeeded", result.SuccessCount),
		zap.Int("failed", result.FailureCount))
	return result, nil
}

// DiscardPending drops a session's staged entries, e.g. when the user leaves
// the scope without saving.
func (s *ManualScheduleService) DiscardPending(timetableID string, scope models.ScheduleScope) {
	s.mu.Lock()
	delete(s.sessions, sessionKey{timetableID: timetableID, scope: scope})
	s.mu.Unlock()
	s.publishPendingGauge()
}

// expandEntry turns one pending entry into the rows to persist. Class scope
// maps 1:1; class-band scope yields one row per participating class with a
// derived id so siblings stay traceable to their origin. Expanded rows keep
// the band id alongside the concrete class id so band-scoped loads and
// conflict checks still see them.
func expandEntry(pending models.ScheduleEntry, scope models.ScheduleScope, memberClasses []models.Class) []models.ScheduleEntry {
	if scope.Kind != models.ScopeClassBand {
		return []models.ScheduleEntry{pending}
	}
	rows := make([]models.ScheduleEntry, 0, len(memberClasses))
	for _, class := range memberClasses {
		row := pending
		row.ID = fmt.Sprintf("%s-%s", pending.ID, class.ID)
		row.ClassName = class.Name
		classID := class.ID
		row.ClassID = &classID
		rows = append(rows, row)
	}
	return rows
}

func indexByID(entries []models.ScheduleEntry, id string) int {
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}
