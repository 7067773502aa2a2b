package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ishimweeli/timetable-api/internal/models"
)

const entryColumns = "id, timetable_id, binding_id, day_of_week, period_id, class_id, class_band_id, subject_id, subject_name, teacher_id, teacher_name, class_name, room_id, room_name, status, created_at, updated_at"

// ScheduleEntryRepository manages persistence for committed schedule entries.
type ScheduleEntryRepository struct {
	db *sqlx.DB
}

// NewScheduleEntryRepository constructs a ScheduleEntryRepository.
func NewScheduleEntryRepository(db *sqlx.DB) *ScheduleEntryRepository {
	return &ScheduleEntryRepository{db: db}
}

// ListByTimetable returns every committed entry of a timetable.
func (r *ScheduleEntryRepository) ListByTimetable(ctx context.Context, timetableID string) ([]models.ScheduleEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_entries WHERE timetable_id = $1 ORDER BY day_of_week, period_id", entryColumns)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, timetableID); err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	return entries, nil
}

// ListByScope returns a timetable's committed entries for one class or band.
func (r *ScheduleEntryRepository) ListByScope(ctx context.Context, timetableID string, scope models.ScheduleScope) ([]models.ScheduleEntry, error) {
	column := "class_id"
	if scope.Kind == models.ScopeClassBand {
		column = "class_band_id"
	}
	query := fmt.Sprintf("SELECT %s FROM schedule_entries WHERE timetable_id = $1 AND %s = $2 ORDER BY day_of_week, period_id", entryColumns, column)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, timetableID, scope.ID); err != nil {
		return nil, fmt.Errorf("list schedule entries by scope: %w", err)
	}
	return entries, nil
}

// Create persists one entry. The caller's synthetic id is replaced with a
// durable one before insert.
func (r *ScheduleEntryRepository) Create(ctx context.Context, entry *models.ScheduleEntry) error {
	if entry.ID == "" || entry.IsPending() {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	entry.Status = models.EntryStatusCommitted

	const query = `INSERT INTO schedule_entries (id, timetable_id, binding_id, day_of_week, period_id, class_id, class_band_id, subject_id, subject_name, teacher_id, teacher_name, class_name, room_id, room_name, status, created_at, updated_at)
		VALUES (:id, :timetable_id, :binding_id, :day_of_week, :period_id, :class_id, :class_band_id, :subject_id, :subject_name, :teacher_id, :teacher_name, :class_name, :room_id, :room_name, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create schedule entry: %w", err)
	}
	return nil
}

// Delete removes a committed entry and reports whether a row was removed.
func (r *ScheduleEntryRepository) Delete(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM schedule_entries WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete schedule entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete schedule entry result: %w", err)
	}
	return affected > 0, nil
}
