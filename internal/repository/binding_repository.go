package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ishimweeli/timetable-api/internal/models"
)

const bindingDetailSelect = `SELECT b.id, b.teacher_id, b.subject_id, b.room_id, b.class_id, b.class_band_id, b.periods_per_week, b.created_at, b.updated_at,
	t.full_name AS teacher_name, s.name AS subject_name, r.name AS room_name, c.name AS class_name`

const bindingDetailFrom = ` FROM bindings b
	JOIN teachers t ON t.id = b.teacher_id
	JOIN subjects s ON s.id = b.subject_id
	JOIN rooms r ON r.id = b.room_id
	LEFT JOIN classes c ON c.id = b.class_id`

// BindingRepository manages persistence for teacher/subject/room bindings.
type BindingRepository struct {
	db *sqlx.DB
}

// NewBindingRepository constructs a BindingRepository.
func NewBindingRepository(db *sqlx.DB) *BindingRepository {
	return &BindingRepository{db: db}
}

// List returns binding details matching the filter along with a total count.
func (r *BindingRepository) List(ctx context.Context, filter models.BindingFilter) ([]models.BindingDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("b.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("b.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("b.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.ClassBandID != "" {
		conditions = append(conditions, fmt.Sprintf("b.class_band_id = $%d", len(args)+1))
		args = append(args, filter.ClassBandID)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("%s%s%s ORDER BY b.created_at DESC LIMIT %d OFFSET %d", bindingDetailSelect, bindingDetailFrom, where, size, offset)
	var bindings []models.BindingDetail
	if err := r.db.SelectContext(ctx, &bindings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list bindings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*)%s%s", bindingDetailFrom, where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count bindings: %w", err)
	}

	return bindings, total, nil
}

// FindByID fetches the joined binding detail by ID.
func (r *BindingRepository) FindByID(ctx context.Context, id string) (*models.BindingDetail, error) {
	query := bindingDetailSelect + bindingDetailFrom + " WHERE b.id = $1"
	var binding models.BindingDetail
	if err := r.db.GetContext(ctx, &binding, query, id); err != nil {
		return nil, err
	}
	return &binding, nil
}

// ListForScheduling returns the raw bindings relevant to one scheduling scope:
// those attached to the class or band itself plus, for a band, each member
// class. The result feeds conflict detection.
func (r *BindingRepository) ListForScheduling(ctx context.Context, scope models.ScheduleScope) ([]models.Binding, error) {
	const columns = "id, teacher_id, subject_id, room_id, class_id, class_band_id, periods_per_week, created_at, updated_at"
	var query string
	switch scope.Kind {
	case models.ScopeClassBand:
		query = fmt.Sprintf(`SELECT %s FROM bindings WHERE class_band_id = $1
			UNION
			SELECT %s FROM bindings WHERE class_id IN (SELECT class_id FROM class_band_classes WHERE class_band_id = $1)`, columns, columns)
	default:
		query = fmt.Sprintf("SELECT %s FROM bindings WHERE class_id = $1", columns)
	}
	var bindings []models.Binding
	if err := r.db.SelectContext(ctx, &bindings, query, scope.ID); err != nil {
		return nil, fmt.Errorf("list bindings for scheduling: %w", err)
	}
	return bindings, nil
}

// ListAll returns every binding. Used when conflict detection spans scopes.
func (r *BindingRepository) ListAll(ctx context.Context) ([]models.Binding, error) {
	const query = `SELECT id, teacher_id, subject_id, room_id, class_id, class_band_id, periods_per_week, created_at, updated_at FROM bindings`
	var bindings []models.Binding
	if err := r.db.SelectContext(ctx, &bindings, query); err != nil {
		return nil, fmt.Errorf("list all bindings: %w", err)
	}
	return bindings, nil
}

// Create inserts a new binding record.
func (r *BindingRepository) Create(ctx context.Context, binding *models.Binding) error {
	if binding.ID == "" {
		binding.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if binding.CreatedAt.IsZero() {
		binding.CreatedAt = now
	}
	binding.UpdatedAt = now

	const query = `INSERT INTO bindings (id, teacher_id, subject_id, room_id, class_id, class_band_id, periods_per_week, created_at, updated_at)
		VALUES (:id, :teacher_id, :subject_id, :room_id, :class_id, :class_band_id, :periods_per_week, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, binding); err != nil {
		return fmt.Errorf("create binding: %w", err)
	}
	return nil
}

// Update modifies an existing binding record.
func (r *BindingRepository) Update(ctx context.Context, binding *models.Binding) error {
	binding.UpdatedAt = time.Now().UTC()
	const query = `UPDATE bindings SET teacher_id = :teacher_id, subject_id = :subject_id, room_id = :room_id, class_id = :class_id, class_band_id = :class_band_id, periods_per_week = :periods_per_week, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, binding); err != nil {
		return fmt.Errorf("update binding: %w", err)
	}
	return nil
}

// Delete removes a binding record.
func (r *BindingRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM bindings WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete binding: %w", err)
	}
	return nil
}
