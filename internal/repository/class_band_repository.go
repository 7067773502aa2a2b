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

// ClassBandRepository manages persistence for class bands and their members.
type ClassBandRepository struct {
	db *sqlx.DB
}

// NewClassBandRepository constructs a ClassBandRepository.
func NewClassBandRepository(db *sqlx.DB) *ClassBandRepository {
	return &ClassBandRepository{db: db}
}

// List returns class bands matching the filter along with a total count.
func (r *ClassBandRepository) List(ctx context.Context, filter models.ClassBandFilter) ([]models.ClassBand, int, error) {
	base := "FROM class_bands WHERE 1=1"
	var args []interface{}

	if filter.Search != "" {
		base += fmt.Sprintf(" AND LOWER(name) LIKE $%d", len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
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

	query := fmt.Sprintf("SELECT id, name, description, created_at, updated_at %s ORDER BY name ASC LIMIT %d OFFSET %d", base, size, offset)
	var bands []models.ClassBand
	if err := r.db.SelectContext(ctx, &bands, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list class bands: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count class bands: %w", err)
	}

	return bands, total, nil
}

// FindByID fetches a class band together with its participating classes.
func (r *ClassBandRepository) FindByID(ctx context.Context, id string) (*models.ClassBandDetail, error) {
	const query = `SELECT id, name, description, created_at, updated_at FROM class_bands WHERE id = $1`
	var band models.ClassBandDetail
	if err := r.db.GetContext(ctx, &band.ClassBand, query, id); err != nil {
		return nil, err
	}

	classes, err := r.ListClasses(ctx, id)
	if err != nil {
		return nil, err
	}
	band.ParticipatingClasses = classes
	return &band, nil
}

// ListClasses returns the member classes of a band in join order.
func (r *ClassBandRepository) ListClasses(ctx context.Context, bandID string) ([]models.Class, error) {
	const query = `SELECT c.id, c.name, c.section, c.grade, c.created_at, c.updated_at
		FROM classes c
		JOIN class_band_classes m ON m.class_id = c.id
		WHERE m.class_band_id = $1
		ORDER BY m.position ASC`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, bandID); err != nil {
		return nil, fmt.Errorf("list class band members: %w", err)
	}
	return classes, nil
}

// Create inserts a band and its membership rows in one transaction.
func (r *ClassBandRepository) Create(ctx context.Context, band *models.ClassBand, classIDs []string) error {
	if band.ID == "" {
		band.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if band.CreatedAt.IsZero() {
		band.CreatedAt = now
	}
	band.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create class band: %w", err)
	}
	defer tx.Rollback()

	const insertBand = `INSERT INTO class_bands (id, name, description, created_at, updated_at)
		VALUES (:id, :name, :description, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertBand, band); err != nil {
		return fmt.Errorf("create class band: %w", err)
	}

	const insertMember = `INSERT INTO class_band_classes (class_band_id, class_id, position) VALUES ($1, $2, $3)`
	for i, classID := range classIDs {
		if _, err := tx.ExecContext(ctx, insertMember, band.ID, classID, i); err != nil {
			return fmt.Errorf("attach class %s to band: %w", classID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create class band: %w", err)
	}
	return nil
}

// Update rewrites a band's fields and replaces its membership.
func (r *ClassBandRepository) Update(ctx context.Context, band *models.ClassBand, classIDs []string) error {
	band.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update class band: %w", err)
	}
	defer tx.Rollback()

	const updateBand = `UPDATE class_bands SET name = :name, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, updateBand, band); err != nil {
		return fmt.Errorf("update class band: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM class_band_classes WHERE class_band_id = $1`, band.ID); err != nil {
		return fmt.Errorf("clear class band members: %w", err)
	}

	const insertMember = `INSERT INTO class_band_classes (class_band_id, class_id, position) VALUES ($1, $2, $3)`
	for i, classID := range classIDs {
		if _, err := tx.ExecContext(ctx, insertMember, band.ID, classID, i); err != nil {
			return fmt.Errorf("attach class %s to band: %w", classID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update class band: %w", err)
	}
	return nil
}

// Delete removes a band; membership rows cascade at the database level.
func (r *ClassBandRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM class_bands WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete class band: %w", err)
	}
	return nil
}
