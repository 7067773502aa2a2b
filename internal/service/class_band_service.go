package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ishimweeli/timetable-api/internal/models"
	appErrors "github.com/ishimweeli/timetable-api/pkg/errors"
)

type classBandRepository interface {
	List(ctx context.Context, filter models.ClassBandFilter) ([]models.ClassBand, int, error)
	FindByID(ctx context.Context, id string) (*models.ClassBandDetail, error)
	Create(ctx context.Context, band *models.ClassBand, classIDs []string) error
	Update(ctx context.Context, band *models.ClassBand, classIDs []string) error
	Delete(ctx context.Context, id string) error
}

// ClassBandRequest represents payload for creating and updating class bands.
type ClassBandRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description *string  `json:"description" validate:"omitempty,max=500"`
	ClassIDs    []string `json:"class_ids" validate:"required,min=2,dive,required"`
}

// ClassBandMembershipRequest replaces a band's participating classes.
type ClassBandMembershipRequest struct {
	ClassIDs []string `json:"class_ids" validate:"required,min=2,dive,required"`
}

// ClassBandService orchestrates class band operations.
type ClassBandService struct {
	repo      classBandRepository
	classes   studentClassResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassBandService constructs a ClassBandService.
func NewClassBandService(repo classBandRepository, classes studentClassResolver, validate *validator.Validate, logger *zap.Logger) *ClassBandService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassBandService{repo: repo, classes: classes, validator: validate, logger: logger}
}

// List returns class bands plus pagination data.
func (s *ClassBandService) List(ctx context.Context, filter models.ClassBandFilter) ([]models.ClassBand, *models.Pagination, error) {
	bands, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class bands")
	}
	return bands, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a class band with its participating classes.
func (s *ClassBandService) Get(ctx context.Context, id string) (*models.ClassBandDetail, error) {
	band, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class band not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class band")
	}
	return band, nil
}

// Create registers a new class band with its member classes.
func (s *ClassBandService) Create(ctx context.Context, req ClassBandRequest) (*models.ClassBandDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class band payload")
	}
	if err := s.ensureClassesExist(ctx, req.ClassIDs); err != nil {
		return nil, err
	}

	band := &models.ClassBand{
		Name:        strings.TrimSpace(req.Name),
		Description: normalizeOptional(req.Description),
	}
	if err := s.repo.Create(ctx, band, req.ClassIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class band")
	}
	return s.Get(ctx, band.ID)
}

// Update modifies a class band and replaces its membership.
func (s *ClassBandService) Update(ctx context.Context, id string, req ClassBandRequest) (*models.ClassBandDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class band payload")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class band not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class band")
	}

	if err := s.ensureClassesExist(ctx, req.ClassIDs); err != nil {
		return nil, err
	}

	band := existing.ClassBand
	band.Name = strings.TrimSpace(req.Name)
	band.Description = normalizeOptional(req.Description)

	if err := s.repo.Update(ctx, &band, req.ClassIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class band")
	}
	return s.Get(ctx, id)
}

// ReplaceClasses swaps the band membership without touching the band itself.
func (s *ClassBandService) ReplaceClasses(ctx context.Context, id string, req ClassBandMembershipRequest) (*models.ClassBandDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid membership payload")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class band not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class band")
	}

	if err := s.ensureClassesExist(ctx, req.ClassIDs); err != nil {
		return nil, err
	}

	band := existing.ClassBand
	if err := s.repo.Update(ctx, &band, req.ClassIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class band membership")
	}
	return s.Get(ctx, id)
}

// Delete removes a class band.
func (s *ClassBandService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "class band not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class band")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class band")
	}
	return nil
}

func (s *ClassBandService) ensureClassesExist(ctx context.Context, classIDs []string) error {
	if s.classes == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(classIDs))
	for _, classID := range classIDs {
		if _, dup := seen[classID]; dup {
			return appErrors.Clone(appErrors.ErrValidation, "duplicate class in band membership")
		}
		seen[classID] = struct{}{}
		if _, err := s.classes.FindByID(ctx, classID); err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrPreconditionFailed, "class "+classID+" not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class")
		}
	}
	return nil
}
