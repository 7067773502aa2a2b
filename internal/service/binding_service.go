package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ishimweeli/timetable-api/internal/models"
	appErrors "github.com/ishimweeli/timetable-api/pkg/errors"
)

type bindingRepository interface {
	List(ctx context.Context, filter models.BindingFilter) ([]models.BindingDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.BindingDetail, error)
	Create(ctx context.Context, binding *models.Binding) error
	Update(ctx context.Context, binding *models.Binding) error
	Delete(ctx context.Context, id string) error
}

type bindingTeacherResolver interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type bindingSubjectResolver interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type bindingRoomResolver interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

type bindingBandResolver interface {
	FindByID(ctx context.Context, id string) (*models.ClassBandDetail, error)
}

// BindingRequest represents payload for creating and updating bindings.
// Exactly one of ClassID / ClassBandID attaches the binding to a scope.
type BindingRequest struct {
	TeacherID      string  `json:"teacher_id" validate:"required"`
	SubjectID      string  `json:"subject_id" validate:"required"`
	RoomID         string  `json:"room_id" validate:"required"`
	ClassID        *string `json:"class_id"`
	ClassBandID    *string `json:"class_band_id"`
	PeriodsPerWeek int     `json:"periods_per_week" validate:"required,min=1,max=40"`
}

// BindingService orchestrates binding operations.
type BindingService struct {
	repo      bindingRepository
	teachers  bindingTeacherResolver
	subjects  bindingSubjectResolver
	rooms     bindingRoomResolver
	classes   studentClassResolver
	bands     bindingBandResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBindingService constructs a BindingService.
func NewBindingService(repo bindingRepository, teachers bindingTeacherResolver, subjects bindingSubjectResolver, rooms bindingRoomResolver, classes studentClassResolver, bands bindingBandResolver, validate *validator.Validate, logger *zap.Logger) *BindingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BindingService{
		repo:      repo,
		teachers:  teachers,
		subjects:  subjects,
		rooms:     rooms,
		classes:   classes,
		bands:     bands,
		validator: validate,
		logger:    logger,
	}
}

// List returns binding details plus pagination data.
func (s *BindingService) List(ctx context.Context, filter models.BindingFilter) ([]models.BindingDetail, *models.Pagination, error) {
	bindings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bindings")
	}
	return bindings, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a binding by id.
func (s *BindingService) Get(ctx context.Context, id string) (*models.BindingDetail, error) {
	binding, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "binding not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load binding")
	}
	return binding, nil
}

// Create registers a new binding after checking every referenced resource.
func (s *BindingService) Create(ctx context.Context, req BindingRequest) (*models.BindingDetail, error) {
	if err := s.validateRequest(ctx, req); err != nil {
		return nil, err
	}

	binding := &models.Binding{
		TeacherID:      req.TeacherID,
		SubjectID:      req.SubjectID,
		RoomID:         req.RoomID,
		ClassID:        normalizeOptional(req.ClassID),
		ClassBandID:    normalizeOptional(req.ClassBandID),
		PeriodsPerWeek: req.PeriodsPerWeek,
	}
	if err := s.repo.Create(ctx, binding); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create binding")
	}
	return s.Get(ctx, binding.ID)
}

// Update modifies an existing binding.
func (s *BindingService) Update(ctx context.Context, id string, req BindingRequest) (*models.BindingDetail, error) {
	if err := s.validateRequest(ctx, req); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "binding not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load binding")
	}

	binding := existing.Binding
	binding.TeacherID = req.TeacherID
	binding.SubjectID = req.SubjectID
	binding.RoomID = req.RoomID
	binding.ClassID = normalizeOptional(req.ClassID)
	binding.ClassBandID = normalizeOptional(req.ClassBandID)
	binding.PeriodsPerWeek = req.PeriodsPerWeek

	if err := s.repo.Update(ctx, &binding); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update binding")
	}
	return s.Get(ctx, id)
}

// Delete removes a binding.
func (s *BindingService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "binding not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load binding")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete binding")
	}
	return nil
}

func (s *BindingService) validateRequest(ctx context.Context, req BindingRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid binding payload")
	}

	classID := normalizeOptional(req.ClassID)
	bandID := normalizeOptional(req.ClassBandID)
	if (classID == nil) == (bandID == nil) {
		return appErrors.Clone(appErrors.ErrValidation, "exactly one of class_id or class_band_id is required")
	}

	if s.teachers != nil {
		if _, err := s.teachers.FindByID(ctx, req.TeacherID); err != nil {
			return resolveErr(err, "teacher not found")
		}
	}
	if s.subjects != nil {
		if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
			return resolveErr(err, "subject not found")
		}
	}
	if s.rooms != nil {
		if _, err := s.rooms.FindByID(ctx, req.RoomID); err != nil {
			return resolveErr(err, "room not found")
		}
	}
	if classID != nil && s.classes != nil {
		if _, err := s.classes.FindByID(ctx, *classID); err != nil {
			return resolveErr(err, "class not found")
		}
	}
	if bandID != nil && s.bands != nil {
		if _, err := s.bands.FindByID(ctx, *bandID); err != nil {
			return resolveErr(err, "class band not found")
		}
	}
	return nil
}

func resolveErr(err error, message string) error {
	if err == sql.ErrNoRows {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, message)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check referenced resource")
}
