package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishimweeli/timetable-api/internal/models"
	appErrors "github.com/ishimweeli/timetable-api/pkg/errors"
)

type bindingCrudRepoStub struct {
	details map[string]*models.BindingDetail
	created []*models.Binding
}

func (s *bindingCrudRepoStub) List(ctx context.Context, filter models.BindingFilter) ([]models.BindingDetail, int, error) {
	out := make([]models.BindingDetail, 0, len(s.details))
	for _, d := range s.details {
		out = append(out, *d)
	}
	return out, len(out), nil
}

func (s *bindingCrudRepoStub) FindByID(ctx context.Context, id string) (*models.BindingDetail, error) {
	detail, ok := s.details[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return detail, nil
}

func (s *bindingCrudRepoStub) Create(ctx context.Context, binding *models.Binding) error {
	binding.ID = "binding-new"
	s.created = append(s.created, binding)
	if s.details == nil {
		s.details = make(map[string]*models.BindingDetail)
	}
	s.details[binding.ID] = &models.BindingDetail{Binding: *binding}
	return nil
}

func (s *bindingCrudRepoStub) Update(ctx context.Context, binding *models.Binding) error {
	s.details[binding.ID] = &models.BindingDetail{Binding: *binding}
	return nil
}

func (s *bindingCrudRepoStub) Delete(ctx context.Context, id string) error {
	delete(s.details, id)
	return nil
}

type teacherResolverStub struct{ known map[string]bool }

func (s *teacherResolverStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if !s.known[id] {
		return nil, sql.ErrNoRows
	}
	return &models.Teacher{ID: id}, nil
}

type subjectResolverStub struct{ known map[string]bool }

func (s *subjectResolverStub) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if !s.known[id] {
		return nil, sql.ErrNoRows
	}
	return &models.Subject{ID: id}, nil
}

type roomResolverStub struct{ known map[string]bool }

func (s *roomResolverStub) FindByID(ctx context.Context, id string) (*models.Room, error) {
	if !s.known[id] {
		return nil, sql.ErrNoRows
	}
	return &models.Room{ID: id}, nil
}

type bandResolverStub struct{ known map[string]bool }

func (s *bandResolverStub) FindByID(ctx context.Context, id string) (*models.ClassBandDetail, error) {
	if !s.known[id] {
		return nil, sql.ErrNoRows
	}
	return &models.ClassBandDetail{ClassBand: models.ClassBand{ID: id}}, nil
}

func newBindingService(repo *bindingCrudRepoStub) *BindingService {
	return NewBindingService(
		repo,
		&teacherResolverStub{known: map[string]bool{"t1": true}},
		&subjectResolverStub{known: map[string]bool{"s1": true}},
		&roomResolverStub{known: map[string]bool{"r1": true}},
		knownClasses("c1"),
		&bandResolverStub{known: map[string]bool{"band1": true}},
		nil, nil,
	)
}

func validBindingRequest() BindingRequest {
	classID := "c1"
	return BindingRequest{
		TeacherID:      "t1",
		SubjectID:      "s1",
		RoomID:         "r1",
		ClassID:        &classID,
		PeriodsPerWeek: 4,
	}
}

func TestBindingCreateRequiresExactlyOneScope(t *testing.T) {
	svc := newBindingService(&bindingCrudRepoStub{})

	req := validBindingRequest()
	req.ClassID = nil
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	bandID := "band1"
	req = validBindingRequest()
	req.ClassBandID = &bandID
	_, err = svc.Create(context.Background(), req)
	require.Error(t, err)
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestBindingCreateChecksReferencedResources(t *testing.T) {
	repo := &bindingCrudRepoStub{}
	svc := newBindingService(repo)

	req := validBindingRequest()
	req.TeacherID = "ghost"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
	assert.Empty(t, repo.created)
}

func TestBindingCreateWithClassScope(t *testing.T) {
	repo := &bindingCrudRepoStub{}
	svc := newBindingService(repo)

	detail, err := svc.Create(context.Background(), validBindingRequest())
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	require.NotNil(t, detail.ClassID)
	assert.Equal(t, "c1", *detail.ClassID)
	assert.Nil(t, detail.ClassBandID)
	assert.Equal(t, 4, detail.PeriodsPerWeek)
}

func TestBindingCreateWithBandScope(t *testing.T) {
	repo := &bindingCrudRepoStub{}
	svc := newBindingService(repo)

	bandID := "band1"
	req := validBindingRequest()
	req.ClassID = nil
	req.ClassBandID = &bandID

	detail, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, detail.ClassBandID)
	assert.Equal(t, "band1", *detail.ClassBandID)
	assert.Equal(t, models.ClassBandScope("band1"), detail.Scope())
}

func TestBindingUpdateUnknownReturnsNotFound(t *testing.T) {
	svc := newBindingService(&bindingCrudRepoStub{})

	_, err := svc.Update(context.Background(), "missing", validBindingRequest())
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
