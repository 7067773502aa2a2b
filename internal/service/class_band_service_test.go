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

type classBandRepoStub struct {
	bands      map[string]*models.ClassBandDetail
	created    []*models.ClassBand
	createdIDs [][]string
	updated    []*models.ClassBand
	deletedIDs []string
	createErr  error
}

func (s *classBandRepoStub) List(ctx context.Context, filter models.ClassBandFilter) ([]models.ClassBand, int, error) {
	out := make([]models.ClassBand, 0, len(s.bands))
	for _, band := range s.bands {
		out = append(out, band.ClassBand)
	}
	return out, len(out), nil
}

func (s *classBandRepoStub) FindByID(ctx context.Context, id string) (*models.ClassBandDetail, error) {
	band, ok := s.bands[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return band, nil
}

func (s *classBandRepoStub) Create(ctx context.Context, band *models.ClassBand, classIDs []string) error {
	if s.createErr != nil {
		return s.createErr
	}
	band.ID = "band-new"
	s.created = append(s.created, band)
	s.createdIDs = append(s.createdIDs, classIDs)
	if s.bands == nil {
		s.bands = make(map[string]*models.ClassBandDetail)
	}
	s.bands[band.ID] = &models.ClassBandDetail{ClassBand: *band}
	return nil
}

func (s *classBandRepoStub) Update(ctx context.Context, band *models.ClassBand, classIDs []string) error {
	s.updated = append(s.updated, band)
	s.bands[band.ID] = &models.ClassBandDetail{ClassBand: *band}
	return nil
}

func (s *classBandRepoStub) Delete(ctx context.Context, id string) error {
	s.deletedIDs = append(s.deletedIDs, id)
	delete(s.bands, id)
	return nil
}

type classResolverStub struct {
	classes map[string]*models.Class
}

func (s *classResolverStub) FindByID(ctx context.Context, id string) (*models.Class, error) {
	class, ok := s.classes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return class, nil
}

func knownClasses(ids ...string) *classResolverStub {
	classes := make(map[string]*models.Class, len(ids))
	for _, id := range ids {
		classes[id] = &models.Class{ID: id, Name: "Class " + id}
	}
	return &classResolverStub{classes: classes}
}

func TestClassBandCreateRejectsSingleClass(t *testing.T) {
	svc := NewClassBandService(&classBandRepoStub{}, knownClasses("c1"), nil, nil)

	_, err := svc.Create(context.Background(), ClassBandRequest{Name: "Grade 10", ClassIDs: []string{"c1"}})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestClassBandCreateRejectsDuplicateClasses(t *testing.T) {
	svc := NewClassBandService(&classBandRepoStub{}, knownClasses("c1", "c2"), nil, nil)

	_, err := svc.Create(context.Background(), ClassBandRequest{Name: "Grade 10", ClassIDs: []string{"c1", "c1"}})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestClassBandCreateRejectsUnknownClass(t *testing.T) {
	repo := &classBandRepoStub{}
	svc := NewClassBandService(repo, knownClasses("c1"), nil, nil)

	_, err := svc.Create(context.Background(), ClassBandRequest{Name: "Grade 10", ClassIDs: []string{"c1", "missing"}})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
	assert.Empty(t, repo.created)
}

func TestClassBandCreatePersistsMembership(t *testing.T) {
	repo := &classBandRepoStub{}
	svc := NewClassBandService(repo, knownClasses("c1", "c2", "c3"), nil, nil)

	band, err := svc.Create(context.Background(), ClassBandRequest{Name: "  Grade 10  ", ClassIDs: []string{"c1", "c2", "c3"}})
	require.NoError(t, err)

	assert.Equal(t, "Grade 10", band.Name)
	require.Len(t, repo.createdIDs, 1)
	assert.Equal(t, []string{"c1", "c2", "c3"}, repo.createdIDs[0])
}

func TestClassBandReplaceClasses(t *testing.T) {
	repo := &classBandRepoStub{bands: map[string]*models.ClassBandDetail{
		"band1": {ClassBand: models.ClassBand{ID: "band1", Name: "Grade 10"}},
	}}
	svc := NewClassBandService(repo, knownClasses("c1", "c2", "c3"), nil, nil)

	band, err := svc.ReplaceClasses(context.Background(), "band1", ClassBandMembershipRequest{ClassIDs: []string{"c2", "c3"}})
	require.NoError(t, err)

	assert.Equal(t, "Grade 10", band.Name)
	require.Len(t, repo.updated, 1)
}

func TestClassBandReplaceClassesUnknownBand(t *testing.T) {
	svc := NewClassBandService(&classBandRepoStub{}, knownClasses("c1", "c2"), nil, nil)

	_, err := svc.ReplaceClasses(context.Background(), "missing", ClassBandMembershipRequest{ClassIDs: []string{"c1", "c2"}})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestClassBandDeleteUnknownReturnsNotFound(t *testing.T) {
	svc := NewClassBandService(&classBandRepoStub{}, knownClasses(), nil, nil)

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
