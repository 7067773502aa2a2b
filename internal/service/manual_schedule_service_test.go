package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishimweeli/timetable-api/internal/dto"
	"github.com/ishimweeli/timetable-api/internal/models"
	appErrors "github.com/ishimweeli/timetable-api/pkg/errors"
)

type entryRepoStub struct {
	entries     []models.ScheduleEntry
	listErr     error
	createErr   error
	created     []models.ScheduleEntry
	deleteCalls []string
	deleteErr   error
}

func (s *entryRepoStub) ListByTimetable(ctx context.Context, timetableID string) ([]models.ScheduleEntry, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.entries, nil
}

func (s *entryRepoStub) ListByScope(ctx context.Context, timetableID string, scope models.ScheduleScope) ([]models.ScheduleEntry, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.ScheduleEntry
	for _, entry := range s.entries {
		if entry.Scope().Equal(scope) {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *entryRepoStub) Create(ctx context.Context, entry *models.ScheduleEntry) error {
	if s.createErr != nil {
		return s.createErr
	}
	entry.Status = models.EntryStatusCommitted
	s.created = append(s.created, *entry)
	return nil
}

func (s *entryRepoStub) Delete(ctx context.Context, id string) (bool, error) {
	s.deleteCalls = append(s.deleteCalls, id)
	if s.deleteErr != nil {
		return false, s.deleteErr
	}
	return true, nil
}

type bindingRepoStub struct {
	bindings []models.BindingDetail
	listErr  error
}

func (s *bindingRepoStub) FindByID(ctx context.Context, id string) (*models.BindingDetail, error) {
	for i := range s.bindings {
		if s.bindings[i].ID == id {
			return &s.bindings[i], nil
		}
	}
	return nil, errors.New("binding not found")
}

func (s *bindingRepoStub) ListAll(ctx context.Context) ([]models.Binding, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.Binding, 0, len(s.bindings))
	for _, detail := range s.bindings {
		out = append(out, detail.Binding)
	}
	return out, nil
}

type bandRepoStub struct {
	bands map[string]models.ClassBandDetail
}

func (s *bandRepoStub) FindByID(ctx context.Context, id string) (*models.ClassBandDetail, error) {
	band, ok := s.bands[id]
	if !ok {
		return nil, errors.New("class band not found")
	}
	return &band, nil
}

func classPtr(id string) *string { return &id }

func schedulingBinding(id, teacherID, roomID, classID string) models.BindingDetail {
	detail := models.BindingDetail{
		Binding: models.Binding{
			ID:             id,
			TeacherID:      teacherID,
			SubjectID:      "subj-" + id,
			RoomID:         roomID,
			PeriodsPerWeek: 4,
		},
		TeacherName: "Teacher " + teacherID,
		SubjectName: "Subject " + id,
		RoomName:    "Room " + roomID,
	}
	if classID != "" {
		detail.ClassID = classPtr(classID)
		detail.ClassName = classPtr("Class " + classID)
	}
	return detail
}

func committedEntry(id, bindingID, teacherID, roomID, classID string, day, period int) models.ScheduleEntry {
	e := models.ScheduleEntry{
		ID:          id,
		TimetableID: "tt1",
		BindingID:   bindingID,
		DayOfWeek:   day,
		PeriodID:    period,
		TeacherID:   teacherID,
		RoomID:      roomID,
		Status:      models.EntryStatusCommitted,
	}
	e.SetScope(models.ClassScope(classID))
	return e
}

func newScheduleService(entries *entryRepoStub, bindings *bindingRepoStub, bands *bandRepoStub) *ManualScheduleService {
	if bands == nil {
		bands = &bandRepoStub{}
	}
	return NewManualScheduleService(entries, bindings, bands, nil, nil, nil, nil, ManualScheduleOptions{
		SessionTTL:         time.Minute,
		CheckGlobalTeacher: true,
	})
}

func TestLoadEntriesDegradesOnRepositoryError(t *testing.T) {
	entries := &entryRepoStub{listErr: errors.New("db down")}
	bindings := &bindingRepoStub{}
	svc := newScheduleService(entries, bindings, nil)

	state, err := svc.LoadEntries(context.Background(), "tt1", models.ClassScope("c1"))
	require.NoError(t, err)
	assert.Empty(t, state.Entries)
	assert.Equal(t, dto.DataSourceError, state.DataSource)
}

func TestAddPendingConflictDoesNotMutate(t *testing.T) {
	bindings := &bindingRepoStub{bindings: []models.BindingDetail{
		schedulingBinding("b1", "t1", "r1", "c1"),
		schedulingBinding("b2", "t2", "r2", "c1"),
	}}
	entries := &entryRepoStub{entries: []models.ScheduleEntry{
		committedEntry("e1", "b2", "t2", "r2", "c1", 2, 3),
	}}
	svc := newScheduleService(entries, bindings, nil)

	req := dto.AddPendingRequest{BindingID: "b1", DayOfWeek: 2, PeriodID: 3}
	req.ClassID = "c1"

	result, err := svc.AddPending(context.Background(), "tt1", req)
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.NotEmpty(t, result.Conflicts)
	assert.Equal(t, models.ConflictSlotOccupied, result.Conflicts[0].Type)

	state, err := svc.LoadEntries(context.Background(), "tt1", models.ClassScope("c1"))
	require.NoError(t, err)
	assert.Empty(t, state.PendingEntries)
}

func TestAddPendingForceAddsExactlyOne(t *testing.T) {
	bindings := &bindingRepoStub{bindings: []models.BindingDetail{
		schedulingBinding("b1", "t1", "r1", "c1"),
		schedulingBinding("b2", "t2", "r2", "c1"),
	}}
	entries := &entryRepoStub{entries: []models.ScheduleEntry{
		committedEntry("e1", "b2", "t2", "r2", "c1", 2, 3),
	}}
	svc := newScheduleService(entries, bindings, nil)

	req := dto.AddPendingRequest{BindingID: "b1", DayOfWeek: 2, PeriodID: 3, ForceAdd: true}
	req.ClassID = "c1"

	result, err := svc.AddPending(context.Background(), "tt1", req)
	require.NoError(t, err)
	assert.True(t, result.Success)
	require.NotNil(t, result.Entry)
	assert.True(t, result.Entry.IsPending())
	assert.NotEmpty(t, result.Conflicts)

	state, err := svc.LoadEntries(context.Background(), "tt1", models.ClassScope("c1"))
	require.NoError(t, err)
	assert.Len(t, state.PendingEntries, 1)
}

func TestAddPendingCleanSlot(t *testing.T) {
	bindings := &bindingRepoStub{bindings: []models.BindingDetail{
		schedulingBinding("b1", "t1", "r1", "c1"),
	}}
	entries := &entryRepoStub{}
	svc := newScheduleService(entries, bindings, nil)

	req := dto.AddPendingRequest{BindingID: "b1", DayOfWeek: 1, PeriodID: 1}
	req.ClassID = "c1"

	result, err := svc.AddPending(context.Background(), "tt1", req)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.Conflicts)
	assert.Equal(t, "Subject b1", result.Entry.SubjectName)
	assert.Equal(t, "Teacher t1", result.Entry.TeacherName)
}

func TestRemoveEntryPendingIsLocalOnly(t *testing.T) {
	bindings := &bindingRepoStub{bindings: []models.BindingDetail{
		schedulingBinding("b1", "t1", "r1", "c1"),
	}}
	entries := &entryRepoStub{}
	svc := newScheduleService(entries, bindings, nil)

	req := dto.AddPendingRequest{BindingID: "b1", DayOfWeek: 1, PeriodID: 1}
	req.ClassID = "c1"
	result, err := svc.AddPending(context.Background(), "tt1", req)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveEntry(context.Background(), "tt1", models.ClassScope("c1"), result.Entry.ID))
	assert.Empty(t, entries.deleteCalls)

	state, err := svc.LoadEntries(context.Background(), "tt1", models.ClassScope("c1"))
	require.NoError(t, err)
	assert.Empty(t, state.PendingEntries)
}

func TestRemoveEntryCommittedDeletesOnce(t *testing.T) {
	bindings := &bindingRepoStub{bindings: []models.BindingDetail{
		schedulingBinding("b1", "t1", "r1", "c1"),
	}}
	entries := &entryRepoStub{entries: []models.ScheduleEntry{
		committedEntry("e1", "b1", "t1", "r1", "c1", 1, 1),
	}}
	svc := newScheduleService(entries, bindings, nil)

	require.NoError(t, svc.RemoveEntry(context.Background(), "tt1", models.ClassScope("c1"), "e1"))
	assert.Equal(t, []string{"e1"}, entries.deleteCalls)
}

func TestRemoveEntryCommittedRollsBackOnFailure(t *testing.T) {
	bindings := &bindingRepoStub{bindings: []models.BindingDetail{
		schedulingBinding("b1", "t1", "r1", "c1"),
	}}
	entries := &entryRepoStub{
		entries:   []models.ScheduleEntry{committedEntry("e1", "b1", "t1", "r1", "c1", 1, 1)},
		deleteErr: errors.New("db down"),
	}
	svc := newScheduleService(entries, bindings, nil)

	scope := models.ClassScope("c1")
	state, err := svc.LoadEntries(context.Background(), "tt1", scope)
	require.NoError(t, err)
	require.Len(t, state.Entries, 1)

	err = svc.RemoveEntry(context.Background(), "tt1", scope, "e1")
	require.Error(t, err)

	state, err = svc.LoadEntries(context.Background(), "tt1", scope)
	require.NoError(t, err)
	assert.Len(t, state.Entries, 1)
}

func TestSaveAllAbortsOnUnknownBinding(t *testing.T) {
	bindings := &bindingRepoStub{bindings: []models.BindingDetail{
		schedulingBinding("b1", "t1", "r1", "c1"),
	}}
	entries := &entryRepoStub{}
	svc := newScheduleService(entries, bindings, nil)

	req := dto.AddPendingRequest{BindingID: "b1", DayOfWeek: 1, PeriodID: 1}
	req.ClassID = "c1"
	_, err := svc.AddPending(context.Background(), "tt1", req)
	require.NoError(t, err)

	// the binding disappears between staging and saving
	bindings.bindings = nil

	_, err = svc.SaveAll(context.Background(), "tt1", models.ClassScope("c1"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
	assert.Empty(t, entries.created)
}

func TestSaveAllPersistsAndClearsPending(t *testing.T) {
	bindings := &bindingRepoStub{bindings: []models.BindingDetail{
		schedulingBinding("b1", "t1", "r1", "c1"),
	}}
	entries := &entryRepoStub{}
	svc := newScheduleService(entries, bindings, nil)

	req := dto.AddPendingRequest{BindingID: "b1", DayOfWeek: 1, PeriodID: 1}
	req.ClassID = "c1"
	_, err := svc.AddPending(context.Background(), "tt1", req)
	require.NoError(t, err)

	result, err := svc.SaveAll(context.Background(), "tt1", models.ClassScope("c1"))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 0, result.FailureCount)
	assert.Equal(t, 1, result.Total)
	require.Len(t, entries.created, 1)
	assert.False(t, entries.created[0].IsPending())

	state, err := svc.LoadEntries(context.Background(), "tt1", models.ClassScope("c1"))
	require.NoError(t, err)
	assert.Empty(t, state.PendingEntries)
}

func TestSaveAllFailedEntriesStayPending(t *testing.T) {
	bindings := &bindingRepoStub{bindings: []models.BindingDetail{
		schedulingBinding("b1", "t1", "r1", "c1"),
	}}
	entries := &entryRepoStub{}
	svc := newScheduleService(entries, bindings, nil)

	req := dto.AddPendingRequest{BindingID: "b1", DayOfWeek: 1, PeriodID: 1}
	req.ClassID = "c1"
	_, err := svc.AddPending(context.Background(), "tt1", req)
	require.NoError(t, err)

	entries.createErr = errors.New("insert failed")

	result, err := svc.SaveAll(context.Background(), "tt1", models.ClassScope("c1"))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.FailureCount)
	require.Len(t, result.Failed, 1)
	assert.Contains(t, result.Failed[0].SaveError, "insert failed")

	state, err := svc.LoadEntries(context.Background(), "tt1", models.ClassScope("c1"))
	require.NoError(t, err)
	require.Len(t, state.PendingEntries, 1)
	assert.Contains(t, state.PendingEntries[0].SaveError, "insert failed")
}

func TestSaveAllExpandsClassBand(t *testing.T) {
	bandBinding := models.BindingDetail{
		Binding: models.Binding{
			ID:             "b9",
			TeacherID:      "t1",
			SubjectID:      "subj-b9",
			RoomID:         "r1",
			PeriodsPerWeek: 2,
		},
		TeacherName: "Teacher t1",
		SubjectName: "Subject b9",
		RoomName:    "Room r1",
	}
	bandID := "band1"
	bandBinding.ClassBandID = &bandID

	bindings := &bindingRepoStub{bindings: []models.BindingDetail{bandBinding}}
	entries := &entryRepoStub{}
	bands := &bandRepoStub{bands: map[string]models.ClassBandDetail{
		"band1": {
			ClassBand: models.ClassBand{ID: "band1", Name: "Band 1"},
			ParticipatingClasses: []models.Class{
				{ID: "cA", Name: "Class A"},
				{ID: "cB", Name: "Class B"},
				{ID: "cC", Name: "Class C"},
			},
		},
	}}
	svc := newScheduleService(entries, bindings, bands)

	req := dto.AddPendingRequest{BindingID: "b9", DayOfWeek: 1, PeriodID: 1}
	req.ClassBandID = "band1"
	_, err := svc.AddPending(context.Background(), "tt1", req)
	require.NoError(t, err)

	result, err := svc.SaveAll(context.Background(), "tt1", models.ClassBandScope("band1"))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Total)
	require.Len(t, entries.created, 3)

	classes := make(map[string]string)
	for _, created := range entries.created {
		require.NotNil(t, created.ClassID)
		classes[*created.ClassID] = created.ClassName
		require.NotNil(t, created.ClassBandID)
		assert.Equal(t, "band1", *created.ClassBandID)
		assert.Equal(t, "t1", created.TeacherID)
		assert.Equal(t, "r1", created.RoomID)
	}
	assert.Equal(t, map[string]string{"cA": "Class A", "cB": "Class B", "cC": "Class C"}, classes)
}

func TestBusySessionRejectsConcurrentOperation(t *testing.T) {
	bindings := &bindingRepoStub{bindings: []models.BindingDetail{
		schedulingBinding("b1", "t1", "r1", "c1"),
	}}
	svc := newScheduleService(&entryRepoStub{}, bindings, nil)

	scope := models.ClassScope("c1")
	key := sessionKey{timetableID: "tt1", scope: scope}
	session, err := svc.acquire(key)
	require.NoError(t, err)

	_, err = svc.SaveAll(context.Background(), "tt1", scope)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOperationInProgress.Code, appErrors.FromError(err).Code)

	svc.release(session)
	_, err = svc.SaveAll(context.Background(), "tt1", scope)
	require.NoError(t, err)
}

func TestSessionExpiryDiscardsPending(t *testing.T) {
	bindings := &bindingRepoStub{bindings: []models.BindingDetail{
		schedulingBinding("b1", "t1", "r1", "c1"),
	}}
	svc := newScheduleService(&entryRepoStub{}, bindings, nil)

	current := time.Now()
	svc.now = func() time.Time { return current }

	req := dto.AddPendingRequest{BindingID: "b1", DayOfWeek: 1, PeriodID: 1}
	req.ClassID = "c1"
	_, err := svc.AddPending(context.Background(), "tt1", req)
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)

	state, err := svc.LoadEntries(context.Background(), "tt1", models.ClassScope("c1"))
	require.NoError(t, err)
	assert.Empty(t, state.PendingEntries)
}

func TestSavedClassBandRowsStayVisibleInBandScope(t *testing.T) {
	bandBinding := models.BindingDetail{
		Binding: models.Binding{
			ID:             "b9",
			TeacherID:      "t1",
			SubjectID:      "subj-b9",
			RoomID:         "r1",
			PeriodsPerWeek: 2,
		},
		TeacherName: "Teacher t1",
		SubjectName: "Subject b9",
		RoomName:    "Room r1",
	}
	bandID := "band1"
	bandBinding.ClassBandID = &bandID

	bindings := &bindingRepoStub{bindings: []models.BindingDetail{bandBinding}}
	entries := &entryRepoStub{}
	bands := &bandRepoStub{bands: map[string]models.ClassBandDetail{
		"band1": {
			ClassBand: models.ClassBand{ID: "band1", Name: "Band 1"},
			ParticipatingClasses: []models.Class{
				{ID: "cA", Name: "Class A"},
				{ID: "cB", Name: "Class B"},
			},
		},
	}}
	svc := newScheduleService(entries, bindings, bands)
	scope := models.ClassBandScope("band1")

	req := dto.AddPendingRequest{BindingID: "b9", DayOfWeek: 1, PeriodID: 1}
	req.ClassBandID = "band1"
	_, err := svc.AddPending(context.Background(), "tt1", req)
	require.NoError(t, err)

	_, err = svc.SaveAll(context.Background(), "tt1", scope)
	require.NoError(t, err)
	require.Len(t, entries.created, 2)

	// Fresh session over the rows the save produced, as after a page reload.
	svc.DiscardPending("tt1", scope)
	entries.entries = entries.created

	state, err := svc.LoadEntries(context.Background(), "tt1", scope)
	require.NoError(t, err)
	assert.Len(t, state.Entries, 2)
	assert.Empty(t, state.Conflicts)

	// Re-placing the slot the band already holds must be rejected.
	result, err := svc.AddPending(context.Background(), "tt1", req)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, conflictTypeSet(result.Conflicts), models.ConflictSlotOccupied)

	state, err = svc.LoadEntries(context.Background(), "tt1", scope)
	require.NoError(t, err)
	assert.Empty(t, state.PendingEntries)
}

func conflictTypeSet(conflicts []models.EntryConflict) map[models.ConflictType]struct{} {
	set := make(map[models.ConflictType]struct{}, len(conflicts))
	for _, conflict := range conflicts {
		set[conflict.Type] = struct{}{}
	}
	return set
}
