package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishimweeli/timetable-api/internal/dto"
	"github.com/ishimweeli/timetable-api/internal/models"
)

type manualScheduleServiceMock struct {
	state      *dto.ManualScheduleState
	loadErr    error
	addResult  *dto.AddPendingResult
	addErr     error
	removeErr  error
	saveResult *dto.SaveResult
	saveErr    error

	discarded []models.ScheduleScope
}

func (m *manualScheduleServiceMock) LoadEntries(ctx context.Context, timetableID string, scope models.ScheduleScope) (*dto.ManualScheduleState, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.state, nil
}

func (m *manualScheduleServiceMock) AddPending(ctx context.Context, timetableID string, req dto.AddPendingRequest) (*dto.AddPendingResult, error) {
	if m.addErr != nil {
		return nil, m.addErr
	}
	return m.addResult, nil
}

func (m *manualScheduleServiceMock) RemoveEntry(ctx context.Context, timetableID string, scope models.ScheduleScope, entryID string) error {
	return m.removeErr
}

func (m *manualScheduleServiceMock) SaveAll(ctx context.Context, timetableID string, scope models.ScheduleScope) (*dto.SaveResult, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	return m.saveResult, nil
}

func (m *manualScheduleServiceMock) DiscardPending(timetableID string, scope models.ScheduleScope) {
	m.discarded = append(m.discarded, scope)
}

func TestManualScheduleHandlerGetEntriesRequiresScope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewManualScheduleHandler(&manualScheduleServiceMock{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/manual-scheduling/entries/tt-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "timetableId", Value: "tt-1"}}

	handler.GetEntries(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestManualScheduleHandlerGetEntriesRejectsAmbiguousScope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewManualScheduleHandler(&manualScheduleServiceMock{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/manual-scheduling/entries/tt-1?classId=c1&classBandId=b1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "timetableId", Value: "tt-1"}}

	handler.GetEntries(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestManualScheduleHandlerGetEntriesOK(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &manualScheduleServiceMock{state: &dto.ManualScheduleState{
		Entries:    []models.ScheduleEntry{},
		DataSource: dto.DataSourceDatabase,
	}}
	handler := NewManualScheduleHandler(mock)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/manual-scheduling/entries/tt-1?classId=c1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "timetableId", Value: "tt-1"}}

	handler.GetEntries(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), dto.DataSourceDatabase)
}

func TestManualScheduleHandlerAddPendingConflictIsOK(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &manualScheduleServiceMock{addResult: &dto.AddPendingResult{
		Success: false,
		Conflicts: []models.EntryConflict{
			{Type: models.ConflictSlotOccupied, Description: "slot already occupied"},
		},
	}}
	handler := NewManualScheduleHandler(mock)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.AddPendingRequest{
		ScopeQuery: dto.ScopeQuery{ClassID: "c1"},
		BindingID:  "b1",
		DayOfWeek:  2,
		PeriodID:   3,
	})
	req, _ := http.NewRequest(http.MethodPost, "/manual-scheduling/entries/tt-1/pending", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "timetableId", Value: "tt-1"}}

	handler.AddPending(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(models.ConflictSlotOccupied))
}

func TestManualScheduleHandlerAddPendingCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &manualScheduleServiceMock{addResult: &dto.AddPendingResult{
		Success: true,
		Entry:   &models.ScheduleEntry{ID: "pending-1"},
	}}
	handler := NewManualScheduleHandler(mock)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.AddPendingRequest{
		ScopeQuery: dto.ScopeQuery{ClassID: "c1"},
		BindingID:  "b1",
		DayOfWeek:  2,
		PeriodID:   3,
	})
	req, _ := http.NewRequest(http.MethodPost, "/manual-scheduling/entries/tt-1/pending", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "timetableId", Value: "tt-1"}}

	handler.AddPending(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestManualScheduleHandlerAddPendingInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewManualScheduleHandler(&manualScheduleServiceMock{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/manual-scheduling/entries/tt-1/pending", bytes.NewReader([]byte(`invalid`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "timetableId", Value: "tt-1"}}

	handler.AddPending(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestManualScheduleHandlerSaveAll(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &manualScheduleServiceMock{saveResult: &dto.SaveResult{
		Success:      true,
		SuccessCount: 2,
		Total:        2,
	}}
	handler := NewManualScheduleHandler(mock)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/manual-scheduling/entries/tt-1/save?classBandId=band1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "timetableId", Value: "tt-1"}}

	handler.SaveAll(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data dto.SaveResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 2, envelope.Data.SuccessCount)
	assert.True(t, envelope.Data.Success)
}

func TestManualScheduleHandlerRemoveEntry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewManualScheduleHandler(&manualScheduleServiceMock{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/manual-scheduling/entry/e1?timetableId=tt-1&classId=c1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "e1"}}

	handler.RemoveEntry(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestManualScheduleHandlerDiscardPending(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &manualScheduleServiceMock{}
	handler := NewManualScheduleHandler(mock)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/manual-scheduling/entries/tt-1/pending?classId=c1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "timetableId", Value: "tt-1"}}

	handler.DiscardPending(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, mock.discarded, 1)
	assert.Equal(t, models.ClassScope("c1"), mock.discarded[0])
}
