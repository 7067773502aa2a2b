package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishimweeli/timetable-api/internal/dto"
	"github.com/ishimweeli/timetable-api/internal/models"
	appErrors "github.com/ishimweeli/timetable-api/pkg/errors"
)

type cacheRepoStub struct {
	values   map[string][]byte
	ttls     map[string]time.Duration
	patterns []string
	getErr   error
	setErr   error
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{values: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (s *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	if s.getErr != nil {
		return s.getErr
	}
	raw, ok := s.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.values[key] = raw
	s.ttls[key] = ttl
	return nil
}

func (s *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

func TestCacheServiceMissThenHit(t *testing.T) {
	repo := newCacheRepoStub()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	key := EntriesCacheKey("tt1", models.ClassScope("c1"))

	var got []models.ScheduleEntry
	hit, err := cache.Get(context.Background(), key, &got)
	require.NoError(t, err)
	assert.False(t, hit)

	stored := []models.ScheduleEntry{{ID: "e1", TimetableID: "tt1", BindingID: "b1"}}
	require.NoError(t, cache.Set(context.Background(), key, stored, 0))
	assert.Equal(t, time.Minute, repo.ttls[key])

	hit, err = cache.Get(context.Background(), key, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	require.Len(t, got, 1)
	assert.Equal(t, "e1", got[0].ID)
}

func TestCacheServiceDisabledSkipsRepository(t *testing.T) {
	repo := newCacheRepoStub()
	repo.getErr = errors.New("must not be called")
	repo.setErr = errors.New("must not be called")
	cache := NewCacheService(repo, nil, time.Minute, nil, false)

	var got []models.ScheduleEntry
	hit, err := cache.Get(context.Background(), "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(context.Background(), "k", got, 0))
	require.NoError(t, cache.Invalidate(context.Background(), "timetable:tt1:*"))
	assert.Empty(t, repo.patterns)
	assert.False(t, cache.Enabled())
}

func TestCacheServiceGetPropagatesRepositoryError(t *testing.T) {
	repo := newCacheRepoStub()
	repo.getErr = errors.New("redis gone")
	cache := NewCacheService(repo, nil, time.Minute, nil, true)

	var got []models.ScheduleEntry
	hit, err := cache.Get(context.Background(), "k", &got)
	require.Error(t, err)
	assert.False(t, hit)
}

func TestSaveAllInvalidatesTimetableCache(t *testing.T) {
	repo := newCacheRepoStub()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	bindings := &bindingRepoStub{bindings: []models.BindingDetail{
		schedulingBinding("b1", "t1", "r1", "c1"),
	}}
	entries := &entryRepoStub{}
	svc := NewManualScheduleService(entries, bindings, &bandRepoStub{}, cache, nil, nil, nil, ManualScheduleOptions{
		SessionTTL:         time.Minute,
		CheckGlobalTeacher: true,
	})

	req := dto.AddPendingRequest{BindingID: "b1", DayOfWeek: 1, PeriodID: 1}
	req.ClassID = "c1"
	_, err := svc.AddPending(context.Background(), "tt1", req)
	require.NoError(t, err)

	result, err := svc.SaveAll(context.Background(), "tt1", models.ClassScope("c1"))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{TimetableCachePattern("tt1")}, repo.patterns)
}

func TestRemoveCommittedEntryInvalidatesTimetableCache(t *testing.T) {
	repo := newCacheRepoStub()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	bindings := &bindingRepoStub{bindings: []models.BindingDetail{
		schedulingBinding("b1", "t1", "r1", "c1"),
	}}
	entries := &entryRepoStub{entries: []models.ScheduleEntry{
		committedEntry("e1", "b1", "t1", "r1", "c1", 2, 3),
	}}
	svc := NewManualScheduleService(entries, bindings, &bandRepoStub{}, cache, nil, nil, nil, ManualScheduleOptions{
		SessionTTL:         time.Minute,
		CheckGlobalTeacher: true,
	})

	require.NoError(t, svc.RemoveEntry(context.Background(), "tt1", models.ClassScope("c1"), "e1"))
	assert.Equal(t, []string{"timetable:tt1:*"}, repo.patterns)
	assert.Equal(t, []string{"e1"}, entries.deleteCalls)
}
