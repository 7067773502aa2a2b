package timetable

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishimweeli/timetable-api/internal/models"
)

func strPtr(s string) *string { return &s }

func testBindings() []models.Binding {
	return []models.Binding{
		{ID: "b1", TeacherID: "t1", SubjectID: "subj1", RoomID: "r1", ClassID: strPtr("c10"), PeriodsPerWeek: 4},
		{ID: "b2", TeacherID: "t2", SubjectID: "subj2", RoomID: "r2", ClassID: strPtr("c20"), PeriodsPerWeek: 3},
		{ID: "b3", TeacherID: "t1", SubjectID: "subj3", RoomID: "r3", ClassID: strPtr("c20"), PeriodsPerWeek: 2},
	}
}

func classEntry(id, bindingID, teacherID, roomID, classID string, day, period int) models.ScheduleEntry {
	e := models.ScheduleEntry{
		ID:          id,
		TimetableID: "tt1",
		BindingID:   bindingID,
		DayOfWeek:   day,
		PeriodID:    period,
		TeacherID:   teacherID,
		TeacherName: "Teacher " + teacherID,
		RoomID:      roomID,
		RoomName:    "Room " + roomID,
		ClassName:   "Class " + classID,
		Status:      models.EntryStatusCommitted,
	}
	e.SetScope(models.ClassScope(classID))
	return e
}

func conflictTypes(conflicts []models.EntryConflict) []models.ConflictType {
	types := make([]models.ConflictType, 0, len(conflicts))
	for _, c := range conflicts {
		types = append(types, c.Type)
	}
	return types
}

func TestDetectConflictsSlotOccupied(t *testing.T) {
	existing := []models.ScheduleEntry{
		classEntry("e1", "b2", "t2", "r2", "c10", 2, 3),
	}
	candidate := classEntry("", "b1", "", "", "c10", 2, 3)

	conflicts := DetectConflicts(existing, candidate, testBindings(), true)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictSlotOccupied, conflicts[0].Type)
	assert.Equal(t, 2, conflicts[0].DayOfWeek)
	assert.Equal(t, 3, conflicts[0].PeriodID)
}

func TestDetectConflictsTeacherDoubleBookingSameClass(t *testing.T) {
	// b3 shares teacher t1 with b1 inside a single class.
	existing := []models.ScheduleEntry{
		classEntry("e1", "b3", "t1", "r3", "c20", 1, 1),
	}
	candidate := classEntry("", "b3", "", "", "c20", 1, 1)

	conflicts := DetectConflicts(existing, candidate, testBindings(), false)
	assert.Contains(t, conflictTypes(conflicts), models.ConflictSlotOccupied)
	assert.Contains(t, conflictTypes(conflicts), models.ConflictTeacherDoubleBooking)
}

func TestDetectConflictsGlobalTeacherFlag(t *testing.T) {
	// Same teacher t1, same slot, different class.
	existing := []models.ScheduleEntry{
		classEntry("e1", "b1", "t1", "r1", "c10", 2, 3),
	}
	candidate := classEntry("", "b3", "", "", "c20", 2, 3)

	withFlag := DetectConflicts(existing, candidate, testBindings(), true)
	assert.Contains(t, conflictTypes(withFlag), models.ConflictTeacherOverlap)
	assert.NotContains(t, conflictTypes(withFlag), models.ConflictSlotOccupied)

	withoutFlag := DetectConflicts(existing, candidate, testBindings(), false)
	assert.NotContains(t, conflictTypes(withoutFlag), models.ConflictTeacherOverlap)
}

func TestDetectConflictsRoomOverlap(t *testing.T) {
	// b1 uses room r1; an entry in another class already holds r1 at the slot.
	existing := []models.ScheduleEntry{
		classEntry("e1", "b2", "t2", "r1", "c20", 4, 2),
	}
	candidate := classEntry("", "b1", "", "", "c10", 4, 2)

	conflicts := DetectConflicts(existing, candidate, testBindings(), false)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictRoomOverlap, conflicts[0].Type)
	assert.Equal(t, "r1", conflicts[0].ResourceID)
}

func TestDetectConflictsUnknownBinding(t *testing.T) {
	existing := []models.ScheduleEntry{
		classEntry("e1", "b1", "t1", "r1", "c10", 2, 3),
	}
	candidate := classEntry("", "missing", "", "", "c10", 2, 3)

	assert.Empty(t, DetectConflicts(existing, candidate, testBindings(), true))
}

func TestDetectConflictsExcessiveLoadBoundary(t *testing.T) {
	bindings := testBindings()

	// Four committed periods for t1 on day 2: adding a fifth stays clean.
	var existing []models.ScheduleEntry
	for period := 1; period <= 4; period++ {
		existing = append(existing, classEntry("e"+string(rune('0'+period)), "b1", "t1", "r1", "c10", 2, period))
	}
	candidate := classEntry("", "b1", "", "", "c10", 2, 5)
	assert.NotContains(t, conflictTypes(DetectConflicts(existing, candidate, bindings, false)), models.ConflictTeacherExcessiveLoad)

	// A fifth committed period tips the sixth placement over the boundary.
	existing = append(existing, classEntry("e5", "b1", "t1", "r1", "c10", 2, 5))
	candidate = classEntry("", "b1", "", "", "c10", 2, 6)
	assert.Contains(t, conflictTypes(DetectConflicts(existing, candidate, bindings, false)), models.ConflictTeacherExcessiveLoad)
}

func TestDetectConflictsOrderIndependent(t *testing.T) {
	bindings := testBindings()
	existing := []models.ScheduleEntry{
		classEntry("e1", "b1", "t1", "r1", "c10", 2, 3),
		classEntry("e2", "b2", "t2", "r1", "c20", 2, 3),
		classEntry("e3", "b3", "t1", "r3", "c20", 2, 1),
		classEntry("e4", "b2", "t2", "r2", "c20", 3, 3),
	}
	candidate := classEntry("", "b1", "", "", "c10", 2, 3)

	baseline := DetectConflicts(existing, candidate, bindings, true)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := append([]models.ScheduleEntry(nil), existing...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := DetectConflicts(shuffled, candidate, bindings, true)
		assert.ElementsMatch(t, baseline, got)
	}
}

func TestDetectConflictsTeacherScenario(t *testing.T) {
	// Entries [{teacher t1, day 2, period 3, class c10}]; candidate same
	// teacher/slot in class c20 must yield exactly one teacher overlap and no
	// slot-occupied conflict.
	existing := []models.ScheduleEntry{
		classEntry("e1", "b1", "t1", "r1", "c10", 2, 3),
	}
	candidate := classEntry("", "b3", "", "", "c20", 2, 3)

	conflicts := DetectConflicts(existing, candidate, testBindings(), true)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictTeacherOverlap, conflicts[0].Type)
}

func TestCollectConflictsDeduplicates(t *testing.T) {
	bindings := testBindings()
	entries := []models.ScheduleEntry{
		classEntry("e1", "b1", "t1", "r1", "c10", 2, 3),
		classEntry("e2", "b3", "t1", "r3", "c20", 2, 3),
	}

	conflicts := CollectConflicts(entries, bindings, true, MaxDailyTeacherLoad)
	types := conflictTypes(conflicts)
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	assert.Equal(t, []models.ConflictType{models.ConflictTeacherOverlap}, types)
}

func bandExpansionEntry(id, bindingID, teacherID, roomID, bandID, classID string, day, period int) models.ScheduleEntry {
	e := classEntry(id, bindingID, teacherID, roomID, classID, day, period)
	e.ClassBandID = strPtr(bandID)
	return e
}

func TestDetectConflictsDailyLoadCountsDistinctPeriods(t *testing.T) {
	bindings := testBindings()

	// Five rows but only four distinct periods: two are fan-out rows of one
	// band placement sharing period 1.
	existing := []models.ScheduleEntry{
		classEntry("e1", "b1", "t1", "r1", "c10", 2, 1),
		classEntry("e2", "b1", "t1", "r1", "c11", 2, 1),
		classEntry("e3", "b1", "t1", "r1", "c10", 2, 2),
		classEntry("e4", "b1", "t1", "r1", "c10", 2, 3),
		classEntry("e5", "b1", "t1", "r1", "c10", 2, 4),
	}
	candidate := classEntry("", "b1", "", "", "c10", 2, 9)

	assert.NotContains(t, conflictTypes(DetectConflicts(existing, candidate, bindings, false)), models.ConflictTeacherExcessiveLoad)
}

func TestCollectConflictsExcessiveLoadReportedOncePerDay(t *testing.T) {
	bindings := testBindings()

	var entries []models.ScheduleEntry
	for period := 1; period <= 6; period++ {
		entries = append(entries, classEntry(fmt.Sprintf("e%d", period), "b1", "t1", "r1", "c10", 2, period))
	}

	conflicts := CollectConflicts(entries, bindings, false, MaxDailyTeacherLoad)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictTeacherExcessiveLoad, conflicts[0].Type)
	assert.Equal(t, "t1", conflicts[0].ResourceID)
	assert.Equal(t, 2, conflicts[0].DayOfWeek)
}

func TestCollectConflictsSkipsBandExpansionRows(t *testing.T) {
	bandBindings := []models.Binding{
		{ID: "b9", TeacherID: "t1", SubjectID: "subj9", RoomID: "r1", ClassBandID: strPtr("band1"), PeriodsPerWeek: 2},
		{ID: "b8", TeacherID: "t2", SubjectID: "subj8", RoomID: "r2", ClassBandID: strPtr("band1"), PeriodsPerWeek: 2},
	}

	// Fan-out rows of one saved band placement never conflict with each other.
	entries := []models.ScheduleEntry{
		bandExpansionEntry("e1", "b9", "t1", "r1", "band1", "cA", 2, 3),
		bandExpansionEntry("e2", "b9", "t1", "r1", "band1", "cB", 2, 3),
	}
	assert.Empty(t, CollectConflicts(entries, bandBindings, true, MaxDailyTeacherLoad))

	// A second occupant of the same band slot through another binding is
	// still flagged.
	entries = append(entries, bandExpansionEntry("e3", "b8", "t2", "r2", "band1", "cA", 2, 3))
	types := conflictTypes(CollectConflicts(entries, bandBindings, true, MaxDailyTeacherLoad))
	assert.Equal(t, []models.ConflictType{models.ConflictSlotOccupied}, types)
}
