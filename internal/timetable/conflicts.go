package timetable

import (
	"fmt"

	"github.com/ishimweeli/timetable-api/internal/models"
)

// MaxDailyTeacherLoad is the default number of periods a teacher may already
// hold on one day before a further placement is flagged as excessive.
const MaxDailyTeacherLoad = 5

// DetectConflicts evaluates a candidate placement against the current entry
// snapshot and returns every violated rule. Rules are checked independently
// and never short-circuited; the result is empty iff no rule fired.
//
// A candidate whose binding cannot be resolved is not evaluable and yields no
// conflicts. The function has no side effects.
func DetectConflicts(existing []models.ScheduleEntry, candidate models.ScheduleEntry, bindings []models.Binding, checkGlobalTeacher bool) []models.EntryConflict {
	return DetectConflictsWithLimit(existing, candidate, bindings, checkGlobalTeacher, MaxDailyTeacherLoad)
}

// DetectConflictsWithLimit is DetectConflicts with a configurable daily load
// boundary. The excessive-load rule fires when the teacher already holds
// maxDailyLoad or more entries on the candidate's day, candidate excluded.
func DetectConflictsWithLimit(existing []models.ScheduleEntry, candidate models.ScheduleEntry, bindings []models.Binding, checkGlobalTeacher bool, maxDailyLoad int) []models.EntryConflict {
	binding, ok := resolveBinding(bindings, candidate.BindingID)
	if !ok {
		return nil
	}
	if maxDailyLoad <= 0 {
		maxDailyLoad = MaxDailyTeacherLoad
	}

	teacherID := binding.TeacherID
	roomID := binding.RoomID
	scope := candidate.Scope()

	var conflicts []models.EntryConflict
	daySlots := make(map[int]struct{})

	for _, entry := range existing {
		if entry.ID == candidate.ID && entry.ID != "" {
			continue
		}
		if entry.TeacherID == teacherID && entry.DayOfWeek == candidate.DayOfWeek {
			daySlots[entry.PeriodID] = struct{}{}
		}
		if !entry.SameSlot(candidate) {
			continue
		}

		sameScope := entry.Scope().Equal(scope)

		if sameScope {
			conflicts = append(conflicts, models.EntryConflict{
				Type:         models.ConflictSlotOccupied,
				ResourceID:   scope.ID,
				ResourceName: entry.ClassName,
				DayOfWeek:    candidate.DayOfWeek,
				PeriodID:     candidate.PeriodID,
				BindingID:    candidate.BindingID,
				Description:  fmt.Sprintf("slot day %d period %d is already occupied by %s", candidate.DayOfWeek, candidate.PeriodID, entry.SubjectName),
			})
			if entry.TeacherID == teacherID {
				conflicts = append(conflicts, models.EntryConflict{
					Type:         models.ConflictTeacherDoubleBooking,
					ResourceID:   teacherID,
					ResourceName: entry.TeacherName,
					DayOfWeek:    candidate.DayOfWeek,
					PeriodID:     candidate.PeriodID,
					BindingID:    candidate.BindingID,
					Description:  fmt.Sprintf("teacher %s is already booked in this class at day %d period %d", entry.TeacherName, candidate.DayOfWeek, candidate.PeriodID),
				})
			}
			continue
		}

		if checkGlobalTeacher && entry.TeacherID == teacherID {
			conflicts = append(conflicts, models.EntryConflict{
				Type:         models.ConflictTeacherOverlap,
				ResourceID:   teacherID,
				ResourceName: entry.TeacherName,
				DayOfWeek:    candidate.DayOfWeek,
				PeriodID:     candidate.PeriodID,
				BindingID:    candidate.BindingID,
				Description:  fmt.Sprintf("teacher %s already teaches %s at day %d period %d", entry.TeacherName, entry.ClassName, candidate.DayOfWeek, candidate.PeriodID),
			})
		}
		if roomID != "" && entry.RoomID == roomID {
			conflicts = append(conflicts, models.EntryConflict{
				Type:         models.ConflictRoomOverlap,
				ResourceID:   roomID,
				ResourceName: entry.RoomName,
				DayOfWeek:    candidate.DayOfWeek,
				PeriodID:     candidate.PeriodID,
				BindingID:    candidate.BindingID,
				Description:  fmt.Sprintf("room %s is already booked by %s at day %d period %d", entry.RoomName, entry.ClassName, candidate.DayOfWeek, candidate.PeriodID),
			})
		}
	}

	if len(daySlots) >= maxDailyLoad {
		conflicts = append(conflicts, models.EntryConflict{
			Type:        models.ConflictTeacherExcessiveLoad,
			ResourceID:  teacherID,
			DayOfWeek:   candidate.DayOfWeek,
			PeriodID:    candidate.PeriodID,
			BindingID:   candidate.BindingID,
			Description: fmt.Sprintf("teacher already holds %d periods on day %d", len(daySlots), candidate.DayOfWeek),
		})
	}

	return conflicts
}

// CollectConflicts recomputes the conflict set for a whole entry snapshot by
// evaluating each entry against the rest. Symmetric violations are reported
// once, keyed by rule, resource and slot; excessive load is keyed per teacher
// and day since the rule is period-independent. Persisted rows fanned out
// from one class-band placement count as a single logical entry and are not
// compared against each other.
func CollectConflicts(entries []models.ScheduleEntry, bindings []models.Binding, checkGlobalTeacher bool, maxDailyLoad int) []models.EntryConflict {
	seen := make(map[string]struct{})
	var all []models.EntryConflict

	rest := make([]models.ScheduleEntry, 0, len(entries))
	for i := range entries {
		rest = rest[:0]
		for j := range entries {
			if j == i || isExpansionSibling(entries[i], entries[j]) {
				continue
			}
			rest = append(rest, entries[j])
		}

		for _, conflict := range DetectConflictsWithLimit(rest, entries[i], bindings, checkGlobalTeacher, maxDailyLoad) {
			key := fmt.Sprintf("%s|%s|%d|%d", conflict.Type, conflict.ResourceID, conflict.DayOfWeek, conflict.PeriodID)
			if conflict.Type == models.ConflictTeacherExcessiveLoad {
				key = fmt.Sprintf("%s|%s|%d", conflict.Type, conflict.ResourceID, conflict.DayOfWeek)
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			all = append(all, conflict)
		}
	}
	return all
}

// isExpansionSibling reports whether two committed rows stem from the same
// class-band placement: same binding, same slot, same band. Saving a band
// entry persists one such row per participating class.
func isExpansionSibling(a, b models.ScheduleEntry) bool {
	if a.BindingID == "" || a.BindingID != b.BindingID || !a.SameSlot(b) {
		return false
	}
	return a.ClassBandID != nil && b.ClassBandID != nil &&
		*a.ClassBandID != "" && *a.ClassBandID == *b.ClassBandID
}

func resolveBinding(bindings []models.Binding, id string) (models.Binding, bool) {
	if id == "" {
		return models.Binding{}, false
	}
	for _, binding := range bindings {
		if binding.ID == id {
			return binding, true
		}
	}
	return models.Binding{}, false
}
