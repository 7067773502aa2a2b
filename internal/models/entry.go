package models

import (
	"strings"
	"time"
)

// ScopeKind discriminates the two scheduling scopes.
type ScopeKind string

const (
	ScopeClass     ScopeKind = "class"
	ScopeClassBand ScopeKind = "classBand"
)

// ScheduleScope identifies the class or class band a schedule operation acts
// on. It is resolved once at the request boundary; everything downstream
// compares scopes with Equal instead of inspecting raw identifiers.
type ScheduleScope struct {
	Kind ScopeKind `json:"kind"`
	ID   string    `json:"id"`
}

// ClassScope builds a class-scoped reference.
func ClassScope(id string) ScheduleScope {
	return ScheduleScope{Kind: ScopeClass, ID: id}
}

// ClassBandScope builds a class-band-scoped reference.
func ClassBandScope(id string) ScheduleScope {
	return ScheduleScope{Kind: ScopeClassBand, ID: id}
}

// Equal reports whether two scopes reference the same class or band.
func (s ScheduleScope) Equal(o ScheduleScope) bool {
	return s.Kind == o.Kind && s.ID == o.ID
}

// IsZero reports whether the scope is unset.
func (s ScheduleScope) IsZero() bool {
	return s.ID == ""
}

// PendingIDPrefix marks client-visible ids of entries that are not yet persisted.
const PendingIDPrefix = "pending-"

// EntryStatus is the persistence lifecycle marker of an entry.
type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "PENDING"
	EntryStatusCommitted EntryStatus = "COMMITTED"
)

// ScheduleEntry is one placement of a binding at a specific day/period slot.
// Pending entries exist only in a scheduling session and carry a synthetic id;
// committed entries have a durable id assigned on persistence.
type ScheduleEntry struct {
	ID          string      `db:"id" json:"id"`
	TimetableID string      `db:"timetable_id" json:"timetable_id"`
	BindingID   string      `db:"binding_id" json:"binding_id"`
	DayOfWeek   int         `db:"day_of_week" json:"day_of_week"`
	PeriodID    int         `db:"period_id" json:"period_id"`
	ClassID     *string     `db:"class_id" json:"class_id,omitempty"`
	ClassBandID *string     `db:"class_band_id" json:"class_band_id,omitempty"`
	SubjectID   string      `db:"subject_id" json:"subject_id"`
	SubjectName string      `db:"subject_name" json:"subject_name"`
	TeacherID   string      `db:"teacher_id" json:"teacher_id"`
	TeacherName string      `db:"teacher_name" json:"teacher_name"`
	ClassName   string      `db:"class_name" json:"class_name"`
	RoomID      string      `db:"room_id" json:"room_id"`
	RoomName    string      `db:"room_name" json:"room_name"`
	Status      EntryStatus `db:"status" json:"status"`
	SaveError   string      `db:"-" json:"save_error,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// Scope derives the tagged scope from the persisted class/band columns.
func (e ScheduleEntry) Scope() ScheduleScope {
	if e.ClassBandID != nil && *e.ClassBandID != "" {
		return ClassBandScope(*e.ClassBandID)
	}
	if e.ClassID != nil && *e.ClassID != "" {
		return ClassScope(*e.ClassID)
	}
	return ScheduleScope{}
}

// SetScope stores the scope into the class/band columns, clearing the other.
func (e *ScheduleEntry) SetScope(scope ScheduleScope) {
	e.ClassID = nil
	e.ClassBandID = nil
	switch scope.Kind {
	case ScopeClass:
		id := scope.ID
		e.ClassID = &id
	case ScopeClassBand:
		id := scope.ID
		e.ClassBandID = &id
	}
}

// IsPending reports whether the entry only exists in a scheduling session.
func (e ScheduleEntry) IsPending() bool {
	return strings.HasPrefix(e.ID, PendingIDPrefix)
}

// SameSlot reports whether two entries occupy the same day/period cell.
func (e ScheduleEntry) SameSlot(o ScheduleEntry) bool {
	return e.DayOfWeek == o.DayOfWeek && e.PeriodID == o.PeriodID
}

// ConflictType classifies a detected scheduling rule violation.
type ConflictType string

const (
	ConflictSlotOccupied         ConflictType = "SLOT_OCCUPIED"
	ConflictTeacherDoubleBooking ConflictType = "TEACHER_DOUBLE_BOOKING"
	ConflictTeacherOverlap       ConflictType = "TEACHER_OVERLAP"
	ConflictRoomOverlap          ConflictType = "ROOM_OVERLAP"
	ConflictTeacherExcessiveLoad ConflictType = "TEACHER_EXCESSIVE_LOAD"
)

// EntryConflict fully describes a rule violation for direct user display.
// Conflicts are advisory; the user may force the placement and save anyway.
type EntryConflict struct {
	Type         ConflictType `json:"type"`
	ResourceID   string       `json:"resource_id"`
	ResourceName string       `json:"resource_name"`
	DayOfWeek    int          `json:"day_of_week"`
	PeriodID     int          `json:"period_id"`
	BindingID    string       `json:"binding_id"`
	Description  string       `json:"description"`
}
