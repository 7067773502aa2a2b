package models

import "time"

// Binding assigns a teacher, subject and room to a class or class band with a
// target weekly period count. Bindings are reference data for the scheduler and
// are never mutated by it.
type Binding struct {
	ID             string    `db:"id" json:"id"`
	TeacherID      string    `db:"teacher_id" json:"teacher_id"`
	SubjectID      string    `db:"subject_id" json:"subject_id"`
	RoomID         string    `db:"room_id" json:"room_id"`
	ClassID        *string   `db:"class_id" json:"class_id,omitempty"`
	ClassBandID    *string   `db:"class_band_id" json:"class_band_id,omitempty"`
	PeriodsPerWeek int       `db:"periods_per_week" json:"periods_per_week"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Scope returns the class-or-band scope the binding is attached to.
func (b Binding) Scope() ScheduleScope {
	if b.ClassBandID != nil && *b.ClassBandID != "" {
		return ClassBandScope(*b.ClassBandID)
	}
	if b.ClassID != nil && *b.ClassID != "" {
		return ClassScope(*b.ClassID)
	}
	return ScheduleScope{}
}

// BindingDetail is the joined view including display names for the UI.
type BindingDetail struct {
	Binding
	TeacherName string  `db:"teacher_name" json:"teacher_name"`
	SubjectName string  `db:"subject_name" json:"subject_name"`
	RoomName    string  `db:"room_name" json:"room_name"`
	ClassName   *string `db:"class_name" json:"class_name,omitempty"`
}

// BindingFilter defines filter criteria for listing bindings.
type BindingFilter struct {
	TeacherID   string
	SubjectID   string
	ClassID     string
	ClassBandID string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
