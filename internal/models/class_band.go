package models

import "time"

// ClassBand is a named group of classes scheduled together as a unit.
type ClassBand struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ClassBandDetail extends ClassBand with its member classes.
type ClassBandDetail struct {
	ClassBand
	ParticipatingClasses []Class `json:"participating_classes"`
}

// ClassBandFilter defines filter criteria for listing class bands.
type ClassBandFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
