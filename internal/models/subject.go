package models

import "time"

// Subject represents an academic subject, independent of any term.
type Subject struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Area        string    `db:"area" json:"area"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	Area      string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
