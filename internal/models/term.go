package models

import "time"

// TermStatus models the lifecycle of an academic term. At most one term is
// ACTIVE at any time; activation closes the previously active term.
type TermStatus string

const (
	TermStatusActive TermStatus = "ACTIVE"
	TermStatusClosed TermStatus = "CLOSED"
)

// Term models an academic period (e.g. a semester) in the institution calendar.
type Term struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	StartDate time.Time  `db:"start_date" json:"start_date"`
	EndDate   time.Time  `db:"end_date" json:"end_date"`
	Status    TermStatus `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// TermFilter defines filters supported by list endpoints.
type TermFilter struct {
	Status    TermStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
