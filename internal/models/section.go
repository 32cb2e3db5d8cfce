package models

import "time"

// SectionOffering is one subject taught by one professor in one term, with a
// fixed seat capacity. current_seats is only ever changed together with
// enrollment detail rows, inside one transaction, and can never exceed
// max_seats.
type SectionOffering struct {
	ID           string    `db:"id" json:"id"`
	SubjectID    string    `db:"subject_id" json:"subject_id"`
	TermID       string    `db:"term_id" json:"term_id"`
	ProfessorID  string    `db:"professor_id" json:"professor_id"`
	Room         string    `db:"room" json:"room"`
	Schedule     string    `db:"schedule" json:"schedule"`
	MaxSeats     int       `db:"max_seats" json:"max_seats"`
	CurrentSeats int       `db:"current_seats" json:"current_seats"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// AvailableSeats returns the remaining capacity.
func (s SectionOffering) AvailableSeats() int {
	remaining := s.MaxSeats - s.CurrentSeats
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SectionDetail enriches SectionOffering with catalog context for listings.
type SectionDetail struct {
	SectionOffering
	SubjectName    string `db:"subject_name" json:"subject_name"`
	SubjectCode    string `db:"subject_code" json:"subject_code"`
	TermName       string `db:"term_name" json:"term_name"`
	ProfessorName  string `db:"professor_name" json:"professor_name"`
	AvailableSeats int    `db:"available_seats" json:"available_seats"`
}

// SectionFilter captures supported filters for listing sections.
type SectionFilter struct {
	SubjectID   string
	TermID      string
	ProfessorID string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
