package models

import "time"

// ObservationCategory classifies a note as academic or behavioral.
type ObservationCategory string

const (
	ObservationAcademic   ObservationCategory = "ACADEMIC"
	ObservationBehavioral ObservationCategory = "BEHAVIORAL"
)

// Valid reports whether the category is a known value.
func (c ObservationCategory) Valid() bool {
	return c == ObservationAcademic || c == ObservationBehavioral
}

// ObservationStatus tracks whether a note is still open.
type ObservationStatus string

const (
	ObservationOpen   ObservationStatus = "OPEN"
	ObservationClosed ObservationStatus = "CLOSED"
)

// Observation is a free-text note a professor attaches to an enrollment
// detail.
type Observation struct {
	ID          string              `db:"id" json:"id"`
	DetailID    string              `db:"detail_id" json:"detail_id"`
	ProfessorID string              `db:"professor_id" json:"professor_id"`
	Category    ObservationCategory `db:"category" json:"category"`
	Detail      string              `db:"detail" json:"detail"`
	Status      ObservationStatus   `db:"status" json:"status"`
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `db:"updated_at" json:"updated_at"`
}

// ObservationRow joins an observation with student and professor context.
type ObservationRow struct {
	Observation
	StudentName   string `db:"student_name" json:"student_name"`
	ProfessorName string `db:"professor_name" json:"professor_name"`
	SubjectName   string `db:"subject_name" json:"subject_name"`
}

// ObservationFilter scopes observation listings.
type ObservationFilter struct {
	SectionID string
	StudentID string
	Category  ObservationCategory
	Status    ObservationStatus
}
