package models

import "time"

// MaxSubjectsPerTerm caps how many sections a student may register in per
// term. The cap is enforced inside the enrollment transaction.
const MaxSubjectsPerTerm = 5

// DetailStatus is the lifecycle of a single section registration.
type DetailStatus string

const (
	DetailStatusEnrolled DetailStatus = "ENROLLED"
	DetailStatusPassed   DetailStatus = "PASSED"
	DetailStatusFailed   DetailStatus = "FAILED"
)

// Enrollment is a student's registration record for one term. It owns its
// detail rows and carries a running count of registered subjects; the count
// always equals the number of detail rows.
type Enrollment struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	TermID       string    `db:"term_id" json:"term_id"`
	SubjectCount int       `db:"subject_count" json:"subject_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// EnrollmentDetail registers a student in one section offering. Grade,
// attendance and observation records all hang off this row.
type EnrollmentDetail struct {
	ID           string       `db:"id" json:"id"`
	EnrollmentID string       `db:"enrollment_id" json:"enrollment_id"`
	SectionID    string       `db:"section_id" json:"section_id"`
	Status       DetailStatus `db:"status" json:"status"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}

// RosterEntry is one student row of a section roster.
type RosterEntry struct {
	DetailID    string       `db:"detail_id" json:"detail_id"`
	StudentID   string       `db:"student_id" json:"student_id"`
	StudentName string       `db:"student_name" json:"student_name"`
	Email       string       `db:"email" json:"email"`
	Status      DetailStatus `db:"status" json:"status"`
}

// EnrollmentInfo summarises a student's active-term enrollment.
type EnrollmentInfo struct {
	EnrollmentID   string `json:"enrollment_id"`
	TermID         string `json:"term_id"`
	TermName       string `json:"term_name"`
	SubjectCount   int    `json:"subject_count"`
	RemainingSlots int    `json:"remaining_slots"`
}

// StudentSection is one row of a student's own schedule listing.
type StudentSection struct {
	DetailID      string       `db:"detail_id" json:"detail_id"`
	SectionID     string       `db:"section_id" json:"section_id"`
	SubjectName   string       `db:"subject_name" json:"subject_name"`
	SubjectCode   string       `db:"subject_code" json:"subject_code"`
	ProfessorName string       `db:"professor_name" json:"professor_name"`
	Room          string       `db:"room" json:"room"`
	Schedule      string       `db:"schedule" json:"schedule"`
	Status        DetailStatus `db:"status" json:"status"`
	Average       *float64     `db:"average" json:"average,omitempty"`
}
