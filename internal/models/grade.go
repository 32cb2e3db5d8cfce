package models

import "time"

// PassingAverageDefault is the pass/fail threshold applied when no override
// is configured.
const PassingAverageDefault = 7.0

// GradeRecord holds the six category scores for one enrollment detail. The
// average column is denormalised: it is recomputed and persisted on every
// write and must always equal the mean of the six stored categories.
type GradeRecord struct {
	ID            string    `db:"id" json:"id"`
	DetailID      string    `db:"detail_id" json:"detail_id"`
	Tasks         float64   `db:"tasks" json:"tasks"`
	Classwork     float64   `db:"classwork" json:"classwork"`
	Project       float64   `db:"project" json:"project"`
	Participation float64   `db:"participation" json:"participation"`
	Quizzes       float64   `db:"quizzes" json:"quizzes"`
	Exams         float64   `db:"exams" json:"exams"`
	Average       float64   `db:"average" json:"average"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ComputeAverage returns the mean of the six stored categories.
func (g GradeRecord) ComputeAverage() float64 {
	return (g.Tasks + g.Classwork + g.Project + g.Participation + g.Quizzes + g.Exams) / 6
}

// GradeUpdate carries a partial score update. Nil fields preserve the stored
// value.
type GradeUpdate struct {
	Tasks         *float64 `json:"tasks" validate:"omitempty,gte=0,lte=10"`
	Classwork     *float64 `json:"classwork" validate:"omitempty,gte=0,lte=10"`
	Project       *float64 `json:"project" validate:"omitempty,gte=0,lte=10"`
	Participation *float64 `json:"participation" validate:"omitempty,gte=0,lte=10"`
	Quizzes       *float64 `json:"quizzes" validate:"omitempty,gte=0,lte=10"`
	Exams         *float64 `json:"exams" validate:"omitempty,gte=0,lte=10"`
}

// GradeRow is a grade record joined with student context for section views.
type GradeRow struct {
	GradeRecord
	StudentID   string `db:"student_id" json:"student_id"`
	StudentName string `db:"student_name" json:"student_name"`
	Passed      bool   `db:"-" json:"passed"`
}

// StudentGrade is one row of a student's own grade listing.
type StudentGrade struct {
	DetailID    string  `db:"detail_id" json:"detail_id"`
	SubjectName string  `db:"subject_name" json:"subject_name"`
	Average     float64 `db:"average" json:"average"`
	Passed      bool    `db:"-" json:"passed"`
}
