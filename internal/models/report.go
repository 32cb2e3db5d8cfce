package models

// DashboardSummary is the director's landing-page aggregate.
type DashboardSummary struct {
	ActiveStudents    int     `json:"active_students"`
	ActiveProfessors  int     `json:"active_professors"`
	GlobalAverage     float64 `json:"global_average"`
	GlobalAttendance  float64 `json:"global_attendance"`
	ActiveAlerts      int     `json:"active_alerts"`
	LowGradeCount     int     `json:"low_grade_count"`
	LowAttendanceRows int     `json:"low_attendance_count"`
}

// LowPerformanceAlert flags a detail whose grade average sits below the
// passing threshold.
type LowPerformanceAlert struct {
	DetailID    string  `db:"detail_id" json:"detail_id"`
	StudentName string  `db:"student_name" json:"student_name"`
	SubjectName string  `db:"subject_name" json:"subject_name"`
	Average     float64 `db:"average" json:"average"`
}

// LowAttendanceAlert flags a detail whose attendance percentage sits below
// the minimum threshold.
type LowAttendanceAlert struct {
	DetailID    string  `db:"detail_id" json:"detail_id"`
	StudentName string  `db:"student_name" json:"student_name"`
	SubjectName string  `db:"subject_name" json:"subject_name"`
	Percent     float64 `db:"percent" json:"percent"`
	Absences    int     `db:"absences" json:"absences"`
}

// AlertsReport groups the two alert lists for one term.
type AlertsReport struct {
	TermID        string                `json:"term_id"`
	LowGrades     []LowPerformanceAlert `json:"low_grades"`
	LowAttendance []LowAttendanceAlert  `json:"low_attendance"`
}

// AlertFilter scopes alert queries.
type AlertFilter struct {
	TermID      string
	SectionID   string
	ProfessorID string
}

// SectionReportRow summarises one section inside the consolidated report.
type SectionReportRow struct {
	SectionID     string   `db:"section_id" json:"section_id"`
	SubjectName   string   `db:"subject_name" json:"subject_name"`
	ProfessorName string   `db:"professor_name" json:"professor_name"`
	Students      int      `db:"students" json:"students"`
	Average       *float64 `db:"average" json:"average,omitempty"`
	Passed        int      `db:"passed" json:"passed"`
	Failed        int      `db:"failed" json:"failed"`
}

// ConsolidatedReport aggregates term performance across sections.
type ConsolidatedReport struct {
	TermID        string             `json:"term_id"`
	TotalSubjects int                `json:"total_subjects"`
	TotalStudents int                `json:"total_students"`
	GlobalAverage float64            `json:"global_average"`
	PassRate      float64            `json:"pass_rate"`
	Sections      []SectionReportRow `json:"sections"`
}

// ReportFilter scopes the consolidated report.
type ReportFilter struct {
	TermID      string
	ProfessorID string
	SubjectID   string
}
