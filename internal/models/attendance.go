package models

import "time"

// MinAttendancePercentDefault is the at-risk threshold applied when no
// override is configured.
const MinAttendancePercentDefault = 80.0

// AttendanceStatus marks a student's presence on one session date.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceLate    AttendanceStatus = "LATE"
)

// Valid reports whether the status is a known value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate:
		return true
	}
	return false
}

// AttendanceRecord is one dated presence entry for an enrollment detail.
// Unique per (detail_id, date); writes upsert on that key.
type AttendanceRecord struct {
	ID            string           `db:"id" json:"id"`
	DetailID      string           `db:"detail_id" json:"detail_id"`
	Date          time.Time        `db:"date" json:"date"`
	Status        AttendanceStatus `db:"status" json:"status"`
	Justification *string          `db:"justification" json:"justification,omitempty"`
	Attachment    *string          `db:"attachment" json:"attachment,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceRow joins an attendance record with student context.
type AttendanceRow struct {
	AttendanceRecord
	StudentID   string `db:"student_id" json:"student_id"`
	StudentName string `db:"student_name" json:"student_name"`
}

// AttendanceSummary aggregates presence counts for one detail. Percent is
// always derived on read: present / total * 100, zero when there are no rows.
type AttendanceSummary struct {
	DetailID string  `db:"detail_id" json:"detail_id"`
	Present  int     `db:"present" json:"present"`
	Absent   int     `db:"absent" json:"absent"`
	Late     int     `db:"late" json:"late"`
	Total    int     `db:"total" json:"total"`
	Percent  float64 `db:"-" json:"percent"`
	AtRisk   bool    `db:"-" json:"at_risk"`
}

// ComputePercent derives the attendance percentage from the stored counts.
func (s AttendanceSummary) ComputePercent() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Present) / float64(s.Total) * 100
}
