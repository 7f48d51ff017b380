package models

import "time"

// ReportWindow bounds an aggregation query. Either Month or Semester is set
// alongside Year; Scope narrows results to a single reporter.
type ReportWindow struct {
	Month     int
	Semester  int
	Year      int
	InputByID string
}

// Range resolves the window into an inclusive start and exclusive end time.
// Semester 1 covers July-December, semester 2 January-June, following the
// Indonesian academic calendar.
func (w ReportWindow) Range() (time.Time, time.Time) {
	switch {
	case w.Month >= 1 && w.Month <= 12:
		start := time.Date(w.Year, time.Month(w.Month), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	case w.Semester == 1:
		start := time.Date(w.Year, time.July, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 6, 0)
	case w.Semester == 2:
		start := time.Date(w.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 6, 0)
	default:
		start := time.Date(w.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, 0)
	}
}

// StatusCount pairs a case status with its count.
type StatusCount struct {
	Status CaseStatus `db:"status" json:"status"`
	Count  int        `db:"count" json:"count"`
}

// CategoryCount aggregates cases per violation category and severity.
type CategoryCount struct {
	CategoryID   string         `db:"category_id" json:"category_id"`
	CategoryName string         `db:"category_name" json:"category_name"`
	Level        ViolationLevel `db:"level" json:"level"`
	Count        int            `db:"count" json:"count"`
	TotalPoints  int            `db:"total_points" json:"total_points"`
}

// TopStudent ranks a student by violation count within the window.
type TopStudent struct {
	StudentID   string `db:"student_id" json:"student_id"`
	StudentName string `db:"student_name" json:"student_name"`
	NIS         string `db:"nis" json:"nis"`
	CaseCount   int    `db:"case_count" json:"case_count"`
	TotalPoints int    `db:"total_points" json:"total_points"`
}

// TrendPoint is one time bucket in a trend series.
type TrendPoint struct {
	Bucket time.Time `db:"bucket" json:"bucket"`
	Count  int       `db:"count" json:"count"`
}
