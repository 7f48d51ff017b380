package models

import "time"

// Student represents a learner registered in the institution. Students are
// never hard-deleted; removal flips the active flag.
type Student struct {
	ID           string    `db:"id" json:"id"`
	NIS          string    `db:"nis" json:"nis"`
	FullName     string    `db:"full_name" json:"full_name"`
	Gender       string    `db:"gender" json:"gender"`
	Address      string    `db:"address" json:"address"`
	Phone        string    `db:"phone" json:"phone"`
	GuardianName string    `db:"guardian_name" json:"guardian_name"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search       string
	AcademicYear string
	Active       *bool
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
