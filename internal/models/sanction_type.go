package models

import "time"

// SanctionType is a catalog entry for disciplinary consequences. Rows may be
// deleted only while no sanction references them.
type SanctionType struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Description  string    `db:"description" json:"description,omitempty"`
	Level        string    `db:"level" json:"level,omitempty"`
	DurationDays *int      `db:"duration_days" json:"duration_days,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// SanctionTypeFilter captures list criteria for the sanction-type catalog.
type SanctionTypeFilter struct {
	Search string
	Active *bool
}
