package models

import "time"

// ViolationLevel grades the severity of a violation category.
type ViolationLevel string

const (
	LevelRingan ViolationLevel = "RINGAN"
	LevelSedang ViolationLevel = "SEDANG"
	LevelBerat  ViolationLevel = "BERAT"
)

// ViolationCategory groups violations by severity.
type ViolationCategory struct {
	ID        string         `db:"id" json:"id"`
	Code      string         `db:"code" json:"code"`
	Name      string         `db:"name" json:"name"`
	Level     ViolationLevel `db:"level" json:"level"`
	Active    bool           `db:"active" json:"active"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// Violation is a catalog entry describing one infraction type.
type Violation struct {
	ID           string    `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	CategoryID   string    `db:"category_id" json:"category_id"`
	Name         string    `db:"name" json:"name"`
	Points       int       `db:"points" json:"points"`
	SanctionHint string    `db:"sanction_hint" json:"sanction_hint,omitempty"`
	Kind         string    `db:"kind" json:"kind,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ViolationDetail joins a violation with its category for listings.
type ViolationDetail struct {
	Violation
	CategoryName  string         `db:"category_name" json:"category_name"`
	CategoryLevel ViolationLevel `db:"category_level" json:"category_level"`
}

// ViolationFilter captures list criteria for the violation catalog.
type ViolationFilter struct {
	Search     string
	CategoryID string
	Level      ViolationLevel
	Active     *bool
	Page       int
	PageSize   int
}
