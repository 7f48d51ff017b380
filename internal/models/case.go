package models

import (
	"time"

	"github.com/lib/pq"
)

// CaseStatus enumerates the lifecycle states of a violation case.
type CaseStatus string

const (
	CaseStatusPending    CaseStatus = "PENDING"
	CaseStatusProses     CaseStatus = "PROSES"
	CaseStatusSelesai    CaseStatus = "SELESAI"
	CaseStatusDibatalkan CaseStatus = "DIBATALKAN"
)

// ValidCaseStatus reports whether the value is a known status.
func ValidCaseStatus(s CaseStatus) bool {
	switch s {
	case CaseStatusPending, CaseStatusProses, CaseStatusSelesai, CaseStatusDibatalkan:
		return true
	}
	return false
}

// CaseStatusTransitions is the named transition table for the case workflow:
// monotonic forward movement, with DIBATALKAN terminal from any state. The
// legacy application never enforced this table; enforcement is opt-in via
// configuration to stay behaviour-compatible.
var CaseStatusTransitions = map[CaseStatus][]CaseStatus{
	CaseStatusPending:    {CaseStatusProses, CaseStatusSelesai, CaseStatusDibatalkan},
	CaseStatusProses:     {CaseStatusSelesai, CaseStatusDibatalkan},
	CaseStatusSelesai:    {CaseStatusDibatalkan},
	CaseStatusDibatalkan: {},
}

// CanTransition reports whether moving from one status to another is allowed
// by the transition table. Setting the same status again is always permitted.
func CanTransition(from, to CaseStatus) bool {
	if from == to {
		return true
	}
	for _, next := range CaseStatusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ViolationCase is the workflow aggregate tying a student to a violation.
type ViolationCase struct {
	ID            string         `db:"id" json:"id"`
	CaseNumber    string         `db:"case_number" json:"case_number"`
	StudentID     string         `db:"student_id" json:"student_id"`
	ViolationID   string         `db:"violation_id" json:"violation_id"`
	InputByID     string         `db:"input_by_id" json:"input_by_id"`
	ViolationDate time.Time      `db:"violation_date" json:"violation_date"`
	Description   string         `db:"description" json:"description"`
	EvidenceURLs  pq.StringArray `db:"evidence_urls" json:"evidence_urls,omitempty"`
	Location      string         `db:"location" json:"location,omitempty"`
	Witness       string         `db:"witness" json:"witness,omitempty"`
	Status        CaseStatus     `db:"status" json:"status"`
	Notes         string         `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// CaseSummary decorates a case row with joined display columns.
type CaseSummary struct {
	ViolationCase
	StudentName     string         `db:"student_name" json:"student_name"`
	StudentNIS      string         `db:"student_nis" json:"student_nis"`
	ViolationName   string         `db:"violation_name" json:"violation_name"`
	ViolationPoints int            `db:"violation_points" json:"violation_points"`
	CategoryLevel   ViolationLevel `db:"category_level" json:"category_level"`
	InputByName     string         `db:"input_by_name" json:"input_by_name"`
}

// CaseDetail bundles a case with its follow-up actions and sanctions.
type CaseDetail struct {
	CaseSummary
	Actions   []CaseAction `json:"actions"`
	Sanctions []Sanction   `json:"sanctions"`
}

// CaseFilter captures allowed search parameters for listing cases.
type CaseFilter struct {
	Search    string
	StudentID string
	Status    CaseStatus
	InputByID string
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

// CaseAction is a follow-up step recorded against a case. Rows are edited and
// removed softly; deleted rows stay in the table for the audit trail.
type CaseAction struct {
	ID           string     `db:"id" json:"id"`
	CaseID       string     `db:"case_id" json:"case_id"`
	ActionType   string     `db:"action_type" json:"action_type"`
	Description  string     `db:"description" json:"description"`
	EvidenceURL  string     `db:"evidence_url" json:"evidence_url,omitempty"`
	FollowUpDate *time.Time `db:"follow_up_date" json:"follow_up_date,omitempty"`
	IsCompleted  bool       `db:"is_completed" json:"is_completed"`
	CompletedAt  *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	EditedByID   *string    `db:"edited_by_id" json:"edited_by_id,omitempty"`
	EditedAt     *time.Time `db:"edited_at" json:"edited_at,omitempty"`
	DeletedByID  *string    `db:"deleted_by_id" json:"deleted_by_id,omitempty"`
	DeletedAt    *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Sanction is a disciplinary consequence applied to a case.
type Sanction struct {
	ID             string     `db:"id" json:"id"`
	CaseID         string     `db:"case_id" json:"case_id"`
	SanctionTypeID string     `db:"sanction_type_id" json:"sanction_type_id"`
	StartDate      time.Time  `db:"start_date" json:"start_date"`
	EndDate        *time.Time `db:"end_date" json:"end_date,omitempty"`
	Notes          string     `db:"notes" json:"notes,omitempty"`
	IsCompleted    bool       `db:"is_completed" json:"is_completed"`
	CompletedAt    *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
