package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-tatib-api/internal/models"
)

func newCaseMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func caseSummaryRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "case_number", "student_id", "violation_id", "input_by_id", "violation_date",
		"description", "evidence_urls", "location", "witness", "status", "notes", "created_at", "updated_at",
		"student_name", "student_nis", "violation_name", "violation_points", "category_level", "input_by_name",
	})
}

func TestCaseRepositoryCountInMonth(t *testing.T) {
	db, mock, cleanup := newCaseMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM violation_cases WHERE created_at >= $1 AND created_at < $2")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountInMonth(context.Background(), 2026, time.August)
	require.NoError(t, err)
	assert.Equal(t, 7, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newCaseMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectExec("INSERT INTO violation_cases").
		WillReturnResult(sqlmock.NewResult(1, 1))

	vc := &models.ViolationCase{
		CaseNumber:    "TTB/0008/VIII/2026",
		StudentID:     "s1",
		ViolationID:   "v1",
		InputByID:     "u1",
		ViolationDate: time.Now(),
		Description:   "Terlambat masuk sekolah",
		Status:        models.CaseStatusPending,
	}
	err := repo.Create(context.Background(), vc)
	require.NoError(t, err)
	assert.NotEmpty(t, vc.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseRepositoryListFiltersByStatus(t *testing.T) {
	db, mock, cleanup := newCaseMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("vc.status = $1")).
		WithArgs(models.CaseStatusPending).
		WillReturnRows(caseSummaryRows().AddRow(
			"c1", "TTB/0001/VIII/2026", "s1", "v1", "u1", time.Now(),
			"desc", nil, "", "", models.CaseStatusPending, "", time.Now(), time.Now(),
			"Budi", "001", "Terlambat", 5, "RINGAN", "Guru BK",
		))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(models.CaseStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	cases, total, err := repo.List(context.Background(), models.CaseFilter{Status: models.CaseStatusPending})
	require.NoError(t, err)
	assert.Len(t, cases, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newCaseMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE violation_cases SET status = $2, notes = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("c1", models.CaseStatusProses, "ditindaklanjuti", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "c1", models.CaseStatusProses, "ditindaklanjuti")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseRepositoryListActionsExcludesDeleted(t *testing.T) {
	db, mock, cleanup := newCaseMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM case_actions WHERE case_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "case_id", "action_type", "description", "evidence_url", "follow_up_date", "is_completed", "completed_at",
			"edited_by_id", "edited_at", "deleted_by_id", "deleted_at", "created_at", "updated_at",
		}).AddRow("a1", "c1", "PEMBINAAN", "Pembinaan wali kelas", "", nil, false, nil, nil, nil, nil, nil, time.Now(), time.Now()))

	actions, err := repo.ListActions(context.Background(), "c1")
	require.NoError(t, err)
	assert.Len(t, actions, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseRepositorySoftDeleteAction(t *testing.T) {
	db, mock, cleanup := newCaseMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE case_actions SET deleted_by_id = $2, deleted_at = $3, updated_at = $3 WHERE id = $1")).
		WithArgs("a1", "u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SoftDeleteAction(context.Background(), "a1", "u1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaseRepositorySetSanctionCompleted(t *testing.T) {
	db, mock, cleanup := newCaseMock(t)
	defer cleanup()
	repo := NewCaseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sanctions SET is_completed = $2, completed_at = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("sc1", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetSanctionCompleted(context.Background(), "sc1", true)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
