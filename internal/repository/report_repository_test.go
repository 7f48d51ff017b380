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

func newReportMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestReportRepositoryTotalCases(t *testing.T) {
	db, mock, cleanup := newReportMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM violation_cases vc WHERE vc.created_at >= $1 AND vc.created_at < $2")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	total, err := repo.TotalCases(context.Background(), models.ReportWindow{Month: 8, Year: 2026})
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryCountByStatus(t *testing.T) {
	db, mock, cleanup := newReportMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY vc.status ORDER BY count DESC")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("PENDING", 5).
			AddRow("SELESAI", 3))

	counts, err := repo.CountByStatus(context.Background(), models.ReportWindow{Month: 8, Year: 2026})
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, models.CaseStatusPending, counts[0].Status)
	assert.Equal(t, 5, counts[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryTopStudents(t *testing.T) {
	db, mock, cleanup := newReportMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY case_count DESC, total_points DESC LIMIT 3")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "student_name", "nis", "case_count", "total_points"}).
			AddRow("s1", "Budi", "001", 4, 35))

	students, err := repo.TopStudents(context.Background(), models.ReportWindow{Semester: 1, Year: 2026}, 3)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, 4, students[0].CaseCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryWindowScopedToUser(t *testing.T) {
	db, mock, cleanup := newReportMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("vc.input_by_id = $3")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	total, err := repo.TotalCases(context.Background(), models.ReportWindow{Year: 2026, InputByID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryFirstCaseCreatedAt(t *testing.T) {
	db, mock, cleanup := newReportMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	first := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT MIN(created_at) FROM violation_cases WHERE input_by_id = $1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"min"}).AddRow(first))

	got, err := repo.FirstCaseCreatedAt(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Equal(first))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryFirstCaseCreatedAtEmpty(t *testing.T) {
	db, mock, cleanup := newReportMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT MIN(created_at) FROM violation_cases WHERE input_by_id = $1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"min"}).AddRow(nil))

	got, err := repo.FirstCaseCreatedAt(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryCountByStatusForUser(t *testing.T) {
	db, mock, cleanup := newReportMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM violation_cases WHERE input_by_id = $1 AND status = $2")).
		WithArgs("u1", models.CaseStatusSelesai).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))

	count, err := repo.CountByStatusForUser(context.Background(), "u1", models.CaseStatusSelesai)
	require.NoError(t, err)
	assert.Equal(t, 6, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
