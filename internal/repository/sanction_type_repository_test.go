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

func newSanctionTypeMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSanctionTypeRepositoryList(t *testing.T) {
	db, mock, cleanup := newSanctionTypeMock(t)
	defer cleanup()
	repo := NewSanctionTypeRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "description", "level", "duration_days", "active", "created_at", "updated_at"}).
		AddRow("st1", "Teguran Lisan", "Peringatan langsung", "RINGAN", nil, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM sanction_types WHERE 1=1 ORDER BY name ASC")).
		WillReturnRows(rows)

	types, err := repo.List(context.Background(), models.SanctionTypeFilter{})
	require.NoError(t, err)
	assert.Len(t, types, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSanctionTypeRepositoryListSearchIsCaseInsensitive(t *testing.T) {
	db, mock, cleanup := newSanctionTypeMock(t)
	defer cleanup()
	repo := NewSanctionTypeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("(LOWER(name) LIKE $1 OR LOWER(description) LIKE $1)")).
		WithArgs("%teguran%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "level", "duration_days", "active", "created_at", "updated_at"}))

	_, err := repo.List(context.Background(), models.SanctionTypeFilter{Search: "TEGURAN"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSanctionTypeRepositoryExistsByName(t *testing.T) {
	db, mock, cleanup := newSanctionTypeMock(t)
	defer cleanup()
	repo := NewSanctionTypeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM sanction_types WHERE LOWER(name) = LOWER($1) AND active = true")).
		WithArgs("Skorsing").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByName(context.Background(), "Skorsing", "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSanctionTypeRepositoryExistsByNameNoRows(t *testing.T) {
	db, mock, cleanup := newSanctionTypeMock(t)
	defer cleanup()
	repo := NewSanctionTypeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM sanction_types WHERE LOWER(name) = LOWER($1) AND active = true AND id <> $2")).
		WithArgs("Skorsing", "st1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.ExistsByName(context.Background(), "Skorsing", "st1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSanctionTypeRepositoryCountReferences(t *testing.T) {
	db, mock, cleanup := newSanctionTypeMock(t)
	defer cleanup()
	repo := NewSanctionTypeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM sanctions WHERE sanction_type_id = $1")).
		WithArgs("st1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountReferences(context.Background(), "st1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSanctionTypeRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newSanctionTypeMock(t)
	defer cleanup()
	repo := NewSanctionTypeRepository(db)

	mock.ExpectExec("INSERT INTO sanction_types").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	st := &models.SanctionType{Name: "Skorsing", Level: "BERAT", Active: true}
	err := repo.Create(context.Background(), st)
	require.NoError(t, err)
	assert.NotEmpty(t, st.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSanctionTypeRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newSanctionTypeMock(t)
	defer cleanup()
	repo := NewSanctionTypeRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sanction_types WHERE id = $1")).
		WithArgs("st1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), "st1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
