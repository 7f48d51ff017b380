package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-tatib-api/internal/models"
	appErrors "github.com/noah-isme/sma-tatib-api/pkg/errors"
)

type mockSanctionTypeRepo struct {
	types      map[string]*models.SanctionType
	nameTaken  bool
	references int
	deletedID  string
}

func (m *mockSanctionTypeRepo) List(ctx context.Context, filter models.SanctionTypeFilter) ([]models.SanctionType, error) {
	result := make([]models.SanctionType, 0, len(m.types))
	for _, st := range m.types {
		result = append(result, *st)
	}
	return result, nil
}

func (m *mockSanctionTypeRepo) FindByID(ctx context.Context, id string) (*models.SanctionType, error) {
	st, ok := m.types[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return st, nil
}

func (m *mockSanctionTypeRepo) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	return m.nameTaken, nil
}

func (m *mockSanctionTypeRepo) CountReferences(ctx context.Context, id string) (int, error) {
	return m.references, nil
}

func (m *mockSanctionTypeRepo) Create(ctx context.Context, st *models.SanctionType) error {
	st.ID = "st-new"
	if m.types == nil {
		m.types = make(map[string]*models.SanctionType)
	}
	m.types[st.ID] = st
	return nil
}

func (m *mockSanctionTypeRepo) Update(ctx context.Context, st *models.SanctionType) error {
	m.types[st.ID] = st
	return nil
}

func (m *mockSanctionTypeRepo) Delete(ctx context.Context, id string) error {
	m.deletedID = id
	delete(m.types, id)
	return nil
}

func newTestSanctionTypeService(repo *mockSanctionTypeRepo) *SanctionTypeService {
	return NewSanctionTypeService(repo, nil, validator.New(), zap.NewNop())
}

func TestSanctionTypeServiceCreate(t *testing.T) {
	repo := &mockSanctionTypeRepo{}
	svc := newTestSanctionTypeService(repo)

	st, err := svc.Create(context.Background(), SanctionTypeRequest{Name: "Teguran Lisan", Level: "RINGAN"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "st-new", st.ID)
	assert.True(t, st.Active)
}

func TestSanctionTypeServiceCreateDuplicateName(t *testing.T) {
	repo := &mockSanctionTypeRepo{nameTaken: true}
	svc := newTestSanctionTypeService(repo)

	_, err := svc.Create(context.Background(), SanctionTypeRequest{Name: "Teguran Lisan"}, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, 400, appErr.Status)
}

func TestSanctionTypeServiceDeleteBlockedWhileReferenced(t *testing.T) {
	repo := &mockSanctionTypeRepo{
		types:      map[string]*models.SanctionType{"st1": {ID: "st1", Name: "Skorsing"}},
		references: 4,
	}
	svc := newTestSanctionTypeService(repo)

	err := svc.Delete(context.Background(), "st1", nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "in_use", appErr.Type)
	assert.Equal(t, 4, appErr.Count)
	assert.Empty(t, repo.deletedID)
}

func TestSanctionTypeServiceDeleteUnreferenced(t *testing.T) {
	repo := &mockSanctionTypeRepo{
		types: map[string]*models.SanctionType{"st1": {ID: "st1", Name: "Skorsing"}},
	}
	svc := newTestSanctionTypeService(repo)

	err := svc.Delete(context.Background(), "st1", nil)
	require.NoError(t, err)
	assert.Equal(t, "st1", repo.deletedID)
}

func TestSanctionTypeServiceDeleteNotFound(t *testing.T) {
	svc := newTestSanctionTypeService(&mockSanctionTypeRepo{})

	err := svc.Delete(context.Background(), "missing", nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
