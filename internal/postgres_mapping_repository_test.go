package internal

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caremesh/formlink"
)

func TestNewPostgresMappingRepository(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo, err := NewPostgresMappingRepository(mock, "form_field_mappings")
	require.NoError(t, err)
	assert.NotNil(t, repo)

	_, err = NewPostgresMappingRepository(nil, "form_field_mappings")
	require.Error(t, err)

	_, err = NewPostgresMappingRepository(mock, "")
	require.Error(t, err)
}

func TestPostgresRepository_LoadMappings(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo, err := NewPostgresMappingRepository(mock, "form_field_mappings")
	require.NoError(t, err)

	stored := []formlink.FieldMapping{{
		ID:            "m1",
		TargetFormID:  "treatment",
		TargetFieldID: "patient_name",
		Source:        directSource("insurance", "provider"),
	}}
	document, err := json.Marshal(stored)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT document FROM "form_field_mappings"`).
		WithArgs("treatment").
		WillReturnRows(pgxmock.NewRows([]string{"document"}).AddRow(document))

	loaded, err := repo.LoadMappings(context.Background(), "treatment")
	require.NoError(t, err)
	assert.Equal(t, stored, loaded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_LoadMappingsNoRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo, err := NewPostgresMappingRepository(mock, "form_field_mappings")
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT document FROM "form_field_mappings"`).
		WithArgs("treatment").
		WillReturnError(pgx.ErrNoRows)

	loaded, err := repo.LoadMappings(context.Background(), "treatment")
	require.NoError(t, err)
	assert.Nil(t, loaded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_LoadMappingsCorruptDocument(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo, err := NewPostgresMappingRepository(mock, "form_field_mappings")
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT document FROM "form_field_mappings"`).
		WithArgs("treatment").
		WillReturnRows(pgxmock.NewRows([]string{"document"}).AddRow([]byte("{broken")))

	_, err = repo.LoadMappings(context.Background(), "treatment")
	require.Error(t, err)
	assert.True(t, formlink.IsPersistenceError(err))
}

func TestPostgresRepository_SaveMappings(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo, err := NewPostgresMappingRepository(mock, "form_field_mappings")
	require.NoError(t, err)

	mappings := []formlink.FieldMapping{{
		ID:            "m1",
		TargetFormID:  "treatment",
		TargetFieldID: "patient_name",
		Source:        directSource("insurance", "provider"),
	}}
	document, err := json.Marshal(mappings)
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO "form_field_mappings"`).
		WithArgs("treatment", document).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.SaveMappings(context.Background(), "treatment", mappings))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_SaveMappingsEmptySetWritesEmptyArray(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo, err := NewPostgresMappingRepository(mock, "form_field_mappings")
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO "form_field_mappings"`).
		WithArgs("treatment", []byte("[]")).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.SaveMappings(context.Background(), "treatment", nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_SaveMappingsFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo, err := NewPostgresMappingRepository(mock, "form_field_mappings")
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO "form_field_mappings"`).
		WillReturnError(errors.New("connection reset"))

	err = repo.SaveMappings(context.Background(), "treatment", nil)
	require.Error(t, err)
	assert.True(t, formlink.IsPersistenceError(err))
}

func TestEnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "form_field_mappings"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, EnsureSchema(context.Background(), mock, "form_field_mappings"))
	require.NoError(t, mock.ExpectationsWereMet())
}
