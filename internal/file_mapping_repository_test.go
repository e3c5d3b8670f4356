package internal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caremesh/formlink"
)

func TestFileRepository_RoundTrip(t *testing.T) {
	repo, err := NewFileMappingRepository(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	mappings := []formlink.FieldMapping{{
		ID:            "m1",
		TargetFormID:  "treatment",
		TargetFieldID: "patient_name",
		Source:        directSource("insurance", "provider"),
		Transformation: &formlink.Transformation{
			Type: "uppercase",
		},
	}}

	require.NoError(t, repo.SaveMappings(ctx, "treatment", mappings))
	loaded, err := repo.LoadMappings(ctx, "treatment")
	require.NoError(t, err)
	assert.Equal(t, mappings, loaded)
}

func TestFileRepository_LoadMissingFormIsEmpty(t *testing.T) {
	repo, err := NewFileMappingRepository(t.TempDir())
	require.NoError(t, err)

	loaded, err := repo.LoadMappings(context.Background(), "never-saved")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestFileRepository_CorruptDocument(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewFileMappingRepository(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "treatment.json"), []byte("{broken"), 0o644))

	_, err = repo.LoadMappings(context.Background(), "treatment")
	require.Error(t, err)
	assert.True(t, formlink.IsPersistenceError(err))
}

func TestFileRepository_SanitizesFormIDs(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewFileMappingRepository(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, repo.SaveMappings(ctx, "../evil/form", nil))

	// The document stays inside the repository directory.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".._evil_form.json", entries[0].Name())
}

func TestFileRepository_EmptyDirRejected(t *testing.T) {
	_, err := NewFileMappingRepository("")
	require.Error(t, err)
}

func TestFileRepository_OverwriteKeepsLatest(t *testing.T) {
	repo, err := NewFileMappingRepository(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	first := []formlink.FieldMapping{{ID: "m1", TargetFormID: "treatment", TargetFieldID: "notes", Source: directSource("insurance", "provider")}}
	second := []formlink.FieldMapping{{ID: "m2", TargetFormID: "treatment", TargetFieldID: "patient_name", Source: directSource("insurance", "member_id")}}

	require.NoError(t, repo.SaveMappings(ctx, "treatment", first))
	require.NoError(t, repo.SaveMappings(ctx, "treatment", second))

	loaded, err := repo.LoadMappings(ctx, "treatment")
	require.NoError(t, err)
	assert.Equal(t, second, loaded)
}
