package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/caremesh/formlink"
)

// fileMappingRepository persists each form's mapping set as one JSON document
// on disk. Writes go through a temp file and an atomic rename so a crashed
// save never leaves a truncated document behind.
type fileMappingRepository struct {
	mu  sync.Mutex
	dir string
}

// NewFileMappingRepository creates a repository rooted at dir, creating the
// directory if needed.
func NewFileMappingRepository(dir string) (formlink.MappingRepository, error) {
	if dir == "" {
		return nil, fmt.Errorf("mapping directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create mapping directory %s: %w", dir, err)
	}
	return &fileMappingRepository{dir: dir}, nil
}

func (r *fileMappingRepository) LoadMappings(ctx context.Context, formID string) ([]formlink.FieldMapping, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.pathFor(formID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, formlink.NewPersistenceError(formID, "failed to read mapping document", err)
	}

	var doc formlink.ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, formlink.NewPersistenceError(formID, "mapping document is corrupt", err)
	}
	return doc.Mappings, nil
}

func (r *fileMappingRepository) SaveMappings(ctx context.Context, formID string, mappings []formlink.FieldMapping) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := formlink.ExportDocument{
		Version:  formlink.ExportVersion,
		Mappings: mappings,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return formlink.NewPersistenceError(formID, "failed to marshal mapping document", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	path := r.pathFor(formID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return formlink.NewPersistenceError(formID, "failed to write mapping document", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return formlink.NewPersistenceError(formID, "failed to replace mapping document", err)
	}
	return nil
}

func (r *fileMappingRepository) pathFor(formID string) string {
	return filepath.Join(r.dir, sanitizeFileName(formID)+".json")
}

// sanitizeFileName keeps form ids safe as file names.
func sanitizeFileName(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
