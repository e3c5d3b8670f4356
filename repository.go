package formlink

import (
	"context"
)

// MappingRepository is the persistence collaborator for mapping sets, keyed by
// form id. Implementations may be backed by files, Postgres, or memory; the
// engine treats the contract as an opaque async key-value store.
type MappingRepository interface {
	// LoadMappings returns the persisted mapping set for the form, or an
	// empty slice when none has been saved yet.
	LoadMappings(ctx context.Context, formID string) ([]FieldMapping, error)
	// SaveMappings replaces the persisted mapping set for the form.
	SaveMappings(ctx context.Context, formID string, mappings []FieldMapping) error
}

// GraphProvider supplies the form dependency graph. The engine never mutates
// the returned graph.
type GraphProvider interface {
	Graph(ctx context.Context) (*FormGraph, error)
}
