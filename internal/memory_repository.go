package internal

import (
	"context"
	"sync"
	"time"

	"github.com/caremesh/formlink"
)

// MemoryMappingRepository is an in-memory MappingRepository. It backs the
// demo binary and tests; SaveDelay and FailSave let tests shape persistence
// timing and failures.
type MemoryMappingRepository struct {
	mu       sync.Mutex
	mappings map[string][]formlink.FieldMapping

	// SaveDelay stalls every save, simulating a slow backend.
	SaveDelay time.Duration
	// FailSave, when set, is returned from every save.
	FailSave error
	// SaveCount counts completed SaveMappings calls.
	SaveCount int
}

// NewMemoryMappingRepository creates an empty in-memory repository.
func NewMemoryMappingRepository() *MemoryMappingRepository {
	return &MemoryMappingRepository{
		mappings: make(map[string][]formlink.FieldMapping),
	}
}

func (r *MemoryMappingRepository) LoadMappings(ctx context.Context, formID string) ([]formlink.FieldMapping, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneMappings(r.mappings[formID]), nil
}

func (r *MemoryMappingRepository) SaveMappings(ctx context.Context, formID string, mappings []formlink.FieldMapping) error {
	if r.SaveDelay > 0 {
		select {
		case <-time.After(r.SaveDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if r.FailSave != nil {
		return r.FailSave
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.mappings[formID] = cloneMappings(mappings)
	r.SaveCount++
	return nil
}

// Stored returns the persisted set for a form, for test assertions.
func (r *MemoryMappingRepository) Stored(formID string) []formlink.FieldMapping {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneMappings(r.mappings[formID])
}
