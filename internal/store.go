package internal

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/caremesh/formlink"
)

// Store owns the live mapping set for one target form: the present state, the
// undo/redo timeline, and optimistic persistence. Mutations apply to memory
// immediately and schedule an asynchronous save; persistence failures surface
// on the error channel and in the log, they never roll back applied edits.
type Store struct {
	formID string
	repo   formlink.MappingRepository
	logger *zap.SugaredLogger

	mu       sync.Mutex
	mappings []formlink.FieldMapping
	history  *History

	saveMu      sync.Mutex
	saveGen     atomic.Int64
	saveWG      sync.WaitGroup
	saveTimeout time.Duration
	breaker     *CircuitBreaker
	errs        chan error
}

// NewStore creates a store for the given target form. The repository may be
// nil, in which case the store is purely in-memory.
func NewStore(formID string, repo formlink.MappingRepository, cfg *formlink.Config) *Store {
	if cfg == nil {
		cfg = formlink.DefaultConfig()
	}
	return &Store{
		formID:      formID,
		repo:        repo,
		logger:      zap.S().With("formId", formID),
		history:     NewHistory(cfg.History.MaxDepth),
		saveTimeout: cfg.Persistence.SaveTimeout,
		breaker:     NewCircuitBreaker(5, 30*time.Second, 10*time.Second),
		errs:        make(chan error, cfg.Persistence.ErrorBuffer),
	}
}

// Load replaces the present state with the repository's persisted set. A
// repository failure is logged and the store starts empty; editing a form must
// not be blocked by a persistence outage.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mappings = nil
	s.history.Reset()

	if s.repo == nil {
		return
	}
	loaded, err := s.repo.LoadMappings(ctx, s.formID)
	if err != nil {
		s.logger.Warnw("failed to load persisted mappings, starting empty", "error", err)
		return
	}
	s.mappings = cloneMappings(loaded)
}

// FormID returns the owning target form id.
func (s *Store) FormID() string {
	return s.formID
}

// Mappings returns a copy of the present mapping set.
func (s *Store) Mappings() []formlink.FieldMapping {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMappings(s.mappings)
}

// Add appends a mapping, assigning a fresh id when none is set, and returns
// the stored copy.
func (s *Store) Add(mapping formlink.FieldMapping) formlink.FieldMapping {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mapping.ID == "" {
		mapping.ID = uuid.Must(uuid.NewV7()).String()
	}
	s.history.Push(s.mappings)
	s.mappings = append(s.mappings, cloneMapping(mapping))
	s.scheduleSaveLocked()
	return cloneMapping(mapping)
}

// Remove deletes the mapping with the given id. Removing an unknown id is a
// no-op and records no history entry.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, m := range s.mappings {
		if m.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	s.history.Push(s.mappings)
	s.mappings = append(s.mappings[:idx], s.mappings[idx+1:]...)
	s.scheduleSaveLocked()
	return true
}

// Update applies a patch to an existing mapping. Nil patch fields are left
// unchanged. A patch that changes nothing records no history entry.
func (s *Store) Update(id string, patch formlink.MappingPatch) (formlink.FieldMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, m := range s.mappings {
		if m.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return formlink.FieldMapping{}, formlink.NewMappingNotFoundError(id).WithForm(s.formID)
	}

	updated := cloneMapping(s.mappings[idx])
	if patch.Source != nil {
		src := *patch.Source
		updated.Source = &src
	}
	if patch.Transformation != nil {
		tr := *patch.Transformation
		updated.Transformation = &tr
	}
	if patch.TargetFieldID != nil {
		updated.TargetFieldID = *patch.TargetFieldID
	}

	if reflect.DeepEqual(updated, s.mappings[idx]) {
		return cloneMapping(updated), nil
	}

	s.history.Push(s.mappings)
	s.mappings[idx] = updated
	s.scheduleSaveLocked()
	return cloneMapping(updated), nil
}

// Replace swaps in an entirely new mapping set as one undoable step. Used by
// the import path, which applies atomically or not at all.
func (s *Store) Replace(mappings []formlink.FieldMapping) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history.Push(s.mappings)
	s.mappings = cloneMappings(mappings)
	s.scheduleSaveLocked()
}

// Undo steps the present state one action back. The restored state persists
// like any other mutation.
func (s *Store) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	restored, ok := s.history.Undo(s.mappings)
	if !ok {
		return false
	}
	s.mappings = restored
	s.scheduleSaveLocked()
	return true
}

// Redo steps the present state one undone action forward.
func (s *Store) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	restored, ok := s.history.Redo(s.mappings)
	if !ok {
		return false
	}
	s.mappings = restored
	s.scheduleSaveLocked()
	return true
}

// CanUndo reports whether an undo step is available.
func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

// CanRedo reports whether a redo step is available.
func (s *Store) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// HistoryDepths returns the undo and redo stack depths.
func (s *Store) HistoryDepths() (past, future int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.PastLen(), s.history.FutureLen()
}

// EffectiveMapping returns the authoritative mapping for a target field. When
// several mappings address the same field the most recently added one wins.
func (s *Store) EffectiveMapping(targetFieldID string) (formlink.FieldMapping, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.mappings) - 1; i >= 0; i-- {
		if s.mappings[i].TargetFieldID == targetFieldID {
			return cloneMapping(s.mappings[i]), true
		}
	}
	return formlink.FieldMapping{}, false
}

// MappingsForField returns every mapping addressing a target field, in
// insertion order.
func (s *Store) MappingsForField(targetFieldID string) []formlink.FieldMapping {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []formlink.FieldMapping
	for _, m := range s.mappings {
		if m.TargetFieldID == targetFieldID {
			out = append(out, cloneMapping(m))
		}
	}
	return out
}

// Save persists the present state synchronously. It supersedes any in-flight
// asynchronous save of an older snapshot.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	snapshot := cloneMappings(s.mappings)
	gen := s.saveGen.Add(1)
	s.mu.Unlock()

	return s.persist(ctx, gen, snapshot)
}

// Errors exposes asynchronous persistence failures. The channel is buffered;
// when nobody drains it, overflowing errors are dropped after logging.
func (s *Store) Errors() <-chan error {
	return s.errs
}

// Flush blocks until every scheduled asynchronous save has finished.
func (s *Store) Flush() {
	s.saveWG.Wait()
}

// scheduleSaveLocked captures the present snapshot and persists it in the
// background. Saves are serialized and stamped with a generation so a slow
// older save never overwrites a newer one. Caller must hold mu.
func (s *Store) scheduleSaveLocked() {
	if s.repo == nil {
		return
	}
	snapshot := cloneMappings(s.mappings)
	gen := s.saveGen.Add(1)

	s.saveWG.Add(1)
	go func() {
		defer s.saveWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
		defer cancel()
		if err := s.persist(ctx, gen, snapshot); err != nil {
			s.logger.Warnw("asynchronous mapping save failed", "error", err)
			select {
			case s.errs <- err:
			default:
			}
		}
	}()
}

func (s *Store) persist(ctx context.Context, gen int64, snapshot []formlink.FieldMapping) error {
	if s.repo == nil {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	// A newer snapshot is already queued or written; this one is stale.
	if gen != s.saveGen.Load() {
		return nil
	}
	if s.breaker.IsOpen() {
		return formlink.NewPersistenceError(s.formID, "persistence backend unavailable, save skipped", nil)
	}
	if err := s.repo.SaveMappings(ctx, s.formID, snapshot); err != nil {
		s.breaker.RecordFailure()
		return formlink.NewPersistenceError(s.formID, "failed to save mappings", err)
	}
	s.breaker.RecordSuccess()
	return nil
}
