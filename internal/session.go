package internal

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/caremesh/formlink"
)

// SessionState labels the editor's current phase. The state is derived from
// the selections rather than stored, so it can never disagree with them.
type SessionState string

const (
	StateIdle           SessionState = "idle"
	StateSourceSelected SessionState = "source_selected"
	StateTargetSelected SessionState = "target_selected"
	StateReady          SessionState = "ready"
	StateInvalid        SessionState = "invalid"
)

// Session orchestrates one editing session against a target form: candidate
// source resolution, draft selection, live preview, and committing drafts into
// the store. An invalid draft parks the session in StateInvalid but keeps
// every selection, so the user can correct a single choice instead of
// starting over.
type Session struct {
	graph     *formlink.FormGraph
	store     *Store
	registry  *Registry
	validator *ValidationService
	logger    *zap.SugaredLogger

	mu             sync.Mutex
	sourceFormID   string
	source         *formlink.MappingSource
	targetFieldID  string
	transformation *formlink.Transformation
}

// NewSession creates an editing session for the store's target form.
func NewSession(graph *formlink.FormGraph, store *Store, registry *Registry, validator *ValidationService) *Session {
	return &Session{
		graph:     graph,
		store:     store,
		registry:  registry,
		validator: validator,
		logger:    zap.S().With("formId", store.FormID()),
	}
}

// TargetFormID returns the form being edited.
func (s *Session) TargetFormID() string {
	return s.store.FormID()
}

// Store exposes the underlying mapping store.
func (s *Session) Store() *Store {
	return s.store
}

// AvailableSources returns the ordered candidate sources for the target form.
func (s *Session) AvailableSources() []formlink.MappingSource {
	return AvailableSources(s.graph, s.store.FormID())
}

// SourceFieldsForForm returns the candidate sources restricted to one source
// form, used when the editor narrows the picker by form.
func (s *Session) SourceFieldsForForm(formID string) []formlink.MappingSource {
	var out []formlink.MappingSource
	for _, src := range s.AvailableSources() {
		if src.FormID == formID {
			out = append(out, src)
		}
	}
	return out
}

// SelectSourceForm narrows the source picker to one form. Changing the form
// clears the downstream selections: a source field from another form and any
// chosen transformation. A global source survives form narrowing.
func (s *Session) SelectSourceForm(formID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sourceFormID == formID {
		return
	}
	s.sourceFormID = formID
	if s.source != nil && s.source.Kind != formlink.SourceGlobal {
		s.source = nil
		s.transformation = nil
	}
}

// SelectSource chooses the value provider for the draft mapping and clears
// any previously chosen transformation.
func (s *Session) SelectSource(source formlink.MappingSource) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := source
	s.source = &src
	s.transformation = nil
	if src.Kind != formlink.SourceGlobal {
		s.sourceFormID = src.FormID
	}
}

// SelectTargetField chooses the field the draft mapping writes to. Changing
// it clears any previously chosen transformation.
func (s *Session) SelectTargetField(fieldID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.targetFieldID == fieldID {
		return
	}
	s.targetFieldID = fieldID
	s.transformation = nil
}

// SelectTransformation attaches a transformation to the draft. Passing nil
// clears it.
func (s *Session) SelectTransformation(t *formlink.Transformation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t == nil {
		s.transformation = nil
		return
	}
	tr := *t
	s.transformation = &tr
}

// Reset clears every selection and returns the session to StateIdle.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Session) resetLocked() {
	s.sourceFormID = ""
	s.source = nil
	s.targetFieldID = ""
	s.transformation = nil
}

// State derives the session phase from the current selections. A complete
// draft is validated; an invalid one reports StateInvalid with selections
// intact.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.source == nil && s.targetFieldID == "":
		return StateIdle
	case s.source != nil && s.targetFieldID == "":
		return StateSourceSelected
	case s.source == nil:
		return StateTargetSelected
	}
	if result := s.validator.ValidateMapping(s.graph, s.draftLocked()); !result.IsValid {
		return StateInvalid
	}
	return StateReady
}

// Draft returns the mapping the current selections describe. The id is empty
// until Commit.
func (s *Session) Draft() formlink.FieldMapping {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draftLocked()
}

func (s *Session) draftLocked() formlink.FieldMapping {
	draft := formlink.FieldMapping{
		TargetFormID:  s.store.FormID(),
		TargetFieldID: s.targetFieldID,
	}
	if s.source != nil {
		src := *s.source
		draft.Source = &src
	}
	if s.transformation != nil {
		tr := *s.transformation
		draft.Transformation = &tr
	}
	return draft
}

// Validate runs the full mapping validation over the current draft.
func (s *Session) Validate() formlink.ValidationResult {
	return s.validator.ValidateMapping(s.graph, s.Draft())
}

// AvailableTransformations lists the transform names applicable to the
// current source/target type pair.
func (s *Session) AvailableTransformations() []string {
	s.mu.Lock()
	source := s.source
	targetFieldID := s.targetFieldID
	s.mu.Unlock()

	var sourceType, targetType formlink.FieldType
	if source != nil {
		sourceType = s.sourceFieldType(*source)
	}
	if targetFieldID != "" {
		if field, ok := s.graph.FieldSchema(s.store.FormID(), targetFieldID); ok {
			targetType = field.Type
		}
	}
	return s.registry.Available(sourceType, targetType)
}

// Preview renders the draft against a representative sample value. A failing
// transformation degrades to showing the untransformed value alongside the
// error instead of blanking the preview.
func (s *Session) Preview() (formlink.PreviewData, error) {
	s.mu.Lock()
	source := s.source
	transformation := s.transformation
	s.mu.Unlock()

	if source == nil {
		return formlink.PreviewData{}, formlink.NewFormlinkError(formlink.ErrorTypeValidation,
			formlink.ErrCodeValidationFailed, "no source selected to preview")
	}

	value := s.sampleFor(*source)
	preview := formlink.PreviewData{
		Source:      value,
		Transformed: value,
		Label:       source.Label,
	}
	if transformation == nil || transformation.Type == "" {
		return preview, nil
	}

	preview.Label = s.registry.Label(transformation.Type)
	transformed, err := s.registry.Apply(transformation.Type, value, transformation.Format)
	if err != nil {
		return preview, err
	}
	preview.Transformed = transformed
	return preview, nil
}

// Commit validates the draft, stores it, and resets the selections for the
// next mapping. An invalid draft is rejected and the selections are kept.
func (s *Session) Commit() (formlink.FieldMapping, error) {
	s.mu.Lock()
	draft := s.draftLocked()
	s.mu.Unlock()

	if result := s.validator.ValidateMapping(s.graph, draft); !result.IsValid {
		return formlink.FieldMapping{}, formlink.NewFormlinkError(formlink.ErrorTypeValidation,
			formlink.ErrCodeValidationFailed, strings.Join(result.Errors, "; ")).
			WithForm(s.store.FormID()).
			WithDetail("errors", result.Errors)
	}

	stored := s.store.Add(draft)
	s.logger.Infow("mapping committed",
		"mappingId", stored.ID,
		"targetFieldId", stored.TargetFieldID,
		"source", stored.Source.String())

	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()
	return stored, nil
}

// Remove deletes a committed mapping by id.
func (s *Session) Remove(id string) bool {
	return s.store.Remove(id)
}

// Undo steps the mapping set one action back.
func (s *Session) Undo() bool {
	return s.store.Undo()
}

// Redo steps the mapping set one undone action forward.
func (s *Session) Redo() bool {
	return s.store.Redo()
}

// Mappings returns the committed mapping set.
func (s *Session) Mappings() []formlink.FieldMapping {
	return s.store.Mappings()
}

// Save revalidates every committed mapping and persists the set
// synchronously. A single invalid mapping aborts the save; nothing is
// written.
func (s *Session) Save(ctx context.Context) error {
	ve := formlink.NewValidationErrors()
	for _, m := range s.store.Mappings() {
		if result := s.validator.ValidateMapping(s.graph, m); !result.IsValid {
			for _, msg := range result.Errors {
				ve.Add(formlink.NewValidationError(m.TargetFieldID, msg))
			}
		}
	}
	if err := ve.ToError(); err != nil {
		return err
	}
	return s.store.Save(ctx)
}

func (s *Session) sampleFor(source formlink.MappingSource) any {
	if source.Kind == formlink.SourceGlobal {
		return GlobalSampleValue(source.FieldID)
	}
	if field, ok := s.graph.FieldSchema(source.FormID, source.FieldID); ok {
		return SampleValue(field)
	}
	return "Sample Value"
}

func (s *Session) sourceFieldType(source formlink.MappingSource) formlink.FieldType {
	if source.Kind == formlink.SourceGlobal {
		if t, ok := globalFieldTypes[source.FieldID]; ok {
			return t
		}
		return formlink.FieldTypeString
	}
	if field, ok := s.graph.FieldSchema(source.FormID, source.FieldID); ok {
		return field.Type
	}
	return ""
}
