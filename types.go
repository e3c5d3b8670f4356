package formlink

import (
	"fmt"
	"time"
)

// SourceKind tags the variant of a MappingSource.
type SourceKind string

const (
	SourceDirect     SourceKind = "direct"
	SourceTransitive SourceKind = "transitive"
	SourceGlobal     SourceKind = "global"
)

// Global source field vocabulary. Global sources are graph-independent and
// always offered after form-backed sources.
const (
	GlobalFieldUserName  = "user.name"
	GlobalFieldUserEmail = "user.email"
)

// MappingSource identifies a candidate provider of a value for a target field.
// Direct and transitive sources carry the owning form id; global sources carry
// only a field id from the fixed global vocabulary.
type MappingSource struct {
	Kind    SourceKind `json:"kind" validate:"required,oneof=direct transitive global"`
	FormID  string     `json:"formId,omitempty" validate:"required_if=Kind direct"`
	FieldID string     `json:"fieldId" validate:"required"`
	Label   string     `json:"label,omitempty"`
}

// Transformation names a registered transform plus its free-form format/options
// string (e.g. a date layout or a decimals count).
type Transformation struct {
	Type   string `json:"type" validate:"required"`
	Format string `json:"format,omitempty"`
}

// FieldMapping is the persisted unit: one target field receives its value from
// one source, optionally through a transformation.
type FieldMapping struct {
	ID             string          `json:"id"`
	TargetFormID   string          `json:"targetFormId" validate:"required"`
	TargetFieldID  string          `json:"targetFieldId" validate:"required"`
	Source         *MappingSource  `json:"source" validate:"required"`
	Transformation *Transformation `json:"transformation,omitempty"`
}

// HasTransformation reports whether the mapping carries a named transformation.
func (m *FieldMapping) HasTransformation() bool {
	return m.Transformation != nil && m.Transformation.Type != ""
}

// ValidationResult aggregates the outcome of validating one mapping or value.
// Errors are human-readable; an empty list implies IsValid.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// OK returns a passing result.
func OK() ValidationResult {
	return ValidationResult{IsValid: true}
}

// Invalid returns a failing result carrying the given messages.
func Invalid(errs ...string) ValidationResult {
	return ValidationResult{IsValid: false, Errors: errs}
}

// PreviewData is the read model for the live mapping preview.
type PreviewData struct {
	Source      any    `json:"source"`
	Transformed any    `json:"transformed"`
	Label       string `json:"label"`
}

// ExportVersion is the current export document version.
const ExportVersion = "1.0"

// ExportDocument is the wire format for exporting and importing a form's
// mapping set.
type ExportDocument struct {
	Version   string         `json:"version"`
	Timestamp time.Time      `json:"timestamp"`
	Mappings  []FieldMapping `json:"mappings"`
}

// MappingPatch is a partial update applied to an existing mapping through the
// store. Nil fields are left unchanged.
type MappingPatch struct {
	Source         *MappingSource  `json:"source,omitempty"`
	Transformation *Transformation `json:"transformation,omitempty"`
	TargetFieldID  *string         `json:"targetFieldId,omitempty"`
}

// String renders a source for logs and labels.
func (s MappingSource) String() string {
	if s.Kind == SourceGlobal {
		return fmt.Sprintf("global:%s", s.FieldID)
	}
	return fmt.Sprintf("%s:%s.%s", s.Kind, s.FormID, s.FieldID)
}
