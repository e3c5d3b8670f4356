package internal

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/caremesh/formlink"
)

// globalFieldTypes gives the fixed global sources their semantic types so the
// composed type-compatibility check also covers graph-independent sources.
var globalFieldTypes = map[string]formlink.FieldType{
	formlink.GlobalFieldUserName:  formlink.FieldTypeString,
	formlink.GlobalFieldUserEmail: formlink.FieldTypeEmail,
}

// ValidationService validates proposed mappings and raw field values. It owns
// a struct validator for identity checks and a rule registry for value
// checks; both are instance state so tests can construct isolated services.
type ValidationService struct {
	validate *validator.Validate
	rules    *RuleRegistry
}

// NewValidationService creates a validation service with the built-in
// rule-sets registered.
func NewValidationService() *ValidationService {
	return &ValidationService{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		rules:    NewRuleRegistry(),
	}
}

// Rules exposes the rule registry for runtime rule-set registration.
func (s *ValidationService) Rules() *RuleRegistry {
	return s.rules
}

// structuralMessages maps validator namespaces to the stable human-readable
// messages the UI layer shows, in the order they are reported.
var structuralMessages = []struct {
	namespace string
	message   string
}{
	{"FieldMapping.TargetFormID", "Target form ID is required"},
	{"FieldMapping.TargetFieldID", "Target field ID is required"},
	{"FieldMapping.Source", "Mapping source is required"},
	{"FieldMapping.Source.Kind", "Mapping source type is required"},
	{"FieldMapping.Source.FieldID", "Source field ID is required"},
	{"FieldMapping.Source.FormID", "Source form ID is required"},
}

// ValidateMapping checks a proposed mapping: required identifiers first, then
// transformation well-formedness, then type compatibility whenever both field
// schemas are resolvable from the graph. Structural checks still run when
// schemas are missing. It reports findings as an error list and never panics
// for well-formed-but-invalid input.
func (s *ValidationService) ValidateMapping(graph *formlink.FormGraph, mapping formlink.FieldMapping) formlink.ValidationResult {
	var msgs []string

	if err := s.validate.Struct(mapping); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return formlink.Invalid(fmt.Sprintf("mapping is not validatable: %v", err))
		}
		failed := make(map[string]bool, len(fieldErrs))
		for _, fe := range fieldErrs {
			failed[fe.Namespace()] = true
		}
		for _, sm := range structuralMessages {
			if failed[sm.namespace] {
				msgs = append(msgs, sm.message)
			}
		}
	}

	if mapping.Transformation != nil && mapping.Transformation.Type == "" {
		msgs = append(msgs, "Transformation type must not be empty")
	}

	if mapping.Source != nil {
		if msg, ok := s.typeCompatibilityMessage(graph, mapping); !ok {
			msgs = append(msgs, msg)
		}
	}

	if len(msgs) > 0 {
		return formlink.Invalid(msgs...)
	}
	return formlink.OK()
}

// typeCompatibilityMessage resolves both field schemas and checks the
// compatibility lattice. Unresolvable schemas skip the check (schema-less
// forms are legal), returning ok.
func (s *ValidationService) typeCompatibilityMessage(graph *formlink.FormGraph, mapping formlink.FieldMapping) (string, bool) {
	if graph == nil {
		return "", true
	}

	targetField, ok := graph.FieldSchema(mapping.TargetFormID, mapping.TargetFieldID)
	if !ok {
		return "", true
	}

	var sourceType formlink.FieldType
	switch mapping.Source.Kind {
	case formlink.SourceGlobal:
		t, ok := globalFieldTypes[mapping.Source.FieldID]
		if !ok {
			return "", true
		}
		sourceType = t
	case formlink.SourceDirect, formlink.SourceTransitive:
		sourceField, ok := graph.FieldSchema(mapping.Source.FormID, mapping.Source.FieldID)
		if !ok {
			return "", true
		}
		sourceType = sourceField.Type
	default:
		return "", true
	}

	if !formlink.ValidateFieldTypes(sourceType, targetField.Type) {
		return formlink.NewTypeIncompatibleError(sourceType, targetField.Type).Message, false
	}
	return "", true
}

// ValidateFieldValue applies the named rule-set for the given field type and
// reports every failing rule's message. Required-ness is checked first when
// the owning schema declares the field required.
func (s *ValidationService) ValidateFieldValue(value any, fieldType formlink.FieldType, required bool) formlink.ValidationResult {
	var msgs []string
	if required {
		msgs = append(msgs, s.rules.Apply("required", value)...)
	}
	if s.rules.Has(string(fieldType)) {
		msgs = append(msgs, s.rules.Apply(string(fieldType), value)...)
	}
	if len(msgs) > 0 {
		return formlink.Invalid(msgs...)
	}
	return formlink.OK()
}

// ValidateAgainstSchema validates a value against a field's declared schema
// constraints (pattern, length, range, enum) via JSON Schema resolution.
func (s *ValidationService) ValidateAgainstSchema(field formlink.FieldSchema, value any) error {
	schemaMap := fieldSchemaToJSONSchema(field)

	schemaBytes, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("failed to marshal schema for validation: %w", err)
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(schemaBytes, &schema); err != nil {
		return fmt.Errorf("failed to unmarshal into jsonschema.Schema: %w", err)
	}

	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return fmt.Errorf("failed to resolve JSON schema: %w", err)
	}

	if err := resolved.Validate(value); err != nil {
		return fmt.Errorf("value validation failed: %w", err)
	}
	return nil
}

// fieldSchemaToJSONSchema lowers a semantic field schema to a plain JSON
// Schema document.
func fieldSchemaToJSONSchema(field formlink.FieldSchema) map[string]any {
	schema := map[string]any{
		"type": jsonTypeFor(field.Type),
	}
	if field.Pattern != "" {
		schema["pattern"] = field.Pattern
	}
	if field.MinLength != nil {
		schema["minLength"] = *field.MinLength
	}
	if field.MaxLength != nil {
		schema["maxLength"] = *field.MaxLength
	}
	if field.Minimum != nil {
		schema["minimum"] = *field.Minimum
	}
	if field.Maximum != nil {
		schema["maximum"] = *field.Maximum
	}
	if len(field.Enum) > 0 {
		enum := make([]any, len(field.Enum))
		for i, e := range field.Enum {
			enum[i] = e
		}
		schema["enum"] = enum
	}
	if len(field.Properties) > 0 {
		props := make(map[string]any, len(field.Properties))
		for name, p := range field.Properties {
			if p != nil {
				props[name] = fieldSchemaToJSONSchema(*p)
			}
		}
		if field.Type == formlink.FieldTypeArray {
			schema["items"] = map[string]any{"type": "object", "properties": props}
		} else {
			schema["properties"] = props
		}
	}
	return schema
}

func jsonTypeFor(t formlink.FieldType) string {
	switch t {
	case formlink.FieldTypeNumber, formlink.FieldTypeFloat:
		return "number"
	case formlink.FieldTypeInteger:
		return "integer"
	case formlink.FieldTypeBoolean, formlink.FieldTypeCheckbox:
		return "boolean"
	case formlink.FieldTypeObject:
		return "object"
	case formlink.FieldTypeArray, formlink.FieldTypeMultiSelect:
		return "array"
	default:
		return "string"
	}
}
