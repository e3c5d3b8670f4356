package formlink

import (
	"fmt"
	"strings"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeTransformation ErrorType = "transformation"
	ErrorTypePersistence    ErrorType = "persistence"
	ErrorTypeImport         ErrorType = "import"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeInternal       ErrorType = "internal"
)

// Error codes used across the engine
const (
	ErrCodeValidationFailed      = "VALIDATION_FAILED"
	ErrCodeTypeIncompatible      = "TYPE_INCOMPATIBLE"
	ErrCodeFormNotFound          = "FORM_NOT_FOUND"
	ErrCodeFieldNotFound         = "FIELD_NOT_FOUND"
	ErrCodeSchemaNotFound        = "SCHEMA_NOT_FOUND"
	ErrCodeMappingNotFound       = "MAPPING_NOT_FOUND"
	ErrCodeTransformNotFound     = "TRANSFORM_NOT_FOUND"
	ErrCodeTransformInvalid      = "TRANSFORM_INVALID_INPUT"
	ErrCodeTransformRegistration = "TRANSFORM_REGISTRATION_FAILED"
	ErrCodeInvalidFormat         = "INVALID_FORMAT"
	ErrCodeInvalidJSON           = "INVALID_JSON"
	ErrCodePersistenceFailed     = "PERSISTENCE_FAILED"
	ErrCodeImportRejected        = "IMPORT_REJECTED"
	ErrCodeArchiveFailed         = "ARCHIVE_FAILED"
	ErrCodeInternalError         = "INTERNAL_ERROR"
)

// FormlinkError is the unified structured error for the mapping engine.
type FormlinkError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	FormID  string         `json:"formId,omitempty"`
	FieldID string         `json:"fieldId,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *FormlinkError) Error() string {
	switch {
	case e.FormID != "" && e.FieldID != "":
		return fmt.Sprintf("[%s:%s] form '%s' field '%s': %s", e.Type, e.Code, e.FormID, e.FieldID, e.Message)
	case e.FormID != "":
		return fmt.Sprintf("[%s:%s] form '%s': %s", e.Type, e.Code, e.FormID, e.Message)
	case e.FieldID != "":
		return fmt.Sprintf("[%s:%s] field '%s': %s", e.Type, e.Code, e.FieldID, e.Message)
	default:
		return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
	}
}

func (e *FormlinkError) Unwrap() error {
	return e.Cause
}

// WithCause adds a cause to the error
func (e *FormlinkError) WithCause(cause error) *FormlinkError {
	e.Cause = cause
	return e
}

// WithForm adds form context to the error
func (e *FormlinkError) WithForm(formID string) *FormlinkError {
	e.FormID = formID
	return e
}

// WithField adds field context to the error
func (e *FormlinkError) WithField(fieldID string) *FormlinkError {
	e.FieldID = fieldID
	return e
}

// WithDetail adds a single detail to the error
func (e *FormlinkError) WithDetail(key string, value any) *FormlinkError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// NewFormlinkError creates a new FormlinkError
func NewFormlinkError(errorType ErrorType, code, message string) *FormlinkError {
	return &FormlinkError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}
}

// NewValidationError creates a validation error with field context
func NewValidationError(fieldID, message string) *FormlinkError {
	return &FormlinkError{
		Type:    ErrorTypeValidation,
		Code:    ErrCodeValidationFailed,
		Message: message,
		FieldID: fieldID,
		Details: make(map[string]any),
	}
}

// NewTypeIncompatibleError creates the single descriptive error for a mapping
// between incompatible semantic types.
func NewTypeIncompatibleError(sourceType, targetType FieldType) *FormlinkError {
	return &FormlinkError{
		Type:    ErrorTypeValidation,
		Code:    ErrCodeTypeIncompatible,
		Message: fmt.Sprintf("source type '%s' cannot be mapped to target type '%s'", sourceType, targetType),
		Details: map[string]any{
			"source_type": string(sourceType),
			"target_type": string(targetType),
		},
	}
}

// NewFormNotFoundError creates a form not found error
func NewFormNotFoundError(formID string) *FormlinkError {
	return &FormlinkError{
		Type:    ErrorTypeNotFound,
		Code:    ErrCodeFormNotFound,
		Message: "form not found in graph",
		FormID:  formID,
		Details: make(map[string]any),
	}
}

// NewMappingNotFoundError creates a mapping not found error
func NewMappingNotFoundError(mappingID string) *FormlinkError {
	return &FormlinkError{
		Type:    ErrorTypeNotFound,
		Code:    ErrCodeMappingNotFound,
		Message: fmt.Sprintf("mapping '%s' not found", mappingID),
		Details: make(map[string]any),
	}
}

// NewTransformNotFoundError creates an unknown transform error
func NewTransformNotFoundError(name string) *FormlinkError {
	return &FormlinkError{
		Type:    ErrorTypeTransformation,
		Code:    ErrCodeTransformNotFound,
		Message: fmt.Sprintf("transformation '%s' is not registered", name),
		Details: make(map[string]any),
	}
}

// NewTransformInvalidInputError creates the rejection error raised when a
// transform's own validator fails; messages are joined into one line.
func NewTransformInvalidInputError(name string, messages []string) *FormlinkError {
	return &FormlinkError{
		Type:    ErrorTypeTransformation,
		Code:    ErrCodeTransformInvalid,
		Message: fmt.Sprintf("transformation '%s' rejected input: %s", name, strings.Join(messages, "; ")),
		Details: map[string]any{"validation_errors": messages},
	}
}

// NewPersistenceError creates a persistence error
func NewPersistenceError(formID, message string, cause error) *FormlinkError {
	return &FormlinkError{
		Type:    ErrorTypePersistence,
		Code:    ErrCodePersistenceFailed,
		Message: message,
		FormID:  formID,
		Cause:   cause,
		Details: make(map[string]any),
	}
}

// NewImportRejectedError creates the aggregate error for an atomically
// rejected import.
func NewImportRejectedError(messages []string) *FormlinkError {
	return &FormlinkError{
		Type:    ErrorTypeImport,
		Code:    ErrCodeImportRejected,
		Message: fmt.Sprintf("import rejected: %d mapping(s) failed validation", len(messages)),
		Details: map[string]any{"errors": messages},
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string, cause error) *FormlinkError {
	return &FormlinkError{
		Type:    ErrorTypeInternal,
		Code:    ErrCodeInternalError,
		Message: message,
		Cause:   cause,
		Details: make(map[string]any),
	}
}

// ============================================================================
// ValidationErrors
// ============================================================================

// ValidationErrors represents multiple validation errors
type ValidationErrors struct {
	Errors []*FormlinkError `json:"errors"`
}

// NewValidationErrors creates a new ValidationErrors instance
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{Errors: make([]*FormlinkError, 0)}
}

// Error implements the error interface for ValidationErrors
func (ve *ValidationErrors) Error() string {
	if len(ve.Errors) == 0 {
		return "no validation errors"
	}
	if len(ve.Errors) == 1 {
		return ve.Errors[0].Error()
	}
	return fmt.Sprintf("multiple validation errors: %d errors found", len(ve.Errors))
}

// Add adds a new error to the collection
func (ve *ValidationErrors) Add(err *FormlinkError) {
	ve.Errors = append(ve.Errors, err)
}

// HasErrors returns true if there are any errors
func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

// Messages returns the human-readable message list.
func (ve *ValidationErrors) Messages() []string {
	out := make([]string, 0, len(ve.Errors))
	for _, e := range ve.Errors {
		out = append(out, e.Message)
	}
	return out
}

// ToError returns the collection as an error if non-empty, nil otherwise
func (ve *ValidationErrors) ToError() error {
	if ve.HasErrors() {
		return ve
	}
	return nil
}

// ============================================================================
// Error checking utilities
// ============================================================================

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	if fe, ok := err.(*FormlinkError); ok {
		return fe.Type == ErrorTypeValidation
	}
	return false
}

// IsNotFoundError checks if an error is a not-found error
func IsNotFoundError(err error) bool {
	if fe, ok := err.(*FormlinkError); ok {
		return fe.Type == ErrorTypeNotFound
	}
	return false
}

// IsPersistenceError checks if an error is a persistence error
func IsPersistenceError(err error) bool {
	if fe, ok := err.(*FormlinkError); ok {
		return fe.Type == ErrorTypePersistence
	}
	return false
}

// IsTransformationError checks if an error is a transformation error
func IsTransformationError(err error) bool {
	if fe, ok := err.(*FormlinkError); ok {
		return fe.Type == ErrorTypeTransformation
	}
	return false
}
