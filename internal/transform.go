package internal

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/caremesh/formlink"
)

// TransformFunc converts a source value into the value written to the target
// field. format carries the transform's free-form options string.
type TransformFunc func(value any, format string) (any, error)

// ValidateFunc checks a value/format pair before the transform runs and
// returns every failing rule's message.
type ValidateFunc func(value any, format string) []string

// Transform is one named entry in the registry.
type Transform struct {
	Name       string
	Label      string
	AppliesTo  []formlink.FieldType
	ParamNames []string
	Apply      TransformFunc
	Validate   ValidateFunc
}

func (t Transform) appliesTo(fieldType formlink.FieldType) bool {
	for _, ft := range t.AppliesTo {
		if ft == fieldType {
			return true
		}
	}
	return false
}

// Registry is the catalogue of named value transforms. Custom transforms may
// be registered at runtime; registration is validated eagerly so a malformed
// handler is rejected up front instead of failing at apply time.
type Registry struct {
	mu         sync.RWMutex
	transforms map[string]Transform
	order      []string
}

// NewRegistry creates a registry populated with the built-in transforms.
func NewRegistry() *Registry {
	r := &Registry{
		transforms: make(map[string]Transform),
	}
	for _, t := range builtinTransforms() {
		// Built-ins are well-formed by construction.
		_ = r.Register(t)
	}
	return r
}

// Register adds a transform under its name. It rejects empty names, missing
// handlers, and empty applicability sets.
func (r *Registry) Register(t Transform) error {
	if t.Name == "" {
		return formlink.NewFormlinkError(formlink.ErrorTypeTransformation,
			formlink.ErrCodeTransformRegistration, "transform name must not be empty")
	}
	if t.Apply == nil {
		return formlink.NewFormlinkError(formlink.ErrorTypeTransformation,
			formlink.ErrCodeTransformRegistration, "transform function must not be nil").WithDetail("name", t.Name)
	}
	if len(t.AppliesTo) == 0 {
		return formlink.NewFormlinkError(formlink.ErrorTypeTransformation,
			formlink.ErrCodeTransformRegistration, "transform must declare at least one applicable type").WithDetail("name", t.Name)
	}
	if t.Validate == nil {
		t.Validate = func(any, string) []string { return nil }
	}
	if t.Label == "" {
		t.Label = t.Name
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.transforms[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.transforms[t.Name] = t
	return nil
}

// Lookup returns the transform registered under name.
func (r *Registry) Lookup(name string) (Transform, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transforms[name]
	return t, ok
}

// Apply runs the named transform. The transform's own validator runs first;
// an invalid value/format pair is rejected with the joined validation errors,
// never silently coerced.
func (r *Registry) Apply(name string, value any, format string) (any, error) {
	t, ok := r.Lookup(name)
	if !ok {
		return nil, formlink.NewTransformNotFoundError(name)
	}
	if msgs := t.Validate(value, format); len(msgs) > 0 {
		return nil, formlink.NewTransformInvalidInputError(name, msgs)
	}
	return t.Apply(value, format)
}

// Available returns the names of every transform applicable to either the
// source or the target type, deduplicated, in registration order. The union
// (not intersection) is intentional: a string-to-date mapping offers both
// string transforms and date transforms.
func (r *Registry) Available(sourceType, targetType formlink.FieldType) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for _, name := range r.order {
		t := r.transforms[name]
		if t.appliesTo(sourceType) || t.appliesTo(targetType) {
			names = append(names, name)
		}
	}
	return names
}

// Label returns the display label for a registered transform, falling back to
// the raw name.
func (r *Registry) Label(name string) string {
	if t, ok := r.Lookup(name); ok {
		return t.Label
	}
	return name
}

// ----------------------------------------------------------------------------
// Built-in transforms
// ----------------------------------------------------------------------------

var stringTypes = []formlink.FieldType{
	formlink.FieldTypeString, formlink.FieldTypeText, formlink.FieldTypeEmail,
	formlink.FieldTypeURL, formlink.FieldTypeTel,
}

var numberTypes = []formlink.FieldType{
	formlink.FieldTypeNumber, formlink.FieldTypeInteger, formlink.FieldTypeFloat,
}

var dateTypes = []formlink.FieldType{
	formlink.FieldTypeDate, formlink.FieldTypeDateTime,
}

func builtinTransforms() []Transform {
	return []Transform{
		{
			Name:      "uppercase",
			Label:     "Uppercase",
			AppliesTo: stringTypes,
			Validate:  requireString,
			Apply: func(value any, _ string) (any, error) {
				return strings.ToUpper(value.(string)), nil
			},
		},
		{
			Name:      "lowercase",
			Label:     "Lowercase",
			AppliesTo: stringTypes,
			Validate:  requireString,
			Apply: func(value any, _ string) (any, error) {
				return strings.ToLower(value.(string)), nil
			},
		},
		{
			Name:      "capitalize",
			Label:     "Capitalize",
			AppliesTo: stringTypes,
			Validate:  requireString,
			Apply: func(value any, _ string) (any, error) {
				return capitalize(value.(string)), nil
			},
		},
		{
			Name:      "trim",
			Label:     "Trim Whitespace",
			AppliesTo: stringTypes,
			Validate:  requireString,
			Apply: func(value any, _ string) (any, error) {
				return strings.TrimSpace(value.(string)), nil
			},
		},
		{
			Name:       "formatDate",
			Label:      "Format Date",
			AppliesTo:  dateTypes,
			ParamNames: []string{"format"},
			Validate: func(value any, format string) []string {
				var msgs []string
				if _, err := coerceTime(value); err != nil {
					msgs = append(msgs, fmt.Sprintf("value %v is not a recognizable date", value))
				}
				if err := validateDateTokens(format); err != nil {
					msgs = append(msgs, err.Error())
				}
				return msgs
			},
			Apply: func(value any, format string) (any, error) {
				t, err := coerceTime(value)
				if err != nil {
					return nil, err
				}
				if format == "" {
					format = "YYYY/MM/DD"
				}
				return t.Format(dateTokensToLayout(format)), nil
			},
		},
		{
			Name:      "formatPhone",
			Label:     "Format Phone Number",
			AppliesTo: []formlink.FieldType{formlink.FieldTypeTel, formlink.FieldTypeString, formlink.FieldTypeText},
			Validate:  requireString,
			Apply: func(value any, _ string) (any, error) {
				s := value.(string)
				digits := digitsOnly(s)
				// Not a 10-digit US number: pass the input through unchanged
				// rather than guessing at a format.
				if len(digits) != 10 {
					return s, nil
				}
				return fmt.Sprintf("(%s) %s-%s", digits[0:3], digits[3:6], digits[6:10]), nil
			},
		},
		{
			Name:      "formatSSN",
			Label:     "Format SSN",
			AppliesTo: []formlink.FieldType{formlink.FieldTypeString, formlink.FieldTypeText},
			Validate:  requireString,
			Apply: func(value any, _ string) (any, error) {
				s := value.(string)
				digits := digitsOnly(s)
				if len(digits) != 9 {
					return s, nil
				}
				return fmt.Sprintf("%s-%s-%s", digits[0:3], digits[3:5], digits[5:9]), nil
			},
		},
		{
			Name:       "round",
			Label:      "Round",
			AppliesTo:  numberTypes,
			ParamNames: []string{"decimals"},
			Validate: func(value any, format string) []string {
				var msgs []string
				if _, err := coerceFloat(value); err != nil {
					msgs = append(msgs, fmt.Sprintf("value %v is not numeric", value))
				}
				if format != "" {
					if _, err := strconv.Atoi(strings.TrimSpace(format)); err != nil {
						msgs = append(msgs, fmt.Sprintf("decimals parameter %q is not an integer", format))
					}
				}
				return msgs
			},
			Apply: func(value any, format string) (any, error) {
				f, err := coerceFloat(value)
				if err != nil {
					return nil, err
				}
				decimals := 0
				if format != "" {
					decimals, _ = strconv.Atoi(strings.TrimSpace(format))
				}
				shift := math.Pow10(decimals)
				return math.Round(f*shift) / shift, nil
			},
		},
		{
			Name:      "floor",
			Label:     "Floor",
			AppliesTo: numberTypes,
			Validate:  requireNumeric,
			Apply: func(value any, _ string) (any, error) {
				f, err := coerceFloat(value)
				if err != nil {
					return nil, err
				}
				return math.Floor(f), nil
			},
		},
		{
			Name:      "ceil",
			Label:     "Ceiling",
			AppliesTo: numberTypes,
			Validate:  requireNumeric,
			Apply: func(value any, _ string) (any, error) {
				f, err := coerceFloat(value)
				if err != nil {
					return nil, err
				}
				return math.Ceil(f), nil
			},
		},
	}
}

func requireString(value any, _ string) []string {
	if _, ok := value.(string); !ok {
		return []string{fmt.Sprintf("expected a string value, got %T", value)}
	}
	return nil
}

func requireNumeric(value any, _ string) []string {
	if _, err := coerceFloat(value); err != nil {
		return []string{fmt.Sprintf("value %v is not numeric", value)}
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func coerceFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", value)
	}
}

func coerceTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		if epoch, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.UnixMilli(epoch), nil
		}
		formats := []string{
			time.RFC3339Nano,
			time.RFC3339,
			"2006-01-02",
			"2006/01/02",
			"2006-01",
		}
		for _, format := range formats {
			if parsed, err := time.Parse(format, v); err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, fmt.Errorf("unsupported time format: %s", v)
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to time.Time", value)
	}
}

// dateTokens maps the supported format tokens to Go reference-time layout
// fragments. This token style is the single authoritative date mini-language;
// longer tokens are listed first so MM is consumed before M-like fragments.
var dateTokens = []struct {
	token  string
	layout string
}{
	{"YYYY", "2006"},
	{"MM", "01"},
	{"DD", "02"},
	{"HH", "15"},
	{"mm", "04"},
	{"ss", "05"},
}

func dateTokensToLayout(format string) string {
	layout := format
	for _, t := range dateTokens {
		layout = strings.ReplaceAll(layout, t.token, t.layout)
	}
	return layout
}

func validateDateTokens(format string) error {
	if format == "" {
		return nil
	}
	stripped := format
	for _, t := range dateTokens {
		stripped = strings.ReplaceAll(stripped, t.token, "")
	}
	for _, r := range stripped {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return fmt.Errorf("unsupported token in date format %q", format)
		}
	}
	return nil
}
