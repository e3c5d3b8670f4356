package internal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caremesh/formlink"
)

func TestRegistry_StringTransforms(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name     string
		value    any
		expected any
	}{
		{"uppercase", "hello world", "HELLO WORLD"},
		{"lowercase", "HELLO World", "hello world"},
		{"capitalize", "jANE", "Jane"},
		{"capitalize", "", ""},
		{"trim", "  padded  ", "padded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Apply(tt.name, tt.value, "")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRegistry_UppercaseLowercaseRoundTrip(t *testing.T) {
	r := NewRegistry()

	upper, err := r.Apply("uppercase", "mixed Case", "")
	require.NoError(t, err)
	lower, err := r.Apply("lowercase", upper, "")
	require.NoError(t, err)
	assert.Equal(t, "mixed case", lower)
}

func TestRegistry_TrimIdempotent(t *testing.T) {
	r := NewRegistry()

	once, err := r.Apply("trim", "  x  ", "")
	require.NoError(t, err)
	twice, err := r.Apply("trim", once, "")
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestRegistry_FormatPhone(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		value    string
		expected string
	}{
		{"5551234567", "(555) 123-4567"},
		{"555-123-4567", "(555) 123-4567"},
		{"(555) 123 4567", "(555) 123-4567"},
		// Not a 10-digit number: passed through untouched.
		{"123", "123"},
		{"55512345678", "55512345678"},
	}
	for _, tt := range tests {
		got, err := r.Apply("formatPhone", tt.value, "")
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got, "input %q", tt.value)
	}
}

func TestRegistry_FormatSSN(t *testing.T) {
	r := NewRegistry()

	got, err := r.Apply("formatSSN", "123456789", "")
	require.NoError(t, err)
	assert.Equal(t, "123-45-6789", got)

	passthrough, err := r.Apply("formatSSN", "12345", "")
	require.NoError(t, err)
	assert.Equal(t, "12345", passthrough)
}

func TestRegistry_FormatDate(t *testing.T) {
	r := NewRegistry()

	got, err := r.Apply("formatDate", "2024-01-15", "MM/DD/YYYY")
	require.NoError(t, err)
	assert.Equal(t, "01/15/2024", got)

	withTime, err := r.Apply("formatDate", "2024-01-15T09:30:45Z", "YYYY/MM/DD HH:mm:ss")
	require.NoError(t, err)
	assert.Equal(t, "2024/01/15 09:30:45", withTime)

	defaulted, err := r.Apply("formatDate", "2024-01-15", "")
	require.NoError(t, err)
	assert.Equal(t, "2024/01/15", defaulted)
}

func TestRegistry_FormatDateRejectsUnknownTokens(t *testing.T) {
	r := NewRegistry()

	_, err := r.Apply("formatDate", "2024-01-15", "QQ/MM/YYYY")
	require.Error(t, err)
	assert.True(t, formlink.IsTransformationError(err))
	assert.Contains(t, err.Error(), "unsupported token")
}

func TestRegistry_NumericTransforms(t *testing.T) {
	r := NewRegistry()

	rounded, err := r.Apply("round", 3.14159, "2")
	require.NoError(t, err)
	assert.Equal(t, 3.14, rounded)

	whole, err := r.Apply("round", 2.5, "")
	require.NoError(t, err)
	assert.Equal(t, 3.0, whole)

	floored, err := r.Apply("floor", 2.9, "")
	require.NoError(t, err)
	assert.Equal(t, 2.0, floored)

	ceiled, err := r.Apply("ceil", 2.1, "")
	require.NoError(t, err)
	assert.Equal(t, 3.0, ceiled)

	fromString, err := r.Apply("round", "3.456", "1")
	require.NoError(t, err)
	assert.Equal(t, 3.5, fromString)
}

func TestRegistry_ApplyRejectsInvalidInput(t *testing.T) {
	r := NewRegistry()

	_, err := r.Apply("uppercase", 42, "")
	require.Error(t, err)
	assert.True(t, formlink.IsTransformationError(err))
	assert.Contains(t, err.Error(), "rejected input")

	_, err = r.Apply("round", "not a number", "")
	require.Error(t, err)
	assert.True(t, formlink.IsTransformationError(err))
}

func TestRegistry_ApplyUnknownTransform(t *testing.T) {
	r := NewRegistry()

	_, err := r.Apply("nope", "x", "")
	require.Error(t, err)
	fe, ok := err.(*formlink.FormlinkError)
	require.True(t, ok)
	assert.Equal(t, formlink.ErrCodeTransformNotFound, fe.Code)
}

func TestRegistry_RegisterCustomTransform(t *testing.T) {
	r := NewRegistry()

	err := r.Register(Transform{
		Name:      "reverse",
		AppliesTo: []formlink.FieldType{formlink.FieldTypeString},
		Apply: func(value any, _ string) (any, error) {
			s := value.(string)
			runes := []rune(s)
			for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
				runes[i], runes[j] = runes[j], runes[i]
			}
			return string(runes), nil
		},
	})
	require.NoError(t, err)

	got, err := r.Apply("reverse", "abc", "")
	require.NoError(t, err)
	assert.Equal(t, "cba", got)

	// Label defaults to the name.
	assert.Equal(t, "reverse", r.Label("reverse"))
}

func TestRegistry_RegisterRejectsMalformed(t *testing.T) {
	r := NewRegistry()

	err := r.Register(Transform{AppliesTo: stringTypes, Apply: func(v any, _ string) (any, error) { return v, nil }})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name must not be empty")

	err = r.Register(Transform{Name: "x", AppliesTo: stringTypes})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "function must not be nil")

	err = r.Register(Transform{Name: "x", Apply: func(v any, _ string) (any, error) { return v, nil }})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one applicable type")
}

func TestRegistry_AvailableIsUnionOfSourceAndTarget(t *testing.T) {
	r := NewRegistry()

	names := r.Available(formlink.FieldTypeString, formlink.FieldTypeDate)
	assert.Contains(t, names, "uppercase")
	assert.Contains(t, names, "formatDate")
	assert.NotContains(t, names, "round")

	// No duplicates even when a transform applies to both sides.
	seen := map[string]int{}
	for _, n := range r.Available(formlink.FieldTypeString, formlink.FieldTypeText) {
		seen[n]++
	}
	for name, count := range seen {
		assert.Equal(t, 1, count, "transform %s listed more than once", name)
	}
}

func TestRegistry_AvailableRegistrationOrder(t *testing.T) {
	r := NewRegistry()

	names := r.Available(formlink.FieldTypeString, formlink.FieldTypeString)
	require.NotEmpty(t, names)
	assert.Equal(t, "uppercase", names[0])
	assert.True(t, strings.HasPrefix(strings.Join(names, ","), "uppercase,lowercase,capitalize,trim"))
}
