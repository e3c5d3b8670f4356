package internal

import (
	"github.com/caremesh/formlink"
)

// sampleValues backs the live preview when no real submission data exists.
var sampleValues = map[formlink.FieldType]any{
	formlink.FieldTypeString:      "Sample Text",
	formlink.FieldTypeText:        "Sample paragraph text for preview.",
	formlink.FieldTypeEmail:       "jane.doe@example.com",
	formlink.FieldTypeURL:         "https://example.com",
	formlink.FieldTypeTel:         "5551234567",
	formlink.FieldTypeNumber:      float64(42.5),
	formlink.FieldTypeInteger:     float64(42),
	formlink.FieldTypeFloat:       float64(3.14159),
	formlink.FieldTypeBoolean:     true,
	formlink.FieldTypeCheckbox:    true,
	formlink.FieldTypeDate:        "2024-01-15",
	formlink.FieldTypeDateTime:    "2024-01-15T09:30:00Z",
	formlink.FieldTypeSelect:      "option-1",
	formlink.FieldTypeRadio:       "option-1",
	formlink.FieldTypeMultiSelect: []any{"option-1", "option-2"},
	formlink.FieldTypeFile:        "document.pdf",
	formlink.FieldTypeImage:       "photo.png",
}

// SampleValue returns a representative value for a field type, preferring the
// field's first enum option when one is declared. Unknown types fall back to a
// generic string.
func SampleValue(field formlink.FieldSchema) any {
	if len(field.Enum) > 0 {
		return field.Enum[0]
	}
	if v, ok := sampleValues[field.Type]; ok {
		return v
	}
	return "Sample Value"
}

// GlobalSampleValue returns the preview value for a global source field.
func GlobalSampleValue(fieldID string) any {
	switch fieldID {
	case formlink.GlobalFieldUserName:
		return "Jane Doe"
	case formlink.GlobalFieldUserEmail:
		return "jane.doe@example.com"
	default:
		return "Sample Value"
	}
}
