package formlink

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMappingSource_String(t *testing.T) {
	direct := MappingSource{Kind: SourceDirect, FormID: "insurance", FieldID: "provider"}
	assert.Equal(t, "direct:insurance.provider", direct.String())

	global := MappingSource{Kind: SourceGlobal, FieldID: GlobalFieldUserName}
	assert.Equal(t, "global:user.name", global.String())
}

func TestFieldMapping_HasTransformation(t *testing.T) {
	m := FieldMapping{}
	assert.False(t, m.HasTransformation())

	m.Transformation = &Transformation{}
	assert.False(t, m.HasTransformation())

	m.Transformation = &Transformation{Type: "uppercase"}
	assert.True(t, m.HasTransformation())
}

func TestFieldMapping_JSONShape(t *testing.T) {
	m := FieldMapping{
		ID:            "m1",
		TargetFormID:  "treatment",
		TargetFieldID: "patient_name",
		Source:        &MappingSource{Kind: SourceDirect, FormID: "insurance", FieldID: "provider"},
	}

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "m1",
		"targetFormId": "treatment",
		"targetFieldId": "patient_name",
		"source": {"kind": "direct", "formId": "insurance", "fieldId": "provider"}
	}`, string(data))
}

func TestValidationResult(t *testing.T) {
	ok := OK()
	assert.True(t, ok.IsValid)
	assert.Empty(t, ok.Errors)

	bad := Invalid("first", "second")
	assert.False(t, bad.IsValid)
	assert.Equal(t, []string{"first", "second"}, bad.Errors)
}

func TestFormGraph_Lookups(t *testing.T) {
	graph := &FormGraph{
		Nodes: []FormNode{
			{ID: "intake", Name: "Patient Intake", ComponentID: "comp-intake"},
			{ID: "consent", Name: "Consent", ComponentID: "comp-missing"},
		},
		Schemas: map[string]FormSchema{
			"comp-intake": {
				ID: "comp-intake",
				Fields: map[string]FieldSchema{
					"email": {Type: FieldTypeEmail, Title: "Email"},
				},
				Required: []string{"email"},
			},
		},
	}

	node, ok := graph.Node("intake")
	require.True(t, ok)
	assert.Equal(t, "Patient Intake", node.Name)

	_, ok = graph.Node("unknown")
	assert.False(t, ok)

	schema, ok := graph.SchemaFor(node)
	require.True(t, ok)
	assert.True(t, schema.IsRequired("email"))
	assert.False(t, schema.IsRequired("name"))

	consent, _ := graph.Node("consent")
	_, ok = graph.SchemaFor(consent)
	assert.False(t, ok)

	field, ok := graph.FieldSchema("intake", "email")
	require.True(t, ok)
	assert.Equal(t, FieldTypeEmail, field.Type)
	assert.Equal(t, "Email", field.DisplayName("email"))

	_, ok = graph.FieldSchema("intake", "missing")
	assert.False(t, ok)
	_, ok = graph.FieldSchema("consent", "anything")
	assert.False(t, ok)
}

func TestFieldSchema_DisplayNameFallback(t *testing.T) {
	f := FieldSchema{Type: FieldTypeString}
	assert.Equal(t, "first_name", f.DisplayName("first_name"))
}
