package formlink

// FieldType represents the closed set of semantic field types a form schema
// may declare.
type FieldType string

const (
	FieldTypeString      FieldType = "string"
	FieldTypeNumber      FieldType = "number"
	FieldTypeBoolean     FieldType = "boolean"
	FieldTypeDate        FieldType = "date"
	FieldTypeDateTime    FieldType = "datetime"
	FieldTypeInteger     FieldType = "integer"
	FieldTypeFloat       FieldType = "float"
	FieldTypeText        FieldType = "text"
	FieldTypeEmail       FieldType = "email"
	FieldTypeURL         FieldType = "url"
	FieldTypeTel         FieldType = "tel"
	FieldTypeObject      FieldType = "object"
	FieldTypeArray       FieldType = "array"
	FieldTypeFile        FieldType = "file"
	FieldTypeImage       FieldType = "image"
	FieldTypeSelect      FieldType = "select"
	FieldTypeMultiSelect FieldType = "multiselect"
	FieldTypeRadio       FieldType = "radio"
	FieldTypeCheckbox    FieldType = "checkbox"
)

// FieldSchema declares one field of a form: its semantic type, display title,
// optional enumeration, nested properties for object/array fields, and
// validation constraints.
type FieldSchema struct {
	Type       FieldType               `json:"type"`
	Title      string                  `json:"title,omitempty"`
	Enum       []string                `json:"enum,omitempty"`
	Properties map[string]*FieldSchema `json:"properties,omitempty"`
	Pattern    string                  `json:"pattern,omitempty"`
	MinLength  *int                    `json:"minLength,omitempty"`
	MaxLength  *int                    `json:"maxLength,omitempty"`
	Minimum    *float64                `json:"minimum,omitempty"`
	Maximum    *float64                `json:"maximum,omitempty"`
}

// DisplayName returns the field title, falling back to the field id.
func (f FieldSchema) DisplayName(fieldID string) string {
	if f.Title != "" {
		return f.Title
	}
	return fieldID
}

// FormSchema is the field dictionary backing one form component.
type FormSchema struct {
	ID       string                 `json:"id"`
	Fields   map[string]FieldSchema `json:"fields"`
	Required []string               `json:"required,omitempty"`
}

// IsRequired reports whether the schema declares the field as required.
func (s FormSchema) IsRequired(fieldID string) bool {
	for _, r := range s.Required {
		if r == fieldID {
			return true
		}
	}
	return false
}

// FormNode is one data-collection form in the dependency graph. Prerequisites
// lists the ids of forms that must be completed first, in declared order.
type FormNode struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	ComponentID   string   `json:"componentId"`
	Prerequisites []string `json:"prerequisites,omitempty"`
}

// FormGraph is the whole dependency graph: form nodes plus the schemas their
// component ids resolve to. The graph is supplied by an external collaborator
// and treated as read-only within one editing session. A node whose
// ComponentID does not resolve to a schema is treated as schema-less.
type FormGraph struct {
	Nodes   []FormNode            `json:"nodes"`
	Schemas map[string]FormSchema `json:"schemas"`
}

// Node returns the form node with the given id.
func (g *FormGraph) Node(id string) (FormNode, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return FormNode{}, false
}

// SchemaFor resolves the schema backing a node. The second return is false for
// schema-less forms.
func (g *FormGraph) SchemaFor(node FormNode) (FormSchema, bool) {
	if g.Schemas == nil {
		return FormSchema{}, false
	}
	s, ok := g.Schemas[node.ComponentID]
	return s, ok
}

// FieldSchema resolves a single field's schema on the given form. It returns
// false when the form, its schema, or the field is unknown.
func (g *FormGraph) FieldSchema(formID, fieldID string) (FieldSchema, bool) {
	node, ok := g.Node(formID)
	if !ok {
		return FieldSchema{}, false
	}
	schema, ok := g.SchemaFor(node)
	if !ok {
		return FieldSchema{}, false
	}
	f, ok := schema.Fields[fieldID]
	return f, ok
}
