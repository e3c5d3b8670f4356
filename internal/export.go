package internal

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/caremesh/formlink"
)

// Exporter moves whole mapping sets across the wire format. Imports are
// atomic: either every mapping in the document validates and the set replaces
// the store's contents as one undoable step, or nothing changes.
type Exporter struct {
	graph     *formlink.FormGraph
	registry  *Registry
	validator *ValidationService
	logger    *zap.SugaredLogger
}

// NewExporter creates an exporter bound to a graph, transform registry, and
// validation service.
func NewExporter(graph *formlink.FormGraph, registry *Registry, validator *ValidationService) *Exporter {
	return &Exporter{
		graph:     graph,
		registry:  registry,
		validator: validator,
		logger:    zap.S(),
	}
}

// Export snapshots a store's mapping set into a versioned document.
func (e *Exporter) Export(store *Store) formlink.ExportDocument {
	return formlink.ExportDocument{
		Version:   formlink.ExportVersion,
		Timestamp: time.Now().UTC(),
		Mappings:  store.Mappings(),
	}
}

// ExportJSON renders the export document as indented JSON.
func (e *Exporter) ExportJSON(store *Store) ([]byte, error) {
	doc := e.Export(store)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, formlink.NewInternalError("failed to marshal export document", err)
	}
	return data, nil
}

// Import parses an export document and replaces the store's mapping set with
// its contents. Every mapping is validated first; a single invalid entry
// rejects the whole document and leaves the store untouched. A version
// mismatch is tolerated with a warning. Returns the number of imported
// mappings.
func (e *Exporter) Import(store *Store, data []byte) (int, error) {
	var doc formlink.ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, formlink.NewFormlinkError(formlink.ErrorTypeImport,
			formlink.ErrCodeInvalidJSON, "import document is not valid JSON").WithCause(err)
	}

	if doc.Version != formlink.ExportVersion {
		e.logger.Warnw("import document version differs from current",
			"documentVersion", doc.Version,
			"currentVersion", formlink.ExportVersion)
	}

	var msgs []string
	for i, mapping := range doc.Mappings {
		result := e.validator.ValidateMapping(e.graph, mapping)
		for _, msg := range result.Errors {
			msgs = append(msgs, fmt.Sprintf("mapping %d: %s", i, msg))
		}
		if mapping.HasTransformation() {
			if _, ok := e.registry.Lookup(mapping.Transformation.Type); !ok {
				msgs = append(msgs, fmt.Sprintf("mapping %d: transformation '%s' is not registered", i, mapping.Transformation.Type))
			}
		}
	}
	if len(msgs) > 0 {
		return 0, formlink.NewImportRejectedError(msgs)
	}

	imported := make([]formlink.FieldMapping, len(doc.Mappings))
	for i, mapping := range doc.Mappings {
		if mapping.ID == "" {
			mapping.ID = uuid.Must(uuid.NewV7()).String()
		}
		imported[i] = mapping
	}
	store.Replace(imported)

	e.logger.Infow("mappings imported",
		"formId", store.FormID(),
		"count", len(imported))
	return len(imported), nil
}
