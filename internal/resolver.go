package internal

import (
	"fmt"
	"sort"

	"github.com/caremesh/formlink"
)

// DirectPrerequisites returns the target form's immediate prerequisites in
// their declared order. Unknown forms yield an empty list.
func DirectPrerequisites(graph *formlink.FormGraph, targetFormID string) []string {
	node, ok := graph.Node(targetFormID)
	if !ok {
		return nil
	}
	out := make([]string, len(node.Prerequisites))
	copy(out, node.Prerequisites)
	return out
}

// TransitiveDependencies returns every ancestor form beyond the direct
// prerequisites, in depth-first discovery order. The traversal keeps a
// visited set keyed by form id, so a graph that (incorrectly) contains a
// cycle degrades to each node visited once instead of recursing forever.
func TransitiveDependencies(graph *formlink.FormGraph, targetFormID string) []string {
	directList := DirectPrerequisites(graph, targetFormID)
	direct := make(map[string]bool, len(directList))
	for _, id := range directList {
		direct[id] = true
	}

	visited := map[string]bool{targetFormID: true}
	var order []string

	var visit func(formID string)
	visit = func(formID string) {
		if visited[formID] {
			return
		}
		visited[formID] = true
		if !direct[formID] {
			order = append(order, formID)
		}
		if node, ok := graph.Node(formID); ok {
			for _, prereq := range node.Prerequisites {
				visit(prereq)
			}
		}
	}

	// Direct prerequisites are walked for their ancestors but are never
	// themselves reported as transitive.
	for _, prereq := range directList {
		if visited[prereq] {
			continue
		}
		visited[prereq] = true
		if node, ok := graph.Node(prereq); ok {
			for _, ancestor := range node.Prerequisites {
				visit(ancestor)
			}
		}
	}
	return order
}

// AvailableSources computes the ordered candidate mapping sources for a
// target form: fields of direct prerequisites first, then fields of
// transitive dependencies, then the fixed global sources. Forms with no
// resolvable schema contribute zero sources silently. The ordering is a UX
// contract: closest, most-likely-relevant sources come first.
func AvailableSources(graph *formlink.FormGraph, targetFormID string) []formlink.MappingSource {
	var sources []formlink.MappingSource

	for _, formID := range DirectPrerequisites(graph, targetFormID) {
		sources = append(sources, formSources(graph, formID, formlink.SourceDirect)...)
	}
	for _, formID := range TransitiveDependencies(graph, targetFormID) {
		sources = append(sources, formSources(graph, formID, formlink.SourceTransitive)...)
	}

	sources = append(sources,
		formlink.MappingSource{
			Kind:    formlink.SourceGlobal,
			FieldID: formlink.GlobalFieldUserName,
			Label:   "Current User - Name",
		},
		formlink.MappingSource{
			Kind:    formlink.SourceGlobal,
			FieldID: formlink.GlobalFieldUserEmail,
			Label:   "Current User - Email",
		},
	)
	return sources
}

// formSources emits one source per schema field of the given form, sorted by
// field id for deterministic ordering.
func formSources(graph *formlink.FormGraph, formID string, kind formlink.SourceKind) []formlink.MappingSource {
	node, ok := graph.Node(formID)
	if !ok {
		return nil
	}
	schema, ok := graph.SchemaFor(node)
	if !ok {
		// Schema-less forms offer no candidate fields; this is not an error.
		return nil
	}

	fieldIDs := make([]string, 0, len(schema.Fields))
	for fieldID := range schema.Fields {
		fieldIDs = append(fieldIDs, fieldID)
	}
	sort.Strings(fieldIDs)

	sources := make([]formlink.MappingSource, 0, len(fieldIDs))
	for _, fieldID := range fieldIDs {
		field := schema.Fields[fieldID]
		sources = append(sources, formlink.MappingSource{
			Kind:    kind,
			FormID:  formID,
			FieldID: fieldID,
			Label:   fmt.Sprintf("%s - %s", node.Name, field.DisplayName(fieldID)),
		})
	}
	return sources
}
