package internal

import (
	"github.com/caremesh/formlink"
)

// History is a linear undo/redo timeline over mapping snapshots. The present
// state always lives in the owning store; History only holds the past and
// future stacks. A new action taken after undos discards the future branch.
type History struct {
	past     [][]formlink.FieldMapping
	future   [][]formlink.FieldMapping
	maxDepth int
}

// NewHistory creates a history bounded to maxDepth undo steps. Zero means
// unbounded.
func NewHistory(maxDepth int) *History {
	return &History{maxDepth: maxDepth}
}

// Push records the pre-change state as the newest past entry and clears the
// redo branch. When the depth bound is exceeded the oldest entry is dropped.
func (h *History) Push(state []formlink.FieldMapping) {
	h.past = append(h.past, cloneMappings(state))
	if h.maxDepth > 0 && len(h.past) > h.maxDepth {
		h.past = h.past[len(h.past)-h.maxDepth:]
	}
	h.future = nil
}

// Undo exchanges the present for the newest past entry. The present is pushed
// onto the future stack so a subsequent Redo restores it exactly.
func (h *History) Undo(present []formlink.FieldMapping) ([]formlink.FieldMapping, bool) {
	if len(h.past) == 0 {
		return nil, false
	}
	restored := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, cloneMappings(present))
	return restored, true
}

// Redo exchanges the present for the newest future entry.
func (h *History) Redo(present []formlink.FieldMapping) ([]formlink.FieldMapping, bool) {
	if len(h.future) == 0 {
		return nil, false
	}
	restored := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, cloneMappings(present))
	return restored, true
}

// CanUndo reports whether an undo step is available.
func (h *History) CanUndo() bool {
	return len(h.past) > 0
}

// CanRedo reports whether a redo step is available.
func (h *History) CanRedo() bool {
	return len(h.future) > 0
}

// PastLen returns the undo stack depth.
func (h *History) PastLen() int {
	return len(h.past)
}

// FutureLen returns the redo stack depth.
func (h *History) FutureLen() int {
	return len(h.future)
}

// Reset drops both stacks.
func (h *History) Reset() {
	h.past = nil
	h.future = nil
}

// cloneMappings deep-copies a mapping slice so timeline entries never alias
// live state.
func cloneMappings(mappings []formlink.FieldMapping) []formlink.FieldMapping {
	out := make([]formlink.FieldMapping, len(mappings))
	for i, m := range mappings {
		out[i] = cloneMapping(m)
	}
	return out
}

func cloneMapping(m formlink.FieldMapping) formlink.FieldMapping {
	c := m
	if m.Source != nil {
		src := *m.Source
		c.Source = &src
	}
	if m.Transformation != nil {
		tr := *m.Transformation
		c.Transformation = &tr
	}
	return c
}
