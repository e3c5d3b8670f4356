package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caremesh/formlink"
)

func namedState(ids ...string) []formlink.FieldMapping {
	out := make([]formlink.FieldMapping, len(ids))
	for i, id := range ids {
		out[i] = formlink.FieldMapping{ID: id, TargetFormID: "treatment", TargetFieldID: "patient_name"}
	}
	return out
}

func TestHistory_UndoRedo(t *testing.T) {
	h := NewHistory(0)

	h.Push(namedState())
	h.Push(namedState("a"))
	present := namedState("a", "b")

	assert.Equal(t, 2, h.PastLen())
	assert.Equal(t, 0, h.FutureLen())

	restored, ok := h.Undo(present)
	require.True(t, ok)
	assert.Equal(t, namedState("a"), restored)
	assert.Equal(t, 1, h.PastLen())
	assert.Equal(t, 1, h.FutureLen())

	redone, ok := h.Redo(restored)
	require.True(t, ok)
	assert.Equal(t, present, redone)
	assert.Equal(t, 2, h.PastLen())
	assert.Equal(t, 0, h.FutureLen())
}

func TestHistory_EmptyStacks(t *testing.T) {
	h := NewHistory(0)

	_, ok := h.Undo(namedState("a"))
	assert.False(t, ok)
	_, ok = h.Redo(namedState("a"))
	assert.False(t, ok)
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
}

func TestHistory_PushClearsFuture(t *testing.T) {
	h := NewHistory(0)

	h.Push(namedState())
	_, ok := h.Undo(namedState("a"))
	require.True(t, ok)
	require.True(t, h.CanRedo())

	// A new action after an undo discards the redo branch.
	h.Push(namedState())
	assert.False(t, h.CanRedo())
}

func TestHistory_MaxDepthDropsOldest(t *testing.T) {
	h := NewHistory(2)

	h.Push(namedState())
	h.Push(namedState("a"))
	h.Push(namedState("a", "b"))
	assert.Equal(t, 2, h.PastLen())

	restored, ok := h.Undo(namedState("a", "b", "c"))
	require.True(t, ok)
	assert.Equal(t, namedState("a", "b"), restored)
}

func TestHistory_EntriesDoNotAliasLiveState(t *testing.T) {
	h := NewHistory(0)

	state := []formlink.FieldMapping{{
		ID:            "a",
		TargetFieldID: "patient_name",
		Source:        directSource("insurance", "provider"),
	}}
	h.Push(state)

	// Mutating the live state must not corrupt the recorded entry.
	state[0].Source.FieldID = "member_id"
	state[0].TargetFieldID = "notes"

	restored, ok := h.Undo(nil)
	require.True(t, ok)
	assert.Equal(t, "provider", restored[0].Source.FieldID)
	assert.Equal(t, "patient_name", restored[0].TargetFieldID)
}
