package headers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaseInsensitiveGetSet(t *testing.T) {
	h := New()
	h.Set("X-Test", "aaa")

	v, ok := h.Get("x-test")
	require.True(t, ok)
	assert.Equal(t, "aaa", v)

	assert.True(t, h.Has("X-TEST"))
	assert.True(t, h.Has("x-tEsT"))
}

func TestInsertionOrderPreserved(t *testing.T) {
	h := New()
	h.Set("Zeta", "1")
	h.Set("Alpha", "2")
	h.Set("Mu", "3")

	assert.Equal(t, []string{"Zeta", "Alpha", "Mu"}, h.Keys())
}

func TestDeleteAndPop(t *testing.T) {
	h := New()
	h.Set("X-New", "v")
	v, ok := h.Pop("x-new")
	require.True(t, ok)
	assert.Equal(t, "v", v)
	assert.False(t, h.Has("X-New"))
}

func TestBindPropagatesOnMutation(t *testing.T) {
	h := New()
	var last Map
	calls := 0
	h.Bind(func(snapshot Map) {
		calls++
		last = snapshot
	})

	h.Set("X-New", "v")
	require.Equal(t, 1, calls)
	v, ok := last.Get("X-New")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	h.Delete("X-New")
	require.Equal(t, 2, calls)
	assert.False(t, last.Has("X-New"))
}

func TestCloneIsUnbound(t *testing.T) {
	h := New()
	calls := 0
	h.Bind(func(Map) { calls++ })
	h.Set("A", "1")
	require.Equal(t, 1, calls)

	clone := h.Clone()
	clone.Set("B", "2")
	assert.Equal(t, 1, calls, "mutating the clone must not notify the original owner")
	assert.False(t, h.Has("B"))
}

func TestEqualIsCaseInsensitive(t *testing.T) {
	a := New()
	a.Set("Content-Type", "application/json")
	b := New()
	b.Set("content-type", "application/json")
	assert.True(t, a.Equal(b))
}

func TestUpdateMergesWithClashWinner(t *testing.T) {
	base := New()
	base.Set("X-A", "base")
	base.Set("X-B", "keep")

	incoming := New()
	incoming.Set("x-a", "override")

	base.Update(incoming)
	v, _ := base.Get("X-A")
	assert.Equal(t, "override", v)
	v, _ = base.Get("X-B")
	assert.Equal(t, "keep", v)
}

func TestWireKeysSkipsInvalidNamesAndValues(t *testing.T) {
	h := New()
	h.Set("Valid-Header", "ok")
	h.Add("Bad Header", "value") // space is not a valid token char
	h.Add("Valid-Header", "line1\r\nline2")

	wire := h.WireKeys()
	require.Len(t, wire, 1)
	assert.Equal(t, [2]string{"valid-header", "ok"}, wire[0])
}

func TestSetDefaultOnlySetsOnce(t *testing.T) {
	h := New()
	first := h.SetDefault("X", "1")
	second := h.SetDefault("X", "2")
	assert.Equal(t, "1", first)
	assert.Equal(t, "1", second)
}

func TestPopItemRemovesMostRecentlyInserted(t *testing.T) {
	h := New()
	h.Set("A", "1")
	h.Set("B", "2")
	k, v, ok := h.PopItem()
	require.True(t, ok)
	assert.Equal(t, "B", k)
	assert.Equal(t, "2", v)
	assert.False(t, h.Has("B"))
}
