package engine

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(t *testing.T, s *IdentityStore, n int) []*FactHandle {
	t.Helper()
	handles := make([]*FactHandle, n)
	for i := range n {
		h := newFactHandle(int64(i+1), DefaultEntryPoint, &order{ID: "o", Total: i})
		require.NoError(t, s.add(h))
		handles[i] = h
	}
	return handles
}

func TestIdentityStore_LookupByIdentity(t *testing.T) {
	s := NewIdentityStore()
	a := &order{ID: "a"}
	b := &order{ID: "a"}
	h := newFactHandle(1, DefaultEntryPoint, a)
	require.NoError(t, s.add(h))

	assert.Same(t, h, s.HandleForObject(a))
	assert.Nil(t, s.HandleForObject(b), "equal content, different identity")
	assert.Equal(t, a, s.ObjectForHandle(h))
	assert.Equal(t, 1, s.Size())
	assert.False(t, s.IsEmpty())
}

func TestIdentityStore_RejectsBadObjects(t *testing.T) {
	s := NewIdentityStore()
	assert.ErrorIs(t, s.add(newFactHandle(1, DefaultEntryPoint, nil)), ErrNilFact)
	assert.ErrorIs(t, s.add(newFactHandle(2, DefaultEntryPoint, map[string]int{})), ErrUncomparableFact)
	assert.Nil(t, s.HandleForObject([]int{1}))
}

type holder struct{ V any }

func TestIdentityStore_RejectsUncomparableContents(t *testing.T) {
	s := NewIdentityStore()

	assert.ErrorIs(t, s.add(newFactHandle(1, DefaultEntryPoint, holder{V: []int{1}})), ErrUncomparableFact)
	assert.ErrorIs(t, s.add(newFactHandle(2, DefaultEntryPoint, holder{V: map[string]int{}})), ErrUncomparableFact)
	assert.Nil(t, s.HandleForObject(holder{V: []int{1}}))
	assert.Equal(t, 0, s.Size())

	h := newFactHandle(3, DefaultEntryPoint, holder{V: 7})
	require.NoError(t, s.add(h))
	assert.Same(t, h, s.HandleForObject(holder{V: 7}))
	assert.ErrorIs(t, s.update(h, holder{V: []string{"x"}}), ErrUncomparableFact)
	assert.Equal(t, holder{V: 7}, s.ObjectForHandle(h))
}

func TestIdentityStore_RemoveTombstones(t *testing.T) {
	s := NewIdentityStore()
	handles := fill(t, s, 3)

	old, ok := s.remove(handles[1])
	require.True(t, ok)
	assert.Equal(t, 1, old.(*order).Total)
	assert.Nil(t, handles[1].Object())
	assert.Nil(t, s.ObjectForHandle(handles[1]))

	_, ok = s.remove(handles[1])
	assert.False(t, ok)

	got := slices.Collect(s.Handles(nil))
	assert.Equal(t, []*FactHandle{handles[0], handles[2]}, got)
}

func TestIdentityStore_UpdateRekeys(t *testing.T) {
	s := NewIdentityStore()
	handles := fill(t, s, 2)
	replacement := &order{ID: "new"}

	require.NoError(t, s.update(handles[0], replacement))
	assert.Same(t, handles[0], s.HandleForObject(replacement))
	assert.ErrorIs(t, s.update(handles[1], replacement), ErrDuplicateFact)
}

func TestIdentityStore_FilteredTraversal(t *testing.T) {
	s := NewIdentityStore()
	fill(t, s, 10)

	even := func(o any) bool { return o.(*order).Total%2 == 0 }
	var totals []int
	for o := range s.Objects(even) {
		totals = append(totals, o.(*order).Total)
	}
	assert.Equal(t, []int{0, 2, 4, 6, 8}, totals)
}

func TestIdentityStore_DeleteDuringTraversal(t *testing.T) {
	s := NewIdentityStore()
	handles := fill(t, s, 5)

	var seen []int
	for h := range s.Handles(nil) {
		seen = append(seen, h.Object().(*order).Total)
		if len(seen) == 1 {
			s.remove(handles[2])
		}
	}
	assert.Equal(t, []int{0, 1, 3, 4}, seen)
}

func TestIdentityStore_CompactsOnlyWhenIdle(t *testing.T) {
	s := NewIdentityStore()
	handles := fill(t, s, 100)
	for _, h := range handles[:80] {
		s.remove(h)
	}

	for range s.Handles(nil) {
		require.NoError(t, s.add(newFactHandle(1000, DefaultEntryPoint, &order{})))
		break
	}
	assert.Greater(t, s.tombstones, 0, "no compaction while iterating")

	require.NoError(t, s.add(newFactHandle(1001, DefaultEntryPoint, &order{})))
	assert.Equal(t, 0, s.tombstones)
	assert.Equal(t, 22, s.Size())
	for i, h := range s.order {
		assert.Equal(t, i, h.slot)
	}
}
