package storeview

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/rulesession/pkg/engine"
)

type item struct{ n int }

func populated(t *testing.T, n int) (*engine.Memory, []*engine.FactHandle) {
	t.Helper()
	wm := engine.New(engine.NewKnowledgeBase("test"), engine.Config{Logger: zerolog.Nop()})
	t.Cleanup(wm.Dispose)
	handles := make([]*engine.FactHandle, n)
	for i := range n {
		h, err := wm.Insert(&item{n: i})
		require.NoError(t, err)
		handles[i] = h
	}
	return wm, handles
}

func odd(o any) bool { return o.(*item).n%2 == 1 }

func none(any) bool { return false }

func TestView_IsEmptyMatchesSize(t *testing.T) {
	filters := map[string]engine.ObjectFilter{"all": nil, "odd": odd, "none": none}
	for _, n := range []int{0, 1, 5} {
		wm, _ := populated(t, n)
		for name, f := range filters {
			objects := Objects(wm.ObjectStore(), f)
			handles := Handles(wm.ObjectStore(), f)
			assert.Equal(t, objects.Size() == 0, objects.IsEmpty(), "objects n=%d filter=%s", n, name)
			assert.Equal(t, handles.Size() == 0, handles.IsEmpty(), "handles n=%d filter=%s", n, name)
		}
	}
}

func TestView_SizeIsLive(t *testing.T) {
	wm, handles := populated(t, 4)
	all := Objects(wm.ObjectStore(), nil)
	odds := Objects(wm.ObjectStore(), odd)
	assert.Equal(t, 4, all.Size())
	assert.Equal(t, 2, odds.Size())

	require.NoError(t, wm.Delete(handles[1]))
	_, err := wm.Insert(&item{n: 7})
	require.NoError(t, err)
	assert.Equal(t, 4, all.Size())
	assert.Equal(t, 2, odds.Size())

	require.NoError(t, wm.Delete(handles[3]))
	assert.Equal(t, 1, odds.Size())
}

func TestView_ToArrayLengthMatchesSize(t *testing.T) {
	wm, _ := populated(t, 6)
	for _, f := range []engine.ObjectFilter{nil, odd, none} {
		objects := Objects(wm.ObjectStore(), f)
		size := objects.Size()
		assert.Len(t, objects.ToArray(), size)

		handles := Handles(wm.ObjectStore(), f)
		size = handles.Size()
		assert.Len(t, handles.ToArray(), size)
	}
}

func TestView_ToArrayOrder(t *testing.T) {
	wm, handles := populated(t, 3)
	assert.Equal(t, handles, Handles(wm.ObjectStore(), nil).ToArray())

	objects := Objects(wm.ObjectStore(), odd).ToArray()
	require.Len(t, objects, 1)
	assert.Equal(t, 1, objects[0].(*item).n)
}

func TestView_Contains(t *testing.T) {
	wm, handles := populated(t, 3)
	objects := Objects(wm.ObjectStore(), nil)
	odds := Handles(wm.ObjectStore(), odd)

	first := handles[0].Object()
	assert.True(t, objects.Contains(first))
	assert.True(t, objects.Contains(handles[0]))
	assert.False(t, objects.Contains(&item{n: 0}), "equal value, different identity")
	assert.False(t, objects.Contains(nil))
	assert.False(t, objects.Contains([]int{1}))

	assert.False(t, odds.Contains(handles[0]))
	assert.True(t, odds.Contains(handles[1]))
	assert.True(t, objects.ContainsAll(handles[0], handles[1].Object()))

	require.NoError(t, wm.Delete(handles[0]))
	assert.False(t, objects.Contains(handles[0]))
	assert.False(t, objects.Contains(first))
	assert.False(t, objects.ContainsAll(handles[0], handles[1]))
}

func TestView_MutationsFail(t *testing.T) {
	wm, handles := populated(t, 2)
	v := Handles(wm.ObjectStore(), nil)

	assert.ErrorIs(t, v.Add(handles[0]), ErrImmutableView)
	assert.ErrorIs(t, v.Remove(handles[0]), ErrImmutableView)
	assert.ErrorIs(t, v.RemoveAll(handles[0], handles[1]), ErrImmutableView)
	assert.ErrorIs(t, v.RetainAll(handles[0]), ErrImmutableView)
	assert.ErrorIs(t, v.Clear(), ErrImmutableView)
	assert.Equal(t, 2, wm.FactCount(), "store untouched")

	o := Objects(wm.ObjectStore(), nil)
	assert.ErrorIs(t, o.Add(&item{}), ErrImmutableView)
	assert.Equal(t, 2, o.Size())
}

func TestView_IteratorSinglePass(t *testing.T) {
	wm, _ := populated(t, 3)
	it := Objects(wm.ObjectStore(), nil).Iterator()

	var seen []int
	for it.Next() {
		seen = append(seen, it.Value().(*item).n)
	}
	assert.Equal(t, []int{0, 1, 2}, seen)
	assert.False(t, it.Next(), "not restartable")
	it.Stop()
}

func TestView_IteratorStopEarly(t *testing.T) {
	wm, _ := populated(t, 3)
	it := Handles(wm.ObjectStore(), nil).Iterator()
	require.True(t, it.Next())
	it.Stop()
	assert.False(t, it.Next())
}

func TestView_TraversalSeesLiveStore(t *testing.T) {
	wm, handles := populated(t, 3)
	v := Objects(wm.ObjectStore(), nil)

	var seen []int
	for o := range v.All() {
		n := o.(*item).n
		seen = append(seen, n)
		if n == 0 {
			require.NoError(t, wm.Delete(handles[2]))
			_, err := wm.Insert(&item{n: 9})
			require.NoError(t, err)
		}
	}
	assert.Equal(t, []int{0, 1, 9}, seen)
}
