package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rowLog struct {
	entries []string
}

func (l *rowLog) RowInserted(row QueryRow) { l.add("inserted", row) }
func (l *rowLog) RowUpdated(row QueryRow)  { l.add("updated", row) }
func (l *rowLog) RowDeleted(row QueryRow)  { l.add("deleted", row) }

func (l *rowLog) add(kind string, row QueryRow) {
	l.entries = append(l.entries, fmt.Sprintf("%s:%s:%d", kind, row.Object.(*order).ID, row.Object.(*order).Total))
}

func overQuery(t *testing.T) *KnowledgeBase {
	t.Helper()
	kb := NewKnowledgeBase("live")
	require.NoError(t, kb.AddQuery(Query{Name: "over", Match: func(o any, args []any) bool {
		ord, ok := o.(*order)
		return ok && ord.Total > args[0].(int)
	}}))
	return kb
}

func TestLiveQuery_ReportsRowChanges(t *testing.T) {
	wm := newTestMemory(t, overQuery(t), Config{})
	a := &order{ID: "a", Total: 50}
	_, err := wm.Insert(a)
	require.NoError(t, err)
	_, err = wm.Insert(&order{ID: "small", Total: 1})
	require.NoError(t, err)

	rows := &rowLog{}
	lq, err := wm.OpenLiveQuery("over", rows, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"inserted:a:50"}, rows.entries)
	assert.Equal(t, "over", lq.Name())

	b := &order{ID: "b", Total: 5}
	hb, err := wm.Insert(b)
	require.NoError(t, err)
	require.NoError(t, wm.Update(hb, &order{ID: "b", Total: 20}))
	ha := wm.FactHandle(a)
	require.NoError(t, wm.Update(ha, &order{ID: "a", Total: 60}))
	require.NoError(t, wm.Update(ha, &order{ID: "a", Total: 2}))
	require.NoError(t, wm.Delete(hb))

	assert.Equal(t, []string{
		"inserted:a:50",
		"inserted:b:20",
		"updated:a:60",
		"deleted:a:60",
		"deleted:b:20",
	}, rows.entries)
	assert.Equal(t, 0, lq.Size())
}

func TestLiveQuery_CloseStopsUpdates(t *testing.T) {
	wm := newTestMemory(t, overQuery(t), Config{})
	rows := &rowLog{}
	lq, err := wm.OpenLiveQuery("over", rows, 0)
	require.NoError(t, err)

	_, err = wm.Insert(&order{ID: "a", Total: 1})
	require.NoError(t, err)
	require.NoError(t, lq.Close())
	require.NoError(t, lq.Close())
	_, err = wm.Insert(&order{ID: "b", Total: 1})
	require.NoError(t, err)

	assert.Equal(t, []string{"inserted:a:1"}, rows.entries)
	assert.Zero(t, wm.WorkingMemoryListeners().Len())
}

func TestLiveQuery_Errors(t *testing.T) {
	wm := newTestMemory(t, overQuery(t), Config{})

	_, err := wm.OpenLiveQuery("missing", &rowLog{})
	assert.ErrorIs(t, err, ErrUnknownQuery)
	_, err = wm.OpenLiveQuery("over", nil, 0)
	assert.Error(t, err)
}
