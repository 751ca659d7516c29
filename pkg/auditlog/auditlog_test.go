package auditlog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/rulesession/pkg/engine"
	"github.com/harun/rulesession/pkg/event"
	"github.com/harun/rulesession/pkg/listener"
)

type fakeRuntime struct{ id string }

func (r *fakeRuntime) ID() string    { return r.id }
func (r *fakeRuntime) IsAlive() bool { return true }

type order struct {
	ID    string
	Total int
}

func newLogger(t *testing.T, types ...event.Type) *Logger {
	t.Helper()
	l, err := New(Config{
		Path:   filepath.Join(t.TempDir(), "audit.db"),
		Logger: zerolog.Nop(),
		Types:  types,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func newMemory(t *testing.T, l *Logger) *engine.Memory {
	t.Helper()
	kb := engine.NewKnowledgeBase("audit")
	require.NoError(t, kb.AddRule(engine.Rule{
		Name: "large",
		When: func(o any) bool { return o.(*order).Total > 100 },
		Then: func(*engine.RuleContext) error { return nil },
	}))
	wm := engine.New(kb, engine.Config{Logger: zerolog.Nop()})
	wm.SetRuntime(&fakeRuntime{id: "s-1"})
	t.Cleanup(wm.Dispose)
	listener.NewGenericRegistry(wm).Add(l)
	return wm
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New(Config{Logger: zerolog.Nop()})
	assert.Error(t, err)
}

func TestLogger_StoresSessionEvents(t *testing.T) {
	l := newLogger(t)
	wm := newMemory(t, l)

	h, err := wm.Insert(&order{ID: "o1", Total: 500})
	require.NoError(t, err)
	_, err = wm.FireAllRules()
	require.NoError(t, err)
	require.NoError(t, wm.Delete(h))

	records, err := l.Events(context.Background(), Query{SessionID: "s-1"})
	require.NoError(t, err)

	var types []event.Type
	for _, r := range records {
		types = append(types, r.Type)
	}
	assert.Equal(t, []event.Type{
		event.TypeObjectInserted,
		event.TypeMatchCreated,
		event.TypeBeforeMatchFired,
		event.TypeAfterMatchFired,
		event.TypeObjectDeleted,
	}, types)

	assert.Equal(t, h.ExternalForm(), records[0].FactHandle)
	assert.Equal(t, engine.DefaultEntryPoint, records[0].Attributes["entry_point"])
	assert.Equal(t, "large", records[1].Rule)
	assert.Equal(t, engine.MainAgendaGroup, records[1].Attributes["agenda_group"])
}

func TestLogger_TypeFilterAndQuery(t *testing.T) {
	l := newLogger(t, event.TypeObjectInserted)
	wm := newMemory(t, l)

	for i := 0; i < 3; i++ {
		_, err := wm.Insert(&order{Total: 200})
		require.NoError(t, err)
	}
	_, err := wm.FireAllRules()
	require.NoError(t, err)

	all, err := l.Events(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := l.Events(context.Background(), Query{Type: event.TypeObjectInserted, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	none, err := l.Events(context.Background(), Query{SessionID: "other"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLogger_CancelCauseRecorded(t *testing.T) {
	l := newLogger(t, event.TypeMatchCancelled)
	wm := newMemory(t, l)

	h, err := wm.Insert(&order{Total: 200})
	require.NoError(t, err)
	require.NoError(t, wm.Delete(h))

	records, err := l.Events(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, event.CauseFactDeleted.String(), records[0].Attributes["cause"])
}

func TestLogger_CloseIsIdempotentAndDropsLateEvents(t *testing.T) {
	l := newLogger(t)
	wm := newMemory(t, l)

	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	_, err := wm.Insert(&order{Total: 1})
	assert.NoError(t, err)
}
