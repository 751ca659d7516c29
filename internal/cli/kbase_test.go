package cli

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/rulesession/internal/config"
	"github.com/harun/rulesession/pkg/command"
	"github.com/harun/rulesession/pkg/engine"
)

func TestBuiltinKnowledgeBase(t *testing.T) {
	kb, err := builtinKnowledgeBase(config.SessionConfig{KnowledgeBase: "kb", EntryPoints: []string{"orders"}})
	require.NoError(t, err)
	assert.Equal(t, "kb", kb.Name())
	assert.Contains(t, kb.EntryPointNames(), "orders")

	for _, q := range []string{"all", "byType", "byField"} {
		_, ok := kb.Query(q)
		assert.True(t, ok, q)
	}
	_, ok := kb.Rule("tally")
	assert.True(t, ok)
	_, ok = kb.Process(CollectProcess)
	assert.True(t, ok)
}

func TestQueryMatchers(t *testing.T) {
	f := &command.DocumentFact{Type: "order", Fields: map[string]any{"total": float64(120)}}

	assert.True(t, matchType(f, []any{"order"}))
	assert.False(t, matchType(f, []any{"customer"}))
	assert.False(t, matchType(f, nil))
	assert.False(t, matchType("order", []any{"order"}))

	assert.True(t, matchField(f, []any{"order", "total", float64(120)}))
	assert.False(t, matchField(f, []any{"order", "total", float64(5)}))
	assert.False(t, matchField(f, []any{"order", "missing", nil}))
	assert.False(t, matchField(f, []any{"order", "total"}))
}

func TestTallyAndCollect(t *testing.T) {
	kb, err := builtinKnowledgeBase(config.SessionConfig{KnowledgeBase: "kb"})
	require.NoError(t, err)
	wm := engine.New(kb, engine.Config{Logger: zerolog.Nop()})
	defer wm.Dispose()

	counts := map[string]int{}
	wm.Globals().Set(TallyGlobal, counts)
	for _, typ := range []string{"order", "order", "customer"} {
		_, err := wm.Insert(&command.DocumentFact{Type: typ})
		require.NoError(t, err)
	}
	fired, err := wm.FireAllRules()
	require.NoError(t, err)
	assert.Equal(t, 3, fired)
	assert.Equal(t, map[string]int{"order": 2, "customer": 1}, counts)

	pr, err := wm.ProcessRuntime()
	require.NoError(t, err)
	pi, err := pr.StartProcess(CollectProcess, nil)
	require.NoError(t, err)
	require.NoError(t, pr.SignalEvent("approved", "yes"))
	v, ok := pi.Variable("approved")
	assert.True(t, ok)
	assert.Equal(t, "yes", v)

	require.NoError(t, pr.SignalEvent("complete", nil))
	assert.Equal(t, engine.ProcessCompleted, pi.State())
}
