package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_InsertUpdateDelete(t *testing.T) {
	wm := newTestMemory(t, nil, Config{})
	rec := attach(wm)

	o := &order{ID: "a", Total: 10}
	h, err := wm.Insert(o)
	require.NoError(t, err)
	assert.Equal(t, DefaultEntryPoint, h.EntryPoint())
	assert.Regexp(t, `^0:1:.{10}$`, h.ExternalForm())

	again, err := wm.Insert(o)
	require.NoError(t, err)
	assert.Same(t, h, again, "re-inserting the same object returns its handle")

	replacement := &order{ID: "a", Total: 20}
	require.NoError(t, wm.Update(h, replacement))
	assert.Same(t, replacement, wm.Object(h))
	assert.Nil(t, wm.FactHandle(o))

	require.NoError(t, wm.Delete(h))
	assert.ErrorIs(t, wm.Delete(h), ErrUnknownFactHandle)
	assert.Zero(t, wm.FactCount())

	assert.Equal(t, []string{"inserted:1", "updated:1", "deleted:1"}, rec.list())
}

func TestMemory_EntryPoints(t *testing.T) {
	kb := NewKnowledgeBase("test")
	require.NoError(t, kb.DeclareEntryPoint("stream"))
	wm := newTestMemory(t, kb, Config{})

	ep, err := wm.EntryPoint("stream")
	require.NoError(t, err)
	h, err := ep.Insert(&order{ID: "s"})
	require.NoError(t, err)
	assert.Equal(t, "stream", h.EntryPoint())
	assert.Equal(t, 1, ep.FactCount())
	assert.Zero(t, wm.FactCount())
	assert.NotNil(t, wm.Object(h))

	_, err = wm.EntryPoint("missing")
	assert.ErrorIs(t, err, ErrUnknownEntryPoint)

	require.NoError(t, kb.DeclareEntryPoint("late"))
	late, err := wm.EntryPoint("late")
	require.NoError(t, err)
	assert.Equal(t, "late", late.Name())
	assert.Len(t, wm.EntryPoints(), 3)
}

func TestMemory_FireAllRulesSalienceOrder(t *testing.T) {
	kb := NewKnowledgeBase("test")
	var fired []string
	record := func(name string) func(*RuleContext) error {
		return func(*RuleContext) error {
			fired = append(fired, name)
			return nil
		}
	}
	mustRule(t, kb, Rule{Name: "low", Salience: 1, Then: record("low")})
	mustRule(t, kb, Rule{Name: "high", Salience: 10, Then: record("high")})
	mustRule(t, kb, Rule{Name: "large", When: isLarge, Then: record("large")})
	wm := newTestMemory(t, kb, Config{})

	_, err := wm.Insert(&order{Total: 500})
	require.NoError(t, err)
	assert.Equal(t, 3, wm.Agenda().Size())

	n, err := wm.FireAllRules()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"high", "low", "large"}, fired)
	assert.Zero(t, wm.Agenda().Size())
}

func TestMemory_FireAllRulesWithFilterAndMax(t *testing.T) {
	kb := NewKnowledgeBase("test")
	mustRule(t, kb, Rule{Name: "a", Then: noop})
	mustRule(t, kb, Rule{Name: "b", Then: noop})
	wm := newTestMemory(t, kb, Config{})
	rec := attach(wm)

	for range 3 {
		_, err := wm.Insert(&order{})
		require.NoError(t, err)
	}

	n, err := wm.FireAllRules(WithMaxRules(2))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 4, wm.Agenda().Size())

	onlyA := func(a *Activation) bool { return a.RuleName() == "a" }
	n, err = wm.FireAllRules(WithAgendaFilter(onlyA))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Zero(t, wm.Agenda().Size())
	assert.Contains(t, rec.list(), "cancelled:b:filter")
}

func TestMemory_UpdateCancelsAndRematches(t *testing.T) {
	kb := NewKnowledgeBase("test")
	mustRule(t, kb, Rule{Name: "large", When: isLarge, Then: noop})
	wm := newTestMemory(t, kb, Config{})
	rec := attach(wm)

	o := &order{Total: 500}
	h, err := wm.Insert(o)
	require.NoError(t, err)

	small := &order{Total: 1}
	require.NoError(t, wm.Update(h, small))
	assert.Zero(t, wm.Agenda().Size())

	require.NoError(t, wm.Update(h, &order{Total: 200}))
	assert.Equal(t, 1, wm.Agenda().Size())

	require.NoError(t, wm.Delete(h))
	assert.Zero(t, wm.Agenda().Size())

	assert.Equal(t, []string{
		"inserted:1", "created:large",
		"updated:1", "cancelled:large:fact_modified",
		"updated:1", "created:large",
		"deleted:1", "cancelled:large:fact_deleted",
	}, rec.list())
}

func TestMemory_NoLoop(t *testing.T) {
	kb := NewKnowledgeBase("test")
	fires := 0
	bump := func(ctx *RuleContext) error {
		fires++
		o := ctx.Object().(*order)
		return ctx.Update(ctx.FactHandle(), &order{ID: o.ID, Total: o.Total + 1})
	}
	mustRule(t, kb, Rule{Name: "bump", NoLoop: true, Then: bump})
	wm := newTestMemory(t, kb, Config{})

	_, err := wm.Insert(&order{Total: 1})
	require.NoError(t, err)
	n, err := wm.FireAllRules()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, fires)
}

func TestMemory_ConsequenceError(t *testing.T) {
	kb := NewKnowledgeBase("test")
	boom := errors.New("boom")
	mustRule(t, kb, Rule{Name: "fails", Then: func(*RuleContext) error { return boom }})
	wm := newTestMemory(t, kb, Config{})

	_, err := wm.Insert(&order{})
	require.NoError(t, err)
	_, err = wm.FireAllRules()
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `rule "fails"`)
}

func TestMemory_HaltStopsLoop(t *testing.T) {
	kb := NewKnowledgeBase("test")
	mustRule(t, kb, Rule{Name: "stop", Then: func(ctx *RuleContext) error {
		ctx.Halt()
		return nil
	}})
	wm := newTestMemory(t, kb, Config{})

	for range 3 {
		_, err := wm.Insert(&order{})
		require.NoError(t, err)
	}
	n, err := wm.FireAllRules()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, wm.Agenda().Size())
}

func TestMemory_AgendaGroupsAndFocus(t *testing.T) {
	kb := NewKnowledgeBase("test")
	var fired []string
	mustRule(t, kb, Rule{Name: "main", Then: func(*RuleContext) error {
		fired = append(fired, "main")
		return nil
	}})
	mustRule(t, kb, Rule{Name: "billing", AgendaGroup: "billing", Then: func(*RuleContext) error {
		fired = append(fired, "billing")
		return nil
	}})
	wm := newTestMemory(t, kb, Config{})
	rec := attach(wm)

	_, err := wm.Insert(&order{})
	require.NoError(t, err)

	_, err = wm.FireAllRules()
	require.NoError(t, err)
	assert.Equal(t, []string{"main"}, fired, "billing waits for focus")

	wm.Agenda().SetFocus("billing")
	assert.Equal(t, "billing", wm.Agenda().Focus())
	_, err = wm.FireAllRules()
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "billing"}, fired)
	assert.Equal(t, MainAgendaGroup, wm.Agenda().Focus())
	assert.Contains(t, rec.list(), "pushed:billing")
	assert.Contains(t, rec.list(), "popped:billing")
}

func TestMemory_RuleFlowGroup(t *testing.T) {
	kb := NewKnowledgeBase("test")
	mustRule(t, kb, Rule{Name: "flow", RuleFlowGroup: "approve", Then: noop})
	wm := newTestMemory(t, kb, Config{})
	rec := attach(wm)

	_, err := wm.Insert(&order{})
	require.NoError(t, err)
	n, err := wm.FireAllRules()
	require.NoError(t, err)
	assert.Zero(t, n)

	wm.Agenda().ActivateRuleFlowGroup("approve")
	n, err = wm.FireAllRules()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	events := rec.list()
	assert.Contains(t, events, "rfg-activating:approve")
	assert.Contains(t, events, "rfg-activated:approve")
	assert.Contains(t, events, "rfg-deactivated:approve")
}

func TestMemory_ClearAgenda(t *testing.T) {
	kb := NewKnowledgeBase("test")
	mustRule(t, kb, Rule{Name: "r", Then: noop})
	wm := newTestMemory(t, kb, Config{})
	rec := attach(wm)

	_, err := wm.Insert(&order{})
	require.NoError(t, err)
	wm.Agenda().Clear()
	assert.Zero(t, wm.Agenda().Size())
	assert.Contains(t, rec.list(), "cancelled:r:clear")
}

func TestMemory_RuleContextInsertAndGlobals(t *testing.T) {
	kb := NewKnowledgeBase("test")
	var sent []any
	mustRule(t, kb, Rule{Name: "derive", When: isLarge, Then: func(ctx *RuleContext) error {
		limit, _ := ctx.Global("limit")
		if ch, ok := ctx.Channel("alerts"); ok {
			ch.Send(limit)
		}
		_, err := ctx.Insert(&order{ID: "derived"})
		return err
	}})
	wm := newTestMemory(t, kb, Config{})
	wm.Globals().Set("limit", 100)
	require.NoError(t, wm.Channels().Register("alerts", ChannelFunc(func(o any) { sent = append(sent, o) })))

	_, err := wm.Insert(&order{Total: 100})
	require.NoError(t, err)
	_, err = wm.FireAllRules()
	require.NoError(t, err)

	assert.Equal(t, 2, wm.FactCount())
	assert.Equal(t, []any{100}, sent)
	assert.Equal(t, []string{"limit"}, wm.Globals().Identifiers())
}

func TestMemory_Query(t *testing.T) {
	kb := NewKnowledgeBase("test")
	require.NoError(t, kb.AddQuery(Query{Name: "over", Match: func(o any, args []any) bool {
		return o.(*order).Total > args[0].(int)
	}}))
	wm := newTestMemory(t, kb, Config{})
	for _, total := range []int{5, 50, 500} {
		_, err := wm.Insert(&order{Total: total})
		require.NoError(t, err)
	}

	res, err := wm.Query("over", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Size())
	assert.Equal(t, 50, res.Objects()[0].(*order).Total)

	_, err = wm.Query("missing")
	assert.ErrorIs(t, err, ErrUnknownQuery)
}

func TestMemory_FireUntilHalt(t *testing.T) {
	kb := NewKnowledgeBase("test")
	fired := make(chan string, 4)
	mustRule(t, kb, Rule{Name: "seen", Then: func(ctx *RuleContext) error {
		o := ctx.Object().(*order)
		fired <- o.ID
		if o.ID == "last" {
			ctx.Halt()
		}
		return nil
	}})
	wm := newTestMemory(t, kb, Config{})

	done := make(chan error, 1)
	go func() { done <- wm.FireUntilHalt(context.Background()) }()

	_, err := wm.Insert(&order{ID: "first"})
	require.NoError(t, err)
	assert.Equal(t, "first", <-fired)
	_, err = wm.Insert(&order{ID: "last"})
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("FireUntilHalt did not return after Halt")
	}
}

func TestMemory_FireUntilHaltContextCancel(t *testing.T) {
	wm := newTestMemory(t, nil, Config{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, wm.FireUntilHalt(ctx), context.DeadlineExceeded)
}

func TestMemory_BatchBracket(t *testing.T) {
	wm := newTestMemory(t, nil, Config{})
	assert.Nil(t, wm.ExecutionResults())

	res := resultsStub{}
	wm.StartBatchExecution(res)
	assert.Equal(t, res, wm.ExecutionResults())
	wm.EndBatchExecution()
	assert.Nil(t, wm.ExecutionResults())
}

type resultsStub map[string]any

func (r resultsStub) SetResult(name string, value any) { r[name] = value }

func TestMemory_Dispose(t *testing.T) {
	wm := newTestMemory(t, nil, Config{})
	attach(wm)

	wm.Dispose()
	wm.Dispose()

	_, err := wm.Insert(&order{})
	assert.ErrorIs(t, err, ErrDisposed)
	_, err = wm.FireAllRules()
	assert.ErrorIs(t, err, ErrDisposed)
	assert.Zero(t, wm.AgendaListeners().Len())
}

func TestMemory_RuntimeDefaultsToSelf(t *testing.T) {
	wm := newTestMemory(t, nil, Config{ID: "wm-1"})
	assert.Equal(t, "wm-1", wm.ID())
	assert.Same(t, wm, wm.Runtime())

	owner := &struct{ name string }{"facade"}
	wm.SetRuntime(owner)
	assert.Same(t, owner, wm.Runtime())
}
