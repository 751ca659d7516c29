package engine

import (
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type order struct {
	ID    string
	Total int
	Flag  string
}

// recorder captures every engine callback as a short string.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) OnObjectInserted(ev *ObjectInsertedEvent, _ WorkingMemory) {
	r.add("inserted:%d", ev.Handle.ID())
}

func (r *recorder) OnObjectUpdated(ev *ObjectUpdatedEvent, _ WorkingMemory) {
	r.add("updated:%d", ev.Handle.ID())
}

func (r *recorder) OnObjectDeleted(ev *ObjectDeletedEvent, _ WorkingMemory) {
	r.add("deleted:%d", ev.Handle.ID())
}

func (r *recorder) OnActivationCreated(ev *ActivationCreatedEvent, _ WorkingMemory) {
	r.add("created:%s", ev.Activation.RuleName())
}

func (r *recorder) OnActivationCancelled(ev *ActivationCancelledEvent, _ WorkingMemory) {
	r.add("cancelled:%s:%s", ev.Activation.RuleName(), ev.Cause)
}

func (r *recorder) OnBeforeActivationFired(ev *ActivationFiredEvent, _ WorkingMemory) {
	r.add("before:%s", ev.Activation.RuleName())
}

func (r *recorder) OnAfterActivationFired(ev *ActivationFiredEvent, _ WorkingMemory) {
	r.add("after:%s", ev.Activation.RuleName())
}

func (r *recorder) OnAgendaGroupPopped(ev *AgendaGroupEvent, _ WorkingMemory) {
	r.add("popped:%s", ev.Group.Name())
}

func (r *recorder) OnAgendaGroupPushed(ev *AgendaGroupEvent, _ WorkingMemory) {
	r.add("pushed:%s", ev.Group.Name())
}

func (r *recorder) OnBeforeRuleFlowGroupActivated(ev *RuleFlowGroupEvent, _ WorkingMemory) {
	r.add("rfg-activating:%s", ev.Group.Name())
}

func (r *recorder) OnAfterRuleFlowGroupActivated(ev *RuleFlowGroupEvent, _ WorkingMemory) {
	r.add("rfg-activated:%s", ev.Group.Name())
}

func (r *recorder) OnBeforeRuleFlowGroupDeactivated(ev *RuleFlowGroupEvent, _ WorkingMemory) {
	r.add("rfg-deactivating:%s", ev.Group.Name())
}

func (r *recorder) OnAfterRuleFlowGroupDeactivated(ev *RuleFlowGroupEvent, _ WorkingMemory) {
	r.add("rfg-deactivated:%s", ev.Group.Name())
}

func (r *recorder) OnBeforeProcessStarted(ev *ProcessEvent, _ WorkingMemory) {
	r.add("process-starting:%d", ev.Instance.ID())
}

func (r *recorder) OnAfterProcessStarted(ev *ProcessEvent, _ WorkingMemory) {
	r.add("process-started:%d", ev.Instance.ID())
}

func (r *recorder) OnBeforeProcessCompleted(ev *ProcessEvent, _ WorkingMemory) {
	r.add("process-completing:%d", ev.Instance.ID())
}

func (r *recorder) OnAfterProcessCompleted(ev *ProcessEvent, _ WorkingMemory) {
	r.add("process-completed:%d:%s", ev.Instance.ID(), ev.Instance.State())
}

func (r *recorder) OnBeforeVariableChanged(ev *ProcessVariableEvent, _ WorkingMemory) {
	r.add("var-changing:%s", ev.Name)
}

func (r *recorder) OnAfterVariableChanged(ev *ProcessVariableEvent, _ WorkingMemory) {
	r.add("var-changed:%s=%v", ev.Name, ev.NewValue)
}

func attach(wm *Memory) *recorder {
	r := &recorder{}
	wm.WorkingMemoryListeners().Add(r)
	wm.AgendaListeners().Add(r)
	wm.ProcessListeners().Add(r)
	return r
}

func newTestMemory(t *testing.T, kb *KnowledgeBase, cfg Config) *Memory {
	t.Helper()
	if kb == nil {
		kb = NewKnowledgeBase("test")
	}
	cfg.Logger = zerolog.Nop()
	wm := New(kb, cfg)
	t.Cleanup(wm.Dispose)
	return wm
}

func mustRule(t *testing.T, kb *KnowledgeBase, r Rule) {
	t.Helper()
	require.NoError(t, kb.AddRule(r))
}

func isLarge(o any) bool {
	ord, ok := o.(*order)
	return ok && ord.Total >= 100
}

func noop(*RuleContext) error { return nil }
