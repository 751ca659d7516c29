package listener

import (
	"github.com/harun/rulesession/pkg/engine"
	"github.com/harun/rulesession/pkg/event"
	"github.com/harun/rulesession/pkg/identity"
)

// Kind tags the listener shape an adapter wraps.
type Kind int

const (
	KindWorkingMemory Kind = iota + 1
	KindAgenda
	KindProcess
	KindGeneric
)

func (k Kind) String() string {
	switch k {
	case KindWorkingMemory:
		return "working_memory"
	case KindAgenda:
		return "agenda"
	case KindProcess:
		return "process"
	case KindGeneric:
		return "generic"
	default:
		return "unknown"
	}
}

// Adapter is implemented by every listener adapter.
type Adapter interface {
	Kind() Kind
	// Unwrap returns the externally supplied listener, or nil when unset.
	Unwrap() any
}

// base holds the (kind, wrapped) pair that defines adapter equivalence.
type base struct {
	kind    Kind
	wrapped any
}

func (b base) Kind() Kind { return b.kind }

func (b base) Unwrap() any { return b.wrapped }

// Equal reports whether other is an adapter of the same kind wrapping an
// equivalent listener.
func (b base) Equal(other any) bool {
	o, ok := other.(Adapter)
	if !ok || o.Kind() != b.kind {
		return false
	}
	return identity.Equal(b.wrapped, o.Unwrap())
}

// Hash is the hash of the wrapped listener; 0 when unset.
func (b base) Hash() uint64 {
	if b.wrapped == nil {
		return 0
	}
	return identity.Hash(b.wrapped)
}

func runtimeOf(wm engine.WorkingMemory) event.Runtime {
	rt, _ := wm.Runtime().(event.Runtime)
	return rt
}

func wrappedOf[L any](l L) any {
	if any(l) == nil {
		return nil
	}
	return l
}

// WorkingMemoryAdapter delivers fact events to a public listener.
type WorkingMemoryAdapter struct {
	base
	listener event.WorkingMemoryEventListener
}

var (
	_ engine.WorkingMemoryEventListener = (*WorkingMemoryAdapter)(nil)
	_ event.WorkingMemoryEventListener  = (*WorkingMemoryAdapter)(nil)
)

// NewWorkingMemoryAdapter wraps l.
func NewWorkingMemoryAdapter(l event.WorkingMemoryEventListener) *WorkingMemoryAdapter {
	return &WorkingMemoryAdapter{base: base{KindWorkingMemory, wrappedOf(l)}, listener: l}
}

func (a *WorkingMemoryAdapter) OnObjectInserted(ev *engine.ObjectInsertedEvent, wm engine.WorkingMemory) {
	a.listener.ObjectInserted(event.NewObjectInserted(runtimeOf(wm), ev))
}

func (a *WorkingMemoryAdapter) OnObjectUpdated(ev *engine.ObjectUpdatedEvent, wm engine.WorkingMemory) {
	a.listener.ObjectUpdated(event.NewObjectUpdated(runtimeOf(wm), ev))
}

func (a *WorkingMemoryAdapter) OnObjectDeleted(ev *engine.ObjectDeletedEvent, wm engine.WorkingMemory) {
	a.listener.ObjectDeleted(event.NewObjectDeleted(runtimeOf(wm), ev))
}

func (a *WorkingMemoryAdapter) ObjectInserted(ev *event.ObjectInsertedEvent) { a.listener.ObjectInserted(ev) }
func (a *WorkingMemoryAdapter) ObjectUpdated(ev *event.ObjectUpdatedEvent)   { a.listener.ObjectUpdated(ev) }
func (a *WorkingMemoryAdapter) ObjectDeleted(ev *event.ObjectDeletedEvent)   { a.listener.ObjectDeleted(ev) }

// AgendaAdapter delivers match and agenda group events to a public listener.
type AgendaAdapter struct {
	base
	listener event.AgendaEventListener
}

var (
	_ engine.AgendaEventListener = (*AgendaAdapter)(nil)
	_ event.AgendaEventListener  = (*AgendaAdapter)(nil)
)

// NewAgendaAdapter wraps l.
func NewAgendaAdapter(l event.AgendaEventListener) *AgendaAdapter {
	return &AgendaAdapter{base: base{KindAgenda, wrappedOf(l)}, listener: l}
}

func (a *AgendaAdapter) OnActivationCreated(ev *engine.ActivationCreatedEvent, wm engine.WorkingMemory) {
	a.listener.MatchCreated(event.NewMatch(event.TypeMatchCreated, runtimeOf(wm), ev.Activation))
}

func (a *AgendaAdapter) OnActivationCancelled(ev *engine.ActivationCancelledEvent, wm engine.WorkingMemory) {
	a.listener.MatchCancelled(event.NewMatchCancelled(runtimeOf(wm), ev))
}

func (a *AgendaAdapter) OnBeforeActivationFired(ev *engine.ActivationFiredEvent, wm engine.WorkingMemory) {
	a.listener.BeforeMatchFired(event.NewMatch(event.TypeBeforeMatchFired, runtimeOf(wm), ev.Activation))
}

func (a *AgendaAdapter) OnAfterActivationFired(ev *engine.ActivationFiredEvent, wm engine.WorkingMemory) {
	a.listener.AfterMatchFired(event.NewMatch(event.TypeAfterMatchFired, runtimeOf(wm), ev.Activation))
}

func (a *AgendaAdapter) OnAgendaGroupPopped(ev *engine.AgendaGroupEvent, wm engine.WorkingMemory) {
	a.listener.AgendaGroupPopped(event.NewAgendaGroup(event.TypeAgendaGroupPopped, runtimeOf(wm), ev.Group))
}

func (a *AgendaAdapter) OnAgendaGroupPushed(ev *engine.AgendaGroupEvent, wm engine.WorkingMemory) {
	a.listener.AgendaGroupPushed(event.NewAgendaGroup(event.TypeAgendaGroupPushed, runtimeOf(wm), ev.Group))
}

func (a *AgendaAdapter) OnBeforeRuleFlowGroupActivated(ev *engine.RuleFlowGroupEvent, wm engine.WorkingMemory) {
	a.listener.BeforeRuleFlowGroupActivated(event.NewRuleFlowGroup(event.TypeBeforeRuleFlowGroupActivated, runtimeOf(wm), ev.Group))
}

func (a *AgendaAdapter) OnAfterRuleFlowGroupActivated(ev *engine.RuleFlowGroupEvent, wm engine.WorkingMemory) {
	a.listener.AfterRuleFlowGroupActivated(event.NewRuleFlowGroup(event.TypeAfterRuleFlowGroupActivated, runtimeOf(wm), ev.Group))
}

func (a *AgendaAdapter) OnBeforeRuleFlowGroupDeactivated(ev *engine.RuleFlowGroupEvent, wm engine.WorkingMemory) {
	a.listener.BeforeRuleFlowGroupDeactivated(event.NewRuleFlowGroup(event.TypeBeforeRuleFlowGroupDeactivated, runtimeOf(wm), ev.Group))
}

func (a *AgendaAdapter) OnAfterRuleFlowGroupDeactivated(ev *engine.RuleFlowGroupEvent, wm engine.WorkingMemory) {
	a.listener.AfterRuleFlowGroupDeactivated(event.NewRuleFlowGroup(event.TypeAfterRuleFlowGroupDeactivated, runtimeOf(wm), ev.Group))
}

func (a *AgendaAdapter) MatchCreated(ev *event.MatchEvent)            { a.listener.MatchCreated(ev) }
func (a *AgendaAdapter) MatchCancelled(ev *event.MatchCancelledEvent) { a.listener.MatchCancelled(ev) }
func (a *AgendaAdapter) BeforeMatchFired(ev *event.MatchEvent)        { a.listener.BeforeMatchFired(ev) }
func (a *AgendaAdapter) AfterMatchFired(ev *event.MatchEvent)         { a.listener.AfterMatchFired(ev) }
func (a *AgendaAdapter) AgendaGroupPopped(ev *event.AgendaGroupEvent) { a.listener.AgendaGroupPopped(ev) }
func (a *AgendaAdapter) AgendaGroupPushed(ev *event.AgendaGroupEvent) { a.listener.AgendaGroupPushed(ev) }

func (a *AgendaAdapter) BeforeRuleFlowGroupActivated(ev *event.RuleFlowGroupEvent) {
	a.listener.BeforeRuleFlowGroupActivated(ev)
}

func (a *AgendaAdapter) AfterRuleFlowGroupActivated(ev *event.RuleFlowGroupEvent) {
	a.listener.AfterRuleFlowGroupActivated(ev)
}

func (a *AgendaAdapter) BeforeRuleFlowGroupDeactivated(ev *event.RuleFlowGroupEvent) {
	a.listener.BeforeRuleFlowGroupDeactivated(ev)
}

func (a *AgendaAdapter) AfterRuleFlowGroupDeactivated(ev *event.RuleFlowGroupEvent) {
	a.listener.AfterRuleFlowGroupDeactivated(ev)
}

// ProcessAdapter delivers process events to a public listener.
type ProcessAdapter struct {
	base
	listener event.ProcessEventListener
}

var (
	_ engine.ProcessEventListener = (*ProcessAdapter)(nil)
	_ event.ProcessEventListener  = (*ProcessAdapter)(nil)
)

// NewProcessAdapter wraps l.
func NewProcessAdapter(l event.ProcessEventListener) *ProcessAdapter {
	return &ProcessAdapter{base: base{KindProcess, wrappedOf(l)}, listener: l}
}

func (a *ProcessAdapter) OnBeforeProcessStarted(ev *engine.ProcessEvent, wm engine.WorkingMemory) {
	a.listener.BeforeProcessStarted(event.NewProcess(event.TypeBeforeProcessStarted, runtimeOf(wm), ev.Instance))
}

func (a *ProcessAdapter) OnAfterProcessStarted(ev *engine.ProcessEvent, wm engine.WorkingMemory) {
	a.listener.AfterProcessStarted(event.NewProcess(event.TypeAfterProcessStarted, runtimeOf(wm), ev.Instance))
}

func (a *ProcessAdapter) OnBeforeProcessCompleted(ev *engine.ProcessEvent, wm engine.WorkingMemory) {
	a.listener.BeforeProcessCompleted(event.NewProcess(event.TypeBeforeProcessCompleted, runtimeOf(wm), ev.Instance))
}

func (a *ProcessAdapter) OnAfterProcessCompleted(ev *engine.ProcessEvent, wm engine.WorkingMemory) {
	a.listener.AfterProcessCompleted(event.NewProcess(event.TypeAfterProcessCompleted, runtimeOf(wm), ev.Instance))
}

func (a *ProcessAdapter) OnBeforeVariableChanged(ev *engine.ProcessVariableEvent, wm engine.WorkingMemory) {
	a.listener.BeforeVariableChanged(event.NewProcessVariable(event.TypeBeforeVariableChanged, runtimeOf(wm), ev))
}

func (a *ProcessAdapter) OnAfterVariableChanged(ev *engine.ProcessVariableEvent, wm engine.WorkingMemory) {
	a.listener.AfterVariableChanged(event.NewProcessVariable(event.TypeAfterVariableChanged, runtimeOf(wm), ev))
}

func (a *ProcessAdapter) BeforeProcessStarted(ev *event.ProcessEvent)   { a.listener.BeforeProcessStarted(ev) }
func (a *ProcessAdapter) AfterProcessStarted(ev *event.ProcessEvent)    { a.listener.AfterProcessStarted(ev) }
func (a *ProcessAdapter) BeforeProcessCompleted(ev *event.ProcessEvent) { a.listener.BeforeProcessCompleted(ev) }
func (a *ProcessAdapter) AfterProcessCompleted(ev *event.ProcessEvent)  { a.listener.AfterProcessCompleted(ev) }

func (a *ProcessAdapter) BeforeVariableChanged(ev *event.ProcessVariableEvent) {
	a.listener.BeforeVariableChanged(ev)
}

func (a *ProcessAdapter) AfterVariableChanged(ev *event.ProcessVariableEvent) {
	a.listener.AfterVariableChanged(ev)
}

// GenericAdapter funnels every engine event into one OnEvent callback.
type GenericAdapter struct {
	base
	listener event.EventListener
}

var (
	_ engine.WorkingMemoryEventListener = (*GenericAdapter)(nil)
	_ engine.AgendaEventListener        = (*GenericAdapter)(nil)
	_ engine.ProcessEventListener       = (*GenericAdapter)(nil)
	_ event.EventListener               = (*GenericAdapter)(nil)
)

// NewGenericAdapter wraps l.
func NewGenericAdapter(l event.EventListener) *GenericAdapter {
	return &GenericAdapter{base: base{KindGeneric, wrappedOf(l)}, listener: l}
}

// OnEvent forwards to the wrapped listener.
func (a *GenericAdapter) OnEvent(ev event.Event) { a.listener.OnEvent(ev) }

func (a *GenericAdapter) OnObjectInserted(ev *engine.ObjectInsertedEvent, wm engine.WorkingMemory) {
	a.listener.OnEvent(event.NewObjectInserted(runtimeOf(wm), ev))
}

func (a *GenericAdapter) OnObjectUpdated(ev *engine.ObjectUpdatedEvent, wm engine.WorkingMemory) {
	a.listener.OnEvent(event.NewObjectUpdated(runtimeOf(wm), ev))
}

func (a *GenericAdapter) OnObjectDeleted(ev *engine.ObjectDeletedEvent, wm engine.WorkingMemory) {
	a.listener.OnEvent(event.NewObjectDeleted(runtimeOf(wm), ev))
}

func (a *GenericAdapter) OnActivationCreated(ev *engine.ActivationCreatedEvent, wm engine.WorkingMemory) {
	a.listener.OnEvent(event.NewMatch(event.TypeMatchCreated, runtimeOf(wm), ev.Activation))
}

func (a *GenericAdapter) OnActivationCancelled(ev *engine.ActivationCancelledEvent, wm engine.WorkingMemory) {
	a.listener.OnEvent(event.NewMatchCancelled(runtimeOf(wm), ev))
}

func (a *GenericAdapter) OnBeforeActivationFired(ev *engine.ActivationFiredEvent, wm engine.WorkingMemory) {
	a.listener.OnEvent(event.NewMatch(event.TypeBeforeMatchFired, runtimeOf(wm), ev.Activation))
}

func (a *GenericAdapter) OnAfterActivationFired(ev *engine.ActivationFiredEvent, wm engine.WorkingMemory) {
	a.listener.OnEvent(event.NewMatch(event.TypeAfterMatchFired, runtimeOf(wm), ev.Activation))
}

func (a *GenericAdapter) OnAgendaGroupPopped(ev *engine.AgendaGroupEvent, wm engine.WorkingMemory) {
	a.listener.OnEvent(event.NewAgendaGroup(event.TypeAgendaGroupPopped, runtimeOf(wm), ev.Group))
}

func (a *GenericAdapter) OnAgendaGroupPushed(ev *engine.AgendaGroupEvent, wm engine.WorkingMemory) {
	a.listener.OnEvent(event.NewAgendaGroup(event.TypeAgendaGroupPushed, runtimeOf(wm), ev.Group))
}

func (a *GenericAdapter) OnBeforeRuleFlowGroupActivated(ev *engine.RuleFlowGroupEvent, wm engine.WorkingMemory) {
	a.listener.OnEvent(event.NewRuleFlowGroup(event.TypeBeforeRuleFlowGroupActivated, runtimeOf(wm), ev.Group))
}

func (a *GenericAdapter) OnAfterRuleFlowGroupActivated(ev *engine.RuleFlowGroupEvent, wm engine.WorkingMemory) {
	a.listener.OnEvent(event.NewRuleFlowGroup(event.TypeAfterRuleFlowGroupActivated, runtimeOf(wm), ev.Group))
}

func (a *GenericAdapter) OnBeforeRuleFlowGroupDeactivated(ev *engine.RuleFlowGroupEvent, wm engine.WorkingMemory) {
	a.listener.OnEvent(event.NewRuleFlowGroup(event.TypeBeforeRuleFlowGroupDeactivated, runtimeOf(wm), ev.Group))
}

func (a *GenericAdapter) OnAfterRuleFlowGroupDeactivated(ev *engine.RuleFlowGroupEvent, wm engine.WorkingMemory) {
	a.listener.OnEvent(event.NewRuleFlowGroup(event.TypeAfterRuleFlowGroupDeactivated, runtimeOf(wm), ev.Group))
}

func (a *GenericAdapter) OnBeforeProcessStarted(ev *engine.ProcessEvent, wm engine.WorkingMemory) {
	a.listener.OnEvent(event.NewProcess(event.TypeBeforeProcessStarted, runtimeOf(wm), ev.Instance))
}

func (a *GenericAdapter) OnAfterProcessStarted(ev *engine.ProcessEvent, wm engine.WorkingMemory) {
	a.listener.OnEvent(event.NewProcess(event.TypeAfterProcessStarted, runtimeOf(wm), ev.Instance))
}

func (a *GenericAdapter) OnBeforeProcessCompleted(ev *engine.ProcessEvent, wm engine.WorkingMemory) {
	a.listener.OnEvent(event.NewProcess(event.TypeBeforeProcessCompleted, runtimeOf(wm), ev.Instance))
}

func (a *GenericAdapter) OnAfterProcessCompleted(ev *engine.ProcessEvent, wm engine.WorkingMemory) {
	a.listener.OnEvent(event.NewProcess(event.TypeAfterProcessCompleted, runtimeOf(wm), ev.Instance))
}

func (a *GenericAdapter) OnBeforeVariableChanged(ev *engine.ProcessVariableEvent, wm engine.WorkingMemory) {
	a.listener.OnEvent(event.NewProcessVariable(event.TypeBeforeVariableChanged, runtimeOf(wm), ev))
}

func (a *GenericAdapter) OnAfterVariableChanged(ev *engine.ProcessVariableEvent, wm engine.WorkingMemory) {
	a.listener.OnEvent(event.NewProcessVariable(event.TypeAfterVariableChanged, runtimeOf(wm), ev))
}
