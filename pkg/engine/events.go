package engine

// CancelCause records why a pending activation was cancelled.
type CancelCause int

const (
	// CauseFactModified: the matched fact was updated and no longer matches.
	CauseFactModified CancelCause = iota + 1
	// CauseFactDeleted: the matched fact was deleted.
	CauseFactDeleted
	// CauseFilter: an agenda filter rejected the activation while firing.
	CauseFilter
	// CauseClear: the agenda or its group was cleared.
	CauseClear
)

func (c CancelCause) String() string {
	switch c {
	case CauseFactModified:
		return "fact_modified"
	case CauseFactDeleted:
		return "fact_deleted"
	case CauseFilter:
		return "filter"
	case CauseClear:
		return "clear"
	default:
		return "unknown"
	}
}

// ObjectInsertedEvent is raised after a fact enters an entry point.
type ObjectInsertedEvent struct {
	Handle     *FactHandle
	Object     any
	EntryPoint string
	// Rule is the rule whose consequence inserted the fact, nil for callers.
	Rule *Rule
}

// ObjectUpdatedEvent is raised after a fact is updated.
type ObjectUpdatedEvent struct {
	Handle     *FactHandle
	OldObject  any
	Object     any
	EntryPoint string
	Rule       *Rule
}

// ObjectDeletedEvent is raised after a fact is deleted.
type ObjectDeletedEvent struct {
	Handle     *FactHandle
	OldObject  any
	EntryPoint string
	Rule       *Rule
}

// ActivationCreatedEvent is raised when a rule matches a fact.
type ActivationCreatedEvent struct {
	Activation *Activation
}

// ActivationCancelledEvent is raised when a pending activation is dropped.
type ActivationCancelledEvent struct {
	Activation *Activation
	Cause      CancelCause
}

// ActivationFiredEvent brackets a rule consequence.
type ActivationFiredEvent struct {
	Activation *Activation
}

// AgendaGroupEvent is raised when a group enters or leaves the focus stack.
type AgendaGroupEvent struct {
	Group *AgendaGroup
}

// RuleFlowGroupEvent brackets rule-flow group activation and deactivation.
type RuleFlowGroupEvent struct {
	Group *AgendaGroup
}

// ProcessEvent carries a process instance lifecycle transition.
type ProcessEvent struct {
	Instance *ProcessInstance
}

// ProcessVariableEvent carries a process variable change.
type ProcessVariableEvent struct {
	Instance *ProcessInstance
	Name     string
	OldValue any
	NewValue any
}

// WorkingMemoryEventListener observes fact changes.
type WorkingMemoryEventListener interface {
	OnObjectInserted(ev *ObjectInsertedEvent, wm WorkingMemory)
	OnObjectUpdated(ev *ObjectUpdatedEvent, wm WorkingMemory)
	OnObjectDeleted(ev *ObjectDeletedEvent, wm WorkingMemory)
}

// AgendaEventListener observes activations and agenda groups.
type AgendaEventListener interface {
	OnActivationCreated(ev *ActivationCreatedEvent, wm WorkingMemory)
	OnActivationCancelled(ev *ActivationCancelledEvent, wm WorkingMemory)
	OnBeforeActivationFired(ev *ActivationFiredEvent, wm WorkingMemory)
	OnAfterActivationFired(ev *ActivationFiredEvent, wm WorkingMemory)
	OnAgendaGroupPopped(ev *AgendaGroupEvent, wm WorkingMemory)
	OnAgendaGroupPushed(ev *AgendaGroupEvent, wm WorkingMemory)
	OnBeforeRuleFlowGroupActivated(ev *RuleFlowGroupEvent, wm WorkingMemory)
	OnAfterRuleFlowGroupActivated(ev *RuleFlowGroupEvent, wm WorkingMemory)
	OnBeforeRuleFlowGroupDeactivated(ev *RuleFlowGroupEvent, wm WorkingMemory)
	OnAfterRuleFlowGroupDeactivated(ev *RuleFlowGroupEvent, wm WorkingMemory)
}

// ProcessEventListener observes process instances.
type ProcessEventListener interface {
	OnBeforeProcessStarted(ev *ProcessEvent, wm WorkingMemory)
	OnAfterProcessStarted(ev *ProcessEvent, wm WorkingMemory)
	OnBeforeProcessCompleted(ev *ProcessEvent, wm WorkingMemory)
	OnAfterProcessCompleted(ev *ProcessEvent, wm WorkingMemory)
	OnBeforeVariableChanged(ev *ProcessVariableEvent, wm WorkingMemory)
	OnAfterVariableChanged(ev *ProcessVariableEvent, wm WorkingMemory)
}
