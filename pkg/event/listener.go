package event

// WorkingMemoryEventListener observes fact inserts, updates and deletes.
type WorkingMemoryEventListener interface {
	ObjectInserted(ev *ObjectInsertedEvent)
	ObjectUpdated(ev *ObjectUpdatedEvent)
	ObjectDeleted(ev *ObjectDeletedEvent)
}

// AgendaEventListener observes matches and agenda groups.
type AgendaEventListener interface {
	MatchCreated(ev *MatchEvent)
	MatchCancelled(ev *MatchCancelledEvent)
	BeforeMatchFired(ev *MatchEvent)
	AfterMatchFired(ev *MatchEvent)
	AgendaGroupPopped(ev *AgendaGroupEvent)
	AgendaGroupPushed(ev *AgendaGroupEvent)
	BeforeRuleFlowGroupActivated(ev *RuleFlowGroupEvent)
	AfterRuleFlowGroupActivated(ev *RuleFlowGroupEvent)
	BeforeRuleFlowGroupDeactivated(ev *RuleFlowGroupEvent)
	AfterRuleFlowGroupDeactivated(ev *RuleFlowGroupEvent)
}

// ProcessEventListener observes process instances.
type ProcessEventListener interface {
	BeforeProcessStarted(ev *ProcessEvent)
	AfterProcessStarted(ev *ProcessEvent)
	BeforeProcessCompleted(ev *ProcessEvent)
	AfterProcessCompleted(ev *ProcessEvent)
	BeforeVariableChanged(ev *ProcessVariableEvent)
	AfterVariableChanged(ev *ProcessVariableEvent)
}

// EventListener receives every event of every family.
type EventListener interface {
	OnEvent(ev Event)
}

// EventListenerFunc adapts a function to EventListener. Each closure is its
// own listener; keep the func value to remove it later.
type EventListenerFunc func(ev Event)

// OnEvent calls f.
func (f EventListenerFunc) OnEvent(ev Event) { f(ev) }

// DefaultWorkingMemoryEventListener ignores every event. Embed it to
// implement only some callbacks.
type DefaultWorkingMemoryEventListener struct{}

func (DefaultWorkingMemoryEventListener) ObjectInserted(*ObjectInsertedEvent) {}
func (DefaultWorkingMemoryEventListener) ObjectUpdated(*ObjectUpdatedEvent)   {}
func (DefaultWorkingMemoryEventListener) ObjectDeleted(*ObjectDeletedEvent)   {}

// DefaultAgendaEventListener ignores every event.
type DefaultAgendaEventListener struct{}

func (DefaultAgendaEventListener) MatchCreated(*MatchEvent)                           {}
func (DefaultAgendaEventListener) MatchCancelled(*MatchCancelledEvent)                {}
func (DefaultAgendaEventListener) BeforeMatchFired(*MatchEvent)                       {}
func (DefaultAgendaEventListener) AfterMatchFired(*MatchEvent)                        {}
func (DefaultAgendaEventListener) AgendaGroupPopped(*AgendaGroupEvent)                {}
func (DefaultAgendaEventListener) AgendaGroupPushed(*AgendaGroupEvent)                {}
func (DefaultAgendaEventListener) BeforeRuleFlowGroupActivated(*RuleFlowGroupEvent)   {}
func (DefaultAgendaEventListener) AfterRuleFlowGroupActivated(*RuleFlowGroupEvent)    {}
func (DefaultAgendaEventListener) BeforeRuleFlowGroupDeactivated(*RuleFlowGroupEvent) {}
func (DefaultAgendaEventListener) AfterRuleFlowGroupDeactivated(*RuleFlowGroupEvent)  {}

// DefaultProcessEventListener ignores every event.
type DefaultProcessEventListener struct{}

func (DefaultProcessEventListener) BeforeProcessStarted(*ProcessEvent)          {}
func (DefaultProcessEventListener) AfterProcessStarted(*ProcessEvent)           {}
func (DefaultProcessEventListener) BeforeProcessCompleted(*ProcessEvent)        {}
func (DefaultProcessEventListener) AfterProcessCompleted(*ProcessEvent)         {}
func (DefaultProcessEventListener) BeforeVariableChanged(*ProcessVariableEvent) {}
func (DefaultProcessEventListener) AfterVariableChanged(*ProcessVariableEvent)  {}
