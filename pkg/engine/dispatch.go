package engine

// Events are delivered synchronously, in registration order, on the goroutine
// that raised them. No engine lock is held while a listener runs.

func (m *Memory) fireObjectInserted(ev *ObjectInsertedEvent) {
	for _, l := range m.wmListeners.List() {
		l.OnObjectInserted(ev, m)
	}
}

func (m *Memory) fireObjectUpdated(ev *ObjectUpdatedEvent) {
	for _, l := range m.wmListeners.List() {
		l.OnObjectUpdated(ev, m)
	}
}

func (m *Memory) fireObjectDeleted(ev *ObjectDeletedEvent) {
	for _, l := range m.wmListeners.List() {
		l.OnObjectDeleted(ev, m)
	}
}

func (m *Memory) fireActivationCreated(act *Activation) {
	ev := &ActivationCreatedEvent{Activation: act}
	for _, l := range m.agendaListeners.List() {
		l.OnActivationCreated(ev, m)
	}
}

func (m *Memory) fireActivationCancelled(act *Activation, cause CancelCause) {
	ev := &ActivationCancelledEvent{Activation: act, Cause: cause}
	for _, l := range m.agendaListeners.List() {
		l.OnActivationCancelled(ev, m)
	}
}

func (m *Memory) fireBeforeActivationFired(ev *ActivationFiredEvent) {
	for _, l := range m.agendaListeners.List() {
		l.OnBeforeActivationFired(ev, m)
	}
}

func (m *Memory) fireAfterActivationFired(ev *ActivationFiredEvent) {
	for _, l := range m.agendaListeners.List() {
		l.OnAfterActivationFired(ev, m)
	}
}

func (m *Memory) fireAgendaGroupPopped(g *AgendaGroup) {
	ev := &AgendaGroupEvent{Group: g}
	for _, l := range m.agendaListeners.List() {
		l.OnAgendaGroupPopped(ev, m)
	}
}

func (m *Memory) fireAgendaGroupPushed(g *AgendaGroup) {
	ev := &AgendaGroupEvent{Group: g}
	for _, l := range m.agendaListeners.List() {
		l.OnAgendaGroupPushed(ev, m)
	}
}

func (m *Memory) fireBeforeRuleFlowGroupActivated(g *AgendaGroup) {
	ev := &RuleFlowGroupEvent{Group: g}
	for _, l := range m.agendaListeners.List() {
		l.OnBeforeRuleFlowGroupActivated(ev, m)
	}
}

func (m *Memory) fireAfterRuleFlowGroupActivated(g *AgendaGroup) {
	ev := &RuleFlowGroupEvent{Group: g}
	for _, l := range m.agendaListeners.List() {
		l.OnAfterRuleFlowGroupActivated(ev, m)
	}
}

func (m *Memory) fireBeforeRuleFlowGroupDeactivated(g *AgendaGroup) {
	ev := &RuleFlowGroupEvent{Group: g}
	for _, l := range m.agendaListeners.List() {
		l.OnBeforeRuleFlowGroupDeactivated(ev, m)
	}
}

func (m *Memory) fireAfterRuleFlowGroupDeactivated(g *AgendaGroup) {
	ev := &RuleFlowGroupEvent{Group: g}
	for _, l := range m.agendaListeners.List() {
		l.OnAfterRuleFlowGroupDeactivated(ev, m)
	}
}

func (m *Memory) fireBeforeProcessStarted(ev *ProcessEvent) {
	for _, l := range m.processListeners.List() {
		l.OnBeforeProcessStarted(ev, m)
	}
}

func (m *Memory) fireAfterProcessStarted(ev *ProcessEvent) {
	for _, l := range m.processListeners.List() {
		l.OnAfterProcessStarted(ev, m)
	}
}

func (m *Memory) fireBeforeProcessCompleted(ev *ProcessEvent) {
	for _, l := range m.processListeners.List() {
		l.OnBeforeProcessCompleted(ev, m)
	}
}

func (m *Memory) fireAfterProcessCompleted(ev *ProcessEvent) {
	for _, l := range m.processListeners.List() {
		l.OnAfterProcessCompleted(ev, m)
	}
}

func (m *Memory) fireBeforeVariableChanged(ev *ProcessVariableEvent) {
	for _, l := range m.processListeners.List() {
		l.OnBeforeVariableChanged(ev, m)
	}
}

func (m *Memory) fireAfterVariableChanged(ev *ProcessVariableEvent) {
	for _, l := range m.processListeners.List() {
		l.OnAfterVariableChanged(ev, m)
	}
}
