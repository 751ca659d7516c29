// Package event defines the public event payloads and the four listener
// shapes callers implement to observe a rule session.
//
// Every payload carries the runtime that raised it. Payloads are built 1:1
// from engine events; nothing is filtered, buffered or reordered.
package event

import (
	"fmt"

	"github.com/harun/rulesession/pkg/engine"
)

// Runtime is the session facade as seen by a listener.
type Runtime interface {
	ID() string
	IsAlive() bool
}

// Type names an event.
type Type string

const (
	TypeObjectInserted Type = "object_inserted"
	TypeObjectUpdated  Type = "object_updated"
	TypeObjectDeleted  Type = "object_deleted"

	TypeMatchCreated     Type = "match_created"
	TypeMatchCancelled   Type = "match_cancelled"
	TypeBeforeMatchFired Type = "before_match_fired"
	TypeAfterMatchFired  Type = "after_match_fired"

	TypeAgendaGroupPopped Type = "agenda_group_popped"
	TypeAgendaGroupPushed Type = "agenda_group_pushed"

	TypeBeforeRuleFlowGroupActivated   Type = "before_rule_flow_group_activated"
	TypeAfterRuleFlowGroupActivated    Type = "after_rule_flow_group_activated"
	TypeBeforeRuleFlowGroupDeactivated Type = "before_rule_flow_group_deactivated"
	TypeAfterRuleFlowGroupDeactivated  Type = "after_rule_flow_group_deactivated"

	TypeBeforeProcessStarted   Type = "before_process_started"
	TypeAfterProcessStarted    Type = "after_process_started"
	TypeBeforeProcessCompleted Type = "before_process_completed"
	TypeAfterProcessCompleted  Type = "after_process_completed"
	TypeBeforeVariableChanged  Type = "before_variable_changed"
	TypeAfterVariableChanged   Type = "after_variable_changed"
)

var allTypes = []Type{
	TypeObjectInserted, TypeObjectUpdated, TypeObjectDeleted,
	TypeMatchCreated, TypeMatchCancelled, TypeBeforeMatchFired, TypeAfterMatchFired,
	TypeAgendaGroupPopped, TypeAgendaGroupPushed,
	TypeBeforeRuleFlowGroupActivated, TypeAfterRuleFlowGroupActivated,
	TypeBeforeRuleFlowGroupDeactivated, TypeAfterRuleFlowGroupDeactivated,
	TypeBeforeProcessStarted, TypeAfterProcessStarted,
	TypeBeforeProcessCompleted, TypeAfterProcessCompleted,
	TypeBeforeVariableChanged, TypeAfterVariableChanged,
}

// Types returns every event type.
func Types() []Type { return append([]Type(nil), allTypes...) }

// ParseType validates an event type name.
func ParseType(s string) (Type, error) {
	for _, t := range allTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown event type %q", s)
}

// Event is implemented by every payload.
type Event interface {
	Type() Type
	Runtime() Runtime
}

type base struct {
	typ     Type
	runtime Runtime
}

func (b base) Type() Type { return b.typ }

func (b base) Runtime() Runtime { return b.runtime }

// MatchCancelledCause is forwarded unchanged from the engine.
type MatchCancelledCause = engine.CancelCause

const (
	CauseFactModified = engine.CauseFactModified
	CauseFactDeleted  = engine.CauseFactDeleted
	CauseFilter       = engine.CauseFilter
	CauseClear        = engine.CauseClear
)

func ruleName(r *engine.Rule) string {
	if r == nil {
		return ""
	}
	return r.Name
}

// ObjectInsertedEvent reports a new fact. Rule is empty for caller inserts.
type ObjectInsertedEvent struct {
	base
	Handle     *engine.FactHandle
	Object     any
	EntryPoint string
	Rule       string
}

// NewObjectInserted translates an engine insert.
func NewObjectInserted(rt Runtime, ev *engine.ObjectInsertedEvent) *ObjectInsertedEvent {
	return &ObjectInsertedEvent{
		base:       base{TypeObjectInserted, rt},
		Handle:     ev.Handle,
		Object:     ev.Object,
		EntryPoint: ev.EntryPoint,
		Rule:       ruleName(ev.Rule),
	}
}

// ObjectUpdatedEvent reports a fact update.
type ObjectUpdatedEvent struct {
	base
	Handle     *engine.FactHandle
	OldObject  any
	Object     any
	EntryPoint string
	Rule       string
}

// NewObjectUpdated translates an engine update.
func NewObjectUpdated(rt Runtime, ev *engine.ObjectUpdatedEvent) *ObjectUpdatedEvent {
	return &ObjectUpdatedEvent{
		base:       base{TypeObjectUpdated, rt},
		Handle:     ev.Handle,
		OldObject:  ev.OldObject,
		Object:     ev.Object,
		EntryPoint: ev.EntryPoint,
		Rule:       ruleName(ev.Rule),
	}
}

// ObjectDeletedEvent reports a fact deletion.
type ObjectDeletedEvent struct {
	base
	Handle     *engine.FactHandle
	OldObject  any
	EntryPoint string
	Rule       string
}

// NewObjectDeleted translates an engine delete.
func NewObjectDeleted(rt Runtime, ev *engine.ObjectDeletedEvent) *ObjectDeletedEvent {
	return &ObjectDeletedEvent{
		base:       base{TypeObjectDeleted, rt},
		Handle:     ev.Handle,
		OldObject:  ev.OldObject,
		EntryPoint: ev.EntryPoint,
		Rule:       ruleName(ev.Rule),
	}
}

// MatchEvent reports a created or firing match.
type MatchEvent struct {
	base
	Match *engine.Activation
}

// NewMatch builds a match event of the given type.
func NewMatch(typ Type, rt Runtime, act *engine.Activation) *MatchEvent {
	return &MatchEvent{base: base{typ, rt}, Match: act}
}

// MatchCancelledEvent reports a dropped match and why.
type MatchCancelledEvent struct {
	base
	Match *engine.Activation
	Cause MatchCancelledCause
}

// NewMatchCancelled translates an engine cancellation.
func NewMatchCancelled(rt Runtime, ev *engine.ActivationCancelledEvent) *MatchCancelledEvent {
	return &MatchCancelledEvent{
		base:  base{TypeMatchCancelled, rt},
		Match: ev.Activation,
		Cause: ev.Cause,
	}
}

// AgendaGroupEvent reports a focus stack push or pop.
type AgendaGroupEvent struct {
	base
	Group *engine.AgendaGroup
}

// NewAgendaGroup builds an agenda group event of the given type.
func NewAgendaGroup(typ Type, rt Runtime, g *engine.AgendaGroup) *AgendaGroupEvent {
	return &AgendaGroupEvent{base: base{typ, rt}, Group: g}
}

// RuleFlowGroupEvent brackets rule-flow group activation and deactivation.
type RuleFlowGroupEvent struct {
	base
	Group *engine.AgendaGroup
}

// NewRuleFlowGroup builds a rule-flow group event of the given type.
func NewRuleFlowGroup(typ Type, rt Runtime, g *engine.AgendaGroup) *RuleFlowGroupEvent {
	return &RuleFlowGroupEvent{base: base{typ, rt}, Group: g}
}

// ProcessEvent brackets process start and completion.
type ProcessEvent struct {
	base
	Instance *engine.ProcessInstance
}

// NewProcess builds a process event of the given type.
func NewProcess(typ Type, rt Runtime, pi *engine.ProcessInstance) *ProcessEvent {
	return &ProcessEvent{base: base{typ, rt}, Instance: pi}
}

// ProcessVariableEvent brackets a process variable change.
type ProcessVariableEvent struct {
	base
	Instance *engine.ProcessInstance
	Name     string
	OldValue any
	NewValue any
}

// NewProcessVariable translates an engine variable change.
func NewProcessVariable(typ Type, rt Runtime, ev *engine.ProcessVariableEvent) *ProcessVariableEvent {
	return &ProcessVariableEvent{
		base:     base{typ, rt},
		Instance: ev.Instance,
		Name:     ev.Name,
		OldValue: ev.OldValue,
		NewValue: ev.NewValue,
	}
}
