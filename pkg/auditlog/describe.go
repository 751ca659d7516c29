package auditlog

import (
	"fmt"

	"github.com/harun/rulesession/pkg/engine"
	"github.com/harun/rulesession/pkg/event"
)

func handleForm(h *engine.FactHandle) string {
	if h == nil {
		return ""
	}
	return h.ExternalForm()
}

func text(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func matchAttrs(act *engine.Activation) map[string]any {
	return map[string]any{
		"activation_id": act.ID(),
		"agenda_group":  act.AgendaGroup(),
		"salience":      act.Salience(),
	}
}

func describe(ev event.Event) Record {
	rec := Record{Type: ev.Type(), Attributes: map[string]any{}}
	if rt := ev.Runtime(); rt != nil {
		rec.SessionID = rt.ID()
	}

	switch e := ev.(type) {
	case *event.ObjectInsertedEvent:
		rec.FactHandle = handleForm(e.Handle)
		rec.Rule = e.Rule
		rec.Attributes["entry_point"] = e.EntryPoint
		rec.Attributes["object"] = text(e.Object)
	case *event.ObjectUpdatedEvent:
		rec.FactHandle = handleForm(e.Handle)
		rec.Rule = e.Rule
		rec.Attributes["entry_point"] = e.EntryPoint
		rec.Attributes["old_object"] = text(e.OldObject)
		rec.Attributes["object"] = text(e.Object)
	case *event.ObjectDeletedEvent:
		rec.FactHandle = handleForm(e.Handle)
		rec.Rule = e.Rule
		rec.Attributes["entry_point"] = e.EntryPoint
		rec.Attributes["old_object"] = text(e.OldObject)
	case *event.MatchEvent:
		rec.FactHandle = handleForm(e.Match.FactHandle())
		rec.Rule = e.Match.RuleName()
		rec.Attributes = matchAttrs(e.Match)
	case *event.MatchCancelledEvent:
		rec.FactHandle = handleForm(e.Match.FactHandle())
		rec.Rule = e.Match.RuleName()
		rec.Attributes = matchAttrs(e.Match)
		rec.Attributes["cause"] = e.Cause.String()
	case *event.AgendaGroupEvent:
		rec.Attributes["group"] = e.Group.Name()
	case *event.RuleFlowGroupEvent:
		rec.Attributes["group"] = e.Group.Name()
	case *event.ProcessEvent:
		rec.Attributes["process_instance_id"] = e.Instance.ID()
		rec.Attributes["process_id"] = e.Instance.ProcessID()
		rec.Attributes["state"] = e.Instance.State().String()
	case *event.ProcessVariableEvent:
		rec.Attributes["process_instance_id"] = e.Instance.ID()
		rec.Attributes["variable"] = e.Name
		rec.Attributes["old_value"] = text(e.OldValue)
		rec.Attributes["new_value"] = text(e.NewValue)
	}
	return rec
}
