package cli

import (
	"fmt"
	"reflect"

	"github.com/harun/rulesession/internal/config"
	"github.com/harun/rulesession/pkg/command"
	"github.com/harun/rulesession/pkg/engine"
)

// Names of the built-in knowledge base members batch documents can use.
const (
	TallyGlobal    = "tally"
	CollectProcess = "collect"
)

// builtinKnowledgeBase is the knowledge base the CLI runs documents
// against. Document facts are *command.DocumentFact values.
//
// Queries:
//
//	all                    every fact
//	byType [type]          facts of one type
//	byField [type field v] facts of one type whose field equals v
//
// Rules:
//
//	tally  counts facts per type into the "tally" global (map[string]int)
//
// Processes:
//
//	collect  stores each signal as a variable; "complete" ends the instance
func builtinKnowledgeBase(cfg config.SessionConfig) (*engine.KnowledgeBase, error) {
	kb := engine.NewKnowledgeBase(cfg.KnowledgeBase)
	for _, ep := range cfg.EntryPoints {
		if err := kb.DeclareEntryPoint(ep); err != nil {
			return nil, err
		}
	}

	queries := []engine.Query{
		{Name: "all", Match: func(any, []any) bool { return true }},
		{Name: "byType", Match: matchType},
		{Name: "byField", Match: matchField},
	}
	for _, q := range queries {
		if err := kb.AddQuery(q); err != nil {
			return nil, err
		}
	}

	if err := kb.AddRule(engine.Rule{
		Name: "tally",
		When: func(o any) bool {
			_, ok := o.(*command.DocumentFact)
			return ok
		},
		Then: tally,
	}); err != nil {
		return nil, err
	}

	if err := kb.AddProcess(engine.ProcessDefinition{
		ID:       CollectProcess,
		Name:     "Collect signals",
		OnSignal: collect,
	}); err != nil {
		return nil, err
	}
	return kb, nil
}

func docFact(o any, typ any) (*command.DocumentFact, bool) {
	f, ok := o.(*command.DocumentFact)
	if !ok {
		return nil, false
	}
	return f, f.Type == fmt.Sprint(typ)
}

func matchType(o any, args []any) bool {
	if len(args) < 1 {
		return false
	}
	_, ok := docFact(o, args[0])
	return ok
}

func matchField(o any, args []any) bool {
	if len(args) < 3 {
		return false
	}
	f, ok := docFact(o, args[0])
	if !ok {
		return false
	}
	v, present := f.Fields[fmt.Sprint(args[1])]
	return present && reflect.DeepEqual(v, args[2])
}

func tally(ctx *engine.RuleContext) error {
	g, ok := ctx.Global(TallyGlobal)
	if !ok {
		return nil
	}
	counts, ok := g.(map[string]int)
	if !ok {
		return fmt.Errorf("global %q is %T, want map[string]int", TallyGlobal, g)
	}
	counts[ctx.Object().(*command.DocumentFact).Type]++
	return nil
}

func collect(pi *engine.ProcessInstance, eventType string, ev any) error {
	if eventType == "complete" {
		pi.Complete()
		return nil
	}
	pi.SetVariable(eventType, ev)
	return nil
}
