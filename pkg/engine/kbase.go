package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

const (
	// MainAgendaGroup is the group at the bottom of the focus stack.
	MainAgendaGroup = "MAIN"
	// DefaultEntryPoint is the entry point used by the session itself.
	DefaultEntryPoint = "DEFAULT"
)

// Rule is a single-fact production: When selects facts of an entry point,
// Then runs once per matched fact when its activation fires.
type Rule struct {
	Name string
	// AgendaGroup defaults to MAIN. Ignored when RuleFlowGroup is set.
	AgendaGroup string
	// RuleFlowGroup places activations in a group that only fires once
	// activated through the agenda.
	RuleFlowGroup string
	Salience      int
	// NoLoop suppresses re-activation when the rule's own consequence
	// updates the matched fact.
	NoLoop     bool
	EntryPoint string
	When       func(object any) bool
	Then       func(ctx *RuleContext) error
}

func (r *Rule) groupName() string {
	if r.RuleFlowGroup != "" {
		return r.RuleFlowGroup
	}
	if r.AgendaGroup != "" {
		return r.AgendaGroup
	}
	return MainAgendaGroup
}

func (r *Rule) matches(object any) bool {
	return r.When == nil || r.When(object)
}

// Query selects facts of an entry point using caller supplied arguments.
type Query struct {
	Name       string
	EntryPoint string
	Match      func(object any, args []any) bool
}

// KnowledgeBase is the immutable-after-setup catalogue of rules, queries,
// processes and entry points that working memories are built from.
type KnowledgeBase struct {
	name string

	mu          sync.RWMutex
	rules       []*Rule
	ruleNames   map[string]*Rule
	queries     map[string]*Query
	processes   map[string]*ProcessDefinition
	entryPoints map[string]bool
}

// NewKnowledgeBase creates an empty knowledge base.
func NewKnowledgeBase(name string) *KnowledgeBase {
	return &KnowledgeBase{
		name:        name,
		ruleNames:   make(map[string]*Rule),
		queries:     make(map[string]*Query),
		processes:   make(map[string]*ProcessDefinition),
		entryPoints: map[string]bool{DefaultEntryPoint: true},
	}
}

// Name returns the knowledge base name.
func (kb *KnowledgeBase) Name() string { return kb.name }

// AddRule registers a rule. Rule names are unique.
func (kb *KnowledgeBase) AddRule(rule Rule) error {
	name := strings.TrimSpace(rule.Name)
	if name == "" {
		return fmt.Errorf("rule name is required")
	}
	if rule.Then == nil {
		return fmt.Errorf("rule %q has no consequence", name)
	}
	if rule.EntryPoint == "" {
		rule.EntryPoint = DefaultEntryPoint
	}
	rule.Name = name

	kb.mu.Lock()
	defer kb.mu.Unlock()
	if _, exists := kb.ruleNames[name]; exists {
		return fmt.Errorf("rule %q already registered", name)
	}
	r := &rule
	kb.rules = append(kb.rules, r)
	kb.ruleNames[name] = r
	kb.entryPoints[rule.EntryPoint] = true
	return nil
}

// Rules returns rules in registration order.
func (kb *KnowledgeBase) Rules() []*Rule {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return append([]*Rule(nil), kb.rules...)
}

// Rule returns a rule by name.
func (kb *KnowledgeBase) Rule(name string) (*Rule, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	r, ok := kb.ruleNames[name]
	return r, ok
}

// AddQuery registers a named query.
func (kb *KnowledgeBase) AddQuery(q Query) error {
	name := strings.TrimSpace(q.Name)
	if name == "" {
		return fmt.Errorf("query name is required")
	}
	if q.Match == nil {
		return fmt.Errorf("query %q has no match function", name)
	}
	if q.EntryPoint == "" {
		q.EntryPoint = DefaultEntryPoint
	}
	q.Name = name

	kb.mu.Lock()
	defer kb.mu.Unlock()
	if _, exists := kb.queries[name]; exists {
		return fmt.Errorf("query %q already registered", name)
	}
	kb.queries[name] = &q
	kb.entryPoints[q.EntryPoint] = true
	return nil
}

// Query returns a query by name.
func (kb *KnowledgeBase) Query(name string) (*Query, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	q, ok := kb.queries[name]
	return q, ok
}

// AddProcess registers a process definition.
func (kb *KnowledgeBase) AddProcess(def ProcessDefinition) error {
	id := strings.TrimSpace(def.ID)
	if id == "" {
		return fmt.Errorf("process id is required")
	}
	def.ID = id

	kb.mu.Lock()
	defer kb.mu.Unlock()
	if _, exists := kb.processes[id]; exists {
		return fmt.Errorf("process %q already registered", id)
	}
	kb.processes[id] = &def
	return nil
}

// Process returns a process definition by id.
func (kb *KnowledgeBase) Process(id string) (*ProcessDefinition, bool) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	p, ok := kb.processes[id]
	return p, ok
}

// DeclareEntryPoint makes a named entry point available to new memories.
func (kb *KnowledgeBase) DeclareEntryPoint(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("entry point name is required")
	}
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.entryPoints[name] = true
	return nil
}

// EntryPointNames returns declared entry points, sorted.
func (kb *KnowledgeBase) EntryPointNames() []string {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	names := make([]string, 0, len(kb.entryPoints))
	for name := range kb.entryPoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (kb *KnowledgeBase) rulesFor(entryPoint string) []*Rule {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	var out []*Rule
	for _, r := range kb.rules {
		if r.EntryPoint == entryPoint {
			out = append(out, r)
		}
	}
	return out
}
