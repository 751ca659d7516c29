package engine

import (
	"slices"
	"sync"
)

// Activation is a pending match of one rule against one fact.
type Activation struct {
	id     int64
	rule   *Rule
	handle *FactHandle
	object any
	group  *AgendaGroup
}

// ID returns the agenda-scoped activation id.
func (a *Activation) ID() int64 { return a.id }

// Rule returns the matched rule.
func (a *Activation) Rule() *Rule { return a.rule }

// RuleName returns the matched rule's name.
func (a *Activation) RuleName() string { return a.rule.Name }

// FactHandle returns the matched fact's handle.
func (a *Activation) FactHandle() *FactHandle { return a.handle }

// Object returns the matched object as it was when the activation was created.
func (a *Activation) Object() any { return a.object }

// AgendaGroup returns the name of the owning group.
func (a *Activation) AgendaGroup() string { return a.group.name }

// Salience returns the rule salience.
func (a *Activation) Salience() int { return a.rule.Salience }

// AgendaFilter decides whether an activation may fire.
type AgendaFilter func(a *Activation) bool

// AgendaGroup holds activations ordered by salience, then creation.
type AgendaGroup struct {
	name        string
	ruleFlow    bool
	active      bool
	activations []*Activation
}

// Name returns the group name.
func (g *AgendaGroup) Name() string { return g.name }

// IsRuleFlow reports whether the group only fires once activated.
func (g *AgendaGroup) IsRuleFlow() bool { return g.ruleFlow }

func (g *AgendaGroup) insert(a *Activation) {
	i, _ := slices.BinarySearchFunc(g.activations, a, func(existing, target *Activation) int {
		if existing.rule.Salience != target.rule.Salience {
			if existing.rule.Salience > target.rule.Salience {
				return -1
			}
			return 1
		}
		if existing.id < target.id {
			return -1
		}
		return 1
	})
	g.activations = slices.Insert(g.activations, i, a)
}

func (g *AgendaGroup) remove(a *Activation) bool {
	i := slices.Index(g.activations, a)
	if i < 0 {
		return false
	}
	g.activations = slices.Delete(g.activations, i, i+1)
	return true
}

// Agenda owns agenda groups, the focus stack and pending activations.
type Agenda struct {
	wm *Memory

	mu       sync.Mutex
	seq      int64
	groups   map[string]*AgendaGroup
	focus    []*AgendaGroup
	byHandle map[*FactHandle][]*Activation
	wake     chan struct{}
}

func newAgenda(wm *Memory) *Agenda {
	main := &AgendaGroup{name: MainAgendaGroup}
	return &Agenda{
		wm:       wm,
		groups:   map[string]*AgendaGroup{MainAgendaGroup: main},
		focus:    []*AgendaGroup{main},
		byHandle: make(map[*FactHandle][]*Activation),
		wake:     make(chan struct{}, 1),
	}
}

func (a *Agenda) groupLocked(name string, ruleFlow bool) *AgendaGroup {
	g, ok := a.groups[name]
	if !ok {
		g = &AgendaGroup{name: name, ruleFlow: ruleFlow}
		a.groups[name] = g
	}
	return g
}

// Size returns the number of pending activations across all groups.
func (a *Agenda) Size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, g := range a.groups {
		n += len(g.activations)
	}
	return n
}

// GroupSize returns the number of pending activations in a group.
func (a *Agenda) GroupSize(name string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if g, ok := a.groups[name]; ok {
		return len(g.activations)
	}
	return 0
}

// Activations returns a copy of the pending activations of a group.
func (a *Agenda) Activations(name string) []*Activation {
	a.mu.Lock()
	defer a.mu.Unlock()
	if g, ok := a.groups[name]; ok {
		return append([]*Activation(nil), g.activations...)
	}
	return nil
}

// Focus returns the name of the group on top of the focus stack.
func (a *Agenda) Focus() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.focus[len(a.focus)-1].name
}

// SetFocus pushes a group onto the focus stack unless it is already on top.
func (a *Agenda) SetFocus(name string) {
	if name == "" {
		name = MainAgendaGroup
	}
	a.mu.Lock()
	g := a.groupLocked(name, false)
	if a.focus[len(a.focus)-1] == g {
		a.mu.Unlock()
		return
	}
	a.focus = append(a.focus, g)
	a.mu.Unlock()

	a.wm.fireAgendaGroupPushed(g)
	a.signal()
}

// ActivateRuleFlowGroup activates a rule-flow group and gives it focus.
func (a *Agenda) ActivateRuleFlowGroup(name string) {
	a.mu.Lock()
	g := a.groupLocked(name, true)
	if g.active {
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()

	a.wm.fireBeforeRuleFlowGroupActivated(g)
	a.mu.Lock()
	g.active = true
	a.focus = append(a.focus, g)
	a.mu.Unlock()
	a.wm.fireAgendaGroupPushed(g)
	a.wm.fireAfterRuleFlowGroupActivated(g)
	a.signal()
}

// DeactivateRuleFlowGroup deactivates a rule-flow group and drops it from the
// focus stack. Its pending activations stay queued.
func (a *Agenda) DeactivateRuleFlowGroup(name string) {
	a.mu.Lock()
	g, ok := a.groups[name]
	if !ok || !g.ruleFlow || !g.active {
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()
	a.deactivate(g)
}

func (a *Agenda) deactivate(g *AgendaGroup) {
	a.wm.fireBeforeRuleFlowGroupDeactivated(g)
	a.mu.Lock()
	g.active = false
	a.focus = slices.DeleteFunc(a.focus, func(f *AgendaGroup) bool { return f == g })
	a.mu.Unlock()
	a.wm.fireAfterRuleFlowGroupDeactivated(g)
}

// Clear cancels every pending activation.
func (a *Agenda) Clear() {
	a.mu.Lock()
	var cancelled []*Activation
	for _, g := range a.groups {
		cancelled = append(cancelled, g.activations...)
		g.activations = nil
	}
	clear(a.byHandle)
	a.mu.Unlock()
	a.emitCancelled(cancelled, CauseClear)
}

// ClearGroup cancels the pending activations of one group.
func (a *Agenda) ClearGroup(name string) {
	a.mu.Lock()
	g, ok := a.groups[name]
	if !ok {
		a.mu.Unlock()
		return
	}
	cancelled := g.activations
	g.activations = nil
	for _, act := range cancelled {
		a.unindexLocked(act)
	}
	a.mu.Unlock()
	a.emitCancelled(cancelled, CauseClear)
}

func (a *Agenda) emitCancelled(cancelled []*Activation, cause CancelCause) {
	for _, act := range cancelled {
		a.wm.fireActivationCancelled(act, cause)
	}
}

func (a *Agenda) signal() {
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

func (a *Agenda) unindexLocked(act *Activation) {
	list := a.byHandle[act.handle]
	list = slices.DeleteFunc(list, func(x *Activation) bool { return x == act })
	if len(list) == 0 {
		delete(a.byHandle, act.handle)
	} else {
		a.byHandle[act.handle] = list
	}
}

func (a *Agenda) create(rule *Rule, h *FactHandle, object any) {
	a.mu.Lock()
	a.seq++
	g := a.groupLocked(rule.groupName(), rule.RuleFlowGroup != "")
	act := &Activation{id: a.seq, rule: rule, handle: h, object: object, group: g}
	g.insert(act)
	a.byHandle[h] = append(a.byHandle[h], act)
	a.mu.Unlock()

	a.wm.fireActivationCreated(act)
	a.signal()
}

func (a *Agenda) pendingFor(h *FactHandle) []*Activation {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*Activation(nil), a.byHandle[h]...)
}

func (a *Agenda) cancel(act *Activation, cause CancelCause) {
	a.mu.Lock()
	removed := act.group.remove(act)
	if removed {
		a.unindexLocked(act)
	}
	a.mu.Unlock()
	if removed {
		a.wm.fireActivationCancelled(act, cause)
	}
}

func (a *Agenda) matchInserted(rules []*Rule, h *FactHandle, object any) {
	for _, r := range rules {
		if r.matches(object) {
			a.create(r, h, object)
		}
	}
}

func (a *Agenda) matchUpdated(rules []*Rule, h *FactHandle, object any, by *Rule) {
	pending := make(map[*Rule]*Activation)
	for _, act := range a.pendingFor(h) {
		pending[act.rule] = act
	}
	for _, r := range rules {
		existing, queued := pending[r]
		switch {
		case r.matches(object):
			if queued {
				existing.object = object
				continue
			}
			if r.NoLoop && r == by {
				continue
			}
			a.create(r, h, object)
		case queued:
			a.cancel(existing, CauseFactModified)
		}
	}
}

func (a *Agenda) matchDeleted(h *FactHandle) {
	for _, act := range a.pendingFor(h) {
		a.cancel(act, CauseFactDeleted)
	}
}

// next pops the next activation from the focus stack, popping exhausted
// groups as it goes. MAIN is never popped.
func (a *Agenda) next() *Activation {
	for {
		a.mu.Lock()
		top := a.focus[len(a.focus)-1]
		if len(top.activations) > 0 {
			act := top.activations[0]
			top.activations = slices.Delete(top.activations, 0, 1)
			a.unindexLocked(act)
			a.mu.Unlock()
			return act
		}
		if len(a.focus) == 1 {
			a.mu.Unlock()
			return nil
		}
		a.focus = a.focus[:len(a.focus)-1]
		a.mu.Unlock()

		a.wm.fireAgendaGroupPopped(top)
		if top.ruleFlow && top.active {
			a.deactivate(top)
		}
	}
}

// RuleContext is handed to rule consequences.
type RuleContext struct {
	wm         *Memory
	activation *Activation
}

// Activation returns the firing activation.
func (c *RuleContext) Activation() *Activation { return c.activation }

// Object returns the matched object.
func (c *RuleContext) Object() any { return c.activation.handle.Object() }

// FactHandle returns the matched fact handle.
func (c *RuleContext) FactHandle() *FactHandle { return c.activation.handle }

// Insert inserts a fact into the rule's entry point.
func (c *RuleContext) Insert(object any) (*FactHandle, error) {
	ep, err := c.wm.entryPoint(c.activation.rule.EntryPoint)
	if err != nil {
		return nil, err
	}
	return ep.insert(object, c.activation.rule)
}

// Update replaces the object behind h.
func (c *RuleContext) Update(h *FactHandle, object any) error {
	ep, err := c.wm.entryPoint(h.EntryPoint())
	if err != nil {
		return err
	}
	return ep.update(h, object, c.activation.rule)
}

// Delete removes the fact behind h.
func (c *RuleContext) Delete(h *FactHandle) error {
	ep, err := c.wm.entryPoint(h.EntryPoint())
	if err != nil {
		return err
	}
	return ep.delete(h, c.activation.rule)
}

// Halt stops the current firing loop after this consequence.
func (c *RuleContext) Halt() { c.wm.Halt() }

// SetFocus pushes an agenda group.
func (c *RuleContext) SetFocus(group string) { c.wm.agenda.SetFocus(group) }

// Global returns a global value.
func (c *RuleContext) Global(name string) (any, bool) { return c.wm.globals.Get(name) }

// Channel returns a registered channel.
func (c *RuleContext) Channel(name string) (Channel, bool) { return c.wm.channels.Get(name) }

// SignalEvent forwards a signal to the process runtime.
func (c *RuleContext) SignalEvent(eventType string, event any) error {
	pr, err := c.wm.ProcessRuntime()
	if err != nil {
		return err
	}
	return pr.SignalEvent(eventType, event)
}
