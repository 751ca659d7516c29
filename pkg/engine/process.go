package engine

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// ProcessState is the lifecycle state of a process instance.
type ProcessState int

const (
	ProcessPending ProcessState = iota
	ProcessActive
	ProcessCompleted
	ProcessAborted
)

func (s ProcessState) String() string {
	switch s {
	case ProcessPending:
		return "pending"
	case ProcessActive:
		return "active"
	case ProcessCompleted:
		return "completed"
	case ProcessAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// ProcessDefinition describes a signal-driven process. OnStart runs when an
// instance starts; OnSignal runs for every event signalled to an active
// instance. Either hook may call Complete on the instance.
type ProcessDefinition struct {
	ID       string
	Name     string
	OnStart  func(pi *ProcessInstance) error
	OnSignal func(pi *ProcessInstance, eventType string, event any) error
}

// ProcessInstance is one run of a process definition.
type ProcessInstance struct {
	id             int64
	def            *ProcessDefinition
	runtime        *ProcessRuntime
	correlationKey string

	mu    sync.Mutex
	state ProcessState
	vars  map[string]any
}

// ID returns the instance id.
func (pi *ProcessInstance) ID() int64 { return pi.id }

// ProcessID returns the definition id.
func (pi *ProcessInstance) ProcessID() string { return pi.def.ID }

// ProcessName returns the definition name.
func (pi *ProcessInstance) ProcessName() string { return pi.def.Name }

// CorrelationKey returns the business key, if any.
func (pi *ProcessInstance) CorrelationKey() string { return pi.correlationKey }

// State returns the current state.
func (pi *ProcessInstance) State() ProcessState {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	return pi.state
}

// Variable returns a process variable.
func (pi *ProcessInstance) Variable(name string) (any, bool) {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	v, ok := pi.vars[name]
	return v, ok
}

// Variables returns a copy of the process variables.
func (pi *ProcessInstance) Variables() map[string]any {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	return maps.Clone(pi.vars)
}

// SetVariable sets a process variable, raising before/after events.
func (pi *ProcessInstance) SetVariable(name string, value any) {
	pi.mu.Lock()
	old := pi.vars[name]
	pi.mu.Unlock()

	ev := &ProcessVariableEvent{Instance: pi, Name: name, OldValue: old, NewValue: value}
	pi.runtime.wm.fireBeforeVariableChanged(ev)
	pi.mu.Lock()
	pi.vars[name] = value
	pi.mu.Unlock()
	pi.runtime.wm.fireAfterVariableChanged(ev)
}

// Complete ends an active instance.
func (pi *ProcessInstance) Complete() {
	pi.runtime.finish(pi, ProcessCompleted)
}

func (pi *ProcessInstance) transition(from, to ProcessState) bool {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	if pi.state != from {
		return false
	}
	pi.state = to
	return true
}

// ProcessRuntime manages process instances for one working memory.
type ProcessRuntime struct {
	wm *Memory

	mu            sync.Mutex
	seq           int64
	instances     map[int64]*ProcessInstance
	byCorrelation map[string]*ProcessInstance
}

func newProcessRuntime(wm *Memory) *ProcessRuntime {
	return &ProcessRuntime{
		wm:            wm,
		instances:     make(map[int64]*ProcessInstance),
		byCorrelation: make(map[string]*ProcessInstance),
	}
}

// StartProcess creates and starts an instance of processID.
func (pr *ProcessRuntime) StartProcess(processID string, params map[string]any) (*ProcessInstance, error) {
	return pr.StartProcessWithCorrelation(processID, "", params)
}

// StartProcessWithCorrelation starts an instance reachable by a business key.
func (pr *ProcessRuntime) StartProcessWithCorrelation(processID, key string, params map[string]any) (*ProcessInstance, error) {
	pi, err := pr.create(processID, key, params)
	if err != nil {
		return nil, err
	}
	return pr.StartProcessInstance(pi.id)
}

// CreateProcessInstance creates a pending instance without starting it.
func (pr *ProcessRuntime) CreateProcessInstance(processID string, params map[string]any) (*ProcessInstance, error) {
	return pr.create(processID, "", params)
}

func (pr *ProcessRuntime) create(processID, key string, params map[string]any) (*ProcessInstance, error) {
	def, ok := pr.wm.kbase.Process(processID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProcess, processID)
	}

	pr.mu.Lock()
	defer pr.mu.Unlock()
	if key != "" {
		if _, taken := pr.byCorrelation[key]; taken {
			return nil, fmt.Errorf("correlation key %q already in use", key)
		}
	}
	pr.seq++
	pi := &ProcessInstance{
		id:             pr.seq,
		def:            def,
		runtime:        pr,
		correlationKey: key,
		state:          ProcessPending,
		vars:           maps.Clone(params),
	}
	if pi.vars == nil {
		pi.vars = make(map[string]any)
	}
	pr.instances[pi.id] = pi
	if key != "" {
		pr.byCorrelation[key] = pi
	}
	return pi, nil
}

// StartProcessInstance starts a pending instance.
func (pr *ProcessRuntime) StartProcessInstance(id int64) (*ProcessInstance, error) {
	pi, ok := pr.ProcessInstance(id)
	if !ok || pi.State() != ProcessPending {
		return nil, fmt.Errorf("%w: %d", ErrUnknownProcessInstance, id)
	}

	ev := &ProcessEvent{Instance: pi}
	pr.wm.fireBeforeProcessStarted(ev)
	pi.transition(ProcessPending, ProcessActive)
	var err error
	if pi.def.OnStart != nil {
		err = pi.def.OnStart(pi)
	}
	pr.wm.fireAfterProcessStarted(ev)
	if err != nil {
		return pi, fmt.Errorf("process %q start: %w", pi.def.ID, err)
	}
	return pi, nil
}

// SignalEvent delivers an event to every active instance.
func (pr *ProcessRuntime) SignalEvent(eventType string, event any) error {
	var errs []error
	for _, pi := range pr.ProcessInstances() {
		if err := pr.signal(pi, eventType, event); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("signal %q: %w", eventType, errors.Join(errs...))
	}
	return nil
}

// SignalEventTo delivers an event to one active instance.
func (pr *ProcessRuntime) SignalEventTo(id int64, eventType string, event any) error {
	pi, ok := pr.ProcessInstance(id)
	if !ok || pi.State() != ProcessActive {
		return fmt.Errorf("%w: %d", ErrUnknownProcessInstance, id)
	}
	return pr.signal(pi, eventType, event)
}

func (pr *ProcessRuntime) signal(pi *ProcessInstance, eventType string, event any) error {
	if pi.def.OnSignal == nil || pi.State() != ProcessActive {
		return nil
	}
	if err := pi.def.OnSignal(pi, eventType, event); err != nil {
		return fmt.Errorf("process instance %d: %w", pi.id, err)
	}
	return nil
}

// AbortProcessInstance aborts an active or pending instance.
func (pr *ProcessRuntime) AbortProcessInstance(id int64) error {
	pi, ok := pr.ProcessInstance(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownProcessInstance, id)
	}
	if !pr.finish(pi, ProcessAborted) {
		return fmt.Errorf("%w: %d", ErrUnknownProcessInstance, id)
	}
	return nil
}

func (pr *ProcessRuntime) finish(pi *ProcessInstance, to ProcessState) bool {
	state := pi.State()
	if state != ProcessActive && state != ProcessPending {
		return false
	}
	ev := &ProcessEvent{Instance: pi}
	pr.wm.fireBeforeProcessCompleted(ev)
	if !pi.transition(state, to) {
		return false
	}
	pr.mu.Lock()
	delete(pr.instances, pi.id)
	if pi.correlationKey != "" {
		delete(pr.byCorrelation, pi.correlationKey)
	}
	pr.mu.Unlock()
	pr.wm.fireAfterProcessCompleted(ev)
	return true
}

// ProcessInstance returns a live (pending or active) instance.
func (pr *ProcessRuntime) ProcessInstance(id int64) (*ProcessInstance, bool) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	pi, ok := pr.instances[id]
	return pi, ok
}

// ProcessInstanceByCorrelation returns a live instance by business key.
func (pr *ProcessRuntime) ProcessInstanceByCorrelation(key string) (*ProcessInstance, bool) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	pi, ok := pr.byCorrelation[key]
	return pi, ok
}

// ProcessInstances returns live instances ordered by id.
func (pr *ProcessRuntime) ProcessInstances() []*ProcessInstance {
	pr.mu.Lock()
	out := slices.Collect(maps.Values(pr.instances))
	pr.mu.Unlock()
	slices.SortFunc(out, func(a, b *ProcessInstance) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})
	return out
}

func (pr *ProcessRuntime) abortAll() {
	for _, pi := range pr.ProcessInstances() {
		pr.finish(pi, ProcessAborted)
	}
}
