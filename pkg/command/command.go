// Package command defines the command protocol executed by a rule session:
// commands, execution contexts, shared execution results and batches.
//
// Invariants:
// - A BatchCommand is recognised structurally, never by caller declaration.
// - Every sub-command of a batch runs under its own FixedContext that shares
//   the batch's ExecutionResults.
// - A batch stops at the first failing sub-command and returns its error
//   unmodified. Effects of earlier sub-commands stay committed.
package command

import (
	"errors"
	"sync"

	"github.com/harun/rulesession/pkg/engine"
	"github.com/harun/rulesession/pkg/storeview"
)

var (
	// ErrNoRuntime is returned when a command runs outside a session context.
	ErrNoRuntime = errors.New("command context has no runtime")
	// ErrUnknownFactHandle is returned when a handle reference is not in the results.
	ErrUnknownFactHandle = errors.New("fact handle reference not found")
)

// Command is a self-contained unit of work.
type Command interface {
	Execute(ctx Context) (any, error)
}

// BatchCommand sequences other commands under one result set.
type BatchCommand interface {
	Command
	Commands() []Command
}

// Func adapts a function to Command.
type Func func(ctx Context) (any, error)

// Execute calls f.
func (f Func) Execute(ctx Context) (any, error) { return f(ctx) }

// Runtime is the session surface commands operate on.
type Runtime interface {
	ID() string
	Insert(object any) (*engine.FactHandle, error)
	Update(h *engine.FactHandle, object any) error
	Delete(h *engine.FactHandle) error
	EntryPoint(name string) (*engine.EntryPoint, error)
	FireAllRules(opts ...engine.FireOption) (int, error)
	SetGlobal(name string, value any) error
	Global(name string) (any, error)
	Objects(filter engine.ObjectFilter) (*storeview.View[any], error)
	Query(name string, args ...any) (*engine.QueryResults, error)
	StartProcess(processID string, params map[string]any) (*engine.ProcessInstance, error)
	SignalEvent(eventType string, event any) error
	SignalEventTo(processInstanceID int64, eventType string, event any) error
	AbortProcessInstance(id int64) error
}

// Context carries ambient bindings for a command.
type Context interface {
	Get(name string) (any, bool)
	Set(name string, value any)
	Remove(name string)
	Parent() Context
	// Results returns the shared result set, or nil when none is bound.
	Results() *ExecutionResults
}

// MapContext is a plain Context backed by a map. Lookups fall back to the
// parent.
type MapContext struct {
	parent  Context
	mu      sync.RWMutex
	values  map[string]any
	results *ExecutionResults
}

// NewContext creates an empty context.
func NewContext(parent Context) *MapContext {
	return &MapContext{parent: parent, values: make(map[string]any)}
}

// Get returns a binding from this context or its ancestors.
func (c *MapContext) Get(name string) (any, bool) {
	c.mu.RLock()
	v, ok := c.values[name]
	c.mu.RUnlock()
	if ok {
		return v, true
	}
	if c.parent != nil {
		return c.parent.Get(name)
	}
	return nil, false
}

// Set binds a value in this context.
func (c *MapContext) Set(name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[name] = value
}

// Remove drops a binding from this context.
func (c *MapContext) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, name)
}

// Parent returns the enclosing context.
func (c *MapContext) Parent() Context { return c.parent }

// Results returns the bound result set.
func (c *MapContext) Results() *ExecutionResults {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.results
}

// SetResults binds a result set.
func (c *MapContext) SetResults(r *ExecutionResults) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = r
}

// RuntimeContext is a Context bound to a session.
type RuntimeContext interface {
	Context
	Runtime() Runtime
	KnowledgeBase() *engine.KnowledgeBase
	// EntryPoint overrides the entry point for fact commands; empty means default.
	EntryPoint() string
}

// FixedContext is the context a session builds for every executed command.
type FixedContext struct {
	*MapContext
	entryPoint string
	kbase      *engine.KnowledgeBase
	runtime    Runtime
}

var _ RuntimeContext = (*FixedContext)(nil)

// NewFixedContext binds parent, entry point, knowledge base, runtime and results.
func NewFixedContext(parent Context, entryPoint string, kb *engine.KnowledgeBase, rt Runtime, results *ExecutionResults) *FixedContext {
	mc := NewContext(parent)
	mc.results = results
	return &FixedContext{MapContext: mc, entryPoint: entryPoint, kbase: kb, runtime: rt}
}

// Runtime returns the bound session.
func (c *FixedContext) Runtime() Runtime { return c.runtime }

// KnowledgeBase returns the bound knowledge base.
func (c *FixedContext) KnowledgeBase() *engine.KnowledgeBase { return c.kbase }

// EntryPoint returns the entry point override.
func (c *FixedContext) EntryPoint() string { return c.entryPoint }

// runtimeContext finds the nearest RuntimeContext in the parent chain.
func runtimeContext(ctx Context) (RuntimeContext, error) {
	for c := ctx; c != nil; c = c.Parent() {
		if rc, ok := c.(RuntimeContext); ok && rc.Runtime() != nil {
			return rc, nil
		}
	}
	return nil, ErrNoRuntime
}
