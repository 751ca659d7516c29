package command

import (
	"fmt"

	"github.com/harun/rulesession/pkg/engine"
)

func setResult(ctx Context, name string, value any) {
	if name == "" {
		return
	}
	if r := ctx.Results(); r != nil {
		r.SetResult(name, value)
	}
}

func resolveHandle(ctx Context, h *engine.FactHandle, ref string) (*engine.FactHandle, error) {
	if h != nil {
		return h, nil
	}
	if r := ctx.Results(); r != nil {
		if found, ok := r.FactHandle(ref); ok {
			return found, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFactHandle, ref)
}

type inserter interface {
	Insert(object any) (*engine.FactHandle, error)
}

func target(rc RuntimeContext, entryPoint string) (inserter, error) {
	if entryPoint == "" {
		entryPoint = rc.EntryPoint()
	}
	if entryPoint == "" {
		return rc.Runtime(), nil
	}
	return rc.Runtime().EntryPoint(entryPoint)
}

// Insert inserts one fact. With an out identifier the object and its handle
// are recorded in the results.
type Insert struct {
	Object        any
	OutIdentifier string
	EntryPoint    string
}

// Execute returns the new fact handle.
func (c *Insert) Execute(ctx Context) (any, error) {
	rc, err := runtimeContext(ctx)
	if err != nil {
		return nil, err
	}
	dst, err := target(rc, c.EntryPoint)
	if err != nil {
		return nil, err
	}
	h, err := dst.Insert(c.Object)
	if err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}
	if c.OutIdentifier != "" {
		setResult(ctx, c.OutIdentifier, c.Object)
		if r := ctx.Results(); r != nil {
			r.SetFactHandle(c.OutIdentifier, h)
		}
	}
	return h, nil
}

// InsertElements inserts several facts.
type InsertElements struct {
	Objects       []any
	OutIdentifier string
	EntryPoint    string
}

// Execute returns the new fact handles in input order.
func (c *InsertElements) Execute(ctx Context) (any, error) {
	rc, err := runtimeContext(ctx)
	if err != nil {
		return nil, err
	}
	dst, err := target(rc, c.EntryPoint)
	if err != nil {
		return nil, err
	}
	handles := make([]*engine.FactHandle, 0, len(c.Objects))
	for i, o := range c.Objects {
		h, err := dst.Insert(o)
		if err != nil {
			return nil, fmt.Errorf("insert element %d: %w", i, err)
		}
		handles = append(handles, h)
	}
	setResult(ctx, c.OutIdentifier, c.Objects)
	return handles, nil
}

// Delete removes a fact by handle or by an earlier out identifier.
type Delete struct {
	Handle    *engine.FactHandle
	HandleRef string
}

// Execute returns nil.
func (c *Delete) Execute(ctx Context) (any, error) {
	rc, err := runtimeContext(ctx)
	if err != nil {
		return nil, err
	}
	h, err := resolveHandle(ctx, c.Handle, c.HandleRef)
	if err != nil {
		return nil, err
	}
	if err := rc.Runtime().Delete(h); err != nil {
		return nil, fmt.Errorf("delete %s: %w", h, err)
	}
	return nil, nil
}

// Update replaces the object behind a handle or an earlier out identifier.
type Update struct {
	Handle    *engine.FactHandle
	HandleRef string
	Object    any
}

// Execute returns nil.
func (c *Update) Execute(ctx Context) (any, error) {
	rc, err := runtimeContext(ctx)
	if err != nil {
		return nil, err
	}
	h, err := resolveHandle(ctx, c.Handle, c.HandleRef)
	if err != nil {
		return nil, err
	}
	if err := rc.Runtime().Update(h, c.Object); err != nil {
		return nil, fmt.Errorf("update %s: %w", h, err)
	}
	return nil, nil
}

// FireAllRules fires the agenda.
type FireAllRules struct {
	Max           int
	Filter        engine.AgendaFilter
	OutIdentifier string
}

// Execute returns the number of rules fired.
func (c *FireAllRules) Execute(ctx Context) (any, error) {
	rc, err := runtimeContext(ctx)
	if err != nil {
		return nil, err
	}
	var opts []engine.FireOption
	if c.Max > 0 {
		opts = append(opts, engine.WithMaxRules(c.Max))
	}
	if c.Filter != nil {
		opts = append(opts, engine.WithAgendaFilter(c.Filter))
	}
	fired, err := rc.Runtime().FireAllRules(opts...)
	if err != nil {
		return fired, err
	}
	setResult(ctx, c.OutIdentifier, fired)
	return fired, nil
}

// SetGlobal sets a global.
type SetGlobal struct {
	Identifier    string
	Object        any
	OutIdentifier string
}

// Execute returns nil.
func (c *SetGlobal) Execute(ctx Context) (any, error) {
	rc, err := runtimeContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := rc.Runtime().SetGlobal(c.Identifier, c.Object); err != nil {
		return nil, err
	}
	setResult(ctx, c.OutIdentifier, c.Object)
	return nil, nil
}

// GetGlobal reads a global into the results under OutIdentifier, or under
// the global's own name.
type GetGlobal struct {
	Identifier    string
	OutIdentifier string
}

// Execute returns the global value.
func (c *GetGlobal) Execute(ctx Context) (any, error) {
	rc, err := runtimeContext(ctx)
	if err != nil {
		return nil, err
	}
	v, err := rc.Runtime().Global(c.Identifier)
	if err != nil {
		return nil, err
	}
	out := c.OutIdentifier
	if out == "" {
		out = c.Identifier
	}
	setResult(ctx, out, v)
	return v, nil
}

// GetObjects copies the default entry point facts accepted by Filter.
type GetObjects struct {
	Filter        engine.ObjectFilter
	OutIdentifier string
}

// Execute returns the objects as a slice.
func (c *GetObjects) Execute(ctx Context) (any, error) {
	rc, err := runtimeContext(ctx)
	if err != nil {
		return nil, err
	}
	view, err := rc.Runtime().Objects(c.Filter)
	if err != nil {
		return nil, err
	}
	objects := view.ToArray()
	setResult(ctx, c.OutIdentifier, objects)
	return objects, nil
}

// Query runs a named query. The matched objects go into the results.
type Query struct {
	Name          string
	Args          []any
	OutIdentifier string
}

// Execute returns the query results.
func (c *Query) Execute(ctx Context) (any, error) {
	rc, err := runtimeContext(ctx)
	if err != nil {
		return nil, err
	}
	res, err := rc.Runtime().Query(c.Name, c.Args...)
	if err != nil {
		return nil, err
	}
	out := c.OutIdentifier
	if out == "" {
		out = c.Name
	}
	setResult(ctx, out, res.Objects())
	return res, nil
}

// StartProcess starts a process instance.
type StartProcess struct {
	ProcessID     string
	Parameters    map[string]any
	OutIdentifier string
}

// Execute returns the process instance. The instance id goes into the results.
func (c *StartProcess) Execute(ctx Context) (any, error) {
	rc, err := runtimeContext(ctx)
	if err != nil {
		return nil, err
	}
	pi, err := rc.Runtime().StartProcess(c.ProcessID, c.Parameters)
	if err != nil {
		return nil, err
	}
	setResult(ctx, c.OutIdentifier, pi.ID())
	return pi, nil
}

// SignalEvent signals every active process instance, or only
// ProcessInstanceID when set.
type SignalEvent struct {
	EventType         string
	Event             any
	ProcessInstanceID int64
}

// Execute returns nil.
func (c *SignalEvent) Execute(ctx Context) (any, error) {
	rc, err := runtimeContext(ctx)
	if err != nil {
		return nil, err
	}
	if c.ProcessInstanceID > 0 {
		return nil, rc.Runtime().SignalEventTo(c.ProcessInstanceID, c.EventType, c.Event)
	}
	return nil, rc.Runtime().SignalEvent(c.EventType, c.Event)
}

// AbortProcessInstance aborts one process instance.
type AbortProcessInstance struct {
	ProcessInstanceID int64
}

// Execute returns nil.
func (c *AbortProcessInstance) Execute(ctx Context) (any, error) {
	rc, err := runtimeContext(ctx)
	if err != nil {
		return nil, err
	}
	return nil, rc.Runtime().AbortProcessInstance(c.ProcessInstanceID)
}
