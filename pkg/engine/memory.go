package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ExecutionResults receives named outputs while a batch runs.
type ExecutionResults interface {
	SetResult(name string, value any)
}

// WorkingMemory is everything a session facade consumes from the engine.
type WorkingMemory interface {
	ID() string
	// SetRuntime attaches the facade that owns this memory; listeners receive
	// it as the event source.
	SetRuntime(rt any)
	Runtime() any
	KnowledgeBase() *KnowledgeBase

	Insert(object any) (*FactHandle, error)
	Update(h *FactHandle, object any) error
	Delete(h *FactHandle) error
	FactHandle(object any) *FactHandle
	Object(h *FactHandle) any
	ObjectStore() ObjectStore
	FactCount() int
	EntryPoint(name string) (*EntryPoint, error)
	EntryPoints() []*EntryPoint

	Agenda() *Agenda
	FireAllRules(opts ...FireOption) (int, error)
	FireUntilHalt(ctx context.Context, opts ...FireOption) error
	Halt()

	Globals() *Globals
	Environment() *Environment
	Channels() *ChannelRegistry
	Query(name string, args ...any) (*QueryResults, error)
	OpenLiveQuery(name string, listener ViewChangedListener, args ...any) (*LiveQuery, error)
	ProcessRuntime() (*ProcessRuntime, error)
	TimerService() *TimerService
	SessionClock() SessionClock

	WorkingMemoryListeners() *ListenerSet[WorkingMemoryEventListener]
	AgendaListeners() *ListenerSet[AgendaEventListener]
	ProcessListeners() *ListenerSet[ProcessEventListener]

	StartBatchExecution(results ExecutionResults)
	ExecutionResults() ExecutionResults
	EndBatchExecution()

	Dispose()
}

var _ WorkingMemory = (*Memory)(nil)

// Config configures a Memory.
type Config struct {
	// ID defaults to a random uuid.
	ID     string
	Logger zerolog.Logger
	Clock  ClockType
	// ClockStart is the initial pseudo clock time. Defaults to the wall clock.
	ClockStart            time.Time
	DisableProcessRuntime bool
}

// FireOption tunes a firing loop.
type FireOption func(*fireOptions)

type fireOptions struct {
	filter AgendaFilter
	max    int
}

// WithAgendaFilter only fires activations accepted by f. Rejected
// activations are cancelled.
func WithAgendaFilter(f AgendaFilter) FireOption {
	return func(o *fireOptions) { o.filter = f }
}

// WithMaxRules stops after n firings. n <= 0 means unlimited.
func WithMaxRules(n int) FireOption {
	return func(o *fireOptions) { o.max = n }
}

// Memory is the reference working memory.
type Memory struct {
	id     string
	kbase  *KnowledgeBase
	logger zerolog.Logger

	runtime  atomic.Value
	handleID atomic.Int64
	halted   atomic.Bool
	disposed atomic.Bool

	epMu        sync.RWMutex
	entryPoints map[string]*EntryPoint
	defaultEP   *EntryPoint

	agenda   *Agenda
	process  *ProcessRuntime
	timers   *TimerService
	clock    SessionClock
	globals  *Globals
	env      *Environment
	channels *ChannelRegistry

	wmListeners      *ListenerSet[WorkingMemoryEventListener]
	agendaListeners  *ListenerSet[AgendaEventListener]
	processListeners *ListenerSet[ProcessEventListener]

	batchMu sync.Mutex
	batch   ExecutionResults
}

type runtimeBox struct{ rt any }

// New creates a working memory over kb.
func New(kb *KnowledgeBase, cfg Config) *Memory {
	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}
	m := &Memory{
		id:               id,
		kbase:            kb,
		logger:           cfg.Logger.With().Str("component", "working-memory").Str("wm_id", id).Logger(),
		entryPoints:      make(map[string]*EntryPoint),
		globals:          &Globals{newVars()},
		env:              &Environment{newVars()},
		channels:         newChannelRegistry(),
		wmListeners:      NewListenerSet[WorkingMemoryEventListener](),
		agendaListeners:  NewListenerSet[AgendaEventListener](),
		processListeners: NewListenerSet[ProcessEventListener](),
	}
	m.agenda = newAgenda(m)
	if !cfg.DisableProcessRuntime {
		m.process = newProcessRuntime(m)
	}

	if cfg.Clock == ClockPseudo {
		start := cfg.ClockStart
		if start.IsZero() {
			start = time.Now()
		}
		m.clock = NewPseudoClock(start)
	} else {
		m.clock = RealtimeClock{}
	}
	m.timers = newTimerService(m.clock, m.logger)

	for _, name := range kb.EntryPointNames() {
		m.entryPoints[name] = &EntryPoint{name: name, wm: m, store: NewIdentityStore()}
	}
	m.defaultEP = m.entryPoints[DefaultEntryPoint]
	return m
}

// ID returns the memory id.
func (m *Memory) ID() string { return m.id }

// SetRuntime attaches the owning facade.
func (m *Memory) SetRuntime(rt any) { m.runtime.Store(runtimeBox{rt}) }

// Runtime returns the owning facade, or the memory itself when none is attached.
func (m *Memory) Runtime() any {
	if box, ok := m.runtime.Load().(runtimeBox); ok && box.rt != nil {
		return box.rt
	}
	return m
}

// KnowledgeBase returns the knowledge base the memory was built from.
func (m *Memory) KnowledgeBase() *KnowledgeBase { return m.kbase }

func (m *Memory) entryPoint(name string) (*EntryPoint, error) {
	if m.disposed.Load() {
		return nil, ErrDisposed
	}
	if name == "" {
		return m.defaultEP, nil
	}
	m.epMu.RLock()
	ep, ok := m.entryPoints[name]
	m.epMu.RUnlock()
	if ok {
		return ep, nil
	}
	for _, declared := range m.kbase.EntryPointNames() {
		if declared == name {
			return m.ensureEntryPoint(name), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownEntryPoint, name)
}

// ensureEntryPoint creates entry points declared on the knowledge base after
// this memory was built.
func (m *Memory) ensureEntryPoint(name string) *EntryPoint {
	m.epMu.Lock()
	defer m.epMu.Unlock()
	ep, ok := m.entryPoints[name]
	if !ok {
		ep = &EntryPoint{name: name, wm: m, store: NewIdentityStore()}
		m.entryPoints[name] = ep
	}
	return ep
}

// EntryPoint returns a named entry point.
func (m *Memory) EntryPoint(name string) (*EntryPoint, error) { return m.entryPoint(name) }

// EntryPoints returns every entry point, sorted by name.
func (m *Memory) EntryPoints() []*EntryPoint {
	names := m.kbase.EntryPointNames()
	out := make([]*EntryPoint, 0, len(names))
	for _, name := range names {
		out = append(out, m.ensureEntryPoint(name))
	}
	return out
}

// Insert adds object to the default entry point.
func (m *Memory) Insert(object any) (*FactHandle, error) {
	ep, err := m.entryPoint("")
	if err != nil {
		return nil, err
	}
	return ep.insert(object, nil)
}

// Update replaces the object behind h in its entry point.
func (m *Memory) Update(h *FactHandle, object any) error {
	if h == nil {
		return ErrUnknownFactHandle
	}
	ep, err := m.entryPoint(h.EntryPoint())
	if err != nil {
		return err
	}
	return ep.update(h, object, nil)
}

// Delete removes the fact behind h from its entry point.
func (m *Memory) Delete(h *FactHandle) error {
	if h == nil {
		return ErrUnknownFactHandle
	}
	ep, err := m.entryPoint(h.EntryPoint())
	if err != nil {
		return err
	}
	return ep.delete(h, nil)
}

// FactHandle returns the default entry point handle for object, or nil.
func (m *Memory) FactHandle(object any) *FactHandle {
	return m.defaultEP.store.HandleForObject(object)
}

// Object returns the live object for h, or nil.
func (m *Memory) Object(h *FactHandle) any {
	if h == nil {
		return nil
	}
	m.epMu.RLock()
	ep, ok := m.entryPoints[h.EntryPoint()]
	m.epMu.RUnlock()
	if !ok {
		return nil
	}
	return ep.store.ObjectForHandle(h)
}

// ObjectStore returns the default entry point store.
func (m *Memory) ObjectStore() ObjectStore { return m.defaultEP.store }

// FactCount returns the default entry point fact count.
func (m *Memory) FactCount() int { return m.defaultEP.store.Size() }

// Agenda returns the agenda.
func (m *Memory) Agenda() *Agenda { return m.agenda }

// FireAllRules fires activations until the agenda is empty, the max is
// reached or a consequence halts. It returns the number of rules fired.
func (m *Memory) FireAllRules(opts ...FireOption) (int, error) {
	if m.disposed.Load() {
		return 0, ErrDisposed
	}
	var o fireOptions
	for _, opt := range opts {
		opt(&o)
	}
	m.halted.Store(false)
	return m.fireLoop(o)
}

func (m *Memory) fireLoop(o fireOptions) (int, error) {
	fired := 0
	for o.max <= 0 || fired < o.max {
		if m.halted.Load() {
			break
		}
		act := m.agenda.next()
		if act == nil {
			break
		}
		if o.filter != nil && !o.filter(act) {
			m.fireActivationCancelled(act, CauseFilter)
			continue
		}
		if err := m.fire(act); err != nil {
			return fired, err
		}
		fired++
	}
	return fired, nil
}

func (m *Memory) fire(act *Activation) error {
	ev := &ActivationFiredEvent{Activation: act}
	m.fireBeforeActivationFired(ev)
	err := act.rule.Then(&RuleContext{wm: m, activation: act})
	m.fireAfterActivationFired(ev)

	m.logger.Debug().
		Str("rule", act.rule.Name).
		Int64("fact", act.handle.ID()).
		Str("agenda_group", act.group.name).
		Msg("Rule fired")
	if err != nil {
		return fmt.Errorf("rule %q: %w", act.rule.Name, err)
	}
	return nil
}

// FireUntilHalt keeps firing as activations appear until Halt is called or
// ctx is done.
func (m *Memory) FireUntilHalt(ctx context.Context, opts ...FireOption) error {
	if m.disposed.Load() {
		return ErrDisposed
	}
	var o fireOptions
	for _, opt := range opts {
		opt(&o)
	}
	o.max = 0
	m.halted.Store(false)
	for {
		if _, err := m.fireLoop(o); err != nil {
			return err
		}
		if m.halted.Load() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.agenda.wake:
		}
	}
}

// Halt stops the running firing loop.
func (m *Memory) Halt() {
	m.halted.Store(true)
	m.agenda.signal()
}

// Globals returns the globals.
func (m *Memory) Globals() *Globals { return m.globals }

// Environment returns the environment.
func (m *Memory) Environment() *Environment { return m.env }

// Channels returns the channel registry.
func (m *Memory) Channels() *ChannelRegistry { return m.channels }

// QueryRow is one query match.
type QueryRow struct {
	Handle *FactHandle
	Object any
}

// QueryResults holds the rows of one query run.
type QueryResults struct {
	Name string
	rows []QueryRow
}

// Size returns the row count.
func (r *QueryResults) Size() int { return len(r.rows) }

// Rows returns the matched rows in store order.
func (r *QueryResults) Rows() []QueryRow { return r.rows }

// Objects returns the matched objects.
func (r *QueryResults) Objects() []any {
	out := make([]any, len(r.rows))
	for i, row := range r.rows {
		out[i] = row.Object
	}
	return out
}

// Query runs a named query against its entry point.
func (m *Memory) Query(name string, args ...any) (*QueryResults, error) {
	q, ok := m.kbase.Query(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuery, name)
	}
	ep, err := m.entryPoint(q.EntryPoint)
	if err != nil {
		return nil, err
	}
	res := &QueryResults{Name: name}
	for h := range ep.store.Handles(nil) {
		object := h.Object()
		if object != nil && q.Match(object, args) {
			res.rows = append(res.rows, QueryRow{Handle: h, Object: object})
		}
	}
	return res, nil
}

// ProcessRuntime returns the process runtime, if enabled.
func (m *Memory) ProcessRuntime() (*ProcessRuntime, error) {
	if m.process == nil {
		return nil, ErrNoProcessRuntime
	}
	if m.disposed.Load() {
		return nil, ErrDisposed
	}
	return m.process, nil
}

// TimerService returns the timer service.
func (m *Memory) TimerService() *TimerService { return m.timers }

// SessionClock returns the session clock.
func (m *Memory) SessionClock() SessionClock { return m.clock }

// WorkingMemoryListeners returns the fact listener set.
func (m *Memory) WorkingMemoryListeners() *ListenerSet[WorkingMemoryEventListener] {
	return m.wmListeners
}

// AgendaListeners returns the agenda listener set.
func (m *Memory) AgendaListeners() *ListenerSet[AgendaEventListener] { return m.agendaListeners }

// ProcessListeners returns the process listener set.
func (m *Memory) ProcessListeners() *ListenerSet[ProcessEventListener] { return m.processListeners }

// StartBatchExecution binds results for the duration of a batch.
func (m *Memory) StartBatchExecution(results ExecutionResults) {
	m.batchMu.Lock()
	defer m.batchMu.Unlock()
	m.batch = results
}

// ExecutionResults returns the results bound by StartBatchExecution.
func (m *Memory) ExecutionResults() ExecutionResults {
	m.batchMu.Lock()
	defer m.batchMu.Unlock()
	return m.batch
}

// EndBatchExecution unbinds the batch results.
func (m *Memory) EndBatchExecution() {
	m.batchMu.Lock()
	defer m.batchMu.Unlock()
	m.batch = nil
}

// Dispose aborts live process instances, stops timers and detaches every
// listener. Further mutations fail with ErrDisposed.
func (m *Memory) Dispose() {
	if !m.disposed.CompareAndSwap(false, true) {
		return
	}
	m.halted.Store(true)
	m.agenda.signal()
	m.timers.Stop()
	if m.process != nil {
		m.process.abortAll()
	}
	m.wmListeners.Clear()
	m.agendaListeners.Clear()
	m.processListeners.Clear()
	m.logger.Debug().Msg("Working memory disposed")
}

// EntryPoint is a named partition of working memory.
type EntryPoint struct {
	name  string
	wm    *Memory
	store *IdentityStore
}

// Name returns the entry point name.
func (ep *EntryPoint) Name() string { return ep.name }

// ObjectStore returns the entry point store.
func (ep *EntryPoint) ObjectStore() ObjectStore { return ep.store }

// FactCount returns the number of live facts.
func (ep *EntryPoint) FactCount() int { return ep.store.Size() }

// FactHandle returns the handle for object, or nil.
func (ep *EntryPoint) FactHandle(object any) *FactHandle { return ep.store.HandleForObject(object) }

// Object returns the live object for h, or nil.
func (ep *EntryPoint) Object(h *FactHandle) any { return ep.store.ObjectForHandle(h) }

// Insert adds object. Inserting an object already present returns its handle.
func (ep *EntryPoint) Insert(object any) (*FactHandle, error) { return ep.insert(object, nil) }

// Update replaces the object behind h.
func (ep *EntryPoint) Update(h *FactHandle, object any) error { return ep.update(h, object, nil) }

// Delete removes the fact behind h.
func (ep *EntryPoint) Delete(h *FactHandle) error { return ep.delete(h, nil) }

func (ep *EntryPoint) insert(object any, by *Rule) (*FactHandle, error) {
	if ep.wm.disposed.Load() {
		return nil, ErrDisposed
	}
	if err := checkObject(object); err != nil {
		return nil, err
	}
	if existing := ep.store.HandleForObject(object); existing != nil {
		return existing, nil
	}
	h := newFactHandle(ep.wm.handleID.Add(1), ep.name, object)
	if err := ep.store.add(h); err != nil {
		return nil, err
	}
	ep.wm.fireObjectInserted(&ObjectInsertedEvent{Handle: h, Object: object, EntryPoint: ep.name, Rule: by})
	ep.wm.agenda.matchInserted(ep.wm.kbase.rulesFor(ep.name), h, object)
	return h, nil
}

func (ep *EntryPoint) update(h *FactHandle, object any, by *Rule) error {
	if ep.wm.disposed.Load() {
		return ErrDisposed
	}
	if h == nil || h.entryPoint != ep.name {
		return ErrUnknownFactHandle
	}
	old := ep.store.ObjectForHandle(h)
	if old == nil {
		return ErrUnknownFactHandle
	}
	if err := ep.store.update(h, object); err != nil {
		return err
	}
	ep.wm.fireObjectUpdated(&ObjectUpdatedEvent{Handle: h, OldObject: old, Object: object, EntryPoint: ep.name, Rule: by})
	ep.wm.agenda.matchUpdated(ep.wm.kbase.rulesFor(ep.name), h, object, by)
	return nil
}

func (ep *EntryPoint) delete(h *FactHandle, by *Rule) error {
	if ep.wm.disposed.Load() {
		return ErrDisposed
	}
	if h == nil || h.entryPoint != ep.name {
		return ErrUnknownFactHandle
	}
	old, ok := ep.store.remove(h)
	if !ok {
		return ErrUnknownFactHandle
	}
	ep.wm.fireObjectDeleted(&ObjectDeletedEvent{Handle: h, OldObject: old, EntryPoint: ep.name, Rule: by})
	ep.wm.agenda.matchDeleted(h)
	return nil
}
