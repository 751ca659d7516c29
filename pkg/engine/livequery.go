package engine

import (
	"fmt"
	"sync"
)

// ViewChangedListener receives the row changes of a live query.
type ViewChangedListener interface {
	RowInserted(row QueryRow)
	RowUpdated(row QueryRow)
	RowDeleted(row QueryRow)
}

// LiveQuery keeps a named query open and reports every change to its result
// set. Rows matching when the query opens are reported as inserted.
type LiveQuery struct {
	wm         *Memory
	query      *Query
	args       []any
	entryPoint string
	listener   ViewChangedListener

	mu     sync.Mutex
	rows   map[*FactHandle]struct{}
	closed bool
}

var _ WorkingMemoryEventListener = (*LiveQuery)(nil)

// OpenLiveQuery opens the named query with args and registers it for fact
// changes in the query's entry point. Close the returned query to stop it.
func (m *Memory) OpenLiveQuery(name string, listener ViewChangedListener, args ...any) (*LiveQuery, error) {
	if listener == nil {
		return nil, fmt.Errorf("live query %s: listener is required", name)
	}
	q, ok := m.kbase.Query(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuery, name)
	}
	ep, err := m.entryPoint(q.EntryPoint)
	if err != nil {
		return nil, err
	}

	lq := &LiveQuery{
		wm:         m,
		query:      q,
		args:       args,
		entryPoint: ep.name,
		listener:   listener,
		rows:       make(map[*FactHandle]struct{}),
	}
	var initial []QueryRow
	for h := range ep.store.Handles(nil) {
		object := h.Object()
		if object != nil && q.Match(object, args) {
			lq.rows[h] = struct{}{}
			initial = append(initial, QueryRow{Handle: h, Object: object})
		}
	}
	m.wmListeners.Add(lq)

	for _, row := range initial {
		listener.RowInserted(row)
	}
	m.logger.Debug().Str("query", name).Int("rows", len(initial)).Msg("Live query opened")
	return lq, nil
}

// Name returns the query name.
func (lq *LiveQuery) Name() string { return lq.query.Name }

// Size returns the number of rows currently matching.
func (lq *LiveQuery) Size() int {
	lq.mu.Lock()
	defer lq.mu.Unlock()
	return len(lq.rows)
}

// Close stops change reporting. Safe to call more than once.
func (lq *LiveQuery) Close() error {
	lq.mu.Lock()
	if lq.closed {
		lq.mu.Unlock()
		return nil
	}
	lq.closed = true
	lq.rows = nil
	lq.mu.Unlock()

	lq.wm.wmListeners.Remove(lq)
	return nil
}

func (lq *LiveQuery) OnObjectInserted(ev *ObjectInsertedEvent, _ WorkingMemory) {
	if ev.EntryPoint != lq.entryPoint || !lq.query.Match(ev.Object, lq.args) {
		return
	}
	lq.mu.Lock()
	if lq.closed {
		lq.mu.Unlock()
		return
	}
	lq.rows[ev.Handle] = struct{}{}
	lq.mu.Unlock()
	lq.listener.RowInserted(QueryRow{Handle: ev.Handle, Object: ev.Object})
}

func (lq *LiveQuery) OnObjectUpdated(ev *ObjectUpdatedEvent, _ WorkingMemory) {
	if ev.EntryPoint != lq.entryPoint {
		return
	}
	matches := lq.query.Match(ev.Object, lq.args)

	lq.mu.Lock()
	if lq.closed {
		lq.mu.Unlock()
		return
	}
	_, had := lq.rows[ev.Handle]
	switch {
	case matches:
		lq.rows[ev.Handle] = struct{}{}
	case had:
		delete(lq.rows, ev.Handle)
	}
	lq.mu.Unlock()

	switch {
	case had && matches:
		lq.listener.RowUpdated(QueryRow{Handle: ev.Handle, Object: ev.Object})
	case matches:
		lq.listener.RowInserted(QueryRow{Handle: ev.Handle, Object: ev.Object})
	case had:
		lq.listener.RowDeleted(QueryRow{Handle: ev.Handle, Object: ev.OldObject})
	}
}

func (lq *LiveQuery) OnObjectDeleted(ev *ObjectDeletedEvent, _ WorkingMemory) {
	if ev.EntryPoint != lq.entryPoint {
		return
	}
	lq.mu.Lock()
	_, had := lq.rows[ev.Handle]
	if had {
		delete(lq.rows, ev.Handle)
	}
	lq.mu.Unlock()

	if had {
		lq.listener.RowDeleted(QueryRow{Handle: ev.Handle, Object: ev.OldObject})
	}
}
