package listener

import (
	"github.com/harun/rulesession/pkg/engine"
	"github.com/harun/rulesession/pkg/event"
)

// binding connects adapters to one engine listener set.
type binding interface {
	add(a Adapter) bool
	remove(a Adapter) bool
	list() []any
}

type setBinding[I any] struct {
	set *engine.ListenerSet[I]
}

func (b setBinding[I]) add(a Adapter) bool {
	l, ok := a.(I)
	return ok && b.set.Add(l)
}

func (b setBinding[I]) remove(a Adapter) bool {
	l, ok := a.(I)
	return ok && b.set.Remove(l)
}

func (b setBinding[I]) list() []any {
	items := b.set.List()
	out := make([]any, len(items))
	for i, l := range items {
		out[i] = l
	}
	return out
}

// Registry exposes one engine event source to listeners of the public shape
// L. Registration goes through adapters whose equivalence is that of the
// wrapped listener, so a fresh lookup adapter removes a stored one.
type Registry[L any] struct {
	kind     Kind
	wrap     func(L) Adapter
	bindings []binding
}

// NewWorkingMemoryRegistry binds fact listeners to set.
func NewWorkingMemoryRegistry(set *engine.ListenerSet[engine.WorkingMemoryEventListener]) *Registry[event.WorkingMemoryEventListener] {
	return &Registry[event.WorkingMemoryEventListener]{
		kind:     KindWorkingMemory,
		wrap:     func(l event.WorkingMemoryEventListener) Adapter { return NewWorkingMemoryAdapter(l) },
		bindings: []binding{setBinding[engine.WorkingMemoryEventListener]{set}},
	}
}

// NewAgendaRegistry binds agenda listeners to set.
func NewAgendaRegistry(set *engine.ListenerSet[engine.AgendaEventListener]) *Registry[event.AgendaEventListener] {
	return &Registry[event.AgendaEventListener]{
		kind:     KindAgenda,
		wrap:     func(l event.AgendaEventListener) Adapter { return NewAgendaAdapter(l) },
		bindings: []binding{setBinding[engine.AgendaEventListener]{set}},
	}
}

// NewProcessRegistry binds process listeners to set.
func NewProcessRegistry(set *engine.ListenerSet[engine.ProcessEventListener]) *Registry[event.ProcessEventListener] {
	return &Registry[event.ProcessEventListener]{
		kind:     KindProcess,
		wrap:     func(l event.ProcessEventListener) Adapter { return NewProcessAdapter(l) },
		bindings: []binding{setBinding[engine.ProcessEventListener]{set}},
	}
}

// NewGenericRegistry binds generic listeners to all three listener sets of wm.
func NewGenericRegistry(wm engine.WorkingMemory) *Registry[event.EventListener] {
	return &Registry[event.EventListener]{
		kind: KindGeneric,
		wrap: func(l event.EventListener) Adapter { return NewGenericAdapter(l) },
		bindings: []binding{
			setBinding[engine.WorkingMemoryEventListener]{wm.WorkingMemoryListeners()},
			setBinding[engine.AgendaEventListener]{wm.AgendaListeners()},
			setBinding[engine.ProcessEventListener]{wm.ProcessListeners()},
		},
	}
}

// Kind returns the adapter kind this registry manages.
func (r *Registry[L]) Kind() Kind { return r.kind }

func (r *Registry[L]) adapt(l L) Adapter {
	if a, ok := any(l).(Adapter); ok && a.Kind() == r.kind {
		return a
	}
	return r.wrap(l)
}

// Add registers l. Adapters of this registry's kind are registered as is.
// It reports whether l was not already registered. Adding nil is a no-op.
func (r *Registry[L]) Add(l L) bool {
	if any(l) == nil {
		return false
	}
	a := r.adapt(l)
	added := false
	for _, b := range r.bindings {
		if b.add(a) {
			added = true
		}
	}
	return added
}

// Remove unregisters the listener equivalent to l. Removing a listener that
// was never added is a no-op. It reports whether anything was removed.
func (r *Registry[L]) Remove(l L) bool {
	if any(l) == nil {
		return false
	}
	lookup := r.adapt(l)
	removed := false
	for _, b := range r.bindings {
		if b.remove(lookup) {
			removed = true
		}
	}
	return removed
}

// ListAll returns the originally supplied listeners in registration order.
// Adapters of another kind are skipped; raw engine listeners that also
// implement L are returned as is.
func (r *Registry[L]) ListAll() []L {
	seen := engine.NewListenerSet[any]()
	var out []L
	for _, b := range r.bindings {
		for _, item := range b.list() {
			var l L
			switch v := item.(type) {
			case Adapter:
				if v.Kind() != r.kind || v.Unwrap() == nil {
					continue
				}
				l = v.Unwrap().(L)
			case L:
				l = v
			default:
				continue
			}
			if seen.Add(l) {
				out = append(out, l)
			}
		}
	}
	return out
}
