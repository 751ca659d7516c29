package engine

import (
	"iter"
	"reflect"
	"sync"
	"sync/atomic"
)

// ObjectFilter selects facts by object. A nil filter accepts everything.
type ObjectFilter func(object any) bool

// ObjectStore is the read side of a fact store.
type ObjectStore interface {
	Size() int
	IsEmpty() bool
	// ObjectForHandle returns the live object for h, or nil.
	ObjectForHandle(h *FactHandle) any
	// HandleForObject returns the handle holding exactly this object, or nil.
	HandleForObject(object any) *FactHandle
	// Objects and Handles traverse the live store lazily, in insertion order.
	Objects(filter ObjectFilter) iter.Seq[any]
	Handles(filter ObjectFilter) iter.Seq[*FactHandle]
}

var _ ObjectStore = (*IdentityStore)(nil)

// compactThreshold is the minimum number of tombstones before compaction.
const compactThreshold = 32

// IdentityStore keys facts by object identity and keeps insertion order.
// Deleted slots become tombstones so running traversals keep their position;
// compaction only happens while no traversal is active.
type IdentityStore struct {
	mu         sync.RWMutex
	byObject   map[any]*FactHandle
	order      []*FactHandle
	live       int
	tombstones int
	iterating  atomic.Int32
}

// NewIdentityStore creates an empty store.
func NewIdentityStore() *IdentityStore {
	return &IdentityStore{byObject: make(map[any]*FactHandle)}
}

func checkObject(object any) error {
	if object == nil {
		return ErrNilFact
	}
	// The dynamic contents decide: a struct with an interface field holding
	// a slice cannot be a map key even though its type is comparable.
	if !reflect.ValueOf(object).Comparable() {
		return ErrUncomparableFact
	}
	return nil
}

// Size returns the number of live facts.
func (s *IdentityStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live
}

// IsEmpty reports whether no fact is live.
func (s *IdentityStore) IsEmpty() bool {
	return s.Size() == 0
}

// ObjectForHandle returns the object for a handle this store currently holds.
func (s *IdentityStore) ObjectForHandle(h *FactHandle) any {
	if h == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if h.slot < 0 || h.slot >= len(s.order) || s.order[h.slot] != h {
		return nil
	}
	return h.object
}

// HandleForObject returns the handle for object, or nil.
func (s *IdentityStore) HandleForObject(object any) *FactHandle {
	if checkObject(object) != nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byObject[object]
}

func (s *IdentityStore) add(h *FactHandle) error {
	if err := checkObject(h.object); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tombstones >= compactThreshold && s.tombstones > len(s.order)/2 && s.iterating.Load() == 0 {
		s.compactLocked()
	}
	h.slot = len(s.order)
	s.order = append(s.order, h)
	s.byObject[h.object] = h
	s.live++
	return nil
}

func (s *IdentityStore) update(h *FactHandle, object any) error {
	if err := checkObject(object); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if h.slot < 0 || h.slot >= len(s.order) || s.order[h.slot] != h {
		return ErrUnknownFactHandle
	}
	if other, ok := s.byObject[object]; ok && other != h {
		return ErrDuplicateFact
	}
	if current, ok := s.byObject[h.object]; ok && current == h {
		delete(s.byObject, h.object)
	}
	h.object = object
	s.byObject[object] = h
	return nil
}

func (s *IdentityStore) remove(h *FactHandle) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h == nil || h.slot < 0 || h.slot >= len(s.order) || s.order[h.slot] != h {
		return nil, false
	}
	old := h.object
	delete(s.byObject, old)
	s.order[h.slot] = nil
	h.slot = -1
	h.object = nil
	s.live--
	s.tombstones++
	return old, true
}

func (s *IdentityStore) compactLocked() {
	kept := s.order[:0]
	for _, h := range s.order {
		if h == nil {
			continue
		}
		h.slot = len(kept)
		kept = append(kept, h)
	}
	clear(s.order[len(kept):])
	s.order = kept
	s.tombstones = 0
}

// at returns the handle and object in slot i, and whether i is in range.
func (s *IdentityStore) at(i int) (*FactHandle, any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i >= len(s.order) {
		return nil, nil, false
	}
	h := s.order[i]
	if h == nil {
		return nil, nil, true
	}
	return h, h.object, true
}

func (s *IdentityStore) traverse(filter ObjectFilter, yield func(*FactHandle, any) bool) {
	s.iterating.Add(1)
	defer s.iterating.Add(-1)
	for i := 0; ; i++ {
		h, object, ok := s.at(i)
		if !ok {
			return
		}
		if h == nil {
			continue
		}
		if filter != nil && !filter(object) {
			continue
		}
		if !yield(h, object) {
			return
		}
	}
}

// Objects yields live objects accepted by filter.
func (s *IdentityStore) Objects(filter ObjectFilter) iter.Seq[any] {
	return func(yield func(any) bool) {
		s.traverse(filter, func(_ *FactHandle, object any) bool {
			return yield(object)
		})
	}
}

// Handles yields live handles whose object is accepted by filter.
func (s *IdentityStore) Handles(filter ObjectFilter) iter.Seq[*FactHandle] {
	return func(yield func(*FactHandle) bool) {
		s.traverse(filter, func(h *FactHandle, _ any) bool {
			return yield(h)
		})
	}
}
