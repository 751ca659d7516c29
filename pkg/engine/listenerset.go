package engine

import (
	"container/list"
	"sync"

	"github.com/harun/rulesession/pkg/identity"
)

// ListenerSet is an ordered set of listeners keyed by identity.Equal and
// identity.Hash rather than by instance, so a freshly built lookup value can
// remove a previously stored equivalent one.
type ListenerSet[L any] struct {
	mu      sync.RWMutex
	order   *list.List
	buckets map[uint64][]*list.Element
}

// NewListenerSet creates an empty set.
func NewListenerSet[L any]() *ListenerSet[L] {
	return &ListenerSet[L]{
		order:   list.New(),
		buckets: make(map[uint64][]*list.Element),
	}
}

func (s *ListenerSet[L]) findLocked(hash uint64, l L) (int, *list.Element) {
	for i, el := range s.buckets[hash] {
		if identity.Equal(any(l), el.Value) {
			return i, el
		}
	}
	return -1, nil
}

// Add registers l unless an equivalent listener is present. It reports
// whether l was added.
func (s *ListenerSet[L]) Add(l L) bool {
	hash := identity.Hash(any(l))
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, el := s.findLocked(hash, l); el != nil {
		return false
	}
	s.buckets[hash] = append(s.buckets[hash], s.order.PushBack(l))
	return true
}

// Remove drops the listener equivalent to l and reports whether one existed.
func (s *ListenerSet[L]) Remove(l L) bool {
	hash := identity.Hash(any(l))
	s.mu.Lock()
	defer s.mu.Unlock()
	i, el := s.findLocked(hash, l)
	if el == nil {
		return false
	}
	s.order.Remove(el)
	bucket := s.buckets[hash]
	bucket = append(bucket[:i], bucket[i+1:]...)
	if len(bucket) == 0 {
		delete(s.buckets, hash)
	} else {
		s.buckets[hash] = bucket
	}
	return true
}

// Contains reports whether a listener equivalent to l is registered.
func (s *ListenerSet[L]) Contains(l L) bool {
	hash := identity.Hash(any(l))
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, el := s.findLocked(hash, l)
	return el != nil
}

// List returns the registered listeners in registration order.
func (s *ListenerSet[L]) List() []L {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]L, 0, s.order.Len())
	for el := s.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(L))
	}
	return out
}

// Len returns the number of registered listeners.
func (s *ListenerSet[L]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.order.Len()
}

// Clear removes every listener.
func (s *ListenerSet[L]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order.Init()
	s.buckets = make(map[uint64][]*list.Element)
}
