// Package storeview provides read-only, lazily evaluated projections over a
// fact store.
//
// A View holds only the store, an optional filter and the element kind. Every
// call re-reads the live store: sizes are never cached and traversals never
// snapshot, so a View reflects concurrent mutation exactly as far as the
// store's own iteration does.
package storeview

import (
	"errors"
	"iter"

	"github.com/harun/rulesession/pkg/engine"
)

// ErrImmutableView is returned by every mutating method.
var ErrImmutableView = errors.New("store view is immutable")

type elementKind int

const (
	kindObject elementKind = iota
	kindHandle
)

// View is a read-only collection over an ObjectStore.
type View[T any] struct {
	store  engine.ObjectStore
	filter engine.ObjectFilter
	kind   elementKind
}

// Objects returns a view of the fact objects accepted by filter (nil for all).
func Objects(store engine.ObjectStore, filter engine.ObjectFilter) *View[any] {
	return &View[any]{store: store, filter: filter, kind: kindObject}
}

// Handles returns a view of the handles whose object is accepted by filter.
func Handles(store engine.ObjectStore, filter engine.ObjectFilter) *View[*engine.FactHandle] {
	return &View[*engine.FactHandle]{store: store, filter: filter, kind: kindHandle}
}

// IsEmpty uses the store's own check when unfiltered.
func (v *View[T]) IsEmpty() bool {
	if v.filter == nil {
		return v.store.IsEmpty()
	}
	return v.Size() == 0
}

// Size is the store count when unfiltered, else a full filtered scan.
func (v *View[T]) Size() int {
	if v.filter == nil {
		return v.store.Size()
	}
	n := 0
	for range v.store.Handles(v.filter) {
		n++
	}
	return n
}

// Contains reports whether x is live in the store. A handle must map to a
// live object; any other value must be held by a handle. The filter applies
// on top.
func (v *View[T]) Contains(x any) bool {
	var object any
	if h, ok := x.(*engine.FactHandle); ok {
		object = v.store.ObjectForHandle(h)
	} else if v.store.HandleForObject(x) != nil {
		object = x
	}
	if object == nil {
		return false
	}
	return v.filter == nil || v.filter(object)
}

// ContainsAll reports whether every value is contained.
func (v *View[T]) ContainsAll(xs ...any) bool {
	for _, x := range xs {
		if !v.Contains(x) {
			return false
		}
	}
	return true
}

// All returns a lazy traversal of the live store.
func (v *View[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		if v.kind == kindHandle {
			for h := range v.store.Handles(v.filter) {
				if !yield(any(h).(T)) {
					return
				}
			}
			return
		}
		for o := range v.store.Objects(v.filter) {
			if !yield(o.(T)) {
				return
			}
		}
	}
}

// Iterator returns a single-pass cursor. It cannot be restarted; Stop
// releases it early.
func (v *View[T]) Iterator() *Iterator[T] {
	next, stop := iter.Pull(v.All())
	return &Iterator[T]{next: next, stop: stop}
}

// ToArray copies the view in one traversal. Size is only an allocation
// hint, so the result is always exactly what the traversal saw.
func (v *View[T]) ToArray() []T {
	out := make([]T, 0, v.Size())
	for x := range v.All() {
		out = append(out, x)
	}
	return out
}

// Add always fails.
func (v *View[T]) Add(T) error { return ErrImmutableView }

// Remove always fails.
func (v *View[T]) Remove(any) error { return ErrImmutableView }

// RemoveAll always fails.
func (v *View[T]) RemoveAll(...any) error { return ErrImmutableView }

// RetainAll always fails.
func (v *View[T]) RetainAll(...any) error { return ErrImmutableView }

// Clear always fails.
func (v *View[T]) Clear() error { return ErrImmutableView }

// Iterator is a single-pass cursor over a View.
type Iterator[T any] struct {
	next  func() (T, bool)
	stop  func()
	value T
	done  bool
}

// Next advances the cursor and reports whether a value is available.
func (it *Iterator[T]) Next() bool {
	if it.done {
		return false
	}
	v, ok := it.next()
	if !ok {
		it.done = true
		var zero T
		it.value = zero
		return false
	}
	it.value = v
	return true
}

// Value returns the current element.
func (it *Iterator[T]) Value() T { return it.value }

// Stop ends the traversal early.
func (it *Iterator[T]) Stop() {
	if !it.done {
		it.done = true
		it.stop()
	}
}
