package command

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/harun/rulesession/pkg/engine"
)

var _ engine.ExecutionResults = (*ExecutionResults)(nil)

// ExecutionResults accumulates named outputs and fact handles across the
// commands of one execution.
type ExecutionResults struct {
	mu      sync.RWMutex
	values  map[string]any
	handles map[string]*engine.FactHandle
}

// NewExecutionResults creates an empty result set.
func NewExecutionResults() *ExecutionResults {
	return &ExecutionResults{
		values:  make(map[string]any),
		handles: make(map[string]*engine.FactHandle),
	}
}

// SetResult stores a named value.
func (r *ExecutionResults) SetResult(name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[name] = value
}

// Value returns a named value.
func (r *ExecutionResults) Value(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[name]
	return v, ok
}

// Identifiers returns the result names, sorted.
func (r *ExecutionResults) Identifiers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.values))
	for name := range r.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Values returns a copy of every named value.
func (r *ExecutionResults) Values() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// SetFactHandle records the handle produced under name.
func (r *ExecutionResults) SetFactHandle(name string, h *engine.FactHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[name] = h
}

// FactHandle returns the handle recorded under name.
func (r *ExecutionResults) FactHandle(name string) (*engine.FactHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[name]
	return h, ok
}

// MarshalJSON renders {"results": {...}, "facts": {name: external form}}.
func (r *ExecutionResults) MarshalJSON() ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	facts := make(map[string]string, len(r.handles))
	for name, h := range r.handles {
		facts[name] = h.ExternalForm()
	}
	return json.Marshal(struct {
		Results map[string]any    `json:"results"`
		Facts   map[string]string `json:"facts,omitempty"`
	}{r.values, facts})
}
