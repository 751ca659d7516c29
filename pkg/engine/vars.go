package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

type vars struct {
	mu     sync.RWMutex
	values map[string]any
}

func newVars() vars {
	return vars{values: make(map[string]any)}
}

// Get returns a value and whether it was set.
func (v *vars) Get(name string) (any, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.values[name]
	return val, ok
}

// Set stores a value. A nil value removes the name.
func (v *vars) Set(name string, value any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if value == nil {
		delete(v.values, name)
		return
	}
	v.values[name] = value
}

// Identifiers returns the set names, sorted.
func (v *vars) Identifiers() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	names := make([]string, 0, len(v.values))
	for name := range v.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Globals holds named values shared with rule consequences.
type Globals struct{ vars }

// Environment holds session-scoped settings handed in by the caller.
type Environment struct{ vars }

// Channel receives objects sent from rule consequences.
type Channel interface {
	Send(object any)
}

// ChannelFunc adapts a function to Channel.
type ChannelFunc func(object any)

// Send calls f.
func (f ChannelFunc) Send(object any) { f(object) }

// ChannelRegistry maps names to channels.
type ChannelRegistry struct {
	mu       sync.RWMutex
	channels map[string]Channel
}

func newChannelRegistry() *ChannelRegistry {
	return &ChannelRegistry{channels: make(map[string]Channel)}
}

// Register adds or replaces a named channel.
func (r *ChannelRegistry) Register(name string, ch Channel) error {
	if ch == nil {
		return fmt.Errorf("channel is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("channel name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[name] = ch
	return nil
}

// Unregister removes a named channel.
func (r *ChannelRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.channels, strings.TrimSpace(name))
}

// Get returns a named channel.
func (r *ChannelRegistry) Get(name string) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[strings.TrimSpace(name)]
	return ch, ok
}

// Snapshot returns a copy of the registered channels.
func (r *ChannelRegistry) Snapshot() map[string]Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Channel, len(r.channels))
	for k, v := range r.channels {
		out[k] = v
	}
	return out
}

// Names returns sorted channel names.
func (r *ChannelRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.channels))
	for name := range r.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
