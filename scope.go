package ghidrabridge

import (
	"sync"
)

// NamespaceTrackKey is the reserved scope key under which an active
// projection's track record is stored. It is always excluded from
// projection, and callers must not bind it themselves.
const NamespaceTrackKey = "__ghidra_bridge_namespace_track__"

// Scope is a mutable key-value namespace supplied by the caller, the
// target of a projection. Implementations must be safe for concurrent use;
// the event dispatch path may read a scope while the caller mutates it.
type Scope interface {
	// Lookup returns the value bound under name, if any.
	Lookup(name string) (value any, ok bool)

	// Bind binds value under name, replacing any existing binding.
	Bind(name string, value any)

	// Unbind removes the binding under name, if any.
	Unbind(name string)
}

// MapScope is a [Scope] backed by a mutex-guarded map. The zero value is
// not usable; use [NewMapScope].
type MapScope struct {
	m  map[string]any
	mu sync.RWMutex
}

// NewMapScope returns an empty [MapScope], optionally seeded with the
// given bindings.
func NewMapScope(seed ...map[string]any) *MapScope {
	x := &MapScope{m: make(map[string]any)}
	for _, m := range seed {
		for k, v := range m {
			x.m[k] = v
		}
	}
	return x
}

// Lookup implements [Scope].
func (x *MapScope) Lookup(name string) (any, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	value, ok := x.m[name]
	return value, ok
}

// Bind implements [Scope].
func (x *MapScope) Bind(name string, value any) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.m[name] = value
}

// Unbind implements [Scope].
func (x *MapScope) Unbind(name string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.m, name)
}

// Len returns the number of bindings, including the track record if a
// projection is active.
func (x *MapScope) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.m)
}

// Snapshot returns a copy of the current bindings.
func (x *MapScope) Snapshot() map[string]any {
	x.mu.RLock()
	defer x.mu.RUnlock()
	m := make(map[string]any, len(x.m))
	for k, v := range x.m {
		m[k] = v
	}
	return m
}

// trackBinding is one (name, value) pair injected by a load.
type trackBinding struct {
	value any
	name  string
}

// trackRecord is the order-preserving record of exactly what a load
// injected into a scope. It is stored in the scope under
// [NamespaceTrackKey] while, and only while, the projection is active.
// Access is serialized by the owning [Projector].
type trackRecord struct {
	bindings []trackBinding
}

// put records a binding, replacing any earlier entry for the same name
// (last write wins, matching the bind it mirrors).
func (x *trackRecord) put(name string, value any) {
	for i := range x.bindings {
		if x.bindings[i].name == name {
			x.bindings[i].value = value
			return
		}
	}
	x.bindings = append(x.bindings, trackBinding{name: name, value: value})
}
