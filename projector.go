package ghidrabridge

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"github.com/joeycumines/logiface"
)

// privatePrefix marks remote names that are never projected.
const privatePrefix = "__"

// DefaultExcludedNames are remote names that are always excluded from
// projection, in addition to any configured via [WithExcludedNames]. They
// cover the track record key, and names exposed by the remote bridge
// server that would shadow local bindings or are useless locally.
var DefaultExcludedNames = []string{
	NamespaceTrackKey,
	"logging",
	"subprocess",
	"ghidra_bridge",
	"bridge",
	"GhidraBridgeServer",
}

// Projector loads a filtered set of remote entry point members into a
// caller-supplied [Scope], and can reverse the injection exactly. It does
// not own the scope; it only tracks what it put there.
//
// A Projector is safe for concurrent use. Load and unload of any scope are
// mutually exclusive, so the record in a scope is never observed mid
// rewrite, even from the event dispatch path.
type Projector struct {
	logger  *logiface.Logger[logiface.Event]
	exclude map[string]struct{}
	mu      sync.Mutex
}

// NewProjector returns a [Projector] excluding [DefaultExcludedNames] plus
// any additional names given. The logger may be nil to disable logging.
func NewProjector(logger *logiface.Logger[logiface.Event], exclude ...string) *Projector {
	x := &Projector{
		logger:  logger,
		exclude: make(map[string]struct{}, len(DefaultExcludedNames)+len(exclude)),
	}
	for _, name := range DefaultExcludedNames {
		x.exclude[name] = struct{}{}
	}
	for _, name := range exclude {
		x.exclude[name] = struct{}{}
	}
	return x
}

// Load enumerates the entry point's exposed names in order and, for each
// name that is neither private (leading "__") nor excluded, resolves it
// and binds it into scope. The complete, order-preserving record of what
// was bound is stored in the scope under [NamespaceTrackKey].
//
// Each resolution may perform a remote round trip. A resolution failure is
// returned as a [LookupError]; bindings made before the failure remain in
// the scope and in the record, so a subsequent [Projector.Unload] reverses
// them.
//
// Loading twice into the same scope without an intervening unload is
// permitted: the record is replaced wholesale, and bindings are rewritten,
// last write wins.
//
// Load panics if entry or scope is nil. It returns the entry point for
// convenience.
func (x *Projector) Load(ctx context.Context, entry Proxy, scope Scope) (Proxy, error) {
	if entry == nil {
		panic(`ghidrabridge: nil entry point`)
	}
	if scope == nil {
		panic(`ghidrabridge: nil scope`)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	record := &trackRecord{}
	scope.Bind(NamespaceTrackKey, record)

	for _, name := range entry.ExposedNames() {
		if strings.HasPrefix(name, privatePrefix) {
			continue
		}
		if _, ok := x.exclude[name]; ok {
			continue
		}
		value, err := entry.Get(ctx, name)
		if err != nil {
			return nil, &LookupError{Name: name, Err: err}
		}
		scope.Bind(name, value)
		record.put(name, value)
	}

	x.logger.Debug().
		Int64(`bindings`, int64(len(record.bindings))).
		Log(`scope projected`)

	return entry, nil
}

// Unload reverses a projection. For every recorded binding still present
// in the scope with a value identical to what was loaded, the binding is
// removed; bindings the caller has since rebound are left untouched. The
// record itself is always removed, regardless of how many bindings were
// left alone.
//
// Returns [ErrNotProjected], without mutating the scope, if no record is
// present. Panics if scope is nil.
func (x *Projector) Unload(scope Scope) error {
	if scope == nil {
		panic(`ghidrabridge: nil scope`)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	value, ok := scope.Lookup(NamespaceTrackKey)
	if !ok {
		return ErrNotProjected
	}
	record, ok := value.(*trackRecord)
	if !ok {
		// the reserved key was clobbered - nothing usable to undo
		return ErrNotProjected
	}

	defer scope.Unbind(NamespaceTrackKey)

	var removed int
	for _, b := range record.bindings {
		current, ok := scope.Lookup(b.name)
		if !ok {
			continue
		}
		if sameValue(current, b.value) {
			scope.Unbind(b.name)
			removed++
		}
	}

	x.logger.Debug().
		Int64(`removed`, int64(removed)).
		Int64(`kept`, int64(len(record.bindings)-removed)).
		Log(`scope unloaded`)

	return nil
}

// sameValue reports whether current is still the value that was loaded.
// Comparable values use ==; uncomparable reference kinds fall back to
// pointer identity; anything else is treated as changed, which errs on the
// side of leaving the caller's binding alone.
func sameValue(a, b any) bool {
	at, bt := reflect.TypeOf(a), reflect.TypeOf(b)
	if at != bt {
		return false
	}
	if at == nil {
		return true
	}
	if at.Comparable() {
		return a == b
	}
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	switch av.Kind() {
	case reflect.Map, reflect.Slice, reflect.Func:
		return av.Pointer() == bv.Pointer()
	}
	return false
}
