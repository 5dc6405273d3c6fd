package ghidrabridge

import (
	"context"
	"fmt"
	"net"
	"sync"
)

// eventLog records teardown-relevant calls across the fakes, to assert
// ordering (listener removal must precede transport close).
type eventLog struct {
	mu      sync.Mutex
	entries []string
}

func (x *eventLog) append(entry string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries = append(x.entries, entry)
}

func (x *eventLog) snapshot() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]string(nil), x.entries...)
}

// fakeProxy is an in-memory Proxy with scripted values and failures, and a
// log of which names were resolved.
type fakeProxy struct {
	values map[string]any
	errs   map[string]error
	names  []string
	gets   []string
	mu     sync.Mutex
}

func (x *fakeProxy) ExposedNames() []string {
	return x.names
}

func (x *fakeProxy) Get(_ context.Context, name string) (any, error) {
	x.mu.Lock()
	x.gets = append(x.gets, name)
	x.mu.Unlock()
	if err := x.errs[name]; err != nil {
		return nil, err
	}
	value, ok := x.values[name]
	if !ok {
		return nil, fmt.Errorf("fake: no remote attribute %q", name)
	}
	return value, nil
}

func (x *fakeProxy) resolved() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]string(nil), x.gets...)
}

// fakeEntry is a fake remote entry point that also acts as the event
// source, dispatching events to registered handlers the way a transport's
// dispatch goroutine would.
type fakeEntry struct {
	fakeProxy
	log       *eventLog
	addErr    error
	removeErr error
	handlers  []EventHandler
	adds      int
	removes   int
	hmu       sync.Mutex
}

func (x *fakeEntry) AddListener(_ context.Context, handler EventHandler) error {
	x.hmu.Lock()
	defer x.hmu.Unlock()
	x.adds++
	if x.addErr != nil {
		return x.addErr
	}
	x.handlers = append(x.handlers, handler)
	return nil
}

func (x *fakeEntry) RemoveListener(_ context.Context, handler EventHandler) error {
	x.hmu.Lock()
	defer x.hmu.Unlock()
	x.removes++
	if x.log != nil {
		x.log.append(`removeListener`)
	}
	if x.removeErr != nil {
		return x.removeErr
	}
	for i, h := range x.handlers {
		if h == handler {
			x.handlers = append(x.handlers[:i], x.handlers[i+1:]...)
			break
		}
	}
	return nil
}

// dispatch delivers an event to every registered handler, synchronously on
// the calling goroutine (the test plays the transport's dispatch path).
func (x *fakeEntry) dispatch(ctx context.Context, event any) {
	x.hmu.Lock()
	handlers := append([]EventHandler(nil), x.handlers...)
	x.hmu.Unlock()
	for _, h := range handlers {
		h.HandleEvent(ctx, event)
	}
}

func (x *fakeEntry) counts() (adds, removes int) {
	x.hmu.Lock()
	defer x.hmu.Unlock()
	return x.adds, x.removes
}

// fakeTransport is an in-memory Transport resolving names from a fixed
// module map.
type fakeTransport struct {
	modules map[string]Proxy
	log     *eventLog
	mu      sync.Mutex
	closed  bool
}

func (x *fakeTransport) RemoteImport(_ context.Context, name string) (Proxy, error) {
	x.mu.Lock()
	closed := x.closed
	x.mu.Unlock()
	if closed {
		return nil, net.ErrClosed
	}
	proxy, ok := x.modules[name]
	if !ok {
		return nil, fmt.Errorf("fake: no remote name %q", name)
	}
	return proxy, nil
}

func (x *fakeTransport) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.closed = true
	if x.log != nil {
		x.log.append(`closeTransport`)
	}
	return nil
}

func (x *fakeTransport) isClosed() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.closed
}

// newFakeBridge wires a fakeEntry as the remote "__main__" of a
// fakeTransport, sharing an event log.
func newFakeBridge(entry *fakeEntry) (*fakeTransport, *eventLog) {
	log := &eventLog{}
	entry.log = log
	transport := &fakeTransport{
		modules: map[string]Proxy{EntryPointName: entry},
		log:     log,
	}
	return transport, log
}

// flatEntry returns a fakeEntry exposing the given name/value pairs, in
// order.
func flatEntry(pairs ...any) *fakeEntry {
	entry := &fakeEntry{fakeProxy: fakeProxy{values: make(map[string]any)}}
	for i := 0; i+1 < len(pairs); i += 2 {
		name := pairs[i].(string)
		entry.names = append(entry.names, name)
		entry.values[name] = pairs[i+1]
	}
	return entry
}
