package ghidrabridge

import (
	"context"
)

type (
	// Transport models one logical connection to a remote host, and is the
	// boundary between this package and the low-level RPC layer. Connection
	// setup, framing, proxying, and serialization all live behind it.
	//
	// Blocking calls take a context and propagate transport-level timeouts;
	// no additional timeouts or retries are imposed by this package.
	Transport interface {
		// RemoteImport resolves a remote qualified name to a proxy, the
		// equivalent of importing a module on the remote side. It fails
		// with a transport-defined lookup error if the remote side has no
		// such name, and with a connection error if the transport is
		// unreachable or closed.
		RemoteImport(ctx context.Context, name string) (Proxy, error)

		// Close releases the underlying connection.
		Close() error
	}

	// Proxy represents a remote object. Attribute resolution is lazy; each
	// Get may perform a remote round trip, though the transport is free to
	// cache.
	Proxy interface {
		// ExposedNames returns the remote object's member names, in the
		// order the remote side exposes them.
		ExposedNames() []string

		// Get resolves a member by name, returning either a primitive
		// value or a further [Proxy].
		Get(ctx context.Context, name string) (any, error)
	}

	// EventSource is a remote object that dispatches events to registered
	// handlers. Registration passes a local [EventHandler] where the remote
	// side expects an instance of its listener interface; the transport is
	// responsible for making the local object satisfy that contract.
	EventSource interface {
		AddListener(ctx context.Context, handler EventHandler) error
		RemoveListener(ctx context.Context, handler EventHandler) error
	}

	// EventHandler is the single capability the remote side invokes on a
	// registered listener. Calls arrive on a transport-owned dispatch
	// goroutine, asynchronously relative to the local caller.
	//
	// Implementations must not block indefinitely, since blocking stalls
	// the remote event source's dispatch.
	EventHandler interface {
		HandleEvent(ctx context.Context, event any)
	}

	// Dialer establishes a [Transport] to the given address. Errors are
	// surfaced from the transport as-is, without retries.
	Dialer func(ctx context.Context, addr string) (Transport, error)

	// EventSourceFunc resolves the remote event source from the remote
	// entry point, e.g. by navigating to the remote tool object. See
	// [WithEventSource].
	EventSourceFunc func(ctx context.Context, entry Proxy) (EventSource, error)
)

// defaultEventSource resolves the entry point itself as the event source,
// for transports whose entry point proxy implements [EventSource] directly.
func defaultEventSource(_ context.Context, entry Proxy) (EventSource, error) {
	if source, ok := entry.(EventSource); ok {
		return source, nil
	}
	return nil, ErrNoEventSource
}
