package ghidrabridge

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/joeycumines/logiface"
)

const (
	// EntryPointName is the remote qualified name of the flattened entry
	// point, the remote program's top-level namespace.
	EntryPointName = "__main__"

	// DefaultAddress is the default bridge server address used by [Open]
	// when addr is empty.
	DefaultAddress = "127.0.0.1:4768"
)

// Session is one logical connection to a remote host, composing namespace
// projection and reverse-callback registration over an exclusively-owned
// [Transport]. Construct via [Open], release via [Session.Close].
//
// A Session is safe for concurrent use, including from the event dispatch
// path while the caller loads, unloads, or closes.
type Session struct {
	transport   Transport
	projector   *Projector
	logger      *logiface.Logger[logiface.Event]
	eventSource EventSourceFunc
	scope       Scope
	listener    *Listener
	closed      chan struct{}
	closeErr    error
	mu          sync.Mutex
	closeOnce   sync.Once
	interactive bool
}

// Open establishes a session with the bridge server at addr (or
// [DefaultAddress] if empty). Connection errors surface from the transport
// immediately; no retries are attempted here.
//
// If a scope was bound via [WithScope], the remote entry point is projected
// into it before Open returns, and unprojected on [Session.Close]. In
// interactive mode (default, see [WithInteractive]) the first load also
// registers a [Listener] with the remote event source.
func Open(ctx context.Context, addr string, opts ...Option) (*Session, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	transport := cfg.transport
	if transport == nil {
		if addr == "" {
			addr = DefaultAddress
		}
		transport, err = cfg.dialer(ctx, addr)
		if err != nil {
			return nil, err
		}
	}

	x := &Session{
		transport:   transport,
		projector:   NewProjector(cfg.logger, cfg.exclude...),
		logger:      cfg.logger,
		eventSource: cfg.eventSource,
		interactive: cfg.interactive,
		closed:      make(chan struct{}),
	}

	var success bool
	defer func() {
		if !success {
			if listener := x.Listener(); listener != nil {
				_ = listener.Close(ctx)
			}
			_ = transport.Close()
		}
	}()

	if cfg.scope != nil {
		if _, err := x.Load(ctx, cfg.scope); err != nil {
			return nil, err
		}
		x.scope = cfg.scope
	}

	x.logger.Debug().
		Str(`addr`, addr).
		Log(`session opened`)

	success = true

	return x, nil
}

// Load resolves the remote entry point and projects its members into
// scope, returning the entry point proxy. In interactive mode the session's
// listener is created first, if it doesn't already exist. See
// [Projector.Load] for the projection contract.
//
// Returns [net.ErrClosed] if the session has been closed.
func (x *Session) Load(ctx context.Context, scope Scope) (Proxy, error) {
	if scope == nil {
		panic(`ghidrabridge: nil scope`)
	}

	select {
	case <-x.closed:
		return nil, net.ErrClosed
	default:
	}

	entry, err := x.transport.RemoteImport(ctx, EntryPointName)
	if err != nil {
		return nil, err
	}

	if x.interactive {
		if _, err := x.ensureListener(ctx, entry); err != nil {
			return nil, err
		}
	}

	return x.projector.Load(ctx, entry, scope)
}

// Unload reverses a projection previously made into scope, see
// [Projector.Unload]. It may be called manually before close; the close
// path tolerates an already-unloaded scope.
func (x *Session) Unload(scope Scope) error {
	return x.projector.Unload(scope)
}

// SubAPI resolves a named remote sub-API (e.g. "ghidra" or "java")
// directly, without projecting it into any scope.
//
// Returns [net.ErrClosed] if the session has been closed.
func (x *Session) SubAPI(ctx context.Context, name string) (Proxy, error) {
	select {
	case <-x.closed:
		return nil, net.ErrClosed
	default:
	}
	return x.transport.RemoteImport(ctx, name)
}

// Listener returns the session's listener, or nil if none has been
// created (non-interactive mode, or no load has happened yet).
func (x *Session) Listener() *Listener {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.listener
}

// ensureListener returns the session's listener, creating and registering
// it on first use. At most one listener exists per session, and at most
// one remote registration call is made.
func (x *Session) ensureListener(ctx context.Context, entry Proxy) (*Listener, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.listener != nil {
		return x.listener, nil
	}

	source, err := x.eventSource(ctx, entry)
	if err != nil {
		return nil, err
	}

	listener, err := newListener(ctx, source, x.logger)
	if err != nil {
		return nil, err
	}

	x.listener = listener
	return listener, nil
}

// Close releases the session: the bound scope (if any) is unloaded, the
// listener is removed, and the transport is closed, in that order. Each
// step is best-effort; in particular an already-unloaded scope is
// tolerated, and a listener teardown failure is logged without blocking
// the remaining teardown. The listener is always removed before the
// transport handle is discarded.
//
// Close is idempotent, and safe to call while an event delivery is in
// flight.
func (x *Session) Close() error {
	return x.CloseContext(context.Background())
}

// CloseContext is [Session.Close] with a caller-supplied context for the
// remote deregistration call.
func (x *Session) CloseContext(ctx context.Context) error {
	x.closeOnce.Do(func() {
		close(x.closed)

		var errs []error

		if x.scope != nil {
			if err := x.projector.Unload(x.scope); err != nil && !errors.Is(err, ErrNotProjected) {
				errs = append(errs, err)
			}
		}

		if listener := x.Listener(); listener != nil {
			// teardown errors are logged by the listener, and ignored
			// here, so transport release is never blocked
			_ = listener.Close(ctx)
		}

		if err := x.transport.Close(); err != nil {
			errs = append(errs, err)
		}

		x.closeErr = errors.Join(errs...)

		x.logger.Debug().Log(`session closed`)
	})
	return x.closeErr
}
