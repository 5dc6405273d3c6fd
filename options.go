package ghidrabridge

import (
	"errors"

	"github.com/joeycumines/logiface"
)

// sessionOptions holds configuration for a [Session] instance.
// Fields are ordered for optimal struct alignment.
type sessionOptions struct {
	dialer      Dialer
	transport   Transport
	scope       Scope
	logger      *logiface.Logger[logiface.Event]
	eventSource EventSourceFunc
	exclude     []string
	interactive bool
}

// Option configures a [Session] instance. Options are applied during
// [Open].
type Option interface {
	applyOption(*sessionOptions) error
}

// sessionOptionImpl implements [Option] via a closure.
type sessionOptionImpl struct {
	fn func(*sessionOptions) error
}

func (o *sessionOptionImpl) applyOption(opts *sessionOptions) error {
	return o.fn(opts)
}

// WithDialer configures how the session establishes its transport.
// Exactly one of WithDialer or [WithTransport] must be provided.
func WithDialer(dialer Dialer) Option {
	return &sessionOptionImpl{fn: func(opts *sessionOptions) error {
		if dialer == nil {
			return errors.New("ghidrabridge: dialer must not be nil")
		}
		opts.dialer = dialer
		return nil
	}}
}

// WithTransport configures an already-established transport, which the
// session takes exclusive ownership of (it will be closed with the
// session). Exactly one of [WithDialer] or WithTransport must be provided.
func WithTransport(transport Transport) Option {
	return &sessionOptionImpl{fn: func(opts *sessionOptions) error {
		if transport == nil {
			return errors.New("ghidrabridge: transport must not be nil")
		}
		opts.transport = transport
		return nil
	}}
}

// WithScope binds a scope to the session: [Open] immediately projects the
// remote entry point into it, and [Session.Close] unloads it.
func WithScope(scope Scope) Option {
	return &sessionOptionImpl{fn: func(opts *sessionOptions) error {
		if scope == nil {
			return errors.New("ghidrabridge: scope must not be nil")
		}
		opts.scope = scope
		return nil
	}}
}

// WithInteractive enables or disables interactive mode. When enabled (the
// default), the first load registers a [Listener] with the remote tool's
// event source, so remote-side changes are observable while the session
// runs.
func WithInteractive(interactive bool) Option {
	return &sessionOptionImpl{fn: func(opts *sessionOptions) error {
		opts.interactive = interactive
		return nil
	}}
}

// WithLogger configures structured logging. A nil logger (the default)
// disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &sessionOptionImpl{fn: func(opts *sessionOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithExcludedNames configures additional remote names that must never be
// projected, on top of [DefaultExcludedNames].
func WithExcludedNames(names ...string) Option {
	return &sessionOptionImpl{fn: func(opts *sessionOptions) error {
		opts.exclude = append(opts.exclude, names...)
		return nil
	}}
}

// WithEventSource overrides how the remote event source is resolved from
// the remote entry point, for transports whose event source is reached by
// navigating the remote object graph. The default resolves the entry point
// itself as an [EventSource], failing with [ErrNoEventSource] otherwise.
func WithEventSource(fn EventSourceFunc) Option {
	return &sessionOptionImpl{fn: func(opts *sessionOptions) error {
		if fn == nil {
			return errors.New("ghidrabridge: event source func must not be nil")
		}
		opts.eventSource = fn
		return nil
	}}
}

// resolveOptions applies the given options to a default [sessionOptions].
func resolveOptions(opts []Option) (*sessionOptions, error) {
	cfg := &sessionOptions{
		interactive: true,
		eventSource: defaultEventSource,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyOption(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.dialer == nil && cfg.transport == nil {
		return nil, errors.New("ghidrabridge: a transport must be provided via WithDialer or WithTransport")
	}
	if cfg.dialer != nil && cfg.transport != nil {
		return nil, errors.New("ghidrabridge: WithDialer and WithTransport are mutually exclusive")
	}
	return cfg, nil
}
