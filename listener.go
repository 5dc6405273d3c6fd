package ghidrabridge

import (
	"context"
	"sync"

	bigbuff "github.com/joeycumines/go-bigbuff"
	"github.com/joeycumines/logiface"
)

// Listener is a local handler registered with a remote [EventSource], the
// receiving end of reverse callbacks. The remote side invokes
// [Listener.HandleEvent] on a transport-owned dispatch goroutine,
// concurrently with the local caller; events are broadcast to every
// channel target registered via [Listener.Subscribe].
//
// A Listener registers with the remote source exactly once, on creation,
// and must be released via [Listener.Close], which deregisters exactly
// once and is safe to call redundantly. Release is never left to garbage
// collection, since remote-side cleanup cannot depend on collector timing.
type Listener struct {
	notifier  bigbuff.Notifier
	ctx       context.Context
	cancel    context.CancelFunc
	source    EventSource
	logger    *logiface.Logger[logiface.Event]
	removeErr error
	done      chan struct{}
	once      sync.Once
}

// newListener constructs a handler for the given source and issues the one
// remote registration call.
func newListener(ctx context.Context, source EventSource, logger *logiface.Logger[logiface.Event]) (*Listener, error) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	x := &Listener{
		ctx:    ctx,
		cancel: cancel,
		source: source,
		logger: logger,
		done:   make(chan struct{}),
	}

	if err := source.AddListener(ctx, x); err != nil {
		cancel()
		close(x.done)
		return nil, err
	}

	logger.Debug().Log(`listener registered`)

	return x, nil
}

// HandleEvent implements [EventHandler]. It is invoked by the remote side,
// via the transport's dispatch path, and broadcasts the event to all
// subscribed targets. Panics (e.g. from a closed subscriber channel) are
// recovered and logged, never propagated into the dispatch loop, so a bad
// event cannot kill delivery of subsequent events.
func (x *Listener) HandleEvent(ctx context.Context, event any) {
	defer func() {
		if r := recover(); r != nil {
			x.logger.Err().
				Any(`panic`, r).
				Log(`event delivery panic recovered`)
		}
	}()

	select {
	case <-x.ctx.Done():
		// released - drop the event rather than block on dead subscribers
		return
	case <-ctx.Done():
		return
	default:
	}

	x.notifier.PublishContext(x.ctx, nil, event)
}

// Subscribe accepts any `target` that is a channel which can receive event
// values. The returned cancel func MUST be called, unless `ctx` is
// cancelled.
// WARNING: Sends to `target` are blocking, and subscribers must therefore
// always receive promptly, or delivery of remote events will stall.
func (x *Listener) Subscribe(ctx context.Context, target any) context.CancelFunc {
	return x.notifier.SubscribeCancel(ctx, nil, target)
}

// Done is closed once the listener has been released.
func (x *Listener) Done() <-chan struct{} {
	return x.done
}

// Close deregisters the listener from the remote source. Only the first
// call performs the remote deregistration; subsequent calls return the
// same result. A deregistration failure is returned as a [TeardownError],
// and also logged, since callers releasing a whole session are expected to
// ignore it.
func (x *Listener) Close(ctx context.Context) error {
	x.once.Do(func() {
		defer close(x.done)
		defer x.cancel()
		if err := x.source.RemoveListener(ctx, x); err != nil {
			x.removeErr = &TeardownError{Err: err}
			x.logger.Err().
				Err(err).
				Log(`listener teardown failed`)
			return
		}
		x.logger.Debug().Log(`listener removed`)
	})
	return x.removeErr
}
