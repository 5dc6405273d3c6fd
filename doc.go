// Package ghidrabridge projects the namespace of a remote Ghidra analysis
// process into a local, caller-supplied scope, and registers local handlers
// for events initiated by the remote side.
//
// The package is the client-side core of a bridge: the low-level RPC
// transport (connection setup, message framing, proxy attribute resolution,
// serialization) is deliberately not implemented here. It is consumed via
// the [Transport], [Proxy], and [EventSource] interfaces, allowing any
// transport implementation to be plugged in via [WithDialer] or
// [WithTransport].
//
// # Namespace Projection
//
// A [Session] obtains the remote flattened entry point (the remote process's
// top-level namespace) and binds its exposed members into a [Scope] via
// [Session.Load]. Every binding is tracked in a record stored in the scope
// itself, under [NamespaceTrackKey], so that [Session.Unload] can reverse
// the projection exactly. Bindings the caller has since rebound are left
// untouched; only values still identical to what was loaded are removed.
// Unloading a scope that holds no active record fails with
// [ErrNotProjected].
//
// # Reverse Callbacks
//
// In interactive mode (the default), the session registers a [Listener]
// with the remote tool's event source. The remote side then invokes
// [Listener.HandleEvent] asynchronously, on a transport-owned dispatch
// goroutine, concurrently with whatever the local caller is doing. Events
// are broadcast to all channel targets registered via [Listener.Subscribe].
// Handler panics are recovered and logged, never propagated into the
// transport's dispatch loop.
//
// # Lifecycle
//
// [Open] dials the transport and, if a scope was bound via [WithScope],
// immediately projects into it. [Session.Close] reverses the projection
// (tolerating a scope the caller already unloaded), removes the listener,
// and closes the transport, in that order. The listener is always removed
// before the transport handle is discarded, so no event can arrive after
// the handle it would need is gone. Remote-side listener cleanup is never
// left to garbage collection.
//
// # Thread Safety
//
// A [Session] is safe for concurrent use. The projection record and the
// listener's subscription list are guarded so the event dispatch path may
// run, and may call back into the bridge, while the caller loads, unloads,
// or closes.
package ghidrabridge
