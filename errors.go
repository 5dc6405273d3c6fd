package ghidrabridge

import (
	"errors"
	"fmt"
)

// ErrNotProjected is returned by unload operations when the target scope
// holds no active projection record, distinguishing "never loaded here"
// (or "already unloaded") from a reversible projection. The scope is not
// mutated in this case.
var ErrNotProjected = errors.New("ghidrabridge: scope not projected")

// ErrNoEventSource is returned when interactive mode is enabled but no
// event source could be resolved from the remote entry point. See
// [WithEventSource].
var ErrNoEventSource = errors.New("ghidrabridge: no event source available")

// LookupError indicates that a remote name could not be resolved. It wraps
// the transport-level cause, which remains matchable via [errors.Is] and
// [errors.As]. Existing projections are unaffected by a failed lookup.
type LookupError struct {
	Err  error
	Name string
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	return fmt.Sprintf("ghidrabridge: remote lookup of %q failed: %v", e.Name, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *LookupError) Unwrap() error {
	return e.Err
}

// TeardownError indicates that remote listener deregistration failed. It is
// best-effort by design: during automatic teardown it is logged, and never
// prevents the remaining session resources from being released.
type TeardownError struct {
	Err error
}

// Error implements the error interface.
func (e *TeardownError) Error() string {
	return fmt.Sprintf("ghidrabridge: listener teardown failed: %v", e.Err)
}

// Unwrap returns the underlying transport error.
func (e *TeardownError) Unwrap() error {
	return e.Err
}
