package treewire

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/treewire/pkg/treewire/chain"
)

// Sentinel errors surfaced by the engine.
var (
	// ErrDuplicateChain indicates CreateChain was called with a live id.
	ErrDuplicateChain = chain.ErrDuplicateChain

	// ErrUnknownChain indicates a stage mutation targeted a missing id.
	ErrUnknownChain = chain.ErrUnknownChain

	// ErrEngineClosed indicates a mutating call after Shutdown.
	ErrEngineClosed = errors.New("engine is closed")
)

// ChainError wraps errors from chain API calls with the chain context.
type ChainError struct {
	// ID is the chain id the call targeted.
	ID string
	// Op is the operation that failed ("create", "add_stage", "remove").
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ChainError) Error() string {
	return fmt.Sprintf("chain %s: %s: %v", e.ID, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ChainError) Unwrap() error {
	return e.Err
}

// AttachmentError wraps a failure of the raw attach/detach primitive.
// It propagates to the caller of the operation that triggered it, since
// it indicates an environment problem the engine cannot paper over. The
// marker attribute stays consistent with whichever side actually
// succeeded: a failed attach leaves the marker absent, a failed detach
// leaves it present.
type AttachmentError struct {
	// Handle identifies the registration involved.
	Handle Handle
	// EventType is the registration's event type.
	EventType string
	// Op is the primitive that failed ("attach", "detach").
	Op string
	// Err is the underlying error from the binder.
	Err error
}

// Error implements the error interface.
func (e *AttachmentError) Error() string {
	return fmt.Sprintf("%s %s for %s: %v", e.Op, e.EventType, e.Handle, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AttachmentError) Unwrap() error {
	return e.Err
}

// CallbackError wraps a failure raised by a user-supplied callback or
// chain stage. It is always caught at the dispatch boundary, delivered to
// the configured error handler, and never propagated to the host's
// event-processing thread. For chains it also stops the current execution.
type CallbackError struct {
	// Handle identifies the registration, if the failure came from a
	// plain listener.
	Handle Handle
	// ChainID identifies the chain, if the failure came from a stage.
	ChainID string
	// EventType is the triggering event's type.
	EventType string
	// Stage is the failing stage index, or -1 for plain listeners.
	Stage int
	// Err is the underlying error from the callback.
	Err error
}

// Error implements the error interface.
func (e *CallbackError) Error() string {
	if e.ChainID != "" {
		return fmt.Sprintf("chain %s stage %d on %s: %v", e.ChainID, e.Stage, e.EventType, e.Err)
	}
	return fmt.Sprintf("listener %s on %s: %v", e.Handle, e.EventType, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CallbackError) Unwrap() error {
	return e.Err
}

// PanicError captures panic information from a callback or stage.
// It includes the stack trace for debugging.
type PanicError struct {
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("callback panicked: %v", e.Value)
}
