package treewire

import (
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"
)

// Handle identifies one registration for later removal. Listener values
// can be function-shaped and Go functions are not comparable, so removal
// goes through the handle instead of structural callback matching.
type Handle string

// newHandle mints a process-unique registration handle.
func newHandle() Handle {
	return Handle(fmt.Sprintf("reg-%s", uuid.New().String()[:8]))
}

// markerValue is the sentinel stored in a node's marker attribute while
// the registration is physically attached.
const markerValue = "1"

// Registration is one conditional listener binding: an owning node, an
// event type, the user callback, and an optional activation predicate.
//
// A registration is physically attached to its node iff its predicate is
// absent or true, and its node is visible or the visibility requirement
// was waived. Physical attachment state is derived from the node's marker
// attribute, never stored separately.
type Registration struct {
	handle    Handle
	node      Node
	eventType string
	listener  Listener
	predicate func() bool

	// alwaysAttached waives the visibility requirement.
	alwaysAttached bool

	// chainID is set when this registration is a chain's executor.
	chainID string

	// bound is the stable listener identity handed to the binder. The
	// binder's detach contract is reference-identity based, so the same
	// value must be used for the registration's whole lifetime.
	bound *boundListener
}

// Handle returns the registration's removal handle.
func (r *Registration) Handle() Handle { return r.handle }

// Node returns the owning node.
func (r *Registration) Node() Node { return r.node }

// EventType returns the registered event type.
func (r *Registration) EventType() string { return r.eventType }

// ChainID returns the chain this registration executes, or "" for a
// plain listener.
func (r *Registration) ChainID() string { return r.chainID }

// active re-evaluates the activation predicate. The result is never
// cached: predicates are consulted on every attachment decision and on
// every dispatch.
func (r *Registration) active() bool {
	return r.predicate == nil || r.predicate()
}

// markerAttr returns the node attribute key guarding this registration's
// physical attachment. The key is unique per registration so several
// listeners on one node don't shadow each other's markers.
func (r *Registration) markerAttr(markerKey string) string {
	return markerKey + "." + string(r.handle)
}

// attached reports physical attachment state, reconstructed from the
// marker attribute.
func (r *Registration) attached(markerKey string) bool {
	_, ok := r.node.Attribute(r.markerAttr(markerKey))
	return ok
}

// boundListener is the explicit wrapper installed as the physical
// listener. It captures the predicate and callback and performs the
// activation check inline before invoking, and it is the dispatch
// boundary where callback failures and panics are isolated.
type boundListener struct {
	engine *Engine
	reg    *Registration
}

// HandleEvent implements Listener. It never returns an error: callback
// failures are reported through the engine's error handler so they cannot
// abort unrelated work on the host's event-processing thread.
func (b *boundListener) HandleEvent(evt Event) error {
	reg := b.reg
	if !reg.active() {
		return nil
	}

	if err := safeDispatch(reg.listener, evt); err != nil {
		b.engine.reportError(&CallbackError{
			Handle:    reg.handle,
			EventType: evt.Type(),
			Stage:     -1,
			Err:       err,
		})
	}
	return nil
}

// safeDispatch invokes a listener, converting panics into PanicError.
func safeDispatch(l Listener, evt Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()
	return l.HandleEvent(evt)
}
