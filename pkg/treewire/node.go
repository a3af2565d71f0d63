package treewire

// Node is an opaque tree node the engine attaches listeners to. The engine
// never owns a node's lifetime: nodes are lookup keys and attach targets,
// nothing more. Interface values are used as map keys, so implementations
// must be comparable; in practice, a pointer type.
//
// The attribute methods back the engine's attachment marker: a per-node
// string key set while a listener is physically attached and removed when
// it is detached. The engine derives attachment state from the marker
// instead of storing it separately.
type Node interface {
	// Attribute returns the value for key and whether it is set.
	Attribute(key string) (string, bool)

	// SetAttribute sets key to value.
	SetAttribute(key, value string)

	// RemoveAttribute unsets key. Removing an absent key is a no-op.
	RemoveAttribute(key string)
}

// Event is an opaque event token carrying a type tag and the node it
// targets. The engine never inspects the native payload.
type Event interface {
	// Type returns the event type tag ("click", "scroll", ...).
	Type() string

	// Target returns the node the event was dispatched on.
	Target() Node

	// Native returns the host's underlying event object, if any.
	Native() any
}

// event is the default Event implementation.
type event struct {
	typ    string
	target Node
	native any
}

func (e *event) Type() string { return e.typ }
func (e *event) Target() Node { return e.target }
func (e *event) Native() any  { return e.native }

// NewEvent creates an Event with the given type tag, target, and native
// payload.
func NewEvent(typ string, target Node, native any) Event {
	return &event{typ: typ, target: target, native: native}
}

// Listener handles dispatched events. A returned error is isolated at the
// dispatch boundary: the engine reports it through the configured error
// handler and never lets it reach the host's event-processing thread.
type Listener interface {
	HandleEvent(evt Event) error
}

// ListenerFunc adapts a plain function to the Listener interface.
type ListenerFunc func(evt Event) error

// HandleEvent implements Listener.
func (f ListenerFunc) HandleEvent(evt Event) error { return f(evt) }

// Binder is the raw attach/detach primitive the host supplies. It must be
// reference-identity based: Detach removes only the exact listener value
// passed to Attach. The engine guarantees it passes the same value to both.
type Binder interface {
	// Attach physically attaches the listener to the node for the event type.
	Attach(node Node, eventType string, listener Listener) error

	// Detach physically detaches a previously attached listener.
	Detach(node Node, eventType string, listener Listener) error
}

// VisibilityObserver is the external service reporting nodes entering and
// leaving the viewport-like region. The host constructs it with
// ObserverOptions and wires its notifications to Engine.VisibilityChanged.
type VisibilityObserver interface {
	// Observe starts visibility tracking for the node.
	Observe(node Node)

	// Unobserve stops visibility tracking for the node.
	Unobserve(node Node)

	// Disconnect stops tracking all nodes.
	Disconnect()
}

// MutationObserver is the external service reporting nodes detached from
// the live tree. The host wires its batched notifications to
// Engine.NodesRemoved.
type MutationObserver interface {
	// ObserveSubtree starts removal tracking for the subtree under root.
	ObserveSubtree(root Node)

	// Disconnect stops tracking all subtrees.
	Disconnect()
}

// ParentNode is an optional Node extension. When a mutation observer
// reports only subtree roots, the engine uses ChildNodes to sweep
// descendants itself; observers that pre-expand removals don't need it.
type ParentNode interface {
	Node
	ChildNodes() []Node
}

// ObserverOptions configures a visibility observer: how far outside the
// viewport a node still counts as visible, and at which intersection
// ratios notifications fire.
type ObserverOptions struct {
	// RootMargin grows or shrinks the viewport region ("50px").
	RootMargin string

	// Thresholds are the intersection ratios that trigger callbacks.
	Thresholds []float64
}

// DefaultObserverOptions reports any intersection at all.
var DefaultObserverOptions = ObserverOptions{
	RootMargin: "0px",
	Thresholds: []float64{0},
}
