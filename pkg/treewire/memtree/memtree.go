// Package memtree is an in-memory element tree implementing the engine's
// boundary contracts: treewire.Node, Binder, VisibilityObserver, and
// MutationObserver. It backs the test suite, the runnable examples, and
// hosts that have no native tree to bridge to.
//
// Dispatch is synchronous and single-threaded, matching the cooperative
// model the engine is specified against. The tree is not safe for
// concurrent mutation.
package memtree

import (
	"github.com/randalmurphal/treewire/pkg/treewire"
)

// Element is one node of the tree. It implements treewire.Node; the
// pointer is the node's identity.
type Element struct {
	name     string
	tree     *Tree
	parent   *Element
	children []*Element

	attrs     map[string]string
	visible   bool
	observed  bool // visibility observation active
	listeners map[string][]treewire.Listener
}

// Compile-time interface checks.
var (
	_ treewire.Node       = (*Element)(nil)
	_ treewire.ParentNode = (*Element)(nil)
)

// Name returns the element's diagnostic name.
func (el *Element) Name() string { return el.name }

// Attribute implements treewire.Node.
func (el *Element) Attribute(key string) (string, bool) {
	v, ok := el.attrs[key]
	return v, ok
}

// SetAttribute implements treewire.Node.
func (el *Element) SetAttribute(key, value string) {
	el.attrs[key] = value
}

// RemoveAttribute implements treewire.Node.
func (el *Element) RemoveAttribute(key string) {
	delete(el.attrs, key)
}

// Attributes returns a copy of the element's attribute map.
func (el *Element) Attributes() map[string]string {
	out := make(map[string]string, len(el.attrs))
	for k, v := range el.attrs {
		out[k] = v
	}
	return out
}

// ChildNodes implements treewire.ParentNode.
func (el *Element) ChildNodes() []treewire.Node {
	out := make([]treewire.Node, len(el.children))
	for i, c := range el.children {
		out[i] = c
	}
	return out
}

// Parent returns the element's parent, or nil for the root and for
// detached elements.
func (el *Element) Parent() *Element { return el.parent }

// AppendChild attaches a detached element as the last child.
func (el *Element) AppendChild(child *Element) {
	if child.parent != nil {
		child.parent.removeFromChildren(child)
	}
	child.parent = el
	el.children = append(el.children, child)
}

// Remove detaches the element (and its subtree) from the tree and
// reports the removal batch to the removal handler, pre-expanded to
// include every descendant, when the element sits under an observed
// subtree root.
func (el *Element) Remove() {
	observed := el.tree.underObservedRoot(el)

	if el.parent != nil {
		el.parent.removeFromChildren(el)
		el.parent = nil
	}

	if observed && el.tree.onRemoval != nil {
		batch := collect(el, nil)
		el.tree.onRemoval(batch)
	}
}

// removeFromChildren unlinks child from el's child list.
func (el *Element) removeFromChildren(child *Element) {
	for i, c := range el.children {
		if c == child {
			el.children = append(el.children[:i], el.children[i+1:]...)
			return
		}
	}
}

// collect flattens a subtree into a node batch, root first.
func collect(el *Element, batch []treewire.Node) []treewire.Node {
	batch = append(batch, el)
	for _, c := range el.children {
		batch = collect(c, batch)
	}
	return batch
}

// Visible returns the element's current visibility flag.
func (el *Element) Visible() bool { return el.visible }

// SetVisible flips the element's visibility and, while the element is
// observed, notifies the visibility handler. Setting the same value
// again re-notifies; the engine's re-evaluation is idempotent.
func (el *Element) SetVisible(v bool) {
	el.visible = v
	if el.observed && el.tree.onVisibility != nil {
		el.tree.onVisibility(el, v)
	}
}

// ListenerCount returns the number of physically attached listeners for
// the event type.
func (el *Element) ListenerCount(eventType string) int {
	return len(el.listeners[eventType])
}

// Tree owns a root element and implements the engine's three external
// services over it.
type Tree struct {
	root *Element

	options       treewire.ObserverOptions
	onVisibility  func(treewire.Node, bool) error
	onRemoval     func([]treewire.Node)
	observedRoots []*Element
}

// Compile-time interface checks.
var (
	_ treewire.Binder             = (*Tree)(nil)
	_ treewire.VisibilityObserver = (*Tree)(nil)
	_ treewire.MutationObserver   = (*Tree)(nil)
)

// NewTree creates a tree with a root element, using default observer
// options.
func NewTree() *Tree {
	t := &Tree{options: treewire.DefaultObserverOptions}
	t.root = t.NewElement("root")
	return t
}

// SetObserverOptions records the visibility observation options. The
// in-memory observer reports plain boolean visibility, so the options
// are informational, but they travel the same configuration path a real
// observer would use.
func (t *Tree) SetObserverOptions(o treewire.ObserverOptions) {
	t.options = o
}

// ObserverOptions returns the recorded observation options.
func (t *Tree) ObserverOptions() treewire.ObserverOptions {
	return t.options
}

// Root returns the root element.
func (t *Tree) Root() *Element { return t.root }

// NewElement creates a detached element belonging to this tree.
// Elements start invisible.
func (t *Tree) NewElement(name string) *Element {
	return &Element{
		name:      name,
		tree:      t,
		attrs:     make(map[string]string),
		listeners: make(map[string][]treewire.Listener),
	}
}

// SetVisibilityHandler routes visibility notifications, typically to
// Engine.VisibilityChanged.
func (t *Tree) SetVisibilityHandler(fn func(treewire.Node, bool) error) {
	t.onVisibility = fn
}

// SetRemovalHandler routes removal batches, typically to
// Engine.NodesRemoved.
func (t *Tree) SetRemovalHandler(fn func([]treewire.Node)) {
	t.onRemoval = fn
}

// Attach implements treewire.Binder.
func (t *Tree) Attach(node treewire.Node, eventType string, listener treewire.Listener) error {
	el := node.(*Element)
	el.listeners[eventType] = append(el.listeners[eventType], listener)
	return nil
}

// Detach implements treewire.Binder. Removal is reference-identity
// based: only the exact listener value passed to Attach is removed.
func (t *Tree) Detach(node treewire.Node, eventType string, listener treewire.Listener) error {
	el := node.(*Element)
	list := el.listeners[eventType]
	for i, l := range list {
		if l == listener {
			el.listeners[eventType] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(el.listeners[eventType]) == 0 {
		delete(el.listeners, eventType)
	}
	return nil
}

// Dispatch delivers an event to the node's physically attached listeners
// in attach order and returns how many ran. Listener errors are the
// engine's concern; the tree ignores the returned values the same way a
// native event loop would.
func (t *Tree) Dispatch(node treewire.Node, eventType string, native any) int {
	el := node.(*Element)
	list := make([]treewire.Listener, len(el.listeners[eventType]))
	copy(list, el.listeners[eventType])

	evt := treewire.NewEvent(eventType, el, native)
	for _, l := range list {
		_ = l.HandleEvent(evt)
	}
	return len(list)
}

// Observe implements treewire.VisibilityObserver. Observation reports
// the element's current state immediately, the way intersection
// observers fire an initial callback.
func (t *Tree) Observe(node treewire.Node) {
	el := node.(*Element)
	el.observed = true
	if t.onVisibility != nil {
		t.onVisibility(el, el.visible)
	}
}

// Unobserve implements treewire.VisibilityObserver.
func (t *Tree) Unobserve(node treewire.Node) {
	node.(*Element).observed = false
}

// Disconnect implements treewire.VisibilityObserver and
// treewire.MutationObserver: it stops all visibility observation and
// all subtree removal tracking.
func (t *Tree) Disconnect() {
	var unobserve func(*Element)
	unobserve = func(el *Element) {
		el.observed = false
		for _, c := range el.children {
			unobserve(c)
		}
	}
	unobserve(t.root)
	t.observedRoots = nil
}

// ObserveSubtree implements treewire.MutationObserver. Removals are
// reported only for elements under an observed root.
func (t *Tree) ObserveSubtree(root treewire.Node) {
	t.observedRoots = append(t.observedRoots, root.(*Element))
}

// underObservedRoot reports whether el currently sits under (or is) an
// observed subtree root.
func (t *Tree) underObservedRoot(el *Element) bool {
	for cur := el; cur != nil; cur = cur.parent {
		for _, r := range t.observedRoots {
			if cur == r {
				return true
			}
		}
	}
	return false
}
