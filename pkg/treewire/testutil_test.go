package treewire_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/randalmurphal/treewire/pkg/treewire"
	"github.com/randalmurphal/treewire/pkg/treewire/memtree"
)

// harness bundles an engine fully wired to an in-memory tree, plus the
// errors the engine reported through its error handler.
type harness struct {
	tree   *memtree.Tree
	engine *treewire.Engine

	mu     sync.Mutex
	errors []error
}

// newHarness wires an engine to a fresh memtree with both observers
// connected and callback errors captured.
func newHarness(t *testing.T, opts ...treewire.Option) *harness {
	t.Helper()

	h := &harness{tree: memtree.NewTree()}
	opts = append([]treewire.Option{
		treewire.WithVisibilityObserver(h.tree),
		treewire.WithMutationObserver(h.tree),
		treewire.WithErrorHandler(func(err error) {
			h.mu.Lock()
			h.errors = append(h.errors, err)
			h.mu.Unlock()
		}),
	}, opts...)
	h.engine = treewire.New(h.tree, opts...)

	h.tree.SetVisibilityHandler(h.engine.VisibilityChanged)
	h.tree.SetRemovalHandler(func(nodes []treewire.Node) {
		_ = h.engine.NodesRemoved(nodes...)
	})
	t.Cleanup(func() { _ = h.engine.Shutdown() })
	return h
}

// reported returns a copy of the captured callback errors.
func (h *harness) reported() []error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]error(nil), h.errors...)
}

// counter is a listener that counts invocations.
type counter struct {
	calls int
	err   error
}

func (c *counter) HandleEvent(treewire.Event) error {
	c.calls++
	return c.err
}

// markerCount returns how many attachment-marker attributes the element
// currently carries.
func markerCount(el *memtree.Element, markerKey string) int {
	n := 0
	for key := range el.Attributes() {
		if strings.HasPrefix(key, markerKey+".") {
			n++
		}
	}
	return n
}

// failBinder fails attach and/or detach with fixed errors.
type failBinder struct {
	attachErr error
	detachErr error
}

func (f *failBinder) Attach(treewire.Node, string, treewire.Listener) error { return f.attachErr }
func (f *failBinder) Detach(treewire.Node, string, treewire.Listener) error { return f.detachErr }

var errBinderDown = errors.New("binder down")
