/*
Package treewire manages the lifecycle of event-listener attachments on
tree-structured UI elements: conditional registration, visibility-gated
attach/detach, automatic release when an element leaves the tree, and
ordered multi-stage handler chains per node/event pair.

# Overview

The engine sits between client code and three host-supplied collaborators:
a Binder (the raw attach/detach primitive), a VisibilityObserver (reports
nodes entering and leaving the viewport), and a MutationObserver (reports
nodes removed from the live tree). Client code registers listeners; the
engine decides when each one is physically attached and keeps a per-node
marker attribute in sync with the actual attachment state.

A registration is physically attached exactly while its activation
predicate (if any) returns true and its node is visible (unless the
visibility requirement is waived). The engine re-evaluates on visibility
changes, on registration, and on demand via Refresh; re-evaluation is
idempotent and never double-attaches.

# Basic Usage

	tree := memtree.NewTree()
	eng := treewire.New(tree,
	    treewire.WithVisibilityObserver(tree),
	    treewire.WithMutationObserver(tree),
	)
	tree.SetVisibilityHandler(eng.VisibilityChanged)
	tree.SetRemovalHandler(func(nodes []treewire.Node) {
	    eng.NodesRemoved(nodes...)
	})

	button := tree.NewElement("button")
	tree.Root().AppendChild(button)

	handle, err := eng.Register(button, "click", treewire.ListenerFunc(func(evt treewire.Event) error {
	    fmt.Println("clicked")
	    return nil
	}))

	button.SetVisible(true)          // gate opens, listener attaches
	tree.Dispatch(button, "click", nil)
	eng.Unregister(handle)

# Chains

A chain sequences several handler stages behind one physical listener.
Stages run strictly in order against a data value threaded from stage to
stage; a stage can stop the run by returning a false continue flag, and a
failing stage stops the run without poisoning later triggers:

	eng.CreateChain("checkout", button, "click", []treewire.Stage{
	    validate,
	    submit,
	    confirm,
	})

# Failure Isolation

Errors (and panics) from user callbacks and stages never reach the host's
event-processing thread. They are wrapped in CallbackError and delivered
to the handler configured with WithErrorHandler, or logged. Failures of
the attach/detach primitive itself are different: they indicate an
environment problem and propagate as AttachmentError to whoever triggered
the transition.

# Teardown

Shutdown cleans up every registration and chain, disconnects both
observers, and closes the journal if one is configured. The host calls it
explicitly at teardown; wiring it to process or page exit is the host's
choice, not something the engine does implicitly.
*/
package treewire
