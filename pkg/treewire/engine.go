package treewire

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/randalmurphal/treewire/pkg/treewire/chain"
	"github.com/randalmurphal/treewire/pkg/treewire/journal"
	"github.com/randalmurphal/treewire/pkg/treewire/observability"
	"github.com/randalmurphal/treewire/pkg/treewire/registry"
)

// Engine owns the listener registry, the attachment state machine, and
// the chain store for one tree. Several engines can coexist in one
// process; chain ids are scoped per engine.
//
// All mutating methods are safe for concurrent use: the registry table
// and the chain store are each guarded by a single mutex, not per-entry
// locks. No lock is held while user callbacks or stages run.
type Engine struct {
	mu sync.Mutex

	binder     Binder
	visibility VisibilityObserver
	mutations  MutationObserver

	regs      *registry.Table[Node, *Registration]
	handles   map[Handle]*Registration
	chains    *chain.Store[Event]
	chainRegs map[string]Handle

	// visible is the last visibility state the gate was told about,
	// per node with live registrations. Entries are dropped with the
	// node's registry entry so the map never outlives the node.
	visible map[Node]bool

	markerKey string
	logger    *slog.Logger
	metrics   observability.MetricsRecorder
	spans     observability.SpanManager
	journal   journal.Store
	onError   func(error)

	tracingEnabled bool
	closed         bool
}

// New creates an engine over the given attach/detach primitive.
//
// Panics if binder is nil. Observers, logging, metrics, and the journal
// are wired through options; see Option.
func New(binder Binder, opts ...Option) *Engine {
	if binder == nil {
		panic("treewire: binder cannot be nil")
	}

	e := &Engine{
		binder:    binder,
		regs:      registry.NewTable[Node, *Registration](),
		handles:   make(map[Handle]*Registration),
		chains:    chain.NewStore[Event](),
		chainRegs: make(map[string]Handle),
		visible:   make(map[Node]bool),
		markerKey: DefaultMarkerKey,
		metrics:   observability.NoopMetrics{},
		spans:     observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register binds a listener to a node for an event type and performs the
// initial attach decision. The returned handle removes the registration
// later.
//
// The physical attach happens only once the activation predicate (if
// any) holds and the node is visible (unless WithAlwaysAttached). A
// failing attach primitive is reported as *AttachmentError; the
// registration stays installed either way.
//
// Panics if node or listener is nil, or eventType is empty.
func (e *Engine) Register(node Node, eventType string, listener Listener, opts ...RegisterOption) (Handle, error) {
	if node == nil {
		panic("treewire: node cannot be nil")
	}
	if eventType == "" {
		panic("treewire: event type cannot be empty")
	}
	if listener == nil {
		panic("treewire: listener cannot be nil")
	}

	reg := &Registration{
		handle:    newHandle(),
		node:      node,
		eventType: eventType,
		listener:  listener,
	}
	for _, opt := range opts {
		opt(reg)
	}
	reg.bound = &boundListener{engine: e, reg: reg}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return "", ErrEngineClosed
	}
	first := e.regs.Add(node, reg)
	e.handles[reg.handle] = reg
	e.mu.Unlock()

	// First registration on a node starts visibility observation. The
	// observer may report the node's current state synchronously, so
	// this runs outside the engine lock.
	if first && e.visibility != nil {
		e.visibility.Observe(node)
	}

	return reg.handle, e.Refresh(reg.handle)
}

// Unregister removes a registration by handle, detaching it if attached.
// Unregistering an unknown or already-removed handle is a no-op, not an
// error. When the node's last registration goes, the node is dropped from
// the registry and visibility observation stops.
func (e *Engine) Unregister(h Handle) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEngineClosed
	}

	reg, ok := e.handles[h]
	if !ok {
		e.mu.Unlock()
		return nil
	}

	err := e.forceDetachLocked(reg)
	delete(e.handles, h)
	_, last, _ := e.regs.RemoveFunc(reg.node, func(r *Registration) bool { return r == reg })
	if last {
		delete(e.visible, reg.node)
	}
	e.mu.Unlock()

	if last && e.visibility != nil {
		e.visibility.Unobserve(reg.node)
	}
	return err
}

// Refresh re-evaluates one registration's attachment state. Call it
// after external state feeding the registration's predicate changes;
// visibility changes re-evaluate automatically.
func (e *Engine) Refresh(h Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}
	reg, ok := e.handles[h]
	if !ok {
		return nil
	}
	return e.evaluateLocked(reg)
}

// ListFor returns a read-only snapshot of the node's registrations in
// insertion order.
func (e *Engine) ListFor(node Node) []*Registration {
	return e.regs.ListFor(node)
}

// VisibilityChanged is the visibility gate: the sole consumer of the
// external visibility observer's notifications. It records the node's
// new state and re-evaluates every registration on the node.
//
// Calls for nodes without registrations are no-ops, and rapid toggles
// are fine; each call is independent and idempotent.
func (e *Engine) VisibilityChanged(node Node, visible bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || !e.regs.Has(node) {
		return nil
	}

	e.visible[node] = visible

	var errs []error
	for _, reg := range e.regs.ListFor(node) {
		if err := e.evaluateLocked(reg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NodesRemoved is the removal sweeper: for every node in the batch it
// force-detaches and purges all registrations, drops chains anchored on
// the node, and stops visibility observation. Nodes implementing
// ParentNode are swept recursively, covering mutation observers that
// report only subtree roots. The sweep is idempotent: repeated or
// unknown nodes cause no error.
func (e *Engine) NodesRemoved(nodes ...Node) error {
	e.mu.Lock()

	if e.closed {
		e.mu.Unlock()
		return nil
	}

	var errs []error
	var released int64
	var swept []Node
	for _, node := range nodes {
		e.sweepLocked(node, &errs, &released, &swept)
	}
	e.mu.Unlock()

	if e.visibility != nil {
		for _, node := range swept {
			e.visibility.Unobserve(node)
		}
	}
	if released > 0 {
		e.metrics.RecordSweep(context.Background(), released)
	}
	return errors.Join(errs...)
}

// sweepLocked releases one node and recurses into its children when the
// node exposes them.
func (e *Engine) sweepLocked(node Node, errs *[]error, released *int64, swept *[]Node) {
	if node == nil {
		return
	}

	regs := e.regs.Purge(node)
	for _, reg := range regs {
		if err := e.forceDetachLocked(reg); err != nil {
			*errs = append(*errs, err)
		}
		delete(e.handles, reg.handle)
		if reg.chainID != "" {
			e.chains.Remove(reg.chainID)
			delete(e.chainRegs, reg.chainID)
		}
	}
	if len(regs) > 0 {
		delete(e.visible, node)
		*released += int64(len(regs))
		*swept = append(*swept, node)
		observability.LogSweep(e.logger, len(regs))
		e.journalAppend(journal.Entry{Kind: journal.KindSweep, Stage: -1})
	}

	if parent, ok := node.(ParentNode); ok {
		for _, child := range parent.ChildNodes() {
			e.sweepLocked(child, errs, released, swept)
		}
	}
}

// CleanupAll force-detaches and removes every registration and every
// chain, leaving no node with a marker attribute. Observers stay
// connected; the engine remains usable.
func (e *Engine) CleanupAll() error {
	e.mu.Lock()

	if e.closed {
		e.mu.Unlock()
		return ErrEngineClosed
	}

	var errs []error
	nodes := e.regs.Keys()
	released := 0
	for _, node := range nodes {
		for _, reg := range e.regs.Purge(node) {
			if err := e.forceDetachLocked(reg); err != nil {
				errs = append(errs, err)
			}
			released++
		}
	}
	e.handles = make(map[Handle]*Registration)
	e.visible = make(map[Node]bool)
	e.chains.Clear()
	e.chainRegs = make(map[string]Handle)
	e.mu.Unlock()

	if e.visibility != nil {
		for _, node := range nodes {
			e.visibility.Unobserve(node)
		}
	}

	observability.LogCleanup(e.logger, len(nodes), released)
	e.journalAppend(journal.Entry{Kind: journal.KindCleanup, Stage: -1})
	return errors.Join(errs...)
}

// WatchSubtree starts removal tracking for the subtree under root via
// the wired mutation observer. No-op without one.
func (e *Engine) WatchSubtree(root Node) error {
	if e.isClosed() {
		return ErrEngineClosed
	}
	if e.mutations != nil {
		e.mutations.ObserveSubtree(root)
	}
	return nil
}

// isClosed reads the closed flag under the lock.
func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Shutdown tears the engine down: cleans up every registration and
// chain, disconnects both observers, and closes the journal. The host
// application is responsible for calling it at teardown; the engine
// never hooks process exit itself. Shutdown is idempotent, and all
// later mutating calls return ErrEngineClosed.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	err := e.CleanupAll()

	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	if e.visibility != nil {
		e.visibility.Disconnect()
	}
	if e.mutations != nil {
		e.mutations.Disconnect()
	}
	if e.journal != nil {
		if cerr := e.journal.Close(); cerr != nil {
			observability.LogJournalError(e.logger, "close", cerr)
		}
	}
	return err
}

// evaluateLocked is the attachment controller: the single authority on
// whether a registration's physical attach/detach happens now. It is
// idempotent: re-entrant calls from the visibility gate and manual
// refreshes never double-attach or double-detach, because the decision
// compares the desired state against the marker attribute.
func (e *Engine) evaluateLocked(reg *Registration) error {
	want := reg.active() && (reg.alwaysAttached || e.visibleLocked(reg.node))
	got := reg.attached(e.markerKey)
	if want == got {
		return nil
	}
	if want {
		return e.attachLocked(reg)
	}
	return e.detachLocked(reg)
}

// forceDetachLocked transitions a registration to detached regardless of
// its conditions. Used by removal sweeps, unregistration, and cleanup.
func (e *Engine) forceDetachLocked(reg *Registration) error {
	if !reg.attached(e.markerKey) {
		return nil
	}
	return e.detachLocked(reg)
}

// attachLocked performs the physical attach and sets the marker. On
// binder failure the marker stays absent, matching the actual state.
func (e *Engine) attachLocked(reg *Registration) error {
	if err := e.binder.Attach(reg.node, reg.eventType, reg.bound); err != nil {
		aerr := &AttachmentError{Handle: reg.handle, EventType: reg.eventType, Op: "attach", Err: err}
		observability.LogAttachError(e.logger, string(reg.handle), "attach", err)
		return aerr
	}
	reg.node.SetAttribute(reg.markerAttr(e.markerKey), markerValue)
	observability.LogAttach(e.logger, string(reg.handle), reg.eventType)
	e.metrics.RecordAttach(context.Background(), reg.eventType)
	e.journalAppend(journal.Entry{
		Kind:      journal.KindAttach,
		Handle:    string(reg.handle),
		ChainID:   reg.chainID,
		EventType: reg.eventType,
		Stage:     -1,
	})
	return nil
}

// detachLocked performs the physical detach and clears the marker. On
// binder failure the marker stays present, matching the actual state.
func (e *Engine) detachLocked(reg *Registration) error {
	if err := e.binder.Detach(reg.node, reg.eventType, reg.bound); err != nil {
		aerr := &AttachmentError{Handle: reg.handle, EventType: reg.eventType, Op: "detach", Err: err}
		observability.LogAttachError(e.logger, string(reg.handle), "detach", err)
		return aerr
	}
	reg.node.RemoveAttribute(reg.markerAttr(e.markerKey))
	observability.LogDetach(e.logger, string(reg.handle), reg.eventType)
	e.metrics.RecordDetach(context.Background(), reg.eventType)
	e.journalAppend(journal.Entry{
		Kind:      journal.KindDetach,
		Handle:    string(reg.handle),
		ChainID:   reg.chainID,
		EventType: reg.eventType,
		Stage:     -1,
	})
	return nil
}

// visibleLocked returns the gate's last reported state for the node.
// Without a visibility observer the engine cannot gate and treats every
// node as visible.
func (e *Engine) visibleLocked(node Node) bool {
	if e.visibility == nil {
		return true
	}
	return e.visible[node]
}

// reportError delivers an isolated callback failure to the configured
// error handler, falling back to the engine logger.
func (e *Engine) reportError(err error) {
	if e.onError != nil {
		e.onError(err)
		return
	}
	var cerr *CallbackError
	if errors.As(err, &cerr) {
		observability.LogCallbackError(e.logger, string(cerr.Handle), cerr.EventType, cerr.Err)
		return
	}
	observability.LogCallbackError(e.logger, "", "", err)
}

// journalAppend writes a lifecycle entry best-effort.
func (e *Engine) journalAppend(entry journal.Entry) {
	if e.journal == nil {
		return
	}
	if err := e.journal.Append(entry); err != nil {
		observability.LogJournalError(e.logger, string(entry.Kind), err)
	}
}
