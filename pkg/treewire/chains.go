package treewire

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/randalmurphal/treewire/pkg/treewire/chain"
	"github.com/randalmurphal/treewire/pkg/treewire/journal"
	"github.com/randalmurphal/treewire/pkg/treewire/observability"
)

// Stage is one step of a handler chain. See chain.Stage.
type Stage = chain.Stage[Event]

// CreateChain installs an ordered handler chain on a node/event pair.
// The chain's only physical listener is its executor, registered through
// the normal registry, so it follows the same visibility gating as plain
// listeners (RegisterOptions apply to the executor's registration).
//
// The chain id must be unique within this engine while live; a duplicate
// id fails with ErrDuplicateChain and leaves the existing chain intact.
//
// Panics if node is nil or eventType is empty, like Register.
func (e *Engine) CreateChain(id string, node Node, eventType string, stages []Stage, opts ...RegisterOption) error {
	if node == nil {
		panic("treewire: node cannot be nil")
	}
	if eventType == "" {
		panic("treewire: event type cannot be empty")
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEngineClosed
	}
	e.mu.Unlock()

	if err := e.chains.Create(id, stages); err != nil {
		return &ChainError{ID: id, Op: "create", Err: err}
	}

	opts = append(opts, withChainID(id))
	h, err := e.Register(node, eventType, &chainExecutor{engine: e, id: id}, opts...)
	if errors.Is(err, ErrEngineClosed) {
		// Shutdown ran between the closed check and the registration;
		// don't leave an executor-less chain behind.
		e.chains.Remove(id)
		return ErrEngineClosed
	}

	e.mu.Lock()
	e.chainRegs[id] = h
	e.mu.Unlock()
	return err
}

// AddStage appends a stage to a chain. The new stage is seen by every
// trigger from the next one on; an execution already in flight runs on
// the snapshot it took at its start.
func (e *Engine) AddStage(id string, stage Stage) error {
	if e.isClosed() {
		return ErrEngineClosed
	}
	if err := e.chains.Append(id, stage); err != nil {
		return &ChainError{ID: id, Op: "add_stage", Err: err}
	}
	return nil
}

// AddStageAt inserts a stage at the given position, shifting later
// stages back. Positions outside the current range are clamped.
func (e *Engine) AddStageAt(id string, position int, stage Stage) error {
	if e.isClosed() {
		return ErrEngineClosed
	}
	if err := e.chains.Insert(id, position, stage); err != nil {
		return &ChainError{ID: id, Op: "add_stage", Err: err}
	}
	return nil
}

// RemoveChain detaches the chain's executor from its node and deletes
// the stage list. Removing an unknown id is a no-op. An execution in
// flight completes on its snapshot; there is no further trigger.
func (e *Engine) RemoveChain(id string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEngineClosed
	}
	h, ok := e.chainRegs[id]
	delete(e.chainRegs, id)
	e.mu.Unlock()

	if !e.chains.Remove(id) && !ok {
		return nil
	}
	return e.Unregister(h)
}

// HasChain returns true if the chain id is live.
func (e *Engine) HasChain(id string) bool {
	return e.chains.Has(id)
}

// chainExecutor is the single physical listener installed per chain. It
// fans each triggering event out to the chain's stage snapshot.
type chainExecutor struct {
	engine *Engine
	id     string
}

// HandleEvent implements Listener. Stage failures are isolated inside
// runChain, so the executor never surfaces an error to the dispatch
// boundary.
func (c *chainExecutor) HandleEvent(evt Event) error {
	c.engine.runChain(context.Background(), c.id, evt)
	return nil
}

// runChain executes one chain trigger: stages run strictly in sequence
// against data threaded from stage to stage, starting empty. A stage
// returning a false continue flag stops the run without error; a stage
// error (or panic) stops it and is reported through the error handler.
// Either way the chain stays usable for the next trigger.
//
// The stage list is snapshotted once per trigger, so concurrent stage
// additions never change an in-flight run.
func (e *Engine) runChain(ctx context.Context, id string, evt Event) {
	stages, ok := e.chains.Stages(id)
	if !ok {
		// Chain removed while the event was in flight.
		return
	}

	runID := fmt.Sprintf("run-%s", uuid.New().String()[:8])
	observability.LogChainRunStart(e.logger, id, runID, len(stages))

	var span trace.Span
	if e.tracingEnabled {
		ctx, span = e.spans.StartChainSpan(ctx, id, runID)
	}

	start := time.Now()
	var data any
	var runErr error
	stagesRun := 0

	for i, stage := range stages {
		stageCtx := ctx
		var stageSpan trace.Span
		if e.tracingEnabled {
			stageCtx, stageSpan = e.spans.StartStageSpan(ctx, i)
		}
		next, cont, err := runStage(stageCtx, stage, evt, data)
		if e.tracingEnabled {
			e.spans.EndSpanWithError(stageSpan, err)
		}
		stagesRun++
		if err != nil {
			runErr = err
			cerr := &CallbackError{
				ChainID:   id,
				EventType: evt.Type(),
				Stage:     i,
				Err:       err,
			}
			observability.LogStageError(e.logger, id, runID, i, err)
			e.metrics.RecordStageError(ctx, id)
			e.journalAppend(journal.Entry{
				Kind:    journal.KindStageError,
				ChainID: id,
				Stage:   i,
				Detail:  err.Error(),
			})
			e.reportError(cerr)
			break
		}
		if !cont {
			break
		}
		data = next
	}

	duration := time.Since(start)
	e.metrics.RecordChainRun(ctx, id, runErr == nil, duration)
	if e.tracingEnabled {
		e.spans.EndSpanWithError(span, runErr)
	}
	if runErr == nil {
		observability.LogChainRunComplete(e.logger, id, runID, stagesRun, float64(duration.Milliseconds()))
	}
}

// runStage invokes one stage, converting panics into PanicError.
func runStage(ctx context.Context, stage Stage, evt Event, data any) (next any, cont bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			next, cont = nil, false
			err = &PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()
	return stage(ctx, evt, data)
}
