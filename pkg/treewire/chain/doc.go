// Package chain stores ordered handler pipelines keyed by caller-supplied
// chain ids.
//
// A chain is a sequence of stages attached to one node/event pair. The
// engine installs a single physical listener for the chain and, on each
// triggering event, runs the stages in order against a data value that
// starts empty and is threaded from stage to stage. A stage can stop the
// pipeline by returning a false continue flag, or abort it by returning
// an error.
//
// Store only holds the stage lists; execution lives with the engine so
// that logging, metrics, and error reporting stay in one place.
//
// # Mutation Policy
//
// Stages returns a copy of the stage slice. The engine snapshots the
// stages once per trigger, so adding a stage while an execution is in
// flight affects the next trigger, never the current one.
package chain
