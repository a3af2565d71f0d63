// Package journal provides an optional append-only record of listener
// lifecycle transitions for post-mortem debugging.
//
// The engine writes an Entry whenever a listener is physically attached or
// detached, a node is swept after removal, or a chain stage fails. Journal
// writes are best-effort: a failing store is logged by the engine and never
// affects the lifecycle operation that produced the entry.
package journal

import (
	"errors"
	"time"
)

// Kind classifies a lifecycle transition.
type Kind string

// Entry kinds recorded by the engine.
const (
	KindAttach     Kind = "attach"
	KindDetach     Kind = "detach"
	KindSweep      Kind = "sweep"
	KindStageError Kind = "stage_error"
	KindCleanup    Kind = "cleanup"
)

// Entry is one recorded lifecycle transition.
type Entry struct {
	// Kind classifies the transition.
	Kind Kind
	// Handle is the registration handle involved, if any.
	Handle string
	// ChainID is the chain involved, if any.
	ChainID string
	// EventType is the event type of the registration, if any.
	EventType string
	// Stage is the failing stage index for KindStageError, -1 otherwise.
	Stage int
	// Detail carries free-form context (error text, sweep counts).
	Detail string
	// Timestamp is when the transition happened.
	Timestamp time.Time
}

// Store persists journal entries.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append records one entry.
	Append(e Entry) error

	// List returns the most recent entries, newest last, up to limit.
	// A limit <= 0 returns everything.
	List(limit int) ([]Entry, error)

	// CountByKind returns entry counts grouped by kind.
	CountByKind() (map[Kind]int, error)

	// Close releases any resources (connections, files).
	Close() error
}

// ErrStoreClosed indicates the store has been closed.
var ErrStoreClosed = errors.New("journal store closed")
