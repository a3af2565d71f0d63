package treewire

import (
	"fmt"
	"log/slog"

	"github.com/randalmurphal/treewire/pkg/treewire/config"
	"github.com/randalmurphal/treewire/pkg/treewire/journal"
	"github.com/randalmurphal/treewire/pkg/treewire/observability"
)

// DefaultMarkerKey is the attribute-key prefix for attachment markers.
const DefaultMarkerKey = "data-treewire"

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithVisibilityObserver wires the external visibility service. The engine
// calls Observe/Unobserve as nodes gain and lose registrations; the host
// must route the service's notifications to Engine.VisibilityChanged.
//
// Without a visibility observer the engine cannot gate on visibility and
// treats every node as visible.
func WithVisibilityObserver(v VisibilityObserver) Option {
	return func(e *Engine) {
		e.visibility = v
	}
}

// WithMutationObserver wires the external mutation-detection service. The
// host must route its removal batches to Engine.NodesRemoved; use
// Engine.WatchSubtree to start observation.
func WithMutationObserver(m MutationObserver) Option {
	return func(e *Engine) {
		e.mutations = m
	}
}

// WithLogger enables structured logging. Without it the engine is silent.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
// Default: observability.NoopMetrics.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithTracing enables chain execution spans through the given span manager.
func WithTracing(sm observability.SpanManager) Option {
	return func(e *Engine) {
		e.spans = sm
		e.tracingEnabled = true
	}
}

// WithErrorHandler sets the error channel for isolated callback failures.
// Every CallbackError is delivered here instead of propagating. Without a
// handler, failures are logged through the engine logger.
func WithErrorHandler(fn func(error)) Option {
	return func(e *Engine) {
		e.onError = fn
	}
}

// WithMarkerKey overrides the attribute-key prefix used for attachment
// markers. Default: DefaultMarkerKey.
func WithMarkerKey(key string) Option {
	return func(e *Engine) {
		if key != "" {
			e.markerKey = key
		}
	}
}

// WithJournal enables the lifecycle journal. Writes are best-effort:
// journal failures are logged and never affect lifecycle operations.
// The engine closes the store on Shutdown.
func WithJournal(store journal.Store) Option {
	return func(e *Engine) {
		e.journal = store
	}
}

// FromConfig builds engine options from host settings: the marker-key
// override, and a SQLite journal when Settings.JournalPath is set.
func FromConfig(s config.Settings) ([]Option, error) {
	var opts []Option

	if s.MarkerKey != "" {
		opts = append(opts, WithMarkerKey(s.MarkerKey))
	}

	if s.JournalPath != "" {
		store, err := journal.NewSQLiteStore(s.JournalPath)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		opts = append(opts, WithJournal(store))
	}

	return opts, nil
}

// ObserverOptionsFromConfig builds visibility-observer options from host
// settings. Unset fields fall back to DefaultObserverOptions.
func ObserverOptionsFromConfig(s config.Settings) ObserverOptions {
	o := DefaultObserverOptions
	if s.RootMargin != "" {
		o.RootMargin = s.RootMargin
	}
	if len(s.Thresholds) > 0 {
		o.Thresholds = s.Thresholds
	}
	return o
}

// RegisterOption configures one registration.
type RegisterOption func(*Registration)

// WithPredicate sets the activation predicate. The listener is physically
// attached only while the predicate returns true, and the predicate is
// re-checked on every dispatch. It is re-evaluated on demand, never
// cached; call Engine.Refresh after external state changes that flip it.
func WithPredicate(fn func() bool) RegisterOption {
	return func(r *Registration) {
		r.predicate = fn
	}
}

// WithAlwaysAttached waives the visibility requirement: the listener
// stays attached while its predicate holds, visible or not.
func WithAlwaysAttached() RegisterOption {
	return func(r *Registration) {
		r.alwaysAttached = true
	}
}

// withChainID marks a registration as a chain's executor.
func withChainID(id string) RegisterOption {
	return func(r *Registration) {
		r.chainID = id
	}
}
