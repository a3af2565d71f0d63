// Package observability provides structured logging, metrics, and tracing
// for the listener engine.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
// Every logging helper tolerates a nil logger.
package observability

import (
	"log/slog"
)

// EnrichLogger adds chain execution context to a logger.
// Returns a new logger with chain_id, run_id, and stage fields.
func EnrichLogger(logger *slog.Logger, chainID, runID string, stage int) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("chain_id", chainID),
		slog.String("run_id", runID),
		slog.Int("stage", stage),
	)
}

// LogAttach logs a physical listener attachment.
func LogAttach(logger *slog.Logger, handle, eventType string) {
	if logger == nil {
		return
	}
	logger.Debug("listener attached",
		slog.String("handle", handle),
		slog.String("event_type", eventType),
	)
}

// LogDetach logs a physical listener detachment.
func LogDetach(logger *slog.Logger, handle, eventType string) {
	if logger == nil {
		return
	}
	logger.Debug("listener detached",
		slog.String("handle", handle),
		slog.String("event_type", eventType),
	)
}

// LogAttachError logs a failure of the raw attach/detach primitive.
func LogAttachError(logger *slog.Logger, handle, op string, err error) {
	if logger == nil {
		return
	}
	logger.Error("attachment primitive failed",
		slog.String("handle", handle),
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
}

// LogCallbackError logs a failure raised by a user callback.
func LogCallbackError(logger *slog.Logger, handle, eventType string, err error) {
	if logger == nil {
		return
	}
	logger.Error("listener callback failed",
		slog.String("handle", handle),
		slog.String("event_type", eventType),
		slog.String("error", err.Error()),
	)
}

// LogSweep logs the removal sweep of a node.
func LogSweep(logger *slog.Logger, listeners int) {
	if logger == nil {
		return
	}
	logger.Debug("node swept",
		slog.Int("listeners_released", listeners),
	)
}

// LogCleanup logs an engine-wide cleanup.
func LogCleanup(logger *slog.Logger, nodes, listeners int) {
	if logger == nil {
		return
	}
	logger.Info("cleanup completed",
		slog.Int("nodes", nodes),
		slog.Int("listeners_released", listeners),
	)
}

// LogChainRunStart logs the start of a chain execution.
func LogChainRunStart(logger *slog.Logger, chainID, runID string, stages int) {
	if logger == nil {
		return
	}
	logger.Debug("chain run starting",
		slog.String("chain_id", chainID),
		slog.String("run_id", runID),
		slog.Int("stages", stages),
	)
}

// LogChainRunComplete logs a chain execution that ran to completion
// or stopped early via a stage's continue flag.
func LogChainRunComplete(logger *slog.Logger, chainID, runID string, stagesRun int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("chain run completed",
		slog.String("chain_id", chainID),
		slog.String("run_id", runID),
		slog.Int("stages_run", stagesRun),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogStageError logs a chain execution aborted by a failing stage.
func LogStageError(logger *slog.Logger, chainID, runID string, stage int, err error) {
	if logger == nil {
		return
	}
	logger.Error("chain stage failed",
		slog.String("chain_id", chainID),
		slog.String("run_id", runID),
		slog.Int("stage", stage),
		slog.String("error", err.Error()),
	)
}

// LogJournalError logs a best-effort journal write failure.
func LogJournalError(logger *slog.Logger, kind string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("journal write failed",
		slog.String("kind", kind),
		slog.String("error", err.Error()),
	)
}
