package log

import (
	"context"
	"io"
	"log/slog"
)

// PhaseKey is the attribute key added to records logged inside a phase.
const PhaseKey = "phase"

// phaseContextKey is the private context key carrying the phase name.
type phaseContextKey struct{}

// WithPhase returns a context tagging all records logged through a
// PhaseHandler with the given phase name.
func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, phaseContextKey{}, phase)
}

// PhaseFromContext returns the phase name carried by the context, or ""
// when outside any phase.
func PhaseFromContext(ctx context.Context) string {
	phase, _ := ctx.Value(phaseContextKey{}).(string)
	return phase
}

// PhaseHandler wraps an slog.Handler and stamps each record with the crawl
// phase found in the context.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Code below the orchestrator needs no logger plumbing; the context
//     it already carries is enough
type PhaseHandler struct {
	// handler is the underlying slog handler that receives tagged records.
	handler slog.Handler
}

// NewPhaseHandler creates a new PhaseHandler wrapping the given handler.
// If handler is nil, the returned PhaseHandler uses slog.Default().Handler().
func NewPhaseHandler(handler slog.Handler) *PhaseHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &PhaseHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *PhaseHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle adds the phase attribute from the context, if any, and passes the
// record to the underlying handler.
func (h *PhaseHandler) Handle(ctx context.Context, record slog.Record) error {
	if phase := PhaseFromContext(ctx); phase != "" {
		record = record.Clone()
		record.AddAttrs(slog.String(PhaseKey, phase))
	}
	return h.handler.Handle(ctx, record)
}

// WithAttrs returns a new PhaseHandler whose underlying handler has the
// given attributes.
func (h *PhaseHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &PhaseHandler{handler: h.handler.WithAttrs(attrs)}
}

// WithGroup returns a new PhaseHandler whose underlying handler has the
// given group.
func (h *PhaseHandler) WithGroup(name string) slog.Handler {
	return &PhaseHandler{handler: h.handler.WithGroup(name)}
}

// NewPhaseLogger creates a new slog.Logger that tags records with the
// active crawl phase.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Info
//
// Returns a *slog.Logger that can be used with slog.SetDefault() or passed
// to components that accept *slog.Logger.
func NewPhaseLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	textHandler := slog.NewTextHandler(w, opts)
	return slog.New(NewPhaseHandler(textHandler))
}

// NewPhaseJSONLogger creates a new slog.Logger with phase tagging that
// outputs JSON format. Useful for structured log aggregation.
func NewPhaseJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	jsonHandler := slog.NewJSONHandler(w, opts)
	return slog.New(NewPhaseHandler(jsonHandler))
}
