package observability

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

const (
	attrTraceID = "trace_id"
	attrSpanID  = "span_id"
	attrService = "service"
	attrEnv     = "env"
	attrMode    = "mode"
	attrScript  = "script"
	attrRule    = "rule"
)

type scopeKey struct{}

// scope names the script and rule a record was logged under.
type scope struct {
	script string
	rule   string
}

func scopeFrom(ctx context.Context) scope {
	sc, _ := ctx.Value(scopeKey{}).(scope)

	return sc
}

// WithScript returns ctx tagged with the running script. Records logged
// with the returned context carry a script attribute.
func WithScript(ctx context.Context, name string) context.Context {
	sc := scopeFrom(ctx)
	sc.script = name

	return context.WithValue(ctx, scopeKey{}, sc)
}

// WithRule returns ctx tagged with the rewrite rule being applied.
func WithRule(ctx context.Context, name string) context.Context {
	sc := scopeFrom(ctx)
	sc.rule = name

	return context.WithValue(ctx, scopeKey{}, sc)
}

// TracingHandler is an [slog.Handler] that adds the active trace and span
// IDs, plus the script and rule in scope, to every record. Service metadata
// is attached once at construction and stays at the top level when groups
// are opened later.
type TracingHandler struct {
	inner slog.Handler
}

// NewTracingHandler wraps inner. env is omitted when empty.
func NewTracingHandler(inner slog.Handler, service, env string, appMode AppMode) *TracingHandler {
	attrs := []slog.Attr{
		slog.String(attrService, service),
		slog.String(attrMode, string(appMode)),
	}

	if env != "" {
		attrs = append(attrs, slog.String(attrEnv, env))
	}

	return &TracingHandler{
		inner: inner.WithAttrs(attrs),
	}
}

// Enabled delegates to the inner handler.
func (th *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return th.inner.Enabled(ctx, level)
}

// Handle adds trace_id and span_id when ctx carries a valid span, and the
// script and rule set with WithScript and WithRule.
func (th *TracingHandler) Handle(ctx context.Context, record slog.Record) error {
	sc := trace.SpanContextFromContext(ctx)
	if sc.IsValid() {
		record.AddAttrs(
			slog.String(attrTraceID, sc.TraceID().String()),
			slog.String(attrSpanID, sc.SpanID().String()),
		)
	}

	if s := scopeFrom(ctx); s != (scope{}) {
		if s.script != "" {
			record.AddAttrs(slog.String(attrScript, s.script))
		}

		if s.rule != "" {
			record.AddAttrs(slog.String(attrRule, s.rule))
		}
	}

	err := th.inner.Handle(ctx, record)
	if err != nil {
		return fmt.Errorf("tracing handler: %w", err)
	}

	return nil
}

// WithAttrs implements [slog.Handler].
func (th *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{
		inner: th.inner.WithAttrs(attrs),
	}
}

// WithGroup implements [slog.Handler].
func (th *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{
		inner: th.inner.WithGroup(name),
	}
}
