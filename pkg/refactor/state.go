// Package refactor holds a refactoring session: the tree being edited, the
// parser used for patterns, marks, a semantic resolver and the registry of
// named commands. Every top-level operation runs through Transform, which
// traces, times and logs it.
package refactor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/refactor/internal/observability"
	"github.com/Sumatoshi-tech/refactor/pkg/cfgattr"
	"github.com/Sumatoshi-tech/refactor/pkg/rustparse"
	"github.com/Sumatoshi-tech/refactor/pkg/syntax"
)

// Sentinel errors.
var (
	ErrNoParser   = errors.New("refactor: parser is required")
	ErrNoFile     = errors.New("refactor: file is required")
	ErrNoSnapshot = errors.New("refactor: no saved snapshot")
)

const spanCommand = "refactor.command"

// Config configures a State.
type Config struct {
	Parser   *rustparse.Parser
	Resolver Resolver // When nil, facts are inferred from the file.
	Registry *Registry
	CfgAttr  cfgattr.Config
	Logger   *slog.Logger // When nil, a discard logger is used.
	Tracer   trace.Tracer
	Metrics  *observability.OpMetrics
}

// State is one refactoring session over a single file. It is not safe for
// concurrent use.
type State struct {
	cfg      Config
	file     *syntax.File
	snapshot *syntax.File
	marks    *Marks
	resolver Resolver
}

// NewState starts a session on file.
func NewState(file *syntax.File, cfg Config) (*State, error) {
	if cfg.Parser == nil {
		return nil, ErrNoParser
	}

	if file == nil {
		return nil, ErrNoFile
	}

	if cfg.Registry == nil {
		cfg.Registry = DefaultRegistry()
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if cfg.Tracer == nil {
		cfg.Tracer = nooptrace.NewTracerProvider().Tracer("refactor")
	}

	if cfg.CfgAttr.Logger == nil {
		cfg.CfgAttr.Logger = cfg.Logger
	}

	return &State{cfg: cfg, file: file, marks: NewMarks(), resolver: cfg.Resolver}, nil
}

// File returns the tree being edited.
func (s *State) File() *syntax.File { return s.file }

// Parser returns the pattern parser.
func (s *State) Parser() *rustparse.Parser { return s.cfg.Parser }

// Marks returns the session marks.
func (s *State) Marks() *Marks { return s.marks }

// Registry returns the command registry.
func (s *State) Registry() *Registry { return s.cfg.Registry }

// Logger returns the session logger.
func (s *State) Logger() *slog.Logger { return s.cfg.Logger }

// Tracer returns the session tracer.
func (s *State) Tracer() trace.Tracer { return s.cfg.Tracer }

// CfgAttr returns the attribute preservation settings.
func (s *State) CfgAttr() cfgattr.Config { return s.cfg.CfgAttr }

// Resolver returns the configured resolver. Without one, facts are
// inferred from the current file on first use and after LoadCrate.
func (s *State) Resolver() Resolver {
	if s.resolver == nil {
		s.resolver = InferFacts(s.file)
	}

	return s.resolver
}

// SaveCrate stores a deep copy of the current tree. Node identities are
// kept so marks stay valid after LoadCrate.
func (s *State) SaveCrate() {
	s.snapshot = syntax.DuplicateFile(s.file)
}

// LoadCrate replaces the tree with the last saved snapshot. The snapshot
// remains available for further loads.
func (s *State) LoadCrate() error {
	if s.snapshot == nil {
		return ErrNoSnapshot
	}

	s.file = syntax.DuplicateFile(s.snapshot)

	if s.cfg.Resolver == nil {
		s.resolver = nil
	}

	return nil
}

// Transform runs fn as the top-level operation op. fn returns the number
// of nodes it replaced.
func (s *State) Transform(ctx context.Context, op string, fn func(ctx context.Context) (int, error)) (int, error) {
	ctx, span := s.cfg.Tracer.Start(ctx, spanCommand, trace.WithAttributes(attribute.String("command.name", op)))
	defer span.End()

	defer s.cfg.Metrics.TrackInflight(ctx, op)()

	start := time.Now()
	n, err := fn(ctx)
	elapsed := time.Since(start)

	s.cfg.Metrics.RecordOperation(ctx, op, observability.Status(err), elapsed)
	s.cfg.Metrics.RecordRewrites(ctx, op, n)
	span.SetAttributes(attribute.Int("rewrites", n))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.cfg.Logger.ErrorContext(ctx, "operation failed", "op", op, "error", err)

		return n, fmt.Errorf("%s: %w", op, err)
	}

	s.cfg.Logger.DebugContext(ctx, "operation finished", "op", op, "rewrites", n, "duration", elapsed)

	return n, nil
}

// Run executes the registered command name.
func (s *State) Run(ctx context.Context, name string, args []string) (int, error) {
	cmd, err := s.cfg.Registry.Lookup(name)
	if err != nil {
		return 0, err
	}

	return s.Transform(ctx, name, func(ctx context.Context) (int, error) {
		return cmd.Run(ctx, s, args)
	})
}

// Protect runs pass with conditional attributes saved before and restored
// after it, even when pass fails.
func (s *State) Protect(pass func() error) (cfgattr.RestoreReport, error) {
	report, err := cfgattr.Protect(s.file, s.cfg.CfgAttr, pass)
	if err != nil {
		return report, fmt.Errorf("protect: %w", err)
	}

	return report, nil
}
