package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/refactor/pkg/refactor"
	"github.com/Sumatoshi-tech/refactor/pkg/syntax"
)

const spanFiles = "refactor.cli.files"

// fileFunc transforms one session. Text written to out is emitted before
// the file itself.
type fileFunc func(ctx context.Context, st *refactor.State, out io.Writer) (int, error)

// fileResult is the outcome of one file.
type fileResult struct {
	Path     string
	Size     int
	Rewrites int
	Before   string
	After    string
	Output   string
	Err      error
	Skipped  bool
}

// Changed reports whether the printed tree differs after the run.
func (r *fileResult) Changed() bool { return r.Err == nil && r.Before != r.After }

// processFiles runs fn over every Rust file below paths, one session per
// file, with at most the configured number of files in flight. The first
// failure cancels files not yet started. Results are emitted in input
// order once all workers have finished.
func (a *app) processFiles(ctx context.Context, paths []string, op string, fn fileFunc) error {
	files, err := discover(paths)
	if err != nil {
		return err
	}

	ctx, span := a.tracer.Start(ctx, spanFiles, trace.WithAttributes(
		attribute.String("command.name", op),
		attribute.Int("files", len(files)),
	))
	defer span.End()

	results := make([]fileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers(len(files)))

	for i, path := range files {
		g.Go(func() error {
			results[i] = a.processFile(gctx, path, fn)

			return results[i].Err
		})
	}

	waitErr := g.Wait()
	if waitErr != nil {
		span.RecordError(waitErr)
		span.SetStatus(codes.Error, waitErr.Error())
	}

	emitErr := a.emit(results)

	if !a.flags.quiet {
		writeSummary(a.stderr, results)
	}

	return errors.Join(waitErr, emitErr)
}

func (a *app) workers(files int) int {
	n := a.cfg.Pipeline.Workers
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}

	return max(1, min(n, files))
}

func (a *app) processFile(ctx context.Context, path string, fn fileFunc) fileResult {
	res := fileResult{Path: path}

	if err := ctx.Err(); err != nil {
		res.Err, res.Skipped = err, true

		return res
	}

	src, err := os.ReadFile(path)
	if err != nil {
		res.Err = fmt.Errorf("read %s: %w", path, err)

		return res
	}

	res.Size = len(src)

	file, err := a.parser.ParseFile(ctx, src)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", path, err)

		return res
	}

	logger := a.logger.With("file", path)

	st, err := refactor.NewState(file, refactor.Config{
		Parser:  a.parser,
		CfgAttr: a.cfg.CfgAttr(logger),
		Logger:  logger,
		Tracer:  a.tracer,
		Metrics: a.metrics,
	})
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", path, err)

		return res
	}

	res.Before = syntax.PrintFile(st.File())

	var out bytes.Buffer

	res.Rewrites, err = fn(ctx, st, &out)
	res.Output = out.String()

	if err != nil {
		res.Err = fmt.Errorf("%s: %w", path, err)

		return res
	}

	res.After = syntax.PrintFile(st.File())

	return res
}
