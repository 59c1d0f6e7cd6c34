package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/refactor/internal/config"
	"github.com/Sumatoshi-tech/refactor/internal/observability"
	"github.com/Sumatoshi-tech/refactor/pkg/rustparse"
	"github.com/Sumatoshi-tech/refactor/pkg/version"
)

// annotationSkipSetup marks commands that need neither configuration nor
// telemetry.
const annotationSkipSetup = "refactor/skip-setup"

// globalFlags are the persistent flags. Flags the user set override the
// configuration file.
type globalFlags struct {
	configPath  string
	verbose     bool
	quiet       bool
	logJSON     bool
	output      string
	color       string
	workers     int
	metricsFile string
	cfg         []string
}

func (f *globalFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()

	pf.StringVar(&f.configPath, "config", "", "config file (default: .refactor.yaml in the current or home directory)")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")
	pf.BoolVarP(&f.quiet, "quiet", "q", false, "suppress the summary table")
	pf.BoolVar(&f.logJSON, "log-json", false, "log in JSON")
	pf.StringVarP(&f.output, "output", "o", config.DefaultOutputMode, "output mode (print, diff, inplace)")
	pf.StringVar(&f.color, "color", config.DefaultOutputColor, "colorize diffs (auto, always, never)")
	pf.IntVarP(&f.workers, "workers", "j", config.DefaultPipelineWorkers, "files processed in parallel (0 = one per CPU)")
	pf.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")
	pf.StringArrayVar(&f.cfg, "cfg", nil, "build option for cfg evaluation, NAME or NAME=VALUE (repeatable)")
}

func (f *globalFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("verbose") && f.verbose {
		cfg.Logging.Level = "debug"
	}

	if flags.Changed("log-json") {
		cfg.Logging.JSON = f.logJSON
	}

	if flags.Changed("output") {
		cfg.Output.Mode = f.output
	}

	if flags.Changed("color") {
		cfg.Output.Color = f.color
	}

	if flags.Changed("workers") {
		cfg.Pipeline.Workers = f.workers
	}

	if flags.Changed("metrics-file") {
		cfg.Telemetry.MetricsFile = f.metricsFile
	}
}

// app carries what every file-processing command shares.
type app struct {
	stdout io.Writer
	stderr io.Writer
	flags  globalFlags

	cfg      *config.Config
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *observability.OpMetrics
	parser   *rustparse.Parser
	shutdown func(ctx context.Context) error
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout: stdout,
		stderr: stderr,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	if cmd.Annotations[annotationSkipSetup] != "" {
		return nil
	}

	cfg, err := config.LoadConfig(a.flags.configPath)
	if err != nil {
		return err
	}

	a.flags.apply(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate flags: %w", err)
	}

	mode := observability.ModeCLI
	if cmd.Name() == scriptCommandName {
		mode = observability.ModeScript
	}

	providers, err := observability.Init(cfg.Observability(version.Version, mode), cfg.Telemetry.MetricsFile)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	a.shutdown = providers.Shutdown

	metrics, err := observability.NewOpMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("create metrics: %w", err)
	}

	var parserOpts []rustparse.Option
	if cfg.Pipeline.SnippetCache > 0 {
		parserOpts = append(parserOpts, rustparse.WithSnippetCache(cfg.Pipeline.SnippetCache))
	}

	parser, err := rustparse.NewParser(parserOpts...)
	if err != nil {
		return fmt.Errorf("create parser: %w", err)
	}

	a.cfg = cfg
	a.tracer = providers.Tracer
	a.metrics = metrics
	a.parser = parser
	a.logger = providers.Logger.With("run_id", uuid.NewString(), "command", cmd.Name())

	applyColor(cfg.Output.Color)

	return nil
}

// close flushes telemetry and writes the metrics file.
func (a *app) close() error {
	if a.shutdown == nil {
		return nil
	}

	if a.parser != nil && a.logger != nil {
		if stats, ok := a.parser.SnippetStats(); ok {
			a.logger.Debug("snippet cache",
				"hits", stats.Hits, "misses", stats.Misses, "evictions", stats.Evictions,
				"hit_rate", stats.HitRate())
		}
	}

	if err := a.shutdown(context.Background()); err != nil {
		return fmt.Errorf("shutdown telemetry: %w", err)
	}

	return nil
}

func applyColor(mode string) {
	switch mode {
	case config.ColorAlways:
		color.NoColor = false //nolint:reassign // intentional override of library global
	case config.ColorNever:
		color.NoColor = true //nolint:reassign // intentional override of library global
	}
}
