// Package config loads the refactor command line configuration from
// .refactor.yaml, REFACTOR_* environment variables and defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

// Output modes.
const (
	OutputPrint   = "print"
	OutputDiff    = "diff"
	OutputInPlace = "inplace"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

//nolint:gochecknoglobals // immutable lookup tables.
var (
	outputModes = []string{OutputPrint, OutputDiff, OutputInPlace}
	colorModes  = []string{ColorAuto, ColorAlways, ColorNever}
)

// Config is the top-level configuration struct for refactor.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Cfg       CfgConfig       `mapstructure:"cfg"`
	Script    ScriptConfig    `mapstructure:"script"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Output    OutputConfig    `mapstructure:"output"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// CfgConfig describes the build configuration used by cfg evaluation.
type CfgConfig struct {
	// Names lists the conditional attribute names to preserve.
	Names []string `mapstructure:"names"`
	// Flags are bare options such as unix or test.
	Flags []string `mapstructure:"flags"`
	// Values are key options such as target_os or feature.
	Values map[string][]string `mapstructure:"values"`
}

// ScriptConfig holds Lua script settings.
type ScriptConfig struct {
	// Paths are extra directories searched by require.
	Paths []string `mapstructure:"paths"`
}

// PipelineConfig holds file processing knobs.
type PipelineConfig struct {
	Workers int `mapstructure:"workers"`
	// SnippetCache bounds the parsed pattern cache. Zero disables it.
	SnippetCache int `mapstructure:"snippet_cache"`
}

// OutputConfig controls how rewritten files are emitted.
type OutputConfig struct {
	Mode  string `mapstructure:"mode"`
	Color string `mapstructure:"color"`
}

// TelemetryConfig holds tracing and metrics export settings.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	Insecure     bool    `mapstructure:"insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	TraceVerbose bool    `mapstructure:"trace_verbose"`
	Environment  string  `mapstructure:"environment"`
	MetricsFile  string  `mapstructure:"metrics_file"`
}

// sampleRatioMax is the upper bound for the trace sample ratio.
const sampleRatioMax = 1.0

// Sentinel errors for configuration validation.
var (
	// ErrInvalidLogLevel indicates the log level is not a slog level name.
	ErrInvalidLogLevel = errors.New("logging.level must be debug, info, warn or error")
	// ErrInvalidWorkers indicates the workers value is negative.
	ErrInvalidWorkers = errors.New("pipeline.workers must be non-negative")
	// ErrInvalidSnippetCache indicates the snippet cache size is negative.
	ErrInvalidSnippetCache = errors.New("pipeline.snippet_cache must be non-negative")
	// ErrInvalidOutputMode indicates an unknown output mode.
	ErrInvalidOutputMode = errors.New("output.mode must be print, diff or inplace")
	// ErrInvalidColor indicates an unknown color mode.
	ErrInvalidColor = errors.New("output.color must be auto, always or never")
	// ErrInvalidSampleRatio indicates the sample ratio is out of range.
	ErrInvalidSampleRatio = errors.New("telemetry.sample_ratio must be between 0 and 1")
	// ErrEmptyCfgName indicates a blank conditional attribute name.
	ErrEmptyCfgName = errors.New("cfg.names must not contain empty names")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if _, err := c.LogLevel(); err != nil {
		return err
	}

	if err := c.validateCfg(); err != nil {
		return err
	}

	if c.Pipeline.Workers < 0 {
		return ErrInvalidWorkers
	}

	if c.Pipeline.SnippetCache < 0 {
		return ErrInvalidSnippetCache
	}

	if err := c.validateOutput(); err != nil {
		return err
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > sampleRatioMax {
		return ErrInvalidSampleRatio
	}

	return nil
}

func (c *Config) validateCfg() error {
	if slices.Contains(c.Cfg.Names, "") {
		return ErrEmptyCfgName
	}

	return nil
}

func (c *Config) validateOutput() error {
	if c.Output.Mode != "" && !slices.Contains(outputModes, c.Output.Mode) {
		return fmt.Errorf("%w: got %q", ErrInvalidOutputMode, c.Output.Mode)
	}

	if c.Output.Color != "" && !slices.Contains(colorModes, c.Output.Color) {
		return fmt.Errorf("%w: got %q", ErrInvalidColor, c.Output.Color)
	}

	return nil
}

// LogLevel parses Logging.Level. An empty level is info.
func (c *Config) LogLevel() (slog.Level, error) {
	if c.Logging.Level == "" {
		return slog.LevelInfo, nil
	}

	var lvl slog.Level

	if err := lvl.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: got %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	return lvl, nil
}
