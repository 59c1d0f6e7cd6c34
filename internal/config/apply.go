package config

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/Sumatoshi-tech/refactor/internal/observability"
	"github.com/Sumatoshi-tech/refactor/pkg/cfgattr"
)

// applyNonEmpty sets *dst = value when value is non-empty.
func applyNonEmpty(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

// BuildConfig returns the build configuration for cfg evaluation. extra
// holds command line option specs (name or name=value) added on top of the
// configured flags and values.
func (c *Config) BuildConfig(extra ...string) cfgattr.BuildConfig {
	bc := cfgattr.NewBuildConfig(extra...)

	for _, flag := range c.Cfg.Flags {
		bc.Flags[flag] = true
	}

	for _, key := range slices.Sorted(maps.Keys(c.Cfg.Values)) {
		bc.Values[key] = append(bc.Values[key], c.Cfg.Values[key]...)
	}

	return bc
}

// CfgSpecs renders the configured flags and values, followed by extra, as
// option specs accepted by cfgattr.NewBuildConfig.
func (c *Config) CfgSpecs(extra ...string) []string {
	specs := slices.Clone(c.Cfg.Flags)

	for _, key := range slices.Sorted(maps.Keys(c.Cfg.Values)) {
		for _, v := range c.Cfg.Values[key] {
			specs = append(specs, fmt.Sprintf("%s=%q", key, v))
		}
	}

	return append(specs, extra...)
}

// CfgAttr returns the attribute preservation settings.
func (c *Config) CfgAttr(logger *slog.Logger) cfgattr.Config {
	return cfgattr.Config{Names: slices.Clone(c.Cfg.Names), Logger: logger}
}

// Observability returns the telemetry settings for observability.Init.
// Validate must have succeeded.
func (c *Config) Observability(version string, mode observability.AppMode) observability.Config {
	oc := observability.DefaultConfig()

	applyNonEmpty(&oc.ServiceVersion, version)
	applyNonEmpty(&oc.Environment, c.Telemetry.Environment)
	applyNonEmpty(&oc.OTLPEndpoint, c.Telemetry.OTLPEndpoint)

	if mode != "" {
		oc.Mode = mode
	}

	oc.OTLPHeaders = observability.ParseOTLPHeaders(c.Telemetry.OTLPHeaders)
	oc.OTLPInsecure = c.Telemetry.Insecure
	oc.SampleRatio = c.Telemetry.SampleRatio
	oc.TraceVerbose = c.Telemetry.TraceVerbose
	oc.LogJSON = c.Logging.JSON

	if lvl, err := c.LogLevel(); err == nil {
		oc.LogLevel = lvl
	}

	return oc
}
