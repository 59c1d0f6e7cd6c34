package config_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/refactor/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		Logging:  config.LoggingConfig{Level: "debug"},
		Cfg:      config.CfgConfig{Names: []string{"cfg_attr"}},
		Pipeline: config.PipelineConfig{Workers: 4},
		Output:   config.OutputConfig{Mode: config.OutputDiff, Color: config.ColorNever},
		Telemetry: config.TelemetryConfig{
			SampleRatio: 0.5,
		},
	}
}

func TestValidate_ValidConfig_NoError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidate_ZeroConfig_NoError(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}
	require.NoError(t, cfg.Validate())
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   error
	}{
		{name: "log level", mutate: func(c *config.Config) { c.Logging.Level = "loud" }, want: config.ErrInvalidLogLevel},
		{name: "empty cfg name", mutate: func(c *config.Config) { c.Cfg.Names = []string{"cfg_attr", ""} }, want: config.ErrEmptyCfgName},
		{name: "workers", mutate: func(c *config.Config) { c.Pipeline.Workers = -1 }, want: config.ErrInvalidWorkers},
		{name: "snippet cache", mutate: func(c *config.Config) { c.Pipeline.SnippetCache = -1 }, want: config.ErrInvalidSnippetCache},
		{name: "output mode", mutate: func(c *config.Config) { c.Output.Mode = "stdout" }, want: config.ErrInvalidOutputMode},
		{name: "color", mutate: func(c *config.Config) { c.Output.Color = "rainbow" }, want: config.ErrInvalidColor},
		{name: "ratio negative", mutate: func(c *config.Config) { c.Telemetry.SampleRatio = -0.1 }, want: config.ErrInvalidSampleRatio},
		{name: "ratio too high", mutate: func(c *config.Config) { c.Telemetry.SampleRatio = 1.1 }, want: config.ErrInvalidSampleRatio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}

func TestLogLevel(t *testing.T) {
	t.Parallel()

	cfg := validConfig()

	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	cfg.Logging.Level = ""
	lvl, err = cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)
}
