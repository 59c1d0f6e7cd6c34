package config

// Logging defaults.
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false
)

// Conditional attribute defaults.
const (
	DefaultCfgAttrName = "cfg_attr"
)

// Pipeline defaults. Zero workers means one per CPU.
const (
	DefaultPipelineWorkers      = 0
	DefaultPipelineSnippetCache = 256
)

// Output defaults.
const (
	DefaultOutputMode  = OutputPrint
	DefaultOutputColor = "auto"
)

// Telemetry defaults.
const (
	DefaultTelemetrySampleRatio  = 1.0
	DefaultTelemetryInsecure     = false
	DefaultTelemetryTraceVerbose = false
	DefaultTelemetryEnvironment  = "dev"
)
