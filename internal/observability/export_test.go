package observability

import (
	"context"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// ResourceFor exposes buildResource.
func ResourceFor(cfg Config) (*resource.Resource, error) {
	return buildResource(cfg)
}

// TransformSampled reports whether a refactor.transform span started under
// the sampler resolved from cfg is exported.
func TransformSampled(cfg Config) bool {
	return len(ExportedSpans(cfg, "refactor", "refactor.transform")) > 0
}

// ExportedSpans starts one span per name on the named tracer, using the
// sampler resolved from cfg and the span filter Init installs for an OTLP
// endpoint, and returns the names that reached the exporter.
func ExportedSpans(cfg Config, tracer string, names ...string) []string {
	exporter := tracetest.NewInMemoryExporter()
	sdk := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(selectSampler(cfg)),
	)

	var tp trace.TracerProvider = sdk
	if !cfg.TraceVerbose {
		tp = NewFilteringTracerProvider(tp)
	}

	for _, name := range names {
		_, span := tp.Tracer(tracer).Start(context.Background(), name)
		span.End()
	}

	// Read before Shutdown, which clears the exporter.
	stubs := exporter.GetSpans()

	err := sdk.Shutdown(context.Background())
	if err != nil {
		return nil
	}

	out := make([]string, 0, len(stubs))
	for _, s := range stubs {
		out = append(out, s.Name)
	}

	return out
}
