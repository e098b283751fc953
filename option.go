package txshield

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/afs"
	"github.com/viant/txshield/progress"
	"github.com/viant/txshield/service/dispatcher"
	"github.com/viant/txshield/service/evaluator"
	"github.com/viant/txshield/service/event"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type Option func(s *Service)

// WithConfig sets the configuration; DefaultConfig is used otherwise.
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithLogger overrides the logger built from Config.Logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithFs sets the storage used for fs queues.
func WithFs(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}

// WithEvaluator replaces the configured evaluator. Retries still apply.
func WithEvaluator(ev evaluator.Evaluator) Option {
	return func(s *Service) { s.evaluator = ev }
}

// WithMetricsRegisterer registers collectors with reg instead of the
// default registry. It implies metrics are enabled.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(s *Service) { s.registerer = reg }
}

// WithEventListener consumes every session event. It implies events are
// enabled.
func WithEventListener(fn func(*event.Event[any])) Option {
	return func(s *Service) { s.onEvent = fn }
}

// WithProgress observes batch counters as sessions complete.
func WithProgress(fn func(progress.Counters)) Option {
	return func(s *Service) { s.onProgress = dispatcher.WithProgress(fn) }
}

// WithTracingExporter configures OpenTelemetry tracing using a custom
// SpanExporter. The first successful initialisation wins.
func WithTracingExporter(exporter sdktrace.SpanExporter) Option {
	return func(s *Service) { s.exporter = exporter }
}
