package txshield

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"github.com/viant/txshield/internal/logging"
	"github.com/viant/txshield/metrics"
	"github.com/viant/txshield/model"
	"github.com/viant/txshield/policy"
	"github.com/viant/txshield/runtime/session"
	"github.com/viant/txshield/service/dispatcher"
	"github.com/viant/txshield/service/engine"
	"github.com/viant/txshield/service/evaluator"
	"github.com/viant/txshield/service/evaluator/rules"
	"github.com/viant/txshield/service/event"
	"github.com/viant/txshield/service/messaging"
	"github.com/viant/txshield/service/messaging/fs"
	"github.com/viant/txshield/service/review"
	"github.com/viant/txshield/service/review/memory"
	"github.com/viant/txshield/tracing"
	"github.com/viant/txshield/transport/terminal"
	"github.com/viant/txshield/transport/webhook"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Version is reported as the tracing service version.
const Version = "0.1.0"

// Service wires the evaluator, review channel, engine and dispatcher.
type Service struct {
	config     *Config
	logger     *slog.Logger
	fs         afs.Service
	evaluator  evaluator.Evaluator
	registerer prometheus.Registerer
	exporter   sdktrace.SpanExporter
	onEvent    func(*event.Event[any])
	onProgress dispatcher.Option

	metrics    *metrics.Collector
	events     *event.Service
	channel    review.Channel
	engine     *engine.Service
	dispatcher *dispatcher.Service
}

// New builds a Service from DefaultConfig unless WithConfig is given.
func New(ctx context.Context, options ...Option) (*Service, error) {
	s := &Service{}
	for _, opt := range options {
		opt(s)
	}
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	if s.fs == nil {
		s.fs = afs.New()
	}
	if s.logger == nil {
		logger, err := logging.New(s.config.Logging, nil)
		if err != nil {
			return nil, err
		}
		s.logger = logger
	}
	if err := s.initTracing(); err != nil {
		return nil, err
	}
	var err error
	if s.config.Metrics.Enabled || s.registerer != nil {
		if s.registerer == nil {
			s.registerer = prometheus.DefaultRegisterer
		}
		if s.metrics, err = metrics.New(s.registerer); err != nil {
			return nil, errors.Wrap(err, "failed to register metrics")
		}
	}
	if err = s.initEvents(); err != nil {
		return nil, err
	}
	if err = s.initChannel(ctx); err != nil {
		return nil, err
	}
	reviewPolicy, err := policy.FromConfig(&s.config.Policy)
	if err != nil {
		return nil, err
	}
	if s.evaluator == nil {
		s.evaluator = s.newEvaluator()
	}
	s.engine, err = engine.New(
		engine.WithEvaluator(evaluator.WithRetry(s.evaluator, s.config.Evaluator.Retry, s.logger)),
		engine.WithChannel(s.channel),
		engine.WithPolicy(reviewPolicy),
		engine.WithLogger(s.logger),
		engine.WithMetrics(s.metrics),
		engine.WithEvents(s.events),
	)
	if err != nil {
		return nil, err
	}
	dispatcherOptions := []dispatcher.Option{dispatcher.WithConfig(s.config.Dispatcher), dispatcher.WithLogger(s.logger)}
	if s.onProgress != nil {
		dispatcherOptions = append(dispatcherOptions, s.onProgress)
	}
	s.dispatcher, err = dispatcher.New(s.engine, dispatcherOptions...)
	return s, err
}

func (s *Service) initTracing() error {
	cfg := s.config.Tracing
	switch {
	case s.exporter != nil:
		return tracing.InitWithExporter(cfg.ServiceName, cfg.ServiceVersion, s.exporter)
	case cfg.Enabled:
		return tracing.Init(cfg.ServiceName, cfg.ServiceVersion, cfg.OutputFile)
	}
	return nil
}

func (s *Service) initEvents() error {
	cfg := s.config.Events
	if !cfg.Enabled && s.onEvent == nil {
		return nil
	}
	vendor := cfg.Vendor
	if vendor == "" {
		vendor = messaging.VendorMemory
	}
	options := []event.Option{event.WithLogger(s.logger), event.WithFs(s.fs)}
	if vendor == messaging.VendorFs {
		options = append(options, event.WithFsQueueConfig(func(name string) fs.Config {
			return fs.DefaultConfig(url.Join(cfg.BaseURL, name))
		}))
	}
	events, err := event.New(vendor, options...)
	if err != nil {
		return err
	}
	if s.onEvent != nil {
		events.SetListener(s.onEvent)
	}
	s.events = events
	return nil
}

func (s *Service) initChannel(ctx context.Context) error {
	options := []memory.Option{
		memory.WithLogger(s.logger),
		memory.WithMetrics(s.metrics),
		memory.WithEvents(s.events),
	}
	if s.config.Messaging.Vendor == messaging.VendorFs {
		queueConfig := fs.DefaultConfig(url.Join(s.config.Messaging.BaseURL, "prompts"))
		if s.config.Messaging.MaxRetries > 0 {
			queueConfig.MaxRetries = s.config.Messaging.MaxRetries
		}
		queue, err := fs.NewQueue[review.Prompt](ctx, s.fs, queueConfig)
		if err != nil {
			return model.NewTransportError(err, "create prompt queue")
		}
		options = append(options, memory.WithPromptQueue(queue))
	}
	s.channel = memory.New(options...)
	return nil
}

func (s *Service) newEvaluator() evaluator.Evaluator {
	if s.config.Evaluator.Kind == EvaluatorPreset {
		return evaluator.Preset()
	}
	return rules.New(s.config.Evaluator.Rules)
}

// Review runs a batch of transactions for account and returns the ordered
// report. See dispatcher.Service.Run for error semantics.
func (s *Service) Review(ctx context.Context, transactions []*model.Transaction, account *model.Account) (*dispatcher.Result, error) {
	return s.dispatcher.Run(ctx, transactions, account)
}

// Channel returns the review channel reviewers answer through.
func (s *Service) Channel() review.Channel { return s.channel }

// Registry returns the live sessions of running batches.
func (s *Service) Registry() session.Registry { return s.dispatcher.Registry() }

// Config returns the effective configuration.
func (s *Service) Config() *Config { return s.config }

// Terminal returns a console transport over the review channel.
func (s *Service) Terminal(options ...terminal.Option) *terminal.Service {
	return terminal.New(s.channel, append([]terminal.Option{terminal.WithLogger(s.logger)}, options...)...)
}

// Webhook returns an HTTP transport over the review channel.
func (s *Service) Webhook(options ...webhook.Option) *webhook.Server {
	defaults := []webhook.Option{webhook.WithLogger(s.logger), webhook.WithRegistry(s.Registry())}
	return webhook.New(s.channel, append(defaults, options...)...)
}

// Close stops event listeners.
func (s *Service) Close() {
	if s.events != nil {
		s.events.Close()
	}
}
