package engine

import (
	"log/slog"

	"github.com/viant/txshield/metrics"
	"github.com/viant/txshield/policy"
	"github.com/viant/txshield/service/evaluator"
	"github.com/viant/txshield/service/event"
	"github.com/viant/txshield/service/review"
)

type Option func(*Service)

// WithEvaluator sets the risk evaluator.
func WithEvaluator(ev evaluator.Evaluator) Option {
	return func(s *Service) { s.evaluator = ev }
}

// WithChannel sets the review channel prompts are sent on.
func WithChannel(channel review.Channel) Option {
	return func(s *Service) { s.channel = channel }
}

// WithPolicy sets the default review policy; a policy carried by the run
// context takes precedence.
func WithPolicy(p *policy.Policy) Option {
	return func(s *Service) { s.policy = p }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Service) { s.metrics = collector }
}

func WithEvents(events *event.Service) Option {
	return func(s *Service) { s.events = events }
}
