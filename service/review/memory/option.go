package memory

import (
	"log/slog"
	"time"

	"github.com/viant/txshield/metrics"
	"github.com/viant/txshield/service/event"
	"github.com/viant/txshield/service/messaging"
	"github.com/viant/txshield/service/review"
)

type Option func(*service)

// WithPromptQueue sets the outbound queue prompts are published on.
func WithPromptQueue(q messaging.Queue[review.Prompt]) Option {
	return func(s *service) { s.prompts = q }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *service) { s.logger = logger }
}

func WithMetrics(collector *metrics.Collector) Option {
	return func(s *service) { s.metrics = collector }
}

// WithEvents publishes prompt and anomaly audit records.
func WithEvents(events *event.Service) Option {
	return func(s *service) { s.events = events }
}

// WithTombstones sizes the memory of recently resolved keys used to tell a
// late response from one that never matched anything.
func WithTombstones(size int, ttl time.Duration) Option {
	return func(s *service) {
		s.tombstoneSize = size
		s.tombstoneTTL = ttl
	}
}
