package dispatcher

import (
	"log/slog"

	"github.com/viant/txshield/progress"
	"github.com/viant/txshield/runtime/session"
)

type Option func(*Service)

func WithConfig(config Config) Option {
	return func(s *Service) { s.config = config }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithRegistry sets where live sessions are kept while a batch runs.
func WithRegistry(registry session.Registry) Option {
	return func(s *Service) { s.registry = registry }
}

// WithProgress registers a callback receiving counters after every change.
func WithProgress(fn func(progress.Counters)) Option {
	return func(s *Service) { s.onProgress = fn }
}
