package webhook

import (
	"log/slog"

	"github.com/viant/txshield/runtime/session"
	"github.com/viant/txshield/service/review"
)

type Option func(s *Server)

// WithRegistry enables GET /v1/sessions.
func WithRegistry(registry session.Registry) Option {
	return func(s *Server) { s.registry = registry }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithNotify is called by Drain for every published prompt.
func WithNotify(fn func(*review.Prompt)) Option {
	return func(s *Server) { s.notify = fn }
}
