package terminal

import (
	"io"
	"log/slog"
	"time"
)

type Option func(s *Service)

// WithIO overrides the console streams.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(s *Service) {
		if in != nil {
			s.in = in
		}
		if out != nil {
			s.out = out
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithPollInterval sets how often polling prompt queues are checked.
func WithPollInterval(interval time.Duration) Option {
	return func(s *Service) { s.interval = interval }
}
