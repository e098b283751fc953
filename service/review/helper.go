package review

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/viant/txshield/internal/clock"
	"github.com/viant/txshield/internal/logging"
	"github.com/viant/txshield/service/messaging"
)

// AnswerFunc produces a reviewer answer for a prompt.
type AnswerFunc func(p *Prompt) string

// Pump drains inbound responses into channel.Deliver until ctx is done.
// Every message is acked, dropped ones included, so nothing is replayed.
func Pump(ctx context.Context, channel Channel, responses messaging.Queue[Response], logger *slog.Logger) error {
	logger = logging.OrDefault(logger)
	for {
		msg, err := messaging.Next(ctx, responses, 0)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "failed to consume response")
		}
		response := msg.T()
		if response.ReceivedAt.IsZero() {
			response.ReceivedAt = clock.Now()
		}
		if err := channel.Deliver(ctx, response); err != nil {
			logger.Debug("response dropped", "session_id", response.SessionID, "reviewer", response.Reviewer, "error", err)
		}
		if err := msg.Ack(); err != nil {
			logger.Warn("failed to ack response", "session_id", response.SessionID, "error", err)
		}
	}
}

// AutoResponder consumes outbound prompts and answers each one with fn. It
// returns stop; cancelling ctx also stops it.
func AutoResponder(ctx context.Context, channel Channel, fn AnswerFunc, logger *slog.Logger) (stop func()) {
	logger = logging.OrDefault(logger)
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			msg, err := messaging.Next(ctx, channel.Prompts(), 10*time.Millisecond)
			if err != nil {
				return
			}
			prompt := msg.T()
			if err := msg.Ack(); err != nil {
				logger.Warn("failed to ack prompt", "session_id", prompt.SessionID, "error", err)
			}
			response := &Response{
				SessionID:  prompt.SessionID,
				Reviewer:   prompt.Reviewer,
				Text:       fn(prompt),
				ReceivedAt: clock.Now(),
			}
			if err := channel.Deliver(ctx, response); err != nil {
				logger.Warn("auto response dropped", "session_id", prompt.SessionID, "reviewer", prompt.Reviewer, "error", err)
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// Always answers every prompt with text.
func Always(text string) AnswerFunc {
	return func(*Prompt) string { return text }
}
