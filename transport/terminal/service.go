// Package terminal lets an operator answer review prompts on a console.
// Prompts are printed as they leave the engine and each answer line is
// delivered to the channel.
package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/viant/txshield/internal/clock"
	"github.com/viant/txshield/internal/logging"
	"github.com/viant/txshield/service/messaging"
	"github.com/viant/txshield/service/review"
)

// Service reads prompts from a channel and answers them from in.
type Service struct {
	channel  review.Channel
	in       io.Reader
	out      io.Writer
	logger   *slog.Logger
	interval time.Duration
}

// New returns a Service reading stdin and writing stdout.
func New(channel review.Channel, options ...Option) *Service {
	s := &Service{channel: channel, in: os.Stdin, out: os.Stdout, interval: 50 * time.Millisecond}
	for _, opt := range options {
		opt(s)
	}
	s.logger = logging.OrDefault(s.logger)
	return s
}

// Run serves prompts until ctx is done or the input is exhausted. Reaching
// the end of input is not an error.
func (s *Service) Run(ctx context.Context) error {
	lines := readLines(s.in)
	for {
		msg, err := messaging.Next(ctx, s.channel.Prompts(), s.interval)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		prompt := msg.T()
		if err = msg.Ack(); err != nil {
			s.logger.Warn("failed to ack prompt", "session_id", prompt.SessionID, "error", err)
		}
		if !s.outstanding(ctx, prompt.Key()) {
			continue
		}
		fmt.Fprintf(s.out, "\n%s ", strings.TrimSpace(prompt.Message))

		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(s.out)
			return nil
		}
		response := &review.Response{
			SessionID:  prompt.SessionID,
			Reviewer:   prompt.Reviewer,
			Text:       line,
			ReceivedAt: clock.Now(),
		}
		err = s.channel.Deliver(ctx, response)
		switch {
		case errors.Is(err, review.ErrUnmatchedResponse):
			fmt.Fprintln(s.out, "Answer ignored: the review already closed.")
		case err != nil:
			return err
		}
	}
}

func (s *Service) outstanding(ctx context.Context, key review.Key) bool {
	for _, candidate := range s.channel.Outstanding(ctx) {
		if candidate.Key() == key {
			return true
		}
	}
	return false
}

// readLines streams trimmed lines of in; the channel closes at EOF.
func readLines(in io.Reader) <-chan string {
	ret := make(chan string)
	go func() {
		defer close(ret)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			ret <- strings.TrimSpace(scanner.Text())
		}
	}()
	return ret
}
