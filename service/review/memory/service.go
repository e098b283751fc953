// Package memory provides the in-process review channel.
package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/viant/txshield/internal/clock"
	"github.com/viant/txshield/internal/logging"
	"github.com/viant/txshield/metrics"
	"github.com/viant/txshield/model"
	"github.com/viant/txshield/service/event"
	"github.com/viant/txshield/service/messaging"
	qmem "github.com/viant/txshield/service/messaging/memory"
	"github.com/viant/txshield/service/review"
	"github.com/viant/txshield/tracing"
)

const (
	defaultTombstoneSize = 1024
	defaultTombstoneTTL  = time.Hour

	tombstoneResolved  = "resolved"
	tombstoneRetracted = "retracted"
)

// slot holds one prompt until its session has taken the response. The
// channel is buffered so Deliver never waits for the awaiting session, and a
// response may land before AwaitResponse is called.
type slot struct {
	prompt    *review.Prompt
	responses chan *review.Response
	resolved  bool
}

type service struct {
	mu      sync.Mutex
	pending map[review.Key]*slot

	prompts       messaging.Queue[review.Prompt]
	tombstones    *expirable.LRU[review.Key, string]
	tombstoneSize int
	tombstoneTTL  time.Duration
	logger        *slog.Logger
	metrics       *metrics.Collector
	events        *event.Service
}

// New creates an in-memory review channel.
func New(options ...Option) review.Channel {
	ret := &service{
		pending:       make(map[review.Key]*slot),
		tombstoneSize: defaultTombstoneSize,
		tombstoneTTL:  defaultTombstoneTTL,
	}
	for _, option := range options {
		option(ret)
	}
	if ret.prompts == nil {
		config := qmem.DefaultConfig()
		config.DropWhenFull = true
		ret.prompts = qmem.NewQueue[review.Prompt](config)
	}
	ret.logger = logging.OrDefault(ret.logger)
	ret.tombstones = expirable.NewLRU[review.Key, string](ret.tombstoneSize, nil, ret.tombstoneTTL)
	return ret
}

func (s *service) SendPrompt(ctx context.Context, prompt *review.Prompt) error {
	if prompt == nil || prompt.SessionID == "" || prompt.Reviewer == "" {
		return errors.Mark(errors.New("prompt requires session id and reviewer"), model.ErrProtocolViolation)
	}
	ctx, span := tracing.StartSpan(ctx, "review.send_prompt", tracing.KindProducer)
	span.WithAttributes(map[string]string{"session.id": prompt.SessionID, "reviewer": prompt.Reviewer})

	key := prompt.Key()
	if prompt.SentAt.IsZero() {
		prompt.SentAt = clock.Now()
	}
	entry := &slot{prompt: prompt, responses: make(chan *review.Response, 1)}

	s.mu.Lock()
	if _, ok := s.pending[key]; ok {
		s.mu.Unlock()
		err := errors.Wrapf(review.ErrDuplicatePrompt, "%s", key)
		tracing.EndSpan(span, err)
		return err
	}
	s.pending[key] = entry
	s.tombstones.Remove(key)
	s.mu.Unlock()

	err := s.prompts.Publish(ctx, prompt)
	if errors.Is(err, qmem.ErrQueueFull) {
		// The prompt stays outstanding; consumers that fell behind can still
		// find it through Outstanding.
		s.logger.Warn("prompt queue full, notification dropped", "session_id", key.SessionID, "reviewer", key.Reviewer)
		err = nil
	}
	if err != nil {
		s.mu.Lock()
		if s.pending[key] == entry {
			delete(s.pending, key)
		}
		s.mu.Unlock()
		err = model.NewTransportError(err, "publish prompt")
		tracing.EndSpan(span, err)
		return err
	}
	s.metrics.PromptSent()
	s.events.Emit(ctx, &event.Context{
		SessionID: key.SessionID,
		Reviewer:  key.Reviewer,
		EventType: event.TypePromptSent,
		Service:   "review",
		Method:    "SendPrompt",
	}, event.Session{Detail: prompt.Message})
	tracing.EndSpan(span, nil)
	return nil
}

func (s *service) AwaitResponse(ctx context.Context, key review.Key, timeout time.Duration) (*review.Response, error) {
	s.mu.Lock()
	entry, ok := s.pending[key]
	s.mu.Unlock()
	if !ok {
		return nil, errors.Wrapf(review.ErrNotOutstanding, "%s", key)
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case response := <-entry.responses:
		s.release(key, entry)
		return response, nil
	case <-expired:
		if s.retract(ctx, key, entry, "timeout") {
			return nil, errors.Wrapf(model.ErrReviewTimeout, "%s: no response within %s", key, timeout)
		}
	case <-ctx.Done():
		if s.retract(ctx, key, entry, "cancelled") {
			return nil, ctx.Err()
		}
	}
	// Deliver won the race; its response is already buffered.
	response := <-entry.responses
	s.release(key, entry)
	return response, nil
}

func (s *service) release(key review.Key, entry *slot) {
	s.mu.Lock()
	if s.pending[key] == entry {
		delete(s.pending, key)
	}
	s.mu.Unlock()
}

func (s *service) Deliver(ctx context.Context, response *review.Response) error {
	if response == nil {
		return errors.Mark(errors.New("nil response"), model.ErrProtocolViolation)
	}
	key := response.Key()
	if response.ReceivedAt.IsZero() {
		response.ReceivedAt = clock.Now()
	}

	s.mu.Lock()
	entry, ok := s.pending[key]
	if ok && entry.resolved {
		ok = false
	} else if ok {
		entry.resolved = true
		s.tombstones.Add(key, tombstoneResolved)
	}
	s.mu.Unlock()

	if !ok {
		kind := review.AnomalyUnmatched
		if _, late := s.tombstones.Get(key); late {
			kind = review.AnomalyLate
		}
		s.logger.Warn("response anomaly",
			"session_id", key.SessionID,
			"reviewer", key.Reviewer,
			"kind", kind)
		s.metrics.Anomaly(kind)
		s.events.Emit(ctx, &event.Context{
			SessionID: key.SessionID,
			Reviewer:  key.Reviewer,
			EventType: event.TypeResponseAnomaly,
			Service:   "review",
			Method:    "Deliver",
		}, event.Session{Detail: kind})
		return errors.Wrapf(review.ErrUnmatchedResponse, "%s (%s)", key, kind)
	}

	entry.responses <- response
	s.metrics.PromptClosed()
	s.metrics.ObserveReviewLatency(response.ReceivedAt.Sub(entry.prompt.SentAt))
	return nil
}

func (s *service) Retract(ctx context.Context, key review.Key) bool {
	s.mu.Lock()
	entry, ok := s.pending[key]
	s.mu.Unlock()
	if !ok {
		return false
	}
	return s.retract(ctx, key, entry, "retracted")
}

// retract removes entry if it is still the unresolved slot for key.
func (s *service) retract(ctx context.Context, key review.Key, entry *slot, cause string) bool {
	s.mu.Lock()
	if s.pending[key] != entry || entry.resolved {
		s.mu.Unlock()
		return false
	}
	delete(s.pending, key)
	s.tombstones.Add(key, tombstoneRetracted)
	s.mu.Unlock()

	s.metrics.PromptClosed()
	s.logger.Info("prompt retracted", "session_id", key.SessionID, "reviewer", key.Reviewer, "cause", cause)
	s.events.Emit(context.WithoutCancel(ctx), &event.Context{
		SessionID: key.SessionID,
		Reviewer:  key.Reviewer,
		EventType: event.TypePromptRetracted,
		Service:   "review",
		Method:    "Retract",
	}, event.Session{Detail: cause})
	return true
}

func (s *service) Outstanding(_ context.Context) []*review.Prompt {
	s.mu.Lock()
	ret := make([]*review.Prompt, 0, len(s.pending))
	for _, entry := range s.pending {
		if entry.resolved {
			continue
		}
		prompt := *entry.prompt
		ret = append(ret, &prompt)
	}
	s.mu.Unlock()
	sort.Slice(ret, func(i, j int) bool {
		if !ret[i].SentAt.Equal(ret[j].SentAt) {
			return ret[i].SentAt.Before(ret[j].SentAt)
		}
		return ret[i].Key().String() < ret[j].Key().String()
	})
	return ret
}

func (s *service) Prompts() messaging.Queue[review.Prompt] { return s.prompts }

var _ review.Channel = (*service)(nil)
