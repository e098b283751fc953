// Package dispatcher runs a batch of transactions through the engine, one
// session per transaction, and collects the ordered report.
package dispatcher

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/viant/txshield/internal/idgen"
	"github.com/viant/txshield/internal/logging"
	"github.com/viant/txshield/model"
	"github.com/viant/txshield/progress"
	"github.com/viant/txshield/runtime/session"
	"github.com/viant/txshield/service/review"
	"github.com/viant/txshield/tracing"
	"golang.org/x/sync/errgroup"
)

// Runner drives one session to completion; *engine.Service implements it.
type Runner interface {
	Run(ctx context.Context, sess *session.Session, gate review.Gate) error
}

// Service dispatches batches.
type Service struct {
	runner     Runner
	config     Config
	registry   session.Registry
	logger     *slog.Logger
	onProgress func(progress.Counters)
}

func New(runner Runner, options ...Option) (*Service, error) {
	if runner == nil {
		return nil, errors.New("runner is required")
	}
	s := &Service{runner: runner, config: DefaultConfig()}
	for _, opt := range options {
		opt(s)
	}
	if s.registry == nil {
		s.registry = session.NewRegistry()
	}
	s.logger = logging.OrDefault(s.logger)
	return s, nil
}

// Registry exposes live sessions of running batches.
func (s *Service) Registry() session.Registry { return s.registry }

// Run validates the batch and drives every valid transaction to a final
// disposition. An invalid account fails the whole batch. The returned error
// is non-nil only for an invalid account or a cancelled ctx; in the latter
// case the partial result is still returned.
func (s *Service) Run(ctx context.Context, transactions []*model.Transaction, account *model.Account) (result *Result, err error) {
	if account == nil {
		return nil, model.NewValidationError(nil, "account is required")
	}
	if err = account.Validate(); err != nil {
		return nil, err
	}
	result = &Result{BatchID: idgen.New()}
	ctx, span := tracing.StartSpan(ctx, "dispatcher.run", tracing.KindInternal)
	span.WithAttributes(map[string]string{"batch.id": result.BatchID, "account.id": account.ID})
	defer func() { tracing.EndSpan(span, err) }()

	tracker := progress.New(result.BatchID, s.onProgress)
	ctx = progress.WithTracker(ctx, tracker)
	logger := s.logger.With("batch_id", result.BatchID)

	var sessions []*session.Session
	for i, transaction := range transactions {
		if transaction == nil {
			result.Invalid = append(result.Invalid, &Invalid{Index: i, Error: "transaction is nil"})
			tracker.Update(progress.Delta{Total: 1, Invalid: 1})
			continue
		}
		if vErr := transaction.Validate(); vErr != nil {
			logger.Warn("invalid transaction skipped", "transaction_id", transaction.ID, "error", vErr)
			result.Invalid = append(result.Invalid, &Invalid{Index: i, TransactionID: transaction.ID, Error: vErr.Error()})
			tracker.Update(progress.Delta{Total: 1, Invalid: 1})
			continue
		}
		sess := session.New(transaction, account, s.config.Reviewer(transaction.Type))
		if err = s.registry.Save(ctx, sess); err != nil {
			return nil, errors.Wrapf(err, "failed to register session for %s", transaction.ID)
		}
		sessions = append(sessions, sess)
		tracker.Update(progress.Delta{Total: 1})
	}

	runCtx := ctx
	if s.config.Deadline > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.config.Deadline)
		defer cancel()
	}

	notStarted := s.dispatch(runCtx, logger, sessions, tracker, result)

	for _, sess := range sessions {
		unresolved := &Unresolved{SessionID: sess.ID, TransactionID: sess.Transaction().ID, Reviewer: sess.Reviewer, State: sess.State()}
		switch {
		case sess.State().IsTerminal():
			result.Entries = append(result.Entries, sess.Report())
		case notStarted[sess.ID]:
			result.NotStarted = append(result.NotStarted, unresolved)
		default:
			result.Pending = append(result.Pending, unresolved)
		}
		if dErr := s.registry.Delete(ctx, sess.ID); dErr != nil {
			logger.Warn("failed to release session", "session_id", sess.ID, "error", dErr)
		}
	}
	result.Progress = tracker.Snapshot()
	logger.Info("batch completed",
		"entries", len(result.Entries),
		"invalid", len(result.Invalid),
		"pending", len(result.Pending),
		"not_started", len(result.NotStarted))
	return result, ctx.Err()
}

// dispatch runs every session concurrently and returns the IDs of sessions
// never started, or never prompted, because a transport failure halted the
// batch.
func (s *Service) dispatch(ctx context.Context, logger *slog.Logger, sessions []*session.Session, tracker *progress.Progress, result *Result) map[string]bool {
	gate := newGate(s.config.MaxPendingPrompts, s.config.SerializeByReviewer)
	halted, halt := context.WithCancel(context.Background())
	defer halt()
	var (
		mu         sync.Mutex
		notStarted = make(map[string]bool)
		group      errgroup.Group
	)
	if s.config.MaxConcurrentSessions > 0 {
		group.SetLimit(s.config.MaxConcurrentSessions)
	}
	for _, sess := range sessions {
		group.Go(func() error {
			if halted.Err() != nil {
				mu.Lock()
				notStarted[sess.ID] = true
				mu.Unlock()
				return nil
			}

			slot := &admission{gate: gate, halted: halted}
			tracker.Update(progress.Delta{Running: 1})
			err := s.runner.Run(ctx, sess, slot)
			tracker.Update(terminalDelta(sess))
			switch {
			case errors.Is(err, errHalted):
				logger.Info("session not prompted, batch halted", "session_id", sess.ID)
				mu.Lock()
				notStarted[sess.ID] = true
				mu.Unlock()
			case errors.Is(err, model.ErrTransport):
				logger.Error("transport failure, halting new sessions", "session_id", sess.ID, "error", err)
				mu.Lock()
				if result.Halted == nil {
					result.Halted = err
				}
				mu.Unlock()
				halt()
			case err != nil && ctx.Err() == nil:
				logger.Error("session failed", "session_id", sess.ID, "error", err)
			case err != nil:
				logger.Warn("session left unresolved", "session_id", sess.ID, "state", sess.State(), "error", err)
			}
			slot.done()
			return nil
		})
	}
	_ = group.Wait()
	return notStarted
}

func terminalDelta(sess *session.Session) progress.Delta {
	ret := progress.Delta{Running: -1}
	switch sess.State() {
	case session.StateApproved:
		ret.Approved = 1
	case session.StateRejected:
		ret.Rejected = 1
	case session.StateFlaggedForInvestigation:
		ret.Flagged = 1
	}
	return ret
}
