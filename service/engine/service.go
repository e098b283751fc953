// Package engine drives a review session from intake to its final
// disposition: assess, classify, prompt a reviewer when policy requires it,
// resume on the matching response and finalise.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/viant/txshield/internal/clock"
	"github.com/viant/txshield/internal/logging"
	"github.com/viant/txshield/metrics"
	"github.com/viant/txshield/model"
	"github.com/viant/txshield/policy"
	"github.com/viant/txshield/progress"
	"github.com/viant/txshield/runtime/session"
	"github.com/viant/txshield/service/evaluator"
	"github.com/viant/txshield/service/event"
	"github.com/viant/txshield/service/review"
	"github.com/viant/txshield/tracing"
)

// Service runs sessions. It is safe for concurrent use; each Run call owns
// its session.
type Service struct {
	evaluator evaluator.Evaluator
	channel   review.Channel
	policy    *policy.Policy
	logger    *slog.Logger
	metrics   *metrics.Collector
	events    *event.Service
}

// New creates an engine. An evaluator and a channel are required.
func New(options ...Option) (*Service, error) {
	s := &Service{policy: policy.Default()}
	for _, opt := range options {
		opt(s)
	}
	if s.evaluator == nil {
		return nil, errors.New("evaluator is required")
	}
	if s.channel == nil {
		return nil, errors.New("review channel is required")
	}
	if s.policy == nil {
		s.policy = policy.Default()
	}
	s.logger = logging.OrDefault(s.logger)
	return s, nil
}

// Channel returns the review channel the engine prompts on.
func (s *Service) Channel() review.Channel { return s.channel }

// Run drives sess to a terminal state. Evaluator failures, timeouts and
// unclear answers all end in a disposition and a nil error. A non-nil error
// means the session is left non-terminal: ctx was cancelled or the channel
// failed (model.ErrTransport).
func (s *Service) Run(ctx context.Context, sess *session.Session, gate review.Gate) (err error) {
	ctx, span := tracing.StartSpan(ctx, "engine.run", tracing.KindInternal)
	transaction := sess.Transaction()
	span.WithAttributes(map[string]string{
		"session.id":     sess.ID,
		"transaction.id": transaction.ID,
		"reviewer":       sess.Reviewer,
	})
	defer func() { tracing.EndSpan(span, err) }()

	logger := s.logger.With("session_id", sess.ID, "transaction_id", transaction.ID)
	p := policy.FromContext(ctx)
	if p == nil {
		p = s.policy
	}
	s.emit(ctx, sess, event.TypeSessionCreated, event.Session{})

	if err = sess.Transition(session.StateAssessing); err != nil {
		return err
	}
	verdict, evalErr := evaluator.Assess(ctx, s.evaluator, transaction, sess.Account())
	switch {
	case evalErr != nil:
		logger.Warn("risk evaluation failed, routing to manual triage", "error", evalErr)
		s.metrics.EvaluationFailed()
		if err = sess.FailEvaluation(evalErr); err != nil {
			return err
		}
		err = sess.Transition(session.StateManualTriage)
	case !p.RequiresReview(verdict.Level):
		if err = sess.Assess(verdict); err != nil {
			return err
		}
		err = sess.Transition(session.StateAutoApproved)
	default:
		if err = sess.Assess(verdict); err != nil {
			return err
		}
		err = sess.Transition(session.StatePendingReview)
	}
	if err != nil {
		return err
	}
	s.emit(ctx, sess, event.TypeSessionAssessed, event.Session{})

	if sess.State() == session.StateAutoApproved {
		return s.finalize(ctx, sess, model.NewApproval(p.Approver(), model.ReasonAutoApproved, clock.Now()))
	}
	disposition, err := s.review(ctx, sess, gate, p.Timeout())
	if err != nil {
		return err
	}
	return s.finalize(ctx, sess, disposition)
}

// review prompts the reviewer and maps the answer onto a disposition.
func (s *Service) review(ctx context.Context, sess *session.Session, gate review.Gate, timeout time.Duration) (*model.Disposition, error) {
	if gate == nil {
		gate = review.Unbounded
	}
	release, err := gate.Acquire(ctx, sess.Reviewer)
	if err != nil {
		return nil, err
	}
	defer release()

	sentAt := clock.Now()
	prompt := &review.Prompt{
		SessionID: sess.ID,
		Reviewer:  sess.Reviewer,
		Message:   RenderPrompt(sess.Transaction(), sess.Verdict(), sess.Reviewer),
		SentAt:    sentAt,
	}
	if timeout > 0 {
		prompt.ExpiresAt = sentAt.Add(timeout)
	}
	if err = s.channel.SendPrompt(ctx, prompt); err != nil {
		return nil, err
	}
	sess.SetPrompt(prompt)
	progress.UpdateCtx(ctx, progress.Delta{Pending: 1})
	response, err := s.channel.AwaitResponse(ctx, prompt.Key(), timeout)
	progress.UpdateCtx(ctx, progress.Delta{Pending: -1})
	sess.SetPrompt(nil)

	now := clock.Now()
	switch {
	case errors.Is(err, model.ErrReviewTimeout):
		s.logger.Warn("review timed out", "session_id", sess.ID, "reviewer", sess.Reviewer, "timeout", timeout)
		return model.NewRejection(sess.Reviewer, model.ReasonReviewTimeout, now), nil
	case err != nil:
		return nil, err
	}

	switch review.ParseDecision(response.Text) {
	case review.DecisionApprove:
		ret := model.NewApproval(sess.Reviewer, model.ReasonReviewerApproved, now)
		ret.Reviewer = sess.Reviewer
		return ret, nil
	case review.DecisionInvestigate:
		return model.NewInvestigation(sess.Reviewer, now), nil
	case review.DecisionReject:
		return model.NewRejection(sess.Reviewer, model.ReasonReviewerRejected, now), nil
	}
	s.logger.Warn("unclear reviewer answer treated as rejection",
		"session_id", sess.ID,
		"reviewer", sess.Reviewer,
		"error", errors.Wrapf(model.ErrAmbiguousResponse, "%q", response.Text))
	return model.NewRejection(sess.Reviewer, model.ReasonAmbiguousResponse, now), nil
}

func (s *Service) finalize(ctx context.Context, sess *session.Session, disposition *model.Disposition) error {
	if err := sess.Finalize(disposition); err != nil {
		return err
	}
	s.metrics.SessionResolved(string(disposition.Status), disposition.Reason)
	s.emit(ctx, sess, event.TypeSessionResolved, event.Session{
		Status:   string(disposition.Status),
		Reason:   disposition.Reason,
		Approver: disposition.Approver,
	})
	s.logger.Info("session resolved",
		"session_id", sess.ID,
		"transaction_id", sess.Transaction().ID,
		"status", disposition.Status,
		"reason", disposition.Reason)
	return nil
}

func (s *Service) emit(ctx context.Context, sess *session.Session, eventType event.Type, data event.Session) {
	if s.events == nil {
		return
	}
	data.State = string(sess.State())
	if verdict := sess.Verdict(); verdict != nil {
		data.RiskLevel = string(verdict.Level)
		data.Factors = verdict.Factors
	}
	s.events.Emit(ctx, &event.Context{
		SessionID:     sess.ID,
		TransactionID: sess.Transaction().ID,
		Reviewer:      sess.Reviewer,
		EventType:     eventType,
		Service:       "engine",
		Method:        "Run",
	}, data)
}
