// Package session models one transaction's passage through the review
// workflow. A Session is mutated only by the engine; other components read
// it through the concurrency-safe accessors.
package session

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/viant/txshield/internal/clock"
	"github.com/viant/txshield/internal/idgen"
	"github.com/viant/txshield/model"
	"github.com/viant/txshield/service/review"
)

// Listener is invoked after every successful transition. It runs outside
// the session lock.
type Listener func(s *Session, from, to State)

// ErrIllegalTransition is returned for moves outside the state machine.
var ErrIllegalTransition = errors.New("illegal session transition")

// Session represents one transaction under review.
type Session struct {
	ID        string
	Reviewer  string
	CreatedAt time.Time

	transaction *model.Transaction
	account     *model.Account

	mu        sync.RWMutex
	state     State
	verdict   *model.RiskVerdict
	prompt    *review.Prompt
	evalErr   error
	history   []Transition
	listeners []Listener
	done      chan struct{}
}

// Transition is an entry of the session's audit history.
type Transition struct {
	From State     `json:"from"`
	To   State     `json:"to"`
	At   time.Time `json:"at"`
}

// New creates a session owning a copy of transaction.
func New(transaction *model.Transaction, account *model.Account, reviewer string) *Session {
	return &Session{
		ID:          idgen.New(),
		Reviewer:    reviewer,
		CreatedAt:   clock.Now(),
		transaction: transaction.Clone(),
		account:     account,
		state:       StateCreated,
		done:        make(chan struct{}),
	}
}

// RegisterListeners attaches transition callbacks.
func (s *Session) RegisterListeners(fn ...Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn...)
}

// Transaction returns the session's transaction. Callers must not mutate it.
func (s *Session) Transaction() *model.Transaction { return s.transaction }

// Account returns the read-only account context.
func (s *Session) Account() *model.Account { return s.account }

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Verdict returns a copy of the verdict, nil before assessment or after an
// evaluation failure.
func (s *Session) Verdict() *model.RiskVerdict {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.verdict.Clone()
}

// EvaluationError returns the evaluator failure that routed the session to
// manual triage.
func (s *Session) EvaluationError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.evalErr
}

// Prompt returns the outstanding prompt, if any.
func (s *Session) Prompt() *review.Prompt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.prompt == nil {
		return nil
	}
	ret := *s.prompt
	return &ret
}

// History returns a copy of the transitions so far.
func (s *Session) History() []Transition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Transition(nil), s.history...)
}

// Disposition returns a copy of the final disposition, nil until terminal.
func (s *Session) Disposition() *model.Disposition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.transaction.Disposition == nil {
		return nil
	}
	ret := *s.transaction.Disposition
	return &ret
}

// Done is closed once the session reaches a terminal state.
func (s *Session) Done() <-chan struct{} { return s.done }

// Report builds the final report line; it is only meaningful when terminal.
func (s *Session) Report() *model.ReportEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.NewReportEntry(s.ID, s.transaction)
}

// Transition moves the session to the next state.
func (s *Session) Transition(to State) error {
	if to.IsTerminal() {
		return errors.Wrapf(ErrIllegalTransition, "session %s: terminal state %s requires a disposition", s.ID, to)
	}
	s.mu.Lock()
	from := s.state
	if !CanTransition(from, to) {
		s.mu.Unlock()
		return errors.Wrapf(ErrIllegalTransition, "session %s: %s -> %s", s.ID, from, to)
	}
	s.state = to
	s.history = append(s.history, Transition{From: from, To: to, At: clock.Now()})
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(s, from, to)
	}
	return nil
}

// Assess records the verdict on the transaction. Allowed only while assessing.
func (s *Session) Assess(verdict *model.RiskVerdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAssessing {
		return errors.Newf("session %s: cannot assess in state %s", s.ID, s.state)
	}
	if err := s.transaction.Assess(verdict, clock.Now()); err != nil {
		return err
	}
	s.verdict = verdict.Clone()
	return nil
}

// FailEvaluation records the evaluator error. Allowed only while assessing.
func (s *Session) FailEvaluation(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAssessing {
		return errors.Newf("session %s: cannot record evaluation failure in state %s", s.ID, s.state)
	}
	s.evalErr = err
	return nil
}

// SetPrompt records or clears the outstanding prompt.
func (s *Session) SetPrompt(prompt *review.Prompt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompt = prompt
}

// Finalize records the disposition and moves to the matching terminal state.
func (s *Session) Finalize(d *model.Disposition) error {
	if d == nil {
		return errors.Newf("session %s: nil disposition", s.ID)
	}
	to := StateOf(d.Status)
	s.mu.Lock()
	from := s.state
	if !CanTransition(from, to) {
		s.mu.Unlock()
		return errors.Wrapf(ErrIllegalTransition, "session %s: %s -> %s", s.ID, from, to)
	}
	if err := s.transaction.Finalize(d); err != nil {
		s.mu.Unlock()
		return err
	}
	s.state = to
	s.prompt = nil
	s.history = append(s.history, Transition{From: from, To: to, At: clock.Now()})
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	close(s.done)
	for _, fn := range listeners {
		fn(s, from, to)
	}
	return nil
}
