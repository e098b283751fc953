package model

import "github.com/cockroachdb/errors"

var (
	// ErrValidation marks malformed transaction or account input. Invalid
	// transactions never get a session.
	ErrValidation = errors.New("validation error")

	// ErrEvaluationFailed marks an evaluator that errored or produced an
	// unusable verdict. The session is routed to manual triage.
	ErrEvaluationFailed = errors.New("evaluation failed")

	// ErrReviewTimeout marks a prompt that received no response in time.
	ErrReviewTimeout = errors.New("review timeout")

	// ErrAmbiguousResponse marks a response text that is not a recognised
	// decision.
	ErrAmbiguousResponse = errors.New("ambiguous response")

	// ErrProtocolViolation marks a duplicate prompt for an outstanding pair
	// or a response without a matching prompt.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrTransport marks an unrecoverable channel transport failure.
	ErrTransport = errors.New("transport failure")
)

// NewValidationError wraps err and marks it as ErrValidation.
func NewValidationError(err error, format string, args ...interface{}) error {
	if err == nil {
		return errors.Mark(errors.Newf(format, args...), ErrValidation)
	}
	return errors.Mark(errors.Wrapf(err, format, args...), ErrValidation)
}

// NewEvaluationError wraps err and marks it as ErrEvaluationFailed.
func NewEvaluationError(err error, transactionID string) error {
	if err == nil {
		err = errors.New("no verdict")
	}
	return errors.Mark(errors.Wrapf(err, "failed to evaluate transaction %s", transactionID), ErrEvaluationFailed)
}

// NewTransportError wraps err and marks it as ErrTransport.
func NewTransportError(err error, operation string) error {
	return errors.Mark(errors.Wrapf(err, "transport %s", operation), ErrTransport)
}
