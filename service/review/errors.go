package review

import (
	"github.com/cockroachdb/errors"
	"github.com/viant/txshield/model"
)

var (
	// ErrDuplicatePrompt is returned when a prompt is sent for a pair that is
	// already outstanding.
	ErrDuplicatePrompt = errors.Mark(errors.New("prompt already outstanding"), model.ErrProtocolViolation)

	// ErrUnmatchedResponse is returned when a response carries no outstanding key.
	ErrUnmatchedResponse = errors.Mark(errors.New("response matches no outstanding prompt"), model.ErrProtocolViolation)
)

// ErrNotOutstanding is returned when awaiting a key that was never sent or
// has already been resolved.
var ErrNotOutstanding = errors.Mark(errors.New("prompt not outstanding"), model.ErrProtocolViolation)
