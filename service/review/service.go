package review

import (
	"context"
	"time"

	"github.com/viant/txshield/service/messaging"
)

// Channel carries prompts to reviewers and routes their responses back to
// the suspended session.
type Channel interface {
	// SendPrompt registers the prompt's key then publishes it. It does not wait.
	SendPrompt(ctx context.Context, prompt *Prompt) error

	// AwaitResponse suspends the caller until the matching response arrives,
	// timeout elapses or ctx is done. On timeout or cancellation the prompt
	// is retracted.
	AwaitResponse(ctx context.Context, key Key, timeout time.Duration) (*Response, error)

	// Deliver resolves the outstanding prompt the response matches.
	Deliver(ctx context.Context, response *Response) error

	// Retract removes an outstanding prompt; it reports whether one existed.
	Retract(ctx context.Context, key Key) bool

	// Outstanding lists prompts still waiting on a reviewer.
	Outstanding(ctx context.Context) []*Prompt

	// Prompts is the outbound queue transports consume.
	Prompts() messaging.Queue[Prompt]
}

// Gate bounds how many prompts may be outstanding. Acquire blocks until a
// slot for reviewer is free; the returned release must be called once.
type Gate interface {
	Acquire(ctx context.Context, reviewer string) (release func(), err error)
}

// GateFunc adapts a function to Gate.
type GateFunc func(ctx context.Context, reviewer string) (func(), error)

func (f GateFunc) Acquire(ctx context.Context, reviewer string) (func(), error) {
	return f(ctx, reviewer)
}

// Unbounded is a Gate that never blocks.
var Unbounded Gate = GateFunc(func(ctx context.Context, _ string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return func() {}, nil
})
