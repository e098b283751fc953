package dispatcher

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/viant/txshield/service/review"
	"golang.org/x/sync/semaphore"
)

// errHalted refuses a prompt slot once a transport failure halted the batch.
var errHalted = errors.New("batch halted by transport failure")

// gate admits prompts: one global slot per pending prompt and, when
// serialising, one slot per reviewer. The reviewer slot is taken first so a
// reviewer waiting on itself never holds a global slot.
type gate struct {
	global    *semaphore.Weighted
	serialize bool

	mu        sync.Mutex
	reviewers map[string]*semaphore.Weighted
}

func newGate(maxPending int, serialize bool) *gate {
	if maxPending <= 0 {
		maxPending = DefaultConfig().MaxPendingPrompts
	}
	return &gate{
		global:    semaphore.NewWeighted(int64(maxPending)),
		serialize: serialize,
		reviewers: make(map[string]*semaphore.Weighted),
	}
}

func (g *gate) reviewerLock(reviewer string) *semaphore.Weighted {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock, ok := g.reviewers[reviewer]
	if !ok {
		lock = semaphore.NewWeighted(1)
		g.reviewers[reviewer] = lock
	}
	return lock
}

func (g *gate) Acquire(ctx context.Context, reviewer string) (func(), error) {
	var lock *semaphore.Weighted
	if g.serialize {
		lock = g.reviewerLock(reviewer)
		if err := lock.Acquire(ctx, 1); err != nil {
			return nil, err
		}
	}
	if err := g.global.Acquire(ctx, 1); err != nil {
		if lock != nil {
			lock.Release(1)
		}
		return nil, err
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.global.Release(1)
			if lock != nil {
				lock.Release(1)
			}
		})
	}, nil
}

// admission is the gate one session sees. The slot it takes is returned by
// the dispatcher only after the session outcome is recorded, so no waiter can
// reach the channel between a transport failure and the halt.
type admission struct {
	gate    review.Gate
	halted  context.Context
	release func()
}

func (a *admission) Acquire(ctx context.Context, reviewer string) (func(), error) {
	if a.halted.Err() != nil {
		return nil, errHalted
	}
	acquireCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(a.halted, cancel)
	defer stop()

	release, err := a.gate.Acquire(acquireCtx, reviewer)
	if err != nil {
		if ctx.Err() == nil && a.halted.Err() != nil {
			return nil, errHalted
		}
		return nil, err
	}
	if a.halted.Err() != nil {
		release()
		return nil, errHalted
	}
	a.release = release
	return func() {}, nil
}

func (a *admission) done() {
	if a.release != nil {
		a.release()
		a.release = nil
	}
}
