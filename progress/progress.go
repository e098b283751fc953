package progress

import (
	"context"
	"sync"
	"time"
)

// Delta represents an incremental counter change. Fields are signed.
type Delta struct {
	Total    int
	Approved int
	Rejected int
	Flagged  int
	Invalid  int
	Pending  int
	Running  int
}

// Counters is a point-in-time view of a batch.
type Counters struct {
	BatchID   string    `json:"batchId"`
	StartedAt time.Time `json:"startedAt"`

	Total    int `json:"total"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Flagged  int `json:"flagged"`
	Invalid  int `json:"invalid"`
	// Pending counts sessions suspended on a reviewer answer.
	Pending int `json:"pending"`
	// Running counts sessions started and not yet terminal.
	Running int `json:"running"`
}

// Done reports whether every counted transaction reached an outcome.
func (c Counters) Done() bool {
	return c.Approved+c.Rejected+c.Flagged+c.Invalid >= c.Total
}

// Progress keeps aggregated counters for one batch. It is safe for
// concurrent use.
type Progress struct {
	mu       sync.Mutex
	counters Counters
	onChange func(Counters)
}

// New creates a tracker for a batch.
func New(batchID string, onChange func(Counters)) *Progress {
	return &Progress{
		counters: Counters{BatchID: batchID, StartedAt: time.Now()},
		onChange: onChange,
	}
}

// Update applies the delta. The onChange callback runs outside the lock
// with a consistent copy.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.counters.Total += d.Total
	p.counters.Approved += d.Approved
	p.counters.Rejected += d.Rejected
	p.counters.Flagged += d.Flagged
	p.counters.Invalid += d.Invalid
	p.counters.Pending += d.Pending
	p.counters.Running += d.Running
	snapshot := p.counters
	cb := p.onChange
	p.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns the current counters.
func (p *Progress) Snapshot() Counters {
	if p == nil {
		return Counters{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counters
}

// OnChange replaces the change callback. Nil disables it.
func (p *Progress) OnChange(cb func(Counters)) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.onChange = cb
	p.mu.Unlock()
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithTracker embeds the tracker in a derived context.
func WithTracker(ctx context.Context, tr *Progress) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, trackerKey, tr)
}

// FromContext extracts the tracker from ctx.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Progress)
	return tr, ok && tr != nil
}

// UpdateCtx applies the delta to the tracker carried by ctx, if any.
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}
