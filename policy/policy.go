package policy

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-set/v2"
	"github.com/viant/txshield/model"
)

const (
	// DefaultAutoApprover signs approvals granted without human review.
	DefaultAutoApprover = "auto-approval-system"

	// DefaultReviewTimeout bounds how long a session waits for a reviewer.
	DefaultReviewTimeout = 15 * time.Minute
)

// DefaultReviewLevels are the levels that always require a human decision.
// low and medium never do.
var DefaultReviewLevels = []model.RiskLevel{model.RiskLevelHigh, model.RiskLevelCritical}

// Policy represents the review settings applied to a session.
//
// A nil *Policy behaves like Default().
type Policy struct {
	ReviewLevels  *set.Set[model.RiskLevel]
	AutoApprover  string
	ReviewTimeout time.Duration
}

// Default returns the standard policy.
func Default() *Policy {
	return &Policy{
		ReviewLevels:  set.From(DefaultReviewLevels),
		AutoApprover:  DefaultAutoApprover,
		ReviewTimeout: DefaultReviewTimeout,
	}
}

// RequiresReview reports whether level must be held for a reviewer.
func (p *Policy) RequiresReview(level model.RiskLevel) bool {
	if p == nil || p.ReviewLevels == nil {
		p = Default()
	}
	return p.ReviewLevels.Contains(level)
}

// Approver returns the identity recorded on automatic approvals.
func (p *Policy) Approver() string {
	if p == nil || p.AutoApprover == "" {
		return DefaultAutoApprover
	}
	return p.AutoApprover
}

// Timeout returns the review deadline.
func (p *Policy) Timeout() time.Duration {
	if p == nil || p.ReviewTimeout <= 0 {
		return DefaultReviewTimeout
	}
	return p.ReviewTimeout
}

// ---------------------------------------------------------------------------
// Config <-> Policy converters
// ---------------------------------------------------------------------------

// Config represents the declarative, serialisable part of a Policy.
type Config struct {
	ReviewLevels  []string      `json:"reviewLevels,omitempty" yaml:"reviewLevels,omitempty"`
	AutoApprover  string        `json:"autoApprover,omitempty" yaml:"autoApprover,omitempty"`
	ReviewTimeout time.Duration `json:"reviewTimeout,omitempty" yaml:"reviewTimeout,omitempty"`
}

// Validate checks that every configured level is recognised. Low and medium
// can never be made review levels, and high/critical can never be dropped.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	levels := set.New[model.RiskLevel](len(c.ReviewLevels))
	for _, name := range c.ReviewLevels {
		level, err := model.ParseRiskLevel(name)
		if err != nil {
			return errors.Wrap(err, "policy.reviewLevels")
		}
		levels.Insert(level)
	}
	if len(c.ReviewLevels) > 0 && !levels.Equal(set.From(DefaultReviewLevels)) {
		return errors.Newf("policy.reviewLevels must be %v, got %v", DefaultReviewLevels, c.ReviewLevels)
	}
	if c.ReviewTimeout < 0 {
		return errors.New("policy.reviewTimeout must be >= 0")
	}
	return nil
}

// ToConfig converts a runtime Policy into a persistable Config.
func ToConfig(p *Policy) *Config {
	if p == nil {
		return nil
	}
	ret := &Config{AutoApprover: p.AutoApprover, ReviewTimeout: p.ReviewTimeout}
	if p.ReviewLevels != nil {
		for _, level := range model.RiskLevels {
			if p.ReviewLevels.Contains(level) {
				ret.ReviewLevels = append(ret.ReviewLevels, string(level))
			}
		}
	}
	return ret
}

// FromConfig converts a Config into a runtime Policy, filling defaults.
func FromConfig(c *Config) (*Policy, error) {
	ret := Default()
	if c == nil {
		return ret, nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.AutoApprover != "" {
		ret.AutoApprover = c.AutoApprover
	}
	if c.ReviewTimeout > 0 {
		ret.ReviewTimeout = c.ReviewTimeout
	}
	return ret, nil
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds policy in ctx; it overrides the engine's policy for
// sessions run with that context.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext extracts the policy embedded with WithPolicy, or nil.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}
