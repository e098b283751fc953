package dispatcher

import (
	"time"

	"github.com/viant/txshield/model"
)

// DefaultReviewer answers every transaction type without a route.
const DefaultReviewer = "Security Analyst Smith"

// Config controls batch fan-out.
type Config struct {
	// MaxPendingPrompts bounds prompts outstanding at once across reviewers.
	MaxPendingPrompts int `json:"maxPendingPrompts,omitempty" yaml:"maxPendingPrompts,omitempty"`

	// SerializeByReviewer keeps at most one outstanding prompt per reviewer.
	SerializeByReviewer bool `json:"serializeByReviewer" yaml:"serializeByReviewer"`

	// MaxConcurrentSessions bounds running sessions; zero means unbounded.
	MaxConcurrentSessions int `json:"maxConcurrentSessions,omitempty" yaml:"maxConcurrentSessions,omitempty"`

	DefaultReviewer string `json:"defaultReviewer,omitempty" yaml:"defaultReviewer,omitempty"`

	// Routes maps a transaction type to its reviewer.
	Routes map[string]string `json:"routes,omitempty" yaml:"routes,omitempty"`

	// Deadline stops waiting for reviewers; unresolved sessions are reported
	// as pending. Zero waits indefinitely.
	Deadline time.Duration `json:"deadline,omitempty" yaml:"deadline,omitempty"`
}

// DefaultConfig returns three pending prompts, serialised per reviewer.
func DefaultConfig() Config {
	return Config{
		MaxPendingPrompts:   3,
		SerializeByReviewer: true,
		DefaultReviewer:     DefaultReviewer,
	}
}

// Reviewer returns the reviewer routed for transactionType.
func (c *Config) Reviewer(transactionType model.TransactionType) string {
	if reviewer, ok := c.Routes[string(transactionType)]; ok && reviewer != "" {
		return reviewer
	}
	if c.DefaultReviewer != "" {
		return c.DefaultReviewer
	}
	return DefaultReviewer
}
