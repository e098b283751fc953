package review

import (
	"time"
)

// Key identifies one outstanding prompt.
type Key struct {
	SessionID string `json:"sessionId"`
	Reviewer  string `json:"reviewer"`
}

func (k Key) String() string {
	return k.SessionID + "/" + k.Reviewer
}

// Prompt is the message asking a reviewer for a decision.
type Prompt struct {
	SessionID string    `json:"sessionId"`
	Reviewer  string    `json:"reviewer"`
	Message   string    `json:"message"`
	SentAt    time.Time `json:"sentAt"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// Key returns the prompt's matching key.
func (p *Prompt) Key() Key {
	return Key{SessionID: p.SessionID, Reviewer: p.Reviewer}
}

// Response is a reviewer's free-text answer.
type Response struct {
	SessionID  string    `json:"sessionId" validate:"required"`
	Reviewer   string    `json:"reviewer" validate:"required"`
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"receivedAt,omitempty"`
}

// Key returns the response's matching key.
func (r *Response) Key() Key {
	return Key{SessionID: r.SessionID, Reviewer: r.Reviewer}
}

// Anomaly kinds reported for responses that resolve nothing.
const (
	AnomalyUnmatched = "unmatched"
	AnomalyLate      = "late"
)
