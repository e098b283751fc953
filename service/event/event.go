package event

import "time"

// Type identifies a session lifecycle event.
type Type string

const (
	TypeSessionCreated  Type = "session.created"
	TypeSessionAssessed Type = "session.assessed"
	TypePromptSent      Type = "prompt.sent"
	TypePromptRetracted Type = "prompt.retracted"
	TypeResponseAnomaly Type = "response.anomaly"
	TypeSessionResolved Type = "session.resolved"
)

// Context identifies where an event originated.
type Context struct {
	SessionID     string `json:"sessionId"`
	TransactionID string `json:"transactionId,omitempty"`
	Reviewer      string `json:"reviewer,omitempty"`
	EventType     Type   `json:"eventType"`
	Service       string `json:"service"`
	Method        string `json:"method,omitempty"`
	TimeTakenMs   int    `json:"timeTakenMs,omitempty"`
}

// Event is a single audit record.
type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Data      T                      `json:"data"`
}

// Session is the audit payload for lifecycle events.
type Session struct {
	State     string   `json:"state"`
	RiskLevel string   `json:"riskLevel,omitempty"`
	Factors   []string `json:"factors,omitempty"`
	Status    string   `json:"status,omitempty"`
	Reason    string   `json:"reason,omitempty"`
	Approver  string   `json:"approver,omitempty"`
	Detail    string   `json:"detail,omitempty"`
}

func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: time.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}
