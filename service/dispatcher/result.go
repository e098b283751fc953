package dispatcher

import (
	"github.com/viant/txshield/model"
	"github.com/viant/txshield/progress"
	"github.com/viant/txshield/runtime/session"
)

// Invalid describes a transaction rejected at intake.
type Invalid struct {
	Index         int    `json:"index"`
	TransactionID string `json:"transactionId,omitempty"`
	Error         string `json:"error"`
}

// Unresolved identifies a session that did not reach a terminal state.
type Unresolved struct {
	SessionID     string        `json:"sessionId"`
	TransactionID string        `json:"transactionId"`
	Reviewer      string        `json:"reviewer"`
	State         session.State `json:"state"`
}

// Result is the outcome of one batch. Entries follow input order.
type Result struct {
	BatchID    string               `json:"batchId"`
	Entries    []*model.ReportEntry `json:"entries"`
	Invalid    []*Invalid           `json:"invalid,omitempty"`
	Pending    []*Unresolved        `json:"pending,omitempty"`
	NotStarted []*Unresolved        `json:"notStarted,omitempty"`
	// Halted carries the transport failure that stopped new sessions.
	Halted   error             `json:"-"`
	Progress progress.Counters `json:"progress"`
}

// Complete reports whether every valid transaction has a final entry.
func (r *Result) Complete() bool {
	return len(r.Pending) == 0 && len(r.NotStarted) == 0 && r.Halted == nil
}
