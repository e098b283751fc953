package model

import (
	"github.com/guregu/null/v5"
)

// ReportEntry is one line of the final batch report.
type ReportEntry struct {
	SessionID     string          `json:"sessionId"`
	TransactionID string          `json:"transactionId"`
	Type          TransactionType `json:"type"`
	Status        Status          `json:"finalStatus"`
	Reason        string          `json:"reason"`
	RiskLevel     null.String     `json:"riskLevel"`
	Approver      null.String     `json:"approver"`
	ApprovalTime  null.Time       `json:"approvalTime"`
}

// NewReportEntry builds a report line from a finalized transaction.
func NewReportEntry(sessionID string, t *Transaction) *ReportEntry {
	ret := &ReportEntry{
		SessionID:     sessionID,
		TransactionID: t.ID,
		Type:          t.Type,
	}
	if t.Assessment != nil {
		ret.RiskLevel = null.StringFrom(string(t.Assessment.Level))
	}
	if d := t.Disposition; d != nil {
		ret.Status = d.Status
		ret.Reason = d.Reason
		ret.Approver = null.NewString(d.Approver, d.Approved && d.Approver != "")
		if d.ApprovedAt != nil {
			ret.ApprovalTime = null.TimeFrom(*d.ApprovedAt)
		}
	}
	return ret
}
