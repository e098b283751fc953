package model

import "time"

// Status is the final outcome of a review.
type Status string

const (
	StatusApproved                Status = "Approved"
	StatusRejected                Status = "Rejected"
	StatusFlaggedForInvestigation Status = "FlaggedForInvestigation"
)

// IsTerminal reports whether s is one of the three final statuses.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusFlaggedForInvestigation:
		return true
	}
	return false
}

// Reason codes attached to dispositions.
const (
	ReasonAutoApproved           = "auto-approved"
	ReasonReviewerApproved       = "reviewer-approved"
	ReasonReviewerRejected       = "reviewer-rejected"
	ReasonInvestigationRequested = "investigation-requested"
	ReasonAmbiguousResponse      = "ambiguous-response"
	ReasonReviewTimeout          = "review-timeout"
)

// Disposition is the auditable outcome of a session. Approver and
// ApprovedAt are set only for approvals.
type Disposition struct {
	Status     Status     `json:"status"`
	Approved   bool       `json:"approved"`
	Approver   string     `json:"approver,omitempty"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty"`
	Reviewer   string     `json:"reviewer,omitempty"`
	Reason     string     `json:"reason"`
	DecidedAt  time.Time  `json:"decidedAt"`
}

// NewApproval returns an approved disposition.
func NewApproval(approver, reason string, at time.Time) *Disposition {
	ts := at
	return &Disposition{
		Status:     StatusApproved,
		Approved:   true,
		Approver:   approver,
		ApprovedAt: &ts,
		Reason:     reason,
		DecidedAt:  at,
	}
}

// NewRejection returns a rejected disposition.
func NewRejection(reviewer, reason string, at time.Time) *Disposition {
	return &Disposition{Status: StatusRejected, Reviewer: reviewer, Reason: reason, DecidedAt: at}
}

// NewInvestigation returns a flagged disposition; it is not an approval.
func NewInvestigation(reviewer string, at time.Time) *Disposition {
	return &Disposition{
		Status:    StatusFlaggedForInvestigation,
		Reviewer:  reviewer,
		Reason:    ReasonInvestigationRequested,
		DecidedAt: at,
	}
}
