package review

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Decision is a reviewer's answer after normalisation.
type Decision string

const (
	DecisionApprove     Decision = "yes"
	DecisionReject      Decision = "no"
	DecisionInvestigate Decision = "investigate"
	DecisionAmbiguous   Decision = ""
)

// ParseDecision normalises text (NFKC, trimmed, lower-cased) and maps it to
// a decision. Anything but an exact keyword is ambiguous.
func ParseDecision(text string) Decision {
	normalized := strings.ToLower(strings.TrimSpace(norm.NFKC.String(text)))
	switch Decision(normalized) {
	case DecisionApprove, DecisionReject, DecisionInvestigate:
		return Decision(normalized)
	}
	return DecisionAmbiguous
}
