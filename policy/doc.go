// Package policy holds the named thresholds that decide which verdicts are
// held for a human decision, who signs automatic approvals and how long a
// reviewer has to answer.
package policy
