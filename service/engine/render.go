package engine

import (
	"fmt"
	"strings"

	"github.com/viant/txshield/model"
)

const evaluationFailed = "EVALUATION FAILED"

// RenderPrompt builds the alert shown to reviewer. A nil verdict renders as
// a failed evaluation.
func RenderPrompt(transaction *model.Transaction, verdict *model.RiskVerdict, reviewer string) string {
	level := evaluationFailed
	var factors []string
	if verdict != nil {
		level = strings.ToUpper(string(verdict.Level))
		factors = verdict.Factors
	}
	factorText := "None identified"
	if len(factors) > 0 {
		factorText = strings.Join(factors, ", ")
	}
	paused := fmt.Sprintf("THIS TRANSACTION HAS BEEN AUTOMATICALLY PAUSED DUE TO ITS %s RISK LEVEL.", level)
	if verdict == nil {
		paused = "THIS TRANSACTION HAS BEEN PAUSED BECAUSE ITS RISK COULD NOT BE EVALUATED."
	}

	var b strings.Builder
	b.WriteString("TRANSACTION SECURITY ALERT\n\n")
	fmt.Fprintf(&b, "Transaction ID: %s\n", transaction.ID)
	fmt.Fprintf(&b, "Type: %s\n", transaction.Type)
	fmt.Fprintf(&b, "Amount: %s %s\n", model.FormatAmount(transaction.Amount, transaction.Currency), transaction.Currency)
	fmt.Fprintf(&b, "Recipient: %s\n\n", transaction.Recipient)
	fmt.Fprintf(&b, "RISK ASSESSMENT: %s\n\n", level)
	fmt.Fprintf(&b, "RISK FACTORS:\n%s\n\n", factorText)
	fmt.Fprintf(&b, "%s\n\n", paused)
	fmt.Fprintf(&b, "%s, do you authorize this transaction to proceed? (yes/no/investigate):", reviewer)
	return b.String()
}
