package evaluator

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/viant/txshield/model"
)

var presetExplanations = map[model.RiskLevel]string{
	model.RiskLevelLow:      "Amount, recipient and location match the account's usual activity.",
	model.RiskLevelMedium:   "One indicator departs from the account's usual activity.",
	model.RiskLevelHigh:     "Several indicators depart from the account's usual activity.",
	model.RiskLevelCritical: "Most indicators depart from the account's usual activity.",
}

// Preset returns the level and factors already carried by the input
// transaction. Transactions without a preset level fail evaluation.
func Preset() Evaluator {
	return Func(func(_ context.Context, transaction *model.Transaction, _ *model.Account) (*model.RiskVerdict, error) {
		verdict, ok := transaction.PresetVerdict()
		if !ok {
			return nil, Permanent(errors.Newf("transaction %s carries no preset risk level", transaction.ID))
		}
		verdict.Explanation = presetExplanations[verdict.Level]
		return verdict, nil
	})
}
