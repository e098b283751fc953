// Package evaluator defines the pluggable risk scoring collaborator and the
// adapters the engine uses around it.
package evaluator

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/viant/txshield/model"
)

// Evaluator scores a transaction against its account. Implementations must
// not mutate their inputs and should return the same verdict for the same
// inputs.
type Evaluator interface {
	Evaluate(ctx context.Context, transaction *model.Transaction, account *model.Account) (*model.RiskVerdict, error)
}

// Func adapts a function to Evaluator.
type Func func(ctx context.Context, transaction *model.Transaction, account *model.Account) (*model.RiskVerdict, error)

func (f Func) Evaluate(ctx context.Context, transaction *model.Transaction, account *model.Account) (*model.RiskVerdict, error) {
	return f(ctx, transaction, account)
}

// Assess calls ev on a copy of transaction and checks the verdict. An error,
// a nil verdict or an unknown level all come back marked
// model.ErrEvaluationFailed; there is no fallback level.
func Assess(ctx context.Context, ev Evaluator, transaction *model.Transaction, account *model.Account) (*model.RiskVerdict, error) {
	if ev == nil {
		return nil, model.NewEvaluationError(errors.New("no evaluator configured"), transaction.ID)
	}
	verdict, err := ev.Evaluate(ctx, transaction.Clone(), account)
	if err != nil {
		return nil, model.NewEvaluationError(err, transaction.ID)
	}
	if verdict == nil {
		return nil, model.NewEvaluationError(nil, transaction.ID)
	}
	if err := verdict.Validate(); err != nil {
		return nil, model.NewEvaluationError(err, transaction.ID)
	}
	return verdict.Clone(), nil
}
