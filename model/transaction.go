package model

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

// TransactionType enumerates supported transaction kinds.
type TransactionType string

const (
	TransactionTypeDeposit          TransactionType = "deposit"
	TransactionTypeWithdrawal       TransactionType = "withdrawal"
	TransactionTypeTransfer         TransactionType = "transfer"
	TransactionTypePayment          TransactionType = "payment"
	TransactionTypeCurrencyExchange TransactionType = "currency_exchange"
	TransactionTypeWire             TransactionType = "wire"
)

// Transaction is a single financial transaction under review.
//
// Identity fields are immutable. Assessment and Disposition are written
// once each, by the engine, through Assess and Finalize. RiskLevel and
// RiskFactors are optional input presets used by fixture evaluators; they
// are never written by the engine.
type Transaction struct {
	ID               string          `json:"transactionId" validate:"required"`
	AccountID        string          `json:"accountId" validate:"required"`
	Type             TransactionType `json:"transactionType" validate:"required,oneof=deposit withdrawal transfer payment currency_exchange wire"`
	Amount           decimal.Decimal `json:"amount" validate:"gt=0"`
	Currency         string          `json:"currency" validate:"required,iso4217"`
	Recipient        string          `json:"recipient,omitempty"`
	RecipientAccount string          `json:"recipientAccount,omitempty"`
	Timestamp        time.Time       `json:"timestamp" validate:"required"`
	Location         string          `json:"location,omitempty"`
	IPAddress        string          `json:"ipAddress,omitempty" validate:"omitempty,ip"`
	DeviceID         string          `json:"deviceId,omitempty"`

	RiskLevel   *RiskLevel `json:"riskLevel,omitempty" validate:"omitempty,oneof=low medium high critical"`
	RiskFactors []string   `json:"riskFactors,omitempty"`

	Assessment  *Assessment  `json:"assessment,omitempty" validate:"-"`
	Disposition *Disposition `json:"disposition,omitempty" validate:"-"`
}

// Assessment records the verdict applied to a transaction.
type Assessment struct {
	Level       RiskLevel `json:"level"`
	Factors     []string  `json:"factors,omitempty"`
	Explanation string    `json:"explanation,omitempty"`
	AssessedAt  time.Time `json:"assessedAt"`
}

var (
	errAlreadyAssessed  = errors.New("transaction already assessed")
	errAlreadyFinalized = errors.New("transaction already finalized")
)

// Assess records verdict once.
func (t *Transaction) Assess(verdict *RiskVerdict, at time.Time) error {
	if t.Assessment != nil {
		return errors.Wrapf(errAlreadyAssessed, "transaction %s", t.ID)
	}
	if err := verdict.Validate(); err != nil {
		return err
	}
	t.Assessment = &Assessment{
		Level:       verdict.Level,
		Factors:     append([]string(nil), verdict.Factors...),
		Explanation: verdict.Explanation,
		AssessedAt:  at,
	}
	return nil
}

// Finalize records the terminal disposition once.
func (t *Transaction) Finalize(d *Disposition) error {
	if t.Disposition != nil {
		return errors.Wrapf(errAlreadyFinalized, "transaction %s", t.ID)
	}
	if d == nil || !d.Status.IsTerminal() {
		return errors.Newf("transaction %s: disposition must carry a terminal status", t.ID)
	}
	clone := *d
	t.Disposition = &clone
	return nil
}

// PresetVerdict returns the verdict carried by the input, if any.
func (t *Transaction) PresetVerdict() (*RiskVerdict, bool) {
	if t.RiskLevel == nil {
		return nil, false
	}
	return &RiskVerdict{Level: *t.RiskLevel, Factors: append([]string(nil), t.RiskFactors...)}, true
}

// Clone returns a deep copy so that a session can own its transaction.
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	ret := *t
	ret.RiskFactors = append([]string(nil), t.RiskFactors...)
	if t.RiskLevel != nil {
		level := *t.RiskLevel
		ret.RiskLevel = &level
	}
	if t.Assessment != nil {
		a := *t.Assessment
		a.Factors = append([]string(nil), t.Assessment.Factors...)
		ret.Assessment = &a
	}
	if t.Disposition != nil {
		d := *t.Disposition
		ret.Disposition = &d
	}
	return &ret
}
