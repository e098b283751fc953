// Package rules is a reference evaluator scoring a transaction against the
// account's usual activity. It is an example collaborator, not a fraud model.
package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/biter777/countries"
	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/viant/txshield/model"
	"github.com/viant/txshield/service/evaluator"
)

// Factor names reported in verdicts.
const (
	FactorDailyLimit       = "Amount exceeds daily limit"
	FactorTypicalAmount    = "Amount exceeds typical transaction"
	FactorBalance          = "Amount exceeds available balance"
	FactorNewRecipient     = "First-time recipient"
	FactorUnusualCountry   = "Unusual destination country"
	FactorUnusualTimeOfDay = "Unusual time of day"
)

// Config tunes the rule thresholds.
type Config struct {
	// TypicalMultiplier flags amounts above this multiple of the largest usual amount.
	TypicalMultiplier decimal.Decimal `json:"typicalMultiplier" yaml:"typicalMultiplier"`
	// DayStartHour and DayEndHour bound usual activity, [start, end).
	DayStartHour int `json:"dayStartHour" yaml:"dayStartHour"`
	DayEndHour   int `json:"dayEndHour" yaml:"dayEndHour"`
}

func DefaultConfig() Config {
	return Config{TypicalMultiplier: decimal.NewFromInt(2), DayStartHour: 6, DayEndHour: 22}
}

type service struct {
	config Config
}

// New returns the rule evaluator.
func New(config Config) evaluator.Evaluator {
	if config.TypicalMultiplier.IsZero() {
		config.TypicalMultiplier = DefaultConfig().TypicalMultiplier
	}
	if config.DayEndHour == 0 {
		config.DayStartHour, config.DayEndHour = DefaultConfig().DayStartHour, DefaultConfig().DayEndHour
	}
	return &service{config: config}
}

func (s *service) Evaluate(_ context.Context, transaction *model.Transaction, account *model.Account) (*model.RiskVerdict, error) {
	if account == nil {
		return nil, evaluator.Permanent(errors.Newf("transaction %s: account context required", transaction.ID))
	}
	var factors []string
	amount := transaction.Amount
	if account.DailyLimit.IsPositive() && amount.GreaterThan(account.DailyLimit) {
		factors = append(factors, FactorDailyLimit)
	}
	if typical := account.MaxUsualAmount(); typical.IsPositive() && amount.GreaterThan(typical.Mul(s.config.TypicalMultiplier)) {
		factors = append(factors, FactorTypicalAmount)
	}
	if transaction.Type != model.TransactionTypeDeposit && amount.GreaterThan(account.Balance) {
		factors = append(factors, FactorBalance)
	}
	if transaction.Recipient != "" && !account.KnowsRecipient(transaction.Recipient) {
		factors = append(factors, FactorNewRecipient)
	}
	if destination := countryOf(transaction.Location); destination != "" && !usualCountry(account, destination) {
		factors = append(factors, FactorUnusualCountry)
	}
	if hour := transaction.Timestamp.Hour(); hour < s.config.DayStartHour || hour >= s.config.DayEndHour {
		factors = append(factors, FactorUnusualTimeOfDay)
	}
	level := levelOf(len(factors))
	return &model.RiskVerdict{Level: level, Factors: factors, Explanation: explain(level, factors)}, nil
}

func levelOf(count int) model.RiskLevel {
	switch {
	case count == 0:
		return model.RiskLevelLow
	case count == 1:
		return model.RiskLevelMedium
	case count <= 4:
		return model.RiskLevelHigh
	}
	return model.RiskLevelCritical
}

func explain(level model.RiskLevel, factors []string) string {
	if len(factors) == 0 {
		return "No deviation from the account's usual activity."
	}
	return fmt.Sprintf("%s risk: %s.", level, strings.Join(factors, "; "))
}

// countryOf takes the last comma separated part of a location ("Lagos,
// Nigeria") and resolves it to an ISO alpha-2 code, falling back to the
// lower-cased name.
func countryOf(location string) string {
	location = strings.TrimSpace(location)
	if location == "" {
		return ""
	}
	parts := strings.Split(location, ",")
	return normalizeCountry(parts[len(parts)-1])
}

func normalizeCountry(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if c := countries.ByName(name); c != countries.Unknown {
		return c.Alpha2()
	}
	return strings.ToLower(name)
}

func usualCountry(account *model.Account, destination string) bool {
	if normalizeCountry(account.Country) == destination {
		return true
	}
	for _, candidate := range account.UsualCountries {
		if normalizeCountry(candidate) == destination {
			return true
		}
	}
	return false
}
