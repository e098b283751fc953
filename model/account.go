package model

import "github.com/shopspring/decimal"

// Account is read-only reference data describing the account a batch of
// transactions belongs to. The workflow never mutates it.
type Account struct {
	ID              string            `json:"accountId" validate:"required"`
	CustomerName    string            `json:"customerName,omitempty"`
	Type            string            `json:"accountType,omitempty"`
	Balance         decimal.Decimal   `json:"balance" validate:"gte=0"`
	Currency        string            `json:"currency" validate:"required,iso4217"`
	DailyLimit      decimal.Decimal   `json:"dailyLimit" validate:"gte=0"`
	Country         string            `json:"country,omitempty"`
	UsualCountries  []string          `json:"usualCountries,omitempty"`
	UsualAmounts    []decimal.Decimal `json:"usualTransactionAmounts,omitempty"`
	UsualRecipients []string          `json:"usualRecipients,omitempty"`
	HistorySummary  string            `json:"transactionHistorySummary,omitempty"`
}

// KnowsRecipient reports whether recipient appears in the usual recipients.
func (a *Account) KnowsRecipient(recipient string) bool {
	if a == nil {
		return false
	}
	for _, candidate := range a.UsualRecipients {
		if candidate == recipient {
			return true
		}
	}
	return false
}

// MaxUsualAmount returns the largest usual amount or zero.
func (a *Account) MaxUsualAmount() decimal.Decimal {
	ret := decimal.Zero
	if a == nil {
		return ret
	}
	for _, amount := range a.UsualAmounts {
		if amount.GreaterThan(ret) {
			ret = amount
		}
	}
	return ret
}
