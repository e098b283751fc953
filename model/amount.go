package model

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

const defaultScale = 2

// FormatAmount renders amount with the standard number of decimals of the
// ISO 4217 currency code, e.g. 25000 USD -> "25000.00", 1500 JPY -> "1500".
func FormatAmount(amount decimal.Decimal, code string) string {
	scale := defaultScale
	if unit, err := currency.ParseISO(code); err == nil {
		scale, _ = currency.Standard.Rounding(unit)
	}
	return amount.StringFixed(int32(scale))
}
