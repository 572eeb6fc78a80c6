// Money parsing and rounding helpers.
//
// Amounts are carried as decimal values (never floats) and rendered as
// quoted decimal strings on the wire. Currency amounts round to two
// decimals; derived asset quantities round to eight.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// MoneyPrecision is the currency rounding precision.
	MoneyPrecision = 2
	// AssetPrecision is the rounding precision for derived asset amounts.
	AssetPrecision = 8
)

// ParseSignedAmount parses a signed decimal amount string.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional leading sign. Zero and malformed values are rejected.
//
// Examples:
//
//	ParseSignedAmount("-300")   -> -300, nil
//	ParseSignedAmount("+12,50") -> 12.5, nil
//	ParseSignedAmount("0")      -> error
func ParseSignedAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsZero() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// RoundMoney rounds a currency amount to MoneyPrecision decimals (half-up).
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPrecision)
}

// RequirePositive validates that a currency amount is strictly positive.
func RequirePositive(d decimal.Decimal) error {
	if d.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// InstallmentAmount derives the per-installment amount of a plan:
// total/installments, currency-rounded.
func InstallmentAmount(total decimal.Decimal, installments int) decimal.Decimal {
	return total.DivRound(decimal.NewFromInt(int64(installments)), MoneyPrecision)
}

// DeriveAssetAmount derives the asset quantity of a position:
// spent/buyPrice, rounded to AssetPrecision decimals.
func DeriveAssetAmount(spent, buyPrice decimal.Decimal) decimal.Decimal {
	return spent.DivRound(buyPrice, AssetPrecision)
}
