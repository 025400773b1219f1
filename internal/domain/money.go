package domain

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyZWG Currency = "ZWG"
	CurrencyZAR Currency = "ZAR"
)

// Currencies lists the supported currencies in a fixed order.
func Currencies() []Currency {
	return []Currency{CurrencyUSD, CurrencyZWG, CurrencyZAR}
}

func (c Currency) IsValid() bool {
	switch c {
	case CurrencyUSD, CurrencyZWG, CurrencyZAR:
		return true
	}
	return false
}

// Amounts are int64 minor units (cents) everywhere past the ingestion boundary.

var (
	centsPerUnit = decimal.NewFromInt(100)
	maxCents     = decimal.NewFromInt(math.MaxInt64)
	minCents     = decimal.NewFromInt(math.MinInt64)
)

// AmountFromDecimal converts d into cents. Values with more than two
// fractional digits, or that overflow int64 cents, fail with ErrInvalidAmount.
func AmountFromDecimal(d decimal.Decimal) (int64, error) {
	cents := d.Mul(centsPerUnit)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, fmt.Errorf("AmountFromDecimal: %s: %w", d.String(), ErrInvalidAmount)
	}
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return 0, fmt.Errorf("AmountFromDecimal: %s out of range: %w", d.String(), ErrInvalidAmount)
	}
	return cents.IntPart(), nil
}

func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("ParseAmount: %q: %w", s, ErrInvalidAmount)
	}
	return AmountFromDecimal(d)
}

func AmountToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// FormatAmount renders cents as a fixed two-digit decimal string, e.g. -1250 -> "-12.50".
func FormatAmount(cents int64) string {
	return AmountToDecimal(cents).StringFixed(2)
}
