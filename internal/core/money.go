// Package core provides the budget domain types and the pure rules over them.
//
// This file contains money parsing and formatting. Amounts are kept as integer
// cents and converted through shopspring/decimal at the edges so that the
// fixed-point semantics (10 digits, 2 decimal places) hold end to end.
package core

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)

	// maxAmount is the first value that no longer fits 10 digits with 2 decimals.
	maxAmount = decimal.New(1, 8)

	// moneyPattern admits plain positional notation only. Exponent forms such
	// as 1e100000000 make the decimal library build huge integers.
	moneyPattern = regexp.MustCompile(`^[+-]?(\d{1,32}(\.\d{0,32})?|\.\d{1,32})$`)
)

// Exponent bounds outside which a decimal cannot be an amount at all.
const (
	maxExponent = 8
	minExponent = -32
)

// Money is a fixed-point monetary value stored as cents.
type Money struct {
	Cents int64
}

// ParseMoney converts a decimal string to Money.
//
// Both dot (12.34) and comma (12,34) separators are accepted. Unlike a rounding
// parser, more than two fractional digits is an error, matching a DECIMAL(10,2)
// column. Signs are preserved; callers decide whether negatives are allowed.
//
// Examples:
//
//	ParseMoney("12.34") -> {1234}, nil
//	ParseMoney("12,3")  -> {1230}, nil
//	ParseMoney("1.005") -> ErrTooManyDecimals
//	ParseMoney("abc")   -> ErrInvalidAmount
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if !moneyPattern.MatchString(s) {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d)
}

// MoneyFromDecimal checks precision and range before converting to cents.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if d.IsZero() {
		return Money{}, nil
	}
	// Rescaling across a large exponent is expensive; reject before Truncate does it.
	if d.Exponent() > maxExponent {
		return Money{}, ErrAmountTooLarge
	}
	if d.Exponent() < minExponent {
		return Money{}, ErrTooManyDecimals
	}
	if !d.Equal(d.Truncate(2)) {
		return Money{}, ErrTooManyDecimals
	}
	if d.Abs().GreaterThanOrEqual(maxAmount) {
		return Money{}, ErrAmountTooLarge
	}
	return Money{Cents: d.Shift(2).IntPart()}, nil
}

// NewMoney builds Money from whole units and cents, e.g. NewMoney(12, 50) is 12.50.
func NewMoney(units, cents int64) Money {
	return Money{Cents: units*100 + cents}
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount with exactly two decimals ("12.50").
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Float64 is for chart payloads only; never use it for arithmetic.
func (m Money) Float64() float64 {
	return m.Decimal().InexactFloat64()
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) IsNegative() bool { return m.Cents < 0 }
func (m Money) IsPositive() bool { return m.Cents > 0 }

// Validate rejects negative amounts.
func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrNegativeAmount
	}
	if m.Decimal().GreaterThanOrEqual(maxAmount) {
		return ErrAmountTooLarge
	}
	return nil
}

// MarshalJSON encodes the amount as a string to avoid float rounding in clients.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}
