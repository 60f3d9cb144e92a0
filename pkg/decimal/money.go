package decimal

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a currency amount. Arithmetic is exact; Round and String work in cents.
type Money struct {
	decimal.Decimal
}

// NewMoney converts a float. Prefer the string and int constructors for exact values.
func NewMoney(value float64) Money {
	return Money{decimal.NewFromFloat(value)}
}

// NewMoneyFromInt creates a new Money instance from a whole amount
func NewMoneyFromInt(value int64) Money {
	return Money{decimal.NewFromInt(value)}
}

// NewMoneyFromDecimal wraps d
func NewMoneyFromDecimal(d decimal.Decimal) Money {
	return Money{d}
}

// NewMoneyFromString parses a plain decimal string such as "1234.56"
func NewMoneyFromString(value string) (Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Money{}, err
	}
	return Money{d}, nil
}

// RequireMoney parses a literal amount and panics on malformed input.
// Intended for tables and tests.
func RequireMoney(value string) Money {
	return Money{decimal.RequireFromString(value)}
}

// Round rounds the money amount to cents
func (m Money) Round() Money {
	return Money{m.Decimal.Round(2)}
}

// Add returns m + other
func (m Money) Add(other Money) Money {
	return Money{m.Decimal.Add(other.Decimal)}
}

// Sub returns m - other
func (m Money) Sub(other Money) Money {
	return Money{m.Decimal.Sub(other.Decimal)}
}

// Mul scales the amount by factor
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{m.Decimal.Mul(factor)}
}

// MulInt multiplies by a whole-number factor
func (m Money) MulInt(factor int64) Money {
	return Money{m.Decimal.Mul(decimal.NewFromInt(factor))}
}

// MulRate applies a decimal rate to the amount (e.g. 100 × 0.05 = 5)
func (m Money) MulRate(r Rate) Money {
	return Money{m.Decimal.Mul(r.Decimal)}
}

// MulPercentage applies a percentage to the amount (e.g. 100 × 5% = 5)
func (m Money) MulPercentage(p Percentage) Money {
	return m.MulRate(p.Rate())
}

// Div scales the amount down by factor
func (m Money) Div(factor decimal.Decimal) Money {
	return Money{m.Decimal.Div(factor)}
}

// DivInt divides by a whole-number factor
func (m Money) DivInt(factor int64) Money {
	return Money{m.Decimal.Div(decimal.NewFromInt(factor))}
}

// Ratio returns m / other, or zero when other is zero.
func (m Money) Ratio(other Money) decimal.Decimal {
	if other.IsZero() {
		return decimal.Zero
	}
	return m.Decimal.Div(other.Decimal)
}

// NonNegative clamps negative amounts to zero
func (m Money) NonNegative() Money {
	if m.IsNegative() {
		return Zero()
	}
	return m
}

// Comparisons and sign checks compare exact values, not cents.
func (m Money) GreaterThan(other Money) bool {
	return m.Decimal.GreaterThan(other.Decimal)
}

func (m Money) GreaterThanOrEqual(other Money) bool {
	return m.Decimal.GreaterThanOrEqual(other.Decimal)
}

func (m Money) LessThan(other Money) bool {
	return m.Decimal.LessThan(other.Decimal)
}

func (m Money) LessThanOrEqual(other Money) bool {
	return m.Decimal.LessThanOrEqual(other.Decimal)
}

// Equal reports whether both amounts are the same value
func (m Money) Equal(other Money) bool {
	return m.Decimal.Equal(other.Decimal)
}

func (m Money) IsZero() bool {
	return m.Decimal.IsZero()
}

func (m Money) IsPositive() bool {
	return m.Decimal.IsPositive()
}

func (m Money) IsNegative() bool {
	return m.Decimal.IsNegative()
}

// Min returns the smaller amount
func Min(a, b Money) Money {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max returns the larger amount
func Max(a, b Money) Money {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Sum adds any number of amounts
func Sum(amounts ...Money) Money {
	total := Zero()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Zero is $0.00
func Zero() Money {
	return Money{decimal.Zero}
}

// String returns the amount with two decimals
func (m Money) String() string {
	return m.Decimal.StringFixed(2)
}

// Format renders the amount as currency with thousands separators, e.g. $1,234.56
func (m Money) Format() string {
	s := m.Decimal.Abs().StringFixed(2)
	whole, frac := s[:len(s)-3], s[len(s)-3:]

	var b strings.Builder
	if m.IsNegative() && !m.Round().IsZero() {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteString(frac)
	return b.String()
}
