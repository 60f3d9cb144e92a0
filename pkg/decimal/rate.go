package decimal

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Percentage is a rate expressed in percentage points (5.25 means 5.25%).
// It is the unit used for storage, configuration and display.
type Percentage struct {
	decimal.Decimal
}

// Rate is a rate expressed as a decimal fraction (0.0525 means 5.25%).
// Every formula in the engine works in Rate.
type Rate struct {
	decimal.Decimal
}

// NewPercentage creates a Percentage from a float64 number of points
func NewPercentage(points float64) Percentage {
	return Percentage{decimal.NewFromFloat(points)}
}

// NewPercentageFromString parses a Percentage such as "5.25"
func NewPercentageFromString(points string) (Percentage, error) {
	d, err := decimal.NewFromString(points)
	if err != nil {
		return Percentage{}, err
	}
	return Percentage{d}, nil
}

// RequirePercentage parses a literal Percentage and panics on malformed input
func RequirePercentage(points string) Percentage {
	return Percentage{decimal.RequireFromString(points)}
}

// PercentageFromDecimal wraps a decimal number of points
func PercentageFromDecimal(d decimal.Decimal) Percentage {
	return Percentage{d}
}

// NewRate creates a Rate from a float64 fraction
func NewRate(fraction float64) Rate {
	return Rate{decimal.NewFromFloat(fraction)}
}

// RequireRate parses a literal Rate and panics on malformed input
func RequireRate(fraction string) Rate {
	return Rate{decimal.RequireFromString(fraction)}
}

// RateFromDecimal wraps a decimal fraction
func RateFromDecimal(d decimal.Decimal) Rate {
	return Rate{d}
}

// Rate converts percentage points to a decimal fraction.
func (p Percentage) Rate() Rate {
	return Rate{p.Decimal.Div(hundred)}
}

// Add sums two percentages (e.g. reference rate + spread)
func (p Percentage) Add(other Percentage) Percentage {
	return Percentage{p.Decimal.Add(other.Decimal)}
}

// Sub subtracts two percentages
func (p Percentage) Sub(other Percentage) Percentage {
	return Percentage{p.Decimal.Sub(other.Decimal)}
}

// String renders the percentage with two decimals and a percent sign
func (p Percentage) String() string {
	return p.Decimal.StringFixed(2) + "%"
}

// Percentage converts a decimal fraction to percentage points.
func (r Rate) Percentage() Percentage {
	return Percentage{r.Decimal.Mul(hundred)}
}

// Add sums two rates
func (r Rate) Add(other Rate) Rate {
	return Rate{r.Decimal.Add(other.Decimal)}
}

// Sub subtracts two rates
func (r Rate) Sub(other Rate) Rate {
	return Rate{r.Decimal.Sub(other.Decimal)}
}

// DivInt divides the rate by a whole number, e.g. annual to per-period
func (r Rate) DivInt(n int64) Rate {
	return Rate{r.Decimal.Div(decimal.NewFromInt(n))}
}

// AtLeast reports whether r >= other
func (r Rate) AtLeast(other Rate) bool {
	return r.Decimal.GreaterThanOrEqual(other.Decimal)
}

// String renders the fraction with six decimals
func (r Rate) String() string {
	return r.Decimal.StringFixed(6)
}
