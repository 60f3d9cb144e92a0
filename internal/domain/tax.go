package domain

import (
	"github.com/mtrack/mortgage-engine/pkg/decimal"
	sdec "github.com/shopspring/decimal"
)

// Federal is the jurisdiction code for the national tables
const Federal = "FED"

// TaxBracket is one income band. A nil Max marks the open-ended top band.
type TaxBracket struct {
	Min  sdec.Decimal       `yaml:"min" json:"min"`
	Max  *sdec.Decimal      `yaml:"max,omitempty" json:"max,omitempty"`
	Rate decimal.Percentage `yaml:"rate" json:"rate"`
}

// Contains reports whether income falls in [Min, Max)
func (b TaxBracket) Contains(income sdec.Decimal) bool {
	if income.LessThan(b.Min) {
		return false
	}
	return b.Max == nil || income.LessThan(*b.Max)
}

// TaxBracketTable holds the federal and regional bands for one jurisdiction and year
type TaxBracketTable struct {
	Jurisdiction string       `yaml:"jurisdiction" json:"jurisdiction"`
	Year         int          `yaml:"year" json:"year"`
	Federal      []TaxBracket `yaml:"federal" json:"federal"`
	Regional     []TaxBracket `yaml:"regional" json:"regional"`
}

// Lookup returns the rate of the bracket containing income, or zero when none matches
func Lookup(brackets []TaxBracket, income sdec.Decimal) decimal.Percentage {
	for _, b := range brackets {
		if b.Contains(income) {
			return b.Rate
		}
	}
	return decimal.Percentage{}
}
