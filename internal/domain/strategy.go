package domain

import (
	"time"

	"github.com/mtrack/mortgage-engine/pkg/decimal"
)

// PrepaymentFrequency is how often a strategy prepays the mortgage
type PrepaymentFrequency string

const (
	PrepayMonthly   PrepaymentFrequency = "monthly"
	PrepayQuarterly PrepaymentFrequency = "quarterly"
	PrepayAnnually  PrepaymentFrequency = "annually"
	PrepayLumpSum   PrepaymentFrequency = "lump_sum"
)

// AnnualMultiplier returns the number of prepayments made in the given projection year
func (f PrepaymentFrequency) AnnualMultiplier(year int) int64 {
	switch f {
	case PrepayMonthly:
		return 12
	case PrepayQuarterly:
		return 4
	case PrepayAnnually:
		return 1
	case PrepayLumpSum:
		if year == 1 {
			return 1
		}
	}
	return 0
}

// Valid reports whether f is a known prepayment frequency
func (f PrepaymentFrequency) Valid() bool {
	switch f {
	case PrepayMonthly, PrepayQuarterly, PrepayAnnually, PrepayLumpSum:
		return true
	}
	return false
}

// IncomeType classifies investment income for tax purposes
type IncomeType string

const (
	InterestIncome      IncomeType = "interest"
	CapitalGain         IncomeType = "capital_gain"
	EligibleDividend    IncomeType = "eligible_dividend"
	NonEligibleDividend IncomeType = "non_eligible_dividend"
)

// Valid reports whether t is a known income type
func (t IncomeType) Valid() bool {
	switch t {
	case InterestIncome, CapitalGain, EligibleDividend, NonEligibleDividend:
		return true
	}
	return false
}

// SmithManeuverStrategy ties a mortgage and a HELOC into a leveraged prepay-and-borrow plan
type SmithManeuverStrategy struct {
	ID                  string              `yaml:"id" json:"id"`
	UserID              string              `yaml:"user_id" json:"user_id"`
	Name                string              `yaml:"name,omitempty" json:"name,omitempty"`
	MortgageID          string              `yaml:"mortgage_id" json:"mortgage_id"`
	HelocAccountID      string              `yaml:"heloc_account_id" json:"heloc_account_id"`
	PrepaymentAmount    decimal.Money       `yaml:"prepayment_amount" json:"prepayment_amount"`
	PrepaymentFrequency PrepaymentFrequency `yaml:"prepayment_frequency" json:"prepayment_frequency"`
	BorrowingPercent    decimal.Percentage  `yaml:"borrowing_percent" json:"borrowing_percent"`
	ExpectedReturn      decimal.Percentage  `yaml:"expected_return_percent" json:"expected_return_percent"`
	// MarginalTaxRate overrides the rate derived from AnnualIncome and Province.
	MarginalTaxRate *decimal.Percentage `yaml:"marginal_tax_rate,omitempty" json:"marginal_tax_rate,omitempty"`
	AnnualIncome    decimal.Money       `yaml:"annual_income" json:"annual_income"`
	Province        string              `yaml:"province" json:"province"`
	IncomeType      IncomeType          `yaml:"income_type,omitempty" json:"income_type"`
	HorizonYears    int                 `yaml:"projection_years,omitempty" json:"projection_years"`
	StartDate       time.Time           `yaml:"start_date,omitempty" json:"start_date"`
}

// InvestmentIncomeType returns the configured income type, defaulting to capital gains
func (s *SmithManeuverStrategy) InvestmentIncomeType() IncomeType {
	if s.IncomeType == "" {
		return CapitalGain
	}
	return s.IncomeType
}

// Horizon returns the projection length, defaulting to 30 years
func (s *SmithManeuverStrategy) Horizon() int {
	if s.HorizonYears <= 0 {
		return 30
	}
	return s.HorizonYears
}
