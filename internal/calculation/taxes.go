package calculation

import (
	"fmt"
	"strings"

	"github.com/mtrack/mortgage-engine/internal/domain"
	"github.com/mtrack/mortgage-engine/pkg/decimal"
	sdec "github.com/shopspring/decimal"
)

// TAX CALCULATION ASSUMPTIONS:
//
// 1. Marginal rate = federal band rate + provincial/territorial band rate.
//    The 2025 tables are used for every tax year (no indexation).
//
// 2. Investment income:
//    - interest: fully taxable at the marginal rate
//    - capital gains: 50% inclusion
//    - eligible dividends: 38% gross-up, federal credit 15.0198% of the grossed-up amount
//    - non-eligible dividends: 15% gross-up, federal credit 9.0301%
//    Provincial dividend credits are simplified to a flat rate per province.
//    Tax is floored at zero; excess credits are lost.
//
// 3. Interest deductions are pro-rated by the share of borrowed funds used to invest.

var (
	capitalGainsInclusion    = sdec.RequireFromString("0.5")
	eligibleGrossUp          = sdec.RequireFromString("1.38")
	eligibleFederalCredit    = sdec.RequireFromString("0.150198")
	nonEligibleGrossUp       = sdec.RequireFromString("1.15")
	nonEligibleFederalCredit = sdec.RequireFromString("0.090301")
)

type dividendCredit struct {
	eligible    sdec.Decimal
	nonEligible sdec.Decimal
}

var regionalDividendCredits = map[string]dividendCredit{
	"ON": {sdec.RequireFromString("0.10"), sdec.RequireFromString("0.0338")},
	"BC": {sdec.RequireFromString("0.12"), sdec.RequireFromString("0.04")},
	"AB": {sdec.Zero, sdec.Zero},
	"QC": {sdec.RequireFromString("0.115"), sdec.RequireFromString("0.038")},
}

// regions without their own entry use the Ontario credit rates
var defaultDividendCredit = regionalDividendCredits["ON"]

// TaxBracketSource supplies versioned bracket tables
type TaxBracketSource interface {
	TaxBrackets(jurisdiction string, year int) (domain.TaxBracketTable, error)
}

// DefaultTaxBrackets serves the built-in 2025 Canadian federal and provincial tables
type DefaultTaxBrackets struct{}

// TaxBrackets returns the tables for a province or territory code such as "ON"
func (DefaultTaxBrackets) TaxBrackets(jurisdiction string, year int) (domain.TaxBracketTable, error) {
	code := normalizeJurisdiction(jurisdiction)
	regional, ok := regionalBrackets2025()[code]
	if !ok {
		return domain.TaxBracketTable{}, newValidationError("province", fmt.Sprintf("Unsupported province or territory: %s", jurisdiction))
	}
	return domain.TaxBracketTable{
		Jurisdiction: code,
		Year:         2025,
		Federal:      federalBrackets2025(),
		Regional:     regional,
	}, nil
}

// SupportedJurisdictions lists the codes DefaultTaxBrackets knows
func SupportedJurisdictions() []string {
	return []string{"AB", "BC", "MB", "NB", "NL", "NS", "NT", "NU", "ON", "PE", "QC", "SK", "YT"}
}

func normalizeJurisdiction(j string) string {
	return strings.ToUpper(strings.TrimSpace(j))
}

// InvestmentTaxResult is the tax owed on one stream of investment income
type InvestmentTaxResult struct {
	Gross    decimal.Money `json:"gross"`
	Taxable  decimal.Money `json:"taxable"`
	Tax      decimal.Money `json:"tax"`
	AfterTax decimal.Money `json:"after_tax"`
}

// DeductionResult is the value of deducting borrowing costs
type DeductionResult struct {
	EligibleInterest decimal.Money `json:"eligible_interest"`
	Deduction        decimal.Money `json:"deduction"`
	TaxSavings       decimal.Money `json:"tax_savings"`
}

// TaxCalculator handles marginal rate lookups and investment income tax
type TaxCalculator struct {
	Source TaxBracketSource
}

// NewTaxCalculator creates a calculator over the given bracket source, defaulting to the built-in tables
func NewTaxCalculator(source TaxBracketSource) *TaxCalculator {
	if source == nil {
		source = DefaultTaxBrackets{}
	}
	return &TaxCalculator{Source: source}
}

// MarginalTaxRate sums the federal and regional rates of the bands containing income
func (tc *TaxCalculator) MarginalTaxRate(income decimal.Money, jurisdiction string, year int) (decimal.Percentage, error) {
	table, err := tc.Source.TaxBrackets(jurisdiction, year)
	if err != nil {
		return decimal.Percentage{}, fmt.Errorf("tax brackets for %s/%d: %w", jurisdiction, year, err)
	}
	federal := domain.Lookup(table.Federal, income.Decimal)
	regional := domain.Lookup(table.Regional, income.Decimal)
	return federal.Add(regional), nil
}

// InvestmentIncomeTax computes the tax on income of the given type at the marginal rate
func (tc *TaxCalculator) InvestmentIncomeTax(income decimal.Money, incomeType domain.IncomeType, jurisdiction string, marginal decimal.Percentage) InvestmentTaxResult {
	rate := marginal.Rate()
	var taxable, tax decimal.Money

	switch incomeType {
	case domain.CapitalGain:
		taxable = income.Mul(capitalGainsInclusion)
		tax = taxable.MulRate(rate)
	case domain.EligibleDividend:
		credit := dividendCreditFor(jurisdiction).eligible
		taxable, tax = dividendTax(income, rate, eligibleGrossUp, eligibleFederalCredit, credit)
	case domain.NonEligibleDividend:
		credit := dividendCreditFor(jurisdiction).nonEligible
		taxable, tax = dividendTax(income, rate, nonEligibleGrossUp, nonEligibleFederalCredit, credit)
	default:
		// interest and anything unclassified are fully taxable
		taxable = income
		tax = income.MulRate(rate)
	}

	tax = tax.NonNegative()
	return InvestmentTaxResult{
		Gross:    income,
		Taxable:  taxable,
		Tax:      tax,
		AfterTax: income.Sub(tax),
	}
}

func dividendTax(income decimal.Money, marginal decimal.Rate, grossUp, federalCredit, regionalCredit sdec.Decimal) (decimal.Money, decimal.Money) {
	grossed := income.Mul(grossUp)
	tax := grossed.MulRate(marginal).
		Sub(grossed.Mul(federalCredit)).
		Sub(grossed.Mul(regionalCredit))
	return grossed, tax
}

func dividendCreditFor(jurisdiction string) dividendCredit {
	if c, ok := regionalDividendCredits[normalizeJurisdiction(jurisdiction)]; ok {
		return c
	}
	return defaultDividendCredit
}

// InterestDeduction pro-rates totalInterest by investmentUse and values the deduction at the marginal rate
func (tc *TaxCalculator) InterestDeduction(totalInterest decimal.Money, investmentUse, marginal decimal.Percentage) DeductionResult {
	eligible := totalInterest.MulPercentage(investmentUse)
	return DeductionResult{
		EligibleInterest: eligible,
		Deduction:        eligible,
		TaxSavings:       eligible.MulPercentage(marginal),
	}
}
