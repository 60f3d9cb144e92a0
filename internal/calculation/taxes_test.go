package calculation

import (
	"errors"
	"testing"

	"github.com/mtrack/mortgage-engine/internal/domain"
	"github.com/mtrack/mortgage-engine/pkg/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMarginalTaxRate tests combined federal + provincial marginal rates using 2025 brackets
func TestMarginalTaxRate(t *testing.T) {
	calculator := NewTaxCalculator(nil)

	tests := []struct {
		name         string
		income       decimal.Money
		jurisdiction string
		expected     string
	}{
		{"Ontario middle income", decimal.NewMoneyFromInt(100000), "ON", "37.16%"},
		{"Ontario just below federal boundary", decimal.RequireMoney("48534.99"), "ON", "24.15%"},
		{"Ontario on federal boundary", decimal.NewMoneyFromInt(48535), "ON", "29.65%"},
		{"Alberta flat first band", decimal.NewMoneyFromInt(50000), "AB", "30.50%"},
		{"British Columbia top band", decimal.NewMoneyFromInt(250000), "BC", "49.80%"},
		{"Zero income", decimal.Zero(), "QC", "29.00%"},
		{"Lowercase code with padding", decimal.NewMoneyFromInt(100000), " on ", "37.16%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := calculator.MarginalTaxRate(tt.income, tt.jurisdiction, 2025)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, rate.String())
		})
	}
}

func TestMarginalTaxRate_UnknownJurisdiction(t *testing.T) {
	calculator := NewTaxCalculator(DefaultTaxBrackets{})
	_, err := calculator.MarginalTaxRate(decimal.NewMoneyFromInt(50000), "XX", 2025)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestDefaultTaxBrackets_AllJurisdictions(t *testing.T) {
	for _, code := range SupportedJurisdictions() {
		table, err := DefaultTaxBrackets{}.TaxBrackets(code, 2025)
		require.NoError(t, err, code)
		require.NotEmpty(t, table.Regional, code)

		// bands are contiguous and only the last one is open-ended
		for i, b := range table.Regional {
			if i == len(table.Regional)-1 {
				assert.Nil(t, b.Max, code)
				continue
			}
			require.NotNil(t, b.Max, code)
			assert.True(t, b.Max.Equal(table.Regional[i+1].Min), "%s band %d", code, i)
		}
	}
}

// TestInvestmentIncomeTax covers the four income type branches
func TestInvestmentIncomeTax(t *testing.T) {
	calculator := NewTaxCalculator(nil)
	income := decimal.NewMoneyFromInt(1000)
	forty := decimal.RequirePercentage("40")

	tests := []struct {
		name         string
		incomeType   domain.IncomeType
		jurisdiction string
		marginal     decimal.Percentage
		taxable      string
		tax          string
		afterTax     string
	}{
		{"Interest fully taxable", domain.InterestIncome, "ON", forty, "1000.00", "400.00", "600.00"},
		{"Capital gain half included", domain.CapitalGain, "ON", forty, "500.00", "200.00", "800.00"},
		{"Eligible dividend Ontario", domain.EligibleDividend, "ON", forty, "1380.00", "206.73", "793.27"},
		{"Eligible dividend Alberta", domain.EligibleDividend, "AB", forty, "1380.00", "344.73", "655.27"},
		{"Eligible dividend unknown region uses default credit", domain.EligibleDividend, "MB", forty, "1380.00", "206.73", "793.27"},
		{"Non-eligible dividend BC", domain.NonEligibleDividend, "BC", forty, "1150.00", "310.15", "689.85"},
		{"Credits exceed tax", domain.EligibleDividend, "ON", decimal.RequirePercentage("20"), "1380.00", "0.00", "1000.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := calculator.InvestmentIncomeTax(income, tt.incomeType, tt.jurisdiction, tt.marginal)
			assert.Equal(t, "1000.00", result.Gross.String())
			assert.Equal(t, tt.taxable, result.Taxable.String())
			assert.Equal(t, tt.tax, result.Tax.String())
			assert.Equal(t, tt.afterTax, result.AfterTax.String())
			assert.False(t, result.Tax.IsNegative())
		})
	}
}

func TestInterestDeduction(t *testing.T) {
	calculator := NewTaxCalculator(nil)

	result := calculator.InterestDeduction(decimal.NewMoneyFromInt(10000), decimal.RequirePercentage("75"), decimal.RequirePercentage("40"))
	assert.Equal(t, "7500.00", result.EligibleInterest.String())
	assert.Equal(t, "7500.00", result.Deduction.String())
	assert.Equal(t, "3000.00", result.TaxSavings.String())

	full := calculator.InterestDeduction(decimal.NewMoneyFromInt(10000), decimal.RequirePercentage("100"), decimal.RequirePercentage("43.41"))
	assert.Equal(t, "4341.00", full.TaxSavings.String())
}
