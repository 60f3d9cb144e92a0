package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mtrack/mortgage-engine/internal/domain"
	"github.com/mtrack/mortgage-engine/pkg/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNewInputParser(t *testing.T) {
	parser := NewInputParser()
	assert.NotNil(t, parser)
}

func TestLoadFromFile_Success(t *testing.T) {
	parser := NewInputParser()
	portfolio, err := parser.LoadFromFile(filepath.Join("testdata", "portfolio.yaml"))
	require.NoError(t, err)
	require.NotNil(t, portfolio)

	assert.Equal(t, 2025, portfolio.TaxYear)
	require.NotNil(t, portfolio.ReferenceRate)
	assert.Equal(t, "4.95%", portfolio.ReferenceRate.Rate.String())

	require.Len(t, portfolio.Mortgages, 2)
	home := portfolio.MortgageByID("home")
	require.NotNil(t, home)
	assert.Equal(t, "20.00%", home.AnnualPrepaymentLimit.String())
	assert.Equal(t, "680000.00", home.OriginalAmount.String())
	assert.True(t, home.ReAdvanceable)

	cottage := portfolio.MortgageByID("cottage")
	require.NotNil(t, cottage)
	assert.Equal(t, "15.00%", cottage.AnnualPrepaymentLimit.String())
	require.NotNil(t, cottage.PrepaymentResetDate)
	assert.Equal(t, domain.Biweekly, cottage.PaymentFrequency)

	require.Len(t, portfolio.Terms, 2)
	assert.Equal(t, domain.TermVariableFixed, portfolio.Terms[0].Type())
	assert.Equal(t, domain.TermFixed, portfolio.Terms[1].Type())
	assert.Equal(t, "795.40", portfolio.Terms[1].RegularPayment.String())

	require.Len(t, portfolio.HelocAccounts, 1)
	assert.Equal(t, domain.InterestOnly, portfolio.HelocAccounts[0].PaymentMode)
	require.NotNil(t, portfolio.HelocAccounts[0].DrawPeriodEnd)

	require.Len(t, portfolio.Strategies, 1)
	assert.Equal(t, domain.EligibleDividend, portfolio.Strategies[0].IncomeType)
	assert.Nil(t, portfolio.Strategies[0].MarginalTaxRate)
	assert.Equal(t, 25, portfolio.Strategies[0].Horizon())

	require.Len(t, portfolio.CashFlows, 1)
	assert.Equal(t, "9800.00", portfolio.CashFlows[0].Surplus().String())
}

func TestLoadFromFile_FileNotFound(t *testing.T) {
	parser := NewInputParser()
	portfolio, err := parser.LoadFromFile("nonexistent_file.yaml")

	assert.Error(t, err)
	assert.Nil(t, portfolio)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	testPortfolio := "mortgages:\n\t- id: broken\n"

	tmpfile, err := os.CreateTemp("", "test_portfolio_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.Write([]byte(testPortfolio))
	require.NoError(t, err)
	tmpfile.Close()

	parser := NewInputParser()
	portfolio, err := parser.LoadFromFile(tmpfile.Name())

	assert.Error(t, err)
	assert.Nil(t, portfolio)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParse_BadTermVariant(t *testing.T) {
	src := `
mortgages:
  - id: m1
    original_amount: 100000
    start_date: 2024-01-01T00:00:00Z
    amortization_years: 25
terms:
  - id: t1
    mortgage_id: m1
    type: fixed
    fixed_rate: 5
    locked_spread: 1
`
	_, err := NewInputParser().Parse([]byte(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixed term cannot carry locked_spread")
}

func TestValidatePortfolio_Example(t *testing.T) {
	parser := NewInputParser()
	assert.NoError(t, parser.ValidatePortfolio(parser.CreateExamplePortfolio()))
}

func TestExamplePortfolio_RoundTrip(t *testing.T) {
	parser := NewInputParser()
	data, err := yaml.Marshal(parser.CreateExamplePortfolio())
	require.NoError(t, err)

	portfolio, err := parser.Parse(data)
	require.NoError(t, err)
	require.Len(t, portfolio.Terms, 1)
	assert.Equal(t, domain.TermVariableFixed, portfolio.Terms[0].Type())
	require.Len(t, portfolio.Strategies, 1)
	require.NotNil(t, portfolio.Strategies[0].MarginalTaxRate)
	assert.Equal(t, "43.41%", portfolio.Strategies[0].MarginalTaxRate.String())
}

func TestValidatePortfolio_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *domain.Portfolio)
		msg    string
	}{
		{"no mortgages", func(p *domain.Portfolio) { p.Mortgages = nil }, "no mortgages provided"},
		{"missing mortgage id", func(p *domain.Portfolio) { p.Mortgages[0].ID = "" }, "id is required"},
		{"zero original amount", func(p *domain.Portfolio) { p.Mortgages[0].OriginalAmount = decimal.Zero() }, "original amount must be positive"},
		{"no amortization", func(p *domain.Portfolio) { p.Mortgages[0].AmortizationYears = 0 }, "amortization must be positive"},
		{"bad frequency", func(p *domain.Portfolio) { p.Mortgages[0].PaymentFrequency = "daily" }, "unknown payment frequency"},
		{"limit above 100", func(p *domain.Portfolio) {
			p.Mortgages[0].AnnualPrepaymentLimit = decimal.RequirePercentage("120")
		}, "annual prepayment limit must be between"},
		{"duplicate mortgage", func(p *domain.Portfolio) {
			p.Mortgages = append(p.Mortgages, p.Mortgages[0])
		}, "duplicate mortgage id"},
		{"term for unknown mortgage", func(p *domain.Portfolio) { p.Terms[0].MortgageID = "ghost" }, "unknown mortgage"},
		{"term ends before it starts", func(p *domain.Portfolio) {
			p.Terms[0].EndDate = p.Terms[0].StartDate.AddDate(0, 0, -1)
		}, "is before start date"},
		{"payment for unknown mortgage", func(p *domain.Portfolio) {
			p.Payments = []domain.MortgagePayment{{MortgageID: "ghost", PaymentDate: p.Mortgages[0].StartDate}}
		}, "references unknown mortgage"},
		{"heloc ltv zero", func(p *domain.Portfolio) { p.HelocAccounts[0].MaxLTV = decimal.RequirePercentage("0") }, "max LTV"},
		{"heloc payment mode", func(p *domain.Portfolio) { p.HelocAccounts[0].PaymentMode = "balloon" }, "payment mode must be"},
		{"strategy heloc missing", func(p *domain.Portfolio) { p.Strategies[0].HelocAccountID = "ghost" }, "unknown heloc account"},
		{"strategy frequency", func(p *domain.Portfolio) { p.Strategies[0].PrepaymentFrequency = "weekly" }, "prepayment frequency must be"},
		{"strategy borrowing", func(p *domain.Portfolio) {
			p.Strategies[0].BorrowingPercent = decimal.RequirePercentage("150")
		}, "borrowing percent must be between"},
		{"strategy needs province", func(p *domain.Portfolio) {
			p.Strategies[0].MarginalTaxRate = nil
			p.Strategies[0].Province = ""
		}, "province is required"},
		{"cash flow user", func(p *domain.Portfolio) { p.CashFlows[0].UserID = "" }, "user id is required"},
		{"negative reference rate", func(p *domain.Portfolio) {
			p.ReferenceRate.Rate = decimal.RequirePercentage("-1")
		}, "reference rate cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewInputParser()
			portfolio := parser.CreateExamplePortfolio()
			tt.mutate(portfolio)

			err := parser.ValidatePortfolio(portfolio)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	portfolio := &domain.Portfolio{
		Mortgages:     []domain.Mortgage{{ID: "m"}},
		HelocAccounts: []domain.HelocAccount{{ID: "h"}},
	}
	NewInputParser().ApplyDefaults(portfolio)

	assert.Equal(t, "20.00%", portfolio.Mortgages[0].AnnualPrepaymentLimit.String())
	assert.Equal(t, domain.Monthly, portfolio.Mortgages[0].PaymentFrequency)
	assert.Equal(t, domain.InterestOnly, portfolio.HelocAccounts[0].PaymentMode)
}
