package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mtrack/mortgage-engine/internal/domain"
	"github.com/mtrack/mortgage-engine/pkg/decimal"
	"gopkg.in/yaml.v3"
)

// DefaultAnnualPrepaymentLimit applies to mortgages that do not state a limit
var DefaultAnnualPrepaymentLimit = decimal.RequirePercentage("20")

var (
	hundredPercent = decimal.RequirePercentage("100")
	zeroPercent    = decimal.RequirePercentage("0")
)

// InputParser handles parsing of portfolio files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads a portfolio from a YAML or JSON file
func (ip *InputParser) LoadFromFile(filename string) (*domain.Portfolio, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.Parse(data)
}

// Parse decodes, defaults and validates a portfolio document
func (ip *InputParser) Parse(data []byte) (*domain.Portfolio, error) {
	var portfolio domain.Portfolio
	if err := yaml.Unmarshal(data, &portfolio); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	ip.ApplyDefaults(&portfolio)

	if err := ip.ValidatePortfolio(&portfolio); err != nil {
		return nil, fmt.Errorf("portfolio validation failed: %w", err)
	}
	return &portfolio, nil
}

// ApplyDefaults fills optional fields that have a documented default
func (ip *InputParser) ApplyDefaults(p *domain.Portfolio) {
	for i := range p.Mortgages {
		m := &p.Mortgages[i]
		if m.AnnualPrepaymentLimit.IsZero() {
			m.AnnualPrepaymentLimit = DefaultAnnualPrepaymentLimit
		}
		if m.PaymentFrequency == "" {
			m.PaymentFrequency = domain.Monthly
		}
	}
	for i := range p.HelocAccounts {
		if p.HelocAccounts[i].PaymentMode == "" {
			p.HelocAccounts[i].PaymentMode = domain.InterestOnly
		}
	}
}

// ValidatePortfolio validates the loaded portfolio and its cross references
func (ip *InputParser) ValidatePortfolio(p *domain.Portfolio) error {
	if len(p.Mortgages) == 0 {
		return fmt.Errorf("no mortgages provided")
	}

	mortgages := make(map[string]bool, len(p.Mortgages))
	for i := range p.Mortgages {
		m := &p.Mortgages[i]
		if err := ip.validateMortgage(m); err != nil {
			return fmt.Errorf("mortgage %q validation failed: %w", m.ID, err)
		}
		if mortgages[m.ID] {
			return fmt.Errorf("duplicate mortgage id %q", m.ID)
		}
		mortgages[m.ID] = true
	}

	terms := make(map[string]bool, len(p.Terms))
	for i := range p.Terms {
		t := &p.Terms[i]
		if err := ip.validateTerm(t, mortgages); err != nil {
			return fmt.Errorf("term %q validation failed: %w", t.ID, err)
		}
		terms[t.ID] = true
	}

	for i := range p.Payments {
		pay := &p.Payments[i]
		if !mortgages[pay.MortgageID] {
			return fmt.Errorf("payment %d references unknown mortgage %q", i, pay.MortgageID)
		}
		if pay.TermID != "" && !terms[pay.TermID] {
			return fmt.Errorf("payment %d references unknown term %q", i, pay.TermID)
		}
		if pay.PaymentDate.IsZero() {
			return fmt.Errorf("payment %d: payment date is required", i)
		}
		if pay.RemainingBalance.IsNegative() || pay.PrepaymentAmount.IsNegative() {
			return fmt.Errorf("payment %d: amounts cannot be negative", i)
		}
	}

	accounts := make(map[string]bool, len(p.HelocAccounts))
	for i := range p.HelocAccounts {
		a := &p.HelocAccounts[i]
		if err := ip.validateHelocAccount(a, mortgages); err != nil {
			return fmt.Errorf("heloc account %q validation failed: %w", a.ID, err)
		}
		accounts[a.ID] = true
	}

	for i := range p.Strategies {
		s := &p.Strategies[i]
		if err := ip.validateStrategy(s, mortgages, accounts); err != nil {
			return fmt.Errorf("strategy %q validation failed: %w", s.ID, err)
		}
	}

	for i := range p.CashFlows {
		cf := &p.CashFlows[i]
		if cf.UserID == "" {
			return fmt.Errorf("cash flow %d: user id is required", i)
		}
		if cf.MonthlyIncome.IsNegative() {
			return fmt.Errorf("cash flow %d: monthly income cannot be negative", i)
		}
	}

	if p.ReferenceRate != nil && p.ReferenceRate.Rate.IsNegative() {
		return fmt.Errorf("reference rate cannot be negative")
	}

	return nil
}

// validateMortgage validates a single mortgage's data
func (ip *InputParser) validateMortgage(m *domain.Mortgage) error {
	if m.ID == "" {
		return fmt.Errorf("id is required")
	}
	if m.StartDate.IsZero() {
		return fmt.Errorf("start date is required")
	}
	if !m.OriginalAmount.IsPositive() {
		return fmt.Errorf("original amount must be positive")
	}
	if m.CurrentBalance.IsNegative() {
		return fmt.Errorf("current balance cannot be negative")
	}
	if m.PropertyPrice.IsNegative() {
		return fmt.Errorf("property price cannot be negative")
	}
	if m.TotalAmortizationMonths() <= 0 {
		return fmt.Errorf("amortization must be positive")
	}
	if !m.PaymentFrequency.Valid() {
		return fmt.Errorf("unknown payment frequency %q", m.PaymentFrequency)
	}
	if m.AnnualPrepaymentLimit.LessThan(zeroPercent.Decimal) || m.AnnualPrepaymentLimit.GreaterThan(hundredPercent.Decimal) {
		return fmt.Errorf("annual prepayment limit must be between 0%% and 100%%")
	}
	if m.CarryForwardRoom.IsNegative() {
		return fmt.Errorf("carry forward room cannot be negative")
	}
	return nil
}

// validateTerm validates a term and its link to a mortgage
func (ip *InputParser) validateTerm(t *domain.MortgageTerm, mortgages map[string]bool) error {
	if t.ID == "" {
		return fmt.Errorf("id is required")
	}
	if !mortgages[t.MortgageID] {
		return fmt.Errorf("unknown mortgage %q", t.MortgageID)
	}
	if t.StartDate.IsZero() || t.EndDate.IsZero() {
		return fmt.Errorf("start and end dates are required")
	}
	if t.EndDate.Before(t.StartDate) {
		return fmt.Errorf("end date %s is before start date %s",
			t.EndDate.Format(time.DateOnly), t.StartDate.Format(time.DateOnly))
	}
	if t.PaymentFrequency != "" && !t.PaymentFrequency.Valid() {
		return fmt.Errorf("unknown payment frequency %q", t.PaymentFrequency)
	}
	if t.RegularPayment.IsNegative() {
		return fmt.Errorf("regular payment cannot be negative")
	}
	if t.Rate == nil {
		return fmt.Errorf("rate is required")
	}
	return nil
}

// validateHelocAccount validates a HELOC account and its optional mortgage link
func (ip *InputParser) validateHelocAccount(a *domain.HelocAccount, mortgages map[string]bool) error {
	if a.ID == "" {
		return fmt.Errorf("id is required")
	}
	if a.CreditLimit.IsNegative() || a.CurrentBalance.IsNegative() || a.HomeValue.IsNegative() {
		return fmt.Errorf("credit limit, balance and home value cannot be negative")
	}
	if !a.MaxLTV.IsPositive() || a.MaxLTV.GreaterThan(hundredPercent.Decimal) {
		return fmt.Errorf("max LTV must be greater than 0%% and at most 100%%")
	}
	switch a.PaymentMode {
	case domain.InterestOnly, domain.PrincipalPlusInterest:
	default:
		return fmt.Errorf("payment mode must be '%s' or '%s'", domain.InterestOnly, domain.PrincipalPlusInterest)
	}
	if a.MortgageID != "" && !mortgages[a.MortgageID] {
		return fmt.Errorf("unknown mortgage %q", a.MortgageID)
	}
	return nil
}

// validateStrategy validates a strategy and the accounts it ties together
func (ip *InputParser) validateStrategy(s *domain.SmithManeuverStrategy, mortgages, accounts map[string]bool) error {
	if s.ID == "" {
		return fmt.Errorf("id is required")
	}
	if !mortgages[s.MortgageID] {
		return fmt.Errorf("unknown mortgage %q", s.MortgageID)
	}
	if !accounts[s.HelocAccountID] {
		return fmt.Errorf("unknown heloc account %q", s.HelocAccountID)
	}
	if !s.PrepaymentAmount.IsPositive() {
		return fmt.Errorf("prepayment amount must be positive")
	}
	if !s.PrepaymentFrequency.Valid() {
		return fmt.Errorf("prepayment frequency must be 'monthly', 'quarterly', 'annually' or 'lump_sum'")
	}
	if s.BorrowingPercent.LessThan(zeroPercent.Decimal) || s.BorrowingPercent.GreaterThan(hundredPercent.Decimal) {
		return fmt.Errorf("borrowing percent must be between 0%% and 100%%")
	}
	if s.IncomeType != "" && !s.IncomeType.Valid() {
		return fmt.Errorf("unknown income type %q", s.IncomeType)
	}
	if s.MarginalTaxRate == nil && s.Province == "" {
		return fmt.Errorf("province is required when no marginal tax rate is given")
	}
	if s.HorizonYears < 0 || s.HorizonYears > 50 {
		return fmt.Errorf("projection years cannot exceed 50")
	}
	return nil
}

// CreateExamplePortfolio creates a small portfolio exercising every entity
func (ip *InputParser) CreateExamplePortfolio() *domain.Portfolio {
	start := time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC)
	termEnd := time.Date(2028, time.February, 29, 0, 0, 0, 0, time.UTC)
	drawEnd := time.Date(2033, time.March, 1, 0, 0, 0, 0, time.UTC)
	marginal := decimal.RequirePercentage("43.41")

	return &domain.Portfolio{
		ReferenceRate: &domain.ReferenceRate{
			Rate:  decimal.RequirePercentage("4.95"),
			AsOf:  time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
			Label: "prime",
		},
		TaxYear: 2025,
		Mortgages: []domain.Mortgage{
			{
				ID:                    "home",
				UserID:                "alex",
				Name:                  "Principal residence",
				PropertyPrice:         decimal.NewMoneyFromInt(850000),
				OriginalAmount:        decimal.NewMoneyFromInt(680000),
				CurrentBalance:        decimal.NewMoneyFromInt(642000),
				StartDate:             start,
				AmortizationYears:     25,
				PaymentFrequency:      domain.Monthly,
				AnnualPrepaymentLimit: DefaultAnnualPrepaymentLimit,
				ReAdvanceable:         true,
				HelocAccountID:        "home-heloc",
			},
		},
		Terms: []domain.MortgageTerm{
			{
				ID:               "home-2023",
				MortgageID:       "home",
				StartDate:        start,
				EndDate:          termEnd,
				PaymentFrequency: domain.Monthly,
				RegularPayment:   decimal.NewMoneyFromInt(3600),
				Rate:             domain.VariableFixed{Spread: decimal.RequirePercentage("-0.90"), ReferenceRate: decimal.RequirePercentage("6.70")},
			},
		},
		HelocAccounts: []domain.HelocAccount{
			{
				ID:             "home-heloc",
				UserID:         "alex",
				CreditLimit:    decimal.NewMoneyFromInt(38000),
				CurrentBalance: decimal.Zero(),
				InterestSpread: decimal.RequirePercentage("0.50"),
				MaxLTV:         decimal.RequirePercentage("80"),
				HomeValue:      decimal.NewMoneyFromInt(850000),
				PaymentMode:    domain.InterestOnly,
				DrawPeriodEnd:  &drawEnd,
				MortgageID:     "home",
			},
		},
		Strategies: []domain.SmithManeuverStrategy{
			{
				ID:                  "smith",
				UserID:              "alex",
				Name:                "Monthly Smith Maneuver",
				MortgageID:          "home",
				HelocAccountID:      "home-heloc",
				PrepaymentAmount:    decimal.NewMoneyFromInt(1000),
				PrepaymentFrequency: domain.PrepayMonthly,
				BorrowingPercent:    decimal.RequirePercentage("100"),
				ExpectedReturn:      decimal.RequirePercentage("7"),
				MarginalTaxRate:     &marginal,
				Province:            "ON",
				IncomeType:          domain.EligibleDividend,
				HorizonYears:        25,
			},
		},
		CashFlows: []domain.CashFlow{
			{
				UserID:        "alex",
				MonthlyIncome: decimal.NewMoneyFromInt(12500),
				PropertyTax:   decimal.NewMoneyFromInt(550),
				Utilities:     decimal.NewMoneyFromInt(300),
				Groceries:     decimal.NewMoneyFromInt(1200),
				CarLoan:       decimal.NewMoneyFromInt(650),
			},
		},
	}
}
