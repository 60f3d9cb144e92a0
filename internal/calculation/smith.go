package calculation

import (
	"github.com/mtrack/mortgage-engine/internal/domain"
	"github.com/mtrack/mortgage-engine/pkg/decimal"
	sdec "github.com/shopspring/decimal"
)

// SMITH MANEUVER PROJECTION ASSUMPTIONS:
//
// 1. Annual steps. Each year's full scheduled prepayment lands at once. The
//    mortgage balance floors at zero; borrowing continues on the full prepayment.
//
// 2. Freed equity becomes HELOC room at the max LTV: room = prepayment × maxLTV.
//    A fixed share of the prepayment is re-borrowed and invested in full.
//
// 3. HELOC interest is a year of simple interest on the balance after borrowing, at
//    the reference rate snapshotted once for the whole projection plus the spread.
//
// 4. HELOC interest is 100% deductible. Investment income is taxed by its type
//    at the investor's marginal rate.
//
// 5. Investment returns compound at the end of each year, after the year is recorded.
//
// 6. Records are rounded to the cent; running state is carried unrounded.

var hundredPercent = decimal.RequirePercentage("100")

// ProjectionInput is a fully resolved snapshot of everything a projection reads
type ProjectionInput struct {
	MortgageBalance     decimal.Money
	HelocBalance        decimal.Money
	MaxLTV              decimal.Percentage
	HelocSpread         decimal.Percentage
	ReferenceRate       decimal.Percentage
	PrepaymentAmount    decimal.Money
	PrepaymentFrequency domain.PrepaymentFrequency
	BorrowingPercent    decimal.Percentage
	ExpectedReturn      decimal.Percentage
	MarginalTaxRate     decimal.Percentage
	Province            string
	IncomeType          domain.IncomeType
}

// NewProjectionInput assembles a snapshot from a strategy, its mortgage and HELOC account
func NewProjectionInput(s *domain.SmithManeuverStrategy, m *domain.Mortgage, account *domain.HelocAccount, reference, marginal decimal.Percentage) ProjectionInput {
	return ProjectionInput{
		MortgageBalance:     m.CurrentBalance,
		HelocBalance:        account.CurrentBalance,
		MaxLTV:              account.MaxLTV,
		HelocSpread:         account.InterestSpread,
		ReferenceRate:       reference,
		PrepaymentAmount:    s.PrepaymentAmount,
		PrepaymentFrequency: s.PrepaymentFrequency,
		BorrowingPercent:    s.BorrowingPercent,
		ExpectedReturn:      s.ExpectedReturn,
		MarginalTaxRate:     marginal,
		Province:            s.Province,
		IncomeType:          s.InvestmentIncomeType(),
	}
}

// SmithManeuverProjector runs the year-by-year projection
type SmithManeuverProjector struct {
	Taxes *TaxCalculator
}

// NewSmithManeuverProjector creates a projector. A nil tax calculator uses the built-in tables.
func NewSmithManeuverProjector(taxes *TaxCalculator) *SmithManeuverProjector {
	if taxes == nil {
		taxes = NewTaxCalculator(nil)
	}
	return &SmithManeuverProjector{Taxes: taxes}
}

// Project returns one record per year for years 1..years. The same input always
// yields the same output.
func (p *SmithManeuverProjector) Project(in ProjectionInput, years int) []domain.YearlyProjection {
	if years <= 0 {
		return nil
	}

	helocRate := in.ReferenceRate.Add(in.HelocSpread).Rate()
	returnRate := in.ExpectedReturn.Rate()

	mortgageBalance := in.MortgageBalance
	helocBalance := in.HelocBalance
	investment := decimal.Zero()
	totalPrepayments := decimal.Zero()
	totalBorrowings := decimal.Zero()
	cumulative := decimal.Zero()

	projections := make([]domain.YearlyProjection, 0, years)
	for year := 1; year <= years; year++ {
		prepayment := in.PrepaymentAmount.MulInt(in.PrepaymentFrequency.AnnualMultiplier(year))
		mortgageBalance = mortgageBalance.Sub(prepayment).NonNegative()
		totalPrepayments = totalPrepayments.Add(prepayment)

		roomIncrease := prepayment.MulPercentage(in.MaxLTV)
		borrowing := prepayment.MulPercentage(in.BorrowingPercent)
		totalBorrowings = totalBorrowings.Add(borrowing)
		helocBalance = helocBalance.Add(borrowing)
		investment = investment.Add(borrowing)

		interest := helocBalance.MulRate(helocRate)
		returns := investment.MulRate(returnRate)

		savings := p.Taxes.InterestDeduction(interest, hundredPercent, in.MarginalTaxRate).TaxSavings
		tax := p.Taxes.InvestmentIncomeTax(returns, in.IncomeType, in.Province, in.MarginalTaxRate).Tax

		net := returns.Sub(tax).Sub(interest).Add(savings)
		cumulative = cumulative.Add(net)

		projections = append(projections, domain.YearlyProjection{
			Year:               year,
			MortgageBalance:    mortgageBalance.Round(),
			HelocBalance:       helocBalance.Round(),
			InvestmentValue:    investment.Round(),
			Prepayment:         prepayment.Round(),
			TotalPrepayments:   totalPrepayments.Round(),
			CreditRoomIncrease: roomIncrease.Round(),
			Borrowing:          borrowing.Round(),
			TotalBorrowings:    totalBorrowings.Round(),
			HelocInterest:      interest.Round(),
			InvestmentReturns:  returns.Round(),
			InvestmentTax:      tax.Round(),
			TaxSavings:         savings.Round(),
			NetBenefit:         net.Round(),
			CumulativeBenefit:  cumulative.Round(),
			LeverageRatio:      ratio(helocBalance, investment),
			InterestCoverage:   ratio(returns, interest),
		})

		investment = investment.Add(returns)
	}
	return projections
}

// ratio returns num/den to four places, or nil when den is zero
func ratio(num, den decimal.Money) *sdec.Decimal {
	if den.IsZero() {
		return nil
	}
	r := num.Ratio(den).Round(4)
	return &r
}
