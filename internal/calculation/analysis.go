package calculation

import (
	"github.com/mtrack/mortgage-engine/internal/domain"
	"github.com/mtrack/mortgage-engine/pkg/decimal"
	sdec "github.com/shopspring/decimal"
)

// ComparisonThreshold is the difference below which two strategies are called a tie
var ComparisonThreshold = decimal.NewMoneyFromInt(100)

var (
	leverageLowBelow     = sdec.NewFromInt(1)
	leverageModerateUpTo = sdec.NewFromInt(2)
	coverageLowFrom      = sdec.RequireFromString("1.5")
	coverageModerateFrom = sdec.NewFromInt(1)
	hundredDecimal       = sdec.NewFromInt(100)
)

// AssessLeverageRisk bands a HELOC-to-investment ratio: below 1 is low, up to 2 moderate
func AssessLeverageRisk(ratio sdec.Decimal) domain.RiskLevel {
	switch {
	case ratio.LessThan(leverageLowBelow):
		return domain.RiskLow
	case ratio.LessThanOrEqual(leverageModerateUpTo):
		return domain.RiskModerate
	}
	return domain.RiskHigh
}

// AssessInterestCoverageRisk bands a returns-to-interest ratio: 1.5 and above is low, 1 and above moderate
func AssessInterestCoverageRisk(coverage sdec.Decimal) domain.RiskLevel {
	switch {
	case coverage.GreaterThanOrEqual(coverageLowFrom):
		return domain.RiskLow
	case coverage.GreaterThanOrEqual(coverageModerateFrom):
		return domain.RiskModerate
	}
	return domain.RiskHigh
}

// leverageRisk treats debt with nothing invested as high risk and no debt as low
func leverageRisk(y domain.YearlyProjection) domain.RiskLevel {
	if y.LeverageRatio == nil {
		if y.HelocBalance.IsPositive() {
			return domain.RiskHigh
		}
		return domain.RiskLow
	}
	return AssessLeverageRisk(*y.LeverageRatio)
}

// coverageRisk treats a year with no interest to cover as low risk
func coverageRisk(y domain.YearlyProjection) domain.RiskLevel {
	if y.InterestCoverage == nil {
		return domain.RiskLow
	}
	return AssessInterestCoverageRisk(*y.InterestCoverage)
}

// DebtToEquity is heloc / (investment - heloc), or nil when equity is not positive
func DebtToEquity(helocBalance, investmentValue decimal.Money) *sdec.Decimal {
	equity := investmentValue.Sub(helocBalance)
	if !equity.IsPositive() {
		return nil
	}
	r := helocBalance.Ratio(equity).Round(4)
	return &r
}

// percentOf returns num/den as percentage points, zero when den is zero
func percentOf(num, den decimal.Money) decimal.Percentage {
	return decimal.PercentageFromDecimal(num.Ratio(den).Mul(hundredDecimal).Round(2))
}

// ROI aggregates a projection. It reads the records only and never re-simulates.
func ROI(projections []domain.YearlyProjection) domain.ROIAnalysis {
	if len(projections) == 0 {
		return domain.ROIAnalysis{}
	}

	var returns, tax, interest, savings []decimal.Money
	for _, y := range projections {
		returns = append(returns, y.InvestmentReturns)
		tax = append(tax, y.InvestmentTax)
		interest = append(interest, y.HelocInterest)
		savings = append(savings, y.TaxSavings)
	}

	last := projections[len(projections)-1]
	analysis := domain.ROIAnalysis{
		Years:              len(projections),
		TotalBorrowed:      last.TotalBorrowings,
		TotalReturns:       decimal.Sum(returns...),
		TotalInvestmentTax: decimal.Sum(tax...),
		TotalHelocInterest: decimal.Sum(interest...),
		TotalTaxSavings:    decimal.Sum(savings...),
		NetBenefit:         last.CumulativeBenefit,
		LeverageRisk:       leverageRisk(last),
		CoverageRisk:       coverageRisk(last),
	}
	analysis.ROI = percentOf(analysis.NetBenefit, analysis.TotalBorrowed)
	analysis.EffectiveReturn = percentOf(analysis.TotalReturns.Sub(analysis.TotalInvestmentTax), analysis.TotalBorrowed)
	return analysis
}

// CompareToDirectPrepayment weighs the projection against prepaying the same cash with no
// borrowing. Direct prepayment saves roughly the average prepaid balance (half the total)
// times the mortgage rate for each year. years <= 0 or beyond the projection uses all of it.
func CompareToDirectPrepayment(projections []domain.YearlyProjection, mortgageRate decimal.Percentage, years int) domain.ComparisonResult {
	if years <= 0 || years > len(projections) {
		years = len(projections)
	}
	result := domain.ComparisonResult{Years: years, MortgageRate: mortgageRate}
	if years == 0 {
		result.Advantage = domain.Advantage{Strategy: domain.StrategyTie, Amount: decimal.Zero()}
		return result
	}

	last := projections[years-1]
	saved := last.TotalPrepayments.DivInt(2).MulPercentage(mortgageRate).MulInt(int64(years)).Round()

	result.SmithManeuver = domain.StrategyOutcome{
		NetBenefit:       last.CumulativeBenefit,
		TotalPrepayments: last.TotalPrepayments,
		InvestmentValue:  last.InvestmentValue,
	}
	result.DirectPrepayment = domain.StrategyOutcome{
		NetBenefit:       saved,
		TotalPrepayments: last.TotalPrepayments,
		InterestSaved:    saved,
	}

	diff := result.SmithManeuver.NetBenefit.Sub(saved)
	amount := decimal.NewMoneyFromDecimal(diff.Abs())
	switch {
	case amount.LessThanOrEqual(ComparisonThreshold):
		result.Advantage = domain.Advantage{Strategy: domain.StrategyTie, Amount: amount}
	case diff.IsPositive():
		result.Advantage = domain.Advantage{Strategy: domain.StrategySmithManeuver, Amount: amount}
	default:
		result.Advantage = domain.Advantage{Strategy: domain.StrategyDirectPrepayment, Amount: amount}
	}
	return result
}
