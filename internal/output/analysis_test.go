package output

import (
	"testing"
	"time"

	"github.com/mtrack/mortgage-engine/internal/calculation"
	"github.com/mtrack/mortgage-engine/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestHighlights_Order(t *testing.T) {
	got := Highlights(buildTestReport())
	assert.Equal(t, []string{
		"Mortgage home has hit its trigger rate (6.55% at or above 6.40%)",
		"Mortgage rental is approaching its trigger rate (5.10% vs 5.14%)",
		"Set up a recurring prepayment of $2500.00 per month",
		"Net benefit of $1,152.00 over 2 years (ROI 4.80%)",
		"Smith Maneuver comes out ahead by $672.00",
	}, got)
}

func TestHighlights_OtherSections(t *testing.T) {
	r := NewReport("Misc", time.Time{})
	r.Comparison = &domain.ComparisonResult{Years: 5, Advantage: domain.Advantage{Strategy: domain.StrategyTie}}
	r.Insurance = []calculation.InsuranceResult{
		{Provider: calculation.Sagen, HighRatio: true, Premium: money("15120")},
		{Provider: calculation.CMHC, HighRatio: true, Premium: money("15120")},
		{Provider: calculation.Genworth, HighRatio: true, Premium: money("15200")},
	}
	r.Transitions = []domain.DrawPeriodTransition{{AccountID: "a", Due: true}, {AccountID: "b"}}
	r.Impacts = []calculation.Impact{{MortgageID: "home", Message: "Your payment will increase by $120.50"}}

	assert.Equal(t, []string{
		"Both strategies are within $100.00 of each other",
		"Lowest insurance premium: $15,120.00 from CMHC",
		"1 HELOC account(s) moved to principal plus interest payments",
		"Mortgage home: Your payment will increase by $120.50",
	}, Highlights(r))

	conventional := NewReport("Conventional", time.Time{})
	conventional.Insurance = []calculation.InsuranceResult{{Provider: calculation.CMHC, Premium: money("0")}}
	assert.Equal(t, []string{"Down payment of 20% or more: no mortgage insurance required"}, Highlights(conventional))

	assert.Empty(t, Highlights(NewReport("Empty", time.Time{})))
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "$123.45", FormatCurrency(money("123.45")))
	assert.Equal(t, "$1,234,567.00", FormatCurrency(money("1234567")))
	assert.Equal(t, "-$50.00", FormatCurrency(money("-50")))
	assert.Equal(t, "12.34%", FormatPercentage(pct("12.34")))
	assert.Equal(t, "n/a", FormatRatio(nil))
	assert.Equal(t, "1.25", FormatRatio(ratioPtr("1.25")))
	assert.Equal(t, "", formatDate(time.Time{}))
	assert.Equal(t, "42", intToString(42))
	assert.Equal(t, "false", boolToString(false))
}
