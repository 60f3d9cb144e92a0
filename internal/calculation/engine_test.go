package calculation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mtrack/mortgage-engine/internal/domain"
	"github.com/mtrack/mortgage-engine/pkg/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var engineAsOf = date(2025, time.June, 1)

func engineFixture() *fakeRepo {
	marginal := pct("40")

	roomMortgage := *scenarioMortgage()
	strategyMortgage := triggerMortgage("m-strat")
	strategyMortgage.CurrentBalance = decimal.NewMoneyFromInt(400000)

	return &fakeRepo{
		mortgages: []domain.Mortgage{roomMortgage, strategyMortgage, triggerMortgage("m-vf")},
		terms:     []domain.MortgageTerm{variableFixedTerm("t-vf", "m-vf")},
		payments:  []domain.MortgagePayment{prepayment(date(2025, time.April, 1), 15000)},
		accounts: []domain.HelocAccount{{
			ID:             "h-strat",
			UserID:         "u1",
			CreditLimit:    decimal.NewMoneyFromInt(100000),
			CurrentBalance: decimal.Zero(),
			InterestSpread: pct("0.5"),
			MaxLTV:         pct("80"),
			HomeValue:      decimal.NewMoneyFromInt(1000000),
			PaymentMode:    domain.InterestOnly,
		}},
		strategies: []domain.SmithManeuverStrategy{
			{
				ID:                  "s1",
				UserID:              "u1",
				MortgageID:          "m-strat",
				HelocAccountID:      "h-strat",
				PrepaymentAmount:    decimal.NewMoneyFromInt(1000),
				PrepaymentFrequency: domain.PrepayMonthly,
				BorrowingPercent:    pct("100"),
				ExpectedReturn:      pct("10"),
				MarginalTaxRate:     &marginal,
				Province:            "ON",
				IncomeType:          domain.InterestIncome,
				HorizonYears:        5,
			},
			{
				ID:                  "s-derived",
				UserID:              "u1",
				MortgageID:          "m-strat",
				HelocAccountID:      "h-strat",
				PrepaymentAmount:    decimal.NewMoneyFromInt(1000),
				PrepaymentFrequency: domain.PrepayMonthly,
				BorrowingPercent:    pct("100"),
				ExpectedReturn:      pct("7"),
				AnnualIncome:        decimal.NewMoneyFromInt(100000),
				Province:            "ON",
			},
			{
				ID:             "s-orphan",
				MortgageID:     "m-strat",
				HelocAccountID: "missing",
			},
		},
		cashFlows: []domain.CashFlow{{
			UserID:        "u1",
			MonthlyIncome: decimal.NewMoneyFromInt(8000),
			Groceries:     decimal.NewMoneyFromInt(2000),
			CarLoan:       decimal.NewMoneyFromInt(3000),
		}},
	}
}

func newTestEngine(repo *fakeRepo, rates ReferenceRateProvider) *Engine {
	return NewEngine(Ports{
		Mortgages:   repo,
		Helocs:      repo,
		Strategies:  repo,
		CashFlows:   repo,
		Rates:       rates,
		ImpactCache: NewMemoryImpactCache(),
		Clock:       fixedClock(engineAsOf),
	})
}

func TestEngine_ProjectStrategy(t *testing.T) {
	engine := newTestEngine(engineFixture(), NewFixedReferenceRate(pct("4.5"), engineAsOf))
	ctx := context.Background()

	projections, err := engine.ProjectStrategy(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, projections, 2)
	assert.Equal(t, "360.00", projections[0].NetBenefit.String())
	assert.Equal(t, "1152.00", projections[1].CumulativeBenefit.String())

	// zero years falls back to the strategy's horizon
	projections, err = engine.ProjectStrategy(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Len(t, projections, 5)

	derived, err := engine.ProjectStrategy(ctx, "s-derived", 1)
	require.NoError(t, err)
	require.Len(t, derived, 1)
	// capital gains: half of 840 taxed at the derived 37.16%
	assert.Equal(t, "840.00", derived[0].InvestmentReturns.String())
	assert.Equal(t, "156.07", derived[0].InvestmentTax.String())

	missing, err := engine.ProjectStrategy(ctx, "nope", 10)
	require.NoError(t, err)
	assert.Nil(t, missing)

	orphan, err := engine.ProjectStrategy(ctx, "s-orphan", 10)
	require.NoError(t, err)
	assert.Nil(t, orphan)
}

func TestEngine_ProjectStrategyNeedsRate(t *testing.T) {
	engine := newTestEngine(engineFixture(), nil)
	_, err := engine.ProjectStrategy(context.Background(), "s1", 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateUnavailable))
}

func TestEngine_Analyses(t *testing.T) {
	engine := newTestEngine(engineFixture(), NewFixedReferenceRate(pct("4.5"), engineAsOf))
	ctx := context.Background()

	roi, err := engine.ROIAnalysis(ctx, "s1", 2)
	require.NoError(t, err)
	require.NotNil(t, roi)
	assert.Equal(t, "4.80%", roi.ROI.String())

	comparison, err := engine.CompareToDirectPrepayment(ctx, "s1", 2, pct("5"))
	require.NoError(t, err)
	require.NotNil(t, comparison)
	assert.Equal(t, domain.StrategyTie, comparison.Advantage.Strategy)

	none, err := engine.ROIAnalysis(ctx, "nope", 2)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestEngine_PrepaymentRoom(t *testing.T) {
	engine := newTestEngine(engineFixture(), nil)
	ctx := context.Background()

	room, err := engine.PrepaymentRoom(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, room)
	assert.Equal(t, "100000.00", room.Limit.String())
	assert.Equal(t, "85000.00", room.Remaining.String())

	opportunity, err := engine.PrepaymentOpportunity(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, opportunity)
	assert.Equal(t, "3000.00", opportunity.MonthlySurplus.String())
	assert.Equal(t, domain.RecurringPrepayment, opportunity.Recommendation.Kind)

	missing, err := engine.PrepaymentRoom(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = engine.ValidatePrepayment(ctx, "m1", decimal.NewMoneyFromInt(85001))
	assert.True(t, errors.Is(err, ErrValidation))
	assert.NoError(t, engine.ValidatePrepayment(ctx, "m1", decimal.NewMoneyFromInt(85000)))
	assert.True(t, errors.Is(engine.ValidatePrepayment(ctx, "nope", decimal.NewMoneyFromInt(1)), ErrNotFound))
}

func TestEngine_TriggersAndImpacts(t *testing.T) {
	repo := engineFixture()
	engine := newTestEngine(repo, NewFixedReferenceRate(pct("7.00"), engineAsOf))
	ctx := context.Background()

	status, err := engine.CheckTriggerRate(ctx, "m-vf")
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, domain.TriggerHit, status.State)

	alerts, err := engine.CheckAllTriggerRates(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "m-vf", alerts[0].MortgageID)

	impacts, err := engine.RateChangeImpacts(ctx, pct("6.45"), pct("7.00"))
	require.NoError(t, err)
	require.Len(t, impacts, 1)
	assert.Equal(t, ImpactTriggerRisk, impacts[0].Type)

	latest, err := engine.Impacts.LatestImpact(ctx, "m-vf")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "t-vf", latest.TermID)
}

func TestEngine_HelocOperations(t *testing.T) {
	repo := engineFixture()
	engine := newTestEngine(repo, NewFixedReferenceRate(pct("4.5"), engineAsOf))
	engine.Heloc.NewID = func() string { return "tx-1" }
	ctx := context.Background()

	tx, err := engine.RecordBorrowing(ctx, BorrowingRequest{
		AccountID: "h-strat",
		UserID:    "u1",
		Amount:    decimal.NewMoneyFromInt(5000),
		Date:      engineAsOf,
	})
	require.NoError(t, err)
	assert.Equal(t, "tx-1", tx.ID)
	assert.Equal(t, "5000.00", repo.accounts[0].CurrentBalance.String())

	transitions, err := engine.ApplyDrawPeriodTransitions(ctx)
	require.NoError(t, err)
	assert.Empty(t, transitions)

	history, err := engine.CreditRoomHistory(ctx, "h-strat")
	require.NoError(t, err)
	assert.Nil(t, history)
}
