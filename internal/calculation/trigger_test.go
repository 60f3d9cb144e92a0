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

var triggerAsOf = date(2025, time.June, 1)

func triggerMortgage(id string) domain.Mortgage {
	return domain.Mortgage{
		ID:                    id,
		UserID:                "u1",
		OriginalAmount:        decimal.NewMoneyFromInt(850000),
		CurrentBalance:        decimal.NewMoneyFromInt(800000),
		StartDate:             date(2023, time.January, 1),
		AmortizationYears:     25,
		PaymentFrequency:      domain.Monthly,
		AnnualPrepaymentLimit: pct("20"),
	}
}

func variableFixedTerm(id, mortgageID string) domain.MortgageTerm {
	return domain.MortgageTerm{
		ID:               id,
		MortgageID:       mortgageID,
		StartDate:        date(2023, time.January, 1),
		EndDate:          date(2027, time.December, 31),
		PaymentFrequency: domain.Monthly,
		RegularPayment:   decimal.NewMoneyFromInt(4000),
		Rate:             domain.VariableFixed{Spread: pct("-1.00"), ReferenceRate: pct("6.45")},
	}
}

// TestEvaluate_Scenario: balance 800,000, spread -1.00, payment 4,000/month, trigger 6.00%
func TestEvaluate_Scenario(t *testing.T) {
	m := triggerMortgage("m1")
	terms := []domain.MortgageTerm{variableFixedTerm("t1", "m1")}

	tests := []struct {
		name      string
		reference string
		state     domain.TriggerState
		current   string
		hit       bool
		risk      bool
	}{
		{"well above trigger", "7.00", domain.TriggerHit, "6.00%", true, false},
		{"exactly 0.3 points below trigger", "6.70", domain.TriggerRisk, "5.70%", false, true},
		{"exactly 0.5 points below trigger", "6.50", domain.TriggerRisk, "5.50%", false, true},
		{"comfortably below trigger", "6.00", domain.TriggerSafe, "5.00%", false, false},
		{"past trigger", "9.25", domain.TriggerHit, "8.25%", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := Evaluate(&m, terms, nil, pct(tt.reference), triggerAsOf)
			assert.Equal(t, tt.state, status.State)
			assert.Equal(t, "6.00%", status.TriggerRate.String())
			assert.Equal(t, tt.current, status.CurrentRate.String())
			assert.Equal(t, tt.hit, status.IsHit)
			assert.Equal(t, tt.risk, status.IsRisk)
			assert.Equal(t, "800000.00", status.Balance.String())
			assert.Equal(t, "t1", status.TermID)
		})
	}
}

func TestEvaluate_States(t *testing.T) {
	m := triggerMortgage("m1")

	status := Evaluate(&m, nil, nil, pct("5"), triggerAsOf)
	assert.Equal(t, domain.NoActiveTerm, status.State)

	expired := variableFixedTerm("t0", "m1")
	expired.EndDate = date(2024, time.December, 31)
	status = Evaluate(&m, []domain.MortgageTerm{expired}, nil, pct("5"), triggerAsOf)
	assert.Equal(t, domain.NoActiveTerm, status.State)

	fixed := variableFixedTerm("t2", "m1")
	fixed.Rate = domain.FixedRate{Rate: pct("4.79")}
	status = Evaluate(&m, []domain.MortgageTerm{fixed}, nil, pct("5"), triggerAsOf)
	assert.Equal(t, domain.NotApplicable, status.State)

	changing := variableFixedTerm("t3", "m1")
	changing.Rate = domain.VariableChanging{Spread: pct("-0.5")}
	status = Evaluate(&m, []domain.MortgageTerm{changing}, nil, pct("5"), triggerAsOf)
	assert.Equal(t, domain.NotApplicable, status.State)

	paidOff := triggerMortgage("m1")
	paidOff.CurrentBalance = decimal.Zero()
	status = Evaluate(&paidOff, []domain.MortgageTerm{variableFixedTerm("t1", "m1")}, nil, pct("6.50"), triggerAsOf)
	assert.Equal(t, domain.TriggerSafe, status.State)
	assert.False(t, status.IsHit)
	assert.False(t, status.IsRisk)
	assert.False(t, status.Alerting())
}

func TestEvaluate_BalanceFromLatestPayment(t *testing.T) {
	m := triggerMortgage("m1")
	terms := []domain.MortgageTerm{variableFixedTerm("t1", "m1")}
	payments := []domain.MortgagePayment{
		{TermID: "t1", PaymentDate: date(2025, time.April, 1), RemainingBalance: decimal.NewMoneyFromInt(790000)},
		{TermID: "t1", PaymentDate: date(2025, time.May, 1), RemainingBalance: decimal.NewMoneyFromInt(960000)},
		{TermID: "t1", PaymentDate: date(2025, time.March, 1), RemainingBalance: decimal.NewMoneyFromInt(795000)},
		{TermID: "other", PaymentDate: date(2025, time.May, 15), RemainingBalance: decimal.NewMoneyFromInt(1)},
	}

	status := Evaluate(&m, terms, payments, pct("6.00"), triggerAsOf)
	assert.Equal(t, "960000.00", status.Balance.String())
	// 4000 × 12 / 960000 = 5%; current 5% is a hit
	assert.Equal(t, "5.00%", status.TriggerRate.String())
	assert.True(t, status.IsHit)
}

func TestTriggerRateMonitor_Check(t *testing.T) {
	repo := &fakeRepo{
		mortgages: []domain.Mortgage{triggerMortgage("m1"), triggerMortgage("m2")},
		terms: []domain.MortgageTerm{
			variableFixedTerm("t1", "m1"),
			{ID: "t2", MortgageID: "m2", StartDate: date(2023, time.January, 1), EndDate: date(2027, time.January, 1),
				RegularPayment: decimal.NewMoneyFromInt(4000), Rate: domain.FixedRate{Rate: pct("4.5")}},
		},
	}

	monitor := NewTriggerRateMonitor(repo, NewFixedReferenceRate(pct("6.70"), triggerAsOf))
	monitor.Clock = fixedClock(triggerAsOf)

	status, err := monitor.Check(context.Background(), "m1")
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, domain.TriggerRisk, status.State)
	assert.Equal(t, "6.70%", status.ReferenceRate.String())

	status, err = monitor.Check(context.Background(), "m2")
	require.NoError(t, err)
	assert.Nil(t, status, "fixed terms have no trigger rate")

	status, err = monitor.Check(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, status)
}

func TestTriggerRateMonitor_CheckUsesTermSnapshotWithoutProvider(t *testing.T) {
	repo := &fakeRepo{
		mortgages: []domain.Mortgage{triggerMortgage("m1")},
		terms:     []domain.MortgageTerm{variableFixedTerm("t1", "m1")},
	}

	monitor := NewTriggerRateMonitor(repo, nil)
	monitor.Clock = fixedClock(triggerAsOf)

	status, err := monitor.Check(context.Background(), "m1")
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, "5.45%", status.CurrentRate.String())
	assert.Equal(t, domain.TriggerSafe, status.State)
}

func TestTriggerRateMonitor_ProviderFailure(t *testing.T) {
	repo := &fakeRepo{
		mortgages: []domain.Mortgage{triggerMortgage("m1")},
		terms:     []domain.MortgageTerm{variableFixedTerm("t1", "m1")},
	}
	boom := errors.New("upstream timeout")
	provider := ReferenceRateFunc(func(context.Context) (domain.ReferenceRate, error) {
		return domain.ReferenceRate{}, boom
	})

	monitor := NewTriggerRateMonitor(repo, provider)
	monitor.Clock = fixedClock(triggerAsOf)

	_, err := monitor.Check(context.Background(), "m1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateUnavailable)
	assert.ErrorIs(t, err, boom)

	_, err = monitor.CheckAll(context.Background())
	assert.ErrorIs(t, err, ErrRateUnavailable)
}

func TestTriggerRateMonitor_CheckAll(t *testing.T) {
	safe := variableFixedTerm("t-safe", "m-safe")
	safe.RegularPayment = decimal.NewMoneyFromInt(6000) // trigger 9%

	repo := &fakeRepo{
		mortgages: []domain.Mortgage{
			triggerMortgage("m-hit"),
			triggerMortgage("m-broken"),
			triggerMortgage("m-safe"),
			triggerMortgage("m-risk"),
			triggerMortgage("m-none"),
		},
		terms: []domain.MortgageTerm{
			variableFixedTerm("t-hit", "m-hit"),
			variableFixedTerm("t-broken", "m-broken"),
			safe,
			variableFixedTerm("t-risk", "m-risk"),
		},
		payments: []domain.MortgagePayment{
			// a larger balance lowers m-hit's trigger to 5%
			{TermID: "t-hit", PaymentDate: date(2025, time.May, 1), RemainingBalance: decimal.NewMoneyFromInt(960000)},
		},
		failTerms: map[string]bool{"m-broken": true},
	}

	for _, concurrency := range []int{0, 4} {
		logger := &recordingLogger{}
		monitor := NewTriggerRateMonitor(repo, NewFixedReferenceRate(pct("6.70"), triggerAsOf))
		monitor.Clock = fixedClock(triggerAsOf)
		monitor.Concurrency = concurrency
		monitor.SetLogger(logger)

		alerts, err := monitor.CheckAll(context.Background())
		require.NoError(t, err)
		require.Len(t, alerts, 2, "concurrency %d", concurrency)
		assert.Equal(t, "m-hit", alerts[0].MortgageID)
		assert.Equal(t, domain.TriggerHit, alerts[0].State)
		assert.Equal(t, "m-risk", alerts[1].MortgageID)
		assert.Equal(t, domain.TriggerRisk, alerts[1].State)

		require.Len(t, logger.errors, 1)
		assert.Contains(t, logger.errors[0], "m-broken")
	}
}
