package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mtrack/mortgage-engine/internal/calculation"
	"github.com/mtrack/mortgage-engine/internal/domain"
	"github.com/mtrack/mortgage-engine/pkg/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func money(s string) decimal.Money { return decimal.RequireMoney(s) }

func pct(s string) decimal.Percentage { return decimal.RequirePercentage(s) }

func testPortfolio() *domain.Portfolio {
	return &domain.Portfolio{
		ReferenceRate: &domain.ReferenceRate{Rate: pct("4.95"), AsOf: day("2025-06-01")},
		Mortgages: []domain.Mortgage{
			{ID: "m2", UserID: "u1", CurrentBalance: money("200000"), StartDate: day("2024-01-01")},
			{ID: "m1", UserID: "u1", CurrentBalance: money("400000"), StartDate: day("2023-01-01")},
		},
		Terms: []domain.MortgageTerm{
			{ID: "t-old", MortgageID: "m1", StartDate: day("2018-01-01"), EndDate: day("2022-12-31"), Rate: domain.FixedRate{Rate: pct("3.1")}},
			{ID: "t-new", MortgageID: "m1", StartDate: day("2023-01-01"), EndDate: day("2027-12-31"), Rate: domain.VariableFixed{Spread: pct("-0.5"), ReferenceRate: pct("6.45")}},
		},
		Payments: []domain.MortgagePayment{
			{ID: "p2", MortgageID: "m1", TermID: "t-new", PaymentDate: day("2025-03-01"), RemainingBalance: money("398000")},
			{MortgageID: "m1", TermID: "t-new", PaymentDate: day("2025-02-01"), RemainingBalance: money("399000")},
			{ID: "p3", MortgageID: "m2", TermID: "t-other", PaymentDate: day("2025-02-01")},
		},
		HelocAccounts: []domain.HelocAccount{
			{ID: "h1", UserID: "u1", CreditLimit: money("50000"), CurrentBalance: money("1000"), InterestSpread: pct("0.5"), MaxLTV: pct("80"), HomeValue: money("600000"), MortgageID: "m1"},
		},
		Strategies: []domain.SmithManeuverStrategy{{ID: "s1", UserID: "u1", MortgageID: "m1", HelocAccountID: "h1"}},
		CashFlows:  []domain.CashFlow{{UserID: "u1", MonthlyIncome: money("9000")}},
	}
}

func TestNewMemory_AssignsMissingIDsAndCopies(t *testing.T) {
	source := testPortfolio()
	s := NewMemory(source)
	ctx := context.Background()

	payments, err := s.FindPaymentsForMortgage(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	_, err = uuid.Parse(payments[0].ID)
	assert.NoError(t, err, "payment without an ID gets a UUID")
	assert.Empty(t, source.Payments[1].ID, "source portfolio is not modified")

	source.Mortgages[1].CurrentBalance = money("1")
	m, err := s.FindMortgage(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "400000.00", m.CurrentBalance.String())

	m.CurrentBalance = money("2")
	again, _ := s.FindMortgage(ctx, "m1")
	assert.Equal(t, "400000.00", again.CurrentBalance.String())

	assert.Empty(t, NewMemory(nil).Snapshot().Mortgages)
}

func TestMemory_MortgageLookups(t *testing.T) {
	s := NewMemory(testPortfolio())
	ctx := context.Background()

	missing, err := s.FindMortgage(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := s.ListMortgages(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "m1", list[0].ID)
	assert.Equal(t, "m2", list[1].ID)

	terms, err := s.FindTerms(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, terms, 2)

	active, err := s.FindActiveTerm(ctx, "m1", day("2025-06-01"))
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "t-new", active.ID)

	none, err := s.FindActiveTerm(ctx, "m2", day("2025-06-01"))
	require.NoError(t, err)
	assert.Nil(t, none)

	payments, err := s.FindPaymentsForTerm(ctx, "t-new")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.True(t, payments[0].PaymentDate.Before(payments[1].PaymentDate), "payments are ordered by date")
	assert.Equal(t, "p2", payments[1].ID)
}

func TestMemory_HelocWrites(t *testing.T) {
	s := NewMemory(testPortfolio())
	s.newID = func() string { return "tx-fixed" }
	ctx := context.Background()

	balance := money("2500")
	updated, err := s.UpdateHelocAccount(ctx, "h1", domain.HelocAccountUpdate{CurrentBalance: &balance})
	require.NoError(t, err)
	assert.Equal(t, "2500.00", updated.CurrentBalance.String())
	assert.Equal(t, "50000.00", updated.CreditLimit.String())

	_, err = s.UpdateHelocAccount(ctx, "nope", domain.HelocAccountUpdate{CurrentBalance: &balance})
	assert.True(t, errors.Is(err, calculation.ErrNotFound))

	tx, err := s.AppendHelocTransaction(ctx, domain.HelocTransaction{AccountID: "h1", Type: domain.Borrowing, Amount: money("1500")})
	require.NoError(t, err)
	assert.Equal(t, "tx-fixed", tx.ID)

	kept, err := s.AppendHelocTransaction(ctx, domain.HelocTransaction{ID: "given", AccountID: "h1", Type: domain.Repayment})
	require.NoError(t, err)
	assert.Equal(t, "given", kept.ID)

	_, err = s.AppendHelocTransaction(ctx, domain.HelocTransaction{AccountID: "nope"})
	assert.True(t, errors.Is(err, calculation.ErrNotFound))

	txs, err := s.FindHelocTransactions(ctx, "h1")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "tx-fixed", txs[0].ID)
	assert.Equal(t, "given", txs[1].ID)

	snapshot := s.Snapshot()
	assert.Len(t, snapshot.Transactions, 2)
	assert.Equal(t, "2500.00", snapshot.HelocAccounts[0].CurrentBalance.String())
}

func TestMemory_ConcurrentAppends(t *testing.T) {
	s := NewMemory(testPortfolio())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.AppendHelocTransaction(ctx, domain.HelocTransaction{
				AccountID:   "h1",
				Type:        domain.Borrowing,
				Description: fmt.Sprintf("draw %d", i),
			})
			assert.NoError(t, err)
			_, err = s.ListHelocAccounts(ctx)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	txs, err := s.FindHelocTransactions(ctx, "h1")
	require.NoError(t, err)
	assert.Len(t, txs, 50)
	ids := map[string]bool{}
	for _, tx := range txs {
		ids[tx.ID] = true
	}
	assert.Len(t, ids, 50)
}

func TestMemory_ReferenceRate(t *testing.T) {
	ctx := context.Background()

	s := NewMemory(testPortfolio())
	ref, err := s.CurrentReferenceRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "4.95%", ref.Rate.String())

	empty := NewMemory(&domain.Portfolio{})
	_, err = empty.CurrentReferenceRate(ctx)
	assert.ErrorIs(t, err, ErrNoReferenceRate)

	empty.SetReferenceRate(domain.ReferenceRate{Rate: pct("5.2")})
	ref, err = empty.CurrentReferenceRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "5.20%", ref.Rate.String())
}

func TestMemory_StrategyAndCashFlow(t *testing.T) {
	s := NewMemory(testPortfolio())
	ctx := context.Background()

	strategy, err := s.FindStrategy(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, strategy)
	assert.Equal(t, "h1", strategy.HelocAccountID)

	missing, err := s.FindStrategy(ctx, "s9")
	require.NoError(t, err)
	assert.Nil(t, missing)

	cf, err := s.FindCashFlow(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, cf)
	assert.Equal(t, "9000.00", cf.MonthlyIncome.String())

	none, err := s.FindCashFlow(ctx, "u2")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestMemory_BacksEngineWrites(t *testing.T) {
	s := NewMemory(testPortfolio())
	engine := calculation.NewEngine(calculation.Ports{
		Mortgages: s,
		Helocs:    s,
		Rates:     s,
		Clock:     func() time.Time { return day("2025-06-15") },
	})

	tx, err := engine.RecordBorrowing(context.Background(), calculation.BorrowingRequest{
		AccountID: "h1",
		UserID:    "u1",
		Amount:    money("4000"),
	})
	require.NoError(t, err)
	assert.Equal(t, "1000.00", tx.BalanceBefore.String())
	assert.Equal(t, "5000.00", tx.BalanceAfter.String())
	assert.Equal(t, "5.45%", tx.InterestRate.String())

	account, err := s.FindHelocAccount(context.Background(), "h1")
	require.NoError(t, err)
	assert.Equal(t, "5000.00", account.CurrentBalance.String())
	assert.Len(t, s.Snapshot().Transactions, 1)
}
