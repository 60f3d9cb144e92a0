package calculation

import (
	"context"
	"fmt"
	"time"

	"github.com/mtrack/mortgage-engine/internal/domain"
	"github.com/mtrack/mortgage-engine/pkg/decimal"
)

// The engine reads and writes entities only through these interfaces.
// Find methods return (nil, nil) when the entity does not exist.

// MortgageRepository looks up mortgages, their terms and payment ledgers
type MortgageRepository interface {
	FindMortgage(ctx context.Context, id string) (*domain.Mortgage, error)
	ListMortgages(ctx context.Context) ([]domain.Mortgage, error)
	FindTerms(ctx context.Context, mortgageID string) ([]domain.MortgageTerm, error)
	FindActiveTerm(ctx context.Context, mortgageID string, asOf time.Time) (*domain.MortgageTerm, error)
	FindPaymentsForTerm(ctx context.Context, termID string) ([]domain.MortgagePayment, error)
	FindPaymentsForMortgage(ctx context.Context, mortgageID string) ([]domain.MortgagePayment, error)
}

// HelocRepository looks up and mutates HELOC accounts and their ledgers
type HelocRepository interface {
	FindHelocAccount(ctx context.Context, id string) (*domain.HelocAccount, error)
	ListHelocAccounts(ctx context.Context) ([]domain.HelocAccount, error)
	UpdateHelocAccount(ctx context.Context, id string, update domain.HelocAccountUpdate) (*domain.HelocAccount, error)
	AppendHelocTransaction(ctx context.Context, tx domain.HelocTransaction) (*domain.HelocTransaction, error)
	FindHelocTransactions(ctx context.Context, accountID string) ([]domain.HelocTransaction, error)
}

// StrategyRepository looks up Smith Maneuver strategies
type StrategyRepository interface {
	FindStrategy(ctx context.Context, id string) (*domain.SmithManeuverStrategy, error)
}

// CashFlowRepository looks up a user's monthly budget
type CashFlowRepository interface {
	FindCashFlow(ctx context.Context, userID string) (*domain.CashFlow, error)
}

// ReferenceRateProvider supplies the shared external rate (e.g. prime).
// Callers snapshot it once per logical operation.
type ReferenceRateProvider interface {
	CurrentReferenceRate(ctx context.Context) (domain.ReferenceRate, error)
}

// ReferenceRateFunc adapts a function to ReferenceRateProvider
type ReferenceRateFunc func(ctx context.Context) (domain.ReferenceRate, error)

func (f ReferenceRateFunc) CurrentReferenceRate(ctx context.Context) (domain.ReferenceRate, error) {
	return f(ctx)
}

// FixedReferenceRate always returns the same snapshot. Useful for tests and offline runs.
type FixedReferenceRate domain.ReferenceRate

func (r FixedReferenceRate) CurrentReferenceRate(context.Context) (domain.ReferenceRate, error) {
	return domain.ReferenceRate(r), nil
}

// NewFixedReferenceRate builds a FixedReferenceRate from a percentage
func NewFixedReferenceRate(rate decimal.Percentage, asOf time.Time) FixedReferenceRate {
	return FixedReferenceRate{Rate: rate, AsOf: asOf}
}

// Clock returns the current time
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// snapshotRate reads the provider once, wrapping failures as retryable.
func snapshotRate(ctx context.Context, p ReferenceRateProvider) (domain.ReferenceRate, error) {
	if p == nil {
		return domain.ReferenceRate{}, fmt.Errorf("no provider configured: %w", ErrRateUnavailable)
	}
	rate, err := p.CurrentReferenceRate(ctx)
	if err != nil {
		return domain.ReferenceRate{}, fmt.Errorf("%w: %w", ErrRateUnavailable, err)
	}
	return rate, nil
}
