package calculation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mtrack/mortgage-engine/internal/domain"
	"github.com/mtrack/mortgage-engine/pkg/decimal"
)

// fakeRepo is a minimal in-memory implementation of every repository port
type fakeRepo struct {
	mu           sync.Mutex
	mortgages    []domain.Mortgage
	terms        []domain.MortgageTerm
	payments     []domain.MortgagePayment
	accounts     []domain.HelocAccount
	transactions []domain.HelocTransaction
	strategies   []domain.SmithManeuverStrategy
	cashFlows    []domain.CashFlow

	// failTerms makes FindTerms fail for the given mortgage IDs
	failTerms map[string]bool
	// failPayments makes FindPaymentsForTerm fail for the given term IDs
	failPayments map[string]bool
	updates      int
}

func (r *fakeRepo) FindMortgage(_ context.Context, id string) (*domain.Mortgage, error) {
	for i := range r.mortgages {
		if r.mortgages[i].ID == id {
			m := r.mortgages[i]
			return &m, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) ListMortgages(context.Context) ([]domain.Mortgage, error) {
	return append([]domain.Mortgage(nil), r.mortgages...), nil
}

func (r *fakeRepo) FindTerms(_ context.Context, mortgageID string) ([]domain.MortgageTerm, error) {
	if r.failTerms[mortgageID] {
		return nil, errors.New("terms unavailable")
	}
	var out []domain.MortgageTerm
	for _, t := range r.terms {
		if t.MortgageID == mortgageID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeRepo) FindActiveTerm(ctx context.Context, mortgageID string, asOf time.Time) (*domain.MortgageTerm, error) {
	terms, err := r.FindTerms(ctx, mortgageID)
	if err != nil {
		return nil, err
	}
	return ActiveTerm(terms, asOf), nil
}

func (r *fakeRepo) FindPaymentsForTerm(_ context.Context, termID string) ([]domain.MortgagePayment, error) {
	if r.failPayments[termID] {
		return nil, errors.New("payments unavailable")
	}
	var out []domain.MortgagePayment
	for _, p := range r.payments {
		if p.TermID == termID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) FindPaymentsForMortgage(_ context.Context, mortgageID string) ([]domain.MortgagePayment, error) {
	var out []domain.MortgagePayment
	for _, p := range r.payments {
		if p.MortgageID == mortgageID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) FindHelocAccount(_ context.Context, id string) (*domain.HelocAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.accounts {
		if r.accounts[i].ID == id {
			a := r.accounts[i]
			return &a, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) ListHelocAccounts(context.Context) ([]domain.HelocAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.HelocAccount(nil), r.accounts...), nil
}

func (r *fakeRepo) UpdateHelocAccount(_ context.Context, id string, update domain.HelocAccountUpdate) (*domain.HelocAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.accounts {
		if r.accounts[i].ID == id {
			update.Apply(&r.accounts[i])
			r.updates++
			a := r.accounts[i]
			return &a, nil
		}
	}
	return nil, fmt.Errorf("heloc account %s: %w", id, ErrNotFound)
}

func (r *fakeRepo) AppendHelocTransaction(_ context.Context, tx domain.HelocTransaction) (*domain.HelocTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions = append(r.transactions, tx)
	return &tx, nil
}

func (r *fakeRepo) FindHelocTransactions(_ context.Context, accountID string) ([]domain.HelocTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.HelocTransaction
	for _, tx := range r.transactions {
		if tx.AccountID == accountID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *fakeRepo) FindStrategy(_ context.Context, id string) (*domain.SmithManeuverStrategy, error) {
	for i := range r.strategies {
		if r.strategies[i].ID == id {
			s := r.strategies[i]
			return &s, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) FindCashFlow(_ context.Context, userID string) (*domain.CashFlow, error) {
	for i := range r.cashFlows {
		if r.cashFlows[i].UserID == userID {
			cf := r.cashFlows[i]
			return &cf, nil
		}
	}
	return nil, nil
}

// recordingLogger captures warning and error lines
type recordingLogger struct {
	NopLogger
	mu       sync.Mutex
	warnings []string
	errors   []string
}

func (l *recordingLogger) Warnf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Errorf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func pct(s string) decimal.Percentage {
	return decimal.RequirePercentage(s)
}

func money(s string) decimal.Money {
	return decimal.RequireMoney(s)
}
