// Package store holds portfolio data in memory behind the engine's repository ports.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mtrack/mortgage-engine/internal/calculation"
	"github.com/mtrack/mortgage-engine/internal/domain"
)

// ErrNoReferenceRate is returned when the portfolio carries no reference rate snapshot
var ErrNoReferenceRate = errors.New("portfolio has no reference rate")

var (
	_ calculation.MortgageRepository    = (*Memory)(nil)
	_ calculation.HelocRepository       = (*Memory)(nil)
	_ calculation.StrategyRepository    = (*Memory)(nil)
	_ calculation.CashFlowRepository    = (*Memory)(nil)
	_ calculation.ReferenceRateProvider = (*Memory)(nil)
)

// Memory is a portfolio held in memory. It is safe for concurrent use and hands out
// copies, so callers never share state with the store.
type Memory struct {
	mu        sync.RWMutex
	portfolio domain.Portfolio
	newID     func() string
}

// NewMemory copies the portfolio into a new store. Payments and transactions without an
// ID are given one.
func NewMemory(p *domain.Portfolio) *Memory {
	s := &Memory{newID: uuid.NewString}
	if p != nil {
		s.portfolio = clonePortfolio(p)
	}
	for i := range s.portfolio.Payments {
		if s.portfolio.Payments[i].ID == "" {
			s.portfolio.Payments[i].ID = s.newID()
		}
	}
	for i := range s.portfolio.Transactions {
		if s.portfolio.Transactions[i].ID == "" {
			s.portfolio.Transactions[i].ID = s.newID()
		}
	}
	return s
}

func clonePortfolio(p *domain.Portfolio) domain.Portfolio {
	out := *p
	if p.ReferenceRate != nil {
		ref := *p.ReferenceRate
		out.ReferenceRate = &ref
	}
	out.Mortgages = append([]domain.Mortgage(nil), p.Mortgages...)
	out.Terms = append([]domain.MortgageTerm(nil), p.Terms...)
	out.Payments = append([]domain.MortgagePayment(nil), p.Payments...)
	out.HelocAccounts = append([]domain.HelocAccount(nil), p.HelocAccounts...)
	out.Transactions = append([]domain.HelocTransaction(nil), p.Transactions...)
	out.Strategies = append([]domain.SmithManeuverStrategy(nil), p.Strategies...)
	out.CashFlows = append([]domain.CashFlow(nil), p.CashFlows...)
	return out
}

// Snapshot returns a copy of the current portfolio, including any writes
func (s *Memory) Snapshot() domain.Portfolio {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePortfolio(&s.portfolio)
}

// SetReferenceRate replaces the reference rate snapshot served by CurrentReferenceRate
func (s *Memory) SetReferenceRate(rate domain.ReferenceRate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.portfolio.ReferenceRate = &rate
}

// CurrentReferenceRate serves the portfolio's reference rate snapshot
func (s *Memory) CurrentReferenceRate(context.Context) (domain.ReferenceRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.portfolio.ReferenceRate == nil {
		return domain.ReferenceRate{}, ErrNoReferenceRate
	}
	return *s.portfolio.ReferenceRate, nil
}

func (s *Memory) FindMortgage(_ context.Context, id string) (*domain.Mortgage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m := s.portfolio.MortgageByID(id); m != nil {
		out := *m
		return &out, nil
	}
	return nil, nil
}

// ListMortgages returns every mortgage ordered by ID
func (s *Memory) ListMortgages(context.Context) ([]domain.Mortgage, error) {
	s.mu.RLock()
	out := append([]domain.Mortgage(nil), s.portfolio.Mortgages...)
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Memory) FindTerms(_ context.Context, mortgageID string) ([]domain.MortgageTerm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.portfolio.TermsFor(mortgageID), nil
}

func (s *Memory) FindActiveTerm(ctx context.Context, mortgageID string, asOf time.Time) (*domain.MortgageTerm, error) {
	terms, err := s.FindTerms(ctx, mortgageID)
	if err != nil {
		return nil, err
	}
	return calculation.ActiveTerm(terms, asOf), nil
}

// FindPaymentsForTerm returns the term's payments ordered by date
func (s *Memory) FindPaymentsForTerm(_ context.Context, termID string) ([]domain.MortgagePayment, error) {
	return s.payments(func(p *domain.MortgagePayment) bool { return p.TermID == termID }), nil
}

// FindPaymentsForMortgage returns the mortgage's payments ordered by date
func (s *Memory) FindPaymentsForMortgage(_ context.Context, mortgageID string) ([]domain.MortgagePayment, error) {
	return s.payments(func(p *domain.MortgagePayment) bool { return p.MortgageID == mortgageID }), nil
}

func (s *Memory) payments(match func(*domain.MortgagePayment) bool) []domain.MortgagePayment {
	s.mu.RLock()
	var out []domain.MortgagePayment
	for i := range s.portfolio.Payments {
		if match(&s.portfolio.Payments[i]) {
			out = append(out, s.portfolio.Payments[i])
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].PaymentDate.Before(out[j].PaymentDate) })
	return out
}

func (s *Memory) FindHelocAccount(_ context.Context, id string) (*domain.HelocAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a := s.portfolio.HelocAccountByID(id); a != nil {
		out := *a
		return &out, nil
	}
	return nil, nil
}

// ListHelocAccounts returns every account ordered by ID
func (s *Memory) ListHelocAccounts(context.Context) ([]domain.HelocAccount, error) {
	s.mu.RLock()
	out := append([]domain.HelocAccount(nil), s.portfolio.HelocAccounts...)
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Memory) UpdateHelocAccount(_ context.Context, id string, update domain.HelocAccountUpdate) (*domain.HelocAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.portfolio.HelocAccountByID(id)
	if a == nil {
		return nil, fmt.Errorf("heloc account %s: %w", id, calculation.ErrNotFound)
	}
	update.Apply(a)
	out := *a
	return &out, nil
}

// AppendHelocTransaction stores the transaction, assigning an ID when it has none
func (s *Memory) AppendHelocTransaction(_ context.Context, tx domain.HelocTransaction) (*domain.HelocTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.portfolio.HelocAccountByID(tx.AccountID) == nil {
		return nil, fmt.Errorf("heloc account %s: %w", tx.AccountID, calculation.ErrNotFound)
	}
	if tx.ID == "" {
		tx.ID = s.newID()
	}
	s.portfolio.Transactions = append(s.portfolio.Transactions, tx)
	return &tx, nil
}

// FindHelocTransactions returns the account's transactions in the order they were appended
func (s *Memory) FindHelocTransactions(_ context.Context, accountID string) ([]domain.HelocTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.HelocTransaction
	for _, tx := range s.portfolio.Transactions {
		if tx.AccountID == accountID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *Memory) FindStrategy(_ context.Context, id string) (*domain.SmithManeuverStrategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.portfolio.Strategies {
		if s.portfolio.Strategies[i].ID == id {
			out := s.portfolio.Strategies[i]
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Memory) FindCashFlow(_ context.Context, userID string) (*domain.CashFlow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.portfolio.CashFlows {
		if s.portfolio.CashFlows[i].UserID == userID {
			out := s.portfolio.CashFlows[i]
			return &out, nil
		}
	}
	return nil, nil
}
