package calculation

import (
	"context"
	"fmt"
	"sync"

	"github.com/mtrack/mortgage-engine/internal/domain"
	"github.com/mtrack/mortgage-engine/pkg/decimal"
)

// ImpactType classifies what a reference rate change does to a term
type ImpactType string

const (
	// ImpactPaymentChange applies to variable-changing terms whose payment is recalculated
	ImpactPaymentChange ImpactType = "payment_change"
	// ImpactTriggerRisk applies to variable-fixed terms pushed to or near their trigger rate
	ImpactTriggerRisk ImpactType = "trigger_risk"
)

// Impact is the effect of a reference rate move on one term
type Impact struct {
	TermID       string                `json:"term_id"`
	MortgageID   string                `json:"mortgage_id"`
	Type         ImpactType            `json:"type"`
	OldRate      decimal.Percentage    `json:"old_rate_percent"`
	NewRate      decimal.Percentage    `json:"new_rate_percent"`
	OldPayment   decimal.Money         `json:"old_payment"`
	NewPayment   decimal.Money         `json:"new_payment"`
	PaymentDelta decimal.Money         `json:"payment_delta"`
	Trigger      *domain.TriggerStatus `json:"trigger,omitempty"`
	Message      string                `json:"message"`
}

// ImpactCache stores the latest impact per term. It is owned by the caller; the
// calculator only reads and writes through it.
type ImpactCache interface {
	Get(termID string) (Impact, bool)
	Set(termID string, impact Impact)
	Invalidate(termID string)
}

// MemoryImpactCache is a process-local ImpactCache safe for concurrent use
type MemoryImpactCache struct {
	mu      sync.RWMutex
	impacts map[string]Impact
}

// NewMemoryImpactCache creates an empty cache
func NewMemoryImpactCache() *MemoryImpactCache {
	return &MemoryImpactCache{impacts: make(map[string]Impact)}
}

func (c *MemoryImpactCache) Get(termID string) (Impact, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	impact, ok := c.impacts[termID]
	return impact, ok
}

func (c *MemoryImpactCache) Set(termID string, impact Impact) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.impacts[termID] = impact
}

func (c *MemoryImpactCache) Invalidate(termID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.impacts, termID)
}

// ImpactCalculator works out what a reference rate change means for variable terms
type ImpactCalculator struct {
	Mortgages MortgageRepository
	// Cache is optional. When set, each computed impact replaces the term's entry.
	Cache ImpactCache
	Clock Clock

	logger Logger
}

// NewImpactCalculator creates a calculator. cache may be nil.
func NewImpactCalculator(mortgages MortgageRepository, cache ImpactCache) *ImpactCalculator {
	return &ImpactCalculator{Mortgages: mortgages, Cache: cache, logger: NopLogger{}}
}

// SetLogger sets the logger for the calculator
func (ic *ImpactCalculator) SetLogger(l Logger) {
	ic.logger = orNop(l)
}

// CalculateImpacts evaluates each term against the move from oldRef to newRef. Fixed
// terms and unaffected terms produce nothing. A failure on one term is logged and the
// rest are still evaluated.
func (ic *ImpactCalculator) CalculateImpacts(ctx context.Context, terms []domain.MortgageTerm, oldRef, newRef decimal.Percentage) []Impact {
	var impacts []Impact
	for i := range terms {
		term := &terms[i]
		impact, err := ic.termImpact(ctx, term, oldRef, newRef)
		if err != nil {
			orNop(ic.logger).Errorf("impact calculation failed for term %s: %v", term.ID, err)
			continue
		}
		if impact == nil {
			if ic.Cache != nil {
				ic.Cache.Invalidate(term.ID)
			}
			continue
		}
		if ic.Cache != nil {
			ic.Cache.Set(term.ID, *impact)
		}
		impacts = append(impacts, *impact)
	}
	return impacts
}

// LatestImpact returns the cached impact for the mortgage's active term, or nil
func (ic *ImpactCalculator) LatestImpact(ctx context.Context, mortgageID string) (*Impact, error) {
	if ic.Cache == nil {
		return nil, nil
	}
	term, err := ic.Mortgages.FindActiveTerm(ctx, mortgageID, ic.Clock.now())
	if err != nil {
		return nil, fmt.Errorf("find active term for %s: %w", mortgageID, err)
	}
	if term == nil {
		return nil, nil
	}
	impact, ok := ic.Cache.Get(term.ID)
	if !ok {
		return nil, nil
	}
	return &impact, nil
}

func (ic *ImpactCalculator) termImpact(ctx context.Context, term *domain.MortgageTerm, oldRef, newRef decimal.Percentage) (*Impact, error) {
	switch term.Type() {
	case domain.TermVariableChanging, domain.TermVariableFixed:
	default:
		return nil, nil
	}

	m, err := ic.Mortgages.FindMortgage(ctx, term.MortgageID)
	if err != nil {
		return nil, fmt.Errorf("find mortgage %s: %w", term.MortgageID, err)
	}
	if m == nil {
		return nil, nil
	}
	payments, err := ic.Mortgages.FindPaymentsForTerm(ctx, term.ID)
	if err != nil {
		return nil, fmt.Errorf("find payments for term %s: %w", term.ID, err)
	}

	if term.Type() == domain.TermVariableChanging {
		return ic.paymentImpact(m, term, payments, oldRef, newRef), nil
	}
	return ic.triggerImpact(m, term, payments, oldRef, newRef), nil
}

// paymentImpact recalculates a variable-changing payment over the remaining amortization
func (ic *ImpactCalculator) paymentImpact(m *domain.Mortgage, term *domain.MortgageTerm, payments []domain.MortgagePayment, oldRef, newRef decimal.Percentage) *Impact {
	frequency := term.PaymentFrequency
	if frequency == "" {
		frequency = m.PaymentFrequency
	}

	newRate := term.Rate.AnnualRate(newRef)
	balance := latestBalance(m, term.ID, payments)
	remaining := m.RemainingAmortizationMonths(ic.Clock.now())

	newPayment := CalculatePayment(balance, newRate.Rate(), remaining, frequency)
	delta := newPayment.Sub(term.RegularPayment)

	message := fmt.Sprintf("Your payment will increase by $%s", delta)
	if delta.IsNegative() {
		message = fmt.Sprintf("Your payment will decrease by $%s", decimal.NewMoneyFromDecimal(delta.Abs()))
	}

	return &Impact{
		TermID:       term.ID,
		MortgageID:   m.ID,
		Type:         ImpactPaymentChange,
		OldRate:      term.Rate.AnnualRate(oldRef),
		NewRate:      newRate,
		OldPayment:   term.RegularPayment,
		NewPayment:   newPayment,
		PaymentDelta: delta,
		Message:      message,
	}
}

// triggerImpact reports a variable-fixed term only when the new rate puts it at RISK or HIT
func (ic *ImpactCalculator) triggerImpact(m *domain.Mortgage, term *domain.MortgageTerm, payments []domain.MortgagePayment, oldRef, newRef decimal.Percentage) *Impact {
	status := Evaluate(m, []domain.MortgageTerm{*term}, payments, newRef, ic.Clock.now())
	if !status.Alerting() {
		return nil
	}

	message := "Approaching Trigger Rate"
	if status.IsHit {
		message = "Trigger Rate HIT"
	}
	return &Impact{
		TermID:       term.ID,
		MortgageID:   m.ID,
		Type:         ImpactTriggerRisk,
		OldRate:      term.Rate.AnnualRate(oldRef),
		NewRate:      status.CurrentRate,
		OldPayment:   term.RegularPayment,
		NewPayment:   term.RegularPayment,
		PaymentDelta: decimal.Zero(),
		Trigger:      &status,
		Message:      message,
	}
}
