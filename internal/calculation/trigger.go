package calculation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mtrack/mortgage-engine/internal/domain"
	"github.com/mtrack/mortgage-engine/pkg/decimal"
)

// TRIGGER RATE ASSUMPTIONS:
//
// 1. Only variable-fixed terms have a trigger rate. The payment is fixed and the
//    rate floats, so the trigger is the rate at which the payment is all interest.
//
// 2. The balance is the remaining balance of the latest payment recorded against the
//    active term, or the mortgage's stored balance if nothing has been recorded yet.
//
// 3. RISK means the current rate is below the trigger by at most half a point.

// riskMargin is 0.5 percentage points as a decimal fraction
var riskMargin = decimal.RequireRate("0.005")

// ActiveTerm returns the term whose date range contains asOf, or nil.
// When ranges overlap the term that started last wins.
func ActiveTerm(terms []domain.MortgageTerm, asOf time.Time) *domain.MortgageTerm {
	var active *domain.MortgageTerm
	for i := range terms {
		t := &terms[i]
		if !t.Contains(asOf) {
			continue
		}
		if active == nil || t.StartDate.After(active.StartDate) {
			active = t
		}
	}
	return active
}

// latestBalance resolves the balance from the most recent payment on termID
func latestBalance(m *domain.Mortgage, termID string, payments []domain.MortgagePayment) decimal.Money {
	var latest *domain.MortgagePayment
	for i := range payments {
		p := &payments[i]
		if p.TermID != termID {
			continue
		}
		if latest == nil || !p.PaymentDate.Before(latest.PaymentDate) {
			latest = p
		}
	}
	if latest == nil {
		return m.CurrentBalance
	}
	return latest.RemainingBalance
}

// Evaluate classifies a mortgage against its trigger rate. It is a pure function of its inputs.
func Evaluate(m *domain.Mortgage, terms []domain.MortgageTerm, payments []domain.MortgagePayment, reference decimal.Percentage, asOf time.Time) domain.TriggerStatus {
	status := domain.TriggerStatus{
		MortgageID:    m.ID,
		UserID:        m.UserID,
		ReferenceRate: reference,
		AsOf:          asOf,
	}

	term := ActiveTerm(terms, asOf)
	if term == nil {
		status.State = domain.NoActiveTerm
		return status
	}
	status.TermID = term.ID

	rate, ok := term.Rate.(domain.VariableFixed)
	if !ok {
		status.State = domain.NotApplicable
		return status
	}

	frequency := term.PaymentFrequency
	if frequency == "" {
		frequency = m.PaymentFrequency
	}

	balance := latestBalance(m, term.ID, payments)
	current := rate.AnnualRate(reference)
	trigger := CalculateTriggerRate(term.RegularPayment, balance, frequency)

	status.Balance = balance
	status.PaymentAmount = term.RegularPayment
	status.LockedSpread = rate.Spread
	status.CurrentRate = current
	status.TriggerRate = trigger.Percentage()
	// a paid-off balance has no trigger rate to reach
	if !balance.IsPositive() {
		status.State = domain.TriggerSafe
		return status
	}
	status.IsHit = current.Rate().AtLeast(trigger)
	status.IsRisk = !status.IsHit && riskMargin.AtLeast(trigger.Sub(current.Rate()))

	switch {
	case status.IsHit:
		status.State = domain.TriggerHit
	case status.IsRisk:
		status.State = domain.TriggerRisk
	default:
		status.State = domain.TriggerSafe
	}
	return status
}

// TriggerRateMonitor evaluates mortgages on demand through the repository ports
type TriggerRateMonitor struct {
	Mortgages MortgageRepository
	Rates     ReferenceRateProvider
	Clock     Clock
	// Concurrency bounds parallel evaluation in CheckAll. Values below 2 run sequentially.
	Concurrency int

	logger Logger
}

// NewTriggerRateMonitor creates a monitor over the given repository and rate provider
func NewTriggerRateMonitor(mortgages MortgageRepository, rates ReferenceRateProvider) *TriggerRateMonitor {
	return &TriggerRateMonitor{
		Mortgages: mortgages,
		Rates:     rates,
		logger:    NopLogger{},
	}
}

// SetLogger sets the logger for the monitor
func (tm *TriggerRateMonitor) SetLogger(l Logger) {
	tm.logger = orNop(l)
}

func (tm *TriggerRateMonitor) log() Logger {
	return orNop(tm.logger)
}

// resolveReference snapshots the provider, falling back to the term's own snapshot when
// no provider is configured.
func (tm *TriggerRateMonitor) resolveReference(ctx context.Context, term *domain.MortgageTerm) (decimal.Percentage, error) {
	if tm.Rates == nil {
		if vf, ok := term.Rate.(domain.VariableFixed); ok {
			return vf.ReferenceRate, nil
		}
		return decimal.Percentage{}, nil
	}
	ref, err := snapshotRate(ctx, tm.Rates)
	if err != nil {
		return decimal.Percentage{}, err
	}
	return ref.Rate, nil
}

// Check returns the trigger status of one mortgage. It returns nil without error when the
// mortgage does not exist, has no active term or is not on a variable-fixed term.
func (tm *TriggerRateMonitor) Check(ctx context.Context, mortgageID string) (*domain.TriggerStatus, error) {
	m, err := tm.Mortgages.FindMortgage(ctx, mortgageID)
	if err != nil {
		return nil, fmt.Errorf("find mortgage %s: %w", mortgageID, err)
	}
	if m == nil {
		return nil, nil
	}
	return tm.check(ctx, m, nil)
}

// check evaluates m. A nil reference triggers a provider snapshot.
func (tm *TriggerRateMonitor) check(ctx context.Context, m *domain.Mortgage, reference *decimal.Percentage) (*domain.TriggerStatus, error) {
	asOf := tm.Clock.now()

	terms, err := tm.Mortgages.FindTerms(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("find terms for %s: %w", m.ID, err)
	}
	term := ActiveTerm(terms, asOf)
	if term == nil || term.Type() != domain.TermVariableFixed {
		return nil, nil
	}

	var ref decimal.Percentage
	if reference != nil {
		ref = *reference
	} else if ref, err = tm.resolveReference(ctx, term); err != nil {
		return nil, err
	}

	payments, err := tm.Mortgages.FindPaymentsForTerm(ctx, term.ID)
	if err != nil {
		return nil, fmt.Errorf("find payments for term %s: %w", term.ID, err)
	}

	status := Evaluate(m, terms, payments, ref, asOf)
	tm.log().Debugf("trigger check %s: state=%s current=%s trigger=%s", m.ID, status.State, status.CurrentRate, status.TriggerRate)
	return &status, nil
}

// CheckAll evaluates every mortgage and returns those in RISK or HIT, ordered by
// mortgage ID. A failure on one mortgage is logged and skipped. The reference rate is
// snapshotted once for the whole batch; a provider failure fails the batch.
func (tm *TriggerRateMonitor) CheckAll(ctx context.Context) ([]domain.TriggerStatus, error) {
	mortgages, err := tm.Mortgages.ListMortgages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mortgages: %w", err)
	}

	var reference *decimal.Percentage
	if tm.Rates != nil {
		ref, err := snapshotRate(ctx, tm.Rates)
		if err != nil {
			return nil, err
		}
		reference = &ref.Rate
	}

	statuses := make([]*domain.TriggerStatus, len(mortgages))
	evaluate := func(i int) {
		m := &mortgages[i]
		defer func() {
			if r := recover(); r != nil {
				tm.log().Errorf("trigger check panicked for mortgage %s: %v", m.ID, r)
			}
		}()
		status, err := tm.check(ctx, m, reference)
		if err != nil {
			tm.log().Errorf("trigger check failed for mortgage %s: %v", m.ID, err)
			return
		}
		statuses[i] = status
	}

	if tm.Concurrency < 2 {
		for i := range mortgages {
			evaluate(i)
		}
	} else {
		var wg sync.WaitGroup
		semaphore := make(chan struct{}, tm.Concurrency)
		for i := range mortgages {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				semaphore <- struct{}{}
				defer func() { <-semaphore }()
				evaluate(i)
			}(i)
		}
		wg.Wait()
	}

	var alerts []domain.TriggerStatus
	for _, s := range statuses {
		if s != nil && s.Alerting() {
			alerts = append(alerts, *s)
		}
	}
	sort.SliceStable(alerts, func(i, j int) bool { return alerts[i].MortgageID < alerts[j].MortgageID })
	return alerts, nil
}
