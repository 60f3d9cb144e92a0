package calculation

import (
	"context"
	"fmt"
	"time"

	"github.com/mtrack/mortgage-engine/internal/domain"
	"github.com/mtrack/mortgage-engine/pkg/decimal"
)

// Ports bundles the lookups and providers the engine reads through. Any repository may be
// nil when the operations that need it are not used.
type Ports struct {
	Mortgages   MortgageRepository
	Helocs      HelocRepository
	Strategies  StrategyRepository
	CashFlows   CashFlowRepository
	Rates       ReferenceRateProvider
	TaxBrackets TaxBracketSource
	ImpactCache ImpactCache
	Clock       Clock
}

// Engine is the entry point for every mortgage, HELOC and strategy operation
type Engine struct {
	Ports

	Taxes     *TaxCalculator
	Triggers  *TriggerRateMonitor
	Heloc     *HelocService
	Projector *SmithManeuverProjector
	Insurance *InsuranceCalculator
	Impacts   *ImpactCalculator

	// TaxYear selects the bracket tables for derived marginal rates. Zero uses the clock's year.
	TaxYear int

	logger Logger
}

// NewEngine wires the calculators over the given ports
func NewEngine(ports Ports) *Engine {
	taxes := NewTaxCalculator(ports.TaxBrackets)

	triggers := NewTriggerRateMonitor(ports.Mortgages, ports.Rates)
	triggers.Clock = ports.Clock

	heloc := NewHelocService(ports.Helocs, ports.Mortgages, ports.Rates)
	heloc.Clock = ports.Clock

	impacts := NewImpactCalculator(ports.Mortgages, ports.ImpactCache)
	impacts.Clock = ports.Clock

	return &Engine{
		Ports:     ports,
		Taxes:     taxes,
		Triggers:  triggers,
		Heloc:     heloc,
		Projector: NewSmithManeuverProjector(taxes),
		Insurance: NewInsuranceCalculator(),
		Impacts:   impacts,
		logger:    NopLogger{},
	}
}

// SetLogger sets the logger for the engine and every calculator it owns. If nil is
// provided, a no-op logger is used.
func (e *Engine) SetLogger(l Logger) {
	e.logger = orNop(l)
	e.Triggers.SetLogger(l)
	e.Heloc.SetLogger(l)
	e.Insurance.SetLogger(l)
	e.Impacts.SetLogger(l)
}

func (e *Engine) log() Logger {
	return orNop(e.logger)
}

// SetConcurrency bounds parallel trigger evaluation in CheckAllTriggerRates
func (e *Engine) SetConcurrency(n int) {
	e.Triggers.Concurrency = n
}

func (e *Engine) now() time.Time {
	return e.Clock.now()
}

// CheckTriggerRate returns the trigger status of one mortgage, or nil when it does not apply
func (e *Engine) CheckTriggerRate(ctx context.Context, mortgageID string) (*domain.TriggerStatus, error) {
	return e.Triggers.Check(ctx, mortgageID)
}

// CheckAllTriggerRates returns every mortgage at RISK or HIT
func (e *Engine) CheckAllTriggerRates(ctx context.Context) ([]domain.TriggerStatus, error) {
	return e.Triggers.CheckAll(ctx)
}

// PrepaymentRoom returns the allowance for the current allowance year, or nil if the
// mortgage does not exist.
func (e *Engine) PrepaymentRoom(ctx context.Context, mortgageID string) (*domain.RoomResult, error) {
	m, payments, err := e.mortgageWithPayments(ctx, mortgageID)
	if err != nil || m == nil {
		return nil, err
	}
	room := Room(m, payments, e.now())
	return &room, nil
}

// PrepaymentOpportunity combines the room with the owner's cash-flow surplus
func (e *Engine) PrepaymentOpportunity(ctx context.Context, mortgageID string) (*domain.PrepaymentOpportunity, error) {
	m, payments, err := e.mortgageWithPayments(ctx, mortgageID)
	if err != nil || m == nil {
		return nil, err
	}

	var cashFlow *domain.CashFlow
	if e.CashFlows != nil {
		if cashFlow, err = e.CashFlows.FindCashFlow(ctx, m.UserID); err != nil {
			return nil, fmt.Errorf("find cash flow for %s: %w", m.UserID, err)
		}
	}
	opportunity := Opportunity(m, payments, cashFlow, e.now())
	return &opportunity, nil
}

func (e *Engine) mortgageWithPayments(ctx context.Context, mortgageID string) (*domain.Mortgage, []domain.MortgagePayment, error) {
	m, err := e.Mortgages.FindMortgage(ctx, mortgageID)
	if err != nil {
		return nil, nil, fmt.Errorf("find mortgage %s: %w", mortgageID, err)
	}
	if m == nil {
		return nil, nil, nil
	}
	payments, err := e.Mortgages.FindPaymentsForMortgage(ctx, mortgageID)
	if err != nil {
		return nil, nil, fmt.Errorf("find payments for mortgage %s: %w", mortgageID, err)
	}
	return m, payments, nil
}

// ValidatePrepayment checks a proposed prepayment against the mortgage's remaining room
func (e *Engine) ValidatePrepayment(ctx context.Context, mortgageID string, amount decimal.Money) error {
	room, err := e.PrepaymentRoom(ctx, mortgageID)
	if err != nil {
		return err
	}
	if room == nil {
		return notFound("mortgage", mortgageID)
	}
	return ValidatePrepayment(amount, *room)
}

// strategyInput resolves a strategy into a projection snapshot. The reference rate is read
// once here and shared by every projected year. A nil input means something is missing.
func (e *Engine) strategyInput(ctx context.Context, strategyID string) (*ProjectionInput, *domain.SmithManeuverStrategy, error) {
	s, err := e.Strategies.FindStrategy(ctx, strategyID)
	if err != nil {
		return nil, nil, fmt.Errorf("find strategy %s: %w", strategyID, err)
	}
	if s == nil {
		return nil, nil, nil
	}

	m, err := e.Mortgages.FindMortgage(ctx, s.MortgageID)
	if err != nil {
		return nil, nil, fmt.Errorf("find mortgage %s: %w", s.MortgageID, err)
	}
	account, err := e.Helocs.FindHelocAccount(ctx, s.HelocAccountID)
	if err != nil {
		return nil, nil, fmt.Errorf("find heloc account %s: %w", s.HelocAccountID, err)
	}
	if m == nil || account == nil {
		e.log().Warnf("strategy %s references a missing mortgage or HELOC account", strategyID)
		return nil, nil, nil
	}

	reference, err := snapshotRate(ctx, e.Rates)
	if err != nil {
		return nil, nil, err
	}

	marginal, err := e.marginalRate(s)
	if err != nil {
		return nil, nil, err
	}

	in := NewProjectionInput(s, m, account, reference.Rate, marginal)
	return &in, s, nil
}

// marginalRate prefers the strategy's own rate and otherwise derives it from income
func (e *Engine) marginalRate(s *domain.SmithManeuverStrategy) (decimal.Percentage, error) {
	if s.MarginalTaxRate != nil {
		return *s.MarginalTaxRate, nil
	}
	year := e.TaxYear
	if year == 0 {
		year = e.now().Year()
	}
	return e.Taxes.MarginalTaxRate(s.AnnualIncome, s.Province, year)
}

func horizon(s *domain.SmithManeuverStrategy, years int) int {
	if years > 0 {
		return years
	}
	return s.Horizon()
}

// ProjectStrategy runs the year-by-year projection. years <= 0 uses the strategy's horizon.
// A missing strategy, mortgage or account yields nil.
func (e *Engine) ProjectStrategy(ctx context.Context, strategyID string, years int) ([]domain.YearlyProjection, error) {
	in, s, err := e.strategyInput(ctx, strategyID)
	if err != nil || in == nil {
		return nil, err
	}
	n := horizon(s, years)
	e.log().Debugf("projecting strategy %s over %d years at reference %s", strategyID, n, in.ReferenceRate)
	return e.Projector.Project(*in, n), nil
}

// ROIAnalysis aggregates the strategy's projection
func (e *Engine) ROIAnalysis(ctx context.Context, strategyID string, years int) (*domain.ROIAnalysis, error) {
	projections, err := e.ProjectStrategy(ctx, strategyID, years)
	if err != nil || projections == nil {
		return nil, err
	}
	analysis := ROI(projections)
	return &analysis, nil
}

// CompareToDirectPrepayment weighs the strategy against prepaying the same cash directly
func (e *Engine) CompareToDirectPrepayment(ctx context.Context, strategyID string, years int, mortgageRate decimal.Percentage) (*domain.ComparisonResult, error) {
	projections, err := e.ProjectStrategy(ctx, strategyID, years)
	if err != nil || projections == nil {
		return nil, err
	}
	result := CompareToDirectPrepayment(projections, mortgageRate, len(projections))
	return &result, nil
}

// RecordBorrowing draws on a HELOC account
func (e *Engine) RecordBorrowing(ctx context.Context, req BorrowingRequest) (*domain.HelocTransaction, error) {
	return e.Heloc.RecordBorrowing(ctx, req)
}

// RecordRepayment pays down a HELOC account
func (e *Engine) RecordRepayment(ctx context.Context, req RepaymentRequest) (*domain.HelocTransaction, error) {
	return e.Heloc.RecordRepayment(ctx, req)
}

// RecalculateCreditLimit refreshes an account's limit from its linked mortgage balance
func (e *Engine) RecalculateCreditLimit(ctx context.Context, accountID, userID string) (*domain.HelocAccount, error) {
	return e.Heloc.RecalculateCreditLimit(ctx, accountID, userID)
}

// ApplyDrawPeriodTransitions converts every due account to principal plus interest
func (e *Engine) ApplyDrawPeriodTransitions(ctx context.Context) ([]domain.DrawPeriodTransition, error) {
	return e.Heloc.ApplyDrawPeriodTransitions(ctx, e.now())
}

// CreditRoomHistory replays the linked mortgage's payments into credit room snapshots.
// It returns nil when the account or its mortgage link is missing.
func (e *Engine) CreditRoomHistory(ctx context.Context, accountID string) ([]CreditRoomSnapshot, error) {
	account, err := e.Helocs.FindHelocAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("find heloc account %s: %w", accountID, err)
	}
	if account == nil || account.MortgageID == "" {
		return nil, nil
	}
	payments, err := e.Mortgages.FindPaymentsForMortgage(ctx, account.MortgageID)
	if err != nil {
		return nil, fmt.Errorf("find payments for mortgage %s: %w", account.MortgageID, err)
	}
	return CreditRoomHistory(payments, account.HomeValue, account.MaxLTV, account.CurrentBalance), nil
}

// RateChangeImpacts evaluates every variable term active now against a reference rate move
func (e *Engine) RateChangeImpacts(ctx context.Context, oldRef, newRef decimal.Percentage) ([]Impact, error) {
	mortgages, err := e.Mortgages.ListMortgages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mortgages: %w", err)
	}

	asOf := e.now()
	var terms []domain.MortgageTerm
	for _, m := range mortgages {
		term, err := e.Mortgages.FindActiveTerm(ctx, m.ID, asOf)
		if err != nil {
			e.log().Errorf("find active term for mortgage %s: %v", m.ID, err)
			continue
		}
		if term != nil && term.Type() != domain.TermFixed {
			terms = append(terms, *term)
		}
	}
	return e.Impacts.CalculateImpacts(ctx, terms, oldRef, newRef), nil
}

// QuoteInsurance prices default insurance for one provider
func (e *Engine) QuoteInsurance(req InsuranceRequest) (InsuranceResult, error) {
	return e.Insurance.Calculate(req)
}

// CompareInsurance prices default insurance across every provider
func (e *Engine) CompareInsurance(req InsuranceRequest) []InsuranceResult {
	return e.Insurance.CompareProviders(req)
}
