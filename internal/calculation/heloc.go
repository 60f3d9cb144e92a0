package calculation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mtrack/mortgage-engine/internal/domain"
	"github.com/mtrack/mortgage-engine/pkg/dateutil"
	"github.com/mtrack/mortgage-engine/pkg/decimal"
)

// HELOC ASSUMPTIONS:
//
// 1. Credit limit = home value × max LTV - linked mortgage balance, floored at zero.
//
// 2. Interest accrues daily on an actual/365 basis at reference rate + spread.
//
// 3. Minimum payments use a simple monthly rate (annual / 12). After the draw period the
//    balance amortizes over a fixed 25 years.
//
// 4. The draw period ends at the start of its end date. The move to principal plus
//    interest happens once; the caller records TransitionedAt to keep it from repeating.

// ResidualAmortizationMonths is the repayment period after the draw period ends
const ResidualAmortizationMonths = 300

// CreditLimit is max(0, homeValue × maxLTV - mortgageBalance)
func CreditLimit(homeValue decimal.Money, maxLTV decimal.Percentage, mortgageBalance decimal.Money) decimal.Money {
	return homeValue.MulPercentage(maxLTV).Sub(mortgageBalance).NonNegative()
}

// AvailableCredit is max(0, creditLimit - balance)
func AvailableCredit(creditLimit, balance decimal.Money) decimal.Money {
	return creditLimit.Sub(balance).NonNegative()
}

// AccruedInterest is simple daily interest: balance × (reference + spread) / 365 × days
func AccruedInterest(balance decimal.Money, reference, spread decimal.Percentage, days int) decimal.Money {
	if !balance.IsPositive() || days <= 0 {
		return decimal.Zero()
	}
	annual := reference.Add(spread).Rate()
	return balance.MulRate(annual).DivInt(365).MulInt(int64(days))
}

// MonthlyInterest is the interest accrued over a month of daysInMonth days
func MonthlyInterest(balance decimal.Money, reference, spread decimal.Percentage, daysInMonth int) decimal.Money {
	return AccruedInterest(balance, reference, spread, daysInMonth)
}

// MinimumPayment returns the required monthly payment for the given mode, rounded to the cent
func MinimumPayment(balance decimal.Money, annual decimal.Rate, mode domain.PaymentMode) decimal.Money {
	if !balance.IsPositive() || annual.IsNegative() {
		return decimal.Zero()
	}
	monthly := annual.DivInt(12)
	if mode == domain.PrincipalPlusInterest {
		return AnnuityPayment(balance, monthly, ResidualAmortizationMonths)
	}
	return balance.MulRate(monthly).Round()
}

// DrawPeriodEnded reports whether asOf is on or after the account's draw period end date
func DrawPeriodEnded(account *domain.HelocAccount, asOf time.Time) bool {
	return account.DrawPeriodEnd != nil && dateutil.SameOrAfterDay(asOf, *account.DrawPeriodEnd)
}

// drawPeriodDue reports whether a transition should fire for the account
func drawPeriodDue(account *domain.HelocAccount, asOf time.Time) bool {
	return DrawPeriodEnded(account, asOf) &&
		account.TransitionedAt == nil &&
		account.CurrentBalance.IsPositive()
}

// DrawPeriodDecision decides whether the account moves from drawing to repaying.
// It never mutates the account; the caller persists the outcome.
func DrawPeriodDecision(account *domain.HelocAccount, reference decimal.Percentage, asOf time.Time) domain.DrawPeriodTransition {
	oldMode := account.PaymentMode
	if oldMode == "" {
		oldMode = domain.InterestOnly
	}

	decision := domain.DrawPeriodTransition{
		AccountID:  account.ID,
		UserID:     account.UserID,
		OldMode:    oldMode,
		NewMode:    oldMode,
		OldPayment: account.MinimumPayment,
		NewPayment: account.MinimumPayment,
	}
	if !drawPeriodDue(account, asOf) {
		return decision
	}

	annual := reference.Add(account.InterestSpread).Rate()
	decision.Due = true
	decision.NewMode = domain.PrincipalPlusInterest
	decision.NewPayment = MinimumPayment(account.CurrentBalance, annual, domain.PrincipalPlusInterest)
	decision.TransitionDate = dateutil.StartOfDay(*account.DrawPeriodEnd)
	return decision
}

// ValidateBorrowing checks a draw against the draw period and the available credit
func ValidateBorrowing(account *domain.HelocAccount, amount decimal.Money, asOf time.Time) error {
	if !amount.IsPositive() {
		return newValidationError("amount", "Borrowing amount must be positive")
	}
	if DrawPeriodEnded(account, asOf) {
		return newValidationErrorKind("date", ErrDrawPeriodEnded,
			"Borrowing is not allowed after the draw period ended on %s", account.DrawPeriodEnd.Format(time.DateOnly))
	}
	available := account.AvailableCredit()
	if amount.GreaterThan(available) {
		return newValidationErrorKind("amount", ErrInsufficientCredit,
			"Borrowing amount exceeds available credit. Available: $%s", available)
	}
	return nil
}

// RepaymentOutcome is the effect of a validated repayment
type RepaymentOutcome struct {
	InterestPortion  decimal.Money
	PrincipalPortion decimal.Money
	BalanceAfter     decimal.Money
}

// ValidateRepayment checks a repayment and computes the resulting balance. Interest for
// interest_principal payments accrues over the days in the month of date.
func ValidateRepayment(account *domain.HelocAccount, amount decimal.Money, kind domain.RepaymentType, reference decimal.Percentage, date time.Time) (RepaymentOutcome, error) {
	if !amount.IsPositive() {
		return RepaymentOutcome{}, newValidationError("amount", "Payment amount must be positive")
	}

	balance := account.CurrentBalance
	switch kind {
	case domain.RepayInterestOnly:
		return RepaymentOutcome{InterestPortion: amount, BalanceAfter: balance}, nil
	case domain.RepayFull:
		return RepaymentOutcome{PrincipalPortion: balance, BalanceAfter: decimal.Zero()}, nil
	case domain.RepayInterestPrincipal:
		interest := MonthlyInterest(balance, reference, account.InterestSpread, dateutil.DaysInMonth(date)).Round()
		if amount.LessThan(interest) {
			return RepaymentOutcome{}, newValidationErrorKind("amount", ErrPaymentBelowInterest,
				"Payment amount must be at least the interest portion: $%s", interest)
		}
		principal := amount.Sub(interest)
		return RepaymentOutcome{
			InterestPortion:  interest,
			PrincipalPortion: principal,
			BalanceAfter:     balance.Sub(principal).NonNegative(),
		}, nil
	}
	return RepaymentOutcome{}, newValidationError("payment_type", fmt.Sprintf("Unknown payment type: %s", kind))
}

// CreditRoomIncrease is the credit a prepayment unlocks on a re-advanceable mortgage.
// It never exceeds the prepayment itself.
func CreditRoomIncrease(prepayment, mortgageBalanceBefore, homeValue decimal.Money, maxLTV decimal.Percentage) decimal.Money {
	current := CreditLimit(homeValue, maxLTV, mortgageBalanceBefore)
	after := CreditLimit(homeValue, maxLTV, mortgageBalanceBefore.Sub(prepayment))
	return decimal.Min(after.Sub(current), prepayment)
}

// CreditRoomSnapshot is the credit room implied by one payment's remaining balance
type CreditRoomSnapshot struct {
	Date            time.Time     `json:"date"`
	MortgageBalance decimal.Money `json:"mortgage_balance"`
	CreditRoom      decimal.Money `json:"credit_room"`
	AvailableCredit decimal.Money `json:"available_credit"`
}

// CreditRoomHistory rebuilds credit room over the principal-reducing payments, oldest first
func CreditRoomHistory(payments []domain.MortgagePayment, homeValue decimal.Money, maxLTV decimal.Percentage, helocBalance decimal.Money) []CreditRoomSnapshot {
	var history []CreditRoomSnapshot
	for _, p := range payments {
		if !p.PrincipalPaid.IsPositive() {
			continue
		}
		room := CreditLimit(homeValue, maxLTV, p.RemainingBalance)
		history = append(history, CreditRoomSnapshot{
			Date:            p.PaymentDate,
			MortgageBalance: p.RemainingBalance,
			CreditRoom:      room,
			AvailableCredit: AvailableCredit(room, helocBalance),
		})
	}
	sort.SliceStable(history, func(i, j int) bool { return history[i].Date.Before(history[j].Date) })
	return history
}

// BorrowingRequest draws on a HELOC
type BorrowingRequest struct {
	AccountID   string
	UserID      string
	Amount      decimal.Money
	Date        time.Time
	Description string
}

// RepaymentRequest pays down a HELOC
type RepaymentRequest struct {
	AccountID   string
	UserID      string
	Amount      decimal.Money
	Date        time.Time
	Type        domain.RepaymentType
	Description string
}

// HelocService applies HELOC write operations through the repository ports
type HelocService struct {
	Accounts  HelocRepository
	Mortgages MortgageRepository
	Rates     ReferenceRateProvider
	Clock     Clock
	// NewID generates transaction IDs. Defaults to random UUIDs.
	NewID func() string

	logger Logger
}

// NewHelocService creates a HELOC service
func NewHelocService(accounts HelocRepository, mortgages MortgageRepository, rates ReferenceRateProvider) *HelocService {
	return &HelocService{
		Accounts:  accounts,
		Mortgages: mortgages,
		Rates:     rates,
		NewID:     uuid.NewString,
		logger:    NopLogger{},
	}
}

// SetLogger sets the logger for the service
func (s *HelocService) SetLogger(l Logger) {
	s.logger = orNop(l)
}

func (s *HelocService) log() Logger {
	return orNop(s.logger)
}

func (s *HelocService) newID() string {
	if s.NewID == nil {
		return uuid.NewString()
	}
	return s.NewID()
}

// ownedAccount loads an account for a write, enforcing existence and ownership
func (s *HelocService) ownedAccount(ctx context.Context, accountID, userID string) (*domain.HelocAccount, error) {
	account, err := s.Accounts.FindHelocAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("find heloc account %s: %w", accountID, err)
	}
	if account == nil {
		return nil, notFound("heloc account", accountID)
	}
	if account.UserID != userID {
		return nil, unauthorized("heloc account", accountID)
	}
	return account, nil
}

// RecordBorrowing validates a draw, appends the transaction and updates the balance
func (s *HelocService) RecordBorrowing(ctx context.Context, req BorrowingRequest) (*domain.HelocTransaction, error) {
	account, err := s.ownedAccount(ctx, req.AccountID, req.UserID)
	if err != nil {
		return nil, err
	}

	date := req.Date
	if date.IsZero() {
		date = s.Clock.now()
	}
	if err := ValidateBorrowing(account, req.Amount, date); err != nil {
		return nil, err
	}

	ref, err := snapshotRate(ctx, s.Rates)
	if err != nil {
		return nil, err
	}

	balanceAfter := account.CurrentBalance.Add(req.Amount)
	tx := domain.HelocTransaction{
		ID:              s.newID(),
		AccountID:       account.ID,
		Date:            date,
		Type:            domain.Borrowing,
		Amount:          req.Amount.Round(),
		BalanceBefore:   account.CurrentBalance.Round(),
		BalanceAfter:    balanceAfter.Round(),
		AvailableBefore: account.AvailableCredit().Round(),
		AvailableAfter:  AvailableCredit(account.CreditLimit, balanceAfter).Round(),
		ReferenceRate:   ref.Rate,
		InterestRate:    ref.Rate.Add(account.InterestSpread),
		Description:     req.Description,
	}
	return s.commit(ctx, account.ID, tx, balanceAfter)
}

// RecordRepayment validates a repayment, appends the transaction and updates the balance
func (s *HelocService) RecordRepayment(ctx context.Context, req RepaymentRequest) (*domain.HelocTransaction, error) {
	account, err := s.ownedAccount(ctx, req.AccountID, req.UserID)
	if err != nil {
		return nil, err
	}

	date := req.Date
	if date.IsZero() {
		date = s.Clock.now()
	}

	ref, err := snapshotRate(ctx, s.Rates)
	if err != nil {
		return nil, err
	}

	outcome, err := ValidateRepayment(account, req.Amount, req.Type, ref.Rate, date)
	if err != nil {
		return nil, err
	}

	tx := domain.HelocTransaction{
		ID:              s.newID(),
		AccountID:       account.ID,
		Date:            date,
		Type:            domain.Repayment,
		RepaymentType:   req.Type,
		Amount:          req.Amount.Round(),
		BalanceBefore:   account.CurrentBalance.Round(),
		BalanceAfter:    outcome.BalanceAfter.Round(),
		AvailableBefore: account.AvailableCredit().Round(),
		AvailableAfter:  AvailableCredit(account.CreditLimit, outcome.BalanceAfter).Round(),
		ReferenceRate:   ref.Rate,
		InterestRate:    ref.Rate.Add(account.InterestSpread),
		Description:     req.Description,
	}
	return s.commit(ctx, account.ID, tx, outcome.BalanceAfter)
}

func (s *HelocService) commit(ctx context.Context, accountID string, tx domain.HelocTransaction, balance decimal.Money) (*domain.HelocTransaction, error) {
	created, err := s.Accounts.AppendHelocTransaction(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("append heloc transaction: %w", err)
	}
	balance = balance.Round()
	if _, err := s.Accounts.UpdateHelocAccount(ctx, accountID, domain.HelocAccountUpdate{CurrentBalance: &balance}); err != nil {
		return nil, fmt.Errorf("update heloc account %s: %w", accountID, err)
	}
	s.log().Infof("heloc %s: %s of %s, balance now %s", accountID, tx.Type, tx.Amount, balance)
	return created, nil
}

// linkedMortgageBalance returns the balance of the account's mortgage, or zero when unlinked
func (s *HelocService) linkedMortgageBalance(ctx context.Context, account *domain.HelocAccount) (decimal.Money, error) {
	if account.MortgageID == "" || s.Mortgages == nil {
		return decimal.Zero(), nil
	}
	m, err := s.Mortgages.FindMortgage(ctx, account.MortgageID)
	if err != nil {
		return decimal.Money{}, fmt.Errorf("find mortgage %s: %w", account.MortgageID, err)
	}
	if m == nil {
		return decimal.Zero(), nil
	}
	return m.CurrentBalance, nil
}

// RecalculateCreditLimit recomputes the credit limit from the home value and the linked mortgage balance
func (s *HelocService) RecalculateCreditLimit(ctx context.Context, accountID, userID string) (*domain.HelocAccount, error) {
	account, err := s.ownedAccount(ctx, accountID, userID)
	if err != nil {
		return nil, err
	}
	balance, err := s.linkedMortgageBalance(ctx, account)
	if err != nil {
		return nil, err
	}
	limit := CreditLimit(account.HomeValue, account.MaxLTV, balance).Round()
	return s.Accounts.UpdateHelocAccount(ctx, account.ID, domain.HelocAccountUpdate{CreditLimit: &limit})
}

// ApplyPrepayment grows the credit limit of every account linked to mortgageID by the room
// the prepayment unlocks. Failures on one account are logged and skipped.
func (s *HelocService) ApplyPrepayment(ctx context.Context, mortgageID string, prepayment, balanceBefore decimal.Money) ([]domain.HelocAccount, error) {
	accounts, err := s.Accounts.ListHelocAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list heloc accounts: %w", err)
	}

	var updated []domain.HelocAccount
	for i := range accounts {
		account := &accounts[i]
		if account.MortgageID != mortgageID {
			continue
		}
		increase := CreditRoomIncrease(prepayment, balanceBefore, account.HomeValue, account.MaxLTV)
		limit := account.CreditLimit.Add(increase).Round()
		a, err := s.Accounts.UpdateHelocAccount(ctx, account.ID, domain.HelocAccountUpdate{CreditLimit: &limit})
		if err != nil {
			s.log().Errorf("credit room update failed for heloc %s: %v", account.ID, err)
			continue
		}
		updated = append(updated, *a)
	}
	return updated, nil
}

// ApplyDrawPeriodTransitions moves every account whose draw period has ended to principal
// plus interest and records TransitionedAt. Accounts already transitioned are skipped, so
// re-running is safe. The returned transitions are for the caller to notify on.
func (s *HelocService) ApplyDrawPeriodTransitions(ctx context.Context, asOf time.Time) ([]domain.DrawPeriodTransition, error) {
	accounts, err := s.Accounts.ListHelocAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list heloc accounts: %w", err)
	}

	var (
		reference *domain.ReferenceRate
		applied   []domain.DrawPeriodTransition
	)
	for i := range accounts {
		account := &accounts[i]
		if !drawPeriodDue(account, asOf) {
			continue
		}
		if reference == nil {
			ref, err := snapshotRate(ctx, s.Rates)
			if err != nil {
				return applied, err
			}
			reference = &ref
		}

		decision := DrawPeriodDecision(account, reference.Rate, asOf)
		transitioned := dateutil.StartOfDay(asOf)
		update := domain.HelocAccountUpdate{
			PaymentMode:    &decision.NewMode,
			MinimumPayment: &decision.NewPayment,
			TransitionedAt: &transitioned,
		}
		if _, err := s.Accounts.UpdateHelocAccount(ctx, account.ID, update); err != nil {
			s.log().Errorf("draw period transition failed for heloc %s: %v", account.ID, err)
			continue
		}
		s.log().Infof("heloc %s: draw period ended %s, minimum payment %s -> %s",
			account.ID, decision.TransitionDate.Format(time.DateOnly), decision.OldPayment, decision.NewPayment)
		applied = append(applied, decision)
	}
	return applied, nil
}
