package domain

import (
	"time"

	"github.com/mtrack/mortgage-engine/pkg/decimal"
)

// PaymentMode is the HELOC minimum-payment regime
type PaymentMode string

const (
	InterestOnly          PaymentMode = "interest_only"
	PrincipalPlusInterest PaymentMode = "principal_plus_interest"
)

// HelocAccount is a home-equity line of credit, optionally coupled to a re-advanceable mortgage
type HelocAccount struct {
	ID             string             `yaml:"id" json:"id"`
	UserID         string             `yaml:"user_id" json:"user_id"`
	CreditLimit    decimal.Money      `yaml:"credit_limit" json:"credit_limit"`
	CurrentBalance decimal.Money      `yaml:"current_balance" json:"current_balance"`
	InterestSpread decimal.Percentage `yaml:"interest_spread" json:"interest_spread"`
	MaxLTV         decimal.Percentage `yaml:"max_ltv_percent" json:"max_ltv_percent"`
	HomeValue      decimal.Money      `yaml:"home_value" json:"home_value"`
	PaymentMode    PaymentMode        `yaml:"payment_mode" json:"payment_mode"`
	MinimumPayment decimal.Money      `yaml:"minimum_payment,omitempty" json:"minimum_payment"`
	DrawPeriodEnd  *time.Time         `yaml:"draw_period_end,omitempty" json:"draw_period_end,omitempty"`
	MortgageID     string             `yaml:"mortgage_id,omitempty" json:"mortgage_id,omitempty"`
	// TransitionedAt records when the draw period transition was applied.
	TransitionedAt *time.Time `yaml:"transitioned_at,omitempty" json:"transitioned_at,omitempty"`
}

// AvailableCredit returns the unused portion of the credit limit, never negative
func (a *HelocAccount) AvailableCredit() decimal.Money {
	return a.CreditLimit.Sub(a.CurrentBalance).NonNegative()
}

// HelocAccountUpdate carries the recomputed fields written back through the repository.
// Nil fields are left unchanged.
type HelocAccountUpdate struct {
	CreditLimit    *decimal.Money
	CurrentBalance *decimal.Money
	HomeValue      *decimal.Money
	PaymentMode    *PaymentMode
	MinimumPayment *decimal.Money
	TransitionedAt *time.Time
}

// Apply copies the set fields onto the account
func (u HelocAccountUpdate) Apply(a *HelocAccount) {
	if u.CreditLimit != nil {
		a.CreditLimit = *u.CreditLimit
	}
	if u.CurrentBalance != nil {
		a.CurrentBalance = *u.CurrentBalance
	}
	if u.HomeValue != nil {
		a.HomeValue = *u.HomeValue
	}
	if u.PaymentMode != nil {
		a.PaymentMode = *u.PaymentMode
	}
	if u.MinimumPayment != nil {
		a.MinimumPayment = *u.MinimumPayment
	}
	if u.TransitionedAt != nil {
		t := *u.TransitionedAt
		a.TransitionedAt = &t
	}
}

// TransactionType distinguishes HELOC ledger entries
type TransactionType string

const (
	Borrowing TransactionType = "borrowing"
	Repayment TransactionType = "repayment"
)

// RepaymentType describes how a repayment is applied
type RepaymentType string

const (
	RepayInterestOnly      RepaymentType = "interest_only"
	RepayInterestPrincipal RepaymentType = "interest_principal"
	RepayFull              RepaymentType = "full"
)

// HelocTransaction is an immutable HELOC ledger entry
type HelocTransaction struct {
	ID              string             `yaml:"id" json:"id"`
	AccountID       string             `yaml:"account_id" json:"account_id"`
	Date            time.Time          `yaml:"date" json:"date"`
	Type            TransactionType    `yaml:"type" json:"type"`
	RepaymentType   RepaymentType      `yaml:"repayment_type,omitempty" json:"repayment_type,omitempty"`
	Amount          decimal.Money      `yaml:"amount" json:"amount"`
	BalanceBefore   decimal.Money      `yaml:"balance_before" json:"balance_before"`
	BalanceAfter    decimal.Money      `yaml:"balance_after" json:"balance_after"`
	AvailableBefore decimal.Money      `yaml:"available_before" json:"available_before"`
	AvailableAfter  decimal.Money      `yaml:"available_after" json:"available_after"`
	ReferenceRate   decimal.Percentage `yaml:"reference_rate" json:"reference_rate"`
	InterestRate    decimal.Percentage `yaml:"interest_rate" json:"interest_rate"`
	Description     string             `yaml:"description,omitempty" json:"description,omitempty"`
}
