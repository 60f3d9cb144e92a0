package domain

import (
	"time"

	"github.com/mtrack/mortgage-engine/pkg/decimal"
	sdec "github.com/shopspring/decimal"
)

// TriggerState classifies a mortgage's exposure to its trigger rate
type TriggerState string

const (
	NoActiveTerm  TriggerState = "NO_ACTIVE_TERM"
	NotApplicable TriggerState = "NOT_APPLICABLE"
	TriggerSafe   TriggerState = "SAFE"
	TriggerRisk   TriggerState = "RISK"
	TriggerHit    TriggerState = "HIT"
)

// TriggerStatus is the result of a trigger rate check
type TriggerStatus struct {
	MortgageID    string             `json:"mortgage_id"`
	UserID        string             `json:"user_id"`
	TermID        string             `json:"term_id,omitempty"`
	State         TriggerState       `json:"state"`
	CurrentRate   decimal.Percentage `json:"current_rate_percent"`
	TriggerRate   decimal.Percentage `json:"trigger_rate_percent"`
	IsHit         bool               `json:"is_hit"`
	IsRisk        bool               `json:"is_risk"`
	Balance       decimal.Money      `json:"balance"`
	PaymentAmount decimal.Money      `json:"payment_amount"`
	ReferenceRate decimal.Percentage `json:"reference_rate_percent"`
	LockedSpread  decimal.Percentage `json:"locked_spread_percent"`
	AsOf          time.Time          `json:"as_of"`
}

// Alerting reports whether the status warrants a notification
func (s *TriggerStatus) Alerting() bool {
	return s.State == TriggerRisk || s.State == TriggerHit
}

// RoomResult is the prepayment allowance for the current allowance year
type RoomResult struct {
	MortgageID    string        `json:"mortgage_id,omitempty"`
	AllowanceYear int           `json:"allowance_year"`
	YearStart     time.Time     `json:"year_start"`
	YearEnd       time.Time     `json:"year_end"`
	Limit         decimal.Money `json:"limit"`
	Used          decimal.Money `json:"used"`
	Remaining     decimal.Money `json:"remaining"`
}

// RecommendationKind enumerates the prepayment advisories
type RecommendationKind string

const (
	ImproveCashFlow     RecommendationKind = "improve_cash_flow"
	RoomExhausted       RecommendationKind = "room_exhausted"
	LumpSum             RecommendationKind = "lump_sum"
	RecurringPrepayment RecommendationKind = "recurring_prepayment"
)

// Recommendation is a deterministic prepayment advisory
type Recommendation struct {
	Kind    RecommendationKind `json:"kind"`
	Message string             `json:"message"`
	// MonthsToExhaust is remaining room divided by monthly surplus, zero when not applicable.
	MonthsToExhaust sdec.Decimal `json:"months_to_exhaust"`
}

// PrepaymentOpportunity combines room, surplus and the resulting advisory
type PrepaymentOpportunity struct {
	Room           RoomResult     `json:"room"`
	MonthlySurplus decimal.Money  `json:"monthly_surplus"`
	Recommendation Recommendation `json:"recommendation"`
}

// YearlyProjection is one step of a Smith Maneuver projection
type YearlyProjection struct {
	Year               int           `json:"year"`
	MortgageBalance    decimal.Money `json:"mortgage_balance"`
	HelocBalance       decimal.Money `json:"heloc_balance"`
	InvestmentValue    decimal.Money `json:"investment_value"`
	Prepayment         decimal.Money `json:"prepayment"`
	TotalPrepayments   decimal.Money `json:"total_prepayments"`
	CreditRoomIncrease decimal.Money `json:"credit_room_increase"`
	Borrowing          decimal.Money `json:"borrowing"`
	TotalBorrowings    decimal.Money `json:"total_borrowings"`
	HelocInterest      decimal.Money `json:"heloc_interest"`
	InvestmentReturns  decimal.Money `json:"investment_returns"`
	InvestmentTax      decimal.Money `json:"investment_tax"`
	TaxSavings         decimal.Money `json:"tax_savings"`
	NetBenefit         decimal.Money `json:"net_benefit"`
	CumulativeBenefit  decimal.Money `json:"cumulative_net_benefit"`
	// LeverageRatio and InterestCoverage are nil when the denominator is zero.
	LeverageRatio    *sdec.Decimal `json:"leverage_ratio"`
	InterestCoverage *sdec.Decimal `json:"interest_coverage"`
}

// RiskLevel is a coarse risk band
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// ROIAnalysis aggregates a projection into return metrics. Percent fields are percentage points.
type ROIAnalysis struct {
	Years              int                `json:"years"`
	TotalBorrowed      decimal.Money      `json:"total_borrowed"`
	TotalReturns       decimal.Money      `json:"total_returns"`
	TotalInvestmentTax decimal.Money      `json:"total_investment_tax"`
	TotalHelocInterest decimal.Money      `json:"total_heloc_interest"`
	TotalTaxSavings    decimal.Money      `json:"total_tax_savings"`
	NetBenefit         decimal.Money      `json:"net_benefit"`
	ROI                decimal.Percentage `json:"roi_percent"`
	EffectiveReturn    decimal.Percentage `json:"effective_return_percent"`
	LeverageRisk       RiskLevel          `json:"leverage_risk,omitempty"`
	CoverageRisk       RiskLevel          `json:"coverage_risk,omitempty"`
}

// Strategy names used in comparisons
const (
	StrategySmithManeuver    = "smith_maneuver"
	StrategyDirectPrepayment = "direct_prepayment"
	StrategyTie              = "tie"
)

// StrategyOutcome is the net figure of one strategy in a comparison
type StrategyOutcome struct {
	NetBenefit       decimal.Money `json:"net_benefit"`
	TotalPrepayments decimal.Money `json:"total_prepayments,omitempty"`
	InterestSaved    decimal.Money `json:"interest_saved,omitempty"`
	InvestmentValue  decimal.Money `json:"investment_value,omitempty"`
}

// Advantage names the winner and by how much
type Advantage struct {
	Strategy string        `json:"strategy"`
	Amount   decimal.Money `json:"amount"`
}

// ComparisonResult contrasts the leveraged strategy with plain prepayment
type ComparisonResult struct {
	Years            int                `json:"years"`
	MortgageRate     decimal.Percentage `json:"mortgage_rate_percent"`
	SmithManeuver    StrategyOutcome    `json:"smith_maneuver"`
	DirectPrepayment StrategyOutcome    `json:"direct_prepayment"`
	Advantage        Advantage          `json:"advantage"`
}

// DrawPeriodTransition is the outcome of a draw period check for one account
type DrawPeriodTransition struct {
	AccountID      string        `json:"account_id"`
	UserID         string        `json:"user_id"`
	Due            bool          `json:"due"`
	OldMode        PaymentMode   `json:"old_mode"`
	NewMode        PaymentMode   `json:"new_mode"`
	OldPayment     decimal.Money `json:"old_payment"`
	NewPayment     decimal.Money `json:"new_payment"`
	TransitionDate time.Time     `json:"transition_date"`
}
