package calculation

import (
	"fmt"
	"time"

	"github.com/mtrack/mortgage-engine/internal/domain"
	"github.com/mtrack/mortgage-engine/pkg/dateutil"
	"github.com/mtrack/mortgage-engine/pkg/decimal"
)

// allowanceAnchor is the date whose anniversaries start each allowance year
func allowanceAnchor(resetAnchor *time.Time, mortgageStart time.Time) time.Time {
	if resetAnchor != nil && !resetAnchor.IsZero() {
		return *resetAnchor
	}
	return mortgageStart
}

// AllowanceYear returns the allowance year containing date. Years run from one
// anniversary of the reset date (or, without one, of the mortgage start date) to the next.
func AllowanceYear(date time.Time, resetAnchor *time.Time, mortgageStart time.Time) int {
	return dateutil.AnniversaryYear(date, allowanceAnchor(resetAnchor, mortgageStart))
}

// AllowanceYearBounds returns [start, end) of an allowance year
func AllowanceYearBounds(year int, resetAnchor *time.Time, mortgageStart time.Time) (time.Time, time.Time) {
	return dateutil.AnniversaryBounds(year, allowanceAnchor(resetAnchor, mortgageStart))
}

// PrepaymentLimit is originalAmount × limit% plus any carried-forward room
func PrepaymentLimit(m *domain.Mortgage) decimal.Money {
	return m.OriginalAmount.MulPercentage(m.AnnualPrepaymentLimit).Add(m.CarryForwardRoom)
}

// RoomFromUsed computes the room given what has already been used this allowance year
func RoomFromUsed(m *domain.Mortgage, used decimal.Money) domain.RoomResult {
	limit := PrepaymentLimit(m)
	return domain.RoomResult{
		MortgageID: m.ID,
		Limit:      limit,
		Used:       used,
		Remaining:  limit.Sub(used).NonNegative(),
	}
}

// Room sums the prepayments made in the allowance year containing asOf
func Room(m *domain.Mortgage, payments []domain.MortgagePayment, asOf time.Time) domain.RoomResult {
	year := AllowanceYear(asOf, m.PrepaymentResetDate, m.StartDate)

	used := decimal.Zero()
	for _, p := range payments {
		if p.MortgageID != "" && p.MortgageID != m.ID {
			continue
		}
		if AllowanceYear(p.PaymentDate, m.PrepaymentResetDate, m.StartDate) != year {
			continue
		}
		used = used.Add(p.PrepaymentAmount)
	}

	result := RoomFromUsed(m, used)
	result.AllowanceYear = year
	result.YearStart, result.YearEnd = AllowanceYearBounds(year, m.PrepaymentResetDate, m.StartDate)
	return result
}

// ValidatePrepayment rejects prepayments that are not positive or exceed the remaining room
func ValidatePrepayment(amount decimal.Money, room domain.RoomResult) error {
	if !amount.IsPositive() {
		return newValidationError("amount", "Prepayment amount must be positive")
	}
	if amount.GreaterThan(room.Remaining) {
		return newValidationError("amount", fmt.Sprintf(
			"Prepayment of %s exceeds remaining prepayment room of %s", amount.Format(), room.Remaining.Format()))
	}
	return nil
}

// Recommend runs the prepayment advisory ladder:
// no surplus, room exhausted, room can be maxed within a year, or recurring prepayment.
func Recommend(monthlySurplus, remaining decimal.Money) domain.Recommendation {
	if !monthlySurplus.IsPositive() {
		return domain.Recommendation{
			Kind:    domain.ImproveCashFlow,
			Message: "Focus on improving cash flow before making prepayments.",
		}
	}
	if !remaining.IsPositive() {
		return domain.Recommendation{
			Kind:    domain.RoomExhausted,
			Message: "You have maximized your prepayment privileges for the year. Consider investing surplus.",
		}
	}

	months := remaining.Ratio(monthlySurplus)
	surplus := monthlySurplus.Decimal.StringFixed(0)
	annual := monthlySurplus.MulInt(12)

	if annual.GreaterThan(remaining) {
		return domain.Recommendation{
			Kind: domain.LumpSum,
			Message: fmt.Sprintf("You have $%s/mo surplus. You can maximize your prepayment limit in %s months.",
				surplus, months.StringFixed(1)),
			MonthsToExhaust: months,
		}
	}
	return domain.Recommendation{
		Kind:            domain.RecurringPrepayment,
		Message:         fmt.Sprintf("You have $%s/mo surplus. Consider setting up a recurring prepayment to save on interest.", surplus),
		MonthsToExhaust: months,
	}
}

// Opportunity combines the room, the cash-flow surplus and the advisory.
// A nil cash flow counts as no surplus.
func Opportunity(m *domain.Mortgage, payments []domain.MortgagePayment, cashFlow *domain.CashFlow, asOf time.Time) domain.PrepaymentOpportunity {
	room := Room(m, payments, asOf)
	surplus := decimal.Zero()
	if cashFlow != nil {
		surplus = cashFlow.Surplus()
	}
	return domain.PrepaymentOpportunity{
		Room:           room,
		MonthlySurplus: surplus,
		Recommendation: Recommend(surplus, room.Remaining),
	}
}
