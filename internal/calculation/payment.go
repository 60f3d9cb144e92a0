package calculation

import (
	"math"

	"github.com/mtrack/mortgage-engine/internal/domain"
	"github.com/mtrack/mortgage-engine/pkg/decimal"
	sdec "github.com/shopspring/decimal"
)

// PAYMENT MATH CONVENTIONS:
//
// 1. Annual nominal rates compound semi-annually (Canadian convention):
//    EAR = (1 + r/2)^2 - 1, periodic = (1 + EAR)^(1/n) - 1
//
// 2. Accelerated schedules split the monthly payment: biweekly pays monthly/2,
//    weekly pays monthly/4. The split is not rounded so it is exactly half
//    (or a quarter) of the monthly amount; rounding happens at output.
//
// 3. Standard payments are rounded to the cent.
//
// Fractional exponents go through float64 here and nowhere else.

// PeriodicRate converts an annual nominal rate to the effective rate per payment period
func PeriodicRate(annual decimal.Rate, f domain.Frequency) decimal.Rate {
	n := f.PeriodsPerYear()
	if n == 0 || annual.IsZero() {
		return decimal.Rate{}
	}
	semiAnnual := annual.InexactFloat64() / 2
	periodic := math.Pow(1+semiAnnual, 2/float64(n)) - 1
	return decimal.RateFromDecimal(sdec.NewFromFloat(periodic))
}

// CalculatePayment returns the regular payment that amortizes balance over
// amortizationMonths at the annual nominal rate.
func CalculatePayment(balance decimal.Money, annual decimal.Rate, amortizationMonths int, f domain.Frequency) decimal.Money {
	if !balance.IsPositive() || amortizationMonths <= 0 || !f.Valid() {
		return decimal.Zero()
	}

	switch f {
	case domain.AcceleratedBiweekly:
		return CalculatePayment(balance, annual, amortizationMonths, domain.Monthly).DivInt(2)
	case domain.AcceleratedWeekly:
		return CalculatePayment(balance, annual, amortizationMonths, domain.Monthly).DivInt(4)
	}

	ppy := f.PeriodsPerYear()
	// total payments = months / 12 × periods per year
	periods := sdec.NewFromInt(int64(amortizationMonths)).Mul(sdec.NewFromInt(int64(ppy))).Div(sdec.NewFromInt(12))

	if annual.IsZero() {
		return balance.Div(periods).Round()
	}
	return annuity(balance, PeriodicRate(annual, f), periods.InexactFloat64()).Round()
}

// AnnuityPayment is the level payment P·i/(1-(1+i)^-n), rounded to the cent
func AnnuityPayment(principal decimal.Money, periodic decimal.Rate, periods int) decimal.Money {
	if !principal.IsPositive() || periods <= 0 {
		return decimal.Zero()
	}
	if periodic.IsZero() {
		return principal.DivInt(int64(periods)).Round()
	}
	return annuity(principal, periodic, float64(periods)).Round()
}

func annuity(principal decimal.Money, periodic decimal.Rate, periods float64) decimal.Money {
	discount := sdec.NewFromFloat(math.Pow(1+periodic.InexactFloat64(), -periods))
	denominator := sdec.NewFromInt(1).Sub(discount)
	if !denominator.IsPositive() {
		return decimal.Zero()
	}
	return principal.MulRate(periodic).Div(denominator)
}

// CalculateTriggerRate returns the annual rate at which payment covers interest only:
// payment × periodsPerYear / balance. A non-positive balance yields 0.
func CalculateTriggerRate(payment, balance decimal.Money, f domain.Frequency) decimal.Rate {
	if !balance.IsPositive() || !f.Valid() {
		return decimal.Rate{}
	}
	return decimal.RateFromDecimal(payment.MulInt(int64(f.PeriodsPerYear())).Ratio(balance))
}

// InterestOnlyPayment is the per-period interest at a simple nominal rate,
// balance × annual / periodsPerYear. It is the inverse of CalculateTriggerRate.
func InterestOnlyPayment(balance decimal.Money, annual decimal.Rate, f domain.Frequency) decimal.Money {
	if !balance.IsPositive() || !f.Valid() {
		return decimal.Zero()
	}
	return balance.MulRate(annual).DivInt(int64(f.PeriodsPerYear()))
}

// InterestPortion is the interest charged on balance for one period, rounded to the cent
func InterestPortion(balance decimal.Money, annual decimal.Rate, f domain.Frequency) decimal.Money {
	if !balance.IsPositive() {
		return decimal.Zero()
	}
	return balance.MulRate(PeriodicRate(annual, f)).Round()
}

// RemainingAmortizationMonths estimates the months left to pay off balance with the
// given payment. Returns -1 when the payment does not cover interest.
func RemainingAmortizationMonths(balance, payment decimal.Money, annual decimal.Rate, f domain.Frequency) int {
	if !balance.IsPositive() {
		return 0
	}
	if !payment.IsPositive() || !f.Valid() {
		return -1
	}
	ppy := float64(f.PeriodsPerYear())
	if annual.IsZero() {
		remaining := balance.Ratio(payment).InexactFloat64()
		return int(math.Round(remaining / ppy * 12))
	}

	i := PeriodicRate(annual, f).InexactFloat64()
	b := balance.InexactFloat64()
	p := payment.InexactFloat64()
	if p <= b*i {
		return -1
	}
	// n = -ln(1 - i·B/P) / ln(1 + i)
	n := -math.Log(1-i*b/p) / math.Log(1+i)
	return int(math.Round(n / ppy * 12))
}
