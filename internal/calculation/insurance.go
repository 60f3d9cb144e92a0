package calculation

import (
	"fmt"

	"github.com/mtrack/mortgage-engine/pkg/decimal"
	sdec "github.com/shopspring/decimal"
)

// InsuranceProvider names a mortgage default insurer
type InsuranceProvider string

const (
	CMHC     InsuranceProvider = "CMHC"
	Sagen    InsuranceProvider = "Sagen"
	Genworth InsuranceProvider = "Genworth"
)

// InsuranceProviders lists every supported insurer in comparison order
func InsuranceProviders() []InsuranceProvider {
	return []InsuranceProvider{CMHC, Sagen, Genworth}
}

// PremiumPaymentType controls whether the premium is paid upfront or financed
type PremiumPaymentType string

const (
	PremiumUpfront          PremiumPaymentType = "upfront"
	PremiumAddedToPrincipal PremiumPaymentType = "added-to-principal"
)

// PremiumBand is an LTV band with an inclusive upper bound
type PremiumBand struct {
	MaxLTV decimal.Percentage
	Rate   decimal.Percentage
}

var highRatioThreshold = decimal.RequirePercentage("20")

func standardPremiumBands() []PremiumBand {
	return []PremiumBand{
		{decimal.RequirePercentage("75"), decimal.RequirePercentage("0.60")},
		{decimal.RequirePercentage("80"), decimal.RequirePercentage("1.70")},
		{decimal.RequirePercentage("85"), decimal.RequirePercentage("2.40")},
		{decimal.RequirePercentage("90"), decimal.RequirePercentage("2.80")},
		{decimal.RequirePercentage("95"), decimal.RequirePercentage("3.10")},
		{decimal.RequirePercentage("100"), decimal.RequirePercentage("4.00")},
	}
}

// premiumTables holds each insurer's bands. The three insurers currently publish the same rates.
var premiumTables = map[InsuranceProvider][]PremiumBand{
	CMHC:     standardPremiumBands(),
	Sagen:    standardPremiumBands(),
	Genworth: standardPremiumBands(),
}

// PremiumRate returns the premium for an LTV. Lower band bounds are exclusive, upper inclusive.
func PremiumRate(provider InsuranceProvider, ltv decimal.Percentage) (decimal.Percentage, error) {
	bands, ok := premiumTables[provider]
	if !ok {
		return decimal.Percentage{}, unknownProvider(provider)
	}
	for _, b := range bands {
		if ltv.LessThanOrEqual(b.MaxLTV.Decimal) {
			return b.Rate, nil
		}
	}
	return decimal.Percentage{}, newValidationError("ltv", fmt.Sprintf(
		"Invalid LTV ratio: %s. LTV must be between 65%% and 100%% for mortgage insurance.", ltv))
}

func unknownProvider(provider InsuranceProvider) error {
	return newValidationError("provider", fmt.Sprintf("Unknown insurance provider: %s", provider))
}

// InsuranceRequest describes a purchase to insure
type InsuranceRequest struct {
	PropertyPrice decimal.Money
	DownPayment   decimal.Money
	Provider      InsuranceProvider
	// MLISelectDiscount is 0, 10, 20 or 30 percent
	MLISelectDiscount decimal.Percentage
	PaymentType       PremiumPaymentType
}

// InsuranceResult is the premium quote for one provider
type InsuranceResult struct {
	Provider            InsuranceProvider  `json:"provider"`
	MortgageAmount      decimal.Money      `json:"mortgage_amount"`
	LTV                 decimal.Percentage `json:"ltv_percent"`
	HighRatio           bool               `json:"is_high_ratio"`
	PremiumRate         decimal.Percentage `json:"premium_rate_percent"`
	BasePremium         decimal.Money      `json:"base_premium"`
	Discount            decimal.Money      `json:"discount"`
	Premium             decimal.Money      `json:"premium"`
	TotalMortgageAmount decimal.Money      `json:"total_mortgage_amount"`
}

// InsuranceCalculator quotes mortgage default insurance premiums
type InsuranceCalculator struct {
	logger Logger
}

// NewInsuranceCalculator creates an insurance calculator
func NewInsuranceCalculator() *InsuranceCalculator {
	return &InsuranceCalculator{logger: NopLogger{}}
}

// SetLogger sets the logger for the calculator
func (ic *InsuranceCalculator) SetLogger(l Logger) {
	ic.logger = orNop(l)
}

var mliSelectDiscounts = []int64{0, 10, 20, 30}

func validMLIDiscount(p decimal.Percentage) bool {
	for _, allowed := range mliSelectDiscounts {
		if p.Equal(sdec.NewFromInt(allowed)) {
			return true
		}
	}
	return false
}

// Calculate quotes the premium for one provider. Purchases with at least 20% down are
// not high-ratio and carry no premium; high-ratio LTVs fall in (80%, 100%].
func (ic *InsuranceCalculator) Calculate(req InsuranceRequest) (InsuranceResult, error) {
	if !req.PropertyPrice.IsPositive() {
		return InsuranceResult{}, newValidationError("property_price", "Property price must be greater than zero")
	}
	if req.DownPayment.IsNegative() {
		return InsuranceResult{}, newValidationError("down_payment", "Down payment cannot be negative")
	}
	if req.DownPayment.GreaterThanOrEqual(req.PropertyPrice) {
		return InsuranceResult{}, newValidationError("down_payment", "Down payment cannot be greater than or equal to property price")
	}
	if !validMLIDiscount(req.MLISelectDiscount) {
		return InsuranceResult{}, newValidationError("mli_select_discount", "MLI Select discount must be 0, 10, 20 or 30 percent")
	}
	if _, ok := premiumTables[req.Provider]; !ok {
		return InsuranceResult{}, unknownProvider(req.Provider)
	}

	amount := req.PropertyPrice.Sub(req.DownPayment)
	ltv := decimal.PercentageFromDecimal(amount.Ratio(req.PropertyPrice).Mul(hundredDecimal))
	downPercent := decimal.PercentageFromDecimal(req.DownPayment.Ratio(req.PropertyPrice).Mul(hundredDecimal))

	result := InsuranceResult{
		Provider:            req.Provider,
		MortgageAmount:      amount,
		LTV:                 decimal.PercentageFromDecimal(ltv.Round(2)),
		BasePremium:         decimal.Zero(),
		Discount:            decimal.Zero(),
		Premium:             decimal.Zero(),
		TotalMortgageAmount: amount,
	}
	if !downPercent.LessThan(highRatioThreshold.Decimal) {
		return result, nil
	}
	result.HighRatio = true

	rate, err := PremiumRate(req.Provider, ltv)
	if err != nil {
		return InsuranceResult{}, err
	}

	base := amount.MulPercentage(rate)
	discount := base.MulPercentage(req.MLISelectDiscount)
	premium := base.Sub(discount)

	result.PremiumRate = rate
	result.BasePremium = base.Round()
	result.Discount = discount.Round()
	result.Premium = premium.Round()
	if req.PaymentType == PremiumAddedToPrincipal {
		result.TotalMortgageAmount = amount.Add(premium).Round()
	}
	return result, nil
}

// CompareProviders quotes every provider. A failing provider is logged and left out.
func (ic *InsuranceCalculator) CompareProviders(req InsuranceRequest) []InsuranceResult {
	var results []InsuranceResult
	for _, provider := range InsuranceProviders() {
		req.Provider = provider
		result, err := ic.Calculate(req)
		if err != nil {
			orNop(ic.logger).Warnf("insurance quote failed for %s: %v", provider, err)
			continue
		}
		results = append(results, result)
	}
	return results
}
