package output

import (
	"fmt"
	"sort"

	"github.com/mtrack/mortgage-engine/internal/calculation"
	"github.com/mtrack/mortgage-engine/internal/domain"
)

// Highlights extracts the one-line findings a reader should see first. The order is
// fixed: trigger alerts, prepayment advice, strategy results, insurance, HELOC
// transitions, rate change impacts.
func Highlights(r *Report) []string {
	var out []string

	for _, s := range r.TriggerStatuses {
		switch s.State {
		case domain.TriggerHit:
			out = append(out, fmt.Sprintf("Mortgage %s has hit its trigger rate (%s at or above %s)",
				s.MortgageID, FormatPercentage(s.CurrentRate), FormatPercentage(s.TriggerRate)))
		case domain.TriggerRisk:
			out = append(out, fmt.Sprintf("Mortgage %s is approaching its trigger rate (%s vs %s)",
				s.MortgageID, FormatPercentage(s.CurrentRate), FormatPercentage(s.TriggerRate)))
		}
	}

	if r.Opportunity != nil && r.Opportunity.Recommendation.Message != "" {
		out = append(out, r.Opportunity.Recommendation.Message)
	}

	if r.ROI != nil && r.ROI.Years > 0 {
		out = append(out, fmt.Sprintf("Net benefit of %s over %d years (ROI %s)",
			FormatCurrency(r.ROI.NetBenefit), r.ROI.Years, FormatPercentage(r.ROI.ROI)))
	}

	if r.Comparison != nil && r.Comparison.Years > 0 {
		adv := r.Comparison.Advantage
		switch adv.Strategy {
		case domain.StrategySmithManeuver:
			out = append(out, fmt.Sprintf("Smith Maneuver comes out ahead by %s", FormatCurrency(adv.Amount)))
		case domain.StrategyDirectPrepayment:
			out = append(out, fmt.Sprintf("Direct prepayment comes out ahead by %s", FormatCurrency(adv.Amount)))
		default:
			out = append(out, fmt.Sprintf("Both strategies are within %s of each other", FormatCurrency(calculation.ComparisonThreshold)))
		}
	}

	if best := cheapestQuote(r.Insurance); best != nil {
		if best.HighRatio {
			out = append(out, fmt.Sprintf("Lowest insurance premium: %s from %s", FormatCurrency(best.Premium), best.Provider))
		} else {
			out = append(out, "Down payment of 20% or more: no mortgage insurance required")
		}
	}

	due := 0
	for _, t := range r.Transitions {
		if t.Due {
			due++
		}
	}
	if due > 0 {
		out = append(out, fmt.Sprintf("%d HELOC account(s) moved to principal plus interest payments", due))
	}

	for _, impact := range r.Impacts {
		out = append(out, fmt.Sprintf("Mortgage %s: %s", impact.MortgageID, impact.Message))
	}
	return out
}

// cheapestQuote picks the lowest premium, ties broken by provider name
func cheapestQuote(quotes []calculation.InsuranceResult) *calculation.InsuranceResult {
	if len(quotes) == 0 {
		return nil
	}
	sorted := append([]calculation.InsuranceResult(nil), quotes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Premium.Equal(sorted[j].Premium) {
			return sorted[i].Premium.LessThan(sorted[j].Premium)
		}
		return sorted[i].Provider < sorted[j].Provider
	})
	return &sorted[0]
}
