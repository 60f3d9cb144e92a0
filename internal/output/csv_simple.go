package output

import (
	"bytes"
	"encoding/csv"
)

// CSVSummarizer flattens every filled section into Section,ID,Metric,Value rows.
// Row order follows the report's section order and each section's own order.
type CSVSummarizer struct{}

func (c CSVSummarizer) Name() string { return "csv" }

func (c CSVSummarizer) Format(r *Report) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write([]string{"Section", "ID", "Metric", "Value"}); err != nil {
		return nil, err
	}

	var rows [][]string
	add := func(section, id, metric, value string) {
		rows = append(rows, []string{section, id, metric, value})
	}

	for _, s := range r.TriggerStatuses {
		add("trigger", s.MortgageID, "state", string(s.State))
		add("trigger", s.MortgageID, "current_rate", s.CurrentRate.StringFixed(2))
		add("trigger", s.MortgageID, "trigger_rate", s.TriggerRate.StringFixed(2))
	}
	room := r.Room
	if r.Opportunity != nil {
		room = &r.Opportunity.Room
	}
	if room != nil {
		add("room", room.MortgageID, "limit", room.Limit.String())
		add("room", room.MortgageID, "used", room.Used.String())
		add("room", room.MortgageID, "remaining", room.Remaining.String())
	}
	if o := r.Opportunity; o != nil {
		add("opportunity", o.Room.MortgageID, "monthly_surplus", o.MonthlySurplus.String())
		add("opportunity", o.Room.MortgageID, "recommendation", string(o.Recommendation.Kind))
	}
	if a := r.ROI; a != nil {
		add("roi", "", "years", intToString(a.Years))
		add("roi", "", "total_borrowed", a.TotalBorrowed.String())
		add("roi", "", "net_benefit", a.NetBenefit.String())
		add("roi", "", "roi_percent", a.ROI.StringFixed(2))
		add("roi", "", "effective_return_percent", a.EffectiveReturn.StringFixed(2))
	}
	if cmp := r.Comparison; cmp != nil {
		add("comparison", "", "smith_maneuver_net_benefit", cmp.SmithManeuver.NetBenefit.String())
		add("comparison", "", "direct_prepayment_interest_saved", cmp.DirectPrepayment.InterestSaved.String())
		add("comparison", "", "advantage", cmp.Advantage.Strategy)
		add("comparison", "", "advantage_amount", cmp.Advantage.Amount.String())
	}
	for _, q := range r.Insurance {
		id := string(q.Provider)
		add("insurance", id, "high_ratio", boolToString(q.HighRatio))
		add("insurance", id, "ltv_percent", q.LTV.StringFixed(2))
		add("insurance", id, "premium", q.Premium.String())
		add("insurance", id, "total_mortgage_amount", q.TotalMortgageAmount.String())
	}
	for _, t := range r.Transitions {
		add("transition", t.AccountID, "due", boolToString(t.Due))
		add("transition", t.AccountID, "new_payment", t.NewPayment.String())
	}
	for _, i := range r.Impacts {
		add("impact", i.TermID, string(i.Type), i.PaymentDelta.String())
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
