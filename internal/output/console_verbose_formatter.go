package output

import (
	"bytes"
	"fmt"
	"strings"
)

// ConsoleVerboseFormatter renders every section of the report as console tables.
type ConsoleVerboseFormatter struct{}

func (c ConsoleVerboseFormatter) Name() string { return "console" }

func (c ConsoleVerboseFormatter) Format(r *Report) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintln(&buf, strings.Repeat("=", 81))
	fmt.Fprintln(&buf, strings.ToUpper(r.Title))
	fmt.Fprintln(&buf, strings.Repeat("=", 81))
	if !r.GeneratedAt.IsZero() {
		fmt.Fprintf(&buf, "As of: %s\n", formatDate(r.GeneratedAt))
	}
	if r.ReferenceRate != nil {
		fmt.Fprintf(&buf, "Reference rate: %s\n", FormatPercentage(*r.ReferenceRate))
	}
	fmt.Fprintln(&buf)

	writeTriggers(&buf, r)
	writeRoom(&buf, r)
	writeProjections(&buf, r)
	writeROI(&buf, r)
	writeComparison(&buf, r)
	writeInsurance(&buf, r)
	writeTransitions(&buf, r)
	writeImpacts(&buf, r)
	writeCreditRoom(&buf, r)
	writeTransactions(&buf, r)

	if highlights := Highlights(r); len(highlights) > 0 {
		section(&buf, "KEY FINDINGS")
		for _, h := range highlights {
			fmt.Fprintf(&buf, "• %s\n", h)
		}
		fmt.Fprintln(&buf)
	}
	if len(r.Projections) > 0 {
		section(&buf, "KEY ASSUMPTIONS")
		for _, a := range DefaultAssumptions {
			fmt.Fprintf(&buf, "• %s\n", a)
		}
		fmt.Fprintln(&buf)
	}
	for _, n := range r.Notes {
		fmt.Fprintf(&buf, "Note: %s\n", n)
	}
	return buf.Bytes(), nil
}

func section(buf *bytes.Buffer, title string) {
	fmt.Fprintln(buf, title)
	fmt.Fprintln(buf, strings.Repeat("-", len(title)))
}

func writeTriggers(buf *bytes.Buffer, r *Report) {
	if len(r.TriggerStatuses) == 0 {
		return
	}
	section(buf, "TRIGGER RATE STATUS")
	fmt.Fprintf(buf, "%-14s %-16s %-14s %9s %9s %16s %12s\n", "Mortgage", "Term", "State", "Current", "Trigger", "Balance", "Payment")
	for _, s := range r.TriggerStatuses {
		fmt.Fprintf(buf, "%-14s %-16s %-14s %9s %9s %16s %12s\n",
			s.MortgageID, s.TermID, s.State,
			FormatPercentage(s.CurrentRate), FormatPercentage(s.TriggerRate),
			FormatCurrency(s.Balance), FormatCurrency(s.PaymentAmount))
	}
	fmt.Fprintln(buf)
}

func writeRoom(buf *bytes.Buffer, r *Report) {
	room := r.Room
	if r.Opportunity != nil {
		room = &r.Opportunity.Room
	}
	if room == nil {
		return
	}
	section(buf, "PREPAYMENT ROOM")
	fmt.Fprintf(buf, "Allowance year %d: %s to %s\n", room.AllowanceYear, formatDate(room.YearStart), formatDate(room.YearEnd))
	fmt.Fprintf(buf, "Annual limit:     %s\n", FormatCurrency(room.Limit))
	fmt.Fprintf(buf, "Used this year:   %s\n", FormatCurrency(room.Used))
	fmt.Fprintf(buf, "Remaining room:   %s\n", FormatCurrency(room.Remaining))
	if o := r.Opportunity; o != nil {
		fmt.Fprintf(buf, "Monthly surplus:  %s\n", FormatCurrency(o.MonthlySurplus))
		fmt.Fprintf(buf, "Recommendation:   %s\n", o.Recommendation.Kind)
	}
	fmt.Fprintln(buf)
}

func writeProjections(buf *bytes.Buffer, r *Report) {
	if len(r.Projections) == 0 {
		return
	}
	section(buf, "SMITH MANEUVER PROJECTION")
	fmt.Fprintf(buf, "%4s %13s %15s %14s %15s %12s %12s %11s %11s %12s %14s\n",
		"Year", "Prepayment", "Mortgage", "HELOC", "Investment", "Interest", "Returns", "Tax", "Savings", "Net", "Cumulative")
	for _, y := range r.Projections {
		fmt.Fprintf(buf, "%4d %13s %15s %14s %15s %12s %12s %11s %11s %12s %14s\n",
			y.Year,
			FormatCurrency(y.Prepayment),
			FormatCurrency(y.MortgageBalance),
			FormatCurrency(y.HelocBalance),
			FormatCurrency(y.InvestmentValue),
			FormatCurrency(y.HelocInterest),
			FormatCurrency(y.InvestmentReturns),
			FormatCurrency(y.InvestmentTax),
			FormatCurrency(y.TaxSavings),
			FormatCurrency(y.NetBenefit),
			FormatCurrency(y.CumulativeBenefit))
	}
	last := r.Projections[len(r.Projections)-1]
	fmt.Fprintf(buf, "Final leverage ratio: %s  Interest coverage: %s\n", FormatRatio(last.LeverageRatio), FormatRatio(last.InterestCoverage))
	fmt.Fprintln(buf)
}

func writeROI(buf *bytes.Buffer, r *Report) {
	a := r.ROI
	if a == nil {
		return
	}
	section(buf, "RETURN ON INVESTMENT")
	fmt.Fprintf(buf, "Years:                 %d\n", a.Years)
	fmt.Fprintf(buf, "Total borrowed:        %s\n", FormatCurrency(a.TotalBorrowed))
	fmt.Fprintf(buf, "Investment returns:    %s\n", FormatCurrency(a.TotalReturns))
	fmt.Fprintf(buf, "Tax on returns:        %s\n", FormatCurrency(a.TotalInvestmentTax))
	fmt.Fprintf(buf, "HELOC interest:        %s\n", FormatCurrency(a.TotalHelocInterest))
	fmt.Fprintf(buf, "Interest tax savings:  %s\n", FormatCurrency(a.TotalTaxSavings))
	fmt.Fprintf(buf, "Net benefit:           %s\n", FormatCurrency(a.NetBenefit))
	fmt.Fprintf(buf, "ROI:                   %s\n", FormatPercentage(a.ROI))
	fmt.Fprintf(buf, "Effective return:      %s\n", FormatPercentage(a.EffectiveReturn))
	fmt.Fprintf(buf, "Leverage risk:         %s\n", a.LeverageRisk)
	fmt.Fprintf(buf, "Coverage risk:         %s\n", a.CoverageRisk)
	fmt.Fprintln(buf)
}

func writeComparison(buf *bytes.Buffer, r *Report) {
	c := r.Comparison
	if c == nil {
		return
	}
	section(buf, "SMITH MANEUVER VS DIRECT PREPAYMENT")
	fmt.Fprintf(buf, "Horizon: %d years at a mortgage rate of %s\n", c.Years, FormatPercentage(c.MortgageRate))
	fmt.Fprintf(buf, "%-20s %16s %16s %16s\n", "Strategy", "Net benefit", "Prepaid", "Investments")
	fmt.Fprintf(buf, "%-20s %16s %16s %16s\n", "Smith Maneuver",
		FormatCurrency(c.SmithManeuver.NetBenefit), FormatCurrency(c.SmithManeuver.TotalPrepayments), FormatCurrency(c.SmithManeuver.InvestmentValue))
	fmt.Fprintf(buf, "%-20s %16s %16s %16s\n", "Direct prepayment",
		FormatCurrency(c.DirectPrepayment.NetBenefit), FormatCurrency(c.DirectPrepayment.TotalPrepayments), "")
	fmt.Fprintf(buf, "Advantage: %s by %s\n", c.Advantage.Strategy, FormatCurrency(c.Advantage.Amount))
	fmt.Fprintln(buf)
}

func writeInsurance(buf *bytes.Buffer, r *Report) {
	if len(r.Insurance) == 0 {
		return
	}
	section(buf, "MORTGAGE DEFAULT INSURANCE")
	fmt.Fprintf(buf, "%-10s %16s %8s %8s %12s %12s %12s %16s\n", "Provider", "Mortgage", "LTV", "Rate", "Base", "Discount", "Premium", "Total")
	for _, q := range r.Insurance {
		fmt.Fprintf(buf, "%-10s %16s %8s %8s %12s %12s %12s %16s\n",
			q.Provider, FormatCurrency(q.MortgageAmount), FormatPercentage(q.LTV), FormatPercentage(q.PremiumRate),
			FormatCurrency(q.BasePremium), FormatCurrency(q.Discount), FormatCurrency(q.Premium), FormatCurrency(q.TotalMortgageAmount))
	}
	fmt.Fprintln(buf)
}

func writeTransitions(buf *bytes.Buffer, r *Report) {
	if len(r.Transitions) == 0 {
		return
	}
	section(buf, "HELOC DRAW PERIOD TRANSITIONS")
	for _, t := range r.Transitions {
		if !t.Due {
			fmt.Fprintf(buf, "%s: draw period still open\n", t.AccountID)
			continue
		}
		fmt.Fprintf(buf, "%s: %s -> %s, minimum payment %s -> %s (from %s)\n",
			t.AccountID, t.OldMode, t.NewMode, FormatCurrency(t.OldPayment), FormatCurrency(t.NewPayment), formatDate(t.TransitionDate))
	}
	fmt.Fprintln(buf)
}

func writeImpacts(buf *bytes.Buffer, r *Report) {
	if len(r.Impacts) == 0 {
		return
	}
	section(buf, "RATE CHANGE IMPACT")
	fmt.Fprintf(buf, "%-14s %-16s %-15s %9s %9s %12s %12s\n", "Mortgage", "Term", "Type", "Old rate", "New rate", "Old pmt", "New pmt")
	for _, i := range r.Impacts {
		fmt.Fprintf(buf, "%-14s %-16s %-15s %9s %9s %12s %12s\n",
			i.MortgageID, i.TermID, i.Type, FormatPercentage(i.OldRate), FormatPercentage(i.NewRate),
			FormatCurrency(i.OldPayment), FormatCurrency(i.NewPayment))
	}
	fmt.Fprintln(buf)
}

func writeCreditRoom(buf *bytes.Buffer, r *Report) {
	if len(r.CreditRoom) == 0 {
		return
	}
	section(buf, "CREDIT ROOM HISTORY")
	fmt.Fprintf(buf, "%-10s %16s %14s %14s\n", "Date", "Mortgage", "Credit room", "Available")
	for _, s := range r.CreditRoom {
		fmt.Fprintf(buf, "%-10s %16s %14s %14s\n",
			formatDate(s.Date), FormatCurrency(s.MortgageBalance), FormatCurrency(s.CreditRoom), FormatCurrency(s.AvailableCredit))
	}
	fmt.Fprintln(buf)
}

func writeTransactions(buf *bytes.Buffer, r *Report) {
	if len(r.Transactions) == 0 {
		return
	}
	section(buf, "HELOC TRANSACTIONS")
	for _, tx := range r.Transactions {
		fmt.Fprintf(buf, "%s %-10s %12s balance %s -> %s at %s\n",
			formatDate(tx.Date), tx.Type, FormatCurrency(tx.Amount),
			FormatCurrency(tx.BalanceBefore), FormatCurrency(tx.BalanceAfter), FormatPercentage(tx.InterestRate))
	}
	fmt.Fprintln(buf)
}
