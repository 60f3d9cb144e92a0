package output

import (
	"bytes"
	"encoding/csv"
)

// CSVDetailedExporter provides the raw yearly projection, one row per year.
type CSVDetailedExporter struct{}

func (c CSVDetailedExporter) Name() string { return "detailed-csv" }

func (c CSVDetailedExporter) Format(r *Report) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"Year", "Prepayment", "TotalPrepayments", "MortgageBalance", "CreditRoomIncrease", "Borrowing",
		"TotalBorrowings", "HelocBalance", "InvestmentValue", "HelocInterest", "InvestmentReturns", "InvestmentTax",
		"TaxSavings", "NetBenefit", "CumulativeBenefit", "LeverageRatio", "InterestCoverage"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, y := range r.Projections {
		row := []string{
			intToString(y.Year),
			y.Prepayment.String(),
			y.TotalPrepayments.String(),
			y.MortgageBalance.String(),
			y.CreditRoomIncrease.String(),
			y.Borrowing.String(),
			y.TotalBorrowings.String(),
			y.HelocBalance.String(),
			y.InvestmentValue.String(),
			y.HelocInterest.String(),
			y.InvestmentReturns.String(),
			y.InvestmentTax.String(),
			y.TaxSavings.String(),
			y.NetBenefit.String(),
			y.CumulativeBenefit.String(),
			ratioCell(y.LeverageRatio),
			ratioCell(y.InterestCoverage),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
