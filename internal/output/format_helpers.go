package output

import (
	"strconv"
	"time"

	"github.com/mtrack/mortgage-engine/pkg/decimal"
	sdec "github.com/shopspring/decimal"
)

// FormatCurrency formats money with a dollar sign and thousands separators.
// Kept here so it can be reused by multiple formatters and unit tested in isolation.
func FormatCurrency(amount decimal.Money) string { return amount.Format() }

// FormatPercentage formats percentage points with 2 decimals.
func FormatPercentage(p decimal.Percentage) string { return p.String() }

// FormatRatio formats an optional ratio with 2 decimals, "n/a" when undefined.
func FormatRatio(r *sdec.Decimal) string {
	if r == nil {
		return "n/a"
	}
	return r.StringFixed(2)
}

// ratioCell leaves undefined ratios empty in CSV output
func ratioCell(r *sdec.Decimal) string {
	if r == nil {
		return ""
	}
	return r.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func intToString(i int) string { return strconv.Itoa(i) }

func boolToString(b bool) string { return strconv.FormatBool(b) }
