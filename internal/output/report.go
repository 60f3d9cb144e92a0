package output

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mtrack/mortgage-engine/internal/calculation"
	"github.com/mtrack/mortgage-engine/internal/domain"
	"github.com/mtrack/mortgage-engine/pkg/decimal"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for a format name no formatter answers to
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Report is the envelope every command renders. Only the sections a command
// filled in are printed.
type Report struct {
	Title         string              `json:"title"`
	GeneratedAt   time.Time           `json:"generated_at"`
	ReferenceRate *decimal.Percentage `json:"reference_rate_percent,omitempty"`

	TriggerStatuses []domain.TriggerStatus           `json:"trigger_statuses,omitempty"`
	Room            *domain.RoomResult               `json:"room,omitempty"`
	Opportunity     *domain.PrepaymentOpportunity    `json:"opportunity,omitempty"`
	Projections     []domain.YearlyProjection        `json:"projections,omitempty"`
	ROI             *domain.ROIAnalysis              `json:"roi,omitempty"`
	Comparison      *domain.ComparisonResult         `json:"comparison,omitempty"`
	Insurance       []calculation.InsuranceResult    `json:"insurance,omitempty"`
	Transitions     []domain.DrawPeriodTransition    `json:"transitions,omitempty"`
	Impacts         []calculation.Impact             `json:"impacts,omitempty"`
	CreditRoom      []calculation.CreditRoomSnapshot `json:"credit_room,omitempty"`
	Transactions    []domain.HelocTransaction        `json:"transactions,omitempty"`

	Notes []string `json:"notes,omitempty"`
}

// NewReport starts an empty report stamped with the given time
func NewReport(title string, generatedAt time.Time) *Report {
	return &Report{Title: title, GeneratedAt: generatedAt}
}

// Render formats the report with the named formatter
func Render(report *Report, format string) ([]byte, error) {
	f := GetFormatterByName(format)
	if f == nil {
		return nil, fmt.Errorf("%w: %q. Try one of: %s (aliases: %s)", ErrUnsupportedFormat, format,
			strings.Join(AvailableFormatterNames(), ", "), strings.Join(AvailableFormatAliases(), ", "))
	}
	return f.Format(report)
}

// SavePortfolio writes the portfolio back as YAML, e.g. after HELOC writes or draw
// period transitions.
func SavePortfolio(p *domain.Portfolio, filename string) error {
	b, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0644)
}
