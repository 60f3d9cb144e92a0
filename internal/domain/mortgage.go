package domain

import (
	"fmt"
	"time"

	"github.com/mtrack/mortgage-engine/pkg/dateutil"
	"github.com/mtrack/mortgage-engine/pkg/decimal"
	"gopkg.in/yaml.v3"
)

// Frequency is a mortgage payment schedule
type Frequency string

const (
	Monthly             Frequency = "monthly"
	SemiMonthly         Frequency = "semi-monthly"
	Biweekly            Frequency = "biweekly"
	AcceleratedBiweekly Frequency = "accelerated-biweekly"
	Weekly              Frequency = "weekly"
	AcceleratedWeekly   Frequency = "accelerated-weekly"
)

// PeriodsPerYear returns the number of payments per year, or 0 for an unknown frequency
func (f Frequency) PeriodsPerYear() int {
	switch f {
	case Monthly:
		return 12
	case SemiMonthly:
		return 24
	case Biweekly, AcceleratedBiweekly:
		return 26
	case Weekly, AcceleratedWeekly:
		return 52
	}
	return 0
}

// Valid reports whether f is one of the supported schedules
func (f Frequency) Valid() bool { return f.PeriodsPerYear() > 0 }

// Mortgage is a residential mortgage owned by a user
type Mortgage struct {
	ID                    string             `yaml:"id" json:"id"`
	UserID                string             `yaml:"user_id" json:"user_id"`
	Name                  string             `yaml:"name,omitempty" json:"name,omitempty"`
	PropertyPrice         decimal.Money      `yaml:"property_price" json:"property_price"`
	OriginalAmount        decimal.Money      `yaml:"original_amount" json:"original_amount"`
	CurrentBalance        decimal.Money      `yaml:"current_balance" json:"current_balance"`
	StartDate             time.Time          `yaml:"start_date" json:"start_date"`
	AmortizationYears     int                `yaml:"amortization_years" json:"amortization_years"`
	AmortizationMonths    int                `yaml:"amortization_months,omitempty" json:"amortization_months,omitempty"`
	PaymentFrequency      Frequency          `yaml:"payment_frequency" json:"payment_frequency"`
	AnnualPrepaymentLimit decimal.Percentage `yaml:"annual_prepayment_limit_percent" json:"annual_prepayment_limit_percent"`
	PrepaymentResetDate   *time.Time         `yaml:"prepayment_reset_date,omitempty" json:"prepayment_reset_date,omitempty"`
	CarryForwardRoom      decimal.Money      `yaml:"carry_forward_room,omitempty" json:"carry_forward_room,omitempty"`
	ReAdvanceable         bool               `yaml:"re_advanceable,omitempty" json:"re_advanceable,omitempty"`
	HelocAccountID        string             `yaml:"heloc_account_id,omitempty" json:"heloc_account_id,omitempty"`
}

// TotalAmortizationMonths returns the full amortization length in months
func (m *Mortgage) TotalAmortizationMonths() int {
	return m.AmortizationYears*12 + m.AmortizationMonths
}

// RemainingAmortizationMonths returns the amortization left at asOf, never less than 1
func (m *Mortgage) RemainingAmortizationMonths(asOf time.Time) int {
	remaining := m.TotalAmortizationMonths() - dateutil.MonthsBetween(m.StartDate, asOf)
	if remaining < 1 {
		return 1
	}
	return remaining
}

// TermType names the three term kinds
type TermType string

const (
	TermFixed            TermType = "fixed"
	TermVariableChanging TermType = "variable-changing"
	TermVariableFixed    TermType = "variable-fixed"
)

// TermRate is the closed set of rate structures a term may carry.
// Fixed terms never carry a spread and variable terms never carry a fixed rate.
type TermRate interface {
	Type() TermType
	// AnnualRate returns the contract rate given a reference rate snapshot.
	AnnualRate(reference decimal.Percentage) decimal.Percentage
	sealed()
}

// FixedRate is a rate locked for the whole term
type FixedRate struct {
	Rate decimal.Percentage `json:"rate"`
}

// VariableChanging floats with the reference rate and the payment is recalculated
type VariableChanging struct {
	Spread        decimal.Percentage `json:"spread"`
	ReferenceRate decimal.Percentage `json:"reference_rate"`
}

// VariableFixed floats with the reference rate while the payment stays fixed
type VariableFixed struct {
	Spread        decimal.Percentage `json:"spread"`
	ReferenceRate decimal.Percentage `json:"reference_rate"`
}

func (FixedRate) Type() TermType        { return TermFixed }
func (VariableChanging) Type() TermType { return TermVariableChanging }
func (VariableFixed) Type() TermType    { return TermVariableFixed }

func (r FixedRate) AnnualRate(decimal.Percentage) decimal.Percentage { return r.Rate }
func (r VariableChanging) AnnualRate(ref decimal.Percentage) decimal.Percentage {
	return ref.Add(r.Spread)
}
func (r VariableFixed) AnnualRate(ref decimal.Percentage) decimal.Percentage {
	return ref.Add(r.Spread)
}

func (FixedRate) sealed()        {}
func (VariableChanging) sealed() {}
func (VariableFixed) sealed()    {}

// MortgageTerm is a locked period of a mortgage. Renewal creates a new term.
type MortgageTerm struct {
	ID               string        `json:"id"`
	MortgageID       string        `json:"mortgage_id"`
	StartDate        time.Time     `json:"start_date"`
	EndDate          time.Time     `json:"end_date"`
	PaymentFrequency Frequency     `json:"payment_frequency"`
	RegularPayment   decimal.Money `json:"regular_payment"`
	Rate             TermRate      `json:"rate"`
}

// Type returns the term's kind
func (t *MortgageTerm) Type() TermType {
	if t.Rate == nil {
		return ""
	}
	return t.Rate.Type()
}

// Contains reports whether date falls within the term, both ends inclusive
func (t *MortgageTerm) Contains(date time.Time) bool {
	return dateutil.WithinDays(date, t.StartDate, t.EndDate)
}

// Spread returns the locked spread of a variable term
func (t *MortgageTerm) Spread() (decimal.Percentage, bool) {
	switch r := t.Rate.(type) {
	case VariableChanging:
		return r.Spread, true
	case VariableFixed:
		return r.Spread, true
	}
	return decimal.Percentage{}, false
}

// UnmarshalYAML decodes the flat YAML term shape into the tagged rate variant
func (t *MortgageTerm) UnmarshalYAML(value *yaml.Node) error {
	type Alias struct {
		ID               string        `yaml:"id"`
		MortgageID       string        `yaml:"mortgage_id"`
		Type             TermType      `yaml:"type"`
		StartDate        time.Time     `yaml:"start_date"`
		EndDate          time.Time     `yaml:"end_date"`
		PaymentFrequency Frequency     `yaml:"payment_frequency"`
		RegularPayment   decimal.Money `yaml:"regular_payment"`
		FixedRate        *string       `yaml:"fixed_rate,omitempty"`
		LockedSpread     *string       `yaml:"locked_spread,omitempty"`
		ReferenceRate    *string       `yaml:"reference_rate,omitempty"`
	}

	var aux Alias
	if err := value.Decode(&aux); err != nil {
		return err
	}

	t.ID = aux.ID
	t.MortgageID = aux.MortgageID
	t.StartDate = aux.StartDate
	t.EndDate = aux.EndDate
	t.PaymentFrequency = aux.PaymentFrequency
	t.RegularPayment = aux.RegularPayment

	// Convert string rate fields to percentages
	parse := func(field string, raw *string) (*decimal.Percentage, error) {
		if raw == nil {
			return nil, nil
		}
		p, err := decimal.NewPercentageFromString(*raw)
		if err != nil {
			return nil, fmt.Errorf("term %s: invalid %s %q: %w", aux.ID, field, *raw, err)
		}
		return &p, nil
	}
	fixed, err := parse("fixed_rate", aux.FixedRate)
	if err != nil {
		return err
	}
	spread, err := parse("locked_spread", aux.LockedSpread)
	if err != nil {
		return err
	}
	ref, err := parse("reference_rate", aux.ReferenceRate)
	if err != nil {
		return err
	}

	switch aux.Type {
	case TermFixed:
		if fixed == nil {
			return fmt.Errorf("term %s: fixed term requires fixed_rate", aux.ID)
		}
		if spread != nil {
			return fmt.Errorf("term %s: fixed term cannot carry locked_spread", aux.ID)
		}
		t.Rate = FixedRate{Rate: *fixed}
	case TermVariableChanging, TermVariableFixed:
		if fixed != nil {
			return fmt.Errorf("term %s: variable term cannot carry fixed_rate", aux.ID)
		}
		if spread == nil {
			return fmt.Errorf("term %s: variable term requires locked_spread", aux.ID)
		}
		var snapshot decimal.Percentage
		if ref != nil {
			snapshot = *ref
		}
		if aux.Type == TermVariableFixed {
			t.Rate = VariableFixed{Spread: *spread, ReferenceRate: snapshot}
		} else {
			t.Rate = VariableChanging{Spread: *spread, ReferenceRate: snapshot}
		}
	default:
		return fmt.Errorf("term %s: unknown term type %q", aux.ID, aux.Type)
	}
	return nil
}

// MarshalYAML encodes the rate variant back into the flat shape UnmarshalYAML reads
func (t MortgageTerm) MarshalYAML() (interface{}, error) {
	type flat struct {
		ID               string        `yaml:"id"`
		MortgageID       string        `yaml:"mortgage_id"`
		Type             TermType      `yaml:"type"`
		StartDate        time.Time     `yaml:"start_date"`
		EndDate          time.Time     `yaml:"end_date"`
		PaymentFrequency Frequency     `yaml:"payment_frequency,omitempty"`
		RegularPayment   decimal.Money `yaml:"regular_payment"`
		FixedRate        string        `yaml:"fixed_rate,omitempty"`
		LockedSpread     string        `yaml:"locked_spread,omitempty"`
		ReferenceRate    string        `yaml:"reference_rate,omitempty"`
	}

	out := flat{
		ID:               t.ID,
		MortgageID:       t.MortgageID,
		Type:             t.Type(),
		StartDate:        t.StartDate,
		EndDate:          t.EndDate,
		PaymentFrequency: t.PaymentFrequency,
		RegularPayment:   t.RegularPayment,
	}
	switch r := t.Rate.(type) {
	case FixedRate:
		out.FixedRate = r.Rate.Decimal.String()
	case VariableChanging:
		out.LockedSpread = r.Spread.Decimal.String()
		out.ReferenceRate = r.ReferenceRate.Decimal.String()
	case VariableFixed:
		out.LockedSpread = r.Spread.Decimal.String()
		out.ReferenceRate = r.ReferenceRate.Decimal.String()
	}
	return out, nil
}

// MortgagePayment is an append-only ledger entry for one payment date
type MortgagePayment struct {
	ID               string             `yaml:"id" json:"id"`
	MortgageID       string             `yaml:"mortgage_id" json:"mortgage_id"`
	TermID           string             `yaml:"term_id" json:"term_id"`
	PaymentDate      time.Time          `yaml:"payment_date" json:"payment_date"`
	RegularAmount    decimal.Money      `yaml:"regular_amount" json:"regular_amount"`
	PrepaymentAmount decimal.Money      `yaml:"prepayment_amount,omitempty" json:"prepayment_amount"`
	PrincipalPaid    decimal.Money      `yaml:"principal_paid" json:"principal_paid"`
	InterestPaid     decimal.Money      `yaml:"interest_paid" json:"interest_paid"`
	RemainingBalance decimal.Money      `yaml:"remaining_balance" json:"remaining_balance"`
	ReferenceRate    decimal.Percentage `yaml:"reference_rate,omitempty" json:"reference_rate"`
	TriggerRateHit   bool               `yaml:"trigger_rate_hit,omitempty" json:"trigger_rate_hit"`
}

// ReferenceRate is a snapshot of the shared external rate (e.g. prime)
type ReferenceRate struct {
	Rate  decimal.Percentage `yaml:"rate" json:"rate"`
	AsOf  time.Time          `yaml:"as_of" json:"as_of"`
	Label string             `yaml:"label,omitempty" json:"label,omitempty"`
}
