package domain

// Portfolio is the root of the YAML input file: every entity the engine reads,
// plus the reference rate snapshot used when no live provider is configured.
type Portfolio struct {
	ReferenceRate *ReferenceRate          `yaml:"reference_rate,omitempty" json:"reference_rate,omitempty"`
	TaxYear       int                     `yaml:"tax_year,omitempty" json:"tax_year,omitempty"`
	Mortgages     []Mortgage              `yaml:"mortgages" json:"mortgages"`
	Terms         []MortgageTerm          `yaml:"terms" json:"terms"`
	Payments      []MortgagePayment       `yaml:"payments,omitempty" json:"payments,omitempty"`
	HelocAccounts []HelocAccount          `yaml:"heloc_accounts,omitempty" json:"heloc_accounts,omitempty"`
	Transactions  []HelocTransaction      `yaml:"heloc_transactions,omitempty" json:"heloc_transactions,omitempty"`
	Strategies    []SmithManeuverStrategy `yaml:"strategies,omitempty" json:"strategies,omitempty"`
	CashFlows     []CashFlow              `yaml:"cash_flows,omitempty" json:"cash_flows,omitempty"`
}

// MortgageByID returns the mortgage with the given ID, or nil
func (p *Portfolio) MortgageByID(id string) *Mortgage {
	for i := range p.Mortgages {
		if p.Mortgages[i].ID == id {
			return &p.Mortgages[i]
		}
	}
	return nil
}

// HelocAccountByID returns the HELOC account with the given ID, or nil
func (p *Portfolio) HelocAccountByID(id string) *HelocAccount {
	for i := range p.HelocAccounts {
		if p.HelocAccounts[i].ID == id {
			return &p.HelocAccounts[i]
		}
	}
	return nil
}

// TermsFor returns the terms belonging to a mortgage
func (p *Portfolio) TermsFor(mortgageID string) []MortgageTerm {
	var out []MortgageTerm
	for _, t := range p.Terms {
		if t.MortgageID == mortgageID {
			out = append(out, t)
		}
	}
	return out
}
