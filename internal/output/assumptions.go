package output

// DefaultAssumptions lists the projection modeling assumptions rendered in detailed outputs.
var DefaultAssumptions = []string{
	"Projections step annually; each year's full prepayment lands at once and the mortgage balance floors at zero",
	"Freed equity becomes HELOC room at the account's maximum LTV",
	"HELOC interest is one year of simple interest at the reference rate snapshot plus spread",
	"HELOC interest is fully deductible at the marginal tax rate",
	"Investment returns compound at year end; taxes use the 2025 bracket tables",
}
