package calculation

import (
	"github.com/mtrack/mortgage-engine/internal/domain"
	"github.com/mtrack/mortgage-engine/pkg/decimal"
	sdec "github.com/shopspring/decimal"
)

// 2025 bracket tables. Rates are percentage points; each band covers [min, max)
// and the top band is open-ended. Tables are not indexed for future years.

func band(lo, hi int64, rate string) domain.TaxBracket {
	upper := sdec.NewFromInt(hi)
	return domain.TaxBracket{Min: sdec.NewFromInt(lo), Max: &upper, Rate: decimal.RequirePercentage(rate)}
}

func topBand(lo int64, rate string) domain.TaxBracket {
	return domain.TaxBracket{Min: sdec.NewFromInt(lo), Rate: decimal.RequirePercentage(rate)}
}

func federalBrackets2025() []domain.TaxBracket {
	return []domain.TaxBracket{
		band(0, 48535, "15"),
		band(48535, 97069, "20.5"),
		band(97069, 150473, "26"),
		band(150473, 214368, "29"),
		topBand(214368, "33"),
	}
}

func regionalBrackets2025() map[string][]domain.TaxBracket {
	return map[string][]domain.TaxBracket{
		// Ontario
		"ON": {
			band(0, 46226, "5.05"),
			band(46226, 92454, "9.15"),
			band(92454, 150000, "11.16"),
			band(150000, 220000, "12.16"),
			topBand(220000, "13.16"),
		},
		// British Columbia
		"BC": {
			band(0, 45654, "5.06"),
			band(45654, 91310, "7.7"),
			band(91310, 104835, "10.5"),
			band(104835, 127299, "12.29"),
			band(127299, 172602, "14.7"),
			topBand(172602, "16.8"),
		},
		// Alberta
		"AB": {
			band(0, 131220, "10"),
			band(131220, 157464, "12"),
			band(157464, 209952, "13"),
			band(209952, 314928, "14"),
			topBand(314928, "15"),
		},
		// Quebec
		"QC": {
			band(0, 49275, "14"),
			band(49275, 98540, "19"),
			band(98540, 119910, "24"),
			topBand(119910, "25.75"),
		},
		// Manitoba
		"MB": {
			band(0, 47000, "10.8"),
			band(47000, 100000, "12.75"),
			topBand(100000, "17.4"),
		},
		// Saskatchewan
		"SK": {
			band(0, 49720, "10.5"),
			band(49720, 142058, "12.5"),
			topBand(142058, "14.5"),
		},
		// New Brunswick
		"NB": {
			band(0, 49958, "9.4"),
			band(49958, 99916, "14.5"),
			band(99916, 185064, "16"),
			topBand(185064, "19.5"),
		},
		// Nova Scotia
		"NS": {
			band(0, 29590, "8.79"),
			band(29590, 59180, "14.95"),
			band(59180, 93000, "16.67"),
			band(93000, 150000, "17.5"),
			topBand(150000, "21"),
		},
		// Newfoundland and Labrador
		"NL": {
			band(0, 41457, "8.7"),
			band(41457, 82913, "14.5"),
			band(82913, 148027, "15.8"),
			band(148027, 207239, "17.3"),
			topBand(207239, "18.3"),
		},
		// Prince Edward Island
		"PE": {
			band(0, 32656, "9.8"),
			band(32656, 65312, "13.8"),
			band(65312, 105000, "16.7"),
			topBand(105000, "18"),
		},
		// Northwest Territories
		"NT": {
			band(0, 44896, "5.9"),
			band(44896, 89793, "8.6"),
			band(89793, 145906, "12.2"),
			topBand(145906, "14.05"),
		},
		// Nunavut
		"NU": {
			band(0, 47867, "4"),
			band(47867, 95733, "7"),
			band(95733, 155625, "9"),
			topBand(155625, "11.5"),
		},
		// Yukon
		"YT": {
			band(0, 50000, "6.4"),
			band(50000, 100000, "9"),
			band(100000, 500000, "10.9"),
			topBand(500000, "12.8"),
		},
	}
}
