// Package parser extracts transaction candidates from statement text using
// per-issuer grammars. Each issuer's line layout, date format, and statement
// period anchor are declarative records in a registry; adding an issuer does
// not touch parser control flow.
package parser

import "regexp"

// amount matches a statement money column: grouped thousands, 2 decimals,
// or the "-" placeholder banks print for an empty column.
const amount = `(\d{1,3}(?:,\d{3})*\.\d{2}|-)`

// Grammar describes one issuer's statement layout.
type Grammar struct {
	Bank string

	// Line is the transaction line pattern; group indexes below address its
	// submatches. A debit or credit group capturing "-" or nothing means
	// that column is empty.
	Line         *regexp.Regexp
	DateGroup    int
	DescGroup    int
	DebitGroup   int
	CreditGroup  int
	BalanceGroup int // 0 when the layout has no running balance column

	// DateLayout parses the date group. When YearFromAnchor is set the
	// layout has no year and the year is resolved from the statement
	// period anchor.
	DateLayout     string
	YearFromAnchor bool

	// Period locates the statement period anchor. PeriodEndOnly grammars
	// print only an end date ("as at ..."); the period start is the first
	// day of that month.
	Period        *regexp.Regexp
	PeriodLayout  string
	PeriodEndOnly bool
}

// grammars is the issuer registry. Keys match bank.Detect results.
var grammars = map[string]Grammar{
	"DBS": {
		Bank: "DBS",
		Line: regexp.MustCompile(
			`^(\d{2}/\d{2}/\d{4})\s+(.+?)\s+` + amount + `\s+` + amount + `(?:\s+` + amount + `)?$`,
		),
		DateGroup:     1,
		DescGroup:     2,
		DebitGroup:    3,
		CreditGroup:   4,
		BalanceGroup:  5,
		DateLayout:    "02/01/2006",
		Period:        regexp.MustCompile(`(?i)as at\s+(\d{1,2}\s+[A-Za-z]{3}\s+\d{4})`),
		PeriodLayout:  "2 Jan 2006",
		PeriodEndOnly: true,
	},
	"OCBC": {
		Bank: "OCBC",
		Line: regexp.MustCompile(
			`^(\d{2}\s+[A-Za-z]{3})\s+\d{2}\s+[A-Za-z]{3}\s+(.+?)\s+` + amount + `\s+` + amount + `\s+` + amount + `$`,
		),
		DateGroup:      1,
		DescGroup:      2,
		DebitGroup:     3,
		CreditGroup:    4,
		BalanceGroup:   5,
		DateLayout:     "02 Jan 2006",
		YearFromAnchor: true,
		Period: regexp.MustCompile(
			`(?i)(\d{1,2}\s+[A-Za-z]{3}\s+\d{4})\s+TO\s+(\d{1,2}\s+[A-Za-z]{3}\s+\d{4})`,
		),
		PeriodLayout: "2 Jan 2006",
	},
	// UOB prints the deposit column before the withdrawal column; the group
	// indexes absorb the swap.
	"UOB": {
		Bank: "UOB",
		Line: regexp.MustCompile(
			`^(\d{2}/\d{2}/\d{4})\s+\d{2}/\d{2}/\d{4}\s+(.+?)\s+` + amount + `\s+` + amount + `\s+` + amount + `$`,
		),
		DateGroup:    1,
		DescGroup:    2,
		CreditGroup:  3,
		DebitGroup:   4,
		BalanceGroup: 5,
		DateLayout:   "02/01/2006",
		Period: regexp.MustCompile(
			`(?i)Period[:\s]+(\d{1,2}\s+[A-Za-z]{3}\s+\d{4})\s+to\s+(\d{1,2}\s+[A-Za-z]{3}\s+\d{4})`,
		),
		PeriodLayout: "2 Jan 2006",
	},
}

// Lookup returns the grammar registered for a bank key.
func Lookup(bank string) (Grammar, bool) {
	g, ok := grammars[bank]
	return g, ok
}

// SupportedBanks lists the issuer keys with a registered grammar.
func SupportedBanks() []string {
	keys := make([]string, 0, len(grammars))
	for k := range grammars {
		keys = append(keys, k)
	}
	return keys
}
