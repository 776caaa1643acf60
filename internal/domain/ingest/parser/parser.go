package parser

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/savohq/statement-ingest/internal/domain/ingest"
)

// Candidate is one transaction extracted from statement text, before
// categorization and persistence.
type Candidate struct {
	Date         time.Time
	Description  string
	MerchantName string
	Amount       decimal.Decimal
	Type         ingest.TransactionType
	BalanceAfter *decimal.Decimal
}

// Result is the outcome of parsing a document.
type Result struct {
	Candidates []Candidate
	// Skipped counts lines that matched the grammar but could not be
	// turned into a candidate (bad date, empty amount columns).
	Skipped int
}

// Parser applies issuer grammars to statement text.
type Parser struct {
	logger *slog.Logger
}

// New creates a statement parser.
func New(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse extracts all transaction candidates from the document text, in
// order of appearance. A malformed line never aborts the parse: it is
// skipped, counted, and logged. Unknown banks fail with ErrUnsupportedBank.
func (p *Parser) Parse(text, bankName string) (*Result, error) {
	grammar, ok := Lookup(bankName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ingest.ErrUnsupportedBank, bankName)
	}

	anchorYear := p.anchorYear(text, grammar)

	result := &Result{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		m := grammar.Line.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		candidate, err := p.buildCandidate(grammar, m, anchorYear)
		if err != nil {
			result.Skipped++
			p.logger.Warn("skipping malformed statement line",
				slog.String("bank", bankName),
				slog.String("line", line),
				slog.Any("error", err),
			)
			continue
		}

		result.Candidates = append(result.Candidates, *candidate)
	}

	return result, nil
}

// ParseSample extracts at most limit candidates. Used by the duplicate
// detector, which only needs a small proof sample.
func (p *Parser) ParseSample(text, bankName string, limit int) ([]Candidate, error) {
	result, err := p.Parse(text, bankName)
	if err != nil {
		return nil, err
	}
	if len(result.Candidates) > limit {
		return result.Candidates[:limit], nil
	}
	return result.Candidates, nil
}

// buildCandidate converts a grammar match into a candidate.
func (p *Parser) buildCandidate(g Grammar, m []string, anchorYear int) (*Candidate, error) {
	dateStr := m[g.DateGroup]
	if g.YearFromAnchor {
		dateStr = fmt.Sprintf("%s %d", dateStr, anchorYear)
	}
	date, err := parseDate(dateStr, g.DateLayout)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", dateStr, err)
	}

	debit, err := parseAmountColumn(m[g.DebitGroup])
	if err != nil {
		return nil, fmt.Errorf("parse debit column: %w", err)
	}
	credit, err := parseAmountColumn(m[g.CreditGroup])
	if err != nil {
		return nil, fmt.Errorf("parse credit column: %w", err)
	}

	var amount decimal.Decimal
	var txType ingest.TransactionType
	switch {
	case debit != nil:
		amount, txType = *debit, ingest.TypeDebit
	case credit != nil:
		amount, txType = *credit, ingest.TypeCredit
	default:
		return nil, fmt.Errorf("no amount in either column")
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("non-positive amount %s", amount)
	}

	description := collapseSpaces(m[g.DescGroup])

	candidate := &Candidate{
		Date:         date,
		Description:  description,
		MerchantName: ExtractMerchantName(description),
		Amount:       amount.Round(2),
		Type:         txType,
	}

	if g.BalanceGroup > 0 && g.BalanceGroup < len(m) {
		balance, err := parseAmountColumn(m[g.BalanceGroup])
		if err != nil {
			return nil, fmt.Errorf("parse balance column: %w", err)
		}
		candidate.BalanceAfter = balance
	}

	return candidate, nil
}

// anchorYear resolves the year for grammars whose transaction dates omit
// it, using the statement period anchor and falling back to the current
// year.
func (p *Parser) anchorYear(text string, g Grammar) int {
	if !g.YearFromAnchor {
		return 0
	}
	if period, ok := extractPeriod(text, g); ok {
		return period.Start.Year()
	}
	p.logger.Warn("no period anchor for year resolution, using current year",
		slog.String("bank", g.Bank),
	)
	return time.Now().Year()
}

// ExtractPeriod locates the statement period for a bank's document. The
// second return is false when the document has no recognizable anchor.
func (p *Parser) ExtractPeriod(text, bankName string) (ingest.Period, bool, error) {
	grammar, ok := Lookup(bankName)
	if !ok {
		return ingest.Period{}, false, fmt.Errorf("%w: %s", ingest.ErrUnsupportedBank, bankName)
	}
	period, found := extractPeriod(text, grammar)
	return period, found, nil
}

func extractPeriod(text string, g Grammar) (ingest.Period, bool) {
	m := g.Period.FindStringSubmatch(text)
	if m == nil {
		return ingest.Period{}, false
	}

	if g.PeriodEndOnly {
		end, err := parseDate(m[1], g.PeriodLayout)
		if err != nil {
			return ingest.Period{}, false
		}
		start := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, end.Location())
		return ingest.Period{Start: start, End: end}, true
	}

	start, err := parseDate(m[1], g.PeriodLayout)
	if err != nil {
		return ingest.Period{}, false
	}
	end, err := parseDate(m[2], g.PeriodLayout)
	if err != nil {
		return ingest.Period{}, false
	}
	return ingest.Period{Start: start, End: end}, true
}

// parseDate normalizes run-on whitespace before applying the layout.
func parseDate(s, layout string) (time.Time, error) {
	return time.Parse(layout, collapseSpaces(s))
}

// parseAmountColumn parses a money column. Empty and "-" mean no value.
func parseAmountColumn(s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return nil, nil
	}

	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	d = d.Round(2)
	return &d, nil
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
