package parser

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savohq/statement-ingest/internal/domain/ingest"
)

func testParser() *Parser {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const dbsStatement = `DBS Bank Ltd
Savings Account
As at 31 Aug 2025
01/08/2025 SALARY CREDIT ACME PTE LTD - 5,210.50 8,450.12
03/08/2025 POS PURCHASE NTUC FAIRPRICE 123456 84.20 - 8,365.92
15/08/2025 GIRO PAYMENT TO SP SERVICES 120.00 - 8,245.92
`

func TestParse_DBS(t *testing.T) {
	result, err := testParser().Parse(dbsStatement, "DBS")
	require.NoError(t, err)
	require.Len(t, result.Candidates, 3)
	assert.Zero(t, result.Skipped)

	salary := result.Candidates[0]
	assert.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), salary.Date)
	assert.Equal(t, ingest.TypeCredit, salary.Type)
	assert.True(t, salary.Amount.Equal(decimal.RequireFromString("5210.50")))
	require.NotNil(t, salary.BalanceAfter)
	assert.True(t, salary.BalanceAfter.Equal(decimal.RequireFromString("8450.12")))

	groceries := result.Candidates[1]
	assert.Equal(t, ingest.TypeDebit, groceries.Type)
	assert.True(t, groceries.Amount.Equal(decimal.RequireFromString("84.20")))
	assert.Contains(t, groceries.Description, "NTUC FAIRPRICE")
}

func TestParse_UOB_CreditColumnFirst(t *testing.T) {
	text := `United Overseas Bank
Period: 1 Aug 2025 to 31 Aug 2025
05/08/2025 05/08/2025 INTEREST CREDIT 12.34 - 4,512.34
07/08/2025 08/08/2025 NETS PURCHASE KOPITIAM - 6.50 4,505.84
`

	result, err := testParser().Parse(text, "UOB")
	require.NoError(t, err)
	require.Len(t, result.Candidates, 2)

	assert.Equal(t, ingest.TypeCredit, result.Candidates[0].Type)
	assert.True(t, result.Candidates[0].Amount.Equal(decimal.RequireFromString("12.34")))

	assert.Equal(t, ingest.TypeDebit, result.Candidates[1].Type)
	assert.True(t, result.Candidates[1].Amount.Equal(decimal.RequireFromString("6.50")))
}

func TestParse_OCBC_YearFromPeriodAnchor(t *testing.T) {
	text := `OCBC Bank
Statement of Account
1 Feb 2024 TO 29 Feb 2024
05 Feb 05 Feb FAST PAYMENT TO JOHN TAN 250.00 - 1,750.00
28 Feb 28 Feb SALARY ACME PTE LTD - 4,000.00 5,750.00
`

	result, err := testParser().Parse(text, "OCBC")
	require.NoError(t, err)
	require.Len(t, result.Candidates, 2)

	assert.Equal(t, 2024, result.Candidates[0].Date.Year())
	assert.Equal(t, time.February, result.Candidates[0].Date.Month())
	assert.Equal(t, 5, result.Candidates[0].Date.Day())
}

func TestParse_MalformedLineIsSkippedNotFatal(t *testing.T) {
	text := `DBS Bank Ltd
As at 31 Aug 2025
01/08/2025 SALARY CREDIT - 5,210.50 8,450.12
99/99/2025 BROKEN DATE LINE 10.00 - 1.00
03/08/2025 BOTH COLUMNS EMPTY - - 8,450.12
15/08/2025 GIRO PAYMENT TO SP SERVICES 120.00 - 8,245.92
`

	result, err := testParser().Parse(text, "DBS")
	require.NoError(t, err)
	assert.Len(t, result.Candidates, 2)
	assert.Equal(t, 2, result.Skipped)
}

func TestParse_UnsupportedBank(t *testing.T) {
	_, err := testParser().Parse("anything", "HSBC")
	assert.ErrorIs(t, err, ingest.ErrUnsupportedBank)
}

func TestParse_AmountsArePositiveTwoDecimals(t *testing.T) {
	result, err := testParser().Parse(dbsStatement, "DBS")
	require.NoError(t, err)

	for _, c := range result.Candidates {
		assert.True(t, c.Amount.IsPositive())
		assert.LessOrEqual(t, int(c.Amount.Exponent()*-1), 2)
	}
}

func TestParseSample_Bounded(t *testing.T) {
	sample, err := testParser().ParseSample(dbsStatement, "DBS", 2)
	require.NoError(t, err)
	assert.Len(t, sample, 2)
}

func TestExtractPeriod(t *testing.T) {
	p := testParser()

	t.Run("DBS end-only anchor starts on the first of the month", func(t *testing.T) {
		period, found, err := p.ExtractPeriod(dbsStatement, "DBS")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), period.Start)
		assert.Equal(t, time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC), period.End)
	})

	t.Run("UOB explicit range", func(t *testing.T) {
		text := "United Overseas Bank\nPeriod: 1 Aug 2025 to 31 Aug 2025\n"
		period, found, err := p.ExtractPeriod(text, "UOB")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), period.Start)
		assert.Equal(t, time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC), period.End)
	})

	t.Run("no anchor", func(t *testing.T) {
		_, found, err := p.ExtractPeriod("DBS Bank Ltd\nno period here\n", "DBS")
		require.NoError(t, err)
		assert.False(t, found)
	})
}
