package dedup

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savohq/statement-ingest/internal/domain/ingest"
	"github.com/savohq/statement-ingest/internal/domain/ingest/parser"
)

const statementText = `DBS Bank Ltd
As at 31 Aug 2025
01/08/2025 SALARY CREDIT ACME PTE LTD - 5,210.50 8,450.12
03/08/2025 POS PURCHASE NTUC FAIRPRICE 123456 84.20 - 8,365.92
15/08/2025 GIRO PAYMENT TO SP SERVICES 120.00 - 8,245.92
`

// fakeTransactions serves the period-count and exact-match queries from a
// fixed in-memory set.
type fakeTransactions struct {
	ingest.TransactionRepository
	countInPeriod int64
	existing      map[string]bool
	countErr      error
	existsErr     error
}

func existingKey(date time.Time, description string, amount decimal.Decimal) string {
	return date.Format("2006-01-02") + "|" + description + "|" + amount.StringFixed(2)
}

func (f *fakeTransactions) CountByAccountAndDateRange(context.Context, uuid.UUID, time.Time, time.Time) (int64, error) {
	return f.countInPeriod, f.countErr
}

func (f *fakeTransactions) ExistsExact(_ context.Context, _ uuid.UUID, date time.Time, description string, amount decimal.Decimal) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.existing[existingKey(date, description, amount)], nil
}

type fakeUploads struct {
	ingest.UploadRepository
	fileExists bool
}

func (f *fakeUploads) ExistsByAccountFile(context.Context, uuid.UUID, string, int64) (bool, error) {
	return f.fileExists, nil
}

func testDetector(txs *fakeTransactions, uploads *fakeUploads) *Detector {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(txs, uploads, parser.New(logger), nil, logger)
}

func testDocument() Document {
	return Document{
		FileName: "statement-aug.pdf",
		FileSize: 20_000,
		Text:     statementText,
		BankName: "DBS",
	}
}

func allStatementTransactions(t *testing.T) map[string]bool {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	result, err := parser.New(logger).Parse(statementText, "DBS")
	require.NoError(t, err)

	existing := make(map[string]bool, len(result.Candidates))
	for _, c := range result.Candidates {
		existing[existingKey(c.Date, c.Description, c.Amount)] = true
	}
	return existing
}

func TestCheck_NoPeriodOverlapPasses(t *testing.T) {
	d := testDetector(&fakeTransactions{countInPeriod: 0}, &fakeUploads{})

	err := d.Check(context.Background(), testDocument(), uuid.New())
	assert.NoError(t, err)
}

func TestCheck_SampleMatchRejectsAsDuplicate(t *testing.T) {
	txs := &fakeTransactions{
		countInPeriod: 3,
		existing:      allStatementTransactions(t),
	}
	d := testDetector(txs, &fakeUploads{})

	err := d.Check(context.Background(), testDocument(), uuid.New())

	var dup *ingest.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, ingest.DuplicatePeriod, dup.Reason)
}

func TestCheck_SingleSampleMatchRejectsAsDuplicate(t *testing.T) {
	// A reissued statement sharing even one transaction with stored
	// history must not be ingested again.
	all := allStatementTransactions(t)
	for key := range all {
		single := map[string]bool{key: true}
		txs := &fakeTransactions{countInPeriod: 3, existing: single}
		d := testDetector(txs, &fakeUploads{})

		err := d.Check(context.Background(), testDocument(), uuid.New())

		var dup *ingest.DuplicateError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, ingest.DuplicatePeriod, dup.Reason)
	}
}

func TestCheck_OverlapWithoutSampleMatchIsNearMissAllowed(t *testing.T) {
	// Period overlaps but none of the stored transactions match the
	// sample, e.g. a supplementary statement for the same month.
	txs := &fakeTransactions{
		countInPeriod: 7,
		existing:      map[string]bool{},
	}
	d := testDetector(txs, &fakeUploads{})

	err := d.Check(context.Background(), testDocument(), uuid.New())
	assert.NoError(t, err)
}

func TestCheck_FileCheckRunsAfterCleanPeriodTier(t *testing.T) {
	// Same file resubmitted before the first upload's transactions were
	// persisted: the period tier sees no overlap, the file tier catches it.
	d := testDetector(&fakeTransactions{countInPeriod: 0}, &fakeUploads{fileExists: true})

	err := d.Check(context.Background(), testDocument(), uuid.New())

	var dup *ingest.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, ingest.DuplicateFile, dup.Reason)
}

func TestCheck_ExtractionFailureDegradesToFileCheck(t *testing.T) {
	doc := testDocument()
	doc.Text = "DBS Bank Ltd\nno period anchor printed here\n"

	t.Run("file already uploaded", func(t *testing.T) {
		d := testDetector(&fakeTransactions{}, &fakeUploads{fileExists: true})

		err := d.Check(context.Background(), doc, uuid.New())

		var dup *ingest.DuplicateError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, ingest.DuplicateFile, dup.Reason)
	})

	t.Run("new file", func(t *testing.T) {
		d := testDetector(&fakeTransactions{}, &fakeUploads{fileExists: false})
		assert.NoError(t, d.Check(context.Background(), doc, uuid.New()))
	})
}

func TestCheck_QueryFailureDegradesToFileCheck(t *testing.T) {
	txs := &fakeTransactions{countErr: assert.AnError}
	d := testDetector(txs, &fakeUploads{fileExists: true})

	err := d.Check(context.Background(), testDocument(), uuid.New())

	var dup *ingest.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, ingest.DuplicateFile, dup.Reason)
}
