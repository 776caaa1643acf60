// Package dedup decides whether an incoming statement was already
// ingested for an account.
package dedup

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/savohq/statement-ingest/internal/domain/ingest"
	"github.com/savohq/statement-ingest/internal/domain/ingest/parser"
	"github.com/savohq/statement-ingest/pkg/metrics"
)

// sampleSize is how many leading transactions are compared against the
// ledger to prove a period-overlapping statement is the same document.
const sampleSize = 5

// Document is the incoming statement under inspection.
type Document struct {
	FileName string
	FileSize int64
	Text     string
	BankName string
}

// Detector runs the two-tier duplicate check: statement-period overlap
// confirmed by exact sample matches, followed by a filename and size
// comparison. The file tier always runs so that a byte-identical resubmit
// is caught even before the first upload's transactions are persisted.
type Detector struct {
	transactions ingest.TransactionRepository
	uploads      ingest.UploadRepository
	parser       *parser.Parser
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

func New(
	transactions ingest.TransactionRepository,
	uploads ingest.UploadRepository,
	p *parser.Parser,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Detector {
	return &Detector{
		transactions: transactions,
		uploads:      uploads,
		parser:       p,
		metrics:      m,
		logger:       logger,
	}
}

// Check returns a DuplicateError when the document is already present for
// the account, nil when ingestion may proceed.
func (d *Detector) Check(ctx context.Context, doc Document, accountID uuid.UUID) error {
	if d.checkByPeriod(ctx, doc, accountID) {
		d.metrics.DuplicateRejected()
		return &ingest.DuplicateError{
			Reason: ingest.DuplicatePeriod,
			Msg:    "statement for this period was already imported",
		}
	}

	return d.checkByFile(ctx, doc, accountID)
}

// checkByPeriod is the content-based tier. Any sampled transaction that
// exactly matches a stored one marks the document as a duplicate. A
// verdict cannot be produced when the period or sample cannot be
// extracted or a query fails; the file tier still runs either way.
func (d *Detector) checkByPeriod(ctx context.Context, doc Document, accountID uuid.UUID) bool {
	period, found, err := d.parser.ExtractPeriod(doc.Text, doc.BankName)
	if err != nil || !found {
		d.logger.Debug("no statement period for duplicate check, skipping content tier",
			slog.String("file_name", doc.FileName),
		)
		return false
	}

	count, err := d.transactions.CountByAccountAndDateRange(ctx, accountID, period.Start, period.End)
	if err != nil {
		d.logger.Warn("period overlap query failed, skipping content tier",
			slog.Any("error", err),
		)
		return false
	}
	if count == 0 {
		return false
	}

	sample, err := d.parser.ParseSample(doc.Text, doc.BankName, sampleSize)
	if err != nil || len(sample) == 0 {
		d.logger.Warn("could not sample statement for duplicate check, skipping content tier",
			slog.Any("error", err),
		)
		return false
	}

	for _, c := range sample {
		exists, err := d.transactions.ExistsExact(ctx, accountID, c.Date, c.Description, c.Amount)
		if err != nil {
			d.logger.Warn("sample match query failed, skipping content tier",
				slog.Any("error", err),
			)
			return false
		}
		if exists {
			return true
		}
	}

	d.logger.Warn("period overlaps existing transactions but no sample matched, allowing import",
		slog.Int("in_period", int(count)),
		slog.Int("sampled", len(sample)),
		slog.String("account_id", accountID.String()),
	)
	return false
}

// checkByFile is the second tier: same file name and byte size for the
// same account.
func (d *Detector) checkByFile(ctx context.Context, doc Document, accountID uuid.UUID) error {
	exists, err := d.uploads.ExistsByAccountFile(ctx, accountID, doc.FileName, doc.FileSize)
	if err != nil {
		return err
	}
	if exists {
		d.metrics.DuplicateRejected()
		return &ingest.DuplicateError{
			Reason: ingest.DuplicateFile,
			Msg:    "a statement with this file name and size was already uploaded",
		}
	}
	return nil
}
