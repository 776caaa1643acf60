package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/savohq/statement-ingest/internal/domain/ingest"
	"github.com/savohq/statement-ingest/internal/domain/ingest/categorize"
	"github.com/savohq/statement-ingest/internal/domain/ingest/extract"
	"github.com/savohq/statement-ingest/internal/domain/ingest/parser"
	"github.com/savohq/statement-ingest/pkg/config"
	"github.com/savohq/statement-ingest/pkg/metrics"
	"github.com/savohq/statement-ingest/pkg/storage"
)

// Pool runs the async parse-and-categorize step. A fixed set of workers
// consumes upload IDs from a buffered queue; each upload is owned by
// exactly one worker once dequeued, so record mutation is single-writer.
type Pool struct {
	cfg         config.UploadConfig
	uploads     ingest.UploadRepository
	accounts    ingest.AccountRepository
	txs         ingest.TransactionRepository
	extractor   extract.Extractor
	parser      *parser.Parser
	categorizer *categorize.Categorizer
	store       storage.ObjectStore
	metrics     *metrics.Metrics
	logger      *slog.Logger

	queue chan uuid.UUID
	wg    sync.WaitGroup
}

func NewPool(
	cfg config.UploadConfig,
	uploads ingest.UploadRepository,
	accounts ingest.AccountRepository,
	txs ingest.TransactionRepository,
	extractor extract.Extractor,
	p *parser.Parser,
	categorizer *categorize.Categorizer,
	store storage.ObjectStore,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Pool {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Pool{
		cfg:         cfg,
		uploads:     uploads,
		accounts:    accounts,
		txs:         txs,
		extractor:   extractor,
		parser:      p,
		categorizer: categorizer,
		store:       store,
		metrics:     m,
		logger:      logger,
		queue:       make(chan uuid.UUID, queueSize),
	}
}

// Start launches the workers. They exit when ctx is cancelled or the
// queue is closed via Stop.
func (p *Pool) Start(ctx context.Context) {
	workers := p.cfg.Workers
	if workers <= 0 {
		workers = 2
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run(ctx)
	}
	p.logger.Info("statement processing workers started",
		slog.Int("workers", workers),
	)
}

// Stop closes the queue and waits for in-flight uploads to finish.
func (p *Pool) Stop() {
	close(p.queue)
	p.wg.Wait()
}

// Enqueue dispatches an upload for async processing. Blocks when the
// queue is full, applying backpressure to submissions.
func (p *Pool) Enqueue(id uuid.UUID) {
	p.queue <- id
}

func (p *Pool) run(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case id, ok := <-p.queue:
			if !ok {
				return
			}
			p.process(ctx, id)
		}
	}
}

// process executes one async parse: extract, parse, categorize, bulk
// insert, finalize. Any failure lands the upload in FAILED with the
// error captured; nothing propagates to the submitter.
func (p *Pool) process(ctx context.Context, id uuid.UUID) {
	started := time.Now()

	upload, err := p.uploads.GetByID(ctx, id)
	if err != nil {
		p.logger.Error("cannot load upload for processing",
			slog.String("upload_id", id.String()),
			slog.Any("error", err),
		)
		return
	}
	if upload.Status != ingest.StatusProcessing {
		p.logger.Warn("skipping upload not in processing state",
			slog.String("upload_id", id.String()),
			slog.String("status", string(upload.Status)),
		)
		return
	}

	extracted, confidence, err := p.ingest(ctx, upload)
	if err != nil {
		p.fail(ctx, upload, err)
		return
	}

	if extracted == 0 && p.cfg.EmptyStatementPolicy == config.EmptyStatementFail {
		p.fail(ctx, upload, fmt.Errorf("no transactions could be extracted from the statement"))
		return
	}

	completion := ingest.UploadCompletion{
		Status:          ingest.StatusCompleted,
		CompletedAt:     time.Now(),
		TotalExtracted:  &extracted,
		ConfidenceScore: &confidence,
	}
	if err := p.uploads.Complete(ctx, upload.ID, completion); err != nil {
		p.logger.Error("cannot finalize completed upload",
			slog.String("upload_id", upload.ID.String()),
			slog.Any("error", err),
		)
		return
	}

	p.metrics.UploadFinished("completed")
	p.metrics.ProcessingDuration(time.Since(started).Seconds())
	p.logger.Info("statement processed",
		slog.String("upload_id", upload.ID.String()),
		slog.Int("transactions", extracted),
		slog.Duration("took", time.Since(started)),
	)
}

func (p *Pool) ingest(ctx context.Context, upload *ingest.StatementUpload) (int, float64, error) {
	account, err := p.accounts.GetByID(ctx, upload.BankAccountID)
	if err != nil {
		return 0, 0, fmt.Errorf("load bank account: %w", err)
	}

	file, err := p.store.Get(ctx, upload.StorageKey)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch statement file: %w", err)
	}
	data, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		return 0, 0, fmt.Errorf("read statement file: %w", err)
	}

	text, err := p.extractor.Text(ctx, bytes.NewReader(data), int64(len(data)), 0)
	if err != nil {
		return 0, 0, fmt.Errorf("extract document text: %w", err)
	}

	result, err := p.parser.Parse(text, account.BankName)
	if err != nil {
		return 0, 0, err
	}
	p.metrics.ParseLinesSkipped(result.Skipped)

	if len(result.Candidates) == 0 {
		return 0, 0, nil
	}

	txs := make([]*ingest.Transaction, 0, len(result.Candidates))
	totalConfidence := 0.0
	for _, c := range result.Candidates {
		assignment := p.categorizer.Categorize(ctx, upload.UserID, c.Description, c.MerchantName, c.Amount, c.Type)
		totalConfidence += assignment.Confidence

		dayOfWeek, isWeekend := ingest.DeriveDayFields(c.Date)
		uploadID := upload.ID
		merchant := c.MerchantName

		tx := &ingest.Transaction{
			ID:                 uuid.New(),
			UserID:             upload.UserID,
			BankAccountID:      upload.BankAccountID,
			StatementUploadID:  &uploadID,
			Date:               c.Date,
			Description:        c.Description,
			MerchantName:       &merchant,
			Amount:             c.Amount,
			Type:               c.Type,
			BalanceAfter:       c.BalanceAfter,
			CategoryConfidence: assignment.Confidence,
			DayOfWeek:          dayOfWeek,
			IsWeekend:          isWeekend,
		}
		if assignment.CategoryID != uuid.Nil {
			categoryID := assignment.CategoryID
			tx.CategoryID = &categoryID
		}
		txs = append(txs, tx)
	}

	inserted, err := p.txs.BulkInsert(ctx, txs)
	if err != nil {
		return 0, 0, fmt.Errorf("persist transactions: %w", err)
	}

	return inserted, totalConfidence / float64(len(txs)), nil
}

func (p *Pool) fail(ctx context.Context, upload *ingest.StatementUpload, cause error) {
	msg := cause.Error()
	completion := ingest.UploadCompletion{
		Status:       ingest.StatusFailed,
		CompletedAt:  time.Now(),
		ErrorMessage: &msg,
	}
	if err := p.uploads.Complete(ctx, upload.ID, completion); err != nil {
		p.logger.Error("cannot finalize failed upload",
			slog.String("upload_id", upload.ID.String()),
			slog.Any("error", err),
		)
		return
	}
	p.metrics.UploadFinished("failed")
	p.logger.Error("statement processing failed",
		slog.String("upload_id", upload.ID.String()),
		slog.Any("error", cause),
	)
}
