// Package service orchestrates the statement ingestion pipeline: upload
// validation, bank detection, duplicate checking, file storage, and the
// async parse lifecycle.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/savohq/statement-ingest/internal/domain/ingest"
	"github.com/savohq/statement-ingest/internal/domain/ingest/bank"
	"github.com/savohq/statement-ingest/internal/domain/ingest/dedup"
	"github.com/savohq/statement-ingest/internal/domain/ingest/extract"
	"github.com/savohq/statement-ingest/pkg/config"
	"github.com/savohq/statement-ingest/pkg/metrics"
	"github.com/savohq/statement-ingest/pkg/storage"
)

// SubmitRequest is an incoming statement file.
type SubmitRequest struct {
	FileName    string
	Size        int64
	ContentType string
	Content     io.Reader
}

// UploadService implements the ingestion state machine:
// UPLOADING -> PROCESSING -> {COMPLETED, FAILED}, with FAILED -> PROCESSING
// on retry as the only backward transition.
type UploadService struct {
	cfg       config.UploadConfig
	uploads   ingest.UploadRepository
	accounts  ingest.AccountRepository
	txs       ingest.TransactionRepository
	resolver  *bank.Resolver
	dedup     *dedup.Detector
	extractor extract.Extractor
	store     storage.ObjectStore
	pool      *Pool
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewUploadService(
	cfg config.UploadConfig,
	uploads ingest.UploadRepository,
	accounts ingest.AccountRepository,
	txs ingest.TransactionRepository,
	resolver *bank.Resolver,
	dup *dedup.Detector,
	extractor extract.Extractor,
	store storage.ObjectStore,
	pool *Pool,
	m *metrics.Metrics,
	logger *slog.Logger,
) *UploadService {
	return &UploadService{
		cfg:       cfg,
		uploads:   uploads,
		accounts:  accounts,
		txs:       txs,
		resolver:  resolver,
		dedup:     dup,
		extractor: extractor,
		store:     store,
		pool:      pool,
		metrics:   m,
		logger:    logger,
	}
}

// Submit validates the file, detects the issuer, resolves the account,
// runs the duplicate check, stores the document, persists a PROCESSING
// upload, and dispatches the async parse. It returns as soon as the
// record exists; parsing happens in the worker pool.
func (s *UploadService) Submit(ctx context.Context, userID uuid.UUID, req SubmitRequest) (*ingest.StatementUpload, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(req.Content, s.cfg.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ingest.ErrFileTooLarge, s.cfg.MaxFileSize)
	}
	if len(data) == 0 {
		return nil, ingest.Validationf("file is empty")
	}

	reader := bytes.NewReader(data)
	firstPage, err := s.extractor.Text(ctx, reader, int64(len(data)), 1)
	if err != nil {
		return nil, ingest.Validationf("could not read document text: %v", err)
	}

	detection, err := bank.Detect(firstPage)
	if err != nil {
		return nil, err
	}

	account, err := s.resolver.Resolve(ctx, userID, detection)
	if err != nil {
		return nil, err
	}

	fullText, err := s.extractor.Text(ctx, reader, int64(len(data)), 0)
	if err != nil {
		return nil, ingest.Validationf("could not read document text: %v", err)
	}

	doc := dedup.Document{
		FileName: req.FileName,
		FileSize: int64(len(data)),
		Text:     fullText,
		BankName: account.BankName,
	}
	if err := s.dedup.Check(ctx, doc, account.ID); err != nil {
		return nil, err
	}

	key := storage.StatementKey(userID, req.FileName)
	if err := s.store.Put(ctx, key, req.ContentType, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("store statement file: %w", err)
	}

	now := time.Now()
	upload := &ingest.StatementUpload{
		ID:                  uuid.New(),
		UserID:              userID,
		BankAccountID:       account.ID,
		FileName:            req.FileName,
		FileSize:            int64(len(data)),
		StorageKey:          key,
		Status:              ingest.StatusProcessing,
		ProcessingStartedAt: &now,
	}
	s.capturePeriod(upload, fullText, account.BankName)

	if err := s.uploads.Create(ctx, upload); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Warn("orphaned statement file after failed upload insert",
				slog.String("key", key),
				slog.Any("error", delErr),
			)
		}
		return nil, fmt.Errorf("create upload record: %w", err)
	}

	s.pool.Enqueue(upload.ID)
	s.logger.Info("statement upload accepted",
		slog.String("upload_id", upload.ID.String()),
		slog.String("bank", account.BankName),
		slog.String("file_name", req.FileName),
	)
	return upload, nil
}

func (s *UploadService) validate(req SubmitRequest) error {
	if req.Content == nil {
		return ingest.Validationf("no file provided")
	}
	if req.FileName == "" {
		return ingest.Validationf("file name is required")
	}
	if req.Size == 0 {
		return ingest.Validationf("file is empty")
	}
	if req.Size > s.cfg.MaxFileSize {
		return fmt.Errorf("%w: limit is %d bytes", ingest.ErrFileTooLarge, s.cfg.MaxFileSize)
	}
	if req.ContentType != s.cfg.AllowedMediaType {
		return fmt.Errorf("%w: got %q, expected %q", ingest.ErrUnsupportedMediaType, req.ContentType, s.cfg.AllowedMediaType)
	}
	return nil
}

// capturePeriod sets the statement period on the upload row when the
// document reveals one. Failure to find a period is not an error.
func (s *UploadService) capturePeriod(upload *ingest.StatementUpload, text, bankName string) {
	period, found, err := s.pool.parser.ExtractPeriod(text, bankName)
	if err != nil || !found {
		return
	}
	start, end := period.Start, period.End
	upload.StatementPeriodStart = &start
	upload.StatementPeriodEnd = &end
}

// Status returns the upload for the requesting user.
func (s *UploadService) Status(ctx context.Context, userID, uploadID uuid.UUID) (*ingest.StatementUpload, error) {
	return s.uploads.GetByIDAndUser(ctx, uploadID, userID)
}

// History returns a page of the user's uploads, newest first. An
// unrecognized status filter value is ignored with a warning rather than
// rejecting the query.
func (s *UploadService) History(ctx context.Context, userID uuid.UUID, bankName, status string, limit, offset int) ([]*ingest.StatementUpload, int, error) {
	filter := ingest.UploadFilter{
		BankName: bankName,
		Limit:    limit,
		Offset:   offset,
	}
	if status != "" {
		parsed, ok := ingest.ParseUploadStatus(status)
		if ok {
			filter.Status = &parsed
		} else {
			s.logger.Warn("ignoring invalid upload status filter",
				slog.String("status", status),
			)
		}
	}
	return s.uploads.List(ctx, userID, filter)
}

// Delete removes an upload, its stored file, and, for COMPLETED uploads,
// every transaction extracted from it. PROCESSING uploads cannot be
// deleted while the async task owns them.
func (s *UploadService) Delete(ctx context.Context, userID, uploadID uuid.UUID) error {
	upload, err := s.uploads.GetByIDAndUser(ctx, uploadID, userID)
	if err != nil {
		return err
	}
	if upload.Status == ingest.StatusProcessing {
		return ingest.ErrUploadProcessing
	}

	if upload.Status == ingest.StatusCompleted {
		removed, err := s.txs.DeleteByUpload(ctx, upload.ID)
		if err != nil {
			return fmt.Errorf("delete upload transactions: %w", err)
		}
		s.logger.Info("deleted upload transactions",
			slog.String("upload_id", upload.ID.String()),
			slog.Int64("count", removed),
		)
	}

	if err := s.store.Delete(ctx, upload.StorageKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete statement file: %w", err)
	}
	return s.uploads.Delete(ctx, upload.ID)
}

// Retry re-enters a FAILED upload into the async pipeline. The stored
// file must still exist.
func (s *UploadService) Retry(ctx context.Context, userID, uploadID uuid.UUID) (*ingest.StatementUpload, error) {
	upload, err := s.uploads.GetByIDAndUser(ctx, uploadID, userID)
	if err != nil {
		return nil, err
	}
	if upload.Status != ingest.StatusFailed {
		return nil, ingest.Validationf("only failed uploads can be retried, current status is %s", upload.Status)
	}

	exists, err := s.store.Exists(ctx, upload.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("check statement file: %w", err)
	}
	if !exists {
		return nil, ingest.Validationf("the original statement file is no longer available")
	}

	now := time.Now()
	if err := s.uploads.ResetForRetry(ctx, upload.ID, now); err != nil {
		return nil, err
	}

	upload.Status = ingest.StatusProcessing
	upload.ProcessingStartedAt = &now
	upload.ProcessingCompletedAt = nil
	upload.ErrorMessage = nil
	upload.TotalTransactionsExtracted = nil

	s.pool.Enqueue(upload.ID)
	s.logger.Info("retrying failed upload",
		slog.String("upload_id", upload.ID.String()),
	)
	return upload, nil
}
