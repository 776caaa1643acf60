// Package repository contains the pgx implementations of the ingestion
// persistence contracts.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/savohq/statement-ingest/internal/domain/ingest"
)

// Querier is the subset of pgxpool.Pool the repositories need. Tests
// substitute a pgxmock pool.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

const uploadColumns = `
	id, user_id, bank_account_id, file_name, file_size, storage_key,
	upload_status, processing_started_at, processing_completed_at,
	statement_period_start, statement_period_end,
	total_transactions_extracted, confidence_score, error_message, created_at
`

// UploadRepository persists statement uploads in Postgres.
type UploadRepository struct {
	db Querier
}

func NewUploadRepository(db Querier) *UploadRepository {
	return &UploadRepository{db: db}
}

func (r *UploadRepository) Create(ctx context.Context, upload *ingest.StatementUpload) error {
	query := `
		INSERT INTO statement_uploads (
			id, user_id, bank_account_id, file_name, file_size, storage_key,
			upload_status, processing_started_at,
			statement_period_start, statement_period_end
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	return r.db.QueryRow(ctx, query,
		upload.ID,
		upload.UserID,
		upload.BankAccountID,
		upload.FileName,
		upload.FileSize,
		upload.StorageKey,
		upload.Status,
		upload.ProcessingStartedAt,
		upload.StatementPeriodStart,
		upload.StatementPeriodEnd,
	).Scan(&upload.CreatedAt)
}

func (r *UploadRepository) GetByID(ctx context.Context, id uuid.UUID) (*ingest.StatementUpload, error) {
	query := `SELECT ` + uploadColumns + ` FROM statement_uploads WHERE id = $1`
	return scanUpload(r.db.QueryRow(ctx, query, id))
}

func (r *UploadRepository) GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*ingest.StatementUpload, error) {
	query := `SELECT ` + uploadColumns + ` FROM statement_uploads WHERE id = $1 AND user_id = $2`
	return scanUpload(r.db.QueryRow(ctx, query, id, userID))
}

func (r *UploadRepository) List(ctx context.Context, userID uuid.UUID, filter ingest.UploadFilter) ([]*ingest.StatementUpload, int, error) {
	where := `WHERE u.user_id = $1`
	args := []any{userID}

	if filter.BankName != "" {
		args = append(args, filter.BankName)
		where += fmt.Sprintf(` AND a.bank_name = $%d`, len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where += fmt.Sprintf(` AND u.upload_status = $%d`, len(args))
	}

	countQuery := `
		SELECT count(*)
		FROM statement_uploads u
		JOIN bank_accounts a ON a.id = u.bank_account_id
	` + where

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, filter.Offset)

	query := `
		SELECT u.id, u.user_id, u.bank_account_id, u.file_name, u.file_size,
		       u.storage_key, u.upload_status, u.processing_started_at,
		       u.processing_completed_at, u.statement_period_start,
		       u.statement_period_end, u.total_transactions_extracted,
		       u.confidence_score, u.error_message, u.created_at
		FROM statement_uploads u
		JOIN bank_accounts a ON a.id = u.bank_account_id
	` + where + fmt.Sprintf(`
		ORDER BY u.created_at DESC
		LIMIT $%d OFFSET $%d
	`, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var uploads []*ingest.StatementUpload
	for rows.Next() {
		upload, err := scanUpload(rows)
		if err != nil {
			return nil, 0, err
		}
		uploads = append(uploads, upload)
	}
	return uploads, total, rows.Err()
}

func (r *UploadRepository) Complete(ctx context.Context, id uuid.UUID, result ingest.UploadCompletion) error {
	query := `
		UPDATE statement_uploads
		SET upload_status = $2,
		    processing_completed_at = $3,
		    total_transactions_extracted = $4,
		    confidence_score = $5,
		    error_message = $6
		WHERE id = $1 AND upload_status = $7
	`

	tag, err := r.db.Exec(ctx, query,
		id,
		result.Status,
		result.CompletedAt,
		result.TotalExtracted,
		result.ConfidenceScore,
		result.ErrorMessage,
		ingest.StatusProcessing,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ingest.ErrNotFound
	}
	return nil
}

func (r *UploadRepository) ResetForRetry(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	query := `
		UPDATE statement_uploads
		SET upload_status = $2,
		    processing_started_at = $3,
		    processing_completed_at = NULL,
		    total_transactions_extracted = NULL,
		    confidence_score = NULL,
		    error_message = NULL
		WHERE id = $1 AND upload_status = $4
	`

	tag, err := r.db.Exec(ctx, query, id, ingest.StatusProcessing, startedAt, ingest.StatusFailed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ingest.ErrNotFound
	}
	return nil
}

func (r *UploadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM statement_uploads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ingest.ErrNotFound
	}
	return nil
}

func (r *UploadRepository) ExistsByAccountFile(ctx context.Context, accountID uuid.UUID, fileName string, fileSize int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM statement_uploads
			WHERE bank_account_id = $1 AND file_name = $2 AND file_size = $3
		)
	`

	var exists bool
	err := r.db.QueryRow(ctx, query, accountID, fileName, fileSize).Scan(&exists)
	return exists, err
}

func (r *UploadRepository) MarkStuckProcessing(ctx context.Context, cutoff time.Time, message string) (int64, error) {
	query := `
		UPDATE statement_uploads
		SET upload_status = $1,
		    processing_completed_at = now(),
		    error_message = $2
		WHERE upload_status = $3 AND processing_started_at < $4
	`

	tag, err := r.db.Exec(ctx, query, ingest.StatusFailed, message, ingest.StatusProcessing, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanUpload(row pgx.Row) (*ingest.StatementUpload, error) {
	var u ingest.StatementUpload
	err := row.Scan(
		&u.ID,
		&u.UserID,
		&u.BankAccountID,
		&u.FileName,
		&u.FileSize,
		&u.StorageKey,
		&u.Status,
		&u.ProcessingStartedAt,
		&u.ProcessingCompletedAt,
		&u.StatementPeriodStart,
		&u.StatementPeriodEnd,
		&u.TotalTransactionsExtracted,
		&u.ConfidenceScore,
		&u.ErrorMessage,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ingest.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
