package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/savohq/statement-ingest/internal/domain/ingest"
)

// TransactionRepository persists extracted transactions in Postgres.
type TransactionRepository struct {
	db Querier
}

func NewTransactionRepository(db Querier) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// BulkInsert writes all transactions in one batch and returns how many
// rows were inserted.
func (r *TransactionRepository) BulkInsert(ctx context.Context, txs []*ingest.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO transactions (
			id, user_id, bank_account_id, statement_upload_id,
			transaction_date, description, merchant_name, amount,
			transaction_type, balance_after, category_id,
			category_confidence, is_manually_categorized,
			day_of_week, is_weekend
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	batch := &pgx.Batch{}
	for _, tx := range txs {
		batch.Queue(query,
			tx.ID,
			tx.UserID,
			tx.BankAccountID,
			tx.StatementUploadID,
			tx.Date,
			tx.Description,
			tx.MerchantName,
			tx.Amount,
			tx.Type,
			tx.BalanceAfter,
			tx.CategoryID,
			tx.CategoryConfidence,
			tx.IsManuallyCategorized,
			tx.DayOfWeek,
			tx.IsWeekend,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range txs {
		tag, err := results.Exec()
		if err != nil {
			return inserted, err
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func (r *TransactionRepository) CountByAccountAndDateRange(ctx context.Context, accountID uuid.UUID, start, end time.Time) (int64, error) {
	query := `
		SELECT count(*)
		FROM transactions
		WHERE bank_account_id = $1 AND transaction_date BETWEEN $2 AND $3
	`

	var count int64
	err := r.db.QueryRow(ctx, query, accountID, start, end).Scan(&count)
	return count, err
}

func (r *TransactionRepository) ExistsExact(ctx context.Context, accountID uuid.UUID, date time.Time, description string, amount decimal.Decimal) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE bank_account_id = $1
			  AND transaction_date = $2
			  AND description = $3
			  AND amount = $4
		)
	`

	var exists bool
	err := r.db.QueryRow(ctx, query, accountID, date, description, amount).Scan(&exists)
	return exists, err
}

func (r *TransactionRepository) DeleteByUpload(ctx context.Context, uploadID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM transactions WHERE statement_upload_id = $1`, uploadID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
