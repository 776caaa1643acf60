package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/savohq/statement-ingest/internal/domain/ingest"
)

const accountColumns = `
	id, user_id, bank_name, account_type, account_number_masked,
	account_nickname, is_active, last_statement_date, created_at
`

// AccountRepository persists bank accounts in Postgres.
type AccountRepository struct {
	db Querier
}

func NewAccountRepository(db Querier) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*ingest.BankAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM bank_accounts WHERE id = $1`
	return scanAccount(r.db.QueryRow(ctx, query, id))
}

func (r *AccountRepository) FindByIdentity(ctx context.Context, userID uuid.UUID, bankName, maskedNumber string) (*ingest.BankAccount, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM bank_accounts
		WHERE user_id = $1 AND bank_name = $2 AND account_number_masked = $3
	`
	return scanAccount(r.db.QueryRow(ctx, query, userID, bankName, maskedNumber))
}

func (r *AccountRepository) Insert(ctx context.Context, account *ingest.BankAccount) error {
	query := `
		INSERT INTO bank_accounts (
			id, user_id, bank_name, account_type, account_number_masked,
			account_nickname, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		account.ID,
		account.UserID,
		account.BankName,
		account.AccountType,
		account.AccountNumberMasked,
		account.AccountNickname,
		account.IsActive,
	).Scan(&account.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ingest.ErrAccountExists
	}
	return err
}

func (r *AccountRepository) TouchLastStatement(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE bank_accounts
		SET last_statement_date = $2
		WHERE id = $1 AND (last_statement_date IS NULL OR last_statement_date < $2)
	`
	_, err := r.db.Exec(ctx, query, id, at)
	return err
}

func scanAccount(row pgx.Row) (*ingest.BankAccount, error) {
	var a ingest.BankAccount
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.BankName,
		&a.AccountType,
		&a.AccountNumberMasked,
		&a.AccountNickname,
		&a.IsActive,
		&a.LastStatementDate,
		&a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ingest.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
