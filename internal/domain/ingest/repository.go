package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UploadFilter narrows an upload history query.
type UploadFilter struct {
	BankName string
	Status   *UploadStatus
	Limit    int
	Offset   int
}

// UploadCompletion carries the fields written when an upload reaches a
// terminal state.
type UploadCompletion struct {
	Status          UploadStatus
	CompletedAt     time.Time
	TotalExtracted  *int
	ConfidenceScore *float64
	ErrorMessage    *string
}

// UploadRepository persists statement uploads.
type UploadRepository interface {
	Create(ctx context.Context, upload *StatementUpload) error
	GetByID(ctx context.Context, id uuid.UUID) (*StatementUpload, error)
	GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*StatementUpload, error)
	// List returns a page of uploads for a user, newest first, plus the
	// total row count for the filter.
	List(ctx context.Context, userID uuid.UUID, filter UploadFilter) ([]*StatementUpload, int, error)
	// Complete finalizes an upload. The repository enforces single-writer
	// semantics by matching on the current PROCESSING status.
	Complete(ctx context.Context, id uuid.UUID, result UploadCompletion) error
	// ResetForRetry moves a FAILED upload back to PROCESSING, clearing the
	// prior error, completion timestamp, and extracted count.
	ResetForRetry(ctx context.Context, id uuid.UUID, startedAt time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsByAccountFile(ctx context.Context, accountID uuid.UUID, fileName string, fileSize int64) (bool, error)
	// MarkStuckProcessing fails uploads that entered PROCESSING before the
	// cutoff and returns how many were flagged.
	MarkStuckProcessing(ctx context.Context, cutoff time.Time, message string) (int64, error)
}

// AccountRepository persists bank accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*BankAccount, error)
	FindByIdentity(ctx context.Context, userID uuid.UUID, bankName, maskedNumber string) (*BankAccount, error)
	// Insert creates the account. A unique-constraint conflict on
	// (user, bank, masked number) is returned as ErrAccountExists so
	// callers can re-read the winner.
	Insert(ctx context.Context, account *BankAccount) error
	TouchLastStatement(ctx context.Context, id uuid.UUID, at time.Time) error
}

// TransactionRepository persists extracted transactions.
type TransactionRepository interface {
	BulkInsert(ctx context.Context, txs []*Transaction) (int, error)
	CountByAccountAndDateRange(ctx context.Context, accountID uuid.UUID, start, end time.Time) (int64, error)
	ExistsExact(ctx context.Context, accountID uuid.UUID, date time.Time, description string, amount decimal.Decimal) (bool, error)
	DeleteByUpload(ctx context.Context, uploadID uuid.UUID) (int64, error)
}

// CategoryRepository resolves and creates classification buckets.
type CategoryRepository interface {
	FindSystemByName(ctx context.Context, name string) (*Category, error)
	FindUserByName(ctx context.Context, userID uuid.UUID, name string) (*Category, error)
	CreateSystem(ctx context.Context, category *Category) error
}
