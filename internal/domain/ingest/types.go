// Package ingest defines the core entities, error taxonomy, and repository
// contracts of the bank statement ingestion pipeline.
package ingest

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UploadStatus is the lifecycle state of a statement upload.
type UploadStatus string

const (
	StatusUploading  UploadStatus = "UPLOADING"
	StatusProcessing UploadStatus = "PROCESSING"
	StatusCompleted  UploadStatus = "COMPLETED"
	StatusFailed     UploadStatus = "FAILED"
)

// IsTerminal reports whether the status permits no further processing.
func (s UploadStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ParseUploadStatus validates a status filter value.
func ParseUploadStatus(s string) (UploadStatus, bool) {
	switch UploadStatus(s) {
	case StatusUploading, StatusProcessing, StatusCompleted, StatusFailed:
		return UploadStatus(s), true
	}
	return "", false
}

// TransactionType carries the direction of a transaction. Amounts are always
// strictly positive; the sign lives here.
type TransactionType string

const (
	TypeDebit  TransactionType = "Debit"
	TypeCredit TransactionType = "Credit"
)

// Period is the date range a statement document covers.
type Period struct {
	Start time.Time
	End   time.Time
}

// StatementUpload is one ingestion attempt.
type StatementUpload struct {
	ID                         uuid.UUID
	UserID                     uuid.UUID
	BankAccountID              uuid.UUID
	FileName                   string
	FileSize                   int64
	StorageKey                 string
	Status                     UploadStatus
	ProcessingStartedAt        *time.Time
	ProcessingCompletedAt      *time.Time
	StatementPeriodStart       *time.Time
	StatementPeriodEnd         *time.Time
	TotalTransactionsExtracted *int
	ConfidenceScore            *float64
	ErrorMessage               *string
	CreatedAt                  time.Time
}

// BankAccount identifies a specific account at a specific issuer for a user.
type BankAccount struct {
	ID                  uuid.UUID
	UserID              uuid.UUID
	BankName            string
	AccountType         string
	AccountNumberMasked string
	AccountNickname     *string
	IsActive            bool
	LastStatementDate   *time.Time
	CreatedAt           time.Time
}

// Transaction is one persisted statement line (or a manual entry, in which
// case StatementUploadID is nil).
type Transaction struct {
	ID                    uuid.UUID
	UserID                uuid.UUID
	BankAccountID         uuid.UUID
	StatementUploadID     *uuid.UUID
	Date                  time.Time
	Description           string
	MerchantName          *string
	Amount                decimal.Decimal
	Type                  TransactionType
	BalanceAfter          *decimal.Decimal
	CategoryID            *uuid.UUID
	CategoryConfidence    float64
	IsManuallyCategorized bool
	DayOfWeek             int
	IsWeekend             bool
	CreatedAt             time.Time
}

// Category is a classification bucket, system-wide when UserID is nil.
type Category struct {
	ID               uuid.UUID
	UserID           *uuid.UUID
	Name             string
	Icon             *string
	Color            *string
	IsIncomeCategory bool
	IsActive         bool
	CreatedAt        time.Time
}

// DeriveDayFields computes the day-of-week and weekend flags for a
// transaction date. Sunday is 0, matching time.Weekday.
func DeriveDayFields(date time.Time) (dayOfWeek int, isWeekend bool) {
	wd := date.Weekday()
	return int(wd), wd == time.Saturday || wd == time.Sunday
}
