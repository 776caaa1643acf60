package bank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/savohq/statement-ingest/internal/domain/ingest"
)

// Resolver maps a detection to a persisted bank account, creating one on
// first sight of a (user, bank, masked number) identity.
type Resolver struct {
	accounts ingest.AccountRepository
	logger   *slog.Logger
}

// NewResolver creates a bank account resolver.
func NewResolver(accounts ingest.AccountRepository, logger *slog.Logger) *Resolver {
	return &Resolver{accounts: accounts, logger: logger}
}

// Resolve returns the existing account for the detection or creates a new
// active one. Concurrent submissions for the same identity are safe: the
// insert relies on the uniqueness constraint and the loser of the race
// re-reads the winner's row.
func (r *Resolver) Resolve(ctx context.Context, userID uuid.UUID, det Detection) (*ingest.BankAccount, error) {
	masked := det.MaskedNumber()

	existing, err := r.accounts.FindByIdentity(ctx, userID, det.Bank, masked)
	if err != nil && !errors.Is(err, ingest.ErrNotFound) {
		return nil, fmt.Errorf("look up bank account: %w", err)
	}
	if existing != nil {
		r.logger.Info("using existing bank account",
			slog.String("bank", det.Bank),
			slog.String("account", masked),
		)
		if err := r.accounts.TouchLastStatement(ctx, existing.ID, time.Now()); err != nil {
			r.logger.Warn("failed to update last statement date", slog.Any("error", err))
		}
		return existing, nil
	}

	account := &ingest.BankAccount{
		ID:                  uuid.New(),
		UserID:              userID,
		BankName:            det.Bank,
		AccountType:         det.AccountType,
		AccountNumberMasked: masked,
		IsActive:            true,
	}

	err = r.accounts.Insert(ctx, account)
	if err == nil {
		r.logger.Info("created bank account",
			slog.String("bank", det.Bank),
			slog.String("account", masked),
		)
		return account, nil
	}
	if !errors.Is(err, ingest.ErrAccountExists) {
		return nil, fmt.Errorf("create bank account: %w", err)
	}

	// Lost the race; another submission inserted the same identity.
	winner, err := r.accounts.FindByIdentity(ctx, userID, det.Bank, masked)
	if err != nil {
		return nil, fmt.Errorf("re-read bank account after conflict: %w", err)
	}
	return winner, nil
}
