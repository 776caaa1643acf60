// Package categorize assigns a spending category to every extracted
// transaction using keyword scoring with amount-band fallbacks.
package categorize

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/savohq/statement-ingest/internal/domain/ingest"
	"github.com/savohq/statement-ingest/pkg/metrics"
)

// Confidence levels attached to an assignment depending on how it was
// decided. Keyword-scored debits carry their actual score instead.
const (
	confidenceCreditKeyword = 0.9
	confidenceAmountBand    = 0.3
)

// Assignment is the categorizer's verdict for one transaction.
type Assignment struct {
	CategoryID uuid.UUID
	Confidence float64
}

// Categorizer turns transaction text and amounts into category
// assignments. It never fails: when resolution breaks it degrades to a
// zero-value assignment so ingestion keeps going.
type Categorizer struct {
	table    Table
	engine   *Engine
	resolver *Resolver
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func New(table Table, categories ingest.CategoryRepository, m *metrics.Metrics, logger *slog.Logger) *Categorizer {
	return &Categorizer{
		table:    table,
		engine:   NewEngine(table),
		resolver: NewResolver(categories, logger),
		metrics:  m,
		logger:   logger,
	}
}

// Categorize picks a category for the transaction. Credits only consult
// the income keyword sets; debits run the expense scorer and fall back
// to amount bands, then to the catch-all bucket.
func (c *Categorizer) Categorize(ctx context.Context, userID uuid.UUID, description, merchantName string, amount decimal.Decimal, txType ingest.TransactionType) Assignment {
	text := strings.ToUpper(description + " " + merchantName)

	if txType == ingest.TypeCredit {
		return c.categorizeCredit(ctx, userID, text)
	}
	return c.categorizeDebit(ctx, userID, text, amount)
}

func (c *Categorizer) categorizeCredit(ctx context.Context, userID uuid.UUID, text string) Assignment {
	for _, name := range []string{CategorySalary, CategoryInvestment} {
		if c.engine.HasKeyword(text, name) {
			return c.resolve(ctx, userID, name, true, confidenceCreditKeyword)
		}
	}
	return c.resolve(ctx, userID, CategoryOtherIncome, true, confidenceCreditKeyword)
}

func (c *Categorizer) categorizeDebit(ctx context.Context, userID uuid.UUID, text string, amount decimal.Decimal) Assignment {
	best, bestScore := "", 0.0
	for category, score := range c.engine.Scores(text) {
		if category == CategorySalary || category == CategoryInvestment {
			continue
		}
		if score > bestScore {
			best, bestScore = category, score
		}
	}

	if best != "" && bestScore > c.table.Threshold {
		return c.resolve(ctx, userID, best, false, min(bestScore, 1.0))
	}

	c.metrics.CategorizerFallback()

	if band := c.bandFor(amount); band != "" {
		return c.resolve(ctx, userID, band, false, confidenceAmountBand)
	}
	return c.resolve(ctx, userID, CategoryUncategorised, false, 0.0)
}

func (c *Categorizer) bandFor(amount decimal.Decimal) string {
	abs := amount.Abs()
	for _, band := range c.table.Bands {
		if abs.LessThanOrEqual(band.UpTo) {
			return band.Category
		}
	}
	return c.table.TopBand
}

func (c *Categorizer) resolve(ctx context.Context, userID uuid.UUID, name string, isIncome bool, confidence float64) Assignment {
	id, err := c.resolver.Resolve(ctx, userID, name, isIncome)
	if err != nil {
		c.logger.Error("category resolution failed, leaving transaction unassigned",
			slog.String("category", name),
			slog.Any("error", err),
		)
		c.metrics.CategorizerFallback()
		return Assignment{}
	}
	return Assignment{CategoryID: id, Confidence: confidence}
}

// Resolver finds the category row for a name: system category first, then
// the user's own, creating a system category as a last resort.
type Resolver struct {
	categories ingest.CategoryRepository
	logger     *slog.Logger
}

func NewResolver(categories ingest.CategoryRepository, logger *slog.Logger) *Resolver {
	return &Resolver{categories: categories, logger: logger}
}

func (r *Resolver) Resolve(ctx context.Context, userID uuid.UUID, name string, isIncome bool) (uuid.UUID, error) {
	system, err := r.categories.FindSystemByName(ctx, name)
	if err == nil {
		return system.ID, nil
	}
	if !errors.Is(err, ingest.ErrNotFound) {
		return uuid.Nil, err
	}

	mine, err := r.categories.FindUserByName(ctx, userID, name)
	if err == nil {
		return mine.ID, nil
	}
	if !errors.Is(err, ingest.ErrNotFound) {
		return uuid.Nil, err
	}

	icon, color := DefaultAppearance(name)
	category := &ingest.Category{
		ID:               uuid.New(),
		Name:             name,
		Icon:             &icon,
		Color:            &color,
		IsIncomeCategory: isIncome,
		IsActive:         true,
	}
	if err := r.categories.CreateSystem(ctx, category); err != nil {
		return uuid.Nil, err
	}
	r.logger.Info("created system category",
		slog.String("name", name),
	)
	return category.ID, nil
}
