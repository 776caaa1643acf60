package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/savohq/statement-ingest/internal/domain/ingest"
)

const categoryColumns = `
	id, user_id, name, icon, color, is_income_category, is_active, created_at
`

// CategoryRepository resolves classification buckets in Postgres.
type CategoryRepository struct {
	db Querier
}

func NewCategoryRepository(db Querier) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) FindSystemByName(ctx context.Context, name string) (*ingest.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id IS NULL AND name = $1`
	return scanCategory(r.db.QueryRow(ctx, query, name))
}

func (r *CategoryRepository) FindUserByName(ctx context.Context, userID uuid.UUID, name string) (*ingest.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = $1 AND name = $2`
	return scanCategory(r.db.QueryRow(ctx, query, userID, name))
}

// CreateSystem inserts a system-wide category. A concurrent insert of the
// same name is absorbed by re-reading the existing row.
func (r *CategoryRepository) CreateSystem(ctx context.Context, category *ingest.Category) error {
	query := `
		INSERT INTO categories (id, user_id, name, icon, color, is_income_category, is_active)
		VALUES ($1, NULL, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		category.ID,
		category.Name,
		category.Icon,
		category.Color,
		category.IsIncomeCategory,
		category.IsActive,
	).Scan(&category.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		existing, readErr := r.FindSystemByName(ctx, category.Name)
		if readErr != nil {
			return readErr
		}
		*category = *existing
		return nil
	}
	return err
}

func scanCategory(row pgx.Row) (*ingest.Category, error) {
	var c ingest.Category
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.Name,
		&c.Icon,
		&c.Color,
		&c.IsIncomeCategory,
		&c.IsActive,
		&c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ingest.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
