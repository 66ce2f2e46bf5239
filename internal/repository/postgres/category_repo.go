package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dafibh/fintrack/fintrack-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

const getCategoryByNameAndType = `
SELECT id, name, type::text, created_at
FROM categories
WHERE name = $1 AND type = $2`

// GetByNameAndType retrieves a category by its (name, type) pair
func (r *CategoryRepository) GetByNameAndType(ctx context.Context, name string, categoryType domain.CategoryType) (*domain.Category, error) {
	var c domain.Category
	var t string
	err := r.pool.QueryRow(ctx, getCategoryByNameAndType, name, string(categoryType)).
		Scan(&c.ID, &c.Name, &t, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category %q: %w", name, err)
	}
	c.Type = domain.CategoryType(t)
	return &c, nil
}

const createCategory = `
INSERT INTO categories (name, type)
VALUES ($1, $2)
RETURNING id, created_at`

// Create inserts a category. A concurrent insert of the same (name, type)
// surfaces as domain.ErrCategoryAlreadyExists.
func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	created := *category
	err := r.pool.QueryRow(ctx, createCategory, category.Name, string(category.Type)).
		Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, domain.ErrCategoryAlreadyExists
		}
		return nil, fmt.Errorf("failed to create category %q: %w", category.Name, err)
	}
	return &created, nil
}
