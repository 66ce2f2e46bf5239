package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dafibh/fintrack/fintrack-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const createTransaction = `
INSERT INTO transactions (amount, date, comment, owner_id, category_id)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at`

// Create inserts a transaction; each insert commits on its own
func (r *TransactionRepository) Create(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	created := *transaction
	err = r.pool.QueryRow(ctx, createTransaction,
		amount,
		pgtype.Timestamptz{Time: transaction.Date, Valid: true},
		ptrToPgText(transaction.Comment),
		transaction.OwnerID,
		transaction.CategoryID,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return nil, createTransactionError(err)
	}
	return &created, nil
}

const listTransactionsByOwner = `
SELECT t.id, t.amount, t.date, t.comment, t.owner_id, t.category_id, c.name, c.type::text, t.created_at
FROM transactions t
JOIN categories c ON c.id = t.category_id
WHERE t.owner_id = $1`

const listTransactionsByOwnerInRange = listTransactionsByOwner + `
  AND t.date >= $2 AND t.date < $3`

const orderByDate = `
ORDER BY t.date, t.id`

// ListByOwner returns the owner's transactions joined with their category.
// The range end is inclusive of its whole day.
func (r *TransactionRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, dateRange *domain.DateRange) ([]*domain.Transaction, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if dateRange == nil {
		rows, err = r.pool.Query(ctx, listTransactionsByOwner+orderByDate, ownerID)
	} else {
		rows, err = r.pool.Query(ctx, listTransactionsByOwnerInRange+orderByDate,
			ownerID,
			pgtype.Timestamptz{Time: dateRange.Start, Valid: true},
			pgtype.Timestamptz{Time: dateRange.Until(), Valid: true},
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	result := make([]*domain.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		result = append(result, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return result, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		tx           domain.Transaction
		amount       pgtype.Numeric
		date         time.Time
		comment      pgtype.Text
		categoryType string
	)
	if err := row.Scan(
		&tx.ID,
		&amount,
		&date,
		&comment,
		&tx.OwnerID,
		&tx.CategoryID,
		&tx.CategoryName,
		&categoryType,
		&tx.CreatedAt,
	); err != nil {
		return nil, err
	}
	tx.Amount = pgNumericToDecimal(amount)
	tx.Date = date.UTC()
	tx.Comment = pgTextToPtr(comment)
	tx.CategoryType = domain.CategoryType(categoryType)
	return &tx, nil
}
