package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/dafibh/fintrack/fintrack-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// ComputeStats derives averages per category type, the median of all amounts
// and the modes. It does not depend on the order of transactions.
func ComputeStats(transactions []*domain.Transaction) domain.Stats {
	var income, expense, all []decimal.Decimal
	for _, tx := range transactions {
		all = append(all, tx.Amount)
		if tx.CategoryType == domain.CategoryTypeIncome {
			income = append(income, tx.Amount)
		} else {
			expense = append(expense, tx.Amount)
		}
	}

	return domain.Stats{
		AverageIncome:  Mean(income),
		AverageExpense: Mean(expense),
		MedianAmount:   Median(all),
		ModeAmount:     Modes(all),
		ModeIncome:     Modes(income),
		ModeExpense:    Modes(expense),
	}
}

// Mean returns the arithmetic mean, or zero for no values
func Mean(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return decimal.Sum(decimal.Zero, values...).Div(decimal.NewFromInt(int64(len(values))))
}

// Median returns the middle value, the mean of the two middle values for an
// even count, or zero for no values
func Median(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	sorted := sortedCopy(values)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return sorted[mid-1].Add(sorted[mid]).Div(two)
}

// Modes returns every value with the highest frequency in ascending order.
// Values equal in magnitude but differing in scale count together.
func Modes(values []decimal.Decimal) []decimal.Decimal {
	if len(values) == 0 {
		return []decimal.Decimal{}
	}

	type bucket struct {
		value decimal.Decimal
		count int
	}
	counts := make(map[string]*bucket, len(values))
	maxCount := 0
	for _, v := range values {
		key := v.String()
		b, ok := counts[key]
		if !ok {
			b = &bucket{value: v}
			counts[key] = b
		}
		b.count++
		if b.count > maxCount {
			maxCount = b.count
		}
	}

	modes := make([]decimal.Decimal, 0, len(counts))
	for _, b := range counts {
		if b.count == maxCount {
			modes = append(modes, b.value)
		}
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i].LessThan(modes[j]) })
	return modes
}

func sortedCopy(values []decimal.Decimal) []decimal.Decimal {
	sorted := make([]decimal.Decimal, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })
	return sorted
}

// StatsService reads an owner's transactions and computes their statistics
type StatsService struct {
	transactionRepo domain.TransactionRepository
}

// NewStatsService creates a new StatsService
func NewStatsService(transactionRepo domain.TransactionRepository) *StatsService {
	return &StatsService{transactionRepo: transactionRepo}
}

// GetStats computes statistics for the owner's transactions; a nil range covers all time
func (s *StatsService) GetStats(ctx context.Context, ownerID uuid.UUID, dateRange *domain.DateRange) (domain.Stats, error) {
	transactions, err := s.transactionRepo.ListByOwner(ctx, ownerID, dateRange)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("failed to list transactions: %w", err)
	}
	return ComputeStats(transactions), nil
}
