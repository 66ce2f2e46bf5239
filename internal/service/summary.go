package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dafibh/fintrack/fintrack-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type summaryKey struct {
	name         string
	categoryType domain.CategoryType
}

// SummarizeByCategory totals amounts per (category name, type). Entries keep
// the order in which their category first appears; dates are ascending.
func SummarizeByCategory(transactions []*domain.Transaction) []*domain.CategorySummary {
	index := make(map[summaryKey]int)
	summaries := make([]*domain.CategorySummary, 0)

	for _, tx := range transactions {
		key := summaryKey{name: tx.CategoryName, categoryType: tx.CategoryType}
		i, ok := index[key]
		if !ok {
			i = len(summaries)
			index[key] = i
			summaries = append(summaries, &domain.CategorySummary{
				CategoryName: tx.CategoryName,
				CategoryType: tx.CategoryType,
				TotalAmount:  decimal.Zero,
				Dates:        []time.Time{},
			})
		}
		summaries[i].TotalAmount = summaries[i].TotalAmount.Add(tx.Amount)
		summaries[i].Dates = append(summaries[i].Dates, tx.Date)
	}

	for _, s := range summaries {
		sort.Slice(s.Dates, func(i, j int) bool { return s.Dates[i].Before(s.Dates[j]) })
	}
	return summaries
}

// SummaryService aggregates an owner's transactions by category
type SummaryService struct {
	transactionRepo domain.TransactionRepository
}

// NewSummaryService creates a new SummaryService
func NewSummaryService(transactionRepo domain.TransactionRepository) *SummaryService {
	return &SummaryService{transactionRepo: transactionRepo}
}

// GetCategorySummary returns per-category totals for the owner within dateRange
func (s *SummaryService) GetCategorySummary(ctx context.Context, ownerID uuid.UUID, dateRange domain.DateRange) ([]*domain.CategorySummary, error) {
	transactions, err := s.transactionRepo.ListByOwner(ctx, ownerID, &dateRange)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return SummarizeByCategory(transactions), nil
}
