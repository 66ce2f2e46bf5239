package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dafibh/fintrack/fintrack-backend/internal/domain"
	"github.com/dafibh/fintrack/fintrack-backend/internal/report"
	"github.com/dafibh/fintrack/fintrack-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// textDocument collects drawn text, one line per call
type textDocument struct {
	lines []string
}

func (d *textDocument) AddPage()                  {}
func (d *textDocument) SetFontSize(float64) error { return nil }
func (d *textDocument) PageHeight() float64       { return 842 }
func (d *textDocument) Bytes() ([]byte, error)    { return []byte(strings.Join(d.lines, "\n")), nil }
func (d *textDocument) Text(_, _ float64, s string) error {
	d.lines = append(d.lines, s)
	return nil
}

func newTextDocument() (report.Document, error) {
	return &textDocument{}, nil
}

func seedReportData(t *testing.T) (*testutil.MockTransactionRepository, uuid.UUID) {
	t.Helper()
	categories := testutil.NewMockCategoryRepository()
	food, err := categories.Insert(&domain.Category{Name: "Food", Type: domain.CategoryTypeExpense})
	require.NoError(t, err)
	salary, err := categories.Insert(&domain.Category{Name: "Salary", Type: domain.CategoryTypeIncome})
	require.NoError(t, err)

	repo := testutil.NewMockTransactionRepositoryWithCategories(categories)
	owner := uuid.New()
	repo.AddTransaction(&domain.Transaction{OwnerID: owner, Amount: decimal.NewFromInt(-10), Date: day("2025-05-03"), CategoryID: food.ID})
	repo.AddTransaction(&domain.Transaction{OwnerID: owner, Amount: decimal.NewFromInt(-15), Date: day("2025-05-01"), CategoryID: food.ID})
	repo.AddTransaction(&domain.Transaction{OwnerID: owner, Amount: decimal.NewFromInt(1000), Date: day("2025-05-02"), CategoryID: salary.ID})
	return repo, owner
}

func TestReportService_GenerateReport(t *testing.T) {
	repo, owner := seedReportData(t)
	svc := NewReportService(repo, NewSummaryService(repo), newTextDocument)
	dateRange, err := domain.ParseDateRange("2025-05-01", "2025-05-31")
	require.NoError(t, err)

	data, err := svc.GenerateReport(context.Background(), owner, dateRange)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "Период: 2025-05-01 — 2025-05-31")
	assert.Contains(t, out, "Средний доход: 1000.00")
	assert.Contains(t, out, "Средний расход: -12.50")
	assert.Contains(t, out, "Food (Трата): -25.00")
	assert.Contains(t, out, "Salary (Пополнение): 1000.00")
	assert.Less(t, strings.Index(out, "2025-05-01\n"), strings.Index(out, "2025-05-02\n"))
	assert.Less(t, strings.Index(out, "2025-05-02\n"), strings.Index(out, "2025-05-03\n"))
}

func TestReportService_Deterministic(t *testing.T) {
	repo, owner := seedReportData(t)
	svc := NewReportService(repo, NewSummaryService(repo), newTextDocument)
	dateRange, err := domain.ParseDateRange("2025-05-01", "2025-05-31")
	require.NoError(t, err)

	first, err := svc.GenerateReport(context.Background(), owner, dateRange)
	require.NoError(t, err)
	second, err := svc.GenerateReport(context.Background(), owner, dateRange)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestReportService_RepositoryError(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	repo.ListFn = func(uuid.UUID, *domain.DateRange) ([]*domain.Transaction, error) {
		return nil, errors.New("timeout")
	}
	opened := false
	svc := NewReportService(repo, NewSummaryService(repo), func() (report.Document, error) {
		opened = true
		return &textDocument{}, nil
	})
	dateRange, err := domain.ParseDateRange("2025-05-01", "2025-05-31")
	require.NoError(t, err)

	_, err = svc.GenerateReport(context.Background(), uuid.New(), dateRange)
	assert.ErrorContains(t, err, "timeout")
	assert.False(t, opened)
}

func TestReportService_DocumentError(t *testing.T) {
	repo, owner := seedReportData(t)
	svc := NewReportService(repo, NewSummaryService(repo), func() (report.Document, error) {
		return nil, report.ErrFontUnavailable
	})
	dateRange, err := domain.ParseDateRange("2025-05-01", "2025-05-31")
	require.NoError(t, err)

	_, err = svc.GenerateReport(context.Background(), owner, dateRange)
	assert.ErrorIs(t, err, report.ErrFontUnavailable)
}
