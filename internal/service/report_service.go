package service

import (
	"context"
	"fmt"

	"github.com/dafibh/fintrack/fintrack-backend/internal/domain"
	"github.com/dafibh/fintrack/fintrack-backend/internal/report"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DocumentFactory opens a fresh document for every report
type DocumentFactory func() (report.Document, error)

// ReportService assembles statistics, summaries and the transaction table
// into a rendered report
type ReportService struct {
	transactionRepo domain.TransactionRepository
	summaryService  *SummaryService
	newDocument     DocumentFactory
}

// NewReportService creates a new ReportService
func NewReportService(transactionRepo domain.TransactionRepository, summaryService *SummaryService, newDocument DocumentFactory) *ReportService {
	return &ReportService{
		transactionRepo: transactionRepo,
		summaryService:  summaryService,
		newDocument:     newDocument,
	}
}

// GenerateReport renders the owner's transactions within dateRange
func (s *ReportService) GenerateReport(ctx context.Context, ownerID uuid.UUID, dateRange domain.DateRange) ([]byte, error) {
	var (
		transactions []*domain.Transaction
		summary      []*domain.CategorySummary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		transactions, err = s.transactionRepo.ListByOwner(gctx, ownerID, &dateRange)
		if err != nil {
			return fmt.Errorf("failed to list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		summary, err = s.summaryService.GetCategorySummary(gctx, ownerID, dateRange)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	doc, err := s.newDocument()
	if err != nil {
		return nil, err
	}

	data, err := report.Render(doc, report.Input{
		Period:       dateRange,
		Stats:        ComputeStats(transactions),
		Summary:      summary,
		Transactions: transactions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	log.Info().
		Str("owner_id", ownerID.String()).
		Int("transactions", len(transactions)).
		Int("bytes", len(data)).
		Msg("Report generated")
	return data, nil
}
