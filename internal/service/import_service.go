package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dafibh/fintrack/fintrack-backend/internal/domain"
	"github.com/dafibh/fintrack/fintrack-backend/internal/spreadsheet"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// StructuredRecord is one element of a JSON import. Amount and Date hold the
// caller's raw text and are validated during the import.
type StructuredRecord struct {
	Amount       string
	Date         string
	Comment      *string
	CategoryName string
	CategoryType string
}

// Spreadsheet header names
const (
	ColumnAmount       = "amount"
	ColumnDate         = "date"
	ColumnComment      = "comment"
	ColumnCategoryName = "categoryName"
	ColumnCategoryType = "categoryType"
)

// ImportService persists transactions from structured records and
// spreadsheets. Structured imports stop at the first invalid record;
// spreadsheet imports skip rows whose amount is unusable and coerce the rest.
// Neither is atomic: rows persisted before a failure stay committed.
type ImportService struct {
	transactionRepo domain.TransactionRepository
	resolver        *CategoryResolver
	archive         domain.ImportArchive
	now             func() time.Time
}

// NewImportService creates a new ImportService. archive may be nil.
func NewImportService(transactionRepo domain.TransactionRepository, resolver *CategoryResolver, archive domain.ImportArchive) *ImportService {
	return &ImportService{
		transactionRepo: transactionRepo,
		resolver:        resolver,
		archive:         archive,
		now:             time.Now,
	}
}

type normalizedRow struct {
	amount       decimal.Decimal
	date         time.Time
	comment      *string
	categoryName string
	categoryType domain.CategoryType
}

// ImportRecords validates and persists records in order
func (s *ImportService) ImportRecords(ctx context.Context, ownerID uuid.UUID, records []StructuredRecord) (*domain.ImportResult, error) {
	result := &domain.ImportResult{Skipped: []domain.SkippedRow{}}

	for i, record := range records {
		row, err := normalizeRecord(record)
		if err != nil {
			var recordErr *domain.RecordError
			if errors.As(err, &recordErr) {
				recordErr.Index = i
			}
			log.Warn().
				Err(err).
				Str("owner_id", ownerID.String()).
				Int("record", i).
				Int("imported", result.Imported).
				Msg("Structured import aborted")
			return result, err
		}
		if err := s.persist(ctx, ownerID, row); err != nil {
			return result, fmt.Errorf("record %d: %w", i, err)
		}
		result.Imported++
	}

	log.Info().
		Str("owner_id", ownerID.String()).
		Int("imported", result.Imported).
		Msg("Structured import completed")
	return result, nil
}

// ImportSpreadsheet decodes the first sheet of an Excel workbook and persists
// every row with a numeric amount
func (s *ImportService) ImportSpreadsheet(ctx context.Context, ownerID uuid.UUID, filename, contentType string, data []byte) (*domain.ImportResult, error) {
	decoder, err := spreadsheet.ForContentType(contentType)
	if err != nil {
		return nil, err
	}

	if s.archive != nil {
		key, err := s.archive.Store(ctx, ownerID, filename, contentType, data)
		if err != nil {
			log.Warn().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to archive spreadsheet")
		} else {
			log.Debug().Str("owner_id", ownerID.String()).Str("key", key).Msg("Archived spreadsheet")
		}
	}

	rows, err := decoder.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnsupportedSpreadsheet, err)
	}

	result := &domain.ImportResult{Skipped: []domain.SkippedRow{}}
	for _, r := range rows {
		sheetRow := r.Number
		row, err := s.normalizeSpreadsheetRow(r)
		if err != nil {
			result.Skipped = append(result.Skipped, domain.SkippedRow{Row: sheetRow, Reason: err.Error()})
			log.Warn().
				Err(err).
				Str("owner_id", ownerID.String()).
				Int("row", sheetRow).
				Str("amount", r.Get(ColumnAmount).Text()).
				Msg("Skipping spreadsheet row with unusable amount")
			continue
		}
		if err := s.persist(ctx, ownerID, row); err != nil {
			return result, fmt.Errorf("row %d: %w", sheetRow, err)
		}
		result.Imported++
	}

	log.Info().
		Str("owner_id", ownerID.String()).
		Str("filename", filename).
		Int("imported", result.Imported).
		Int("skipped", len(result.Skipped)).
		Msg("Spreadsheet import completed")
	return result, nil
}

func (s *ImportService) persist(ctx context.Context, ownerID uuid.UUID, row normalizedRow) error {
	categoryID, err := s.resolver.Resolve(ctx, row.categoryName, row.categoryType)
	if err != nil {
		return err
	}
	_, err = s.transactionRepo.Create(ctx, &domain.Transaction{
		Amount:     row.amount,
		Date:       row.date,
		Comment:    row.comment,
		OwnerID:    ownerID,
		CategoryID: categoryID,
	})
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

var recordDateLayouts = []string{
	domain.DateLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

func normalizeRecord(record StructuredRecord) (normalizedRow, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(record.Amount))
	if err != nil {
		return normalizedRow{}, &domain.RecordError{Field: "amount", Err: domain.ErrInvalidAmount}
	}
	if err := domain.ValidateAmount(amount); err != nil {
		return normalizedRow{}, &domain.RecordError{Field: "amount", Err: err}
	}

	date, ok := parseRecordDate(record.Date)
	if !ok {
		return normalizedRow{}, &domain.RecordError{Field: "date", Err: domain.ErrInvalidDate}
	}

	name := strings.TrimSpace(record.CategoryName)
	if name == "" {
		return normalizedRow{}, &domain.RecordError{Field: "categoryName", Err: domain.ErrCategoryNameRequired}
	}
	if len([]rune(name)) > domain.MaxCategoryNameLength {
		return normalizedRow{}, &domain.RecordError{Field: "categoryName", Err: domain.ErrCategoryNameTooLong}
	}

	categoryType, err := domain.ParseCategoryType(record.CategoryType)
	if err != nil {
		return normalizedRow{}, &domain.RecordError{Field: "categoryType", Err: err}
	}

	return normalizedRow{
		amount:       amount,
		date:         date,
		comment:      normalizeComment(record.Comment),
		categoryName: name,
		categoryType: categoryType,
	}, nil
}

func parseRecordDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range recordDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// normalizeSpreadsheetRow fails only when the amount is unusable; the error
// becomes the skip reason.
func (s *ImportService) normalizeSpreadsheetRow(r spreadsheet.Row) (normalizedRow, error) {
	amount, ok := r.Get(ColumnAmount).Decimal()
	if !ok {
		return normalizedRow{}, domain.ErrInvalidAmount
	}
	if err := domain.ValidateAmount(amount); err != nil {
		return normalizedRow{}, err
	}

	date, ok := r.Get(ColumnDate).Time()
	if !ok {
		date = s.now()
	}

	categoryType := domain.CategoryTypeExpense
	if t, err := domain.ParseCategoryType(r.Get(ColumnCategoryType).Text()); err == nil {
		categoryType = t
	}

	name := r.Get(ColumnCategoryName).Text()
	if name == "" {
		name = domain.DefaultCategoryName
	}
	if runes := []rune(name); len(runes) > domain.MaxCategoryNameLength {
		name = strings.TrimSpace(string(runes[:domain.MaxCategoryNameLength]))
	}

	comment := r.Get(ColumnComment).Text()
	return normalizedRow{
		amount:       amount,
		date:         date,
		comment:      normalizeComment(&comment),
		categoryName: name,
		categoryType: categoryType,
	}, nil
}

func normalizeComment(comment *string) *string {
	if comment == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*comment)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
