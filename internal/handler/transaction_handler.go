package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dafibh/fintrack/fintrack-backend/internal/domain"
	"github.com/dafibh/fintrack/fintrack-backend/internal/middleware"
	"github.com/dafibh/fintrack/fintrack-backend/internal/report"
	"github.com/dafibh/fintrack/fintrack-backend/internal/service"
	"github.com/dafibh/fintrack/fintrack-backend/internal/spreadsheet"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	importService  *service.ImportService
	statsService   *service.StatsService
	summaryService *service.SummaryService
	reportService  *service.ReportService
	maxUploadBytes int64
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(importService *service.ImportService, statsService *service.StatsService, summaryService *service.SummaryService, reportService *service.ReportService, maxUploadBytes int64) *TransactionHandler {
	return &TransactionHandler{
		importService:  importService,
		statsService:   statsService,
		summaryService: summaryService,
		reportService:  reportService,
		maxUploadBytes: maxUploadBytes,
	}
}

// FlexibleValue accepts a JSON string or number and keeps its text.
// Any other JSON value decodes to the empty string.
type FlexibleValue string

// UnmarshalJSON implements json.Unmarshaler
func (v *FlexibleValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*v = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FlexibleValue(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = FlexibleValue(n.String())
	default:
		*v = ""
	}
	return nil
}

// ImportTransactionRequest is one element of the import request body
type ImportTransactionRequest struct {
	Amount       FlexibleValue `json:"amount" swaggertype:"string" example:"-150.50"`
	Date         FlexibleValue `json:"date" swaggertype:"string" example:"2025-05-10"`
	Comment      *string       `json:"comment,omitempty"`
	CategoryName string        `json:"categoryName" example:"Food"`
	CategoryType string        `json:"categoryType" example:"EXPENSE"`
}

// SkippedRowResponse describes a spreadsheet row that was not imported
type SkippedRowResponse struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportResponse summarizes an import
type ImportResponse struct {
	Message  string               `json:"message,omitempty"`
	Imported int                  `json:"imported"`
	Skipped  []SkippedRowResponse `json:"skipped"`
}

// StatsResponse represents transaction statistics in API responses
type StatsResponse struct {
	AverageIncome  string   `json:"averageIncome"`
	AverageExpense string   `json:"averageExpense"`
	MedianAmount   string   `json:"medianAmount"`
	ModeAmount     []string `json:"modeAmount"`
	ModeIncome     []string `json:"modeIncome"`
	ModeExpense    []string `json:"modeExpense"`
}

// CategorySummaryResponse represents one category total in API responses
type CategorySummaryResponse struct {
	CategoryName string   `json:"categoryName"`
	CategoryType string   `json:"categoryType"`
	TotalAmount  string   `json:"totalAmount"`
	Dates        []string `json:"dates"`
}

// ImportTransactions godoc
// @Summary Import transactions
// @Description Import a JSON array of transactions. Stops at the first invalid record; earlier records stay imported.
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body []ImportTransactionRequest true "Transactions to import"
// @Success 201 {object} ImportResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 429 {object} ProblemDetails
// @Router /transactions [post]
func (h *TransactionHandler) ImportTransactions(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	var req []ImportTransactionRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return NewValidationError(c, "Invalid request body", []ValidationError{
			{Field: "body", Message: "Must be a JSON array of transactions"},
		})
	}

	records := make([]service.StructuredRecord, len(req))
	for i, r := range req {
		records[i] = service.StructuredRecord{
			Amount:       string(r.Amount),
			Date:         string(r.Date),
			Comment:      r.Comment,
			CategoryName: r.CategoryName,
			CategoryType: r.CategoryType,
		}
	}

	result, err := h.importService.ImportRecords(c.Request().Context(), ownerID, records)
	if err != nil {
		var recordErr *domain.RecordError
		if errors.As(err, &recordErr) {
			imported := 0
			if result != nil {
				imported = result.Imported
			}
			return NewValidationError(c, fmt.Sprintf("Record %d is invalid; %d earlier records were imported", recordErr.Index, imported), []ValidationError{
				{Field: fmt.Sprintf("[%d].%s", recordErr.Index, recordErr.Field), Message: recordFieldMessage(recordErr)},
			})
		}
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to import transactions")
		return NewInternalError(c, "Failed to import transactions")
	}

	return c.JSON(http.StatusCreated, toImportResponse("", result))
}

func recordFieldMessage(err *domain.RecordError) string {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return "Must be a valid decimal number"
	case errors.Is(err, domain.ErrInvalidDate):
		return "Must be a date (YYYY-MM-DD) or an ISO 8601 timestamp"
	case errors.Is(err, domain.ErrCategoryNameRequired):
		return "Category name is required"
	case errors.Is(err, domain.ErrCategoryNameTooLong):
		return fmt.Sprintf("Category name must be %d characters or less", domain.MaxCategoryNameLength)
	case errors.Is(err, domain.ErrInvalidCategoryType):
		return "Must be one of: INCOME, EXPENSE"
	default:
		return err.Err.Error()
	}
}

// ImportFile godoc
// @Summary Import transactions from Excel
// @Description Import the first sheet of an .xlsx or .xls workbook. Rows without a numeric amount are skipped.
// @Tags transactions
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Excel workbook"
// @Success 201 {object} ImportResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 413 {object} ProblemDetails
// @Failure 429 {object} ProblemDetails
// @Router /transactions/import [post]
func (h *TransactionHandler) ImportFile(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "No file provided", []ValidationError{
			{Field: "file", Message: "File is required"},
		})
	}

	if h.maxUploadBytes > 0 && file.Size > h.maxUploadBytes {
		return NewPayloadTooLargeError(c, fmt.Sprintf("File too large. Maximum size is %d bytes", h.maxUploadBytes))
	}

	contentType := resolveContentType(file.Header.Get(echo.HeaderContentType), file.Filename)
	if !spreadsheet.IsSupported(contentType) {
		return NewValidationError(c, domain.ErrUnsupportedSpreadsheet.Error(), []ValidationError{
			{Field: "file", Message: "Supported formats: .xlsx, .xls"},
		})
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded file")
		return NewInternalError(c, "Failed to read file")
	}

	result, err := h.importService.ImportSpreadsheet(c.Request().Context(), ownerID, file.Filename, contentType, data)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedSpreadsheet) {
			return NewValidationError(c, "Could not read the workbook", []ValidationError{
				{Field: "file", Message: err.Error()},
			})
		}
		log.Error().Err(err).Str("owner_id", ownerID.String()).Str("filename", file.Filename).Msg("Failed to import spreadsheet")
		return NewInternalError(c, "Failed to import file")
	}

	return c.JSON(http.StatusCreated, toImportResponse("File imported", result))
}

// resolveContentType trusts a spreadsheet content type from the client and
// otherwise falls back to the file extension
func resolveContentType(header, filename string) string {
	if spreadsheet.IsSupported(header) {
		return header
	}
	if byExtension := spreadsheet.ContentTypeForFilename(filename); byExtension != "" {
		return byExtension
	}
	return header
}

// GetStats godoc
// @Summary Transaction statistics
// @Description Averages per category type, median and modes of amounts within the date range
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param startDate query string true "Start date (YYYY-MM-DD)"
// @Param endDate query string true "End date (YYYY-MM-DD), inclusive"
// @Success 200 {object} StatsResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /transactions/stats [get]
func (h *TransactionHandler) GetStats(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	dateRange, err := parseDateRange(c)
	if err != nil {
		return dateRangeError(c, err)
	}

	stats, err := h.statsService.GetStats(c.Request().Context(), ownerID, &dateRange)
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to compute stats")
		return NewInternalError(c, "Failed to compute statistics")
	}

	return c.JSON(http.StatusOK, toStatsResponse(stats))
}

// GetSummary godoc
// @Summary Category summary
// @Description Total amount and dates per category within the date range
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param startDate query string true "Start date (YYYY-MM-DD)"
// @Param endDate query string true "End date (YYYY-MM-DD), inclusive"
// @Success 200 {array} CategorySummaryResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /transactions/summary [get]
func (h *TransactionHandler) GetSummary(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	dateRange, err := parseDateRange(c)
	if err != nil {
		return dateRangeError(c, err)
	}

	summaries, err := h.summaryService.GetCategorySummary(c.Request().Context(), ownerID, dateRange)
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to summarize transactions")
		return NewInternalError(c, "Failed to summarize transactions")
	}

	response := make([]CategorySummaryResponse, len(summaries))
	for i, s := range summaries {
		response[i] = toCategorySummaryResponse(s)
	}
	return c.JSON(http.StatusOK, response)
}

// GetReport godoc
// @Summary PDF report
// @Description Render statistics, category totals and the transaction table as a PDF
// @Tags transactions
// @Produce application/pdf
// @Security BearerAuth
// @Param startDate query string true "Start date (YYYY-MM-DD)"
// @Param endDate query string true "End date (YYYY-MM-DD), inclusive"
// @Success 200 {file} file
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /transactions/report [get]
func (h *TransactionHandler) GetReport(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Owner required")
	}

	dateRange, err := parseDateRange(c)
	if err != nil {
		return dateRangeError(c, err)
	}

	data, err := h.reportService.GenerateReport(c.Request().Context(), ownerID, dateRange)
	if err != nil {
		if errors.Is(err, report.ErrFontUnavailable) {
			return NewServiceUnavailableError(c, "Reports are disabled (font not configured)")
		}
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to generate report")
		return NewInternalError(c, "Failed to generate report")
	}

	filename := report.Filename(dateRange)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, "application/pdf", data)
}

func parseDateRange(c echo.Context) (domain.DateRange, error) {
	return domain.ParseDateRange(c.QueryParam("startDate"), c.QueryParam("endDate"))
}

func dateRangeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrDateRangeRequired):
		return NewValidationError(c, "Date range required", []ValidationError{
			{Field: "startDate", Message: "startDate and endDate are required"},
		})
	case errors.Is(err, domain.ErrInvalidDateRange):
		return NewValidationError(c, "Invalid date range", []ValidationError{
			{Field: "endDate", Message: "endDate must not be before startDate"},
		})
	default:
		return NewValidationError(c, "Invalid date", []ValidationError{
			{Field: "startDate", Message: "Dates must be in YYYY-MM-DD format"},
		})
	}
}

func toImportResponse(message string, result *domain.ImportResult) ImportResponse {
	skipped := make([]SkippedRowResponse, len(result.Skipped))
	for i, s := range result.Skipped {
		skipped[i] = SkippedRowResponse{Row: s.Row, Reason: s.Reason}
	}
	return ImportResponse{
		Message:  message,
		Imported: result.Imported,
		Skipped:  skipped,
	}
}

func toStatsResponse(s domain.Stats) StatsResponse {
	return StatsResponse{
		AverageIncome:  s.AverageIncome.StringFixed(2),
		AverageExpense: s.AverageExpense.StringFixed(2),
		MedianAmount:   s.MedianAmount.StringFixed(2),
		ModeAmount:     formatAmounts(s.ModeAmount),
		ModeIncome:     formatAmounts(s.ModeIncome),
		ModeExpense:    formatAmounts(s.ModeExpense),
	}
}

func toCategorySummaryResponse(s *domain.CategorySummary) CategorySummaryResponse {
	dates := make([]string, len(s.Dates))
	for i, d := range s.Dates {
		dates[i] = d.UTC().Format(domain.DateLayout)
	}
	return CategorySummaryResponse{
		CategoryName: s.CategoryName,
		CategoryType: string(s.CategoryType),
		TotalAmount:  s.TotalAmount.StringFixed(2),
		Dates:        dates,
	}
}

func formatAmounts(values []decimal.Decimal) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.StringFixed(2)
	}
	return out
}
