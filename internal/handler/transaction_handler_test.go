package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dafibh/fintrack/fintrack-backend/internal/domain"
	"github.com/dafibh/fintrack/fintrack-backend/internal/report"
	"github.com/dafibh/fintrack/fintrack-backend/internal/spreadsheet"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("Failed to build cell name: %v", err)
		}
		r := row
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatalf("Failed to write row: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("Failed to write workbook: %v", err)
	}
	return buf.Bytes()
}

func day(s string) time.Time {
	d, _ := time.Parse(domain.DateLayout, s)
	return d
}

func TestImportTransactions_Success(t *testing.T) {
	e := echo.New()
	fx := newHandlerFixture(nil)
	ownerID := uuid.New()

	reqBody := `[
		{"amount": -150.5, "date": "2025-05-10", "comment": "lunch", "categoryName": "Food", "categoryType": "EXPENSE"},
		{"amount": "1000", "date": "2025-05-11T09:00:00Z", "categoryName": "Salary", "categoryType": "income"}
	]`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, ownerID)

	if err := fx.handler.ImportTransactions(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response ImportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Imported != 2 {
		t.Errorf("Expected 2 imported, got %d", response.Imported)
	}
	if response.Skipped == nil || len(response.Skipped) != 0 {
		t.Errorf("Expected empty skipped list, got %v", response.Skipped)
	}

	stored, _ := fx.transactions.ListByOwner(c.Request().Context(), ownerID, nil)
	if len(stored) != 2 {
		t.Fatalf("Expected 2 stored transactions, got %d", len(stored))
	}
	if !stored[0].Amount.Equal(decimal.RequireFromString("-150.5")) {
		t.Errorf("Expected amount -150.5, got %s", stored[0].Amount)
	}
}

func TestImportTransactions_FailFast(t *testing.T) {
	e := echo.New()
	fx := newHandlerFixture(nil)

	reqBody := `[
		{"amount": "10", "date": "2025-05-10", "categoryName": "Food", "categoryType": "EXPENSE"},
		{"amount": true, "date": "2025-05-10", "categoryName": "Food", "categoryType": "EXPENSE"},
		{"amount": "30", "date": "2025-05-10", "categoryName": "Food", "categoryType": "EXPENSE"}
	]`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, uuid.New())

	if err := fx.handler.ImportTransactions(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if problem.Type != ErrorTypeValidation {
		t.Errorf("Expected validation error type, got %s", problem.Type)
	}
	if len(problem.Errors) != 1 || problem.Errors[0].Field != "[1].amount" {
		t.Errorf("Expected error on [1].amount, got %+v", problem.Errors)
	}
	if !strings.Contains(problem.Detail, "1 earlier records were imported") {
		t.Errorf("Expected detail to mention the committed prefix, got %q", problem.Detail)
	}
	if fx.transactions.Count() != 1 {
		t.Errorf("Expected 1 stored transaction, got %d", fx.transactions.Count())
	}
}

func TestImportTransactions_AmountOutsideColumn(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		message string
	}{
		{"overflow", `1e20`, "less than 10^12"},
		{"sub-cent", `"0.001"`, "at most 2 decimal places"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			fx := newHandlerFixture(nil)

			reqBody := `[{"amount": ` + tt.amount + `, "date": "2025-05-10", "categoryName": "Food", "categoryType": "EXPENSE"}]`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			setupAuthContext(c, uuid.New())

			if err := fx.handler.ImportTransactions(c); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d", rec.Code)
			}

			var problem ProblemDetails
			if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
				t.Fatalf("Failed to unmarshal response: %v", err)
			}
			if len(problem.Errors) != 1 || problem.Errors[0].Field != "[0].amount" {
				t.Fatalf("Expected error on [0].amount, got %+v", problem.Errors)
			}
			if !strings.Contains(problem.Errors[0].Message, tt.message) {
				t.Errorf("Expected message to contain %q, got %q", tt.message, problem.Errors[0].Message)
			}
			if fx.transactions.Count() != 0 {
				t.Errorf("Expected nothing stored, got %d", fx.transactions.Count())
			}
		})
	}
}

func TestImportTransactions_InvalidBody(t *testing.T) {
	e := echo.New()
	fx := newHandlerFixture(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(`{"amount": 1}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, uuid.New())

	if err := fx.handler.ImportTransactions(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestImportTransactions_Unauthorized(t *testing.T) {
	e := echo.New()
	fx := newHandlerFixture(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(`[]`))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := fx.handler.ImportTransactions(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestFlexibleValue_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"12.50"`, "12.50"},
		{`12.50`, "12.50"},
		{`-3`, "-3"},
		{`null`, ""},
		{`true`, ""},
		{`{"a": 1}`, ""},
	}

	for _, tt := range tests {
		var v FlexibleValue
		if err := json.Unmarshal([]byte(tt.input), &v); err != nil {
			t.Errorf("%s: unexpected error %v", tt.input, err)
			continue
		}
		if string(v) != tt.expected {
			t.Errorf("%s: expected %q, got %q", tt.input, tt.expected, string(v))
		}
	}
}

func TestImportFile_Success(t *testing.T) {
	e := echo.New()
	fx := newHandlerFixture(nil)
	ownerID := uuid.New()

	data := buildWorkbook(t, [][]interface{}{
		{"amount", "date", "comment", "categoryName", "categoryType"},
		{-20, "2025-05-10", "", "Food", "EXPENSE"},
		{"abc", "2025-05-11", "", "Food", "EXPENSE"},
	})
	req := multipartRequest(t, "/api/v1/transactions/import", "may.xlsx", "application/octet-stream", data)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, ownerID)

	if err := fx.handler.ImportFile(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response ImportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Message != "File imported" {
		t.Errorf("Expected message 'File imported', got %q", response.Message)
	}
	if response.Imported != 1 {
		t.Errorf("Expected 1 imported, got %d", response.Imported)
	}
	if len(response.Skipped) != 1 || response.Skipped[0].Row != 3 {
		t.Errorf("Expected row 3 skipped, got %+v", response.Skipped)
	}
	if len(fx.archive.Objects) != 1 {
		t.Errorf("Expected upload to be archived, got %d objects", len(fx.archive.Objects))
	}
}

func TestImportFile_RejectsNonExcel(t *testing.T) {
	e := echo.New()
	fx := newHandlerFixture(nil)

	req := multipartRequest(t, "/api/v1/transactions/import", "data.csv", "text/csv", []byte("amount\n1\n"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, uuid.New())

	if err := fx.handler.ImportFile(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}
	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if problem.Detail != "only Excel files are allowed" {
		t.Errorf("Expected Excel-only detail, got %q", problem.Detail)
	}
}

func TestImportFile_MissingFile(t *testing.T) {
	e := echo.New()
	fx := newHandlerFixture(nil)

	req := multipartRequest(t, "/api/v1/transactions/import", "", "", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, uuid.New())

	if err := fx.handler.ImportFile(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestImportFile_TooLarge(t *testing.T) {
	e := echo.New()
	fx := newHandlerFixture(nil)
	fx.handler.maxUploadBytes = 4

	req := multipartRequest(t, "/api/v1/transactions/import", "big.xlsx", spreadsheet.ContentTypeXLSX, []byte("0123456789"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, uuid.New())

	if err := fx.handler.ImportFile(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected status 413, got %d", rec.Code)
	}
}

func TestImportFile_CorruptWorkbook(t *testing.T) {
	e := echo.New()
	fx := newHandlerFixture(nil)

	req := multipartRequest(t, "/api/v1/transactions/import", "broken.xlsx", spreadsheet.ContentTypeXLSX, []byte("not a workbook"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, uuid.New())

	if err := fx.handler.ImportFile(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestResolveContentType(t *testing.T) {
	tests := []struct {
		header, filename, expected string
	}{
		{spreadsheet.ContentTypeXLSX, "a.bin", spreadsheet.ContentTypeXLSX},
		{"application/octet-stream", "a.XLSX", spreadsheet.ContentTypeXLSX},
		{"", "legacy.xls", spreadsheet.ContentTypeXLS},
		{"text/csv", "a.csv", "text/csv"},
	}
	for _, tt := range tests {
		if got := resolveContentType(tt.header, tt.filename); got != tt.expected {
			t.Errorf("resolveContentType(%q, %q) = %q, want %q", tt.header, tt.filename, got, tt.expected)
		}
	}
}

func seedTransactions(fx *handlerFixture, ownerID uuid.UUID) {
	food, _ := fx.categories.Insert(&domain.Category{Name: "Food", Type: domain.CategoryTypeExpense})
	salary, _ := fx.categories.Insert(&domain.Category{Name: "Salary", Type: domain.CategoryTypeIncome})
	fx.transactions.AddTransaction(&domain.Transaction{OwnerID: ownerID, Amount: decimal.NewFromInt(-10), Date: day("2025-05-01"), CategoryID: food.ID})
	fx.transactions.AddTransaction(&domain.Transaction{OwnerID: ownerID, Amount: decimal.NewFromInt(-15), Date: day("2025-05-31"), CategoryID: food.ID})
	fx.transactions.AddTransaction(&domain.Transaction{OwnerID: ownerID, Amount: decimal.NewFromInt(1000), Date: day("2025-05-05"), CategoryID: salary.ID})
	fx.transactions.AddTransaction(&domain.Transaction{OwnerID: ownerID, Amount: decimal.NewFromInt(-99), Date: day("2025-06-01"), CategoryID: food.ID})
}

func TestGetStats_Success(t *testing.T) {
	e := echo.New()
	fx := newHandlerFixture(nil)
	ownerID := uuid.New()
	seedTransactions(fx, ownerID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/stats?startDate=2025-05-01&endDate=2025-05-31", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, ownerID)

	if err := fx.handler.GetStats(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response StatsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.AverageIncome != "1000.00" {
		t.Errorf("Expected average income 1000.00, got %s", response.AverageIncome)
	}
	if response.AverageExpense != "-12.50" {
		t.Errorf("Expected average expense -12.50, got %s", response.AverageExpense)
	}
	if response.MedianAmount != "-10.00" {
		t.Errorf("Expected median -10.00, got %s", response.MedianAmount)
	}
	if len(response.ModeAmount) != 3 {
		t.Errorf("Expected 3 modes, got %v", response.ModeAmount)
	}
}

func TestGetStats_DateValidation(t *testing.T) {
	tests := []struct {
		name  string
		query string
		field string
	}{
		{"missing dates", "", "startDate"},
		{"bad format", "?startDate=05/01/2025&endDate=2025-05-31", "startDate"},
		{"reversed range", "?startDate=2025-06-01&endDate=2025-05-01", "endDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			fx := newHandlerFixture(nil)
			listed := false
			fx.transactions.ListFn = func(uuid.UUID, *domain.DateRange) ([]*domain.Transaction, error) {
				listed = true
				return nil, nil
			}

			req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/stats"+tt.query, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			setupAuthContext(c, uuid.New())

			if err := fx.handler.GetStats(c); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d", rec.Code)
			}
			if listed {
				t.Error("Expected no query before validation passes")
			}

			var problem ProblemDetails
			if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
				t.Fatalf("Failed to unmarshal response: %v", err)
			}
			if len(problem.Errors) != 1 || problem.Errors[0].Field != tt.field {
				t.Errorf("Expected error on %s, got %+v", tt.field, problem.Errors)
			}
		})
	}
}

func TestGetStats_RepositoryError(t *testing.T) {
	e := echo.New()
	fx := newHandlerFixture(nil)
	fx.transactions.ListFn = func(uuid.UUID, *domain.DateRange) ([]*domain.Transaction, error) {
		return nil, errors.New("connection refused")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/stats?startDate=2025-05-01&endDate=2025-05-31", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, uuid.New())

	if err := fx.handler.GetStats(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rec.Code)
	}
}

func TestGetSummary_Success(t *testing.T) {
	e := echo.New()
	fx := newHandlerFixture(nil)
	ownerID := uuid.New()
	seedTransactions(fx, ownerID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/summary?startDate=2025-05-01&endDate=2025-05-31", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, ownerID)

	if err := fx.handler.GetSummary(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response []CategorySummaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response) != 2 {
		t.Fatalf("Expected 2 categories, got %d", len(response))
	}
	if response[0].CategoryName != "Food" || response[0].TotalAmount != "-25.00" {
		t.Errorf("Expected Food total -25.00, got %+v", response[0])
	}
	if len(response[0].Dates) != 2 || response[0].Dates[1] != "2025-05-31" {
		t.Errorf("Expected Food dates through 2025-05-31, got %v", response[0].Dates)
	}
	if response[1].CategoryType != "INCOME" {
		t.Errorf("Expected INCOME for Salary, got %s", response[1].CategoryType)
	}
}

func TestGetReport_Success(t *testing.T) {
	e := echo.New()
	fx := newHandlerFixture(nil)
	ownerID := uuid.New()
	seedTransactions(fx, ownerID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/report?startDate=2025-05-01&endDate=2025-05-31", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, ownerID)

	if err := fx.handler.GetReport(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "application/pdf" {
		t.Errorf("Expected application/pdf, got %s", ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); cd != `attachment; filename="report_2025-05-01_2025-05-31.pdf"` {
		t.Errorf("Unexpected Content-Disposition %q", cd)
	}
	if !strings.Contains(rec.Body.String(), "Food (Трата): -25.00") {
		t.Errorf("Expected category summary in report, got %s", rec.Body.String())
	}
}

func TestGetReport_FontUnavailable(t *testing.T) {
	e := echo.New()
	fx := newHandlerFixture(func() (report.Document, error) {
		return nil, report.ErrFontUnavailable
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/report?startDate=2025-05-01&endDate=2025-05-31", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, uuid.New())

	if err := fx.handler.GetReport(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", rec.Code)
	}
}
