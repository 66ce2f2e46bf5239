package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dafibh/fintrack/fintrack-backend/internal/middleware"
	"github.com/dafibh/fintrack/fintrack-backend/internal/report"
	"github.com/dafibh/fintrack/fintrack-backend/internal/service"
	"github.com/dafibh/fintrack/fintrack-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Helper to set up auth context for an owner
func setupAuthContext(c echo.Context, ownerID uuid.UUID) {
	ctx := context.WithValue(c.Request().Context(), middleware.OwnerIDKey, ownerID)
	c.SetRequest(c.Request().WithContext(ctx))
}

// stubDocument writes every text call on its own line
type stubDocument struct {
	buf bytes.Buffer
}

func (d *stubDocument) AddPage()                  {}
func (d *stubDocument) SetFontSize(float64) error { return nil }
func (d *stubDocument) PageHeight() float64       { return 842 }
func (d *stubDocument) Bytes() ([]byte, error)    { return d.buf.Bytes(), nil }
func (d *stubDocument) Text(_, _ float64, s string) error {
	d.buf.WriteString(s + "\n")
	return nil
}

type handlerFixture struct {
	categories   *testutil.MockCategoryRepository
	transactions *testutil.MockTransactionRepository
	archive      *testutil.MockImportArchive
	handler      *TransactionHandler
}

func newHandlerFixture(newDocument service.DocumentFactory) *handlerFixture {
	categories := testutil.NewMockCategoryRepository()
	transactions := testutil.NewMockTransactionRepositoryWithCategories(categories)
	archive := testutil.NewMockImportArchive()

	if newDocument == nil {
		newDocument = func() (report.Document, error) { return &stubDocument{}, nil }
	}

	summaryService := service.NewSummaryService(transactions)
	h := NewTransactionHandler(
		service.NewImportService(transactions, service.NewCategoryResolver(categories), archive),
		service.NewStatsService(transactions),
		summaryService,
		service.NewReportService(transactions, summaryService, newDocument),
		1<<20,
	)
	return &handlerFixture{
		categories:   categories,
		transactions: transactions,
		archive:      archive,
		handler:      h,
	}
}

func multipartRequest(t *testing.T, target, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if filename != "" {
		header := make(map[string][]string)
		header["Content-Disposition"] = []string{`form-data; name="file"; filename="` + filename + `"`}
		header["Content-Type"] = []string{contentType}
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("Failed to create part: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("Failed to write part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}
