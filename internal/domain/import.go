package domain

import (
	"context"

	"github.com/google/uuid"
)

// DefaultCategoryName is used for spreadsheet rows without a category
const DefaultCategoryName = "Прочее"

// SkippedRow is a spreadsheet row left out of an import.
// Row is 1-based and counts the header, matching what the user sees.
type SkippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportResult summarizes one import call
type ImportResult struct {
	Imported int          `json:"imported"`
	Skipped  []SkippedRow `json:"skipped"`
}

// ImportArchive keeps a copy of uploaded spreadsheets
type ImportArchive interface {
	Store(ctx context.Context, ownerID uuid.UUID, filename, contentType string, data []byte) (string, error)
}
