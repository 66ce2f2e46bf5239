package spreadsheet

import (
	"bytes"
	"fmt"

	"github.com/dafibh/fintrack/fintrack-backend/internal/domain"
	"github.com/extrame/xls"
)

// maxXLSColumns is the BIFF8 column limit
const maxXLSColumns = 256

// XLSDecoder reads legacy BIFF (.xls) workbooks.
//
// The xls reader only exposes rendered strings and renders built-in date
// formats as year and month, so every cell is treated as text and date cells
// that are not stored as text do not parse.
type XLSDecoder struct{}

func (XLSDecoder) Decode(data []byte) ([]Row, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open xls: %w", err)
	}
	if wb == nil || wb.NumSheets() == 0 {
		return nil, domain.ErrEmptySpreadsheet
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, domain.ErrEmptySpreadsheet
	}

	grid := make([][]Cell, int(sheet.MaxRow)+1)
	for i := range grid {
		row := sheetRow(sheet, i)
		if row == nil {
			continue
		}
		// rows built from cells without a ROW record report no columns
		width := row.LastCol()
		if width <= 0 {
			width = maxXLSColumns
		}
		cells := make([]Cell, width)
		for j := range cells {
			cells[j] = TextCell(row.Col(j))
		}
		grid[i] = cells
	}
	return rowsFromGrid(grid), nil
}

// sheetRow returns nil for rows the sheet has no record of. WorkSheet.Row
// dereferences the missing entry instead.
func sheetRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}
