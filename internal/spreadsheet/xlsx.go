package spreadsheet

import (
	"bytes"
	"fmt"

	"github.com/dafibh/fintrack/fintrack-backend/internal/domain"
	"github.com/xuri/excelize/v2"
)

// XLSXDecoder reads Office Open XML workbooks
type XLSXDecoder struct{}

// Decode returns raw cell values so dates arrive as serial numbers rather
// than in whatever display format the author picked.
func (XLSXDecoder) Decode(data []byte) ([]Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.ErrEmptySpreadsheet
	}
	sheet := sheets[0]

	values, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	grid := make([][]Cell, len(values))
	for i, line := range values {
		grid[i] = make([]Cell, len(line))
		for j, v := range line {
			if v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, err
			}
			cellType, err := f.GetCellType(sheet, cell)
			if err != nil {
				return nil, fmt.Errorf("failed to read cell %s: %w", cell, err)
			}
			grid[i][j] = xlsxCell(cellType, v)
		}
	}
	return rowsFromGrid(grid), nil
}

// xlsxCell keeps numbers apart from strings. Cells without a type attribute
// are numeric, which is how dates are stored.
func xlsxCell(cellType excelize.CellType, v string) Cell {
	switch cellType {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		return NumberCell(v)
	default:
		return TextCell(v)
	}
}
