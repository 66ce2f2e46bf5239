// Package spreadsheet decodes the first sheet of an uploaded workbook into
// header-keyed rows. Cells stay loosely typed; callers decide how strictly to
// interpret them.
package spreadsheet

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dafibh/fintrack/fintrack-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeXLS  = "application/vnd.ms-excel"
)

// Decoder turns workbook bytes into rows of the first sheet
type Decoder interface {
	Decode(data []byte) ([]Row, error)
}

// ForContentType picks the decoder for an uploaded file's mime type
func ForContentType(contentType string) (Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case ContentTypeXLSX:
		return XLSXDecoder{}, nil
	case ContentTypeXLS:
		return XLSDecoder{}, nil
	default:
		return nil, domain.ErrUnsupportedSpreadsheet
	}
}

// IsSupported reports whether contentType names one of the two Excel formats
func IsSupported(contentType string) bool {
	_, err := ForContentType(contentType)
	return err == nil
}

// ContentTypeForFilename guesses the Excel content type from a file extension.
// It returns the empty string for anything else.
func ContentTypeForFilename(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return ContentTypeXLSX
	case ".xls":
		return ContentTypeXLS
	}
	return ""
}

// Row is one non-blank data row. Number is the 1-based sheet row as the
// user sees it.
type Row struct {
	Number int
	cells  map[string]Cell
}

// Get returns the cell under header, or an empty cell
func (r Row) Get(header string) Cell {
	return r.cells[strings.ToLower(strings.TrimSpace(header))]
}

// Cell is a single loosely-typed value: text as stored in the sheet, a
// number stored as such, or a native date value.
type Cell struct {
	text   string
	number bool
	date   *time.Time
}

func TextCell(s string) Cell {
	return Cell{text: s}
}

// NumberCell holds the raw text of a numeric cell. Only numeric cells may be
// read as Excel serial dates.
func NumberCell(s string) Cell {
	return Cell{text: s, number: true}
}

func DateCell(t time.Time) Cell {
	return Cell{date: &t}
}

// Text returns the trimmed cell text; date cells render as RFC 3339
func (c Cell) Text() string {
	if c.date != nil {
		return c.date.Format(time.RFC3339)
	}
	return strings.TrimSpace(c.text)
}

func (c Cell) IsEmpty() bool {
	return c.date == nil && c.Text() == ""
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02.01.2006",
	"02.01.2006 15:04",
	"01/02/2006",
	"01-02-06",
}

// maxExcelSerial is 9999-12-31 in the 1900 date system
const maxExcelSerial = 2958465

// Time interprets the cell as a date: a native date value, a string in one of
// the accepted layouts, or the Excel serial day number of a numeric cell.
func (c Cell) Time() (time.Time, bool) {
	if c.date != nil {
		return *c.date, true
	}
	s := c.Text()
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if !c.number {
		return time.Time{}, false
	}
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || serial <= 0 || serial > maxExcelSerial {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Decimal interprets the cell as a number. Grouping spaces and a decimal
// comma are accepted since locale-formatted sheets use them.
func (c Cell) Decimal() (decimal.Decimal, bool) {
	if c.date != nil {
		return decimal.Zero, false
	}
	s := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' {
			return -1
		}
		return r
	}, c.Text())
	if s == "" {
		return decimal.Zero, false
	}
	if !strings.Contains(s, ".") && strings.Count(s, ",") == 1 {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// rowsFromGrid keys every data row by the header row. Blank rows are dropped
// and short rows are padded with empty cells.
// rowsFromGrid takes one line per sheet row, blank lines included. The first
// non-blank line is the header.
func rowsFromGrid(grid [][]Cell) []Row {
	start := 0
	for start < len(grid) && blankLine(grid[start]) {
		start++
	}
	if start == len(grid) {
		return nil
	}
	headers := make([]string, len(grid[start]))
	for i, h := range grid[start] {
		headers[i] = strings.ToLower(h.Text())
	}

	rows := make([]Row, 0, len(grid)-start-1)
	for n := start + 1; n < len(grid); n++ {
		cells := grid[n]
		row := Row{Number: n + 1, cells: make(map[string]Cell, len(headers))}
		blank := true
		for i, header := range headers {
			if header == "" || i >= len(cells) {
				continue
			}
			row.cells[header] = cells[i]
			if !cells[i].IsEmpty() {
				blank = false
			}
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	return rows
}

func blankLine(cells []Cell) bool {
	for _, c := range cells {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}
