// Package report lays out transaction statistics, category totals and the
// transaction table onto a paginated document.
package report

// Document is the drawing surface a report is written to. Coordinates are in
// points from the top-left corner of the current page.
type Document interface {
	AddPage()
	SetFontSize(size float64) error
	Text(x, y float64, text string) error
	PageHeight() float64
	Bytes() ([]byte, error)
}
