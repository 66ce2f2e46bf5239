package report

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/signintech/gopdf"
)

// ErrFontUnavailable is returned when no TTF font is configured. The built-in
// PDF fonts cannot render Cyrillic, so a report cannot be produced without one.
var ErrFontUnavailable = errors.New("report font is not configured")

const fontFamily = "report"

// PDFDocument renders onto an A4 PDF with gopdf
type PDFDocument struct {
	pdf *gopdf.GoPdf
}

// NewPDFDocument starts an A4 document using the TTF font at fontPath
func NewPDFDocument(fontPath string) (*PDFDocument, error) {
	if fontPath == "" {
		return nil, ErrFontUnavailable
	}
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	if err := pdf.AddTTFFont(fontFamily, fontPath); err != nil {
		return nil, fmt.Errorf("failed to load font %s: %w", fontPath, err)
	}
	return &PDFDocument{pdf: pdf}, nil
}

// NewPDFDocumentFromData is like NewPDFDocument for an in-memory font
func NewPDFDocumentFromData(font []byte) (*PDFDocument, error) {
	if len(font) == 0 {
		return nil, ErrFontUnavailable
	}
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	if err := pdf.AddTTFFontData(fontFamily, font); err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	return &PDFDocument{pdf: pdf}, nil
}

func (d *PDFDocument) AddPage() {
	d.pdf.AddPage()
}

func (d *PDFDocument) SetFontSize(size float64) error {
	return d.pdf.SetFont(fontFamily, "", size)
}

func (d *PDFDocument) Text(x, y float64, text string) error {
	d.pdf.SetX(x)
	d.pdf.SetY(y)
	return d.pdf.Cell(nil, text)
}

func (d *PDFDocument) PageHeight() float64 {
	return gopdf.PageSizeA4.H
}

func (d *PDFDocument) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
