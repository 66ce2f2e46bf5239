package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dafibh/fintrack/fintrack-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// Layout in points
const (
	TopMargin    = 50.0
	BottomMargin = 50.0
	LeftMargin   = 50.0

	TitleFontSize   = 18.0
	HeadingFontSize = 14.0
	BodyFontSize    = 11.0

	titleHeight   = 28.0
	headingHeight = 22.0
	lineHeight    = 16.0
	RowHeight     = 20.0

	// modeDisplayLimit caps how many tied modes are printed per list
	modeDisplayLimit = 3

	maxCategoryRunes = 18
	maxCommentRunes  = 28
)

// Column x-offsets of the transaction table
const (
	ColumnDateX     = 50.0
	ColumnAmountX   = 130.0
	ColumnTypeX     = 210.0
	ColumnCategoryX = 300.0
	ColumnCommentX  = 420.0
)

const emptyValue = "—"

// Input is everything a report shows
type Input struct {
	Period       domain.DateRange
	Stats        domain.Stats
	Summary      []*domain.CategorySummary
	Transactions []*domain.Transaction
}

// Render writes the report onto doc and returns the finished bytes.
// Output depends only on in and the document implementation.
func Render(doc Document, in Input) ([]byte, error) {
	w := &writer{doc: doc}
	w.newPage()

	w.setFont(TitleFontSize)
	w.text(LeftMargin, "Отчёт по транзакциям", titleHeight)

	w.setFont(BodyFontSize)
	w.text(LeftMargin, fmt.Sprintf("Период: %s — %s",
		in.Period.Start.Format(domain.DateLayout), in.Period.End.Format(domain.DateLayout)), headingHeight)

	w.setFont(HeadingFontSize)
	w.text(LeftMargin, "Статистика", headingHeight)
	w.setFont(BodyFontSize)
	for _, line := range statsLines(in.Stats) {
		w.text(LeftMargin, line, lineHeight)
	}

	w.setFont(HeadingFontSize)
	w.text(LeftMargin, "Итоги по категориям", headingHeight)
	w.setFont(BodyFontSize)
	if len(in.Summary) == 0 {
		w.text(LeftMargin, emptyValue, lineHeight)
	}
	for _, s := range in.Summary {
		w.text(LeftMargin, fmt.Sprintf("%s (%s): %s", s.CategoryName, s.CategoryType.Label(), s.TotalAmount.StringFixed(2)), lineHeight)
	}

	w.setFont(HeadingFontSize)
	w.text(LeftMargin, "Транзакции", headingHeight)
	w.setFont(BodyFontSize)
	w.row(RowHeight, "Дата", "Сумма", "Тип", "Категория", "Комментарий")
	for _, tx := range sortedByDate(in.Transactions) {
		comment := ""
		if tx.Comment != nil {
			comment = *tx.Comment
		}
		w.row(RowHeight,
			tx.Date.UTC().Format(domain.DateLayout),
			tx.Amount.StringFixed(2),
			tx.CategoryType.Label(),
			truncate(tx.CategoryName, maxCategoryRunes),
			truncate(comment, maxCommentRunes),
		)
	}

	if w.err != nil {
		return nil, w.err
	}
	return doc.Bytes()
}

// Filename names a report after its period
func Filename(period domain.DateRange) string {
	return fmt.Sprintf("report_%s_%s.pdf",
		period.Start.Format(domain.DateLayout),
		period.End.Format(domain.DateLayout))
}

func statsLines(s domain.Stats) []string {
	return []string{
		"Средний доход: " + s.AverageIncome.StringFixed(2),
		"Средний расход: " + s.AverageExpense.StringFixed(2),
		"Медиана: " + s.MedianAmount.StringFixed(2),
		"Мода: " + FormatModes(s.ModeAmount),
		"Мода доходов: " + FormatModes(s.ModeIncome),
		"Мода расходов: " + FormatModes(s.ModeExpense),
	}
}

// FormatModes joins up to three modes with two decimals each
func FormatModes(modes []decimal.Decimal) string {
	if len(modes) == 0 {
		return emptyValue
	}
	if len(modes) > modeDisplayLimit {
		modes = modes[:modeDisplayLimit]
	}
	parts := make([]string, len(modes))
	for i, m := range modes {
		parts[i] = m.StringFixed(2)
	}
	return strings.Join(parts, ", ")
}

func sortedByDate(transactions []*domain.Transaction) []*domain.Transaction {
	sorted := make([]*domain.Transaction, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

// writer tracks the vertical cursor and the first drawing error
type writer struct {
	doc      Document
	y        float64
	fontSize float64
	err      error
}

func (w *writer) newPage() {
	w.doc.AddPage()
	w.y = TopMargin
	if w.fontSize > 0 {
		w.setFont(w.fontSize)
	}
}

// reserve breaks the page when a line of height would cross the bottom margin
func (w *writer) reserve(height float64) float64 {
	if w.y+height > w.doc.PageHeight()-BottomMargin {
		w.newPage()
	}
	y := w.y
	w.y += height
	return y
}

func (w *writer) setFont(size float64) {
	w.fontSize = size
	if w.err == nil {
		w.err = w.doc.SetFontSize(size)
	}
}

func (w *writer) text(x float64, s string, height float64) {
	y := w.reserve(height)
	if w.err == nil {
		w.err = w.doc.Text(x, y, s)
	}
}

func (w *writer) row(height float64, date, amount, kind, category, comment string) {
	y := w.reserve(height)
	columns := []struct {
		x float64
		s string
	}{
		{ColumnDateX, date},
		{ColumnAmountX, amount},
		{ColumnTypeX, kind},
		{ColumnCategoryX, category},
		{ColumnCommentX, comment},
	}
	for _, c := range columns {
		if w.err != nil || c.s == "" {
			continue
		}
		w.err = w.doc.Text(c.x, y, c.s)
	}
}
