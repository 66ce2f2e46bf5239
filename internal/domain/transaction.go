package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is append-only. CategoryName and CategoryType are populated on reads.
type Transaction struct {
	ID           int32           `json:"id"`
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
	Comment      *string         `json:"comment,omitempty"`
	OwnerID      uuid.UUID       `json:"ownerId"`
	CategoryID   int32           `json:"categoryId"`
	CategoryName string          `json:"categoryName,omitempty"`
	CategoryType CategoryType    `json:"categoryType,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type TransactionRepository interface {
	Create(ctx context.Context, transaction *Transaction) (*Transaction, error)
	// ListByOwner returns the owner's transactions joined with their category,
	// ordered by date then id. A nil range means all time.
	ListByOwner(ctx context.Context, ownerID uuid.UUID, dateRange *DateRange) ([]*Transaction, error)
}

const DateLayout = "2006-01-02"

// Amounts are stored as NUMERIC(AmountPrecision, AmountScale)
const (
	AmountPrecision = 14
	AmountScale     = 2
)

var amountLimit = decimal.New(1, AmountPrecision-AmountScale)

// ValidateAmount rejects amounts the transactions.amount column would round
// or overflow. Trailing zeros past the scale are fine.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(AmountScale)) {
		return ErrAmountTooPrecise
	}
	if amount.Abs().GreaterThanOrEqual(amountLimit) {
		return ErrAmountOutOfRange
	}
	return nil
}

// DateRange is a pair of calendar dates; End covers its whole day.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange truncates both bounds to UTC calendar days
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: truncateDay(start), End: truncateDay(end)}
	if r.Start.After(r.End) {
		return DateRange{}, ErrInvalidDateRange
	}
	return r, nil
}

// ParseDateRange parses two YYYY-MM-DD strings
func ParseDateRange(start, end string) (DateRange, error) {
	if start == "" || end == "" {
		return DateRange{}, ErrDateRangeRequired
	}
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return DateRange{}, ErrInvalidDate
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateRange{}, ErrInvalidDate
	}
	return NewDateRange(s, e)
}

// Until returns the exclusive upper bound, the first instant after End's day
func (r DateRange) Until() time.Time {
	return r.End.AddDate(0, 0, 1)
}

// Contains reports whether t falls on a day within the range
func (r DateRange) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(r.Start) && t.Before(r.Until())
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
