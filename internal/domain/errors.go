package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryAlreadyExists = errors.New("category already exists")
	ErrCategoryNameRequired  = errors.New("category name is required")
	ErrCategoryNameTooLong   = errors.New("category name exceeds maximum length")
	ErrInvalidCategoryType   = errors.New("category type must be one of: INCOME, EXPENSE")

	ErrInvalidAmount    = errors.New("amount must be a number")
	ErrAmountOutOfRange = errors.New("amount must be less than 10^12 in absolute value")
	ErrAmountTooPrecise = errors.New("amount must have at most 2 decimal places")
	ErrInvalidDate      = errors.New("date must be an ISO calendar date")

	ErrDateRangeRequired = errors.New("startDate and endDate are required in YYYY-MM-DD format")
	ErrInvalidDateRange  = errors.New("startDate cannot be after endDate")

	ErrUnsupportedSpreadsheet = errors.New("only Excel files are allowed")
	ErrEmptySpreadsheet       = errors.New("spreadsheet has no sheets")
)

// RecordError reports the structured record that stopped an import.
// Records before Index were already persisted.
type RecordError struct {
	Index int
	Field string
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %s: %v", e.Index, e.Field, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
