package domain

import (
	"context"
	"strings"
	"time"
)

type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "INCOME"
	CategoryTypeExpense CategoryType = "EXPENSE"
)

// MaxCategoryNameLength mirrors the varchar limit of categories.name
const MaxCategoryNameLength = 100

// IsValid reports whether t is one of the known category types
func (t CategoryType) IsValid() bool {
	return t == CategoryTypeIncome || t == CategoryTypeExpense
}

// ParseCategoryType parses a category type case-insensitively
func ParseCategoryType(s string) (CategoryType, error) {
	t := CategoryType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", ErrInvalidCategoryType
	}
	return t, nil
}

// Label returns the localized label used in reports
func (t CategoryType) Label() string {
	if t == CategoryTypeIncome {
		return "Пополнение"
	}
	return "Трата"
}

// Category is shared by all owners and keyed by (Name, Type).
// Categories are created on first reference and never updated.
type Category struct {
	ID        int32        `json:"id"`
	Name      string       `json:"name"`
	Type      CategoryType `json:"type"`
	CreatedAt time.Time    `json:"createdAt"`
}

type CategoryRepository interface {
	// GetByNameAndType returns ErrCategoryNotFound when no row matches
	GetByNameAndType(ctx context.Context, name string, categoryType CategoryType) (*Category, error)
	// Create returns ErrCategoryAlreadyExists when (name, type) is taken
	Create(ctx context.Context, category *Category) (*Category, error)
}
