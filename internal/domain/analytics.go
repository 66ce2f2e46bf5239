package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stats holds descriptive statistics over a set of transactions
type Stats struct {
	AverageIncome  decimal.Decimal   `json:"averageIncome"`
	AverageExpense decimal.Decimal   `json:"averageExpense"`
	MedianAmount   decimal.Decimal   `json:"medianAmount"`
	ModeAmount     []decimal.Decimal `json:"modeAmount"`
	ModeIncome     []decimal.Decimal `json:"modeIncome"`
	ModeExpense    []decimal.Decimal `json:"modeExpense"`
}

// CategorySummary is the total of one category within a date range
type CategorySummary struct {
	CategoryName string          `json:"categoryName"`
	CategoryType CategoryType    `json:"categoryType"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	Dates        []time.Time     `json:"dates"`
}
