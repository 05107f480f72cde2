package models

import "github.com/shopspring/decimal"

func init() {
	// API clients read money as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type ApplyRequest struct {
	Code  string          `json:"code"`
	Total decimal.Decimal `json:"total"`
}

type ApplyResult struct {
	Code            string          `json:"code"`
	Discount        decimal.Decimal `json:"discount"`
	DiscountedTotal decimal.Decimal `json:"discountedTotal"`
	UsedCount       int             `json:"-"`
}
