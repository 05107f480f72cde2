package models

import "github.com/shopspring/decimal"

// LineItem is a product snapshot taken at checkout. Price is copied from the
// live product and never re-derived.
type LineItem struct {
	ProductID   string          `json:"product_id"`
	NetQuantity string          `json:"net_quantity"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

func (li LineItem) Amount() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// SubTotal sums price * quantity over items.
func SubTotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Amount())
	}
	return sum
}
