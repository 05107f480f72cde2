package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPlaced        OrderStatus = "Order Placed"
	StatusConfirmed     OrderStatus = "Order Confirmed"
	StatusProcessing    OrderStatus = "Order Processing"
	StatusDispatched    OrderStatus = "Dispatched"
	StatusInTransmit    OrderStatus = "In Transmit"
	StatusOutForDeliver OrderStatus = "Out for Delivery"
	StatusDelivered     OrderStatus = "Order Delivered"
	StatusCancelled     OrderStatus = "Order Cancelled"
	StatusReturnRequest OrderStatus = "Return Request"
	StatusReturned      OrderStatus = "Returned"
)

// OrderStatuses is the full vocabulary in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusPlaced,
	StatusConfirmed,
	StatusProcessing,
	StatusDispatched,
	StatusInTransmit,
	StatusOutForDeliver,
	StatusDelivered,
	StatusCancelled,
	StatusReturnRequest,
	StatusReturned,
}

var transitions = map[OrderStatus][]OrderStatus{
	StatusPlaced:        {StatusConfirmed, StatusCancelled},
	StatusConfirmed:     {StatusProcessing, StatusCancelled},
	StatusProcessing:    {StatusDispatched, StatusCancelled},
	StatusDispatched:    {StatusInTransmit, StatusOutForDeliver},
	StatusInTransmit:    {StatusOutForDeliver},
	StatusOutForDeliver: {StatusDelivered},
	StatusDelivered:     {StatusReturnRequest},
	StatusReturnRequest: {StatusReturned, StatusDelivered},
}

// ParseOrderStatus matches s against the vocabulary, ignoring case and
// surrounding whitespace.
func ParseOrderStatus(s string) (OrderStatus, error) {
	s = strings.TrimSpace(s)
	for _, st := range OrderStatuses {
		if strings.EqualFold(string(st), s) {
			return st, nil
		}
	}
	return "", ErrInvalidStatus
}

// CanTransition reports whether the strict lifecycle allows from -> to.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type StatusEntry struct {
	Status    OrderStatus `json:"status"`
	ChangedAt time.Time   `json:"changed_at"`
}

type Address struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country,omitempty"`
}

type Order struct {
	ID              string          `json:"id"`
	OrderID         string          `json:"order_id"`
	Products        []LineItem      `json:"products"`
	SubTotal        decimal.Decimal `json:"sub_total"`
	Discount        decimal.Decimal `json:"discount"`
	DeliveryCharge  decimal.Decimal `json:"delivery_charge"`
	Total           decimal.Decimal `json:"total"`
	CouponCode      string          `json:"coupon_code,omitempty"`
	OrderStatus     OrderStatus     `json:"order_status"`
	StatusHistory   []StatusEntry   `json:"status_history"`
	DeliveryAddress Address         `json:"delivery_address"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentDetails  json.RawMessage `json:"payment_details,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderInput is the checkout payload.
type OrderInput struct {
	Products        []LineItem      `json:"products"`
	Discount        decimal.Decimal `json:"discount"`
	CouponCode      string          `json:"coupon_code,omitempty"`
	DeliveryAddress Address         `json:"delivery_address"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentDetails  json.RawMessage `json:"payment_details,omitempty"`
}

func (in OrderInput) Validate() error {
	if len(in.Products) == 0 {
		return InvalidInput("order must contain at least one product")
	}
	for _, p := range in.Products {
		if strings.TrimSpace(p.ProductID) == "" {
			return InvalidInput("product_id is required")
		}
		if p.Quantity <= 0 {
			return InvalidInput("quantity must be positive")
		}
		if p.Price.IsNegative() {
			return InvalidInput("price cannot be negative")
		}
	}
	if in.Discount.IsNegative() {
		return InvalidInput("discount cannot be negative")
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		return InvalidInput("payment_method is required")
	}
	return nil
}

type OrderFilter struct {
	Status OrderStatus
	Page   int
	Limit  int
}

type OrderPage struct {
	Items []Order `json:"items"`
	Total int     `json:"total"`
	Page  int     `json:"page"`
	Limit int     `json:"limit"`
}
