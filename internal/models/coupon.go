package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type CouponStatus string

const (
	CouponActive  CouponStatus = "active"
	CouponExpired CouponStatus = "expired"
)

const DefaultUsageLimit = 100000

var hundred = decimal.NewFromInt(100)

type Coupon struct {
	ID             string           `json:"id"`
	Code           string           `json:"code"`
	DiscountType   DiscountType     `json:"discount_type"`
	DiscountValue  decimal.Decimal  `json:"discount_value"`
	MinPurchase    decimal.Decimal  `json:"min_purchase"`
	MaxDiscount    *decimal.Decimal `json:"max_discount,omitempty"`
	ExpirationDate time.Time        `json:"expiration_date"`
	UsageLimit     int              `json:"usage_limit"`
	UsedCount      int              `json:"used_count"`
	Status         CouponStatus     `json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// DiscountFor computes the discount this coupon grants on total.
// Percentage discounts are rounded to cents and capped by MaxDiscount;
// fixed discounts are returned as is, even when they exceed total.
func (c *Coupon) DiscountFor(total decimal.Decimal) decimal.Decimal {
	if c.DiscountType != DiscountPercentage {
		return c.DiscountValue
	}
	d := total.Mul(c.DiscountValue).Div(hundred).Round(2)
	if c.MaxDiscount != nil && d.GreaterThan(*c.MaxDiscount) {
		d = *c.MaxDiscount
	}
	return d
}

// CheckRedeemable runs the apply-time checks in their user-visible order.
func (c *Coupon) CheckRedeemable(now time.Time) error {
	if c.Status != CouponActive {
		return ErrCouponInactive
	}
	if c.UsedCount >= c.UsageLimit {
		return ErrUsageLimitReached
	}
	if now.After(c.ExpirationDate) {
		return ErrCouponExpired
	}
	return nil
}

// Validate checks the invariants an admin-created or edited coupon must hold.
func (c *Coupon) Validate() error {
	switch {
	case strings.TrimSpace(c.Code) == "":
		return InvalidInput("code is required")
	case c.DiscountType != DiscountPercentage && c.DiscountType != DiscountFixed:
		return InvalidInput("discount_type must be percentage or fixed")
	case !c.DiscountValue.IsPositive():
		return InvalidInput("discount_value must be positive")
	case c.DiscountType == DiscountPercentage && c.DiscountValue.GreaterThan(hundred):
		return InvalidInput("percentage discount_value cannot exceed 100")
	case c.MinPurchase.IsNegative():
		return InvalidInput("min_purchase cannot be negative")
	case c.MaxDiscount != nil && c.MaxDiscount.IsNegative():
		return InvalidInput("max_discount cannot be negative")
	case c.ExpirationDate.IsZero():
		return InvalidInput("expiration_date is required")
	case c.UsageLimit <= 0:
		return InvalidInput("usage_limit must be positive")
	case c.UsedCount < 0 || c.UsedCount > c.UsageLimit:
		return InvalidInput("usage_limit cannot be lower than used_count")
	case c.Status != CouponActive && c.Status != CouponExpired:
		return InvalidInput("status must be active or expired")
	}
	return nil
}

// CouponInput is the admin payload for creating a coupon.
type CouponInput struct {
	Code           string           `json:"code"`
	DiscountType   DiscountType     `json:"discount_type"`
	DiscountValue  decimal.Decimal  `json:"discount_value"`
	MinPurchase    *decimal.Decimal `json:"min_purchase,omitempty"`
	MaxDiscount    *decimal.Decimal `json:"max_discount,omitempty"`
	ExpirationDate time.Time        `json:"expiration_date"`
	UsageLimit     *int             `json:"usage_limit,omitempty"`
}

// NewCoupon applies defaults to in. The result is not yet validated.
func NewCoupon(in CouponInput) *Coupon {
	c := &Coupon{
		Code:           strings.TrimSpace(in.Code),
		DiscountType:   in.DiscountType,
		DiscountValue:  in.DiscountValue,
		MinPurchase:    decimal.Zero,
		MaxDiscount:    in.MaxDiscount,
		ExpirationDate: in.ExpirationDate,
		UsageLimit:     DefaultUsageLimit,
		Status:         CouponActive,
	}
	if in.MinPurchase != nil {
		c.MinPurchase = *in.MinPurchase
	}
	if in.UsageLimit != nil {
		c.UsageLimit = *in.UsageLimit
	}
	return c
}

// CouponPatch is a partial admin edit; nil fields are left unchanged.
type CouponPatch struct {
	Code          *string          `json:"code,omitempty"`
	DiscountType  *DiscountType    `json:"discount_type,omitempty"`
	DiscountValue *decimal.Decimal `json:"discount_value,omitempty"`
	MinPurchase   *decimal.Decimal `json:"min_purchase,omitempty"`
	MaxDiscount   *decimal.Decimal `json:"max_discount,omitempty"`
	// ClearMaxDiscount removes the cap. It wins over MaxDiscount.
	ClearMaxDiscount bool          `json:"clear_max_discount,omitempty"`
	ExpirationDate   *time.Time    `json:"expiration_date,omitempty"`
	UsageLimit       *int          `json:"usage_limit,omitempty"`
	Status           *CouponStatus `json:"status,omitempty"`
}

func (p CouponPatch) ApplyTo(c *Coupon) {
	if p.Code != nil {
		c.Code = strings.TrimSpace(*p.Code)
	}
	if p.DiscountType != nil {
		c.DiscountType = *p.DiscountType
	}
	if p.DiscountValue != nil {
		c.DiscountValue = *p.DiscountValue
	}
	if p.MinPurchase != nil {
		c.MinPurchase = *p.MinPurchase
	}
	switch {
	case p.ClearMaxDiscount:
		c.MaxDiscount = nil
	case p.MaxDiscount != nil:
		md := *p.MaxDiscount
		c.MaxDiscount = &md
	}
	if p.ExpirationDate != nil {
		c.ExpirationDate = *p.ExpirationDate
	}
	if p.UsageLimit != nil {
		c.UsageLimit = *p.UsageLimit
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
}
