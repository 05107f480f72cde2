package models

import (
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestCoupon_DiscountFor(t *testing.T) {
	tests := []struct {
		name   string
		coupon Coupon
		total  string
		want   string
	}{
		{"percentage capped", Coupon{DiscountType: DiscountPercentage, DiscountValue: dec("10"), MaxDiscount: decPtr("50")}, "1000", "50"},
		{"percentage under cap", Coupon{DiscountType: DiscountPercentage, DiscountValue: dec("10"), MaxDiscount: decPtr("50")}, "300", "30"},
		{"percentage uncapped", Coupon{DiscountType: DiscountPercentage, DiscountValue: dec("15")}, "1000", "150"},
		{"percentage rounds to cents", Coupon{DiscountType: DiscountPercentage, DiscountValue: dec("12.5")}, "99.99", "12.5"},
		{"fixed", Coupon{DiscountType: DiscountFixed, DiscountValue: dec("75")}, "500", "75"},
		{"fixed larger than total", Coupon{DiscountType: DiscountFixed, DiscountValue: dec("75")}, "20", "75"},
		{"fixed ignores cap", Coupon{DiscountType: DiscountFixed, DiscountValue: dec("75"), MaxDiscount: decPtr("10")}, "500", "75"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.coupon.DiscountFor(dec(tt.total))
			if !got.Equal(dec(tt.want)) {
				t.Errorf("Expected discount %s, got %s", tt.want, got)
			}
		})
	}
}

func TestCoupon_CheckRedeemable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name   string
		coupon Coupon
		want   error
	}{
		{"redeemable", Coupon{Status: CouponActive, UsageLimit: 2, UsedCount: 1, ExpirationDate: future}, nil},
		{"expires exactly now", Coupon{Status: CouponActive, UsageLimit: 2, ExpirationDate: now}, nil},
		{"inactive wins over everything", Coupon{Status: CouponExpired, UsageLimit: 1, UsedCount: 1, ExpirationDate: past}, ErrCouponInactive},
		{"limit before expiry", Coupon{Status: CouponActive, UsageLimit: 1, UsedCount: 1, ExpirationDate: past}, ErrUsageLimitReached},
		{"expired but still active", Coupon{Status: CouponActive, UsageLimit: 5, ExpirationDate: past}, ErrCouponExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coupon.CheckRedeemable(now)
			if !errors.Is(err, tt.want) || (tt.want == nil && err != nil) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func validCoupon() *Coupon {
	return NewCoupon(CouponInput{
		Code:           "SAVE10",
		DiscountType:   DiscountPercentage,
		DiscountValue:  dec("10"),
		ExpirationDate: time.Now().Add(time.Hour),
	})
}

func TestNewCoupon_Defaults(t *testing.T) {
	c := validCoupon()
	if c.UsageLimit != DefaultUsageLimit {
		t.Errorf("Expected usage limit %d, got %d", DefaultUsageLimit, c.UsageLimit)
	}
	if !c.MinPurchase.IsZero() {
		t.Errorf("Expected zero min purchase, got %s", c.MinPurchase)
	}
	if c.Status != CouponActive || c.UsedCount != 0 {
		t.Errorf("Expected active coupon with no usage, got %s/%d", c.Status, c.UsedCount)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Expected valid coupon, got: %v", err)
	}
}

func TestCoupon_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Coupon)
	}{
		{"empty code", func(c *Coupon) { c.Code = " " }},
		{"unknown type", func(c *Coupon) { c.DiscountType = "bogo" }},
		{"zero value", func(c *Coupon) { c.DiscountValue = decimal.Zero }},
		{"percentage over 100", func(c *Coupon) { c.DiscountValue = dec("101") }},
		{"negative min purchase", func(c *Coupon) { c.MinPurchase = dec("-1") }},
		{"negative cap", func(c *Coupon) { c.MaxDiscount = decPtr("-5") }},
		{"missing expiry", func(c *Coupon) { c.ExpirationDate = time.Time{} }},
		{"zero limit", func(c *Coupon) { c.UsageLimit = 0 }},
		{"limit below used", func(c *Coupon) { c.UsageLimit = 3; c.UsedCount = 4 }},
		{"unknown status", func(c *Coupon) { c.Status = "paused" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCoupon()
			tt.mutate(c)
			err := c.Validate()
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Expected invalid input, got %v", err)
			}
		})
	}
}

func TestCouponPatch_ApplyTo(t *testing.T) {
	c := validCoupon()
	c.UsedCount = 7
	code := "  SUMMER  "
	limit := 50
	status := CouponExpired

	CouponPatch{Code: &code, UsageLimit: &limit, Status: &status, MaxDiscount: decPtr("20")}.ApplyTo(c)

	if c.Code != "SUMMER" {
		t.Errorf("Expected trimmed code SUMMER, got %q", c.Code)
	}
	if c.UsageLimit != 50 || c.Status != CouponExpired {
		t.Errorf("Expected limit 50 and expired, got %d/%s", c.UsageLimit, c.Status)
	}
	if c.MaxDiscount == nil || !c.MaxDiscount.Equal(dec("20")) {
		t.Errorf("Expected max discount 20, got %v", c.MaxDiscount)
	}
	if c.UsedCount != 7 || c.DiscountType != DiscountPercentage {
		t.Error("Expected untouched fields to keep their values")
	}
}

func TestCouponPatch_ClearMaxDiscount(t *testing.T) {
	c := validCoupon()
	c.MaxDiscount = decPtr("50")

	CouponPatch{ClearMaxDiscount: true, MaxDiscount: decPtr("10")}.ApplyTo(c)
	if c.MaxDiscount != nil {
		t.Errorf("Expected cap removed, got %v", c.MaxDiscount)
	}
	if got := c.DiscountFor(dec("1000")); !got.Equal(dec("100")) {
		t.Errorf("Expected uncapped discount 100, got %s", got)
	}
}
