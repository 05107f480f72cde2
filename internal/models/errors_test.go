package models

import (
	"testing"

	"github.com/go-faster/errors"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
		code string
		msg  string
	}{
		{"sentinel", ErrCouponNotFound, KindNotFound, "coupon_not_found", "coupon not found"},
		{"wrapped sentinel", errors.Wrap(ErrCouponExpired, "apply"), KindValidation, "coupon_expired", "coupon has expired"},
		{"input error", InvalidInput("total cannot be negative"), KindValidation, "invalid_input", "total cannot be negative"},
		{"conflict", ErrDuplicateCoupon, KindConflict, "duplicate_coupon", "coupon code already exists"},
		{"unknown", errors.New("connection reset"), KindPersistence, "internal_error", "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.kind {
				t.Errorf("Expected kind %s, got %s", tt.kind, got)
			}
			if got := CodeOf(tt.err); got != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, got)
			}
			if got := MessageOf(tt.err); got != tt.msg {
				t.Errorf("Expected message %q, got %q", tt.msg, got)
			}
		})
	}
}
