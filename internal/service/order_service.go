package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/storefront-service/internal/models"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// OrderRepo persists orders. AppendStatus must call check with the current
// status and write the new status plus its history entry atomically.
type OrderRepo interface {
	Create(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, f models.OrderFilter) ([]models.Order, int, error)
	AppendStatus(ctx context.Context, id string, entry models.StatusEntry, check func(current models.OrderStatus) error) (*models.Order, error)
	Delete(ctx context.Context, id string) error
}

// StatusPublisher receives every order whose status changed.
type StatusPublisher interface {
	Publish(o *models.Order)
}

// CouponQuoter prices a coupon against a sub total without redeeming it.
type CouponQuoter interface {
	Quote(ctx context.Context, code string, total decimal.Decimal) (decimal.Decimal, error)
}

type OrderOptions struct {
	// Coupons bounds the discount an order may claim. Without it only
	// undiscounted orders are accepted.
	Coupons CouponQuoter

	// StrictTransitions enforces the lifecycle table instead of allowing any
	// status to follow any other.
	StrictTransitions bool
	Publisher         StatusPublisher
	Now               func() time.Time
}

type OrderService struct {
	repo      OrderRepo
	coupons   CouponQuoter
	strict    bool
	publisher StatusPublisher
	now       func() time.Time
}

func NewOrderService(repo OrderRepo, opts OrderOptions) *OrderService {
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &OrderService{
		repo:      repo,
		coupons:   opts.Coupons,
		strict:    opts.StrictTransitions,
		publisher: opts.Publisher,
		now:       now,
	}
}

func newOrderID(now time.Time) string {
	short := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), short)
}

// Create places an order. deliveryCharge is passed in by the caller so the
// totals depend only on the arguments.
func (s *OrderService) Create(ctx context.Context, in models.OrderInput, deliveryCharge decimal.Decimal) (*models.Order, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if deliveryCharge.IsNegative() {
		return nil, models.InvalidInput("delivery charge cannot be negative")
	}

	subTotal := models.SubTotal(in.Products)
	code := strings.TrimSpace(in.CouponCode)
	if err := s.checkDiscount(ctx, code, in.Discount, subTotal); err != nil {
		return nil, err
	}
	total := subTotal.Sub(in.Discount).Add(deliveryCharge)
	if total.IsNegative() {
		return nil, models.InvalidInput("order total cannot be negative")
	}

	now := s.now()
	o := &models.Order{
		ID:              uuid.NewString(),
		OrderID:         newOrderID(now),
		Products:        append([]models.LineItem(nil), in.Products...),
		SubTotal:        subTotal,
		Discount:        in.Discount,
		DeliveryCharge:  deliveryCharge,
		Total:           total,
		CouponCode:      code,
		OrderStatus:     models.StatusPlaced,
		StatusHistory:   []models.StatusEntry{{Status: models.StatusPlaced, ChangedAt: now}},
		DeliveryAddress: in.DeliveryAddress,
		PaymentMethod:   strings.TrimSpace(in.PaymentMethod),
		PaymentDetails:  in.PaymentDetails,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	slog.Info("order placed", "id", o.ID, "order_id", o.OrderID, "total", o.Total.String())
	return o, nil
}

// checkDiscount accepts a discount only when it is backed by an existing
// coupon and does not exceed what that coupon grants on subTotal.
func (s *OrderService) checkDiscount(ctx context.Context, code string, discount, subTotal decimal.Decimal) error {
	if code == "" {
		if discount.IsPositive() {
			return models.InvalidInput("discount requires a coupon_code")
		}
		return nil
	}
	if s.coupons == nil {
		return models.InvalidInput("coupons are not accepted")
	}
	allowed, err := s.coupons.Quote(ctx, code, subTotal)
	if errors.Is(err, models.ErrCouponNotFound) {
		return models.InvalidInput("unknown coupon_code")
	}
	if err != nil {
		return errors.Wrap(err, "quote coupon")
	}
	// Apply floors the discounted total at zero, so the usable discount never
	// exceeds the sub total.
	allowed = decimal.Min(allowed, subTotal)
	if discount.GreaterThan(allowed) {
		return models.InvalidInput(fmt.Sprintf("discount exceeds the %s allowed by coupon %s", allowed.StringFixed(2), code))
	}
	return nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrOrderNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *OrderService) List(ctx context.Context, f models.OrderFilter) (models.OrderPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageLimit
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}
	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return models.OrderPage{}, err
	}
	return models.OrderPage{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// UpdateStatus sets the order's status and appends it to the history.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (*models.Order, error) {
	next, err := models.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrOrderNotFound
	}

	check := func(models.OrderStatus) error { return nil }
	if s.strict {
		check = func(current models.OrderStatus) error {
			if !models.CanTransition(current, next) {
				return models.ErrInvalidTransition
			}
			return nil
		}
	}

	entry := models.StatusEntry{Status: next, ChangedAt: s.now()}
	o, err := s.repo.AppendStatus(ctx, id, entry, check)
	if err != nil {
		return nil, err
	}

	slog.Info("order status updated", "id", o.ID, "order_id", o.OrderID, "status", o.OrderStatus, "history_len", len(o.StatusHistory))
	if s.publisher != nil {
		s.publisher.Publish(o)
	}
	return o, nil
}

func (s *OrderService) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return models.ErrOrderNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("order deleted", "id", id)
	return nil
}
