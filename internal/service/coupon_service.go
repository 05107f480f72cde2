package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/storefront-service/internal/models"
)

// CouponRepo is the persistence the coupon engine needs. Implementations
// return models.ErrCouponNotFound for unknown ids/codes and
// models.ErrRedeemConflict when Redeem's conditional update matches nothing.
type CouponRepo interface {
	Create(ctx context.Context, c *models.Coupon) error
	Get(ctx context.Context, id string) (*models.Coupon, error)
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	List(ctx context.Context) ([]models.Coupon, error)
	Update(ctx context.Context, c *models.Coupon) error
	Delete(ctx context.Context, id string) error
	Redeem(ctx context.Context, id string, now time.Time) (*models.Coupon, error)
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

type CouponOptions struct {
	// EnforceMinPurchase rejects totals below the coupon's min_purchase.
	EnforceMinPurchase bool
	Now                func() time.Time
}

type CouponService struct {
	repo               CouponRepo
	enforceMinPurchase bool
	now                func() time.Time
}

func NewCouponService(repo CouponRepo, opts CouponOptions) *CouponService {
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &CouponService{
		repo:               repo,
		enforceMinPurchase: opts.EnforceMinPurchase,
		now:                now,
	}
}

// Apply validates code against total and, if redeemable, consumes one usage.
// Checks run in a fixed order because each yields a distinct message:
// not found, inactive, usage limit, expired, then the optional minimum.
func (s *CouponService) Apply(ctx context.Context, code string, total decimal.Decimal) (models.ApplyResult, error) {
	if total.IsNegative() {
		return models.ApplyResult{}, models.InvalidInput("total cannot be negative")
	}

	c, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return models.ApplyResult{}, err
	}

	now := s.now()
	if err := s.check(c, total, now); err != nil {
		return models.ApplyResult{}, err
	}

	redeemed, err := s.repo.Redeem(ctx, c.ID, now)
	if errors.Is(err, models.ErrRedeemConflict) {
		// Someone else changed the coupon between lookup and redemption.
		fresh, ferr := s.repo.Get(ctx, c.ID)
		if ferr != nil {
			return models.ApplyResult{}, ferr
		}
		if cerr := s.check(fresh, total, now); cerr != nil {
			return models.ApplyResult{}, cerr
		}
		return models.ApplyResult{}, models.ErrUsageLimitReached
	}
	if err != nil {
		return models.ApplyResult{}, errors.Wrap(err, "redeem coupon")
	}

	// Use the row as redeemed so a concurrent admin edit is reflected.
	discount := redeemed.DiscountFor(total)
	discounted := total.Sub(discount)
	if discounted.IsNegative() {
		discounted = decimal.Zero
	}

	slog.Info("coupon applied",
		"code", c.Code,
		"total", total.String(),
		"discount", discount.String(),
		"used_count", redeemed.UsedCount,
		"usage_limit", redeemed.UsageLimit,
	)

	return models.ApplyResult{
		Code:            c.Code,
		Discount:        discount,
		DiscountedTotal: discounted,
		UsedCount:       redeemed.UsedCount,
	}, nil
}

// Quote returns the discount code grants on total without consuming a usage.
// Checkout uses it to bound the discount reserved by an earlier Apply; that
// Apply already consumed the usage, so no redeemability checks run here.
func (s *CouponService) Quote(ctx context.Context, code string, total decimal.Decimal) (decimal.Decimal, error) {
	c, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return decimal.Zero, err
	}
	return c.DiscountFor(total), nil
}

func (s *CouponService) check(c *models.Coupon, total decimal.Decimal, now time.Time) error {
	if err := c.CheckRedeemable(now); err != nil {
		return err
	}
	if s.enforceMinPurchase && total.LessThan(c.MinPurchase) {
		return models.ErrMinPurchaseNotMet
	}
	return nil
}

func (s *CouponService) Create(ctx context.Context, in models.CouponInput) (*models.Coupon, error) {
	c := models.NewCoupon(in)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	now := s.now()
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	slog.Info("coupon created", "id", c.ID, "code", c.Code)
	return c, nil
}

func (s *CouponService) Get(ctx context.Context, id string) (*models.Coupon, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrCouponNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *CouponService) List(ctx context.Context) ([]models.Coupon, error) {
	return s.repo.List(ctx)
}

func (s *CouponService) Update(ctx context.Context, id string, patch models.CouponPatch) (*models.Coupon, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.ApplyTo(c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CouponService) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return models.ErrCouponNotFound
	}
	return s.repo.Delete(ctx, id)
}

// ExpireStale is the scheduled sweep. It is idempotent; overlapping runs only
// repeat no-op writes.
func (s *CouponService) ExpireStale(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireStale(ctx, s.now())
	if err != nil {
		return 0, errors.Wrap(err, "expire stale coupons")
	}
	slog.Info("coupons expired", "count", n)
	return n, nil
}
