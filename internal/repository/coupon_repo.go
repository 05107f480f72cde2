package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-faster/errors"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/storefront-service/internal/models"
)

const (
	uniqueViolation = "23505"
	checkViolation  = "23514"
)

const couponColumns = `id, code, discount_type, discount_value, min_purchase, max_discount,
	expiration_date, usage_limit, used_count, status, created_at, updated_at`

type CouponRepo struct {
	db *sql.DB
}

func NewCouponRepo(db *sql.DB) *CouponRepo {
	return &CouponRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCoupon(row rowScanner) (*models.Coupon, error) {
	var (
		c           models.Coupon
		maxDiscount decimal.NullDecimal
	)
	err := row.Scan(
		&c.ID,
		&c.Code,
		&c.DiscountType,
		&c.DiscountValue,
		&c.MinPurchase,
		&maxDiscount,
		&c.ExpirationDate,
		&c.UsageLimit,
		&c.UsedCount,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if maxDiscount.Valid {
		md := maxDiscount.Decimal
		c.MaxDiscount = &md
	}
	return &c, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// checkViolationError maps a CHECK constraint failure to invalid input and
// returns nil for any other error. The usage check can trip when an edit
// lowering usage_limit races a redemption.
func checkViolationError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != checkViolation {
		return nil
	}
	if pqErr.Constraint == "coupons_usage_within_limit" {
		return models.InvalidInput("usage_limit cannot be lower than used_count")
	}
	return models.InvalidInput("coupon violates constraint " + pqErr.Constraint)
}

func (r *CouponRepo) Create(ctx context.Context, c *models.Coupon) error {
	query := `
		INSERT INTO coupons
		(id, code, discount_type, discount_value, min_purchase, max_discount,
		 expiration_date, usage_limit, used_count, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.Code,
		c.DiscountType,
		c.DiscountValue,
		c.MinPurchase,
		nullDecimal(c.MaxDiscount),
		c.ExpirationDate,
		c.UsageLimit,
		c.UsedCount,
		c.Status,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateCoupon
		}
		if ierr := checkViolationError(err); ierr != nil {
			return ierr
		}
		return errors.Wrap(err, "insert coupon")
	}
	return nil
}

func (r *CouponRepo) Get(ctx context.Context, id string) (*models.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`
	c, err := scanCoupon(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrCouponNotFound
		}
		return nil, errors.Wrap(err, "get coupon")
	}
	return c, nil
}

// GetByCode matches code exactly, case-sensitive.
func (r *CouponRepo) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`
	c, err := scanCoupon(r.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrCouponNotFound
		}
		return nil, errors.Wrap(err, "get coupon by code")
	}
	return c, nil
}

func (r *CouponRepo) List(ctx context.Context) ([]models.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "list coupons")
	}
	defer rows.Close()

	coupons := []models.Coupon{}
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan coupon")
		}
		coupons = append(coupons, *c)
	}
	return coupons, rows.Err()
}

func (r *CouponRepo) Update(ctx context.Context, c *models.Coupon) error {
	query := `
		UPDATE coupons
		SET code = $2, discount_type = $3, discount_value = $4, min_purchase = $5,
		    max_discount = $6, expiration_date = $7, usage_limit = $8, status = $9,
		    updated_at = $10
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.Code,
		c.DiscountType,
		c.DiscountValue,
		c.MinPurchase,
		nullDecimal(c.MaxDiscount),
		c.ExpirationDate,
		c.UsageLimit,
		c.Status,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateCoupon
		}
		if ierr := checkViolationError(err); ierr != nil {
			return ierr
		}
		return errors.Wrap(err, "update coupon")
	}
	return expectOne(res, models.ErrCouponNotFound)
}

func (r *CouponRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete coupon")
	}
	return expectOne(res, models.ErrCouponNotFound)
}

// Redeem consumes one usage in a single conditional update, so concurrent
// redemptions can never push used_count past usage_limit.
func (r *CouponRepo) Redeem(ctx context.Context, id string, now time.Time) (*models.Coupon, error) {
	query := `
		UPDATE coupons
		SET used_count = used_count + 1, updated_at = $2
		WHERE id = $1
		  AND status = 'active'
		  AND used_count < usage_limit
		  AND expiration_date >= $2
		RETURNING ` + couponColumns
	c, err := scanCoupon(r.db.QueryRowContext(ctx, query, id, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrRedeemConflict
		}
		return nil, errors.Wrap(err, "redeem coupon")
	}
	return c, nil
}

// ExpireStale flips every active coupon past its expiration date to expired.
func (r *CouponRepo) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE coupons
		SET status = 'expired', updated_at = $1
		WHERE status = 'active' AND expiration_date < $1
	`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, errors.Wrap(err, "expire coupons")
	}
	return res.RowsAffected()
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return notFound
	}
	return nil
}
