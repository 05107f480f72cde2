package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

const deliveryChargeKey = "delivery_charge"

// SettingsRepo stores site-wide key/value settings.
type SettingsRepo struct {
	db *sql.DB
}

func NewSettingsRepo(db *sql.DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// DeliveryCharge returns the stored charge; ok is false when it was never set.
func (r *SettingsRepo) DeliveryCharge(ctx context.Context) (decimal.Decimal, bool, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = $1`, deliveryChargeKey).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, errors.Wrap(err, "get delivery charge")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, errors.Wrapf(err, "parse delivery charge %q", raw)
	}
	return d, true, nil
}

func (r *SettingsRepo) SetDeliveryCharge(ctx context.Context, charge decimal.Decimal) error {
	query := `
		INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, deliveryChargeKey, charge.String(), time.Now().UTC()); err != nil {
		return errors.Wrap(err, "set delivery charge")
	}
	return nil
}
