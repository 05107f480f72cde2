package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/storefront-service/internal/cache"
	"github.com/Cheertaboi/storefront-service/internal/models"
)

const deliveryChargeKey = "delivery_charge"

type SettingsRepo interface {
	DeliveryCharge(ctx context.Context) (decimal.Decimal, bool, error)
	SetDeliveryCharge(ctx context.Context, charge decimal.Decimal) error
}

// SettingsService serves site-wide settings through a short-lived cache.
type SettingsService struct {
	repo                  SettingsRepo
	defaultDeliveryCharge decimal.Decimal
	cache                 *cache.TTLCache[string, decimal.Decimal]
}

func NewSettingsService(repo SettingsRepo, defaultDeliveryCharge decimal.Decimal, ttl time.Duration) *SettingsService {
	return &SettingsService{
		repo:                  repo,
		defaultDeliveryCharge: defaultDeliveryCharge,
		cache:                 cache.NewTTLCache[string, decimal.Decimal](ttl),
	}
}

// DeliveryCharge returns the stored charge, or the configured default when
// none has been set.
func (s *SettingsService) DeliveryCharge(ctx context.Context) (decimal.Decimal, error) {
	if v, ok := s.cache.Get(deliveryChargeKey); ok {
		return v, nil
	}
	v, ok, err := s.repo.DeliveryCharge(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		v = s.defaultDeliveryCharge
	}
	s.cache.Set(deliveryChargeKey, v)
	return v, nil
}

func (s *SettingsService) SetDeliveryCharge(ctx context.Context, charge decimal.Decimal) error {
	if charge.IsNegative() {
		return models.InvalidInput("delivery_charge cannot be negative")
	}
	if err := s.repo.SetDeliveryCharge(ctx, charge); err != nil {
		return err
	}
	s.cache.Delete(deliveryChargeKey)
	slog.Info("delivery charge updated", "delivery_charge", charge.String())
	return nil
}
