package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/storefront-service/internal/models"
)

// The memory stores back STORE_DRIVER=memory and the test suites. They keep
// the same semantics as the Postgres repos, including the conditional
// redemption and the locked status append.

type MemoryCouponStore struct {
	mu      sync.RWMutex
	byID    map[string]*models.Coupon
	idByKey map[string]string
}

func NewMemoryCouponStore() *MemoryCouponStore {
	return &MemoryCouponStore{
		byID:    make(map[string]*models.Coupon),
		idByKey: make(map[string]string),
	}
}

func (s *MemoryCouponStore) Create(_ context.Context, c *models.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.idByKey[c.Code]; ok {
		return models.ErrDuplicateCoupon
	}
	cp := *c
	s.byID[c.ID] = &cp
	s.idByKey[c.Code] = c.ID
	return nil
}

func (s *MemoryCouponStore) Get(_ context.Context, id string) (*models.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, models.ErrCouponNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryCouponStore) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	s.mu.RLock()
	id, ok := s.idByKey[code]
	s.mu.RUnlock()
	if !ok {
		return nil, models.ErrCouponNotFound
	}
	return s.Get(ctx, id)
}

func (s *MemoryCouponStore) List(_ context.Context) ([]models.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	coupons := make([]models.Coupon, 0, len(s.byID))
	for _, c := range s.byID {
		coupons = append(coupons, *c)
	}
	sort.Slice(coupons, func(i, j int) bool {
		if coupons[i].CreatedAt.Equal(coupons[j].CreatedAt) {
			return coupons[i].ID < coupons[j].ID
		}
		return coupons[i].CreatedAt.After(coupons[j].CreatedAt)
	})
	return coupons, nil
}

func (s *MemoryCouponStore) Update(_ context.Context, c *models.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.byID[c.ID]
	if !ok {
		return models.ErrCouponNotFound
	}
	if owner, taken := s.idByKey[c.Code]; taken && owner != c.ID {
		return models.ErrDuplicateCoupon
	}
	delete(s.idByKey, old.Code)
	cp := *c
	// used_count belongs to redemptions, not admin edits.
	cp.UsedCount = old.UsedCount
	s.byID[c.ID] = &cp
	s.idByKey[c.Code] = c.ID
	return nil
}

func (s *MemoryCouponStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return models.ErrCouponNotFound
	}
	delete(s.idByKey, c.Code)
	delete(s.byID, id)
	return nil
}

func (s *MemoryCouponStore) Redeem(_ context.Context, id string, now time.Time) (*models.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, models.ErrRedeemConflict
	}
	if c.CheckRedeemable(now) != nil {
		return nil, models.ErrRedeemConflict
	}
	c.UsedCount++
	c.UpdatedAt = now
	cp := *c
	return &cp, nil
}

func (s *MemoryCouponStore) ExpireStale(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, c := range s.byID {
		if c.Status == models.CouponActive && c.ExpirationDate.Before(now) {
			c.Status = models.CouponExpired
			c.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

type MemoryOrderStore struct {
	mu     sync.RWMutex
	orders map[string]*models.Order
}

func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{orders: make(map[string]*models.Order)}
}

func cloneOrder(o *models.Order) *models.Order {
	cp := *o
	cp.Products = append([]models.LineItem(nil), o.Products...)
	cp.StatusHistory = append([]models.StatusEntry(nil), o.StatusHistory...)
	return &cp
}

func (s *MemoryOrderStore) Create(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = cloneOrder(o)
	return nil
}

func (s *MemoryOrderStore) Get(_ context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (s *MemoryOrderStore) List(_ context.Context, f models.OrderFilter) ([]models.Order, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if f.Status != "" && o.OrderStatus != f.Status {
			continue
		}
		matched = append(matched, o)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	start := (f.Page - 1) * f.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	page := make([]models.Order, 0, end-start)
	for _, o := range matched[start:end] {
		page = append(page, *cloneOrder(o))
	}
	return page, len(matched), nil
}

func (s *MemoryOrderStore) AppendStatus(_ context.Context, id string, entry models.StatusEntry, check func(current models.OrderStatus) error) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	if err := check(o.OrderStatus); err != nil {
		return nil, err
	}
	o.OrderStatus = entry.Status
	o.StatusHistory = append(o.StatusHistory, entry)
	o.UpdatedAt = entry.ChangedAt
	return cloneOrder(o), nil
}

func (s *MemoryOrderStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return models.ErrOrderNotFound
	}
	delete(s.orders, id)
	return nil
}

type MemorySettingsStore struct {
	mu     sync.RWMutex
	charge *decimal.Decimal
}

func NewMemorySettingsStore() *MemorySettingsStore {
	return &MemorySettingsStore{}
}

func (s *MemorySettingsStore) DeliveryCharge(_ context.Context) (decimal.Decimal, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.charge == nil {
		return decimal.Zero, false, nil
	}
	return *s.charge, true, nil
}

func (s *MemorySettingsStore) SetDeliveryCharge(_ context.Context, charge decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.charge = &charge
	return nil
}
