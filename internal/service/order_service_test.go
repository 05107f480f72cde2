package service

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"

	"github.com/Cheertaboi/storefront-service/internal/models"
	"github.com/Cheertaboi/storefront-service/internal/repository"
)

type recordingPublisher struct {
	mu     sync.Mutex
	orders []*models.Order
}

func (p *recordingPublisher) Publish(o *models.Order) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders = append(p.orders, o)
}

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

// newTestOrderService backs checkout with a coupon service holding SAVE10
// (10%, capped at 50).
func newTestOrderService(t *testing.T, strict bool) (*OrderService, *recordingPublisher) {
	t.Helper()
	coupons, _ := newTestCouponService(t, CouponOptions{})
	createSave10(t, coupons)

	pub := &recordingPublisher{}
	clock := &stepClock{now: testNow}
	svc := NewOrderService(repository.NewMemoryOrderStore(), OrderOptions{
		Coupons:           coupons,
		StrictTransitions: strict,
		Publisher:         pub,
		Now:               clock.Now,
	})
	return svc, pub
}

func sampleOrderInput() models.OrderInput {
	return models.OrderInput{
		Products: []models.LineItem{
			{ProductID: "med-1", NetQuantity: "10 tablets", Quantity: 2, Price: dec("150")},
			{ProductID: "med-2", NetQuantity: "100 ml", Quantity: 1, Price: dec("200")},
		},
		Discount:   dec("50"),
		CouponCode: "SAVE10",
		DeliveryAddress: models.Address{
			Name: "Asha", Phone: "9999999999", AddressLine1: "12 Main St", City: "Pune", PostalCode: "411001",
		},
		PaymentMethod: "cod",
	}
}

func TestOrderService_Create(t *testing.T) {
	svc, _ := newTestOrderService(t, false)

	o, err := svc.Create(context.Background(), sampleOrderInput(), dec("40"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !o.SubTotal.Equal(dec("500")) {
		t.Errorf("Expected sub total 500, got %s", o.SubTotal)
	}
	if !o.Total.Equal(dec("490")) {
		t.Errorf("Expected total 490, got %s", o.Total)
	}
	if o.OrderStatus != models.StatusPlaced {
		t.Errorf("Expected status %q, got %q", models.StatusPlaced, o.OrderStatus)
	}
	if len(o.StatusHistory) != 1 || o.StatusHistory[0].Status != models.StatusPlaced {
		t.Errorf("Expected one Order Placed history entry, got %+v", o.StatusHistory)
	}
	if !regexp.MustCompile(`^ORD-\d{8}-[0-9A-F]{8}$`).MatchString(o.OrderID) {
		t.Errorf("Expected ORD-YYYYMMDD-XXXXXXXX order id, got %q", o.OrderID)
	}
}

func TestOrderService_Create_Invalid(t *testing.T) {
	svc, _ := newTestOrderService(t, false)

	in := sampleOrderInput()
	in.Products = nil
	if _, err := svc.Create(context.Background(), in, dec("40")); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("Expected invalid input for empty cart, got %v", err)
	}
	if _, err := svc.Create(context.Background(), sampleOrderInput(), dec("-1")); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("Expected invalid input for negative delivery charge, got %v", err)
	}
}

func TestOrderService_UpdateStatus_AppendsHistory(t *testing.T) {
	svc, pub := newTestOrderService(t, false)
	ctx := context.Background()

	o, err := svc.Create(ctx, sampleOrderInput(), dec("40"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	first := o.StatusHistory[0]

	updated, err := svc.UpdateStatus(ctx, o.ID, "Dispatched")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if updated.OrderStatus != models.StatusDispatched {
		t.Errorf("Expected status Dispatched, got %q", updated.OrderStatus)
	}
	if len(updated.StatusHistory) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(updated.StatusHistory))
	}
	if updated.StatusHistory[0] != first {
		t.Errorf("Expected first entry untouched, got %+v", updated.StatusHistory[0])
	}
	last := updated.StatusHistory[1]
	if last.Status != models.StatusDispatched || !last.ChangedAt.After(first.ChangedAt) {
		t.Errorf("Expected a later Dispatched entry, got %+v", last)
	}
	if len(pub.orders) != 1 || pub.orders[0].OrderStatus != models.StatusDispatched {
		t.Errorf("Expected one published Dispatched order, got %d", len(pub.orders))
	}
}

func TestOrderService_UpdateStatus_Permissive(t *testing.T) {
	svc, _ := newTestOrderService(t, false)
	ctx := context.Background()
	o, _ := svc.Create(ctx, sampleOrderInput(), dec("40"))

	statuses := []string{"Order Delivered", "Order Placed", "Returned", "Returned"}
	for i, st := range statuses {
		updated, err := svc.UpdateStatus(ctx, o.ID, st)
		if err != nil {
			t.Fatalf("Expected %q to be accepted, got: %v", st, err)
		}
		if len(updated.StatusHistory) != i+2 {
			t.Errorf("Expected history length %d, got %d", i+2, len(updated.StatusHistory))
		}
		if updated.StatusHistory[len(updated.StatusHistory)-1].Status != updated.OrderStatus {
			t.Error("Expected last history entry to match order status")
		}
	}
}

func TestOrderService_UpdateStatus_Strict(t *testing.T) {
	svc, pub := newTestOrderService(t, true)
	ctx := context.Background()
	o, _ := svc.Create(ctx, sampleOrderInput(), dec("40"))

	if _, err := svc.UpdateStatus(ctx, o.ID, "Dispatched"); !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("Expected invalid transition, got %v", err)
	}
	got, _ := svc.Get(ctx, o.ID)
	if len(got.StatusHistory) != 1 {
		t.Errorf("Expected rejected transition to leave history alone, got %d entries", len(got.StatusHistory))
	}
	if len(pub.orders) != 0 {
		t.Errorf("Expected nothing published, got %d", len(pub.orders))
	}

	for _, st := range []string{"Order Confirmed", "Order Processing", "Dispatched"} {
		if _, err := svc.UpdateStatus(ctx, o.ID, st); err != nil {
			t.Fatalf("Expected %q to be allowed, got: %v", st, err)
		}
	}
}

func TestOrderService_UpdateStatus_Errors(t *testing.T) {
	svc, _ := newTestOrderService(t, false)
	ctx := context.Background()
	o, _ := svc.Create(ctx, sampleOrderInput(), dec("40"))

	if _, err := svc.UpdateStatus(ctx, o.ID, "Shipped"); !errors.Is(err, models.ErrInvalidStatus) {
		t.Errorf("Expected invalid status, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, "00000000-0000-0000-0000-000000000000", "Dispatched"); !errors.Is(err, models.ErrOrderNotFound) {
		t.Errorf("Expected order not found, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, "bad-id", "Dispatched"); !errors.Is(err, models.ErrOrderNotFound) {
		t.Errorf("Expected order not found for malformed id, got %v", err)
	}
}

func TestOrderService_ListAndDelete(t *testing.T) {
	svc, _ := newTestOrderService(t, false)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		o, err := svc.Create(ctx, sampleOrderInput(), dec("40"))
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		ids = append(ids, o.ID)
	}
	if _, err := svc.UpdateStatus(ctx, ids[0], "Order Cancelled"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	page, err := svc.List(ctx, models.OrderFilter{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if page.Total != 5 || len(page.Items) != 2 {
		t.Errorf("Expected 2 of 5 orders, got %d of %d", len(page.Items), page.Total)
	}
	if page.Items[0].ID != ids[4] {
		t.Error("Expected newest order first")
	}

	page, _ = svc.List(ctx, models.OrderFilter{Page: 3, Limit: 2})
	if len(page.Items) != 1 {
		t.Errorf("Expected 1 order on last page, got %d", len(page.Items))
	}

	page, _ = svc.List(ctx, models.OrderFilter{Status: models.StatusCancelled})
	if page.Total != 1 || page.Items[0].ID != ids[0] {
		t.Errorf("Expected only the cancelled order, got %d", page.Total)
	}
	if page.Limit != defaultPageLimit || page.Page != 1 {
		t.Errorf("Expected default paging, got page %d limit %d", page.Page, page.Limit)
	}

	if err := svc.Delete(ctx, ids[1]); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := svc.Get(ctx, ids[1]); !errors.Is(err, models.ErrOrderNotFound) {
		t.Errorf("Expected deleted order to be gone, got %v", err)
	}
}

func TestOrderService_Create_DiscountMustBeBackedByCoupon(t *testing.T) {
	svc, _ := newTestOrderService(t, false)
	ctx := context.Background()

	tests := []struct {
		name     string
		code     string
		discount string
	}{
		{"discount without coupon", "", "50"},
		{"unknown coupon", "NO-SUCH-CODE", "10"},
		{"discount above coupon cap", "SAVE10", "50.01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleOrderInput()
			in.CouponCode = tt.code
			in.Discount = dec(tt.discount)
			if _, err := svc.Create(ctx, in, dec("40")); !errors.Is(err, models.ErrInvalidInput) {
				t.Errorf("Expected invalid input, got %v", err)
			}
		})
	}

	in := sampleOrderInput()
	in.CouponCode = ""
	in.Discount = dec("0")
	o, err := svc.Create(ctx, in, dec("40"))
	if err != nil {
		t.Fatalf("Expected undiscounted order to pass, got: %v", err)
	}
	if !o.Total.Equal(dec("540")) {
		t.Errorf("Expected total 540, got %s", o.Total)
	}

	page, _ := svc.List(ctx, models.OrderFilter{})
	if page.Total != 1 {
		t.Errorf("Expected only the valid order stored, got %d", page.Total)
	}
}

func TestOrderService_Create_DiscountNeverExceedsSubTotal(t *testing.T) {
	coupons, _ := newTestCouponService(t, CouponOptions{})
	if _, err := coupons.Create(context.Background(), models.CouponInput{
		Code:           "FLAT5000",
		DiscountType:   models.DiscountFixed,
		DiscountValue:  dec("5000"),
		ExpirationDate: testNow.Add(time.Hour),
	}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	svc := NewOrderService(repository.NewMemoryOrderStore(), OrderOptions{Coupons: coupons})

	in := models.OrderInput{
		Products:      []models.LineItem{{ProductID: "med-1", Quantity: 1, Price: dec("100")}},
		Discount:      dec("5000"),
		CouponCode:    "FLAT5000",
		PaymentMethod: "cod",
	}
	if _, err := svc.Create(context.Background(), in, dec("40")); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("Expected invalid input for discount above sub total, got %v", err)
	}

	in.Discount = dec("100")
	o, err := svc.Create(context.Background(), in, dec("40"))
	if err != nil {
		t.Fatalf("Expected discount equal to sub total to pass, got: %v", err)
	}
	if !o.Total.Equal(dec("40")) {
		t.Errorf("Expected total 40, got %s", o.Total)
	}
}

func TestOrderService_Create_NoQuoterRejectsCoupons(t *testing.T) {
	svc := NewOrderService(repository.NewMemoryOrderStore(), OrderOptions{})
	if _, err := svc.Create(context.Background(), sampleOrderInput(), dec("40")); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("Expected invalid input without a coupon quoter, got %v", err)
	}
}
