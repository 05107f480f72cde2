package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Cheertaboi/storefront-service/internal/api/handlers"
	"github.com/Cheertaboi/storefront-service/internal/api/middleware"
	"github.com/Cheertaboi/storefront-service/internal/service"
)

// Deps is everything the router needs to serve requests.
type Deps struct {
	Coupons   *service.CouponService
	Orders    *service.OrderService
	Settings  *service.SettingsService
	StatusHub http.Handler
	JWTSecret []byte
}

// NewRouter builds the HTTP router for the storefront service
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)

	couponHandler := handlers.NewCouponHandler(d.Coupons)
	orderHandler := handlers.NewOrderHandler(d.Orders, d.Settings)
	settingsHandler := handlers.NewSettingsHandler(d.Settings)
	admin := middleware.RequireAdmin(d.JWTSecret)

	r.Route("/coupon", func(r chi.Router) {
		r.Post("/apply", couponHandler.Apply)

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Post("/", couponHandler.Create)
			r.Get("/", couponHandler.List)
			r.Get("/export", couponHandler.Export)
			r.Get("/{id}", couponHandler.Get)
			r.Put("/{id}", couponHandler.Update)
			r.Delete("/{id}", couponHandler.Delete)
		})
	})

	r.Route("/order", func(r chi.Router) {
		r.Post("/", orderHandler.Create)
		if d.StatusHub != nil {
			r.With(middleware.RequireAdminQueryToken(d.JWTSecret)).Handle("/ws", d.StatusHub)
		}

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Get("/", orderHandler.List)
			r.Put("/update-status/{id}", orderHandler.UpdateStatus)
			r.Get("/{id}", orderHandler.Get)
			r.Delete("/{id}", orderHandler.Delete)
		})
	})

	r.Route("/settings", func(r chi.Router) {
		r.Use(admin)
		r.Get("/delivery-charge", settingsHandler.GetDeliveryCharge)
		r.Put("/delivery-charge", settingsHandler.SetDeliveryCharge)
	})

	// health
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
