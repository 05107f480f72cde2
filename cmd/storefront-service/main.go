package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Cheertaboi/storefront-service/internal/api"
	"github.com/Cheertaboi/storefront-service/internal/config"
	"github.com/Cheertaboi/storefront-service/internal/notify"
	"github.com/Cheertaboi/storefront-service/internal/repository"
	"github.com/Cheertaboi/storefront-service/internal/scheduler"
	"github.com/Cheertaboi/storefront-service/internal/service"
	"github.com/Cheertaboi/storefront-service/pkg/db"
)

type stores struct {
	coupons  service.CouponRepo
	orders   service.OrderRepo
	settings service.SettingsRepo
	conn     *sql.DB
}

func openStores(driver string) (*stores, error) {
	if driver == config.StoreDriverMemory {
		slog.Warn("using in-memory store; data is lost on restart")
		return &stores{
			coupons:  repository.NewMemoryCouponStore(),
			orders:   repository.NewMemoryOrderStore(),
			settings: repository.NewMemorySettingsStore(),
		}, nil
	}

	pgCfg, err := db.LoadPostgresConfig()
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(pgCfg.DSN()); err != nil {
		return nil, err
	}
	conn, err := db.NewPostgresConnection(pgCfg)
	if err != nil {
		return nil, err
	}
	return &stores{
		coupons:  repository.NewCouponRepo(conn),
		orders:   repository.NewOrderRepo(conn),
		settings: repository.NewSettingsRepo(conn),
		conn:     conn,
	}, nil
}

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	st, err := openStores(cfg.StoreDriver)
	if err != nil {
		slog.Error("open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	if st.conn != nil {
		defer st.conn.Close()
	}

	hub := notify.NewHub()
	coupons := service.NewCouponService(st.coupons, service.CouponOptions{
		EnforceMinPurchase: cfg.EnforceMinPurchase,
	})
	orders := service.NewOrderService(st.orders, service.OrderOptions{
		Coupons:           coupons,
		StrictTransitions: cfg.StrictOrderTransitions,
		Publisher:         hub,
	})
	settings := service.NewSettingsService(st.settings, cfg.DefaultDeliveryCharge(), cfg.SettingsCacheTTL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go scheduler.Daily(ctx, "coupon-expiry-sweep", cfg.SweepHour, cfg.SweepMinute, func(ctx context.Context) {
		if _, err := coupons.ExpireStale(ctx); err != nil {
			slog.Error("coupon expiry sweep failed", "error", err)
		}
	})

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: api.NewRouter(api.Deps{
			Coupons:   coupons,
			Orders:    orders,
			Settings:  settings,
			StatusHub: hub,
			JWTSecret: []byte(cfg.JWTSecret),
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// graceful shutdown
	idleConnsClosed := make(chan struct{})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		hub.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown", "error", err)
		}
		close(idleConnsClosed)
	}()

	slog.Info("starting storefront-service", "addr", srv.Addr, "store", cfg.StoreDriver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("listen", "error", err)
		os.Exit(1)
	}

	<-idleConnsClosed
	slog.Info("server stopped")
}
