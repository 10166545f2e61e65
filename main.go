package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pizza-franchise-api/auth"
	"pizza-franchise-api/config"
	"pizza-franchise-api/fulfillment"
	"pizza-franchise-api/handlers"
	"pizza-franchise-api/logger"
	"pizza-franchise-api/metrics"
	"pizza-franchise-api/middleware"
	"pizza-franchise-api/routes"
	"pizza-franchise-api/seed"
	"pizza-franchise-api/services"
	"pizza-franchise-api/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.SetupDefault(os.Stdout, cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	gin.SetMode(cfg.GinMode)

	// Database
	db, err := config.OpenDB(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	// Stores
	users := store.NewUsers(db)
	franchises := store.NewFranchises(db)
	orderStore := store.NewOrders(db)
	menu := store.NewMenu(db)

	// Revocation: redis when configured, otherwise the main database.
	gormRevocations := auth.NewGormRevocationStore(db)
	var revocations auth.RevocationStore = gormRevocations
	if cfg.RedisAddr != "" {
		rs, err := auth.NewRedisRevocationStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rs.Close()
		pingCtx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
		err = rs.Ping(pingCtx)
		cancel()
		if err != nil {
			return err
		}
		revocations = rs
		log.Info("revocation store: redis", slog.String("addr", cfg.RedisAddr))
	}

	passwords := auth.NewPasswords(cfg.BcryptCost)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL, users, revocations, auth.WithTimeout(cfg.StoreTimeout))

	// Seed
	seedCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = seed.Admin(seedCtx, users, passwords, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword, log)
	if err == nil {
		err = seed.Menu(seedCtx, menu, log)
	}
	cancel()
	if err != nil {
		return err
	}

	// Services
	opts := services.Options{StoreTimeout: cfg.StoreTimeout, Logger: log, Metrics: collector}
	factory := fulfillment.NewClient(&http.Client{Timeout: cfg.FulfillmentTimeout}, log, cfg.FactoryURL, cfg.FactoryAPIKey)
	h := handlers.New(
		services.NewSessions(users, passwords, tokens, opts),
		services.NewDirectory(users, passwords, tokens, opts),
		services.NewHierarchy(franchises, opts),
		services.NewOrders(orderStore, menu, franchises, users, factory, cfg.FulfillmentTimeout, opts),
		tokens,
	)

	// Router
	loginLimit := middleware.NewRateLimiter(cfg.LoginRatePerMin, 5*time.Minute)
	defer loginLimit.Stop()

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.Metrics(collector))

	// CORS middleware for frontend integration
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, Idempotency-Key")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler(reg)))
	routes.SetupRoutes(r, h, middleware.NewAuthenticator(tokens, collector), loginLimit)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go purgeRevocations(ctx, gormRevocations, cfg.RevocationPurgeInterval, log)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.FulfillmentTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

// purgeRevocations drops expired denylist rows until ctx ends.
func purgeRevocations(ctx context.Context, s *auth.GormRevocationStore, every time.Duration, log *slog.Logger) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := s.PurgeExpired(ctx, now)
			if err != nil {
				log.Warn("revocation purge failed", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				log.Info("expired revocations purged", slog.Int64("rows", n))
			}
		}
	}
}
