package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/beyond-silhouette/storefront/internal/auth"
	"github.com/beyond-silhouette/storefront/internal/catalog"
	"github.com/beyond-silhouette/storefront/internal/checkout"
	"github.com/beyond-silhouette/storefront/internal/config"
	"github.com/beyond-silhouette/storefront/internal/domain"
	"github.com/beyond-silhouette/storefront/internal/inventory"
	"github.com/beyond-silhouette/storefront/internal/messaging"
	"github.com/beyond-silhouette/storefront/internal/telemetry"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := config.Load()

	if cfg.PostgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.ServiceName, "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(cfg.ServiceName, "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(10 * time.Second)); err != nil {
		logger.Error("failed to start runtime instrumentation", "error", err)
		os.Exit(1)
	}

	db, err := telemetry.OpenDB("postgres", cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() { _ = rdb.Close() }()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	var producer *messaging.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = messaging.NewProducer(cfg.KafkaBrokers, domain.TopicOrderPlaced)
		defer func() { _ = producer.Close() }()
	}

	sessions := auth.NewRedisSessions(rdb, cfg.SessionTTL)
	mw := auth.NewMiddleware(sessions, logger)
	users := auth.NewUserRepository(db)
	authHandler := auth.NewHandler(users, sessions, cfg.SessionTTL, logger)

	catalogRepo := catalog.NewRepository(db)
	cachedCatalog := catalog.NewCachedSource(catalogRepo, rdb, cfg.CatalogCacheTTL, logger)
	catalogHandler := catalog.NewHandler(cachedCatalog, catalogRepo, cachedCatalog, logger)

	stockRepo := inventory.NewRepository(db)
	inventoryHandler := inventory.NewHandler(stockRepo, cachedCatalog, logger)

	store := checkout.NewPostgresStore(db)
	placer := checkout.NewPlacer(store, cfg.Currency)
	checkoutHandler, err := checkout.NewHandler(placer, store, producer, logger)
	if err != nil {
		logger.Error("failed to create checkout handler", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", metricsHandler)

	route := telemetry.WithHTTPRoute
	mux.HandleFunc("GET /api/products", route(catalogHandler.HandleListProducts))
	mux.HandleFunc("GET /api/products/{id}", route(catalogHandler.HandleGetProduct))
	mux.HandleFunc("POST /api/auth/register", route(authHandler.HandleRegister))
	mux.HandleFunc("POST /api/auth/login", route(authHandler.HandleLogin))
	mux.HandleFunc("POST /api/auth/logout", route(authHandler.HandleLogout))
	mux.HandleFunc("GET /api/auth/me", route(mw.RequireUser(authHandler.HandleMe)))
	mux.HandleFunc("POST /api/orders", route(mw.RequireUser(checkoutHandler.HandlePlaceOrder)))
	mux.HandleFunc("GET /api/orders", route(mw.RequireUser(checkoutHandler.HandleListOrders)))
	mux.HandleFunc("GET /api/orders/{id}", route(mw.RequireUser(checkoutHandler.HandleGetOrder)))
	mux.HandleFunc("POST /api/admin/products", route(mw.RequireAdmin(catalogHandler.HandleAdminCreateProduct)))
	mux.HandleFunc("GET /api/admin/inventory/{productId}", route(mw.RequireAdmin(inventoryHandler.HandleGetInventory)))
	mux.HandleFunc("PUT /api/admin/inventory/{productId}/{size}", route(mw.RequireAdmin(inventoryHandler.HandleSetStock)))
	mux.HandleFunc("GET /api/admin/orders", route(mw.RequireAdmin(checkoutHandler.HandleAdminListOrders)))

	server := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: otelhttp.NewHandler(mux, cfg.ServiceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting storefront service", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
