package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/tableorder-backend/api/controllers"
	"github.com/angelmondragon/tableorder-backend/api/controllers/stream"
	"github.com/angelmondragon/tableorder-backend/api/middleware"
	"github.com/angelmondragon/tableorder-backend/internal/auth"
	"github.com/angelmondragon/tableorder-backend/internal/broadcast"
	"github.com/angelmondragon/tableorder-backend/internal/menus"
	"github.com/angelmondragon/tableorder-backend/internal/orders"
	"github.com/angelmondragon/tableorder-backend/internal/reports"
	"github.com/angelmondragon/tableorder-backend/internal/stores"
	"github.com/angelmondragon/tableorder-backend/internal/tables"
	"github.com/angelmondragon/tableorder-backend/pkg/config"
	"github.com/angelmondragon/tableorder-backend/pkg/db"
	"github.com/angelmondragon/tableorder-backend/pkg/logger"
	"github.com/angelmondragon/tableorder-backend/pkg/redis"
)

type rateLimiterStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	hub *broadcast.Hub,
	authService auth.Service,
	storeService stores.Service,
	menuService menus.Service,
	orderService orders.Service,
	tableService tables.Service,
	reportService reports.Service,
) http.Handler {
	loc, err := cfg.App.Location()
	if err != nil {
		loc = time.UTC
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	tableLoginPolicy := middleware.NewAuthRateLimitPolicy(
		"table_login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginIdentityLimit,
		middleware.TableLoginIdentity,
	)
	adminLoginPolicy := middleware.NewAuthRateLimitPolicy(
		"admin_login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginIdentityLimit,
		middleware.AdminLoginIdentity,
	)

	var (
		redisPinger  db.Pinger
		limiterStore rateLimiterStore
		idemStore    redis.IdempotencyStore
	)
	if redisClient != nil {
		redisPinger = redisClient
		limiterStore = redisClient
		idemStore = redisClient
	}
	idempotency := middleware.Idempotency(idemStore, cfg.Redis.IdempotencyTTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", controllers.HealthSummary(cfg, hub))
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(tableLoginPolicy, limiterStore, logg)).Post("/table/login", controllers.TableLogin(authService, logg))
		r.With(middleware.AuthRateLimit(adminLoginPolicy, limiterStore, logg)).Post("/admin/login", controllers.AdminLogin(authService, logg))
	})

	r.Route("/api/customer/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireTable(logg))

		r.Get("/menus", controllers.CustomerMenus(menuService, logg))
		r.Get("/orders", controllers.CustomerOrders(orderService, logg))
		r.With(idempotency).Post("/orders", controllers.CustomerCreateOrder(orderService, logg))
	})

	streamOpts := stream.Options{
		Hub:            hub,
		Snapshots:      orderService,
		Heartbeat:      cfg.Stream.Heartbeat,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logg,
	}

	r.Route("/api/admin/v1", func(r chi.Router) {
		// Streams accept the token as a query parameter since EventSource
		// cannot set headers.
		r.Group(func(r chi.Router) {
			r.Use(middleware.StreamAuth(cfg.JWT, logg))
			r.Use(middleware.RequireAdmin(logg))
			r.Get("/orders/sse", stream.SSE(streamOpts))
			if cfg.FeatureFlags.EnableWebsocket {
				r.Get("/orders/ws", stream.WebSocket(streamOpts))
			}
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireAdmin(logg))

			r.Get("/orders", controllers.AdminOrderBoard(orderService, logg))
			r.Patch("/orders/{orderId}/status", controllers.AdminUpdateOrderStatus(orderService, logg))
			r.Delete("/orders/{orderId}", controllers.AdminDeleteOrder(orderService, logg))

			r.Route("/tables", func(r chi.Router) {
				r.Get("/", controllers.AdminListTables(tableService, logg))
				r.Post("/", controllers.AdminCreateTable(tableService, logg))
				r.With(idempotency).Post("/{tableId}/end-session", controllers.AdminEndSession(tableService, logg))
				r.Get("/{tableId}/history", controllers.AdminTableHistory(tableService, loc, logg))
				r.Get("/{tableId}/history/export", controllers.AdminExportTableHistory(tableService, loc, logg))
			})

			r.Route("/menus", func(r chi.Router) {
				r.Get("/", controllers.AdminListMenus(menuService, logg))
				r.Post("/", controllers.AdminCreateMenu(menuService, logg))
				r.Post("/import", controllers.AdminImportMenus(menuService, logg))
				r.Put("/{menuId}", controllers.AdminUpdateMenu(menuService, logg))
				r.Delete("/{menuId}", controllers.AdminDeleteMenu(menuService, logg))
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", controllers.AdminListCategories(menuService, logg))
				r.Post("/", controllers.AdminCreateCategory(menuService, logg))
				r.Delete("/{categoryId}", controllers.AdminDeleteCategory(menuService, logg))
			})

			r.Get("/reports/sales", controllers.AdminSalesReport(reportService, loc, logg))

			r.Route("/store", func(r chi.Router) {
				r.Get("/", controllers.StoreProfile(storeService, logg))
				r.Put("/password", controllers.StoreChangePassword(storeService, logg))
			})
		})
	})

	return r
}
