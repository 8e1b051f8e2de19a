package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/satriajanaka/backend-mart/internal/auth"
	"github.com/satriajanaka/backend-mart/internal/catalog"
	"github.com/satriajanaka/backend-mart/internal/common"
	"github.com/satriajanaka/backend-mart/internal/config"
	"github.com/satriajanaka/backend-mart/internal/events"
	"github.com/satriajanaka/backend-mart/internal/health"
	"github.com/satriajanaka/backend-mart/internal/obs"
	"github.com/satriajanaka/backend-mart/internal/order"
	"github.com/satriajanaka/backend-mart/internal/pricing"
	"github.com/satriajanaka/backend-mart/internal/ratelimit"
	"github.com/satriajanaka/backend-mart/internal/reviews"
	"github.com/satriajanaka/backend-mart/internal/security"
	"github.com/satriajanaka/backend-mart/internal/store"
	"github.com/satriajanaka/backend-mart/internal/tasks"
	"github.com/satriajanaka/backend-mart/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "mart")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "mart-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			SamplingRatio: 1.0,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	if err := runMigrations(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "mart-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	taskOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url for task queue")
	}
	taskClient := asynq.NewClient(taskOpt)
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()

	db := store.New(pool)
	validate := validator.New()

	var orderMetrics *obs.OrderMetrics
	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		orderMetrics = obs.NewOrderMetrics(metricsNamespace, nil)
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, nil, nil)
	}

	authService, err := auth.NewService(auth.Config{
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
		Issuer:         cfg.JWTIssuer,
		Audience:       cfg.JWTAudience,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}

	userService, err := user.NewService(db, authService)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise user service")
	}
	userHandler := &user.Handler{
		Service:        userService,
		Validate:       validate,
		CookieName:     cfg.AuthCookieName,
		CookieDomain:   cfg.CookieDomain,
		CookieSecure:   cfg.CookieSecure,
		CookieSameSite: cfg.CookieSameSite,
	}
	authMiddleware := auth.Middleware{
		Service:    authService,
		Users:      userService,
		CookieName: cfg.AuthCookieName,
	}

	catalogCache := catalog.NewCache(redisClient, cfg.CatalogCacheTTL)
	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Queries:  db,
		Cache:    catalogCache,
		PageSize: cfg.CatalogPageSize,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	catalogHandler := &catalog.Handler{Service: catalogService, Validate: validate}

	reviewService, err := reviews.NewService(db, catalogCache, orderMetrics, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise review service")
	}
	reviewHandler := &reviews.Handler{Service: reviewService}

	bus := &events.Bus{Notifiers: []events.Notifier{&tasks.Enqueuer{Client: taskClient}}}
	orderService, err := order.NewService(order.ServiceConfig{
		Orders:  db,
		Catalog: db,
		Policy: pricing.Policy{
			TaxRate:         cfg.PricingTaxRate,
			FreeShippingMin: cfg.PricingFreeShippingMin,
			FlatShipping:    cfg.PricingFlatShipping,
		},
		Bus:     bus,
		Metrics: orderMetrics,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise order service")
	}
	orderHandler := &order.Handler{Service: orderService}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	loginLimiter, err := ratelimit.New(redisClient, cfg.LoginRateLimit)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise login rate limiter")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers{Enable: true, EnableHSTS: envBool("SECURITY_ENABLE_HSTS", false)}.Middleware)
	r.Use(security.BodyLimit{Max: 1 << 20}.Middleware)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{
		Checker: health.Probe{DB: pool, Redis: redisClient},
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/products", func(p chi.Router) {
		p.Get("/", catalogHandler.List)
		p.Get("/{id}", catalogHandler.Get)
		p.With(authMiddleware.RequireAuth).Post("/{id}/reviews", reviewHandler.Create)
		p.Group(func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth, authMiddleware.RequireAdmin)
			admin.Post("/", catalogHandler.Create)
			admin.Put("/{id}", catalogHandler.Update)
			admin.Delete("/{id}", catalogHandler.Delete)
		})
	})

	uploadDir := envOrDefault("UPLOAD_DIR", "uploads")
	uploadHandler := catalog.UploadHandler{Dir: uploadDir}
	r.With(authMiddleware.RequireAuth, authMiddleware.RequireAdmin).
		Post("/api/upload", uploadHandler.Upload)
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir))))

	r.Route("/api/category", func(c chi.Router) {
		c.Get("/", catalogHandler.Categories)
		c.Group(func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth, authMiddleware.RequireAdmin)
			admin.Post("/addcategory", catalogHandler.AddCategory)
			admin.Delete("/{id}", catalogHandler.DeleteCategory)
		})
	})

	r.Route("/api/orders", func(o chi.Router) {
		o.Use(authMiddleware.RequireAuth)
		o.With(idem.Middleware).Post("/", orderHandler.Create)
		o.Get("/myorders", orderHandler.ListMine)
		o.Get("/{id}", orderHandler.Get)
		o.Put("/{id}/pay", orderHandler.Pay)
		o.Group(func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAdmin)
			admin.Get("/", orderHandler.ListAll)
			admin.Put("/{id}/deliver", orderHandler.Deliver)
		})
	})

	r.Route("/api/users", func(u chi.Router) {
		u.Post("/register", userHandler.Register)
		u.With(ratelimit.Middleware(loginLimiter)).Post("/login", userHandler.Login)
		u.Post("/logout", userHandler.Logout)
		u.Group(func(me chi.Router) {
			me.Use(authMiddleware.RequireAuth)
			me.Get("/profile", userHandler.Profile)
			me.Put("/profile", userHandler.UpdateProfile)
		})
		u.Group(func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth, authMiddleware.RequireAdmin)
			admin.Get("/", userHandler.List)
			admin.Get("/{id}", userHandler.Get)
			admin.Put("/{id}", userHandler.Update)
			admin.Delete("/{id}", userHandler.Delete)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	<-shutdownCtx.Done()
	logger.Info().Msg("shutting down")
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func runMigrations(databaseURL string) error {
	m, err := migrate.New("file://migrations", databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}
