package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/md-rashed-zaman/apptcalendar/libs/auth"
	"github.com/md-rashed-zaman/apptcalendar/libs/config"
	"github.com/md-rashed-zaman/apptcalendar/libs/db"
	"github.com/md-rashed-zaman/apptcalendar/libs/httpx"
	"github.com/md-rashed-zaman/apptcalendar/libs/kafkax"
	otelx "github.com/md-rashed-zaman/apptcalendar/libs/otel"
	"github.com/md-rashed-zaman/apptcalendar/libs/runtime"
	"github.com/md-rashed-zaman/apptcalendar/services/calendar-service/internal/events"
	"github.com/md-rashed-zaman/apptcalendar/services/calendar-service/internal/handlers"
	"github.com/md-rashed-zaman/apptcalendar/services/calendar-service/internal/intake"
	"github.com/md-rashed-zaman/apptcalendar/services/calendar-service/internal/settings"
	"github.com/md-rashed-zaman/apptcalendar/services/calendar-service/internal/storage"
)

const webhookSecretHeader = "X-Webhook-Secret"

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

// loadSettings reads the business settings file and applies env overrides on top.
func loadSettings() (settings.Settings, error) {
	s, err := settings.Load(config.String("BUSINESS_SETTINGS_FILE", ""))
	if err != nil {
		return settings.Settings{}, err
	}
	if s.MaxAppointmentsPerSlot, err = config.Int("MAX_APPOINTMENTS_PER_SLOT", s.MaxAppointmentsPerSlot); err != nil {
		return settings.Settings{}, err
	}
	loc, err := config.Location("APPOINTMENT_TIMEZONE", s.Timezone)
	if err != nil {
		return settings.Settings{}, err
	}
	s.Timezone = loc.String()
	return s, nil
}

func serve(parent context.Context) error {
	service := config.String("SERVICE_NAME", "calendar-service")
	port, err := config.Port("PORT", "3000")
	if err != nil {
		return err
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext(parent)
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	biz, err := loadSettings()
	if err != nil {
		logger.Error("business settings invalid", "err", err)
		return err
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		return err
	}
	maxConns, err := config.Int("DB_MAX_CONNS", 10)
	if err != nil {
		return err
	}
	pool, err := db.Open(ctx, dbURL, db.PoolOptions{MaxConns: int32(maxConns)})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		return err
	}
	defer pool.Close()

	if config.Bool("MIGRATE_ON_START", false) {
		if err := storage.Migrate(ctx, pool); err != nil {
			logger.Error("migration failed", "err", err)
			return err
		}
	}

	brokers := config.String("KAFKA_BROKERS", "")
	publisher := events.NewPublisher(events.Config{
		Brokers: brokers,
		Topic:   config.String("KAFKA_TOPIC", "calendar.appointments.v1"),
	}, logger)
	if c, ok := publisher.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}

	start, end := biz.Hours()
	h := handlers.NewAppointmentHandler(
		storage.NewAppointmentRepository(pool),
		intake.NewNormalizer(biz.Location(), biz.Duration()),
		publisher,
		logger,
		handlers.Config{
			CalendarName:  biz.BusinessName,
			MaxPerSlot:    biz.MaxAppointmentsPerSlot,
			WorkStartHour: start,
			WorkEndHour:   end,
		},
	)

	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}
	if list := kafkax.SplitBrokers(brokers); len(list) > 0 {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(list)})
	}

	limiter, rdb, err := webhookLimiter(logger)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb)})
	}

	webhookGuards := []httpx.Middleware{limiter}
	if secret := config.String("WEBHOOK_SECRET", ""); secret != "" {
		webhookGuards = append(webhookGuards, httpx.RequireSharedSecret(webhookSecretHeader, secret))
	} else {
		logger.Warn("webhook endpoints are unauthenticated (WEBHOOK_SECRET not set)")
	}
	ownerSecret := config.String("AUTH_JWT_SECRET", "")
	if ownerSecret == "" {
		logger.Warn("owner endpoints are unauthenticated (AUTH_JWT_SECRET not set)")
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	handlers.Register(mux, h, auth.RequireBearer(ownerSecret), stack(webhookGuards...))

	timeout, err := config.Int("REQUEST_TIMEOUT_SECONDS", 15)
	if err != nil {
		return err
	}
	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecovery(logger),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: httpx.SplitList(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", webhookSecretHeader},
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(time.Duration(timeout)*time.Second),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "calendar")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting",
			"addr", srv.Addr,
			"timezone", biz.Timezone,
			"max_per_slot", biz.MaxAppointmentsPerSlot,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
	return nil
}

// webhookLimiter picks the Redis limiter when REDIS_ADDR is set and the in-process one otherwise.
func webhookLimiter(logger *slog.Logger) (httpx.Middleware, *redis.Client, error) {
	limit, err := config.Int("WEBHOOK_RATE_LIMIT_PER_MINUTE", 120)
	if err != nil {
		return nil, nil, err
	}
	addr := config.String("REDIS_ADDR", "")
	if addr == "" {
		return httpx.NewRateLimiter(limit, time.Minute).Middleware(), nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.String("REDIS_PASSWORD", ""),
	})
	rl := httpx.NewRedisRateLimiter(rdb, limit, time.Minute, "calendar:webhook")
	failOpen := config.Bool("RATE_LIMIT_FAIL_OPEN", true)
	return rl.Middleware(logger, failOpen), rdb, nil
}

// stack composes middlewares so stack(a, b)(h) == a(b(h)).
func stack(m ...httpx.Middleware) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return httpx.Chain(next, m...)
	}
}
