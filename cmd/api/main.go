package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thegera4/cool-morning-tables-sub000/internal/api"
	"github.com/thegera4/cool-morning-tables-sub000/internal/auth"
	"github.com/thegera4/cool-morning-tables-sub000/internal/cache"
	"github.com/thegera4/cool-morning-tables-sub000/internal/config"
	"github.com/thegera4/cool-morning-tables-sub000/internal/database"
	"github.com/thegera4/cool-morning-tables-sub000/internal/domain"
	"github.com/thegera4/cool-morning-tables-sub000/internal/email"
	"github.com/thegera4/cool-morning-tables-sub000/internal/events"
	"github.com/thegera4/cool-morning-tables-sub000/internal/logging"
	"github.com/thegera4/cool-morning-tables-sub000/internal/metrics"
	"github.com/thegera4/cool-morning-tables-sub000/internal/models"
	"github.com/thegera4/cool-morning-tables-sub000/internal/notify"
	"github.com/thegera4/cool-morning-tables-sub000/internal/payments"
	"github.com/thegera4/cool-morning-tables-sub000/internal/service"
	"github.com/thegera4/cool-morning-tables-sub000/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, base, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}
	logger := *logging.Component(base, "api-main")

	db, err := database.NewDB(cfg.Database.Path, logging.Component(base, "database"))
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	verifier, err := auth.NewVerifier(cfg.Auth)
	if err != nil {
		logger.Error().Err(err).Msg("init session verifier")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startMetrics(ctx, cfg, &logger)

	services, reminders := buildServices(cfg, db, redisClient, base)
	services.Verifier = verifier
	services.DB = db

	httpServer := api.NewHTTPServer(&cfg.API, cfg.Stripe.WebhookSecret, services, logging.Component(base, "http"))

	var scheduler *worker.ReminderScheduler
	if cfg.Reminders.Schedule != "" {
		scheduler, err = worker.NewReminderScheduler(reminders, cfg.Reminders.Schedule, cfg.Location(), worker.DefaultRetryPolicy, logging.Component(base, "scheduler"))
		if err != nil {
			return err
		}
		if err := scheduler.Start(ctx); err != nil {
			return err
		}
	}

	return startServer(ctx, httpServer, scheduler, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, baseLogger, closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := cache.NewRedisClient(cfg.Redis)
	if err := cache.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func buildServices(cfg *config.Config, db *database.DB, redisClient *redis.Client, logger *zerolog.Logger) (api.Services, *service.ReminderService) {
	rules := service.BookingRules{
		DepositEnabled: cfg.Booking.DepositEnabled,
		MinAdvanceDays: cfg.Booking.MinAdvanceDays,
		MaxAdvanceDays: cfg.Booking.MaxAdvanceDays,
		Location:       cfg.Location(),
	}

	var (
		catalogCache domain.CatalogCache
		idempotency  domain.IdempotencyStore = cache.NewMemoryIdempotencyStore()
	)
	if redisClient != nil {
		catalogCache = cache.NewRedisCatalogCache(redisClient, models.CatalogCacheTTL*time.Second)
		idempotency = cache.NewFailoverIdempotencyStore(
			cache.NewRedisIdempotencyStore(redisClient),
			idempotency,
			logging.Component(logger, "idempotency"),
		)
	}

	gateway := payments.NewGateway(cfg.Stripe, logging.Component(logger, "payments"))
	mailer := initMailer(cfg, logger)
	notifier := initNotifier(cfg, logger)

	bus := events.NewEventBus(logging.Component(logger, "events"))
	service.SubscribeOrderNotifications(bus, mailer, notifier, logging.Component(logger, "notifications"))

	svcLogger := logging.Component(logger, "service")
	catalog := service.NewCatalogService(db, catalogCache, rules, svcLogger)
	customers := service.NewCustomerService(db, gateway, svcLogger)
	checkout := service.NewCheckoutService(db, customers, gateway, rules, cfg.Stripe.Currency, svcLogger)
	orders := service.NewOrderService(db, db, db, bus, service.OrderServiceConfig{
		Rules:     rules,
		Currency:  cfg.Stripe.Currency,
		SheetName: cfg.Exports.SheetName,
		OnCreated: catalog.Invalidate,
	}, svcLogger)
	reminders := service.NewReminderService(db, mailer, rules, cfg.Reminders.LeadDays, svcLogger)

	return api.Services{
		Catalog:     catalog,
		Checkout:    checkout,
		Customers:   customers,
		Orders:      orders,
		Reminders:   reminders,
		Idempotency: idempotency,
	}, reminders
}

func initMailer(cfg *config.Config, logger *zerolog.Logger) domain.Mailer {
	mailLogger := logging.Component(logger, "email")
	if cfg.Email.SMTPHost == "" {
		mailLogger.Warn().Msg("smtp not configured, emails will only be logged")
		return email.NewLogMailer(mailLogger)
	}
	return email.NewSMTPMailer(cfg.Email, cfg.App, mailLogger)
}

func initNotifier(cfg *config.Config, logger *zerolog.Logger) domain.StaffNotifier {
	if cfg.Telegram.BotToken == "" || len(cfg.Telegram.StaffChatIDs) == 0 {
		return notify.NopNotifier{}
	}
	tgLogger := logging.Component(logger, "telegram")
	bot, err := notify.NewTelegramBot(cfg.Telegram)
	if err != nil {
		tgLogger.Warn().Err(err).Msg("telegram init failed, staff notifications disabled")
		return notify.NopNotifier{}
	}
	tgLogger.Info().Str("bot", bot.Self.UserName).Int("chats", len(cfg.Telegram.StaffChatIDs)).Msg("telegram connected")
	return notify.NewTelegramNotifier(bot, cfg.Telegram.StaffChatIDs, tgLogger)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServer(
	ctx context.Context,
	httpServer *api.HTTPServer,
	scheduler *worker.ReminderScheduler,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop()
	}
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
