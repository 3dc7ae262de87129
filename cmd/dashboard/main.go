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

	"crmdash/internal/config"
	"crmdash/internal/crmapi"
	"crmdash/internal/database"
	"crmdash/internal/domain"
	"crmdash/internal/events"
	"crmdash/internal/logging"
	"crmdash/internal/metrics"
	"crmdash/internal/repository"
	"crmdash/internal/service"
	"crmdash/internal/web"
	"crmdash/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	housekeepingInterval = 10 * time.Minute
	activityRetention    = 90 * 24 * time.Hour
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	bus := events.NewEventBus()
	bus.OnError(func(ev *events.Event, err error) {
		logger.Error().Err(err).Str("event", ev.Type).Msg("event handler failed")
	})
	recorder := worker.NewActivityWorker(db, worker.RetryPolicy{}, 0, logging.Component(&logger, "activity"))
	recorder.Subscribe(bus)

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}

	memSessions := repository.NewMemorySessionRepository()
	sessions := initSessions(redisClient, memSessions, &logger)

	api := crmapi.NewClient(cfg.Remote.BaseURL, cfg.RemoteTimeout(), logging.Component(&logger, "crmapi"))
	if redisClient != nil && cfg.CacheTTL() > 0 {
		api.UseRedisCache(redisClient, cfg.CacheTTL())
	}

	srv, err := web.NewServer(web.Deps{
		Config:       cfg,
		Auth:         web.ClientAuth{Client: api},
		Sessions:     sessions,
		Appointments: service.NewAppointmentService(bus, logging.Component(&logger, "appointments")),
		People:       service.NewPeopleService(bus, logging.Component(&logger, "people")),
		Dashboard:    service.NewDashboardService(db, logging.Component(&logger, "dashboard")),
		Ready:        readinessChecks(redisClient, db),
		Logger:       &logger,
	})
	if err != nil {
		logger.Error().Err(err).Msg("create web server")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startMetrics(ctx, cfg, &logger)
	recorderDone := make(chan struct{})
	go func() {
		defer close(recorderDone)
		recorder.Start(ctx)
	}()
	go housekeeping(ctx, memSessions, db, &logger)

	err = serve(ctx, srv, &logger)
	// let the recorder flush before the deferred db.Close runs
	stop()
	<-recorderDone
	return err
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "dashboard-main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing with in-memory sessions")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initSessions prefers Redis and keeps the memory store as the fallback.
func initSessions(redisClient *redis.Client, mem *repository.MemorySessionRepository, logger *zerolog.Logger) domain.SessionRepository {
	if redisClient == nil {
		return mem
	}
	return repository.NewFailoverSessionRepository(
		repository.NewRedisSessionRepository(redisClient),
		mem,
		logging.Component(logger, "sessions"),
	)
}

func readinessChecks(redisClient *redis.Client, db *database.DB) []web.ReadinessCheck {
	checks := []web.ReadinessCheck{{Name: "database", Check: db.PingContext}}
	if redisClient != nil {
		checks = append(checks, web.ReadinessCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return repository.Ping(ctx, redisClient) },
		})
	}
	return checks
}

// housekeeping drops expired in-memory sessions and old activity rows.
func housekeeping(ctx context.Context, mem *repository.MemorySessionRepository, db *database.DB, logger *zerolog.Logger) {
	ticker := time.NewTicker(housekeepingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := mem.Sweep(); n > 0 {
				logger.Debug().Int("count", n).Msg("expired sessions swept")
			}
			pruned, err := db.PruneBefore(ctx, time.Now().Add(-activityRetention))
			if err != nil {
				logger.Error().Err(err).Msg("prune activity")
				continue
			}
			if pruned > 0 {
				logger.Info().Int64("count", pruned).Msg("old activity pruned")
			}
		}
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func serve(ctx context.Context, srv *web.Server, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
		return err
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}

	logger.Info().Msg("dashboard stopped")
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
