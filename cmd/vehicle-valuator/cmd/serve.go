package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/gavincooper/vehicle-valuator/api/openapi"
	"github.com/gavincooper/vehicle-valuator/internal/api/handlers"
	"github.com/gavincooper/vehicle-valuator/internal/api/middleware"
	"github.com/gavincooper/vehicle-valuator/internal/audit"
	"github.com/gavincooper/vehicle-valuator/internal/config"
	"github.com/gavincooper/vehicle-valuator/internal/engine"
	"github.com/gavincooper/vehicle-valuator/internal/marketdata"
	"github.com/gavincooper/vehicle-valuator/internal/notify"
	"github.com/gavincooper/vehicle-valuator/internal/store"
	"github.com/gavincooper/vehicle-valuator/pkg/logger"
	"github.com/gavincooper/vehicle-valuator/pkg/predict"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and scheduler",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	st, err := store.NewPostgresStore(ctx, cfg.Database.DSN())
	cancel()
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer st.Close()

	trail := buildTrail(cfg, log)
	coordinator := engine.NewCoordinator(
		buildAggregator(cfg, log),
		buildPredictor(cfg, log),
		trail,
		engine.WithLogger(logger.Component(log, "engine")),
	)

	scheduler, err := engine.NewScheduler(
		trail,
		cfg.Schedule.AuditCleanupInterval,
		cfg.Schedule.StatsLogInterval,
		cfg.Audit.RetentionDays,
		logger.Component(log, "scheduler"),
	)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	e.Use(middleware.Recovery(logger.Component(log, "http")))
	e.Use(middleware.RequestLog(logger.Component(log, "http")))
	e.Use(middleware.Metrics())

	health := handlers.NewHealthHandler(st)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	humaCfg := huma.DefaultConfig("Vehicle Valuator API", Version)
	api := humaecho.New(e, humaCfg)

	handlers.RegisterValuationRoutes(api, handlers.NewValuationsHandler(
		coordinator, st, logger.Component(log, "handlers"),
	))
	handlers.RegisterAuditRoutes(api, handlers.NewAuditHandler(trail))
	handlers.RegisterSystemRoutes(api, handlers.NewSystemHandler(coordinator, st))
	openapi.RegisterRoutes(e, api)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("starting server", "addr", addr)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	log.Info("server stopped")
	return nil
}

// buildAggregator assembles the configured market data sources.
func buildAggregator(cfg *config.Config, log *slog.Logger) *marketdata.Aggregator {
	var sources []marketdata.Source

	if cfg.Sources.CarsDirect.Enabled {
		limiter := marketdata.NewRateLimiter(
			cfg.Sources.RateLimit.PerSecond,
			cfg.Sources.RateLimit.Burst,
			cfg.Sources.RateLimit.DailyLimit,
			marketdata.WithRateLimiterSource("carsdirect"),
		)
		sources = append(sources, marketdata.NewCarsDirectSource(
			cfg.Sources.CarsDirect.APIKey,
			marketdata.WithCarsDirectBaseURL(cfg.Sources.CarsDirect.BaseURL),
			marketdata.WithCarsDirectRateLimiter(limiter),
			marketdata.WithCarsDirectLogger(logger.Component(log, "carsdirect")),
		))
	}

	if cfg.Sources.AutoLender.Enabled {
		limiter := marketdata.NewRateLimiter(
			cfg.Sources.RateLimit.PerSecond,
			cfg.Sources.RateLimit.Burst,
			cfg.Sources.RateLimit.DailyLimit,
			marketdata.WithRateLimiterSource("autolender"),
		)
		sources = append(sources, marketdata.NewAutoLenderSource(
			cfg.Sources.AutoLender.APIKey,
			marketdata.WithAutoLenderBaseURL(cfg.Sources.AutoLender.BaseURL),
			marketdata.WithAutoLenderRateLimiter(limiter),
			marketdata.WithAutoLenderLogger(logger.Component(log, "autolender")),
		))
	}

	if cfg.Sources.Static.Enabled || len(sources) == 0 {
		sources = append(sources, marketdata.NewStaticSource())
	}

	return marketdata.NewAggregator(
		sources,
		marketdata.WithSourceTimeout(cfg.Sources.Timeout),
		marketdata.WithAggregatorLogger(logger.Component(log, "marketdata")),
	)
}

// buildPredictor selects the base value predictor from configuration.
func buildPredictor(cfg *config.Config, log *slog.Logger) predict.Predictor {
	var p predict.Predictor

	switch cfg.Predictor.Backend {
	case "remote":
		p = predict.NewRemotePredictor(
			cfg.Predictor.Endpoint,
			cfg.Predictor.APIKey,
			predict.WithRemoteHTTPClient(&http.Client{Timeout: cfg.Predictor.Timeout}),
			predict.WithRemoteLogger(logger.Component(log, "predict")),
		)
	default:
		p = predict.NewHeuristicPredictor(
			predict.WithHeuristicLogger(logger.Component(log, "predict")),
		)
	}

	if cfg.Predictor.Calibrated {
		p = predict.NewCalibratedPredictor(p)
	}
	return p
}

// buildTrail assembles the audit trail with optional webhook and Discord
// delivery.
func buildTrail(cfg *config.Config, log *slog.Logger) *audit.Trail {
	opts := []audit.TrailOption{
		audit.WithMaxEntries(cfg.Audit.MaxEntries),
		audit.WithTrailLogger(logger.Component(log, "audit")),
	}

	var sinks []audit.Sink
	if cfg.Audit.Webhook.Enabled {
		sinks = append(sinks, audit.NewWebhookSink(
			cfg.Audit.Webhook.URL,
			audit.WithWebhookHeaders(cfg.Audit.Webhook.Headers),
		))
	}
	if cfg.Audit.ErrorMonitor.Enabled {
		sinks = append(sinks, notify.ErrorsOnly(audit.NewWebhookSink(
			cfg.Audit.ErrorMonitor.URL,
			audit.WithWebhookHeaders(cfg.Audit.ErrorMonitor.Headers),
		)))
	}
	if cfg.Audit.Discord.Enabled {
		var discordOpts []notify.DiscordOption
		if cfg.Audit.Discord.IncludeStarts {
			discordOpts = append(discordOpts, notify.WithStartEvents())
		}
		sinks = append(sinks, notify.NewDiscordSink(cfg.Audit.Discord.WebhookURL, discordOpts...))
	}

	switch len(sinks) {
	case 0:
	case 1:
		opts = append(opts, audit.WithSink(sinks[0]))
	default:
		opts = append(opts, audit.WithSink(notify.Fanout(sinks...)))
	}

	return audit.NewTrail(opts...)
}
