package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/juneof/promo-engine/internal/bootstrap"
	"github.com/juneof/promo-engine/internal/config"
	"github.com/juneof/promo-engine/internal/server"
	"github.com/juneof/promo-engine/pkg/cms"
	"github.com/juneof/promo-engine/pkg/commerce"
	"github.com/juneof/promo-engine/pkg/handler"
	"github.com/juneof/promo-engine/pkg/lifecycle"
	"github.com/juneof/promo-engine/pkg/route"
	"github.com/juneof/promo-engine/pkg/store"
)

// App holds all application dependencies and manages the application lifecycle.
type App struct {
	cfg               *config.Config
	httpServer        *server.HTTPServer
	metricsServer     *server.MetricsServer
	redisClient       *redis.Client
	manager           *lifecycle.Manager
	broker            *route.Broker
	responder         *commerce.Responder
	shutdownTelemetry func(context.Context) error
}

// New creates and initializes a new application instance. Components are
// initialized in dependency order: Redis, rule source, suppression store,
// modal engine, commerce integrations, servers, telemetry.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logrus.Info("initializing application...")

	app := &App{cfg: cfg}

	redisClient, err := store.InitRedisClient(ctx, store.RedisOptions{
		Host:       cfg.RedisHost,
		Port:       cfg.RedisPort,
		Password:   cfg.RedisPassword,
		MaxRetries: cfg.RedisMaxRetries,
		RetryDelay: time.Duration(cfg.RedisRetryDelayMs) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	app.redisClient = redisClient

	source, err := bootstrap.InitRuleSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init rule source: %w", err)
	}

	sessionTTL := time.Duration(cfg.SessionTTLMinutes) * time.Minute
	st := bootstrap.InitStore(redisClient, sessionTTL)
	app.manager, app.broker = bootstrap.InitEngine(cfg, source, st)

	// Commerce integrations are optional; routes that need an absent one
	// answer 503 instead of failing startup.
	var commerceClient *commerce.Client
	if cfg.ShopifyStoreDomain != "" {
		commerceClient = commerce.NewClient(commerce.Options{
			StoreDomain:     cfg.ShopifyStoreDomain,
			AdminToken:      cfg.ShopifyAdminToken,
			StorefrontToken: cfg.ShopifyStorefrontToken,
		})
		if cfg.ShopifyStorefrontToken != "" {
			app.responder = commerce.NewResponder(app.broker, commerceClient, app.manager)
		}
	}

	var preorders handler.PreorderSaver
	if cfg.SanityProjectID != "" && cfg.SanityToken != "" {
		preorders = cms.NewSanityClient(cms.SanityOptions{
			ProjectID:  cfg.SanityProjectID,
			Dataset:    cfg.SanityDataset,
			APIVersion: cfg.SanityAPIVersion,
			Token:      cfg.SanityToken,
		})
	}

	var orders handler.OrderLookup
	if commerceClient != nil && cfg.ShopifyAdminToken != "" {
		orders = commerceClient
	}

	h := handler.New(app.manager, preorders, orders, cfg.ShopifyWebhookSecret)
	app.httpServer = server.NewHTTPServer(cfg.HTTPPort, h.Router())

	app.metricsServer = server.NewMetricsServer(cfg.MetricsPort, "/metrics")
	if err := app.metricsServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup metrics server: %w", err)
	}

	zipkinEndpoint := ""
	if cfg.OtelEnabled {
		zipkinEndpoint = cfg.ZipkinEndpoint
	}
	shutdownTelemetry, err := server.SetupTelemetry(ctx, cfg.ServiceName, cfg.Environment, zipkinEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to setup telemetry: %w", err)
	}
	app.shutdownTelemetry = shutdownTelemetry

	logrus.Info("application initialized successfully")

	return app, nil
}
