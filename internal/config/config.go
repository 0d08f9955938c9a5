package config

// Config holds all application configuration loaded from environment
// variables, parsed with github.com/caarlos0/env.
type Config struct {
	// Server configuration
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8090"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"promo-engine"`

	// Redis configuration
	RedisHost         string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort         string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword     string `env:"REDIS_PASSWORD"`
	RedisMaxRetries   int    `env:"REDIS_MAX_RETRIES" envDefault:"5"`
	RedisRetryDelayMs int    `env:"REDIS_RETRY_DELAY_MS" envDefault:"1000"`

	// Rule source configuration. "sanity" reads modal rules from the CMS,
	// "file" reads them from MODALS_CONFIG_PATH.
	RuleSource       string `env:"RULE_SOURCE" envDefault:"sanity"`
	ModalsConfigPath string `env:"MODALS_CONFIG_PATH" envDefault:"config/modals.yaml"`

	SanityProjectID  string `env:"SANITY_PROJECT_ID"`
	SanityDataset    string `env:"SANITY_DATASET" envDefault:"production"`
	SanityAPIVersion string `env:"SANITY_API_VERSION" envDefault:"2024-01-01"`
	SanityToken      string `env:"SANITY_TOKEN"`

	// Commerce platform configuration
	ShopifyStoreDomain     string `env:"SHOPIFY_STORE_DOMAIN"`
	ShopifyAdminToken      string `env:"SHOPIFY_ADMIN_TOKEN"`
	ShopifyStorefrontToken string `env:"SHOPIFY_STOREFRONT_TOKEN"`
	ShopifyWebhookSecret   string `env:"SHOPIFY_WEBHOOK_SECRET"`

	// Session configuration. Idle sessions and their shown-markers expire
	// after this window.
	SessionTTLMinutes int `env:"SESSION_TTL_MINUTES" envDefault:"30"`

	// Telemetry configuration
	OtelEnabled    bool   `env:"OTEL_ENABLED" envDefault:"false"`
	ZipkinEndpoint string `env:"ZIPKIN_ENDPOINT"`
}
