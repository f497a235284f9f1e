package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"production"`

	RuntimeConfigPath string `env:"RUNTIME_CONFIG_PATH" envDefault:"config/runtime-config.json"`
	CatalogPath       string `env:"CATALOG_PATH" envDefault:"config/catalog.json"`

	AdminUsername string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	StripeAPIURL            string        `env:"STRIPE_API_URL"`
	StripeMaxNetworkRetries int64         `env:"STRIPE_MAX_NETWORK_RETRIES" envDefault:"2"`
	StripeTimeout           time.Duration `env:"STRIPE_TIMEOUT" envDefault:"30s"`
	WebhookTolerance        time.Duration `env:"WEBHOOK_TOLERANCE" envDefault:"5m"`
	WebhookDebugDumpEvent   bool          `env:"WEBHOOK_DEBUG_DUMP_EVENT" envDefault:"false"`

	PollInterval         time.Duration `env:"POLL_INTERVAL" envDefault:"1s"`
	PollMaxAttempts      int           `env:"POLL_MAX_ATTEMPTS" envDefault:"30"`
	PayerPollInterval    time.Duration `env:"PAYER_POLL_INTERVAL" envDefault:"1s"`
	PayerPollMaxAttempts int           `env:"PAYER_POLL_MAX_ATTEMPTS" envDefault:"120"`

	MonitorQueueSize int `env:"MONITOR_QUEUE_SIZE" envDefault:"200"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
