package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	v.AddConfigPath("/app/configs")

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Allow common env vars without APP_ prefix for Docker/VM deploys
	v.BindEnv("http.port", "HTTP_PORT", "APP_HTTP_PORT")
	v.BindEnv("database.url", "DATABASE_URL", "APP_DATABASE_URL")
	v.BindEnv("redis.url", "REDIS_URL", "APP_REDIS_URL")
	v.BindEnv("nats.url", "NATS_URL", "APP_NATS_URL")
	v.BindEnv("rabbitmq.url", "RABBITMQ_URL", "APP_RABBITMQ_URL")
	v.BindEnv("vault.address", "VAULT_ADDR", "APP_VAULT_ADDRESS")
	v.BindEnv("vault.token", "VAULT_TOKEN", "APP_VAULT_TOKEN")
	v.BindEnv("jwt.secret", "JWT_SECRET", "APP_JWT_SECRET")
	v.BindEnv("payment.stripe.key_test_public", "STRIPE_KEY_TEST_PUBLIC", "APP_PAYMENT_STRIPE_KEY_TEST_PUBLIC")
	v.BindEnv("payment.stripe.key_test_secret", "STRIPE_KEY_TEST_SECRET", "APP_PAYMENT_STRIPE_KEY_TEST_SECRET")
	v.BindEnv("payment.stripe.key_live_public", "STRIPE_KEY_LIVE_PUBLIC", "APP_PAYMENT_STRIPE_KEY_LIVE_PUBLIC")
	v.BindEnv("payment.stripe.key_live_secret", "STRIPE_KEY_LIVE_SECRET", "APP_PAYMENT_STRIPE_KEY_LIVE_SECRET")
	v.BindEnv("app.environment", "APP_ENVIRONMENT")
	v.BindEnv("logging.level", "LOG_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "invoice-stripe-driver")
	v.SetDefault("app.version", "v1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", "10s")
	v.SetDefault("http.write_timeout", "30s")
	v.SetDefault("http.idle_timeout", "60s")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("redis.customer_ttl", "24h")
	v.SetDefault("events.transport", "nats")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("rabbitmq.exchange", "invoice.driver.events")
	v.SetDefault("vault.stripe_path", "invoice-stripe-driver")
	v.SetDefault("opentelemetry.service_name", "invoice-stripe-driver")
	v.SetDefault("opentelemetry.jaeger.sampler_param", 1.0)
	v.SetDefault("prometheus.enabled", true)
	v.SetDefault("prometheus.path", "/metrics")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("circuit_breaker.enabled", true)
	v.SetDefault("circuit_breaker.max_requests", 3)
	v.SetDefault("circuit_breaker.interval", "1m")
	v.SetDefault("circuit_breaker.timeout", "30s")
	v.SetDefault("circuit_breaker.failure_threshold", 5)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("payment.stripe.label", "Stripe")
	v.SetDefault("payment.stripe.statement_descriptor", "INV #{{INVOICE_REF}}")
	v.SetDefault("payment.stripe.timeout", "30s")
}
