package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds runtime configuration read from an optional app.env file and
// environment variables. Environment variables win.
type Config struct {
	AppName  string `mapstructure:"APP_NAME"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	HTTPAddr               string `mapstructure:"HTTP_ADDR"`
	ShutdownTimeoutSeconds int    `mapstructure:"SHUTDOWN_TIMEOUT_SECONDS"`
	CORSAllowedOrigins     string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	DBConnString string `mapstructure:"DB_DSN"`

	// Persisted slots: memory, redis or postgres.
	SlotBackend   string `mapstructure:"SLOT_BACKEND"`
	RedisURL      string `mapstructure:"REDIS_URL"`
	SlotNamespace string `mapstructure:"SLOT_NAMESPACE"`
	SlotTTLHours  int    `mapstructure:"SLOT_TTL_HOURS"`

	// Inventory: notion or postgres. Notion without a token, or with the
	// "demo" database id, serves sample data.
	InventoryBackend        string `mapstructure:"INVENTORY_BACKEND"`
	NotionToken             string `mapstructure:"NOTION_TOKEN"`
	NotionDatabaseID        string `mapstructure:"NOTION_DATABASE_ID"`
	NotionBaseURL           string `mapstructure:"NOTION_BASE_URL"`
	InventoryRefreshMinutes int    `mapstructure:"INVENTORY_REFRESH_MINUTES"`

	StripePublishableKey string `mapstructure:"STRIPE_PUBLISHABLE_KEY"`
	StripeSecretKey      string `mapstructure:"STRIPE_SECRET_KEY"`

	RabbitMQURL     string `mapstructure:"RABBITMQ_URL"`
	OrderExchange   string `mapstructure:"ORDER_EXCHANGE"`
	OrderRoutingKey string `mapstructure:"ORDER_ROUTING_KEY"`

	CheckoutMaxAttempts   int `mapstructure:"CHECKOUT_MAX_ATTEMPTS"`
	CheckoutWindowSeconds int `mapstructure:"CHECKOUT_WINDOW_SECONDS"`
}

// DemoDatabaseID is the placeholder that keeps the storefront on sample data.
const DemoDatabaseID = "demo"

var defaults = map[string]any{
	"APP_NAME":                  "porch-petals",
	"LOG_LEVEL":                 "info",
	"HTTP_ADDR":                 ":8080",
	"SHUTDOWN_TIMEOUT_SECONDS":  10,
	"CORS_ALLOWED_ORIGINS":      "*",
	"DB_DSN":                    "",
	"SLOT_BACKEND":              "memory",
	"REDIS_URL":                 "redis://localhost:6379/0",
	"SLOT_NAMESPACE":            "porch-petals",
	"SLOT_TTL_HOURS":            0,
	"INVENTORY_BACKEND":         "notion",
	"NOTION_TOKEN":              "",
	"NOTION_DATABASE_ID":        DemoDatabaseID,
	"NOTION_BASE_URL":           "https://api.notion.com",
	"INVENTORY_REFRESH_MINUTES": 5,
	"STRIPE_PUBLISHABLE_KEY":    "pk_test_demo",
	"STRIPE_SECRET_KEY":         "",
	"RABBITMQ_URL":              "",
	"ORDER_EXCHANGE":            "porch-petals.orders",
	"ORDER_ROUTING_KEY":         "order.confirmed",
	"CHECKOUT_MAX_ATTEMPTS":     5,
	"CHECKOUT_WINDOW_SECONDS":   60,
}

// Load reads app.env from path when present, then the environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

func (c Config) SlotTTL() time.Duration {
	return time.Duration(c.SlotTTLHours) * time.Hour
}

func (c Config) InventoryRefreshInterval() time.Duration {
	return time.Duration(c.InventoryRefreshMinutes) * time.Minute
}

func (c Config) CheckoutWindow() time.Duration {
	return time.Duration(c.CheckoutWindowSeconds) * time.Second
}

// NotionConfigured reports whether a real workspace database is set up.
func (c Config) NotionConfigured() bool {
	return c.NotionToken != "" && c.NotionDatabaseID != "" && c.NotionDatabaseID != DemoDatabaseID
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
