package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port          string `mapstructure:"port"`
	DatabaseURL   string `mapstructure:"database_url"`
	MongoDatabase string `mapstructure:"mongo_database"`

	JWTSecret    string        `mapstructure:"jwt_secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	CookieDomain string        `mapstructure:"cookie_domain"`

	ClientURL      string `mapstructure:"client_url"`
	AllowedOrigins string `mapstructure:"allowed_origins"`

	StripeSecretKey string        `mapstructure:"stripe_secret_key"`
	PaymentCurrency string        `mapstructure:"payment_currency"`
	PaymentTimeout  time.Duration `mapstructure:"payment_timeout"`

	SendGridAPIKey string        `mapstructure:"sendgrid_api_key"`
	EmailFrom      string        `mapstructure:"email_from"`
	EmailFromName  string        `mapstructure:"email_from_name"`
	EmailTimeout   time.Duration `mapstructure:"email_timeout"`

	UploadDir string `mapstructure:"upload_dir"`
	S3Bucket  string `mapstructure:"s3_bucket"`
	S3Region  string `mapstructure:"s3_region"`

	DiscordWebhookURL string `mapstructure:"discord_webhook_url"`
	SlackWebhookURL   string `mapstructure:"slack_webhook_url"`

	SweepInterval        time.Duration `mapstructure:"sweep_interval"`
	AllowManualDonations bool          `mapstructure:"allow_manual_donations"`
}

var defaults = map[string]interface{}{
	"port":                   "5000",
	"database_url":           "sqlite://fundflow.db",
	"mongo_database":         "fundflow",
	"jwt_secret":             "",
	"token_ttl":              "168h",
	"cookie_domain":          "",
	"client_url":             "http://localhost:3000",
	"allowed_origins":        "",
	"stripe_secret_key":      "",
	"payment_currency":       "usd",
	"payment_timeout":        "15s",
	"sendgrid_api_key":       "",
	"email_from":             "",
	"email_from_name":        "FundFlow",
	"email_timeout":          "10s",
	"upload_dir":             "uploads",
	"s3_bucket":              "",
	"s3_region":              "us-east-1",
	"discord_webhook_url":    "",
	"slack_webhook_url":      "",
	"sweep_interval":         "1h",
	"allow_manual_donations": false,
}

// Load reads .env (if present), the environment and an optional YAML file.
// Environment variables win over the file.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Error loading .env file: %v", err)
	}

	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	if c.PaymentTimeout <= 0 || c.EmailTimeout <= 0 {
		return fmt.Errorf("payment and email timeouts must be positive")
	}

	return nil
}
