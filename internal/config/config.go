package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	Port                  string   `env:"PORT" envDefault:"8080"`
	DatabaseURL           string   `env:"DATABASE_URL,required,notEmpty"`
	JWTSecret             string   `env:"JWT_SECRET,required,notEmpty"`
	JWTIssuer             string   `env:"JWT_ISSUER" envDefault:"indorunners"`
	AccessTTLSeconds      int64    `env:"ACCESS_TTL_SECONDS" envDefault:"14400"`
	RefreshTTLSeconds     int64    `env:"REFRESH_TTL_SECONDS" envDefault:"1209600"`
	MediaStoragePath      string   `env:"MEDIA_STORAGE_PATH" envDefault:"storage/media"`
	MaxProofBytes         int64    `env:"MAX_PROOF_BYTES" envDefault:"5242880"`
	MetricsDiskPath       string   `env:"METRICS_DISK_PATH" envDefault:"storage/media"`
	MetricsSampleSeconds  int      `env:"METRICS_SAMPLE_INTERVAL" envDefault:"5"`
	MetricsRetentionHours int      `env:"METRICS_RETENTION_HOURS" envDefault:"24"`
	CorsOrigins           []string `env:"CORS_ORIGINS" envSeparator:","`
	AdminSetupKey         string   `env:"ADMIN_SETUP_KEY"`
	AdminOwnershipScope   bool     `env:"ADMIN_OWNERSHIP_SCOPE" envDefault:"true"`
	QueryTimeoutSeconds   int      `env:"QUERY_TIMEOUT_SECONDS" envDefault:"5"`
	AMQPURL               string   `env:"AMQP_URL"`
	AMQPExchange          string   `env:"AMQP_EXCHANGE" envDefault:"indorunners.lifecycle"`
	LogDir                string   `env:"LOG_DIR" envDefault:"storage/logs"`
	LogRetentionDays      int      `env:"LOG_RETENTION_DAYS" envDefault:"7"`
	LogLevel              string   `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file and then the process environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && len(files) > 0 {
		return Config{}, fmt.Errorf("load env files: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.CorsOrigins = cleanList(cfg.CorsOrigins)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.AccessTTLSeconds <= 0 || c.RefreshTTLSeconds <= 0 {
		return errors.New("token ttls must be positive")
	}
	if c.MetricsSampleSeconds <= 0 {
		c.MetricsSampleSeconds = 5
	}
	if c.QueryTimeoutSeconds <= 0 {
		c.QueryTimeoutSeconds = 5
	}
	// log files are kept for a week at most
	if c.LogRetentionDays <= 0 || c.LogRetentionDays > 7 {
		c.LogRetentionDays = 7
	}
	return nil
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLSeconds) * time.Second
}

func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLSeconds) * time.Second
}

func (c Config) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSeconds) * time.Second
}

func (c Config) MetricsInterval() time.Duration {
	return time.Duration(c.MetricsSampleSeconds) * time.Second
}

func (c Config) MetricsRetention() time.Duration {
	return time.Duration(c.MetricsRetentionHours) * time.Hour
}

func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

func cleanList(raw []string) []string {
	if len(raw) == 0 {
		return nil
	}
	items := make([]string, 0, len(raw))
	for _, part := range raw {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	if len(items) == 0 {
		return nil
	}
	return items
}
