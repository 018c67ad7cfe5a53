package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Environment    string        `mapstructure:"ENV"`
	HTTPAddr       string        `mapstructure:"HTTP_ADDR"`
	Storage        string        `mapstructure:"STORAGE"`
	DBDSN          string        `mapstructure:"DB_DSN"`
	MigrationsPath string        `mapstructure:"MIGRATIONS_PATH"`
	RedisAddr      string        `mapstructure:"REDIS_ADDR"`
	RedisPassword  string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int           `mapstructure:"REDIS_DB"`
	ViewTTL        time.Duration `mapstructure:"VIEW_TTL"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	TelegramToken  string        `mapstructure:"TELEGRAM_TOKEN"`
	AuditInterval  time.Duration `mapstructure:"AUDIT_INTERVAL"`
	WeeksAhead     int           `mapstructure:"RECURRING_WEEKS_AHEAD"`
	Timezone       string        `mapstructure:"TIMEZONE"`
	EventWorkers   int           `mapstructure:"EVENT_WORKERS"`

	// Location is Timezone resolved by Load
	Location *time.Location `mapstructure:"-"`
}

var defaults = map[string]any{
	"ENV":                   "development",
	"HTTP_ADDR":             ":8080",
	"STORAGE":               StoragePostgres,
	"DB_DSN":                "",
	"MIGRATIONS_PATH":       "migrations",
	"REDIS_ADDR":            "",
	"REDIS_PASSWORD":        "",
	"REDIS_DB":              0,
	"VIEW_TTL":              30 * time.Second,
	"JWT_SECRET":            "",
	"TELEGRAM_TOKEN":        "",
	"AUDIT_INTERVAL":        10 * time.Minute,
	"RECURRING_WEEKS_AHEAD": 4,
	"TIMEZONE":              "UTC",
	"EVENT_WORKERS":         8,
}

// Load reads .env (if present) and the environment
func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем, если файла нет)
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	return cfg, nil
}

func (c *Config) validate() error {
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))

	switch c.Storage {
	case StoragePostgres:
		if c.DBDSN == "" {
			return errors.New("DB_DSN is required when STORAGE=postgres")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("STORAGE must be postgres or memory, got %q", c.Storage)
	}

	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required but not set")
	}
	if c.ViewTTL <= 0 {
		return errors.New("VIEW_TTL must be positive")
	}
	if c.AuditInterval <= 0 {
		return errors.New("AUDIT_INTERVAL must be positive")
	}
	if c.WeeksAhead <= 0 {
		return errors.New("RECURRING_WEEKS_AHEAD must be positive")
	}
	if c.EventWorkers < 0 {
		return errors.New("EVENT_WORKERS must not be negative")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
