// Package config loads runtime settings from the environment.
//
// Order of precedence (highest first):
//  1. real environment variables
//  2. values from an optional .env file (loaded with godotenv, which never
//     overrides variables that are already set)
//  3. the defaults below
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port      string `mapstructure:"PORT"`
	Env       string `mapstructure:"ENV"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	DBDriver string `mapstructure:"DB_DRIVER"`
	DBDSN    string `mapstructure:"DB_DSN"`

	JWTSecret    string        `mapstructure:"JWT_SECRET"`
	JWTTTL       time.Duration `mapstructure:"JWT_TTL"`
	CookieSecure bool          `mapstructure:"COOKIE_SECURE"`

	TranslatorURL     string        `mapstructure:"TRANSLATOR_URL"`
	TranslatorAPIKey  string        `mapstructure:"TRANSLATOR_API_KEY"`
	TranslatorTimeout time.Duration `mapstructure:"TRANSLATOR_TIMEOUT"`

	// Redis memo; empty RedisAddr disables it.
	RedisAddr          string        `mapstructure:"REDIS_ADDR"`
	RedisPassword      string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB            int           `mapstructure:"REDIS_DB"`
	TranslationMemoTTL time.Duration `mapstructure:"TRANSLATION_MEMO_TTL"`

	// Backfill job; zero interval disables it.
	BackfillInterval time.Duration `mapstructure:"BACKFILL_INTERVAL"`
	BackfillBatch    int           `mapstructure:"BACKFILL_BATCH"`

	TranslateRatePerMin int `mapstructure:"TRANSLATE_RATE_PER_MIN"`
	TranslateBurst      int `mapstructure:"TRANSLATE_BURST"`
}

var defaults = map[string]any{
	"PORT":                   "8080",
	"ENV":                    "development",
	"LOG_LEVEL":              "info",
	"LOG_FORMAT":             "text",
	"DB_DRIVER":              "sqlite",
	"DB_DSN":                 "data/lingoread.db",
	"JWT_SECRET":             "",
	"JWT_TTL":                "336h",
	"COOKIE_SECURE":          false,
	"TRANSLATOR_URL":         "http://localhost:5000/translate",
	"TRANSLATOR_API_KEY":     "",
	"TRANSLATOR_TIMEOUT":     "8s",
	"REDIS_ADDR":             "",
	"REDIS_PASSWORD":         "",
	"REDIS_DB":               0,
	"TRANSLATION_MEMO_TTL":   "24h",
	"BACKFILL_INTERVAL":      "10m",
	"BACKFILL_BATCH":         50,
	"TRANSLATE_RATE_PER_MIN": 60,
	"TRANSLATE_BURST":        20,
}

// Load reads envFile (if it exists) and the environment. Pass "" to skip the
// file entirely.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: reading %s: %w", envFile, err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.DBDriver = strings.ToLower(cfg.DBDriver)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case len(c.JWTSecret) < 16:
		return errors.New("config: JWT_SECRET must be set and at least 16 characters")
	case c.DBDriver != "sqlite" && c.DBDriver != "postgres":
		return fmt.Errorf("config: DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver)
	case c.DBDSN == "":
		return errors.New("config: DB_DSN must be set")
	case c.TranslatorTimeout <= 0:
		return errors.New("config: TRANSLATOR_TIMEOUT must be positive")
	case c.JWTTTL <= 0:
		return errors.New("config: JWT_TTL must be positive")
	case c.BackfillInterval < 0:
		return errors.New("config: BACKFILL_INTERVAL must not be negative")
	case c.BackfillBatch <= 0:
		return errors.New("config: BACKFILL_BATCH must be positive")
	case c.TranslateRatePerMin <= 0 || c.TranslateBurst <= 0:
		return errors.New("config: TRANSLATE_RATE_PER_MIN and TRANSLATE_BURST must be positive")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
