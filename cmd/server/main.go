// Command server runs the lingoread API.
//
// main only reads configuration, builds the long-lived dependencies
// (logger, database, translator, memo) and hands them to internal/server.
// Everything else lives in internal/.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/sakif/lingoread/internal/cache"
	"github.com/sakif/lingoread/internal/config"
	"github.com/sakif/lingoread/internal/repository/sqlstore"
	"github.com/sakif/lingoread/internal/server"
	"github.com/sakif/lingoread/internal/translator/libre"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	db, err := sqlstore.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Error("failed to open database",
			slog.String("driver", cfg.DBDriver),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	provider := libre.New(libre.Config{
		URL:     cfg.TranslatorURL,
		APIKey:  cfg.TranslatorAPIKey,
		Timeout: cfg.TranslatorTimeout,
	}, logger)

	// The memo is optional: without Redis every lookup goes to the table.
	var memo cache.Memo = cache.Nop{}
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		r, err := cache.NewRedis(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, translation memo disabled", slog.String("error", err.Error()))
		} else {
			memo = r
			logger.Info("translation memo enabled", slog.String("addr", cfg.RedisAddr))
		}
	}

	srv, err := server.New(cfg, db, provider, memo, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		db.Close()
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
