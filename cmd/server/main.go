package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	i18n "github.com/goliatone/go-i18n"
	"github.com/goliatone/go-ticketing/internal/di"
	"github.com/goliatone/go-ticketing/internal/transport/httpapi"
	"github.com/goliatone/go-ticketing/pkg/adapters"
	"github.com/goliatone/go-ticketing/pkg/adapters/aws_ses"
	"github.com/goliatone/go-ticketing/pkg/adapters/console"
	"github.com/goliatone/go-ticketing/pkg/adapters/smtp"
	"github.com/goliatone/go-ticketing/pkg/config"
	"github.com/goliatone/go-ticketing/pkg/domain"
	"github.com/goliatone/go-ticketing/pkg/interfaces/logger"
	"github.com/goliatone/go-ticketing/pkg/storage"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a JSON config file")
	flag.Parse()

	lgr := logger.New()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, cleanup, err := buildStorage(ctx, cfg, lgr)
	if err != nil {
		return err
	}
	defer cleanup()

	translator, err := i18n.NewSimpleTranslator(
		i18n.NewStaticStore(nil),
		i18n.WithTranslatorDefaultLocale(cfg.Email.DefaultLocale),
	)
	if err != nil {
		return fmt.Errorf("build translator: %w", err)
	}

	container, err := di.New(di.Options{
		Config:     cfg,
		Storage:    providers,
		Logger:     lgr,
		Translator: translator,
		Adapters:   buildMessengers(cfg, lgr),
	})
	if err != nil {
		return err
	}
	defer container.Close()

	api, err := httpapi.NewServer(httpapi.Dependencies{
		Auth:              container.Auth,
		Events:            container.Events,
		Ledger:            container.Ledger,
		Dashboard:         container.Dashboard,
		Hub:               container.Hub,
		Logger:            lgr,
		HeartbeatInterval: cfg.Realtime.HeartbeatInterval,
		DisableRealtime:   cfg.Realtime.Disabled,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		lgr.Info("server listening", logger.F("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	lgr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// loadConfig merges defaults, an optional JSON file, and environment
// overrides for the settings that commonly change per deployment.
func loadConfig(path string) (config.Config, error) {
	input := map[string]any{}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return config.Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := json.Unmarshal(raw, &input); err != nil {
			return config.Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(input, "server", "addr", prefixEnv("PORT", ":"))
	applyEnv(input, "auth", "secret", os.Getenv("AUTH_SECRET"))
	applyEnv(input, "database", "driver", os.Getenv("DATABASE_DRIVER"))
	applyEnv(input, "database", "dsn", os.Getenv("DATABASE_DSN"))
	applyEnv(input, "email", "provider", os.Getenv("EMAIL_PROVIDER"))

	return config.Load(input)
}

func prefixEnv(name, prefix string) string {
	if v := os.Getenv(name); v != "" {
		return prefix + v
	}
	return ""
}

func applyEnv(input map[string]any, section, key, value string) {
	if value == "" {
		return
	}
	child, ok := input[section].(map[string]any)
	if !ok {
		child = map[string]any{}
		input[section] = child
	}
	child[key] = value
}

func buildStorage(ctx context.Context, cfg config.Config, lgr logger.Logger) (storage.Providers, func(), error) {
	if cfg.Database.Driver == "memory" {
		lgr.Info("using in-memory storage")
		return storage.NewMemoryProviders(), func() {}, nil
	}

	sqldb, err := sql.Open(sqliteshim.DriverName(), cfg.Database.DSN)
	if err != nil {
		return storage.Providers{}, nil, fmt.Errorf("open database: %w", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())

	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return storage.Providers{}, nil, err
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			lgr.Warn("close database", logger.F("error", err))
		}
	}
	lgr.Info("using sqlite storage", logger.F("dsn", cfg.Database.DSN))
	return storage.NewBunProviders(db), cleanup, nil
}

func ensureSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*domain.Event)(nil),
		(*domain.Ticket)(nil),
		(*domain.User)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}
	return nil
}

func buildMessengers(cfg config.Config, lgr logger.Logger) []adapters.Messenger {
	messengers := []adapters.Messenger{console.New(lgr)}

	if cfg.Email.SMTPHost != "" {
		messengers = append(messengers, smtp.New(lgr,
			smtp.WithHostPort(cfg.Email.SMTPHost, cfg.Email.SMTPPort),
			smtp.WithCredentials(cfg.Email.SMTPUsername, cfg.Email.SMTPPassword),
			smtp.WithFrom(cfg.Email.From),
		))
	}
	if cfg.Email.SESRegion != "" {
		messengers = append(messengers, aws_ses.New(lgr,
			aws_ses.WithConfig(aws_ses.Config{From: cfg.Email.From, Region: cfg.Email.SESRegion}),
		))
	}
	return messengers
}
