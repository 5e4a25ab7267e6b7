package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/theLastOfCats/mylibrary-server/internal/api"
	"github.com/theLastOfCats/mylibrary-server/internal/auth"
	"github.com/theLastOfCats/mylibrary-server/internal/catalog"
	"github.com/theLastOfCats/mylibrary-server/internal/config"
	"github.com/theLastOfCats/mylibrary-server/internal/db"
	"github.com/theLastOfCats/mylibrary-server/internal/mail"
	"github.com/theLastOfCats/mylibrary-server/internal/ratelimit"
	"github.com/theLastOfCats/mylibrary-server/internal/templates"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:          "mylibrary",
	Short:        "Personal library and wishlist server",
	Version:      Version,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, lookupCmd, searchCmd, tokenCmd)
}

// setup loads config and installs the process logger.
func setup(w io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(w, cfg.Log)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newCatalogClient(cfg config.CatalogConfig, logger *slog.Logger) *catalog.Client {
	return catalog.NewClient(catalog.Options{
		BaseURL:           cfg.BaseURL,
		APIKey:            cfg.APIKey,
		PageSize:          cfg.PageSize,
		Timeout:           cfg.Timeout.Std(),
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
	}, logger)
}

// newReserveLimiter returns nil when reservations are not rate limited.
func newReserveLimiter(cfg config.ReservationConfig) *ratelimit.KeyedRateLimiter {
	if cfg.RequestsPerMinute <= 0 {
		return nil
	}
	return ratelimit.PerMinute(cfg.RequestsPerMinute, cfg.Burst)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, logger, err := setup(os.Stdout)
	if err != nil {
		return err
	}
	if config.IsDevMode() {
		logger.Warn("dev mode: secret validation skipped")
	}

	database, err := db.New(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()
	logger.Info("database ready", "dialect", database.Dialect)

	tmpl := templates.NewManager()
	reserveLimiter := newReserveLimiter(cfg.Reservation)
	if reserveLimiter != nil {
		defer reserveLimiter.Stop()
	}

	router := api.NewRouter(api.Deps{
		DB:        database,
		Catalog:   newCatalogClient(cfg.Catalog, logger),
		Verifier:  auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		Templates: tmpl,
		Notifier: &mail.Notifier{
			Sender:    mail.NewSender(cfg.Mail, logger),
			Templates: tmpl,
			BaseURL:   cfg.Server.BaseURL,
			Logger:    logger,
		},
		ReserveLimiter: reserveLimiter,
		Logger:         logger,
		CORSOrigins:    cfg.Server.CORSOrigins,
		ExposeAllBooks: cfg.Server.ExposeAllBooks,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "address", addr, "version", Version)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	default:
	}
	logger.Info("shutdown complete")
	return nil
}
