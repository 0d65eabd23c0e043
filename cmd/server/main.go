package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harshitk-cp/vetpms/internal/api"
	"github.com/Harshitk-cp/vetpms/internal/archetype"
	"github.com/Harshitk-cp/vetpms/internal/buildconfig"
	"github.com/Harshitk-cp/vetpms/internal/config"
	"github.com/Harshitk-cp/vetpms/internal/i18n"
	"github.com/Harshitk-cp/vetpms/internal/mail"
	"github.com/Harshitk-cp/vetpms/internal/store"
	"github.com/Harshitk-cp/vetpms/internal/store/memory"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger, _ := zap.NewProduction()
		bootLogger.Fatal("failed to load config", zap.Error(err))
	}

	logger := newLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()
	logger.Info("starting", zap.String("version", buildconfig.Version()), zap.String("commit", buildconfig.Commit()))

	ctx := context.Background()

	archetypes, err := archetype.Load(cfg.ArchetypesPath)
	if err != nil {
		logger.Fatal("failed to load archetypes", zap.Error(err))
	}
	messages, err := i18n.Load(cfg.MessagesPath)
	if err != nil {
		logger.Fatal("failed to load message catalogs", zap.Error(err))
	}
	logger.Info("loaded descriptors",
		zap.Int("archetypes", len(archetypes.ShortNames("*"))),
		zap.Strings("locales", messages.Locales()))

	deps := api.Deps{
		Archetypes:     archetypes,
		Messages:       messages,
		Mail:           newMailFactory(cfg, messages, logger),
		Logger:         logger,
		DefaultLocale:  cfg.DefaultLocale,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}

	switch cfg.StorageBackend {
	case config.StorageBackendMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		deps.Practices = memory.NewPracticeStore()
		deps.Objects = memory.NewObjectStore()
	default:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			logger.Fatal("failed to ping database", zap.Error(err))
		}
		logger.Info("connected to database")

		if err := store.Migrate(ctx, pool, cfg.MigrationsPath, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		deps.Practices = store.NewPracticeStore(pool)
		deps.Objects = store.NewObjectStore(pool)
		deps.Ping = pool.Ping
	}

	app := api.NewApp(deps)
	app.Start()

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	app.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func newLogger(level string) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := zcfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

func newMailFactory(cfg *config.Config, messages *i18n.Bundle, logger *zap.Logger) mail.Factory {
	if cfg.MailMode == config.MailModeSMTP {
		return mail.NewSMTPFactory(mail.TransportConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		}, cfg.MailFrom, messages, logger)
	}
	return mail.NewLogFactory(cfg.MailFrom, messages, logger)
}
