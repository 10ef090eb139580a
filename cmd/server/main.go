package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rohits-web03/docvault/internal/api"
	"github.com/rohits-web03/docvault/internal/api/handlers"
	"github.com/rohits-web03/docvault/internal/api/services"
	"github.com/rohits-web03/docvault/internal/auth"
	"github.com/rohits-web03/docvault/internal/config"
	"github.com/rohits-web03/docvault/internal/extractor"
	"github.com/rohits-web03/docvault/internal/repositories"
	"github.com/rohits-web03/docvault/internal/storage"
	"github.com/rohits-web03/docvault/internal/summarizer"
	"github.com/rohits-web03/docvault/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const sessionCleanupInterval = 5 * time.Minute

// @title DocVault API
// @version 1.0
// @description Upload, summarize, sign and manage documents.
// @BasePath /
func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	if err := run(cfg, zapLogger); err != nil {
		zapLogger.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := repositories.Open(cfg.DBDriver, cfg.DBURL)
	if err != nil {
		return err
	}
	logger.Info("Database connected", zap.String("driver", cfg.DBDriver))

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeIfCloser(store, logger)

	sum, err := summarizer.New(ctx, cfg.Summarizer)
	if err != nil {
		return fmt.Errorf("failed to initialize summarizer: %w", err)
	}
	defer closeIfCloser(sum, logger)

	sessions := auth.NewSessionStore(cfg.SessionTTL, logger)
	tokens := auth.NewTokenManager(cfg.JWTSecret)

	authService := services.NewAuthService(repositories.NewUserRepository(db), sessions, tokens, logger)
	docService := services.NewDocumentService(
		repositories.NewDocumentRepository(db),
		store,
		extractor.New(),
		sum,
		logger,
	)

	if cfg.SeedDummyUsers {
		if err := authService.SeedDummyUsers(ctx); err != nil {
			return err
		}
	}

	router := api.NewRouter(cfg, api.Handlers{
		Auth:      handlers.NewAuthHandler(authService, cfg.IsProduction(), logger),
		Documents: handlers.NewDocumentHandler(docService, cfg.Storage.MaxUploadSize, logger),
	}, auth.Chain{sessions, tokens}, logger)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
		// Uploads and summarizer calls need more time than plain JSON requests.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Summarizer.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sessions.RunCleanup(gctx, sessionCleanupInterval)
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting DocVault server",
			zap.String("port", cfg.Port),
			zap.String("environment", cfg.Environment),
			zap.String("storage", cfg.Storage.Backend),
			zap.String("summarizer", cfg.Summarizer.Provider),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("could not listen on port %s: %w", cfg.Port, err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func closeIfCloser(v any, logger *zap.Logger) {
	if c, ok := v.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Warn("Close failed", zap.Error(err))
		}
	}
}
