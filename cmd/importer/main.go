package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/question-import-service/internal/bundle"
	"github.com/SAP-F-2025/question-import-service/internal/cache"
	"github.com/SAP-F-2025/question-import-service/internal/config"
	"github.com/SAP-F-2025/question-import-service/internal/events"
	"github.com/SAP-F-2025/question-import-service/internal/handlers"
	"github.com/SAP-F-2025/question-import-service/internal/repositories"
	"github.com/SAP-F-2025/question-import-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/question-import-service/internal/services"
	"github.com/SAP-F-2025/question-import-service/internal/storage"
	"github.com/SAP-F-2025/question-import-service/internal/utils"
	"github.com/SAP-F-2025/question-import-service/internal/validator"
	"github.com/SAP-F-2025/question-import-service/pkg"
)

func main() {
	os.Exit(run())
}

func run() int {
	file := flag.String("file", "", "import a bundle or sheet once and print the result as JSON")
	owner := flag.String("owner", "", "owner recorded for a -file import")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return 1
	}

	logger := utils.NewLogger(cfg.Environment)
	slogger := utils.ToSlogLogger(logger)

	service, cleanup, err := buildImportService(cfg, slogger)
	if err != nil {
		logger.LogError(err, "Failed to initialise import service")
		return 1
	}
	defer cleanup()

	if *file != "" {
		return importOnce(service, *file, *owner)
	}
	return serve(cfg, service, logger)
}

func buildImportService(cfg *config.Config, logger *slog.Logger) (services.ImportService, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	media, err := storage.NewFSStore(cfg.MediaBasePath, logger)
	if err != nil {
		return nil, cleanup, err
	}

	jobCache := cache.NewMemoryCache()
	if cfg.RedisURL != "" {
		client, err := pkg.NewRedisClient(cfg)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, func() { client.Close() })
		jobCache = cache.NewRedisCache(client, logger)
	}

	var repo repositories.QuestionRepository
	if cfg.PersistQuestions {
		db, err := pkg.InitDatabase(cfg)
		if err != nil {
			return nil, cleanup, err
		}
		repo = postgres.NewQuestionPostgreSQL(db)
	}

	publisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		publisher = events.NewMockEventPublisher(logger)
	}
	closers = append(closers, func() {
		if err := publisher.Close(); err != nil {
			logger.Error("Failed to close event publisher", "error", err)
		}
	})

	service := services.NewImportService(
		services.NewJobStore(jobCache, cfg.ImportJobTTL),
		media,
		repo,
		publisher,
		validator.New(),
		logger,
		services.ImportOptions{
			WorkDir: cfg.WorkDir,
			Limits: bundle.Limits{
				MaxUnpackedBytes: cfg.MaxUnpackedBytes,
				MaxEntries:       cfg.MaxBundleEntries,
			},
		},
	)
	return service, cleanup, nil
}

func importOnce(service services.ImportService, path, owner string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := service.ImportFile(ctx, path, owner)
	if err != nil {
		fmt.Fprintf(os.Stderr, "import error: %v\n", err)
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "encode error: %v\n", err)
		return 1
	}
	return 0
}

func serve(cfg *config.Config, service services.ImportService, logger utils.Logger) int {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), utils.LoggerMiddleware(logger))

	auth := handlers.AnonymousMiddleware()
	if cfg.Auth.Enabled {
		client := casdoorsdk.NewClient(
			cfg.Auth.Endpoint,
			cfg.Auth.ClientID,
			cfg.Auth.ClientSecret,
			cfg.Auth.Certificate,
			cfg.Auth.Organization,
			cfg.Auth.Application,
		)
		auth = handlers.AuthMiddleware(client, logger)
	}
	handlers.NewHandlerManager(service, cfg.MaxUploadBytes, logger).SetupRoutes(router, auth)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting question import service", "addr", server.Addr, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.LogError(err, "Server error")
		exitCode = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.LogError(err, "Graceful shutdown failed")
	}
	return exitCode
}
