package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalogapi/internal/config"
	"catalogapi/internal/db"
	"catalogapi/internal/export"
	"catalogapi/internal/ingestion"
	"catalogapi/internal/middleware"
	"catalogapi/internal/override"
	"catalogapi/internal/query"
	"catalogapi/internal/repository"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connect to database", zap.Error(err))
	}
	defer conn.Close()

	if err := db.RunMigrations(cfg.Database, cfg.Server.MigrationsPath); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	// Repositories
	catalogRepo := repository.NewCatalogRepository(conn.Pool)
	overrideRepo := repository.NewOverrideRepository(conn.Pool)
	generationRepo := repository.NewGenerationRepository(conn.Pool)

	// Services
	ingestionService := ingestion.NewService(catalogRepo, logger.Named("ingestion"))
	overrideStore := override.NewStore(catalogRepo, overrideRepo, generationRepo, logger.Named("override"))
	var exportOpts []export.Option
	if cfg.Server.ExportDir != "" {
		exportOpts = append(exportOpts, export.WithExportDirectory(cfg.Server.ExportDir))
	}
	exportService := export.NewService(catalogRepo, overrideRepo, generationRepo, logger.Named("export"), exportOpts...)

	// HTTP surface
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})
	logging := middleware.Logging(logger.Named("http"))
	wrap := func(h http.Handler) http.Handler {
		return corsHandler.Handler(logging(h))
	}

	mux := http.NewServeMux()
	catalogHandler := wrap(ingestion.NewHTTPHandler(ingestionService, catalogRepo))
	mux.Handle("/catalogs", catalogHandler)
	mux.Handle("/catalogs/", catalogHandler)
	mux.Handle("/query", wrap(query.NewHTTPHandler(catalogRepo, overrideRepo, generationRepo)))
	mux.Handle("/overrides/", wrap(override.NewHTTPHandler(overrideStore)))
	mux.Handle("/export", wrap(export.NewHTTPHandler(exportService)))

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}
