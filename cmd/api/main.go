package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ontoview/infrastructure/config"
	"ontoview/infrastructure/di"
	"ontoview/interfaces/http/rest"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	logger := container.Logger

	// Layout computation happens on its own goroutine for the life of the
	// process
	go container.LayoutWorker.Run(ctx)

	// Hot-reload diagram limits and link policy when the overlay file changes
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		watcher := config.NewWatcher(path, func(next *config.Config) {
			container.Service.SetConfig(next.Domain())
			logger.Info("applied reloaded configuration",
				zap.Int("max_elements", next.MaxElementsPerDiagram),
				zap.Int("max_links", next.MaxLinksPerDiagram),
				zap.Bool("allow_self_links", next.AllowSelfLinks),
			)
		}, logger)
		go func() {
			if err := watcher.Run(ctx); err != nil && err != context.Canceled {
				logger.Warn("config watcher stopped", zap.Error(err))
			}
		}()
	}

	router := rest.NewRouter(
		container.Service,
		container.Coordinator,
		container.Hub,
		container.Metrics,
		cfg,
		logger,
	)
	handler, err := router.Setup()
	if err != nil {
		logger.Fatal("Failed to set up routes", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // streaming endpoint needs unbounded writes
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.String("provider", cfg.ProviderBackend),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
	container.Hub.Close()
	cancel()

	if err := logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}
	log.Println("Server stopped")
}
