package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"campaign-sync-service/internal/api"
	"campaign-sync-service/internal/config"
	"campaign-sync-service/internal/logger"
	"campaign-sync-service/internal/platform"
	"campaign-sync-service/internal/store"
	"campaign-sync-service/internal/sync"
)

func main() {
	// Load Config
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Init Logger
	if err := logger.InitLogger(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Log.Info("Starting Campaign Sync Service")

	// Init Store
	st, err := store.NewMySQLStore(cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to init store", zap.Error(err))
	}
	defer st.Close()

	// Register Platform Integrations
	registry := platform.NewRegistry()
	if cfg.Platforms.Reddit.Enabled {
		registry.Register(platform.PlatformReddit, platform.NewRedditIntegration(cfg.Platforms.Reddit))
	}
	if cfg.Platforms.Mock.Enabled {
		registry.Register(platform.PlatformMock, platform.NewMockIntegration(cfg.Platforms.Mock))
	}
	logger.Log.Info("Registered platforms", zap.Strings("platforms", registry.Platforms()))

	// Init Sync Manager
	syncManager := sync.NewManager(cfg, st, registry)
	if err := syncManager.Start(); err != nil {
		logger.Log.Fatal("Failed to start sync manager", zap.Error(err))
	}

	// Retry Scheduler
	scheduler := sync.NewScheduler(cfg.Scheduler, st)
	scheduler.Start()

	// Init API
	handler := api.NewHandler(syncManager, st)
	router := handler.Routes()

	// Start Server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.GetReadTimeout(),
		WriteTimeout: cfg.Server.GetWriteTimeout(),
	}

	go func() {
		logger.Log.Info("Server listening", zap.String("addr", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down server...")
	scheduler.Stop()
	syncManager.Stop()
}
