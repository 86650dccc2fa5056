package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"chatstate/config"
	"chatstate/config/database"
	"chatstate/internal/chat/archive"
	"chatstate/internal/chat/service"
	"chatstate/internal/chat/title"
	"chatstate/pkg/logger"
	"chatstate/router"
	"chatstate/socket"
	"chatstate/store"
)

func main() {
	cfg, envFileFound := config.Load()
	logger.Init(cfg.LogLevel)
	defer logger.Log.Sync()

	if !envFileFound {
		logger.Sugar.Info("No .env file found, using environment variables from OS")
	}

	chats := store.New()
	titles := title.NewGenerator(title.Config{
		BaseURL: cfg.UpstreamBaseURL,
		APIKey:  cfg.UpstreamAPIKey,
		Model:   cfg.TitleModel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := service.NewChatService(chats, nil, nil, titles, cfg.MaxMessagesPerDay)

	// The archive is optional; without a database the store is purely in-memory.
	var archiveDone chan struct{}
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			logger.Sugar.Fatalf("Could not connect to archive database: %v", err)
		}
		defer db.Close()

		repo := archive.NewRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			logger.Sugar.Fatalf("Could not prepare archive schema: %v", err)
		}
		worker := archive.NewWorker(repo, chats)
		svc.Archive = worker

		archiveDone = make(chan struct{})
		go func() {
			defer close(archiveDone)
			worker.Run(ctx, cfg.ArchiveInterval)
		}()
	}

	// The hub asks the service who may subscribe to a chat, and the service publishes through the hub.
	hub := socket.NewHub(svc.CanRead)
	svc.Hub = hub
	go hub.Run()

	handler := router.Setup(svc, hub, router.Options{
		JWTSecret:     cfg.JWTSecret,
		DefaultUserID: store.DefaultUserID,
		CORSOrigin:    cfg.CORSOrigin,
	})

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:        serverAddr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		logger.Sugar.Infof("Chat state service listening on %s", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar.Fatalf("Could not listen on %s: %v", serverAddr, err)
		}
	}()

	<-ctx.Done()
	logger.Sugar.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar.Errorf("Server forced to shutdown: %v", err)
	}

	if archiveDone != nil {
		<-archiveDone
	}
	logger.Sugar.Info("Server exiting gracefully")
}
