package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"atrium/api/internal/ai"
	"atrium/api/internal/app"
	"atrium/api/internal/authpw"
	"atrium/api/internal/config"
	"atrium/api/internal/files"
	"atrium/api/internal/kv"
	"atrium/api/internal/search"
	"atrium/api/internal/session"
	"atrium/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	kvStore, err := kv.New(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer kvStore.Close()

	dataStore := store.New(kvStore)

	sessionStore, err := session.NewRedisStore(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer sessionStore.Close()

	passwordService := authpw.NewService(dataStore)

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
	}
	searchService := search.NewService(meiliClient, search.NewMemory(dataStore))
	if meiliClient != nil {
		defer meiliClient.Close()
	}

	var fileService *files.Service
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		fileService, err = files.New(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("object storage setup failed: %v", err)
		}
	} else {
		log.Printf("MINIO_ENDPOINT not set; document attachments disabled")
	}

	aiClient := ai.NewClient(cfg.AIEndpoint, cfg.AITimeout)

	service := app.New(cfg, dataStore, sessionStore, passwordService, searchService, fileService, aiClient)
	if err := service.Bootstrap(ctx); err != nil {
		log.Printf("WARNING: bootstrap error (will retry on next restart): %v", err)
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Atrium API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
