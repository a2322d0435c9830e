package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brancaskitchen/office-rpg/internal/config"
	"github.com/brancaskitchen/office-rpg/internal/handlers"
	"github.com/brancaskitchen/office-rpg/internal/logger"
	"github.com/brancaskitchen/office-rpg/internal/middleware"
	"github.com/brancaskitchen/office-rpg/internal/services"
	"github.com/brancaskitchen/office-rpg/internal/services/queue"
	"github.com/brancaskitchen/office-rpg/internal/storage"
	"github.com/brancaskitchen/office-rpg/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Office RPG API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"generation_url", cfg.GenerationURL)

	var store storage.Storage
	if cfg.RedisURL != "" {
		redisStore := storage.NewRedisStorage(cfg.RedisURL, log)
		storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
		if err := redisStore.WaitForConnection(storageCtx); err != nil {
			storageCancel()
			log.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		storageCancel()
		store = redisStore
		log.Info("Using Redis session storage")
	} else {
		store = storage.NewMemoryStorage()
		log.Warn("REDIS_URL not set, sessions are held in memory and lost on restart")
	}

	gen := services.NewReplicateService(cfg.GenerationURL, cfg.GenerationTimeout)
	images := services.NewWorkerImageService(cfg.ImageURL, cfg.ImageTimeout)
	animations := services.NewWorkerAnimationService(cfg.AnimationURL)

	// The illustration queue needs Redis. Without it, turns simply skip
	// async illustration.
	var illustrations *queue.IllustrationQueue
	if cfg.RedisURL != "" {
		client, err := queue.NewClient(cfg.RedisURL, log)
		if err != nil {
			log.Error("Failed to connect illustration queue", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := client.Close(); err != nil {
				log.Error("Error closing queue connection", "error", err)
			}
		}()
		illustrations = queue.NewIllustrationQueue(client)
	}

	processor := worker.NewTurnProcessor(store, gen, images, animations, illustrations, cfg.GenerationTimeout, log)

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(store, log))

	sessionHandler := handlers.NewSessionHandler(processor, store, log)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)

	mux.Handle("/v1/animations", handlers.NewAnimationsHandler(animations, log))

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(log, mux),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
