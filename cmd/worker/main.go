package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brancaskitchen/office-rpg/internal/config"
	"github.com/brancaskitchen/office-rpg/internal/logger"
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

	log.Info("Starting Office RPG illustration worker",
		"environment", cfg.Environment,
		"image_url", cfg.ImageURL)

	if cfg.RedisURL == "" {
		log.Error("REDIS_URL is required for the illustration worker")
		os.Exit(1)
	}

	store := storage.NewRedisStorage(cfg.RedisURL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := store.WaitForConnection(storageCtx); err != nil {
		storageCancel()
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	storageCancel()

	client, err := queue.NewClient(cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to connect illustration queue", "error", err)
		os.Exit(1)
	}

	images := services.NewWorkerImageService(cfg.ImageURL, cfg.ImageTimeout)
	illustrator := worker.NewIllustrator(store, images, queue.NewIllustrationQueue(client), log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := illustrator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Worker stopped with error", "error", err)
	}

	if err := client.Close(); err != nil {
		log.Error("Error closing queue connection", "error", err)
	}
	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}
	log.Info("Worker exited")
}
