package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/loan-tracker/internal/config"
	"github.com/segyhp/loan-tracker/internal/handler"
	"github.com/segyhp/loan-tracker/internal/receipt"
	"github.com/segyhp/loan-tracker/internal/repository"
	"github.com/segyhp/loan-tracker/internal/service"
	"github.com/segyhp/loan-tracker/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.IsDevelopment(),
	})

	// Initialize the loan store
	loanRepo, closeStore, err := repository.Open(context.Background(), cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize loan store: %v", err)
	}
	defer closeStore()

	// Initialize Redis
	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Initialize blob storage
	blobs, err := initBlobStore(cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize blob store: %v", err)
	}

	// Initialize services
	loanService := service.NewLoanService(loanRepo, log, cfg.Location())
	bridge := receipt.NewBridge(blobs, receipt.NewRedisTokenStore(redisClient), cfg.Upload, log)

	healthHandler := handler.NewHealthHandler(map[string]handler.Pinger{
		"store":   loanRepo,
		"redis":   pingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }),
		"storage": blobs,
	}, cfg.Health.Timeout, log)

	router := handler.NewRouter(
		handler.NewLoanHandler(loanService, log),
		handler.NewUploadHandler(bridge, log),
		healthHandler,
		log,
	)

	// Start server
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func initBlobStore(cfg *config.Config, log logrus.FieldLogger) (*receipt.MinioStore, error) {
	store, err := receipt.NewMinioStore(cfg.Blob)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// readiness reports a missing bucket; uploads fail until it exists
	if err := store.EnsureBucket(ctx); err != nil {
		log.WithError(err).Warn("could not ensure receipt bucket")
	}
	return store, nil
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}
