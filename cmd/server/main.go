package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"flowforge/internal/cache"
	"flowforge/internal/config"
	"flowforge/internal/handler"
	"flowforge/internal/llm"
	"flowforge/internal/llm/claude"
	"flowforge/internal/llm/gemini"
	"flowforge/internal/llm/openai"
	"flowforge/internal/middleware"
	"flowforge/internal/pipeline"
	"flowforge/internal/port"
	"flowforge/internal/repository/postgres"
	"flowforge/internal/router"
	"flowforge/internal/service"
	s3archive "flowforge/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log.SetFlags(cfg.Log.Flags())
	gin.SetMode(cfg.Log.GinMode(cfg.Server.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// LLM providers
	llm.RegisterProvider("claude", claude.Factory)
	llm.RegisterProvider("openai", openai.Factory)
	llm.RegisterProvider("gemini", gemini.Factory)

	gateway, err := llm.NewFromConfig(&cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to initialize llm gateway: %w", err)
	}

	// Result cache. While Redis is unreachable every lookup is a miss; the
	// client reconnects on its own once Redis comes back.
	redisClient := connectRedis(ctx, &cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
	}
	fingerprintCache := cache.NewFingerprintCache(redisClient, cfg.Cache.TTL)

	orchestrator := pipeline.NewOrchestrator(gateway, fingerprintCache, pipeline.ConfigFrom(&cfg.Pipeline))

	// Optional audit log
	var runRepo port.ParseRunRepository
	if cfg.DB.Enabled {
		db, err := postgres.NewDB(&cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		runRepo = postgres.NewParseRunRepo(db)
	}

	// Optional result archive
	var archive port.ResultArchive
	if cfg.Archive.Enabled {
		archive, err = s3archive.NewResultArchive(ctx, &cfg.Archive)
		if err != nil {
			return fmt.Errorf("failed to initialize result archive: %w", err)
		}
	}

	processSvc := service.NewProcessService(orchestrator, gateway, fingerprintCache, runRepo, archive, service.ProcessConfig{
		MaxInputChars: cfg.Pipeline.MaxInputChars,
		CallTimeout:   cfg.Pipeline.CallTimeout(),
		ArchivePrefix: cfg.Archive.Prefix,
	})

	// Handlers
	var cachePinger, dbPinger handler.Pinger
	if redisClient != nil {
		cachePinger = fingerprintCache
	}
	if runRepo != nil {
		dbPinger = runRepo
	}
	processH := handler.NewProcessHandler(processSvc)
	runH := handler.NewRunHandler(processSvc)
	cacheH := handler.NewCacheHandler(processSvc)
	healthH := handler.NewHealthHandler(cachePinger, dbPinger)

	var verifier *middleware.TokenVerifier
	if cfg.JWT.Secret != "" {
		verifier = middleware.NewTokenVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)
	} else {
		log.Printf("main: FLOWFORGE_JWT_SECRET is empty, API is unauthenticated")
	}

	r := router.Setup(verifier, cfg.CORS.AllowedOrigins, processH, runH, cacheH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// connectRedis returns nil when the cache is disabled or misconfigured. A
// failed startup ping is only logged.
func connectRedis(ctx context.Context, cfg *config.RedisConfig) *redis.Client {
	if !cfg.Enabled {
		log.Printf("main: redis disabled, result cache off")
		return nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		log.Printf("main: invalid redis url, result cache off: %v", err)
		return nil
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("main: redis unreachable at %s, cache degraded until it recovers: %v", opts.Addr, err)
		return client
	}
	log.Printf("main: connected to redis at %s", opts.Addr)
	return client
}
