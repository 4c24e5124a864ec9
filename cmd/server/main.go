package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"labelops-backend/internal/config"
	"labelops-backend/internal/database"
	"labelops-backend/internal/handlers"
	"labelops-backend/internal/middleware"
	"labelops-backend/internal/repository"
	"labelops-backend/internal/router"
	"labelops-backend/internal/store"
	"labelops-backend/internal/telemetry"
	"labelops-backend/internal/websocket"
)

func main() {
	log.Println("🚀 Starting LabelOps Telemetry Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 3: Select Store Engine ────
	var telemetryStore store.Store
	switch cfg.StoreDriver {
	case "postgres":
		if cfg.DatabaseURL == "" {
			log.Fatal("✗ STORE_DRIVER=postgres requires DATABASE_URL")
		}
		pool, err := database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("✗ PostgreSQL connection failed: %v", err)
		}
		defer pool.Close()
		if err := database.RunMigrations(pool, "migrations"); err != nil {
			log.Fatalf("✗ Database migration failed: %v", err)
		}
		telemetryStore = store.NewPostgresStore(pool)
		log.Println("✓ PostgreSQL store ready")
	case "memory":
		telemetryStore = store.NewMemoryStore()
		log.Println("✓ In-memory store ready (non-persistent)")
	default:
		telemetryStore = store.NewRedisStore(redisClients.KV)
		log.Println("✓ Redis store ready")
	}

	// ──── Initialize Repositories ────
	heartbeatRepo := repository.NewHeartbeatRepo(telemetryStore)
	sessionRepo := repository.NewSessionRepo(telemetryStore)
	activityRepo := repository.NewActivityLogRepo(telemetryStore, int64(cfg.ActivityLogCap))

	// ──── Initialize Telemetry Engine ────
	publisher := telemetry.NewHeartbeatPublisher(heartbeatRepo, cfg.HeartbeatInterval)
	evaluator := telemetry.NewPresenceEvaluator(heartbeatRepo, cfg.OnlineThreshold, cfg.PresencePollInterval)
	tracker := telemetry.NewSessionTracker(sessionRepo, cfg.TrackingInterval)
	aggregator := telemetry.NewActivityAggregator(sessionRepo, cfg.TrackingInterval, cfg.MaxLiveSession)
	activityLog := telemetry.NewActivityLog(activityRepo)

	// ──── Step 4: Start WebSocket Hub & Pollers ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	evaluator.OnChange(wsHub.PublishPresence)

	pollCtx, stopPollers := context.WithCancel(context.Background())
	go wsHub.Run(pollCtx)
	go evaluator.Run(pollCtx)
	go aggregator.Run(pollCtx)
	log.Println("✓ Presence and aggregation pollers started")

	// ──── Initialize Handlers ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	telemetryHandler := handlers.NewTelemetryHandler(publisher, tracker, activityLog)
	presenceHandler := handlers.NewPresenceHandler(evaluator)
	statsHandler := handlers.NewStatsHandler(aggregator)
	activityHandler := handlers.NewActivityHandler(activityLog)

	// ──── Step 5: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		telemetryHandler,
		presenceHandler,
		statsHandler,
		activityHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: close tracked sessions and retract heartbeats so
	// peers do not wait out the staleness threshold.
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		tracker.StopAll(shutdownCtx)
		publisher.StopAll(shutdownCtx)
		stopPollers()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("✓ LabelOps Telemetry Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
