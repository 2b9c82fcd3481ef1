package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"drivesafe-backend/internal/config"
	"drivesafe-backend/internal/database"
	"drivesafe-backend/internal/handlers"
	"drivesafe-backend/internal/logger"
	"drivesafe-backend/internal/middleware"
	"drivesafe-backend/internal/repository"
	"drivesafe-backend/internal/router"
	"drivesafe-backend/internal/services"
	"drivesafe-backend/internal/websocket"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	log.Info("starting DriveSafe backend", zap.String("env", cfg.Env))
	log.Info("✓ environment variables loaded")

	// ──── Step 2: Initialize Conversation Log ────
	var messageLog repository.MessageLog
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatal("✗ redis connection failed", zap.Error(err))
		}
		defer redisClient.Close()
		messageLog = repository.NewRedisMessageLog(redisClient, cfg.ChatHistoryCapacity, cfg.ChatHistoryTTL)
		log.Info("✓ redis connected, chat log stored in redis")
	} else {
		messageLog = repository.NewMemoryMessageLog(cfg.ChatHistoryCapacity, cfg.ChatHistoryTTL)
		log.Info("✓ chat log kept in memory (REDIS_URL not set)")
	}

	// ──── Step 3: Initialize PostgreSQL and Run Migrations ────
	var assessmentRepo *repository.AssessmentRepo
	if cfg.DatabaseURL != "" {
		pool, err := database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("✗ postgres connection failed", zap.Error(err))
		}
		defer pool.Close()

		if err := database.RunMigrations(pool, cfg.MigrationsDir, log); err != nil {
			log.Fatal("✗ database migration failed", zap.Error(err))
		}
		assessmentRepo = repository.NewAssessmentRepo(pool)
		log.Info("✓ postgres connected, assessment history enabled")
	} else {
		log.Info("✓ assessment history disabled (DATABASE_URL not set)")
	}

	// ──── Step 4: Initialize Gemini Client ────
	geminiCfg := services.GeminiConfig{
		Endpoint: cfg.GeminiEndpoint,
		Model:    cfg.GeminiModel,
		APIKey:   cfg.GeminiAPIKey,
		Timeout:  cfg.ChatTimeout,
	}

	var generator services.Generator
	switch cfg.GeminiBackend {
	case "sdk":
		sdk, err := services.NewSDKGenerator(context.Background(), geminiCfg)
		if err != nil {
			log.Fatal("✗ gemini sdk initialization failed", zap.Error(err))
		}
		defer sdk.Close()
		generator = sdk
	case "rest":
		generator = services.NewGeminiClient(geminiCfg, nil)
	default:
		log.Fatal("✗ unknown GEMINI_BACKEND", zap.String("backend", cfg.GeminiBackend))
	}
	log.Info("✓ gemini client initialized",
		zap.String("backend", cfg.GeminiBackend),
		zap.String("model", cfg.GeminiModel),
	)

	// ──── Initialize Services ────
	sessionAuth := middleware.NewSessionAuth(cfg.SessionSecret, cfg.SessionTTL)
	chatService := services.NewChatService(generator, cfg.GeminiBackend, messageLog, log, cfg.GeminiConcurrentReqs)

	// ──── Initialize Handlers ────
	sessionHandler := handlers.NewSessionHandler(sessionAuth, cfg.SessionTTL)
	chatHandler := handlers.NewChatHandler(chatService, log)
	// A nil *AssessmentRepo must not reach the handler as a non-nil interface.
	var safetyHandler *handlers.SafetyHandler
	if assessmentRepo != nil {
		safetyHandler = handlers.NewSafetyHandler(assessmentRepo, cfg.StrictSafetyInput, log)
	} else {
		safetyHandler = handlers.NewSafetyHandler(nil, cfg.StrictSafetyInput, log)
	}

	// ──── Step 5: Start WebSocket Hub ────
	wsHub := websocket.NewHub(chatService, sessionAuth, log)
	log.Info("✓ websocket hub started")

	// ──── Step 6: Start HTTP Server ────
	// Session issuing rate limiter (10 req/min per IP)
	sessionLimiter := middleware.NewRateLimiter(10, time.Minute)
	defer sessionLimiter.Stop()

	r := router.New(
		sessionAuth,
		sessionLimiter,
		sessionHandler,
		safetyHandler,
		chatHandler,
		wsHub,
		cfg.FrontendURL,
		cfg.ChatRouteTimeout(),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down")
		wsHub.CloseAll()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Info("✓ DriveSafe backend ready",
		zap.String("api", fmt.Sprintf("http://localhost:%s/api/v1", cfg.Port)),
		zap.String("ws", fmt.Sprintf("ws://localhost:%s/api/v1/chat/ws", cfg.Port)),
	)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal("server error", zap.Error(err))
	}
}
