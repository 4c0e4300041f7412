package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/resto-agent/backend/internal/actions"
	"github.com/resto-agent/backend/internal/api/handlers"
	"github.com/resto-agent/backend/internal/apperrors"
	"github.com/resto-agent/backend/internal/cache/redis"
	"github.com/resto-agent/backend/internal/conversation"
	"github.com/resto-agent/backend/internal/dataaccess"
	"github.com/resto-agent/backend/internal/feedback"
	"github.com/resto-agent/backend/internal/llm"
	"github.com/resto-agent/backend/internal/metrics"
	"github.com/resto-agent/backend/internal/middleware/ratelimit"
	"github.com/resto-agent/backend/internal/middleware/security"
	"github.com/resto-agent/backend/internal/middleware/validation"
	"github.com/resto-agent/backend/internal/processor"
	"github.com/resto-agent/backend/internal/resolution"
	"github.com/resto-agent/backend/internal/response"
	"github.com/resto-agent/backend/internal/storage/sqlite"
	"github.com/resto-agent/backend/pkg/config"
	"github.com/resto-agent/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting restaurant operations assistant")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path, log)
	if err != nil {
		log.Fatal("failed to open sqlite database", zap.Error(err))
	}
	defer sqliteClient.Close()

	if err := sqliteClient.InitSchema(); err != nil {
		log.Fatal("failed to initialize schema", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, log)
		if err != nil {
			// The cache is an accelerator, not a dependency.
			log.Warn("redis unavailable, continuing without query cache", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
		cfg.LLM.TimeoutSec,
		log,
	)
	classifier := llm.NewClassifier(llmClient, log)
	sqlGenerator := llm.NewSQLGenerator(llmClient, cfg.LLM.SQLRowCap, log)

	errHandler := apperrors.NewHandler(log)
	sessions := conversation.NewManager(log)
	resolver := resolution.NewService(log)
	responses := response.NewService(log)
	dates := conversation.NewDateContextProvider(redisClient, log)

	cacheTTL := time.Duration(cfg.Redis.CacheTTL) * time.Second
	dataLayer := dataaccess.NewLayer(sqliteClient, redisClient, cacheTTL, cfg.Limits.RetryAttempts, log)

	executor := actions.NewExecutor(sqliteClient, false, log)

	feedbackStore, err := buildFeedbackStore(cfg, sqliteClient)
	if err != nil {
		log.Fatal("failed to initialize feedback store", zap.Error(err))
	}
	statsTTL := time.Duration(cfg.Feedback.StatsTTL) * time.Second
	feedbackService := feedback.NewService(feedbackStore, sqliteClient, statsTTL, log)

	proc := processor.New(
		classifier,
		sqlGenerator,
		dataLayer,
		resolver,
		executor,
		responses,
		sessions,
		feedbackService,
		sqliteClient,
		dates,
		errHandler,
		processor.Config{UseCache: redisClient != nil},
		log,
	)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Session-ID",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		IsDevelopment: cfg.Logging.Level == "debug",
	}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.Limits.MaxRequestsPerMinute,
		Logger:               log,
	})
	defer limiter.Stop()
	app.Use(limiter.Middleware())

	app.Use(validation.Middleware(validation.Config{
		MaxQueryLength: cfg.Limits.MaxQueryLength,
		Logger:         log,
	}))

	queryHandler := handlers.NewQueryHandler(proc, log)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService, log)
	actionsHandler := handlers.NewActionsHandler(executor, log)
	healthHandler := handlers.NewHealthHandler(errHandler, sessions)
	wsHandler := handlers.NewWebSocketHandler(proc, time.Duration(cfg.Server.WriteTimeout)*time.Second, log)

	api := app.Group("/api/v1")

	api.Post("/query", queryHandler.HandleQuery)
	api.Get("/query/history", queryHandler.GetQueryHistory)
	api.Get("/query/stats", queryHandler.GetStatistics)

	api.Post("/feedback", feedbackHandler.SubmitFeedback)
	api.Get("/feedback", feedbackHandler.ListFeedback)
	api.Get("/feedback/stats", feedbackHandler.GetStatistics)
	api.Get("/feedback/export", feedbackHandler.ExportFeedback)

	api.Post("/actions/execute", actionsHandler.ExecuteAction)

	api.Get("/health", healthHandler.HandleHealth)
	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ready"})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/chat", websocket.New(wsHandler.HandleConnection))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			log.Fatal("server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("server shutting down gracefully")
	app.Shutdown()
	log.Info("server stopped")
}

func buildFeedbackStore(cfg *config.Config, db *sqlite.Client) (feedback.Store, error) {
	switch cfg.Feedback.Backend {
	case "memory":
		return feedback.NewMemoryStore(), nil
	case "file":
		return feedback.NewFileStore(cfg.Feedback.FilePath)
	default:
		return feedback.NewSQLiteStore(db), nil
	}
}
