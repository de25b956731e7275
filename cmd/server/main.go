package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/smartcity/governance/internal/delivery/http"
	"github.com/smartcity/governance/internal/domain"
	"github.com/smartcity/governance/internal/events"
	"github.com/smartcity/governance/internal/platform/config"
	applog "github.com/smartcity/governance/internal/platform/logger"
	"github.com/smartcity/governance/internal/platform/metrics"
	"github.com/smartcity/governance/internal/repository/postgres"
	rediscache "github.com/smartcity/governance/internal/repository/redis"
	"github.com/smartcity/governance/internal/security"
	"github.com/smartcity/governance/internal/service"
	"github.com/smartcity/governance/internal/triage"
)

func main() {
	// Configuration
	cfg, foundDotEnv := config.Load()

	zlog, err := applog.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	if !foundDotEnv {
		zlog.Info("No .env file found, using system environment")
	}

	// Rule table
	rules := triage.DefaultRuleSet()
	if cfg.RulesFile != "" {
		rules, err = triage.LoadRuleSet(cfg.RulesFile)
		if err != nil {
			zlog.Fatal("Failed to load rules", zap.String("file", cfg.RulesFile), zap.Error(err))
		}
		zlog.Info("Loaded rule table", zap.String("file", cfg.RulesFile), zap.Int("rules", len(rules.Rules)))
	}
	classifier, err := triage.NewClassifier(rules)
	if err != nil {
		zlog.Fatal("Invalid rule table", zap.Error(err))
	}
	router := triage.NewRouter(rules.Departments)

	// Database connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Dependency Injection: Repositories
	var repo service.RequestRepository
	if pool, err := connectPostgres(ctx, cfg.DatabaseURL); err != nil {
		zlog.Warn("Could not connect to database, running with mock data only", zap.Error(err))
		mock := postgres.NewMockRepository()
		mock.Seed(postgres.DemoBacklog())
		repo = mock
	} else {
		defer pool.Close()
		pgRepo := postgres.NewPostgresRepository(pool)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			zlog.Fatal("Failed to apply schema", zap.Error(err))
		}
		zlog.Info("Connected to PostgreSQL")
		cutoff := time.Now().AddDate(0, 0, -config.RetentionDays)
		if purged, err := pgRepo.PurgeExpired(ctx, cutoff); err != nil {
			zlog.Warn("Retention purge failed", zap.Error(err))
		} else if purged > 0 {
			zlog.Info("Purged expired records", zap.Int64("rows", purged), zap.Int("retention_days", config.RetentionDays))
		}
		repo = pgRepo
	}

	var cache domain.BacklogCache
	if cfg.RedisURL != "" {
		client, err := rediscache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			zlog.Warn("Redis unavailable, backlog cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			cache = rediscache.NewBacklogCache(client, cfg.BacklogCacheTTL)
			zlog.Info("Connected to Redis", zap.Duration("ttl", cfg.BacklogCacheTTL))
		}
	}

	var publisher domain.EventPublisher = events.NopPublisher{}
	if cfg.NATSURL != "" {
		natsPub, err := events.NewNATSPublisher(events.Config{
			URL:            cfg.NATSURL,
			Name:           "governance-triage",
			Subject:        cfg.NATSSubject,
			ReconnectWait:  2 * time.Second,
			MaxReconnects:  10,
			ConnectTimeout: 5 * time.Second,
		})
		if err != nil {
			zlog.Warn("NATS unavailable, routing events disabled", zap.Error(err))
		} else {
			defer natsPub.Close()
			publisher = natsPub
			zlog.Info("Connected to NATS", zap.String("subject", cfg.NATSSubject))
		}
	}

	// Dependency Injection: Services
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewWith(reg)

	var generator service.ContentGenerator
	if cfg.GeminiAPIKey != "" {
		generator, err = service.NewGeminiGenerator(ctx, cfg.GeminiAPIKey)
		if err != nil {
			zlog.Warn("Gemini unavailable, using rules and template summaries", zap.Error(err))
		}
	}

	var provider domain.TriageProvider = triage.NewRuleProvider(classifier)
	providerName := config.ProviderRules
	if cfg.TriageProvider == config.ProviderModel && generator != nil {
		provider = service.NewGeminiTriage(generator, cfg.GeminiModel, classifier, m, zlog)
		providerName = config.ProviderModel
	}
	zlog.Info("Triage provider selected", zap.String("provider", providerName))

	backlogSvc := service.NewBacklogService(repo, cache, zlog)
	routingSvc := service.NewRoutingService(classifier, provider, router, backlogSvc, repo, publisher, m, zlog)
	overviewSvc := service.NewOverviewService(repo, backlogSvc, zlog)
	summarySvc := service.NewSummaryService(repo, generator, cfg.GeminiModel, zlog)

	handler := http.NewHandler(routingSvc, overviewSvc, summarySvc, backlogSvc, router, repo, security.NewAuditor(zlog), zlog)

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "Governance Triage API v1.0",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		ErrorHandler: http.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-User-ID",
	}))

	// Routes
	http.SetupRoutes(app, handler, reg)

	// Graceful shutdown
	go func() {
		zlog.Info("Server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := app.Listen(":" + cfg.Port); err != nil {
			zlog.Fatal("Server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
	}
	routingSvc.WaitBackground()
	zlog.Info("Server exited gracefully")
}

// connectPostgres opens a pool and verifies the database is reachable
func connectPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
