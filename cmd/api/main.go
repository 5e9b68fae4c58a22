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

	"github.com/rewardops/pangea-analytics/backend/internal/adapters/cache"
	"github.com/rewardops/pangea-analytics/backend/internal/adapters/database"
	"github.com/rewardops/pangea-analytics/backend/internal/api/handlers"
	"github.com/rewardops/pangea-analytics/backend/internal/api/routes"
	"github.com/rewardops/pangea-analytics/backend/internal/application/services"
	"github.com/rewardops/pangea-analytics/backend/internal/domain/providers"
	"github.com/rewardops/pangea-analytics/backend/internal/infrastructure/clients/postgres"
	"github.com/rewardops/pangea-analytics/backend/internal/infrastructure/clients/redis"
	"github.com/rewardops/pangea-analytics/backend/internal/infrastructure/observability"
	"github.com/rewardops/pangea-analytics/backend/pkg/config"
)

const serviceName = "pangea-analytics-api"

func main() {

	// Load configuration

	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(serviceName, cfg.Server.Env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		// Continue without Redis - the application can work without caching
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize adapters

	queryExecutor := database.NewQueryAdapter(pgClient)

	// Initialize services

	classifier := services.NewIntentClassifier(cfg.Query.DefaultRowLimit)
	synthesizer := services.NewQuerySynthesizer()
	chartService := services.NewChartService()
	formatter := services.NewResponseFormatter(chartService, cfg.Database.Database)

	analyticsService := services.NewAnalyticsService(
		classifier,
		synthesizer,
		queryExecutor,
		formatter,
		time.Duration(cfg.Query.TimeoutSeconds)*time.Second,
	)
	if cacheProvider != nil {
		analyticsService.SetCache(cacheProvider)
		log.Println("Analysis cache enabled")
	} else {
		log.Println("Analysis cache disabled (Redis not available)")
	}
	analyticsService.SetMetrics(metrics)

	sessionRegistry := services.NewSessionRegistry()

	// Initialize handlers

	queryHandler := handlers.NewQueryHandler(analyticsService, sessionRegistry, serviceName)
	wsHandler := handlers.NewWSHandler(analyticsService, sessionRegistry, metrics)

	// Set up router

	handler := routes.NewRouter(queryHandler, wsHandler, metrics)

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: WebSocket sessions outlive any sensible value and
		// the query pipeline enforces its own execution deadline.
		IdleTimeout: 60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	log.Println("Server stopped")
}
