package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Paggo/backend/go/internal/config"
	"Paggo/backend/go/internal/conversation"
	"Paggo/backend/go/internal/database/kafka"
	"Paggo/backend/go/internal/database/minio"
	"Paggo/backend/go/internal/database/mysql"
	"Paggo/backend/go/internal/database/redis"
	"Paggo/backend/go/internal/document_service/api"
	"Paggo/backend/go/internal/document_service/publisher"
	"Paggo/backend/go/internal/document_service/service"
	"Paggo/backend/go/internal/document_service/store"
	"Paggo/backend/go/internal/extraction"
	"Paggo/backend/go/internal/llm"
	"Paggo/backend/go/internal/metrics"
	"Paggo/backend/go/internal/models"
	"Paggo/backend/go/internal/ocr"
	"Paggo/backend/go/internal/report"
	"Paggo/backend/go/pkg/logger"
	"Paggo/backend/go/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	defaultPath := os.Getenv("PAGGO_CONFIG")
	if defaultPath == "" {
		defaultPath = "backend/go/config/config.yaml"
	}
	configPath := flag.String("config", defaultPath, "path to the YAML configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Init(cfg.Logger.Level)
	serviceLogger := logger.New(cfg.App.Name, "", "")
	fatal := func(err error, msg string) {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal(msg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MySQL holds users, documents and interactions
	db, err := mysql.Open(&cfg.Databases.MySQL, serviceLogger)
	if err != nil {
		fatal(err, "Failed to connect to MySQL")
	}
	if err := store.Migrate(db); err != nil {
		fatal(err, "Failed to migrate schema")
	}
	healthChecks := map[string]api.HealthCheck{"mysql": mysql.HealthCheck(db)}

	// Metrics
	var (
		m              *metrics.Metrics
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	// Extraction cache
	var rdb *goredis.Client
	var cacheClient goredis.Cmdable
	if cfg.Cache.Backend == "redis" {
		rdb, err = redis.Open(ctx, &cfg.Databases.Redis, serviceLogger)
		if err != nil {
			fatal(err, "Failed to connect to Redis")
		}
		cacheClient = rdb
		healthChecks["redis"] = redis.HealthCheck(rdb)
	}
	cache, err := extraction.CacheFromConfig(cfg.Cache, cacheClient, m, serviceLogger)
	if err != nil {
		fatal(err, "Failed to build extraction cache")
	}

	// OCR engine, loaded once for the process lifetime
	engine := ocr.NewTesseractEngine(cfg.OCR.Languages)
	if err := engine.Init(); err != nil {
		fatal(err, "Failed to initialize OCR engine")
	}
	serviceLogger.WithPayload(map[string]interface{}{"languages": cfg.OCR.Languages}).Info("OCR engine ready")
	extractor := extraction.FromConfig(cfg, cache, engine, m, serviceLogger)

	// LLM
	provider, err := llm.NewProvider(ctx, cfg.LLM, cfg.Middleware.CircuitBreaker)
	if err != nil {
		fatal(err, "Failed to create LLM provider")
	}
	answerer := conversation.NewAnswerer(provider, m, serviceLogger)

	svcCfg := service.Config{
		Store:     store.NewStore(db),
		Extractor: extractor,
		Answerer:  answerer,
		Renderer:  report.NewRenderer(m, serviceLogger),
		JwtSecret: cfg.Auth.JwtSecret,
		TokenTTL:  time.Duration(cfg.Auth.TokenTTL) * time.Second,
		MaxBytes:  cfg.Upload.MaxBytes,
		Logger:    serviceLogger,
	}

	// Optional MinIO archive of original uploads
	if cfg.Databases.MinIO.Endpoint != "" {
		mc, err := minio.Open(ctx, &cfg.Databases.MinIO, serviceLogger)
		if err != nil {
			fatal(err, "Failed to connect to MinIO")
		}
		archive, err := store.NewObjectArchive(ctx, mc, cfg.Databases.MinIO.Bucket)
		if err != nil {
			fatal(err, "Failed to prepare MinIO bucket")
		}
		svcCfg.Archive = archive
		healthChecks["minio"] = minio.HealthCheck(mc, cfg.Databases.MinIO.Bucket)
	}

	// Optional Kafka document events
	var eventPublisher *publisher.EventPublisher
	if len(cfg.Databases.Kafka.Brokers) > 0 {
		if err := kafka.EnsureTopic(ctx, &cfg.Databases.Kafka, serviceLogger); err != nil {
			fatal(err, "Failed to prepare Kafka topic")
		}
		eventPublisher = publisher.NewEventPublisher(kafka.NewWriter(&cfg.Databases.Kafka), serviceLogger)
		svcCfg.Publisher = eventPublisher
		healthChecks["kafka"] = kafka.HealthCheck(&cfg.Databases.Kafka)
	}

	documentService := service.NewService(svcCfg)
	handler, err := api.NewHandler(documentService, api.UploadPolicy{
		Dir:      cfg.Upload.Dir,
		MaxBytes: cfg.Upload.MaxBytes,
		Allowed:  cfg.Upload.Allowed,
	})
	if err != nil {
		fatal(err, "Failed to create HTTP handler")
	}

	// Setup HTTP server
	gin.SetMode(gin.ReleaseMode)
	rc := api.RouterConfig{
		JwtSecret:      cfg.Auth.JwtSecret,
		MetricsPath:    cfg.Metrics.Path,
		MetricsHandler: metricsHandler,
		HealthChecks:   healthChecks,
		Logger:         serviceLogger,
	}
	if cfg.Middleware.RateLimiter.Enabled {
		rc.Limiter = ratelimiter.NewPerKey(cfg.Middleware.RateLimiter.Rate, cfg.Middleware.RateLimiter.Capacity)
	}
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: api.SetupRouter(handler, rc),
	}

	// Start server
	go func() {
		serviceLogger.Info("Starting HTTP server on " + srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(err, "HTTP server failed to start")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	serviceLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Server forced to shutdown")
	}

	cancel()
	if eventPublisher != nil {
		if err := eventPublisher.Close(); err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing Kafka publisher")
		}
	}
	if err := provider.Close(); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing LLM provider")
	}
	if err := engine.Close(); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error releasing OCR engine")
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing Redis client")
		}
	}
	if err := mysql.Close(db); err != nil {
		serviceLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error closing MySQL connection")
	}

	serviceLogger.Info("Server gracefully stopped")
}
