package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/duynhne/portfolio-service/config"
	database "github.com/duynhne/portfolio-service/internal/core"
	"github.com/duynhne/portfolio-service/internal/core/cache"
	"github.com/duynhne/portfolio-service/internal/core/domain"
	"github.com/duynhne/portfolio-service/internal/core/repository/memory"
	"github.com/duynhne/portfolio-service/internal/core/repository/mongodb"
	logicv1 "github.com/duynhne/portfolio-service/internal/logic/v1"
	v1 "github.com/duynhne/portfolio-service/internal/web/v1"
	"github.com/duynhne/portfolio-service/middleware"
)

// store is the lifecycle side of the document store backing the repositories
type store interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

func main() {
	// Load configuration from environment variables (with .env file support for local dev)
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		panic("Configuration validation failed: " + err.Error())
	}

	logger, err := middleware.NewLogger(cfg.Logging)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Service starting",
		zap.String("service", cfg.Service.Name),
		zap.String("version", cfg.Service.Version),
		zap.String("env", cfg.Service.Env),
		zap.String("port", cfg.Service.Port),
		zap.String("db_driver", cfg.Mongo.Driver),
	)

	if cfg.Tracing.Enabled {
		if _, err := middleware.InitTracing(cfg); err != nil {
			logger.Warn("Failed to initialize tracing", zap.Error(err))
		} else {
			logger.Info("Tracing initialized",
				zap.String("endpoint", cfg.Tracing.Endpoint),
				zap.Float64("sample_rate", cfg.Tracing.SampleRate),
			)
		}
	} else {
		logger.Info("Tracing disabled (TRACING_ENABLED=false)")
	}

	if cfg.Profiling.Enabled {
		if err := middleware.InitProfiling(cfg.Profiling); err != nil {
			logger.Warn("Failed to initialize profiling", zap.Error(err))
		} else {
			logger.Info("Profiling initialized", zap.String("endpoint", cfg.Profiling.Endpoint))
			defer middleware.StopProfiling()
		}
	} else {
		logger.Info("Profiling disabled (PROFILING_ENABLED=false)")
	}

	db, users, portfolios, err := openStore(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	logger.Info("Document store ready",
		zap.String("driver", cfg.Mongo.Driver),
		zap.String("database", cfg.Mongo.Name),
	)

	var profileCache *cache.ProfileCache
	var serviceCache logicv1.ProfileCache
	if cfg.Cache.Enabled {
		profileCache, err = cache.NewProfileCache(context.Background(), cfg.Cache)
		if err != nil {
			// the service works without a cache; requests go straight to the store
			logger.Warn("Profile cache unavailable", zap.Error(err))
		} else {
			serviceCache = profileCache
			logger.Info("Profile cache enabled",
				zap.String("addr", cfg.Cache.Addr),
				zap.Duration("ttl", cfg.Cache.TTL),
			)
		}
	}

	service := logicv1.NewProfileService(users, portfolios, serviceCache, db)
	handler := v1.NewProfileHandler(service)

	var isShuttingDown atomic.Bool
	r := buildRouter(cfg, logger, handler, db, &isShuttingDown)

	srv := &http.Server{
		Addr:              ":" + cfg.Service.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting portfolio service", zap.String("port", cfg.Service.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	// Fail readiness first and give the load balancer time to notice.
	isShuttingDown.Store(true)
	if drainDelay := cfg.GetReadinessDrainDelayDuration(); drainDelay > 0 {
		logger.Info("Readiness drain delay started", zap.Duration("delay", drainDelay))
		time.Sleep(drainDelay)
	}

	shutdownTimeout := cfg.GetShutdownTimeoutDuration()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("Shutting down server...", zap.Duration("timeout", shutdownTimeout))

	// Order: HTTP server → database → cache → tracer
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		logger.Info("HTTP server shutdown complete")
	}

	if err := db.Close(shutdownCtx); err != nil {
		logger.Error("Database close error", zap.Error(err))
	} else {
		logger.Info("Database connection closed")
	}

	if profileCache != nil {
		if err := profileCache.Close(); err != nil {
			logger.Error("Cache close error", zap.Error(err))
		}
	}

	if cfg.Tracing.Enabled {
		if err := middleware.Shutdown(shutdownCtx); err != nil {
			logger.Error("Tracer shutdown error", zap.Error(err))
		} else {
			logger.Info("Tracer shutdown complete")
		}
	}

	logger.Info("Graceful shutdown complete")
}

// openStore connects the configured document store and returns the repositories on it
func openStore(cfg *config.Config) (store, domain.UserRepository, domain.PortfolioRepository, error) {
	if strings.EqualFold(cfg.Mongo.Driver, config.DriverMemory) {
		s := memory.NewStore()
		return s, s, s, nil
	}

	client, err := database.Connect(context.Background(), cfg.Mongo)
	if err != nil {
		return nil, nil, nil, err
	}
	db := client.Database()
	return client, mongodb.NewUserRepository(db), mongodb.NewPortfolioRepository(db), nil
}

// buildRouter assembles the middleware chain, probes, metrics and the API group
func buildRouter(cfg *config.Config, logger *zap.Logger, handler *v1.ProfileHandler, db store, isShuttingDown *atomic.Bool) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	// Tracing middleware (must be first for context propagation)
	if cfg.Tracing.Enabled {
		r.Use(middleware.TracingMiddleware())
	}
	r.Use(middleware.LoggingMiddleware(logger))
	if cfg.Metrics.Enabled {
		r.Use(middleware.PrometheusMiddleware())
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Returns 503 once shutdown has started or the store stops answering.
	r.GET("/ready", func(c *gin.Context) {
		if isShuttingDown.Load() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			middleware.GetLoggerFromGinContext(c).Warn("Readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database_unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api")
	if cfg.RateLimit.RPS > 0 {
		api.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)))
	}
	handler.RegisterRoutes(api)

	return r
}
