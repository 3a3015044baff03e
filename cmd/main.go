package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"urbandept/backend/internal/api"
	"urbandept/backend/internal/api/handler"
	"urbandept/backend/internal/auth"
	"urbandept/backend/internal/complaint"
	"urbandept/backend/internal/config"
	"urbandept/backend/internal/events"
	"urbandept/backend/internal/metrics"
	"urbandept/backend/internal/storage"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(cfg *config.Config, logger *zap.Logger) (*gorm.DB, *redis.Client, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return nil, nil, pkgerrors.Wrap(err, "connect PostgreSQL")
	}

	// Redis is optional: without it lifecycle events are not published.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = events.NewRedisClient(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
	} else {
		logger.Warn("REDIS_ADDR not set, complaint events will not be published")
	}

	logger.Info("Database connection established")
	return db, rdb, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		zap.NewExample().Fatal("Failed to load configuration", zap.Error(err))
	}

	logger := initLogger(cfg)
	defer logger.Sync()

	logger.Info("Starting department complaint service",
		zap.String("department", cfg.Department),
		zap.String("environment", cfg.Environment))

	db, rdb, err := setupDependencies(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize dependencies", zap.Error(err))
	}

	store := storage.NewStorageService(db)
	if err := store.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	var publisher events.Publisher = events.NopPublisher{}
	if rdb != nil {
		defer rdb.Close()
		publisher = events.NewRedisPublisher(rdb, cfg.EventsChannel)
	}

	collector := metrics.NewCollector()
	service := complaint.NewService(store,
		complaint.WithPublisher(publisher),
		complaint.WithMetrics(collector),
		complaint.WithLogger(logger),
		complaint.WithDepartment(cfg.Department),
		complaint.WithLimits(cfg.CitizenQueryLimit, cfg.ListDefaultLimit, cfg.ListMaxLimit),
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	h := handler.NewHandler(service, store, collector, cfg.Department, logger)
	verifier := auth.NewVerifier(cfg.ServiceJWTSecret, cfg.Department)
	r := api.NewRouter(h, verifier, collector, logger)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Failed to stop server gracefully", zap.Error(err))
	}

	logger.Info("Department complaint service stopped")
}

// initLogger builds a production logger in production and a colored development logger otherwise.
func initLogger(cfg *config.Config) *zap.Logger {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := zcfg.Build()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	return logger.With(zap.String("department", cfg.Department))
}
