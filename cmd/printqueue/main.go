package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Aceless34/PrintingQueue/internal/config"
	"github.com/Aceless34/PrintingQueue/internal/database"
	"github.com/Aceless34/PrintingQueue/internal/middleware"
	"github.com/Aceless34/PrintingQueue/internal/printqueue/handler"
	"github.com/Aceless34/PrintingQueue/internal/printqueue/migration"
	"github.com/Aceless34/PrintingQueue/internal/printqueue/repository"
	"github.com/Aceless34/PrintingQueue/internal/printqueue/service"
	"github.com/Aceless34/PrintingQueue/internal/shared/metrics"
	"github.com/Aceless34/PrintingQueue/internal/shared/notify"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting printingqueue service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("db_driver", cfg.Database.Driver),
	)

	db, err := database.Open(cfg.Database, database.LogLevel(cfg.Log.Level))
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := migration.Run(db); err != nil {
		zapLogger.Fatal("Failed to migrate database", zap.Error(err))
	}

	hub := notify.NewHub(zapLogger)
	publisher := notify.NewMulti(hub, initMQTT(cfg.MQTT, zapLogger), initRedis(cfg.Redis, zapLogger))

	m := metrics.New()
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, publisher, cfg.MQTT.BaseTopic, m, zapLogger)
	handlers := handler.NewHandlers(services, hub, m, zapLogger, handler.BuildInfo{Version: Version, BuildTime: BuildTime})

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS(cfg.CORS.Origins))
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/events", "/metrics"})))
	router.Use(m.Middleware())

	handlers.Register(router)
	if cfg.Server.StaticDir != "" {
		handler.RegisterDashboard(router, cfg.Server.StaticDir)
		zapLogger.Info("Serving dashboard", zap.String("dir", cfg.Server.StaticDir))
	}

	statsCtx, stopStats := context.WithCancel(context.Background())
	go services.Stats.Run(statsCtx)
	services.Stats.Trigger()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 0, // Disable for SSE long-lived connections
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	// close event streams so Shutdown can drain them
	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	stopStats()
	if err := publisher.Close(); err != nil {
		zapLogger.Warn("Closing publishers failed", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

// initMQTT returns nil when no broker is configured
func initMQTT(cfg config.MQTTConfig, logger *zap.Logger) notify.Publisher {
	if cfg.URL == "" {
		logger.Info("MQTT disabled, no broker configured")
		return nil
	}
	return notify.NewMQTTPublisher(notify.MQTTConfig{
		URL:      cfg.URL,
		ClientID: cfg.ClientID,
		Username: cfg.Username,
		Password: cfg.Password,
	}, logger)
}

func initRedis(cfg config.RedisConfig, logger *zap.Logger) notify.Publisher {
	if cfg.Addr == "" {
		return nil
	}
	logger.Info("Publishing stats to redis", zap.String("addr", cfg.Addr))
	return notify.NewRedisPublisher(redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}))
}
