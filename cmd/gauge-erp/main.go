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
	"github.com/kelly-enterprises/gauge-erp/internal/config"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/entity"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/handler"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/repository"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/service"
	"github.com/kelly-enterprises/gauge-erp/internal/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 本地开发时从 .env 读取环境变量
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting gauge-erp service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// 自动迁移
	if err := entity.AutoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// 初始化Redis
	rdb := initRedis(cfg.Redis)

	// 初始化依赖
	repos := repository.NewRepositories(db)
	services := service.NewServices(db, repos, rdb, cfg, zapLogger)
	handlers := handler.NewHandlers(services)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// 注册路由
	registerRoutes(router, handlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
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

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// API v1
	v1 := r.Group("/api/v1")
	authorized := v1.Group("")
	authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		// 量具发放与配对
		gauges := authorized.Group("/gauges")
		{
			gauges.POST("/pairs", h.Gauge.IssuePair)
			gauges.POST("/pairs/link", h.Gauge.PairFromSpares)
			gauges.GET("/:ref", h.Gauge.Get)
			gauges.POST("/:ref/checkout", h.Gauge.Checkout)
			gauges.POST("/:ref/return", h.Gauge.Return)
			gauges.GET("/:ref/companion", h.Gauge.Companion)
			gauges.POST("/:ref/replace-companion", h.Gauge.ReplaceCompanion)
			gauges.POST("/:ref/unpair", h.Gauge.Unpair)
			gauges.GET("/:ref/pairing-history", h.Gauge.PairingHistory)
			gauges.GET("/:ref/active-batch", h.Calibration.ActiveBatch)
		}

		// 保管权转移
		transfers := authorized.Group("/transfers")
		{
			transfers.GET("", h.Transfer.ListMine)
			transfers.POST("", h.Transfer.Create)
			transfers.POST("/:id/accept", h.Transfer.Accept)
			transfers.POST("/:id/reject", h.Transfer.Reject)
			transfers.POST("/:id/cancel", h.Transfer.Cancel)
			transfers.POST("/:id/complete", h.Transfer.Complete)
		}

		// 启封审批
		unseals := authorized.Group("/unseal-requests")
		{
			unseals.POST("", h.Unseal.Request)
			unseals.GET("/pending", h.Unseal.ListPending)
			unseals.POST("/:id/approve", h.Unseal.Approve)
			unseals.POST("/:id/reject", h.Unseal.Reject)
		}

		// 外校批次
		batches := authorized.Group("/calibration-batches")
		{
			batches.POST("", h.Calibration.CreateBatch)
			batches.POST("/:id/gauges", h.Calibration.AddGauge)
			batches.DELETE("/:id/gauges/:ref", h.Calibration.RemoveGauge)
			batches.POST("/:id/send", h.Calibration.MarkSent)
			batches.POST("/:id/complete", h.Calibration.CompleteBatch)
			batches.GET("/:id/statistics", h.Calibration.Statistics)
			batches.GET("/:id/manifest", h.Calibration.ExportManifest)
			batches.POST("/:id/certificate", h.Calibration.UploadCertificate)
			batches.GET("/:id/audit", h.Calibration.AuditTrail)
		}

		// 序列管理（管理员）
		admin := authorized.Group("/admin")
		admin.Use(middleware.RequireRole("gauge_admin"))
		{
			admin.POST("/sequences/reset", h.Gauge.ResetSequence)
		}
	}
}
