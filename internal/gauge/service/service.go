package service

import (
	"github.com/kelly-enterprises/gauge-erp/internal/config"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/repository"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services 服务集合
type Services struct {
	Gauge       *GaugeService
	Transfer    *TransferService
	Unseal      *UnsealService
	Calibration *CalibrationService
	Directory   *DirectoryService
}

// NewServices 创建服务集合
func NewServices(db *gorm.DB, repos *repository.Repositories, rdb *redis.Client, cfg *config.Config, logger *zap.Logger) *Services {
	// 初始化MinIO客户端（证书存储），未配置时降级为不可用
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warn("MinIO client init failed, certificate storage disabled", zap.Error(err))
			minioClient = nil
		}
	}

	directory := NewDirectoryService(repos.User, rdb)

	return &Services{
		Gauge:       NewGaugeService(db, repos),
		Transfer:    NewTransferService(db, repos, directory),
		Unseal:      NewUnsealService(db, repos, directory),
		Calibration: NewCalibrationService(db, repos, minioClient, cfg.MinIO.Bucket),
		Directory:   directory,
	}
}
