package service

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/kelly-enterprises/gauge-erp/internal/gauge/entity"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/repository"
	"github.com/minio/minio-go/v7"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// CalibrationService 外校批次：组批、发出、完成、证书与清单
type CalibrationService struct {
	db          *gorm.DB
	repos       *repository.Repositories
	minioClient *minio.Client
	bucket      string
}

// NewCalibrationService 创建外校服务
func NewCalibrationService(db *gorm.DB, repos *repository.Repositories, minioClient *minio.Client, bucket string) *CalibrationService {
	return &CalibrationService{db: db, repos: repos, minioClient: minioClient, bucket: bucket}
}

// CreateBatchRequest 创建批次参数
type CreateBatchRequest struct {
	CalibrationType string   `json:"calibration_type" binding:"required"`
	VendorName      string   `json:"vendor_name"`
	TrackingNo      string   `json:"tracking_no"`
	GaugeRefs       []string `json:"gauge_refs"`
}

// CreateBatch 创建批次并加入初始量具。任何一只量具冲突（已在在途批次）
// 则整体回滚。
func (s *CalibrationService) CreateBatch(ctx context.Context, req CreateBatchRequest, actorID string) (*entity.CalibrationBatch, error) {
	batch := &entity.CalibrationBatch{
		CalibrationType: req.CalibrationType,
		VendorName:      req.VendorName,
		TrackingNo:      req.TrackingNo,
		CreatedBy:       actorID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repos.Calibration.CreateBatch(tx, batch); err != nil {
			return err
		}
		for _, ref := range req.GaugeRefs {
			g, err := repository.FindGaugeByRef(tx, ref)
			if err != nil {
				return err
			}
			if err := s.repos.Calibration.AddGauge(tx, batch.ID, g.ID, actorID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// AddGauge 向批次追加量具
func (s *CalibrationService) AddGauge(ctx context.Context, batchID, gaugeRef, actorID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		g, err := repository.FindGaugeByRef(tx, gaugeRef)
		if err != nil {
			return err
		}
		return s.repos.Calibration.AddGauge(tx, batchID, g.ID, actorID)
	})
}

// RemoveGauge 把量具移出批次
func (s *CalibrationService) RemoveGauge(ctx context.Context, batchID, gaugeRef, actorID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		g, err := repository.FindGaugeByRef(tx, gaugeRef)
		if err != nil {
			return err
		}
		return s.repos.Calibration.RemoveGauge(tx, batchID, g.ID, actorID)
	})
}

// MarkSent 批次发出：状态推进到sent，成员量具转out_for_calibration，
// 并批量取消成员量具的待处理转移单（量具已不可用）。
func (s *CalibrationService) MarkSent(ctx context.Context, batchID, actorID string) (*entity.CalibrationBatch, error) {
	var batch *entity.CalibrationBatch
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		batch, err = s.repos.Calibration.UpdateStatus(tx, batchID, entity.BatchStatusSent, actorID)
		if err != nil {
			return err
		}

		gauges, err := s.repos.Calibration.ListMemberGauges(batchID)
		if err != nil {
			return err
		}
		for _, g := range gauges {
			if _, err := repository.LockGaugeByID(tx, g.ID); err != nil {
				return err
			}
			if err := tx.Model(&entity.Gauge{}).
				Where("id = ?", g.ID).
				Update("status", entity.StatusOutForCalibration).Error; err != nil {
				return err
			}
			if _, err := s.repos.Transfer.CancelByGauge(tx, g.ID, actorID, "量具已送外校准"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// CompleteBatch 批次完成：状态推进到completed，成员量具转pending_qc待验收
func (s *CalibrationService) CompleteBatch(ctx context.Context, batchID, actorID string) (*entity.CalibrationBatch, error) {
	var batch *entity.CalibrationBatch
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		batch, err = s.repos.Calibration.UpdateStatus(tx, batchID, entity.BatchStatusCompleted, actorID)
		if err != nil {
			return err
		}

		gauges, err := s.repos.Calibration.ListMemberGauges(batchID)
		if err != nil {
			return err
		}
		for _, g := range gauges {
			if _, err := repository.LockGaugeByID(tx, g.ID); err != nil {
				return err
			}
			if err := tx.Model(&entity.Gauge{}).
				Where("id = ?", g.ID).
				Update("status", entity.StatusPendingQC).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// ActiveBatchForGauge 查询量具当前所在的在途批次
func (s *CalibrationService) ActiveBatchForGauge(ctx context.Context, gaugeRef string) (*entity.CalibrationBatch, error) {
	g, err := repository.FindGaugeByRef(s.db.WithContext(ctx), gaugeRef)
	if err != nil {
		return nil, err
	}
	return s.repos.Calibration.FindActiveBatchForGauge(g.ID)
}

// Statistics 批次进度统计
func (s *CalibrationService) Statistics(batchID string) (*entity.BatchStatistics, error) {
	if _, err := s.repos.Calibration.FindBatchByID(batchID); err != nil {
		return nil, err
	}
	return s.repos.Calibration.GetStatistics(batchID)
}

// ExportManifest 导出批次发货清单（xlsx）
func (s *CalibrationService) ExportManifest(ctx context.Context, batchID string) ([]byte, error) {
	batch, err := s.repos.Calibration.FindBatchByID(batchID)
	if err != nil {
		return nil, err
	}
	gauges, err := s.repos.Calibration.ListMemberGauges(batchID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	headers := []string{"批次号", "校准类型", "量具编号", "类别", "子类型", "当前状态"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for row, g := range gauges {
		values := []interface{}{batch.ID, batch.CalibrationType, g.GaugeNo, g.CategoryID, g.SubType, g.Status}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("导出清单失败: %w", err)
	}
	return buf.Bytes(), nil
}

// AttachCertificate 上传批次校准证书到对象存储并记录路径
func (s *CalibrationService) AttachCertificate(ctx context.Context, batchID, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	if s.minioClient == nil {
		return "", fmt.Errorf("%w: 证书存储未配置", repository.ErrInvalidOperation)
	}
	if _, err := s.repos.Calibration.FindBatchByID(batchID); err != nil {
		return "", err
	}

	objectName := path.Join("certificates", batchID, filename)
	if _, err := s.minioClient.PutObject(ctx, s.bucket, objectName, reader, size,
		minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("上传证书失败: %w", err)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repos.Calibration.UpdateCertificatePath(tx, batchID, objectName)
	})
	if err != nil {
		return "", err
	}
	return objectName, nil
}

// AuditTrail 查询批次审计记录
func (s *CalibrationService) AuditTrail(batchID string, limit int) ([]entity.OperationLog, error) {
	return s.repos.Audit.ListByEntity("calibration_batch", batchID, limit)
}
