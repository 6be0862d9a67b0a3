package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 批次状态线性推进：pending_send → sent → completed，不可回退
var batchTransitions = map[string]string{
	entity.BatchStatusPendingSend: entity.BatchStatusSent,
	entity.BatchStatusSent:        entity.BatchStatusCompleted,
}

// CalibrationRepository 外校批次管理
type CalibrationRepository struct {
	db    *gorm.DB
	audit *AuditRepository
}

func NewCalibrationRepository(db *gorm.DB, audit *AuditRepository) *CalibrationRepository {
	return &CalibrationRepository{db: db, audit: audit}
}

// CreateBatch 创建批次，初始状态pending_send
func (r *CalibrationRepository) CreateBatch(tx *gorm.DB, batch *entity.CalibrationBatch) error {
	if err := requireTx(tx); err != nil {
		return err
	}
	if batch.CalibrationType == "" || batch.CreatedBy == "" {
		return fmt.Errorf("%w: 校准类型和创建人不能为空", ErrInvalidOperation)
	}

	batch.ID = uuid.New().String()[:32]
	batch.Status = entity.BatchStatusPendingSend
	if err := tx.Create(batch).Error; err != nil {
		return fmt.Errorf("创建校准批次失败: %w", err)
	}

	return r.audit.Append(tx, batch.CreatedBy, "batch_create", "calibration_batch", batch.ID, entity.JSONB{
		"calibration_type": batch.CalibrationType,
	})
}

// AddGauge 将量具加入批次。先锁量具行使并发加入串行化，
// 再校验该量具不在任何在途(pending_send/sent)批次中，防止重复送校。
func (r *CalibrationRepository) AddGauge(tx *gorm.DB, batchID string, gaugeID uint, actorID string) error {
	if err := requireTx(tx); err != nil {
		return err
	}

	var batch entity.CalibrationBatch
	err := tx.First(&batch, "id = ?", batchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: 校准批次不存在 (%s)", ErrNotFound, batchID)
	}
	if err != nil {
		return err
	}

	if _, err := LockGaugeByID(tx, gaugeID); err != nil {
		return err
	}

	active, err := r.findActiveBatch(tx, gaugeID)
	if err != nil {
		return err
	}
	if active != nil {
		return fmt.Errorf("%w: 量具已在在途校准批次中 (batch=%s)", ErrConflict, active.ID)
	}

	if err := tx.Create(&entity.BatchMembership{
		ID:      uuid.New().String()[:32],
		BatchID: batchID,
		GaugeID: gaugeID,
	}).Error; err != nil {
		return err
	}

	return r.audit.Append(tx, actorID, "batch_add_gauge", "calibration_batch", batchID, entity.JSONB{
		"gauge_id": gaugeID,
	})
}

// RemoveGauge 将量具移出批次（业务上仅在sent之前有意义，此层不强制）
func (r *CalibrationRepository) RemoveGauge(tx *gorm.DB, batchID string, gaugeID uint, actorID string) error {
	if err := requireTx(tx); err != nil {
		return err
	}

	res := tx.Delete(&entity.BatchMembership{}, "batch_id = ? AND gauge_id = ?", batchID, gaugeID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: 量具不在该批次中 (batch=%s, gauge=%d)", ErrNotFound, batchID, gaugeID)
	}

	return r.audit.Append(tx, actorID, "batch_remove_gauge", "calibration_batch", batchID, entity.JSONB{
		"gauge_id": gaugeID,
	})
}

// FindActiveBatchForGauge 查询量具当前所在的在途批次，无则返回nil。
// 调用方以此防止同一量具被预订进两个并行批次。
func (r *CalibrationRepository) FindActiveBatchForGauge(gaugeID uint) (*entity.CalibrationBatch, error) {
	return r.findActiveBatch(r.db, gaugeID)
}

func (r *CalibrationRepository) findActiveBatch(q *gorm.DB, gaugeID uint) (*entity.CalibrationBatch, error) {
	var batch entity.CalibrationBatch
	err := q.Joins("JOIN calibration_batch_members m ON m.batch_id = calibration_batches.id").
		Where("m.gauge_id = ? AND calibration_batches.status IN ?", gaugeID,
			[]string{entity.BatchStatusPendingSend, entity.BatchStatusSent}).
		First(&batch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// UpdateStatus 推进批次状态。先锁批次行，只允许线性前进一步。
func (r *CalibrationRepository) UpdateStatus(tx *gorm.DB, batchID, newStatus, actorID string) (*entity.CalibrationBatch, error) {
	if err := requireTx(tx); err != nil {
		return nil, err
	}

	var batch entity.CalibrationBatch
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&batch, "id = ?", batchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: 校准批次不存在 (%s)", ErrNotFound, batchID)
	}
	if err != nil {
		return nil, err
	}

	if batchTransitions[batch.Status] != newStatus {
		return nil, fmt.Errorf("%w: 批次状态不可从 %s 变更为 %s", ErrInvalidOperation, batch.Status, newStatus)
	}

	now := time.Now()
	updates := map[string]interface{}{"status": newStatus}
	switch newStatus {
	case entity.BatchStatusSent:
		updates["sent_at"] = now
		batch.SentAt = &now
	case entity.BatchStatusCompleted:
		updates["completed_at"] = now
		batch.CompletedAt = &now
	}
	if err := tx.Model(&entity.CalibrationBatch{}).
		Where("id = ?", batch.ID).
		Updates(updates).Error; err != nil {
		return nil, err
	}

	if err := r.audit.Append(tx, actorID, "batch_"+newStatus, "calibration_batch", batch.ID, entity.JSONB{
		"from_status": batch.Status,
	}); err != nil {
		return nil, err
	}

	batch.Status = newStatus
	return &batch, nil
}

// UpdateCertificatePath 记录批次证书在对象存储中的路径
func (r *CalibrationRepository) UpdateCertificatePath(tx *gorm.DB, batchID, path string) error {
	if err := requireTx(tx); err != nil {
		return err
	}
	res := tx.Model(&entity.CalibrationBatch{}).
		Where("id = ?", batchID).
		Update("certificate_path", path)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: 校准批次不存在 (%s)", ErrNotFound, batchID)
	}
	return nil
}

// FindBatchByID 查询批次
func (r *CalibrationRepository) FindBatchByID(batchID string) (*entity.CalibrationBatch, error) {
	var batch entity.CalibrationBatch
	err := r.db.First(&batch, "id = ?", batchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: 校准批次不存在 (%s)", ErrNotFound, batchID)
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// ListMemberGauges 查询批次全部成员量具（按加入顺序）
func (r *CalibrationRepository) ListMemberGauges(batchID string) ([]entity.Gauge, error) {
	var gauges []entity.Gauge
	err := r.db.Joins("JOIN calibration_batch_members m ON m.gauge_id = gauges.id").
		Where("m.batch_id = ?", batchID).
		Order("m.created_at ASC").Find(&gauges).Error
	return gauges, err
}

// GetStatistics 按成员量具状态聚合批次进度
func (r *CalibrationRepository) GetStatistics(batchID string) (*entity.BatchStatistics, error) {
	var stats entity.BatchStatistics
	err := r.db.Raw(`
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE g.status = ?) AS out_for_calibration,
			COUNT(*) FILTER (WHERE g.status = ?) AS pending_certificate,
			COUNT(*) FILTER (WHERE g.status = ?) AS pending_release,
			COUNT(*) FILTER (WHERE g.status IN ?) AS completed
		FROM calibration_batch_members m
		JOIN gauges g ON g.id = m.gauge_id
		WHERE m.batch_id = ?`,
		entity.StatusOutForCalibration,
		entity.StatusPendingCertificate,
		entity.StatusPendingRelease,
		[]string{entity.StatusAvailable, entity.StatusPendingQC},
		batchID).Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
