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

// 启封状态迁移表：pending为唯一非终态
var unsealTransitions = map[string][]string{
	entity.UnsealStatusPending: {entity.UnsealStatusApproved, entity.UnsealStatusRejected},
}

// UnsealRepository 启封审批工作流
type UnsealRepository struct {
	db    *gorm.DB
	audit *AuditRepository
}

func NewUnsealRepository(db *gorm.DB, audit *AuditRepository) *UnsealRepository {
	return &UnsealRepository{db: db, audit: audit}
}

// Create 创建启封申请，初始状态pending。同一量具允许存在多条历史申请。
func (r *UnsealRepository) Create(tx *gorm.DB, req *entity.UnsealRequest) error {
	if err := requireTx(tx); err != nil {
		return err
	}
	if req.RequestedBy == "" || req.Reason == "" {
		return fmt.Errorf("%w: 申请人和原因不能为空", ErrInvalidOperation)
	}

	req.ID = uuid.New().String()[:32]
	req.Status = entity.UnsealStatusPending
	if err := tx.Create(req).Error; err != nil {
		return fmt.Errorf("创建启封申请失败: %w", err)
	}

	return r.audit.Append(tx, req.RequestedBy, "unseal_request", "unseal_request", req.ID, entity.JSONB{
		"gauge_id": req.GaugeID,
	})
}

// UpdateStatus 裁决启封申请并盖章。先锁行，按迁移表校验（终态不可再变更）。
func (r *UnsealRepository) UpdateStatus(tx *gorm.DB, requestID, newStatus, actorID string) (*entity.UnsealRequest, error) {
	if err := requireTx(tx); err != nil {
		return nil, err
	}

	var req entity.UnsealRequest
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&req, "id = ?", requestID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: 启封申请不存在 (%s)", ErrNotFound, requestID)
	}
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(unsealTransitions[req.Status], newStatus) {
		return nil, fmt.Errorf("%w: 启封状态不可从 %s 变更为 %s", ErrInvalidOperation, req.Status, newStatus)
	}

	now := time.Now()
	if err := tx.Model(&entity.UnsealRequest{}).
		Where("id = ?", req.ID).
		Updates(map[string]interface{}{
			"status":      newStatus,
			"resolved_by": actorID,
			"resolved_at": now,
		}).Error; err != nil {
		return nil, err
	}

	if err := r.audit.Append(tx, actorID, "unseal_"+newStatus, "unseal_request", req.ID, entity.JSONB{
		"gauge_id": req.GaugeID,
	}); err != nil {
		return nil, err
	}

	req.Status = newStatus
	req.ResolvedBy = actorID
	req.ResolvedAt = &now
	return &req, nil
}

// UpsertCalibrationSchedule 写入校准计划：单条原子upsert，
// 依赖 (gauge_id) WHERE is_active 部分唯一索引，两个并发审批
// 不会各插一条活动计划。
func (r *UnsealRepository) UpsertCalibrationSchedule(tx *gorm.DB, gaugeID uint, nextDueAt time.Time, frequencyDays int) error {
	if err := requireTx(tx); err != nil {
		return err
	}
	return tx.Exec(`
		INSERT INTO calibration_schedules (id, gauge_id, next_due_at, frequency_days, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, TRUE, NOW(), NOW())
		ON CONFLICT (gauge_id) WHERE is_active
		DO UPDATE SET next_due_at = EXCLUDED.next_due_at,
			frequency_days = EXCLUDED.frequency_days,
			updated_at = NOW()`,
		uuid.New().String()[:32], gaugeID, nextDueAt, frequencyDays).Error
}

// FindActiveSchedule 查询量具当前的活动校准计划，无则返回nil
func (r *UnsealRepository) FindActiveSchedule(gaugeID uint) (*entity.CalibrationSchedule, error) {
	var schedule entity.CalibrationSchedule
	err := r.db.Where("gauge_id = ? AND is_active", gaugeID).First(&schedule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// ListPending 查询待审批的启封申请（时间升序，先到先审）
func (r *UnsealRepository) ListPending() ([]entity.UnsealRequest, error) {
	var reqs []entity.UnsealRequest
	err := r.db.Where("status = ?", entity.UnsealStatusPending).
		Order("created_at ASC").Find(&reqs).Error
	return reqs, err
}

// ListByGauge 查询某量具的全部启封申请历史
func (r *UnsealRepository) ListByGauge(gaugeID uint) ([]entity.UnsealRequest, error) {
	var reqs []entity.UnsealRequest
	err := r.db.Where("gauge_id = ?", gaugeID).
		Order("created_at DESC").Find(&reqs).Error
	return reqs, err
}
