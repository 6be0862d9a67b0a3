package repository

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 转移状态迁移表：每次写入前显式校验，拒绝任意状态跳转
var transferTransitions = map[string][]string{
	entity.TransferStatusPending:  {entity.TransferStatusAccepted, entity.TransferStatusRejected, entity.TransferStatusCancelled},
	entity.TransferStatusAccepted: {entity.TransferStatusCompleted},
}

// TransferRepository 保管权转移工作流
type TransferRepository struct {
	db    *gorm.DB
	audit *AuditRepository
}

func NewTransferRepository(db *gorm.DB, audit *AuditRepository) *TransferRepository {
	return &TransferRepository{db: db, audit: audit}
}

// Create 创建转移单，初始状态pending
func (r *TransferRepository) Create(tx *gorm.DB, req *entity.TransferRequest) error {
	if err := requireTx(tx); err != nil {
		return err
	}
	if req.FromUserID == "" || req.ToUserID == "" || req.Reason == "" {
		return fmt.Errorf("%w: 转出人、接收人和原因均不能为空", ErrInvalidOperation)
	}

	req.ID = uuid.New().String()[:32]
	req.Status = entity.TransferStatusPending
	if err := tx.Create(req).Error; err != nil {
		return fmt.Errorf("创建转移单失败: %w", err)
	}

	return r.audit.Append(tx, req.FromUserID, "transfer_create", "transfer", req.ID, entity.JSONB{
		"gauge_id": req.GaugeID,
		"to_user":  req.ToUserID,
	})
}

// UpdateStatus 变更转移单状态并盖章。先锁行，按迁移表校验合法性。
func (r *TransferRepository) UpdateStatus(tx *gorm.DB, transferID, newStatus, actorID string) (*entity.TransferRequest, error) {
	if err := requireTx(tx); err != nil {
		return nil, err
	}

	var req entity.TransferRequest
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&req, "id = ?", transferID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: 转移单不存在 (%s)", ErrNotFound, transferID)
	}
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(transferTransitions[req.Status], newStatus) {
		return nil, fmt.Errorf("%w: 转移状态不可从 %s 变更为 %s", ErrInvalidOperation, req.Status, newStatus)
	}

	now := time.Now()
	if err := tx.Model(&entity.TransferRequest{}).
		Where("id = ?", req.ID).
		Updates(map[string]interface{}{
			"status":            newStatus,
			"status_changed_at": now,
			"status_changed_by": actorID,
		}).Error; err != nil {
		return nil, err
	}

	if err := r.audit.Append(tx, actorID, "transfer_"+newStatus, "transfer", req.ID, entity.JSONB{
		"gauge_id":    req.GaugeID,
		"from_status": req.Status,
	}); err != nil {
		return nil, err
	}

	req.Status = newStatus
	req.StatusChangedAt = &now
	req.StatusChangedBy = actorID
	return &req, nil
}

// CancelByGauge 批量取消某量具的全部待处理转移单（量具转为不可用时调用）。
// 原因追加到已有原因之后，不覆盖。
func (r *TransferRepository) CancelByGauge(tx *gorm.DB, gaugeID uint, actorID, reason string) (int64, error) {
	if err := requireTx(tx); err != nil {
		return 0, err
	}

	res := tx.Model(&entity.TransferRequest{}).
		Where("gauge_id = ? AND status = ?", gaugeID, entity.TransferStatusPending).
		Updates(map[string]interface{}{
			"status":            entity.TransferStatusCancelled,
			"status_changed_at": time.Now(),
			"status_changed_by": actorID,
			"reason":            gorm.Expr("reason || ?", "；"+reason),
		})
	if res.Error != nil {
		return 0, res.Error
	}

	if res.RowsAffected > 0 {
		if err := r.audit.Append(tx, actorID, "transfer_bulk_cancel", "gauge",
			strconv.FormatUint(uint64(gaugeID), 10), entity.JSONB{
				"cancelled": res.RowsAffected,
				"reason":    reason,
			}); err != nil {
			return 0, err
		}
	}
	return res.RowsAffected, nil
}

// FindByID 查询转移单
func (r *TransferRepository) FindByID(transferID string) (*entity.TransferRequest, error) {
	var req entity.TransferRequest
	err := r.db.First(&req, "id = ?", transferID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: 转移单不存在 (%s)", ErrNotFound, transferID)
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListByUser 查询与某用户相关（转出或接收）的转移单
func (r *TransferRepository) ListByUser(userID string) ([]entity.TransferRequest, error) {
	var reqs []entity.TransferRequest
	err := r.db.Where("from_user_id = ? OR to_user_id = ?", userID, userID).
		Order("created_at DESC").Find(&reqs).Error
	return reqs, err
}

// ListByGauge 查询某量具的转移历史
func (r *TransferRepository) ListByGauge(gaugeID uint) ([]entity.TransferRequest, error) {
	var reqs []entity.TransferRequest
	err := r.db.Where("gauge_id = ?", gaugeID).
		Order("created_at DESC").Find(&reqs).Error
	return reqs, err
}

func transitionAllowed(allowed []string, target string) bool {
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}
