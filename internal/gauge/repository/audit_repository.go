package repository

import (
	"github.com/google/uuid"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/entity"
	"gorm.io/gorm"
)

// AuditRepository 操作审计：每次状态变更追加一行，随调用方事务一起提交
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append 追加审计记录（必须在调用方事务内，与业务写入同生共死）
func (r *AuditRepository) Append(tx *gorm.DB, actorID, action, entityType, entityID string, detail entity.JSONB) error {
	if err := requireTx(tx); err != nil {
		return err
	}
	return tx.Create(&entity.OperationLog{
		ID:         uuid.New().String()[:32],
		UserID:     actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
	}).Error
}

// ListByEntity 查询某实体的审计记录（时间倒序）
func (r *AuditRepository) ListByEntity(entityType, entityID string, limit int) ([]entity.OperationLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []entity.OperationLog
	err := r.db.Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
