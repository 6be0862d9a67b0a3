package repository

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/entity"
	"gorm.io/gorm"
)

// CheckoutRepository 借出/归还状态机。借出记录、状态更新、审计三者
// 在同一事务内原子生效，任何一步失败整体回滚。
type CheckoutRepository struct {
	db    *gorm.DB
	audit *AuditRepository
}

func NewCheckoutRepository(db *gorm.DB, audit *AuditRepository) *CheckoutRepository {
	return &CheckoutRepository{db: db, audit: audit}
}

// CheckoutParams 借出参数（显式单一参数形状，调用方负责解析操作人）
type CheckoutParams struct {
	UserID     string
	Department string
}

// Checkout 借出量具。ref可为内部主键或公开编号。
// 先锁行再读状态，锁持有到本事务提交。
func (r *CheckoutRepository) Checkout(tx *gorm.DB, ref string, p CheckoutParams) (*entity.CheckoutRecord, error) {
	if err := requireTx(tx); err != nil {
		return nil, err
	}

	g, err := LockGaugeByRef(tx, ref)
	if err != nil {
		return nil, err
	}

	if g.EquipmentType == entity.EquipmentTypeLargeEquipment {
		return nil, fmt.Errorf("%w: 固定设备不可借出", ErrInvalidOperation)
	}
	if g.IsSealed {
		return nil, fmt.Errorf("%w: 封存量具需先审批启封", ErrInvalidOperation)
	}
	if g.Status == entity.StatusCalibrationDue {
		return nil, fmt.Errorf("%w: 量具已到校准期", ErrInvalidOperation)
	}
	if g.Status != entity.StatusAvailable {
		return nil, fmt.Errorf("%w: 量具当前不可借出 (status=%s)", ErrInvalidOperation, g.Status)
	}

	record := &entity.CheckoutRecord{
		ID:           uuid.New().String()[:32],
		GaugeID:      g.ID,
		UserID:       p.UserID,
		Department:   p.Department,
		CheckedOutAt: time.Now(),
	}
	if err := tx.Create(record).Error; err != nil {
		return nil, fmt.Errorf("创建借出记录失败: %w", err)
	}

	if err := tx.Model(&entity.Gauge{}).
		Where("id = ?", g.ID).
		Update("status", entity.StatusCheckedOut).Error; err != nil {
		return nil, err
	}

	if err := r.audit.Append(tx, p.UserID, "gauge_checkout", "gauge",
		strconv.FormatUint(uint64(g.ID), 10), entity.JSONB{
			"gauge_no":   g.GaugeNo,
			"department": p.Department,
		}); err != nil {
		return nil, err
	}
	return record, nil
}

// Return 归还量具。没有在借记录时容忍为no-op（不报错），
// 状态仍置回available并记审计。位置字段归移动子系统管辖，这里不碰。
func (r *CheckoutRepository) Return(tx *gorm.DB, ref string, userID string) error {
	if err := requireTx(tx); err != nil {
		return err
	}

	g, err := LockGaugeByRef(tx, ref)
	if err != nil {
		return err
	}

	res := tx.Delete(&entity.CheckoutRecord{}, "gauge_id = ?", g.ID)
	if res.Error != nil {
		return res.Error
	}

	if err := tx.Model(&entity.Gauge{}).
		Where("id = ?", g.ID).
		Update("status", entity.StatusAvailable).Error; err != nil {
		return err
	}

	return r.audit.Append(tx, userID, "gauge_return", "gauge",
		strconv.FormatUint(uint64(g.ID), 10), entity.JSONB{
			"gauge_no":   g.GaugeNo,
			"had_record": res.RowsAffected > 0,
		})
}

// FindActiveRecord 查询量具当前的在借记录，无在借返回nil
func (r *CheckoutRepository) FindActiveRecord(gaugeID uint) (*entity.CheckoutRecord, error) {
	var record entity.CheckoutRecord
	err := r.db.First(&record, "gauge_id = ?", gaugeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByUser 查询某用户的全部在借记录
func (r *CheckoutRepository) ListByUser(userID string) ([]entity.CheckoutRecord, error) {
	var records []entity.CheckoutRecord
	err := r.db.Where("user_id = ?", userID).
		Order("checked_out_at DESC").Find(&records).Error
	return records, err
}
