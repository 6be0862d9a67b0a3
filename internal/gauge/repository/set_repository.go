package repository

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SetRepository 通止规成对关系管理：建对、入组、解组、查配对
type SetRepository struct {
	db *gorm.DB
}

func NewSetRepository(db *gorm.DB) *SetRepository {
	return &SetRepository{db: db}
}

// PairUnit 建对时单只量具的输入（量具主记录 + 可选规格明细）
type PairUnit struct {
	Gauge *entity.Gauge
	Spec  *entity.GaugeSpec
}

// CreatePair 插入一通一止两只量具及其规格行。此时两只互相独立，
// 未入组；入组由LinkIntoSet单独完成。
func (r *SetRepository) CreatePair(tx *gorm.DB, goUnit, noGoUnit *PairUnit) (uint, uint, error) {
	if err := requireTx(tx); err != nil {
		return 0, 0, err
	}

	goUnit.Gauge.SetRole = entity.SetRoleGo
	noGoUnit.Gauge.SetRole = entity.SetRoleNoGo

	for _, u := range []*PairUnit{goUnit, noGoUnit} {
		if err := tx.Create(u.Gauge).Error; err != nil {
			return 0, 0, fmt.Errorf("创建量具失败: %w", err)
		}
		if u.Spec != nil {
			u.Spec.ID = uuid.New().String()[:32]
			u.Spec.GaugeID = u.Gauge.ID
			if err := tx.Create(u.Spec).Error; err != nil {
				return 0, 0, fmt.Errorf("创建量具规格失败: %w", err)
			}
		}
	}
	return goUnit.Gauge.ID, noGoUnit.Gauge.ID, nil
}

// LinkIntoSet 把两只量具链接为一组。按内部主键升序加锁，
// 避免两个交叠配对操作互相等待形成死锁。
func (r *SetRepository) LinkIntoSet(tx *gorm.DB, goID, noGoID uint, setID string) error {
	if err := requireTx(tx); err != nil {
		return err
	}

	first, second := goID, noGoID
	if second < first {
		first, second = second, first
	}
	for _, id := range []uint{first, second} {
		if _, err := LockGaugeByID(tx, id); err != nil {
			return err
		}
	}

	return tx.Model(&entity.Gauge{}).
		Where("id IN ?", []uint{goID, noGoID}).
		Update("set_id", setID).Error
}

// UnlinkSet 解组。量具未入组时为no-op；否则清掉共享该set_id的
// 所有成员（按构造恰好两只，按"全部成员"写是为了容忍数据修复场景）。
func (r *SetRepository) UnlinkSet(tx *gorm.DB, gaugeID uint) error {
	if err := requireTx(tx); err != nil {
		return err
	}

	g, err := LockGaugeByID(tx, gaugeID)
	if err != nil {
		return err
	}
	if g.SetID == nil {
		return nil
	}

	return tx.Model(&entity.Gauge{}).
		Where("set_id = ?", *g.SetID).
		Update("set_id", nil).Error
}

// GetCompanion 查询配对的另一只量具（不加锁的咨询性读）。未配对返回nil。
func (r *SetRepository) GetCompanion(gaugeID uint) (*entity.Gauge, error) {
	return r.companion(r.db, gaugeID, false)
}

// GetCompanionForUpdate 查询配对量具并对其加排他锁，供后续更新使用
func (r *SetRepository) GetCompanionForUpdate(tx *gorm.DB, gaugeID uint) (*entity.Gauge, error) {
	if err := requireTx(tx); err != nil {
		return nil, err
	}
	return r.companion(tx, gaugeID, true)
}

func (r *SetRepository) companion(q *gorm.DB, gaugeID uint, forUpdate bool) (*entity.Gauge, error) {
	var g entity.Gauge
	err := q.First(&g, "id = ?", gaugeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: 量具不存在 (id=%d)", ErrNotFound, gaugeID)
	}
	if err != nil {
		return nil, err
	}
	if g.SetID == nil {
		return nil, nil
	}

	query := q
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var companion entity.Gauge
	err = query.Where("set_id = ? AND id <> ?", *g.SetID, gaugeID).First(&companion).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &companion, nil
}

// RecordHistory 追加配对历史
func (r *SetRepository) RecordHistory(tx *gorm.DB, goID, noGoID uint, action, actorID, reason string, metadata entity.JSONB) error {
	if err := requireTx(tx); err != nil {
		return err
	}
	return tx.Create(&entity.CompanionHistory{
		ID:          uuid.New().String()[:32],
		GoGaugeID:   goID,
		NoGoGaugeID: noGoID,
		Action:      action,
		ActorID:     actorID,
		Reason:      reason,
		Metadata:    metadata,
	}).Error
}

// ListHistory 查询涉及某量具的配对历史（时间倒序）
func (r *SetRepository) ListHistory(gaugeID uint) ([]entity.CompanionHistory, error) {
	var histories []entity.CompanionHistory
	err := r.db.Where("go_gauge_id = ? OR no_go_gauge_id = ?", gaugeID, gaugeID).
		Order("created_at DESC").Find(&histories).Error
	return histories, err
}
