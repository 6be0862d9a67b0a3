package repository

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/kelly-enterprises/gauge-erp/internal/gauge/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FindGaugeByRef 解析量具引用并读取记录（不加锁）。
// ref为纯数字时按内部主键解析，否则按公开编号解析。
func FindGaugeByRef(q *gorm.DB, ref string) (*entity.Gauge, error) {
	return findGauge(q, ref)
}

// LockGaugeByRef 解析量具引用并加排他行锁。所有改变量具状态的
// 工作流都必须先经过这里，再读取状态做判定。
func LockGaugeByRef(tx *gorm.DB, ref string) (*entity.Gauge, error) {
	if err := requireTx(tx); err != nil {
		return nil, err
	}
	return findGauge(tx.Clauses(clause.Locking{Strength: "UPDATE"}), ref)
}

// LockGaugeByID 按内部主键加排他行锁
func LockGaugeByID(tx *gorm.DB, id uint) (*entity.Gauge, error) {
	if err := requireTx(tx); err != nil {
		return nil, err
	}
	var g entity.Gauge
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&g, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: 量具不存在 (id=%d)", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func findGauge(q *gorm.DB, ref string) (*entity.Gauge, error) {
	var g entity.Gauge
	var err error
	if id, perr := strconv.ParseUint(ref, 10, 64); perr == nil {
		err = q.First(&g, "id = ?", id).Error
	} else {
		err = q.First(&g, "gauge_no = ?", ref).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: 量具不存在 (%s)", ErrNotFound, ref)
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}
