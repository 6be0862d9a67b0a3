package repository

import (
	"errors"
	"fmt"

	"github.com/kelly-enterprises/gauge-erp/internal/gauge/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceRepository 编号序列分配。并发正确性完全依赖计数器行的
// 排他锁：同一(category, subType)的两次并发分配在锁上串行，
// 后者等前者的事务提交或回滚后才能继续。
type SequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// AllocatedSequence 分配结果
type AllocatedSequence struct {
	SequenceNumber int    `json:"sequence_number"`
	Prefix         string `json:"prefix"`
	CategoryName   string `json:"category_name"`
}

// Allocate 在调用方事务内独占分配下一个序列号。
// 锁定-递增-回写必须与调用方后续的编号落库在同一事务内，
// 否则并发分配会产生重号。
func (r *SequenceRepository) Allocate(tx *gorm.DB, categoryID, subType string) (*AllocatedSequence, error) {
	if err := requireTx(tx); err != nil {
		return nil, err
	}

	var counter entity.SequenceCounter
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("category_id = ? AND sub_type = ?", categoryID, subType).
		First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: 序列配置不存在 (%s/%s)", ErrNotFound, categoryID, subType)
	}
	if err != nil {
		return nil, err
	}

	next := counter.CurrentSequence + 1
	if err := tx.Model(&entity.SequenceCounter{}).
		Where("id = ?", counter.ID).
		Update("current_sequence", next).Error; err != nil {
		return nil, err
	}

	return &AllocatedSequence{
		SequenceNumber: next,
		Prefix:         counter.Prefix,
		CategoryName:   counter.Name,
	}, nil
}

// ResetSequence 管理员重置计数器。单人维护操作，有意绕过行锁直接覆盖。
func (r *SequenceRepository) ResetSequence(categoryID, subType string, value int) error {
	res := r.db.Model(&entity.SequenceCounter{}).
		Where("category_id = ? AND sub_type = ?", categoryID, subType).
		Update("current_sequence", value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: 序列配置不存在 (%s/%s)", ErrNotFound, categoryID, subType)
	}
	return nil
}
