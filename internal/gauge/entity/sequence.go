package entity

import "time"

// SequenceCounter 编号序列计数器：每个(类别, 子类型)一行。
// current_sequence单调不减，且只在排他行锁内递增，保证并发分配不重号。
type SequenceCounter struct {
	ID              uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CategoryID      string    `json:"category_id" gorm:"size:32;not null;uniqueIndex:idx_seq_category_subtype"`
	SubType         string    `json:"sub_type" gorm:"size:32;not null;uniqueIndex:idx_seq_category_subtype"`
	CurrentSequence int       `json:"current_sequence" gorm:"not null;default:0"`
	Prefix          string    `json:"prefix" gorm:"size:16;not null"`
	Name            string    `json:"name" gorm:"size:64;not null"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (SequenceCounter) TableName() string {
	return "sequence_counters"
}
