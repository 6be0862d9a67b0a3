package entity

import "time"

// HistoryAction 配对历史动作
const (
	HistoryActionCreatedTogether = "created_together"
	HistoryActionPairedFromSpare = "paired_from_spares"
	HistoryActionReplaced        = "replaced"
	HistoryActionUnpaired        = "unpaired"
)

// CompanionHistory 配对历史：量具成对关系的每次建立/拆除/替换各追加一行
type CompanionHistory struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	GoGaugeID   uint      `json:"go_gauge_id" gorm:"not null;index"`
	NoGoGaugeID uint      `json:"no_go_gauge_id" gorm:"not null;index"`
	Action      string    `json:"action" gorm:"size:32;not null"`
	ActorID     string    `json:"actor_id" gorm:"size:32;not null"`
	Reason      string    `json:"reason" gorm:"type:text"`
	Metadata    JSONB     `json:"metadata" gorm:"type:jsonb"`
	CreatedAt   time.Time `json:"created_at"`
}

func (CompanionHistory) TableName() string {
	return "companion_histories"
}

// OperationLog 操作审计：每次状态变更写一行（操作人、动作、实体、明细）
type OperationLog struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	UserID     string    `json:"user_id" gorm:"size:32;not null;index"`
	Action     string    `json:"action" gorm:"size:64;not null;index"`
	EntityType string    `json:"entity_type" gorm:"size:32;not null"`
	EntityID   string    `json:"entity_id" gorm:"size:64;not null;index"`
	Detail     JSONB     `json:"detail" gorm:"type:jsonb"`
	CreatedAt  time.Time `json:"created_at"`
}

func (OperationLog) TableName() string {
	return "operation_logs"
}
