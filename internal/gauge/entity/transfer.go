package entity

import "time"

// TransferStatus 转移单状态
const (
	TransferStatusPending   = "pending"
	TransferStatusAccepted  = "accepted"
	TransferStatusRejected  = "rejected"
	TransferStatusCancelled = "cancelled"
	TransferStatusCompleted = "completed"
)

// TransferRequest 保管权转移单：每次转移尝试一行，只追加不删除。
// 状态终结后除审计字段外不再修改。
type TransferRequest struct {
	ID              string     `json:"id" gorm:"primaryKey;size:32"`
	GaugeID         uint       `json:"gauge_id" gorm:"not null;index"`
	FromUserID      string     `json:"from_user_id" gorm:"size:32;not null;index"`
	ToUserID        string     `json:"to_user_id" gorm:"size:32;not null;index"`
	Status          string     `json:"status" gorm:"size:16;not null;default:pending;index"`
	Reason          string     `json:"reason" gorm:"type:text;not null"`
	StatusChangedAt *time.Time `json:"status_changed_at"`
	StatusChangedBy string     `json:"status_changed_by" gorm:"size:32"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (TransferRequest) TableName() string {
	return "transfer_requests"
}
