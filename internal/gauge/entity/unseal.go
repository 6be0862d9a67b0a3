package entity

import "time"

// UnsealStatus 启封申请状态（终态不可再变更）
const (
	UnsealStatusPending  = "pending"
	UnsealStatusApproved = "approved"
	UnsealStatusRejected = "rejected"
)

// UnsealRequest 启封申请：封存量具投入使用前必须经过的审批，只追加。
type UnsealRequest struct {
	ID          string     `json:"id" gorm:"primaryKey;size:32"`
	GaugeID     uint       `json:"gauge_id" gorm:"not null;index"`
	RequestedBy string     `json:"requested_by" gorm:"size:32;not null"`
	Status      string     `json:"status" gorm:"size:16;not null;default:pending;index"`
	Reason      string     `json:"reason" gorm:"type:text;not null"`
	ResolvedBy  string     `json:"resolved_by" gorm:"size:32"`
	ResolvedAt  *time.Time `json:"resolved_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (UnsealRequest) TableName() string {
	return "unseal_requests"
}

// CalibrationSchedule 校准计划。每只量具同一时间恰好一条活动计划，
// 由 (gauge_id) WHERE is_active 部分唯一索引保证（见entity.AutoMigrate）。
type CalibrationSchedule struct {
	ID            string    `json:"id" gorm:"primaryKey;size:32"`
	GaugeID       uint      `json:"gauge_id" gorm:"not null;index"`
	NextDueAt     time.Time `json:"next_due_at" gorm:"not null"`
	FrequencyDays int       `json:"frequency_days" gorm:"not null;default:365"`
	IsActive      bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (CalibrationSchedule) TableName() string {
	return "calibration_schedules"
}
