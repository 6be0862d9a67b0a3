package entity

import "time"

// BatchStatus 校准批次状态，线性推进不可回退
const (
	BatchStatusPendingSend = "pending_send"
	BatchStatusSent        = "sent"
	BatchStatusCompleted   = "completed"
)

// CalibrationBatch 外校批次：一批量具打包送外部校准机构
type CalibrationBatch struct {
	ID              string     `json:"id" gorm:"primaryKey;size:32"`
	CalibrationType string     `json:"calibration_type" gorm:"size:32;not null"`
	Status          string     `json:"status" gorm:"size:16;not null;default:pending_send;index"`
	VendorName      string     `json:"vendor_name" gorm:"size:128"`
	TrackingNo      string     `json:"tracking_no" gorm:"size:64"`
	CertificatePath string     `json:"certificate_path" gorm:"size:256"`
	CreatedBy       string     `json:"created_by" gorm:"size:32;not null"`
	SentAt          *time.Time `json:"sent_at"`
	CompletedAt     *time.Time `json:"completed_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (CalibrationBatch) TableName() string {
	return "calibration_batches"
}

// BatchMembership 批次成员关系。同一量具同一时间至多属于一个
// pending_send/sent 批次（加入时在量具行锁内校验）。
type BatchMembership struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	BatchID   string    `json:"batch_id" gorm:"size:32;not null;uniqueIndex:idx_batch_gauge"`
	GaugeID   uint      `json:"gauge_id" gorm:"not null;uniqueIndex:idx_batch_gauge;index"`
	CreatedAt time.Time `json:"created_at"`
}

func (BatchMembership) TableName() string {
	return "calibration_batch_members"
}

// BatchStatistics 批次进度统计（按成员量具状态聚合）
type BatchStatistics struct {
	Total              int `json:"total"`
	OutForCalibration  int `json:"out_for_calibration"`
	PendingCertificate int `json:"pending_certificate"`
	PendingRelease     int `json:"pending_release"`
	Completed          int `json:"completed"`
}
