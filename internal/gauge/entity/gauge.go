package entity

import "time"

// EquipmentType 设备类型
const (
	EquipmentTypeGauge          = "gauge"           // 常规量具，可借出
	EquipmentTypeLargeEquipment = "large_equipment" // 大型固定设备，不可借出
)

// SubType 量具子类型
const (
	SubTypePlug = "plug" // 螺纹塞规
	SubTypeRing = "ring" // 螺纹环规
)

// GaugeStatus 量具生命周期状态
const (
	StatusAvailable          = "available"
	StatusCheckedOut         = "checked_out"
	StatusCalibrationDue     = "calibration_due"
	StatusOutOfService       = "out_of_service"
	StatusPendingUnseal      = "pending_unseal"
	StatusPendingQC          = "pending_qc"
	StatusRetired            = "retired"
	StatusOutForCalibration  = "out_for_calibration"
	StatusPendingCertificate = "pending_certificate"
	StatusPendingRelease     = "pending_release"
)

// SetRole 成对角色：通规/止规
const (
	SetRoleGo   = "GO"
	SetRoleNoGo = "NOGO"
)

// Gauge 量具主记录。GaugeNo为公开编号，分配后不可变；ID为内部主键。
// set_id要么为空，要么恰好由一通一止两只量具共享。
type Gauge struct {
	ID            uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	GaugeNo       string     `json:"gauge_no" gorm:"size:64;uniqueIndex;not null"`
	CategoryID    string     `json:"category_id" gorm:"size:32;not null;index"`
	SubType       string     `json:"sub_type" gorm:"size:32;not null"`
	EquipmentType string     `json:"equipment_type" gorm:"size:32;not null;default:gauge"`
	Status        string     `json:"status" gorm:"size:32;not null;default:available;index"`
	IsSealed      bool       `json:"is_sealed" gorm:"not null;default:false"`
	SetID         *string    `json:"set_id" gorm:"size:32;index"`
	SetRole       string     `json:"set_role" gorm:"size:8"`
	IsActive      bool       `json:"is_active" gorm:"not null;default:true"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at" gorm:"index"` // 只做软删除，不物理删除
}

func (Gauge) TableName() string {
	return "gauges"
}

// GaugeSpec 量具规格明细（按子类型填写）
type GaugeSpec struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	GaugeID    uint      `json:"gauge_id" gorm:"not null;uniqueIndex"`
	ThreadSpec string    `json:"thread_spec" gorm:"size:64"` // 如 M6x1-6H
	SizeSpec   string    `json:"size_spec" gorm:"size:64"`
	Tolerance  string    `json:"tolerance" gorm:"size:32"`
	Remark     string    `json:"remark" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
}

func (GaugeSpec) TableName() string {
	return "gauge_specs"
}
