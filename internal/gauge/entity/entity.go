package entity

import "gorm.io/gorm"

// AutoMigrate 自动迁移所有表
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&Gauge{},
		&GaugeSpec{},
		&SequenceCounter{},
		&CheckoutRecord{},
		&TransferRequest{},
		&UnsealRequest{},
		&CalibrationSchedule{},
		&CalibrationBatch{},
		&BatchMembership{},
		&CompanionHistory{},
		&OperationLog{},
	); err != nil {
		return err
	}

	// 活动校准计划唯一性：原子upsert依赖该部分唯一索引
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_calibration_schedules_active_gauge
		ON calibration_schedules (gauge_id) WHERE is_active`).Error
}
