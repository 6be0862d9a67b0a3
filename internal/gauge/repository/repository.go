package repository

import "gorm.io/gorm"

// Repositories 仓库集合
type Repositories struct {
	Sequence    *SequenceRepository
	Set         *SetRepository
	Checkout    *CheckoutRepository
	Transfer    *TransferRepository
	Unseal      *UnsealRepository
	Calibration *CalibrationRepository
	Audit       *AuditRepository
	User        *UserRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	audit := NewAuditRepository(db)
	return &Repositories{
		Sequence:    NewSequenceRepository(db),
		Set:         NewSetRepository(db),
		Checkout:    NewCheckoutRepository(db, audit),
		Transfer:    NewTransferRepository(db, audit),
		Unseal:      NewUnsealRepository(db, audit),
		Calibration: NewCalibrationRepository(db, audit),
		Audit:       audit,
		User:        NewUserRepository(db),
	}
}
