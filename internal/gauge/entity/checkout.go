package entity

import "time"

// CheckoutRecord 借出记录：每只借出中的量具至多一行（gauge_id唯一索引保证），
// 借出时创建，归还时删除。
type CheckoutRecord struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	GaugeID      uint      `json:"gauge_id" gorm:"not null;uniqueIndex"`
	UserID       string    `json:"user_id" gorm:"size:32;not null;index"`
	Department   string    `json:"department" gorm:"size:64"`
	CheckedOutAt time.Time `json:"checked_out_at" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
}

func (CheckoutRecord) TableName() string {
	return "checkout_records"
}
