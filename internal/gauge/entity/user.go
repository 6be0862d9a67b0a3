package entity

import "time"

// User 用户目录（只读协作方，用于展示名装饰，不参与加锁路径）
type User struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	Username   string    `json:"username" gorm:"size:64;uniqueIndex;not null"`
	Name       string    `json:"name" gorm:"size:64;not null"`
	Email      string    `json:"email" gorm:"size:128"`
	Department string    `json:"department" gorm:"size:64"`
	Status     string    `json:"status" gorm:"size:16;not null;default:active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
