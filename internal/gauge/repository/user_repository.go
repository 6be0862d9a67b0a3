package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/kelly-enterprises/gauge-erp/internal/gauge/entity"
	"gorm.io/gorm"
)

// UserRepository 用户目录（只读协作方）
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID 根据ID查找用户
func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: 用户不存在 (%s)", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListActive 获取所有活跃用户
func (r *UserRepository) ListActive(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	err := r.db.WithContext(ctx).
		Where("status = ?", "active").
		Order("name ASC").Find(&users).Error
	return users, err
}

// Search 按名字/邮箱模糊搜索用户
func (r *UserRepository) Search(ctx context.Context, query string) ([]entity.User, error) {
	kw := "%" + query + "%"
	var users []entity.User
	err := r.db.WithContext(ctx).
		Where("name ILIKE ? OR email ILIKE ?", kw, kw).
		Order("name ASC").Limit(20).Find(&users).Error
	return users, err
}
