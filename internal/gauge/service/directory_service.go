package service

import (
	"context"
	"time"

	"github.com/kelly-enterprises/gauge-erp/internal/gauge/repository"
	"github.com/redis/go-redis/v9"
)

const displayNameCacheTTL = 10 * time.Minute

// DirectoryService 用户目录查询：为工作流读装饰展示名。
// 只读，从不进入加锁路径；redis不可用时直接回源数据库。
type DirectoryService struct {
	repo *repository.UserRepository
	rdb  *redis.Client
}

// NewDirectoryService 创建用户目录服务
func NewDirectoryService(repo *repository.UserRepository, rdb *redis.Client) *DirectoryService {
	return &DirectoryService{repo: repo, rdb: rdb}
}

// DisplayName 查询用户展示名，redis缓存10分钟；查不到时回退为用户ID本身
func (s *DirectoryService) DisplayName(ctx context.Context, userID string) string {
	cacheKey := "user:name:" + userID
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			return cached
		}
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return userID
	}

	if s.rdb != nil {
		s.rdb.Set(ctx, cacheKey, user.Name, displayNameCacheTTL)
	}
	return user.Name
}

// DisplayNames 批量查询展示名
func (s *DirectoryService) DisplayNames(ctx context.Context, userIDs []string) map[string]string {
	names := make(map[string]string, len(userIDs))
	for _, id := range userIDs {
		if _, ok := names[id]; !ok {
			names[id] = s.DisplayName(ctx, id)
		}
	}
	return names
}
