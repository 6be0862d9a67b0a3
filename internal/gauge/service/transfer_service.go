package service

import (
	"context"
	"fmt"

	"github.com/kelly-enterprises/gauge-erp/internal/gauge/entity"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/repository"
	"gorm.io/gorm"
)

// TransferService 保管权转移：挂起申请、裁决、完成交接
type TransferService struct {
	db        *gorm.DB
	repos     *repository.Repositories
	directory *DirectoryService
}

// NewTransferService 创建转移服务
func NewTransferService(db *gorm.DB, repos *repository.Repositories, directory *DirectoryService) *TransferService {
	return &TransferService{db: db, repos: repos, directory: directory}
}

// CreateTransferRequest 创建转移申请参数
type CreateTransferRequest struct {
	GaugeRef string `json:"gauge_ref" binding:"required"`
	ToUserID string `json:"to_user_id" binding:"required"`
	Reason   string `json:"reason" binding:"required"`
}

// Create 创建转移申请。只能转移本人持有（在借）的量具。
func (s *TransferService) Create(ctx context.Context, req CreateTransferRequest, fromUserID string) (*entity.TransferRequest, error) {
	var transfer *entity.TransferRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		g, err := repository.LockGaugeByRef(tx, req.GaugeRef)
		if err != nil {
			return err
		}
		if g.Status != entity.StatusCheckedOut {
			return fmt.Errorf("%w: 量具未在借出中，无法转移", repository.ErrInvalidOperation)
		}

		record, err := s.repos.Checkout.FindActiveRecord(g.ID)
		if err != nil {
			return err
		}
		if record == nil || record.UserID != fromUserID {
			return fmt.Errorf("%w: 只能转移本人持有的量具", repository.ErrInvalidOperation)
		}

		transfer = &entity.TransferRequest{
			GaugeID:    g.ID,
			FromUserID: fromUserID,
			ToUserID:   req.ToUserID,
			Reason:     req.Reason,
		}
		return s.repos.Transfer.Create(tx, transfer)
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

// Accept 接收方同意转移
func (s *TransferService) Accept(ctx context.Context, transferID, actorID string) (*entity.TransferRequest, error) {
	return s.updateStatus(ctx, transferID, entity.TransferStatusAccepted, actorID)
}

// Reject 接收方拒绝转移
func (s *TransferService) Reject(ctx context.Context, transferID, actorID string) (*entity.TransferRequest, error) {
	return s.updateStatus(ctx, transferID, entity.TransferStatusRejected, actorID)
}

// Cancel 转出方撤回转移
func (s *TransferService) Cancel(ctx context.Context, transferID, actorID string) (*entity.TransferRequest, error) {
	return s.updateStatus(ctx, transferID, entity.TransferStatusCancelled, actorID)
}

func (s *TransferService) updateStatus(ctx context.Context, transferID, status, actorID string) (*entity.TransferRequest, error) {
	var transfer *entity.TransferRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		transfer, err = s.repos.Transfer.UpdateStatus(tx, transferID, status, actorID)
		return err
	})
	return transfer, err
}

// Complete 完成交接：转移单收尾，并把在借记录改挂到接收人名下。
// 状态变更与保管记录改写在同一事务内。
func (s *TransferService) Complete(ctx context.Context, transferID, actorID string) (*entity.TransferRequest, error) {
	var transfer *entity.TransferRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		transfer, err = s.repos.Transfer.UpdateStatus(tx, transferID, entity.TransferStatusCompleted, actorID)
		if err != nil {
			return err
		}

		if _, err := repository.LockGaugeByID(tx, transfer.GaugeID); err != nil {
			return err
		}
		return tx.Model(&entity.CheckoutRecord{}).
			Where("gauge_id = ?", transfer.GaugeID).
			Update("user_id", transfer.ToUserID).Error
	})
	return transfer, err
}

// TransferView 转移单视图：附带双方展示名
type TransferView struct {
	entity.TransferRequest
	FromUserName string `json:"from_user_name"`
	ToUserName   string `json:"to_user_name"`
}

// ListForUser 查询与某用户相关的转移单，装饰展示名（只读，不加锁）
func (s *TransferService) ListForUser(ctx context.Context, userID string) ([]TransferView, error) {
	reqs, err := s.repos.Transfer.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(reqs)*2)
	for _, req := range reqs {
		ids = append(ids, req.FromUserID, req.ToUserID)
	}
	names := s.directory.DisplayNames(ctx, ids)

	views := make([]TransferView, 0, len(reqs))
	for _, req := range reqs {
		views = append(views, TransferView{
			TransferRequest: req,
			FromUserName:    names[req.FromUserID],
			ToUserName:      names[req.ToUserID],
		})
	}
	return views, nil
}
