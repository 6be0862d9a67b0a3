package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kelly-enterprises/gauge-erp/internal/gauge/entity"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/repository"
	"gorm.io/gorm"
)

const defaultCalibrationFrequencyDays = 365

// UnsealService 启封审批：封存量具投入使用的闸门。
// 批准时在同一事务里清封存标记并重算校准计划。
type UnsealService struct {
	db        *gorm.DB
	repos     *repository.Repositories
	directory *DirectoryService
}

// NewUnsealService 创建启封服务
func NewUnsealService(db *gorm.DB, repos *repository.Repositories, directory *DirectoryService) *UnsealService {
	return &UnsealService{db: db, repos: repos, directory: directory}
}

// Request 申请启封。只有封存中的量具可以申请。
func (s *UnsealService) Request(ctx context.Context, gaugeRef, requesterID, reason string) (*entity.UnsealRequest, error) {
	var req *entity.UnsealRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		g, err := repository.LockGaugeByRef(tx, gaugeRef)
		if err != nil {
			return err
		}
		if !g.IsSealed {
			return fmt.Errorf("%w: 量具未封存，无需启封", repository.ErrInvalidOperation)
		}

		req = &entity.UnsealRequest{
			GaugeID:     g.ID,
			RequestedBy: requesterID,
			Reason:      reason,
		}
		return s.repos.Unseal.Create(tx, req)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// ApproveParams 批准启封参数：批准时重算校准计划
type ApproveParams struct {
	NextDueAt     time.Time `json:"next_due_at"`
	FrequencyDays int       `json:"frequency_days"`
}

// Approve 批准启封：裁决申请、清除封存标记、upsert活动校准计划。
// 三步同事务，任何一步失败整体回滚。
func (s *UnsealService) Approve(ctx context.Context, requestID, actorID string, p ApproveParams) (*entity.UnsealRequest, error) {
	frequency := p.FrequencyDays
	if frequency <= 0 {
		frequency = defaultCalibrationFrequencyDays
	}
	nextDue := p.NextDueAt
	if nextDue.IsZero() {
		nextDue = time.Now().AddDate(0, 0, frequency)
	}

	var req *entity.UnsealRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		req, err = s.repos.Unseal.UpdateStatus(tx, requestID, entity.UnsealStatusApproved, actorID)
		if err != nil {
			return err
		}

		if _, err := repository.LockGaugeByID(tx, req.GaugeID); err != nil {
			return err
		}
		if err := tx.Model(&entity.Gauge{}).
			Where("id = ?", req.GaugeID).
			Update("is_sealed", false).Error; err != nil {
			return err
		}

		return s.repos.Unseal.UpsertCalibrationSchedule(tx, req.GaugeID, nextDue, frequency)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Reject 驳回启封申请
func (s *UnsealService) Reject(ctx context.Context, requestID, actorID string) (*entity.UnsealRequest, error) {
	var req *entity.UnsealRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		req, err = s.repos.Unseal.UpdateStatus(tx, requestID, entity.UnsealStatusRejected, actorID)
		return err
	})
	return req, err
}

// UnsealView 启封申请视图：附带申请人展示名
type UnsealView struct {
	entity.UnsealRequest
	RequesterName string `json:"requester_name"`
}

// ListPending 查询待审批申请，装饰申请人展示名
func (s *UnsealService) ListPending(ctx context.Context) ([]UnsealView, error) {
	reqs, err := s.repos.Unseal.ListPending()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(reqs))
	for _, req := range reqs {
		ids = append(ids, req.RequestedBy)
	}
	names := s.directory.DisplayNames(ctx, ids)

	views := make([]UnsealView, 0, len(reqs))
	for _, req := range reqs {
		views = append(views, UnsealView{
			UnsealRequest: req,
			RequesterName: names[req.RequestedBy],
		})
	}
	return views, nil
}
