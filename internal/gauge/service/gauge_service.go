package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/entity"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/repository"
	"gorm.io/gorm"
)

// GaugeService 量具发放、借出/归还与配对管理。
// 仓库层只收调用方事务；这里是开启事务的便捷入口。
type GaugeService struct {
	db    *gorm.DB
	repos *repository.Repositories
}

// NewGaugeService 创建量具服务
func NewGaugeService(db *gorm.DB, repos *repository.Repositories) *GaugeService {
	return &GaugeService{db: db, repos: repos}
}

// IssuePairRequest 发放通止规对请求参数
type IssuePairRequest struct {
	CategoryID    string `json:"category_id" binding:"required"`
	SubType       string `json:"sub_type" binding:"required"`
	EquipmentType string `json:"equipment_type"`
	ThreadSpec    string `json:"thread_spec"`
	Tolerance     string `json:"tolerance"`
	Remark        string `json:"remark"`
}

// IssuePair 发放一对通止规：分配序列号、生成公开编号、建对、入组、
// 记配对历史。全部在一个事务内，序列锁与编号落库同生共死。
func (s *GaugeService) IssuePair(ctx context.Context, req IssuePairRequest, actorID string) (*entity.Gauge, *entity.Gauge, error) {
	equipmentType := req.EquipmentType
	if equipmentType == "" {
		equipmentType = entity.EquipmentTypeGauge
	}

	var goGauge, noGoGauge *entity.Gauge
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		alloc, err := s.repos.Sequence.Allocate(tx, req.CategoryID, req.SubType)
		if err != nil {
			return err
		}

		base := fmt.Sprintf("%s-%04d", alloc.Prefix, alloc.SequenceNumber)
		goUnit := &repository.PairUnit{
			Gauge: &entity.Gauge{
				GaugeNo:       base + "-GO",
				CategoryID:    req.CategoryID,
				SubType:       req.SubType,
				EquipmentType: equipmentType,
				Status:        entity.StatusAvailable,
				IsActive:      true,
			},
			Spec: &entity.GaugeSpec{ThreadSpec: req.ThreadSpec, Tolerance: req.Tolerance, Remark: req.Remark},
		}
		noGoUnit := &repository.PairUnit{
			Gauge: &entity.Gauge{
				GaugeNo:       base + "-NG",
				CategoryID:    req.CategoryID,
				SubType:       req.SubType,
				EquipmentType: equipmentType,
				Status:        entity.StatusAvailable,
				IsActive:      true,
			},
			Spec: &entity.GaugeSpec{ThreadSpec: req.ThreadSpec, Tolerance: req.Tolerance, Remark: req.Remark},
		}

		goID, noGoID, err := s.repos.Set.CreatePair(tx, goUnit, noGoUnit)
		if err != nil {
			return err
		}

		setID := uuid.New().String()[:32]
		if err := s.repos.Set.LinkIntoSet(tx, goID, noGoID, setID); err != nil {
			return err
		}
		if err := s.repos.Set.RecordHistory(tx, goID, noGoID,
			entity.HistoryActionCreatedTogether, actorID, "", entity.JSONB{
				"gauge_no_base": base,
			}); err != nil {
			return err
		}
		if err := s.repos.Audit.Append(tx, actorID, "gauge_pair_issue", "gauge",
			strconv.FormatUint(uint64(goID), 10), entity.JSONB{
				"go_gauge_no":    goUnit.Gauge.GaugeNo,
				"no_go_gauge_no": noGoUnit.Gauge.GaugeNo,
			}); err != nil {
			return err
		}

		goUnit.Gauge.SetID = &setID
		noGoUnit.Gauge.SetID = &setID
		goGauge, noGoGauge = goUnit.Gauge, noGoUnit.Gauge
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return goGauge, noGoGauge, nil
}

// Checkout 借出便捷入口：自带事务
func (s *GaugeService) Checkout(ctx context.Context, ref, userID, department string) (*entity.CheckoutRecord, error) {
	var record *entity.CheckoutRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		record, err = s.repos.Checkout.Checkout(tx, ref, repository.CheckoutParams{
			UserID:     userID,
			Department: department,
		})
		return err
	})
	return record, err
}

// Return 归还便捷入口：自带事务
func (s *GaugeService) Return(ctx context.Context, ref, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repos.Checkout.Return(tx, ref, userID)
	})
}

// Companion 查询配对的另一只量具（未配对返回nil）
func (s *GaugeService) Companion(ctx context.Context, ref string) (*entity.Gauge, error) {
	g, err := repository.FindGaugeByRef(s.db.WithContext(ctx), ref)
	if err != nil {
		return nil, err
	}
	return s.repos.Set.GetCompanion(g.ID)
}

// lockBoth 按内部主键升序对两只量具加排他锁，锁后返回最新行。
// 与LinkIntoSet的加锁顺序一致，交叠的配对操作在锁上串行而不是互相等待。
func lockBoth(tx *gorm.DB, firstID, secondID uint) (*entity.Gauge, *entity.Gauge, error) {
	a, b := firstID, secondID
	if b < a {
		a, b = b, a
	}
	locked := make(map[uint]*entity.Gauge, 2)
	for _, id := range []uint{a, b} {
		g, err := repository.LockGaugeByID(tx, id)
		if err != nil {
			return nil, nil, err
		}
		locked[id] = g
	}
	return locked[firstID], locked[secondID], nil
}

// PairFromSpares 把两只库存中未配对的量具链接成一组
func (s *GaugeService) PairFromSpares(ctx context.Context, goRef, noGoRef, actorID, reason string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		goGauge, err := repository.FindGaugeByRef(tx, goRef)
		if err != nil {
			return err
		}
		noGoGauge, err := repository.FindGaugeByRef(tx, noGoRef)
		if err != nil {
			return err
		}
		goGauge, noGoGauge, err = lockBoth(tx, goGauge.ID, noGoGauge.ID)
		if err != nil {
			return err
		}
		if goGauge.SetID != nil || noGoGauge.SetID != nil {
			return fmt.Errorf("%w: 量具已在配对组中", repository.ErrInvalidOperation)
		}

		setID := uuid.New().String()[:32]
		if err := s.repos.Set.LinkIntoSet(tx, goGauge.ID, noGoGauge.ID, setID); err != nil {
			return err
		}
		return s.repos.Set.RecordHistory(tx, goGauge.ID, noGoGauge.ID,
			entity.HistoryActionPairedFromSpare, actorID, reason, nil)
	})
}

// ReplaceCompanion 替换配对：保留一只，解旧组，和新量具结新组
func (s *GaugeService) ReplaceCompanion(ctx context.Context, keepRef, newRef, actorID, reason string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		keep, err := repository.FindGaugeByRef(tx, keepRef)
		if err != nil {
			return err
		}
		replacement, err := repository.FindGaugeByRef(tx, newRef)
		if err != nil {
			return err
		}
		keep, replacement, err = lockBoth(tx, keep.ID, replacement.ID)
		if err != nil {
			return err
		}
		if replacement.SetID != nil {
			return fmt.Errorf("%w: 替换量具已在配对组中", repository.ErrInvalidOperation)
		}

		old, err := s.repos.Set.GetCompanionForUpdate(tx, keep.ID)
		if err != nil {
			return err
		}
		if err := s.repos.Set.UnlinkSet(tx, keep.ID); err != nil {
			return err
		}

		goID, noGoID := keep.ID, replacement.ID
		if keep.SetRole == entity.SetRoleNoGo {
			goID, noGoID = replacement.ID, keep.ID
		}
		setID := uuid.New().String()[:32]
		if err := s.repos.Set.LinkIntoSet(tx, goID, noGoID, setID); err != nil {
			return err
		}

		metadata := entity.JSONB{}
		if old != nil {
			metadata["replaced_gauge_id"] = old.ID
		}
		return s.repos.Set.RecordHistory(tx, goID, noGoID,
			entity.HistoryActionReplaced, actorID, reason, metadata)
	})
}

// Unpair 解除配对并记录历史
func (s *GaugeService) Unpair(ctx context.Context, ref, actorID, reason string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		g, err := repository.LockGaugeByRef(tx, ref)
		if err != nil {
			return err
		}
		companion, err := s.repos.Set.GetCompanionForUpdate(tx, g.ID)
		if err != nil {
			return err
		}
		if err := s.repos.Set.UnlinkSet(tx, g.ID); err != nil {
			return err
		}
		if companion == nil {
			return nil
		}

		goID, noGoID := g.ID, companion.ID
		if g.SetRole == entity.SetRoleNoGo {
			goID, noGoID = companion.ID, g.ID
		}
		return s.repos.Set.RecordHistory(tx, goID, noGoID,
			entity.HistoryActionUnpaired, actorID, reason, nil)
	})
}

// Get 查询量具（引用可为主键或公开编号）
func (s *GaugeService) Get(ctx context.Context, ref string) (*entity.Gauge, error) {
	return repository.FindGaugeByRef(s.db.WithContext(ctx), ref)
}

// PairingHistory 查询量具的配对历史
func (s *GaugeService) PairingHistory(ctx context.Context, ref string) ([]entity.CompanionHistory, error) {
	g, err := repository.FindGaugeByRef(s.db.WithContext(ctx), ref)
	if err != nil {
		return nil, err
	}
	return s.repos.Set.ListHistory(g.ID)
}

// ResetSequence 管理员重置序列计数器
func (s *GaugeService) ResetSequence(categoryID, subType string, value int) error {
	return s.repos.Sequence.ResetSequence(categoryID, subType, value)
}
