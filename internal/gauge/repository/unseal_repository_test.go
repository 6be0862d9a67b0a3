package repository_test

import (
	"errors"
	"testing"
	"time"

	"github.com/kelly-enterprises/gauge-erp/internal/gauge/entity"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/repository"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/testutil"
	"gorm.io/gorm"
)

func seedUnsealRequest(t *testing.T, db *gorm.DB, repos *repository.Repositories, gaugeID uint) *entity.UnsealRequest {
	t.Helper()
	req := &entity.UnsealRequest{
		GaugeID:     gaugeID,
		RequestedBy: "user-1",
		Reason:      "needed for production line",
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		return repos.Unseal.Create(tx, req)
	})
	if err != nil {
		t.Fatalf("Failed to seed unseal request: %v", err)
	}
	return req
}

func TestUnsealApproveStampsResolution(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	g := testutil.SeedGauge(t, db, "TPG-0030-GO", func(g *entity.Gauge) {
		g.IsSealed = true
	})
	req := seedUnsealRequest(t, db, repos, g.ID)

	var updated *entity.UnsealRequest
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		updated, err = repos.Unseal.UpdateStatus(tx, req.ID, entity.UnsealStatusApproved, "approver-1")
		return err
	})
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if updated.Status != entity.UnsealStatusApproved {
		t.Errorf("Expected approved, got %s", updated.Status)
	}
	if updated.ResolvedBy != "approver-1" || updated.ResolvedAt == nil {
		t.Errorf("Expected resolution stamp, got %+v", updated)
	}
}

func TestUnsealDoubleResolveRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	g := testutil.SeedGauge(t, db, "TPG-0031-GO", func(g *entity.Gauge) {
		g.IsSealed = true
	})
	req := seedUnsealRequest(t, db, repos, g.ID)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := repos.Unseal.UpdateStatus(tx, req.ID, entity.UnsealStatusRejected, "approver-1")
		return err
	})
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	// Terminal states cannot be re-resolved
	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := repos.Unseal.UpdateStatus(tx, req.ID, entity.UnsealStatusApproved, "approver-2")
		return err
	})
	if !errors.Is(err, repository.ErrInvalidOperation) {
		t.Errorf("Expected ErrInvalidOperation, got %v", err)
	}
}

func TestUnsealScheduleUpsertKeepsOneActiveRow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	g := testutil.SeedGauge(t, db, "TPG-0032-GO", nil)

	first := time.Now().AddDate(0, 6, 0).Truncate(time.Second)
	second := time.Now().AddDate(1, 0, 0).Truncate(time.Second)

	for _, due := range []time.Time{first, second} {
		err := db.Transaction(func(tx *gorm.DB) error {
			return repos.Unseal.UpsertCalibrationSchedule(tx, g.ID, due, 365)
		})
		if err != nil {
			t.Fatalf("UpsertCalibrationSchedule failed: %v", err)
		}
	}

	// Two upserts leave exactly one active schedule carrying the latest due date
	var count int64
	db.Model(&entity.CalibrationSchedule{}).
		Where("gauge_id = ? AND is_active", g.ID).Count(&count)
	if count != 1 {
		t.Fatalf("Expected exactly 1 active schedule, got %d", count)
	}

	schedule, err := repos.Unseal.FindActiveSchedule(g.ID)
	if err != nil {
		t.Fatalf("FindActiveSchedule failed: %v", err)
	}
	if schedule == nil {
		t.Fatal("Expected active schedule")
	}
	if !schedule.NextDueAt.Truncate(time.Second).Equal(second) {
		t.Errorf("Expected next_due_at %v, got %v", second, schedule.NextDueAt)
	}
}

func TestUnsealFindActiveScheduleNone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	g := testutil.SeedGauge(t, db, "TPG-0033-GO", nil)

	schedule, err := repos.Unseal.FindActiveSchedule(g.ID)
	if err != nil {
		t.Fatalf("FindActiveSchedule failed: %v", err)
	}
	if schedule != nil {
		t.Errorf("Expected nil schedule, got %+v", schedule)
	}
}

func TestUnsealListPendingOrdersOldestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	g1 := testutil.SeedGauge(t, db, "TPG-0034-GO", func(g *entity.Gauge) { g.IsSealed = true })
	g2 := testutil.SeedGauge(t, db, "TPG-0035-GO", func(g *entity.Gauge) { g.IsSealed = true })
	first := seedUnsealRequest(t, db, repos, g1.ID)
	seedUnsealRequest(t, db, repos, g2.ID)

	pending, err := repos.Unseal.ListPending()
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("Expected 2 pending, got %d", len(pending))
	}
	if pending[0].ID != first.ID {
		t.Errorf("Expected oldest request first, got %s", pending[0].ID)
	}
}
