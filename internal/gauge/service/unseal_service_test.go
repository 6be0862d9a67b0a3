package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kelly-enterprises/gauge-erp/internal/gauge/entity"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/repository"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/service"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/testutil"
)

func TestSealedGaugeBlockedUntilApproved(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	directory := service.NewDirectoryService(repos.User, nil)
	gaugeSvc := service.NewGaugeService(db, repos)
	unsealSvc := service.NewUnsealService(db, repos, directory)
	ctx := context.Background()

	g := testutil.SeedGauge(t, db, "TPG-0050-GO", func(g *entity.Gauge) {
		g.IsSealed = true
	})

	// Sealed gauge cannot be checked out
	_, err := gaugeSvc.Checkout(ctx, g.GaugeNo, "user-1", "QC")
	if !errors.Is(err, repository.ErrInvalidOperation) {
		t.Fatalf("Expected ErrInvalidOperation for sealed gauge, got %v", err)
	}

	req, err := unsealSvc.Request(ctx, g.GaugeNo, "user-1", "production run")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	// Still blocked while the request is pending
	_, err = gaugeSvc.Checkout(ctx, g.GaugeNo, "user-1", "QC")
	if !errors.Is(err, repository.ErrInvalidOperation) {
		t.Fatalf("Expected checkout still blocked while pending, got %v", err)
	}

	approved, err := unsealSvc.Approve(ctx, req.ID, "approver-1", service.ApproveParams{})
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if approved.Status != entity.UnsealStatusApproved {
		t.Errorf("Expected approved, got %s", approved.Status)
	}

	// Approval unseals the gauge and makes it checkout-able
	if _, err := gaugeSvc.Checkout(ctx, g.GaugeNo, "user-1", "QC"); err != nil {
		t.Fatalf("Checkout after approval failed: %v", err)
	}
}

func TestApproveWritesCalibrationSchedule(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	directory := service.NewDirectoryService(repos.User, nil)
	unsealSvc := service.NewUnsealService(db, repos, directory)
	ctx := context.Background()

	g := testutil.SeedGauge(t, db, "TPG-0051-GO", func(g *entity.Gauge) {
		g.IsSealed = true
	})

	req, err := unsealSvc.Request(ctx, g.GaugeNo, "user-1", "production run")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	due := time.Now().AddDate(0, 3, 0).Truncate(time.Second)
	if _, err := unsealSvc.Approve(ctx, req.ID, "approver-1", service.ApproveParams{
		NextDueAt:     due,
		FrequencyDays: 90,
	}); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	schedule, err := repos.Unseal.FindActiveSchedule(g.ID)
	if err != nil {
		t.Fatalf("FindActiveSchedule failed: %v", err)
	}
	if schedule == nil {
		t.Fatal("Expected active schedule after approval")
	}
	if schedule.FrequencyDays != 90 {
		t.Errorf("Expected frequency 90, got %d", schedule.FrequencyDays)
	}
	if !schedule.NextDueAt.Truncate(time.Second).Equal(due) {
		t.Errorf("Expected next_due_at %v, got %v", due, schedule.NextDueAt)
	}
}

func TestRequestRejectedForUnsealedGauge(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	directory := service.NewDirectoryService(repos.User, nil)
	unsealSvc := service.NewUnsealService(db, repos, directory)
	ctx := context.Background()

	g := testutil.SeedGauge(t, db, "TPG-0052-GO", nil)

	_, err := unsealSvc.Request(ctx, g.GaugeNo, "user-1", "no need")
	if !errors.Is(err, repository.ErrInvalidOperation) {
		t.Errorf("Expected ErrInvalidOperation for unsealed gauge, got %v", err)
	}
}

func TestRejectLeavesGaugeSealed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	directory := service.NewDirectoryService(repos.User, nil)
	unsealSvc := service.NewUnsealService(db, repos, directory)
	ctx := context.Background()

	g := testutil.SeedGauge(t, db, "TPG-0053-GO", func(g *entity.Gauge) {
		g.IsSealed = true
	})

	req, err := unsealSvc.Request(ctx, g.GaugeNo, "user-1", "production run")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if _, err := unsealSvc.Reject(ctx, req.ID, "approver-1"); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	var reloaded entity.Gauge
	db.First(&reloaded, "id = ?", g.ID)
	if !reloaded.IsSealed {
		t.Error("Expected gauge still sealed after rejection")
	}
}
