package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kelly-enterprises/gauge-erp/internal/gauge/entity"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/repository"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/service"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/testutil"
)

func TestTransferCreateRequiresCustody(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	directory := service.NewDirectoryService(repos.User, nil)
	gaugeSvc := service.NewGaugeService(db, repos)
	transferSvc := service.NewTransferService(db, repos, directory)
	ctx := context.Background()

	g := testutil.SeedGauge(t, db, "TPG-0060-GO", nil)

	// Not checked out at all
	_, err := transferSvc.Create(ctx, service.CreateTransferRequest{
		GaugeRef: g.GaugeNo,
		ToUserID: "user-2",
		Reason:   "handover",
	}, "user-1")
	if !errors.Is(err, repository.ErrInvalidOperation) {
		t.Fatalf("Expected ErrInvalidOperation for idle gauge, got %v", err)
	}

	if _, err := gaugeSvc.Checkout(ctx, g.GaugeNo, "user-1", "QC"); err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}

	// Held by user-1, someone else cannot transfer it
	_, err = transferSvc.Create(ctx, service.CreateTransferRequest{
		GaugeRef: g.GaugeNo,
		ToUserID: "user-3",
		Reason:   "handover",
	}, "user-2")
	if !errors.Is(err, repository.ErrInvalidOperation) {
		t.Fatalf("Expected ErrInvalidOperation for non-holder, got %v", err)
	}

	// The holder can
	transfer, err := transferSvc.Create(ctx, service.CreateTransferRequest{
		GaugeRef: g.GaugeNo,
		ToUserID: "user-2",
		Reason:   "handover",
	}, "user-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if transfer.Status != entity.TransferStatusPending {
		t.Errorf("Expected pending, got %s", transfer.Status)
	}
}

func TestTransferCompleteMovesCustody(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	directory := service.NewDirectoryService(repos.User, nil)
	gaugeSvc := service.NewGaugeService(db, repos)
	transferSvc := service.NewTransferService(db, repos, directory)
	ctx := context.Background()

	g := testutil.SeedGauge(t, db, "TPG-0061-GO", nil)
	if _, err := gaugeSvc.Checkout(ctx, g.GaugeNo, "user-1", "QC"); err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}

	transfer, err := transferSvc.Create(ctx, service.CreateTransferRequest{
		GaugeRef: g.GaugeNo,
		ToUserID: "user-2",
		Reason:   "handover",
	}, "user-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := transferSvc.Accept(ctx, transfer.ID, "user-2"); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if _, err := transferSvc.Complete(ctx, transfer.ID, "user-2"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	// Custody record now points at the recipient
	record, err := repos.Checkout.FindActiveRecord(g.ID)
	if err != nil {
		t.Fatalf("FindActiveRecord failed: %v", err)
	}
	if record == nil || record.UserID != "user-2" {
		t.Errorf("Expected custody moved to user-2, got %+v", record)
	}
}

func TestTransferListDecoratesNames(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	directory := service.NewDirectoryService(repos.User, nil)
	gaugeSvc := service.NewGaugeService(db, repos)
	transferSvc := service.NewTransferService(db, repos, directory)
	ctx := context.Background()

	testutil.SeedTestUser(t, db, "user-1", "Zhang San")
	testutil.SeedTestUser(t, db, "user-2", "Li Si")

	g := testutil.SeedGauge(t, db, "TPG-0062-GO", nil)
	if _, err := gaugeSvc.Checkout(ctx, g.GaugeNo, "user-1", "QC"); err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}
	if _, err := transferSvc.Create(ctx, service.CreateTransferRequest{
		GaugeRef: g.GaugeNo,
		ToUserID: "user-2",
		Reason:   "handover",
	}, "user-1"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	views, err := transferSvc.ListForUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("Expected 1 transfer, got %d", len(views))
	}
	if views[0].FromUserName != "Zhang San" || views[0].ToUserName != "Li Si" {
		t.Errorf("Expected decorated names, got %+v", views[0])
	}
}
