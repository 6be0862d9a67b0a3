package repository_test

import (
	"errors"
	"testing"

	"github.com/kelly-enterprises/gauge-erp/internal/gauge/entity"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/repository"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/testutil"
	"gorm.io/gorm"
)

func seedBatch(t *testing.T, db *gorm.DB, repos *repository.Repositories) *entity.CalibrationBatch {
	t.Helper()
	batch := &entity.CalibrationBatch{
		CalibrationType: "external",
		VendorName:      "Metrology Lab",
		CreatedBy:       "user-1",
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		return repos.Calibration.CreateBatch(tx, batch)
	})
	if err != nil {
		t.Fatalf("Failed to seed batch: %v", err)
	}
	return batch
}

func TestBatchCreateDefaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	batch := seedBatch(t, db, repos)
	if batch.Status != entity.BatchStatusPendingSend {
		t.Errorf("Expected pending_send, got %s", batch.Status)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return repos.Calibration.CreateBatch(tx, &entity.CalibrationBatch{})
	})
	if !errors.Is(err, repository.ErrInvalidOperation) {
		t.Errorf("Expected ErrInvalidOperation for empty batch, got %v", err)
	}
}

func TestBatchAddGaugeAndActiveLookup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	batch := seedBatch(t, db, repos)
	g := testutil.SeedGauge(t, db, "TPG-0040-GO", nil)

	err := db.Transaction(func(tx *gorm.DB) error {
		return repos.Calibration.AddGauge(tx, batch.ID, g.ID, "user-1")
	})
	if err != nil {
		t.Fatalf("AddGauge failed: %v", err)
	}

	active, err := repos.Calibration.FindActiveBatchForGauge(g.ID)
	if err != nil {
		t.Fatalf("FindActiveBatchForGauge failed: %v", err)
	}
	if active == nil || active.ID != batch.ID {
		t.Errorf("Expected active batch %s, got %+v", batch.ID, active)
	}
}

func TestBatchDoubleBookingConflicts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	batch1 := seedBatch(t, db, repos)
	batch2 := seedBatch(t, db, repos)
	g := testutil.SeedGauge(t, db, "TPG-0041-GO", nil)

	err := db.Transaction(func(tx *gorm.DB) error {
		return repos.Calibration.AddGauge(tx, batch1.ID, g.ID, "user-1")
	})
	if err != nil {
		t.Fatalf("First AddGauge failed: %v", err)
	}

	// The same gauge cannot be booked into a second in-flight batch
	err = db.Transaction(func(tx *gorm.DB) error {
		return repos.Calibration.AddGauge(tx, batch2.ID, g.ID, "user-1")
	})
	if !errors.Is(err, repository.ErrConflict) {
		t.Errorf("Expected ErrConflict, got %v", err)
	}
}

func TestBatchRemoveGauge(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	batch := seedBatch(t, db, repos)
	g := testutil.SeedGauge(t, db, "TPG-0042-GO", nil)

	err := db.Transaction(func(tx *gorm.DB) error {
		return repos.Calibration.AddGauge(tx, batch.ID, g.ID, "user-1")
	})
	if err != nil {
		t.Fatalf("AddGauge failed: %v", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return repos.Calibration.RemoveGauge(tx, batch.ID, g.ID, "user-1")
	})
	if err != nil {
		t.Fatalf("RemoveGauge failed: %v", err)
	}

	// Removing again reports not found
	err = db.Transaction(func(tx *gorm.DB) error {
		return repos.Calibration.RemoveGauge(tx, batch.ID, g.ID, "user-1")
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestBatchLinearTransitions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	batch := seedBatch(t, db, repos)

	// pending_send cannot jump straight to completed
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := repos.Calibration.UpdateStatus(tx, batch.ID, entity.BatchStatusCompleted, "user-1")
		return err
	})
	if !errors.Is(err, repository.ErrInvalidOperation) {
		t.Errorf("Expected ErrInvalidOperation for skipped step, got %v", err)
	}

	var sent *entity.CalibrationBatch
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		sent, err = repos.Calibration.UpdateStatus(tx, batch.ID, entity.BatchStatusSent, "user-1")
		return err
	})
	if err != nil {
		t.Fatalf("MarkSent failed: %v", err)
	}
	if sent.SentAt == nil {
		t.Error("Expected sent_at stamp")
	}

	var completed *entity.CalibrationBatch
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		completed, err = repos.Calibration.UpdateStatus(tx, batch.ID, entity.BatchStatusCompleted, "user-1")
		return err
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if completed.CompletedAt == nil {
		t.Error("Expected completed_at stamp")
	}

	// completed is terminal
	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := repos.Calibration.UpdateStatus(tx, batch.ID, entity.BatchStatusSent, "user-1")
		return err
	})
	if !errors.Is(err, repository.ErrInvalidOperation) {
		t.Errorf("Expected ErrInvalidOperation after terminal state, got %v", err)
	}
}

func TestBatchActiveLookupThroughLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	batch := seedBatch(t, db, repos)
	g := testutil.SeedGauge(t, db, "TPG-0043-GO", nil)

	err := db.Transaction(func(tx *gorm.DB) error {
		return repos.Calibration.AddGauge(tx, batch.ID, g.ID, "user-1")
	})
	if err != nil {
		t.Fatalf("AddGauge failed: %v", err)
	}

	// Still active while sent
	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := repos.Calibration.UpdateStatus(tx, batch.ID, entity.BatchStatusSent, "user-1")
		return err
	})
	if err != nil {
		t.Fatalf("MarkSent failed: %v", err)
	}
	active, _ := repos.Calibration.FindActiveBatchForGauge(g.ID)
	if active == nil {
		t.Fatal("Expected batch still active while sent")
	}

	// No longer active once completed
	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := repos.Calibration.UpdateStatus(tx, batch.ID, entity.BatchStatusCompleted, "user-1")
		return err
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	active, _ = repos.Calibration.FindActiveBatchForGauge(g.ID)
	if active != nil {
		t.Errorf("Expected no active batch after completion, got %+v", active)
	}
}

func TestBatchStatistics(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	batch := seedBatch(t, db, repos)
	gauges := []*entity.Gauge{
		testutil.SeedGauge(t, db, "TPG-0044-GO", func(g *entity.Gauge) { g.Status = entity.StatusOutForCalibration }),
		testutil.SeedGauge(t, db, "TPG-0044-NG", func(g *entity.Gauge) { g.Status = entity.StatusOutForCalibration }),
		testutil.SeedGauge(t, db, "TPG-0045-GO", func(g *entity.Gauge) { g.Status = entity.StatusPendingQC }),
	}
	for _, g := range gauges {
		err := db.Transaction(func(tx *gorm.DB) error {
			return repos.Calibration.AddGauge(tx, batch.ID, g.ID, "user-1")
		})
		if err != nil {
			t.Fatalf("AddGauge failed: %v", err)
		}
	}

	stats, err := repos.Calibration.GetStatistics(batch.ID)
	if err != nil {
		t.Fatalf("GetStatistics failed: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("Expected total 3, got %d", stats.Total)
	}
	if stats.OutForCalibration != 2 {
		t.Errorf("Expected 2 out for calibration, got %d", stats.OutForCalibration)
	}
	if stats.Completed != 1 {
		t.Errorf("Expected 1 completed, got %d", stats.Completed)
	}
}
