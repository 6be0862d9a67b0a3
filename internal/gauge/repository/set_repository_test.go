package repository_test

import (
	"errors"
	"testing"

	"github.com/kelly-enterprises/gauge-erp/internal/gauge/entity"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/repository"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/testutil"
	"gorm.io/gorm"
)

func TestSetLinkAndCompanionRoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	goGauge := testutil.SeedGauge(t, db, "TPG-0001-GO", func(g *entity.Gauge) {
		g.SetRole = entity.SetRoleGo
	})
	noGoGauge := testutil.SeedGauge(t, db, "TPG-0001-NG", func(g *entity.Gauge) {
		g.SetRole = entity.SetRoleNoGo
	})

	err := db.Transaction(func(tx *gorm.DB) error {
		return repos.Set.LinkIntoSet(tx, goGauge.ID, noGoGauge.ID, "set-0001")
	})
	if err != nil {
		t.Fatalf("LinkIntoSet failed: %v", err)
	}

	// Companion lookup works symmetrically in both directions
	companion, err := repos.Set.GetCompanion(goGauge.ID)
	if err != nil {
		t.Fatalf("GetCompanion(go) failed: %v", err)
	}
	if companion == nil || companion.ID != noGoGauge.ID {
		t.Errorf("Expected NO-GO companion of GO, got %+v", companion)
	}

	companion, err = repos.Set.GetCompanion(noGoGauge.ID)
	if err != nil {
		t.Fatalf("GetCompanion(noGo) failed: %v", err)
	}
	if companion == nil || companion.ID != goGauge.ID {
		t.Errorf("Expected GO companion of NO-GO, got %+v", companion)
	}
}

func TestSetCompanionUnpairedReturnsNil(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	spare := testutil.SeedGauge(t, db, "TPG-0002-GO", nil)

	companion, err := repos.Set.GetCompanion(spare.ID)
	if err != nil {
		t.Fatalf("GetCompanion failed: %v", err)
	}
	if companion != nil {
		t.Errorf("Expected nil companion for unpaired gauge, got %+v", companion)
	}
}

func TestSetCompanionUnknownGauge(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	_, err := repos.Set.GetCompanion(99999)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSetUnlinkClearsBothMembers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	goGauge := testutil.SeedGauge(t, db, "TPG-0003-GO", nil)
	noGoGauge := testutil.SeedGauge(t, db, "TPG-0003-NG", nil)

	err := db.Transaction(func(tx *gorm.DB) error {
		return repos.Set.LinkIntoSet(tx, goGauge.ID, noGoGauge.ID, "set-0003")
	})
	if err != nil {
		t.Fatalf("LinkIntoSet failed: %v", err)
	}

	// Unlinking from either side clears set_id on both members
	err = db.Transaction(func(tx *gorm.DB) error {
		return repos.Set.UnlinkSet(tx, noGoGauge.ID)
	})
	if err != nil {
		t.Fatalf("UnlinkSet failed: %v", err)
	}

	for _, id := range []uint{goGauge.ID, noGoGauge.ID} {
		var g entity.Gauge
		db.First(&g, "id = ?", id)
		if g.SetID != nil {
			t.Errorf("Expected set_id cleared for gauge %d, got %v", id, *g.SetID)
		}
	}
}

func TestSetUnlinkUnpairedIsNoOp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	spare := testutil.SeedGauge(t, db, "TPG-0004-GO", nil)

	err := db.Transaction(func(tx *gorm.DB) error {
		return repos.Set.UnlinkSet(tx, spare.ID)
	})
	if err != nil {
		t.Errorf("Expected no-op unlink for unpaired gauge, got %v", err)
	}
}

func TestSetRecordAndListHistory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	goGauge := testutil.SeedGauge(t, db, "TPG-0005-GO", nil)
	noGoGauge := testutil.SeedGauge(t, db, "TPG-0005-NG", nil)

	err := db.Transaction(func(tx *gorm.DB) error {
		return repos.Set.RecordHistory(tx, goGauge.ID, noGoGauge.ID,
			entity.HistoryActionCreatedTogether, "user-1", "", entity.JSONB{"gauge_no_base": "TPG-0005"})
	})
	if err != nil {
		t.Fatalf("RecordHistory failed: %v", err)
	}

	// History is visible from either member
	for _, id := range []uint{goGauge.ID, noGoGauge.ID} {
		histories, err := repos.Set.ListHistory(id)
		if err != nil {
			t.Fatalf("ListHistory failed: %v", err)
		}
		if len(histories) != 1 {
			t.Fatalf("Expected 1 history row for gauge %d, got %d", id, len(histories))
		}
		if histories[0].Action != entity.HistoryActionCreatedTogether {
			t.Errorf("Expected created_together action, got %s", histories[0].Action)
		}
	}
}

func TestSetWritesRequireTransaction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	if err := repos.Set.LinkIntoSet(nil, 1, 2, "set-x"); !errors.Is(err, repository.ErrNoTransaction) {
		t.Errorf("LinkIntoSet: expected ErrNoTransaction, got %v", err)
	}
	if err := repos.Set.UnlinkSet(nil, 1); !errors.Is(err, repository.ErrNoTransaction) {
		t.Errorf("UnlinkSet: expected ErrNoTransaction, got %v", err)
	}
	if _, err := repos.Set.GetCompanionForUpdate(nil, 1); !errors.Is(err, repository.ErrNoTransaction) {
		t.Errorf("GetCompanionForUpdate: expected ErrNoTransaction, got %v", err)
	}

	// The bare pool handle is no transaction either
	if err := repos.Set.LinkIntoSet(db, 1, 2, "set-x"); !errors.Is(err, repository.ErrNoTransaction) {
		t.Errorf("LinkIntoSet(pool): expected ErrNoTransaction, got %v", err)
	}
}
