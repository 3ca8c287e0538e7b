package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"revpulse/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "revpulse.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testSource(name string, cents int64, status core.SourceStatus) core.RevenueSource {
	return core.RevenueSource{
		OperatorID: "op-1",
		Name:       name,
		Type:       "saas",
		MRR:        core.Money{Cents: cents},
		GrowthPct:  5,
		Status:     status,
	}
}

func TestSourceLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.CreateSource(ctx, testSource("subscriptions", 120000, core.StatusActive))
	if err != nil {
		t.Fatalf("CreateSource() error = %v", err)
	}

	sources, err := repo.ListSources(ctx, "op-1")
	if err != nil {
		t.Fatalf("ListSources() error = %v", err)
	}
	if len(sources) != 1 || sources[0].ID != id || sources[0].MRR.Cents != 120000 {
		t.Fatalf("ListSources() = %+v, want one source with id %d", sources, id)
	}

	updated := sources[0]
	updated.Name = "subscriptions v2"
	updated.MRR.Cents = 150000
	updated.Status = core.StatusPaused
	if err := repo.UpdateSource(ctx, updated); err != nil {
		t.Fatalf("UpdateSource() error = %v", err)
	}

	sources, _ = repo.ListSources(ctx, "op-1")
	if sources[0].Name != "subscriptions v2" || sources[0].Status != core.StatusPaused {
		t.Fatalf("update not persisted: %+v", sources[0])
	}

	if err := repo.SoftDeleteSource(ctx, "op-1", id); err != nil {
		t.Fatalf("SoftDeleteSource() error = %v", err)
	}
	sources, _ = repo.ListSources(ctx, "op-1")
	if len(sources) != 0 {
		t.Fatalf("soft-deleted source still listed: %+v", sources)
	}
}

func TestUpdateMissingSource(t *testing.T) {
	repo := newTestRepo(t)

	src := testSource("ghost", 100, core.StatusActive)
	src.ID = 999
	if err := repo.UpdateSource(context.Background(), src); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("UpdateSource() error = %v, want sql.ErrNoRows", err)
	}
}

func TestListSourcesScopedByOperator(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	repo.CreateSource(ctx, testSource("mine", 100, core.StatusActive))
	other := testSource("theirs", 200, core.StatusActive)
	other.OperatorID = "op-2"
	repo.CreateSource(ctx, other)

	sources, err := repo.ListSources(ctx, "op-1")
	if err != nil {
		t.Fatalf("ListSources() error = %v", err)
	}
	if len(sources) != 1 || sources[0].Name != "mine" {
		t.Fatalf("ListSources() = %+v, want only op-1 rows", sources)
	}
}

func TestSnapshotUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	snap := core.RevenueSnapshot{
		OperatorID: "op-1",
		Month:      "2025-07",
		TotalMRR:   core.Money{Cents: 100000},
		Expenses:   core.Money{Cents: 25000},
	}
	if err := repo.UpsertSnapshot(ctx, snap); err != nil {
		t.Fatalf("UpsertSnapshot() error = %v", err)
	}

	// Same month again: overwrite, not duplicate.
	snap.TotalMRR.Cents = 110000
	if err := repo.UpsertSnapshot(ctx, snap); err != nil {
		t.Fatalf("UpsertSnapshot() second call error = %v", err)
	}

	snaps, err := repo.ListSnapshots(ctx, "op-1")
	if err != nil {
		t.Fatalf("ListSnapshots() error = %v", err)
	}
	if len(snaps) != 1 || snaps[0].TotalMRR.Cents != 110000 {
		t.Fatalf("ListSnapshots() = %+v, want single overwritten row", snaps)
	}
}

func TestLatestSnapshot(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, ok, err := repo.LatestSnapshot(ctx, "op-1"); err != nil || ok {
		t.Fatalf("LatestSnapshot() on empty history = (%v, %v), want (false, nil)", ok, err)
	}

	for _, month := range []string{"2025-06", "2025-08", "2025-07"} {
		repo.UpsertSnapshot(ctx, core.RevenueSnapshot{
			OperatorID: "op-1",
			Month:      month,
			TotalMRR:   core.Money{Cents: 100},
		})
	}

	snap, ok, err := repo.LatestSnapshot(ctx, "op-1")
	if err != nil || !ok {
		t.Fatalf("LatestSnapshot() = (%v, %v)", ok, err)
	}
	if snap.Month != "2025-08" {
		t.Fatalf("LatestSnapshot().Month = %q, want 2025-08", snap.Month)
	}
}

func TestAPIKeyStore(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, ok, err := repo.Get(ctx, "op-1", "billing_api_key"); err != nil || ok {
		t.Fatalf("Get() on empty store = (%v, %v), want (false, nil)", ok, err)
	}

	if err := repo.SetAPIKey(ctx, "op-1", "billing_api_key", "sk_live_abc"); err != nil {
		t.Fatalf("SetAPIKey() error = %v", err)
	}
	value, ok, err := repo.Get(ctx, "op-1", "billing_api_key")
	if err != nil || !ok || value != "sk_live_abc" {
		t.Fatalf("Get() = (%q, %v, %v), want stored key", value, ok, err)
	}

	// Overwrite on set.
	repo.SetAPIKey(ctx, "op-1", "billing_api_key", "sk_live_def")
	value, _, _ = repo.Get(ctx, "op-1", "billing_api_key")
	if value != "sk_live_def" {
		t.Fatalf("Get() after overwrite = %q, want sk_live_def", value)
	}

	if err := repo.DeleteAPIKey(ctx, "op-1", "billing_api_key"); err != nil {
		t.Fatalf("DeleteAPIKey() error = %v", err)
	}
	if _, ok, _ := repo.Get(ctx, "op-1", "billing_api_key"); ok {
		t.Fatal("Get() after delete reported presence")
	}
}

func TestSetAPIKeyRejectsOversizedValues(t *testing.T) {
	repo := newTestRepo(t)

	huge := make([]byte, maxAPIKeyLength+1)
	for i := range huge {
		huge[i] = 'k'
	}
	if err := repo.SetAPIKey(context.Background(), "op-1", "billing_api_key", string(huge)); !errors.Is(err, ErrValueTooLong) {
		t.Fatalf("SetAPIKey() error = %v, want ErrValueTooLong", err)
	}
}
