package services

import (
	"context"
	"testing"
	"time"

	"revpulse/internal/billing"
	"revpulse/internal/core"
	"revpulse/internal/credentials"
)

type stubStore struct {
	sources     []core.RevenueSource
	sourcesErr  error
	snapshot    core.RevenueSnapshot
	hasSnapshot bool
	snapshotErr error
}

func (s *stubStore) ListSources(context.Context, string) ([]core.RevenueSource, error) {
	return s.sources, s.sourcesErr
}

func (s *stubStore) LatestSnapshot(context.Context, string) (core.RevenueSnapshot, bool, error) {
	return s.snapshot, s.hasSnapshot, s.snapshotErr
}

type stubFetcher struct {
	total billing.LiveTotal
	err   error
	calls int
}

func (f *stubFetcher) FetchLiveMonthlyTotal(context.Context, string) (billing.LiveTotal, error) {
	f.calls++
	if f.err != nil {
		return billing.LiveTotal{}, f.err
	}
	return f.total, nil
}

type stubReporter struct {
	failures []string
}

func (r *stubReporter) PublishUpstreamFailure(_ context.Context, operatorID, reason string) error {
	r.failures = append(r.failures, operatorID+": "+reason)
	return nil
}

func activeSource(name string, cents, growth int64) core.RevenueSource {
	return core.RevenueSource{
		OperatorID: "op-1",
		Name:       name,
		MRR:        core.Money{Cents: cents},
		GrowthPct:  growth,
		Status:     core.StatusActive,
	}
}

func fixedNow() time.Time {
	return time.Date(2025, 8, 31, 12, 0, 0, 0, time.UTC)
}

func newTestReconciler(store LedgerStore, resolver *credentials.Resolver, fetcher billing.Fetcher, reporter FailureReporter, defaultCents int64) *Reconciler {
	r := NewReconciler(store, resolver, fetcher, reporter, defaultCents)
	r.now = fixedNow
	return r
}

func TestReconcileLiveFeedWins(t *testing.T) {
	store := &stubStore{sources: []core.RevenueSource{activeSource("saas", 99999, 7)}}
	fetcher := &stubFetcher{total: billing.LiveTotal{MRRCents: 250000, SubscriptionCount: 12}}
	resolver := credentials.NewResolver(nil, "sk_global")

	got := newTestReconciler(store, resolver, fetcher, nil, 0).Reconcile(context.Background(), "op-1")

	if got.Source != core.OriginExternalLive {
		t.Fatalf("Source = %q, want external-live", got.Source)
	}
	if got.MRR.Cents != 250000 {
		t.Errorf("MRR = %d, want live total 250000 despite differing ledger", got.MRR.Cents)
	}
	if got.ARR.Cents != 250000*12 {
		t.Errorf("ARR = %d, want %d", got.ARR.Cents, 250000*12)
	}
	// Growth stays ledger-derived even when the live feed wins.
	if got.GrowthPct != 7 {
		t.Errorf("GrowthPct = %d, want ledger average 7", got.GrowthPct)
	}
}

func TestReconcileAbsentKeyUsesLedger(t *testing.T) {
	store := &stubStore{sources: []core.RevenueSource{
		activeSource("saas", 120000, 5),
		activeSource("consulting", 30000, 1),
		{OperatorID: "op-1", Name: "paused deal", MRR: core.Money{Cents: 500000}, Status: core.StatusPaused},
	}}
	fetcher := &stubFetcher{total: billing.LiveTotal{MRRCents: 1}}
	resolver := credentials.NewResolver(nil, "") // no key anywhere

	got := newTestReconciler(store, resolver, fetcher, nil, 0).Reconcile(context.Background(), "op-1")

	if got.Source != core.OriginLedger {
		t.Fatalf("Source = %q, want ledger", got.Source)
	}
	if got.MRR.Cents != 150000 {
		t.Errorf("MRR = %d, want 150000 (paused source excluded)", got.MRR.Cents)
	}
	if fetcher.calls != 0 {
		t.Errorf("fetcher calls = %d, want 0 with absent key", fetcher.calls)
	}
}

func TestReconcileUpstreamFailureFallsBackToLedger(t *testing.T) {
	store := &stubStore{sources: []core.RevenueSource{activeSource("saas", 120000, 5)}}
	fetcher := &stubFetcher{err: billing.ErrUpstreamUnavailable}
	resolver := credentials.NewResolver(nil, "sk_global")
	reporter := &stubReporter{}

	got := newTestReconciler(store, resolver, fetcher, reporter, 0).Reconcile(context.Background(), "op-1")

	if got.Source != core.OriginLedger {
		t.Fatalf("Source = %q, want ledger after upstream failure", got.Source)
	}
	if got.MRR.Cents != 120000 {
		t.Errorf("MRR = %d, want ledger sum 120000", got.MRR.Cents)
	}
	if len(reporter.failures) != 1 {
		t.Errorf("reported failures = %d, want 1", len(reporter.failures))
	}
}

func TestReconcileAbsentKeyNoFailureEvent(t *testing.T) {
	store := &stubStore{sources: []core.RevenueSource{activeSource("saas", 100, 0)}}
	reporter := &stubReporter{}
	resolver := credentials.NewResolver(nil, "")

	newTestReconciler(store, resolver, &stubFetcher{}, reporter, 0).Reconcile(context.Background(), "op-1")

	if len(reporter.failures) != 0 {
		t.Errorf("reported failures = %d, want 0 for absent credentials", len(reporter.failures))
	}
}

func TestReconcileEmptyLedgerFallsBackToSnapshot(t *testing.T) {
	store := &stubStore{
		hasSnapshot: true,
		snapshot: core.RevenueSnapshot{
			OperatorID: "op-1",
			Month:      "2025-07",
			TotalMRR:   core.Money{Cents: 80000},
			Expenses:   core.Money{Cents: 20000},
		},
	}
	resolver := credentials.NewResolver(nil, "")

	got := newTestReconciler(store, resolver, &stubFetcher{}, nil, 0).Reconcile(context.Background(), "op-1")

	if got.Source != core.OriginFallbackDefault {
		t.Fatalf("Source = %q, want fallback-default", got.Source)
	}
	if got.MRR.Cents != 80000 {
		t.Errorf("MRR = %d, want last snapshot total 80000", got.MRR.Cents)
	}
	if got.NetMRR.Cents != 60000 {
		t.Errorf("NetMRR = %d, want 60000 (snapshot expenses subtracted)", got.NetMRR.Cents)
	}
}

func TestReconcileEmptyEverythingUsesDefault(t *testing.T) {
	store := &stubStore{}
	resolver := credentials.NewResolver(nil, "")

	got := newTestReconciler(store, resolver, &stubFetcher{}, nil, 4200).Reconcile(context.Background(), "op-1")

	if got.Source != core.OriginFallbackDefault {
		t.Fatalf("Source = %q, want fallback-default", got.Source)
	}
	if got.MRR.Cents != 4200 {
		t.Errorf("MRR = %d, want configured default 4200", got.MRR.Cents)
	}
	if got.GrowthPct != 0 {
		t.Errorf("GrowthPct = %d, want 0 for empty ledger", got.GrowthPct)
	}
}

func TestReconcileZeroSumLedgerIsAuthoritative(t *testing.T) {
	// An active source with zero value is a valid ledger, not an empty one.
	store := &stubStore{sources: []core.RevenueSource{activeSource("pre-launch", 0, 0)}}
	resolver := credentials.NewResolver(nil, "")

	got := newTestReconciler(store, resolver, &stubFetcher{}, nil, 4200).Reconcile(context.Background(), "op-1")

	if got.Source != core.OriginLedger {
		t.Fatalf("Source = %q, want ledger for zero-sum ledger", got.Source)
	}
	if got.MRR.Cents != 0 {
		t.Errorf("MRR = %d, want 0", got.MRR.Cents)
	}
}

func TestReconcileNetMRRSubtractsExpenses(t *testing.T) {
	store := &stubStore{
		sources:     []core.RevenueSource{activeSource("saas", 100000, 3)},
		hasSnapshot: true,
		snapshot: core.RevenueSnapshot{
			OperatorID: "op-1",
			Month:      "2025-08",
			TotalMRR:   core.Money{Cents: 100000},
			Expenses:   core.Money{Cents: 35000},
		},
	}
	resolver := credentials.NewResolver(nil, "")

	got := newTestReconciler(store, resolver, &stubFetcher{}, nil, 0).Reconcile(context.Background(), "op-1")

	if got.NetMRR.Cents != 65000 {
		t.Errorf("NetMRR = %d, want 65000", got.NetMRR.Cents)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	store := &stubStore{sources: []core.RevenueSource{activeSource("saas", 120000, 5)}}
	resolver := credentials.NewResolver(nil, "")
	r := newTestReconciler(store, resolver, &stubFetcher{}, nil, 0)

	first := r.Reconcile(context.Background(), "op-1")
	second := r.Reconcile(context.Background(), "op-1")

	if first != second {
		t.Errorf("repeated reconciliation differs: %+v vs %+v", first, second)
	}
}
