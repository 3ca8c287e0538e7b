// Package services provides business logic and orchestration services.
//
// This file implements the revenue precedence chain as an ordered list of
// strategies. Each tier reports success or skip; the first success wins and
// tags the result with its origin so callers can tell live data from
// fallbacks.
package services

import (
	"context"
	"log/slog"
	"time"

	"revpulse/internal/billing"
	"revpulse/internal/core"
	"revpulse/internal/credentials"
	"revpulse/internal/ledger"
)

// LedgerStore is the persisted-ledger collaborator.
type LedgerStore interface {
	// ListSources returns every non-deleted revenue source for an operator.
	ListSources(ctx context.Context, operatorID string) ([]core.RevenueSource, error)

	// LatestSnapshot returns the most recent monthly snapshot, reporting
	// false when the operator has no history.
	LatestSnapshot(ctx context.Context, operatorID string) (core.RevenueSnapshot, bool, error)
}

// FailureReporter receives upstream-failure notifications for out-of-band
// monitoring. Implementations must never block reconciliation.
type FailureReporter interface {
	PublishUpstreamFailure(ctx context.Context, operatorID, reason string) error
}

// tierResult is the tagged outcome of one precedence tier: a value and the
// origin that produced it, or a skip.
type tierResult struct {
	cents  int64
	origin core.RevenueOrigin
	ok     bool
}

func skip() tierResult { return tierResult{} }

func won(cents int64, origin core.RevenueOrigin) tierResult {
	return tierResult{cents: cents, origin: origin, ok: true}
}

// revenueTier is one strategy in the precedence chain.
type revenueTier interface {
	// Evaluate attempts to produce an authoritative monthly total.
	// A skip hands over to the next tier; it is never an error.
	Evaluate(ctx context.Context, operatorID string, sources []core.RevenueSource) tierResult
}

// liveFeedTier resolves the operator's billing key and fetches the provider
// total through the revalidation cache. It skips when no key exists
// (integration disabled) and when the provider is unavailable.
type liveFeedTier struct {
	resolver *credentials.Resolver
	fetcher  billing.Fetcher
	reporter FailureReporter
}

func (t *liveFeedTier) Evaluate(ctx context.Context, operatorID string, _ []core.RevenueSource) tierResult {
	if t.resolver == nil || t.fetcher == nil {
		return skip()
	}

	key, present, err := t.resolver.ResolveKey(ctx, operatorID)
	if err != nil {
		slog.WarnContext(ctx, "Credential lookup failed, skipping live feed",
			"operator_id", operatorID, "error", err)
		return skip()
	}
	if !present {
		// Normal state: live billing disabled for this operator.
		return skip()
	}

	total, err := t.fetcher.FetchLiveMonthlyTotal(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "Billing provider fetch failed, falling back to ledger",
			"operator_id", operatorID, "error", err)
		if t.reporter != nil {
			if perr := t.reporter.PublishUpstreamFailure(ctx, operatorID, err.Error()); perr != nil {
				slog.ErrorContext(ctx, "Failed to publish upstream failure event",
					"operator_id", operatorID, "error", perr)
			}
		}
		return skip()
	}

	return won(total.MRRCents, core.OriginExternalLive)
}

// ledgerTier sums the operator's active revenue sources. It skips only when
// the ledger has no active sources at all; a zero sum over a non-empty
// ledger is authoritative.
type ledgerTier struct{}

func (ledgerTier) Evaluate(ctx context.Context, operatorID string, sources []core.RevenueSource) tierResult {
	active := 0
	for _, s := range sources {
		if s.Status == core.StatusActive {
			active++
		}
	}
	if active == 0 {
		return skip()
	}
	return won(ledger.SumActive(sources), core.OriginLedger)
}

// fallbackTier always wins. It prefers the last recorded snapshot total and
// degrades to the configured default.
type fallbackTier struct {
	store        LedgerStore
	defaultCents int64
}

func (t *fallbackTier) Evaluate(ctx context.Context, operatorID string, _ []core.RevenueSource) tierResult {
	if t.store != nil {
		snap, ok, err := t.store.LatestSnapshot(ctx, operatorID)
		if err != nil {
			slog.WarnContext(ctx, "Snapshot lookup failed, using configured default",
				"operator_id", operatorID, "error", err)
		} else if ok {
			return won(snap.TotalMRR.Cents, core.OriginFallbackDefault)
		}
	}
	return won(t.defaultCents, core.OriginFallbackDefault)
}

// Reconciler merges the live feed, the ledger, and the fallback default into
// one authoritative revenue figure.
//
// The growth percentage is always ledger-derived, even when the monthly
// total comes from the live feed: the external provider carries no growth
// signal, so the ledger's average is the only one available. The asymmetry
// is intentional.
type Reconciler struct {
	store LedgerStore
	tiers []revenueTier
	now   func() time.Time
}

// NewReconciler wires the precedence chain. resolver, fetcher, and reporter
// may be nil, which disables the live tier (or its failure events).
func NewReconciler(store LedgerStore, resolver *credentials.Resolver, fetcher billing.Fetcher, reporter FailureReporter, defaultCents int64) *Reconciler {
	return &Reconciler{
		store: store,
		tiers: []revenueTier{
			&liveFeedTier{resolver: resolver, fetcher: fetcher, reporter: reporter},
			ledgerTier{},
			&fallbackTier{store: store, defaultCents: defaultCents},
		},
		now: time.Now,
	}
}

// Reconcile computes the operator's revenue figure. It never fails: every
// problem on the way down the chain degrades to a lower tier, and the
// winning tier is tagged in the result.
func (r *Reconciler) Reconcile(ctx context.Context, operatorID string) core.ReconciledRevenue {
	sources, err := r.store.ListSources(ctx, operatorID)
	if err != nil {
		slog.ErrorContext(ctx, "Ledger read failed during reconciliation",
			"operator_id", operatorID, "error", err)
		sources = nil
	}

	var result tierResult
	for _, tier := range r.tiers {
		if result = tier.Evaluate(ctx, operatorID, sources); result.ok {
			break
		}
	}

	expenses := r.currentExpenses(ctx, operatorID)

	return core.ReconciledRevenue{
		MRR:       core.Money{Cents: result.cents},
		ARR:       core.Money{Cents: result.cents * 12},
		NetMRR:    core.Money{Cents: result.cents - expenses},
		GrowthPct: ledger.AverageGrowth(sources),
		Source:    result.origin,
		AsOf:      r.now(),
	}
}

// currentExpenses reads the expense figure of the most recent snapshot,
// 0 when no history exists.
func (r *Reconciler) currentExpenses(ctx context.Context, operatorID string) int64 {
	snap, ok, err := r.store.LatestSnapshot(ctx, operatorID)
	if err != nil {
		slog.WarnContext(ctx, "Snapshot lookup failed, assuming zero expenses",
			"operator_id", operatorID, "error", err)
		return 0
	}
	if !ok {
		return 0
	}
	return snap.Expenses.Cents
}
