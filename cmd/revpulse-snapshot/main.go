// Command revpulse-snapshot records the current reconciled MRR as this
// month's snapshot and exits. It is meant to run from cron around month
// boundaries; re-running within the same month overwrites that month's row.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"revpulse/internal/billing"
	"revpulse/internal/cache"
	"revpulse/internal/cli"
	"revpulse/internal/core"
	"revpulse/internal/credentials"
	"revpulse/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("snapshot")

	operatorFlag := flag.String("operator", "", "operator to snapshot (default: configured operator)")
	flag.Parse()

	cfg := cli.LoadAndValidateConfig(logger)

	operatorID := *operatorFlag
	if operatorID == "" {
		operatorID = cfg.DefaultOperatorID
	}

	repo := cli.InitStorage(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	publisher := cli.InitPublisher(logger, cfg)
	if publisher != nil {
		defer publisher.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// A one-shot run still goes through the cached fetcher so the server's
	// traffic bound holds even if both happen to hit the provider together.
	liveCache := cache.NewTTLCache[billing.LiveTotal](cfg.CacheMaxEntries, cfg.CacheWindow)
	reconciler := services.NewReconciler(
		repo,
		credentials.NewResolver(repo, cfg.BillingAPIKey),
		billing.NewCachedFetcher(billing.NewClient(cfg.BillingBaseURL), liveCache),
		publisher,
		cfg.DefaultMRRCents,
	)

	rev := reconciler.Reconcile(ctx, operatorID)
	month := core.MonthKey(rev.AsOf)

	// Preserve this month's expense figure if the operator already set one;
	// the recorder only owns the revenue side of the row.
	var expenses core.Money
	if latest, ok, err := repo.LatestSnapshot(ctx, operatorID); err == nil && ok && latest.Month == month {
		expenses = latest.Expenses
	}

	snap := core.RevenueSnapshot{
		OperatorID: operatorID,
		Month:      month,
		TotalMRR:   rev.MRR,
		Expenses:   expenses,
	}
	if err := repo.UpsertSnapshot(ctx, snap); err != nil {
		logger.Error("Failed to record snapshot", "month", month, "error", err)
		os.Exit(1)
	}

	if err := publisher.PublishSnapshotRecorded(ctx, operatorID, month, rev.MRR.Cents); err != nil {
		logger.Warn("Failed to publish snapshot event", "month", month, "error", err)
	}

	logger.Info("Snapshot recorded",
		"operator_id", operatorID,
		"month", month,
		"total_mrr_cents", rev.MRR.Cents,
		"source", string(rev.Source))
}
