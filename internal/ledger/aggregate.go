// Package ledger aggregates manually tracked revenue sources.
//
// The functions here are pure and total: an empty ledger is a valid ledger
// whose sum is zero, never an error.
package ledger

import "revpulse/internal/core"

// SumActive sums the monthly value of active sources in minor units.
// Paused and closed sources never contribute.
func SumActive(sources []core.RevenueSource) int64 {
	var total int64
	for _, s := range sources {
		if s.Status == core.StatusActive {
			total += s.MRR.Cents
		}
	}
	return total
}

// AverageGrowth returns the arithmetic mean of growth percent across active
// sources, rounded half-up away from zero, 0 for an empty ledger.
func AverageGrowth(sources []core.RevenueSource) int64 {
	var sum, n int64
	for _, s := range sources {
		if s.Status == core.StatusActive {
			sum += s.GrowthPct
			n++
		}
	}
	if n == 0 {
		return 0
	}
	// Integer half-up rounding that works for negative sums too.
	if sum >= 0 {
		return (sum + n/2) / n
	}
	return (sum - n/2) / n
}
