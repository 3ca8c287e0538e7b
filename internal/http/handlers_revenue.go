package http

import (
	"net/http"
	"time"

	"revpulse/internal/core"
)

// revenueResponse is the engine's output contract for the presentation
// layer. The source tag tells the UI whether the figure deserves a "live"
// badge or a fallback warning.
type revenueResponse struct {
	MRRCents    int64     `json:"mrr_cents"`
	ARRCents    int64     `json:"arr_cents"`
	NetMRRCents int64     `json:"net_mrr_cents"`
	GrowthPct   int64     `json:"growth_pct"`
	Source      string    `json:"source"`
	AsOf        time.Time `json:"as_of"`
}

func toRevenueResponse(rev core.ReconciledRevenue) revenueResponse {
	return revenueResponse{
		MRRCents:    rev.MRR.Cents,
		ARRCents:    rev.ARR.Cents,
		NetMRRCents: rev.NetMRR.Cents,
		GrowthPct:   rev.GrowthPct,
		Source:      string(rev.Source),
		AsOf:        rev.AsOf,
	}
}

// handleRevenue returns the reconciled revenue figure for the requesting
// operator. Reconciliation never hard-fails; degraded results arrive tagged
// with their origin.
func (s *Server) handleRevenue(w http.ResponseWriter, r *http.Request) {
	rev := s.reconciler.Reconcile(r.Context(), s.operatorID(r))
	writeJSON(w, http.StatusOK, toRevenueResponse(rev))
}
