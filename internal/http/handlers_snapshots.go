package http

import (
	"log/slog"
	"net/http"

	"revpulse/internal/core"
)

type snapshotRequest struct {
	Month    string `json:"month"`    // "YYYY-MM"
	TotalMRR string `json:"total_mrr"` // decimal string
	Expenses string `json:"expenses"`  // decimal string, optional
}

type snapshotResponse struct {
	Month         string `json:"month"`
	TotalMRRCents int64  `json:"total_mrr_cents"`
	ExpensesCents int64  `json:"expenses_cents"`
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.store.ListSnapshots(r.Context(), s.operatorID(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list revenue snapshots", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list snapshots")
		return
	}

	resp := make([]snapshotResponse, 0, len(snaps))
	for _, snap := range snaps {
		resp = append(resp, snapshotResponse{
			Month:         snap.Month,
			TotalMRRCents: snap.TotalMRR.Cents,
			ExpensesCents: snap.Expenses.Cents,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpsertSnapshot(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	totalCents, err := core.ParseDecimalToCents(req.TotalMRR)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid total_mrr: expected a non-negative decimal string")
		return
	}

	var expenseCents int64
	if req.Expenses != "" {
		expenseCents, err = core.ParseDecimalToCents(req.Expenses)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid expenses: expected a non-negative decimal string")
			return
		}
	}

	snap := core.RevenueSnapshot{
		OperatorID: s.operatorID(r),
		Month:      req.Month,
		TotalMRR:   core.Money{Cents: totalCents},
		Expenses:   core.Money{Cents: expenseCents},
	}
	if err := snap.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.UpsertSnapshot(r.Context(), snap); err != nil {
		slog.ErrorContext(r.Context(), "Failed to upsert revenue snapshot", "month", snap.Month, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record snapshot")
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse{
		Month:         snap.Month,
		TotalMRRCents: snap.TotalMRR.Cents,
		ExpensesCents: snap.Expenses.Cents,
	})
}
