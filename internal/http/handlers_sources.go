package http

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"revpulse/internal/core"
)

type sourceRequest struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	MRR       string `json:"mrr"` // decimal string, e.g. "1234.56"
	GrowthPct int64  `json:"growth_pct"`
	Status    string `json:"status"`
}

type sourceResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	MRRCents  int64  `json:"mrr_cents"`
	GrowthPct int64  `json:"growth_pct"`
	Status    string `json:"status"`
}

func toSourceResponse(src core.RevenueSource) sourceResponse {
	return sourceResponse{
		ID:        src.ID,
		Name:      src.Name,
		Type:      src.Type,
		MRRCents:  src.MRR.Cents,
		GrowthPct: src.GrowthPct,
		Status:    string(src.Status),
	}
}

func (s *Server) sourceFromRequest(r *http.Request, w http.ResponseWriter) (core.RevenueSource, bool) {
	var req sourceRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return core.RevenueSource{}, false
	}

	cents, err := core.ParseDecimalToCents(req.MRR)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid mrr: expected a non-negative decimal string")
		return core.RevenueSource{}, false
	}

	status := core.SourceStatus(req.Status)
	if req.Status == "" {
		status = core.StatusActive
	}

	src := core.RevenueSource{
		OperatorID: s.operatorID(r),
		Name:       req.Name,
		Type:       req.Type,
		MRR:        core.Money{Cents: cents},
		GrowthPct:  req.GrowthPct,
		Status:     status,
	}
	if err := src.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return core.RevenueSource{}, false
	}
	return src, true
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.store.ListSources(r.Context(), s.operatorID(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list revenue sources", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list sources")
		return
	}

	resp := make([]sourceResponse, 0, len(sources))
	for _, src := range sources {
		resp = append(resp, toSourceResponse(src))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateSource(w http.ResponseWriter, r *http.Request) {
	src, ok := s.sourceFromRequest(r, w)
	if !ok {
		return
	}

	id, err := s.store.CreateSource(r.Context(), src)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create revenue source", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create source")
		return
	}

	src.ID = id
	writeJSON(w, http.StatusCreated, toSourceResponse(src))
}

func (s *Server) handleUpdateSource(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	src, ok := s.sourceFromRequest(r, w)
	if !ok {
		return
	}
	src.ID = id

	if err := s.store.UpdateSource(r.Context(), src); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "source not found")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to update revenue source", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update source")
		return
	}
	writeJSON(w, http.StatusOK, toSourceResponse(src))
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.SoftDeleteSource(r.Context(), s.operatorID(r), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "source not found")
			return
		}
		slog.ErrorContext(r.Context(), "Failed to delete revenue source", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete source")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
