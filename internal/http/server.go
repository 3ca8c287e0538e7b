// Package http exposes the reconciled revenue figure and the ledger CRUD
// surface as a JSON API.
package http

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"revpulse/internal/core"
	"revpulse/internal/middleware/ratelimit"
	"revpulse/internal/middleware/trace"
)

// Reconciler produces the authoritative revenue figure for an operator.
type Reconciler interface {
	Reconcile(ctx context.Context, operatorID string) core.ReconciledRevenue
}

// Store is the ledger persistence consumed by the CRUD handlers.
type Store interface {
	CreateSource(ctx context.Context, src core.RevenueSource) (int64, error)
	UpdateSource(ctx context.Context, src core.RevenueSource) error
	SoftDeleteSource(ctx context.Context, operatorID string, id int64) error
	ListSources(ctx context.Context, operatorID string) ([]core.RevenueSource, error)
	UpsertSnapshot(ctx context.Context, snap core.RevenueSnapshot) error
	ListSnapshots(ctx context.Context, operatorID string) ([]core.RevenueSnapshot, error)
}

type Server struct {
	reconciler      Reconciler
	store           Store
	defaultOperator string
	limiter         *ratelimit.Limiter
}

// NewServer builds the API server with sensible timeouts. The caller owns
// ListenAndServe and shutdown; the rate limiter is stopped on shutdown.
func NewServer(addr string, reconciler Reconciler, store Store, defaultOperator string) *http.Server {
	s := &Server{
		reconciler:      reconciler,
		store:           store,
		defaultOperator: defaultOperator,
		limiter:         ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}

	srv := &http.Server{
		Addr:           addr,
		Handler:        s.routes(),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}
	srv.RegisterOnShutdown(s.limiter.Stop)
	return srv
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/revenue", s.handleRevenue)

	mux.HandleFunc("GET /api/sources", s.handleListSources)
	mux.HandleFunc("POST /api/sources", s.handleCreateSource)
	mux.HandleFunc("PUT /api/sources/{id}", s.handleUpdateSource)
	mux.HandleFunc("DELETE /api/sources/{id}", s.handleDeleteSource)

	mux.HandleFunc("GET /api/snapshots", s.handleListSnapshots)
	mux.HandleFunc("PUT /api/snapshots", s.handleUpsertSnapshot)

	// Rate limiting sits inside tracing so rejections still show up in
	// the request logs. A cold /api/revenue read reaches the billing
	// provider, so per-client limits back up the revalidation cache.
	limited := s.limiter.Middleware(clientIP, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
	})(mux)
	traced := trace.NewMiddleware().Middleware(limited)
	return securityHeaders(traced)
}

// clientIP identifies the requesting client, honoring proxy headers before
// falling back to the socket address.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		// First hop in the chain is the originating client.
		if i := strings.IndexByte(ip, ','); i >= 0 {
			ip = ip[:i]
		}
		return strings.TrimSpace(ip)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// securityHeaders applies the baseline response headers for a JSON API.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
