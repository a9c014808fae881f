package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/cpidash/internal/cpiservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *cpiservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/meta", h.Meta)
	r.Get("/overview", h.Overview)
	r.Get("/loads", h.Loads)

	// Queries.
	r.Route("/query", func(r chi.Router) {
		r.Get("/point", h.Point)
		r.Get("/range", h.Range)
	})

	// Rendered charts and spreadsheet exports of the same queries.
	r.Get("/charts/point.svg", h.PointChart)
	r.Get("/charts/range.svg", h.RangeChart)
	r.Get("/export/point.xlsx", h.PointExport)
	r.Get("/export/range.xlsx", h.RangeExport)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

// NewHealthRouter serves the unauthenticated liveness and readiness probes.
func NewHealthRouter(svc *cpiservice.Service) chi.Router {
	h := NewHandler(svc)
	r := chi.NewRouter()
	r.Get("/live", h.Live)
	r.Get("/ready", h.Ready)
	return r
}
