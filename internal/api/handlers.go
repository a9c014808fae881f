package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/starford/cpidash/internal/apperr"
	"github.com/starford/cpidash/internal/cpiservice"
	"github.com/starford/cpidash/internal/dataset"
)

// Handler holds API route handlers.
type Handler struct {
	svc *cpiservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *cpiservice.Service) *Handler {
	return &Handler{svc: svc}
}

// pointQuery reads item, region, year and period from the query string.
func pointQuery(r *http.Request) (cpiservice.PointQuery, error) {
	q := r.URL.Query()
	var pq cpiservice.PointQuery
	pq.Item = q.Get("item")
	pq.Region = q.Get("region")

	year, err := intParam(q.Get("year"), "year")
	if err != nil {
		return pq, err
	}
	pq.Year = year

	if p := q.Get("period"); p != "" {
		period, err := dataset.ParsePeriod(p)
		if err != nil {
			return pq, err
		}
		pq.Period = period
	}
	return pq, nil
}

// rangeQuery reads item, repeated region, year_min and year_max. Missing
// year bounds are left zero for the service to default.
func rangeQuery(r *http.Request) (cpiservice.RangeQuery, error) {
	q := r.URL.Query()
	rq := cpiservice.RangeQuery{
		Item:    q.Get("item"),
		Regions: q["region"],
	}
	var err error
	if rq.YearMin, err = intParam(q.Get("year_min"), "year_min"); err != nil {
		return rq, err
	}
	if rq.YearMax, err = intParam(q.Get("year_max"), "year_max"); err != nil {
		return rq, err
	}
	return rq, nil
}

func intParam(s, name string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", apperr.ErrInvalidQuery, name)
	}
	return v, nil
}

// Meta handles GET /api/meta.
//
//	@Summary		List selectable items, regions, years and periods
//	@Tags			dataset
//	@Produce		json
//	@Success		200	{object}	MetaResponse
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/meta [get]
func (h *Handler) Meta(w http.ResponseWriter, r *http.Request) {
	meta, err := h.svc.Meta(r.Context())
	if err != nil {
		writeServiceError(w, "meta", err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// Point handles GET /api/query/point.
//
//	@Summary		Index and YoY change for one item, region, year and half-year
//	@Tags			query
//	@Produce		json
//	@Param			item	query		string	true	"Item name without code, e.g. 総合"
//	@Param			region	query		string	true	"Region name"
//	@Param			year	query		int		true	"Year"
//	@Param			period	query		string	true	"H1 (June) or H2 (December)"
//	@Success		200		{object}	PointResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/query/point [get]
func (h *Handler) Point(w http.ResponseWriter, r *http.Request) {
	q, err := pointQuery(r)
	if err != nil {
		writeServiceError(w, "point query", err)
		return
	}
	res, err := h.svc.Point(r.Context(), q)
	if err != nil {
		writeServiceError(w, "point query", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Range handles GET /api/query/range.
//
//	@Summary		Half-yearly index series for an item across regions and years
//	@Tags			query
//	@Produce		json
//	@Param			item		query		string		true	"Item name"
//	@Param			region		query		[]string	true	"Region (repeatable)"
//	@Param			year_min	query		int			false	"First year (inclusive, defaults to the earliest year)"
//	@Param			year_max	query		int			false	"Last year (inclusive, defaults to the latest year)"
//	@Success		200			{object}	RangeResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/query/range [get]
func (h *Handler) Range(w http.ResponseWriter, r *http.Request) {
	q, err := rangeQuery(r)
	if err != nil {
		writeServiceError(w, "range query", err)
		return
	}
	res, err := h.svc.Range(r.Context(), q)
	if err != nil {
		writeServiceError(w, "range query", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Loads handles GET /api/loads.
//
//	@Summary		Load history, newest first
//	@Tags			dataset
//	@Produce		json
//	@Param			limit	query		int	false	"Max entries"
//	@Success		200		{object}	LoadsResponse
//	@Security		BearerAuth
//	@Router			/loads [get]
func (h *Handler) Loads(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	loads, err := h.svc.Loads(r.Context(), limit)
	if err != nil {
		writeServiceError(w, "list loads", err)
		return
	}
	writeJSON(w, http.StatusOK, LoadsResponse{Loads: loads})
}

// Overview handles GET /api/overview.
func (h *Handler) Overview(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, OverviewResponse{Markdown: h.svc.Overview()})
}

// Live handles GET /health/live.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready handles GET /health/ready. It fails until a dataset is loaded.
func (h *Handler) Ready(w http.ResponseWriter, _ *http.Request) {
	if !h.svc.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "loading"})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
