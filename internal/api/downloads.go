package api

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/starford/cpidash/internal/chart"
	"github.com/starford/cpidash/internal/export"
	"github.com/starford/cpidash/internal/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PointChart handles GET /api/charts/point.svg.
// Responds 204 No Content when the query matches nothing.
func (h *Handler) PointChart(w http.ResponseWriter, r *http.Request) {
	q, err := pointQuery(r)
	if err != nil {
		writeServiceError(w, "point chart", err)
		return
	}
	res, err := h.svc.Point(r.Context(), q)
	if err != nil {
		writeServiceError(w, "point chart", err)
		return
	}
	if res.Empty {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeSVG(w, "point chart", func() ([]byte, error) { return chart.PointBar(res.Records...) })
}

// RangeChart handles GET /api/charts/range.svg.
// Responds 204 No Content when the query matches nothing.
func (h *Handler) RangeChart(w http.ResponseWriter, r *http.Request) {
	q, err := rangeQuery(r)
	if err != nil {
		writeServiceError(w, "range chart", err)
		return
	}
	res, err := h.svc.Range(r.Context(), q)
	if err != nil {
		writeServiceError(w, "range chart", err)
		return
	}
	if res.Empty {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeSVG(w, "range chart", func() ([]byte, error) { return chart.RangeLine(res.Records) })
}

func writeSVG(w http.ResponseWriter, op string, render func() ([]byte, error)) {
	svg, err := render()
	if errors.Is(err, chart.ErrNothingToPlot) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

// PointExport handles GET /api/export/point.xlsx.
func (h *Handler) PointExport(w http.ResponseWriter, r *http.Request) {
	q, err := pointQuery(r)
	if err != nil {
		writeServiceError(w, "point export", err)
		return
	}
	res, err := h.svc.Point(r.Context(), q)
	if err != nil {
		writeServiceError(w, "point export", err)
		return
	}
	writeXLSX(w, fmt.Sprintf("cpi_%s_%s_%d%02d.xlsx", res.Item, res.Region, res.Year, res.Month), res.Records)
}

// RangeExport handles GET /api/export/range.xlsx.
func (h *Handler) RangeExport(w http.ResponseWriter, r *http.Request) {
	q, err := rangeQuery(r)
	if err != nil {
		writeServiceError(w, "range export", err)
		return
	}
	res, err := h.svc.Range(r.Context(), q)
	if err != nil {
		writeServiceError(w, "range export", err)
		return
	}
	writeXLSX(w, fmt.Sprintf("cpi_%s_%d-%d.xlsx", res.Item, res.YearMin, res.YearMax), res.Records)
}

// writeXLSX buffers the workbook so a failure can still produce a JSON error.
func writeXLSX(w http.ResponseWriter, filename string, records []models.Record) {
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, records); err != nil {
		slog.Error("export failed", slog.String("file", filename), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
