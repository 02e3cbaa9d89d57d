package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/heapguard/analyzer/app"
	"github.com/heapguard/analyzer/internal/apperr"
)

const (
	limitParam   = "limit"
	baseParam    = "base"
	currentParam = "current"
)

// Handler adapts the Heap Analyzer facade's query surface to HTTP.
type Handler struct {
	ctx context.Context
	app *app.App
}

// NewHandler builds a Handler bound to application.
func NewHandler(ctx context.Context, application *app.App) (*Handler, error) {
	if ctx == nil {
		return nil, apperr.ErrNilContext
	}
	if application == nil {
		return nil, apperr.ErrNilAnalyzer
	}
	return &Handler{ctx: ctx, app: application}, nil
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if !strings.EqualFold(r.Method, method) {
		w.WriteHeader(http.StatusMethodNotAllowed)
		w.Write([]byte("Only " + method + " method is allowed"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("json encoding error; " + err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func limitFromQuery(r *http.Request, def int) int {
	raw := r.URL.Query().Get(limitParam)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// TopClasses handles GET /api/classes/top.
func (h *Handler) TopClasses(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, h.app.Analyzer().TopClasses(limitFromQuery(r, 20)))
}

// TopSites handles GET /api/sites/top.
func (h *Handler) TopSites(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, h.app.Analyzer().TopSites(limitFromQuery(r, 20)))
}

// RecentAllocations handles GET /api/allocations/recent.
func (h *Handler) RecentAllocations(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, h.app.Analyzer().RecentAllocations(limitFromQuery(r, 100)))
}

// AllocationStats handles GET /api/allocations/stats.
func (h *Handler) AllocationStats(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, h.app.Analyzer().AllocationStats())
}

// HeapUsage handles GET /api/heap.
func (h *Handler) HeapUsage(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, h.app.Analyzer().HeapMemoryUsage())
}

// GCStatistics handles GET /api/gc.
func (h *Handler) GCStatistics(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, h.app.Analyzer().GCStatistics())
}

// HeapPoolUsages handles GET /api/heap/pools.
func (h *Handler) HeapPoolUsages(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, h.app.Analyzer().HeapPoolUsages())
}

// Snapshots handles GET/POST /api/snapshots: GET lists retained
// snapshots, POST takes a new one.
func (h *Handler) Snapshots(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.EqualFold(r.Method, http.MethodGet):
		writeJSON(w, h.app.Analyzer().Snapshots())
	case strings.EqualFold(r.Method, http.MethodPost):
		writeJSON(w, h.app.Analyzer().TakeSnapshot())
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// SnapshotDiff handles GET /api/snapshots/diff?base=ID&current=ID.
func (h *Handler) SnapshotDiff(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	base, err1 := strconv.ParseInt(r.URL.Query().Get(baseParam), 10, 64)
	current, err2 := strconv.ParseInt(r.URL.Query().Get(currentParam), 10, 64)
	if err1 != nil || err2 != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(baseParam + " and " + currentParam + " must be integer snapshot ids"))
		return
	}

	diff, ok := h.app.Analyzer().CompareSnapshots(base, current)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(apperr.ErrSnapshotNotFound.Error()))
		return
	}
	writeJSON(w, diff)
}

// Detect handles POST /api/detect: runs one leak-detection pass and
// returns the resulting report.
func (h *Handler) Detect(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	report, ran := h.app.Analyzer().Detect()
	if !ran {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte("analyzer is not currently analyzing"))
		return
	}
	writeJSON(w, report)
}

// ReportHistory handles GET /api/reports.
func (h *Handler) ReportHistory(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, h.app.Analyzer().ReportHistory())
}

// Clear handles POST /api/clear.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	h.app.Analyzer().Clear()
	w.WriteHeader(http.StatusOK)
}
