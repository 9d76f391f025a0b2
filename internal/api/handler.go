package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rallypc/pccalc/internal/alerts"
	"github.com/rallypc/pccalc/internal/export"
	"github.com/rallypc/pccalc/internal/store"
	"github.com/rallypc/pccalc/pkg/timing"
)

// Computer runs the compute-and-save flow. *runner.Runner satisfies it.
type Computer interface {
	RunOnce(ctx context.Context) (*timing.Report, error)
}

// AlertSource lists alerts. *alerts.Engine satisfies it.
type AlertSource interface {
	Active() []*alerts.Alert
}

// Deps wires the handler to the rest of the server. Computer and Alerts are
// optional.
type Deps struct {
	Store    *store.Store
	Computer Computer
	Alerts   AlertSource
	Event    string
}

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	deps Deps
	mux  *http.ServeMux
}

// New creates a Handler and registers all routes.
func New(deps Deps) http.Handler {
	h := &Handler{deps: deps, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/report", h.report)
	h.mux.HandleFunc("/api/v1/sections", h.sections)
	h.mux.HandleFunc("/api/v1/bibs", h.listBibs)
	h.mux.HandleFunc("/api/v1/bibs/", h.getBib) // subtree, extracts {bib}
	h.mux.HandleFunc("/api/v1/overlaps", h.overlaps)
	h.mux.HandleFunc("/api/v1/duplicates", h.duplicates)
	h.mux.HandleFunc("/api/v1/diagnostics", h.diagnostics)
	h.mux.HandleFunc("/api/v1/alerts", h.alerts)
	h.mux.HandleFunc("/api/v1/export", h.export)
	h.mux.HandleFunc("/api/v1/compute", h.compute)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// health returns GET /api/v1/health.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	resp := HealthResponse{State: "pending", Event: h.deps.Event}
	if h.deps.Alerts != nil {
		for _, a := range h.deps.Alerts.Active() {
			if a.State == alerts.StateFiring {
				resp.AlertCount++
			}
		}
	}

	latest, ok := h.deps.Store.Latest()
	if !ok {
		jsonResp(w, http.StatusOK, resp)
		return
	}
	resp.State = "ok"
	if !latest.Success {
		resp.State = "failing"
		resp.Error = latest.Error
	}
	if cur, ok := h.current(); ok {
		at := cur.CalculatedAt
		resp.FromCache = cur.FromCache
		resp.CalculatedAt = &at
		resp.FileCount = cur.FileCount
		resp.BibCount = len(cur.BibRecords)
		resp.SectionCount = len(cur.Sections)
		resp.OverlapCount = len(cur.Overlaps)
		resp.DuplicateCount = len(cur.Duplicates)
		resp.SkippedFiles = cur.SkippedFiles()
	}
	jsonResp(w, http.StatusOK, resp)
}

// report returns GET /api/v1/report, the latest report even when it failed.
func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	latest, ok := h.deps.Store.Latest()
	if !ok {
		jsonErr(w, http.StatusNotFound, "no report computed yet")
		return
	}
	jsonResp(w, http.StatusOK, latest)
}

func (h *Handler) sections(w http.ResponseWriter, r *http.Request) {
	h.view(w, r, func(rep *timing.Report) interface{} { return rep.Sections })
}

func (h *Handler) listBibs(w http.ResponseWriter, r *http.Request) {
	h.view(w, r, func(rep *timing.Report) interface{} { return rep.BibRecords })
}

func (h *Handler) overlaps(w http.ResponseWriter, r *http.Request) {
	h.view(w, r, func(rep *timing.Report) interface{} { return rep.Overlaps })
}

func (h *Handler) duplicates(w http.ResponseWriter, r *http.Request) {
	h.view(w, r, func(rep *timing.Report) interface{} { return rep.Duplicates })
}

func (h *Handler) diagnostics(w http.ResponseWriter, r *http.Request) {
	h.view(w, r, func(rep *timing.Report) interface{} { return rep.Diagnostics })
}

// getBib returns GET /api/v1/bibs/{bib}.
func (h *Handler) getBib(w http.ResponseWriter, r *http.Request) {
	bib := strings.TrimPrefix(r.URL.Path, "/api/v1/bibs/")
	if bib == "" {
		h.listBibs(w, r)
		return
	}
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	cur, ok := h.current()
	if !ok {
		jsonErr(w, http.StatusNotFound, "no report computed yet")
		return
	}
	rec := cur.Bib(bib)
	if rec == nil {
		jsonErr(w, http.StatusNotFound, "bib not found")
		return
	}
	jsonResp(w, http.StatusOK, rec)
}

// alerts returns GET /api/v1/alerts.
func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if h.deps.Alerts == nil {
		jsonResp(w, http.StatusOK, []*alerts.Alert{})
		return
	}
	jsonResp(w, http.StatusOK, h.deps.Alerts.Active())
}

// export returns GET /api/v1/export?format=... as a download.
func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	cur, ok := h.current()
	if !ok {
		jsonErr(w, http.StatusNotFound, "no report computed yet")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	if format != export.FormatTable {
		w.Header().Set("Content-Disposition", `attachment; filename="results.`+string(format)+`"`)
	}
	if err := export.Write(w, format, cur); err != nil {
		// Headers are gone; all that is left is to log.
		slog.Error("api: export failed", "format", format, "err", err)
	}
}

// compute handles POST /api/v1/compute.
func (h *Handler) compute(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if h.deps.Computer == nil {
		jsonErr(w, http.StatusServiceUnavailable, "compute is not available")
		return
	}
	rep, err := h.deps.Computer.RunOnce(r.Context())
	if err != nil {
		slog.Error("api: compute", "err", err)
		jsonErr(w, http.StatusInternalServerError, "report computed but not saved")
		return
	}
	jsonResp(w, http.StatusOK, rep)
}

// --- helpers ----------------------------------------------------------------

// current returns the report the derived views serve.
func (h *Handler) current() (*timing.Report, bool) {
	if latest, ok := h.deps.Store.Latest(); ok && latest.Success {
		return latest, true
	}
	return h.deps.Store.LastGood()
}

func (h *Handler) view(w http.ResponseWriter, r *http.Request, pick func(*timing.Report) interface{}) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	cur, ok := h.current()
	if !ok {
		jsonErr(w, http.StatusNotFound, "no report computed yet")
		return
	}
	jsonResp(w, http.StatusOK, pick(cur))
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
