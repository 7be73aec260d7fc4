package http

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"burnscope/internal/chart"
	"burnscope/internal/core"
	"burnscope/internal/log"
	"burnscope/internal/services"
)

const dashboardTitle = "MCD64A1 Burned Area Dashboard"

type indexData struct {
	Title     string
	Controls  services.Controls
	Bootstrap template.JS
	PlotlyURL string
}

const plotlyURL = "https://cdn.plot.ly/plotly-2.35.2.min.js"

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	controls := s.dashboard.Controls()
	bootstrap, err := json.Marshal(controls)
	if err != nil {
		s.fail(w, r, log.OpRender, err)
		return
	}

	data := indexData{
		Title:     dashboardTitle,
		Controls:  controls,
		Bootstrap: template.JS(bootstrap),
		PlotlyURL: plotlyURL,
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "dashboard.html", data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Dashboard template execution failed",
			log.FieldError, err, "template", "dashboard.html")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleControls(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dashboard.Controls())
}

// handleFiguresPost applies one event to the posted selection.
func (s *Server) handleFiguresPost(w http.ResponseWriter, r *http.Request) {
	req, err := decodeFigureRequest(r.Body)
	if err != nil {
		s.fail(w, r, log.OpRecompute, err)
		return
	}
	sel, ev, err := req.resolve(s.dashboard.Initial())
	if err != nil {
		s.fail(w, r, log.OpRecompute, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := s.dashboard.Dispatch(ctx, sel, ev, req.Payload)
	if err != nil {
		s.fail(w, r, log.OpRecompute, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleFiguresGet draws the figures for a selection given in the query
// string. It is not an interaction: clicks are left as given.
func (s *Server) handleFiguresGet(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelectionQuery(r.URL.Query(), s.dashboard.Initial())
	if err != nil {
		s.fail(w, r, log.OpRecompute, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := s.dashboard.Render(ctx, sel)
	if err != nil {
		s.fail(w, r, log.OpRender, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	kind, err := chart.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		s.fail(w, r, log.OpRender, err)
		return
	}

	var buf bytes.Buffer
	sel, err := s.exportSelection(r, func(rows []core.AggregatedRecord, sel core.Selection) error {
		return chart.RenderPNG(&buf, kind, rows, sel)
	})
	if err != nil {
		s.fail(w, r, log.OpRender, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `inline; filename="`+exportFilename(sel, string(kind)+".png")+`"`)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	sel, err := s.exportSelection(r, func(rows []core.AggregatedRecord, sel core.Selection) error {
		return chart.WriteWorkbook(&buf, rows, sel)
	})
	if err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}

	setAttachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", exportFilename(sel, "xlsx"))
	_, _ = buf.WriteTo(w)
}

// exportSelection resolves the query selection, loads its rows and hands
// them to render. Output is buffered so failures still produce a JSON error.
func (s *Server) exportSelection(r *http.Request, render func([]core.AggregatedRecord, core.Selection) error) (core.Selection, error) {
	sel, err := parseSelectionQuery(r.URL.Query(), s.dashboard.Initial())
	if err != nil {
		return sel, err
	}
	sel, err = s.dashboard.Resolve(sel)
	if err != nil {
		return sel, err
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rows, err := s.dashboard.Rows(ctx, sel)
	if err != nil {
		return sel, err
	}
	return sel, render(rows, sel)
}

type statsBody struct {
	Requests struct {
		Total          int64 `json:"total"`
		LastDurationUs int64 `json:"last_duration_us"`
	} `json:"requests"`
	RateLimit struct {
		Hits    int64 `json:"hits"`
		Clients int64 `json:"clients"`
	} `json:"rate_limit"`
	Security struct {
		Suspicious int64 `json:"suspicious_requests"`
	} `json:"security"`
}

// handleStats reports the middleware counters.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var body statsBody
	tm := s.tracer.GetMetrics()
	body.Requests.Total = tm.TotalRequests
	body.Requests.LastDurationUs = tm.AverageResponseTime
	rm := s.limiter.GetMetrics()
	body.RateLimit.Hits = rm.TotalHits
	body.RateLimit.Clients = rm.ClientCount
	body.Security.Suspicious = s.detector.GetMetrics().SuspiciousRequests
	writeJSON(w, http.StatusOK, body)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
