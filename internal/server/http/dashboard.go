package httpserver

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fredxotic/cord19-explorer/internal/aggregate"
	"github.com/fredxotic/cord19-explorer/internal/explorer"
	"github.com/fredxotic/cord19-explorer/internal/report"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var dashboardTmpl = template.Must(template.ParseFS(templatesFS, "templates/*.tmpl"))

// Chart names served under /charts/{chart}.png.
const (
	ChartYears    = "years"
	ChartJournals = "journals"
	ChartSources  = "sources"
	ChartWords    = "words"
)

// recentRunsLimit caps the run history section of the dashboard page.
const recentRunsLimit = 5

// dashboardPage is the template payload for the dashboard HTML page.
type dashboardPage struct {
	Overview explorer.OverviewView
	Years    explorer.CountsView
	Journals explorer.CountsView
	Sources  explorer.CountsView
	Words    explorer.WordsView
	Sample   explorer.SampleView

	// Runs lists the most recent catalog entries, empty without a catalog.
	Runs []runResponse

	// WordSource and Mode duplicate normalized params as plain strings
	// for the form controls.
	WordSource string
	Mode       string

	// PanelQuery is the normalized query string that chart images and
	// the CSV download link reuse. It is built from normalized numeric
	// and enum values, never from raw request input.
	PanelQuery  template.URL
	GeneratedAt time.Time
}

// redirectToDashboard sends the root path to the dashboard page.
func (s *Server) redirectToDashboard(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// getDashboard handles GET /dashboard. It computes every panel view for
// the requested settings and renders the page. The page is buffered so
// a mid-render failure still produces a proper error response.
func (s *Server) getDashboard(w http.ResponseWriter, r *http.Request) {
	mode, params, err := s.parseViewQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx := r.Context()

	overview, err := s.service.Overview(ctx, mode, params)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	years, err := s.service.Years(ctx, mode, params)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	journals, err := s.service.Journals(ctx, mode, params)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	sources, err := s.service.Sources(ctx, mode, params)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	words, err := s.service.Words(ctx, mode, params)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	sample, err := s.service.Sample(ctx, mode, params)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	page := dashboardPage{
		Overview:    overview,
		Years:       years,
		Journals:    journals,
		Sources:     sources,
		Words:       words,
		Sample:      sample,
		Runs:        s.recentRuns(ctx),
		WordSource:  string(overview.Params.WordSource),
		Mode:        overview.Mode,
		PanelQuery:  template.URL(panelQuery(overview.Mode, overview.Params)),
		GeneratedAt: time.Now(),
	}

	var buf bytes.Buffer
	if err := dashboardTmpl.ExecuteTemplate(&buf, "dashboard.html.tmpl", page); err != nil {
		s.logger.Error().Err(err).Msg("dashboard template failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Debug().Err(err).Msg("dashboard write aborted")
	}
}

// recentRuns fetches the latest catalog entries for the dashboard page.
// Catalog trouble only costs the section, never the page.
func (s *Server) recentRuns(ctx context.Context) []runResponse {
	if s.runs == nil {
		return nil
	}
	runs, err := s.runs.List(ctx, recentRunsLimit)
	if err != nil {
		s.logger.Warn().Err(err).Msg("listing recent runs failed")
		return nil
	}
	resp := make([]runResponse, len(runs))
	for i, run := range runs {
		resp[i] = domainRunToResponse(run)
	}
	return resp
}

// getChart handles GET /charts/{chart}.png. It renders one axis of the
// current view as a PNG bar chart.
func (s *Server) getChart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "chart")
	mode, params, err := s.parseViewQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx := r.Context()

	var (
		title   string
		entries []aggregate.Entry
	)
	switch name {
	case ChartYears:
		view, verr := s.service.Years(ctx, mode, params)
		if verr != nil {
			writeDomainError(w, verr)
			return
		}
		title, entries = report.YearChartTitle, view.Entries
	case ChartJournals:
		view, verr := s.service.Journals(ctx, mode, params)
		if verr != nil {
			writeDomainError(w, verr)
			return
		}
		title, entries = report.JournalChartTitle, view.Entries
	case ChartSources:
		view, verr := s.service.Sources(ctx, mode, params)
		if verr != nil {
			writeDomainError(w, verr)
			return
		}
		title, entries = report.SourceChartTitle, view.Entries
	case ChartWords:
		view, verr := s.service.Words(ctx, mode, params)
		if verr != nil {
			writeDomainError(w, verr)
			return
		}
		title, entries = report.WordChartTitle, view.Entries
	default:
		writeError(w, http.StatusNotFound, "unknown chart")
		return
	}

	if len(entries) == 0 {
		writeError(w, http.StatusNotFound, "no data to chart")
		return
	}

	var buf bytes.Buffer
	if err := report.RenderBarPNG(&buf, title, entries); err != nil {
		s.logger.Error().Err(err).Str("chart", name).Msg("chart render failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Debug().Err(err).Str("chart", name).Msg("chart write aborted")
	}
}
