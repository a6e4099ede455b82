package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fredxotic/cord19-explorer/internal/catalog"
	"github.com/fredxotic/cord19-explorer/internal/config"
	"github.com/fredxotic/cord19-explorer/internal/dataset"
	"github.com/fredxotic/cord19-explorer/internal/domain"
	"github.com/fredxotic/cord19-explorer/internal/explorer"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

// mockRunRepo implements catalog.RunRepository for HTTP handler tests.
type mockRunRepo struct {
	createFn  func(ctx context.Context, run *domain.AnalysisRun) error
	finishFn  func(ctx context.Context, run *domain.AnalysisRun) error
	getFn     func(ctx context.Context, id uuid.UUID) (*domain.AnalysisRun, error)
	listFn    func(ctx context.Context, limit int) ([]*domain.AnalysisRun, error)
	saveAggFn func(ctx context.Context, runID uuid.UUID, aggregates []domain.RunAggregate) error
	getAggFn  func(ctx context.Context, runID uuid.UUID, axis domain.Axis) ([]domain.RunAggregate, error)
}

func (m *mockRunRepo) Create(ctx context.Context, run *domain.AnalysisRun) error {
	if m.createFn != nil {
		return m.createFn(ctx, run)
	}
	return nil
}

func (m *mockRunRepo) Finish(ctx context.Context, run *domain.AnalysisRun) error {
	if m.finishFn != nil {
		return m.finishFn(ctx, run)
	}
	return nil
}

func (m *mockRunRepo) Get(ctx context.Context, id uuid.UUID) (*domain.AnalysisRun, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockRunRepo) List(ctx context.Context, limit int) ([]*domain.AnalysisRun, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockRunRepo) SaveAggregates(ctx context.Context, runID uuid.UUID, aggregates []domain.RunAggregate) error {
	if m.saveAggFn != nil {
		return m.saveAggFn(ctx, runID, aggregates)
	}
	return nil
}

func (m *mockRunRepo) GetAggregates(ctx context.Context, runID uuid.UUID, axis domain.Axis) ([]domain.RunAggregate, error) {
	if m.getAggFn != nil {
		return m.getAggFn(ctx, runID, axis)
	}
	return nil, nil
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

const metadataHeader = "cord_uid,title,abstract,publish_time,journal,source_x"

// abstractWords builds an abstract with exactly n whitespace-delimited words.
func abstractWords(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

// writeDashboardDataset writes the six-row fixture the handler tests read:
// years 2018 and 2020 through 2022, one unparseable date, one missing
// journal, abstracts from 3 to 20 words.
func writeDashboardDataset(t *testing.T) string {
	t.Helper()

	rows := []string{
		metadataHeader,
		"c1,Viral pandemic spread," + abstractWords(12) + ",2020-03-01,Nature,PMC",
		"c2,Pandemic response teams," + abstractWords(3) + ",2020-05-11,Nature,PMC",
		"c3,Coronavirus genome study," + abstractWords(15) + ",2021-01-01,The Lancet,Medline",
		"c4,Vaccine trial results," + abstractWords(20) + ",2018-07-04,,PMC",
		"c5,Old influenza paper," + abstractWords(11) + ",unknown-date,Cell,arXiv",
		"c6,Immune response analysis," + abstractWords(9) + ",2022-02-02,Cell,PMC",
	}

	dir := t.TempDir()
	path := filepath.Join(dir, dataset.SampleFileName)
	if err := os.WriteFile(path, []byte(strings.Join(rows, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return dir
}

// testExplorerService builds a real explorer service over a data directory.
func testExplorerService(t *testing.T, dataDir string) *explorer.Service {
	t.Helper()
	out := t.TempDir()
	cfg := explorer.Config{
		Dataset: config.DatasetConfig{
			Dir:              dataDir,
			Mode:             string(dataset.ModeSample),
			ThinChunkSize:    dataset.DefaultThinChunkSize,
			ThinKeepFraction: dataset.DefaultKeepFraction,
			ThinMaxChunks:    dataset.DefaultMaxChunks,
			ThinSeed:         dataset.DefaultThinSeed,
		},
		Analysis: config.AnalysisConfig{
			BatchSize:      3,
			TopJournals:    10,
			TopWords:       15,
			TopSources:     10,
			MinTokenLength: 3,
			ResultsDir:     filepath.Join(out, "results"),
			ChartsDir:      filepath.Join(out, "images"),
		},
	}
	return explorer.NewService(cfg, nil, nil, zerolog.Nop())
}

// newTestServer creates a Server over a data directory with optional mocked
// run repository.
func newTestServer(t *testing.T, dataDir string, runs catalog.RunRepository) *Server {
	t.Helper()
	s := &Server{
		service:  testExplorerService(t, dataDir),
		runs:     runs,
		validate: validator.New(),
		logger:   zerolog.Nop(),
	}
	s.router = s.buildRouter()
	return s
}

// serveHTTP dispatches a request through the test server's router and returns the recorder.
func serveHTTP(s *Server, r *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, r)
	return rr
}

// decodeJSON decodes a JSON response body into the given target.
func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(target); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

// completedRun builds a finished analysis run fixture.
func completedRun(total, withYear int) *domain.AnalysisRun {
	run := domain.NewAnalysisRun("data/small_metadata.csv", 1000)
	run.TotalRows = total
	run.RowsWithYear = withYear
	run.Complete(run.StartedAt.Add(2 * time.Second))
	return run
}

// ---------------------------------------------------------------------------
// Tests: view endpoints
// ---------------------------------------------------------------------------

func TestGetOverview_Defaults(t *testing.T) {
	srv := newTestServer(t, writeDashboardDataset(t), nil)

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/overview", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}

	var view explorer.OverviewView
	decodeJSON(t, rr, &view)

	if view.TotalRows != 6 {
		t.Errorf("expected 6 total rows, got %d", view.TotalRows)
	}
	if view.FilteredRows != 3 {
		t.Errorf("expected 3 filtered rows at defaults, got %d", view.FilteredRows)
	}
	if view.ObservedYearMin != 2018 || view.ObservedYearMax != 2022 {
		t.Errorf("expected observed years 2018..2022, got %d..%d", view.ObservedYearMin, view.ObservedYearMax)
	}
	if view.Params.MinAbstractWords != explorer.DefaultMinAbstractWords {
		t.Errorf("expected default abstract floor %d, got %d", explorer.DefaultMinAbstractWords, view.Params.MinAbstractWords)
	}
}

func TestGetOverview_ExplicitZeroFloor(t *testing.T) {
	srv := newTestServer(t, writeDashboardDataset(t), nil)

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/overview?min_abstract_words=0", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var view explorer.OverviewView
	decodeJSON(t, rr, &view)

	// Zero disables the abstract floor, keeping every dated row.
	if view.FilteredRows != 5 {
		t.Errorf("expected 5 filtered rows, got %d", view.FilteredRows)
	}
	if view.Params.MinAbstractWords != 0 {
		t.Errorf("expected explicit zero floor to stick, got %d", view.Params.MinAbstractWords)
	}
}

func TestGetYears(t *testing.T) {
	srv := newTestServer(t, writeDashboardDataset(t), nil)

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/years?min_abstract_words=0", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var view explorer.CountsView
	decodeJSON(t, rr, &view)

	if view.FilteredRows != 5 {
		t.Errorf("expected 5 filtered rows, got %d", view.FilteredRows)
	}
	want := map[string]int{"2018": 1, "2020": 2, "2021": 1, "2022": 1}
	if len(view.Entries) != len(want) {
		t.Fatalf("expected %d year entries, got %d", len(want), len(view.Entries))
	}
	for _, e := range view.Entries {
		if want[e.Key] != e.Count {
			t.Errorf("year %s: expected count %d, got %d", e.Key, want[e.Key], e.Count)
		}
	}
	if view.Entries[0].Key != "2018" {
		t.Errorf("expected years ascending starting 2018, got %s", view.Entries[0].Key)
	}
}

func TestGetJournals(t *testing.T) {
	srv := newTestServer(t, writeDashboardDataset(t), nil)

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/journals?min_abstract_words=0", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var view explorer.CountsView
	decodeJSON(t, rr, &view)

	if len(view.Entries) == 0 {
		t.Fatal("expected journal entries")
	}
	if view.Entries[0].Key != "Nature" || view.Entries[0].Count != 2 {
		t.Errorf("expected Nature with 2 papers first, got %s with %d", view.Entries[0].Key, view.Entries[0].Count)
	}

	var sawUnknown bool
	for _, e := range view.Entries {
		if e.Key == "Unknown" {
			sawUnknown = true
		}
	}
	if !sawUnknown {
		t.Error("expected the blank journal to surface as Unknown")
	}
}

func TestGetWords_FromAbstracts(t *testing.T) {
	srv := newTestServer(t, writeDashboardDataset(t), nil)

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/words?min_abstract_words=0&word_source=abstracts", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var view explorer.WordsView
	decodeJSON(t, rr, &view)

	if view.WordSource != explorer.WordSourceAbstracts {
		t.Errorf("expected abstracts word source, got %s", view.WordSource)
	}
	if view.CorpusDocs != 5 {
		t.Errorf("expected 5 corpus documents, got %d", view.CorpusDocs)
	}
	if len(view.Entries) == 0 {
		t.Fatal("expected word entries")
	}
	// The fixture abstracts repeat one word, so it dominates.
	if view.Entries[0].Key != "word" || view.Entries[0].Count != 59 {
		t.Errorf("expected word with 59 occurrences first, got %s with %d", view.Entries[0].Key, view.Entries[0].Count)
	}
}

func TestGetSample(t *testing.T) {
	srv := newTestServer(t, writeDashboardDataset(t), nil)

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/sample?min_abstract_words=0&sample_rows=5", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var view explorer.SampleView
	decodeJSON(t, rr, &view)

	if view.FilteredRows != 5 {
		t.Errorf("expected 5 filtered rows, got %d", view.FilteredRows)
	}
	if len(view.Rows) != 5 {
		t.Fatalf("expected 5 sample rows, got %d", len(view.Rows))
	}

	first := view.Rows[0]
	if first.Title != "Viral pandemic spread" {
		t.Errorf("expected first title in file order, got %s", first.Title)
	}
	if first.Journal != "Nature" {
		t.Errorf("expected journal Nature, got %s", first.Journal)
	}
	if first.Year == nil || *first.Year != 2020 {
		t.Errorf("expected year 2020, got %v", first.Year)
	}
	if first.AbstractWordCount != 12 {
		t.Errorf("expected 12 abstract words, got %d", first.AbstractWordCount)
	}
}

func TestViewQueryValidation(t *testing.T) {
	srv := newTestServer(t, writeDashboardDataset(t), nil)

	cases := []struct {
		name    string
		query   string
		wantMsg string
	}{
		{"non-integer year", "year_min=abc", "year_min must be an integer"},
		{"negative year", "year_min=-4", "year_min is out of range"},
		{"five-digit year", "year_max=10000", "year_max is out of range"},
		{"unknown mode", "mode=tiny", "mode must be one of"},
		{"unknown word source", "word_source=footnotes", "word_source must be one of"},
		{"non-integer top", "top_words=huge", "top_words must be an integer"},
		{"negative sample rows", "sample_rows=-1", "sample_rows is out of range"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/overview?"+tc.query, nil))

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
			}
			if !strings.Contains(rr.Body.String(), tc.wantMsg) {
				t.Errorf("expected error mentioning %q, got %s", tc.wantMsg, rr.Body.String())
			}
		})
	}
}

func TestViewQueryClamping(t *testing.T) {
	srv := newTestServer(t, writeDashboardDataset(t), nil)

	// Values beyond the panel bounds clamp instead of erroring.
	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/overview?year_min=1900&year_max=2500&top_journals=999", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var view explorer.OverviewView
	decodeJSON(t, rr, &view)

	if view.Params.YearMin != 2018 || view.Params.YearMax != 2022 {
		t.Errorf("expected years clamped to 2018..2022, got %d..%d", view.Params.YearMin, view.Params.YearMax)
	}
	if view.Params.TopJournals != explorer.MaxTopJournals {
		t.Errorf("expected top_journals clamped to %d, got %d", explorer.MaxTopJournals, view.Params.TopJournals)
	}
}

func TestDownloadSampleCSV(t *testing.T) {
	srv := newTestServer(t, writeDashboardDataset(t), nil)

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/sample.csv?min_abstract_words=0", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("expected text/csv, got %s", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("expected attachment disposition, got %s", cd)
	}
	if got := rr.Header().Get("X-Filtered-Rows"); got != "5" {
		t.Errorf("expected X-Filtered-Rows 5, got %s", got)
	}

	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected header plus 5 rows, got %d lines", len(lines))
	}
	if lines[0] != "title,journal,source,year,abstract_word_count" {
		t.Errorf("unexpected CSV header: %s", lines[0])
	}
}

// ---------------------------------------------------------------------------
// Tests: dashboard page and charts
// ---------------------------------------------------------------------------

func TestGetDashboard(t *testing.T) {
	repo := &mockRunRepo{
		listFn: func(_ context.Context, limit int) ([]*domain.AnalysisRun, error) {
			if limit != recentRunsLimit {
				t.Errorf("expected list limit %d, got %d", recentRunsLimit, limit)
			}
			return []*domain.AnalysisRun{completedRun(6, 5)}, nil
		},
	}
	srv := newTestServer(t, writeDashboardDataset(t), repo)

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected text/html, got %s", ct)
	}

	body := rr.Body.String()
	for _, want := range []string{
		"CORD-19 Metadata Explorer",
		"Nature",
		"/charts/years.png?",
		"Download all filtered rows",
		"Recent analysis runs",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected page to contain %q", want)
		}
	}
}

func TestRootRedirectsToDashboard(t *testing.T) {
	srv := newTestServer(t, writeDashboardDataset(t), nil)

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("expected redirect to /dashboard, got %s", loc)
	}
}

func TestGetChart(t *testing.T) {
	srv := newTestServer(t, writeDashboardDataset(t), nil)
	pngMagic := []byte("\x89PNG\r\n\x1a\n")

	t.Run("renders the year chart", func(t *testing.T) {
		rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/charts/years.png?min_abstract_words=0", nil))

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
			t.Errorf("expected image/png, got %s", ct)
		}
		if !bytes.HasPrefix(rr.Body.Bytes(), pngMagic) {
			t.Error("expected a PNG body")
		}
	})

	t.Run("unknown chart name", func(t *testing.T) {
		rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/charts/citations.png", nil))

		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rr.Code)
		}
	})

	t.Run("no rows match", func(t *testing.T) {
		// An abstract floor above every fixture abstract empties the view.
		rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/charts/years.png?min_abstract_words=400", nil))

		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d: %s", rr.Code, rr.Body.String())
		}
		if !strings.Contains(rr.Body.String(), "no data to chart") {
			t.Errorf("expected a no-data error, got %s", rr.Body.String())
		}
	})
}

// ---------------------------------------------------------------------------
// Tests: run catalog endpoints
// ---------------------------------------------------------------------------

func TestListRuns(t *testing.T) {
	t.Run("returns runs newest first", func(t *testing.T) {
		first := completedRun(6, 5)
		second := completedRun(100, 90)
		repo := &mockRunRepo{
			listFn: func(_ context.Context, limit int) ([]*domain.AnalysisRun, error) {
				if limit != 7 {
					t.Errorf("expected limit 7 passed through, got %d", limit)
				}
				return []*domain.AnalysisRun{second, first}, nil
			},
		}
		srv := newTestServer(t, writeDashboardDataset(t), repo)

		rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/runs?limit=7", nil))

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp listRunsResponse
		decodeJSON(t, rr, &resp)

		if resp.TotalCount != 2 || len(resp.Runs) != 2 {
			t.Fatalf("expected 2 runs, got %d (total %d)", len(resp.Runs), resp.TotalCount)
		}
		if resp.Runs[0].ID != second.ID.String() {
			t.Errorf("expected newest run first, got %s", resp.Runs[0].ID)
		}
		if resp.Runs[0].Status != string(domain.RunStatusCompleted) {
			t.Errorf("expected completed status, got %s", resp.Runs[0].Status)
		}
		if resp.Runs[0].Duration == "" {
			t.Error("expected a duration for a finished run")
		}
	})

	t.Run("without a catalog", func(t *testing.T) {
		srv := newTestServer(t, writeDashboardDataset(t), nil)

		rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp listRunsResponse
		decodeJSON(t, rr, &resp)
		if len(resp.Runs) != 0 || resp.TotalCount != 0 {
			t.Errorf("expected an empty list, got %+v", resp)
		}
	})

	t.Run("rejects bad limit", func(t *testing.T) {
		srv := newTestServer(t, writeDashboardDataset(t), &mockRunRepo{})

		rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/runs?limit=abc", nil))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}

		rr = serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/runs?limit=-1", nil))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for negative limit, got %d", rr.Code)
		}
	})
}

func TestGetRun(t *testing.T) {
	run := completedRun(6, 5)

	repo := &mockRunRepo{
		getFn: func(_ context.Context, id uuid.UUID) (*domain.AnalysisRun, error) {
			if id != run.ID {
				return nil, domain.NewNotFoundError("run", id.String())
			}
			return run, nil
		},
		getAggFn: func(_ context.Context, _ uuid.UUID, axis domain.Axis) ([]domain.RunAggregate, error) {
			if axis != domain.AxisYear {
				return nil, nil
			}
			return []domain.RunAggregate{
				{RunID: run.ID, Axis: axis, Position: 1, Key: "2020", Count: 3},
				{RunID: run.ID, Axis: axis, Position: 2, Key: "2021", Count: 2},
			}, nil
		},
	}
	srv := newTestServer(t, writeDashboardDataset(t), repo)

	t.Run("returns the run with aggregates", func(t *testing.T) {
		rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+run.ID.String(), nil))

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp runDetailResponse
		decodeJSON(t, rr, &resp)

		if resp.Run.ID != run.ID.String() {
			t.Errorf("expected run %s, got %s", run.ID, resp.Run.ID)
		}
		if len(resp.Aggregates["year"]) != 2 {
			t.Fatalf("expected 2 year aggregates, got %d", len(resp.Aggregates["year"]))
		}
		if resp.Aggregates["year"][0].Key != "2020" || resp.Aggregates["year"][0].Count != 3 {
			t.Errorf("unexpected first year aggregate: %+v", resp.Aggregates["year"][0])
		}
		if len(resp.Aggregates["journal"]) != 0 {
			t.Errorf("expected no journal aggregates, got %d", len(resp.Aggregates["journal"]))
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+uuid.NewString(), nil))

		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("invalid run id", func(t *testing.T) {
		rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/runs/not-a-uuid", nil))

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
		}
		body := rr.Body.String()
		if !strings.Contains(body, "run_id") || !strings.Contains(body, "must be a valid UUID") {
			t.Errorf("unexpected error body: %s", body)
		}
	})
}

// ---------------------------------------------------------------------------
// Tests: health and readiness
// ---------------------------------------------------------------------------

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, writeDashboardDataset(t), nil)

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	decodeJSON(t, rr, &resp)
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %s", resp["status"])
	}
	if resp["catalog"] != "disabled" {
		t.Errorf("expected catalog disabled without a store, got %s", resp["catalog"])
	}
}

func TestReadyz(t *testing.T) {
	t.Run("ready with a dataset", func(t *testing.T) {
		srv := newTestServer(t, writeDashboardDataset(t), nil)

		rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp map[string]string
		decodeJSON(t, rr, &resp)
		if resp["status"] != "ready" {
			t.Errorf("expected ready, got %s", resp["status"])
		}
		if !strings.HasSuffix(resp["dataset"], dataset.SampleFileName) {
			t.Errorf("expected the resolved dataset path, got %s", resp["dataset"])
		}
	})

	t.Run("not ready without a dataset", func(t *testing.T) {
		srv := newTestServer(t, t.TempDir(), nil)

		rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d: %s", rr.Code, rr.Body.String())
		}
	})
}

func TestMissingDataset_ViewEndpoints(t *testing.T) {
	srv := newTestServer(t, t.TempDir(), nil)

	for _, path := range []string{"/api/v1/overview", "/api/v1/sample.csv", "/dashboard", "/charts/years.png"} {
		rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, path, nil))

		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected 503, got %d", path, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "dataset not available") {
			t.Errorf("%s: unexpected body %s", path, rr.Body.String())
		}
	}
}
