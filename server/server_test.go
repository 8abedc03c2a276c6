package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seo-compare/engine/baseline"
	"github.com/seo-compare/engine/compare"
	"github.com/seo-compare/engine/config"
	"github.com/seo-compare/engine/fetch"
	"github.com/seo-compare/engine/pipeline"
	"github.com/seo-compare/engine/schema"
	"github.com/seo-compare/engine/stats"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubNarrator struct{}

func (stubNarrator) Narrate(context.Context, *compare.Result) string {
	return "stub narrative"
}

func page(title, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en"><head><title>%s | Acme Life</title>
<meta name="description" content="Term plans, savings plans and claim support from a trusted insurer with decades of experience.">
</head><body><h1>%s</h1>%s</body></html>`, title, title, body)
}

func testSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, page("Insurance Plans", `<p>Protect what matters.</p><a href="/products">Products</a> <a href="/claims">Claims</a>`))
	})
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page("Products", `<p>Term insurance and savings products for every stage of life.</p>`))
	})
	mux.HandleFunc("/claims", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page("Claims", `<p>File a claim online in minutes.</p>`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baselineURL, dataDir string) *config.Config {
	return &config.Config{
		Port:            "0",
		AllowedOrigins:  "*",
		DataDir:         dataDir,
		BaselineURL:     baselineURL,
		MaxDepth:        2,
		MaxPages:        10,
		Concurrency:     2,
		PageTimeout:     5 * time.Second,
		PipelineTimeout: 30 * time.Second,
		CacheTTL:        time.Minute,
		FetchMode:       config.FetchModeHTTP,
		RateLimitPerMin: 6000,
		RateLimitBurst:  1000,
		Keywords:        []string{"insurance"},
	}
}

func buildServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	store, err := baseline.NewStore(cfg.DataDir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	usage, err := stats.NewStorage(cfg.DataDir)
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	pipe := pipeline.New(cfg, fetch.NewClient(cfg.PageTimeout), store, stubNarrator{}, usage)
	return New(cfg, pipe, store, usage)
}

func newTestServer(t *testing.T, baselineURL string) *Server {
	t.Helper()
	return buildServer(t, testConfig(baselineURL, t.TempDir()))
}

func perform(h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	h.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad JSON response %q: %v", w.Body.String(), err)
	}
	return out
}

func extractBaseline(t *testing.T, s *Server) {
	t.Helper()
	w := perform(s.Handler(), http.MethodPost, "/api/baseline/extract", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("extract baseline: status %d, body %s", w.Code, w.Body.String())
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "https://unused.test/")

	w := perform(s.Handler(), http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeJSON(t, w)
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
	if body["baseline_loaded"] != false {
		t.Errorf("baseline_loaded = %v, want false", body["baseline_loaded"])
	}
}

func TestBaselineLifecycle(t *testing.T) {
	site := testSite(t)
	s := newTestServer(t, site.URL+"/")

	t.Run("missing", func(t *testing.T) {
		w := perform(s.Handler(), http.MethodGet, "/api/baseline", nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), "Baseline not computed") {
			t.Errorf("body = %s", w.Body.String())
		}
	})

	t.Run("extract", func(t *testing.T) {
		w := perform(s.Handler(), http.MethodPost, "/api/baseline/extract", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		body := decodeJSON(t, w)
		if body["status"] != "success" {
			t.Errorf("status field = %v", body["status"])
		}
		if body["path"] == "" {
			t.Error("path is empty")
		}
	})

	t.Run("fetch", func(t *testing.T) {
		w := perform(s.Handler(), http.MethodGet, "/api/baseline", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		body := decodeJSON(t, w)
		if body["url"] != site.URL+"/" {
			t.Errorf("url = %v", body["url"])
		}
		if body["schema_version"] != schema.Version {
			t.Errorf("schema_version = %v", body["schema_version"])
		}
		params, ok := body["parameters"].([]any)
		if !ok || len(params) != len(schema.Load().Params()) {
			t.Errorf("parameters count = %d, want %d", len(params), len(schema.Load().Params()))
		}
	})

	t.Run("health reflects baseline", func(t *testing.T) {
		w := perform(s.Handler(), http.MethodGet, "/api/health", nil)
		if body := decodeJSON(t, w); body["baseline_loaded"] != true {
			t.Errorf("baseline_loaded = %v, want true", body["baseline_loaded"])
		}
	})
}

func TestCompareEndpoint(t *testing.T) {
	base := testSite(t)
	comp := testSite(t)
	s := newTestServer(t, base.URL+"/")
	extractBaseline(t, s)

	scorePattern := regexp.MustCompile(`^\d{1,3}/100$`)

	w := perform(s.Handler(), http.MethodGet, "/api/compare?competitor_url="+comp.URL, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	body := decodeJSON(t, w)

	for _, field := range []string{"overall_score", "competitor_score"} {
		score, _ := body[field].(string)
		if !scorePattern.MatchString(score) {
			t.Errorf("%s = %q, want NN/100", field, score)
		}
	}
	if gaps, _ := body["gaps"].(string); gaps == "" {
		t.Error("gaps missing or not a string")
	}
	details, _ := body["details"].([]any)
	if len(details) != len(schema.Load().Params()) {
		t.Errorf("details count = %d, want %d", len(details), len(schema.Load().Params()))
	}
	if body["ai_analysis"] != "stub narrative" {
		t.Errorf("ai_analysis = %v", body["ai_analysis"])
	}
	if body["run_id"] == "" || body["run_id"] == nil {
		t.Error("run_id missing")
	}
	if body["baseline_url"] != base.URL+"/" || body["competitor_url"] != comp.URL+"/" {
		t.Errorf("urls = %v vs %v", body["baseline_url"], body["competitor_url"])
	}

	t.Run("post body", func(t *testing.T) {
		payload := strings.NewReader(fmt.Sprintf(`{"competitor_url": %q}`, comp.URL))
		w := perform(s.Handler(), http.MethodPost, "/api/compare", payload)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		if body := decodeJSON(t, w); body["competitor_url"] != comp.URL+"/" {
			t.Errorf("competitor_url = %v", body["competitor_url"])
		}
	})
}

func TestCompareValidation(t *testing.T) {
	s := newTestServer(t, "https://unused.test/")

	for name, target := range map[string]string{
		"missing":    "/api/compare",
		"bad scheme": "/api/compare?competitor_url=ftp://files.test",
	} {
		t.Run(name, func(t *testing.T) {
			w := perform(s.Handler(), http.MethodGet, target, nil)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestCompareWithoutBaseline(t *testing.T) {
	comp := testSite(t)
	s := newTestServer(t, "https://unused.test/")

	w := perform(s.Handler(), http.MethodGet, "/api/compare?competitor_url="+comp.URL, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestCompareUnreachable(t *testing.T) {
	base := testSite(t)
	s := newTestServer(t, base.URL+"/")
	extractBaseline(t, s)

	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	w := perform(s.Handler(), http.MethodGet, "/api/compare?competitor_url="+deadURL, nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502, body %s", w.Code, w.Body.String())
	}
}

func TestExtractCompetitorEndpoint(t *testing.T) {
	site := testSite(t)
	s := newTestServer(t, "https://unused.test/")

	w := perform(s.Handler(), http.MethodPost, "/api/extract/competitor?url="+site.URL+"/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	body := decodeJSON(t, w)
	if body["status"] != "success" {
		t.Errorf("status field = %v", body["status"])
	}
	path, _ := body["path"].(string)
	if !strings.HasSuffix(path, "_seo.json") {
		t.Errorf("snapshot path = %q, want a *_seo.json file", path)
	}
	res, ok := body["result"].(map[string]any)
	if !ok {
		t.Fatalf("result missing from %v", body)
	}
	if res["schema_version"] != schema.Version {
		t.Errorf("schema_version = %v", res["schema_version"])
	}
	if n, _ := res["pages_crawled"].(float64); n < 1 {
		t.Errorf("pages_crawled = %v, want at least the root page", res["pages_crawled"])
	}
}

func parseStream(t *testing.T, body string) []map[string]any {
	t.Helper()
	var events []map[string]any
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		var ev map[string]any
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			t.Fatalf("bad event %q: %v", payload, err)
		}
		events = append(events, ev)
	}
	return events
}

func TestCompareStream(t *testing.T) {
	base := testSite(t)
	comp := testSite(t)
	s := newTestServer(t, base.URL+"/")
	extractBaseline(t, s)

	w := perform(s.Handler(), http.MethodGet, "/api/compare/stream?competitor_url="+comp.URL, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("Content-Type = %q", ct)
	}

	events := parseStream(t, w.Body.String())
	if len(events) == 0 {
		t.Fatal("no events in stream")
	}
	if events[0]["type"] != "status" || events[0]["message"] != "Initializing crawler..." {
		t.Errorf("first event = %v", events[0])
	}

	var statuses, logs, terminals int
	for _, ev := range events {
		switch ev["type"] {
		case "status":
			statuses++
		case "log":
			logs++
			if status, _ := ev["status"].(float64); ev["url"] == "" || status != 200 {
				t.Errorf("log event = %v", ev)
			}
		case "result", "error":
			terminals++
		}
	}
	if statuses < 4 {
		t.Errorf("status events = %d, want at least 4", statuses)
	}
	if logs != 3 {
		t.Errorf("log events = %d, want 3", logs)
	}
	if terminals != 1 {
		t.Fatalf("terminal events = %d, want exactly 1", terminals)
	}

	last := events[len(events)-1]
	if last["type"] != "result" {
		t.Fatalf("last event type = %v, want result", last["type"])
	}
	data, ok := last["data"].(map[string]any)
	if !ok {
		t.Fatal("result event has no data object")
	}
	if data["ai_analysis"] != "stub narrative" || data["run_id"] == "" {
		t.Errorf("result data = %v", data)
	}
}

func TestStreamErrorEvent(t *testing.T) {
	comp := testSite(t)
	s := newTestServer(t, "https://unused.test/")

	w := perform(s.Handler(), http.MethodGet, "/api/compare/stream?competitor_url="+comp.URL, nil)
	events := parseStream(t, w.Body.String())
	if len(events) != 1 {
		t.Fatalf("events = %d, want exactly 1", len(events))
	}
	ev := events[0]
	if ev["type"] != "error" || ev["kind"] != "internal" {
		t.Errorf("event = %v", ev)
	}
	if msg, _ := ev["message"].(string); !strings.Contains(msg, "baseline not computed") {
		t.Errorf("message = %q", msg)
	}
}

func TestStreamBadURL(t *testing.T) {
	s := newTestServer(t, "https://unused.test/")

	w := perform(s.Handler(), http.MethodGet, "/api/compare/stream", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestRateLimitApplied(t *testing.T) {
	cfg := testConfig("https://unused.test/", t.TempDir())
	cfg.RateLimitPerMin = 1
	cfg.RateLimitBurst = 1
	s := buildServer(t, cfg)

	if w := perform(s.Handler(), http.MethodGet, "/api/health", nil); w.Code != http.StatusOK {
		t.Fatalf("first request status = %d", w.Code)
	}
	if w := perform(s.Handler(), http.MethodGet, "/api/health", nil); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", w.Code)
	}
}

func TestCORSApplied(t *testing.T) {
	s := newTestServer(t, "https://unused.test/")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/health", nil)
	req.Header.Set("Origin", "https://app.example.com")
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestStatisticsEndpoint(t *testing.T) {
	base := testSite(t)
	comp := testSite(t)
	s := newTestServer(t, base.URL+"/")
	extractBaseline(t, s)
	perform(s.Handler(), http.MethodGet, "/api/compare?competitor_url="+comp.URL, nil)

	w := perform(s.Handler(), http.MethodGet, "/api/statistics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeJSON(t, w)
	current, ok := body["current"].(map[string]any)
	if !ok {
		t.Fatalf("no current block in %v", body)
	}
	if n, _ := current["comparisons"].(float64); n < 1 {
		t.Errorf("comparisons = %v, want at least 1", current["comparisons"])
	}
	if n, _ := current["extractions"].(float64); n < 1 {
		t.Errorf("extractions = %v, want at least 1", current["extractions"])
	}
}
