package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/revisionplanner/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Environment:       "development",
		HTTPBind:          "127.0.0.1",
		HTTPPort:          8080,
		MetricsBind:       "127.0.0.1:0",
		Timezone:          "UTC",
		RecipesBaseURL:    "http://127.0.0.1:1",
		RecipesTimeout:    time.Second,
		TracingSampleRate: 1,
		Planner:           config.DefaultPlanner(),
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate config: %v", err)
	}
	return cfg
}

func TestNewServesAPIThroughMiddleware(t *testing.T) {
	srv, err := New(testConfig(t), zerolog.Nop())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if srv.HTTPServer().Addr != "127.0.0.1:8080" {
		t.Fatalf("addr = %q", srv.HTTPServer().Addr)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("security headers missing")
	}

	rec = httptest.NewRecorder()
	body := bytes.NewBufferString(`{"topics":["Intro"]}`)
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/plans", body))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "(Découverte) Intro") {
		t.Fatalf("plan = %d %s", rec.Code, rec.Body.String())
	}
}

func TestMetricsServerExposesPrometheus(t *testing.T) {
	srv, err := New(testConfig(t), zerolog.Nop())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if srv.MetricsServer() == nil {
		t.Fatal("metrics server should be configured")
	}

	// Drive one request so request metrics exist.
	srv.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := httptest.NewRecorder()
	srv.MetricsServer().Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "revisionplanner_api_requests_total") {
		t.Fatal("metrics output missing revisionplanner_api_requests_total")
	}
}

func TestMetricsServerDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.MetricsBind = ""
	srv, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if srv.MetricsServer() != nil {
		t.Fatal("metrics server should be nil when no bind is set")
	}
}
