package health

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	insighterrors "github.com/kubeadapt/resource-insight/internal/errors"
	"github.com/kubeadapt/resource-insight/internal/observability"
)

type mockReadiness struct {
	ready bool
}

func (m *mockReadiness) IsReady() bool { return m.ready }

type mockReports struct {
	report any
}

func (m *mockReports) LatestReport() any { return m.report }

type mockStores struct {
	counts  map[string]int
	updated map[string]time.Time
	errs    map[string]string
}

func (m *mockStores) ItemCounts() map[string]int             { return m.counts }
func (m *mockStores) LastUpdatedTimes() map[string]time.Time { return m.updated }
func (m *mockStores) Errors() map[string]string              { return m.errs }

type staticClock struct{ now time.Time }

func (c staticClock) Now() time.Time { return c.now }

func newTestServer(ready, debug bool) *Server {
	collector := insighterrors.NewCollector(staticClock{now: time.Now()})
	collector.Report(insighterrors.APIError{
		Kind:      insighterrors.KindServer,
		Code:      insighterrors.ErrHTTPStatus,
		Message:   "server error",
		Status:    500,
		Component: "clusters.list",
	})
	return NewServer(Options{
		Metrics:   observability.NewMetrics(),
		Readiness: &mockReadiness{ready: ready},
		Reports:   &mockReports{report: map[string]any{"members": []string{"clusters"}}},
		Stores: &mockStores{
			counts:  map[string]int{"clusters": 3, "alerts": 12},
			updated: map[string]time.Time{"clusters": time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)},
			errs:    map[string]string{"stats": "network unreachable"},
		},
		Errors: collector,
		Debug:  debug,
	})
}

func get(t *testing.T, srv *Server, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w.Result()
}

func TestHealthz(t *testing.T) {
	resp := get(t, newTestServer(false, false), "/healthz")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if result["status"] != "ok" {
		t.Fatalf("expected status=ok, got %s", result["status"])
	}
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		ready bool
		code  int
	}{
		{true, http.StatusOK},
		{false, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		resp := get(t, newTestServer(tt.ready, false), "/readyz")
		if resp.StatusCode != tt.code {
			t.Fatalf("ready=%v: expected %d, got %d", tt.ready, tt.code, resp.StatusCode)
		}
		var result map[string]bool
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		resp.Body.Close()
		if result["ready"] != tt.ready {
			t.Fatalf("expected ready=%v", tt.ready)
		}
	}
}

func TestMetrics(t *testing.T) {
	resp := get(t, newTestServer(true, false), "/metrics")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "resource_insight_") {
		t.Fatal("expected Prometheus metrics with the resource_insight_ prefix")
	}
}

func TestDebugState(t *testing.T) {
	resp := get(t, newTestServer(true, true), "/debug/state")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var st debugState
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if st.Items["alerts"] != 12 {
		t.Fatalf("expected alerts=12, got %d", st.Items["alerts"])
	}
	if st.Errors["stats"] != "network unreachable" {
		t.Fatalf("unexpected errors: %v", st.Errors)
	}
	if st.LastUpdated["clusters"].IsZero() {
		t.Fatal("expected clusters last_updated")
	}
	if st.Report == nil {
		t.Fatal("expected latest report")
	}
}

func TestDebugErrors(t *testing.T) {
	resp := get(t, newTestServer(true, true), "/debug/errors")
	defer resp.Body.Close()

	var active []insighterrors.ActiveError
	if err := json.NewDecoder(resp.Body).Decode(&active); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(active) != 1 || active[0].Component != "clusters.list" {
		t.Fatalf("unexpected active errors: %+v", active)
	}
}

func TestDebugEndpointsDisabled(t *testing.T) {
	srv := newTestServer(true, false)
	for _, path := range []string{"/debug/state", "/debug/errors", "/debug/pprof/"} {
		resp := get(t, srv, path)
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404 for %s when debug disabled, got %d", path, resp.StatusCode)
		}
	}
}

func TestServerStartStop(t *testing.T) {
	srv := newTestServer(true, false)
	if err := srv.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("failed to reach server: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		t.Fatalf("failed to stop server: %v", err)
	}
}
