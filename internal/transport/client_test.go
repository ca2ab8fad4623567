package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kubeadapt/resource-insight/internal/config"
	insighterrors "github.com/kubeadapt/resource-insight/internal/errors"
	"github.com/kubeadapt/resource-insight/internal/observability"
)

func testConfig(serverURL string) *config.Config {
	return &config.Config{
		BaseURL:        serverURL + "/api/v1",
		MaxRetries:     0,
		RequestTimeout: 10 * time.Second,
	}
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) NotifyError(_, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *observability.Metrics, *insighterrors.Collector, *recordingNotifier) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	metrics := observability.NewMetrics()
	collector := insighterrors.NewCollector(insighterrors.RealClock{})
	notifier := &recordingNotifier{}
	c := NewClient(testConfig(srv.URL), metrics, collector, WithNotifier(notifier))
	return c, metrics, collector, notifier
}

func requireAPIError(t *testing.T, err error) *insighterrors.APIError {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	ae, ok := insighterrors.As(err)
	if !ok {
		t.Fatalf("expected *errors.APIError, got %T: %v", err, err)
	}
	return ae
}

func TestClient_Do_Success(t *testing.T) {
	var gotPath, gotQuery, gotBody, gotContentType string
	c, metrics, _, notifier := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotContentType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Write([]byte(`{"code":0,"msg":"ok","data":{"data":[1,2]}}`))
	})

	resp, err := c.Do(context.Background(), Request{
		Method:   http.MethodPost,
		Path:     "/clusters/test",
		Query:    url.Values{"page": {"2"}, "cluster": {""}},
		Body:     map[string]string{"cluster_name": "prod"},
		Endpoint: "clusters.test",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/api/v1/clusters/test" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "page=2" {
		t.Errorf("query = %q, empty values must be dropped", gotQuery)
	}
	if gotBody != `{"cluster_name":"prod"}` {
		t.Errorf("body = %q", gotBody)
	}
	if gotContentType != "application/json" {
		t.Errorf("content type = %q", gotContentType)
	}
	if resp.Envelope.Code == nil || *resp.Envelope.Code != 0 {
		t.Errorf("envelope code = %v", resp.Envelope.Code)
	}
	if string(resp.Envelope.Data) != `{"data":[1,2]}` {
		t.Errorf("envelope data = %s", resp.Envelope.Data)
	}
	if got := testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("clusters.test", observability.OutcomeSuccess)); got != 1 {
		t.Errorf("success counter = %v, want 1", got)
	}
	if len(notifier.all()) != 0 {
		t.Errorf("notifier must stay silent on success: %v", notifier.all())
	}
}

func TestClient_Do_NonSuccessEnvelope(t *testing.T) {
	c, _, collector, notifier := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":7,"msg":"cluster name already exists","data":{}}`))
	})

	_, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/clusters", Endpoint: "clusters.create"})
	ae := requireAPIError(t, err)

	if ae.Kind != insighterrors.KindServer || ae.Code != insighterrors.ErrEnvelope {
		t.Fatalf("unexpected kind/code: %s/%s", ae.Kind, ae.Code)
	}
	if ae.Message != "cluster name already exists" {
		t.Fatalf("message = %q", ae.Message)
	}
	if msgs := notifier.all(); len(msgs) != 1 || msgs[0] != "cluster name already exists" {
		t.Fatalf("notifier messages = %v", msgs)
	}
	if active := collector.Active(); len(active) != 1 || active[0].Component != "clusters.create" {
		t.Fatalf("collector = %+v", active)
	}
}

func TestClient_Do_MissingCodeIsSuccess(t *testing.T) {
	c, _, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"status":"healthy"}}`))
	})

	resp, err := c.Do(context.Background(), Request{Path: "/health"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Envelope.Code != nil {
		t.Fatalf("expected nil code, got %d", *resp.Envelope.Code)
	}
}

func TestClient_Do_StatusMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"error field first", 400, `{"error":"bad id","msg":"m","message":"x"}`, "bad id"},
		{"msg before message", 500, `{"msg":"db down","message":"x"}`, "db down"},
		{"message last", 404, `{"message":"cluster missing"}`, "cluster missing"},
		{"400 fallback", 400, ``, "bad request"},
		{"401 fallback", 401, `{}`, "unauthorized"},
		{"403 fallback", 403, `not json`, "forbidden"},
		{"404 fallback", 404, ``, "not found"},
		{"500 fallback", 500, ``, "internal server error"},
		{"other fallback", 418, ``, "request failed (HTTP 418)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.Do(context.Background(), Request{Path: "/clusters/1"})
			ae := requireAPIError(t, err)
			if ae.Kind != insighterrors.KindServer {
				t.Fatalf("kind = %s, want server", ae.Kind)
			}
			if ae.Status != tt.status {
				t.Fatalf("status = %d, want %d", ae.Status, tt.status)
			}
			if ae.Message != tt.want {
				t.Fatalf("message = %q, want %q", ae.Message, tt.want)
			}
		})
	}
}

func TestClient_Do_NetworkUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	metrics := observability.NewMetrics()
	c := NewClient(testConfig(baseURL), metrics, nil)

	_, err := c.Do(context.Background(), Request{Path: "/stats", Endpoint: "stats.get"})
	ae := requireAPIError(t, err)

	if ae.Kind != insighterrors.KindTransport || ae.Code != insighterrors.ErrNetworkUnreachable {
		t.Fatalf("unexpected kind/code: %s/%s", ae.Kind, ae.Code)
	}
	if ae.Message != insighterrors.NetworkUnreachable {
		t.Fatalf("message = %q", ae.Message)
	}
	if got := testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("stats.get", observability.OutcomeTransport)); got != 1 {
		t.Fatalf("transport error counter = %v, want 1", got)
	}
}

func TestClient_Do_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	cfg := testConfig(srv.URL)
	cfg.RequestTimeout = 50 * time.Millisecond
	c := NewClient(cfg, nil, nil)

	_, err := c.Do(context.Background(), Request{Path: "/analysis"})
	ae := requireAPIError(t, err)
	if ae.Kind != insighterrors.KindTransport || ae.Message != insighterrors.NetworkUnreachable {
		t.Fatalf("unexpected error: %+v", ae)
	}
}

func TestClient_Do_RequestConstructionFailure(t *testing.T) {
	var called bool
	c, _, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/clusters", Body: make(chan int)})
	ae := requireAPIError(t, err)

	if ae.Kind != insighterrors.KindTransport || ae.Code != insighterrors.ErrRequestInvalid {
		t.Fatalf("unexpected kind/code: %s/%s", ae.Kind, ae.Code)
	}
	if !strings.Contains(ae.Message, "unsupported type") {
		t.Fatalf("expected the underlying message, got %q", ae.Message)
	}
	if called {
		t.Fatal("a request that could not be built must not reach the server")
	}
}

func TestClient_Do_CompressedResponses(t *testing.T) {
	payload := []byte(`{"code":0,"data":{"total_clusters":3}}`)

	var zstdBody bytes.Buffer
	zw, err := zstd.NewWriter(&zstdBody)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	zw.Write(payload)
	zw.Close()

	var gzipBody bytes.Buffer
	gw := gzip.NewWriter(&gzipBody)
	gw.Write(payload)
	gw.Close()

	for _, tc := range []struct {
		encoding string
		body     []byte
	}{
		{"zstd", zstdBody.Bytes()},
		{"gzip", gzipBody.Bytes()},
	} {
		t.Run(tc.encoding, func(t *testing.T) {
			c, _, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if !strings.Contains(r.Header.Get("Accept-Encoding"), tc.encoding) {
					t.Errorf("Accept-Encoding = %q", r.Header.Get("Accept-Encoding"))
				}
				w.Header().Set("Content-Encoding", tc.encoding)
				w.Write(tc.body)
			})

			resp, err := c.Do(context.Background(), Request{Path: "/stats"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(resp.Body, payload) {
				t.Fatalf("body = %s", resp.Body)
			}
			var stats struct {
				TotalClusters int `json:"total_clusters"`
			}
			if err := json.Unmarshal(resp.Envelope.Data, &stats); err != nil || stats.TotalClusters != 3 {
				t.Fatalf("decoded data = %s (%v)", resp.Envelope.Data, err)
			}
		})
	}
}

func TestClient_Do_SendsBearerWhenConfigured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		if r.Header.Get(RequestIDHeader) == "" {
			t.Error("missing request id")
		}
		w.Write([]byte(`{"code":0,"data":{}}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.APIToken = "tok"
	c := NewClient(cfg, nil, nil)
	if _, err := c.Do(context.Background(), Request{Path: "stats"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
