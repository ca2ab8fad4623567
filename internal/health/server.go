// Package health serves the console's liveness, readiness, metrics and debug
// endpoints.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	insighterrors "github.com/kubeadapt/resource-insight/internal/errors"
	"github.com/kubeadapt/resource-insight/internal/observability"
)

// ReadinessChecker reports whether the console has completed a refresh.
type ReadinessChecker interface {
	IsReady() bool
}

// ReportProvider returns the latest refresh report for debugging.
type ReportProvider interface {
	LatestReport() any
}

// StoreStats summarizes store contents for debugging.
type StoreStats interface {
	ItemCounts() map[string]int
	LastUpdatedTimes() map[string]time.Time
	Errors() map[string]string
}

// ErrorSource lists the recently reported client errors.
type ErrorSource interface {
	Active() []insighterrors.ActiveError
}

// Options wires the server's collaborators. Readiness is required; the debug
// sources are only consulted when Debug is set.
type Options struct {
	Port      int // 0 picks a free port
	Metrics   *observability.Metrics
	Readiness ReadinessChecker
	Reports   ReportProvider
	Stores    StoreStats
	Errors    ErrorSource
	Debug     bool
}

// Server exposes health, readiness, metrics, and debug endpoints.
type Server struct {
	httpServer *http.Server
	opts       Options
	listener   net.Listener
}

// NewServer creates a health server. Debug enables pprof and the /debug
// endpoints.
func NewServer(opts Options) *Server {
	s := &Server{opts: opts}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	if opts.Debug {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

		mux.HandleFunc("GET /debug/state", s.handleDebugState)
		mux.HandleFunc("GET /debug/errors", s.handleDebugErrors)
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	return s
}

// Handler returns the server's routes, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Addr is the listen address, resolved after Start.
func (s *Server) Addr() string { return s.httpServer.Addr }

// Start begins listening and serving HTTP in a background goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("health server listen: %w", err)
	}
	s.listener = ln
	s.httpServer.Addr = ln.Addr().String()

	go func() {
		_ = s.httpServer.Serve(ln)
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	ready := s.opts.Readiness != nil && s.opts.Readiness.IsReady()
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]bool{"ready": ready})
}

type debugState struct {
	Items       map[string]int       `json:"items,omitempty"`
	LastUpdated map[string]time.Time `json:"last_updated,omitempty"`
	Errors      map[string]string    `json:"errors,omitempty"`
	Report      any                  `json:"report,omitempty"`
}

func (s *Server) handleDebugState(w http.ResponseWriter, _ *http.Request) {
	var st debugState
	if s.opts.Stores != nil {
		st.Items = s.opts.Stores.ItemCounts()
		st.LastUpdated = s.opts.Stores.LastUpdatedTimes()
		st.Errors = s.opts.Stores.Errors()
	}
	if s.opts.Reports != nil {
		st.Report = s.opts.Reports.LatestReport()
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleDebugErrors(w http.ResponseWriter, _ *http.Request) {
	active := []insighterrors.ActiveError{}
	if s.opts.Errors != nil {
		active = s.opts.Errors.Active()
	}
	writeJSON(w, http.StatusOK, active)
}
