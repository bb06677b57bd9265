package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status is the aggregate service condition.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusCritical Status = "critical"
)

// Report is the detailed health payload.
type Report struct {
	Status       Status `json:"status"`
	CircuitState string `json:"circuit_state"`
	SessionPhase string `json:"session_phase"`
	CacheSize    int    `json:"cache_size"`
	QueueDepth   int    `json:"queue_depth"`
	HasError     bool   `json:"has_error"`
}

// Reporter produces the current health report.
type Reporter interface {
	HealthReport() Report
}

// Server provides HTTP endpoints for health monitoring.
type Server struct {
	reporter Reporter
	server   *http.Server
}

// NewServer creates a new health server.
func NewServer(reporter Reporter, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		reporter: reporter,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/detailed", s.handleDetailed)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.reporter.HealthReport()

	response := map[string]string{"status": string(report.Status)}
	w.Header().Set("Content-Type", "application/json")

	if report.Status == StatusCritical {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	report := s.reporter.HealthReport()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
