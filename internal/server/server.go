// Package server exposes the solver tools and the growth derivations
// over HTTP.
//
//	POST /tool         execute a tool call
//	GET  /schema       tool schema for agent registration
//	GET  /health       liveness check
//	GET  /derivations  growth derivations (JSON, or YAML with ?format=yaml)
//	GET  /metrics      Prometheus metrics
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/njchilds90/symsolve"
	"github.com/njchilds90/symsolve/growth"
)

const defaultMaxBodyBytes = 1 << 20 // 1 MiB

type Server struct {
	solver       *symsolve.Solver
	logger       *zap.Logger
	metrics      *Metrics
	reference    growth.Reference
	maxBodyBytes int64
}

type Option func(*Server)

func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

func WithReference(ref growth.Reference) Option {
	return func(s *Server) { s.reference = ref }
}

func New(solver *symsolve.Solver, logger *zap.Logger, metrics *Metrics, opts ...Option) *Server {
	s := &Server{
		solver:       solver,
		logger:       logger,
		metrics:      metrics,
		reference:    growth.DefaultReference(),
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger, s.metrics))

	r.Post("/tool", s.handleTool)
	r.Get("/schema", s.handleSchema)
	r.Get("/health", s.handleHealth)
	r.Get("/derivations", s.handleDerivations)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req symsolve.ToolRequest
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if dec.More() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: trailing data"})
		return
	}
	if req.ID == "" {
		req.ID = middleware.GetReqID(r.Context())
	}

	start := time.Now()
	resp := s.solver.HandleToolCall(req)
	s.metrics.ToolDuration.WithLabelValues(req.Tool).Observe(time.Since(start).Seconds())

	outcome := "ok"
	if resp.Error != "" {
		outcome = "error"
		s.logger.Debug("tool call failed",
			zap.String("tool", req.Tool),
			zap.String("id", resp.ID),
			zap.String("error", resp.Error),
		)
	}
	s.metrics.ToolCalls.WithLabelValues(req.Tool, outcome).Inc()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSchema(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, symsolve.MCPToolSpec())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// derivationReport is the body of GET /derivations.
type derivationReport struct {
	Reference   growth.Reference     `json:"reference" yaml:"reference"`
	Derivations []*growth.Derivation `json:"derivations" yaml:"derivations"`
}

func (s *Server) handleDerivations(w http.ResponseWriter, r *http.Request) {
	s.metrics.Derivations.Inc()
	ds, err := growth.Run(r.Context(), s.solver, s.reference)
	if err != nil {
		s.logger.Error("derivations failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	report := derivationReport{Reference: s.reference, Derivations: ds}

	switch r.URL.Query().Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, report)
	case "yaml":
		out, err := yaml.Marshal(report)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(out)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "format must be json or yaml"})
	}
}
