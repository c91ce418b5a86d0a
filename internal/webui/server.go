// Package webui serves the JSON report API: job status, pass reports
// in the formatter views, suggestions and batch outcomes.
package webui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/resopt/internal/formatter"
	"github.com/resopt/internal/repository"
	"github.com/resopt/internal/storage"
	"github.com/resopt/pkg/utils"
)

// StatsProvider supplies runtime statistics for /api/stats.
type StatsProvider func() interface{}

// Server is the report API server.
type Server struct {
	repos      *repository.Repositories
	reportSvc  *ReportService
	formatters *formatter.Registry
	logger     utils.Logger
	port       int
	server     *http.Server
	statsFn    StatsProvider
}

// NewServer creates a report API server.
func NewServer(repos *repository.Repositories, store storage.Storage, port int, logger utils.Logger) *Server {
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	return &Server{
		repos:      repos,
		reportSvc:  NewReportService(reposReport(repos), store),
		formatters: formatter.NewRegistry(),
		logger:     logger,
		port:       port,
	}
}

func reposReport(repos *repository.Repositories) repository.ReportRepository {
	if repos == nil {
		return nil
	}
	return repos.Report
}

// SetStatsProvider wires the scheduler statistics into /api/stats.
func (s *Server) SetStatsProvider(fn StatsProvider) {
	s.statsFn = fn
}

// Start starts the API server. It blocks until the server exits.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Info("Starting report API at http://localhost:%d", s.port)

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler builds the API route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/jobs", s.handleJob)
	mux.HandleFunc("/api/report", s.handleReport)
	mux.HandleFunc("/api/suggestions", s.handleSuggestions)
	mux.HandleFunc("/api/batch", s.handleBatch)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/health", s.handleHealth)

	return mux
}

// handleJob returns the status of one job by jid.
func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	jid := r.URL.Query().Get("jid")
	if jid == "" {
		s.sendError(w, http.StatusBadRequest, "jid is required")
		return
	}
	if s.repos == nil {
		s.sendError(w, http.StatusServiceUnavailable, "no database configured")
		return
	}

	job, err := s.repos.Job.GetJobByUUID(r.Context(), jid)
	if err != nil {
		s.sendError(w, http.StatusNotFound, "job not found")
		return
	}

	s.sendJSON(w, map[string]interface{}{
		"jid":          job.JobUUID,
		"status":       job.Status.String(),
		"remap_status": job.RemapStatus.String(),
		"status_info":  job.StatusInfo,
		"dump_key":     job.DumpKey,
		"output_key":   job.OutputKey,
		"create_time":  job.CreateTime,
		"begin_time":   job.BeginTime,
		"end_time":     job.EndTime,
	})
}

// handleReport returns the pass report for a job, rendered through
// the formatter view requested by ?view= (summary by default).
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	jid := r.URL.Query().Get("jid")
	if jid == "" {
		s.sendError(w, http.StatusBadRequest, "jid is required")
		return
	}

	report, err := s.reportSvc.Get(r.Context(), jid)
	if err != nil {
		s.sendError(w, http.StatusNotFound, "report not found")
		return
	}

	view := r.URL.Query().Get("view")
	if view == "full" {
		s.sendJSON(w, report)
		return
	}

	s.sendJSON(w, map[string]interface{}{
		"jid":     jid,
		"view":    s.formatters.Get(view).Views()[0],
		"summary": s.formatters.FormatSummary(view, report),
	})
}

// handleSuggestions returns the advisor suggestions for a job.
func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	jid := r.URL.Query().Get("jid")
	if jid == "" {
		s.sendError(w, http.StatusBadRequest, "jid is required")
		return
	}
	if s.repos == nil {
		s.sendError(w, http.StatusServiceUnavailable, "no database configured")
		return
	}

	suggestions, err := s.repos.Suggestion.GetSuggestionsByJobUUID(r.Context(), jid)
	if err != nil {
		s.sendError(w, http.StatusInternalServerError, "failed to load suggestions")
		return
	}

	s.sendJSON(w, map[string]interface{}{
		"jid":         jid,
		"count":       len(suggestions),
		"suggestions": suggestions,
	})
}

// handleBatch returns the outcome digest of a submission batch.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	batchUUID := r.URL.Query().Get("batch")
	if batchUUID == "" {
		s.sendError(w, http.StatusBadRequest, "batch is required")
		return
	}
	if s.repos == nil {
		s.sendError(w, http.StatusServiceUnavailable, "no database configured")
		return
	}

	batch, err := s.repos.Batch.GetBatch(r.Context(), batchUUID)
	if err != nil {
		s.sendError(w, http.StatusNotFound, "batch not found")
		return
	}

	s.sendJSON(w, batch)
}

// handleStats returns scheduler statistics when wired.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.statsFn == nil {
		s.sendJSON(w, map[string]interface{}{"available": false})
		return
	}
	s.sendJSON(w, s.statsFn())
}

// handleHealth probes the database.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK

	if s.repos != nil {
		if err := s.repos.HealthCheck(r.Context()); err != nil {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
			s.logger.Warn("Health check failed: %v", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *Server) sendJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to encode response: %v", err)
	}
}

func (s *Server) sendError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
