package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/resopt/pkg/model"
	"github.com/resopt/pkg/utils"
)

// SourceTypeHTTP is the source type constant for the HTTP source.
const SourceTypeHTTP SourceType = "http"

func init() {
	Register(SourceTypeHTTP, NewHTTPSource)
}

// HTTPOptions holds HTTP source specific configuration.
type HTTPOptions struct {
	// ListenAddr is the address to listen on (e.g. ":8081").
	ListenAddr string

	// Path is the HTTP path that accepts job submissions.
	Path string

	// ReadTimeout bounds reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout bounds writing the response.
	WriteTimeout time.Duration

	// MaxBodySize is the maximum request body size in bytes.
	MaxBodySize int64
}

// DefaultHTTPOptions returns the default options.
func DefaultHTTPOptions() *HTTPOptions {
	return &HTTPOptions{
		ListenAddr:   ":8081",
		Path:         "/jobs",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		MaxBodySize:  1 << 20, // 1MB
	}
}

// HTTPJobRequest is an incoming job submission.
type HTTPJobRequest struct {
	Job      *model.Job        `json:"job"`
	Priority int               `json:"priority,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// HTTPJobResponse is the response for a job submission.
type HTTPJobResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"jid,omitempty"`
	Message string `json:"message,omitempty"`
}

// HTTPSource accepts remap jobs pushed over HTTP. Jobs submitted this
// way bypass the database queue, useful for ad-hoc reruns.
type HTTPSource struct {
	name    string
	options *HTTPOptions
	logger  utils.Logger

	server  *http.Server
	jobChan chan *JobEvent
	stopCh  chan struct{}

	mu      sync.RWMutex
	running bool
}

// NewHTTPSource creates an HTTP source from configuration.
func NewHTTPSource(cfg *SourceConfig) (JobSource, error) {
	opts := &HTTPOptions{
		ListenAddr:   cfg.GetString("listen_addr", ":8081"),
		Path:         cfg.GetString("path", "/jobs"),
		ReadTimeout:  cfg.GetDuration("read_timeout", 30*time.Second),
		WriteTimeout: cfg.GetDuration("write_timeout", 30*time.Second),
		MaxBodySize:  int64(cfg.GetInt("max_body_size", 1<<20)),
	}

	return &HTTPSource{
		name:    cfg.Name,
		options: opts,
		jobChan: make(chan *JobEvent, 100),
		stopCh:  make(chan struct{}),
	}, nil
}

// NewHTTPSourceWithOptions creates an HTTP source with explicit options.
func NewHTTPSourceWithOptions(name string, opts *HTTPOptions, logger utils.Logger) *HTTPSource {
	if opts == nil {
		opts = DefaultHTTPOptions()
	}
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	return &HTTPSource{
		name:    name,
		options: opts,
		logger:  logger,
		jobChan: make(chan *JobEvent, 100),
		stopCh:  make(chan struct{}),
	}
}

// SetLogger sets the logger.
func (s *HTTPSource) SetLogger(logger utils.Logger) {
	s.logger = logger
}

// Type returns the source type.
func (s *HTTPSource) Type() SourceType {
	return SourceTypeHTTP
}

// Name returns the source instance name.
func (s *HTTPSource) Name() string {
	return s.name
}

// Start starts the HTTP server.
func (s *HTTPSource) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc(s.options.Path, s.handleJob)
	mux.HandleFunc("/health", s.handleHealth)

	s.server = &http.Server{
		Addr:         s.options.ListenAddr,
		Handler:      mux,
		ReadTimeout:  s.options.ReadTimeout,
		WriteTimeout: s.options.WriteTimeout,
	}

	if s.logger != nil {
		s.logger.Info("HTTP source %s starting on %s%s", s.name, s.options.ListenAddr, s.options.Path)
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Error("HTTP source %s server error: %v", s.name, err)
			}
		}
	}()

	return nil
}

// Stop shuts the HTTP server down.
func (s *HTTPSource) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}

	return nil
}

// Jobs returns the job event channel.
func (s *HTTPSource) Jobs() <-chan *JobEvent {
	return s.jobChan
}

// Ack is a no-op for HTTP; the submission response was already sent.
func (s *HTTPSource) Ack(ctx context.Context, event *JobEvent) error {
	if s.logger != nil {
		s.logger.Debug("HTTP source %s acked job %s", s.name, event.ID)
	}
	return nil
}

// Nack logs the failure. HTTP submitters poll the report API for the
// job's final state.
func (s *HTTPSource) Nack(ctx context.Context, event *JobEvent, reason string) error {
	if s.logger != nil {
		s.logger.Warn("HTTP source %s nacked job %s: %s", s.name, event.ID, reason)
	}
	return nil
}

// HealthCheck reports whether the server is running.
func (s *HTTPSource) HealthCheck(ctx context.Context) error {
	s.mu.RLock()
	running := s.running
	s.mu.RUnlock()

	if !running {
		return fmt.Errorf("HTTP source %s is not running", s.name)
	}
	return nil
}

// handleJob handles incoming job submissions.
func (s *HTTPSource) handleJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendError(w, http.StatusMethodNotAllowed, "only POST method is allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.options.MaxBodySize)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req HTTPJobRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if req.Job == nil {
		s.sendError(w, http.StatusBadRequest, "job is required")
		return
	}
	if req.Job.DumpKey == "" || req.Job.TableKey == "" {
		s.sendError(w, http.StatusBadRequest, "dump_key and table_key are required")
		return
	}

	event := NewJobEvent(req.Job, SourceTypeHTTP, s.name)
	if req.Priority > 0 {
		event.Priority = req.Priority
	}
	for k, v := range req.Metadata {
		event.WithMetadata(k, v)
	}

	select {
	case s.jobChan <- event:
		s.sendSuccess(w, req.Job.JobUUID, "job accepted")
		if s.logger != nil {
			s.logger.Debug("HTTP source %s received job %s", s.name, req.Job.JobUUID)
		}
	default:
		s.sendError(w, http.StatusServiceUnavailable, "job queue is full")
	}
}

// handleHealth handles health check requests.
func (s *HTTPSource) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "healthy",
		"source": s.name,
		"type":   string(SourceTypeHTTP),
	})
}

func (s *HTTPSource) sendError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(HTTPJobResponse{
		Success: false,
		Message: message,
	})
}

func (s *HTTPSource) sendSuccess(w http.ResponseWriter, jobID, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(HTTPJobResponse{
		Success: true,
		JobID:   jobID,
		Message: message,
	})
}
