package pprof

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/pprof"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// maxCPUSeconds caps request-driven CPU sampling.
const maxCPUSeconds = 300

// HTTPMode serves the pprof endpoints for on-demand collection.
type HTTPMode struct {
	config    *HTTPConfig
	collector *Collector

	server *http.Server
	mux    *http.ServeMux
	wg     sync.WaitGroup
}

// NewHTTPMode creates an HTTP serving mode.
func NewHTTPMode(config *HTTPConfig) *HTTPMode {
	if config == nil {
		config = DefaultConfig().HTTP
	}
	return &HTTPMode{
		config: config,
		mux:    http.NewServeMux(),
	}
}

func (m *HTTPMode) Name() string { return "http" }

func (m *HTTPMode) Start(ctx context.Context, collector *Collector) error {
	m.collector = collector

	cfg := collector.Config()
	if cfg.HasProfile(ProfileBlock) {
		runtime.SetBlockProfileRate(1)
	}
	if cfg.HasProfile(ProfileMutex) {
		runtime.SetMutexProfileFraction(1)
	}

	m.registerHandlers()
	m.server = &http.Server{
		Addr:         m.config.Addr,
		Handler:      m.mux,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			collector.noteError(fmt.Errorf("pprof http server: %w", err))
		}
	}()
	return nil
}

func (m *HTTPMode) Stop() error {
	if m.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown pprof http server: %w", err)
		}
	}

	runtime.SetBlockProfileRate(0)
	runtime.SetMutexProfileFraction(0)

	m.wg.Wait()
	return nil
}

// Handler exposes the mux so an existing server can mount it.
func (m *HTTPMode) Handler() http.Handler {
	return m.mux
}

func (m *HTTPMode) registerHandlers() {
	path := strings.TrimSuffix(m.config.Path, "/")

	m.mux.HandleFunc(path+"/", m.auth(pprof.Index))
	m.mux.HandleFunc(path+"/cmdline", m.auth(pprof.Cmdline))
	m.mux.HandleFunc(path+"/symbol", m.auth(pprof.Symbol))
	m.mux.HandleFunc(path+"/trace", m.auth(pprof.Trace))

	m.mux.HandleFunc(path+"/profile", m.auth(m.handleCPU))
	for pt := range lookupNames {
		m.mux.HandleFunc(path+"/"+string(pt), m.auth(m.profileHandler(pt)))
	}

	m.mux.HandleFunc(path+"/status", m.auth(m.handleStatus))
	m.mux.HandleFunc(path+"/snapshot", m.auth(m.handleSnapshot))
}

// auth enforces the bearer token when one is configured.
func (m *HTTPMode) auth(next http.HandlerFunc) http.HandlerFunc {
	if m.config.Token == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token == "Bearer "+m.config.Token || token == m.config.Token {
			next(w, r)
			return
		}
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}
}

func (m *HTTPMode) handleCPU(w http.ResponseWriter, r *http.Request) {
	seconds := m.config.DefaultSeconds
	if s := r.URL.Query().Get("seconds"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			seconds = n
		}
	}
	if seconds > maxCPUSeconds {
		seconds = maxCPUSeconds
	}

	data, err := m.collector.SnapshotCPU(r.Context(), time.Duration(seconds)*time.Second)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	m.serveProfile(w, ProfileCPU, data)
}

func (m *HTTPMode) profileHandler(pt ProfileType) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		data, err := m.collector.Snapshot(pt)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		m.serveProfile(w, pt, data)
	}
}

func (m *HTTPMode) serveProfile(w http.ResponseWriter, pt ProfileType, data []byte) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s_%s.pprof", pt, time.Now().Format("20060102_150405")))

	if m.config.SaveToFile {
		go func() {
			_, _ = m.collector.WriteSnapshot(pt, data)
		}()
	}
	w.Write(data)
}

func (m *HTTPMode) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(m.collector.Status())
}

// handleSnapshot writes the requested non-CPU profiles to files in one
// shot. POST only.
func (m *HTTPMode) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	profiles := m.collector.Config().Profiles
	if s := r.URL.Query().Get("profiles"); s != "" {
		var err error
		profiles, err = ParseProfileTypes(s)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	files := make(map[string]string)
	errs := make(map[string]string)
	for _, pt := range profiles {
		if pt == ProfileCPU {
			continue
		}
		data, err := m.collector.Snapshot(pt)
		if err != nil {
			errs[string(pt)] = err.Error()
			continue
		}
		path, err := m.collector.WriteSnapshot(pt, data)
		if err != nil {
			errs[string(pt)] = err.Error()
			continue
		}
		files[string(pt)] = path
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"files":  files,
		"errors": errs,
	})
}
