// Package server exposes the visualization over HTTP: a caching proxy
// for the Horizons API, a frame API, a websocket frame stream and
// Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/oxygene76/orrery/internal/types"
	"github.com/oxygene76/orrery/pkg/metrics"
	"github.com/oxygene76/orrery/pkg/render"
	"github.com/oxygene76/orrery/pkg/scene"
)

// Viewer is the running visualization behind the API
type Viewer interface {
	Frame() render.Frame
	Bodies() []types.BodyInfo
	Apply(cmd scene.Command) (types.ControlResponse, error)
	Status() types.StatusResponse
}

// Upstream fetches a raw Horizons response
type Upstream interface {
	Get(ctx context.Context, params url.Values) ([]byte, int, error)
}

// Config holds the HTTP settings
type Config struct {
	Host      string        `yaml:"host" mapstructure:"host"`
	Port      int           `yaml:"port" mapstructure:"port"`
	CacheTTL  time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	StaticDir string        `yaml:"static_dir" mapstructure:"static_dir"`
}

// Server wires the routes to a viewer and an upstream
type Server struct {
	config   Config
	viewer   Viewer
	upstream Upstream
	cache    *ResponseCache
	metrics  *metrics.Collector
	hub      *hub
	upgrader websocket.Upgrader
	started  time.Time
}

// New creates a server. viewer and upstream may be nil, which disables
// their routes.
func New(config Config, viewer Viewer, upstream Upstream, m *metrics.Collector) *Server {
	if m == nil {
		m = metrics.NewCollector()
	}
	return &Server{
		config:   config,
		viewer:   viewer,
		upstream: upstream,
		cache:    NewResponseCache(config.CacheTTL),
		metrics:  m,
		hub:      newHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		started: time.Now(),
	}
}

// Router builds the route table
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	if s.upstream != nil {
		r.HandleFunc("/api/horizons", s.handleHorizons).Methods("GET")
	}
	r.Handle("/metrics", s.metrics.Handler()).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	if s.viewer != nil {
		api.HandleFunc("/frame", s.handleFrame).Methods("GET")
		api.HandleFunc("/bodies", s.handleBodies).Methods("GET")
		api.HandleFunc("/status", s.handleStatus).Methods("GET")
		api.HandleFunc("/control", s.handleControl).Methods("POST", "OPTIONS")
		api.HandleFunc("/stream", s.handleStream).Methods("GET")
	}

	if s.config.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.config.StaticDir)))
	}

	r.Use(corsMiddleware)
	return r
}

// Start serves until ctx is canceled
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Serving on http://%s (api under /api/v1, proxy at /api/horizons)", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.hub.closeAll()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	}
}

// Publish pushes a frame to every stream client
func (s *Server) Publish(f render.Frame) {
	if s.hub.size() == 0 {
		return
	}
	msg, err := frameMessage(f)
	if err != nil {
		log.Printf("Warning: failed to encode frame %d: %v", f.Seq, err)
		return
	}
	s.hub.broadcast(msg)
}

// handleHorizons proxies to the Horizons API, reusing successful
// responses for the cache TTL
func (s *Server) handleHorizons(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	key := CacheKey(params)

	if data, ok := s.cache.Get(key); ok {
		s.metrics.RecordProxy("hit")
		writeRaw(w, params, http.StatusOK, data)
		return
	}

	data, status, err := s.upstream.Get(r.Context(), params)
	if err != nil {
		s.metrics.RecordProxy("error")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.metrics.RecordProxy("miss")
	if status == http.StatusOK {
		s.cache.Put(key, data)
	}
	writeRaw(w, params, status, data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.started).String(),
	})
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.viewer.Frame())
}

func (s *Server) handleBodies(w http.ResponseWriter, r *http.Request) {
	bodies := s.viewer.Bodies()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"bodies": bodies,
		"count":  len(bodies),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.viewer.Status()
	st.Uptime = time.Since(s.started)
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		return
	}
	var cmd scene.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	resp, err := s.viewer.Apply(cmd)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Warning: failed to write response: %v", err)
	}
}

func writeRaw(w http.ResponseWriter, params url.Values, status int, data []byte) {
	if params.Get("format") == "json" {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
