// Package httpserver exposes the JobTrack JSON API.
package httpserver

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/and161185/jobtrack/internal/metrics"
	"github.com/and161185/jobtrack/internal/service"
)

// Options tune the router.
type Options struct {
	BasePath    string   // mount point of the API, "/api" when empty
	RateRPS     float64  // per-client request rate; 0 disables limiting
	RateBurst   int      // per-client burst
	CORSOrigins []string // allowed browser origins
}

// Server wires services into HTTP handlers.
type Server struct {
	auth    service.AuthService
	apps    service.ApplicationService
	tokens  TokenVerifier
	log     *zap.Logger
	metrics *metrics.Metrics
	opts    Options
}

// New constructs a Server with injected services.
func New(auth service.AuthService, apps service.ApplicationService, tokens TokenVerifier, m *metrics.Metrics, log *zap.Logger, opts Options) *Server {
	if opts.BasePath == "" {
		opts.BasePath = "/api"
	}
	opts.BasePath = "/" + strings.Trim(opts.BasePath, "/")
	if opts.RateBurst <= 0 {
		opts.RateBurst = 1
	}
	return &Server{auth: auth, apps: apps, tokens: tokens, log: log, metrics: m, opts: opts}
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	r.Use(s.metrics.Middleware)

	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix(s.opts.BasePath).Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	var rl *RateLimiter
	if s.opts.RateRPS > 0 {
		rl = NewRateLimiter(s.opts.RateRPS, s.opts.RateBurst, s.log)
	}

	auth := api.PathPrefix("/auth").Subrouter()
	if rl != nil {
		auth.Use(rl.Middleware)
	}
	auth.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	auth.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)

	apps := api.PathPrefix("/applications").Subrouter()
	apps.Use(AuthGate(s.tokens))
	if rl != nil {
		apps.Use(rl.Middleware)
	}
	apps.HandleFunc("", s.handleList).Methods(http.MethodGet)
	apps.HandleFunc("", s.handleCreate).Methods(http.MethodPost)
	apps.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	apps.HandleFunc("/{id}", s.handleGet).Methods(http.MethodGet)
	apps.HandleFunc("/{id}", s.handleUpdate).Methods(http.MethodPut)
	apps.HandleFunc("/{id}", s.handleDelete).Methods(http.MethodDelete)

	var h http.Handler = r
	h = CORS(s.opts.CORSOrigins)(h)
	h = Logging(s.log)(h)
	h = Recover(s.log)(h)
	return h
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
