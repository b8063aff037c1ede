package live

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/attrsync/pkg/reconcile"
)

// Config configures a Server.
type Config struct {
	// Address is the listen address for Run.
	// Default: ":7070"
	Address string

	// ReadLimit caps the size of one incoming WebSocket message.
	// Default: 64KB
	ReadLimit int64

	// ReadBufferSize and WriteBufferSize size the upgrader buffers.
	// Default: 4096
	ReadBufferSize  int
	WriteBufferSize int

	// WriteTimeout bounds each frame write.
	// Default: 10s
	WriteTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration

	// CheckOrigin validates the Origin header on upgrade. nil allows all
	// origins.
	CheckOrigin func(r *http.Request) bool

	// Gatherer backs /metrics.
	// Default: prometheus.DefaultGatherer
	Gatherer prometheus.Gatherer

	// Metrics records session and frame counters. nil disables them.
	Metrics *Metrics

	// Reconciler options applied to every reconciler a session creates
	// (metrics, tracer, strategy overrides).
	Reconciler []reconcile.Option
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Address:         ":7070",
		ReadLimit:       64 * 1024,
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		CheckOrigin:     func(*http.Request) bool { return true },
		Gatherer:        prometheus.DefaultGatherer,
	}
}

// Server accepts live reconciliation sessions.
type Server struct {
	config   *Config
	upgrader websocket.Upgrader
	router   chi.Router
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[*Session]struct{}
	nextID   atomic.Uint64

	httpServer *http.Server
}

// New creates a Server. Unset fields of config take their defaults.
func New(config *Config) *Server {
	defaults := DefaultConfig()
	if config == nil {
		config = defaults
	} else {
		c := *config
		if c.Address == "" {
			c.Address = defaults.Address
		}
		if c.ReadLimit == 0 {
			c.ReadLimit = defaults.ReadLimit
		}
		if c.ReadBufferSize == 0 {
			c.ReadBufferSize = defaults.ReadBufferSize
		}
		if c.WriteBufferSize == 0 {
			c.WriteBufferSize = defaults.WriteBufferSize
		}
		if c.WriteTimeout == 0 {
			c.WriteTimeout = defaults.WriteTimeout
		}
		if c.ShutdownTimeout == 0 {
			c.ShutdownTimeout = defaults.ShutdownTimeout
		}
		if c.CheckOrigin == nil {
			c.CheckOrigin = defaults.CheckOrigin
		}
		if c.Gatherer == nil {
			c.Gatherer = defaults.Gatherer
		}
		config = &c
	}

	s := &Server{
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		logger:   slog.Default().With("component", "live"),
		sessions: make(map[*Session]struct{}),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(config.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/ws", s.HandleWebSocket)
	s.router = r

	return s
}

// SetLogger replaces the server logger.
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger.With("component", "live")
}

// Config returns the effective configuration.
func (s *Server) Config() *Config {
	return s.config
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SessionCount returns the number of open sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// HandleWebSocket upgrades the request and runs a session until the client
// disconnects or the session fails.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(s.config.ReadLimit)

	id := "s" + strconv.FormatUint(s.nextID.Add(1), 10)
	session := newSession(id, s.logger.With("session", id), s.config.Metrics, s.config.Reconciler...)
	session.attach(conn, s.config.WriteTimeout)

	s.mu.Lock()
	s.sessions[session] = struct{}{}
	s.mu.Unlock()

	s.logger.Info("session opened", "session", id, "remote", r.RemoteAddr)
	session.serve(r.Context())

	s.mu.Lock()
	delete(s.sessions, session)
	s.mu.Unlock()
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes every session and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.Close()
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}
