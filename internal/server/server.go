// Package server serves the generated site together with a JSON API that
// opens modals through one modal.Controller per browsing session.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ziadkadry99/kqlcatalog/internal/catalog"
	"github.com/ziadkadry99/kqlcatalog/internal/db"
	"github.com/ziadkadry99/kqlcatalog/internal/logging"
	"github.com/ziadkadry99/kqlcatalog/internal/modal"
	"github.com/ziadkadry99/kqlcatalog/internal/session"
	"github.com/ziadkadry99/kqlcatalog/internal/theme"
)

// Config holds server configuration.
type Config struct {
	Port       int
	SiteDir    string        // generated static site served at /
	AllowAll   bool          // allow all CORS and websocket origins (dev mode)
	SessionTTL time.Duration // idle time before a session row expires; 0 never
	Sanitize   bool          // sanitize fetched log and explanation HTML
}

// Server is the kqlcatalog HTTP server.
type Server struct {
	cfg        Config
	sessions   *session.Store
	fetcher    modal.Fetcher
	logger     *zap.Logger
	router     chi.Router
	httpServer *http.Server
	upgrader   websocket.Upgrader

	catMu   sync.RWMutex
	catalog *catalog.Catalog

	mu      sync.Mutex
	clients map[string]*client
}

// client is the modal state of one browsing session.
type client struct {
	ctrl  *modal.Controller
	view  *socketView
	theme *theme.Controller
}

// New creates a server. fetcher loads modal content; database holds the
// session table.
func New(cfg Config, database *db.DB, cat *catalog.Catalog, fetcher modal.Fetcher, logger *zap.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		sessions: session.NewStore(database, cfg.SessionTTL),
		fetcher:  fetcher,
		logger:   logging.OrNop(logger),
		catalog:  cat,
		clients:  make(map[string]*client),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	if cfg.AllowAll {
		s.upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(session.Middleware(s.sessions, s.logger))

		r.Route("/api", func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			r.Get("/modal/copy/{id}", s.handleCopy)
			r.Post("/modal/close", s.handleClose)
			r.Get("/modal/{kind}/{id}", s.handleOpen)
			r.Get("/theme", s.handleGetTheme)
			r.Post("/theme", s.handleSetTheme)
			r.Get("/rules/{platform}", s.handleRules)
		})

		r.Get("/ws/modal", s.handleSocket)
	})

	if s.cfg.SiteDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.cfg.SiteDir)))
	}

	return r
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// Catalog returns the catalog currently served.
func (s *Server) Catalog() *catalog.Catalog {
	s.catMu.RLock()
	defer s.catMu.RUnlock()
	return s.catalog
}

// SetCatalog swaps the served catalog, e.g. after the catalog file changed.
func (s *Server) SetCatalog(c *catalog.Catalog) {
	s.catMu.Lock()
	s.catalog = c
	s.catMu.Unlock()
}

// client returns the modal client of session id, creating it on first use.
func (s *Server) client(id string) *client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[id]; ok {
		return c
	}
	view := newSocketView(s.logger.With(zap.String("session", id)))
	c := &client{
		ctrl: modal.NewController(s.fetcher, view,
			modal.WithSanitize(s.cfg.Sanitize),
			modal.WithLogger(s.logger.With(zap.String("session", id)))),
		view: view,
		theme: theme.NewController(context.Background(), s.sessions.ThemeStore(id),
			theme.WithLogger(s.logger.With(zap.String("session", id)))),
	}
	s.clients[id] = c
	return c
}

// Purge deletes expired session rows and drops the modal state of sessions
// that no longer exist.
func (s *Server) Purge(ctx context.Context) error {
	n, err := s.sessions.Purge(ctx)
	if err != nil {
		return fmt.Errorf("purging sessions: %w", err)
	}

	s.mu.Lock()
	ids := make([]string, 0, len(s.clients))
	for id := range s.clients {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	dropped := 0
	for _, id := range ids {
		if _, err := s.sessions.Get(ctx, id); errors.Is(err, session.ErrNotFound) {
			s.mu.Lock()
			if c, ok := s.clients[id]; ok {
				c.view.closeAll()
				delete(s.clients, id)
				dropped++
			}
			s.mu.Unlock()
		}
	}
	if n > 0 || dropped > 0 {
		s.logger.Info("sessions purged", zap.Int64("rows", n), zap.Int("clients", dropped))
	}
	return nil
}

// Start begins listening on the configured port and purges expired
// sessions every interval until the server shuts down.
func (s *Server) Start(purgeEvery time.Duration) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if purgeEvery > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		s.httpServer.RegisterOnShutdown(cancel)
		go s.purgeLoop(ctx, purgeEvery)
	}

	s.logger.Info("kqlcatalog server listening", zap.String("addr", addr), zap.String("site", s.cfg.SiteDir))
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) purgeLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Purge(ctx); err != nil {
				s.logger.Warn("session purge failed", zap.Error(err))
			}
		}
	}
}

// Shutdown gracefully shuts down the server and closes open websockets.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for _, c := range s.clients {
		c.view.closeAll()
	}
	s.mu.Unlock()
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// requestLogger logs each request at debug level.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
