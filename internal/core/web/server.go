package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/seckatie/homedash/internal/config"
	"github.com/seckatie/homedash/internal/core"
	"github.com/seckatie/homedash/internal/core/db"
)

// Store is the read-only data source behind the /api endpoints.
type Store interface {
	ListApps(ctx context.Context) ([]db.App, error)
	ListServers(ctx context.Context) ([]db.Server, error)
	ListBookmarks(ctx context.Context) ([]db.Bookmark, error)
	ListBookmarkCategories(ctx context.Context) ([]db.BookmarkCategory, error)
	ListSettings(ctx context.Context) ([]db.Setting, error)
}

// Options configures NewServer.
type Options struct {
	Config config.Config
	Store  Store
	// Renderer handles every request no other route claims.
	Renderer http.Handler
	// Assets wraps the renderer with the mode's asset handling (built client
	// files in production, live reload and sources in development). Optional.
	Assets func(http.Handler) http.Handler
	Logger *zap.Logger
}

type Server struct {
	cfg      config.Config
	store    Store
	renderer http.Handler
	logger   *zap.Logger
	router   chi.Router
}

func NewServer(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("web: store is required")
	}
	if opts.Renderer == nil {
		return nil, errors.New("web: renderer is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	renderer := opts.Renderer
	if opts.Assets != nil {
		renderer = opts.Assets(renderer)
	}

	ws := &Server{
		cfg:      opts.Config,
		store:    opts.Store,
		renderer: renderer,
		logger:   logger,
		router:   chi.NewRouter(),
	}
	ws.registerRoutes(ws.router)
	return ws, nil
}

// Handler returns the root HTTP handler.
func (ws *Server) Handler() http.Handler {
	return ws.router
}

func (ws *Server) registerRoutes(r chi.Router) {
	r.Use(requestLogger(ws.logger))
	r.Use(middleware.Recoverer)
	if ws.cfg.IsProduction() {
		r.Use(middleware.Compress(5))
	}

	// First match wins; chi prefers static segments over the catch-all.
	ws.registerAPIRoute(r, "/api/apps", ws.handleApps)
	ws.registerAPIRoute(r, "/api/servers", ws.handleServers)
	ws.registerAPIRoute(r, "/api/bookmarks", ws.handleBookmarks)
	ws.registerAPIRoute(r, "/api/bookmark_categories", ws.handleBookmarkCategories)
	ws.registerAPIRoute(r, "/api/settings", ws.handleSettings)

	ws.registerStaticRoutes(r)

	r.Handle("/", ws.renderer)
	r.Handle("/*", ws.renderer)
}

// registerAPIRoute mounts h on pattern and everything below it, for all
// methods, so that non-GET requests get a 405 instead of falling through to
// the renderer.
func (ws *Server) registerAPIRoute(r chi.Router, pattern string, h http.HandlerFunc) {
	r.Handle(pattern, h)
	r.Handle(pattern+"/*", h)
}

func (ws *Server) registerStaticRoutes(r chi.Router) {
	// Files missing from the public directory fall through to the renderer.
	public := FileFallthrough(ws.cfg.PublicPath(), "/public/", nil)(ws.renderer)
	r.Handle("/public", public)
	r.Handle("/public/*", public)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (ws *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           ws.Handler(),
		ReadHeaderTimeout: core.DefaultReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		ws.logger.Info("server started", zap.String("url", fmt.Sprintf("http://%s%s", addr, ws.cfg.Base)))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web server failed: %w", err)
	case <-ctx.Done():
	}

	ws.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), core.DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
