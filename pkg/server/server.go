package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/goliatone/go-dataviews/pkg/form"
	"github.com/goliatone/go-dataviews/pkg/layouts"
	"github.com/goliatone/go-dataviews/pkg/render/html"
	"github.com/goliatone/go-dataviews/pkg/schema"
)

// StylesheetURL is where the bundled stylesheet is served.
const StylesheetURL = "/assets/dataviews.css"

// Source provides the current schema store. *schema.Watcher implements it.
type Source interface {
	Store() *schema.Store
}

// Static serves a fixed store.
type Static struct {
	S *schema.Store
}

// Store returns the wrapped store.
func (s Static) Store() *schema.Store { return s.S }

// Option configures a Server.
type Option func(*Server)

// WithLogger injects a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRenderer overrides the HTML renderer.
func WithRenderer(r *html.Renderer) Option {
	return func(s *Server) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithRegistry overrides the layout registry. Without it the renderer's
// default table, grid and list layouts are used.
func WithRegistry(registry *layouts.Registry) Option {
	return func(s *Server) {
		if registry != nil {
			s.registry = registry
		}
	}
}

// WithItems sets the loader for view and form records.
func WithItems(fn ItemsFunc) Option {
	return func(s *Server) {
		if fn != nil {
			s.items = fn
		}
	}
}

// WithPerPage sets the page size used when a view document has none.
func WithPerPage(n int) Option {
	return func(s *Server) {
		s.perPage = n
	}
}

// Server is the HTTP preview for views and forms.
type Server struct {
	source     Source
	renderer   *html.Renderer
	registry   *layouts.Registry
	dispatcher *form.Dispatcher
	items      ItemsFunc
	logger     *zap.Logger
	perPage    int
	router     chi.Router
}

// New builds a Server reading documents from source.
func New(source Source, options ...Option) (*Server, error) {
	if source == nil {
		return nil, errors.New("server: source is required")
	}
	s := &Server{
		source:  source,
		items:   noItems,
		logger:  zap.NewNop(),
		perPage: 20,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.renderer == nil {
		r, err := html.New(html.WithLogger(s.logger), html.WithStylesheet(StylesheetURL))
		if err != nil {
			return nil, fmt.Errorf("server: renderer: %w", err)
		}
		s.renderer = r
	}
	if s.registry == nil {
		registry, err := s.renderer.Registry()
		if err != nil {
			return nil, fmt.Errorf("server: layouts: %w", err)
		}
		s.registry = registry
	}
	s.dispatcher = form.New(form.WithLogger(s.logger))
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", s.health)
	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServerFS(html.AssetsFS())))
	r.Get("/layouts", s.listLayouts)
	r.Get("/views", s.listViews)
	r.Get("/views/{view}", s.renderView)
	r.Get("/forms/{form}", s.renderForm)
	r.Post("/forms/{form}", s.submitForm)
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server: listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	}
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("server: request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("requestID", middleware.GetReqID(r.Context())),
			)
		})
	}
}
