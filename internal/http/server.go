// Package http serves the ledger page and its JSON API.
package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"

	"hesabdari/internal/backend"
	"hesabdari/internal/cache"
	"hesabdari/internal/core"
	"hesabdari/internal/log"
	"hesabdari/internal/middleware/ratelimit"
	"hesabdari/internal/middleware/security"
	"hesabdari/internal/middleware/trace"
	appweb "hesabdari/web"
)

const (
	defaultViewCacheSize = 128
	viewCacheTTL         = 5 * time.Minute
	cacheCleanupInterval = 10 * time.Minute
	readyCheckTimeout    = 2 * time.Second
	staticMaxAge         = 3600
)

// Editor is the write path and read model the handlers work against.
type Editor interface {
	Create(ctx context.Context, d core.Draft) (core.Transaction, error)
	Prefill(id string) (core.Draft, error)
	Edit(ctx context.Context, id string, d core.Draft) (core.Transaction, bool, error)
	Delete(ctx context.Context, id string, confirmed bool) (bool, error)
	Get(id string) (core.Transaction, error)
	View(f core.Filter) core.View
	Categories() []string
	Revision() uint64
}

// Options configure NewServer. Editor is required. Checks are probed by
// /readyz; TrustedProxies are CIDRs whose forwarding headers are believed.
type Options struct {
	Addr           string
	Editor         Editor
	Checks         map[string]backend.Pinger
	TrustedProxies []string
	Locale         language.Tag
	RateLimit      int
	ViewCacheSize  int
	Logger         *log.Logger
}

type Server struct {
	http.Server
	templates *template.Template
	editor    Editor
	checks    map[string]backend.Pinger
	format    *displayFormatter
	logger    *log.Logger

	views    *cache.Views
	caches   *cache.Manager
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates, registers routes and wraps them
// in the middleware chain. The returned server is ready for ListenAndServe.
func NewServer(opts Options) (*Server, error) {
	if opts.Editor == nil {
		return nil, errors.New("http: editor is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	if opts.ViewCacheSize <= 0 {
		opts.ViewCacheSize = defaultViewCacheSize
	}
	if opts.Locale == language.Und {
		opts.Locale = language.Persian
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}

	s := &Server{
		templates: t,
		editor:    opts.Editor,
		checks:    opts.Checks,
		format:    newDisplayFormatter(opts.Locale),
		logger:    logger,
		views:     cache.NewViews(opts.ViewCacheSize, viewCacheTTL),
		caches:    cache.NewManager(logger),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimit}),
		detector:  security.NewDetector(logger),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			s.limiter.Stop()
			return nil, fmt.Errorf("trusted proxy %q: %w", cidr, err)
		}
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)
	s.caches.Register(s.views)
	s.caches.StartCleanup(cacheCleanupInterval)

	mux := http.NewServeMux()
	mux.Handle("GET /static/", security.StaticAssetMiddleware(staticMaxAge)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static)))))
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	page := func(h http.HandlerFunc) http.Handler { return security.NoStore(h) }
	mux.Handle("GET /{$}", page(s.handleIndex))
	mux.Handle("POST /{$}", page(s.handleCreate))
	mux.Handle("POST /transactions", page(s.handleCreate))
	mux.Handle("GET /transactions/{id}/edit", page(s.handleEditForm))
	mux.Handle("POST /transactions/{id}", page(s.handleSaveEdit))
	mux.Handle("GET /transactions/{id}/delete", page(s.handleConfirmDelete))
	mux.Handle("POST /transactions/{id}/delete", page(s.handleDelete))

	mux.Handle("GET /api/transactions", page(s.handleAPIList))
	mux.Handle("POST /api/transactions", page(s.handleAPICreate))
	mux.Handle("GET /api/transactions/{id}", page(s.handleAPIGet))
	mux.Handle("PUT /api/transactions/{id}", page(s.handleAPIUpdate))
	mux.Handle("DELETE /api/transactions/{id}", page(s.handleAPIDelete))
	mux.Handle("GET /api/categories", page(s.handleAPICategories))
	mux.Handle("GET /api/stats", page(s.handleAPIStats))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited,
		http.MethodPost, http.MethodPut, http.MethodDelete)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           chain(mux, headers.Middleware, s.detector.Middleware, s.tracer.Middleware, limit),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s, nil
}

// chain applies middleware so the first one listed runs first.
func chain(h http.Handler, middleware ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}

// Shutdown stops background cleanup and drains the HTTP server. Only the
// first call has an effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	if isAPI(r) {
		JSONError(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
		return
	}
	HTMLError(http.StatusTooManyRequests, "Too many changes, try again in a minute.").Write(w)
}

func isAPI(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// view returns the derived view for f, cached per store revision.
func (s *Server) view(f core.Filter) (core.View, uint64) {
	rev := s.editor.Revision()
	return s.views.Get(rev, f, func() core.View { return s.editor.View(f) }), rev
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// handleReady pings every registered check and reports 503 if any fails.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	var failed []string
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		err := s.checks[name].Ping(ctx)
		cancel()
		if err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", "check", name, log.FieldError, err.Error())
			failed = append(failed, name)
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if len(failed) > 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready: " + strings.Join(failed, ", ")))
		return
	}
	_, _ = w.Write([]byte("ready"))
}
