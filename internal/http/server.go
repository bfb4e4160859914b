package http

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"pdv/internal/config"
	"pdv/internal/log"
	"pdv/internal/middleware/ratelimit"
	"pdv/internal/middleware/security"
	"pdv/internal/middleware/trace"
	"pdv/internal/session"
	appweb "pdv/web"
)

// Options configures the register UI.
type Options struct {
	StoreName          string
	Products           []string
	SessionTTL         time.Duration
	RateLimitPerMinute int
}

// Server serves the register UI for all live sessions.
type Server struct {
	http.Server
	templates *template.Template
	store     *session.Store
	opts      Options
	events    *log.StructuredLogger

	rateLimiter     *ratelimit.Limiter
	traceMiddleware *trace.Middleware
	appMetrics      *appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, store *session.Store, opts Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	if opts.StoreName == "" {
		opts.StoreName = config.DefaultStoreName
	}
	if len(opts.Products) == 0 {
		opts.Products = config.DefaultProducts
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 12 * time.Hour
	}

	mux := http.NewServeMux()
	httpLogger := logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		store:  store,
		opts:   opts,
		events: log.NewStructuredLogger(logger),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
		traceMiddleware: trace.NewMiddleware(extractClientIP, logger),
	}
	s.appMetrics = newAppMetrics(store, s.traceMiddleware, s.rateLimiter)

	t, err := parseTemplates()
	if err != nil {
		logger.WithComponent(log.ComponentTemplate).Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		httpLogger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.Handle("/metrics", s.appMetrics.handler())

	mux.Handle("/", s.page(s.handleIndex))
	mux.Handle("/day", s.page(s.limited(s.handleSelectDay)))
	mux.Handle("/sales", s.page(s.limited(s.handleSubmitSale)))
	mux.Handle("/notes", s.page(s.limited(s.handleSubmitNote)))
	mux.Handle("/ui/daily", s.page(s.handleDailyPartial))
	mux.Handle("/ui/weekly", s.page(s.handleWeeklyPartial))
	mux.Handle("/ui/notes", s.page(s.handleNotesPartial))
	mux.Handle("/api/view", s.page(s.handleAPIView))

	// headers -> trace -> request logger -> routes
	var handler http.Handler = mux
	handler = log.RequestIDMiddleware(trace.FromRequest)(handler)
	handler = log.Middleware(httpLogger)(handler)
	handler = s.traceMiddleware.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func parseTemplates() (*template.Template, error) {
	return template.ParseFS(appweb.TemplatesFS, "templates/*.html")
}

// log returns the request-scoped logger, which carries the request ID.
func (s *Server) log(r *http.Request) *log.Logger {
	return log.FromContext(r.Context())
}

// page wraps session-bound handlers: responses are never cached.
func (s *Server) page(next http.HandlerFunc) http.Handler {
	return security.NoStore(next)
}

// limited applies per-client rate limiting to state-changing requests.
func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	limit := s.rateLimiter.Middleware(extractClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.log(r).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, extractClientIP(r),
			log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "Demasiadas solicitudes. Intenta de nuevo en un minuto.").
			Header("Retry-After", "60").
			Write(w)
	})
	return limit(next).ServeHTTP
}

// render executes a named template into memory so failures never leave a
// half-written response.
func (s *Server) render(name string, data any) ([]byte, error) {
	if s.templates == nil {
		return nil, fmt.Errorf("templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
