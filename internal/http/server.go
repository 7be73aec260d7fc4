package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"burnscope/internal/core"
	"burnscope/internal/log"
	"burnscope/internal/middleware/ratelimit"
	"burnscope/internal/middleware/security"
	"burnscope/internal/middleware/trace"
	"burnscope/internal/services"
	appweb "burnscope/web"
)

// requestTimeout bounds every store query and render.
const requestTimeout = 7 * time.Second

// Dashboard is the interaction layer the handlers drive.
type Dashboard interface {
	Initial() core.Selection
	Controls() services.Controls
	Dispatch(ctx context.Context, sel core.Selection, ev services.Event, p services.Payload) (services.Result, error)
	Render(ctx context.Context, sel core.Selection) (services.Result, error)
	Resolve(sel core.Selection) (core.Selection, error)
	Rows(ctx context.Context, sel core.Selection) ([]core.AggregatedRecord, error)
}

// Options configures NewServer.
type Options struct {
	Addr               string
	Dashboard          Dashboard
	Ready              func(ctx context.Context) error
	Logger             *log.Logger
	RateLimitPerMinute int
	Headers            *security.HeadersConfig
}

type Server struct {
	http.Server
	templates *template.Template
	dashboard Dashboard
	ready     func(ctx context.Context) error
	logger    *log.Logger
	detector  *security.Detector
	limiter   *ratelimit.Limiter
	tracer    *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	headers := security.DefaultHeadersConfig()
	if opts.Headers != nil {
		headers = *opts.Headers
	}

	router := mux.NewRouter()
	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		dashboard: opts.Dashboard,
		ready:     opts.Ready,
		logger:    logger.WithComponent(log.ComponentHTTP),
		detector:  security.NewDetector(),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	router.Use(
		s.tracer.Middleware,
		security.NewHeadersMiddleware(headers).Middleware,
		s.detector.Middleware,
		s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited, http.MethodPost),
	)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		router.PathPrefix("/static/").Handler(security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	router.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/controls", s.handleControls).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/figures", s.handleFiguresPost).Methods(http.MethodPost)
	api.HandleFunc("/figures", s.handleFiguresGet).Methods(http.MethodGet)
	api.HandleFunc("/charts/{kind:[a-z]+}.png", s.handleChartPNG).Methods(http.MethodGet)
	api.HandleFunc("/export.xlsx", s.handleExport).Methods(http.MethodGet)

	router.HandleFunc("/ws", s.handleWebsocket).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return s
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(),
		"Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
}
