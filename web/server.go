package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"statuslookup/application"
	"statuslookup/metrics"
	"statuslookup/session"
	"statuslookup/wizard"
)

// Finder is the lookup capability the server exposes.
type Finder interface {
	Find(ctx context.Context, id string) (application.Record, error)
}

// Support is the contact information rendered in the page footer.
type Support struct {
	Email string
	Phone string
}

// CookieOptions controls the wizard cookie.
type CookieOptions struct {
	Name   string
	Secure bool
}

// Options collects everything NewServer needs.
type Options struct {
	Finder     Finder
	Codec      *session.Codec
	Cookie     CookieOptions
	ReturnStep wizard.Step
	Support    Support
	Limiter    *RateLimiter
	Logger     *zap.Logger
}

// Server renders the lookup wizard and serves the JSON lookup API.
type Server struct {
	lookup     Finder
	codec      *session.Codec
	cookie     CookieOptions
	returnStep wizard.Step
	support    Support
	limiter    *RateLimiter
	logger     *zap.Logger
}

// NewServer wires a Server from opts.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Cookie.Name == "" {
		opts.Cookie.Name = "statuslookup_wizard"
	}
	if opts.Limiter == nil {
		opts.Limiter = NewRateLimiter(5, 10, opts.Logger)
	}
	return &Server{
		lookup:     opts.Finder,
		codec:      opts.Codec,
		cookie:     opts.Cookie,
		returnStep: opts.ReturnStep,
		support:    opts.Support,
		limiter:    opts.Limiter,
		logger:     opts.Logger,
	}
}

// Routes builds the HTTP handler tree.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHandler)

	r.Get("/", s.handleWizard)
	r.Post("/start", s.handleStart)
	r.With(s.limiter.Handler).Post("/lookup", s.handleLookup)
	r.Post("/reset", s.handleReset)

	r.With(s.limiter.Handler).Get("/api/applications/{id}", s.handleApplication)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
