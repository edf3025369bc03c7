// Package server exposes wisdombot's HTTP interface: the broadcast trigger,
// diagnostics, the teaching articles and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"wisdombot/internal/broadcast"
	"wisdombot/internal/config"
	"wisdombot/internal/message"
	"wisdombot/internal/observability/metrics"
	logx "wisdombot/pkg/logx"
)

// LivenessText is the body of GET /.
const LivenessText = "Buddhist Wisdom Bot is running!"

// Dispatcher runs one broadcast.
type Dispatcher interface {
	Dispatch(ctx context.Context, override string) (broadcast.Result, error)
}

// Previewer runs selection without delivering anything.
type Previewer interface {
	Run(ctx context.Context, chain []message.Tier, override string) (message.Selection, []message.Outcome)
	Simple(ctx context.Context) (message.Selection, error)
}

// Options holds the server's collaborators. Rows may be nil.
type Options struct {
	Dispatcher Dispatcher
	Preview    Previewer
	Rows       message.RowSource
	Secrets    func() []config.Secret

	// DebugEndpoints mounts /test-*, /debug-env.
	DebugEndpoints bool
	// Pprof mounts chi's profiler under /debug.
	Pprof bool

	Log logx.Logger
}

type Server struct {
	router   chi.Router
	opt      Options
	log      logx.Logger
	articles *articles
}

// New builds the router with middleware and routes.
func New(opt Options) (*Server, error) {
	if opt.Log.IsZero() {
		opt.Log = logx.Nop()
	}
	if opt.DebugEndpoints && opt.Preview == nil {
		return nil, errors.New("server: debug endpoints need a previewer")
	}
	if opt.Secrets == nil {
		opt.Secrets = func() []config.Secret { return nil }
	}
	arts, err := loadArticles()
	if err != nil {
		return nil, err
	}
	s := &Server{opt: opt, log: opt.Log.With(logx.String("comp", "http")), articles: arts}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(metricsMiddleware)
	r.Use(s.recoverMiddleware)

	r.Get("/", s.liveness)
	r.Post("/broadcast", s.broadcast)
	r.Get("/blog", s.blogIndex)
	r.Get("/blog/{key}", s.blogEntry)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	if opt.DebugEndpoints {
		r.Get("/test-wisdom", s.testWisdom)
		r.Get("/test-simple-wisdom", s.testSimpleWisdom)
		r.Get("/debug-env", s.debugEnv)
		r.Get("/test-sheets", s.testSheets)
	}
	if opt.Pprof {
		r.Mount("/debug", middleware.Profiler())
	}

	s.router = r
	return s, nil
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler { return s.router }

// ListenConfig controls Serve.
type ListenConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Serve listens on cfg.Addr until ctx is done, then shuts down gracefully
// within cfg.ShutdownTimeout.
func (s *Server) Serve(ctx context.Context, cfg ListenConfig) error {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}
	return s.serveListener(ctx, ln, cfg)
}

func (s *Server) serveListener(ctx context.Context, ln net.Listener, cfg ListenConfig) error {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	srv := &http.Server{
		Handler:           s.router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		// In-flight requests outlive ctx until Shutdown's deadline.
		BaseContext: func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.log.Info("http listening", logx.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	start := time.Now()
	err := srv.Shutdown(sctx)
	<-errCh
	s.log.Info("http stopped", logx.Duration("took", time.Since(start)))
	return err
}
