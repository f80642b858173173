// Package http serves registered route declarations over HTTP.
//
// Every declared method of every route is wired to a handler that runs
// request validation before the route's own handler. A request with no
// parameters returns the route's description. The API root lists every
// route, and the engine serves its own OpenAPI document and Swagger UI
// under reserved "/_" paths.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/otel/trace"

	"github.com/artpar/larkin/core/capability"
	"github.com/artpar/larkin/core/formatter"
	"github.com/artpar/larkin/core/registry"
	"github.com/artpar/larkin/core/schema"
)

// Reserved paths, relative to the base path.
const (
	OpenAPIPath = "/_openapi.json"
	DocsPath    = "/_docs"
)

// Recorder receives request metrics. adapters/metrics implements it.
type Recorder interface {
	ObserveRequest(method, route string, status int, d time.Duration)
	InFlight(delta int)
	ObserveValidationFailure(route, reason string)
}

// Config holds the channel's HTTP settings.
type Config struct {
	// Addr is the listen address. Start is a no-op when it is empty.
	Addr string

	// BasePath mounts every route under a prefix, for example "/api".
	BasePath string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// OpenAPI enables the OpenAPI document and the Swagger UI.
	OpenAPI bool

	// MetricsPath serves MetricsHandler when both are set.
	MetricsPath    string
	MetricsHandler http.Handler
}

// Channel implements the HTTP channel for route declarations.
type Channel struct {
	cfg        Config
	routes     *registry.Registry
	plugins    *capability.Registry
	dispatcher *formatter.Dispatcher
	logger     zerolog.Logger
	recorder   Recorder
	ids        IDGenerator
	tracer     trace.TracerProvider

	server   *http.Server
	listener net.Listener
}

// Option configures a Channel.
type Option func(*Channel)

// WithLogger sets the channel logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Channel) {
		c.logger = logger
	}
}

// WithRecorder enables request metrics.
func WithRecorder(r Recorder) Option {
	return func(c *Channel) {
		c.recorder = r
	}
}

// WithIDGenerator sets the request ID generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(c *Channel) {
		c.ids = gen
	}
}

// WithTracerProvider sets the provider request spans are started on.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Channel) {
		c.tracer = tp
	}
}

// New creates a new HTTP channel.
func New(cfg Config, routes *registry.Registry, plugins *capability.Registry, dispatcher *formatter.Dispatcher, opts ...Option) *Channel {
	c := &Channel{
		cfg:        cfg,
		routes:     routes,
		plugins:    plugins,
		dispatcher: dispatcher,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.plugins == nil {
		c.plugins = capability.NewRegistry()
	}
	c.cfg.BasePath = normalizeBasePath(c.cfg.BasePath)
	return c
}

// Name returns the channel name.
func (c *Channel) Name() string {
	return "http"
}

// Handler builds the HTTP handler from the routes registered so far.
// Routes registered later are not served by the returned handler.
func (c *Channel) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(NewRequestIDMiddleware(c.ids))
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(c.logger))
	r.Use(NewRecoverMiddleware(c.logger, c.dispatcher))
	r.Use(NewTracingMiddleware(c.tracer))
	if c.recorder != nil {
		r.Use(NewMetricsMiddleware(c.recorder))
	}
	r.Use(middleware.StripSlashes)

	if c.cfg.MetricsPath != "" && c.cfg.MetricsHandler != nil {
		r.Handle(c.cfg.MetricsPath, c.cfg.MetricsHandler)
	}

	api := chi.NewRouter()
	api.NotFound(c.handleNotFound)
	api.MethodNotAllowed(c.handleMethodNotAllowed)

	api.Get("/", c.handleRoot)

	if c.cfg.OpenAPI {
		api.Get(OpenAPIPath, c.handleOpenAPI)
		api.Get(DocsPath+"/*", httpSwagger.Handler(
			httpSwagger.URL(c.cfg.BasePath+OpenAPIPath),
		))
	}

	for _, route := range c.routes.List() {
		c.mount(api, route)
	}

	if c.cfg.BasePath == "" {
		r.Mount("/", api)
	} else {
		r.Mount(c.cfg.BasePath, api)
	}
	r.NotFound(c.handleNotFound)

	return r
}

// mount wires every declared method of route onto every concrete form of
// its path.
func (c *Channel) mount(r chi.Router, route *schema.Route) {
	pattern, err := schema.ParsePattern(route.Path)
	if err != nil {
		c.logger.Error().Err(err).Str("route", route.Path).Msg("skipping route with invalid pattern")
		return
	}

	h := c.routeHandler(route, pattern.Params())
	for _, p := range pattern.ChiPatterns() {
		for _, method := range route.MethodList() {
			r.Method(method, p, h)
		}
	}

	c.logger.Debug().
		Str("route", route.Path).
		Strs("methods", route.MethodList()).
		Msg("route mounted")
}

// Start starts the HTTP server. The listener is opened before Start
// returns so bind errors are reported to the caller.
func (c *Channel) Start(ctx context.Context) error {
	// Only start if addr is set (standalone mode)
	if c.cfg.Addr == "" {
		return nil
	}

	ln, err := net.Listen("tcp", c.cfg.Addr)
	if err != nil {
		return err
	}
	c.listener = ln

	c.server = &http.Server{
		Handler:      c.Handler(),
		ReadTimeout:  c.cfg.ReadTimeout,
		WriteTimeout: c.cfg.WriteTimeout,
		IdleTimeout:  c.cfg.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	go func() {
		if err := c.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error().Err(err).Msg("http server error")
		}
	}()

	c.logger.Info().Str("addr", ln.Addr().String()).Str("base_path", c.cfg.BasePath).Msg("http server listening")
	return nil
}

// Addr returns the bound listen address once started.
func (c *Channel) Addr() string {
	if c.listener == nil {
		return c.cfg.Addr
	}
	return c.listener.Addr().String()
}

// Stop stops the HTTP server.
func (c *Channel) Stop(ctx context.Context) error {
	if c.server != nil {
		return c.server.Shutdown(ctx)
	}
	return nil
}

func normalizeBasePath(p string) string {
	p = strings.TrimSuffix(strings.TrimSpace(p), "/")
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
