// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/larkin/adapters/idgen"
	"github.com/artpar/larkin/adapters/metrics"
	"github.com/artpar/larkin/adapters/sqlite"
	"github.com/artpar/larkin/app"
	"github.com/artpar/larkin/config"
	"github.com/artpar/larkin/core/capability"
	larkinhttp "github.com/artpar/larkin/core/channel/http"
	"github.com/artpar/larkin/core/formatter"
	"github.com/artpar/larkin/core/geo"
	"github.com/artpar/larkin/core/registry"
	"github.com/artpar/larkin/core/schema"
)

// Environment variable names read before any config file is loaded.
const (
	EnvLogLevel  = "LARKIN_LOG_LEVEL"
	EnvLogFormat = "LARKIN_LOG_FORMAT"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Plugins    *capability.Registry
	Registry   *registry.Registry
	Dispatcher *formatter.Dispatcher
	Catalog    *app.Catalog
	Metrics    *metrics.Collector
	DB         *sqlite.DB

	mu      sync.RWMutex
	cfg     *config.Config
	holder  *config.Holder
	channel *larkinhttp.Channel

	shutdownOnce sync.Once
	shutdownErr  error
}

// New assembles an application from cfg. Routes are registered afterwards
// with LoadRoutes or RegisterRoute.
func New(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	logger.Info().Msg("initializing larkin")

	a := &App{
		Logger:  logger,
		Plugins: capability.NewRegistry(),
		Catalog: app.NewCatalog(),
		cfg:     cfg,
	}

	if cfg.Database.DSN != "" {
		if err := a.initDatabase(); err != nil {
			return nil, fmt.Errorf("init database: %w", err)
		}
	}

	// Initialize metrics if enabled
	if cfg.Metrics.Enabled {
		a.Metrics = metrics.NewExporter()
		logger.Info().Msg("prometheus metrics enabled")
	}

	converter := geo.NewOrbConverter(geo.Options{
		Precision:      cfg.Geo.Precision,
		GeometryColumn: cfg.Geo.GeometryColumn,
		GeometryType:   cfg.Geo.GeometryType,
	})
	opts := []formatter.Option{
		formatter.WithLogger(logger),
		formatter.WithConverter(converter),
	}
	if a.Metrics != nil {
		opts = append(opts, formatter.WithObserver(a.Metrics))
	}
	a.Dispatcher = formatter.NewDispatcher(infoFrom(cfg.API), opts...)

	a.Registry = registry.New(
		registry.WithAllowReplace(cfg.Routes.AllowReplace),
		registry.WithPlugins(a.Plugins),
	)

	a.channel = a.newChannel()

	return a, nil
}

// NewWithHotReload loads the config at path and reloads envelope info and
// the log level when the file changes or SIGHUP arrives.
func NewWithHotReload(path string) (*App, error) {
	logger := setupLoggerFromEnv()

	holder, err := config.NewHolder(path, logger)
	if err != nil {
		return nil, err
	}

	cfg := holder.Get()
	a, err := New(cfg, SetupLogger(cfg.Logging))
	if err != nil {
		holder.Stop()
		return nil, err
	}
	a.holder = holder

	holder.OnChange(a.applyConfig)
	if a.Metrics != nil {
		holder.OnError(a.Metrics.ObserveReload)
	}
	if err := holder.WatchFile(); err != nil {
		a.Logger.Warn().Err(err).Msg("config file watching disabled")
	}
	holder.WatchSignals()

	return a, nil
}

func (a *App) initDatabase() error {
	db, err := sqlite.Open(a.cfg.Database.DSN)
	if err != nil {
		return err
	}

	if dir := a.cfg.Database.Migrations; dir != "" {
		if err := db.Migrate(context.Background(), os.DirFS(dir)); err != nil {
			db.Close()
			return fmt.Errorf("migrate: %w", err)
		}
	}

	a.DB = db
	if _, err := a.Plugins.Register(sqlite.PluginName, db); err != nil {
		db.Close()
		return err
	}
	a.Logger.Info().Str("dsn", a.cfg.Database.DSN).Msg("sqlite plugin registered")
	return nil
}

func (a *App) newChannel() *larkinhttp.Channel {
	cfg := a.cfg
	chCfg := larkinhttp.Config{
		Addr:         cfg.Addr(),
		BasePath:     cfg.API.BasePath,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
		IdleTimeout:  cfg.Server.IdleTimeout.Duration,
		OpenAPI:      cfg.OpenAPI.Enabled,
	}

	opts := []larkinhttp.Option{
		larkinhttp.WithLogger(a.Logger),
		larkinhttp.WithIDGenerator(idgen.UUID{}),
	}
	if a.Metrics != nil {
		chCfg.MetricsPath = cfg.Metrics.Path
		chCfg.MetricsHandler = a.Metrics.Handler()
		opts = append(opts, larkinhttp.WithRecorder(a.Metrics))
	}

	return larkinhttp.New(chCfg, a.Registry, a.Plugins, a.Dispatcher, opts...)
}

// Config returns the active configuration.
func (a *App) Config() *config.Config {
	if a.holder != nil {
		return a.holder.Get()
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// LoadRoutes parses every declaration file under dir, binds each to its
// built-in handler and registers it. Any error aborts the load; routes
// registered before the failure stay registered.
func (a *App) LoadRoutes(dir string) (int, error) {
	routes, err := schema.ParseDir(dir)
	if err != nil {
		return 0, fmt.Errorf("parse routes: %w", err)
	}
	if err := a.Catalog.BindAll(routes); err != nil {
		return 0, fmt.Errorf("bind routes: %w", err)
	}

	for i := range routes {
		if err := a.RegisterRoute(&routes[i]); err != nil {
			return i, err
		}
	}

	a.Logger.Info().Str("dir", dir).Int("count", len(routes)).Msg("routes loaded")
	return len(routes), nil
}

// RegisterRoute validates and registers a route declared in code.
func (a *App) RegisterRoute(route *schema.Route) error {
	if err := a.Registry.Register(route); err != nil {
		return err
	}

	a.Logger.Info().
		Str("path", route.Path).
		Strs("methods", route.MethodList()).
		Msg("route registered")
	if a.Metrics != nil {
		a.Metrics.SetRoutes(a.Registry.Len())
	}
	return nil
}

// RegisterPlugin makes plugin available to handlers under name.
func (a *App) RegisterPlugin(name string, plugin any) error {
	replaced, err := a.Plugins.Register(name, plugin)
	if err != nil {
		return err
	}
	if replaced {
		a.Logger.Warn().Str("plugin", name).Msg("plugin replaced")
	} else {
		a.Logger.Debug().Str("plugin", name).Msg("plugin registered")
	}
	return nil
}

// Handler returns the HTTP handler for the routes registered so far.
func (a *App) Handler() http.Handler {
	return a.channel.Handler()
}

// Start starts serving on the configured address without blocking.
func (a *App) Start(ctx context.Context) error {
	if a.Registry.Len() == 0 {
		a.Logger.Warn().Msg("no routes registered")
	}
	return a.channel.Start(ctx)
}

// Addr returns the bound listen address.
func (a *App) Addr() string {
	return a.channel.Addr()
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	<-ctx.Done()
	a.Logger.Info().Msg("shutting down")

	return a.Shutdown()
}

// Shutdown gracefully stops the application. Later calls return the first
// call's result.
func (a *App) Shutdown() error {
	a.shutdownOnce.Do(func() {
		a.shutdownErr = a.shutdown()
	})
	return a.shutdownErr
}

func (a *App) shutdown() error {
	timeout := a.Config().Server.ShutdownTimeout.Duration
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error

	if err := a.channel.Stop(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("http server shutdown error")
		errs = append(errs, err)
	}

	if a.holder != nil {
		a.holder.Stop()
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
			errs = append(errs, err)
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return errors.Join(errs...)
}

// applyConfig applies the reloadable part of cfg.
func (a *App) applyConfig(cfg *config.Config) {
	a.mu.Lock()
	a.cfg = cfg
	a.mu.Unlock()

	a.Dispatcher.SetInfo(infoFrom(cfg.API))

	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	if a.Metrics != nil {
		a.Metrics.ObserveReload(nil)
	}
	a.Logger.Info().Int("version", cfg.API.Version).Msg("configuration applied")
}

func infoFrom(api config.APIConfig) formatter.Info {
	return formatter.Info{
		Version:     api.Version,
		License:     api.License,
		Description: api.Description,
	}
}

// SetupLogger builds the process logger from the logging config.
func SetupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func setupLoggerFromEnv() zerolog.Logger {
	return SetupLogger(config.LoggingConfig{
		Level:  os.Getenv(EnvLogLevel),
		Format: os.Getenv(EnvLogFormat),
	})
}
