// Package monolith provides the application container and module interface.
package monolith

import (
	"context"

	"github.com/fd1az/triarb/internal/config"
	"github.com/fd1az/triarb/internal/di"
	"github.com/fd1az/triarb/internal/health"
	"github.com/fd1az/triarb/internal/logger"
	"github.com/fd1az/triarb/internal/ratelimit"
	"github.com/fd1az/triarb/internal/server"
)

// Service names registered by the monolith itself.
const (
	ConfigService      = "config"
	LoggerService      = "logger"
	RateLimiterService = "binanceRateLimiter"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	RateLimiter() *ratelimit.Limiter
	Services() di.ServiceRegistry
	// HTTPServer is nil unless the process serves the public API.
	HTTPServer() *server.Server
	// Health is nil when health probes are disabled.
	Health() *health.Server
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

type app struct {
	config    *config.Config
	logger    logger.LoggerInterface
	limiter   *ratelimit.Limiter
	container di.Container
	http      *server.Server
	health    *health.Server
}

// Option attaches optional infrastructure to the monolith.
type Option func(*app)

// WithHTTPServer lets modules mount routes on srv during Startup.
func WithHTTPServer(srv *server.Server) Option {
	return func(a *app) {
		a.http = srv
	}
}

// WithHealth lets modules register probes on h during Startup.
func WithHealth(h *health.Server) Option {
	return func(a *app) {
		a.health = h
	}
}

// New creates a new Monolith instance.
func New(cfg *config.Config, log logger.LoggerInterface, opts ...Option) *app {
	// One budget for every Binance REST call the process makes.
	limiter := ratelimit.New(cfg.Binance.RequestsPerMinute)

	container := di.NewContainer()
	container.Register(ConfigService, cfg)
	container.Register(LoggerService, log)
	container.Register(RateLimiterService, limiter)

	a := &app{
		config:    cfg,
		logger:    log,
		limiter:   limiter,
		container: container,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) RateLimiter() *ratelimit.Limiter {
	return a.limiter
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

func (a *app) HTTPServer() *server.Server {
	return a.http
}

func (a *app) Health() *health.Server {
	return a.health
}

// Container returns the DI container for module registration.
func (a *app) Container() di.Container {
	return a.container
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}
