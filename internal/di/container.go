package di

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/drydeck/drydeck/internal/adapters/storage"
	"github.com/drydeck/drydeck/internal/commands"
	addresscmd "github.com/drydeck/drydeck/internal/commands/addresses"
	httpapi "github.com/drydeck/drydeck/internal/http"
	"github.com/drydeck/drydeck/internal/locations"
	"github.com/drydeck/drydeck/internal/logging"
	"github.com/drydeck/drydeck/internal/logging/console"
	"github.com/drydeck/drydeck/internal/logging/gologger"
	"github.com/drydeck/drydeck/internal/migrations"
	"github.com/drydeck/drydeck/internal/runtimeconfig"
	"github.com/drydeck/drydeck/internal/server"
	"github.com/drydeck/drydeck/pkg/interfaces"
)

// ErrMigrationsUnavailable is returned when migrations are requested but no
// SQL source was supplied.
var ErrMigrationsUnavailable = errors.New("di: migrations source not configured")

// Container wires module dependencies.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logger         interfaces.Logger

	bunDB         *bun.DB
	ownsDB        bool
	migrationsFS  fs.FS
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	addressRepo locations.AddressRepository
	normalizer  locations.AddressNormalizer
	addressSvc  locations.Service

	metrics  *server.Metrics
	commands *addresscmd.Handlers
	adminAPI *httpapi.AdminAPI
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider selected by Logging.Provider.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithBunDB supplies an existing database handle. The container does not
// close it.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithMigrationsFS sets the SQL source used for auto-migration and Migrator.
func WithMigrationsFS(source fs.FS) Option {
	return func(c *Container) {
		c.migrationsFS = source
	}
}

// WithCache overrides the default cache service.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithAddressRepository overrides the repository chosen from Storage.Driver.
func WithAddressRepository(repo locations.AddressRepository) Option {
	return func(c *Container) {
		c.addressRepo = repo
	}
}

// WithNormalizer overrides the PostGIS normalizer.
func WithNormalizer(normalizer locations.AddressNormalizer) Option {
	return func(c *Container) {
		c.normalizer = normalizer
	}
}

// WithAddressService overrides the default address service binding.
func WithAddressService(svc locations.Service) Option {
	return func(c *Container) {
		c.addressSvc = svc
	}
}

// NewContainer validates cfg and wires storage, services, commands and the
// admin API. Storage is opened and migrated eagerly.
func NewContainer(ctx context.Context, cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLogging(); err != nil {
		return nil, err
	}
	if err := c.configureStorage(ctx); err != nil {
		return nil, err
	}
	if err := c.configureMigrations(ctx); err != nil {
		c.Close()
		return nil, err
	}
	c.configureCacheDefaults()
	c.configureRepositories()

	if c.normalizer == nil && cfg.Features.Normalizer && c.bunDB != nil {
		c.normalizer = locations.NewPostGISNormalizer(c.bunDB)
	}

	if c.addressSvc == nil {
		svcOpts := []locations.ServiceOption{
			locations.WithLogger(logging.LocationsLogger(c.loggerProvider)),
		}
		if c.normalizer != nil {
			svcOpts = append(svcOpts, locations.WithNormalizer(c.normalizer))
		}
		c.addressSvc = locations.NewService(c.addressRepo, svcOpts...)
	}

	var observer commands.Observer
	if cfg.Features.Metrics {
		c.metrics = server.NewMetrics()
		observer = c.metrics
	}
	c.commands = addresscmd.NewHandlers(c.addressSvc, commands.CommandLogger(c.loggerProvider, "addresses"), observer)

	c.adminAPI = httpapi.NewAdminAPI(
		httpapi.WithBasePath(cfg.HTTP.BasePath),
		httpapi.WithAddressService(c.addressSvc),
		httpapi.WithCommandHandlers(c.commands),
		httpapi.WithLogger(logging.HTTPLogger(c.loggerProvider)),
	)

	c.logger.Info("container.ready",
		"driver", c.driver(),
		"cache", c.cacheService != nil,
		"normalizer", c.normalizer != nil,
		"metrics", c.metrics != nil,
	)
	return c, nil
}

func (c *Container) driver() string {
	return strings.ToLower(strings.TrimSpace(c.Config.Storage.Driver))
}

func (c *Container) configureLogging() error {
	if c.loggerProvider == nil {
		cfg := c.Config.Logging
		switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
		case "gologger":
			provider, err := gologger.NewProvider(gologger.Config{
				Level:     cfg.Level,
				Format:    cfg.Format,
				AddSource: cfg.AddSource,
				Focus:     cfg.Focus,
			})
			if err != nil {
				return fmt.Errorf("di: logger provider: %w", err)
			}
			c.loggerProvider = provider
		case "none":
		default:
			level, err := console.ParseLevel(cfg.Level)
			if err != nil {
				return fmt.Errorf("di: logger provider: %w", err)
			}
			c.loggerProvider = console.NewProvider(console.Options{Level: level})
		}
	}
	c.logger = logging.ModuleLogger(c.loggerProvider, "")
	return nil
}

func (c *Container) configureStorage(ctx context.Context) error {
	if c.bunDB != nil || c.addressRepo != nil || c.driver() == runtimeconfig.DriverMemory {
		return nil
	}
	cfg := c.Config.Storage
	db, err := storage.Open(ctx, storage.Options{
		Driver:          cfg.Driver,
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		PingTimeout:     cfg.PingTimeout,
		Debug:           cfg.Debug,
		Logger:          logging.StorageLogger(c.loggerProvider),
	})
	if err != nil {
		return fmt.Errorf("di: open storage: %w", err)
	}
	c.bunDB = db
	c.ownsDB = true
	return nil
}

func (c *Container) configureMigrations(ctx context.Context) error {
	if c.bunDB == nil || !c.Config.Storage.AutoMigrate || c.migrationsFS == nil {
		return nil
	}
	runner, err := c.Migrator()
	if err != nil {
		return err
	}
	if _, err := runner.Up(ctx); err != nil {
		return fmt.Errorf("di: auto-migrate: %w", err)
	}
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled || c.bunDB == nil {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.Config.Cache.TTL > 0 {
			cfg.TTL = c.Config.Cache.TTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err != nil {
			c.logger.Warn("cache.disabled", "error", err)
			return
		}
		c.cacheService = service
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureRepositories() {
	if c.addressRepo != nil {
		return
	}
	if c.bunDB != nil {
		c.addressRepo = locations.NewBunAddressRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
		return
	}
	c.addressRepo = locations.NewMemoryRepository()
}

// Migrator returns a runner over the configured SQL source.
func (c *Container) Migrator() (*migrations.Runner, error) {
	if c.bunDB == nil {
		return nil, migrations.ErrDatabaseRequired
	}
	if c.migrationsFS == nil {
		return nil, ErrMigrationsUnavailable
	}
	return migrations.NewRunner(c.bunDB, c.migrationsFS,
		migrations.WithLogger(logging.MigrationsLogger(c.loggerProvider)),
	)
}

// Server builds the HTTP server for the admin API.
func (c *Container) Server() (*server.Server, error) {
	opts := []server.Option{
		server.WithLogger(logging.HTTPLogger(c.loggerProvider)),
		server.WithHealthCheck(c.HealthCheck),
	}
	if c.metrics != nil {
		opts = append(opts, server.WithMetrics(c.metrics))
	}
	return server.New(c.Config.HTTP, c.adminAPI, opts...)
}

// HealthCheck pings the database when one is configured.
func (c *Container) HealthCheck(ctx context.Context) error {
	if c.bunDB == nil {
		return nil
	}
	timeout := c.Config.Storage.PingTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.bunDB.PingContext(ctx)
}

// Close releases the database handle when the container opened it.
func (c *Container) Close() error {
	if c == nil || c.bunDB == nil || !c.ownsDB {
		return nil
	}
	err := c.bunDB.Close()
	c.bunDB = nil
	return err
}

// DB exposes the bun handle, nil for the memory driver.
func (c *Container) DB() *bun.DB {
	return c.bunDB
}

// Logger returns the root logger.
func (c *Container) Logger() interfaces.Logger {
	return c.logger
}

// LoggerProvider returns the configured provider, nil when logging is off.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// AddressRepository returns the active repository.
func (c *Container) AddressRepository() locations.AddressRepository {
	return c.addressRepo
}

// AddressService returns the address service.
func (c *Container) AddressService() locations.Service {
	return c.addressSvc
}

// Commands returns the address command handlers.
func (c *Container) Commands() *addresscmd.Handlers {
	return c.commands
}

// AdminAPI returns the HTTP admin API.
func (c *Container) AdminAPI() *httpapi.AdminAPI {
	return c.adminAPI
}

// Metrics returns the Prometheus collectors, nil when disabled.
func (c *Container) Metrics() *server.Metrics {
	return c.metrics
}
