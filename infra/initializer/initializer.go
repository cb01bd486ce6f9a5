// Package initializer builds the console's dependencies from configuration.
package initializer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/amirasaad/payconsole/infra"
	"github.com/amirasaad/payconsole/infra/cache"
	infra_eventbus "github.com/amirasaad/payconsole/infra/eventbus"
	"github.com/amirasaad/payconsole/infra/metrics"
	"github.com/amirasaad/payconsole/infra/migrate"
	"github.com/amirasaad/payconsole/infra/repository/audit"
	"github.com/amirasaad/payconsole/infra/repository/schedule"
	"github.com/amirasaad/payconsole/pkg/apiclient"
	"github.com/amirasaad/payconsole/pkg/app"
	"github.com/amirasaad/payconsole/pkg/config"
	"github.com/amirasaad/payconsole/pkg/eventbus"
	"github.com/amirasaad/payconsole/pkg/query"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// InitializeDependencies builds the logger, the backend client, the event
// bus, the query cache and the local repositories.
func InitializeDependencies(cfg *config.App) (deps *app.Deps, err error) {
	deps = &app.Deps{}
	logger := setupLogger(cfg.Log)
	deps.Logger = logger

	m := metrics.New()
	deps.Metrics = m

	deps.Client, err = newClient(cfg.Backend, logger, m)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	bus, err := initEventBus(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize event bus: %w", err)
	}
	deps.EventBus = bus
	if c, ok := bus.(io.Closer); ok {
		deps.Closers = append(deps.Closers, c)
	}

	store, err := initStore(cfg, logger)
	if err != nil {
		closeAll(deps.Closers)
		return nil, fmt.Errorf("failed to initialize query store: %w", err)
	}
	if c, ok := store.(io.Closer); ok {
		deps.Closers = append(deps.Closers, c)
	}
	deps.Cache = query.New(store,
		query.WithBus(bus),
		query.WithLogger(logger),
		query.WithObserver(m),
	)

	db, err := initDatabase(cfg, logger)
	if err != nil {
		closeAll(deps.Closers)
		return nil, err
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			deps.Closers = append(deps.Closers, sqlDB)
		}
		deps.Schedules = schedule.New(db)
		deps.AuditLog = audit.New(db)
	} else {
		logger.Warn("No database configured; report schedules and audit log are kept in memory")
		deps.Schedules = schedule.NewMemory()
		deps.AuditLog = audit.NewMemory()
	}

	return deps, nil
}

func newClient(cfg *config.Backend, logger *slog.Logger, observer apiclient.Observer) (*apiclient.Client, error) {
	if cfg == nil {
		return nil, errors.New("backend configuration is missing")
	}
	return apiclient.New(
		apiclient.Config{
			BaseURL:   cfg.BaseURL,
			Timeout:   cfg.Timeout,
			UserAgent: cfg.UserAgent,
		},
		apiclient.WithTokenSource(apiclient.StaticToken(cfg.Token)),
		apiclient.WithLogger(logger),
		apiclient.WithObserver(observer),
	)
}

// initDatabase returns nil without error when DATABASE_URL is empty.
func initDatabase(cfg *config.App, logger *slog.Logger) (*gorm.DB, error) {
	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if errors.Is(err, infra.ErrNoDatabase) {
		return nil, nil
	}
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, err
	}
	if err := migrate.Up(db, logger); err != nil {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return db, nil
}

// initStore picks the query cache store. QUERY_STORE=redis shares entries
// between instances.
func initStore(cfg *config.App, logger *slog.Logger) (query.Store, error) {
	name := "memory"
	prefix := "pc:query:"
	if cfg.Query != nil {
		if cfg.Query.Store != "" {
			name = strings.ToLower(cfg.Query.Store)
		}
		if cfg.Query.Prefix != "" {
			prefix = cfg.Query.Prefix
		}
	}
	switch name {
	case "memory":
		return cache.NewMemoryCache(), nil
	case "redis":
		client, err := newRedisClient(cfg.Redis)
		if err != nil {
			return nil, err
		}
		if err := client.Ping(context.Background()).Err(); err != nil {
			_ = client.Close()
			logger.Warn("Redis unavailable; using in-memory query store", "error", err)
			return cache.NewMemoryCache(), nil
		}
		return cache.NewRedisCache(client, prefix, logger), nil
	default:
		return nil, fmt.Errorf("unsupported query store %q", name)
	}
}

// initEventBus picks the bus driver. An explicit driver with no address is
// a configuration error; an unreachable Redis or Kafka falls back to the
// in-memory bus so the console still works for a single instance.
func initEventBus(cfg *config.App, logger *slog.Logger) (eventbus.Bus, error) {
	driver := "memory"
	if cfg.EventBus != nil && cfg.EventBus.Driver != "" {
		driver = strings.ToLower(cfg.EventBus.Driver)
	}

	switch driver {
	case "memory":
		return infra_eventbus.NewWithMemory(logger), nil

	case "redis":
		client, err := newRedisClient(cfg.Redis)
		if err != nil {
			return nil, err
		}
		stream, group := "payconsole:events", "payconsole"
		if cfg.EventBus.Stream != "" {
			stream = cfg.EventBus.Stream
		}
		if cfg.EventBus.Group != "" {
			group = cfg.EventBus.Group
		}
		bus, err := infra_eventbus.NewWithRedis(client, stream, instanceGroup(group), logger)
		if err != nil {
			_ = client.Close()
			logger.Warn("Redis event bus unavailable; falling back to memory", "error", err)
			return infra_eventbus.NewWithMemory(logger), nil
		}
		return bus, nil

	case "kafka":
		if cfg.Kafka == nil || strings.TrimSpace(cfg.Kafka.Brokers) == "" {
			return nil, errors.New("KAFKA_BROKERS is required for the kafka event bus")
		}
		kcfg := &infra_eventbus.KafkaEventBusConfig{
			GroupID:       instanceGroup(cfg.Kafka.GroupID),
			Topic:         cfg.Kafka.Topic,
			SASLUsername:  cfg.Kafka.SASLUsername,
			SASLPassword:  cfg.Kafka.SASLPassword,
			TLSEnabled:    cfg.Kafka.TLSEnabled,
			TLSSkipVerify: cfg.Kafka.TLSSkipVerify,
		}
		bus, err := infra_eventbus.NewWithKafka(cfg.Kafka.Brokers, logger, kcfg)
		if err != nil {
			logger.Warn("Kafka event bus unavailable; falling back to memory", "error", err)
			return infra_eventbus.NewWithMemory(logger), nil
		}
		return bus, nil

	default:
		return nil, fmt.Errorf("unsupported event bus driver %q", driver)
	}
}

func newRedisClient(cfg *config.Redis) (*redis.Client, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return redis.NewClient(opts), nil
}

// instanceGroup suffixes group with the host name so each console
// instance consumes every event.
func instanceGroup(group string) string {
	if group == "" {
		group = "payconsole"
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		return group
	}
	return group + "-" + host
}

func closeAll(closers []io.Closer) {
	for i := len(closers) - 1; i >= 0; i-- {
		_ = closers[i].Close()
	}
}
