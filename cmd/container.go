package main

import (
	"context"
	"fmt"
	"io"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/davidbz/repeatguard/internal/config"
	"github.com/davidbz/repeatguard/internal/domain"
	"github.com/davidbz/repeatguard/internal/http"
	"github.com/davidbz/repeatguard/internal/http/middleware"
	"github.com/davidbz/repeatguard/internal/observability"
	"github.com/davidbz/repeatguard/internal/store/breaker"
	"github.com/davidbz/repeatguard/internal/store/redis"
	"github.com/davidbz/repeatguard/internal/store/sqlite"
)

const storeConnectTimeout = 5 * time.Second

// stores is what the configured backend provides to the rest of the graph.
type stores struct {
	dig.Out

	Reader domain.HistoryStore
	Writer domain.HistoryWriter
	Closer io.Closer
}

func buildContainer() (*dig.Container, error) {
	container := dig.New()

	providers := []struct {
		name        string
		constructor any
	}{
		{"config", config.Load},
		{"config dependencies", config.ParseDependenciesConfig},
		{"logger", observability.InitLogger},
		{"history stores", newStores},
		{"config store", newConfigStore},
		{"history cache", newHistoryCache},
		{"similarity service", newSimilarityService},
		{"middleware chain", middleware.BuildMiddlewareChain},
		{"HTTP handler", http.NewHandler},
		{"HTTP server", http.NewServer},
	}

	for _, p := range providers {
		if err := container.Provide(p.constructor); err != nil {
			return nil, fmt.Errorf("failed to provide %s: %w", p.name, err)
		}
	}

	// The logger must be installed before anything else logs.
	if err := container.Invoke(func(*zap.Logger) {}); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", dig.RootCause(err))
	}

	return container, nil
}

// run builds the container, invokes fn and releases the history store afterwards.
func run(fn any) error {
	container, err := buildContainer()
	if err != nil {
		return err
	}

	defer func() {
		_ = container.Invoke(func(logger *zap.Logger, closer io.Closer) {
			if closeErr := closer.Close(); closeErr != nil {
				logger.Warn("failed to close history store", zap.Error(closeErr))
			}
			_ = logger.Sync()
		})
	}()

	if err := container.Invoke(fn); err != nil {
		return dig.RootCause(err)
	}

	return nil
}

func newStores(cfg *config.StoreConfig) (stores, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return stores{}, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return stores{Reader: withBreaker(store, cfg), Writer: store, Closer: store}, nil

	case config.DriverRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), storeConnectTimeout)
		defer cancel()

		store, err := redis.NewHistoryStore(ctx, client, cfg.RedisKeyPrefix, cfg.RedisRetention)
		if err != nil {
			_ = client.Close()
			return stores{}, fmt.Errorf("failed to open redis store: %w", err)
		}
		return stores{Reader: withBreaker(store, cfg), Writer: store, Closer: client}, nil

	default:
		return stores{}, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func withBreaker(store domain.HistoryStore, cfg *config.StoreConfig) domain.HistoryStore {
	return breaker.NewStore(store, breaker.Config{
		FailureThreshold: cfg.BreakerThreshold,
		OpenTimeout:      cfg.BreakerTimeout,
	})
}

func newConfigStore(cfg *config.EngineConfig) *domain.ConfigStore {
	return domain.NewConfigStore(cfg.SimilarityConfig())
}

func newHistoryCache(
	store domain.HistoryStore,
	engine *config.EngineConfig,
	storeCfg *config.StoreConfig,
) *domain.HistoryCache {
	return domain.NewHistoryCache(store,
		domain.WithCacheTTL(engine.CacheTTL),
		domain.WithHistoryLimit(engine.HistoryLimit),
		domain.WithFetchTimeout(storeCfg.FetchTimeout),
	)
}

func newSimilarityService(
	store domain.HistoryStore,
	cache *domain.HistoryCache,
	configStore *domain.ConfigStore,
	engine *config.EngineConfig,
) *domain.SimilarityService {
	return domain.NewSimilarityService(store, cache, configStore,
		domain.WithDeadline(engine.Deadline),
		domain.WithDemoCorpus(engine.DemoCorpusEnabled),
	)
}
