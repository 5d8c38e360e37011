package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/davidbz/repeatguard/internal/domain"
	"github.com/davidbz/repeatguard/internal/observability"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Config represents the service configuration.
type Config struct {
	Server ServerConfig
	CORS   CORSConfig
	Engine EngineConfig
	Store  StoreConfig
	Log    observability.LogConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int `env:"SERVER_PORT"          envDefault:"8080"`
	ReadTimeout  int `env:"SERVER_READ_TIMEOUT"  envDefault:"30"`
	WriteTimeout int `env:"SERVER_WRITE_TIMEOUT" envDefault:"30"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,PATCH,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization,X-Wallet-Address"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// EngineConfig seeds the similarity engine. Everything up to ContextInjectionEnabled can be
// changed at runtime through the config endpoint.
type EngineConfig struct {
	Enabled                 bool          `env:"SIMILARITY_ENABLED"                   envDefault:"true"`
	Threshold               float64       `env:"SIMILARITY_THRESHOLD"                 envDefault:"0.7"`
	MaxMatches              int           `env:"SIMILARITY_MAX_MATCHES"               envDefault:"3"`
	MinPromptLength         int           `env:"SIMILARITY_MIN_PROMPT_LENGTH"         envDefault:"10"`
	MaxHistoryDays          int           `env:"SIMILARITY_MAX_HISTORY_DAYS"          envDefault:"30"`
	ExcludeCurrentJob       bool          `env:"SIMILARITY_EXCLUDE_CURRENT_JOB"       envDefault:"true"`
	ContextInjectionEnabled bool          `env:"SIMILARITY_CONTEXT_INJECTION_ENABLED" envDefault:"true"`
	DemoCorpusEnabled       bool          `env:"SIMILARITY_DEMO_CORPUS"               envDefault:"false"`
	Deadline                time.Duration `env:"SIMILARITY_DEADLINE"                  envDefault:"500ms"`
	CacheTTL                time.Duration `env:"SIMILARITY_CACHE_TTL"                 envDefault:"5m"`
	HistoryLimit            int           `env:"SIMILARITY_HISTORY_LIMIT"             envDefault:"50"`
}

// SimilarityConfig returns the runtime-tunable part of the engine settings.
func (e EngineConfig) SimilarityConfig() domain.SimilarityConfig {
	return domain.SimilarityConfig{
		Enabled:                 e.Enabled,
		SimilarityThreshold:     e.Threshold,
		MaxMatches:              e.MaxMatches,
		MinPromptLength:         e.MinPromptLength,
		MaxHistoryDays:          e.MaxHistoryDays,
		ExcludeCurrentJob:       e.ExcludeCurrentJob,
		ContextInjectionEnabled: e.ContextInjectionEnabled,
	}
}

// StoreConfig selects and configures the history backend.
type StoreConfig struct {
	Driver           string        `env:"STORE_DRIVER"            envDefault:"sqlite"`
	SQLitePath       string        `env:"STORE_SQLITE_PATH"       envDefault:"data/history.db"`
	RedisAddr        string        `env:"STORE_REDIS_ADDR"        envDefault:"localhost:6379"`
	RedisPassword    string        `env:"STORE_REDIS_PASSWORD"`
	RedisDB          int           `env:"STORE_REDIS_DB"          envDefault:"0"`
	RedisKeyPrefix   string        `env:"STORE_REDIS_KEY_PREFIX"  envDefault:"history:"`
	RedisRetention   time.Duration `env:"STORE_REDIS_RETENTION"   envDefault:"720h"`
	FetchTimeout     time.Duration `env:"STORE_FETCH_TIMEOUT"     envDefault:"5s"`
	BreakerThreshold int           `env:"STORE_BREAKER_THRESHOLD" envDefault:"5"`
	BreakerTimeout   time.Duration `env:"STORE_BREAKER_TIMEOUT"   envDefault:"30s"`
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out
	*ServerConfig
	*CORSConfig
	*EngineConfig
	*StoreConfig
	*observability.LogConfig
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		dig.Out{},
		&cfg.Server,
		&cfg.CORS,
		&cfg.Engine,
		&cfg.Store,
		&cfg.Log,
	}
}
