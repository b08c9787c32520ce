package app

import (
	"strconv"
	"time"

	"github.com/yungbote/routemill-backend/internal/data/db"
	"github.com/yungbote/routemill-backend/internal/observability"
	"github.com/yungbote/routemill-backend/internal/platform/envutil"
	"github.com/yungbote/routemill-backend/internal/platform/logger"
	"github.com/yungbote/routemill-backend/internal/services/activity"
	"github.com/yungbote/routemill-backend/internal/services/browse"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Port        string
	Environment string

	DBDriver   string
	SQLitePath string
	Postgres   db.PostgresConfig

	RedisAddr     string
	RedisChannel  string
	StatsCacheTTL time.Duration

	JWTSecretKey string
	CORSOrigins  []string

	CatalogFile string
	SeedCatalog bool

	DefaultPageSize int
	MaxPageSize     int
	// AppendTimeout bounds one append request server-side.
	AppendTimeout time.Duration
	FreshWindow   time.Duration

	MetricsAddr string
	Otel        observability.OtelConfig

	ShutdownTimeout time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:        envutil.String("PORT", "8080"),
		Environment: envutil.String("ENVIRONMENT", "development"),

		DBDriver:   envutil.String("DB_DRIVER", DriverPostgres),
		SQLitePath: envutil.String("SQLITE_PATH", "file:routemill.db"),
		Postgres: db.PostgresConfig{
			Host:     envutil.String("POSTGRES_HOST", "localhost"),
			Port:     envutil.String("POSTGRES_PORT", "5432"),
			User:     envutil.String("POSTGRES_USER", "postgres"),
			Password: envutil.String("POSTGRES_PASSWORD", ""),
			Name:     envutil.String("POSTGRES_NAME", "routemill"),
			SSLMode:  envutil.String("POSTGRES_SSLMODE", "disable"),
		},

		RedisAddr:     envutil.String("REDIS_ADDR", ""),
		RedisChannel:  envutil.String("REDIS_CHANNEL", "routemill:sse"),
		StatsCacheTTL: envutil.Duration("STATS_CACHE_TTL", 10*time.Minute),

		JWTSecretKey: envutil.String("JWT_SECRET_KEY", ""),
		CORSOrigins:  envutil.List("CORS_ALLOWED_ORIGINS", nil),

		CatalogFile: envutil.String("CATALOG_FILE", ""),
		SeedCatalog: envutil.Bool("CATALOG_SEED", true),

		DefaultPageSize: envutil.Int("FEED_DEFAULT_PAGE_SIZE", activity.DefaultPageSize),
		MaxPageSize:     envutil.Int("FEED_MAX_PAGE_SIZE", activity.MaxPageSize),
		AppendTimeout:   envutil.Duration("APPEND_TIMEOUT", 10*time.Second),
		FreshWindow:     envutil.Duration("FRESH_SET_WINDOW", browse.DefaultFreshWindow),

		MetricsAddr: envutil.String("METRICS_ADDR", ""),
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "routemill"),
			Version:     envutil.String("SERVICE_VERSION", "dev"),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: parseFloat(envutil.String("OTEL_SAMPLER_RATIO", ""), 0.1),
		},

		ShutdownTimeout: envutil.Duration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
	cfg.Otel.Environment = cfg.Environment

	if cfg.JWTSecretKey == "" {
		log.Warn("JWT_SECRET_KEY is not set; every authenticated request will be rejected")
	}
	if cfg.DBDriver != DriverPostgres && cfg.DBDriver != DriverSQLite {
		log.Warn("Unknown DB_DRIVER, falling back to postgres", "driver", cfg.DBDriver)
		cfg.DBDriver = DriverPostgres
	}
	return cfg
}

func parseFloat(raw string, def float64) float64 {
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return f
}
