package app

import (
	"strings"
	"time"

	catalogdb "github.com/yungbote/catalog-backend/internal/data/db"
	"github.com/yungbote/catalog-backend/internal/observability"
	"github.com/yungbote/catalog-backend/internal/platform/envutil"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
	"github.com/yungbote/catalog-backend/internal/platform/neo4jdb"
	"github.com/yungbote/catalog-backend/internal/realtime/bus"
)

type Config struct {
	HTTPAddr       string
	AllowedOrigins []string
	AdminToken     string
	SnapshotPath   string

	DB    catalogdb.Config
	Neo4j neo4jdb.Config
	Redis bus.RedisConfig
	Otel  observability.OtelConfig
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		HTTPAddr:       envutil.String("HTTP_ADDR", ":8080", log),
		AllowedOrigins: splitList(envutil.String("CORS_ALLOWED_ORIGINS", "", log)),
		AdminToken:     envutil.String("CATALOG_ADMIN_TOKEN", "", nil),
		SnapshotPath:   envutil.String("CATALOG_SNAPSHOT_PATH", "", log),
		DB: catalogdb.Config{
			Driver:     envutil.String("CATALOG_DB_DRIVER", catalogdb.DriverPostgres, log),
			Host:       envutil.String("POSTGRES_HOST", "localhost", log),
			Port:       envutil.String("POSTGRES_PORT", "5432", log),
			User:       envutil.String("POSTGRES_USER", "postgres", log),
			Password:   envutil.String("POSTGRES_PASSWORD", "", nil),
			Name:       envutil.String("POSTGRES_NAME", "catalog", log),
			SQLitePath: envutil.String("SQLITE_PATH", "catalog.db", log),
		},
		Neo4j: neo4jdb.Config{
			URI:         envutil.String("NEO4J_URI", "", log),
			User:        envutil.String("NEO4J_USER", "neo4j", log),
			Password:    envutil.String("NEO4J_PASSWORD", "", nil),
			Database:    envutil.String("NEO4J_DATABASE", "", log),
			Timeout:     time.Duration(envutil.Int("NEO4J_TIMEOUT_SECONDS", 10, log)) * time.Second,
			MaxPoolSize: envutil.Int("NEO4J_MAX_POOL_SIZE", 20, log),
		},
		Redis: bus.RedisConfig{
			Addr:    envutil.String("REDIS_ADDR", "", log),
			Channel: envutil.String("REDIS_CHANNEL", "catalog-events", log),
		},
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false, log),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "catalog", log),
			Environment: envutil.String("DEPLOY_ENV", "development", log),
			Version:     envutil.String("SERVICE_VERSION", "dev", log),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Headers:     envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "", nil),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
			SampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 0.1, log),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
