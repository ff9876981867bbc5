package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Tracking TrackingConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=rider_tracking"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

// TrackingConfig holds the tolerances the engine treats as deliberate policy
// choices rather than hard-coded constants.
type TrackingConfig struct {
	// MaxFutureSkew bounds how far ahead of ingest time a device timestamp
	// may be before the ping is rejected.
	MaxFutureSkew time.Duration `env:"TRACK_MAX_FUTURE_SKEW, default=5m"`
	// DefaultHistoryLimit applies when a history query omits limit.
	DefaultHistoryLimit int `env:"TRACK_HISTORY_LIMIT_DEFAULT, default=100"`
	// MaxHistoryLimit is the hard cap on any history result size.
	MaxHistoryLimit int `env:"TRACK_HISTORY_LIMIT_MAX, default=500"`
	// OfflineCutoff is the staleness threshold used when a request or the
	// periodic monitor does not supply its own.
	OfflineCutoff time.Duration `env:"TRACK_OFFLINE_CUTOFF, default=30m"`
	// PresenceScanInterval is the period of the background presence monitor.
	PresenceScanInterval time.Duration `env:"TRACK_PRESENCE_SCAN_INTERVAL, default=1m"`
	// IngestWorkers is the number of sharded batch ingest workers.
	IngestWorkers int `env:"TRACK_INGEST_WORKERS, default=8"`
	// LocationCacheTTL bounds the lifetime of cached latest locations.
	LocationCacheTTL time.Duration `env:"TRACK_LOCATION_CACHE_TTL, default=24h"`
	// RetentionMaxAge enables the background retention sweep when positive:
	// pings measured earlier than now-RetentionMaxAge are hard-deleted. Zero
	// keeps everything forever.
	RetentionMaxAge time.Duration `env:"TRACK_RETENTION_MAX_AGE, default=0"`
	// RetentionSweepInterval is the period of the retention sweep.
	RetentionSweepInterval time.Duration `env:"TRACK_RETENTION_SWEEP_INTERVAL, default=1h"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
