package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "deskbook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultSessionTTL = 72 * time.Hour

	// Bounded retry for reads/writes racing a very recent write on another
	// connection: 3 attempts with a linearly growing delay (1s, 2s, 3s).
	DefaultProfileRetryAttempts = 3
	DefaultProfileRetryStep     = 1 * time.Second

	DefaultPaginationLimit = 100

	DefaultLogLevel = "info"
)
