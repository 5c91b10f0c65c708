package config

import (
	"time"

	s3storage "github.com/shahzod418/musicbox/pkg/musicbox/storage/s3"
)

// WithPort sets the HTTP port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		c.Port = port
		return nil
	}
}

// WithPostgres selects the Postgres repository
func WithPostgres(databaseURL, schema string) Option {
	return func(c *ServerConfig) error {
		c.DatabaseType = "postgres"
		c.DatabaseURL = databaseURL
		c.DBSchema = schema
		return nil
	}
}

// WithFilesystemStorage stores files below baseDir
func WithFilesystemStorage(baseDir string) Option {
	return func(c *ServerConfig) error {
		c.StorageType = "fs"
		c.FSBaseDir = baseDir
		return nil
	}
}

// WithS3Storage stores files in an S3-compatible bucket
func WithS3Storage(cfg s3storage.Config) Option {
	return func(c *ServerConfig) error {
		c.StorageType = "s3"
		c.S3 = cfg
		return nil
	}
}

// WithRedisCache enables the read cache
func WithRedisCache(redisURL string, ttl time.Duration) Option {
	return func(c *ServerConfig) error {
		c.RedisURL = redisURL
		if ttl > 0 {
			c.CacheTTL = ttl
		}
		return nil
	}
}

// WithMetrics toggles storage instrumentation
func WithMetrics(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableMetrics = enabled
		return nil
	}
}

func WithJWTSecret(secret string) Option {
	return func(c *ServerConfig) error {
		c.JWTSecret = secret
		return nil
	}
}
