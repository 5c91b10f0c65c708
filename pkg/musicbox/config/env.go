package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// WithEnv applies environment variable overrides using the provided prefix.
//
// Server:
//   PORT - Server port (default: "8080")
//   ENVIRONMENT - Runtime environment (default: "development")
//   JWT_SECRET - HS256 signing secret for bearer tokens
//   METRICS_ENABLED - Instrument the storage backend with Prometheus counters
//   EVENT_LOGGING - Log lifecycle events (default: true)
//
// Database:
//   DATABASE_URL - "memory" or "postgres://..." / "postgresql://..."
//   DB_SCHEMA - Optional search_path for Postgres connections
//   AUTO_MIGRATE - Apply the embedded schema on startup
//
// Storage:
//   STORAGE_URL - one of:
//                 - "memory://" - In-memory storage (default)
//                 - "file:///path/to/data" - Filesystem storage
//                 - "s3://bucket?region=us-east-1&endpoint=http://localhost:9000&path_style=true"
//
// Cache:
//   REDIS_URL - "redis://host:6379/0" enables the read cache
//   CACHE_TTL - Cache entry lifetime as a Go duration (default: "10m")
func WithEnv(prefix string) Option {
	return func(c *ServerConfig) error {
		if v, ok := lookupEnv(prefix, "PORT"); ok && v != "" {
			c.Port = v
		}
		if v, ok := lookupEnv(prefix, "ENVIRONMENT"); ok && v != "" {
			c.Environment = v
		}
		if v, ok := lookupEnv(prefix, "JWT_SECRET"); ok && v != "" {
			c.JWTSecret = v
		}
		if v, ok, err := parseBoolEnv(prefix, "METRICS_ENABLED"); err != nil {
			return err
		} else if ok {
			c.EnableMetrics = v
		}
		if v, ok, err := parseBoolEnv(prefix, "EVENT_LOGGING"); err != nil {
			return err
		} else if ok {
			c.EnableEventLogging = v
		}

		if err := applyDatabaseEnv(prefix, c); err != nil {
			return err
		}
		if err := applyStorageEnv(prefix, c); err != nil {
			return err
		}
		return applyCacheEnv(prefix, c)
	}
}

// applyDatabaseEnv applies database configuration from environment
func applyDatabaseEnv(prefix string, c *ServerConfig) error {
	if v, ok := lookupEnv(prefix, "DB_SCHEMA"); ok && v != "" {
		c.DBSchema = v
	}
	if v, ok, err := parseBoolEnv(prefix, "AUTO_MIGRATE"); err != nil {
		return err
	} else if ok {
		c.AutoMigrate = v
	}

	dbURL, hasURL := lookupEnv(prefix, "DATABASE_URL")
	if !hasURL || dbURL == "" || dbURL == "memory" {
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
		return nil
	}

	if strings.HasPrefix(dbURL, "postgresql://") || strings.HasPrefix(dbURL, "postgres://") {
		c.DatabaseType = "postgres"
		c.DatabaseURL = dbURL
		return nil
	}

	return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgresql://...')", dbURL)
}

// applyStorageEnv applies storage configuration from environment
func applyStorageEnv(prefix string, c *ServerConfig) error {
	storageURL, hasURL := lookupEnv(prefix, "STORAGE_URL")

	if !hasURL || storageURL == "" || storageURL == "memory" || storageURL == "memory://" {
		c.StorageType = "memory"
		return nil
	}

	switch {
	case strings.HasPrefix(storageURL, "file://"):
		path := strings.TrimPrefix(storageURL, "file://")
		if path == "" {
			return fmt.Errorf("filesystem path cannot be empty in STORAGE_URL")
		}
		c.StorageType = "fs"
		c.FSBaseDir = path
		return nil
	case strings.HasPrefix(storageURL, "s3://"):
		return applyS3Storage(storageURL, c)
	}

	return fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://', 'file://...', or 's3://...')", storageURL)
}

// applyS3Storage configures S3 storage from URL
// Format: s3://bucket?region=us-east-1&endpoint=http://localhost:9000&path_style=true
func applyS3Storage(raw string, c *ServerConfig) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid STORAGE_URL: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("S3 bucket name cannot be empty in STORAGE_URL")
	}

	c.StorageType = "s3"
	c.S3.Bucket = u.Host
	c.S3.Region = "us-east-1"

	q := u.Query()
	if v := q.Get("region"); v != "" {
		c.S3.Region = v
	}
	if v := q.Get("endpoint"); v != "" {
		c.S3.Endpoint = v
	}
	if v := q.Get("path_style"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid path_style in STORAGE_URL: %w", err)
		}
		c.S3.UsePathStyle = parsed
	}
	if v := q.Get("create_bucket"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid create_bucket in STORAGE_URL: %w", err)
		}
		c.S3.CreateBucketIfNotExist = parsed
	}

	if accessKey, ok := os.LookupEnv("AWS_ACCESS_KEY_ID"); ok && accessKey != "" {
		c.S3.AccessKeyID = accessKey
	}
	if secretKey, ok := os.LookupEnv("AWS_SECRET_ACCESS_KEY"); ok && secretKey != "" {
		c.S3.SecretAccessKey = secretKey
	}
	if region, ok := os.LookupEnv("AWS_REGION"); ok && region != "" && q.Get("region") == "" {
		c.S3.Region = region
	}
	return nil
}

// applyCacheEnv applies Redis cache configuration from environment
func applyCacheEnv(prefix string, c *ServerConfig) error {
	if v, ok := lookupEnv(prefix, "REDIS_URL"); ok && v != "" {
		if !strings.HasPrefix(v, "redis://") && !strings.HasPrefix(v, "rediss://") {
			return fmt.Errorf("unsupported REDIS_URL format: %s", v)
		}
		c.RedisURL = v
	}
	if raw, ok := lookupEnv(prefix, "CACHE_TTL"); ok && raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration for %sCACHE_TTL: %w", prefix, err)
		}
		c.CacheTTL = ttl
	}
	return nil
}

func lookupEnv(prefix, key string) (string, bool) {
	return os.LookupEnv(prefix + key)
}

func parseBoolEnv(prefix, key string) (bool, bool, error) {
	raw, ok := lookupEnv(prefix, key)
	if !ok || raw == "" {
		return false, false, nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("invalid boolean for %s%s: %w", prefix, key, err)
	}
	return parsed, true, nil
}
