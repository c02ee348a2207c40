package snapshot

import (
	"fmt"
	"time"
)

// Config selects and configures a store.
type Config struct {
	// Backend is "memory" (default), "file", "redis" or "s3".
	Backend string

	// Dir is the FileStore directory.
	Dir string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// TTL expires Redis snapshots. Zero keeps them.
	TTL time.Duration

	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	PathStyle bool
}

// Open builds the store described by cfg.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil

	case "file":
		return NewFileStore(cfg.Dir)

	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("snapshot: redis backend needs an address")
		}
		opts := []RedisOption{WithTTL(cfg.TTL)}
		if cfg.RedisPrefix != "" {
			opts = append(opts, WithPrefix(cfg.RedisPrefix))
		}
		return NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, opts...), nil

	case "s3":
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("snapshot: s3 backend needs a bucket")
		}
		client := NewS3Client(S3ClientConfig{
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			PathStyle: cfg.PathStyle,
		})
		return NewS3Store(client, cfg.Bucket, cfg.Prefix), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
