// Package cache keeps rendered dashboards in Redis. Keys carry the indicator
// table epoch and version, so a table change makes older entries unreachable
// and they age out through their TTL. Epochs are random per table, so
// processes sharing one Redis never read each other's entries.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/mentorpulse/pkg/logger"
	"github.com/okian/mentorpulse/pkg/metrics"
)

var (
	// ErrCacheMiss is returned when the requested key is not in the cache.
	ErrCacheMiss = errors.New("cache: key not found")

	// ErrCacheConnection is returned when Redis cannot be reached.
	ErrCacheConnection = errors.New("cache: connection failed")

	// ErrCacheSerialization is returned when a value cannot be encoded or decoded.
	ErrCacheSerialization = errors.New("cache: serialization failed")

	// ErrCacheNilValue is returned when attempting to cache a nil value.
	ErrCacheNilValue = errors.New("cache: value cannot be nil")
)

// Key prefixes.
const (
	PrefixDashboard    = "dashboard:"
	PrefixOrganization = "organization:"
)

// DefaultTTL bounds how long a dashboard survives without a table change.
const DefaultTTL = 5 * time.Minute

// Config holds Redis connection configuration.
type Config struct {
	Addr     string
	Password string
	DB       int
	// Namespace is prepended to every key.
	Namespace    string
	TTL          time.Duration
	PoolSize     int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns a configuration for a local Redis.
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Namespace:    "mentorpulse:",
		TTL:          DefaultTTL,
		PoolSize:     10,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// DashboardCache stores JSON-encoded dashboards with a TTL.
type DashboardCache struct {
	client    redis.Cmdable
	closer    func() error
	namespace string
	ttl       time.Duration
	log       logger.Logger
}

// Option configures a DashboardCache.
type Option func(*DashboardCache)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *DashboardCache) {
		if l != nil {
			c.log = l
		}
	}
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config, opts ...Option) (*DashboardCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	pingCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}

	c := NewWithClient(client, cfg, opts...)
	c.closer = client.Close
	return c, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client redis.Cmdable, cfg Config, opts ...Option) *DashboardCache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &DashboardCache{
		client:    client,
		namespace: cfg.Namespace,
		ttl:       ttl,
		log:       logger.Get().Named("cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close closes the connection when the cache owns it.
func (c *DashboardCache) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

// DashboardKey is the key of the global dashboard at a table epoch and
// version.
func (c *DashboardCache) DashboardKey(epoch string, version int64) string {
	return c.namespace + PrefixDashboard + epoch + ":" + strconv.FormatInt(version, 10)
}

// OrganizationKey is the key of an organization dashboard at a table epoch
// and version.
func (c *DashboardCache) OrganizationKey(organization, epoch string, version int64) string {
	return c.namespace + PrefixDashboard + PrefixOrganization + organization + ":" + epoch + ":" + strconv.FormatInt(version, 10)
}

// Get decodes the value at key into dest. It returns ErrCacheMiss when the
// key is absent.
func (c *DashboardCache) Get(ctx context.Context, key string, dest any) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss()
			return ErrCacheMiss
		}
		metrics.RecordErrorByComponent("cache", "get")
		return fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		metrics.RecordErrorByComponent("cache", "decode")
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	metrics.RecordCacheHit()
	return nil
}

// Set stores value at key with the configured TTL.
func (c *DashboardCache) Set(ctx context.Context, key string, value any) error {
	if value == nil {
		return ErrCacheNilValue
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		metrics.RecordErrorByComponent("cache", "set")
		c.log.Warn(ctx, "cache write failed", logger.String("key", key), logger.Error(err))
		return fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}
	return nil
}
