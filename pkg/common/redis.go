package common

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/beam-cloud/satchel/pkg/types"
	"github.com/redis/go-redis/v9"
)

// RedisClient wraps a go-redis universal client so repositories and stores
// can share one configured connection pool.
type RedisClient struct {
	redis.UniversalClient
}

// WithClientName sets the CLIENT SETNAME applied to pool connections
func WithClientName(name string) func(*redis.UniversalOptions) {
	return func(uo *redis.UniversalOptions) {
		uo.ClientName = name
	}
}

// NewRedisClient creates a client for a single node or cluster depending on
// the configured mode, and verifies connectivity with a ping.
func NewRedisClient(config types.RedisConfig, options ...func(*redis.UniversalOptions)) (*RedisClient, error) {
	if len(config.Addrs) == 0 {
		return nil, fmt.Errorf("redis: no addresses configured")
	}

	opts := &redis.UniversalOptions{
		Addrs:           config.Addrs,
		Username:        config.Username,
		Password:        config.Password,
		ClientName:      config.ClientName,
		PoolSize:        config.PoolSize,
		MinIdleConns:    config.MinIdleConns,
		MaxIdleConns:    config.MaxIdleConns,
		ConnMaxIdleTime: config.ConnMaxIdleTime,
		ConnMaxLifetime: config.ConnMaxLifetime,
		DialTimeout:     config.DialTimeout,
		ReadTimeout:     config.ReadTimeout,
		WriteTimeout:    config.WriteTimeout,
		MaxRedirects:    config.MaxRedirects,
		MaxRetries:      config.MaxRetries,
		RouteByLatency:  config.RouteByLatency,
	}

	if config.EnableTLS {
		opts.TLSConfig = &tls.Config{
			InsecureSkipVerify: config.InsecureSkipVerify,
		}
	}

	for _, opt := range options {
		opt(opts)
	}

	var client redis.UniversalClient
	if config.Mode == types.RedisModeCluster {
		client = redis.NewClusterClient(opts.Cluster())
	} else {
		client = redis.NewClient(opts.Simple())
	}

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis: ping failed: %w", err)
	}

	return &RedisClient{UniversalClient: client}, nil
}
