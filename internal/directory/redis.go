// Package directory publishes the bean names of a process into Redis so
// management tools can discover beans across nodes.
package directory

import (
	"context"
	"os"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/toyz/mbean/internal/errors"
	"github.com/toyz/mbean/internal/objectname"
	"github.com/toyz/mbean/pkg/mbean"
)

// RedisConfig holds the directory configuration
type RedisConfig struct {
	// Addr is the Redis server address (host:port)
	Addr string
	// Password is the Redis password (optional)
	Password string
	// DB is the Redis database number
	DB int
	// Prefix is prepended to every key
	Prefix string
	// Node identifies this process; defaults to the host name
	Node string
	// Timeout bounds each Redis call made on behalf of a registration
	Timeout time.Duration
}

// DefaultRedisConfig returns a default directory configuration
func DefaultRedisConfig() RedisConfig {
	node, err := os.Hostname()
	if err != nil || node == "" {
		node = "local"
	}
	return RedisConfig{
		Addr:    "localhost:6379",
		Prefix:  "mbean:",
		Node:    node,
		Timeout: 2 * time.Second,
	}
}

// Directory is a mbean.Server that mirrors every registration of the
// wrapped server into Redis. The wrapped server stays authoritative: Redis
// failures are logged and never undo a local registration.
type Directory struct {
	inner  mbean.Server
	client *redis.Client
	config RedisConfig
	logger *zap.Logger
}

var _ mbean.Server = (*Directory)(nil)

// NewWithConfig connects to Redis and wraps inner
func NewWithConfig(inner mbean.Server, config RedisConfig, logger *zap.Logger) (*Directory, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.WrapTransportError(config.Addr, err)
	}
	return NewWithClient(inner, client, config, logger), nil
}

// NewWithClient wraps inner using an existing Redis client
func NewWithClient(inner mbean.Server, client *redis.Client, config RedisConfig, logger *zap.Logger) *Directory {
	defaults := DefaultRedisConfig()
	if config.Prefix == "" {
		config.Prefix = defaults.Prefix
	}
	if config.Node == "" {
		config.Node = defaults.Node
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if inner == nil {
		inner = mbean.DefaultServer()
	}
	if logger == nil {
		logger = mbean.Logger()
	}
	return &Directory{
		inner:  inner,
		client: client,
		config: config,
		logger: logger.With(zap.String("node", config.Node)),
	}
}

// Node returns the node name this directory publishes under
func (d *Directory) Node() string { return d.config.Node }

func (d *Directory) nodesKey() string { return d.config.Prefix + "nodes" }

func (d *Directory) nodeKey(node string) string { return d.config.Prefix + "node:" + node }

// RegisterBean registers on the wrapped server, then publishes the name
func (d *Directory) RegisterBean(name string, bean mbean.DynamicBean) error {
	if err := d.inner.RegisterBean(name, bean); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.config.Timeout)
	defer cancel()

	_, err := d.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, d.nodeKey(d.config.Node), name)
		pipe.SAdd(ctx, d.nodesKey(), d.config.Node)
		return nil
	})
	if err != nil {
		d.logger.Warn("publishing bean failed", zap.String("bean", name), zap.Error(err))
	}
	return nil
}

// UnregisterBean unregisters from the wrapped server, then withdraws the name
func (d *Directory) UnregisterBean(name string) error {
	if err := d.inner.UnregisterBean(name); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.config.Timeout)
	defer cancel()

	if err := d.client.SRem(ctx, d.nodeKey(d.config.Node), name).Err(); err != nil {
		d.logger.Warn("withdrawing bean failed", zap.String("bean", name), zap.Error(err))
	}
	return nil
}

// Lookup finds a bean of this process
func (d *Directory) Lookup(name string) (mbean.DynamicBean, bool) {
	return d.inner.Lookup(name)
}

// Names lists the beans of this process matching pattern
func (d *Directory) Names(pattern string) ([]string, error) {
	return d.inner.Names(pattern)
}

// Nodes lists the nodes that published at least once
func (d *Directory) Nodes(ctx context.Context) ([]string, error) {
	nodes, err := d.client.SMembers(ctx, d.nodesKey()).Result()
	if err != nil {
		return nil, errors.WrapTransportError(d.config.Addr, err)
	}
	sort.Strings(nodes)
	return nodes, nil
}

// ClusterNames lists the published bean names of every node that match
// pattern, keyed by node. An empty pattern matches everything.
func (d *Directory) ClusterNames(ctx context.Context, pattern string) (map[string][]string, error) {
	if pattern == "" {
		pattern = "*:*"
	}
	p, err := objectname.ParsePattern(pattern)
	if err != nil {
		return nil, err
	}
	nodes, err := d.Nodes(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]string, len(nodes))
	for _, node := range nodes {
		names, err := d.client.SMembers(ctx, d.nodeKey(node)).Result()
		if err != nil {
			return nil, errors.WrapTransportError(d.config.Addr, err)
		}
		var matched []string
		for _, name := range names {
			if p.MatchString(name) {
				matched = append(matched, name)
			}
		}
		sort.Strings(matched)
		out[node] = matched
	}
	return out, nil
}

// Withdraw removes everything this node published
func (d *Directory) Withdraw(ctx context.Context) error {
	_, err := d.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, d.nodeKey(d.config.Node))
		pipe.SRem(ctx, d.nodesKey(), d.config.Node)
		return nil
	})
	if err != nil {
		return errors.WrapTransportError(d.config.Addr, err)
	}
	return nil
}

// Close withdraws this node and closes the Redis connection
func (d *Directory) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), d.config.Timeout)
	defer cancel()

	werr := d.Withdraw(ctx)
	if err := d.client.Close(); err != nil {
		return err
	}
	return werr
}
