// Package registry discovers memcached nodes.
//
// EtcdRegistry keeps one key per node under its pool:
//
//	Key:   /mini-cache/{pool}/{host:port}
//	Value: JSON-encoded servers.Descriptor
//
// Registration uses TTL-based leases: if the node's agent stops renewing, the
// lease expires and the entry disappears from Discover.
package registry

import (
	"context"
	"encoding/json"

	"github.com/jmgilman/go/errors"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
	"mini-cache/servers"
)

// KeyPrefix is the root of every pool in etcd.
const KeyPrefix = "/mini-cache/"

// EtcdRegistry implements Registry on etcd v3.
type EtcdRegistry struct {
	client *clientv3.Client // Thread-safe, shared by every call
	logger *zap.Logger
	ctx    context.Context // Cancelled by Close; stops KeepAlive and Watch goroutines
	cancel context.CancelFunc
}

// Option configures an EtcdRegistry.
type Option func(*EtcdRegistry)

// WithLogger sets the logger used for skipped entries and lease loss.
func WithLogger(l *zap.Logger) Option {
	return func(r *EtcdRegistry) {
		r.logger = l
	}
}

// NewEtcdRegistry connects to the given etcd endpoints.
func NewEtcdRegistry(endpoints []string, opts ...Option) (*EtcdRegistry, error) {
	c, err := clientv3.New(clientv3.Config{
		Endpoints: endpoints,
	})
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeUnavailable, "failed to connect to etcd",
			map[string]interface{}{"endpoints": endpoints})
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &EtcdRegistry{client: c, logger: zap.NewNop(), ctx: ctx, cancel: cancel}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// PoolPrefix returns the etcd key prefix of pool.
func PoolPrefix(pool string) string {
	return KeyPrefix + pool + "/"
}

// NodeKey returns the etcd key of the node at addr in pool.
func NodeKey(pool, addr string) string {
	return PoolPrefix(pool) + addr
}

// Register publishes node under pool with a TTL lease (seconds).
//
// Flow:
//  1. Grant a lease with the given TTL
//  2. Put the descriptor with the lease attached
//  3. KeepAlive renews the lease until Close
func (r *EtcdRegistry) Register(pool string, node servers.Descriptor, ttl int64) error {
	if pool == "" || node.Host == "" {
		return errors.New(errors.CodeInvalidInput, "pool and node host are required")
	}
	if node.Port == 0 {
		node.Port = servers.DefaultPort
	}

	// leaseID stays local so one registry can register many nodes concurrently
	lease, err := r.client.Grant(r.ctx, ttl)
	if err != nil {
		return errors.Wrap(err, errors.CodeUnavailable, "failed to grant lease")
	}

	val, err := json.Marshal(node)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to encode node")
	}

	if _, err := r.client.Put(r.ctx, NodeKey(pool, node.Addr()), string(val), clientv3.WithLease(lease.ID)); err != nil {
		return errors.WrapWithContext(err, errors.CodeUnavailable, "failed to register node",
			map[string]interface{}{"pool": pool, "addr": node.Addr()})
	}

	ch, err := r.client.KeepAlive(r.ctx, lease.ID)
	if err != nil {
		return errors.Wrap(err, errors.CodeUnavailable, "failed to keep lease alive")
	}

	// Drain responses so the channel never fills up
	go func() {
		for range ch {
		}
		if r.ctx.Err() == nil {
			r.logger.Warn("lease keepalive stopped",
				zap.String("pool", pool), zap.String("addr", node.Addr()))
		}
	}()
	return nil
}

// Deregister removes the node at addr ("host:port") from pool.
func (r *EtcdRegistry) Deregister(pool string, addr string) error {
	if _, err := r.client.Delete(r.ctx, NodeKey(pool, addr)); err != nil {
		return errors.WrapWithContext(err, errors.CodeUnavailable, "failed to deregister node",
			map[string]interface{}{"pool": pool, "addr": addr})
	}
	return nil
}

// Discover returns the nodes registered under pool, sorted by key.
// Entries that do not decode are skipped.
func (r *EtcdRegistry) Discover(pool string) ([]servers.Descriptor, error) {
	resp, err := r.client.Get(r.ctx, PoolPrefix(pool), clientv3.WithPrefix(), clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend))
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeUnavailable, "failed to discover nodes",
			map[string]interface{}{"pool": pool})
	}

	nodes := make([]servers.Descriptor, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var node servers.Descriptor
		if err := json.Unmarshal(kv.Value, &node); err != nil || node.Host == "" {
			r.logger.Warn("skipping malformed node entry", zap.ByteString("key", kv.Key))
			continue
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// Watch emits the full node list of pool after every change under its prefix.
// The channel is closed when the registry is closed.
func (r *EtcdRegistry) Watch(pool string) <-chan []servers.Descriptor {
	ch := make(chan []servers.Descriptor, 1)

	go func() {
		defer close(ch)
		watchChan := r.client.Watch(r.ctx, PoolPrefix(pool), clientv3.WithPrefix())
		for range watchChan {
			// Re-fetch instead of applying individual events
			nodes, err := r.Discover(pool)
			if err != nil {
				r.logger.Warn("discover after watch event failed", zap.String("pool", pool), zap.Error(err))
				continue
			}
			select {
			case ch <- nodes:
			case <-r.ctx.Done():
				return
			}
		}
	}()

	return ch
}

// Close stops lease renewal and watches, then closes the etcd connection.
func (r *EtcdRegistry) Close() error {
	r.cancel()
	return r.client.Close()
}

var _ Registry = (*EtcdRegistry)(nil)
