package client

import (
	"sync"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"mini-cache/codec"
	"mini-cache/loadbalance"
	"mini-cache/servers"
)

// Memcached is the network Client. It talks the memcached text protocol via
// gomemcache and spreads keys over its servers with a weighted hash ring.
//
//	Set("foo", v) → prefix+"foo" → ring.PickServer → codec.Marshal(v) → memcached
//
// Errors from the wire are returned as gomemcache reports them.
type Memcached struct {
	mc   *memcache.Client
	ring *loadbalance.Ring

	mu         sync.RWMutex // Guards prefix, expiration and the mc tuning fields
	prefix     string
	expiration time.Duration
}

// NewMemcached creates a client with no servers. Calls other than AddServer,
// SetOption, GetOption and GetServerList fail with ErrNoServers until a server is added.
func NewMemcached() *Memcached {
	ring := loadbalance.NewRing()
	return &Memcached{
		mc:   memcache.NewFromSelector(ring),
		ring: ring,
	}
}

func (c *Memcached) AddServer(host string, port, weight int) error {
	return c.ring.Add(servers.Descriptor{Host: host, Port: port, Weight: weight})
}

func (c *Memcached) SetOption(opt Option, value any) error {
	v, err := checkOption(opt, value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch opt {
	case OptPrefixKey:
		c.prefix = v.(string)
	case OptConnectTimeout:
		c.mc.Timeout = v.(time.Duration)
	case OptMaxIdleConns:
		c.mc.MaxIdleConns = v.(int)
	case OptExpiration:
		c.expiration = v.(time.Duration)
	}
	return nil
}

func (c *Memcached) GetOption(opt Option) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch opt {
	case OptPrefixKey:
		return c.prefix
	case OptConnectTimeout:
		if c.mc.Timeout == 0 {
			return memcache.DefaultTimeout
		}
		return c.mc.Timeout
	case OptMaxIdleConns:
		if c.mc.MaxIdleConns == 0 {
			return memcache.DefaultMaxIdleConns
		}
		return c.mc.MaxIdleConns
	case OptExpiration:
		return c.expiration
	}
	return nil
}

func (c *Memcached) Get(key string) (any, error) {
	item, err := c.mc.Get(c.key(key))
	if err != nil {
		return nil, err
	}
	return codec.Unmarshal(item.Value, item.Flags)
}

func (c *Memcached) Set(key string, value any) error {
	data, flags, err := codec.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.RLock()
	ttl := c.expiration
	c.mu.RUnlock()

	return c.mc.Set(&memcache.Item{
		Key:        c.key(key),
		Value:      data,
		Flags:      flags,
		Expiration: expirationSeconds(ttl),
	})
}

func (c *Memcached) Delete(key string) error {
	return c.mc.Delete(c.key(key))
}

func (c *Memcached) GetServerList() []servers.Descriptor {
	nodes := c.ring.Nodes()
	out := make([]servers.Descriptor, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Descriptor)
	}
	return out
}

// Ping checks that every server answers.
func (c *Memcached) Ping() error {
	return c.mc.Ping()
}

func (c *Memcached) key(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.prefix + key
}

var _ Client = (*Memcached)(nil)
