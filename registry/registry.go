package registry

import (
	"sort"
	"sync"

	"mini-cache/servers"
)

// Discoverer lists the memcached nodes currently serving a pool.
type Discoverer interface {
	Discover(pool string) ([]servers.Descriptor, error)
}

type Registry interface {
	Discoverer
	Register(pool string, node servers.Descriptor, ttl int64) error
	Deregister(pool string, addr string) error
	Watch(pool string) <-chan []servers.Descriptor
}

// Static is a fixed, in-memory Discoverer.
type Static struct {
	mu    sync.RWMutex
	pools map[string][]servers.Descriptor
}

// NewStatic creates a Static discoverer from pool → nodes.
func NewStatic(pools map[string][]servers.Descriptor) *Static {
	s := &Static{pools: make(map[string][]servers.Descriptor)}
	for pool, nodes := range pools {
		s.Set(pool, nodes...)
	}
	return s
}

// Set replaces the nodes of pool.
func (s *Static) Set(pool string, nodes ...servers.Descriptor) {
	list := make([]servers.Descriptor, len(nodes))
	copy(list, nodes)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Addr() < list[j].Addr() })

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pools[pool] = list
}

func (s *Static) Discover(pool string) ([]servers.Descriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]servers.Descriptor, len(s.pools[pool]))
	copy(out, s.pools[pool])
	return out, nil
}

var _ Discoverer = (*Static)(nil)
