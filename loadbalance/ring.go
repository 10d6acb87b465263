// Package loadbalance distributes cache keys across memcached nodes.
//
// Ring is a weighted consistent-hash ring. The same key always maps to the
// same node until the node set changes, and adding a node only moves the keys
// that now hash closer to it. Ring implements memcache.ServerSelector so it can
// be plugged straight into a gomemcache client.
//
// Virtual nodes: each real node gets a number of points on the ring
// proportional to its weight. Weight 0 counts as weight 1.
//
//	Hash Ring:
//	                  0
//	                ╱   ╲
//	              ╱       ╲
//	         B ●               ● A
//	           │    key ◆──►   │   (clockwise to nearest node → A)
//	         C ●               ● A' (virtual node of A)
//	              ╲       ╱
//	                ╲   ╱
package loadbalance

import (
	"fmt"
	"net"
	"sort"
	"sync"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/cespare/xxhash/v2"
	"github.com/jmgilman/go/errors"
	"mini-cache/servers"
)

// PointsPerNode is the number of virtual nodes per unit of weight.
const PointsPerNode = 160

// Node is a server placed on the ring.
type Node struct {
	servers.Descriptor
	addr net.Addr
}

// NetAddr returns the address handed to the memcache client.
func (n Node) NetAddr() net.Addr {
	return n.addr
}

// Ring maps keys to nodes. It is safe for concurrent use.
type Ring struct {
	mu     sync.RWMutex
	nodes  []Node         // Insertion order, reported back by Nodes()
	ring   []uint64       // Sorted hash values on the ring
	owners map[uint64]int // Hash value → index into nodes
}

// NewRing creates an empty ring.
func NewRing() *Ring {
	return &Ring{owners: make(map[uint64]int)}
}

// Add places a node onto the ring and rebuilds the virtual nodes.
func (r *Ring) Add(d servers.Descriptor) error {
	if d.Host == "" {
		return errors.New(errors.CodeInvalidInput, "loadbalance: empty host")
	}
	if d.Weight < 0 {
		return errors.WithContext(
			errors.Newf(errors.CodeInvalidInput, "loadbalance: negative weight %d", d.Weight),
			"addr", d.Addr())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes = append(r.nodes, Node{Descriptor: d, addr: tcpAddr(d.Addr())})
	r.rebuild()
	return nil
}

// Nodes returns a snapshot of the nodes in insertion order.
func (r *Ring) Nodes() []Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Node, len(r.nodes))
	copy(out, r.nodes)
	return out
}

// Len returns the number of real nodes.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}

// rebuild recomputes every virtual node. Caller must hold mu.
func (r *Ring) rebuild() {
	r.ring = r.ring[:0]
	r.owners = make(map[uint64]int)

	for idx, n := range r.nodes {
		// Point count depends only on the node's own weight.
		points := PointsPerNode * effectiveWeight(n.Weight)
		for i := 0; i < points; i++ {
			hash := xxhash.Sum64String(fmt.Sprintf("%s-%d", n.Descriptor.Addr(), i))
			if _, taken := r.owners[hash]; taken {
				continue
			}
			r.ring = append(r.ring, hash)
			r.owners[hash] = idx
		}
	}
	// Keep the ring sorted for binary search in Pick()
	sort.Slice(r.ring, func(i, j int) bool {
		return r.ring[i] < r.ring[j]
	})
}

// effectiveWeight treats an unset weight as the unit weight so no node starves.
func effectiveWeight(w int) int {
	if w < 1 {
		return 1
	}
	return w
}

// Pick finds the node responsible for key.
// It hashes the key, then binary-searches for the first point >= hash,
// wrapping around to the first point when the hash is past the end.
func (r *Ring) Pick(key string) (Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.ring) == 0 {
		return Node{}, memcache.ErrNoServers
	}
	hash := xxhash.Sum64String(key)
	idx := sort.Search(len(r.ring), func(i int) bool {
		return r.ring[i] >= hash
	})
	if idx == len(r.ring) {
		idx = 0
	}
	return r.nodes[r.owners[r.ring[idx]]], nil
}

// PickServer implements memcache.ServerSelector.
func (r *Ring) PickServer(key string) (net.Addr, error) {
	n, err := r.Pick(key)
	if err != nil {
		return nil, err
	}
	return n.addr, nil
}

// Each implements memcache.ServerSelector.
func (r *Ring) Each(f func(net.Addr) error) error {
	for _, n := range r.Nodes() {
		if err := f(n.addr); err != nil {
			return err
		}
	}
	return nil
}

// tcpAddr is a net.Addr that defers DNS resolution to dial time.
type tcpAddr string

func (a tcpAddr) Network() string { return "tcp" }
func (a tcpAddr) String() string { return string(a) }

var _ memcache.ServerSelector = (*Ring)(nil)
