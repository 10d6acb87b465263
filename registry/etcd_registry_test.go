package registry

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mini-cache/servers"
)

func newEtcdRegistry(t *testing.T) *EtcdRegistry {
	t.Helper()
	endpoints := os.Getenv("MINI_CACHE_ETCD")
	if endpoints == "" {
		t.Skip("MINI_CACHE_ETCD not set")
	}
	reg, err := NewEtcdRegistry(strings.Split(endpoints, ","))
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })
	return reg
}

func TestRegisterAndDiscover(t *testing.T) {
	reg := newEtcdRegistry(t)
	pool := "test-" + t.Name()

	node1 := servers.Descriptor{Host: "127.0.0.1", Port: 8002, Weight: 5}
	node2 := servers.Descriptor{Host: "127.0.0.1", Port: 8001, Weight: 10}

	require.NoError(t, reg.Register(pool, node1, 10))
	require.NoError(t, reg.Register(pool, node2, 10))
	t.Cleanup(func() {
		reg.Deregister(pool, node1.Addr())
		reg.Deregister(pool, node2.Addr())
	})

	nodes, err := reg.Discover(pool)
	require.NoError(t, err)
	// Sorted by key, not by registration order
	assert.Equal(t, []servers.Descriptor{node2, node1}, nodes)

	require.NoError(t, reg.Deregister(pool, node2.Addr()))

	nodes, err = reg.Discover(pool)
	require.NoError(t, err)
	assert.Equal(t, []servers.Descriptor{node1}, nodes)
}

func TestWatch(t *testing.T) {
	reg := newEtcdRegistry(t)
	pool := "test-" + t.Name()

	ch := reg.Watch(pool)
	// Give the watch time to be established
	time.Sleep(100 * time.Millisecond)

	node := servers.Descriptor{Host: "127.0.0.1", Port: 8003}
	require.NoError(t, reg.Register(pool, node, 10))
	t.Cleanup(func() { reg.Deregister(pool, node.Addr()) })

	select {
	case nodes := <-ch:
		assert.Contains(t, nodes, node)
	case <-time.After(5 * time.Second):
		t.Fatal("no watch event")
	}
}

func TestRegisterRejectsEmptyHost(t *testing.T) {
	reg := newEtcdRegistry(t)
	assert.Error(t, reg.Register("pool", servers.Descriptor{Port: 1}, 10))
}

func TestNodeKey(t *testing.T) {
	assert.Equal(t, "/mini-cache/sessions/10.0.0.1:11211", NodeKey("sessions", "10.0.0.1:11211"))
	assert.Equal(t, "/mini-cache/sessions/", PoolPrefix("sessions"))
}

func TestStatic(t *testing.T) {
	s := NewStatic(map[string][]servers.Descriptor{
		"pool": {{Host: "10.0.0.2", Port: 11211}, {Host: "10.0.0.1", Port: 11211}},
	})

	nodes, err := s.Discover("pool")
	require.NoError(t, err)
	assert.Equal(t, []servers.Descriptor{{Host: "10.0.0.1", Port: 11211}, {Host: "10.0.0.2", Port: 11211}}, nodes)

	nodes, err = s.Discover("other")
	require.NoError(t, err)
	assert.Empty(t, nodes)

	s.Set("other", servers.Descriptor{Host: "10.0.0.3", Port: 11211})
	nodes, _ = s.Discover("other")
	assert.Len(t, nodes, 1)
}
