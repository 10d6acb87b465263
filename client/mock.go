package client

import (
	"sync"
	"time"

	"mini-cache/servers"
)

// MockClient is the Resolver name of the in-memory client.
const MockClient = "mock"

type entry struct {
	value   any
	expires time.Time // Zero means no expiry
}

// Mock is an in-process Client backed by a map. It records servers and
// options like the network client but never opens a connection.
type Mock struct {
	mu      sync.RWMutex
	servers []servers.Descriptor
	options map[Option]any
	data    map[string]entry // Keyed by prefix+key, as memcached would see them
	now     func() time.Time
}

// NewMock creates an empty Mock.
func NewMock() *Mock {
	return &Mock{
		options: make(map[Option]any),
		data:    make(map[string]entry),
		now:     time.Now,
	}
}

func (m *Mock) AddServer(host string, port, weight int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.servers = append(m.servers, servers.Descriptor{Host: host, Port: port, Weight: weight})
	return nil
}

func (m *Mock) SetOption(opt Option, value any) error {
	v, err := checkOption(opt, value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.options[opt] = v
	return nil
}

func (m *Mock) GetOption(opt Option) any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.options[opt]; ok {
		return v
	}
	if opt == OptPrefixKey {
		return ""
	}
	return nil
}

func (m *Mock) Get(key string) (any, error) {
	m.mu.RLock()
	k, err := m.key(key)
	if err != nil {
		m.mu.RUnlock()
		return nil, err
	}
	e, ok := m.data[k]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}
	if m.expired(e) {
		m.evict(k)
		return nil, ErrCacheMiss
	}
	return e.value, nil
}

func (m *Mock) expired(e entry) bool {
	return !e.expires.IsZero() && !m.now().Before(e.expires)
}

// evict deletes k if it is still expired. A Set may have replaced it since
// the caller saw the stale entry.
func (m *Mock) evict(k string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.data[k]; ok && m.expired(e) {
		delete(m.data, k)
	}
}

func (m *Mock) Set(key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, err := m.key(key)
	if err != nil {
		return err
	}
	e := entry{value: value}
	if ttl, _ := m.options[OptExpiration].(time.Duration); ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.data[k] = e
	return nil
}

func (m *Mock) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, err := m.key(key)
	if err != nil {
		return err
	}
	if _, ok := m.data[k]; !ok {
		return ErrCacheMiss
	}
	delete(m.data, k)
	return nil
}

func (m *Mock) GetServerList() []servers.Descriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]servers.Descriptor, len(m.servers))
	copy(out, m.servers)
	return out
}

// key applies the prefix and validates the result. Caller must hold mu.
func (m *Mock) key(key string) (string, error) {
	prefix, _ := m.options[OptPrefixKey].(string)
	k := prefix + key
	if key == "" || !legalKey(k, MaxKeyLen) {
		return "", ErrMalformedKey
	}
	return k, nil
}

var _ Client = (*Mock)(nil)
