// Package client defines the cache capability every client variant implements,
// the variants themselves, and the Resolver that picks one by name.
//
// Three variants satisfy Client:
//
//	""      → Memcached: real network client (gomemcache + weighted ring)
//	"mock"  → Mock:      in-process map, no I/O
//	other   → whatever constructor was registered under that name
//
// Callers configure a client through AddServer and SetOption before use; the
// provider package does this once per registered name.
package client

import (
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/jmgilman/go/errors"
	"mini-cache/servers"
)

// Client is the capability surface shared by all cache client variants.
type Client interface {
	AddServer(host string, port, weight int) error
	SetOption(opt Option, value any) error
	GetOption(opt Option) any
	// Get returns ErrCacheMiss when the key is absent.
	Get(key string) (any, error)
	Set(key string, value any) error
	Delete(key string) error
	GetServerList() []servers.Descriptor
}

// Option identifies a client setting.
type Option int

const (
	// OptPrefixKey is prepended to every key. Value: string, at most MaxPrefixLen bytes.
	OptPrefixKey Option = iota + 1
	// OptConnectTimeout bounds dials and socket I/O. Value: time.Duration.
	OptConnectTimeout
	// OptMaxIdleConns is the idle connection pool size per server. Value: int.
	OptMaxIdleConns
	// OptExpiration is the TTL Set applies to new items. Value: time.Duration, 0 = never.
	OptExpiration
)

func (o Option) String() string {
	switch o {
	case OptPrefixKey:
		return "PREFIX_KEY"
	case OptConnectTimeout:
		return "CONNECT_TIMEOUT"
	case OptMaxIdleConns:
		return "MAX_IDLE_CONNS"
	case OptExpiration:
		return "EXPIRATION"
	}
	return fmt.Sprintf("Option(%d)", int(o))
}

const (
	MaxKeyLen    = 250 // memcached protocol limit, prefix included
	MaxPrefixLen = 128
)

var (
	ErrCacheMiss    = memcache.ErrCacheMiss
	ErrMalformedKey = memcache.ErrMalformedKey
	ErrNoServers    = memcache.ErrNoServers
	// ErrInvalidOption is returned by SetOption for unknown options or mistyped values.
	ErrInvalidOption = errors.New(errors.CodeInvalidInput, "invalid client option")
)

// Prefix returns the key prefix configured on c.
func Prefix(c Client) string {
	p, _ := c.GetOption(OptPrefixKey).(string)
	return p
}

// checkOption validates value for opt and returns it in canonical form.
func checkOption(opt Option, value any) (any, error) {
	switch opt {
	case OptPrefixKey:
		p, ok := value.(string)
		if !ok {
			return nil, optionError(opt, value, "expected string")
		}
		if len(p) > MaxPrefixLen {
			return nil, optionError(opt, value, fmt.Sprintf("longer than %d bytes", MaxPrefixLen))
		}
		if p != "" && !legalKey(p, MaxPrefixLen) {
			return nil, optionError(opt, value, "contains whitespace or control characters")
		}
		return p, nil
	case OptConnectTimeout, OptExpiration:
		d, ok := value.(time.Duration)
		if !ok || d < 0 {
			return nil, optionError(opt, value, "expected non-negative time.Duration")
		}
		return d, nil
	case OptMaxIdleConns:
		n, ok := value.(int)
		if !ok || n < 0 {
			return nil, optionError(opt, value, "expected non-negative int")
		}
		return n, nil
	}
	return nil, optionError(opt, value, "unknown option")
}

func optionError(opt Option, value any, reason string) error {
	return errors.WrapWithContext(ErrInvalidOption, errors.CodeInvalidInput,
		fmt.Sprintf("%s: %s", opt, reason),
		map[string]interface{}{"option": opt.String(), "value": value})
}

// legalKey mirrors memcached's key rules: bounded length, no spaces or control bytes.
func legalKey(key string, max int) bool {
	if len(key) > max {
		return false
	}
	for i := 0; i < len(key); i++ {
		if key[i] <= ' ' || key[i] == 0x7f {
			return false
		}
	}
	return true
}

// expirationSeconds converts a TTL to memcached's relative seconds.
func expirationSeconds(d time.Duration) int32 {
	if d <= 0 {
		return 0
	}
	s := int32(d / time.Second)
	if s == 0 {
		s = 1
	}
	return s
}
