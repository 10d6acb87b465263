// Package memcachedtest runs an in-process memcached (minimemcached) for tests.
//
// Every server gets a random port and a mock clock, so expirations can be
// tested without sleeping:
//
//	svr := memcachedtest.Start(t)
//	svr.Advance(2 * time.Second) → items stored with a 1s TTL are gone
package memcachedtest

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/bradfitz/gomemcache/memcache"
	"github.com/daangn/minimemcached"
)

// Host is the interface minimemcached listens on.
const Host = "localhost"

// Server is a running minimemcached bound to one test.
type Server struct {
	mm    *minimemcached.MiniMemcached
	clock *clock.Mock
}

// Start launches a server on a random port and closes it when the test ends.
func Start(tb testing.TB) *Server {
	tb.Helper()
	clk := clock.NewMock()
	clk.Set(time.Now())

	mm, err := minimemcached.Run(&minimemcached.Config{Port: 0}, minimemcached.WithClock(clk))
	if err != nil {
		tb.Fatalf("memcachedtest: start: %v", err)
	}
	tb.Cleanup(mm.Close)
	return &Server{mm: mm, clock: clk}
}

func (s *Server) Host() string {
	return Host
}

func (s *Server) Port() int {
	return int(s.mm.Port())
}

// Addr returns the listening address as "host:port".
func (s *Server) Addr() string {
	return net.JoinHostPort(Host, strconv.Itoa(s.Port()))
}

// Advance moves the server clock forward by d.
func (s *Server) Advance(d time.Duration) {
	s.clock.Add(d)
}

// Raw returns a plain gomemcache client for inspecting keys as stored on the
// wire, prefix included.
func (s *Server) Raw() *memcache.Client {
	return memcache.New(s.Addr())
}
