package middleware

import (
	"github.com/jmgilman/go/errors"
	"golang.org/x/time/rate"
	"mini-cache/client"
	"mini-cache/servers"
)

// ErrRateLimited is returned by a rate-limited client when the token bucket is empty.
var ErrRateLimited = errors.New(errors.CodeRateLimit, "rate limit exceeded")

// RateLimitedClient throttles data calls (Get, Set, Delete) with a token
// bucket. Configuration calls always pass through.
type RateLimitedClient struct {
	inner   client.Client
	limiter *rate.Limiter
}

// RateLimit creates a token-bucket Middleware allowing r data calls per second
// with the given burst. All clients wrapped by the returned Middleware share
// one bucket.
func RateLimit(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next client.Client) client.Client {
		return &RateLimitedClient{inner: next, limiter: limiter}
	}
}

func (c *RateLimitedClient) Unwrap() client.Client {
	return c.inner
}

func (c *RateLimitedClient) AddServer(host string, port, weight int) error {
	return c.inner.AddServer(host, port, weight)
}

func (c *RateLimitedClient) SetOption(opt client.Option, value any) error {
	return c.inner.SetOption(opt, value)
}

func (c *RateLimitedClient) GetOption(opt client.Option) any {
	return c.inner.GetOption(opt)
}

func (c *RateLimitedClient) Get(key string) (any, error) {
	if !c.limiter.Allow() {
		return nil, ErrRateLimited
	}
	return c.inner.Get(key)
}

func (c *RateLimitedClient) Set(key string, value any) error {
	if !c.limiter.Allow() {
		return ErrRateLimited
	}
	return c.inner.Set(key, value)
}

func (c *RateLimitedClient) Delete(key string) error {
	if !c.limiter.Allow() {
		return ErrRateLimited
	}
	return c.inner.Delete(key)
}

func (c *RateLimitedClient) GetServerList() []servers.Descriptor {
	return c.inner.GetServerList()
}

var _ client.Client = (*RateLimitedClient)(nil)
