package middleware

import (
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"mini-cache/client"
	"mini-cache/servers"
)

// MetricsCollector holds the Prometheus collectors shared by every client
// wrapped with Metrics. Series are labelled by client name and method.
type MetricsCollector struct {
	Calls    *prometheus.CounterVec
	Errors   *prometheus.CounterVec
	Hits     *prometheus.CounterVec
	Misses   *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewMetricsCollector registers the collectors with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func NewMetricsCollector(namespace string, reg prometheus.Registerer) *MetricsCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	labels := []string{"client", "method"}

	return &MetricsCollector{
		Calls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_calls_total",
			Help:      "Total number of cache client calls",
		}, labels),
		Errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_errors_total",
			Help:      "Total number of cache client calls that returned an error",
		}, labels),
		Hits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of Get calls that found the key",
		}, []string{"client"}),
		Misses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of Get calls that missed",
		}, []string{"client"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cache_call_duration_seconds",
			Help:      "Cache data call latency in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}, labels),
	}
}

// MetricsClient counts the calls made through it.
type MetricsClient struct {
	inner client.Client
	m     *MetricsCollector
	name  string
}

// Metrics returns a Middleware recording calls under the client label name.
func Metrics(m *MetricsCollector, name string) Middleware {
	return func(next client.Client) client.Client {
		return &MetricsClient{inner: next, m: m, name: name}
	}
}

func (c *MetricsClient) Unwrap() client.Client {
	return c.inner
}

func (c *MetricsClient) record(method string, start time.Time, err error) {
	c.m.Calls.WithLabelValues(c.name, method).Inc()
	if !start.IsZero() {
		c.m.Duration.WithLabelValues(c.name, method).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		c.m.Errors.WithLabelValues(c.name, method).Inc()
	}
}

func (c *MetricsClient) AddServer(host string, port, weight int) error {
	err := c.inner.AddServer(host, port, weight)
	c.record("addServer", time.Time{}, err)
	return err
}

func (c *MetricsClient) SetOption(opt client.Option, value any) error {
	err := c.inner.SetOption(opt, value)
	c.record("setOption", time.Time{}, err)
	return err
}

func (c *MetricsClient) GetOption(opt client.Option) any {
	v := c.inner.GetOption(opt)
	c.record("getOption", time.Time{}, nil)
	return v
}

// Get counts a cache miss as a miss, not an error.
func (c *MetricsClient) Get(key string) (any, error) {
	start := time.Now()
	v, err := c.inner.Get(key)
	switch {
	case err == nil:
		c.m.Hits.WithLabelValues(c.name).Inc()
		c.record("get", start, nil)
	case errors.Is(err, client.ErrCacheMiss):
		c.m.Misses.WithLabelValues(c.name).Inc()
		c.record("get", start, nil)
	default:
		c.record("get", start, err)
	}
	return v, err
}

func (c *MetricsClient) Set(key string, value any) error {
	start := time.Now()
	err := c.inner.Set(key, value)
	c.record("set", start, err)
	return err
}

func (c *MetricsClient) Delete(key string) error {
	start := time.Now()
	err := c.inner.Delete(key)
	c.record("delete", start, err)
	return err
}

func (c *MetricsClient) GetServerList() []servers.Descriptor {
	list := c.inner.GetServerList()
	c.record("getServerList", time.Time{}, nil)
	return list
}

var _ client.Client = (*MetricsClient)(nil)
