// Package provider publishes lazily built cache clients in a samber/do injector.
//
// Register installs configuration values and a lazy service under one name:
//
//	<name>.client     ""  | "mock" | registered constructor name
//	<name>.prefix     key prefix, applied with OPT_PREFIX_KEY when non-empty
//	<name>.servers    raw server list, see servers.Normalize
//	<name>.logging    false suppresses call logging for this name
//	<name>.rate_limit data calls per second, 0 = unlimited
//	<name>.rate_burst token bucket size
//	<name>.discovery  registry.Discoverer consulted when servers is unset
//	logger            middleware.Sink or *zap.Logger shared by every name; false disables
//
// The configuration stays writable until the first InvokeNamed of name. The
// client is then resolved, decorated and configured exactly once:
//
//	Resolve(client) → Metrics → RateLimit → Logging → AddServer×N → SetOption(PREFIX_KEY)
package provider

import (
	"fmt"
	"sync"

	"github.com/jmgilman/go/errors"
	"github.com/samber/do"
	"go.uber.org/zap"
	"mini-cache/client"
	"mini-cache/middleware"
	"mini-cache/registry"
	"mini-cache/servers"
)

// DefaultName is the service name used when none is given.
const DefaultName = "memcache"

// LoggerKey is the injector value holding the shared log sink.
const LoggerKey = "logger"

// Configuration key suffixes.
const (
	KeyClient    = "client"
	KeyPrefix    = "prefix"
	KeyServers   = "servers"
	KeyLogging   = "logging"
	KeyRateLimit = "rate_limit"
	KeyRateBurst = "rate_burst"
	KeyDiscovery = "discovery"
)

// Registration of several providers against one injector is serialized so
// the duplicate check and ProvideNamed happen atomically.
var registerMu sync.Mutex

// Provider registers one named cache client.
type Provider struct {
	name     string
	resolver *client.Resolver
	logger   *zap.Logger
	metrics  *middleware.MetricsCollector
}

// Option configures a Provider.
type Option func(*Provider)

// WithResolver resolves client names with r instead of client.DefaultResolver.
func WithResolver(r *client.Resolver) Option {
	return func(p *Provider) {
		p.resolver = r
	}
}

// WithLogger sets the logger for construction events. This is separate from
// the call-logging sink stored under LoggerKey.
func WithLogger(l *zap.Logger) Option {
	return func(p *Provider) {
		p.logger = l
	}
}

// WithMetrics records every call on the built client in m.
func WithMetrics(m *middleware.MetricsCollector) Option {
	return func(p *Provider) {
		p.metrics = m
	}
}

// New creates a Provider for name. An empty name means DefaultName.
func New(name string, opts ...Option) *Provider {
	if name == "" {
		name = DefaultName
	}
	p := &Provider{
		name:     name,
		resolver: client.DefaultResolver,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string {
	return p.name
}

// Key returns the injector key of a configuration value of this provider.
func (p *Provider) Key(suffix string) string {
	return p.name + "." + suffix
}

// Defaults returns the configuration Register installs for name.
func Defaults(name string) map[string]any {
	return map[string]any{
		name + "." + KeyClient:    "",
		name + "." + KeyPrefix:    "",
		name + "." + KeyServers:   nil,
		name + "." + KeyLogging:   true,
		name + "." + KeyRateLimit: 0.0,
		name + "." + KeyRateBurst: 1,
		name + "." + KeyDiscovery: nil,
	}
}

// Register installs the defaults, then overrides, then the lazy client
// service. Defaults never replace a value the injector already holds. A nil
// injector means do.DefaultInjector.
//
// Nothing is resolved here: an unknown client name surfaces on first access.
func (p *Provider) Register(i *do.Injector, overrides map[string]any) error {
	if i == nil {
		i = do.DefaultInjector
	}

	registerMu.Lock()
	defer registerMu.Unlock()

	if provided(i, p.name) {
		return errors.WithContext(
			errors.Newf(errors.CodeAlreadyExists, "cache service %q is already registered", p.name),
			"name", p.name)
	}

	for key, value := range Defaults(p.name) {
		if !provided(i, key) {
			do.OverrideNamedValue[any](i, key, value)
		}
	}
	for key, value := range overrides {
		do.OverrideNamedValue[any](i, key, value)
	}

	do.ProvideNamed[client.Client](i, p.name, p.build)
	return nil
}

// build runs once, on the first successful InvokeNamed of p.name.
func (p *Provider) build(i *do.Injector) (client.Client, error) {
	kind, _ := value(i, p.Key(KeyClient)).(string)

	c, err := p.resolver.Resolve(kind)
	if err != nil {
		p.logger.Warn("failed to resolve cache client",
			zap.String("name", p.name), zap.String("client", kind), zap.Error(err))
		return nil, err
	}

	var mws []middleware.Middleware
	sink, err := p.sink(i)
	if err != nil {
		p.logger.Warn("invalid call-logging sink", zap.String("name", p.name), zap.Error(err))
		return nil, err
	}
	if sink != nil {
		mws = append(mws, middleware.Logging(sink))
	}
	if limit := toFloat(value(i, p.Key(KeyRateLimit))); limit > 0 {
		burst := int(toFloat(value(i, p.Key(KeyRateBurst))))
		if burst < 1 {
			burst = 1
		}
		mws = append(mws, middleware.RateLimit(limit, burst))
	}
	if p.metrics != nil {
		mws = append(mws, middleware.Metrics(p.metrics, p.name))
	}
	c = middleware.Chain(mws...)(c)

	list, err := p.servers(i)
	if err != nil {
		return nil, err
	}
	for _, s := range list {
		if err := c.AddServer(s.Host, s.Port, s.Weight); err != nil {
			return nil, err
		}
	}

	if prefix, _ := value(i, p.Key(KeyPrefix)).(string); prefix != "" {
		if err := c.SetOption(client.OptPrefixKey, prefix); err != nil {
			return nil, err
		}
	}

	p.logger.Debug("cache client constructed",
		zap.String("name", p.name), zap.String("client", kind), zap.Stringers("servers", list))
	return c, nil
}

// servers picks the server list: explicit configuration first, then
// discovery, then the default node.
func (p *Provider) servers(i *do.Injector) ([]servers.Descriptor, error) {
	raw := value(i, p.Key(KeyServers))
	if raw != nil {
		return servers.Normalize(raw)
	}

	if d, ok := value(i, p.Key(KeyDiscovery)).(registry.Discoverer); ok && d != nil {
		list, err := d.Discover(p.name)
		if err != nil {
			return nil, err
		}
		if len(list) > 0 {
			return list, nil
		}
		p.logger.Debug("discovery returned no nodes, using default", zap.String("name", p.name))
	}
	return servers.Normalize(nil)
}

// sink returns the call-logging sink, or nil when logging is off for p.
//
// LoggerKey is accepted when stored as any (provider.Set), as
// middleware.Sink or as *zap.Logger. false or nil disables logging. Any
// other value, including a sink provided under its concrete type, is a
// CodeInvalidConfig error.
func (p *Provider) sink(i *do.Injector) (middleware.Sink, error) {
	if enabled, ok := value(i, p.Key(KeyLogging)).(bool); ok && !enabled {
		return nil, nil
	}
	if !provided(i, LoggerKey) {
		return nil, nil
	}

	var v any
	if s, err := do.InvokeNamed[middleware.Sink](i, LoggerKey); err == nil {
		v = s
	} else if l, err := do.InvokeNamed[*zap.Logger](i, LoggerKey); err == nil {
		v = l
	} else if a, err := do.InvokeNamed[any](i, LoggerKey); err == nil {
		v = a
	} else {
		return nil, loggerError("value is not provided as any, middleware.Sink or *zap.Logger")
	}

	switch s := v.(type) {
	case nil:
		return nil, nil
	case bool:
		if !s {
			return nil, nil
		}
	case middleware.Sink:
		return s, nil
	case *zap.Logger:
		if s == nil {
			return nil, nil
		}
		return middleware.ZapSink(s), nil
	}
	return nil, loggerError(fmt.Sprintf("unsupported value of type %T", v))
}

func loggerError(reason string) error {
	return errors.WithContext(
		errors.Newf(errors.CodeInvalidConfig, "invalid %q: %s", LoggerKey, reason),
		"key", LoggerKey)
}

// Client returns the client registered under name, building it on first use.
func Client(i *do.Injector, name string) (client.Client, error) {
	if name == "" {
		name = DefaultName
	}
	return do.InvokeNamed[client.Client](i, name)
}

// Set writes a configuration value. Once the client under the key's name has
// been built, the write has no effect on it.
func Set(i *do.Injector, key string, value any) {
	do.OverrideNamedValue[any](i, key, value)
}

// Get reads a configuration value written by Register or Set.
func Get(i *do.Injector, key string) (any, bool) {
	v, err := do.InvokeNamed[any](i, key)
	return v, err == nil
}

func value(i *do.Injector, key string) any {
	v, _ := Get(i, key)
	return v
}

func provided(i *do.Injector, name string) bool {
	for _, n := range i.ListProvidedServices() {
		if n == name {
			return true
		}
	}
	return false
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case uint:
		return float64(n)
	case uint64:
		return float64(n)
	}
	return 0
}
