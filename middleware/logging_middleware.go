package middleware

import (
	"mini-cache/client"
	"mini-cache/servers"
)

// LoggingClient records every call to its sink before forwarding it.
//
// The record carries the method name and the arguments keyed by parameter
// name, e.g. ("addServer", {host, port, weight}). Because the record is written
// first, it is visible even when the inner call fails.
type LoggingClient struct {
	inner client.Client
	sink  Sink
}

// Logging returns a Middleware that wraps clients with a LoggingClient.
func Logging(sink Sink) Middleware {
	return func(next client.Client) client.Client {
		return NewLogging(next, sink)
	}
}

// NewLogging wraps inner so every call is logged to sink.
func NewLogging(inner client.Client, sink Sink) *LoggingClient {
	return &LoggingClient{inner: inner, sink: sink}
}

func (l *LoggingClient) Unwrap() client.Client {
	return l.inner
}

// Sink returns the sink records are written to.
func (l *LoggingClient) Sink() Sink {
	return l.sink
}

func (l *LoggingClient) AddServer(host string, port, weight int) error {
	l.sink.Debug("addServer", map[string]any{"host": host, "port": port, "weight": weight})
	return l.inner.AddServer(host, port, weight)
}

func (l *LoggingClient) SetOption(opt client.Option, value any) error {
	l.sink.Debug("setOption", map[string]any{"option": opt, "value": value})
	return l.inner.SetOption(opt, value)
}

func (l *LoggingClient) GetOption(opt client.Option) any {
	l.sink.Debug("getOption", map[string]any{"option": opt})
	return l.inner.GetOption(opt)
}

func (l *LoggingClient) Get(key string) (any, error) {
	l.sink.Debug("get", map[string]any{"key": key})
	return l.inner.Get(key)
}

func (l *LoggingClient) Set(key string, value any) error {
	l.sink.Debug("set", map[string]any{"key": key, "value": value})
	return l.inner.Set(key, value)
}

func (l *LoggingClient) Delete(key string) error {
	l.sink.Debug("delete", map[string]any{"key": key})
	return l.inner.Delete(key)
}

func (l *LoggingClient) GetServerList() []servers.Descriptor {
	l.sink.Debug("getServerList", map[string]any{})
	return l.inner.GetServerList()
}

var _ client.Client = (*LoggingClient)(nil)
