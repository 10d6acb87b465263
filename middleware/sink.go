package middleware

import (
	"sort"

	"go.uber.org/zap"
)

// Sink receives one debug record per intercepted client call.
type Sink interface {
	Debug(msg string, ctx map[string]any)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(msg string, ctx map[string]any)

func (f SinkFunc) Debug(msg string, ctx map[string]any) {
	f(msg, ctx)
}

// ZapSink writes records to a zap logger at debug level, one field per
// context key in sorted order.
func ZapSink(l *zap.Logger) Sink {
	return &zapSink{l: l}
}

type zapSink struct {
	l *zap.Logger
}

func (s *zapSink) Debug(msg string, ctx map[string]any) {
	if ce := s.l.Check(zap.DebugLevel, msg); ce != nil {
		keys := make([]string, 0, len(ctx))
		for k := range ctx {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fields := make([]zap.Field, 0, len(keys))
		for _, k := range keys {
			fields = append(fields, zap.Any(k, ctx[k]))
		}
		ce.Write(fields...)
	}
}
