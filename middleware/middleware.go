// Package middleware decorates cache clients.
//
// A Middleware wraps a client.Client and returns another client.Client with the
// same capability surface, so decorated and raw clients are interchangeable:
//
//	Chain(Logging(sink), RateLimit(100, 10))(raw) → Logging(RateLimit(raw))
//
// Every decorator forwards return values and errors unchanged.
package middleware

import "mini-cache/client"

type Middleware func(next client.Client) client.Client

// Chain composes middlewares so the first one is the outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(next client.Client) client.Client {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// Unwrapper is implemented by decorators that expose the client they wrap.
type Unwrapper interface {
	Unwrap() client.Client
}

// Innermost strips every decorator that implements Unwrapper.
func Innermost(c client.Client) client.Client {
	for {
		u, ok := c.(Unwrapper)
		if !ok {
			return c
		}
		c = u.Unwrap()
	}
}
