package client

import (
	"reflect"
	"sort"
	"sync"

	"github.com/jmgilman/go/errors"
)

// Constructor builds a fresh, unconfigured Client.
type Constructor func() (Client, error)

// Resolver maps client names to constructors.
//
// The empty name and MockClient are built in; any other name must be
// registered first. Lookups take a read lock, so a Resolver can be shared by
// every provider in the process.
type Resolver struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// DefaultResolver is the process-wide Resolver used by Register and Resolve.
var DefaultResolver = NewResolver()

// NewResolver creates a Resolver that knows only the built-in clients.
func NewResolver() *Resolver {
	return &Resolver{ctors: make(map[string]Constructor)}
}

// Register makes ctor available under name.
func (r *Resolver) Register(name string, ctor Constructor) error {
	if name == "" || name == MockClient {
		return errors.Newf(errors.CodeInvalidInput, "client name %q is reserved", name)
	}
	if ctor == nil {
		return errors.Newf(errors.CodeInvalidInput, "nil constructor for client %q", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ctors[name]; ok {
		return errors.Newf(errors.CodeAlreadyExists, "client %q is already registered", name)
	}
	r.ctors[name] = ctor
	return nil
}

// Names returns the registered custom client names, sorted.
func (r *Resolver) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ctors))
	for name := range r.ctors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns a new, unconfigured client for name.
//
//   - ""        → *Memcached
//   - "mock"    → *Mock
//   - otherwise → the registered constructor
//
// An unknown name, a failing constructor or a nil result (typed nil included)
// yields *ConfigurationError.
func (r *Resolver) Resolve(name string) (Client, error) {
	switch name {
	case "":
		return NewMemcached(), nil
	case MockClient:
		return NewMock(), nil
	}

	r.mu.RLock()
	ctor, ok := r.ctors[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &ConfigurationError{Client: name}
	}

	c, err := ctor()
	if err != nil {
		return nil, &ConfigurationError{Client: name, Err: err}
	}
	if isNil(c) {
		return nil, &ConfigurationError{Client: name}
	}
	return c, nil
}

// isNil also catches a nil pointer held in a non-nil interface.
func isNil(c Client) bool {
	if c == nil {
		return true
	}
	v := reflect.ValueOf(c)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Func, reflect.Chan, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// Register adds a constructor to DefaultResolver.
func Register(name string, ctor Constructor) error {
	return DefaultResolver.Register(name, ctor)
}

// Resolve resolves name with DefaultResolver.
func Resolve(name string) (Client, error) {
	return DefaultResolver.Resolve(name)
}
