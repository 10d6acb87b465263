package client

import (
	"fmt"
	"sync"
	"testing"

	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type customClient struct {
	*Mock
}

func TestResolveBuiltins(t *testing.T) {
	r := NewResolver()

	c, err := r.Resolve("")
	require.NoError(t, err)
	assert.IsType(t, &Memcached{}, c)

	c, err = r.Resolve("mock")
	require.NoError(t, err)
	assert.IsType(t, &Mock{}, c)

	// Each resolution is a fresh instance.
	c2, err := r.Resolve("mock")
	require.NoError(t, err)
	assert.NotSame(t, c, c2)
}

func TestResolveCustom(t *testing.T) {
	r := NewResolver()
	require.NoError(t, r.Register("CustomCacheClient", func() (Client, error) {
		return &customClient{Mock: NewMock()}, nil
	}))

	c, err := r.Resolve("CustomCacheClient")
	require.NoError(t, err)
	assert.IsType(t, &customClient{}, c)
	assert.Equal(t, []string{"CustomCacheClient"}, r.Names())
}

func TestResolveUnknown(t *testing.T) {
	r := NewResolver()

	_, err := r.Resolve(`\Foo\Bar`)
	require.Error(t, err)
	assert.Equal(t, `Cannot find class "\Foo\Bar" to use as cache client.`, err.Error())

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, `\Foo\Bar`, cfgErr.Client)
	assert.Nil(t, cfgErr.Unwrap())
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
	assert.False(t, errors.IsRetryable(err))
}

func TestResolveFailingConstructor(t *testing.T) {
	r := NewResolver()
	boom := fmt.Errorf("boom")
	require.NoError(t, r.Register("broken", func() (Client, error) { return nil, boom }))
	require.NoError(t, r.Register("nil", func() (Client, error) { return nil, nil }))

	_, err := r.Resolve("broken")
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.True(t, errors.Is(err, boom))

	_, err = r.Resolve("nil")
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "nil", cfgErr.Client)
}

func TestResolveTypedNil(t *testing.T) {
	r := NewResolver()
	require.NoError(t, r.Register("typed-nil", func() (Client, error) { return (*Mock)(nil), nil }))

	c, err := r.Resolve("typed-nil")
	assert.Nil(t, c)
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, `Cannot find class "typed-nil" to use as cache client.`, err.Error())
}

func TestRegisterRejects(t *testing.T) {
	r := NewResolver()
	ctor := func() (Client, error) { return NewMock(), nil }

	err := r.Register("", ctor)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	err = r.Register(MockClient, ctor)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	err = r.Register("x", nil)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	require.NoError(t, r.Register("x", ctor))
	err = r.Register("x", ctor)
	assert.Equal(t, errors.CodeAlreadyExists, errors.GetCode(err))
}

func TestDefaultResolver(t *testing.T) {
	name := "client_test.DefaultResolverClient"
	require.NoError(t, Register(name, func() (Client, error) { return NewMock(), nil }))

	c, err := Resolve(name)
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestResolverConcurrent(t *testing.T) {
	r := NewResolver()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			name := fmt.Sprintf("client-%d", n)
			assert.NoError(t, r.Register(name, func() (Client, error) { return NewMock(), nil }))
			_, err := r.Resolve(name)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Len(t, r.Names(), 20)
}
