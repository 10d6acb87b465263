// Package testutil holds test doubles shared by the middleware and provider tests.
package testutil

import (
	"errors"
	"sync"
	"sync/atomic"

	"mini-cache/client"
	"mini-cache/servers"
)

// Record is one Debug call captured by Recorder.
type Record struct {
	Message string
	Context map[string]any
}

// Recorder is a log sink that keeps every debug record in order.
type Recorder struct {
	mu      sync.Mutex
	records []Record
}

func (r *Recorder) Debug(msg string, ctx map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, Record{Message: msg, Context: ctx})
}

// Records returns a copy of the captured records.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Messages returns just the captured messages.
func (r *Recorder) Messages() []string {
	var out []string
	for _, rec := range r.Records() {
		out = append(out, rec.Message)
	}
	return out
}

// ErrBroken is returned by BrokenClient for every call.
var ErrBroken = errors.New("testutil: broken client")

// BrokenClient fails every call, like a custom client whose backend is down.
type BrokenClient struct{}

func (BrokenClient) AddServer(string, int, int) error { return ErrBroken }
func (BrokenClient) SetOption(client.Option, any) error { return ErrBroken }
func (BrokenClient) GetOption(client.Option) any { return nil }
func (BrokenClient) Get(string) (any, error) { return nil, ErrBroken }
func (BrokenClient) Set(string, any) error { return ErrBroken }
func (BrokenClient) Delete(string) error { return ErrBroken }
func (BrokenClient) GetServerList() []servers.Descriptor { return nil }

// CountingClient is a Mock that counts configuration calls.
type CountingClient struct {
	*client.Mock
	AddServerCalls atomic.Int64
	SetOptionCalls atomic.Int64
}

// NewCountingClient wraps a fresh Mock.
func NewCountingClient() *CountingClient {
	return &CountingClient{Mock: client.NewMock()}
}

func (c *CountingClient) AddServer(host string, port, weight int) error {
	c.AddServerCalls.Add(1)
	return c.Mock.AddServer(host, port, weight)
}

func (c *CountingClient) SetOption(opt client.Option, value any) error {
	c.SetOptionCalls.Add(1)
	return c.Mock.SetOption(opt, value)
}
