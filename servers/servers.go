// Package servers normalizes memcached server configuration into a canonical list.
//
// Configuration may arrive in several shapes (Go literals, decoded YAML, plain
// "host:port" strings). Every shape is reduced to the same triple:
//
//	("127.0.0.2", 11212)        → {Host: 127.0.0.2, Port: 11212, Weight: 0}
//	("127.0.0.3", "11213")      → {Host: 127.0.0.3, Port: 11213, Weight: 0}
//	("127.0.0.4")               → {Host: 127.0.0.4, Port: 11211, Weight: 0}
//	"127.0.0.5:11214:3"         → {Host: 127.0.0.5, Port: 11214, Weight: 3}
//	"[::1]:11215:1"             → {Host: ::1, Port: 11215, Weight: 1}
//
// An absent or empty list yields the single default node 127.0.0.1:11211.
package servers

import (
	"fmt"
	"math"
	"net"
	"strconv"
	"strings"

	"github.com/jmgilman/go/errors"
)

const (
	DefaultHost   = "127.0.0.1"
	DefaultPort   = 11211
	DefaultWeight = 0
)

// Descriptor is one normalized backend node.
type Descriptor struct {
	Host   string `json:"host" yaml:"host"`
	Port   int    `json:"port" yaml:"port"`
	Weight int    `json:"weight" yaml:"weight"` // Relative share of the key space, 0 = equal share
}

// Default returns the descriptor used when no servers are configured.
func Default() Descriptor {
	return Descriptor{Host: DefaultHost, Port: DefaultPort, Weight: DefaultWeight}
}

// Addr returns the dialable "host:port" form.
func (d Descriptor) Addr() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s (weight %d)", d.Addr(), d.Weight)
}

// Normalize turns raw server configuration into descriptors, preserving order.
//
// Accepted shapes for raw:
//   - nil or an empty list
//   - []Descriptor
//   - [][]any, [][]string
//   - []string of "host[:port[:weight]]"
//   - []any whose elements are any of the entry shapes above
//
// Missing ports default to DefaultPort and missing weights to DefaultWeight.
func Normalize(raw any) ([]Descriptor, error) {
	var entries []any
	switch v := raw.(type) {
	case nil:
	case []Descriptor:
		out := make([]Descriptor, 0, len(v))
		for i, d := range v {
			if d.Host == "" {
				return nil, entryError(i, "host is required")
			}
			out = append(out, d)
		}
		return orDefault(out), nil
	case [][]any:
		for _, e := range v {
			entries = append(entries, e)
		}
	case [][]string:
		for _, e := range v {
			entries = append(entries, e)
		}
	case []string:
		for _, e := range v {
			entries = append(entries, e)
		}
	case []any:
		entries = v
	default:
		return nil, errors.Newf(errors.CodeInvalidConfig, "unsupported server list type %T", raw)
	}

	out := make([]Descriptor, 0, len(entries))
	for i, e := range entries {
		d, err := parseEntry(i, e)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return orDefault(out), nil
}

func orDefault(list []Descriptor) []Descriptor {
	if len(list) == 0 {
		return []Descriptor{Default()}
	}
	return list
}

// parseEntry converts one positional entry (host[, port[, weight]]).
func parseEntry(i int, e any) (Descriptor, error) {
	var fields []any
	switch v := e.(type) {
	case Descriptor:
		if v.Host == "" {
			return Descriptor{}, entryError(i, "host is required")
		}
		return v, nil
	case string:
		parts, err := splitAddr(v)
		if err != nil {
			return Descriptor{}, entryError(i, err.Error())
		}
		for _, part := range parts {
			fields = append(fields, part)
		}
	case []string:
		for _, part := range v {
			fields = append(fields, part)
		}
	case []any:
		fields = v
	default:
		return Descriptor{}, entryError(i, fmt.Sprintf("unsupported entry type %T", e))
	}

	if len(fields) == 0 || len(fields) > 3 {
		return Descriptor{}, entryError(i, fmt.Sprintf("expected 1 to 3 elements, got %d", len(fields)))
	}

	host, ok := fields[0].(string)
	if !ok || host == "" {
		return Descriptor{}, entryError(i, "host is required")
	}

	d := Descriptor{Host: host, Port: DefaultPort, Weight: DefaultWeight}
	if len(fields) > 1 {
		port, err := toInt(fields[1])
		if err != nil {
			return Descriptor{}, entryError(i, "port: "+err.Error())
		}
		d.Port = port
	}
	if len(fields) > 2 {
		weight, err := toInt(fields[2])
		if err != nil {
			return Descriptor{}, entryError(i, "weight: "+err.Error())
		}
		d.Weight = weight
	}
	return d, nil
}

// splitAddr splits "host[:port[:weight]]". IPv6 hosts are written in
// brackets ("[::1]:11211:2"); a bare IPv6 address is a host without port.
func splitAddr(s string) ([]string, error) {
	if strings.HasPrefix(s, "[") {
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return nil, fmt.Errorf("missing ']' in %q", s)
		}
		host, rest := s[1:end], s[end+1:]
		if rest == "" {
			return []string{host}, nil
		}
		if rest[0] != ':' {
			return nil, fmt.Errorf("unexpected %q after ']'", rest)
		}
		return append([]string{host}, strings.SplitN(rest[1:], ":", 2)...), nil
	}
	if ip := net.ParseIP(s); ip != nil && strings.Contains(s, ":") {
		return []string{s}, nil
	}
	return strings.SplitN(s, ":", 3), nil
}

// toInt coerces the scalar types produced by Go literals, JSON and YAML decoding.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint:
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", n)
		}
		return i, nil
	case nil:
		return 0, fmt.Errorf("value is missing")
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func floatToInt(f float64) (int, error) {
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	return int(f), nil
}

func entryError(i int, msg string) error {
	err := errors.Newf(errors.CodeInvalidConfig, "invalid server entry #%d: %s", i, msg)
	return errors.WithContext(err, "index", i)
}
