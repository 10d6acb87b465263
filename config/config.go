// Package config loads provider configuration from YAML.
//
// Both shapes below produce the same override map:
//
//	memcache:                      memcache.client: mock
//	  client: mock                 memcache.prefix: "app:"
//	  prefix: "app:"               memcache.servers:
//	  servers:                       - [10.0.0.1, 11211, 2]
//	    - [10.0.0.1, 11211, 2]
//
// Only the first level is flattened; values such as server lists are kept
// as decoded. Top-level scalars (e.g. "logger: false") keep their key.
package config

import (
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jmgilman/go/errors"
	"gopkg.in/yaml.v3"
)

// Load decodes YAML from r into a flat "<name>.<key>" override map.
func Load(r io.Reader) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return map[string]any{}, nil
		}
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "failed to decode cache configuration")
	}
	return flatten(doc)
}

// LoadFile reads and decodes the YAML file at path.
func LoadFile(path string) (map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeNotFound, "failed to open cache configuration",
			map[string]interface{}{"path": path})
	}
	defer f.Close()

	out, err := Load(f)
	if err != nil {
		return nil, errors.WithContext(err, "path", path)
	}
	return out, nil
}

// Section returns the entries of overrides that belong to name.
func Section(overrides map[string]any, name string) map[string]any {
	prefix := name + "."
	out := make(map[string]any)
	for k, v := range overrides {
		if strings.HasPrefix(k, prefix) {
			out[k] = v
		}
	}
	return out
}

// Names returns the service names present in overrides, sorted.
func Names(overrides map[string]any) []string {
	seen := make(map[string]struct{})
	for k := range overrides {
		if name, _, ok := strings.Cut(k, "."); ok && name != "" {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func flatten(doc map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(doc))
	put := func(key string, v any) error {
		if _, dup := out[key]; dup {
			return errors.WithContext(
				errors.Newf(errors.CodeInvalidConfig, "key %q is configured twice", key),
				"key", key)
		}
		out[key] = v
		return nil
	}

	// Sorted so a duplicate is always reported for the same key
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, name := range keys {
		section, ok := doc[name].(map[string]any)
		if !ok || strings.Contains(name, ".") {
			if err := put(name, doc[name]); err != nil {
				return nil, err
			}
			continue
		}
		for k, v := range section {
			if err := put(name+"."+k, v); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
