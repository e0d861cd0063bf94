package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

// baseConfig is the base name of the configuration files.
const baseConfig = "config"

// loadYAML is a [kong.ConfigurationLoader] for YAML configuration files.
// Keys are flag names, and nested mappings are joined with '-':
//
//	log:
//	  level: debug
//	  pretty: false
//	backend: read
//	data: [site.yaml, local.toml]
//
// configures --log-level=debug --no-log-pretty --backend=read and two --data
// files. Underscores may stand in for hyphens. Command-line flags override
// configuration values.
func loadYAML(r io.Reader) (kong.Resolver, error) {
	var doc map[string]any

	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return config{}, nil
		}

		return nil, err
	}

	cfg := make(config, len(doc))
	cfg.flatten("", doc)

	return cfg, nil
}

// config implements [kong.Resolver] over flattened YAML keys.
type config map[string]any

func (c config) flatten(prefix string, m map[string]any) {
	for k, v := range m {
		key := strings.ReplaceAll(prefix+k, "_", "-")

		if sub, ok := v.(map[string]any); ok {
			c.flatten(key+"-", sub)

			continue
		}

		c[key] = kongValue(v)
	}
}

// Validate implements [kong.Resolver]. Every key must name a flag.
func (c config) Validate(app *kong.Application) error {
	var names []string
	for _, flag := range app.Flags {
		names = append(names, flag.Name)
	}

	for key := range c {
		if !slices.Contains(names, key) {
			return fmt.Errorf("unknown configuration key %q", key)
		}
	}

	return nil
}

// Resolve implements [kong.Resolver].
func (c config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if value, ok := c[flag.Name]; ok {
		return value, nil
	}

	return nil, nil //nolint:nilnil
}

// kongValue converts YAML scalars to the forms kong decodes. Numbers must
// be strings.
func kongValue(v any) any {
	switch v := v.(type) {
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = kongValue(e)
		}

		return out
	default:
		return v
	}
}
