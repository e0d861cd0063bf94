package script

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
)

// LoadData reads a YAML, JSON or TOML document, chosen by file extension,
// whose top level is a mapping. The result is suitable for [WithBindings].
//
// Non-negative integers are normalized to int64 where they fit, and nested
// mappings to map[string]any, so loaded values compare and format the same
// as values computed by statements.
func LoadData(ctx context.Context, path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrReadData.Wrap(err).With(slog.String("path", path))
	}

	var m map[string]any

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", ".json":
		err = yaml.UnmarshalContext(ctx, data, &m)
	case ".toml":
		_, err = toml.Decode(string(data), &m)
	default:
		return nil, ErrDataFormat.
			With(slog.String("path", path), slog.String("extension", ext))
	}

	if err != nil {
		return nil, ErrReadData.Wrap(err).With(slog.String("path", path))
	}

	if m == nil {
		m = map[string]any{}
	}

	out, _ := normalize(m).(map[string]any)

	return out, nil
}

func normalize(v any) any {
	switch val := v.(type) {
	case uint64:
		if i, err := safecast.Conv[int64](val); err == nil {
			return i
		}

		return val
	case int:
		return int64(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = normalize(e)
		}

		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[fmt.Sprint(k)] = normalize(e)
		}

		return out
	case []map[string]any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalize(e)
		}

		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalize(e)
		}

		return out
	}

	return v
}
