package script

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// Format renders an expression result as template output.
//
// nil renders as nothing and a string renders verbatim. Lists and maps use
// tuple syntax, "{ a, b }" and "{ k : v }", with map keys sorted and nested
// strings quoted when they contain delimiters.
func Format(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	return formatValue(v)
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case string:
		if needsQuoting(val) {
			return strconv.Quote(val)
		}

		return val
	case time.Time:
		return val.Format(time.RFC3339)
	case []any:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = formatValue(e)
		}

		return tuple(parts)
	case map[string]any:
		parts := make([]string, 0, len(val))
		for _, k := range slices.Sorted(maps.Keys(val)) {
			parts = append(parts, k+" : "+formatValue(val[k]))
		}

		return tuple(parts)
	case *Function:
		return "<function " + val.String() + ">"
	case fmt.Stringer:
		return val.String()
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Func:
		return "<function>"
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = formatValue(rv.Index(i).Interface())
		}

		return tuple(parts)
	}

	return fmt.Sprint(v)
}

func tuple(parts []string) string {
	if len(parts) == 0 {
		return "{}"
	}

	return "{ " + strings.Join(parts, ", ") + " }"
}

func needsQuoting(s string) bool {
	return s == "" || strings.ContainsAny(s, " \t\r\n\"'\\{}:,;")
}

// Encoding selects the output syntax of [Env.Dump].
type Encoding int

const (
	EncodingYAML Encoding = iota
	EncodingJSON
)

// EncodingFor picks the encoding for a file name: JSON for ".json", YAML
// otherwise.
func EncodingFor(name string) Encoding {
	if strings.EqualFold(filepath.Ext(name), ".json") {
		return EncodingJSON
	}

	return EncodingYAML
}

// Dump writes the user bindings to w. Function bindings are omitted.
func (e *Env) Dump(ctx context.Context, w io.Writer, enc Encoding) error {
	data, _ := exportable(e.vars).(map[string]any)

	switch enc {
	case EncodingJSON:
		b, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(w, string(b))

		return err

	default:
		b, err := yaml.MarshalContext(ctx, data, yaml.Indent(2))
		if err != nil {
			return err
		}

		_, err = w.Write(b)

		return err
	}
}

// exportable returns v with functions removed from maps and lists, so the
// result can be encoded.
func exportable(v any) any {
	switch val := v.(type) {
	case *Function:
		return nil
	case map[string]any:
		out := make(map[string]any, len(val))

		for k, e := range val {
			if isFunc(e) {
				continue
			}

			out[k] = exportable(e)
		}

		return out
	case []any:
		out := make([]any, 0, len(val))

		for _, e := range val {
			if !isFunc(e) {
				out = append(out, exportable(e))
			}
		}

		return out
	}

	if isFunc(v) {
		return nil
	}

	return v
}

func isFunc(v any) bool {
	if _, ok := v.(*Function); ok {
		return true
	}

	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}
