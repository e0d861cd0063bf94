package repl

import (
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/ardnew/weft/script"
)

// exprSignatures names the parameters of common expression builtins.
var exprSignatures = map[string][]string{
	"len":       {"v"},
	"all":       {"array", "predicate"},
	"any":       {"array", "predicate"},
	"none":      {"array", "predicate"},
	"map":       {"array", "mapper"},
	"filter":    {"array", "predicate"},
	"find":      {"array", "predicate"},
	"count":     {"array", "predicate"},
	"groupBy":   {"array", "mapper"},
	"sortBy":    {"array", "mapper"},
	"sum":       {"array"},
	"join":      {"array", "separator"},
	"split":     {"string", "separator"},
	"replace":   {"string", "old", "new"},
	"trim":      {"string"},
	"upper":     {"string"},
	"lower":     {"string"},
	"hasPrefix": {"string", "prefix"},
	"hasSuffix": {"string", "suffix"},
	"int":       {"v"},
	"float":     {"v"},
	"string":    {"v"},
	"type":      {"v"},
	"toJSON":    {"v"},
}

// call describes the function call enclosing the cursor.
type call struct {
	name string // possibly dotted, e.g. "path.cat"
	arg  int    // index of the argument under the cursor
}

// enclosingCall finds the innermost unclosed call before cursor.
func enclosingCall(input string, cursor int) (call, bool) {
	cursor = min(max(cursor, 0), len(input))

	open, depth := -1, 0

	for i := cursor - 1; i >= 0 && open < 0; i-- {
		switch input[i] {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				open = i
			} else {
				depth--
			}
		}
	}

	if open < 0 {
		return call{}, false
	}

	start := open
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if r != '.' && r != '-' && isWordBoundary(r) {
			break
		}

		start -= size
	}

	name := strings.TrimSpace(input[start:open])
	if name == "" {
		return call{}, false
	}

	arg := 0
	depth = 0

	for i := open + 1; i < cursor; i++ {
		switch input[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				arg++
			}
		}
	}

	return call{name: name, arg: arg}, true
}

// signature returns the parameter names of the function called name.
func signature(env *script.Env, name string) ([]string, bool) {
	if v, ok := resolve(env, name); ok {
		switch fn := v.(type) {
		case *script.Function:
			params := make([]string, len(fn.Params))
			for i, p := range fn.Params {
				params[i] = p.Name
				if p.Variadic {
					params[i] = "..." + p.Name
				}
			}

			return params, true

		default:
			if t := reflect.TypeOf(v); t != nil && t.Kind() == reflect.Func {
				return funcParams(t), true
			}
		}
	}

	params, ok := exprSignatures[name]

	return params, ok
}

// funcParams describes the parameters of a Go function by type.
func funcParams(t reflect.Type) []string {
	params := make([]string, t.NumIn())

	for i := range params {
		in := t.In(i)
		if t.IsVariadic() && i == len(params)-1 {
			params[i] = "..." + typeName(in.Elem())

			continue
		}

		params[i] = typeName(in)
	}

	return params
}

func typeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Func:
		return "func"
	case reflect.Interface:
		return "any"
	case reflect.Pointer:
		return typeName(t.Elem())
	}

	return t.String()
}

// renderSignature renders "name(a, b)" with the parameter at arg
// highlighted.
func renderSignature(name string, params []string, arg int) string {
	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(name))
	b.WriteString(signatureStyle.Render("("))

	for i, p := range params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		variadic := strings.HasPrefix(p, "...")
		if i == arg || (variadic && arg >= i) {
			b.WriteString(currentParamStyle.Render(p))
		} else {
			b.WriteString(signatureStyle.Render(p))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
