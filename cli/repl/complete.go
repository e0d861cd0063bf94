package repl

import (
	"maps"
	"reflect"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/expr-lang/expr/builtin"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/weft/script"
)

// commands are the console commands, completed after ':'.
var commands = []string{"help", "list", "edit", "clear", "quit"}

// isWordBoundary reports whether r ends a completion word. Hyphens are not
// boundaries because binding names may contain them.
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t', ':',
		'(', ')', '[', ']', '{', '}',
		'+', '*', '/', '%',
		'<', '>', '=', '!',
		'&', '|', ',', '?', ';', '#':
		return true
	}

	return false
}

// wordBounds returns the word around cursor and its byte range in input.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(max(cursor, 0), len(input))
	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the member chain before the word at wordStart, e.g.
// "cfg.server" for "x + cfg.server.ho". It is empty for top-level words.
func parentPath(input string, wordStart int) string {
	if wordStart == 0 || input[wordStart-1] != '.' {
		return ""
	}

	prefix := input[:wordStart-1]
	pos := len(prefix)

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	return strings.Trim(prefix[pos:], ".")
}

// resolve returns the value reached through a dotted path, looking up the
// first segment in env and then in the builtins.
func resolve(env *script.Env, path string) (any, bool) {
	segments := strings.Split(path, ".")

	cur, ok := env.Lookup(segments[0])
	if !ok {
		if cur, ok = script.Builtin(segments[0]); !ok {
			return nil, false
		}
	}

	for _, seg := range segments[1:] {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}

		if cur, ok = m[seg]; !ok {
			return nil, false
		}
	}

	return cur, true
}

// candidates lists completions below parent: every binding and builtin at
// the top level, or the keys of the map parent names.
func candidates(env *script.Env, parent string) []string {
	if parent == "" {
		return slices.Compact(slices.Sorted(slices.Values(
			append(env.Names(), script.BuiltinNames()...))))
	}

	v, ok := resolve(env, parent)
	if !ok {
		return nil
	}

	if m, ok := v.(map[string]any); ok {
		return slices.Sorted(maps.Keys(m))
	}

	return nil
}

// complete computes fuzzy matches for the word under the cursor.
//
// An empty word matches nothing at the top level, so the hint line stays
// visible, and everything after a '.', so members can be browsed.
func complete(
	env *script.Env,
	input string,
	cursor int,
) (matches fuzzy.Matches, start, end int) {
	word, start, end := wordBounds(input, cursor)

	var list []string

	if strings.HasPrefix(input, ":") {
		if start != 1 {
			return nil, start, end
		}

		list = commands
	} else {
		parent := parentPath(input, start)
		list = candidates(env, parent)

		if word == "" {
			if parent == "" {
				return nil, start, end
			}

			matches = make(fuzzy.Matches, len(list))
			for i, c := range list {
				matches[i] = fuzzy.Match{Str: c, Index: i}
			}

			return matches, start, end
		}
	}

	if word == "" {
		return nil, start, end
	}

	return fuzzy.Find(word, list), start, end
}

// renderCandidates builds the one-line completion bar, cut off with an
// ellipsis to fit width.
func renderCandidates(
	env *script.Env,
	matches fuzzy.Matches,
	selected, width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	ellipsis := hintStyle.Render("...")
	room := width - lipgloss.Width(ellipsis)

	var (
		b    strings.Builder
		used int
	)

	for i, match := range matches {
		item := renderCandidate(env, match, i == selected)

		w := lipgloss.Width(item)
		if i > 0 {
			w += len(sep)
		}

		if i > 0 && used+w > room {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(item)

		used += w
	}

	return b.String()
}

func renderCandidate(env *script.Env, match fuzzy.Match, selected bool) string {
	base, mark := suggestionStyle, matchStyle
	if selected {
		base, mark = selectedStyle, selectedMatchStyle
	}

	hit := make(map[int]bool, len(match.MatchedIndexes))
	for _, i := range match.MatchedIndexes {
		hit[i] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		if hit[i] {
			b.WriteString(mark.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	if isCallable(env, match.Str) {
		b.WriteString(base.Render("()"))
	}

	return b.String()
}

// isCallable reports whether the top-level name is a function.
func isCallable(env *script.Env, name string) bool {
	if _, ok := builtin.Index[name]; ok {
		return true
	}

	v, ok := resolve(env, name)
	if !ok {
		return false
	}

	if _, ok := v.(*script.Function); ok {
		return true
	}

	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}
