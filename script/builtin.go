package script

// Builtins are resolved beneath user bindings: a binding with the same name
// shadows the builtin for every later statement.

import (
	"bufio"
	"maps"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ardnew/mung"
	"github.com/expr-lang/expr/builtin"
	"github.com/goccy/go-yaml"
)

// builtins holds the process-wide builtin values, computed once.
var builtins = sync.OnceValue(func() map[string]any {
	return map[string]any{
		"target":   getTarget(),
		"platform": getPlatform(),
		"hostname": getHostname(),
		"user":     getUser(),
		"shell":    getShell(),

		"cwd": getCwd,
		"now": time.Now,

		"file": map[string]any{
			"exists":    fileExists,
			"isDir":     fileIsDir,
			"isRegular": fileIsRegular,
			"isSymlink": fileIsSymlink,
		},

		"path": map[string]any{
			"abs": pathAbs,
			"cat": pathCat,
			"rel": pathRel,
		},

		"mung": map[string]any{
			"prefix":   mungPrefix,
			"prefixif": mungPrefixIf,
		},

		"yaml": toYAML,
	}
})

// BuiltinNames returns the sorted names of all builtins, including "env" and
// the expression language's own functions.
func BuiltinNames() []string {
	names := slices.Collect(maps.Keys(builtins()))
	names = append(names, "env")

	for _, fn := range builtin.Builtins {
		names = append(names, fn.Name)
	}

	slices.Sort(names)

	return slices.Compact(names)
}

// Builtin returns the builtin value bound to name. Nested builtins such as
// "path" are maps of their members.
func Builtin(name string) (any, bool) {
	v, ok := builtins()[name]

	return v, ok
}

// Target names an operating system and architecture.
type Target struct {
	OS   string
	Arch string
}

// getTarget returns the host target using GNU GCC/LLVM naming conventions.
func getTarget() Target {
	t := getPlatform()

	switch t.Arch {
	case "386":
		t.Arch = "i386"
	case "amd64":
		t.Arch = "x86_64"
	case "arm":
		if arm, ok := os.LookupEnv("GOARM"); ok {
			arm, _, _ = strings.Cut(arm, ",")
			switch arm = strings.TrimSpace(arm); arm {
			case "5", "6", "7":
				t.Arch = "armv" + arm
			}
		}
	case "arm64":
		if t.OS != "darwin" {
			t.Arch = "aarch64"
		}
	case "mipsle":
		t.Arch = "mipsel"
	}

	return t
}

// getPlatform returns the host target using Go conventions, honoring the
// GOHOSTOS/GOOS and GOHOSTARCH/GOARCH overrides.
func getPlatform() Target {
	lookup := func(def string, keys ...string) string {
		for _, k := range keys {
			if v, ok := os.LookupEnv(k); ok {
				return v
			}
		}

		return def
	}

	return Target{
		OS:   lookup(runtime.GOOS, "GOHOSTOS", "GOOS"),
		Arch: lookup(runtime.GOARCH, "GOHOSTARCH", "GOARCH"),
	}
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return ""
	}

	return hostname
}

func getUser() *user.User {
	u, err := user.Current()
	if err != nil {
		return nil
	}

	return u
}

func getShell() string {
	if shell, ok := os.LookupEnv("SHELL"); ok {
		return shell
	}

	u := getUser()
	if u == nil || u.Username == "" {
		return ""
	}

	f, err := os.Open("/etc/passwd")
	if err != nil {
		return ""
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		if e := strings.Split(s.Text(), ":"); len(e) > 6 && e[0] == u.Username {
			return e[6]
		}
	}

	return ""
}

func getCwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return pathAbs(".")
	}

	return cwd
}

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return !os.IsNotExist(err)
}

func fileIsDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

func fileIsRegular(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

func fileIsSymlink(path string) bool {
	info, err := os.Lstat(path)

	return err == nil && info.Mode()&os.ModeSymlink != 0
}

func pathAbs(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return p
}

func pathCat(elem ...string) string {
	return filepath.Join(elem...)
}

func pathRel(from, to string) string {
	p, err := filepath.Rel(pathAbs(from), pathAbs(to))
	if err != nil {
		return pathCat(from, to)
	}

	return p
}

// mungPrefix prepends prefix items to the path list key, removing
// duplicates.
func mungPrefix(key string, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(key),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
	).String()
}

// mungPrefixIf is mungPrefix keeping only items accepted by predicate.
func mungPrefixIf(
	key string,
	predicate func(string) bool,
	prefix ...string,
) string {
	return mung.Make(
		mung.WithSubjectItems(key),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
		mung.WithFilter(predicate),
	).String()
}

// toYAML renders v as a YAML document without the trailing newline.
func toYAML(v any) (string, error) {
	b, err := yaml.Marshal(exportable(v))
	if err != nil {
		return "", err
	}

	return strings.TrimSuffix(string(b), "\n"), nil
}

// processEnv converts "KEY=VALUE" entries to a map.
// A nil list reads the current process environment.
func processEnv(list []string) map[string]string {
	if list == nil {
		list = os.Environ()
	}

	m := make(map[string]string, len(list))

	for _, entry := range list {
		if key, value, ok := strings.Cut(entry, "="); ok {
			m[key] = value
		}
	}

	return m
}

// envFunc returns the env() builtin over a fixed environment.
func envFunc(env map[string]string) func(string) string {
	return func(key string) string { return env[key] }
}
