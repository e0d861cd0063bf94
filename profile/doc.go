// Package profile wraps [github.com/pkg/profile] so that weft can record
// runtime profiles of a render.
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof .
//	weft --pprof-mode cpu --pprof-dir ./prof page.tmpl
//	go tool pprof -http=: ./prof/cpu.pprof
//
// Without the tag, [Modes] is empty and [Config.Start] returns a no-op
// [Stopper], so callers never need to check which build they are in.
//
// The pprof build also registers the [net/http/pprof] handlers on
// [net/http.DefaultServeMux]; weft itself never serves them.
package profile

// Tag is the build tag required to enable profiling.
const Tag = `pprof`
