// Package cli contains the command line interface for weft.
//
// # Usage
//
//	weft [flags] <template>
//
// The template is rendered to standard output. A failure prints one line,
// "<file>: error: <message>", to standard error and exits with status 255.
// Every argument is checked before any file is read, so a malformed
// invocation never touches the file system:
//
//	weft --x page.tmpl   # weft: error: unknown cmdline option '--x'
//	weft                 # usage: weft [flags] <template>
//
// # Bindings
//
//   - -d, --data FILE: preload bindings from a YAML, JSON or TOML file
//   - -D, --define NAME=VALUE: bind a bool, number or string (NAME alone
//     binds true)
//   - --dump FILE: write the final bindings, as JSON for ".json" and YAML
//     otherwise, or to standard output for "-"
//   - -i, --interactive: continue in a console with the rendered bindings
//
// # Configuration
//
// Flags may also be set in <config dir>/weft/config.json,
// <config dir>/weft/config.yaml, or WEFT_* environment variables, e.g.
// WEFT_LOG_LEVEL. The command line takes precedence.
//
// # Logging Options
//
//   - --log-level: minimum level (trace, debug, info, warn, error)
//   - --log-format: output format (text, json)
//   - --log-time-layout: timestamp layout (RFC3339, kitchen, none, ...)
//   - --log-caller: include caller information
//   - --log-pretty: colorize output on terminals
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag, as in
// "go build -tags pprof .":
//
//   - --pprof-mode: enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: profile output directory (default: <cache dir>/weft/pprof)
package cli
