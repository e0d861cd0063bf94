// Package log provides a simplified leveled logging interface based on
// [log/slog].
//
// The package offers configurable time formatting, caller information,
// output formats, and colorized pretty printing. Configuration is applied at
// logger creation time using functional options.
//
// # Basic Usage
//
//	logger := log.Make(os.Stderr)
//	logger.Warn("template has no spans", slog.String("file", name))
//
// # Configuration
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatJSON),
//		log.WithTimeLayout("RFC3339Nano"),
//		log.WithCaller(true))
//
// # Default Logger
//
// The package-level functions ([Trace], [Debug], [Info], [Warn], [Error], and
// their Context variants) write through a process-wide default logger. It
// writes to standard error at [DefaultLevel] until reconfigured with [Config].
// Standard output is never used by default because it carries rendered
// template output.
//
// # Levels
//
// Five levels are supported: [LevelTrace], [LevelDebug], [LevelInfo],
// [LevelWarn], and [LevelError]. Messages below the configured level are
// discarded.
//
// # Pretty Printing
//
// With [WithPretty] enabled, records are colorized using lipgloss styles.
// Colors are only emitted when the output is a terminal.
package log
