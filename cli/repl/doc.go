// Package repl implements the interactive weft console.
//
// Each submitted line is one statement, executed against a single
// [script.Env] that persists for the whole session. Lines starting with ':'
// are console commands: :help, :list, :edit, :clear and :quit.
//
// Completion candidates are fuzzy matched against the session's bindings
// and the builtins, and history is kept in the user's cache directory.
package repl
