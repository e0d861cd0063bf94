// Package script implements the weft statement language.
//
// Each template span holds one statement:
//
//	Statement  → Binding | Expression
//	Binding    → Identifier Param* ':' Value
//	Param      → Identifier | '...' Identifier
//	Value      → Block | Expression
//	Block      → '{' (Binding (Sep Binding)* Sep?)? '}'   Sep is ';' or ','
//	Identifier → letter or '_', then letters, digits, '_', internal '-'
//
// Expressions are [github.com/expr-lang/expr] source. A binding stores its
// value in the [Env] and writes nothing. An expression statement writes its
// result, formatted by [Format], to the Env's writer:
//
//	{{ name : "world" }}
//	Hello, {{ name }}!
//	{{ greet who : "Hello, " + who }}
//	{{ greet(upper(name)) }}
//	{{ cfg : { host : "localhost"; port : 8080 } }}
//	{{ cfg.host + ":" + string(cfg.port) }}
//
// Whitespace and comments ('#' or "//" to end of line, "/* */") may surround
// a statement. Inside an expression '#' is expr-lang's predicate element,
// so only "//" and "/* */" are comments there.
//
// Names resolve to, in order of precedence, function parameters and block
// siblings, user bindings, and builtins (target, platform, hostname, user,
// shell, cwd, now, env, file, path, mung, yaml).
package script
