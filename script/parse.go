package script

import (
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind identifies the form of a [Value].
type Kind int

const (
	KindExpr  Kind = iota // expr
	KindBlock             // block
)

// Statement is one parsed statement. Exactly one of Binding and Expr is set.
type Statement struct {
	Binding *Binding
	Expr    string
	Start   int // offset of the first non-trivia byte
	End     int // offset just past the statement
}

// Binding is "name params... : value".
type Binding struct {
	Name   string
	Params []Param
	Value  *Value
	Offset int
}

// Param is a function parameter. A variadic parameter collects every
// remaining argument and is always last.
type Param struct {
	Name     string
	Variadic bool
}

// Value is the right-hand side of a binding.
type Value struct {
	Kind    Kind
	Source  string     // KindExpr
	Entries []*Binding // KindBlock
	Offset  int
}

// parser reads one statement from input starting at pos. Offsets are
// absolute in input and never exceed len(input).
type parser struct {
	input []byte
	pos   int
	block int // nesting depth of blocks being parsed
}

func newParser(input []byte, off int) *parser {
	return &parser{input: input, pos: min(max(off, 0), len(input))}
}

// parseStatement parses: Binding | Expression.
//
// A binding is attempted first. If the text cannot be a binding (no ':'
// after the name and parameters), the parser rewinds and captures an
// expression instead, so "a ? b : c" is an expression.
func (p *parser) parseStatement() (*Statement, error) {
	p.skipWhitespaceAndComments()

	start := p.pos

	if p.eof() || p.peek() == '}' || p.peek() == ';' {
		return nil, ErrEmptyStatement.WithOffset(start)
	}

	if isIdentifierStart(p.peek()) {
		b, committed, err := p.parseBinding()
		if err == nil {
			return &Statement{Binding: b, Start: start, End: p.pos}, nil
		}

		if committed {
			return nil, err
		}

		p.pos = start
	}

	source, err := p.captureExpression()
	if err != nil {
		return nil, err
	}

	if source == "" {
		return nil, ErrEmptyStatement.WithOffset(start)
	}

	return &Statement{Expr: source, Start: start, End: p.pos}, nil
}

// parseBinding parses: Identifier Param* ':' Value.
// committed reports whether the text is certainly a binding (the ':' was
// consumed, or a parameter was repeated), after which a failure is final
// rather than a reason to rewind.
func (p *parser) parseBinding() (b *Binding, committed bool, err error) {
	off := p.pos

	name, err := p.parseIdentifier()
	if err != nil {
		return nil, false, err
	}

	params, err := p.parseParams()
	if err != nil {
		return nil, true, err
	}

	p.skipWhitespaceAndComments()

	if !p.expect(':') {
		return nil, false, ErrParse.WithOffset(p.pos).
			With(slog.String("expected", ":"), slog.String("name", name))
	}

	p.skipWhitespaceAndComments()

	value, err := p.parseValue()
	if err != nil {
		return nil, true, err
	}

	return &Binding{Name: name, Params: params, Value: value, Offset: off}, true, nil
}

// parseParams parses zero or more parameters.
func (p *parser) parseParams() ([]Param, error) {
	var params []Param

	seen := make(map[string]bool)

	for {
		p.skipWhitespaceAndComments()

		if p.eof() || p.peek() == ':' {
			break
		}

		save := p.pos
		variadic := false

		if p.peekN(3) == "..." {
			variadic = true
			p.pos += 3
			p.skipWhitespaceAndComments()
		}

		if !isIdentifierStart(p.peek()) {
			p.pos = save

			break
		}

		name, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}

		if seen[name] {
			return nil, ErrParse.WithOffset(save).
				With(slog.String("duplicate_param", name))
		}

		seen[name] = true
		params = append(params, Param{Name: name, Variadic: variadic})

		if variadic {
			break
		}
	}

	return params, nil
}

// parseValue parses a value (either Block or Expression).
func (p *parser) parseValue() (*Value, error) {
	off := p.pos

	if p.peek() == '{' && p.isBlock() {
		return p.parseBlock()
	}

	source, err := p.captureExpression()
	if err != nil {
		return nil, err
	}

	if source == "" {
		return nil, ErrParse.WithOffset(off).
			With(slog.String("expected", "value"))
	}

	return &Value{Kind: KindExpr, Source: source, Offset: off}, nil
}

// isBlock reports whether the '{' at pos opens a block of bindings rather
// than an expression map literal. It does not move the cursor.
func (p *parser) isBlock() bool {
	saved := p.pos
	defer func() { p.pos = saved }()

	p.advance() // '{'
	p.skipWhitespaceAndComments()

	if p.peek() == '}' {
		return true
	}

	if !isIdentifierStart(p.peek()) {
		return false
	}

	for i := p.pos; i < len(p.input); i++ {
		switch p.input[i] {
		case ':':
			return true
		case '{', '}', ';', '"', '\'', '`', ',':
			return false
		}
	}

	return false
}

// parseBlock parses: '{' (Binding (Sep Binding)* Sep?)? '}', where Sep is
// ';' or ','.
func (p *parser) parseBlock() (*Value, error) {
	off := p.pos

	if !p.expect('{') {
		return nil, ErrParse.WithOffset(off).With(slog.String("expected", "{"))
	}

	var entries []*Binding

	p.block++
	defer func() { p.block-- }()

	for {
		p.skipWhitespaceAndComments()

		if p.eof() {
			return nil, ErrParse.WithOffset(p.pos).
				With(slog.String("expected", "}"))
		}

		if p.expect('}') {
			break
		}

		b, _, err := p.parseBinding()
		if err != nil {
			return nil, err
		}

		entries = append(entries, b)

		p.skipWhitespaceAndComments()

		if !p.expect(';') {
			p.expect(',')
		}
	}

	return &Value{Kind: KindBlock, Entries: entries, Offset: off}, nil
}

// captureExpression captures raw expression text. It stops at an unbalanced
// closing bracket, a top-level ';' (or ',' inside a block), a top-level '#'
// comment, or the end of input, tracking nesting of '()', '[]' and '{}'.
// Delimiters inside string literals and comments do not count. Nested '#'
// is the predicate element and stays part of the expression.
//
// A line comment consumes everything up to the newline, including any "}}"
// on that line.
func (p *parser) captureExpression() (string, error) {
	start := p.pos
	depth := 0

scan:
	for !p.eof() {
		ch := p.peek()

		switch {
		case ch == '"' || ch == '\'' || ch == '`':
			if err := p.skipString(ch); err != nil {
				return "", err
			}

			continue

		case p.atExprComment():
			p.skipComment()

			continue
		}

		switch ch {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth == 0 {
				break scan
			}

			depth--
		case ';', '#':
			if depth == 0 {
				break scan
			}
		case ',':
			if depth == 0 && p.block > 0 {
				break scan
			}
		}

		p.advance()
	}

	return stripComments(string(p.input[start:p.pos])), nil
}

// parseIdentifier parses an identifier. Internal hyphens are allowed when
// followed by an identifier character, so "log-level" is one identifier but
// "a - b" and "a-" are not.
func (p *parser) parseIdentifier() (string, error) {
	start := p.pos

	if !isIdentifierStart(p.peek()) {
		return "", ErrParse.WithOffset(p.pos).
			With(slog.String("expected", "identifier"))
	}

	p.advance()

	for !p.eof() {
		ch := p.peek()

		if isIdentifierContinue(ch) {
			p.advance()

			continue
		}

		if ch == '-' && p.pos+1 < len(p.input) {
			next, _ := utf8.DecodeRune(p.input[p.pos+1:])
			if isIdentifierContinue(next) {
				p.advance()

				continue
			}
		}

		break
	}

	return string(p.input[start:p.pos]), nil
}

func (p *parser) peek() rune {
	if p.eof() {
		return 0
	}

	r, _ := utf8.DecodeRune(p.input[p.pos:])

	return r
}

func (p *parser) peekN(n int) string {
	if p.pos+n > len(p.input) {
		return string(p.input[p.pos:])
	}

	return string(p.input[p.pos : p.pos+n])
}

func (p *parser) advance() {
	if p.eof() {
		return
	}

	_, size := utf8.DecodeRune(p.input[p.pos:])
	p.pos += size
}

func (p *parser) expect(ch rune) bool {
	if p.peek() == ch {
		p.advance()

		return true
	}

	return false
}

func (p *parser) eof() bool {
	return p.pos >= len(p.input)
}

// atComment reports whether a comment starts at pos in trivia position.
func (p *parser) atComment() bool {
	return p.peek() == '#' || p.atExprComment()
}

// atExprComment reports whether a comment starts at pos inside an
// expression. Only a top-level '#' ends an expression, so nested '#' is
// still the predicate element.
func (p *parser) atExprComment() bool {
	s := p.peekN(2)

	return s == "//" || s == "/*"
}

func (p *parser) skipWhitespaceAndComments() {
	for !p.eof() {
		if unicode.IsSpace(p.peek()) {
			p.advance()

			continue
		}

		if p.atComment() {
			p.skipComment()

			continue
		}

		return
	}
}

// skipComment skips the comment at pos. Line comments end before the
// newline; an unterminated block comment runs to the end of input.
func (p *parser) skipComment() {
	if p.peekN(2) == "/*" {
		p.pos += 2

		if i := strings.Index(string(p.input[p.pos:]), "*/"); i >= 0 {
			p.pos += i + 2
		} else {
			p.pos = len(p.input)
		}

		return
	}

	for !p.eof() && p.peek() != '\n' {
		p.advance()
	}
}

func (p *parser) skipString(quote rune) error {
	start := p.pos

	p.advance() // opening quote

	for !p.eof() {
		ch := p.peek()

		if ch == '\\' && quote != '`' {
			p.advance()
			p.advance()

			continue
		}

		p.advance()

		if ch == quote {
			return nil
		}
	}

	return ErrParse.WithOffset(start).
		With(slog.String("error", "unterminated string"))
}

func isIdentifierStart(r rune) bool {
	return unicode.In(r,
		unicode.L,
		unicode.Nl,
		unicode.Other_ID_Start,
	) || r == '_'
}

func isIdentifierContinue(r rune) bool {
	return unicode.In(r,
		unicode.L,
		unicode.Nl,
		unicode.Other_ID_Start,
		unicode.Mn,
		unicode.Mc,
		unicode.Nd,
		unicode.Pc,
		unicode.Other_ID_Continue,
	)
}

// stripComments removes "//" and "/* */" comments outside string literals
// and trims surrounding whitespace.
func stripComments(s string) string {
	var (
		b     strings.Builder
		quote byte
	)

	for i := 0; i < len(s); i++ {
		ch := s[i]

		if quote != 0 {
			b.WriteByte(ch)

			switch {
			case ch == '\\' && quote != '`' && i+1 < len(s):
				i++
				b.WriteByte(s[i])
			case ch == quote:
				quote = 0
			}

			continue
		}

		switch {
		case ch == '"' || ch == '\'' || ch == '`':
			quote = ch
			b.WriteByte(ch)

		case strings.HasPrefix(s[i:], "//"):
			for i+1 < len(s) && s[i+1] != '\n' {
				i++
			}

		case strings.HasPrefix(s[i:], "/*"):
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				i = len(s)
			} else {
				i += end + 3
			}

			b.WriteByte(' ')

		default:
			b.WriteByte(ch)
		}
	}

	return strings.TrimSpace(b.String())
}

// SkipTrivia returns the offset of the first byte at or after off that is
// not whitespace or a comment. It never exceeds len(src).
func SkipTrivia(src []byte, off int) int {
	p := newParser(src, off)
	p.skipWhitespaceAndComments()

	return p.pos
}
