package script

import (
	"log/slog"

	"github.com/expr-lang/expr/ast"

	"github.com/ardnew/weft/log"
)

// hyphenPatcher restores hyphenated names that expr-lang parsed as
// subtraction.
//
// Binding names may contain hyphens ("log-level"). When the joined name is
// bound in the environment, or is a key of a map reached through member
// access ("cfg.log-level"), the subtraction chain is replaced by the
// identifier or member it spells. Otherwise it stays a subtraction.
//
// ast.Walk visits children first, so "a-b-c" is patched whole even when
// only "a-b-c" is bound and "a-b" is not.
type hyphenPatcher struct {
	env    map[string]any
	logger log.Logger
}

// Visit implements [ast.Visitor].
func (p *hyphenPatcher) Visit(node *ast.Node) {
	bin, ok := (*node).(*ast.BinaryNode)
	if !ok || bin.Operator != "-" {
		return
	}

	base, name, ok := splitHyphenated(bin)
	if !ok {
		return
	}

	if base == nil {
		if _, bound := p.env[name]; bound {
			ast.Patch(node, &ast.IdentifierNode{Value: name})
			p.trace(name, "identifier")
		}

		return
	}

	path, ok := memberPath(base)
	if !ok || !p.hasChild(path, name) {
		return
	}

	ast.Patch(node, &ast.MemberNode{
		Node:     base,
		Property: &ast.StringNode{Value: name},
	})
	p.trace(name, "member")
}

func (p *hyphenPatcher) trace(name, kind string) {
	p.logger.Trace("patch hyphenated name",
		slog.String("name", name),
		slog.String("kind", kind))
}

// splitHyphenated flattens a chain of subtractions whose operands are plain
// names into the joined name and, for member access, the base node.
func splitHyphenated(n ast.Node) (base ast.Node, name string, ok bool) {
	switch n := n.(type) {
	case *ast.IdentifierNode:
		return nil, n.Value, true

	case *ast.MemberNode:
		prop, ok := n.Property.(*ast.StringNode)
		if !ok || n.Method {
			return nil, "", false
		}

		return n.Node, prop.Value, true

	case *ast.BinaryNode:
		if n.Operator != "-" {
			return nil, "", false
		}

		right, ok := n.Right.(*ast.IdentifierNode)
		if !ok {
			return nil, "", false
		}

		base, left, ok := splitHyphenated(n.Left)
		if !ok {
			return nil, "", false
		}

		return base, left + "-" + right.Value, true
	}

	return nil, "", false
}

// memberPath converts an identifier or member chain to its path segments.
func memberPath(n ast.Node) ([]string, bool) {
	switch n := n.(type) {
	case *ast.IdentifierNode:
		return []string{n.Value}, true

	case *ast.MemberNode:
		prop, ok := n.Property.(*ast.StringNode)
		if !ok {
			return nil, false
		}

		base, ok := memberPath(n.Node)
		if !ok {
			return nil, false
		}

		return append(base, prop.Value), true
	}

	return nil, false
}

// hasChild reports whether the map reached through path has key name.
func (p *hyphenPatcher) hasChild(path []string, name string) bool {
	var cur any = p.env

	for _, seg := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return false
		}

		if cur, ok = m[seg]; !ok {
			return false
		}
	}

	m, ok := cur.(map[string]any)
	if !ok {
		return false
	}

	_, ok = m[name]

	return ok
}
