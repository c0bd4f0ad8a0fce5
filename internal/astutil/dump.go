// Package astutil provides a one-way textual dump of an internal/ast tree
// (there is no parser for the dump format), used by the `dachsc -dump-ast`
// driver flag
// (spec.md section 5's node-id/position model makes an s-expression dump
// the natural debugging aid, the same role internal/scope's tests lean on
// testify's require to check shape rather than print it).
package astutil

import (
	"fmt"
	"strings"

	"github.com/dachsc/dachs/internal/ast"
)

// Dump renders id and its subtree as an indented s-expression, one node
// per line: `(Kind "ident" literal synthetic @line:col)`, each part after
// Kind present only when set. Synthetic nodes (parser rewrites, e.g. the
// `new [T]{n}` desugaring) are marked so a reader can
// tell a rewritten node apart from one with a real source location.
func Dump(tree *ast.Tree, id ast.NodeID) string {
	var b strings.Builder
	dump(&b, tree, id, 0)
	return b.String()
}

func dump(b *strings.Builder, tree *ast.Tree, id ast.NodeID, depth int) {
	if id == ast.InvalidNode {
		return
	}
	n := tree.Node(id)
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteByte('(')
	b.WriteString(n.Kind.String())
	if n.Ident != "" {
		fmt.Fprintf(b, " %q", n.Ident)
	}
	writeLiteral(b, n)
	if n.Synthetic {
		b.WriteString(" synthetic")
	}
	if !n.EmptyPos() {
		fmt.Fprintf(b, " @%d:%d", n.Pos.Line, n.Pos.Col)
	}
	b.WriteByte(')')
	b.WriteByte('\n')
	for _, c := range n.Children {
		dump(b, tree, c, depth+1)
	}
}

func writeLiteral(b *strings.Builder, n *ast.Node) {
	switch n.Kind {
	case ast.IntLit:
		fmt.Fprintf(b, " %d", n.IntVal)
	case ast.UintLit:
		fmt.Fprintf(b, " %d", n.UintVal)
	case ast.FloatLit:
		fmt.Fprintf(b, " %g", n.FloatVal)
	case ast.CharLit:
		fmt.Fprintf(b, " %q", rune(n.CharVal))
	case ast.BoolLit:
		fmt.Fprintf(b, " %t", n.BoolVal)
	case ast.StringLit:
		fmt.Fprintf(b, " %q", n.StrVal)
	}
}
