// Package token defines source locations shared by every compiler phase.
package token

import "fmt"

// Position is the source location of an AST node: a line, a column, a byte
// length, and the origin path. It is filled in by the parser immediately
// after a grammar rule matches (spec.md section 3.1).
type Position struct {
	Line   int
	Col    int
	Length int
	Path   string
}

// Empty reports whether the position was never set. Per spec.md section
// 3.1, a position is empty when line, col and length are all zero and no
// path was recorded.
func (p Position) Empty() bool {
	return p.Line == 0 && p.Col == 0 && p.Length == 0 && p.Path == ""
}

// String renders the position as "path:line:col", matching the format used
// in diagnostics throughout the pipeline.
func (p Position) String() string {
	if p.Empty() {
		return "<unknown>"
	}
	if p.Path == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d:%d", p.Path, p.Line, p.Col)
}

// End returns the position immediately after this one, assuming the
// position does not span a newline. Used to synthesize locations for nodes
// built out of adjacent tokens.
func (p Position) End() Position {
	return Position{Line: p.Line, Col: p.Col + p.Length, Length: 0, Path: p.Path}
}
