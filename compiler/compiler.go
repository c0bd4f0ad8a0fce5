// Package compiler glues the four pipeline phases (parser, forward
// analyzer, semantic/type analyzer, allocation & IR emitter) into the
// single entry point spec.md section 4.6 describes, the same thin-wiring
// role the teacher's gql.go plays over its own lex/parse/typecheck/eval
// stages.
package compiler

import (
	"github.com/pkg/errors"

	"github.com/dachsc/dachs/internal/diag"
	"github.com/dachsc/dachs/internal/ir"
	"github.com/dachsc/dachs/internal/irgen"
	"github.com/dachsc/dachs/internal/parser"
	"github.com/dachsc/dachs/internal/sema"
)

// Result is everything a caller might want out of a successful
// compilation: the emitted module plus any warnings collected along the
// way (a clean compile can still carry shadowing warnings).
type Result struct {
	Module      *ir.Module
	Diagnostics []*diag.Diagnostic
}

// Compile runs the full pipeline over src (read from the named path, used
// only for diagnostic positions) and stops at the first phase that fails,
// per spec.md section 7's "batched within a phase, fatal across phases"
// error model: a parse error never reaches the semantic analyzer, and a
// semantic failure never reaches the IR emitter.
func Compile(src []byte, path string) (*Result, error) {
	tree, unit, err := parser.Parse(src, path)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	bag := &diag.Bag{}
	scp := sema.RunForward(tree, unit, bag)
	if err := bag.CheckPhase("forward"); err != nil {
		return nil, err
	}

	if err := sema.RunSemantic(tree, scp, bag); err != nil {
		return nil, err
	}

	mod, err := irgen.New(tree, scp, path).Emit()
	if err != nil {
		return nil, errors.Wrap(err, "codegen")
	}

	return &Result{Module: mod, Diagnostics: bag.Diagnostics}, nil
}
