package irgen_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dachsc/dachs/internal/diag"
	"github.com/dachsc/dachs/internal/ir"
	"github.com/dachsc/dachs/internal/irgen"
	"github.com/dachsc/dachs/internal/parser"
	"github.com/dachsc/dachs/internal/sema"
)

func mustEmit(t *testing.T, src string) *ir.Module {
	t.Helper()
	tree, unit, err := parser.Parse([]byte(src), "test.dachs")
	require.NoError(t, err)
	bag := &diag.Bag{}
	scp := sema.RunForward(tree, unit, bag)
	require.Equal(t, 0, bag.FailureCount(), "forward analysis must succeed before codegen")
	require.NoError(t, sema.RunSemantic(tree, scp, bag))

	mod, err := irgen.New(tree, scp, "test").Emit()
	require.NoError(t, err)
	return mod
}

func findFunc(mod *ir.Module, name string) *ir.Function {
	for _, fn := range mod.Functions {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

func TestEmitSimpleFunctionReturnsBinOp(t *testing.T) {
	mod := mustEmit(t, "func add(a: int, b: int): int\n  ret a + b\nend\n")

	var fn *ir.Function
	for _, f := range mod.Functions {
		if len(f.Params) == 2 {
			fn = f
		}
	}
	require.NotNil(t, fn, "expected the two-parameter function to be emitted")
	require.Len(t, fn.Blocks, 1)

	var sawBinOp, sawRet bool
	for _, instr := range fn.Blocks[0].Instrs {
		switch instr.Op {
		case ir.OpBinOp:
			sawBinOp = true
			assert.Equal(t, "+", instr.Operator)
		case ir.OpRet:
			sawRet = true
		}
	}
	assert.True(t, sawBinOp, "expected a binop instruction for a+b")
	assert.True(t, sawRet, "expected a terminating ret")
}

func TestEmitGlobalInitStoresEachConstant(t *testing.T) {
	mod := mustEmit(t, "let x := 1\nlet y := 2\n")

	init := findFunc(mod, "dachs.init")
	require.NotNil(t, init, "expected the synthesized dachs.init function")
	require.Len(t, init.Blocks, 1)

	stores := 0
	for _, instr := range init.Blocks[0].Instrs {
		if instr.Op == ir.OpStore {
			stores++
		}
	}
	assert.Equal(t, 2, stores, "expected one store per global constant")
	assert.Len(t, mod.Globals, 2)
}

func TestEmitLambdaCapturesEnclosingLocal(t *testing.T) {
	src := "func make(n: int): int\n" +
		"  f := -> x in x + n\n" +
		"  ret f.(1)\n" +
		"end\n"
	mod := mustEmit(t, src)

	var sawMalloc bool
	for _, fn := range mod.Functions {
		for _, b := range fn.Blocks {
			for _, instr := range b.Instrs {
				if instr.Op == ir.OpMallocCall {
					sawMalloc = true
				}
			}
		}
	}
	assert.True(t, sawMalloc, "expected the closure's capture struct to be heap-allocated")
}

func TestEmitDirectCallOrdersSelfBeforeExplicitArgs(t *testing.T) {
	src := "class Counter\n" +
		"  @n: int\n" +
		"  func bump(d: int): int\n" +
		"    ret @n + d\n" +
		"  end\n" +
		"end\n" +
		"func use(): int\n" +
		"  c := new Counter()\n" +
		"  ret c.bump(1)\n" +
		"end\n"
	mod := mustEmit(t, src)

	var use *ir.Function
	for _, fn := range mod.Functions {
		if len(fn.Blocks) > 0 {
			for _, instr := range fn.Blocks[0].Instrs {
				if instr.Op == ir.OpCall {
					use = fn
				}
			}
		}
	}
	require.NotNil(t, use, "expected a function containing a call instruction")

	var bump *ir.Instr
	for _, fn := range mod.Functions {
		for _, b := range fn.Blocks {
			for i := range b.Instrs {
				if b.Instrs[i].Op == ir.OpCall && strings.HasPrefix(b.Instrs[i].Callee, "bump$") {
					bump = &b.Instrs[i]
				}
			}
		}
	}
	require.NotNil(t, bump, "expected a call to the bump member function")
	require.Len(t, bump.Args, 2, "expected self followed by the one explicit argument")
	assert.True(t, bump.Args[0].Type.IsPointer(), "expected self (the object pointer) first")
	assert.True(t, bump.Args[1].IsConstant())
	assert.Equal(t, int64(1), bump.Args[1].ConstValue(), "expected the explicit argument after self")
}

func TestEmitSwitchExprJoinsArmsWithPhi(t *testing.T) {
	src := "func f(x: int): int\n" +
		"  ret case x\n" +
		"    when 1 then 10\n" +
		"    when 2 then 20\n" +
		"    else 0\n" +
		"  end\n" +
		"end\n"
	mod := mustEmit(t, src)

	var fn *ir.Function
	for _, f := range mod.Functions {
		if len(f.Params) == 1 {
			fn = f
		}
	}
	require.NotNil(t, fn, "expected the one-parameter function to be emitted")

	var sawPhi bool
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			if instr.Op == ir.OpPhi {
				sawPhi = true
			}
		}
	}
	assert.True(t, sawPhi, "expected the switch-expression arms to join through a phi")
}

func TestEmitPostfixUnlessNegatesCondition(t *testing.T) {
	src := "func f(x: int): int\n" +
		"  ret 1 unless x == 0\n" +
		"  ret 0\n" +
		"end\n"
	mod := mustEmit(t, src)

	var fn *ir.Function
	for _, f := range mod.Functions {
		if len(f.Params) == 1 {
			fn = f
		}
	}
	require.NotNil(t, fn)

	var sawNot bool
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			if instr.Op == ir.OpNot {
				sawNot = true
			}
		}
	}
	assert.True(t, sawNot, "expected the unless condition to be negated")
}

func TestEmitArrayShorthandConstructionMallocsElements(t *testing.T) {
	mod := mustEmit(t, "func f(): [int]\n  ret new [int]{4u}\nend\n")

	var fn *ir.Function
	for _, f := range mod.Functions {
		if len(f.Blocks) > 0 {
			for _, instr := range f.Blocks[0].Instrs {
				if instr.Op == ir.OpMallocCall {
					fn = f
				}
			}
		}
	}
	require.NotNil(t, fn, "expected the array-shorthand construction to emit a malloc call")
}
