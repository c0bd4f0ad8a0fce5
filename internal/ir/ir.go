package ir

import "fmt"

// Value is an SSA-style reference to an instruction's result, a function
// parameter, a global, or a constant. Values are produced by a Block's
// New* builder methods and consumed as Args/operands of later instructions.
type Value struct {
	id       int
	Name     string
	Type     Type
	constant bool
	constVal int64  // ConstInt payload, or 1/0 for ConstBool
	isNull   bool   // typed null pointer constant
	global   string // name of a Module-level global this value refers to
}

func ConstInt(ty Type, v int64) Value {
	return Value{Type: ty, constant: true, constVal: v}
}

func ConstNull(ty Type) Value {
	return Value{Type: ty, constant: true, isNull: true}
}

func (v Value) IsConstant() bool { return v.constant }
func (v Value) IsNull() bool     { return v.isNull }
func (v Value) ConstValue() int64 { return v.constVal }

func (v Value) String() string {
	switch {
	case v.isNull:
		return "null"
	case v.constant:
		return fmt.Sprintf("%s %d", v.Type, v.constVal)
	case v.global != "":
		return fmt.Sprintf("%s @%s", v.Type, v.global)
	default:
		return fmt.Sprintf("%s %%%s.%d", v.Type, v.Name, v.id)
	}
}

// Op names the instruction opcodes internal/irgen emits, matching the
// operations spec.md section 4.5 asks of a backend: allocation, control
// flow, aggregate addressing, and calls.
type Op int

const (
	OpAlloca Op = iota
	OpMallocCall
	OpBitCast
	OpICmpEqZero
	OpCondBr
	OpBr
	OpPhi
	OpGEP
	OpLoad
	OpStore
	OpCall
	OpRet
	OpRetVoid
	OpBinOp
	OpNot
	OpGlobalStringPtr
)

// Instr is one IR instruction. An OpBinOp instruction names its
// arithmetic/comparison operator by the source operator string (Operator)
// rather than by a second enum.
type Instr struct {
	Op       Op
	Result   Value
	Args     []Value
	ElemType Type
	Operator string // OpBinOp: the source operator token, e.g. "+"
	Callee   string // OpCall: function or runtime symbol name
	Str      string // OpGlobalStringPtr: the literal bytes
	Targets  []*Block
	Incoming []PhiEdge
}

// PhiEdge is one (value, predecessor) pair of a phi instruction.
type PhiEdge struct {
	Value Value
	Block *Block
}

func (i Instr) String() string {
	switch i.Op {
	case OpAlloca:
		return fmt.Sprintf("%s = alloca %s", i.Result, i.ElemType)
	case OpMallocCall:
		return fmt.Sprintf("%s = malloc %s, %s", i.Result, i.ElemType, i.Args[0])
	case OpBitCast:
		return fmt.Sprintf("%s = bitcast %s to %s", i.Result, i.Args[0], i.Result.Type)
	case OpICmpEqZero:
		return fmt.Sprintf("%s = icmp eq %s, 0", i.Result, i.Args[0])
	case OpCondBr:
		return fmt.Sprintf("br %s, label %%%s, label %%%s", i.Args[0], i.Targets[0].Name, i.Targets[1].Name)
	case OpBr:
		return fmt.Sprintf("br label %%%s", i.Targets[0].Name)
	case OpPhi:
		s := fmt.Sprintf("%s = phi %s ", i.Result, i.Result.Type)
		for j, e := range i.Incoming {
			if j > 0 {
				s += ", "
			}
			s += fmt.Sprintf("[%s, %%%s]", e.Value, e.Block.Name)
		}
		return s
	case OpGEP:
		s := fmt.Sprintf("%s = getelementptr %s", i.Result, i.Args[0])
		for _, idx := range i.Args[1:] {
			s += ", " + idx.String()
		}
		return s
	case OpLoad:
		return fmt.Sprintf("%s = load %s", i.Result, i.Args[0])
	case OpStore:
		return fmt.Sprintf("store %s, %s", i.Args[0], i.Args[1])
	case OpCall:
		s := fmt.Sprintf("%s = call %s @%s(", i.Result, i.Result.Type, i.Callee)
		for j, a := range i.Args {
			if j > 0 {
				s += ", "
			}
			s += a.String()
		}
		return s + ")"
	case OpRet:
		return fmt.Sprintf("ret %s", i.Args[0])
	case OpRetVoid:
		return "ret void"
	case OpBinOp:
		return fmt.Sprintf("%s = %s %s, %s", i.Result, i.Operator, i.Args[0], i.Args[1])
	case OpNot:
		return fmt.Sprintf("%s = not %s", i.Result, i.Args[0])
	case OpGlobalStringPtr:
		return fmt.Sprintf("%s = global_string_ptr %q", i.Result, i.Str)
	default:
		return "<unknown instruction>"
	}
}

// Block is a basic block: a straight-line instruction sequence ending in
// exactly one terminator (Br/CondBr/Ret/RetVoid).
type Block struct {
	Name   string
	Instrs []Instr
	fn     *Function
}

func (b *Block) Terminated() bool {
	if len(b.Instrs) == 0 {
		return false
	}
	switch b.Instrs[len(b.Instrs)-1].Op {
	case OpBr, OpCondBr, OpRet, OpRetVoid:
		return true
	default:
		return false
	}
}

func (b *Block) emit(i Instr) Value {
	b.fn.valSeq++
	i.Result.id = b.fn.valSeq
	b.Instrs = append(b.Instrs, i)
	return i.Result
}

// Function is an IR function: a parameter list, a declared return type, and
// a set of basic blocks rooted at Blocks[0].
type Function struct {
	Name       string
	Params     []Value
	ReturnType Type
	Blocks     []*Block
	External   bool // declared, not defined (e.g. the runtime "realloc")
	valSeq     int
}

func (f *Function) NewBlock(name string) *Block {
	b := &Block{Name: name, fn: f}
	f.Blocks = append(f.Blocks, b)
	return b
}

// Global is a module-scope constant, used for string literals lowered to a
// byte-array global per spec.md section 4.5.
type Global struct {
	Name string
	Type Type
	Str  string
}

// Module is the top-level IR unit compiler.Compile returns.
type Module struct {
	Name      string
	Functions []*Function
	Globals   []*Global
	Structs   map[string]Type // named class structs, keyed by mangled class name
}

func NewModule(name string) *Module {
	return &Module{Name: name, Structs: make(map[string]Type)}
}

func (m *Module) NewFunction(name string, params []Value, ret Type) *Function {
	f := &Function{Name: name, Params: params, ReturnType: ret}
	m.Functions = append(m.Functions, f)
	return f
}

func (m *Module) DeclareExternal(name string, params []Type, ret Type) *Function {
	for _, f := range m.Functions {
		if f.Name == name && f.External {
			return f
		}
	}
	ps := make([]Value, len(params))
	for i, p := range params {
		ps[i] = Value{Name: "", Type: p}
	}
	f := &Function{Name: name, Params: ps, ReturnType: ret, External: true}
	m.Functions = append(m.Functions, f)
	return f
}

func (m *Module) NewGlobalString(name, s string) Value {
	g := &Global{Name: name, Type: NewArray(I8Type, int64(len(s)+1)), Str: s}
	m.Globals = append(m.Globals, g)
	return Value{Name: name, Type: NewPointer(I8Type), global: name}
}

// NewGlobalSlot reserves a module-scope storage cell of type ty (used for
// Dachs global constants) and returns a pointer to it.
func (m *Module) NewGlobalSlot(name string, ty Type) Value {
	g := &Global{Name: name, Type: ty}
	m.Globals = append(m.Globals, g)
	return Value{Name: name, Type: NewPointer(ty), global: name}
}
