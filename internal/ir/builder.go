package ir

// Builder methods append one instruction to a Block and return the Value it
// produces. They mirror the llvm::IRBuilder call shapes the original
// allocation_emitter.hpp and codegen rules (spec.md section 4.5) drive, cut
// down to exactly the instructions this compiler ever asks for.

// NewAlloca reserves a named stack slot for a local variable, distinct from
// NewMallocCall's heap allocation: Dachs locals are value slots the
// function frame owns, not `new`-expression heap objects.
func (b *Block) NewAlloca(ty Type, name string) Value {
	return b.emit(Instr{Op: OpAlloca, Result: Value{Name: name, Type: NewPointer(ty)}, ElemType: ty})
}

func (b *Block) NewMallocCall(elemType Type, n Value) Value {
	return b.emit(Instr{
		Op:       OpMallocCall,
		Result:   Value{Name: "malloc.call", Type: NewPointer(elemType)},
		Args:     []Value{n},
		ElemType: elemType,
	})
}

func (b *Block) NewReallocCall(reallocFn *Function, ptr Value, byteSize Value) Value {
	casted := b.NewBitCast(ptr, NewPointer(I8Type))
	raw := b.emit(Instr{
		Op:     OpCall,
		Result: Value{Name: "realloc.call", Type: NewPointer(I8Type)},
		Args:   []Value{casted, byteSize},
		Callee: reallocFn.Name,
	})
	return b.NewBitCast(raw, ptr.Type)
}

func (b *Block) NewBitCast(v Value, to Type) Value {
	if Equal(v.Type, to) {
		return v
	}
	return b.emit(Instr{Op: OpBitCast, Result: Value{Name: "cast", Type: to}, Args: []Value{v}})
}

func (b *Block) NewICmpEqZero(v Value) Value {
	return b.emit(Instr{Op: OpICmpEqZero, Result: Value{Name: "iszero", Type: I1Type}, Args: []Value{v}})
}

func (b *Block) NewCondBr(cond Value, ifTrue, ifFalse *Block) {
	b.emit(Instr{Op: OpCondBr, Args: []Value{cond}, Targets: []*Block{ifTrue, ifFalse}})
}

func (b *Block) NewBr(target *Block) {
	b.emit(Instr{Op: OpBr, Targets: []*Block{target}})
}

func (b *Block) NewPhi(ty Type, incoming []PhiEdge) Value {
	return b.emit(Instr{Op: OpPhi, Result: Value{Name: "phi", Type: ty}, Incoming: incoming})
}

// NewAllocPhi builds the two-block-merge shape every zero/nonzero
// allocation site needs (spec.md section 4.5): a typed-null value flowing
// from the block that tested n==0, joined with the pointer the nonzero
// block actually allocated.
func NewAllocPhi(merge *Block, ty Type, zeroBlock, nonzeroBlock *Block, nonzeroValue Value) Value {
	return merge.NewPhi(ty, []PhiEdge{
		{Value: ConstNull(ty), Block: zeroBlock},
		{Value: nonzeroValue, Block: nonzeroBlock},
	})
}

func (b *Block) NewGEP(base Value, resultType Type, indices ...Value) Value {
	return b.emit(Instr{Op: OpGEP, Result: Value{Name: "gep", Type: resultType}, Args: append([]Value{base}, indices...)})
}

func (b *Block) NewLoad(ptr Value) Value {
	return b.emit(Instr{Op: OpLoad, Result: Value{Name: "load", Type: ptr.Type.Elem()}, Args: []Value{ptr}})
}

func (b *Block) NewStore(v, ptr Value) {
	b.emit(Instr{Op: OpStore, Args: []Value{v, ptr}})
}

func (b *Block) NewCall(callee string, ret Type, args ...Value) Value {
	return b.emit(Instr{Op: OpCall, Result: Value{Name: "call", Type: ret}, Args: args, Callee: callee})
}

func (b *Block) NewRet(v Value) {
	b.emit(Instr{Op: OpRet, Args: []Value{v}})
}

func (b *Block) NewRetVoid() {
	b.emit(Instr{Op: OpRetVoid})
}

func (b *Block) NewBinOp(op string, ty Type, lhs, rhs Value) Value {
	return b.emit(Instr{Op: OpBinOp, Result: Value{Name: "binop", Type: ty}, Args: []Value{lhs, rhs}, Operator: op})
}

func (b *Block) NewNot(v Value) Value {
	return b.emit(Instr{Op: OpNot, Result: Value{Name: "not", Type: I1Type}, Args: []Value{v}})
}
