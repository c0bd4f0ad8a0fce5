package ast

// Kind tags every node in the tree. Grouping the grammar's two polymorphic
// families (any_expression, any_type) and the flat statement variant into one
// closed enum lets every pass dispatch with a single switch, the same way
// the teacher's gql/ast.go dispatches on the concrete ASTNode type and
// yaegi's interp/interp.go dispatches on nkind.
type Kind uint8

const (
	Invalid Kind = iota

	// --- expressions ---
	IntLit
	UintLit
	FloatLit
	CharLit
	BoolLit
	StringLit
	SymbolLit
	ArrayLit
	TupleLit
	DictLit
	DictLitEntry
	Lambda
	VarRef
	Invocation   // callee(args...), optional trailing block arg
	ObjectConstr // new Type(args...), optional trailing block
	IndexAccess
	UFCSInvocation // receiver.name without parens
	Cast           // expr as Type
	Unary
	Binary
	BlockExpr // { stmts...; tail }
	IfExpr
	SwitchExpr
	WhenClause // switch "when" branch: condition(s) + body
	TypedExpr  // expr : Type annotation

	// --- types ---
	TypePrimary
	TypeTuple
	TypeFunc
	TypeArray
	TypeDict
	TypePointer
	TypeOf
	TypeQualified

	// --- statements ---
	Assign
	VarDecl
	Initialize // `a, b := e1, e2`
	If
	Switch
	Return
	For
	While
	PostfixIf
	StmtBlock
	FuncDef
	ClassDef
	Param
	InstanceVarDecl
	Import
	BeginEnd
	CompilationUnit
)

func (k Kind) String() string {
	switch k {
	case Invalid:
		return "invalid"
	case IntLit:
		return "int_lit"
	case UintLit:
		return "uint_lit"
	case FloatLit:
		return "float_lit"
	case CharLit:
		return "char_lit"
	case BoolLit:
		return "bool_lit"
	case StringLit:
		return "string_lit"
	case SymbolLit:
		return "symbol_lit"
	case ArrayLit:
		return "array_lit"
	case TupleLit:
		return "tuple_lit"
	case DictLit:
		return "dict_lit"
	case DictLitEntry:
		return "dict_lit_entry"
	case Lambda:
		return "lambda"
	case VarRef:
		return "var_ref"
	case Invocation:
		return "invocation"
	case ObjectConstr:
		return "object_construction"
	case IndexAccess:
		return "index_access"
	case UFCSInvocation:
		return "ufcs_invocation"
	case Cast:
		return "cast"
	case Unary:
		return "unary"
	case Binary:
		return "binary"
	case BlockExpr:
		return "block_expr"
	case IfExpr:
		return "if_expr"
	case SwitchExpr:
		return "switch_expr"
	case WhenClause:
		return "when_clause"
	case TypedExpr:
		return "typed_expr"
	case TypePrimary:
		return "type_primary"
	case TypeTuple:
		return "type_tuple"
	case TypeFunc:
		return "type_func"
	case TypeArray:
		return "type_array"
	case TypeDict:
		return "type_dict"
	case TypePointer:
		return "type_pointer"
	case TypeOf:
		return "typeof"
	case TypeQualified:
		return "type_qualified"
	case Assign:
		return "assign"
	case VarDecl:
		return "var_decl"
	case Initialize:
		return "initialize"
	case If:
		return "if_stmt"
	case Switch:
		return "switch_stmt"
	case Return:
		return "return"
	case For:
		return "for"
	case While:
		return "while"
	case PostfixIf:
		return "postfix_if"
	case StmtBlock:
		return "stmt_block"
	case FuncDef:
		return "func_def"
	case ClassDef:
		return "class_def"
	case Param:
		return "param"
	case InstanceVarDecl:
		return "instance_var_decl"
	case Import:
		return "import"
	case BeginEnd:
		return "begin_end"
	case CompilationUnit:
		return "compilation_unit"
	default:
		return "unknown_kind"
	}
}

// IsExpression reports whether k belongs to the any_expression family.
func (k Kind) IsExpression() bool {
	return k >= IntLit && k <= TypedExpr
}

// IsType reports whether k belongs to the any_type family.
func (k Kind) IsType() bool {
	return k >= TypePrimary && k <= TypeQualified
}

// IsStatement reports whether k belongs to the flat statement variant.
func (k Kind) IsStatement() bool {
	return k >= Assign && k <= CompilationUnit
}
