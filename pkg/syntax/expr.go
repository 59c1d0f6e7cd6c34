package syntax

// ExprVariant is the payload of an Expr.
type ExprVariant interface {
	Variant
	exprVariant()
}

// Expression variant tags.
const (
	TagPath       = "Path"
	TagLit        = "Lit"
	TagBinary     = "Binary"
	TagUnary      = "Unary"
	TagAssign     = "Assign"
	TagAssignOp   = "AssignOp"
	TagCall       = "Call"
	TagMethodCall = "MethodCall"
	TagField      = "Field"
	TagIndex      = "Index"
	TagCast       = "Cast"
	TagParen      = "Paren"
	TagAddrOf     = "AddrOf"
	TagBlockExpr  = "Block"
	TagIf         = "If"
	TagWhile      = "While"
	TagLoop       = "Loop"
	TagRet        = "Ret"
	TagBreak      = "Break"
	TagContinue   = "Continue"
	TagTup        = "Tup"
	TagArray      = "Array"
	TagMac        = "Mac"
	TagRaw        = "Raw"
)

// PathExpr is a path such as x or std::mem::swap.
type PathExpr struct{ Path string }

// LitExpr is a literal. LitKind is one of int, float, str, char, bool.
type LitExpr struct {
	LitKind string
	Value   string
}

// BinaryExpr is lhs op rhs.
type BinaryExpr struct {
	Op  string
	LHS *Expr
	RHS *Expr
}

// UnaryExpr is op x for op in -, !, *.
type UnaryExpr struct {
	Op string
	X  *Expr
}

// AssignExpr is lhs = rhs.
type AssignExpr struct {
	LHS *Expr
	RHS *Expr
}

// AssignOpExpr is lhs op= rhs; Op excludes the trailing "=".
type AssignOpExpr struct {
	Op  string
	LHS *Expr
	RHS *Expr
}

// CallExpr is func(args...).
type CallExpr struct {
	Func *Expr
	Args []*Expr
}

// MethodCallExpr is receiver.method(args...).
type MethodCallExpr struct {
	Receiver *Expr
	Method   string
	Args     []*Expr
}

// FieldExpr is x.name.
type FieldExpr struct {
	X    *Expr
	Name string
}

// IndexExpr is x[index].
type IndexExpr struct {
	X     *Expr
	Index *Expr
}

// CastExpr is x as ty.
type CastExpr struct {
	X  *Expr
	Ty *Type
}

// ParenExpr is (x).
type ParenExpr struct{ X *Expr }

// AddrOfExpr is &x or &mut x.
type AddrOfExpr struct {
	Mut bool
	X   *Expr
}

// BlockExpr is { ... } or unsafe { ... }.
type BlockExpr struct {
	Unsafe bool
	Body   *Block
}

// IfExpr is if cond { then } else else_. Else is nil, a Block expression or
// another If expression.
type IfExpr struct {
	Cond *Expr
	Then *Block
	Else *Expr
}

// WhileExpr is while cond { body }.
type WhileExpr struct {
	Cond *Expr
	Body *Block
}

// LoopExpr is loop { body }.
type LoopExpr struct{ Body *Block }

// ReturnExpr is return or return x.
type ReturnExpr struct{ X *Expr }

// BreakExpr is break, optionally labeled and with a value.
type BreakExpr struct {
	Label string
	X     *Expr
}

// ContinueExpr is continue, optionally labeled.
type ContinueExpr struct{ Label string }

// TupleExpr is (a, b, ...).
type TupleExpr struct{ Elems []*Expr }

// ArrayExpr is [a, b, ...].
type ArrayExpr struct{ Elems []*Expr }

// MacroExpr is a macro invocation; Tokens holds the delimited token tree verbatim.
type MacroExpr struct {
	Path   string
	Tokens string
}

// RawExpr keeps the source text of syntax the tree does not model.
type RawExpr struct{ Text string }

func (v *PathExpr) Tag() string       { return TagPath }
func (v *LitExpr) Tag() string        { return TagLit }
func (v *BinaryExpr) Tag() string     { return TagBinary }
func (v *UnaryExpr) Tag() string      { return TagUnary }
func (v *AssignExpr) Tag() string     { return TagAssign }
func (v *AssignOpExpr) Tag() string   { return TagAssignOp }
func (v *CallExpr) Tag() string       { return TagCall }
func (v *MethodCallExpr) Tag() string { return TagMethodCall }
func (v *FieldExpr) Tag() string      { return TagField }
func (v *IndexExpr) Tag() string      { return TagIndex }
func (v *CastExpr) Tag() string       { return TagCast }
func (v *ParenExpr) Tag() string      { return TagParen }
func (v *AddrOfExpr) Tag() string     { return TagAddrOf }
func (v *BlockExpr) Tag() string      { return TagBlockExpr }
func (v *IfExpr) Tag() string         { return TagIf }
func (v *WhileExpr) Tag() string      { return TagWhile }
func (v *LoopExpr) Tag() string       { return TagLoop }
func (v *ReturnExpr) Tag() string     { return TagRet }
func (v *BreakExpr) Tag() string      { return TagBreak }
func (v *ContinueExpr) Tag() string   { return TagContinue }
func (v *TupleExpr) Tag() string      { return TagTup }
func (v *ArrayExpr) Tag() string      { return TagArray }
func (v *MacroExpr) Tag() string      { return TagMac }
func (v *RawExpr) Tag() string        { return TagRaw }

func (v *PathExpr) Fields() []Field { return []Field{field("path", &v.Path)} }

func (v *LitExpr) Fields() []Field {
	return []Field{field("lit_kind", &v.LitKind), field("value", &v.Value)}
}

func (v *BinaryExpr) Fields() []Field {
	return []Field{field("op", &v.Op), field("lhs", &v.LHS), field("rhs", &v.RHS)}
}

func (v *UnaryExpr) Fields() []Field {
	return []Field{field("op", &v.Op), field("expr", &v.X)}
}

func (v *AssignExpr) Fields() []Field {
	return []Field{field("lhs", &v.LHS), field("rhs", &v.RHS)}
}

func (v *AssignOpExpr) Fields() []Field {
	return []Field{field("op", &v.Op), field("lhs", &v.LHS), field("rhs", &v.RHS)}
}

func (v *CallExpr) Fields() []Field {
	return []Field{field("func", &v.Func), field("args", &v.Args)}
}

func (v *MethodCallExpr) Fields() []Field {
	return []Field{field("receiver", &v.Receiver), field("method", &v.Method), field("args", &v.Args)}
}

func (v *FieldExpr) Fields() []Field {
	return []Field{field("expr", &v.X), field("name", &v.Name)}
}

func (v *IndexExpr) Fields() []Field {
	return []Field{field("expr", &v.X), field("index", &v.Index)}
}

func (v *CastExpr) Fields() []Field {
	return []Field{field("expr", &v.X), field("ty", &v.Ty)}
}

func (v *ParenExpr) Fields() []Field { return []Field{field("expr", &v.X)} }

func (v *AddrOfExpr) Fields() []Field {
	return []Field{field("mutbl", &v.Mut), field("expr", &v.X)}
}

func (v *BlockExpr) Fields() []Field {
	return []Field{field("unsafe", &v.Unsafe), field("block", &v.Body)}
}

func (v *IfExpr) Fields() []Field {
	return []Field{field("cond", &v.Cond), field("then", &v.Then), field("else", &v.Else)}
}

func (v *WhileExpr) Fields() []Field {
	return []Field{field("cond", &v.Cond), field("block", &v.Body)}
}

func (v *LoopExpr) Fields() []Field { return []Field{field("block", &v.Body)} }

func (v *ReturnExpr) Fields() []Field { return []Field{field("expr", &v.X)} }

func (v *BreakExpr) Fields() []Field {
	return []Field{field("label", &v.Label), field("expr", &v.X)}
}

func (v *ContinueExpr) Fields() []Field { return []Field{field("label", &v.Label)} }

func (v *TupleExpr) Fields() []Field { return []Field{field("exprs", &v.Elems)} }

func (v *ArrayExpr) Fields() []Field { return []Field{field("exprs", &v.Elems)} }

func (v *MacroExpr) Fields() []Field {
	return []Field{field("path", &v.Path), field("tokens", &v.Tokens)}
}

func (v *RawExpr) Fields() []Field { return []Field{field("text", &v.Text)} }

func (*PathExpr) exprVariant()       {}
func (*LitExpr) exprVariant()        {}
func (*BinaryExpr) exprVariant()     {}
func (*UnaryExpr) exprVariant()      {}
func (*AssignExpr) exprVariant()     {}
func (*AssignOpExpr) exprVariant()   {}
func (*CallExpr) exprVariant()       {}
func (*MethodCallExpr) exprVariant() {}
func (*FieldExpr) exprVariant()      {}
func (*IndexExpr) exprVariant()      {}
func (*CastExpr) exprVariant()       {}
func (*ParenExpr) exprVariant()      {}
func (*AddrOfExpr) exprVariant()     {}
func (*BlockExpr) exprVariant()      {}
func (*IfExpr) exprVariant()         {}
func (*WhileExpr) exprVariant()      {}
func (*LoopExpr) exprVariant()       {}
func (*ReturnExpr) exprVariant()     {}
func (*BreakExpr) exprVariant()      {}
func (*ContinueExpr) exprVariant()   {}
func (*TupleExpr) exprVariant()      {}
func (*ArrayExpr) exprVariant()      {}
func (*MacroExpr) exprVariant()      {}
func (*RawExpr) exprVariant()        {}
