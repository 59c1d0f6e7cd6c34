package syntax

import "strconv"

// NewExpr wraps a variant in an expression with a fresh identity.
func NewExpr(v ExprVariant) *Expr { return &Expr{Base: newBase(Span{}), Variant: v} }

// NewType wraps a variant in a type with a fresh identity.
func NewType(v TypeVariant) *Type { return &Type{Base: newBase(Span{}), Variant: v} }

// NewStmt wraps a variant in a statement with a fresh identity.
func NewStmt(v StmtVariant) *Stmt { return &Stmt{Base: newBase(Span{}), Variant: v} }

// NewBlock builds a statement list with a fresh identity.
func NewBlock(stmts ...*Stmt) *Block { return &Block{Base: newBase(Span{}), Stmts: stmts} }

// NewItem builds a named item with a fresh identity.
func NewItem(name string, v ItemVariant) *Item {
	return &Item{Base: newBase(Span{}), Name: name, Variant: v}
}

// NewFile builds an empty file root.
func NewFile(items ...*Item) *File { return &File{Base: newBase(Span{}), Items: items} }

// WithSpan sets the span of n and returns it.
func WithSpan[N Node](n N, span Span) N {
	BaseOf(n).Span = span

	return n
}

// PathE builds a path expression.
func PathE(path string) *Expr { return NewExpr(&PathExpr{Path: path}) }

// IntLit builds an integer literal expression.
func IntLit(value int64) *Expr {
	return NewExpr(&LitExpr{LitKind: "int", Value: strconv.FormatInt(value, 10)})
}

// Binary builds lhs op rhs.
func Binary(op string, lhs, rhs *Expr) *Expr {
	return NewExpr(&BinaryExpr{Op: op, LHS: lhs, RHS: rhs})
}

// Assign builds lhs = rhs.
func Assign(lhs, rhs *Expr) *Expr { return NewExpr(&AssignExpr{LHS: lhs, RHS: rhs}) }

// Call builds callee(args...).
func Call(callee *Expr, args ...*Expr) *Expr { return NewExpr(&CallExpr{Func: callee, Args: args}) }

// Cast builds x as ty.
func Cast(x *Expr, ty *Type) *Expr { return NewExpr(&CastExpr{X: x, Ty: ty}) }

// PathT builds a path type.
func PathT(path string, args ...*Type) *Type { return NewType(&PathType{Path: path, Args: args}) }

// Semi builds the statement x;.
func Semi(x *Expr) *Stmt { return NewStmt(&ExprStmt{X: x, Semi: true}) }

// Let builds let pat = init;.
func Let(pat string, init *Expr) *Stmt { return NewStmt(&LetStmt{Pat: pat, Init: init}) }

// ExprHole builds an expression placeholder.
func ExprHole(name string) *Expr { return NewExpr(&Placeholder{Name: name}) }

// TypeHole builds a type placeholder.
func TypeHole(name string) *Type { return NewType(&Placeholder{Name: name}) }

// StmtHole builds a statement placeholder; multi makes it a statement-list glob.
func StmtHole(name string, multi bool) *Stmt {
	return NewStmt(&Placeholder{Name: name, Multi: multi})
}
