package syntax

// StmtVariant is the payload of a Stmt.
type StmtVariant interface {
	Variant
	stmtVariant()
}

// Statement variant tags.
const (
	TagLocal    = "Local"
	TagExprStmt = "Expr"
	TagItemStmt = "Item"
	TagEmpty    = "Empty"
)

// LetStmt is let [mut] pat[: ty] [= init];.
type LetStmt struct {
	Mut  bool
	Pat  string
	Ty   *Type
	Init *Expr
}

// ExprStmt is an expression used as a statement. Semi is false for the
// trailing expression of a block and for block-like expressions written
// without a semicolon.
type ExprStmt struct {
	X    *Expr
	Semi bool
}

// ItemStmt is an item declared inside a block.
type ItemStmt struct{ Item *Item }

// EmptyStmt is a lone semicolon.
type EmptyStmt struct{}

func (v *LetStmt) Tag() string   { return TagLocal }
func (v *ExprStmt) Tag() string  { return TagExprStmt }
func (v *ItemStmt) Tag() string  { return TagItemStmt }
func (v *EmptyStmt) Tag() string { return TagEmpty }

func (v *LetStmt) Fields() []Field {
	return []Field{field("mutbl", &v.Mut), field("pat", &v.Pat), field("ty", &v.Ty), field("init", &v.Init)}
}

func (v *ExprStmt) Fields() []Field {
	return []Field{field("expr", &v.X), field("semi", &v.Semi)}
}

func (v *ItemStmt) Fields() []Field  { return []Field{field("item", &v.Item)} }
func (v *EmptyStmt) Fields() []Field { return nil }

func (*LetStmt) stmtVariant()   {}
func (*ExprStmt) stmtVariant()  {}
func (*ItemStmt) stmtVariant()  {}
func (*EmptyStmt) stmtVariant() {}
