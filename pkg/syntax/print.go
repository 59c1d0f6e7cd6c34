package syntax

import (
	"strings"
)

// Expression precedence levels used to decide where parentheses are needed.
const (
	precJump = iota
	precAssign
	precOr
	precAnd
	precCompare
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precSum
	precProduct
	precCast
	precPrefix
	precPostfix
)

const indentUnit = "    "

//nolint:gochecknoglobals // immutable lookup table.
var binaryPrec = map[string]int{
	"||": precOr, "&&": precAnd,
	"==": precCompare, "!=": precCompare, "<": precCompare, ">": precCompare, "<=": precCompare, ">=": precCompare,
	"|": precBitOr, "^": precBitXor, "&": precBitAnd,
	"<<": precShift, ">>": precShift,
	"+": precSum, "-": precSum,
	"*": precProduct, "/": precProduct, "%": precProduct,
}

// Print renders n as source text. Blocks and items are laid out with
// four-space indentation; the original formatting is not preserved.
func Print(n Node) string {
	if isNil(n) {
		return ""
	}

	var p printer

	p.node(n)

	return p.buf.String()
}

// PrintFile renders a whole file.
func PrintFile(f *File) string {
	var p printer

	for _, a := range f.Inner {
		p.write("#![", a.Name, a.Args, "]\n")
	}

	if len(f.Inner) > 0 && len(f.Items) > 0 {
		p.write("\n")
	}

	for i, it := range f.Items {
		if i > 0 {
			p.write("\n")
		}

		p.item(it)
		p.write("\n")
	}

	return p.buf.String()
}

// String renders the expression.
func (e *Expr) String() string { return Print(e) }

// String renders the type.
func (t *Type) String() string { return Print(t) }

// String renders the statement.
func (s *Stmt) String() string { return Print(s) }

// String renders the block.
func (b *Block) String() string { return Print(b) }

// String renders the item.
func (it *Item) String() string { return Print(it) }

type printer struct {
	buf    strings.Builder
	indent int
}

func (p *printer) write(parts ...string) {
	for _, s := range parts {
		p.buf.WriteString(s)
	}
}

func (p *printer) newline() {
	p.buf.WriteByte('\n')
	p.buf.WriteString(strings.Repeat(indentUnit, p.indent))
}

func (p *printer) node(n Node) {
	switch v := n.(type) {
	case *Expr:
		p.expr(v, precJump)
	case *Type:
		p.ty(v)
	case *Stmt:
		p.stmt(v)
	case *Block:
		p.block(v)
	case *Item:
		p.item(v)
	case *TraitMember:
		p.outerAttrs(v.Attrs)
		p.member("", v.Name, v.Variant, KindTraitMember)
	case *ImplMember:
		p.outerAttrs(v.Attrs)
		p.member(v.Vis, v.Name, v.Variant, KindImplMember)
	case *ExternMember:
		p.outerAttrs(v.Attrs)
		p.member(v.Vis, v.Name, v.Variant, KindExternMember)
	}
}

func (p *printer) outerAttrs(attrs []Attribute) {
	for _, a := range attrs {
		p.write(a.String())
		p.newline()
	}
}

func (p *printer) placeholder(ph *Placeholder, kind Kind) {
	p.write("$", ph.Name)

	if ph.Multi {
		kind = KindStmtList
	}

	if kind != KindExpr && kind != KindType {
		p.write(":", kind.String())
	}
}

func exprPrec(e *Expr) int {
	switch v := e.Variant.(type) {
	case *BinaryExpr:
		if prec, ok := binaryPrec[v.Op]; ok {
			return prec
		}

		return precCompare
	case *AssignExpr, *AssignOpExpr:
		return precAssign
	case *CastExpr:
		return precCast
	case *UnaryExpr, *AddrOfExpr:
		return precPrefix
	case *ReturnExpr, *BreakExpr:
		return precJump
	default:
		return precPostfix
	}
}

func (p *printer) expr(e *Expr, minPrec int) {
	if e == nil {
		return
	}

	for _, a := range e.Attrs {
		p.write(a.String(), " ")
	}

	wrap := exprPrec(e) < minPrec
	if wrap {
		p.write("(")
	}

	p.exprVariant(e)

	if wrap {
		p.write(")")
	}
}

//nolint:gocyclo,cyclop // one case per expression variant.
func (p *printer) exprVariant(e *Expr) {
	switch v := e.Variant.(type) {
	case *Placeholder:
		p.placeholder(v, KindExpr)
	case *PathExpr:
		p.write(v.Path)
	case *LitExpr:
		p.write(v.Value)
	case *BinaryExpr:
		prec := exprPrec(e)
		p.expr(v.LHS, prec)
		p.write(" ", v.Op, " ")
		p.expr(v.RHS, prec+1)
	case *UnaryExpr:
		p.write(v.Op)
		p.expr(v.X, precPrefix)
	case *AssignExpr:
		p.expr(v.LHS, precAssign+1)
		p.write(" = ")
		p.expr(v.RHS, precAssign)
	case *AssignOpExpr:
		p.expr(v.LHS, precAssign+1)
		p.write(" ", v.Op, "= ")
		p.expr(v.RHS, precAssign)
	case *CallExpr:
		p.expr(v.Func, precPostfix)
		p.exprList("(", v.Args, ")")
	case *MethodCallExpr:
		p.expr(v.Receiver, precPostfix)
		p.write(".", v.Method)
		p.exprList("(", v.Args, ")")
	case *FieldExpr:
		p.expr(v.X, precPostfix)
		p.write(".", v.Name)
	case *IndexExpr:
		p.expr(v.X, precPostfix)
		p.write("[")
		p.expr(v.Index, precJump)
		p.write("]")
	case *CastExpr:
		p.expr(v.X, precCast)
		p.write(" as ")
		p.ty(v.Ty)
	case *ParenExpr:
		p.write("(")
		p.expr(v.X, precJump)
		p.write(")")
	case *AddrOfExpr:
		p.write("&")

		if v.Mut {
			p.write("mut ")
		}

		p.expr(v.X, precPrefix)
	case *BlockExpr:
		if v.Unsafe {
			p.write("unsafe ")
		}

		p.block(v.Body)
	case *IfExpr:
		p.write("if ")
		p.expr(v.Cond, precJump)
		p.write(" ")
		p.block(v.Then)

		if v.Else != nil {
			p.write(" else ")
			p.expr(v.Else, precJump)
		}
	case *WhileExpr:
		p.write("while ")
		p.expr(v.Cond, precJump)
		p.write(" ")
		p.block(v.Body)
	case *LoopExpr:
		p.write("loop ")
		p.block(v.Body)
	case *ReturnExpr:
		p.write("return")

		if v.X != nil {
			p.write(" ")
			p.expr(v.X, precJump)
		}
	case *BreakExpr:
		p.write("break")

		if v.Label != "" {
			p.write(" ", v.Label)
		}

		if v.X != nil {
			p.write(" ")
			p.expr(v.X, precJump)
		}
	case *ContinueExpr:
		p.write("continue")

		if v.Label != "" {
			p.write(" ", v.Label)
		}
	case *TupleExpr:
		p.exprList("(", v.Elems, "")

		if len(v.Elems) == 1 {
			p.write(",")
		}

		p.write(")")
	case *ArrayExpr:
		p.exprList("[", v.Elems, "]")
	case *MacroExpr:
		p.write(v.Path, "!", v.Tokens)
	case *RawExpr:
		p.write(v.Text)
	}
}

func (p *printer) exprList(open string, elems []*Expr, closing string) {
	p.write(open)

	for i, x := range elems {
		if i > 0 {
			p.write(", ")
		}

		p.expr(x, precJump)
	}

	p.write(closing)
}

func (p *printer) ty(t *Type) {
	if t == nil {
		return
	}

	switch v := t.Variant.(type) {
	case *Placeholder:
		p.placeholder(v, KindType)
	case *PathType:
		p.write(v.Path)

		if len(v.Args) > 0 {
			p.tyList("<", v.Args, ">")
		}
	case *RefType:
		p.write("&")

		if v.Lifetime != "" {
			p.write(v.Lifetime, " ")
		}

		if v.Mut {
			p.write("mut ")
		}

		p.ty(v.Elem)
	case *PtrType:
		if v.Mut {
			p.write("*mut ")
		} else {
			p.write("*const ")
		}

		p.ty(v.Elem)
	case *ArrayType:
		p.write("[")
		p.ty(v.Elem)
		p.write("; ")
		p.expr(v.Len, precJump)
		p.write("]")
	case *SliceType:
		p.write("[")
		p.ty(v.Elem)
		p.write("]")
	case *TupleType:
		p.tyList("(", v.Elems, "")

		if len(v.Elems) == 1 {
			p.write(",")
		}

		p.write(")")
	case *NeverType:
		p.write("!")
	case *InferType:
		p.write("_")
	case *RawType:
		p.write(v.Text)
	}
}

func (p *printer) tyList(open string, elems []*Type, closing string) {
	p.write(open)

	for i, x := range elems {
		if i > 0 {
			p.write(", ")
		}

		p.ty(x)
	}

	p.write(closing)
}

func (p *printer) stmt(s *Stmt) {
	p.outerAttrs(s.Attrs)

	switch v := s.Variant.(type) {
	case *Placeholder:
		p.placeholder(v, KindStmt)
	case *LetStmt:
		p.write("let ")

		if v.Mut {
			p.write("mut ")
		}

		p.write(v.Pat)

		if v.Ty != nil {
			p.write(": ")
			p.ty(v.Ty)
		}

		if v.Init != nil {
			p.write(" = ")
			p.expr(v.Init, precJump)
		}

		p.write(";")
	case *ExprStmt:
		p.expr(v.X, precJump)

		if v.Semi {
			p.write(";")
		}
	case *ItemStmt:
		p.item(v.Item)
	case *EmptyStmt:
		p.write(";")
	}
}

func (p *printer) block(b *Block) {
	if b == nil {
		return
	}

	if len(b.Stmts) == 0 {
		p.write("{}")

		return
	}

	p.write("{")
	p.indent++

	for _, s := range b.Stmts {
		p.newline()
		p.stmt(s)
	}

	p.indent--
	p.newline()
	p.write("}")
}

func (p *printer) vis(vis string) {
	if vis != "" {
		p.write(vis, " ")
	}
}

func (p *printer) params(params []*Param) {
	p.write("(")

	for i, prm := range params {
		if i > 0 {
			p.write(", ")
		}

		p.write(prm.Pat)

		if prm.Ty != nil {
			p.write(": ")
			p.ty(prm.Ty)
		}
	}

	p.write(")")
}

func (p *printer) signature(name, generics string, params []*Param, ret *Type) {
	p.write("fn ", name, generics)
	p.params(params)

	if ret != nil {
		p.write(" -> ")
		p.ty(ret)
	}
}

func (p *printer) bodyOrSemi(body *Block) {
	if body == nil {
		p.write(";")

		return
	}

	p.write(" ")
	p.block(body)
}

func (p *printer) typedValue(keyword, name string, ty *Type, value *Expr) {
	p.write(keyword, " ", name)

	if ty != nil {
		p.write(": ")
		p.ty(ty)
	}

	if value != nil {
		p.write(" = ")
		p.expr(value, precJump)
	}

	p.write(";")
}

//nolint:gocyclo,cyclop // one case per item variant.
func (p *printer) item(it *Item) {
	if it == nil {
		return
	}

	p.outerAttrs(it.Attrs)

	if ph, ok := it.Variant.(*Placeholder); ok {
		p.placeholder(ph, KindItem)

		return
	}

	if _, raw := it.Variant.(*RawItem); !raw {
		p.vis(it.Vis)
	}

	switch v := it.Variant.(type) {
	case *FnItem:
		if v.Unsafe {
			p.write("unsafe ")
		}

		if v.ABI != "" {
			p.write("extern ", v.ABI, " ")
		}

		p.signature(it.Name, it.Generics, v.Params, v.Ret)
		p.bodyOrSemi(v.Body)
	case *StructItem:
		p.write("struct ", it.Name, it.Generics, " {")
		p.indent++

		for _, sf := range v.FieldDecls {
			p.newline()
			p.vis(sf.Vis)
			p.write(sf.Name, ": ")
			p.ty(sf.Ty)
			p.write(",")
		}

		p.indent--
		p.newline()
		p.write("}")
	case *ConstItem:
		p.typedValue("const", it.Name, v.Ty, v.Value)
	case *StaticItem:
		keyword := "static"
		if v.Mut {
			keyword = "static mut"
		}

		p.typedValue(keyword, it.Name, v.Ty, v.Value)
	case *TypeAliasItem:
		p.write("type ", it.Name, it.Generics, " = ")
		p.ty(v.Ty)
		p.write(";")
	case *UseItem:
		p.write("use ", v.Tree, ";")
	case *ModItem:
		p.write("mod ", it.Name)

		if !v.Inline {
			p.write(";")

			return
		}

		p.write(" {")
		p.indent++

		for _, child := range v.Items {
			p.newline()
			p.item(child)
		}

		p.indent--
		p.newline()
		p.write("}")
	case *TraitDecl:
		if v.Unsafe {
			p.write("unsafe ")
		}

		p.write("trait ", it.Name, it.Generics, " ")
		p.members(toNodes(v.Members))
	case *ImplDecl:
		if v.Unsafe {
			p.write("unsafe ")
		}

		p.write("impl", it.Generics, " ")

		if v.Trait != "" {
			p.write(v.Trait, " for ")
		}

		p.ty(v.SelfTy)
		p.write(" ")
		p.members(toNodes(v.Members))
	case *ExternBlock:
		p.write("extern ")

		if v.ABI != "" {
			p.write(v.ABI, " ")
		}

		p.members(toNodes(v.Members))
	case *RawItem:
		p.write(v.Text)
	}
}

func (p *printer) members(ms []Node) {
	if len(ms) == 0 {
		p.write("{}")

		return
	}

	p.write("{")
	p.indent++

	for _, m := range ms {
		p.newline()
		p.node(m)
	}

	p.indent--
	p.newline()
	p.write("}")
}

func (p *printer) member(vis, name string, mv MemberVariant, kind Kind) {
	if ph, ok := mv.(*Placeholder); ok {
		p.placeholder(ph, kind)

		return
	}

	if _, raw := mv.(*RawMember); !raw {
		p.vis(vis)
	}

	switch v := mv.(type) {
	case *FnMember:
		if v.Unsafe {
			p.write("unsafe ")
		}

		p.signature(name, "", v.Params, v.Ret)
		p.bodyOrSemi(v.Body)
	case *ConstMember:
		p.typedValue("const", name, v.Ty, v.Value)
	case *TypeMember:
		p.write("type ", name)

		if v.Ty != nil {
			p.write(" = ")
			p.ty(v.Ty)
		}

		p.write(";")
	case *StaticMember:
		keyword := "static"
		if v.Mut {
			keyword = "static mut"
		}

		p.typedValue(keyword, name, v.Ty, nil)
	case *RawMember:
		p.write(v.Text)
	}
}

func toNodes[N Node](ns []N) []Node {
	out := make([]Node, len(ns))
	for i, n := range ns {
		out[i] = n
	}

	return out
}
