package rustparse

import (
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/refactor/pkg/syntax"
)

//nolint:gochecknoglobals // immutable lookup table.
var litKinds = map[string]string{
	"integer_literal":    "int",
	"float_literal":      "float",
	"string_literal":     "str",
	"raw_string_literal": "str",
	"char_literal":       "char",
	"boolean_literal":    "bool",
}

func (l *lowerer) block(n sitter.Node) *syntax.Block {
	b := syntax.NewBlock()
	b.Span = l.span(n)

	l.eachWithAttrs(n, func(child sitter.Node, attrs []syntax.Attribute) {
		if child.Type() == "label" {
			return
		}

		s := l.stmt(child)

		// Attributes on a nested declaration belong to the declaration.
		if is, ok := s.Variant.(*syntax.ItemStmt); ok {
			is.Item.Attrs = attrs
		} else {
			s.Attrs = attrs
		}

		b.Stmts = append(b.Stmts, s)
	})

	return b
}

func (l *lowerer) newStmt(n sitter.Node, v syntax.StmtVariant) *syntax.Stmt {
	s := syntax.NewStmt(v)
	s.Span = l.span(n)

	return s
}

func (l *lowerer) stmt(n sitter.Node) *syntax.Stmt {
	if ph, ok := l.placeholderMacro(n); ok {
		return l.newStmt(n, ph)
	}

	switch typ := n.Type(); {
	case typ == "expression_statement":
		inner := l.named(n)
		if len(inner) != 1 {
			return l.newStmt(n, &syntax.ExprStmt{X: l.rawExpr(n)})
		}

		if ph, ok := l.placeholderMacro(inner[0]); ok {
			return l.newStmt(n, ph)
		}

		semi := hasChild(n, ";")

		return l.newStmt(n, &syntax.ExprStmt{X: l.expr(inner[0]), Semi: semi})
	case typ == "let_declaration":
		if !n.ChildByFieldName("alternative").IsNull() {
			return l.newStmt(n, &syntax.ExprStmt{X: l.rawExpr(n)})
		}

		return l.newStmt(n, &syntax.LetStmt{
			Mut:  hasChild(n, "mutable_specifier"),
			Pat:  l.field(n, "pattern"),
			Ty:   l.optTy(n.ChildByFieldName("type")),
			Init: l.optExpr(n.ChildByFieldName("value")),
		})
	case typ == "empty_statement":
		return l.newStmt(n, &syntax.EmptyStmt{})
	case typ == "macro_invocation":
		return l.newStmt(n, &syntax.ExprStmt{X: l.expr(n), Semi: l.followedBySemi(n)})
	case isItem(typ):
		return l.newStmt(n, &syntax.ItemStmt{Item: l.item(n)})
	default:
		return l.newStmt(n, &syntax.ExprStmt{X: l.expr(n)})
	}
}

// followedBySemi reports whether the next non-space source byte after n is
// a semicolon.
func (l *lowerer) followedBySemi(n sitter.Node) bool {
	rest := strings.TrimLeft(string(l.src[n.EndByte():]), " \t\r\n")

	return strings.HasPrefix(rest, ";")
}

func (l *lowerer) newExpr(n sitter.Node, v syntax.ExprVariant) *syntax.Expr {
	e := syntax.NewExpr(v)
	e.Span = l.span(n)

	return e
}

func (l *lowerer) rawExpr(n sitter.Node) *syntax.Expr {
	return l.newExpr(n, &syntax.RawExpr{Text: l.text(n)})
}

func (l *lowerer) exprs(nodes []sitter.Node) []*syntax.Expr {
	out := make([]*syntax.Expr, 0, len(nodes))

	for _, n := range nodes {
		if n.Type() == "attribute_item" {
			continue
		}

		out = append(out, l.expr(n))
	}

	return out
}

func (l *lowerer) label(n sitter.Node) string {
	return l.text(childOfType(n, "label"))
}

// exprVariant returns nil for forms kept as raw text.
//
//nolint:gocyclo,cyclop,funlen // one case per expression form.
func (l *lowerer) exprVariant(n sitter.Node) syntax.ExprVariant {
	kids := l.named(n)

	switch typ := n.Type(); typ {
	case "identifier", "scoped_identifier", "self", "super", "crate":
		text := l.text(n)
		if ph, ok := placeholder(text); ok {
			return ph
		}

		return &syntax.PathExpr{Path: text}
	case "integer_literal", "float_literal", "string_literal", "raw_string_literal", "char_literal", "boolean_literal":
		return &syntax.LitExpr{LitKind: litKinds[typ], Value: l.text(n)}
	case "binary_expression":
		return &syntax.BinaryExpr{
			Op:  l.field(n, "operator"),
			LHS: l.expr(n.ChildByFieldName("left")),
			RHS: l.expr(n.ChildByFieldName("right")),
		}
	case "unary_expression":
		if len(kids) != 1 || n.ChildCount() == 0 {
			return nil
		}

		return &syntax.UnaryExpr{Op: l.text(n.Child(0)), X: l.expr(kids[0])}
	case "assignment_expression":
		return &syntax.AssignExpr{
			LHS: l.expr(n.ChildByFieldName("left")),
			RHS: l.expr(n.ChildByFieldName("right")),
		}
	case "compound_assignment_expr":
		return &syntax.AssignOpExpr{
			Op:  strings.TrimSuffix(l.field(n, "operator"), "="),
			LHS: l.expr(n.ChildByFieldName("left")),
			RHS: l.expr(n.ChildByFieldName("right")),
		}
	case "call_expression":
		fn := n.ChildByFieldName("function")
		args := l.exprs(l.named(n.ChildByFieldName("arguments")))

		if fn.Type() == "field_expression" {
			return &syntax.MethodCallExpr{
				Receiver: l.expr(fn.ChildByFieldName("value")),
				Method:   l.field(fn, "field"),
				Args:     args,
			}
		}

		return &syntax.CallExpr{Func: l.expr(fn), Args: args}
	case "field_expression":
		return &syntax.FieldExpr{X: l.expr(n.ChildByFieldName("value")), Name: l.field(n, "field")}
	case "index_expression":
		if len(kids) != 2 { //nolint:mnd // base and index.
			return nil
		}

		return &syntax.IndexExpr{X: l.expr(kids[0]), Index: l.expr(kids[1])}
	case "type_cast_expression":
		return &syntax.CastExpr{X: l.expr(n.ChildByFieldName("value")), Ty: l.ty(n.ChildByFieldName("type"))}
	case "parenthesized_expression":
		if len(kids) != 1 {
			return nil
		}

		return &syntax.ParenExpr{X: l.expr(kids[0])}
	case "reference_expression":
		return &syntax.AddrOfExpr{Mut: hasChild(n, "mutable_specifier"), X: l.expr(n.ChildByFieldName("value"))}
	case "block":
		if hasChild(n, "label") {
			return nil
		}

		return &syntax.BlockExpr{Body: l.block(n)}
	case "unsafe_block":
		body := childOfType(n, "block")
		if body.IsNull() {
			return nil
		}

		return &syntax.BlockExpr{Unsafe: true, Body: l.block(body)}
	case "if_expression":
		return l.ifExpr(n)
	case "while_expression":
		cond := n.ChildByFieldName("condition")
		if hasChild(n, "label") || isLetCondition(cond) {
			return nil
		}

		return &syntax.WhileExpr{Cond: l.expr(cond), Body: l.block(n.ChildByFieldName("body"))}
	case "loop_expression":
		if hasChild(n, "label") {
			return nil
		}

		return &syntax.LoopExpr{Body: l.block(n.ChildByFieldName("body"))}
	case "return_expression":
		if len(kids) == 0 {
			return &syntax.ReturnExpr{}
		}

		return &syntax.ReturnExpr{X: l.expr(kids[0])}
	case "break_expression":
		brk := &syntax.BreakExpr{Label: l.label(n)}

		for _, k := range kids {
			if k.Type() != "label" {
				brk.X = l.expr(k)
			}
		}

		return brk
	case "continue_expression":
		return &syntax.ContinueExpr{Label: l.label(n)}
	case "tuple_expression":
		return &syntax.TupleExpr{Elems: l.exprs(kids)}
	case "unit_expression":
		return &syntax.TupleExpr{}
	case "array_expression":
		if !n.ChildByFieldName("length").IsNull() {
			return nil
		}

		return &syntax.ArrayExpr{Elems: l.exprs(kids)}
	case "macro_invocation":
		return &syntax.MacroExpr{Path: l.field(n, "macro"), Tokens: l.text(childOfType(n, "token_tree"))}
	}

	return nil
}

func (l *lowerer) expr(n sitter.Node) *syntax.Expr {
	if n.IsNull() {
		return nil
	}

	v := l.exprVariant(n)
	if v == nil {
		return l.rawExpr(n)
	}

	return l.newExpr(n, v)
}

func isLetCondition(n sitter.Node) bool {
	t := n.Type()

	return t == "let_condition" || t == "let_chain"
}

func (l *lowerer) ifExpr(n sitter.Node) syntax.ExprVariant {
	cond := n.ChildByFieldName("condition")
	if isLetCondition(cond) {
		return nil
	}

	out := &syntax.IfExpr{Cond: l.expr(cond), Then: l.block(n.ChildByFieldName("consequence"))}

	alt := n.ChildByFieldName("alternative")
	if alt.IsNull() {
		return out
	}

	kids := l.named(alt)
	if len(kids) != 1 {
		return nil
	}

	out.Else = l.expr(kids[0])

	return out
}

func (l *lowerer) newType(n sitter.Node, v syntax.TypeVariant) *syntax.Type {
	t := syntax.NewType(v)
	t.Span = l.span(n)

	return t
}

// ty lowers a type; forms without a variant are kept as raw text.
//
//nolint:cyclop // one case per type form.
func (l *lowerer) ty(n sitter.Node) *syntax.Type {
	if n.IsNull() {
		return nil
	}

	kids := l.named(n)

	switch n.Type() {
	case "type_identifier", "primitive_type", "scoped_type_identifier":
		text := l.text(n)
		if ph, ok := placeholder(text); ok {
			return l.newType(n, ph)
		}

		return l.newType(n, &syntax.PathType{Path: text})
	case "generic_type":
		args, ok := l.typeArgs(n.ChildByFieldName("type_arguments"))
		if !ok {
			break
		}

		return l.newType(n, &syntax.PathType{Path: l.field(n, "type"), Args: args})
	case "reference_type":
		return l.newType(n, &syntax.RefType{
			Lifetime: l.text(childOfType(n, "lifetime")),
			Mut:      hasChild(n, "mutable_specifier"),
			Elem:     l.ty(n.ChildByFieldName("type")),
		})
	case "pointer_type":
		return l.newType(n, &syntax.PtrType{Mut: hasChild(n, "mutable_specifier"), Elem: l.ty(n.ChildByFieldName("type"))})
	case "array_type":
		elem := l.ty(n.ChildByFieldName("element"))

		length := n.ChildByFieldName("length")
		if length.IsNull() {
			return l.newType(n, &syntax.SliceType{Elem: elem})
		}

		return l.newType(n, &syntax.ArrayType{Elem: elem, Len: l.expr(length)})
	case "tuple_type":
		elems := make([]*syntax.Type, 0, len(kids))
		for _, k := range kids {
			elems = append(elems, l.ty(k))
		}

		return l.newType(n, &syntax.TupleType{Elems: elems})
	case "unit_type":
		return l.newType(n, &syntax.TupleType{})
	case "never_type":
		return l.newType(n, &syntax.NeverType{})
	}

	if l.text(n) == "_" {
		return l.newType(n, &syntax.InferType{})
	}

	return l.newType(n, &syntax.RawType{Text: l.text(n)})
}

// typeArgs lowers plain type arguments; lifetimes and bindings are not
// representable.
func (l *lowerer) typeArgs(n sitter.Node) ([]*syntax.Type, bool) {
	var out []*syntax.Type

	for _, k := range l.named(n) {
		switch k.Type() {
		case "lifetime", "type_binding", "constrained_type_parameter", "block":
			return nil, false
		}

		out = append(out, l.ty(k))
	}

	return out, true
}
