package rustparse

import (
	"fmt"

	"fortio.org/safecast"
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/refactor/pkg/syntax"
)

// lowerer converts tree-sitter nodes into syntax nodes.
type lowerer struct {
	src   []byte
	spans bool
}

func (l *lowerer) text(n sitter.Node) string {
	if n.IsNull() {
		return ""
	}

	return string(l.src[n.StartByte():n.EndByte()])
}

func (l *lowerer) span(n sitter.Node) syntax.Span {
	return l.spanOf(n.StartByte(), n.EndByte())
}

func (l *lowerer) spanOf(start, end uint) syntax.Span {
	if !l.spans {
		return syntax.Span{}
	}

	lo, err := safecast.Conv[uint32](start)
	if err != nil {
		return syntax.Span{}
	}

	hi, err := safecast.Conv[uint32](end)
	if err != nil {
		return syntax.Span{}
	}

	return syntax.Span{Lo: lo, Hi: hi}
}

func isComment(n sitter.Node) bool {
	t := n.Type()

	return t == "line_comment" || t == "block_comment"
}

// named returns the named children of n without comments.
func (l *lowerer) named(n sitter.Node) []sitter.Node {
	if n.IsNull() {
		return nil
	}

	out := make([]sitter.Node, 0, n.NamedChildCount())

	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)
		if !isComment(child) {
			out = append(out, child)
		}
	}

	return out
}

// childOfType returns the first direct child, named or not, of type typ.
func childOfType(n sitter.Node, typ string) sitter.Node {
	for idx := range n.ChildCount() {
		child := n.Child(idx)
		if child.Type() == typ {
			return child
		}
	}

	return sitter.Node{}
}

func hasChild(n sitter.Node, typ string) bool {
	return !childOfType(n, typ).IsNull()
}

func (l *lowerer) field(n sitter.Node, name string) string {
	return l.text(n.ChildByFieldName(name))
}

// onlyItem returns the single top-level declaration of a wrapped snippet.
func (l *lowerer) onlyItem(root sitter.Node) (sitter.Node, error) {
	children := l.named(root)
	if len(children) != 1 {
		return sitter.Node{}, fmt.Errorf("%w: want one declaration, got %d", ErrShape, len(children))
	}

	return children[0], nil
}

// eachWithAttrs calls fn for every named child of list that is neither an
// attribute nor a comment, passing the outer attributes preceding it.
func (l *lowerer) eachWithAttrs(list sitter.Node, fn func(child sitter.Node, attrs []syntax.Attribute)) {
	var pending []syntax.Attribute

	for _, child := range l.named(list) {
		switch child.Type() {
		case "attribute_item":
			pending = append(pending, l.attribute(child))
		case "inner_attribute_item":
		default:
			fn(child, pending)
			pending = nil
		}
	}
}

// attribute lowers attribute_item and inner_attribute_item nodes. Args is
// the raw source following the attribute path.
func (l *lowerer) attribute(n sitter.Node) syntax.Attribute {
	inner := childOfType(n, "attribute")
	if inner.IsNull() {
		return syntax.Attribute{Name: l.text(n), Span: l.span(n)}
	}

	parts := l.named(inner)
	if len(parts) == 0 {
		return syntax.Attribute{Name: l.text(inner), Span: l.span(n)}
	}

	path := parts[0]

	return syntax.Attribute{
		Name:     l.text(path),
		Args:     string(l.src[path.EndByte():inner.EndByte()]),
		ArgsSpan: l.spanOf(path.EndByte(), inner.EndByte()),
		Span:     l.span(n),
	}
}

func (l *lowerer) file(root sitter.Node) *syntax.File {
	f := syntax.NewFile(l.items(root)...)
	f.Span = l.span(root)

	for _, child := range l.named(root) {
		if child.Type() == "inner_attribute_item" {
			f.Inner = append(f.Inner, l.attribute(child))
		}
	}

	return f
}

func (l *lowerer) items(list sitter.Node) []*syntax.Item {
	var out []*syntax.Item

	l.eachWithAttrs(list, func(child sitter.Node, attrs []syntax.Attribute) {
		it := l.item(child)
		it.Attrs = attrs
		out = append(out, it)
	})

	return out
}

// placeholderMacro reports the placeholder encoded by a brace macro
// invocation produced by expandPlaceholders.
func (l *lowerer) placeholderMacro(n sitter.Node) (*syntax.Placeholder, bool) {
	if n.Type() != "macro_invocation" {
		return nil, false
	}

	return placeholder(l.field(n, "macro"))
}

func (l *lowerer) isUnsafe(n sitter.Node) bool {
	if hasChild(n, "unsafe") {
		return true
	}

	mods := childOfType(n, "function_modifiers")

	return !mods.IsNull() && hasChild(mods, "unsafe")
}

// unsupportedFn reports function forms the tree model cannot represent.
func (l *lowerer) unsupportedFn(n sitter.Node) bool {
	if hasChild(n, "where_clause") {
		return true
	}

	mods := childOfType(n, "function_modifiers")
	if !mods.IsNull() && (hasChild(mods, "const") || hasChild(mods, "async") || hasChild(mods, "default")) {
		return true
	}

	for _, p := range l.named(n.ChildByFieldName("parameters")) {
		if t := p.Type(); t != "parameter" && t != "self_parameter" {
			return true
		}
	}

	return false
}

func (l *lowerer) abi(n sitter.Node) string {
	mods := childOfType(n, "function_modifiers")
	if mods.IsNull() {
		mods = n
	}

	ext := childOfType(mods, "extern_modifier")
	if ext.IsNull() {
		return ""
	}

	if abi := childOfType(ext, "string_literal"); !abi.IsNull() {
		return l.text(abi)
	}

	return `"C"`
}

func (l *lowerer) params(n sitter.Node) []*syntax.Param {
	var out []*syntax.Param

	for _, p := range l.named(n) {
		if p.Type() == "self_parameter" {
			out = append(out, &syntax.Param{Pat: l.text(p)})

			continue
		}

		out = append(out, &syntax.Param{
			Pat: l.field(p, "pattern"),
			Ty:  l.ty(p.ChildByFieldName("type")),
		})
	}

	return out
}

func (l *lowerer) optBlock(n sitter.Node) *syntax.Block {
	if n.IsNull() {
		return nil
	}

	return l.block(n)
}

func (l *lowerer) optTy(n sitter.Node) *syntax.Type {
	if n.IsNull() {
		return nil
	}

	return l.ty(n)
}

func (l *lowerer) optExpr(n sitter.Node) *syntax.Expr {
	if n.IsNull() {
		return nil
	}

	return l.expr(n)
}

func (l *lowerer) rawItem(n sitter.Node, it *syntax.Item) *syntax.Item {
	it.Variant = &syntax.RawItem{Text: l.text(n)}

	return it
}

//nolint:gocyclo,cyclop,funlen // one case per item form.
func (l *lowerer) item(n sitter.Node) *syntax.Item {
	it := syntax.NewItem(l.field(n, "name"), nil)
	it.Span = l.span(n)
	it.Vis = l.text(childOfType(n, "visibility_modifier"))
	it.Generics = l.field(n, "type_parameters")

	if ph, ok := l.placeholderMacro(n); ok {
		it.Variant = ph

		return it
	}

	switch n.Type() {
	case "function_item", "function_signature_item":
		if l.unsupportedFn(n) {
			return l.rawItem(n, it)
		}

		it.Variant = &syntax.FnItem{
			Unsafe: l.isUnsafe(n),
			ABI:    l.abi(n),
			Params: l.params(n.ChildByFieldName("parameters")),
			Ret:    l.optTy(n.ChildByFieldName("return_type")),
			Body:   l.optBlock(n.ChildByFieldName("body")),
		}
	case "struct_item":
		body := n.ChildByFieldName("body")
		if body.IsNull() || body.Type() != "field_declaration_list" || hasChild(n, "where_clause") {
			return l.rawItem(n, it)
		}

		decls, ok := l.structFields(body)
		if !ok {
			return l.rawItem(n, it)
		}

		it.Variant = &syntax.StructItem{FieldDecls: decls}
	case "const_item":
		it.Variant = &syntax.ConstItem{
			Ty:    l.optTy(n.ChildByFieldName("type")),
			Value: l.optExpr(n.ChildByFieldName("value")),
		}
	case "static_item":
		it.Variant = &syntax.StaticItem{
			Mut:   hasChild(n, "mutable_specifier"),
			Ty:    l.optTy(n.ChildByFieldName("type")),
			Value: l.optExpr(n.ChildByFieldName("value")),
		}
	case "type_item":
		if hasChild(n, "where_clause") {
			return l.rawItem(n, it)
		}

		it.Variant = &syntax.TypeAliasItem{Ty: l.ty(n.ChildByFieldName("type"))}
	case "use_declaration":
		it.Variant = &syntax.UseItem{Tree: l.field(n, "argument")}
	case "mod_item":
		body := n.ChildByFieldName("body")
		mod := &syntax.ModItem{Inline: !body.IsNull()}

		if mod.Inline {
			mod.Items = l.items(body)
		}

		it.Variant = mod
	case "trait_item":
		body := n.ChildByFieldName("body")
		if body.IsNull() || !n.ChildByFieldName("bounds").IsNull() || hasChild(n, "where_clause") {
			return l.rawItem(n, it)
		}

		decl := &syntax.TraitDecl{Unsafe: hasChild(n, "unsafe")}

		l.eachWithAttrs(body, func(child sitter.Node, attrs []syntax.Attribute) {
			m := l.traitMember(child, attrs)
			decl.Members = append(decl.Members, m)
		})

		it.Variant = decl
	case "impl_item":
		body := n.ChildByFieldName("body")
		if body.IsNull() || hasChild(n, "where_clause") || hasChild(n, "!") {
			return l.rawItem(n, it)
		}

		decl := &syntax.ImplDecl{
			Unsafe: hasChild(n, "unsafe"),
			Trait:  l.field(n, "trait"),
			SelfTy: l.ty(n.ChildByFieldName("type")),
		}

		l.eachWithAttrs(body, func(child sitter.Node, attrs []syntax.Attribute) {
			decl.Members = append(decl.Members, l.implMember(child, attrs))
		})

		it.Variant = decl
	case "foreign_mod_item":
		body := n.ChildByFieldName("body")
		if body.IsNull() {
			return l.rawItem(n, it)
		}

		block := &syntax.ExternBlock{ABI: l.text(childOfType(childOfType(n, "extern_modifier"), "string_literal"))}

		l.eachWithAttrs(body, func(child sitter.Node, attrs []syntax.Attribute) {
			block.Members = append(block.Members, l.externMember(child, attrs))
		})

		it.Variant = block
	default:
		return l.rawItem(n, it)
	}

	return it
}

func (l *lowerer) structFields(body sitter.Node) ([]*syntax.StructField, bool) {
	var out []*syntax.StructField

	for _, fd := range l.named(body) {
		if fd.Type() != "field_declaration" {
			return nil, false
		}

		out = append(out, &syntax.StructField{
			Vis:  l.text(childOfType(fd, "visibility_modifier")),
			Name: l.field(fd, "name"),
			Ty:   l.ty(fd.ChildByFieldName("type")),
		})
	}

	return out, true
}

// fnMember lowers a method or method signature, or returns nil when the
// form needs a raw member.
func (l *lowerer) fnMember(n sitter.Node) syntax.MemberVariant {
	if l.unsupportedFn(n) || !n.ChildByFieldName("type_parameters").IsNull() {
		return nil
	}

	return &syntax.FnMember{
		Unsafe: l.isUnsafe(n),
		Params: l.params(n.ChildByFieldName("parameters")),
		Ret:    l.optTy(n.ChildByFieldName("return_type")),
		Body:   l.optBlock(n.ChildByFieldName("body")),
	}
}

//nolint:ireturn // member variants are an interface by nature.
func (l *lowerer) memberVariant(n sitter.Node) syntax.MemberVariant {
	if ph, ok := l.placeholderMacro(n); ok {
		return ph
	}

	var v syntax.MemberVariant

	switch n.Type() {
	case "function_item", "function_signature_item":
		v = l.fnMember(n)
	case "const_item":
		v = &syntax.ConstMember{
			Ty:    l.optTy(n.ChildByFieldName("type")),
			Value: l.optExpr(n.ChildByFieldName("value")),
		}
	case "type_item":
		if n.ChildByFieldName("type_parameters").IsNull() && !hasChild(n, "where_clause") {
			v = &syntax.TypeMember{Ty: l.ty(n.ChildByFieldName("type"))}
		}
	case "associated_type":
		if n.ChildByFieldName("bounds").IsNull() && n.ChildByFieldName("type_parameters").IsNull() {
			v = &syntax.TypeMember{Ty: l.optTy(n.ChildByFieldName("default_type"))}
		}
	case "static_item":
		if n.ChildByFieldName("value").IsNull() {
			v = &syntax.StaticMember{
				Mut: hasChild(n, "mutable_specifier"),
				Ty:  l.optTy(n.ChildByFieldName("type")),
			}
		}
	}

	if v == nil {
		return &syntax.RawMember{Text: l.text(n)}
	}

	return v
}

func (l *lowerer) traitMember(n sitter.Node, attrs []syntax.Attribute) *syntax.TraitMember {
	m := &syntax.TraitMember{Name: l.field(n, "name"), Variant: l.memberVariant(n)}
	m.ID = syntax.NewID()
	m.Span = l.span(n)
	m.Attrs = attrs

	return m
}

func (l *lowerer) implMember(n sitter.Node, attrs []syntax.Attribute) *syntax.ImplMember {
	m := &syntax.ImplMember{
		Vis:     l.text(childOfType(n, "visibility_modifier")),
		Name:    l.field(n, "name"),
		Variant: l.memberVariant(n),
	}
	m.ID = syntax.NewID()
	m.Span = l.span(n)
	m.Attrs = attrs

	return m
}

func (l *lowerer) externMember(n sitter.Node, attrs []syntax.Attribute) *syntax.ExternMember {
	m := &syntax.ExternMember{
		Vis:     l.text(childOfType(n, "visibility_modifier")),
		Name:    l.field(n, "name"),
		Variant: l.memberVariant(n),
	}
	m.ID = syntax.NewID()
	m.Span = l.span(n)
	m.Attrs = attrs

	return m
}

// isItem reports whether a block child is a declaration.
func isItem(typ string) bool {
	switch typ {
	case "function_item", "struct_item", "enum_item", "union_item", "const_item", "static_item",
		"type_item", "use_declaration", "mod_item", "trait_item", "impl_item", "foreign_mod_item",
		"macro_definition", "extern_crate_declaration":
		return true
	}

	return false
}
