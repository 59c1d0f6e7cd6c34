// Package syntax provides the typed syntax tree shared by the parser, matcher,
// attribute preservation and scripting layers.
//
// Every node belongs to exactly one Kind, carries a stable identity, a source
// span and an ordered attribute list, and exposes its payload as an ordered
// list of Fields. Generic algorithms (matching, cloning, walking, conversion)
// are written once against Fields.
package syntax

// Node is implemented by the eight node kinds.
type Node interface {
	Kind() Kind
	NodeID() NodeID
	NodeSpan() Span
	Attributes() []Attribute
	SetAttributes(attrs []Attribute)
	// Tag names the payload variant, e.g. "Binary" or "Fn".
	Tag() string
	// Fields lists the payload components in a fixed order.
	Fields() []Field
}

// Variant is a kind-specific payload.
type Variant interface {
	Tag() string
	Fields() []Field
}

// Placeholder is a named pattern variable. It is a valid payload of every
// kind; the kind it binds is the kind of the node holding it, or
// KindStmtList when Multi is set on a statement.
type Placeholder struct {
	Name  string
	Multi bool
}

// TagPlaceholder is the variant tag of Placeholder.
const TagPlaceholder = "Placeholder"

// Tag implements Variant.
func (p *Placeholder) Tag() string { return TagPlaceholder }

// Fields implements Variant.
func (p *Placeholder) Fields() []Field {
	return []Field{field("name", &p.Name), field("multi", &p.Multi)}
}

func (*Placeholder) exprVariant()   {}
func (*Placeholder) typeVariant()   {}
func (*Placeholder) stmtVariant()   {}
func (*Placeholder) itemVariant()   {}
func (*Placeholder) memberVariant() {}

// Expr is an expression node.
type Expr struct {
	Base
	Variant ExprVariant
}

// Kind implements Node.
func (e *Expr) Kind() Kind { return KindExpr }

// Tag implements Node.
func (e *Expr) Tag() string { return e.Variant.Tag() }

// Fields implements Node.
func (e *Expr) Fields() []Field { return e.Variant.Fields() }

// Type is a type node.
type Type struct {
	Base
	Variant TypeVariant
}

// Kind implements Node.
func (t *Type) Kind() Kind { return KindType }

// Tag implements Node.
func (t *Type) Tag() string { return t.Variant.Tag() }

// Fields implements Node.
func (t *Type) Fields() []Field { return t.Variant.Fields() }

// Stmt is a statement node.
type Stmt struct {
	Base
	Variant StmtVariant
}

// Kind implements Node.
func (s *Stmt) Kind() Kind { return KindStmt }

// Tag implements Node.
func (s *Stmt) Tag() string { return s.Variant.Tag() }

// Fields implements Node.
func (s *Stmt) Fields() []Field { return s.Variant.Fields() }

// Block is an ordered statement list. The trailing expression of a Rust
// block is an ExprStmt without a semicolon.
type Block struct {
	Base
	Stmts []*Stmt
}

// TagBlock is the tag reported by Block.
const TagBlock = "Block"

// Kind implements Node.
func (b *Block) Kind() Kind { return KindStmtList }

// Tag implements Node.
func (b *Block) Tag() string { return TagBlock }

// Fields implements Node.
func (b *Block) Fields() []Field { return []Field{field("stmts", &b.Stmts)} }

// Item is a declaration: function, struct, module, impl block and so on.
type Item struct {
	Base
	Vis      string
	Name     string
	Generics string
	Variant  ItemVariant
}

// Kind implements Node.
func (it *Item) Kind() Kind { return KindItem }

// Tag implements Node.
func (it *Item) Tag() string { return it.Variant.Tag() }

// Fields implements Node.
func (it *Item) Fields() []Field {
	head := []Field{field("vis", &it.Vis), field("name", &it.Name), field("generics", &it.Generics)}

	return append(head, it.Variant.Fields()...)
}

// TraitMember is a member declared inside a trait body.
type TraitMember struct {
	Base
	Name    string
	Variant MemberVariant
}

// Kind implements Node.
func (m *TraitMember) Kind() Kind { return KindTraitMember }

// Tag implements Node.
func (m *TraitMember) Tag() string { return m.Variant.Tag() }

// Fields implements Node.
func (m *TraitMember) Fields() []Field {
	return append([]Field{field("name", &m.Name)}, m.Variant.Fields()...)
}

// ImplMember is a member declared inside an impl block.
type ImplMember struct {
	Base
	Vis     string
	Name    string
	Variant MemberVariant
}

// Kind implements Node.
func (m *ImplMember) Kind() Kind { return KindImplMember }

// Tag implements Node.
func (m *ImplMember) Tag() string { return m.Variant.Tag() }

// Fields implements Node.
func (m *ImplMember) Fields() []Field {
	return append([]Field{field("vis", &m.Vis), field("name", &m.Name)}, m.Variant.Fields()...)
}

// ExternMember is a member declared inside an extern block.
type ExternMember struct {
	Base
	Vis     string
	Name    string
	Variant MemberVariant
}

// Kind implements Node.
func (m *ExternMember) Kind() Kind { return KindExternMember }

// Tag implements Node.
func (m *ExternMember) Tag() string { return m.Variant.Tag() }

// Fields implements Node.
func (m *ExternMember) Fields() []Field {
	return append([]Field{field("vis", &m.Vis), field("name", &m.Name)}, m.Variant.Fields()...)
}

// File is the root of a parsed source file.
type File struct {
	Base
	Inner []Attribute
	Items []*Item
}

// Fields lists the file items.
func (f *File) Fields() []Field { return []Field{field("items", &f.Items)} }

// Container is anything whose child slots can be walked: a File or any Node.
type Container interface {
	Fields() []Field
}

// AsPlaceholder returns the placeholder payload of n, if any.
func AsPlaceholder(n Node) (*Placeholder, bool) {
	var v Variant

	switch node := n.(type) {
	case *Expr:
		v = node.Variant
	case *Type:
		v = node.Variant
	case *Stmt:
		v = node.Variant
	case *Item:
		v = node.Variant
	case *TraitMember:
		v = node.Variant
	case *ImplMember:
		v = node.Variant
	case *ExternMember:
		v = node.Variant
	}

	ph, ok := v.(*Placeholder)

	return ph, ok
}

// PlaceholderKind returns the kind a placeholder held by n binds.
func PlaceholderKind(n Node, ph *Placeholder) Kind {
	if ph.Multi && n.Kind() == KindStmt {
		return KindStmtList
	}

	return n.Kind()
}

// IsNil reports whether n is nil or a typed nil node pointer.
func IsNil(n Node) bool {
	return isNil(n)
}
