package syntax

import (
	"errors"
	"fmt"
)

// FieldKind classifies what a Field points at.
type FieldKind uint8

// Field kinds.
const (
	FieldString FieldKind = iota + 1
	FieldBool
	FieldNode
	FieldList
	FieldComposites
)

// ErrFieldType is returned when a value of the wrong kind is stored in a field.
var ErrFieldType = errors.New("field type mismatch")

// Field is one named component of a node payload. It holds a pointer into
// the payload so that generic code can read and overwrite it in place.
//
// The pointer is one of: *string, *bool, **Expr, *[]*Expr, **Type, *[]*Type,
// *[]*Stmt, **Block, **Item, *[]*Item, *[]*TraitMember, *[]*ImplMember,
// *[]*ExternMember, *[]*Param, *[]*StructField.
type Field struct {
	Name string
	ptr  any
}

func field(name string, ptr any) Field {
	return Field{Name: name, ptr: ptr}
}

// Composite is a structured payload component that is not a node itself,
// such as a function parameter.
type Composite interface {
	Fields() []Field
}

// Param is a function parameter. Ty is nil for self parameters.
type Param struct {
	Pat string
	Ty  *Type
}

// Fields implements Composite.
func (p *Param) Fields() []Field {
	return []Field{field("pat", &p.Pat), field("ty", &p.Ty)}
}

// StructField is a named struct field declaration.
type StructField struct {
	Vis  string
	Name string
	Ty   *Type
}

// Fields implements Composite.
func (sf *StructField) Fields() []Field {
	return []Field{field("vis", &sf.Vis), field("name", &sf.Name), field("ty", &sf.Ty)}
}

// Kind classifies the field.
func (f Field) Kind() FieldKind {
	switch f.ptr.(type) {
	case *string:
		return FieldString
	case *bool:
		return FieldBool
	case **Expr, **Type, **Block, **Item:
		return FieldNode
	case *[]*Param, *[]*StructField:
		return FieldComposites
	default:
		return FieldList
	}
}

// ElemKind returns the node kind held by a FieldNode or FieldList field.
func (f Field) ElemKind() Kind {
	switch f.ptr.(type) {
	case **Expr, *[]*Expr:
		return KindExpr
	case **Type, *[]*Type:
		return KindType
	case **Block:
		return KindStmtList
	case *[]*Stmt:
		return KindStmt
	case **Item, *[]*Item:
		return KindItem
	case *[]*TraitMember:
		return KindTraitMember
	case *[]*ImplMember:
		return KindImplMember
	case *[]*ExternMember:
		return KindExternMember
	default:
		return 0
	}
}

// String returns the value of a FieldString field.
func (f Field) String() string {
	if p, ok := f.ptr.(*string); ok {
		return *p
	}

	return ""
}

// SetString stores a FieldString value.
func (f Field) SetString(value string) error {
	p, ok := f.ptr.(*string)
	if !ok {
		return fmt.Errorf("%w: %s is not a string", ErrFieldType, f.Name)
	}

	*p = value

	return nil
}

// Bool returns the value of a FieldBool field.
func (f Field) Bool() bool {
	if p, ok := f.ptr.(*bool); ok {
		return *p
	}

	return false
}

// SetBool stores a FieldBool value.
func (f Field) SetBool(value bool) error {
	p, ok := f.ptr.(*bool)
	if !ok {
		return fmt.Errorf("%w: %s is not a bool", ErrFieldType, f.Name)
	}

	*p = value

	return nil
}

// Node returns the child of a FieldNode field, or nil when absent.
func (f Field) Node() Node {
	switch p := f.ptr.(type) {
	case **Expr:
		return nodeOrNil(*p)
	case **Type:
		return nodeOrNil(*p)
	case **Block:
		return nodeOrNil(*p)
	case **Item:
		return nodeOrNil(*p)
	}

	return nil
}

// SetNode stores the child of a FieldNode field. A nil node clears it.
func (f Field) SetNode(n Node) error {
	switch p := f.ptr.(type) {
	case **Expr:
		return assign(p, n, f.Name)
	case **Type:
		return assign(p, n, f.Name)
	case **Block:
		return assign(p, n, f.Name)
	case **Item:
		return assign(p, n, f.Name)
	}

	return fmt.Errorf("%w: %s is not a node field", ErrFieldType, f.Name)
}

// Len returns the number of elements of a FieldList or FieldComposites field.
func (f Field) Len() int {
	switch p := f.ptr.(type) {
	case *[]*Expr:
		return len(*p)
	case *[]*Type:
		return len(*p)
	case *[]*Stmt:
		return len(*p)
	case *[]*Item:
		return len(*p)
	case *[]*TraitMember:
		return len(*p)
	case *[]*ImplMember:
		return len(*p)
	case *[]*ExternMember:
		return len(*p)
	case *[]*Param:
		return len(*p)
	case *[]*StructField:
		return len(*p)
	}

	return 0
}

// Index returns element i of a FieldList field.
func (f Field) Index(i int) Node {
	switch p := f.ptr.(type) {
	case *[]*Expr:
		return (*p)[i]
	case *[]*Type:
		return (*p)[i]
	case *[]*Stmt:
		return (*p)[i]
	case *[]*Item:
		return (*p)[i]
	case *[]*TraitMember:
		return (*p)[i]
	case *[]*ImplMember:
		return (*p)[i]
	case *[]*ExternMember:
		return (*p)[i]
	}

	return nil
}

// Nodes returns the elements of a FieldList field.
func (f Field) Nodes() []Node {
	n := f.Len()
	out := make([]Node, 0, n)

	for i := range n {
		out = append(out, f.Index(i))
	}

	return out
}

// SetIndex overwrites element i of a FieldList field.
func (f Field) SetIndex(i int, n Node) error {
	switch p := f.ptr.(type) {
	case *[]*Expr:
		return assign(&(*p)[i], n, f.Name)
	case *[]*Type:
		return assign(&(*p)[i], n, f.Name)
	case *[]*Stmt:
		return assign(&(*p)[i], n, f.Name)
	case *[]*Item:
		return assign(&(*p)[i], n, f.Name)
	case *[]*TraitMember:
		return assign(&(*p)[i], n, f.Name)
	case *[]*ImplMember:
		return assign(&(*p)[i], n, f.Name)
	case *[]*ExternMember:
		return assign(&(*p)[i], n, f.Name)
	}

	return fmt.Errorf("%w: %s is not a list field", ErrFieldType, f.Name)
}

// SetNodes replaces all elements of a FieldList field.
func (f Field) SetNodes(ns []Node) error {
	switch p := f.ptr.(type) {
	case *[]*Expr:
		return assignList(p, ns, f.Name)
	case *[]*Type:
		return assignList(p, ns, f.Name)
	case *[]*Stmt:
		return assignList(p, ns, f.Name)
	case *[]*Item:
		return assignList(p, ns, f.Name)
	case *[]*TraitMember:
		return assignList(p, ns, f.Name)
	case *[]*ImplMember:
		return assignList(p, ns, f.Name)
	case *[]*ExternMember:
		return assignList(p, ns, f.Name)
	}

	return fmt.Errorf("%w: %s is not a list field", ErrFieldType, f.Name)
}

// Composites returns the elements of a FieldComposites field.
func (f Field) Composites() []Composite {
	var out []Composite

	switch p := f.ptr.(type) {
	case *[]*Param:
		for _, c := range *p {
			out = append(out, c)
		}
	case *[]*StructField:
		for _, c := range *p {
			out = append(out, c)
		}
	}

	return out
}

// NewComposite allocates an empty element for a FieldComposites field.
func (f Field) NewComposite() Composite {
	switch f.ptr.(type) {
	case *[]*Param:
		return &Param{}
	case *[]*StructField:
		return &StructField{}
	}

	return nil
}

// SetComposites replaces all elements of a FieldComposites field.
func (f Field) SetComposites(cs []Composite) error {
	switch p := f.ptr.(type) {
	case *[]*Param:
		return assignComposites(p, cs, f.Name)
	case *[]*StructField:
		return assignComposites(p, cs, f.Name)
	}

	return fmt.Errorf("%w: %s is not a composite list", ErrFieldType, f.Name)
}

// Ref returns a reference to the child slot of a FieldNode field (i is
// ignored) or to element i of a FieldList field.
func (f Field) Ref(i int) Ref {
	if f.Kind() == FieldNode {
		return Ref{
			get: f.Node,
			set: f.SetNode,
		}
	}

	return Ref{
		get: func() Node { return f.Index(i) },
		set: func(n Node) error { return f.SetIndex(i, n) },
	}
}

func nodeOrNil[N Node](n N) Node {
	if isNil(n) {
		return nil
	}

	return n
}

func isNil(n Node) bool {
	switch v := n.(type) {
	case nil:
		return true
	case *Expr:
		return v == nil
	case *Type:
		return v == nil
	case *Stmt:
		return v == nil
	case *Block:
		return v == nil
	case *Item:
		return v == nil
	case *TraitMember:
		return v == nil
	case *ImplMember:
		return v == nil
	case *ExternMember:
		return v == nil
	}

	return false
}

func assign[N Node](dst *N, n Node, name string) error {
	if n == nil {
		var zero N

		*dst = zero

		return nil
	}

	v, ok := n.(N)
	if !ok {
		return fmt.Errorf("%w: %s cannot hold %s", ErrFieldType, name, n.Kind())
	}

	*dst = v

	return nil
}

func assignList[N Node](dst *[]N, ns []Node, name string) error {
	out := make([]N, 0, len(ns))

	for _, n := range ns {
		v, ok := n.(N)
		if !ok || isNil(n) {
			return fmt.Errorf("%w: %s cannot hold element %v", ErrFieldType, name, n)
		}

		out = append(out, v)
	}

	*dst = out

	return nil
}

func assignComposites[C Composite](dst *[]C, cs []Composite, name string) error {
	out := make([]C, 0, len(cs))

	for _, c := range cs {
		v, ok := c.(C)
		if !ok {
			return fmt.Errorf("%w: %s cannot hold %T", ErrFieldType, name, c)
		}

		out = append(out, v)
	}

	*dst = out

	return nil
}
