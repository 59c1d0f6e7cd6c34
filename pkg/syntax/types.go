package syntax

// TypeVariant is the payload of a Type.
type TypeVariant interface {
	Variant
	typeVariant()
}

// Type variant tags. Path, Array, Tup and Raw share their expression names.
const (
	TagRptr  = "Rptr"
	TagPtr   = "Ptr"
	TagSlice = "Slice"
	TagNever = "Never"
	TagInfer = "Infer"
)

// PathType is a named type with optional generic arguments: Vec<u8>.
type PathType struct {
	Path string
	Args []*Type
}

// RefType is &'a mut T.
type RefType struct {
	Lifetime string
	Mut      bool
	Elem     *Type
}

// PtrType is *const T or *mut T.
type PtrType struct {
	Mut  bool
	Elem *Type
}

// ArrayType is [T; len].
type ArrayType struct {
	Elem *Type
	Len  *Expr
}

// SliceType is [T].
type SliceType struct{ Elem *Type }

// TupleType is (A, B, ...); the unit type has no elements.
type TupleType struct{ Elems []*Type }

// NeverType is !.
type NeverType struct{}

// InferType is _.
type InferType struct{}

// RawType keeps the source text of type syntax the tree does not model.
type RawType struct{ Text string }

func (v *PathType) Tag() string  { return TagPath }
func (v *RefType) Tag() string   { return TagRptr }
func (v *PtrType) Tag() string   { return TagPtr }
func (v *ArrayType) Tag() string { return TagArray }
func (v *SliceType) Tag() string { return TagSlice }
func (v *TupleType) Tag() string { return TagTup }
func (v *NeverType) Tag() string { return TagNever }
func (v *InferType) Tag() string { return TagInfer }
func (v *RawType) Tag() string   { return TagRaw }

func (v *PathType) Fields() []Field {
	return []Field{field("path", &v.Path), field("args", &v.Args)}
}

func (v *RefType) Fields() []Field {
	return []Field{field("lifetime", &v.Lifetime), field("mutbl", &v.Mut), field("ty", &v.Elem)}
}

func (v *PtrType) Fields() []Field {
	return []Field{field("mutbl", &v.Mut), field("ty", &v.Elem)}
}

func (v *ArrayType) Fields() []Field {
	return []Field{field("ty", &v.Elem), field("len", &v.Len)}
}

func (v *SliceType) Fields() []Field { return []Field{field("ty", &v.Elem)} }
func (v *TupleType) Fields() []Field { return []Field{field("tys", &v.Elems)} }
func (v *NeverType) Fields() []Field { return nil }
func (v *InferType) Fields() []Field { return nil }
func (v *RawType) Fields() []Field   { return []Field{field("text", &v.Text)} }

func (*PathType) typeVariant()  {}
func (*RefType) typeVariant()   {}
func (*PtrType) typeVariant()   {}
func (*ArrayType) typeVariant() {}
func (*SliceType) typeVariant() {}
func (*TupleType) typeVariant() {}
func (*NeverType) typeVariant() {}
func (*InferType) typeVariant() {}
func (*RawType) typeVariant()   {}
