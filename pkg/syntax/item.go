package syntax

// ItemVariant is the payload of an Item.
type ItemVariant interface {
	Variant
	itemVariant()
}

// MemberVariant is the payload of trait, impl and extern members.
type MemberVariant interface {
	Variant
	memberVariant()
}

// Item and member variant tags.
const (
	TagFn         = "Fn"
	TagStruct     = "Struct"
	TagConst      = "Const"
	TagStatic     = "Static"
	TagTyAlias    = "TyAlias"
	TagUse        = "Use"
	TagMod        = "Mod"
	TagTrait      = "Trait"
	TagImpl       = "Impl"
	TagForeignMod = "ForeignMod"
	TagTypeMember = "Type"
)

// FnItem is a function declaration.
type FnItem struct {
	Unsafe bool
	ABI    string
	Params []*Param
	Ret    *Type
	Body   *Block
}

// StructItem is a struct with named fields.
type StructItem struct{ FieldDecls []*StructField }

// ConstItem is const NAME: ty = value;.
type ConstItem struct {
	Ty    *Type
	Value *Expr
}

// StaticItem is static [mut] NAME: ty = value;.
type StaticItem struct {
	Mut   bool
	Ty    *Type
	Value *Expr
}

// TypeAliasItem is type Name = ty;.
type TypeAliasItem struct{ Ty *Type }

// UseItem is a use declaration; Tree is the use tree text.
type UseItem struct{ Tree string }

// ModItem is a module. Inline is false for mod name;.
type ModItem struct {
	Inline bool
	Items  []*Item
}

// TraitDecl is a trait declaration.
type TraitDecl struct {
	Unsafe  bool
	Members []*TraitMember
}

// ImplDecl is an inherent or trait impl block.
type ImplDecl struct {
	Unsafe  bool
	Trait   string
	SelfTy  *Type
	Members []*ImplMember
}

// ExternBlock is an extern "ABI" { ... } block.
type ExternBlock struct {
	ABI     string
	Members []*ExternMember
}

// RawItem keeps the source text of items the tree does not model.
type RawItem struct{ Text string }

func (v *FnItem) Tag() string        { return TagFn }
func (v *StructItem) Tag() string    { return TagStruct }
func (v *ConstItem) Tag() string     { return TagConst }
func (v *StaticItem) Tag() string    { return TagStatic }
func (v *TypeAliasItem) Tag() string { return TagTyAlias }
func (v *UseItem) Tag() string       { return TagUse }
func (v *ModItem) Tag() string       { return TagMod }
func (v *TraitDecl) Tag() string     { return TagTrait }
func (v *ImplDecl) Tag() string      { return TagImpl }
func (v *ExternBlock) Tag() string   { return TagForeignMod }
func (v *RawItem) Tag() string       { return TagRaw }

func (v *FnItem) Fields() []Field {
	return []Field{
		field("unsafe", &v.Unsafe), field("abi", &v.ABI), field("params", &v.Params),
		field("ret", &v.Ret), field("block", &v.Body),
	}
}

func (v *StructItem) Fields() []Field { return []Field{field("fields", &v.FieldDecls)} }

func (v *ConstItem) Fields() []Field {
	return []Field{field("ty", &v.Ty), field("expr", &v.Value)}
}

func (v *StaticItem) Fields() []Field {
	return []Field{field("mutbl", &v.Mut), field("ty", &v.Ty), field("expr", &v.Value)}
}

func (v *TypeAliasItem) Fields() []Field { return []Field{field("ty", &v.Ty)} }
func (v *UseItem) Fields() []Field       { return []Field{field("tree", &v.Tree)} }

func (v *ModItem) Fields() []Field {
	return []Field{field("inline", &v.Inline), field("items", &v.Items)}
}

func (v *TraitDecl) Fields() []Field {
	return []Field{field("unsafe", &v.Unsafe), field("items", &v.Members)}
}

func (v *ImplDecl) Fields() []Field {
	return []Field{
		field("unsafe", &v.Unsafe), field("trait", &v.Trait), field("self_ty", &v.SelfTy),
		field("items", &v.Members),
	}
}

func (v *ExternBlock) Fields() []Field {
	return []Field{field("abi", &v.ABI), field("items", &v.Members)}
}

func (v *RawItem) Fields() []Field { return []Field{field("text", &v.Text)} }

func (*FnItem) itemVariant()        {}
func (*StructItem) itemVariant()    {}
func (*ConstItem) itemVariant()     {}
func (*StaticItem) itemVariant()    {}
func (*TypeAliasItem) itemVariant() {}
func (*UseItem) itemVariant()       {}
func (*ModItem) itemVariant()       {}
func (*TraitDecl) itemVariant()     {}
func (*ImplDecl) itemVariant()      {}
func (*ExternBlock) itemVariant()   {}
func (*RawItem) itemVariant()       {}

// FnMember is a method or associated function. Body is nil for required
// trait methods and extern declarations.
type FnMember struct {
	Unsafe bool
	Params []*Param
	Ret    *Type
	Body   *Block
}

// ConstMember is an associated constant; Value may be nil in traits.
type ConstMember struct {
	Ty    *Type
	Value *Expr
}

// TypeMember is an associated type; Ty may be nil in traits.
type TypeMember struct{ Ty *Type }

// StaticMember is a static declared in an extern block.
type StaticMember struct {
	Mut bool
	Ty  *Type
}

// RawMember keeps the source text of members the tree does not model.
type RawMember struct{ Text string }

func (v *FnMember) Tag() string     { return TagFn }
func (v *ConstMember) Tag() string  { return TagConst }
func (v *TypeMember) Tag() string   { return TagTypeMember }
func (v *StaticMember) Tag() string { return TagStatic }
func (v *RawMember) Tag() string    { return TagRaw }

func (v *FnMember) Fields() []Field {
	return []Field{
		field("unsafe", &v.Unsafe), field("params", &v.Params), field("ret", &v.Ret), field("block", &v.Body),
	}
}

func (v *ConstMember) Fields() []Field {
	return []Field{field("ty", &v.Ty), field("expr", &v.Value)}
}

func (v *TypeMember) Fields() []Field { return []Field{field("ty", &v.Ty)} }

func (v *StaticMember) Fields() []Field {
	return []Field{field("mutbl", &v.Mut), field("ty", &v.Ty)}
}

func (v *RawMember) Fields() []Field { return []Field{field("text", &v.Text)} }

func (*FnMember) memberVariant()     {}
func (*ConstMember) memberVariant()  {}
func (*TypeMember) memberVariant()   {}
func (*StaticMember) memberVariant() {}
func (*RawMember) memberVariant()    {}
