package syntax

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownTag is returned when a variant tag is not valid for a kind.
var ErrUnknownTag = errors.New("unknown variant tag")

//nolint:gochecknoglobals // immutable factory tables.
var (
	exprFactories = map[string]func() ExprVariant{
		TagPath:        func() ExprVariant { return &PathExpr{} },
		TagLit:         func() ExprVariant { return &LitExpr{} },
		TagBinary:      func() ExprVariant { return &BinaryExpr{} },
		TagUnary:       func() ExprVariant { return &UnaryExpr{} },
		TagAssign:      func() ExprVariant { return &AssignExpr{} },
		TagAssignOp:    func() ExprVariant { return &AssignOpExpr{} },
		TagCall:        func() ExprVariant { return &CallExpr{} },
		TagMethodCall:  func() ExprVariant { return &MethodCallExpr{} },
		TagField:       func() ExprVariant { return &FieldExpr{} },
		TagIndex:       func() ExprVariant { return &IndexExpr{} },
		TagCast:        func() ExprVariant { return &CastExpr{} },
		TagParen:       func() ExprVariant { return &ParenExpr{} },
		TagAddrOf:      func() ExprVariant { return &AddrOfExpr{} },
		TagBlockExpr:   func() ExprVariant { return &BlockExpr{} },
		TagIf:          func() ExprVariant { return &IfExpr{} },
		TagWhile:       func() ExprVariant { return &WhileExpr{} },
		TagLoop:        func() ExprVariant { return &LoopExpr{} },
		TagRet:         func() ExprVariant { return &ReturnExpr{} },
		TagBreak:       func() ExprVariant { return &BreakExpr{} },
		TagContinue:    func() ExprVariant { return &ContinueExpr{} },
		TagTup:         func() ExprVariant { return &TupleExpr{} },
		TagArray:       func() ExprVariant { return &ArrayExpr{} },
		TagMac:         func() ExprVariant { return &MacroExpr{} },
		TagRaw:         func() ExprVariant { return &RawExpr{} },
		TagPlaceholder: func() ExprVariant { return &Placeholder{} },
	}

	typeFactories = map[string]func() TypeVariant{
		TagPath:        func() TypeVariant { return &PathType{} },
		TagRptr:        func() TypeVariant { return &RefType{} },
		TagPtr:         func() TypeVariant { return &PtrType{} },
		TagArray:       func() TypeVariant { return &ArrayType{} },
		TagSlice:       func() TypeVariant { return &SliceType{} },
		TagTup:         func() TypeVariant { return &TupleType{} },
		TagNever:       func() TypeVariant { return &NeverType{} },
		TagInfer:       func() TypeVariant { return &InferType{} },
		TagRaw:         func() TypeVariant { return &RawType{} },
		TagPlaceholder: func() TypeVariant { return &Placeholder{} },
	}

	stmtFactories = map[string]func() StmtVariant{
		TagLocal:       func() StmtVariant { return &LetStmt{} },
		TagExprStmt:    func() StmtVariant { return &ExprStmt{} },
		TagItemStmt:    func() StmtVariant { return &ItemStmt{} },
		TagEmpty:       func() StmtVariant { return &EmptyStmt{} },
		TagPlaceholder: func() StmtVariant { return &Placeholder{} },
	}

	itemFactories = map[string]func() ItemVariant{
		TagFn:          func() ItemVariant { return &FnItem{} },
		TagStruct:      func() ItemVariant { return &StructItem{} },
		TagConst:       func() ItemVariant { return &ConstItem{} },
		TagStatic:      func() ItemVariant { return &StaticItem{} },
		TagTyAlias:     func() ItemVariant { return &TypeAliasItem{} },
		TagUse:         func() ItemVariant { return &UseItem{} },
		TagMod:         func() ItemVariant { return &ModItem{} },
		TagTrait:       func() ItemVariant { return &TraitDecl{} },
		TagImpl:        func() ItemVariant { return &ImplDecl{} },
		TagForeignMod:  func() ItemVariant { return &ExternBlock{} },
		TagRaw:         func() ItemVariant { return &RawItem{} },
		TagPlaceholder: func() ItemVariant { return &Placeholder{} },
	}

	memberFactories = map[string]func() MemberVariant{
		TagFn:          func() MemberVariant { return &FnMember{} },
		TagConst:       func() MemberVariant { return &ConstMember{} },
		TagTypeMember:  func() MemberVariant { return &TypeMember{} },
		TagStatic:      func() MemberVariant { return &StaticMember{} },
		TagRaw:         func() MemberVariant { return &RawMember{} },
		TagPlaceholder: func() MemberVariant { return &Placeholder{} },
	}
)

// NewNode allocates an empty node of the given kind and variant tag with a
// fresh identity. The tag is ignored for KindStmtList.
func NewNode(kind Kind, tag string) (Node, error) {
	base := newBase(Span{})

	switch kind {
	case KindStmtList:
		return &Block{Base: base}, nil
	case KindExpr:
		if mk, ok := exprFactories[tag]; ok {
			return &Expr{Base: base, Variant: mk()}, nil
		}
	case KindType:
		if mk, ok := typeFactories[tag]; ok {
			return &Type{Base: base, Variant: mk()}, nil
		}
	case KindStmt:
		if mk, ok := stmtFactories[tag]; ok {
			return &Stmt{Base: base, Variant: mk()}, nil
		}
	case KindItem:
		if mk, ok := itemFactories[tag]; ok {
			return &Item{Base: base, Variant: mk()}, nil
		}
	case KindTraitMember:
		if mk, ok := memberFactories[tag]; ok {
			return &TraitMember{Base: base, Variant: mk()}, nil
		}
	case KindImplMember:
		if mk, ok := memberFactories[tag]; ok {
			return &ImplMember{Base: base, Variant: mk()}, nil
		}
	case KindExternMember:
		if mk, ok := memberFactories[tag]; ok {
			return &ExternMember{Base: base, Variant: mk()}, nil
		}
	}

	return nil, fmt.Errorf("%w: %s has no variant %q", ErrUnknownTag, kind, tag)
}

// Tags lists the variant tags valid for kind, sorted.
func Tags(kind Kind) []string {
	var tags []string

	collect := func(name string) { tags = append(tags, name) }

	switch kind {
	case KindStmtList:
		collect(TagBlock)
	case KindExpr:
		for name := range exprFactories {
			collect(name)
		}
	case KindType:
		for name := range typeFactories {
			collect(name)
		}
	case KindStmt:
		for name := range stmtFactories {
			collect(name)
		}
	case KindItem:
		for name := range itemFactories {
			collect(name)
		}
	case KindTraitMember, KindImplMember, KindExternMember:
		for name := range memberFactories {
			collect(name)
		}
	}

	slices.Sort(tags)

	return tags
}

// AdoptVariant moves the payload of src into dst. dst keeps its identity,
// span and attributes; src must not be used afterwards. Both nodes must
// have the same kind.
func AdoptVariant(dst, src Node) error {
	if dst.Kind() != src.Kind() {
		return fmt.Errorf("%w: cannot adopt a %s payload into a %s", ErrFieldType, src.Kind(), dst.Kind())
	}

	switch d := dst.(type) {
	case *Expr:
		d.Variant = src.(*Expr).Variant //nolint:forcetypeassert // kinds are equal.
	case *Type:
		d.Variant = src.(*Type).Variant //nolint:forcetypeassert // kinds are equal.
	case *Stmt:
		d.Variant = src.(*Stmt).Variant //nolint:forcetypeassert // kinds are equal.
	case *Block:
		d.Stmts = src.(*Block).Stmts //nolint:forcetypeassert // kinds are equal.
	case *Item:
		d.Variant = src.(*Item).Variant //nolint:forcetypeassert // kinds are equal.
	case *TraitMember:
		d.Variant = src.(*TraitMember).Variant //nolint:forcetypeassert // kinds are equal.
	case *ImplMember:
		d.Variant = src.(*ImplMember).Variant //nolint:forcetypeassert // kinds are equal.
	case *ExternMember:
		d.Variant = src.(*ExternMember).Variant //nolint:forcetypeassert // kinds are equal.
	}

	return nil
}
