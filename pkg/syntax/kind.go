package syntax

import (
	"errors"
	"fmt"
)

// Kind is the closed set of node categories.
type Kind uint8

// Node kinds.
const (
	KindItem Kind = iota + 1
	KindStmt
	KindExpr
	KindType
	KindTraitMember
	KindImplMember
	KindExternMember
	KindStmtList
)

// ErrUnknownKind is returned when a kind name is not recognized.
var ErrUnknownKind = errors.New("unknown node kind")

//nolint:gochecknoglobals // immutable lookup table.
var kindNames = map[Kind]string{
	KindItem:         "item",
	KindStmt:         "stmt",
	KindExpr:         "expr",
	KindType:         "ty",
	KindTraitMember:  "trait_item",
	KindImplMember:   "impl_item",
	KindExternMember: "foreign_item",
	KindStmtList:     "stmts",
}

// Kinds lists every kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindItem, KindStmt, KindExpr, KindType,
		KindTraitMember, KindImplMember, KindExternMember, KindStmtList,
	}
}

// String returns the placeholder-syntax name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind resolves a kind name as written after a placeholder colon.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}

	switch name {
	case "type":
		return KindType, nil
	case "multistmt":
		return KindStmtList, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}
