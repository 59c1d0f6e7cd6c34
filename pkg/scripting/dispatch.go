package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/Sumatoshi-tech/refactor/pkg/syntax"
)

// Accepted kinds per bridge operation, tried in order.
//
//nolint:gochecknoglobals // immutable dispatch tables.
var (
	foldKinds  = []syntax.Kind{syntax.KindExpr, syntax.KindType, syntax.KindStmtList, syntax.KindItem}
	matchKinds = []syntax.Kind{
		syntax.KindExpr, syntax.KindType, syntax.KindStmt, syntax.KindStmtList,
		syntax.KindItem, syntax.KindTraitMember, syntax.KindImplMember, syntax.KindExternMember,
	}
	findKinds  = []syntax.Kind{syntax.KindExpr, syntax.KindType, syntax.KindStmt, syntax.KindStmtList, syntax.KindItem}
	substKinds = matchKinds
)

// dispatch interprets argument arg as each kind in turn and returns the
// node of the first kind the handle holds. Exhaustion is fatal.
func (h *Host) dispatch(L *lua.LState, op string, arg int, kinds []syntax.Kind) syntax.Node {
	v := L.Get(arg)

	for _, k := range kinds {
		if n, ok := asKind(L, v, k); ok {
			return n
		}
	}

	got := v.Type().String()
	if n, ok := nodeOf(v); ok {
		got = n.Kind().String()
	}

	h.fail(L, &NoMatchingKindError{Op: op, Tried: kinds, Got: got})

	return nil
}

// asKind succeeds when v is a handle created with k's metatable.
func asKind(L *lua.LState, v lua.LValue, k syntax.Kind) (syntax.Node, bool) {
	ud, ok := v.(*lua.LUserData)
	if !ok || ud.Metatable != L.GetTypeMetatable(HandleType(k)) {
		return nil, false
	}

	n, ok := ud.Value.(syntax.Node)
	if !ok || n.Kind() != k {
		return nil, false
	}

	return n, true
}
