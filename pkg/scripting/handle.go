package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/Sumatoshi-tech/refactor/pkg/syntax"
)

// Handle metatable names, one per node kind.
const (
	ExprNodeType        = "ExprNode"
	StmtNodeType        = "StmtNode"
	TyNodeType          = "TyNode"
	ItemNodeType        = "ItemNode"
	TraitItemNodeType   = "TraitItemNode"
	ImplItemNodeType    = "ImplItemNode"
	ForeignItemNodeType = "ForeignItemNode"
	StmtListNodeType    = "StmtListNode"
)

//nolint:gochecknoglobals // immutable lookup table.
var handleTypes = map[syntax.Kind]string{
	syntax.KindExpr:         ExprNodeType,
	syntax.KindStmt:         StmtNodeType,
	syntax.KindType:         TyNodeType,
	syntax.KindItem:         ItemNodeType,
	syntax.KindTraitMember:  TraitItemNodeType,
	syntax.KindImplMember:   ImplItemNodeType,
	syntax.KindExternMember: ForeignItemNodeType,
	syntax.KindStmtList:     StmtListNodeType,
}

// HandleType returns the metatable name used for nodes of kind k.
func HandleType(k syntax.Kind) string { return handleTypes[k] }

func (h *Host) registerHandles(L *lua.LState) {
	methods := h.guardAll(map[string]lua.LGFunction{
		"kind":     handleKind,
		"id":       handleID,
		"tag":      handleTag,
		"to_table": handleToTable,
		"merge":    h.handleMerge,
		"print":    handleToString,
	})

	for _, k := range syntax.Kinds() {
		mt := L.NewTypeMetatable(HandleType(k))
		L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), methods))
		L.SetField(mt, "__tostring", L.NewFunction(handleToString))
		L.SetField(mt, "__eq", L.NewFunction(handleEqual))
	}
}

// pushNode wraps n in a fresh handle of its kind.
func pushNode(L *lua.LState, n syntax.Node) lua.LValue {
	if syntax.IsNil(n) {
		return lua.LNil
	}

	ud := L.NewUserData()
	ud.Value = n
	L.SetMetatable(ud, L.GetTypeMetatable(HandleType(n.Kind())))

	return ud
}

// nodeOf unwraps a handle.
func nodeOf(v lua.LValue) (syntax.Node, bool) {
	ud, ok := v.(*lua.LUserData)
	if !ok {
		return nil, false
	}

	n, ok := ud.Value.(syntax.Node)

	return n, ok
}

func checkNode(L *lua.LState, arg int) syntax.Node {
	n, ok := nodeOf(L.Get(arg))
	if !ok {
		L.ArgError(arg, "node handle expected")
	}

	return n
}

func handleKind(L *lua.LState) int {
	L.Push(lua.LString(checkNode(L, 1).Kind().String()))

	return 1
}

func handleID(L *lua.LState) int {
	L.Push(lua.LNumber(checkNode(L, 1).NodeID()))

	return 1
}

func handleTag(L *lua.LState) int {
	L.Push(lua.LString(checkNode(L, 1).Tag()))

	return 1
}

func handleToTable(L *lua.LState) int {
	L.Push(ToTable(L, checkNode(L, 1)))

	return 1
}

func (h *Host) handleMerge(L *lua.LState) int {
	n := checkNode(L, 1)

	if err := MergeTable(n, L.CheckTable(2)); err != nil {
		h.fail(L, err)
	}

	return 0
}

func handleToString(L *lua.LState) int {
	L.Push(lua.LString(syntax.Print(checkNode(L, 1))))

	return 1
}

// handleEqual compares identities: two handles are equal when they wrap the
// same node.
func handleEqual(L *lua.LState) int {
	a, okA := nodeOf(L.Get(1))
	b, okB := nodeOf(L.Get(2))

	L.Push(lua.LBool(okA && okB && a.Kind() == b.Kind() && a.NodeID() == b.NodeID()))

	return 1
}
