package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/Sumatoshi-tech/refactor/pkg/matcher"
	"github.com/Sumatoshi-tech/refactor/pkg/syntax"
)

// TransformCtxtType is the metatable name of the value passed to
// refactor:transform callbacks.
const TransformCtxtType = "TransformCtxt"

type transformCtxt struct{}

func (h *Host) registerTransformCtxt(L *lua.LState) {
	methods := map[string]lua.LGFunction{
		"replace_expr_with":  h.replaceWith(func(src string) (syntax.Node, error) { return h.st.Parser().ParseExpr(src) }),
		"replace_stmts_with": h.replaceWith(func(src string) (syntax.Node, error) { return h.st.Parser().ParseStmts(src) }),
		"replace_ty_with":    h.replaceWith(func(src string) (syntax.Node, error) { return h.st.Parser().ParseType(src) }),
		"match":              h.tcxMatch,
		"visit_crate":        h.tcxVisitCrate,
		"visit_fn_like":      h.tcxVisitFnLike,
		"binary_expr":        h.binaryExpr,
		"assign_expr":        h.assignExpr,
		"cast_expr":          h.castExpr,
		"call_expr":          h.callExpr,
		"ident_path_expr":    identPathExpr,
		"ident_path_ty":      identPathTy,
		"int_lit_expr":       intLitExpr,
		"get_expr_facts":     h.exprFacts,
		"dump_crate":         h.dumpCrate,
		"dump_marks":         h.dumpMarks,
		"get_marks":          h.getMarks,
		"clear_marks":        h.clearMarks,
		"mark":               h.mark,
	}

	mt := L.NewTypeMetatable(TransformCtxtType)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), h.guardAll(methods)))
}

func pushTransformCtxt(L *lua.LState) lua.LValue {
	ud := L.NewUserData()
	ud.Value = &transformCtxt{}
	L.SetMetatable(ud, L.GetTypeMetatable(TransformCtxtType))

	return ud
}

// replaceWith builds a method that parses a pattern string and folds the
// session tree with a Lua callback.
func (h *Host) replaceWith(parse func(string) (syntax.Node, error)) lua.LGFunction {
	return func(L *lua.LState) int {
		pattern, err := parse(L.CheckString(2))
		if err != nil {
			h.fail(L, err)
		}

		n, err := h.foldNode(L, pattern, L.CheckFunction(3))
		if err != nil {
			h.fail(L, err)
		}

		L.Push(lua.LNumber(n))

		return 1
	}
}

// tcxMatch calls cb with a fresh, empty match context.
func (h *Host) tcxMatch(L *lua.LState) int {
	if _, err := h.call(L, L.CheckFunction(2), pushMatchCtxt(L, matcher.NewBindings())); err != nil {
		h.fail(L, err)
	}

	return 0
}

func (h *Host) checkExpr(L *lua.LState, op string, arg int) *syntax.Expr {
	e, _ := h.dispatch(L, op, arg, []syntax.Kind{syntax.KindExpr}).(*syntax.Expr)

	return syntax.Clone(e)
}

func (h *Host) binaryExpr(L *lua.LState) int {
	op := L.CheckString(2)
	L.Push(pushNode(L, syntax.Binary(op, h.checkExpr(L, "binary_expr", 3), h.checkExpr(L, "binary_expr", 4))))

	return 1
}

func (h *Host) assignExpr(L *lua.LState) int {
	L.Push(pushNode(L, syntax.Assign(h.checkExpr(L, "assign_expr", 2), h.checkExpr(L, "assign_expr", 3))))

	return 1
}

func (h *Host) castExpr(L *lua.LState) int {
	x := h.checkExpr(L, "cast_expr", 2)
	ty, _ := h.dispatch(L, "cast_expr", 3, []syntax.Kind{syntax.KindType}).(*syntax.Type)

	L.Push(pushNode(L, syntax.Cast(x, syntax.Clone(ty))))

	return 1
}

func (h *Host) callExpr(L *lua.LState) int {
	callee := h.checkExpr(L, "call_expr", 2)
	list := L.OptTable(3, L.NewTable())
	args := make([]*syntax.Expr, 0, list.Len())

	for i := 1; i <= list.Len(); i++ {
		n, ok := asKind(L, list.RawGetInt(i), syntax.KindExpr)
		if !ok {
			h.fail(L, fmt.Errorf("%w: call_expr argument %d is not an expression", ErrBadValue, i))
		}

		e, _ := n.(*syntax.Expr)
		args = append(args, syntax.Clone(e))
	}

	L.Push(pushNode(L, syntax.Call(callee, args...)))

	return 1
}

func identPathExpr(L *lua.LState) int {
	L.Push(pushNode(L, syntax.PathE(L.CheckString(2))))

	return 1
}

func identPathTy(L *lua.LState) int {
	L.Push(pushNode(L, syntax.PathT(L.CheckString(2))))

	return 1
}

func intLitExpr(L *lua.LState) int {
	L.Push(pushNode(L, syntax.IntLit(L.CheckInt64(2))))

	return 1
}

// exprFacts returns the resolver facts of an expression as a table, or nil.
func (h *Host) exprFacts(L *lua.LState) int {
	e := h.dispatch(L, "get_expr_facts", 2, []syntax.Kind{syntax.KindExpr})

	facts, ok := h.st.Resolver().Facts(e.NodeID())
	if !ok {
		L.Push(lua.LNil)

		return 1
	}

	t := L.NewTable()
	for k, v := range facts {
		t.RawSetString(k, lua.LString(v))
	}

	L.Push(t)

	return 1
}

func (h *Host) dumpCrate(L *lua.LState) int {
	_, _ = fmt.Fprint(h.cfg.Stdout, syntax.PrintFile(h.st.File()))

	return 0
}

func (h *Host) dumpMarks(L *lua.LState) int {
	for _, m := range h.st.Marks().List() {
		_, _ = fmt.Fprintf(h.cfg.Stdout, "%s %s\n", m.ID, m.Label)
	}

	return 0
}

// getMarks returns a table mapping node ids to lists of labels.
func (h *Host) getMarks(L *lua.LState) int {
	t := L.NewTable()

	for id, labels := range h.st.Marks().ByNode() {
		list := L.NewTable()
		for _, label := range labels {
			list.Append(lua.LString(label))
		}

		t.RawSet(lua.LNumber(id), list)
	}

	L.Push(t)

	return 1
}

// mark labels a node and reports whether the mark is new.
func (h *Host) mark(L *lua.LState) int {
	n := h.dispatch(L, "mark", 2, matchKinds)
	L.Push(lua.LBool(h.st.Marks().Add(n.NodeID(), L.CheckString(3))))

	return 1
}

// clearMarks removes marks with the labels given after the receiver, or
// all marks, and returns how many were removed.
func (h *Host) clearMarks(L *lua.LState) int {
	labels := make([]string, 0, L.GetTop())
	for i := 2; i <= L.GetTop(); i++ {
		labels = append(labels, L.CheckString(i))
	}

	L.Push(lua.LNumber(h.st.Marks().Clear(labels...)))

	return 1
}
