package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/refactor/internal/observability"
	"github.com/Sumatoshi-tech/refactor/pkg/matcher"
	"github.com/Sumatoshi-tech/refactor/pkg/syntax"
)

// MatchCtxtType is the metatable name of match contexts.
const MatchCtxtType = "MatchCtxt"

// matchCtxt is a binding environment exposed to Lua. Nested contexts
// created by fold_with own their environment; all share the session tree.
type matchCtxt struct {
	env *matcher.Bindings
}

func (h *Host) registerMatchCtxt(L *lua.LState) {
	mt := L.NewTypeMetatable(MatchCtxtType)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), h.guardAll(map[string]lua.LGFunction{
		"parse_expr":    h.parser(func(src string) (syntax.Node, error) { return h.st.Parser().ParseExpr(src) }),
		"parse_stmts":   h.parser(func(src string) (syntax.Node, error) { return h.st.Parser().ParseStmts(src) }),
		"parse_ty":      h.parser(func(src string) (syntax.Node, error) { return h.st.Parser().ParseType(src) }),
		"parse_item":    h.parser(func(src string) (syntax.Node, error) { return h.st.Parser().ParseItem(src) }),
		"fold_with":     h.mcxFoldWith,
		"try_match":     h.mcxTryMatch,
		"find_first":    h.mcxFindFirst,
		"subst":         h.mcxSubst,
		"get_expr":      h.binding(syntax.KindExpr),
		"get_ty":        h.binding(syntax.KindType),
		"get_stmt":      h.binding(syntax.KindStmt),
		"get_multistmt": h.binding(syntax.KindStmtList),
		"get_item":      h.binding(syntax.KindItem),
		"bindings":      mcxBindings,
	})))
}

func pushMatchCtxt(L *lua.LState, env *matcher.Bindings) lua.LValue {
	ud := L.NewUserData()
	ud.Value = &matchCtxt{env: env}
	L.SetMetatable(ud, L.GetTypeMetatable(MatchCtxtType))

	return ud
}

func checkMatchCtxt(L *lua.LState, arg int) *matchCtxt {
	ud := L.CheckUserData(arg)

	mcx, ok := ud.Value.(*matchCtxt)
	if !ok {
		L.ArgError(arg, "MatchCtxt expected")
	}

	return mcx
}

// parser builds a method that parses its string argument into a handle.
// The receiver (argument 1) is a MatchCtxt or a TransformCtxt.
func (h *Host) parser(parse func(string) (syntax.Node, error)) lua.LGFunction {
	return func(L *lua.LState) int {
		n, err := parse(L.CheckString(2))
		if err != nil {
			h.fail(L, err)
		}

		L.Push(pushNode(L, n))

		return 1
	}
}

func (h *Host) mcxFoldWith(L *lua.LState) int {
	checkMatchCtxt(L, 1)

	pattern := h.dispatch(L, "fold_with", 2, foldKinds)
	cb := L.CheckFunction(3)

	n, err := h.foldNode(L, pattern, cb)
	if err != nil {
		h.fail(L, err)
	}

	L.Push(lua.LNumber(n))

	return 1
}

// foldNode selects the kind-instantiated fold for pattern.
func (h *Host) foldNode(L *lua.LState, pattern syntax.Node, cb *lua.LFunction) (int, error) {
	var (
		n   int
		err error
	)

	switch p := pattern.(type) {
	case *syntax.Expr:
		n, err = foldWith(h, L, p, cb)
	case *syntax.Type:
		n, err = foldWith(h, L, p, cb)
	case *syntax.Block:
		n, err = foldWith(h, L, p, cb)
	case *syntax.Item:
		n, err = foldWith(h, L, p, cb)
	default:
		return 0, &NoMatchingKindError{Op: "fold_with", Tried: foldKinds, Got: pattern.Kind().String()}
	}

	h.rewrites += n

	return n, err
}

// foldWith calls cb(node, mcx) for every match of pattern in the session
// tree. The callback returns a replacement handle or table, or nil to keep
// the match.
func foldWith[N syntax.Node](h *Host, L *lua.LState, pattern N, cb *lua.LFunction) (int, error) {
	return matcher.FoldWith(pattern, h.st.File(), func(m N, env *matcher.Bindings) (N, error) {
		var zero N

		_, span := h.st.Tracer().Start(h.ctx, observability.CallbackSpan,
			trace.WithAttributes(attribute.String("node.kind", m.Kind().String())))
		defer span.End()

		ret, err := h.call(L, cb, pushNode(L, m), pushMatchCtxt(L, env))
		if err != nil {
			return zero, err
		}

		repl, err := nodeFromValue(ret, m.Kind(), nodesByID(m))
		if err != nil || repl == nil {
			return zero, err
		}

		out, ok := repl.(N)
		if !ok {
			return zero, fmt.Errorf("%w: fold_with callback returned %s", ErrBadValue, repl.Kind())
		}

		return out, nil
	})
}

func (h *Host) mcxTryMatch(L *lua.LState) int {
	mcx := checkMatchCtxt(L, 1)
	pattern := h.dispatch(L, "try_match", 2, matchKinds)
	target := h.dispatch(L, "try_match", 3, []syntax.Kind{pattern.Kind()})

	_, span := otel.Tracer(observability.MatcherTracer).Start(h.ctx, "refactor.matcher.try_match")
	defer span.End()

	hit, err := matchNode(pattern, target, mcx.env)
	if err != nil {
		h.fail(L, err)
	}

	L.Push(lua.LBool(hit))

	return 1
}

// matchNode matches target against pattern when both have the same kind.
func matchNode(pattern, target syntax.Node, env *matcher.Bindings) (bool, error) {
	switch p := pattern.(type) {
	case *syntax.Expr:
		return matchAs(p, target, env)
	case *syntax.Type:
		return matchAs(p, target, env)
	case *syntax.Stmt:
		return matchAs(p, target, env)
	case *syntax.Block:
		return matchAs(p, target, env)
	case *syntax.Item:
		return matchAs(p, target, env)
	case *syntax.TraitMember:
		return matchAs(p, target, env)
	case *syntax.ImplMember:
		return matchAs(p, target, env)
	case *syntax.ExternMember:
		return matchAs(p, target, env)
	}

	return false, nil
}

func matchAs[N syntax.Node](pattern N, target syntax.Node, env *matcher.Bindings) (bool, error) {
	t, ok := target.(N)
	if !ok {
		return false, nil
	}

	return matcher.Match(pattern, t, env)
}

// mcxFindFirst searches target (the session tree when nil) for the first
// match of pattern. On success the match bindings are added to the context
// and the matched node is returned after true.
func (h *Host) mcxFindFirst(L *lua.LState) int {
	mcx := checkMatchCtxt(L, 1)
	pattern := h.dispatch(L, "find_first", 2, findKinds)

	var root syntax.Container = h.st.File()
	if L.Get(3) != lua.LNil {
		root = checkNode(L, 3)
	}

	_, span := otel.Tracer(observability.MatcherTracer).Start(h.ctx, "refactor.matcher.find_first")
	defer span.End()

	found, env, hit, err := findNode(pattern, root)
	if err == nil && hit {
		hit, err = mergeBindings(mcx.env, env)
	}

	if err != nil {
		h.fail(L, err)
	}

	L.Push(lua.LBool(hit))

	if !hit {
		return 1
	}

	L.Push(pushNode(L, found))

	return 2
}

func findNode(pattern syntax.Node, root syntax.Container) (syntax.Node, *matcher.Bindings, bool, error) {
	switch p := pattern.(type) {
	case *syntax.Expr:
		return findAs(p, root)
	case *syntax.Type:
		return findAs(p, root)
	case *syntax.Stmt:
		return findAs(p, root)
	case *syntax.Block:
		return findAs(p, root)
	case *syntax.Item:
		return findAs(p, root)
	}

	return nil, nil, false, nil
}

func findAs[N syntax.Node](pattern N, root syntax.Container) (syntax.Node, *matcher.Bindings, bool, error) {
	found, env, hit, err := matcher.FindFirst(pattern, root)
	if !hit {
		return nil, env, false, err
	}

	return found, env, true, err
}

// mergeBindings adds src to dst. A name already bound in dst to a
// different subtree makes the merge fail without changing dst.
func mergeBindings(dst, src *matcher.Bindings) (bool, error) {
	merged := dst.Clone()

	for _, name := range src.Names() {
		n, _ := src.Get(name)
		k, _ := src.Kind(name)

		ok, err := merged.Bind(name, k, n)
		if err != nil || !ok {
			return false, err
		}
	}

	for _, name := range src.Names() {
		n, _ := src.Get(name)
		k, _ := src.Kind(name)
		_, _ = dst.Bind(name, k, n)
	}

	return true, nil
}

func (h *Host) mcxSubst(L *lua.LState) int {
	mcx := checkMatchCtxt(L, 1)
	template := h.dispatch(L, "subst", 2, substKinds)

	out, err := substNode(template, mcx.env)
	if err != nil {
		h.fail(L, err)
	}

	L.Push(pushNode(L, out))

	return 1
}

func substNode(template syntax.Node, env *matcher.Bindings) (syntax.Node, error) {
	switch t := template.(type) {
	case *syntax.Expr:
		return substAs(t, env)
	case *syntax.Type:
		return substAs(t, env)
	case *syntax.Stmt:
		return substAs(t, env)
	case *syntax.Block:
		return substAs(t, env)
	case *syntax.Item:
		return substAs(t, env)
	case *syntax.TraitMember:
		return substAs(t, env)
	case *syntax.ImplMember:
		return substAs(t, env)
	case *syntax.ExternMember:
		return substAs(t, env)
	}

	return nil, nil
}

func substAs[N syntax.Node](template N, env *matcher.Bindings) (syntax.Node, error) {
	out, err := matcher.Substitute(template, env)
	if err != nil || syntax.IsNil(out) {
		return nil, err
	}

	return out, nil
}

// binding returns a getter for captures of kind want. Unbound names give
// nil; a name bound at another kind is a contract violation.
func (h *Host) binding(want syntax.Kind) lua.LGFunction {
	return func(L *lua.LState) int {
		mcx := checkMatchCtxt(L, 1)
		name := L.CheckString(2)

		n, ok := mcx.env.Get(name)
		if !ok {
			L.Push(lua.LNil)

			return 1
		}

		if have, _ := mcx.env.Kind(name); have != want {
			h.fail(L, &matcher.ContractError{Op: "get_" + want.String(), Name: name, Have: have, Want: want})
		}

		L.Push(pushNode(L, n))

		return 1
	}
}

// mcxBindings returns a table of every capture, keyed by name.
func mcxBindings(L *lua.LState) int {
	mcx := checkMatchCtxt(L, 1)
	t := L.NewTable()

	for _, name := range mcx.env.Names() {
		n, _ := mcx.env.Get(name)
		t.RawSetString(name, pushNode(L, n))
	}

	L.Push(t)

	return 1
}
