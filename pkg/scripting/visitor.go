package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/Sumatoshi-tech/refactor/pkg/syntax"
)

const crateKind = "crate"

// A visitor is a Lua table whose optional methods visit_crate,
// visit_fn_like, visit_item, visit_stmt, visit_stmts, visit_expr, visit_ty,
// visit_trait_item, visit_impl_item and visit_foreign_item receive node
// tables in pre-order. Returning false from a method skips the children of
// that table. finish is called once the traversal ends, before the tables
// are merged back into the tree.

func (h *Host) tcxVisitCrate(L *lua.LState) int {
	visitor := L.CheckTable(2)
	file := h.st.File()

	t := L.NewTable()
	t.RawSetString(keyKind, lua.LString(crateKind))
	t.RawSetString(keyID, lua.LNumber(file.ID))
	fieldsToTable(L, t, file.Fields())

	err := h.visitRoot(L, visitor, "visit_crate", t, func() error {
		return h.visitFields(L, visitor, file.Fields(), t)
	})
	if err == nil {
		err = mergeFields(file.Fields(), t)
	}

	if err != nil {
		h.fail(L, fmt.Errorf("visit_crate: %w", err))
	}

	h.st.Marks().Prune(file)

	return 0
}

// tcxVisitFnLike runs the visitor over every function and method, one at
// a time. Functions nested in another function body are reached through
// the enclosing function's table.
func (h *Host) tcxVisitFnLike(L *lua.LState) int {
	visitor := L.CheckTable(2)

	for _, fn := range fnLikes(h.st.File()) {
		t := ToTable(L, fn)

		err := h.visitRoot(L, visitor, "visit_fn_like", t, func() error {
			return h.visitChildren(L, visitor, t)
		})
		if err == nil {
			err = MergeTable(fn, t)
		}

		if err != nil {
			h.fail(L, fmt.Errorf("visit_fn_like: %w", err))
		}
	}

	h.st.Marks().Prune(h.st.File())

	return 0
}

func fnLikes(root syntax.Container) []syntax.Node {
	var out []syntax.Node

	syntax.Inspect(root, func(n syntax.Node) bool {
		switch node := n.(type) {
		case *syntax.Item:
			if _, ok := node.Variant.(*syntax.FnItem); ok {
				out = append(out, n)

				return false
			}
		case *syntax.ImplMember:
			if _, ok := node.Variant.(*syntax.FnMember); ok {
				out = append(out, n)

				return false
			}
		case *syntax.TraitMember:
			if fm, ok := node.Variant.(*syntax.FnMember); ok && fm.Body != nil {
				out = append(out, n)

				return false
			}
		}

		return true
	})

	return out
}

// visitRoot calls the root method, walks the children unless it returned
// false, then calls finish.
func (h *Host) visitRoot(L *lua.LState, visitor *lua.LTable, method string, t *lua.LTable, children func() error) error {
	descend, err := h.callVisitor(L, visitor, method, t)
	if err != nil {
		return err
	}

	if descend {
		if err := children(); err != nil {
			return err
		}
	}

	_, err = h.callVisitor(L, visitor, "finish")

	return err
}

func (h *Host) visitTable(L *lua.LState, visitor, t *lua.LTable) error {
	descend, err := h.callVisitor(L, visitor, "visit_"+lua.LVAsString(t.RawGetString(keyKind)), t)
	if err != nil || !descend {
		return err
	}

	return h.visitChildren(L, visitor, t)
}

// visitChildren walks the fields of t in declaration order, using an empty
// node of t's kind and tag as the field layout.
func (h *Host) visitChildren(L *lua.LState, visitor, t *lua.LTable) error {
	kind, err := syntax.ParseKind(lua.LVAsString(t.RawGetString(keyKind)))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadValue, err)
	}

	layout, err := syntax.NewNode(kind, lua.LVAsString(t.RawGetString(keyTag)))
	if err != nil {
		return err
	}

	return h.visitFields(L, visitor, layout.Fields(), t)
}

func (h *Host) visitFields(L *lua.LState, visitor *lua.LTable, layout []syntax.Field, t *lua.LTable) error {
	for _, f := range layout {
		v := t.RawGetString(f.Name)

		switch f.Kind() {
		case syntax.FieldNode:
			if child, ok := v.(*lua.LTable); ok {
				if err := h.visitTable(L, visitor, child); err != nil {
					return err
				}
			}
		case syntax.FieldList:
			if err := visitList(v, func(child *lua.LTable) error {
				return h.visitTable(L, visitor, child)
			}); err != nil {
				return err
			}
		case syntax.FieldComposites:
			inner := f.NewComposite().Fields()

			if err := visitList(v, func(child *lua.LTable) error {
				return h.visitFields(L, visitor, inner, child)
			}); err != nil {
				return err
			}
		case syntax.FieldString, syntax.FieldBool:
		}
	}

	return nil
}

func visitList(v lua.LValue, fn func(*lua.LTable) error) error {
	list, ok := v.(*lua.LTable)
	if !ok {
		return nil
	}

	for i := 1; i <= list.Len(); i++ {
		if child, ok := list.RawGetInt(i).(*lua.LTable); ok {
			if err := fn(child); err != nil {
				return err
			}
		}
	}

	return nil
}

// callVisitor calls visitor:method(args...) when the method exists. It
// reports whether the traversal should descend.
func (h *Host) callVisitor(L *lua.LState, visitor *lua.LTable, method string, args ...lua.LValue) (bool, error) {
	fn, ok := L.GetField(visitor, method).(*lua.LFunction)
	if !ok {
		return true, nil
	}

	ret, err := h.call(L, fn, append([]lua.LValue{visitor}, args...)...)
	if err != nil {
		return false, err
	}

	return ret != lua.LFalse, nil
}
