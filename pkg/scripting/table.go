package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/Sumatoshi-tech/refactor/pkg/syntax"
)

// Reserved table keys. Node fields never use these names.
const (
	keyKind  = "kind"
	keyID    = "id"
	keySpan  = "span"
	keyTag   = "tag"
	keyAttrs = "attrs"
)

// ToTable mirrors n into a Lua table: kind, id, span {lo, hi}, tag, attrs
// (list of {name, args}) and one entry per payload field. Child nodes
// become nested tables, lists become arrays. Every field is present;
// absent child nodes are nil.
func ToTable(L *lua.LState, n syntax.Node) *lua.LTable {
	t := L.NewTable()

	t.RawSetString(keyKind, lua.LString(n.Kind().String()))
	t.RawSetString(keyID, lua.LNumber(n.NodeID()))
	t.RawSetString(keyTag, lua.LString(n.Tag()))

	span := L.NewTable()
	span.RawSetString("lo", lua.LNumber(n.NodeSpan().Lo))
	span.RawSetString("hi", lua.LNumber(n.NodeSpan().Hi))
	t.RawSetString(keySpan, span)

	attrs := L.NewTable()
	for _, a := range n.Attributes() {
		at := L.NewTable()
		at.RawSetString("name", lua.LString(a.Name))
		at.RawSetString("args", lua.LString(a.Args))
		attrs.Append(at)
	}

	t.RawSetString(keyAttrs, attrs)

	fieldsToTable(L, t, n.Fields())

	return t
}

func fieldsToTable(L *lua.LState, t *lua.LTable, fields []syntax.Field) {
	for _, f := range fields {
		switch f.Kind() {
		case syntax.FieldString:
			t.RawSetString(f.Name, lua.LString(f.String()))
		case syntax.FieldBool:
			t.RawSetString(f.Name, lua.LBool(f.Bool()))
		case syntax.FieldNode:
			if child := f.Node(); child != nil {
				t.RawSetString(f.Name, ToTable(L, child))
			}
		case syntax.FieldList:
			list := L.NewTable()
			for _, child := range f.Nodes() {
				list.Append(ToTable(L, child))
			}

			t.RawSetString(f.Name, list)
		case syntax.FieldComposites:
			list := L.NewTable()

			for _, c := range f.Composites() {
				ct := L.NewTable()
				fieldsToTable(L, ct, c.Fields())
				list.Append(ct)
			}

			t.RawSetString(f.Name, list)
		}
	}
}

// MergeTable writes the fields of t back onto n. kind must match when
// present; id and span are read-only and ignored. A tag different from
// n's gives n a fresh, empty payload of that variant before the fields
// are written. Attributes equal (by name and args) to an existing one keep
// its spans. Nested tables whose id names an existing child are merged
// into that child; other tables build new nodes. Handles are stored as is.
func MergeTable(n syntax.Node, t *lua.LTable) error {
	if kind, ok := t.RawGetString(keyKind).(lua.LString); ok && string(kind) != n.Kind().String() {
		return fmt.Errorf("%w: table of kind %s merged into %s", ErrBadValue, kind, n.Kind())
	}

	if tag, ok := t.RawGetString(keyTag).(lua.LString); ok && string(tag) != n.Tag() {
		fresh, err := syntax.NewNode(n.Kind(), string(tag))
		if err != nil {
			return err
		}

		if err := syntax.AdoptVariant(n, fresh); err != nil {
			return err
		}
	}

	if v := t.RawGetString(keyAttrs); v != lua.LNil {
		attrs, err := mergeAttrs(n.Attributes(), v)
		if err != nil {
			return err
		}

		n.SetAttributes(attrs)
	}

	return mergeFields(n.Fields(), t)
}

func mergeAttrs(old []syntax.Attribute, v lua.LValue) ([]syntax.Attribute, error) {
	list, ok := v.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%w: attrs must be a table, got %s", ErrBadValue, v.Type())
	}

	used := make([]bool, len(old))
	out := make([]syntax.Attribute, 0, list.Len())

	for i := 1; i <= list.Len(); i++ {
		at, ok := list.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("%w: attrs[%d] must be a table", ErrBadValue, i)
		}

		a := syntax.Attribute{
			Name: lua.LVAsString(at.RawGetString("name")),
			Args: lua.LVAsString(at.RawGetString("args")),
		}

		for j, o := range old {
			if !used[j] && o.Name == a.Name && o.Args == a.Args {
				used[j] = true
				a = o

				break
			}
		}

		out = append(out, a)
	}

	return out, nil
}

func mergeFields(fields []syntax.Field, t *lua.LTable) error {
	for _, f := range fields {
		v := t.RawGetString(f.Name)

		var err error

		switch f.Kind() {
		case syntax.FieldString:
			s, ok := v.(lua.LString)
			if !ok && v != lua.LNil {
				return fmt.Errorf("%w: field %s must be a string, got %s", ErrBadValue, f.Name, v.Type())
			}

			err = f.SetString(string(s))
		case syntax.FieldBool:
			err = f.SetBool(lua.LVAsBool(v))
		case syntax.FieldNode:
			var child syntax.Node

			child, err = nodeFromValue(v, f.ElemKind(), nodesByID(f.Node()))
			if err == nil {
				err = f.SetNode(child)
			}
		case syntax.FieldList:
			err = mergeList(f, v)
		case syntax.FieldComposites:
			err = mergeComposites(f, v)
		}

		if err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
	}

	return nil
}

func mergeList(f syntax.Field, v lua.LValue) error {
	if v == lua.LNil {
		return f.SetNodes(nil)
	}

	list, ok := v.(*lua.LTable)
	if !ok {
		return fmt.Errorf("%w: expected a list, got %s", ErrBadValue, v.Type())
	}

	existing := nodesByID(f.Nodes()...)
	out := make([]syntax.Node, 0, list.Len())

	for i := 1; i <= list.Len(); i++ {
		child, err := nodeFromValue(list.RawGetInt(i), f.ElemKind(), existing)
		if err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}

		if child == nil {
			return fmt.Errorf("%w: [%d] is nil", ErrBadValue, i)
		}

		out = append(out, child)
	}

	return f.SetNodes(out)
}

func mergeComposites(f syntax.Field, v lua.LValue) error {
	if v == lua.LNil {
		return f.SetComposites(nil)
	}

	list, ok := v.(*lua.LTable)
	if !ok {
		return fmt.Errorf("%w: expected a list, got %s", ErrBadValue, v.Type())
	}

	old := f.Composites()
	out := make([]syntax.Composite, 0, list.Len())

	for i := 1; i <= list.Len(); i++ {
		ct, ok := list.RawGetInt(i).(*lua.LTable)
		if !ok {
			return fmt.Errorf("%w: [%d] must be a table", ErrBadValue, i)
		}

		var c syntax.Composite
		if i <= len(old) {
			c = old[i-1]
		} else {
			c = f.NewComposite()
		}

		if err := mergeFields(c.Fields(), ct); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}

		out = append(out, c)
	}

	return f.SetComposites(out)
}

func nodesByID(ns ...syntax.Node) map[syntax.NodeID]syntax.Node {
	out := make(map[syntax.NodeID]syntax.Node, len(ns))

	for _, n := range ns {
		if !syntax.IsNil(n) {
			out[n.NodeID()] = n
		}
	}

	return out
}

// nodeFromValue converts a field value into a node of kind want. Tables
// whose id is in existing are merged into that node.
func nodeFromValue(v lua.LValue, want syntax.Kind, existing map[syntax.NodeID]syntax.Node) (syntax.Node, error) {
	switch val := v.(type) {
	case *lua.LNilType:
		return nil, nil
	case *lua.LUserData:
		n, ok := nodeOf(val)
		if !ok {
			return nil, fmt.Errorf("%w: userdata is not a node handle", ErrBadValue)
		}

		if n.Kind() != want {
			return nil, fmt.Errorf("%w: handle of kind %s where %s is expected", ErrBadValue, n.Kind(), want)
		}

		return n, nil
	case *lua.LTable:
		if id, ok := val.RawGetString(keyID).(lua.LNumber); ok {
			if n, found := existing[syntax.NodeID(id)]; found {
				return n, MergeTable(n, val)
			}
		}

		tag, ok := val.RawGetString(keyTag).(lua.LString)
		if !ok && want != syntax.KindStmtList {
			return nil, fmt.Errorf("%w: new %s table needs a tag", ErrBadValue, want)
		}

		n, err := syntax.NewNode(want, string(tag))
		if err != nil {
			return nil, err
		}

		return n, MergeTable(n, val)
	default:
		return nil, fmt.Errorf("%w: cannot convert %s to a %s node", ErrBadValue, v.Type(), want)
	}
}
