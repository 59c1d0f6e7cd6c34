package syntax

import "errors"

// ErrRootSlot is returned when replacing the root passed to WalkNode.
var ErrRootSlot = errors.New("cannot replace the walk root")

// Ref is a reference to a slot holding a node. Replacing through a Ref
// writes the owning field in place.
type Ref struct {
	get func() Node
	set func(Node) error
}

// Get returns the node currently in the slot.
func (r Ref) Get() Node { return r.get() }

// Set stores n in the slot. n must have the slot's kind.
func (r Ref) Set(n Node) error { return r.set(n) }

// SlotRef returns a Ref to a variable holding a node.
func SlotRef[N Node](slot *N) Ref {
	return Ref{
		get: func() Node { return nodeOrNil(*slot) },
		set: func(n Node) error { return assign(slot, n, "slot") },
	}
}

// Visitor is called for each node in pre-order. Returning false skips the
// children of the node now held by the slot.
type Visitor func(ref Ref) bool

// Walk visits every node below root in pre-order. The slice lengths of
// list fields are re-read on every step, so edits made by the visitor to
// not-yet-visited siblings are observed.
func Walk(root Container, visit Visitor) {
	walkFields(root.Fields(), visit)
}

// WalkNode is Walk including root itself. The root slot cannot be replaced.
func WalkNode(root Node, visit Visitor) {
	ref := Ref{
		get: func() Node { return root },
		set: func(Node) error { return ErrRootSlot },
	}

	walkRef(ref, visit)
}

// Inspect calls fn for root (when it is a Node) and every node below it in
// pre-order. Returning false from fn skips the node's children.
func Inspect(root Container, fn func(Node) bool) {
	visit := func(ref Ref) bool { return fn(ref.Get()) }

	if n, ok := root.(Node); ok {
		WalkNode(n, visit)

		return
	}

	Walk(root, visit)
}

func walkRef(ref Ref, visit Visitor) {
	if !visit(ref) {
		return
	}

	n := ref.Get()
	if n == nil {
		return
	}

	walkFields(n.Fields(), visit)
}

func walkFields(fields []Field, visit Visitor) {
	for _, f := range fields {
		switch f.Kind() {
		case FieldNode:
			if f.Node() != nil {
				walkRef(f.Ref(0), visit)
			}
		case FieldList:
			for i := 0; i < f.Len(); i++ {
				walkRef(f.Ref(i), visit)
			}
		case FieldComposites:
			for _, c := range f.Composites() {
				walkFields(c.Fields(), visit)
			}
		case FieldString, FieldBool:
		}
	}
}
