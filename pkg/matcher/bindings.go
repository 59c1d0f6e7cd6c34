// Package matcher implements structural pattern matching, substitution and
// the fold-style rewrite driver over syntax trees.
package matcher

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Sumatoshi-tech/refactor/pkg/syntax"
)

// ErrContractViolation marks programming errors in patterns or templates,
// such as one placeholder name used at two kinds.
var ErrContractViolation = errors.New("contract violation")

// ContractError describes a placeholder used inconsistently.
type ContractError struct {
	Op   string
	Name string
	Have syntax.Kind
	Want syntax.Kind
}

// Error implements error.
func (e *ContractError) Error() string {
	return fmt.Sprintf("%s: placeholder $%s is bound as %s, used as %s", e.Op, e.Name, e.Have, e.Want)
}

// Unwrap returns ErrContractViolation.
func (e *ContractError) Unwrap() error { return ErrContractViolation }

type binding struct {
	kind syntax.Kind
	node syntax.Node
	uses int
}

// Bindings maps placeholder names to captured subtrees. Each name is bound
// at exactly one kind.
type Bindings struct {
	entries map[string]*binding
	order   []string
}

// NewBindings returns an empty environment.
func NewBindings() *Bindings {
	return &Bindings{entries: make(map[string]*binding)}
}

// Len returns the number of bound names.
func (b *Bindings) Len() int { return len(b.order) }

// Names returns bound names in binding order.
func (b *Bindings) Names() []string { return slices.Clone(b.order) }

// Get returns the subtree captured for name.
func (b *Bindings) Get(name string) (syntax.Node, bool) {
	e, ok := b.entries[name]
	if !ok {
		return nil, false
	}

	return e.node, true
}

// Kind returns the kind name is bound at.
func (b *Bindings) Kind(name string) (syntax.Kind, bool) {
	e, ok := b.entries[name]
	if !ok {
		return 0, false
	}

	return e.kind, true
}

// Lookup returns the capture for name when it has node type N.
func Lookup[N syntax.Node](b *Bindings, name string) (N, bool) {
	var zero N

	n, ok := b.Get(name)
	if !ok {
		return zero, false
	}

	v, ok := n.(N)

	return v, ok
}

// Bind records name -> n at kind. Binding an already bound name succeeds
// only when n is structurally equal to the existing capture; a kind
// mismatch is a contract violation.
func (b *Bindings) Bind(name string, kind syntax.Kind, n syntax.Node) (bool, error) {
	if e, ok := b.entries[name]; ok {
		if e.kind != kind {
			return false, &ContractError{Op: "bind", Name: name, Have: e.kind, Want: kind}
		}

		return syntax.Equal(e.node, n), nil
	}

	b.entries[name] = &binding{kind: kind, node: n}
	b.order = append(b.order, name)

	return true, nil
}

// Clone returns an independent copy of the environment. Captured nodes are
// shared.
func (b *Bindings) Clone() *Bindings {
	out := &Bindings{
		entries: make(map[string]*binding, len(b.entries)),
		order:   slices.Clone(b.order),
	}

	for name, e := range b.entries {
		cp := *e
		out.entries[name] = &cp
	}

	return out
}

func (b *Bindings) replace(from *Bindings) {
	b.entries = from.entries
	b.order = from.order
}

// take hands out the capture for name: the first call returns the captured
// subtree itself, later calls return copies with fresh identities.
func (b *Bindings) take(name string) syntax.Node {
	e := b.entries[name]
	e.uses++

	if e.uses == 1 {
		return e.node
	}

	return syntax.Clone(e.node)
}
