package matcher

import (
	"fmt"
	"slices"

	"github.com/Sumatoshi-tech/refactor/pkg/syntax"
)

// Substitute instantiates template with env. Every node copied from the
// template gets a fresh identity and a synthesized span; each placeholder is
// replaced by its capture. The first use of a capture moves it, later uses
// copy it with fresh identities. Unbound placeholders are copied as they
// are. A placeholder whose capture has a different kind is a contract
// violation.
func Substitute[N syntax.Node](template N, env *Bindings) (N, error) {
	var zero N

	out, err := substNode(template, env)
	if err != nil {
		return zero, err
	}

	if out == nil {
		return zero, nil
	}

	v, ok := out.(N)
	if !ok {
		return zero, fmt.Errorf("%w: substitute produced %s for a %s template",
			ErrContractViolation, out.Kind(), template.Kind())
	}

	return v, nil
}

func substNode(t syntax.Node, env *Bindings) (syntax.Node, error) {
	if syntax.IsNil(t) {
		return nil, nil
	}

	if ph, ok := syntax.AsPlaceholder(t); ok {
		return substPlaceholder(t, ph, env)
	}

	dst, err := syntax.NewNode(t.Kind(), t.Tag())
	if err != nil {
		return nil, fmt.Errorf("substitute: %w", err)
	}

	syntax.BaseOf(dst).Attrs = slices.Clone(t.Attributes())

	err = substFields(t.Fields(), dst.Fields(), env)
	if err != nil {
		return nil, err
	}

	return dst, nil
}

func substPlaceholder(t syntax.Node, ph *syntax.Placeholder, env *Bindings) (syntax.Node, error) {
	want := syntax.PlaceholderKind(t, ph)

	have, bound := env.Kind(ph.Name)
	if !bound {
		return syntax.Clone(t), nil
	}

	if have != want {
		return nil, &ContractError{Op: "substitute", Name: ph.Name, Have: have, Want: want}
	}

	return env.take(ph.Name), nil
}

func substFields(src, dst []syntax.Field, env *Bindings) error {
	for i, f := range src {
		err := substField(f, dst[i], env)
		if err != nil {
			return err
		}
	}

	return nil
}

func substField(f, out syntax.Field, env *Bindings) error {
	switch f.Kind() {
	case syntax.FieldString:
		return out.SetString(f.String())
	case syntax.FieldBool:
		return out.SetBool(f.Bool())
	case syntax.FieldNode:
		n, err := substNode(f.Node(), env)
		if err != nil {
			return err
		}

		return out.SetNode(n)
	case syntax.FieldList:
		elems, err := substList(f, env)
		if err != nil {
			return err
		}

		return out.SetNodes(elems)
	case syntax.FieldComposites:
		comps := f.Composites()
		copies := make([]syntax.Composite, 0, len(comps))

		for _, c := range comps {
			cp := out.NewComposite()

			err := substFields(c.Fields(), cp.Fields(), env)
			if err != nil {
				return err
			}

			copies = append(copies, cp)
		}

		return out.SetComposites(copies)
	}

	return nil
}

// substList instantiates list elements, splicing statement list captures.
func substList(f syntax.Field, env *Bindings) ([]syntax.Node, error) {
	out := make([]syntax.Node, 0, f.Len())

	for _, elem := range f.Nodes() {
		name, multi := multiName(elem)
		if !multi {
			n, err := substNode(elem, env)
			if err != nil {
				return nil, err
			}

			out = append(out, n)

			continue
		}

		have, bound := env.Kind(name)
		if !bound {
			out = append(out, syntax.Clone(elem))

			continue
		}

		if have != syntax.KindStmtList {
			return nil, &ContractError{Op: "substitute", Name: name, Have: have, Want: syntax.KindStmtList}
		}

		captured, _ := env.take(name).(*syntax.Block)
		for _, s := range captured.Stmts {
			out = append(out, s)
		}
	}

	return out, nil
}
