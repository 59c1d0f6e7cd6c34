package matcher

import (
	"github.com/Sumatoshi-tech/refactor/pkg/syntax"
)

// Match reports whether candidate is an instance of pattern. On success the
// captured placeholders are added to env; on failure env is left unchanged.
// Spans and attributes do not participate. The error is non-nil only for
// contract violations.
func Match[N syntax.Node](pattern, candidate N, env *Bindings) (bool, error) {
	m := matcher{env: env.Clone()}

	ok, err := m.node(pattern, candidate)
	if err != nil || !ok {
		return false, err
	}

	env.replace(m.env)

	return true, nil
}

// MatchWindow finds the first contiguous run of candidate statements that
// pattern matches in full. Start offsets are tried left to right; statement
// list placeholders capture as few statements as possible. An empty pattern
// never matches.
func MatchWindow(pattern, candidate *syntax.Block, env *Bindings) (start, end int, ok bool, err error) {
	ps := toNodes(pattern.Stmts)
	cs := toNodes(candidate.Stmts)

	if len(ps) == 0 {
		return 0, 0, false, nil
	}

	minLen, variable := windowShape(ps)

	for start = 0; start+minLen <= len(cs); start++ {
		for end = start + minLen; end <= len(cs); end++ {
			m := matcher{env: env.Clone()}

			ok, err = m.stmtSeq(ps, cs[start:end])
			if err != nil {
				return 0, 0, false, err
			}

			if ok {
				env.replace(m.env)

				return start, end, true, nil
			}

			if !variable {
				break
			}
		}
	}

	return 0, 0, false, nil
}

func windowShape(ps []syntax.Node) (minLen int, variable bool) {
	for _, p := range ps {
		if _, multi := multiName(p); multi {
			variable = true

			continue
		}

		minLen++
	}

	return minLen, variable
}

type matcher struct {
	env *Bindings
}

func (m *matcher) node(p, c syntax.Node) (bool, error) {
	if syntax.IsNil(p) || syntax.IsNil(c) {
		return syntax.IsNil(p) && syntax.IsNil(c), nil
	}

	if ph, ok := syntax.AsPlaceholder(p); ok {
		kind := syntax.PlaceholderKind(p, ph)
		if kind == syntax.KindStmtList {
			s, _ := c.(*syntax.Stmt)

			return m.env.Bind(ph.Name, kind, captureBlock([]syntax.Node{s}))
		}

		if c.Kind() != kind {
			return false, nil
		}

		return m.env.Bind(ph.Name, kind, c)
	}

	if p.Kind() != c.Kind() || p.Tag() != c.Tag() {
		return false, nil
	}

	return m.fields(p.Fields(), c.Fields())
}

func (m *matcher) fields(pf, cf []syntax.Field) (bool, error) {
	if len(pf) != len(cf) {
		return false, nil
	}

	for i, f := range pf {
		ok, err := m.field(f, cf[i])
		if err != nil || !ok {
			return false, err
		}
	}

	return true, nil
}

func (m *matcher) field(pf, cf syntax.Field) (bool, error) {
	switch pf.Kind() {
	case syntax.FieldString:
		return pf.String() == cf.String(), nil
	case syntax.FieldBool:
		return pf.Bool() == cf.Bool(), nil
	case syntax.FieldNode:
		return m.node(pf.Node(), cf.Node())
	case syntax.FieldList:
		if pf.ElemKind() == syntax.KindStmt {
			return m.stmtSeq(pf.Nodes(), cf.Nodes())
		}

		if pf.Len() != cf.Len() {
			return false, nil
		}

		for i := range pf.Len() {
			ok, err := m.node(pf.Index(i), cf.Index(i))
			if err != nil || !ok {
				return false, err
			}
		}

		return true, nil
	case syntax.FieldComposites:
		pc, cc := pf.Composites(), cf.Composites()
		if len(pc) != len(cc) {
			return false, nil
		}

		for i := range pc {
			ok, err := m.fields(pc[i].Fields(), cc[i].Fields())
			if err != nil || !ok {
				return false, err
			}
		}

		return true, nil
	}

	return false, nil
}

// stmtSeq matches a whole statement sequence, backtracking over the
// capture length of statement list placeholders.
func (m *matcher) stmtSeq(ps, cs []syntax.Node) (bool, error) {
	if len(ps) == 0 {
		return len(cs) == 0, nil
	}

	name, multi := multiName(ps[0])
	if !multi {
		if len(cs) == 0 {
			return false, nil
		}

		ok, err := m.node(ps[0], cs[0])
		if err != nil || !ok {
			return false, err
		}

		return m.stmtSeq(ps[1:], cs[1:])
	}

	for n := 0; n <= len(cs); n++ {
		saved := m.env.Clone()

		ok, err := m.env.Bind(name, syntax.KindStmtList, captureBlock(cs[:n]))
		if err != nil {
			return false, err
		}

		if ok {
			ok, err = m.stmtSeq(ps[1:], cs[n:])
			if err != nil {
				return false, err
			}

			if ok {
				return true, nil
			}
		}

		m.env = saved
	}

	return false, nil
}

func multiName(n syntax.Node) (string, bool) {
	s, ok := n.(*syntax.Stmt)
	if !ok {
		return "", false
	}

	ph, ok := s.Variant.(*syntax.Placeholder)
	if !ok || !ph.Multi {
		return "", false
	}

	return ph.Name, true
}

// captureBlock wraps captured statements in a fresh statement list.
func captureBlock(stmts []syntax.Node) *syntax.Block {
	block := syntax.NewBlock()

	for _, n := range stmts {
		if s, ok := n.(*syntax.Stmt); ok && s != nil {
			block.Stmts = append(block.Stmts, s)
		}
	}

	if len(block.Stmts) > 0 {
		block.Span = syntax.Span{Lo: block.Stmts[0].Span.Lo, Hi: block.Stmts[len(block.Stmts)-1].Span.Hi}
	}

	return block
}

func toNodes[N syntax.Node](ns []N) []syntax.Node {
	out := make([]syntax.Node, len(ns))
	for i, n := range ns {
		out[i] = n
	}

	return out
}

// Equal reports structural equality, treating placeholders as ordinary nodes.
func Equal(a, b syntax.Node) bool {
	return syntax.Equal(a, b)
}
