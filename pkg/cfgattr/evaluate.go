package cfgattr

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"github.com/Sumatoshi-tech/refactor/pkg/syntax"
)

// CfgAttr is the name of the plain configuration attribute.
const CfgAttr = "cfg"

// EvalReport summarizes an Evaluate call.
type EvalReport struct {
	// Expanded counts conditional directives replaced by their selection.
	Expanded int
	// Removed counts declarations and statements configured out.
	Removed int
}

// Evaluate applies bc to the tree below root. Every conditional directive
// is replaced by the attributes it selects when its predicate holds and is
// removed otherwise. Items, statements and members carrying a #[cfg(pred)]
// whose predicate fails are removed from their lists. Directives produced
// by expansion get spans inside the directive they came from when the
// directive's arguments carry a source span.
func Evaluate(root syntax.Container, bc BuildConfig, cfg Config) (EvalReport, error) {
	e := &evaluator{bc: bc, cfg: cfg}

	if n, ok := root.(syntax.Node); ok {
		e.expand(n)
	}

	e.prune(root)

	syntax.Walk(root, func(ref syntax.Ref) bool {
		if e.err != nil {
			return false
		}

		n := ref.Get()
		if syntax.IsNil(n) {
			return true
		}

		e.expand(n)
		e.prune(n)

		return e.err == nil
	})

	if e.err != nil {
		return e.report, e.err
	}

	cfg.logger().Debug("evaluated build configuration",
		"expanded", e.report.Expanded, "removed", e.report.Removed)

	return e.report, nil
}

type evaluator struct {
	bc     BuildConfig
	cfg    Config
	report EvalReport
	err    error
}

func (e *evaluator) expand(n syntax.Node) {
	if e.err != nil || !carriesAttributes(n.Kind()) {
		return
	}

	attrs := n.Attributes()
	if !hasConditional(attrs, e.cfg) {
		return
	}

	out, err := e.expandAll(attrs)
	if err != nil {
		e.err = fmt.Errorf("node %s: %w", n.NodeID(), err)

		return
	}

	n.SetAttributes(out)
}

func hasConditional(attrs []syntax.Attribute, cfg Config) bool {
	for _, a := range attrs {
		if cfg.isConditional(a) {
			return true
		}
	}

	return false
}

func (e *evaluator) expandAll(attrs []syntax.Attribute) ([]syntax.Attribute, error) {
	out := make([]syntax.Attribute, 0, len(attrs))

	for _, a := range attrs {
		if !e.cfg.isConditional(a) {
			out = append(out, a)

			continue
		}

		selected, err := e.expandOne(a)
		if err != nil {
			return nil, err
		}

		e.report.Expanded++

		nested, err := e.expandAll(selected)
		if err != nil {
			return nil, err
		}

		out = append(out, nested...)
	}

	return out, nil
}

func (e *evaluator) expandOne(a syntax.Attribute) ([]syntax.Attribute, error) {
	inner, ok := unwrapParens(a.Args)
	if !ok {
		return nil, fmt.Errorf("%w: %s expects (predicate, attrs...)", ErrPredicate, a.Name)
	}

	parts := splitTopLevel(inner)
	if len(parts) == 0 || strings.TrimSpace(parts[0].text) == "" {
		return nil, fmt.Errorf("%w: %s without predicate", ErrPredicate, a.Name)
	}

	holds, err := e.bc.Eval(parts[0].text)
	if err != nil {
		return nil, err
	}

	if !holds {
		return nil, nil
	}

	out := make([]syntax.Attribute, 0, len(parts)-1)

	for _, part := range parts[1:] {
		if part.text == "" {
			continue
		}

		// +1 skips the opening parenthesis of Args.
		out = append(out, residue(part, a.ArgsSpan, 1))
	}

	return out, nil
}

// residue builds the attribute written as part inside args starting at
// argsSpan, offset by lead bytes.
func residue(part segment, argsSpan syntax.Span, lead int) syntax.Attribute {
	nameLen := 0
	for nameLen < len(part.text) && isPathByte(part.text[nameLen]) {
		nameLen++
	}

	attr := syntax.Attribute{Name: part.text[:nameLen], Args: part.text[nameLen:]}

	if argsSpan.IsDummy() {
		return attr
	}

	lo, err := safecast.Conv[uint32](part.offset + lead)
	if err != nil {
		return attr
	}

	size, err := safecast.Conv[uint32](len(part.text))
	if err != nil {
		return attr
	}

	head, err := safecast.Conv[uint32](nameLen)
	if err != nil {
		return attr
	}

	start := argsSpan.Lo + lo
	attr.Span = syntax.Span{Lo: start, Hi: start + size}
	attr.ArgsSpan = syntax.Span{Lo: start + head, Hi: start + size}

	return attr
}

func isPathByte(b byte) bool {
	return b == '_' || b == ':' ||
		('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}

func unwrapParens(args string) (string, bool) {
	if len(args) < 2 || args[0] != '(' || args[len(args)-1] != ')' {
		return "", false
	}

	return args[1 : len(args)-1], true
}

type segment struct {
	text   string
	offset int
}

// splitTopLevel splits s on commas outside brackets and string literals.
// Segments are trimmed; offsets point at the first non-space byte.
func splitTopLevel(s string) []segment {
	var (
		out      []segment
		depth    int
		inString bool
		start    int
	)

	flush := func(end int) {
		raw := s[start:end]
		trimmed := strings.TrimSpace(raw)
		lead := len(raw) - len(strings.TrimLeft(raw, " \t\r\n"))
		out = append(out, segment{text: trimmed, offset: start + lead})
	}

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == ',' && depth == 0:
			flush(i)
			start = i + 1
		}
	}

	if strings.TrimSpace(s[start:]) != "" || len(out) == 0 {
		flush(len(s))
	}

	return out
}

// prune removes configured-out elements from c's list fields.
func (e *evaluator) prune(c syntax.Container) {
	if e.err != nil {
		return
	}

	for _, f := range c.Fields() {
		if f.Kind() != syntax.FieldList || !carriesAttributes(f.ElemKind()) {
			continue
		}

		elems := f.Nodes()
		kept := make([]syntax.Node, 0, len(elems))

		for _, n := range elems {
			e.expand(n)

			enabled, err := e.enabled(n)
			if err != nil {
				e.err = err

				return
			}

			if enabled {
				kept = append(kept, n)

				continue
			}

			e.report.Removed++

			e.cfg.logger().Debug("configured out", "node", n.NodeID().String(), "kind", n.Kind().String())
		}

		if len(kept) == len(elems) {
			continue
		}

		err := f.SetNodes(kept)
		if err != nil {
			e.err = fmt.Errorf("prune %s: %w", f.Name, err)

			return
		}
	}
}

func (e *evaluator) enabled(n syntax.Node) (bool, error) {
	for _, a := range n.Attributes() {
		if a.Name != CfgAttr {
			continue
		}

		pred, ok := unwrapParens(a.Args)
		if !ok {
			return false, fmt.Errorf("%w: cfg expects (predicate)", ErrPredicate)
		}

		holds, err := e.bc.Eval(pred)
		if err != nil {
			return false, err
		}

		if !holds {
			return false, nil
		}
	}

	return true, nil
}
