package refactor

import (
	"maps"
	"strings"

	"github.com/Sumatoshi-tech/refactor/pkg/syntax"
)

// Fact keys produced by InferFacts.
const (
	FactTag     = "tag"
	FactLitKind = "lit_kind"
	FactType    = "type"
)

// Resolver answers semantic queries about nodes. Results are opaque to the
// engine and handed to scripts as string maps.
type Resolver interface {
	Facts(id syntax.NodeID) (map[string]string, bool)
}

// MapResolver is a Resolver backed by a map.
type MapResolver map[syntax.NodeID]map[string]string

// Facts returns a copy of the facts recorded for id.
func (m MapResolver) Facts(id syntax.NodeID) (map[string]string, bool) {
	f, ok := m[id]
	if !ok {
		return nil, false
	}

	return maps.Clone(f), true
}

// InferFacts derives syntactic facts for every expression in file. Types
// come from casts, literal suffixes, and from typed parameters and let
// bindings visible by name inside the same function. Shadowing across
// nested scopes is not tracked.
func InferFacts(file *syntax.File) MapResolver {
	out := make(MapResolver)

	syntax.Inspect(file, func(n syntax.Node) bool {
		it, ok := n.(*syntax.Item)
		if !ok {
			return true
		}

		fn, ok := it.Variant.(*syntax.FnItem)
		if !ok || fn.Body == nil {
			return true
		}

		inferFn(fn, out)

		return true
	})

	// Expressions outside functions still get tag facts.
	syntax.Inspect(file, func(n syntax.Node) bool {
		if e, ok := n.(*syntax.Expr); ok {
			if _, seen := out[e.ID]; !seen {
				out[e.ID] = exprFacts(e, nil)
			}
		}

		return true
	})

	return out
}

func inferFn(fn *syntax.FnItem, out MapResolver) {
	scope := make(map[string]string)

	for _, p := range fn.Params {
		if p.Ty != nil {
			scope[bindingName(p.Pat)] = syntax.Print(p.Ty)
		}
	}

	syntax.Inspect(fn.Body, func(n syntax.Node) bool {
		switch node := n.(type) {
		case *syntax.Stmt:
			let, ok := node.Variant.(*syntax.LetStmt)
			if !ok || let.Ty == nil {
				return true
			}

			// The initializer cannot see the binding it initializes.
			if let.Init != nil {
				syntax.Inspect(let.Init, func(c syntax.Node) bool {
					if e, ok := c.(*syntax.Expr); ok {
						out[e.ID] = exprFacts(e, scope)
					}

					return true
				})
			}

			scope[bindingName(let.Pat)] = syntax.Print(let.Ty)

			return false
		case *syntax.Expr:
			out[node.ID] = exprFacts(node, scope)
		}

		return true
	})
}

// bindingName strips ref/mut from a simple identifier pattern.
func bindingName(pat string) string {
	fields := strings.Fields(pat)
	if len(fields) == 0 {
		return pat
	}

	return fields[len(fields)-1]
}

//nolint:gochecknoglobals // immutable lookup table.
var literalSuffixes = []string{
	"u8", "u16", "u32", "u64", "u128", "usize",
	"i8", "i16", "i32", "i64", "i128", "isize",
	"f32", "f64",
}

func exprFacts(e *syntax.Expr, scope map[string]string) map[string]string {
	facts := map[string]string{FactTag: e.Tag()}

	switch v := e.Variant.(type) {
	case *syntax.LitExpr:
		facts[FactLitKind] = v.LitKind

		for _, suffix := range literalSuffixes {
			if strings.HasSuffix(v.Value, suffix) && v.LitKind != "str" && v.LitKind != "char" {
				facts[FactType] = suffix

				break
			}
		}

		if _, ok := facts[FactType]; !ok {
			switch v.LitKind {
			case "bool":
				facts[FactType] = "bool"
			case "str":
				facts[FactType] = "&str"
			case "char":
				facts[FactType] = "char"
			}
		}
	case *syntax.CastExpr:
		if v.Ty != nil {
			facts[FactType] = syntax.Print(v.Ty)
		}
	case *syntax.PathExpr:
		if ty, ok := scope[v.Path]; ok {
			facts[FactType] = ty
		}
	}

	return facts
}
