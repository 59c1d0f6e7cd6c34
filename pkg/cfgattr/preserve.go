// Package cfgattr keeps conditional attribute directives intact across
// passes that evaluate build configuration.
//
// Evaluating configuration expands every #[cfg_attr(pred, attrs...)] into
// the attributes it selects, which makes the result unsuitable for writing
// back to disk. Collect records the conditional directives of every node by
// identity before such a pass; Restore puts them back afterwards and removes
// the attributes the expansion produced.
package cfgattr

import (
	"io"
	"log/slog"
	"slices"

	"github.com/Sumatoshi-tech/refactor/pkg/syntax"
)

// maxLoggedNodeLen bounds the node text included in debug logs.
const maxLoggedNodeLen = 120

// Config controls collection and restoration.
type Config struct {
	// Names lists the conditional attribute names. Empty means cfg_attr.
	Names []string

	// Logger receives debug diagnostics. When nil, a discard logger is used.
	Logger *slog.Logger
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}

	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (c Config) isConditional(a syntax.Attribute) bool {
	return a.IsConditional(c.Names...)
}

// SideTable maps node identities to the conditional directives they held.
type SideTable struct {
	entries map[syntax.NodeID][]syntax.Attribute
	order   []syntax.NodeID
}

// Len returns the number of recorded nodes.
func (t *SideTable) Len() int { return len(t.order) }

// Get returns the directives saved for id.
func (t *SideTable) Get(id syntax.NodeID) ([]syntax.Attribute, bool) {
	attrs, ok := t.entries[id]

	return attrs, ok
}

// IDs returns the recorded identities in collection order.
func (t *SideTable) IDs() []syntax.NodeID { return slices.Clone(t.order) }

// RestoreReport summarizes a Restore call.
type RestoreReport struct {
	// Restored counts nodes whose directives were put back.
	Restored int
	// Stripped counts attributes removed because they came from expansion.
	Stripped int
	// Dropped counts recorded nodes that no longer exist in the tree.
	Dropped int
}

func carriesAttributes(k syntax.Kind) bool {
	switch k {
	case syntax.KindItem, syntax.KindStmt, syntax.KindExpr,
		syntax.KindTraitMember, syntax.KindImplMember, syntax.KindExternMember:
		return true
	case syntax.KindType, syntax.KindStmtList:
		return false
	}

	return false
}

// Collect records, in pre-order, the conditional directives of every node
// below root (and of root itself when it is a node) that holds any.
func Collect(root syntax.Container, cfg Config) *SideTable {
	table := &SideTable{entries: make(map[syntax.NodeID][]syntax.Attribute)}

	syntax.Inspect(root, func(n syntax.Node) bool {
		if !carriesAttributes(n.Kind()) {
			return true
		}

		var saved []syntax.Attribute

		for _, a := range n.Attributes() {
			if cfg.isConditional(a) {
				saved = append(saved, a)
			}
		}

		if len(saved) > 0 {
			table.entries[n.NodeID()] = saved
			table.order = append(table.order, n.NodeID())
		}

		return true
	})

	cfg.logger().Debug("collected conditional attributes", "nodes", table.Len())

	return table
}

// Restore walks root in pre-order. For every node recorded in table it
// removes the attributes produced by a saved directive and appends
// the saved directives in their original order. Recorded nodes that are no
// longer present are dropped. Restoring the same table twice yields the
// same attributes as restoring it once.
func Restore(root syntax.Container, table *SideTable, cfg Config) RestoreReport {
	var report RestoreReport

	logger := cfg.logger()
	seen := make(map[syntax.NodeID]bool, table.Len())

	syntax.Inspect(root, func(n syntax.Node) bool {
		saved, ok := table.entries[n.NodeID()]
		if !ok || seen[n.NodeID()] {
			return true
		}

		seen[n.NodeID()] = true

		kept, stripped := stripExpanded(n.Attributes(), saved, cfg)
		n.SetAttributes(append(kept, saved...))

		report.Restored++
		report.Stripped += stripped

		logger.Debug("restored conditional attributes",
			"node", n.NodeID().String(),
			"kind", n.Kind().String(),
			"stripped", stripped,
			"text", truncate(syntax.Print(n), maxLoggedNodeLen))

		return true
	})

	report.Dropped = table.Len() - report.Restored

	if report.Dropped > 0 {
		logger.Debug("conditional attributes dropped for removed nodes", "count", report.Dropped)
	}

	return report
}

// Protect runs pass between Collect and Restore. The tree is restored even
// when pass fails; the pass error is returned as is.
func Protect(root syntax.Container, cfg Config, pass func() error) (RestoreReport, error) {
	table := Collect(root, cfg)
	err := pass()

	return Restore(root, table, cfg), err
}

func stripExpanded(current, saved []syntax.Attribute, cfg Config) ([]syntax.Attribute, int) {
	kept := make([]syntax.Attribute, 0, len(current))

	for _, a := range current {
		if insideAny(a, saved, cfg) {
			continue
		}

		kept = append(kept, a)
	}

	return kept, len(current) - len(kept)
}

// insideAny reports whether a came from one of the saved directives. A
// directive with a source span owns the attributes inside it. A synthesized
// directive has no span to compare, so it owns the synthesized attributes
// that equal it or one of the attributes it expands to.
func insideAny(a syntax.Attribute, saved []syntax.Attribute, cfg Config) bool {
	for _, s := range saved {
		if s.Span.IsDummy() {
			if a.Span.IsDummy() && expandsTo(s, a, cfg) {
				return true
			}

			continue
		}

		if s.Span.Contains(a.Span) {
			return true
		}
	}

	return false
}

func expandsTo(directive, a syntax.Attribute, cfg Config) bool {
	if sameText(directive, a) {
		return true
	}

	inner, ok := unwrapParens(directive.Args)
	if !ok {
		return false
	}

	parts := splitTopLevel(inner)
	if len(parts) < 2 {
		return false
	}

	for _, part := range parts[1:] {
		if part.text == "" {
			continue
		}

		d := residue(part, syntax.Span{}, 0)

		if cfg.isConditional(d) {
			if expandsTo(d, a, cfg) {
				return true
			}

			continue
		}

		if sameText(d, a) {
			return true
		}
	}

	return false
}

func sameText(a, b syntax.Attribute) bool {
	return a.Name == b.Name && a.Args == b.Args
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	return s[:limit] + "..."
}
