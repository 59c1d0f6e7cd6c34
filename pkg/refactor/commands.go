package refactor

import (
	"context"
	"fmt"

	"github.com/Sumatoshi-tech/refactor/pkg/cfgattr"
	"github.com/Sumatoshi-tech/refactor/pkg/matcher"
	"github.com/Sumatoshi-tech/refactor/pkg/syntax"
)

// DefaultRegistry returns a registry holding the builtin commands.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	for _, b := range builtins() {
		_ = r.Register(b.Descriptor, b.fn) //nolint:errcheck // builtin names are unique.
	}

	return r
}

func builtins() []Command {
	return []Command{
		{
			Descriptor: Descriptor{
				Name: "rewrite_expr", Usage: "PATTERN REPLACEMENT [LABEL]", MinArgs: 2, MaxArgs: 3,
				Description: "Replace every expression matching PATTERN, optionally only nodes marked LABEL",
			},
			fn: rewriteCommand((*State).parseExpr),
		},
		{
			Descriptor: Descriptor{
				Name: "rewrite_ty", Usage: "PATTERN REPLACEMENT [LABEL]", MinArgs: 2, MaxArgs: 3,
				Description: "Replace every type matching PATTERN",
			},
			fn: rewriteCommand((*State).parseType),
		},
		{
			Descriptor: Descriptor{
				Name: "rewrite_stmts", Usage: "PATTERN REPLACEMENT", MinArgs: 2, MaxArgs: 2,
				Description: "Replace every statement run matching PATTERN",
			},
			fn: rewriteCommand((*State).parseStmts),
		},
		{
			Descriptor: Descriptor{
				Name: "rewrite_item", Usage: "PATTERN REPLACEMENT [LABEL]", MinArgs: 2, MaxArgs: 3,
				Description: "Replace every item matching PATTERN",
			},
			fn: rewriteCommand((*State).parseItem),
		},
		{
			Descriptor: Descriptor{
				Name: "mark_exprs", Usage: "PATTERN LABEL", MinArgs: 2, MaxArgs: 2,
				Description: "Mark every expression matching PATTERN with LABEL",
			},
			fn: markCommand((*State).parseExpr),
		},
		{
			Descriptor: Descriptor{
				Name: "mark_items", Usage: "PATTERN LABEL", MinArgs: 2, MaxArgs: 2,
				Description: "Mark every item matching PATTERN with LABEL",
			},
			fn: markCommand((*State).parseItem),
		},
		{
			Descriptor: Descriptor{
				Name: "clear_marks", Usage: "[LABEL...]", MinArgs: 0, MaxArgs: Unbounded,
				Description: "Remove marks with the given labels, or all marks",
			},
			fn: clearMarks,
		},
		{
			Descriptor: Descriptor{
				Name: "eval_cfg", Usage: "[NAME | NAME=VALUE...]", MinArgs: 0, MaxArgs: Unbounded,
				Description: "Evaluate cfg and cfg_attr under a build configuration, keeping conditional attributes",
			},
			fn: evalCfg,
		},
	}
}

func (s *State) parseExpr(src string) (*syntax.Expr, error) { return s.cfg.Parser.ParseExpr(src) }

func (s *State) parseType(src string) (*syntax.Type, error) { return s.cfg.Parser.ParseType(src) }

func (s *State) parseStmts(src string) (*syntax.Block, error) { return s.cfg.Parser.ParseStmts(src) }

func (s *State) parseItem(src string) (*syntax.Item, error) { return s.cfg.Parser.ParseItem(src) }

func parsePair[N syntax.Node](st *State, parse func(*State, string) (N, error), pat, repl string) (N, N, error) {
	var zero N

	p, err := parse(st, pat)
	if err != nil {
		return zero, zero, fmt.Errorf("pattern: %w", err)
	}

	r, err := parse(st, repl)
	if err != nil {
		return zero, zero, fmt.Errorf("replacement: %w", err)
	}

	return p, r, nil
}

func rewriteCommand[N syntax.Node](parse func(*State, string) (N, error)) CommandFunc {
	return func(_ context.Context, st *State, args []string) (int, error) {
		pattern, repl, err := parsePair(st, parse, args[0], args[1])
		if err != nil {
			return 0, err
		}

		label := ""
		if len(args) > 2 { //nolint:mnd // optional third argument.
			label = args[2]
		}

		return Rewrite(st, pattern, repl, label)
	}
}

// Rewrite replaces every match of pattern in the session tree with repl
// instantiated from the match bindings. A non-empty label restricts the
// rewrite to matched nodes carrying that mark; statement runs are never
// marked, so label is ignored for them.
func Rewrite[N syntax.Node](st *State, pattern, repl N, label string) (int, error) {
	_, window := any(pattern).(*syntax.Block)

	return matcher.FoldWith(pattern, st.file, func(m N, env *matcher.Bindings) (N, error) {
		if label != "" && !window && !st.marks.Has(m.NodeID(), label) {
			var keep N

			return keep, nil
		}

		return matcher.Substitute(repl, env)
	})
}

func markCommand[N syntax.Node](parse func(*State, string) (N, error)) CommandFunc {
	return func(ctx context.Context, st *State, args []string) (int, error) {
		pattern, err := parse(st, args[0])
		if err != nil {
			return 0, fmt.Errorf("pattern: %w", err)
		}

		n, err := MarkAll(st, pattern, args[1])
		if err != nil {
			return 0, err
		}

		st.Logger().InfoContext(ctx, "nodes marked", "label", args[1], "marks", n)

		return 0, nil
	}
}

// MarkAll labels every node under the session tree that pattern matches,
// including matches nested inside other matches. It returns the number of
// new marks.
func MarkAll[N syntax.Node](st *State, pattern N, label string) (int, error) {
	var (
		added int
		err   error
	)

	syntax.Inspect(st.file, func(n syntax.Node) bool {
		if err != nil {
			return false
		}

		cand, ok := n.(N)
		if !ok {
			return true
		}

		var hit bool

		hit, err = matcher.Match(pattern, cand, matcher.NewBindings())
		if hit && st.marks.Add(cand.NodeID(), label) {
			added++
		}

		return err == nil
	})

	return added, err
}

func clearMarks(ctx context.Context, st *State, args []string) (int, error) {
	n := st.marks.Clear(args...)
	st.Logger().InfoContext(ctx, "marks cleared", "marks", n)

	return 0, nil
}

func evalCfg(ctx context.Context, st *State, args []string) (int, error) {
	var eval cfgattr.EvalReport

	restore, err := st.Protect(func() error {
		var evalErr error

		eval, evalErr = cfgattr.Evaluate(st.file, cfgattr.NewBuildConfig(args...), st.cfg.CfgAttr)

		return evalErr
	})
	if err != nil {
		return 0, err
	}

	st.Logger().InfoContext(ctx, "configuration evaluated",
		"expanded", eval.Expanded, "removed", eval.Removed,
		"restored", restore.Restored, "dropped", restore.Dropped)

	return eval.Removed, nil
}
