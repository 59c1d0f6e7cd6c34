package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/refactor/pkg/refactor"
	"github.com/Sumatoshi-tech/refactor/pkg/rules"
)

// rewriteMinArgs is KIND PATTERN REPLACEMENT PATH.
const rewriteMinArgs = 4

// cliRuleName names the rule built from rewrite arguments.
const cliRuleName = "command-line"

func newRewriteCommand(a *app) *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "rewrite KIND PATTERN REPLACEMENT PATH...",
		Short: "Rewrite every node matching a pattern",
		Long: `Rewrite every node of KIND (expr, ty, stmts or item) matching PATTERN.
Placeholders written $name capture a subtree; $name:kind forces the kind
and a multi-statement placeholder is written $name:stmts.

Examples:
  refactor rewrite expr '$a * 2' '$a << 1' src/
  refactor rewrite stmts '$x = 1;' '$x = 0;' -o diff src/lib.rs
  refactor rewrite ty 'Vec<$t>' 'Box<[$t]>' --label hot src/`,
		Args: cobra.MinimumNArgs(rewriteMinArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			set := &rules.Set{Rules: []rules.Rule{{
				Name:        cliRuleName,
				Kind:        args[0],
				Pattern:     args[1],
				Replacement: args[2],
				Label:       label,
			}}}

			if err := set.Validate(); err != nil {
				return err
			}

			return a.processFiles(cmd.Context(), args[3:], "rewrite", applyRules(set))
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "only rewrite nodes carrying this mark")

	return cmd
}

func applyRules(set *rules.Set) fileFunc {
	return func(ctx context.Context, st *refactor.State, _ io.Writer) (int, error) {
		results, err := set.Apply(ctx, st)

		total := 0
		for _, r := range results {
			total += r.Rewrites
		}

		return total, err
	}
}
