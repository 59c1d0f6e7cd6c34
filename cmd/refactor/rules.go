package main

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/refactor/pkg/rules"
)

// rulesMinArgs is RULES PATH.
const rulesMinArgs = 2

func newRulesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rules RULES PATH...",
		Short: "Apply a YAML rule file",
		Long: `Apply the rules of a YAML file in order to every Rust file below PATH.

The file holds a list of rules, each with a name, a kind (expr, ty, stmts or
item), a pattern and a replacement:

  rules:
    - name: shift-double
      kind: expr
      pattern: "$a * 2"
      replacement: "$a << 1"`,
		Args: cobra.MinimumNArgs(rulesMinArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := rules.Load(args[0])
			if err != nil {
				return err
			}

			a.logger.DebugContext(cmd.Context(), "rules loaded", "rules", len(set.Rules), "source", args[0])

			return a.processFiles(cmd.Context(), args[1:], "rules", applyRules(set))
		},
	}
}
