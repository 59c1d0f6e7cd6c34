package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/refactor/pkg/refactor"
	"github.com/Sumatoshi-tech/refactor/pkg/scripting"
)

const (
	scriptCommandName = "script"
	// scriptMinArgs is SCRIPT PATH.
	scriptMinArgs = 2
)

func newScriptCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   scriptCommandName + " SCRIPT PATH...",
		Short: "Run a Lua transformation script",
		Long: `Run a Lua script against every Rust file below PATH. Each file gets its
own Lua state. The script drives the session through the refactor global:

  refactor:transform(function(tcx)
      tcx:replace_expr_with("$a * 2", function(expr, mcx)
          return mcx:subst(mcx:parse_expr("$a << 1"))
      end)
  end)

Modules next to the script, and in the directories listed under
script.paths in the config file, can be loaded with require.`,
		Args: cobra.MinimumNArgs(scriptMinArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.processFiles(cmd.Context(), args[1:], scriptCommandName, a.runScript(args[0]))
		},
	}
}

func (a *app) runScript(path string) fileFunc {
	return func(ctx context.Context, st *refactor.State, out io.Writer) (int, error) {
		host := scripting.NewHost(st, scripting.Config{
			PackagePaths: a.cfg.Script.Paths,
			Stdout:       out,
		})
		defer host.Close()

		return host.RunFile(ctx, path)
	}
}
