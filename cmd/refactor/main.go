// Package main provides the entry point for the refactor CLI tool.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/refactor/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)

	rootCmd := newRootCommand(a)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := errors.Join(rootCmd.Execute(), a.close())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)

		return 1
	}

	return 0
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "refactor",
		Short: "Structural rewriting for Rust source",
		Long: `refactor matches Rust code against patterns with $name placeholders and
rewrites every match, from the command line, YAML rule files or Lua scripts.

Commands:
  rewrite   Rewrite expressions, types, statements or items
  rules     Apply a YAML rule file
  script    Run a Lua transformation script
  cfg       Evaluate cfg and cfg_attr under a build configuration
  parse     Dump the syntax tree as JSON
  commands  List the builtin commands available to scripts`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	a.flags.register(rootCmd)

	rootCmd.AddCommand(
		newRewriteCommand(a),
		newRulesCommand(a),
		newScriptCommand(a),
		newCfgCommand(a),
		newParseCommand(a),
		newCommandsCommand(a),
		versionCmd(),
	)

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show version information",
		Annotations: map[string]string{annotationSkipSetup: "true"},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
