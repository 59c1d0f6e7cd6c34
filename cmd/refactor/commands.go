package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/refactor/pkg/refactor"
)

func newCommandsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "commands",
		Short:       "List the builtin commands available to refactor:run_command",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationSkipSetup: "true"},
		Run: func(cmd *cobra.Command, _ []string) {
			tbl := table.NewWriter()
			tbl.SetOutputMirror(cmd.OutOrStdout())
			tbl.SetStyle(table.StyleLight)
			tbl.AppendHeader(table.Row{"Command", "Usage", "Args", "Description"})

			for _, d := range refactor.DefaultRegistry().All() {
				tbl.AppendRow(table.Row{d.Name, d.Usage, argRange(d), d.Description})
			}

			tbl.Render()

			a.logger.Debug("commands listed")
		},
	}
}

func argRange(d refactor.Descriptor) string {
	switch {
	case d.MaxArgs == refactor.Unbounded:
		return fmt.Sprintf("%d+", d.MinArgs)
	case d.MinArgs == d.MaxArgs:
		return fmt.Sprint(d.MinArgs)
	default:
		return fmt.Sprintf("%d-%d", d.MinArgs, d.MaxArgs)
	}
}
