package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/refactor/pkg/syntax"
)

func newParseCommand(a *app) *cobra.Command {
	var compact bool

	cmd := &cobra.Command{
		Use:   "parse PATH...",
		Short: "Dump the syntax tree of Rust files as JSON",
		Long: `Parse Rust files and print their syntax trees as JSON, one document per
file. The field names are the ones Lua scripts see in to_table().`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := discover(args)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(a.stdout)
			if !compact {
				enc.SetIndent("", "  ")
			}

			for _, path := range files {
				src, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}

				file, err := a.parser.ParseFile(cmd.Context(), src)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}

				doc := syntax.FileToMap(file)
				doc["path"] = path

				if err := enc.Encode(doc); err != nil {
					return fmt.Errorf("encode %s: %w", path, err)
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&compact, "compact", false, "one line per file")

	return cmd
}
