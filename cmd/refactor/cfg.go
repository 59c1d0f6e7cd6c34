package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/refactor/pkg/cfgattr"
	"github.com/Sumatoshi-tech/refactor/pkg/refactor"
)

const evalCfgCommand = "eval_cfg"

func newCfgCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cfg",
		Short: "Evaluate cfg and cfg_attr under a build configuration",
		Long: `Evaluate #[cfg(...)] and #[cfg_attr(...)] under the build options from
the config file (cfg.flags, cfg.values) and --cfg flags.

Examples:
  refactor cfg eval --cfg unix --cfg 'target_os="linux"' src/
  refactor cfg roundtrip --cfg test -o diff src/lib.rs`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "eval PATH...",
			Short: "Expand cfg_attr and drop configured-out code",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.processFiles(cmd.Context(), args, "cfg_eval", a.evalCfg)
			},
		},
		&cobra.Command{
			Use:   "roundtrip PATH...",
			Short: "Drop configured-out code but keep conditional attributes as written",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.processFiles(cmd.Context(), args, evalCfgCommand, a.roundtripCfg)
			},
		},
	)

	return cmd
}

func (a *app) evalCfg(ctx context.Context, st *refactor.State, _ io.Writer) (int, error) {
	return st.Transform(ctx, "cfg_eval", func(ctx context.Context) (int, error) {
		report, err := cfgattr.Evaluate(st.File(), a.cfg.BuildConfig(a.flags.cfg...), st.CfgAttr())
		if err != nil {
			return 0, err
		}

		st.Logger().InfoContext(ctx, "configuration evaluated", "expanded", report.Expanded, "removed", report.Removed)

		return report.Expanded + report.Removed, nil
	})
}

func (a *app) roundtripCfg(ctx context.Context, st *refactor.State, _ io.Writer) (int, error) {
	return st.Run(ctx, evalCfgCommand, a.cfg.CfgSpecs(a.flags.cfg...))
}
