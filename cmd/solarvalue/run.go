package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bher20/solarvalue/internal/pipeline"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the valuation once and write the output tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, err := a.runOptions()
			if err != nil {
				return err
			}
			st, err := a.openStorage(ctx)
			if err != nil {
				return err
			}
			if st != nil {
				defer st.Close()
			}

			res, err := pipeline.NewService(a.log, st).Run(ctx, opts)
			if err != nil {
				return err
			}
			for _, p := range res.Outputs {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	a.addInputFlags(cmd)
	return cmd
}
