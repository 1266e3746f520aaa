package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bher20/solarvalue/internal/storage"
	"github.com/bher20/solarvalue/internal/valuation"
)

func newRunsCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List recorded runs, or show one run's annual scalars",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStorage(ctx)
			if err != nil {
				return err
			}
			if st == nil {
				return errors.New("run history is disabled (set --db-driver or SOLARVALUE_DB_DRIVER)")
			}
			defer st.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer tw.Flush()

			if len(args) == 1 {
				run, err := st.GetRun(ctx, args[0])
				if errors.Is(err, storage.ErrRunNotFound) {
					return fmt.Errorf("run %s not found", args[0])
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(tw, "UTILITY\tHOURS\tDROPPED\tFLAT\tTOU\tLMP")
				for _, s := range run.Scalars {
					fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\n", s.Utility, s.Hours, s.DroppedHours,
						valuation.FormatFloat(s.FlatRate), valuation.FormatFloat(s.TOURate), valuation.FormatFloat(s.LMP))
				}
				return nil
			}

			runs, err := st.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(tw, "ID\tSTARTED\tDURATION\tSITES\tDROPPED HOURS\tUNHANDLED TARIFFS")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n", r.ID, r.StartedAt.Format(time.RFC3339),
					r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond), r.SiteCount, r.DroppedHours, r.UnhandledTariffs)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	return cmd
}

func newConfigsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "configs",
		Short: "Show the valuation configurations a run would use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := valuation.LoadConfigurations(a.cfg.ConfigurationsPath)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer tw.Flush()
			fmt.Fprintln(tw, "UTILITY\tFLAT RATE\tTOU RATE\tLMP NODE\tGENERATION PROFILE")
			for _, c := range set.All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.Utility, valuation.FormatFloat(c.FlatRate), c.TOURate, c.LMPNode, c.GenerationProfile)
			}
			return nil
		},
	}
}
