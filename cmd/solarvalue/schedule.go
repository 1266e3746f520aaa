package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bher20/solarvalue/internal/alerting"
	"github.com/bher20/solarvalue/internal/cron"
	"github.com/bher20/solarvalue/internal/pipeline"
)

func newScheduleCmd(a *app) *cobra.Command {
	var runNow bool
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the valuation on a cron schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cron.ValidateSchedule(a.cfg.Schedule); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := a.openStorage(ctx)
			if err != nil {
				return err
			}
			if st != nil {
				defer st.Close()
			}

			alertCfg := alerting.NewAlertConfig(a.cfg.AlertWebhookURL, a.cfg.AlertWebhookType)
			alertCfg.MinFailuresBeforeAlert = a.cfg.AlertMinFailures
			w := cron.NewWorker(a.log, pipeline.NewService(a.log, st), a.runOptions, st,
				alerting.NewAlerter(alertCfg, a.log))

			if runNow {
				// A failed first run is alerted and logged; the schedule keeps going.
				_ = w.RunOnce(ctx)
			}
			err = w.Start(ctx, a.cfg.Schedule)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	a.addInputFlags(cmd)
	cmd.Flags().StringVar(&a.cfg.Schedule, "cron", a.cfg.Schedule, "standard cron spec or descriptor such as @daily")
	cmd.Flags().BoolVar(&runNow, "run-now", false, "run once immediately before waiting for the schedule")
	return cmd
}
