package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bher20/solarvalue/internal/config"
	"github.com/bher20/solarvalue/internal/logging"
	"github.com/bher20/solarvalue/internal/pipeline"
	"github.com/bher20/solarvalue/internal/storage"
	"github.com/bher20/solarvalue/internal/valuation"
)

// app carries settings shared by every command. Flags write straight into
// cfg, so a flag given on the command line overrides its env variable.
type app struct {
	cfg config.Config
	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.FromEnv()}

	root := &cobra.Command{
		Use:           "solarvalue",
		Short:         "Value distributed solar generation under retail and wholesale rates",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := logging.New(a.cfg.LogLevel, a.cfg.LogFormat)
			if err != nil {
				return err
			}
			a.log = log
			return nil
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level (debug, info, warn, error)")
	f.StringVar(&a.cfg.LogFormat, "log-format", a.cfg.LogFormat, "log format (text or json)")
	f.StringVar(&a.cfg.ConfigurationsPath, "configurations", a.cfg.ConfigurationsPath, "YAML file of valuation configurations (defaults to PGE, SCE, SDGE)")
	f.StringVar(&a.cfg.DBDriver, "db-driver", a.cfg.DBDriver, "run history storage (memory, sqlite, postgres, none)")
	f.StringVar(&a.cfg.DBDSN, "db-dsn", a.cfg.DBDSN, "run history database DSN")

	root.AddCommand(
		newRunCmd(a),
		newScheduleCmd(a),
		newRunsCmd(a),
		newConfigsCmd(a),
		newMigrateCmd(a),
	)
	return root
}

// addInputFlags binds the per-run input and output flags.
func (a *app) addInputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&a.cfg.SitesPath, "sites", a.cfg.SitesPath, "interconnected project sites CSV")
	f.StringVar(&a.cfg.GenerationPath, "generation", a.cfg.GenerationPath, "normalized generation profiles CSV")
	f.StringVar(&a.cfg.TOUPath, "tou", a.cfg.TOUPath, "hourly TOU rates CSV")
	f.StringVar(&a.cfg.LMPPath, "lmp", a.cfg.LMPPath, "hourly LMP CSV")
	f.StringVar(&a.cfg.OutputDir, "output-dir", a.cfg.OutputDir, "directory for Normalized_Outputs.csv and Valuations.csv")
	f.StringVar(&a.cfg.ReportXLSX, "xlsx", a.cfg.ReportXLSX, "also write an XLSX workbook to this path")
	f.StringVar(&a.cfg.ReportPDF, "pdf", a.cfg.ReportPDF, "also write a PDF summary to this path")
	f.StringVar(&a.cfg.MetricsFile, "metrics-file", a.cfg.MetricsFile, "write Prometheus metrics to this textfile after each run")
}

// runOptions resolves the configurations and builds pipeline options.
func (a *app) runOptions() (pipeline.Options, error) {
	configs, err := valuation.LoadConfigurations(a.cfg.ConfigurationsPath)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Inputs: valuation.InputPaths{
			Sites:      a.cfg.SitesPath,
			Generation: a.cfg.GenerationPath,
			TOU:        a.cfg.TOUPath,
			LMP:        a.cfg.LMPPath,
		},
		Configurations: configs,
		OutputDir:      a.cfg.OutputDir,
		ReportXLSX:     a.cfg.ReportXLSX,
		ReportPDF:      a.cfg.ReportPDF,
		MetricsFile:    a.cfg.MetricsFile,
	}, nil
}

// openStorage returns nil when run history is disabled.
func (a *app) openStorage(ctx context.Context) (storage.Storage, error) {
	sc := storage.Config{Driver: a.cfg.DBDriver, DSN: a.cfg.DBDSN}
	if !sc.Enabled() {
		return nil, nil
	}
	st, err := storage.Open(ctx, sc, a.log)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return st, nil
}
