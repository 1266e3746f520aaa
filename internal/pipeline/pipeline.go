// Package pipeline runs one valuation end to end: load, join, aggregate,
// write outputs and record the run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bher20/solarvalue/internal/metrics"
	"github.com/bher20/solarvalue/internal/report"
	"github.com/bher20/solarvalue/internal/storage"
	"github.com/bher20/solarvalue/internal/valuation"
)

// Output file names written to Options.OutputDir.
const (
	HourlyFile     = "Normalized_Outputs.csv"
	ValuationsFile = "Valuations.csv"
)

// Options describes one run.
type Options struct {
	Inputs         valuation.InputPaths
	Configurations valuation.ConfigurationSet
	OutputDir      string
	// ReportXLSX and ReportPDF are optional report destinations.
	ReportXLSX string
	ReportPDF  string
	// MetricsFile, when set, receives the metric textfile after the run.
	MetricsFile string
}

// Result is a completed run.
type Result struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Table      *valuation.HourlyTable
	Valuation  *valuation.Valuation
	// Outputs lists the files written, in write order.
	Outputs []string
}

// Service executes pipeline runs. Store may be nil to skip run history.
type Service struct {
	log   logrus.FieldLogger
	store storage.Storage
	now   func() time.Time
	newID func() string
}

// NewService creates a Service. store may be nil.
func NewService(log logrus.FieldLogger, store storage.Storage) *Service {
	return &Service{
		log:   log,
		store: store,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// Run executes the pipeline. Either every output file is written or none
// is: outputs are staged and renamed into place only after all of them have
// been produced.
func (s *Service) Run(ctx context.Context, opts Options) (*Result, error) {
	started := s.now()
	res, err := s.run(ctx, opts, started)
	if err != nil {
		metrics.RunFailed(started)
		s.writeMetrics(opts.MetricsFile)
		return nil, err
	}
	s.writeMetrics(opts.MetricsFile)
	return res, nil
}

func (s *Service) run(ctx context.Context, opts Options, started time.Time) (*Result, error) {
	if opts.Configurations.Len() == 0 {
		return nil, fmt.Errorf("pipeline: no configurations")
	}
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("pipeline: output directory is required")
	}
	runID := s.newID()
	log := s.log.WithField("run_id", runID)
	log.WithField("configurations", opts.Configurations.Utilities()).Info("pipeline: run started")

	in, err := valuation.NewLoader(log).Load(opts.Inputs, opts.Configurations)
	if err != nil {
		return nil, err
	}
	table, err := valuation.NewJoiner(log).Join(opts.Configurations, in)
	if err != nil {
		return nil, err
	}
	v := valuation.NewAggregator(log).Aggregate(table, in.Sites)

	res := &Result{RunID: runID, StartedAt: started, Table: table, Valuation: v}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var st staging
	defer st.abort()
	if err := s.stageOutputs(&st, opts, res); err != nil {
		return nil, err
	}
	outputs, err := st.commit()
	if err != nil {
		return nil, fmt.Errorf("pipeline: commit outputs: %w", err)
	}
	res.Outputs = outputs
	res.FinishedAt = s.now()

	recordMetrics(res)
	if s.store != nil {
		if err := s.store.SaveRun(ctx, toStorageRun(opts, res)); err != nil {
			return nil, fmt.Errorf("pipeline: outputs written to %s; save run: %w", opts.OutputDir, err)
		}
	}

	log.WithFields(logrus.Fields{
		"sites":     len(v.Sites),
		"unhandled": len(v.Warnings),
		"unmatched": v.UnmatchedSites,
		"duration":  res.FinishedAt.Sub(started).String(),
	}).Info("pipeline: run completed")
	return res, nil
}

func (s *Service) stageOutputs(st *staging, opts Options, res *Result) error {
	err := st.stage(filepath.Join(opts.OutputDir, HourlyFile), func(w io.Writer) error {
		return valuation.WriteHourlyCSV(w, res.Table)
	})
	if err != nil {
		return err
	}
	err = st.stage(filepath.Join(opts.OutputDir, ValuationsFile), func(w io.Writer) error {
		return valuation.WriteValuationsCSV(w, res.Valuation)
	})
	if err != nil {
		return err
	}

	meta := report.Meta{RunID: res.RunID, GeneratedAt: res.StartedAt}
	if opts.ReportXLSX != "" {
		data, err := report.BuildWorkbook(meta, res.Table, res.Valuation)
		if err != nil {
			return fmt.Errorf("pipeline: workbook: %w", err)
		}
		if err := st.stageBytes(opts.ReportXLSX, data); err != nil {
			return err
		}
	}
	if opts.ReportPDF != "" {
		data, err := report.BuildSummaryPDF(meta, res.Table, res.Valuation)
		if err != nil {
			return fmt.Errorf("pipeline: summary pdf: %w", err)
		}
		if err := st.stageBytes(opts.ReportPDF, data); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) writeMetrics(path string) {
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path); err != nil {
		s.log.WithError(err).Warn("pipeline: write metrics textfile failed")
	}
}

func recordMetrics(res *Result) {
	var joins []metrics.JoinStats
	for _, r := range res.Table.Reports() {
		joins = append(joins, metrics.JoinStats{
			Utility:    string(r.Utility),
			Joined:     r.Joined,
			MissingTOU: r.MissingTOU,
			MissingLMP: r.MissingLMP,
		})
	}
	var scalars []metrics.ScalarStats
	for _, sc := range res.Valuation.Scalars {
		scalars = append(scalars, metrics.ScalarStats{Utility: string(sc.Utility), Flat: sc.Flat, TOU: sc.TOU, LMP: sc.LMP})
	}
	metrics.UpdateRunMetrics(res.StartedAt, joins, scalars, len(res.Valuation.Warnings), res.Valuation.UnmatchedSites)
}
