package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/bher20/solarvalue/internal/alerting"
	"github.com/bher20/solarvalue/internal/metrics"
	"github.com/bher20/solarvalue/internal/pipeline"
	"github.com/bher20/solarvalue/internal/storage"
)

// JobName identifies the scheduled valuation in metrics and scheduled_jobs.
const JobName = "valuation"

// lockKey is the advisory lock held while a scheduled run executes, so that
// replicas sharing a database never run the job at the same time.
const lockKey int64 = 42

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error)
}

// OptionsFunc resolves the options for a run. It is called on every tick so
// configuration files and tariff sheets are re-read.
type OptionsFunc func() (pipeline.Options, error)

// Worker runs the pipeline on a cron schedule.
type Worker struct {
	log     logrus.FieldLogger
	runner  Runner
	options OptionsFunc
	store   storage.Storage
	alerter *alerting.Alerter

	mu       sync.Mutex
	failures int
}

// NewWorker creates a Worker. store and alerter may be nil.
func NewWorker(log logrus.FieldLogger, runner Runner, options OptionsFunc, store storage.Storage, alerter *alerting.Alerter) *Worker {
	return &Worker{
		log:     log,
		runner:  runner,
		options: options,
		store:   store,
		alerter: alerter,
	}
}

// ValidateSchedule checks a standard five-field cron spec or descriptor.
func ValidateSchedule(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Start runs the pipeline on every tick of spec until ctx is cancelled. A
// tick that fires while the previous run is still executing is skipped.
func (w *Worker) Start(ctx context.Context, spec string) error {
	if err := ValidateSchedule(spec); err != nil {
		return err
	}
	logger := cronLogger{log: w.log}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	id, err := c.AddFunc(spec, func() { _ = w.RunOnce(ctx) })
	if err != nil {
		return fmt.Errorf("schedule job: %w", err)
	}
	c.Start()
	w.log.WithFields(logrus.Fields{"schedule": spec, "next": c.Entry(id).Next}).Info("cron: worker started")

	<-ctx.Done()
	<-c.Stop().Done()
	w.log.Info("cron: worker stopped")
	return ctx.Err()
}

// RunOnce executes a single scheduled run and records its outcome.
func (w *Worker) RunOnce(ctx context.Context) error {
	started := time.Now()

	if w.store != nil {
		ok, err := w.store.AcquireAdvisoryLock(ctx, lockKey)
		if err != nil {
			w.log.WithError(err).Error("cron: acquire advisory lock failed")
			metrics.UpdateJobMetrics(JobName, started, err)
			return err
		}
		if !ok {
			w.log.Info("cron: advisory lock held by another worker, skipping run")
			return nil
		}
		defer func() {
			if _, err := w.store.ReleaseAdvisoryLock(ctx, lockKey); err != nil {
				w.log.WithError(err).Error("cron: release advisory lock failed")
			}
		}()
	}

	runErr := w.execute(ctx)
	dur := time.Since(started)
	metrics.UpdateJobMetrics(JobName, started, runErr)

	if w.store != nil {
		errMsg := ""
		if runErr != nil {
			errMsg = runErr.Error()
		}
		if err := w.store.UpdateScheduledJob(ctx, JobName, started, dur, runErr == nil, errMsg); err != nil {
			w.log.WithError(err).Error("cron: update scheduled_jobs failed")
		}
	}

	w.mu.Lock()
	if runErr != nil {
		w.failures++
	} else {
		w.failures = 0
	}
	failures := w.failures
	w.mu.Unlock()

	if runErr == nil {
		w.log.WithField("duration", dur.String()).Info("cron: job completed successfully")
		return nil
	}

	w.log.WithError(runErr).WithField("duration", dur.String()).Error("cron: job completed with error")
	if w.alerter != nil {
		alert := alerting.RunAlert{
			JobName:             JobName,
			ConsecutiveFailures: failures,
			Error:               runErr.Error(),
			Duration:            dur,
			Timestamp:           started,
		}
		if err := w.alerter.SendRunAlert(ctx, alert); err != nil {
			w.log.WithError(err).Warn("cron: send alert failed")
		}
	}
	return runErr
}

func (w *Worker) execute(ctx context.Context) error {
	opts, err := w.options()
	if err != nil {
		return fmt.Errorf("resolve run options: %w", err)
	}
	_, err = w.runner.Run(ctx, opts)
	return err
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	log logrus.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Debug("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithError(err).WithFields(fields(keysAndValues)).Error("cron: " + msg)
}

func fields(kv []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
