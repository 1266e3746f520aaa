package cron

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/bher20/solarvalue/internal/alerting"
	"github.com/bher20/solarvalue/internal/pipeline"
	"github.com/bher20/solarvalue/internal/storage"
)

type fakeRunner struct {
	err   error
	calls int
}

func (f *fakeRunner) Run(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &pipeline.Result{RunID: "r"}, nil
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func noOptions() (pipeline.Options, error) { return pipeline.Options{}, nil }

func TestValidateSchedule(t *testing.T) {
	for _, ok := range []string{"0 6 * * *", "@hourly", "*/15 * * * *"} {
		if err := ValidateSchedule(ok); err != nil {
			t.Errorf("ValidateSchedule(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"", "every day", "0 6 * *", "0 0 6 * * *"} {
		if err := ValidateSchedule(bad); err == nil {
			t.Errorf("ValidateSchedule(%q): expected error", bad)
		}
	}
}

func TestRunOnce_SuccessRecordsJob(t *testing.T) {
	store := storage.NewMemory()
	runner := &fakeRunner{}
	w := NewWorker(quietLogger(), runner, noOptions, store, nil)

	if err := w.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	job, err := store.GetScheduledJob(context.Background(), JobName)
	if err != nil || job == nil {
		t.Fatalf("scheduled job not recorded: %v", err)
	}
	if job.LastSuccess != 1 || job.LastError != "" {
		t.Errorf("unexpected job row: %+v", job)
	}
	if runner.calls != 1 {
		t.Errorf("expected 1 run, got %d", runner.calls)
	}
}

func TestRunOnce_FailureAlertsWithConsecutiveCount(t *testing.T) {
	var mu sync.Mutex
	var counts []float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		counts = append(counts, body["consecutive_failures"].(float64))
		mu.Unlock()
	}))
	defer srv.Close()

	store := storage.NewMemory()
	runner := &fakeRunner{err: errors.New("missing lmp input")}
	alerter := alerting.NewAlerter(alerting.NewAlertConfig(srv.URL, "generic"), quietLogger())
	w := NewWorker(quietLogger(), runner, noOptions, store, alerter)

	for i := 0; i < 2; i++ {
		if err := w.RunOnce(context.Background()); err == nil {
			t.Fatalf("expected run error")
		}
	}
	runner.err = nil
	if err := w.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	runner.err = errors.New("again")
	_ = w.RunOnce(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if len(counts) != 3 || counts[0] != 1 || counts[1] != 2 || counts[2] != 1 {
		t.Errorf("unexpected alert failure counts: %v", counts)
	}
	job, _ := store.GetScheduledJob(context.Background(), JobName)
	if job == nil || job.LastError != "again" {
		t.Errorf("unexpected job row: %+v", job)
	}
}

func TestRunOnce_OptionsError(t *testing.T) {
	runner := &fakeRunner{}
	w := NewWorker(quietLogger(), runner, func() (pipeline.Options, error) {
		return pipeline.Options{}, errors.New("bad yaml")
	}, nil, nil)
	if err := w.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected options error")
	}
	if runner.calls != 0 {
		t.Errorf("runner should not be called")
	}
}

func TestStart_RejectsInvalidSchedule(t *testing.T) {
	w := NewWorker(quietLogger(), &fakeRunner{}, noOptions, nil, nil)
	if err := w.Start(context.Background(), "nonsense"); err == nil {
		t.Fatalf("expected error")
	}
}
