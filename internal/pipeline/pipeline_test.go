package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bher20/solarvalue/internal/storage"
	"github.com/bher20/solarvalue/internal/valuation"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func fixture(t *testing.T, lmp string) Options {
	t.Helper()
	in := t.TempDir()
	pge, _ := valuation.MustDefaultSet().Lookup(valuation.UtilityPGE)
	configs, err := valuation.NewConfigurationSet([]valuation.Configuration{pge})
	if err != nil {
		t.Fatal(err)
	}
	return Options{
		Inputs: valuation.InputPaths{
			Sites: writeInput(t, in, "sites.csv",
				"Utility,Service City,NEM Tariff,System Size AC\nPGE,Fresno,1.0,5\nPGE,Chico,3.0,4\n"),
			Generation: writeInput(t, in, "gen.csv",
				"Timestamp,PGE_FIXED_ROOFTOP_T18_A180_NORM\n2022-06-01 12:00:00,0.1\n2022-06-01 13:00:00,0.2\n"),
			TOU: writeInput(t, in, "tou.csv",
				"Timestamp,PGE_14328\n2022-06-01 12:00:00,0.3\n2022-06-01 13:00:00,0.4\n"),
			LMP: writeInput(t, in, "lmp.csv", lmp),
		},
		Configurations: configs,
		OutputDir:      filepath.Join(t.TempDir(), "out"),
	}
}

const goodLMP = "Timestamp,NODE_ID,LMP_TYPE,MW\n2022-06-01 12:00:00,DLAP_PGAE-APND,LMP,100\n2022-06-01 13:00:00,DLAP_PGAE-APND,LMP,200\n"

func newTestService(store storage.Storage) *Service {
	s := NewService(quietLogger(), store)
	s.newID = func() string { return "run-fixed" }
	s.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestRun_WritesOutputsAndHistory(t *testing.T) {
	store := storage.NewMemory()
	opts := fixture(t, goodLMP)

	res, err := newTestService(store).Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.Outputs) != 2 {
		t.Fatalf("expected 2 outputs, got %v", res.Outputs)
	}

	vals, err := os.ReadFile(filepath.Join(opts.OutputDir, ValuationsFile))
	if err != nil {
		t.Fatalf("read valuations: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(vals)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 sites, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], "PGE,Fresno,1.0,5,") {
		t.Errorf("unexpected first site row: %q", lines[1])
	}
	if f := strings.Split(lines[2], ","); len(f) != 10 || f[7] != "" || f[8] != "" {
		t.Errorf("expected empty NEM cells for tariff 3.0: %q", lines[2])
	}

	run, err := store.GetRun(context.Background(), "run-fixed")
	if err != nil {
		t.Fatalf("run not persisted: %v", err)
	}
	if run.SiteCount != 2 || run.UnhandledTariffs != 1 || len(run.Scalars) != 1 {
		t.Errorf("unexpected persisted run: %+v", run)
	}
	if run.Sites[1].AnnualValueNEM != nil {
		t.Errorf("expected nil NEM value for tariff 3.0")
	}
}

func TestRun_NoPartialOutputOnFailure(t *testing.T) {
	opts := fixture(t, "Timestamp,NODE_ID,LMP_TYPE,MW\n2022-06-01 12:00:00,OTHER_NODE,LMP,100\n")
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	previous := filepath.Join(opts.OutputDir, ValuationsFile)
	if err := os.WriteFile(previous, []byte("previous run\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := storage.NewMemory()
	_, err := newTestService(store).Run(context.Background(), opts)
	var ue *valuation.UnresolvedConfigurationError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnresolvedConfigurationError, got %v", err)
	}

	entries, err := os.ReadDir(opts.OutputDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != ValuationsFile {
		t.Errorf("output directory changed: %v", entries)
	}
	if data, _ := os.ReadFile(previous); string(data) != "previous run\n" {
		t.Errorf("previous output overwritten: %q", data)
	}
	if runs, _ := store.ListRuns(context.Background(), 10); len(runs) != 0 {
		t.Errorf("failed run was persisted")
	}
}

func TestRun_ReportFailureLeavesNoOutputs(t *testing.T) {
	opts := fixture(t, goodLMP)
	// A directory at the report destination is only detected after both
	// CSVs are staged.
	blocker := filepath.Join(t.TempDir(), "report.xlsx")
	if err := os.MkdirAll(filepath.Join(blocker, "child"), 0o755); err != nil {
		t.Fatal(err)
	}
	opts.ReportXLSX = filepath.Join(blocker, "child")

	if _, err := newTestService(nil).Run(context.Background(), opts); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := os.Stat(filepath.Join(opts.OutputDir, HourlyFile)); !os.IsNotExist(err) {
		t.Errorf("hourly output should not exist, stat err=%v", err)
	}
}

func TestRun_Deterministic(t *testing.T) {
	opts := fixture(t, goodLMP)
	svc := newTestService(nil)

	read := func() []byte {
		if _, err := svc.Run(context.Background(), opts); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		var buf bytes.Buffer
		for _, name := range []string{HourlyFile, ValuationsFile} {
			data, err := os.ReadFile(filepath.Join(opts.OutputDir, name))
			if err != nil {
				t.Fatal(err)
			}
			buf.Write(data)
		}
		return buf.Bytes()
	}
	if a, b := read(), read(); !bytes.Equal(a, b) {
		t.Errorf("outputs differ between identical runs")
	}
}

func TestRun_Reports(t *testing.T) {
	opts := fixture(t, goodLMP)
	dir := t.TempDir()
	opts.ReportXLSX = filepath.Join(dir, "reports", "valuation.xlsx")
	opts.ReportPDF = filepath.Join(dir, "reports", "summary.pdf")
	opts.MetricsFile = filepath.Join(dir, "solarvalue.prom")

	res, err := newTestService(nil).Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.Outputs) != 4 {
		t.Errorf("expected 4 outputs, got %v", res.Outputs)
	}
	for _, p := range []string{opts.ReportXLSX, opts.ReportPDF, opts.MetricsFile} {
		if st, err := os.Stat(p); err != nil || st.Size() == 0 {
			t.Errorf("expected non-empty %s: %v", p, err)
		}
	}
}

func TestRun_MissingInput(t *testing.T) {
	opts := fixture(t, goodLMP)
	opts.Inputs.Generation = filepath.Join(t.TempDir(), "absent.csv")
	_, err := newTestService(nil).Run(context.Background(), opts)
	var mi *valuation.MissingInputError
	if !errors.As(err, &mi) || mi.Input != valuation.InputGeneration {
		t.Fatalf("expected generation MissingInputError, got %v", err)
	}
}

var errStoreDown = errors.New("store down")

type failingStore struct {
	*storage.MemoryStorage
}

func (failingStore) SaveRun(ctx context.Context, run storage.Run) error { return errStoreDown }

func TestRun_SaveFailureReportsWrittenOutputs(t *testing.T) {
	opts := fixture(t, goodLMP)

	_, err := newTestService(failingStore{storage.NewMemory()}).Run(context.Background(), opts)
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}
	if !strings.Contains(err.Error(), "outputs written") {
		t.Errorf("error should say the outputs were written: %v", err)
	}
	for _, name := range []string{HourlyFile, ValuationsFile} {
		if _, err := os.Stat(filepath.Join(opts.OutputDir, name)); err != nil {
			t.Errorf("expected %s in place: %v", name, err)
		}
	}
}
