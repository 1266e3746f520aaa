package valuation

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(strings.TrimLeft(content, "\n")), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

// pgeFixture is a two-hour PGE-only scenario: flat sum 0.118404, TOU sum
// 0.11 and LMP sum 0.05.
type pgeFixture struct {
	paths   InputPaths
	configs ConfigurationSet
}

const (
	pgeSites = `
Utility,Service City,NEM Tariff,System Size AC
PGE,Fresno,1.0,5
PGE,Oakland,2,10
PGE,Chico,3.0,4
XYZ,Nowhere,1.0,7
`
	pgeGeneration = `
Timestamp,PGE_FIXED_ROOFTOP_T18_A180_NORM,UNUSED
2022-06-01 12:00:00,0.1,9
2022-06-01 13:00:00,0.2,9
`
	pgeTOU = `
Timestamp,PGE_14328
2022-06-01 12:00:00,0.3
2022-06-01 13:00:00,0.4
`
	pgeLMP = `
Timestamp,NODE_ID,LMP_TYPE,MW
2022-06-01 12:00:00,DLAP_PGAE-APND,LMP,100
2022-06-01 12:00:00,DLAP_PGAE-APND,MCC,5
2022-06-01 13:00:00,DLAP_PGAE-APND,LMP,200
2022-06-01 13:00:00,DLAP_SCE-APND,LMP,999
`
)

func pgeOnly(t *testing.T) ConfigurationSet {
	t.Helper()
	c, _ := MustDefaultSet().Lookup(UtilityPGE)
	set, err := NewConfigurationSet([]Configuration{c})
	if err != nil {
		t.Fatalf("config set: %v", err)
	}
	return set
}

func newPGEFixture(t *testing.T) pgeFixture {
	t.Helper()
	dir := t.TempDir()
	return pgeFixture{
		paths: InputPaths{
			Sites:      writeFile(t, dir, "sites.csv", pgeSites),
			Generation: writeFile(t, dir, "gen.csv", pgeGeneration),
			TOU:        writeFile(t, dir, "tou.csv", pgeTOU),
			LMP:        writeFile(t, dir, "lmp.csv", pgeLMP),
		},
		configs: pgeOnly(t),
	}
}

func (f pgeFixture) load(t *testing.T) *Inputs {
	t.Helper()
	in, err := NewLoader(quietLogger()).Load(f.paths, f.configs)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return in
}
