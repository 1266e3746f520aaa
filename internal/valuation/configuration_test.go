package valuation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigurations(t *testing.T) {
	set := MustDefaultSet()
	if set.Len() != 3 {
		t.Fatalf("expected 3 defaults, got %d", set.Len())
	}
	sdge, ok := set.Lookup(UtilitySDGE)
	if !ok {
		t.Fatalf("missing SDGE")
	}
	if sdge.FlatRate != 0.49477 || sdge.TOURate != "SDGE_17609" || sdge.LMPNode != "DLAP_SDGE-APND" {
		t.Errorf("unexpected SDGE configuration: %+v", sdge)
	}
	if sdge.GenerationProfile != "SDGE_FIXED_ROOFTOP_T18_A180_NORM" {
		t.Errorf("unexpected profile %q", sdge.GenerationProfile)
	}
}

func TestNewConfigurationSet_Rejects(t *testing.T) {
	pge, _ := MustDefaultSet().Lookup(UtilityPGE)

	if _, err := NewConfigurationSet(nil); err == nil {
		t.Errorf("expected error for empty set")
	}
	if _, err := NewConfigurationSet([]Configuration{pge, pge}); err == nil {
		t.Errorf("expected error for duplicate utility")
	}
	bad := pge
	bad.FlatRate = 0
	if _, err := NewConfigurationSet([]Configuration{bad}); err == nil {
		t.Errorf("expected error for zero flat rate")
	}
	bad = pge
	bad.LMPNode = ""
	if _, err := NewConfigurationSet([]Configuration{bad}); err == nil {
		t.Errorf("expected error for missing node")
	}
}

func TestConfigurationSet_AllIsCopy(t *testing.T) {
	set := MustDefaultSet()
	all := set.All()
	all[0].FlatRate = 99
	if c, _ := set.Lookup(all[0].Utility); c.FlatRate == 99 {
		t.Errorf("mutating All() leaked into the set")
	}
}

func TestParseConfigurations(t *testing.T) {
	data := []byte(`
configurations:
  - utility: pge
    flat_rate_pdf: sheets/e1.pdf
    tou_rate: PGE_14328
    lmp_node: DLAP_PGAE-APND
  - utility: SMUD
    flat_rate: 0.15
    tou_rate: SMUD_1
    lmp_node: SMUD_NODE
    generation_profile: SMUD_CUSTOM
`)
	var gotPath string
	source := func(path string) (float64, error) {
		gotPath = path
		return 0.4, nil
	}
	set, err := parseConfigurations(data, "/etc/solarvalue", source)
	if err != nil {
		t.Fatalf("parseConfigurations: %v", err)
	}
	if gotPath != filepath.Join("/etc/solarvalue", "sheets/e1.pdf") {
		t.Errorf("pdf path not resolved against config dir: %q", gotPath)
	}
	pge, ok := set.Lookup(UtilityPGE)
	if !ok || pge.FlatRate != 0.4 || pge.GenerationProfile != ProfileColumn(UtilityPGE) {
		t.Errorf("unexpected PGE entry: %+v", pge)
	}
	smud, ok := set.Lookup("SMUD")
	if !ok || smud.GenerationProfile != "SMUD_CUSTOM" {
		t.Errorf("unexpected SMUD entry: %+v", smud)
	}
}

func TestParseConfigurations_PDFFailure(t *testing.T) {
	data := []byte("configurations:\n  - utility: PGE\n    flat_rate_pdf: /x.pdf\n    tou_rate: A\n    lmp_node: B\n")
	boom := errors.New("boom")
	_, err := parseConfigurations(data, ".", func(string) (float64, error) { return 0, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
}

func TestLoadConfigurations_EmptyPathIsDefault(t *testing.T) {
	set, err := LoadConfigurations("")
	if err != nil {
		t.Fatalf("LoadConfigurations: %v", err)
	}
	if set.Len() != 3 {
		t.Errorf("expected defaults, got %d", set.Len())
	}
}

func TestLoadConfigurations_File(t *testing.T) {
	p := filepath.Join(t.TempDir(), "configs.yaml")
	body := "configurations:\n  - utility: SCE\n    flat_rate: 0.3\n    tou_rate: SCE_1\n    lmp_node: N\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	set, err := LoadConfigurations(p)
	if err != nil {
		t.Fatalf("LoadConfigurations: %v", err)
	}
	if got := set.Utilities(); len(got) != 1 || got[0] != "SCE" {
		t.Errorf("unexpected utilities: %v", got)
	}
}

func TestParseTariffVersion(t *testing.T) {
	cases := map[string]TariffVersion{
		"1.0":   FlatRateNEM,
		"1":     FlatRateNEM,
		" 2 ":   TimeOfUseNEM,
		"2.00":  TimeOfUseNEM,
		"3.0":   TariffUnknown,
		"":      TariffUnknown,
		"NEM2":  TariffUnknown,
		"0x1p0": TariffUnknown,
		"1e0":   TariffUnknown,
		"+1":    TariffUnknown,
		"01":    TariffUnknown,
		"1.":    TariffUnknown,
		"1.5":   TariffUnknown,
		"2.01":  TariffUnknown,
	}
	for in, want := range cases {
		if got := ParseTariffVersion(in); got != want {
			t.Errorf("ParseTariffVersion(%q) = %v, want %v", in, got, want)
		}
	}
}
