package config

import (
	"os"
	"testing"
)

func TestFromEnv_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, k := range []string{"SOLARVALUE_SITES_PATH", "SOLARVALUE_DB_DRIVER", "SOLARVALUE_OUTPUT_DIR", "ALERT_WEBHOOK_TYPE", "ALERT_MIN_FAILURES"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()
	if cfg.SitesPath != "data/interconnected_project_sites.csv" {
		t.Errorf("unexpected sites path %q", cfg.SitesPath)
	}
	if cfg.DBDriver != "none" {
		t.Errorf("expected persistence disabled by default, got %q", cfg.DBDriver)
	}
	if cfg.OutputDir != "output" || cfg.AlertWebhookType != "" || cfg.AlertMinFailures != 1 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SOLARVALUE_LMP_PATH", "/srv/lmp.csv")
	t.Setenv("SOLARVALUE_DB_DRIVER", "sqlite")
	t.Setenv("SOLARVALUE_SCHEDULE", "@hourly")
	t.Setenv("ALERT_MIN_FAILURES", "3")

	cfg := FromEnv()
	if cfg.LMPPath != "/srv/lmp.csv" || cfg.DBDriver != "sqlite" || cfg.Schedule != "@hourly" || cfg.AlertMinFailures != 3 {
		t.Errorf("env not applied: %+v", cfg)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent to testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
