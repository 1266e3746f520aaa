package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds process settings. Every field has an environment variable;
// CLI flags override them.
type Config struct {
	SitesPath      string
	GenerationPath string
	TOUPath        string
	LMPPath        string
	OutputDir      string
	// ConfigurationsPath is an optional YAML file of valuation
	// configurations. Empty means the built-in defaults.
	ConfigurationsPath string

	DBDriver string
	DBDSN    string

	LogLevel  string
	LogFormat string

	// MetricsFile, when set, receives a Prometheus text exposition after
	// every run.
	MetricsFile string
	ReportXLSX  string
	ReportPDF   string

	Schedule         string
	AlertWebhookURL  string
	AlertWebhookType string
	// AlertMinFailures is the number of consecutive failed scheduled runs
	// before an alert is sent.
	AlertMinFailures int
}

// FromEnv builds a Config from environment variables, with sane defaults.
// A .env file in the working directory is loaded first when present.
func FromEnv() Config {
	_ = godotenv.Load()

	return Config{
		SitesPath:          getEnv("SOLARVALUE_SITES_PATH", "data/interconnected_project_sites.csv"),
		GenerationPath:     getEnv("SOLARVALUE_GEN_PATH", "data/generation_profiles.csv"),
		TOUPath:            getEnv("SOLARVALUE_TOU_PATH", "data/TOU_rates.csv"),
		LMPPath:            getEnv("SOLARVALUE_LMP_PATH", "data/LMP.csv"),
		OutputDir:          getEnv("SOLARVALUE_OUTPUT_DIR", "output"),
		ConfigurationsPath: getEnv("SOLARVALUE_CONFIGURATIONS", ""),
		DBDriver:           getEnv("SOLARVALUE_DB_DRIVER", "none"),
		DBDSN:              getEnv("SOLARVALUE_DB_DSN", ""),
		LogLevel:           getEnv("SOLARVALUE_LOG_LEVEL", "info"),
		LogFormat:          getEnv("SOLARVALUE_LOG_FORMAT", "text"),
		MetricsFile:        getEnv("SOLARVALUE_METRICS_FILE", ""),
		ReportXLSX:         getEnv("SOLARVALUE_REPORT_XLSX", ""),
		ReportPDF:          getEnv("SOLARVALUE_REPORT_PDF", ""),
		Schedule:           getEnv("SOLARVALUE_SCHEDULE", "0 6 * * *"),
		AlertWebhookURL:    getEnv("ALERT_WEBHOOK_URL", ""),
		AlertWebhookType:   getEnv("ALERT_WEBHOOK_TYPE", ""),
		AlertMinFailures:   getEnvInt("ALERT_MIN_FAILURES", 1),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
