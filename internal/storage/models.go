package storage

import "time"

// Run is one completed valuation run with its results. ListRuns returns runs
// without Scalars and Sites; GetRun loads both.
type Run struct {
	ID               string    `json:"id" gorm:"primaryKey;column:id"`
	StartedAt        time.Time `json:"started_at" gorm:"column:started_at"`
	FinishedAt       time.Time `json:"finished_at" gorm:"column:finished_at"`
	SitesPath        string    `json:"sites_path" gorm:"column:sites_path"`
	GenerationPath   string    `json:"generation_path" gorm:"column:generation_path"`
	TOUPath          string    `json:"tou_path" gorm:"column:tou_path"`
	LMPPath          string    `json:"lmp_path" gorm:"column:lmp_path"`
	Configurations   int       `json:"configurations" gorm:"column:configurations"`
	SiteCount        int       `json:"site_count" gorm:"column:site_count"`
	DroppedHours     int       `json:"dropped_hours" gorm:"column:dropped_hours"`
	UnhandledTariffs int       `json:"unhandled_tariffs" gorm:"column:unhandled_tariffs"`
	UnmatchedSites   int       `json:"unmatched_sites" gorm:"column:unmatched_sites"`

	Scalars []ConfigurationScalar `json:"scalars,omitempty" gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
	Sites   []SiteValuation       `json:"sites,omitempty" gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

func (Run) TableName() string { return "valuation_runs" }

// ConfigurationScalar stores one utility's normalized annual values.
type ConfigurationScalar struct {
	ID           uint    `json:"-" gorm:"primaryKey;column:id"`
	RunID        string  `json:"run_id" gorm:"column:run_id;index"`
	Utility      string  `json:"utility" gorm:"column:utility"`
	Hours        int     `json:"hours" gorm:"column:hours"`
	DroppedHours int     `json:"dropped_hours" gorm:"column:dropped_hours"`
	FlatRate     float64 `json:"flat_rate" gorm:"column:flat_rate"`
	TOURate      float64 `json:"tou_rate" gorm:"column:tou_rate"`
	LMP          float64 `json:"lmp" gorm:"column:lmp"`
}

func (ConfigurationScalar) TableName() string { return "configuration_scalars" }

// SiteValuation stores one site's annual values. AnnualValueNEM is nil for
// sites with an unhandled tariff version.
type SiteValuation struct {
	ID             uint     `json:"-" gorm:"primaryKey;column:id"`
	RunID          string   `json:"run_id" gorm:"column:run_id;index"`
	Line           int      `json:"line" gorm:"column:line"`
	Utility        string   `json:"utility" gorm:"column:utility"`
	ServiceCity    string   `json:"service_city" gorm:"column:service_city"`
	NEMTariff      string   `json:"nem_tariff" gorm:"column:nem_tariff"`
	SystemSizeAC   float64  `json:"system_size_ac" gorm:"column:system_size_ac"`
	AnnualValueNEM *float64 `json:"annual_value_nem" gorm:"column:annual_value_nem"`
	AnnualValueLMP float64  `json:"annual_value_lmp" gorm:"column:annual_value_lmp"`
}

func (SiteValuation) TableName() string { return "site_valuations" }

// ScheduledJob records the last execution of a scheduled job.
type ScheduledJob struct {
	Name           string    `gorm:"primaryKey;column:name"`
	LastRunAt      time.Time `gorm:"column:last_run_at"`
	LastDurationMs int64     `gorm:"column:last_duration_ms"`
	LastSuccess    int       `gorm:"column:last_success"`
	LastError      string    `gorm:"column:last_error"`
}

func (ScheduledJob) TableName() string { return "scheduled_jobs" }
