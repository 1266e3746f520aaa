// Package valuation values normalized solar generation under flat retail,
// time-of-use and wholesale LMP compensation. A run loads four CSV tables,
// joins them per utility configuration on the hourly timestamp and
// aggregates the hourly values into annual scalars and per-site values.
package valuation

import (
	"fmt"
	"sort"
	"strings"
)

// Utility identifies a utility territory. Each utility has exactly one
// Configuration in a run.
type Utility string

const (
	UtilityPGE  Utility = "PGE"
	UtilitySCE  Utility = "SCE"
	UtilitySDGE Utility = "SDGE"
)

// ProfileSuffix is appended to the utility code to name its representative
// rooftop generation profile column.
const ProfileSuffix = "_FIXED_ROOFTOP_T18_A180_NORM"

// ProfileColumn returns the generation column name for a utility.
func ProfileColumn(u Utility) string {
	return string(u) + ProfileSuffix
}

// ParseUtility normalizes a utility code as it appears in input files.
func ParseUtility(raw string) Utility {
	return Utility(strings.ToUpper(strings.TrimSpace(raw)))
}

// Configuration bundles the rate and node identifiers used to value
// generation in one utility territory.
type Configuration struct {
	Utility Utility
	// FlatRate is in $/kW per hour of normalized output.
	FlatRate float64
	// TOURate names the rate column in the TOU table.
	TOURate string
	// LMPNode is the NODE_ID used from the LMP table.
	LMPNode string
	// GenerationProfile names the column in the generation table.
	GenerationProfile string
}

func (c Configuration) validate() error {
	if c.Utility == "" {
		return fmt.Errorf("configuration: utility is required")
	}
	if c.TOURate == "" {
		return fmt.Errorf("configuration %s: tou rate identifier is required", c.Utility)
	}
	if c.LMPNode == "" {
		return fmt.Errorf("configuration %s: lmp node is required", c.Utility)
	}
	if c.GenerationProfile == "" {
		return fmt.Errorf("configuration %s: generation profile is required", c.Utility)
	}
	if c.FlatRate <= 0 {
		return fmt.Errorf("configuration %s: flat rate must be positive, got %v", c.Utility, c.FlatRate)
	}
	return nil
}

// DefaultConfigurations returns the California IOU configurations: flat rates
// from the middle tier of each default residential tariff, TOU schedules from
// URDB and the default load aggregation point for each territory.
func DefaultConfigurations() []Configuration {
	return []Configuration{
		{
			Utility:           UtilityPGE,
			FlatRate:          0.39468,
			TOURate:           "PGE_14328",
			LMPNode:           "DLAP_PGAE-APND",
			GenerationProfile: ProfileColumn(UtilityPGE),
		},
		{
			Utility:           UtilitySCE,
			FlatRate:          0.24623,
			TOURate:           "SCE_17609",
			LMPNode:           "DLAP_SCE-APND",
			GenerationProfile: ProfileColumn(UtilitySCE),
		},
		{
			Utility:           UtilitySDGE,
			FlatRate:          0.49477,
			TOURate:           "SDGE_17609",
			LMPNode:           "DLAP_SDGE-APND",
			GenerationProfile: ProfileColumn(UtilitySDGE),
		},
	}
}

// ConfigurationSet is an ordered, read-only collection of configurations.
// It is built once per run and shared by value between stages.
type ConfigurationSet struct {
	items []Configuration
}

// NewConfigurationSet validates and copies cfgs. Utilities must be unique.
func NewConfigurationSet(cfgs []Configuration) (ConfigurationSet, error) {
	if len(cfgs) == 0 {
		return ConfigurationSet{}, fmt.Errorf("configuration: at least one configuration is required")
	}
	seen := make(map[Utility]bool, len(cfgs))
	items := make([]Configuration, 0, len(cfgs))
	for _, c := range cfgs {
		if err := c.validate(); err != nil {
			return ConfigurationSet{}, err
		}
		if seen[c.Utility] {
			return ConfigurationSet{}, fmt.Errorf("configuration: duplicate utility %s", c.Utility)
		}
		seen[c.Utility] = true
		items = append(items, c)
	}
	return ConfigurationSet{items: items}, nil
}

// MustDefaultSet returns the default configuration set.
func MustDefaultSet() ConfigurationSet {
	set, err := NewConfigurationSet(DefaultConfigurations())
	if err != nil {
		panic("valuation: invalid default configurations: " + err.Error())
	}
	return set
}

// All returns a copy of the configurations in declaration order.
func (s ConfigurationSet) All() []Configuration {
	out := make([]Configuration, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of configurations.
func (s ConfigurationSet) Len() int { return len(s.items) }

// Lookup returns the configuration for a utility.
func (s ConfigurationSet) Lookup(u Utility) (Configuration, bool) {
	for _, c := range s.items {
		if c.Utility == u {
			return c, true
		}
	}
	return Configuration{}, false
}

// Utilities returns the sorted utility codes in the set.
func (s ConfigurationSet) Utilities() []string {
	keys := make([]string, 0, len(s.items))
	for _, c := range s.items {
		keys = append(keys, string(c.Utility))
	}
	sort.Strings(keys)
	return keys
}

// generationColumns lists the generation columns the set depends on.
func (s ConfigurationSet) generationColumns() []string {
	cols := make([]string, 0, len(s.items))
	for _, c := range s.items {
		cols = append(cols, c.GenerationProfile)
	}
	return cols
}

// touColumns lists the TOU rate columns the set depends on.
func (s ConfigurationSet) touColumns() []string {
	cols := make([]string, 0, len(s.items))
	for _, c := range s.items {
		cols = append(cols, c.TOURate)
	}
	return cols
}
