package valuation

// Input names used in error messages and logs.
const (
	InputSites      = "sites"
	InputGeneration = "generation"
	InputTOU        = "tou"
	InputLMP        = "lmp"
)

// Column names of the input contract.
const (
	ColTimestamp    = "Timestamp"
	ColUtility      = "Utility"
	ColNEMTariff    = "NEM Tariff"
	ColSystemSizeAC = "System Size AC"
	ColServiceCity  = "Service City"
	ColNodeID       = "NODE_ID"
	ColLMPType      = "LMP_TYPE"
	ColMW           = "MW"
)

// LMPTypeEnergy selects the all-in price component; congestion and loss
// components carry other LMP_TYPE values.
const LMPTypeEnergy = "LMP"

// Site is one interconnected installation from the site registry.
type Site struct {
	// Line is the CSV line the site was read from.
	Line        int
	Utility     Utility
	ServiceCity string
	// NEMTariff is the tariff value as written in the registry.
	NEMTariff    string
	Tariff       TariffVersion
	SystemSizeAC float64
}

// seriesTable holds a timestamp column and a set of numeric columns of equal
// length. Rows keep file order.
type seriesTable struct {
	timestamps []string
	columns    map[string][]float64
}

func (t seriesTable) Len() int { return len(t.timestamps) }

// Timestamps returns a copy of the timestamp column.
func (t seriesTable) Timestamps() []string {
	out := make([]string, len(t.timestamps))
	copy(out, t.timestamps)
	return out
}

// HasColumn reports whether the named value column was loaded.
func (t seriesTable) HasColumn(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// index maps each timestamp to its row for the named column.
func (t seriesTable) index(name string) (map[string]float64, bool) {
	vals, ok := t.columns[name]
	if !ok {
		return nil, false
	}
	m := make(map[string]float64, len(vals))
	for i, ts := range t.timestamps {
		m[ts] = vals[i]
	}
	return m, true
}

// GenerationTable holds normalized generation (kW per kW of capacity) per
// hour for each generation profile.
type GenerationTable struct{ seriesTable }

// Profile returns the named profile's values aligned to Timestamps.
func (t GenerationTable) Profile(name string) ([]float64, bool) {
	vals, ok := t.columns[name]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(vals))
	copy(out, vals)
	return out, true
}

// TOUTable holds hourly time-of-use retail rates ($/kWh) per rate schedule.
type TOUTable struct{ seriesTable }

// LMPRow is one price observation for a node and price component.
type LMPRow struct {
	Line      int
	Timestamp string
	NodeID    string
	LMPType   string
	// MW is the price at MWh scale ($/MWh).
	MW float64
}

// RatePerKWh converts the MWh-scale price to $/kWh.
func (r LMPRow) RatePerKWh() float64 { return r.MW / 1000 }

// LMPTable holds LMP rows in file order.
type LMPTable struct {
	rows []LMPRow
}

func (t LMPTable) Len() int { return len(t.rows) }

// Rows returns a copy of the rows.
func (t LMPTable) Rows() []LMPRow {
	out := make([]LMPRow, len(t.rows))
	copy(out, t.rows)
	return out
}

// Inputs are the four validated tables of one run.
type Inputs struct {
	Sites      []Site
	Generation GenerationTable
	TOU        TOUTable
	LMP        LMPTable
}

// InputPaths locates the four CSV sources.
type InputPaths struct {
	Sites      string
	Generation string
	TOU        string
	LMP        string
}
