package valuation

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// HourlyRecord is one joined hour for one configuration. Rates are $/kWh
// and values are $ per kW of rated capacity.
type HourlyRecord struct {
	Timestamp  string
	Generation float64
	FlatRate   float64
	TOURate    float64
	LMPRate    float64
	FlatValue  float64
	TOUValue   float64
	LMPValue   float64
}

func newHourlyRecord(ts string, gen, flat, tou, lmp float64) HourlyRecord {
	return HourlyRecord{
		Timestamp:  ts,
		Generation: gen,
		FlatRate:   flat,
		TOURate:    tou,
		LMPRate:    lmp,
		FlatValue:  gen * flat,
		TOUValue:   gen * tou,
		LMPValue:   gen * lmp,
	}
}

// FlatVersusLMP returns the percentage by which the flat-rate value exceeds
// the LMP value. It is undefined when the LMP value is zero.
func (r HourlyRecord) FlatVersusLMP() (float64, bool) {
	return percentDifference(r.FlatValue, r.LMPValue)
}

// TOUVersusLMP returns the percentage by which the TOU value exceeds the LMP
// value. It is undefined when the LMP value is zero.
func (r HourlyRecord) TOUVersusLMP() (float64, bool) {
	return percentDifference(r.TOUValue, r.LMPValue)
}

func percentDifference(v, base float64) (float64, bool) {
	if base == 0 {
		return 0, false
	}
	return (v - base) / base * 100, true
}

// JoinReport counts what the inner joins kept and dropped for one
// configuration. Every generation hour is either joined or counted as
// missing from exactly one source, TOU first.
type JoinReport struct {
	Utility         Utility
	GenerationHours int
	MissingTOU      int
	MissingLMP      int
	Joined          int
}

// Dropped is the number of generation hours absent from the joined series.
func (r JoinReport) Dropped() int { return r.MissingTOU + r.MissingLMP }

// ConfigurationSeries is the joined hourly series of one configuration.
type ConfigurationSeries struct {
	Configuration Configuration
	Hours         []HourlyRecord
	Report        JoinReport
}

// HourlyTable is the normalized value table for all configurations.
type HourlyTable struct {
	series     []ConfigurationSeries
	timestamps []string
}

// Series returns the per-configuration series in configuration order.
func (t *HourlyTable) Series() []ConfigurationSeries {
	out := make([]ConfigurationSeries, len(t.series))
	copy(out, t.series)
	return out
}

// Timestamps returns every timestamp joined by at least one configuration,
// in generation table order.
func (t *HourlyTable) Timestamps() []string {
	out := make([]string, len(t.timestamps))
	copy(out, t.timestamps)
	return out
}

// Reports returns the join report of each configuration.
func (t *HourlyTable) Reports() []JoinReport {
	out := make([]JoinReport, 0, len(t.series))
	for _, s := range t.series {
		out = append(out, s.Report)
	}
	return out
}

// Joiner merges generation, TOU and LMP series per configuration.
type Joiner struct {
	log logrus.FieldLogger
}

// NewJoiner returns a Joiner that logs through log.
func NewJoiner(log logrus.FieldLogger) *Joiner {
	return &Joiner{log: log}
}

// Join builds the hourly table. All joins are inner joins on timestamp; the
// hours each configuration loses are counted in its JoinReport.
func (j *Joiner) Join(configs ConfigurationSet, in *Inputs) (*HourlyTable, error) {
	t := &HourlyTable{}
	joined := make(map[string]bool)
	for _, c := range configs.All() {
		s, err := j.joinConfiguration(c, in)
		if err != nil {
			return nil, err
		}
		for _, h := range s.Hours {
			joined[h.Timestamp] = true
		}
		t.series = append(t.series, s)
	}
	for _, ts := range in.Generation.timestamps {
		if joined[ts] {
			t.timestamps = append(t.timestamps, ts)
		}
	}
	return t, nil
}

func (j *Joiner) joinConfiguration(c Configuration, in *Inputs) (ConfigurationSeries, error) {
	gen, ok := in.Generation.columns[c.GenerationProfile]
	if !ok || len(gen) == 0 {
		return ConfigurationSeries{}, &UnresolvedConfigurationError{Utility: c.Utility, Source: InputGeneration, Identifier: c.GenerationProfile}
	}
	tou, ok := in.TOU.index(c.TOURate)
	if !ok || len(tou) == 0 {
		return ConfigurationSeries{}, &UnresolvedConfigurationError{Utility: c.Utility, Source: InputTOU, Identifier: c.TOURate}
	}
	lmp, err := lmpRates(c, in.LMP)
	if err != nil {
		return ConfigurationSeries{}, err
	}

	report := JoinReport{Utility: c.Utility, GenerationHours: len(gen)}
	hours := make([]HourlyRecord, 0, len(gen))
	for i, ts := range in.Generation.timestamps {
		touRate, ok := tou[ts]
		if !ok {
			report.MissingTOU++
			continue
		}
		lmpRate, ok := lmp[ts]
		if !ok {
			report.MissingLMP++
			continue
		}
		hours = append(hours, newHourlyRecord(ts, gen[i], c.FlatRate, touRate, lmpRate))
	}
	report.Joined = len(hours)

	fields := logrus.Fields{
		"utility":     c.Utility,
		"joined":      report.Joined,
		"missing_tou": report.MissingTOU,
		"missing_lmp": report.MissingLMP,
	}
	if report.Dropped() > 0 {
		j.log.WithFields(fields).Warn("joiner: hours dropped by timestamp join")
	} else {
		j.log.WithFields(fields).Debug("joiner: configuration joined")
	}
	return ConfigurationSeries{Configuration: c, Hours: hours, Report: report}, nil
}

// lmpRates returns the $/kWh LMP by timestamp for c's node.
func lmpRates(c Configuration, t LMPTable) (map[string]float64, error) {
	rates := make(map[string]float64)
	lines := make(map[string]int)
	for _, r := range t.rows {
		if r.NodeID != c.LMPNode || r.LMPType != LMPTypeEnergy {
			continue
		}
		if prev, dup := lines[r.Timestamp]; dup {
			return nil, &SchemaError{
				Input:  InputLMP,
				Column: ColTimestamp,
				Line:   r.Line,
				Reason: fmt.Sprintf("duplicate timestamp %q for node %s (first on line %d)", r.Timestamp, c.LMPNode, prev),
			}
		}
		lines[r.Timestamp] = r.Line
		rates[r.Timestamp] = r.RatePerKWh()
	}
	if len(rates) == 0 {
		return nil, &UnresolvedConfigurationError{Utility: c.Utility, Source: InputLMP, Identifier: c.LMPNode}
	}
	return rates, nil
}
