package valuation

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// AnnualScalar is a configuration's normalized annual value ($ per kW of
// capacity) under each compensation regime.
type AnnualScalar struct {
	Utility Utility
	Flat    float64
	TOU     float64
	LMP     float64
	Hours   int
}

// SiteValuation is a site with its configuration's scalars and the derived
// annual dollar values. NEMScalar and AnnualValueNEM are nil when the site's
// tariff version is not handled.
type SiteValuation struct {
	Site           Site
	Scalar         AnnualScalar
	NEMScalar      *float64
	AnnualValueNEM *float64
	AnnualValueLMP float64
}

// Valuation is the aggregator's output.
type Valuation struct {
	Scalars []AnnualScalar
	Sites   []SiteValuation
	// Warnings holds one UnhandledTariffVersionError per affected site.
	Warnings []error
	// UnmatchedSites counts sites whose utility has no configuration.
	UnmatchedSites int
}

// Scalar returns the annual scalar for a utility.
func (v *Valuation) Scalar(u Utility) (AnnualScalar, bool) {
	for _, s := range v.Scalars {
		if s.Utility == u {
			return s, true
		}
	}
	return AnnualScalar{}, false
}

// Aggregator reduces hourly values to annual scalars and site values.
type Aggregator struct {
	log logrus.FieldLogger
}

// NewAggregator returns an Aggregator that logs through log.
func NewAggregator(log logrus.FieldLogger) *Aggregator {
	return &Aggregator{log: log}
}

// AnnualScalars sums each configuration's hourly values.
func (a *Aggregator) AnnualScalars(t *HourlyTable) []AnnualScalar {
	out := make([]AnnualScalar, 0, len(t.series))
	for _, s := range t.series {
		sc := AnnualScalar{Utility: s.Configuration.Utility, Hours: len(s.Hours)}
		for _, h := range s.Hours {
			sc.Flat += h.FlatValue
			sc.TOU += h.TOUValue
			sc.LMP += h.LMPValue
		}
		out = append(out, sc)
	}
	return out
}

// Aggregate computes annual scalars and values every site whose utility has
// a configuration, in site registry order.
func (a *Aggregator) Aggregate(t *HourlyTable, sites []Site) *Valuation {
	v := &Valuation{Scalars: a.AnnualScalars(t)}
	byUtility := make(map[Utility]AnnualScalar, len(v.Scalars))
	for _, s := range v.Scalars {
		byUtility[s.Utility] = s
	}

	unmatched := make(map[Utility]int)
	for _, site := range sites {
		sc, ok := byUtility[site.Utility]
		if !ok {
			unmatched[site.Utility]++
			v.UnmatchedSites++
			continue
		}
		sv := SiteValuation{
			Site:           site,
			Scalar:         sc,
			AnnualValueLMP: sc.LMP * site.SystemSizeAC,
		}
		if nem, ok := selectNEMScalar(site.Tariff, sc); ok {
			value := nem * site.SystemSizeAC
			sv.NEMScalar = &nem
			sv.AnnualValueNEM = &value
		} else {
			w := &UnhandledTariffVersionError{Line: site.Line, Utility: site.Utility, Tariff: site.NEMTariff}
			a.log.WithField("line", site.Line).Warn("aggregator: " + w.Error())
			v.Warnings = append(v.Warnings, w)
		}
		v.Sites = append(v.Sites, sv)
	}

	for _, u := range sortedUtilities(unmatched) {
		a.log.WithFields(logrus.Fields{"utility": u, "sites": unmatched[u]}).
			Warn("aggregator: sites skipped, no configuration for utility")
	}
	return v
}

func sortedUtilities(m map[Utility]int) []Utility {
	out := make([]Utility, 0, len(m))
	for u := range m {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
